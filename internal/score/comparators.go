package score

import (
	"github.com/matsen/refdedupe/internal/canonical"
)

// CompareField returns field f's raw comparator score in [0,1] for the
// pair (a, b). missingWeight is the configured "no evidence" value
// (default 0.5) used whenever the field's comparator shape calls for it
// on a null.
func CompareField(f FieldName, a, b canonical.Record, missingWeight float64) float64 {
	switch f {
	case FieldDOI:
		return compareExact(a.HasDOI, b.HasDOI, a.DOI, b.DOI, missingWeight)
	case FieldPMID:
		return compareExact(a.HasPMID, b.HasPMID, a.PMID, b.PMID, missingWeight)
	case FieldTitle:
		return compareFuzzy(a.HasTitle, b.HasTitle, a.Title, b.Title)
	case FieldAuthors:
		return compareAuthors(a.Authors, b.Authors, missingWeight)
	case FieldYear:
		return compareYear(a.HasYear, b.HasYear, a.Year, b.Year, missingWeight)
	case FieldVenue:
		return compareFuzzy(a.HasVenue, b.HasVenue, a.Venue, b.Venue)
	case FieldVolume:
		return compareExact(a.HasVolume, b.HasVolume, a.Volume, b.Volume, missingWeight)
	case FieldIssue:
		return compareExact(a.HasIssue, b.HasIssue, a.Issue, b.Issue, missingWeight)
	case FieldPages:
		return comparePages(a, b, missingWeight)
	default:
		return 0
	}
}

// compareExact implements the DOI/PMID/Volume/Issue comparator shape: 1.0
// equal, 0.0 unequal, missingWeight if either side is null.
func compareExact(hasA, hasB bool, a, b string, missingWeight float64) float64 {
	if !hasA || !hasB {
		return missingWeight
	}
	if a == b {
		return 1.0
	}
	return 0.0
}

// compareFuzzy implements the Title/Venue comparator shape: Jaro-Winkler
// on both normalized strings, thresholded at 0.6, 0 when either side is
// null. Title and venue have no missing_weight rule; a null contributes
// a flat disagreement.
func compareFuzzy(hasA, hasB bool, a, b string) float64 {
	if !hasA || !hasB {
		return 0.0
	}
	sim := JaroWinkler(a, b)
	if sim < 0.6 {
		return 0.0
	}
	return sim
}

// compareAuthors implements the overlap-coefficient comparator: |A∩B| /
// min(|A|,|B|) over (family, first_initial) tuples.
func compareAuthors(a, b []canonical.Author, missingWeight float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return missingWeight
	}

	setA := make(map[string]bool, len(a))
	for _, au := range a {
		setA[authorKey(au)] = true
	}
	setB := make(map[string]bool, len(b))
	for _, au := range b {
		setB[authorKey(au)] = true
	}

	overlap := 0
	for k := range setA {
		if setB[k] {
			overlap++
		}
	}

	denom := len(setA)
	if len(setB) < denom {
		denom = len(setB)
	}
	if denom == 0 {
		return missingWeight
	}
	return float64(overlap) / float64(denom)
}

func authorKey(a canonical.Author) string {
	return a.Family + "|" + a.GivenInitials
}

// compareYear implements the year comparator: 1.0 equal, 0.5 off-by-one,
// 0.0 otherwise, missingWeight if either side is null.
func compareYear(hasA, hasB bool, a, b int, missingWeight float64) float64 {
	if !hasA || !hasB {
		return missingWeight
	}
	delta := a - b
	if delta < 0 {
		delta = -delta
	}
	switch {
	case delta == 0:
		return 1.0
	case delta == 1:
		return 0.5
	default:
		return 0.0
	}
}

// comparePages implements the pages comparator as exact equality of the
// normalized (start, end) pair, missingWeight if either side has no page
// information at all.
func comparePages(a, b canonical.Record, missingWeight float64) float64 {
	aKey, aHas := pagesKey(a)
	bKey, bHas := pagesKey(b)
	if !aHas || !bHas {
		return missingWeight
	}
	if aKey == bKey {
		return 1.0
	}
	return 0.0
}

// IsMissing reports whether field f's comparison has no evidence at all
// for the pair (a, b) — i.e. the underlying data is null on either side,
// as opposed to present-but-disagreeing. Score uses this to force a
// field's log-likelihood contribution to exactly 0 per spec's "nulls
// contribute 0", independent of whatever value missingWeight quantizes
// to.
func IsMissing(f FieldName, a, b canonical.Record) bool {
	switch f {
	case FieldDOI:
		return !a.HasDOI || !b.HasDOI
	case FieldPMID:
		return !a.HasPMID || !b.HasPMID
	case FieldTitle:
		return !a.HasTitle || !b.HasTitle
	case FieldAuthors:
		return len(a.Authors) == 0 || len(b.Authors) == 0
	case FieldYear:
		return !a.HasYear || !b.HasYear
	case FieldVenue:
		return !a.HasVenue || !b.HasVenue
	case FieldVolume:
		return !a.HasVolume || !b.HasVolume
	case FieldIssue:
		return !a.HasIssue || !b.HasIssue
	case FieldPages:
		_, aHas := pagesKey(a)
		_, bHas := pagesKey(b)
		return !aHas || !bHas
	default:
		return false
	}
}

func pagesKey(r canonical.Record) (string, bool) {
	start := r.PagesStartText
	if r.HasPagesStart {
		start = itoa(r.PagesStart)
	}
	end := r.PagesEndText
	if r.HasPagesEnd {
		end = itoa(r.PagesEnd)
	}
	if start == "" && end == "" {
		return "", false
	}
	return start + "-" + end, true
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
