package score

import (
	"math"
	"testing"

	"github.com/matsen/refdedupe/internal/canonical"
)

func TestJaroWinklerIdenticalStrings(t *testing.T) {
	if got := JaroWinkler("deep learning", "deep learning"); got != 1.0 {
		t.Errorf("JaroWinkler(same,same) = %v, want 1.0", got)
	}
}

func TestJaroWinklerEmptyStrings(t *testing.T) {
	if got := JaroWinkler("", "x"); got != 0.0 {
		t.Errorf("JaroWinkler(\"\",x) = %v, want 0.0", got)
	}
}

func TestJaroWinklerCommonPrefixBoost(t *testing.T) {
	a := JaroWinkler("martha", "marhta")
	if a <= 0.9 || a >= 1.0 {
		t.Errorf("JaroWinkler(martha,marhta) = %v, want in (0.9,1.0)", a)
	}
}

func TestCompareExactMissingWeight(t *testing.T) {
	a := canonical.Record{HasDOI: false}
	b := canonical.Record{HasDOI: true, DOI: "10.1/x"}
	got := CompareField(FieldDOI, a, b, 0.5)
	if got != 0.5 {
		t.Errorf("CompareField(doi) with one null = %v, want 0.5", got)
	}
}

func TestCompareExactEqual(t *testing.T) {
	a := canonical.Record{HasDOI: true, DOI: "10.1/x"}
	b := canonical.Record{HasDOI: true, DOI: "10.1/x"}
	if got := CompareField(FieldDOI, a, b, 0.5); got != 1.0 {
		t.Errorf("CompareField(doi) equal = %v, want 1.0", got)
	}
}

func TestCompareFuzzyNullContributesZero(t *testing.T) {
	a := canonical.Record{HasTitle: false}
	b := canonical.Record{HasTitle: true, Title: "deep learning"}
	if got := CompareField(FieldTitle, a, b, 0.5); got != 0.0 {
		t.Errorf("CompareField(title) with one null = %v, want 0.0", got)
	}
}

func TestCompareAuthorsOverlapCoefficient(t *testing.T) {
	a := canonical.Record{Authors: []canonical.Author{
		{Family: "Smith", GivenInitials: "J"},
		{Family: "Lee", GivenInitials: "K"},
	}}
	b := canonical.Record{Authors: []canonical.Author{
		{Family: "Smith", GivenInitials: "J"},
	}}
	got := CompareField(FieldAuthors, a, b, 0.5)
	if got != 1.0 {
		t.Errorf("overlap coefficient = %v, want 1.0 (b's single author is a subset of a's)", got)
	}
}

func TestCompareYearOffByOne(t *testing.T) {
	a := canonical.Record{HasYear: true, Year: 2001}
	b := canonical.Record{HasYear: true, Year: 2002}
	if got := CompareField(FieldYear, a, b, 0.5); got != 0.5 {
		t.Errorf("CompareField(year) off-by-one = %v, want 0.5", got)
	}
}

func TestQuantizeBuckets(t *testing.T) {
	cases := []struct {
		raw  float64
		want float64
	}{
		{0.0, 0}, {0.49, 0}, {0.5, 0.5}, {0.84, 0.5}, {0.85, 1}, {1.0, 1},
	}
	for _, c := range cases {
		if got := Quantize(c.raw); got != c.want {
			t.Errorf("Quantize(%v) = %v, want %v", c.raw, got, c.want)
		}
	}
}

func TestScoreIdenticalRecordsMaximizesScore(t *testing.T) {
	r := canonical.Record{
		HasDOI: true, DOI: "10.1/x",
		HasTitle: true, Title: "deep learning for vision",
		HasYear: true, Year: 2001,
	}
	w := Weights{
		M: map[FieldName]float64{FieldDOI: 0.98, FieldPMID: 0.9, FieldTitle: 0.95, FieldAuthors: 0.9, FieldYear: 0.95, FieldVenue: 0.9, FieldVolume: 0.9, FieldIssue: 0.9, FieldPages: 0.9},
		U: map[FieldName]float64{FieldDOI: 0.001, FieldPMID: 0.001, FieldTitle: 0.01, FieldAuthors: 0.05, FieldYear: 0.1, FieldVenue: 0.05, FieldVolume: 0.1, FieldIssue: 0.1, FieldPages: 0.1},
	}
	_, total, pattern := Score(r, r, w, 0.5)
	if total <= 0 {
		t.Errorf("total score for identical records = %v, want > 0", total)
	}
	if pattern == 0 {
		t.Errorf("agreement pattern for identical records should have bits set")
	}
}

func TestScoreAllFieldsMissingContributesZero(t *testing.T) {
	// Two bare records with no field in common at all must score exactly
	// 0 and set no agreement bits: nulls contribute 0 to the total
	// regardless of what missingWeight would otherwise quantize to.
	a := canonical.Record{}
	b := canonical.Record{}
	w := Weights{
		M: map[FieldName]float64{FieldDOI: 0.98, FieldPMID: 0.9, FieldTitle: 0.95, FieldAuthors: 0.9, FieldYear: 0.95, FieldVenue: 0.9, FieldVolume: 0.9, FieldIssue: 0.9, FieldPages: 0.9},
		U: map[FieldName]float64{FieldDOI: 0.001, FieldPMID: 0.001, FieldTitle: 0.01, FieldAuthors: 0.05, FieldYear: 0.1, FieldVenue: 0.05, FieldVolume: 0.1, FieldIssue: 0.1, FieldPages: 0.1},
	}
	_, total, pattern := Score(a, b, w, 0.5)
	if total != 0 {
		t.Errorf("total score for all-missing pair = %v, want exactly 0", total)
	}
	if pattern != 0 {
		t.Errorf("agreement pattern for all-missing pair = %b, want 0", pattern)
	}
}

func TestScoreMissingDOIDoesNotInflateScore(t *testing.T) {
	// A missing DOI contributes 0 rather than missingWeight's quantized
	// agreement, so a pair whose DOIs match must outscore the same pair
	// (agreeing title, nothing else) with DOI absent on both sides.
	withDOI := canonical.Record{HasDOI: true, DOI: "10.1/x", HasTitle: true, Title: "same title here"}
	noDOIa := canonical.Record{HasTitle: true, Title: "same title here"}
	noDOIb := canonical.Record{HasTitle: true, Title: "same title here"}
	w := Weights{
		M: map[FieldName]float64{FieldDOI: 0.98, FieldPMID: 0.9, FieldTitle: 0.95, FieldAuthors: 0.9, FieldYear: 0.95, FieldVenue: 0.9, FieldVolume: 0.9, FieldIssue: 0.9, FieldPages: 0.9},
		U: map[FieldName]float64{FieldDOI: 0.001, FieldPMID: 0.001, FieldTitle: 0.01, FieldAuthors: 0.05, FieldYear: 0.1, FieldVenue: 0.05, FieldVolume: 0.1, FieldIssue: 0.1, FieldPages: 0.1},
	}
	_, totalWithDOI, _ := Score(withDOI, withDOI, w, 0.5)
	_, totalWithout, _ := Score(noDOIa, noDOIb, w, 0.5)
	if totalWithDOI <= totalWithout {
		t.Errorf("total with matching DOI (%v) should exceed total with missing DOI (%v)", totalWithDOI, totalWithout)
	}
}

func TestLogRatioClampsAwayFromInfinity(t *testing.T) {
	got := logRatio(1.0, 0.0)
	if math.IsInf(got, 0) || math.IsNaN(got) {
		t.Errorf("logRatio(1,0) = %v, want finite", got)
	}
}

func TestScoredPairRoundTrip(t *testing.T) {
	p := ScoredPair{
		AID:      "a",
		BID:      "b",
		Blockers: map[string]bool{"doi": true},
		FieldScores: map[FieldName]float64{
			FieldDOI: 1.0, FieldTitle: 0.5,
		},
		TotalScore:       3.21,
		AgreementPattern: 5,
	}
	out, err := FromJSON(p.ToJSON())
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if out.AID != p.AID || out.BID != p.BID || out.TotalScore != p.TotalScore || out.AgreementPattern != p.AgreementPattern {
		t.Errorf("round trip = %+v, want %+v", out, p)
	}
	if !out.Blockers["doi"] {
		t.Errorf("round trip lost blocker tag doi")
	}
	if out.FieldScores[FieldDOI] != 1.0 {
		t.Errorf("round trip lost field score doi")
	}
}

func TestFromJSONRejectsMissingIDs(t *testing.T) {
	if _, err := FromJSON(map[string]any{}); err == nil {
		t.Error("expected error for scored pair missing ids")
	}
}
