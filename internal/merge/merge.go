// Package merge selects a survivor for each cluster and produces the
// final canonical record, with per-field provenance back to whichever
// member contributed the value.
package merge

import (
	"sort"

	"github.com/matsen/refdedupe/internal/canonical"
)

// MergedRecord is a canonical.Record representing a cluster's survivor,
// with provenance tracking which member contributed each field.
type MergedRecord struct {
	Record     canonical.Record
	Provenance map[string]string // field name -> contributing member id
}

// ToJSON renders m as a map so encoding/json's automatic key sorting
// produces a deterministic, sorted-key JSON line.
func (m MergedRecord) ToJSON() map[string]any {
	out := m.Record.ToJSON()
	out["provenance"] = m.Provenance
	return out
}

// FromJSON reconstructs a MergedRecord from a decoded JSON line.
func FromJSON(obj map[string]any) (MergedRecord, error) {
	rec, err := canonical.FromJSON(obj)
	if err != nil {
		return MergedRecord{}, err
	}
	prov := make(map[string]string)
	if raw, ok := obj["provenance"].(map[string]any); ok {
		for k, v := range raw {
			if s, ok := v.(string); ok {
				prov[k] = s
			}
		}
	}
	return MergedRecord{Record: rec, Provenance: prov}, nil
}

// Survivor picks the representative member of a cluster, per the
// deterministic tiebreak order: non-null DOI, then PMID, then most
// non-null fields; then longest abstract; then most recent year; then
// lexicographically smallest id.
func Survivor(members []canonical.Record) canonical.Record {
	ordered := Order(members)
	return ordered[0]
}

// Order ranks cluster members from most to least preferred survivor,
// applying every tiebreaker in sequence. Field merge scans fall back
// through this same order for the first non-null value.
func Order(members []canonical.Record) []canonical.Record {
	ordered := append([]canonical.Record(nil), members...)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]

		if a.HasDOI != b.HasDOI {
			return a.HasDOI
		}
		if a.HasPMID != b.HasPMID {
			return a.HasPMID
		}
		if n1, n2 := a.NonNullFieldCount(), b.NonNullFieldCount(); n1 != n2 {
			return n1 > n2
		}
		if l1, l2 := len(a.Abstract), len(b.Abstract); a.HasAbstract || b.HasAbstract {
			if l1 != l2 {
				return l1 > l2
			}
		}
		if a.HasYear != b.HasYear {
			return a.HasYear
		}
		if a.HasYear && b.HasYear && a.Year != b.Year {
			return a.Year > b.Year
		}
		return a.ID < b.ID
	})
	return ordered
}

// Merge produces a MergedRecord for a cluster's members.
func Merge(members []canonical.Record) MergedRecord {
	ordered := Order(members)
	survivor := ordered[0]

	merged := survivor
	prov := make(map[string]string)

	mergeIdentifier(&merged.DOI, &merged.HasDOI, "doi", ordered, prov,
		func(r canonical.Record) (string, bool) { return r.DOI, r.HasDOI })
	mergeIdentifier(&merged.PMID, &merged.HasPMID, "pmid", ordered, prov,
		func(r canonical.Record) (string, bool) { return r.PMID, r.HasPMID })

	mergeIdentifier(&merged.Title, &merged.HasTitle, "title", ordered, prov,
		func(r canonical.Record) (string, bool) { return r.Title, r.HasTitle })
	mergeIdentifier(&merged.Venue, &merged.HasVenue, "venue", ordered, prov,
		func(r canonical.Record) (string, bool) { return r.Venue, r.HasVenue })
	mergeIdentifier(&merged.Volume, &merged.HasVolume, "volume", ordered, prov,
		func(r canonical.Record) (string, bool) { return r.Volume, r.HasVolume })
	mergeIdentifier(&merged.Issue, &merged.HasIssue, "issue", ordered, prov,
		func(r canonical.Record) (string, bool) { return r.Issue, r.HasIssue })

	mergePages(&merged, ordered, prov)
	mergeYear(&merged, ordered, prov)
	mergeType(&merged, ordered, prov)
	mergeAbstract(&merged, ordered, prov)
	mergeAuthors(&merged, ordered, prov)

	return MergedRecord{Record: merged, Provenance: prov}
}

// mergeIdentifier keeps survivor's value if non-null, else scans
// members in survivor-selection order for the first non-null value.
func mergeIdentifier(value *string, has *bool, field string, ordered []canonical.Record, prov map[string]string, get func(canonical.Record) (string, bool)) {
	for _, r := range ordered {
		if v, ok := get(r); ok {
			*value, *has = v, true
			prov[field] = r.ID
			return
		}
	}
}

// mergePages keeps the survivor's page range if it has one (numeric or
// text), else scans for the first member with a page range, matching
// the scalar-metadata merge policy applied to volume/issue.
func mergePages(merged *canonical.Record, ordered []canonical.Record, prov map[string]string) {
	hasPages := func(r canonical.Record) bool {
		return r.HasPagesStart || r.HasPagesEnd || r.PagesStartText != "" || r.PagesEndText != ""
	}
	for _, r := range ordered {
		if !hasPages(r) {
			continue
		}
		merged.PagesStart, merged.HasPagesStart = r.PagesStart, r.HasPagesStart
		merged.PagesEnd, merged.HasPagesEnd = r.PagesEnd, r.HasPagesEnd
		merged.PagesStartText, merged.PagesEndText = r.PagesStartText, r.PagesEndText
		prov["pages"] = r.ID
		return
	}
}

func mergeYear(merged *canonical.Record, ordered []canonical.Record, prov map[string]string) {
	for _, r := range ordered {
		if r.HasYear {
			merged.Year, merged.HasYear = r.Year, true
			prov["year"] = r.ID
			return
		}
	}
}

func mergeType(merged *canonical.Record, ordered []canonical.Record, prov map[string]string) {
	for _, r := range ordered {
		if r.Type != "" {
			merged.Type = r.Type
			prov["type"] = r.ID
			return
		}
	}
}

// mergeAbstract keeps the longest non-null abstract across all members,
// not merely the survivor's or the first-in-order.
func mergeAbstract(merged *canonical.Record, ordered []canonical.Record, prov map[string]string) {
	best := -1
	var bestID string
	for _, r := range ordered {
		if !r.HasAbstract {
			continue
		}
		if len(r.Abstract) > best {
			best = len(r.Abstract)
			merged.Abstract = r.Abstract
			bestID = r.ID
		}
	}
	if best >= 0 {
		merged.HasAbstract = true
		prov["abstract"] = bestID
	} else {
		merged.HasAbstract = false
		merged.Abstract = ""
	}
}

// mergeAuthors unions every member's author list, deduplicated by
// (family, given_initials), preserving the survivor's order for
// overlapping entries and appending novel entries in member-scan order.
// provenance[authors] anchors on the survivor, since authors is a
// collective field rather than a single contributed value.
func mergeAuthors(merged *canonical.Record, ordered []canonical.Record, prov map[string]string) {
	survivor := ordered[0]
	seen := make(map[string]bool, len(survivor.Authors))
	authors := make([]canonical.Author, 0, len(survivor.Authors))

	for _, a := range survivor.Authors {
		key := a.Family + "|" + a.GivenInitials
		if seen[key] {
			continue
		}
		seen[key] = true
		authors = append(authors, a)
	}

	for _, r := range ordered[1:] {
		for _, a := range r.Authors {
			key := a.Family + "|" + a.GivenInitials
			if seen[key] {
				continue
			}
			seen[key] = true
			authors = append(authors, a)
		}
	}

	merged.Authors = authors
	if len(authors) > 0 {
		prov["authors"] = survivor.ID
	}
}
