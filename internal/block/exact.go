package block

import (
	"sort"

	"github.com/matsen/refdedupe/internal/canonical"
)

// exactMatchBlocker groups records by a non-null key and emits all pairs
// within each group. DOI and PMID share this shape; keyFn returns
// ("", false) when the record has no usable key.
func exactMatchBlocker(records []canonical.Record, tag string, keyFn func(canonical.Record) (string, bool)) []Pair {
	groups := make(map[string][]string)
	for _, r := range records {
		key, ok := keyFn(r)
		if !ok {
			continue
		}
		groups[key] = append(groups[key], r.ID)
	}

	var pairs []Pair
	for _, ids := range groups {
		sort.Strings(ids)
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				pairs = append(pairs, NewPair(ids[i], ids[j], tag))
			}
		}
	}
	return pairs
}

// DOIBlocker groups by non-null normalized DOI.
func DOIBlocker(records []canonical.Record) []Pair {
	return exactMatchBlocker(records, TagDOI, func(r canonical.Record) (string, bool) {
		return r.DOI, r.HasDOI
	})
}

// PMIDBlocker groups by non-null normalized PMID.
func PMIDBlocker(records []canonical.Record) []Pair {
	return exactMatchBlocker(records, TagPMID, func(r canonical.Record) (string, bool) {
		return r.PMID, r.HasPMID
	})
}
