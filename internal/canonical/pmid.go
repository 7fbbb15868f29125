package canonical

import "strings"

// NormalizePMID keeps digits only and rejects an empty result.
func NormalizePMID(raw string) (pmid string, ok bool) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	pmid = b.String()
	return pmid, pmid != ""
}
