package canonical

import (
	"regexp"
	"strconv"
	"strings"
)

var pageSeparator = regexp.MustCompile(`--|\x{2013}|-`)

// PageRange holds the normalized start/end page, either as the original
// (trimmed) text or, when both sides parse as integers, as ints too.
type PageRange struct {
	StartText string
	EndText   string
	StartInt  int
	EndInt    int
	Numeric   bool
}

// NormalizePages splits a combined "start-end" value (hyphen, double
// hyphen, or en dash separated) or, when epRaw is already a separate tag
// value (EP), takes the two independently. Either side may be empty.
func NormalizePages(spRaw, epRaw string) PageRange {
	start := strings.TrimSpace(spRaw)
	end := strings.TrimSpace(epRaw)

	if end == "" && start != "" {
		if parts := pageSeparator.Split(start, 2); len(parts) == 2 {
			start = strings.TrimSpace(parts[0])
			end = strings.TrimSpace(parts[1])
		}
	}

	pr := PageRange{StartText: start, EndText: end}
	si, errS := strconv.Atoi(start)
	ei, errE := strconv.Atoi(end)
	if start != "" && end != "" && errS == nil && errE == nil {
		pr.StartInt, pr.EndInt, pr.Numeric = si, ei, true
	}
	return pr
}
