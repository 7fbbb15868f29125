package block

import (
	"fmt"
	"strings"

	"github.com/matsen/refdedupe/internal/canonical"
)

// yearTitleStopwords is the fixed stopword list filtered out of title
// tokens before building the blocking key.
var yearTitleStopwords = map[string]bool{
	"a": true, "an": true, "and": true, "the": true, "of": true, "in": true,
	"on": true, "for": true, "to": true, "with": true, "is": true, "are": true,
	"by": true, "at": true, "from": true, "as": true,
}

// yearTitleN is the number of leading (stopword-filtered) title tokens used
// to build the blocking key.
const yearTitleN = 5

// YearTitleMinTokens is the minimum stopword-filtered token count a
// title must have to participate in this blocker.
const YearTitleMinTokens = 3

// titleTokens returns r.Title's whitespace-separated tokens with stopwords
// removed, in order.
func titleTokens(title string) []string {
	var out []string
	for _, tok := range strings.Fields(title) {
		if yearTitleStopwords[tok] {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// YearTitleBlocker keys on (year, first five stopword-filtered title
// tokens). Records with no year or fewer than three title tokens are
// skipped by this blocker.
func YearTitleBlocker(records []canonical.Record) []Pair {
	groups := make(map[string][]string)
	var order []string

	for _, r := range records {
		if !r.HasYear || !r.HasTitle {
			continue
		}
		tokens := titleTokens(r.Title)
		if len(tokens) < YearTitleMinTokens {
			continue
		}
		if len(tokens) > yearTitleN {
			tokens = tokens[:yearTitleN]
		}
		key := fmt.Sprintf("%d|%s", r.Year, strings.Join(tokens, " "))
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], r.ID)
	}

	var pairs []Pair
	for _, key := range order {
		ids := groups[key]
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				pairs = append(pairs, NewPair(ids[i], ids[j], TagYearTitle))
			}
		}
	}
	return pairs
}
