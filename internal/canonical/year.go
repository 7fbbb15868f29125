package canonical

import (
	"regexp"
	"strconv"
)

var fourDigitGroup = regexp.MustCompile(`\d{4}`)

// MinYear is the lower bound on a plausible publication year.
const MinYear = 1500

// NormalizeYear finds the first 4-digit group in raw that falls within
// [MinYear, currentYear+1] and returns it. currentYear is threaded in
// explicitly (rather than read from the wall clock here) so normalization
// stays a pure function of its inputs.
func NormalizeYear(raw string, currentYear int) (year int, ok bool) {
	max := currentYear + 1
	for _, m := range fourDigitGroup.FindAllString(raw, -1) {
		y, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		if y >= MinYear && y <= max {
			return y, true
		}
	}
	return 0, false
}
