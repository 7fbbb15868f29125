package canonical

import (
	"regexp"
	"strings"
)

var doiURLPrefix = regexp.MustCompile(`(?i)^https?://(dx\.)?doi\.org/`)
var doiScheme = regexp.MustCompile(`(?i)^doi:\s*`)
var doiPattern = regexp.MustCompile(`^10\.[^/\s]+/\S+$`)

// NormalizeDOI strips URL/scheme prefixes, lowercases, and validates the
// result against the `10\.[^/\s]+/\S+` DOI shape. ok is false when the
// value does not satisfy that pattern after stripping, in which case the
// field must be treated as null.
func NormalizeDOI(raw string) (doi string, ok bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	s = doiURLPrefix.ReplaceAllString(s, "")
	s = doiScheme.ReplaceAllString(s, "")
	s = strings.ToLower(strings.TrimSpace(s))

	if !doiPattern.MatchString(s) {
		return "", false
	}
	return s, true
}
