package canonical

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// latexControlSeq matches a LaTeX control sequence like \emph, \textit{...},
// or a bare \& — a fixed, non-exhaustive pattern, not a full LaTeX
// grammar.
var latexControlSeq = regexp.MustCompile(`\\[a-zA-Z]+\{([^{}]*)\}|\\[a-zA-Z]+|\\[^a-zA-Z]`)

var bracePair = regexp.MustCompile(`[{}]`)

var whitespaceRun = regexp.MustCompile(`\s+`)

// leadTrailPunct strips leading/trailing punctuation left over once
// whitespace is collapsed.
var leadTrailPunct = regexp.MustCompile(`^[\p{P}\s]+|[\p{P}\s]+$`)

// stripDiacritics removes combining marks after NFKD decomposition, so
// "café" -> "cafe".
var diacriticsTransformer = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeText applies the shared title/venue/abstract normalization
// pipeline: NFKC, casefold, diacritic stripping, LaTeX control-sequence
// removal, whitespace collapse, punctuation trim.
func NormalizeText(s string) string {
	if s == "" {
		return ""
	}

	s = norm.NFKC.String(s)
	s = cases.Fold().String(s)

	if out, _, err := transform.String(diacriticsTransformer, s); err == nil {
		s = out
	}

	// Replace LaTeX control sequences with their braced argument (if any),
	// then strip any remaining bare braces.
	s = latexControlSeq.ReplaceAllString(s, "$1")
	s = bracePair.ReplaceAllString(s, "")

	s = whitespaceRun.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	s = leadTrailPunct.ReplaceAllString(s, "")

	return s
}
