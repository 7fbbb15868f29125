package block

// Tag names for the four default blockers, used both as pair.Blockers
// keys and as the `candidate_blockers` configuration values.
const (
	TagDOI       = "doi"
	TagPMID      = "pmid"
	TagYearTitle = "year_title"
	TagLSH       = "lsh"
)

// AllTags lists every blocker this package implements, in a fixed order
// so coverage reporting and pair generation are deterministic.
var AllTags = []string{TagDOI, TagPMID, TagYearTitle, TagLSH}
