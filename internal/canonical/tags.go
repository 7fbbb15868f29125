package canonical

// Fixed tag tables mapping the format-specific RawRecord tags the supported
// tokenizers (RIS, PubMed NBIB, BibTeX, WoS CIW, EndNote ENW) are known to
// emit onto the canonical fields normalization fills in. Tokenizers vary in
// which tag they use for the same concept; this table is the single place
// that knowledge lives so normalize.go stays format-agnostic.
var (
	titleTags    = []string{"TI", "T1", "title", "TITLE"}
	authorTags   = []string{"AU", "A1", "author", "AUTHOR", "AUTHORS"}
	venueTags    = []string{"JO", "JF", "T2", "journal", "JOURNAL", "SO", "booktitle"}
	volumeTags   = []string{"VL", "volume", "VOLUME"}
	issueTags    = []string{"IS", "number", "ISSUE"}
	pagesTags    = []string{"SP", "pages", "PAGES"}
	pagesEndTags = []string{"EP"}
	doiTags      = []string{"DO", "DOI", "doi"}
	pmidTags     = []string{"PMID", "AID"}
	abstractTags = []string{"AB", "N2", "abstract", "ABSTRACT"}
	yearTags     = []string{"PY", "Y1", "DA", "year", "YEAR"}
	typeTags     = []string{"TY", "type", "PT"}
)

// firstOf returns the first non-empty value found by trying each tag in
// order against the record.
func firstOf(r rawValues, tags []string) string {
	for _, t := range tags {
		if v := r.First(t); v != "" {
			return v
		}
	}
	return ""
}

// allOf returns every value found for any of the given tags, in the order
// the tags are tried and, within a tag, in source order.
func allOf(r rawValues, tags []string) []string {
	var out []string
	for _, t := range tags {
		out = append(out, r.Values(t)...)
	}
	return out
}

// rawValues is the subset of rawrecord.RawRecord's API normalize depends
// on, kept narrow so tests can supply a fake without importing rawrecord.
type rawValues interface {
	First(tag string) string
	Values(tag string) []string
}
