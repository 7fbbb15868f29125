// Package rawrecord defines the uniform record the core pipeline accepts
// from format-specific tokenizers (RIS, NBIB, BibTeX, CIW, ENW).
//
// Those tokenizers are external collaborators; this package only defines
// the wire shape they must produce, never how to parse a source file.
package rawrecord

// Field is a single tag/value pair from a raw citation record. Tags are
// format-specific, e.g. RIS "TI", PubMed "AU", BibTeX "author".
type Field struct {
	Tag   string
	Value string
}

// Source identifies where a RawRecord came from, for provenance and for
// deriving a stable CanonicalRecord.id.
type Source struct {
	FilePath   string
	ByteOffset int64
}

// RawRecord is the uniform unit normalization consumes. Fields preserve
// the order they appeared in the source file; a tag may repeat (e.g.
// multiple "AU" lines).
type RawRecord struct {
	ID     string
	Fields []Field
	Source Source
}

// Values returns every value for a given tag, in source order.
func (r RawRecord) Values(tag string) []string {
	var out []string
	for _, f := range r.Fields {
		if f.Tag == tag {
			out = append(out, f.Value)
		}
	}
	return out
}

// First returns the first value for a given tag, or "" if absent.
func (r RawRecord) First(tag string) string {
	for _, f := range r.Fields {
		if f.Tag == tag {
			return f.Value
		}
	}
	return ""
}

// Valid reports whether the record has enough identity to be processed:
// an id or a source file path, so normalization can always derive a
// stable record id.
func (r RawRecord) Valid() bool {
	return r.ID != "" || r.Source.FilePath != ""
}
