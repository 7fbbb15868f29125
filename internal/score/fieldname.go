// Package score computes Fellegi–Sunter pairwise comparison scores for
// candidate pairs.
package score

// FieldName is a closed enumeration of the comparable fields, each with
// a fixed comparator, so that total_score and agreement_pattern stay
// byte-deterministic across runs.
type FieldName string

const (
	FieldDOI     FieldName = "doi"
	FieldPMID    FieldName = "pmid"
	FieldTitle   FieldName = "title"
	FieldAuthors FieldName = "authors"
	FieldYear    FieldName = "year"
	FieldVenue   FieldName = "venue"
	FieldVolume  FieldName = "volume"
	FieldIssue   FieldName = "issue"
	FieldPages   FieldName = "pages"
)

// FieldOrder is the fixed enumeration order every deterministic
// accumulation (total_score, agreement_pattern bits) iterates in.
var FieldOrder = []FieldName{
	FieldDOI, FieldPMID, FieldTitle, FieldAuthors, FieldYear,
	FieldVenue, FieldVolume, FieldIssue, FieldPages,
}
