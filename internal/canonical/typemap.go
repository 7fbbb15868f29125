package canonical

import "strings"

// typeMap maps format-specific type codes to the closed RecordType
// enumeration. Unknown codes map to TypeOther rather than rejecting the
// record.
var typeMap = map[string]RecordType{
	// RIS
	"JOUR": TypeJournal,
	"CONF": TypeConference,
	"BOOK": TypeBook,
	"CHAP": TypeChapter,
	"THES": TypeThesis,
	"UNPB": TypePreprint,
	"GEN":  TypeOther,
	// PubMed NBIB
	"JOURNAL ARTICLE": TypeJournal,
	// BibTeX
	"ARTICLE":      TypeJournal,
	"INPROCEEDINGS": TypeConference,
	"PROCEEDINGS":   TypeConference,
	"BOOK@BIBTEX":   TypeBook,
	"INBOOK":        TypeChapter,
	"INCOLLECTION":  TypeChapter,
	"PHDTHESIS":     TypeThesis,
	"MASTERSTHESIS": TypeThesis,
	"MISC":          TypeOther,
	// WoS CIW
	"J": TypeJournal,
	"C": TypeConference,
	"B": TypeBook,
	// EndNote ENW
	"JOURNAL ARTICLE@ENW": TypeJournal,
	"CONFERENCE PROCEEDINGS": TypeConference,
}

// NormalizeType maps a raw type code to the closed RecordType enumeration.
func NormalizeType(raw string) RecordType {
	key := strings.ToUpper(strings.TrimSpace(raw))
	if t, ok := typeMap[key]; ok {
		return t
	}
	return TypeOther
}
