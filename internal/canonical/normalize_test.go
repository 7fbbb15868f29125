package canonical

import (
	"testing"

	"github.com/matsen/refdedupe/internal/rawrecord"
)

func rec(fields ...rawrecord.Field) rawrecord.RawRecord {
	return rawrecord.RawRecord{ID: "r1", Fields: fields, Source: rawrecord.Source{FilePath: "in.ris"}}
}

func f(tag, val string) rawrecord.Field { return rawrecord.Field{Tag: tag, Value: val} }

func TestNormalizeTitleAndDOI(t *testing.T) {
	r := rec(
		f("TI", "  Deep   Learning for {Images}\\emph{!}  "),
		f("DO", "https://doi.org/10.1000/XYZ"),
		f("PY", "1998"),
	)
	got := Normalize(r, 2026)

	if !got.HasTitle || got.Title != "deep learning for images" {
		t.Errorf("Title = %q (has=%v), want %q", got.Title, got.HasTitle, "deep learning for images")
	}
	if !got.HasDOI || got.DOI != "10.1000/xyz" {
		t.Errorf("DOI = %q (has=%v), want 10.1000/xyz", got.DOI, got.HasDOI)
	}
	if !got.HasYear || got.Year != 1998 {
		t.Errorf("Year = %d (has=%v), want 1998", got.Year, got.HasYear)
	}
}

func TestNormalizeDOIRejectsMalformed(t *testing.T) {
	r := rec(f("DO", "not-a-doi"))
	got := Normalize(r, 2026)
	if got.HasDOI {
		t.Errorf("HasDOI = true for malformed DOI %q", got.DOI)
	}
}

func TestNormalizePMIDDigitsOnly(t *testing.T) {
	r := rec(f("PMID", "PMID: 123456 "))
	got := Normalize(r, 2026)
	if !got.HasPMID || got.PMID != "123456" {
		t.Errorf("PMID = %q (has=%v), want 123456", got.PMID, got.HasPMID)
	}
}

func TestNormalizeYearOutOfRange(t *testing.T) {
	r := rec(f("PY", "0099"))
	got := Normalize(r, 2026)
	if got.HasYear {
		t.Errorf("HasYear = true for out-of-range year %d", got.Year)
	}
}

func TestNormalizeAuthorsSemicolon(t *testing.T) {
	r := rec(f("AU", "Smith, John; Doe, Anne"))
	got := Normalize(r, 2026)
	want := []Author{{Family: "smith", GivenInitials: "j"}, {Family: "doe", GivenInitials: "a"}}
	if len(got.Authors) != 2 || got.Authors[0] != want[0] || got.Authors[1] != want[1] {
		t.Errorf("Authors = %+v, want %+v", got.Authors, want)
	}
}

func TestNormalizeAuthorsGivenFamilyOrder(t *testing.T) {
	r := rec(f("AU", "John Smith"))
	got := Normalize(r, 2026)
	if len(got.Authors) != 1 || got.Authors[0].Family != "smith" || got.Authors[0].GivenInitials != "j" {
		t.Errorf("Authors = %+v, want [{smith j}]", got.Authors)
	}
}

func TestNormalizePagesNumeric(t *testing.T) {
	r := rec(f("SP", "100-110"))
	got := Normalize(r, 2026)
	if !got.HasPagesStart || !got.HasPagesEnd || got.PagesStart != 100 || got.PagesEnd != 110 {
		t.Errorf("Pages = %d-%d (has=%v/%v), want 100-110", got.PagesStart, got.PagesEnd, got.HasPagesStart, got.HasPagesEnd)
	}
}

func TestNormalizePagesNonNumeric(t *testing.T) {
	r := rec(f("SP", "S1-S12"))
	got := Normalize(r, 2026)
	if got.HasPagesStart || got.HasPagesEnd {
		t.Errorf("expected non-numeric page range to stay textual, got HasPagesStart=%v HasPagesEnd=%v", got.HasPagesStart, got.HasPagesEnd)
	}
	if got.PagesStartText != "S1" || got.PagesEndText != "S12" {
		t.Errorf("PagesStartText/EndText = %q/%q, want S1/S12", got.PagesStartText, got.PagesEndText)
	}
}

func TestNormalizeTypeMapping(t *testing.T) {
	r := rec(f("TY", "JOUR"))
	got := Normalize(r, 2026)
	if got.Type != TypeJournal {
		t.Errorf("Type = %q, want journal", got.Type)
	}
}

func TestNormalizeTypeUnknownFallsBackToOther(t *testing.T) {
	r := rec(f("TY", "ZZZZ"))
	got := Normalize(r, 2026)
	if got.Type != TypeOther {
		t.Errorf("Type = %q, want other", got.Type)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	r := rec(
		f("TI", "Café Études"),
		f("AU", "Döe, Ánne"),
		f("DO", "doi:10.5/X"),
	)
	first := Normalize(r, 2026)

	// Feed the normalized title back through NormalizeText directly:
	// renormalizing already-normalized text must be a no-op.
	if NormalizeText(first.Title) != first.Title {
		t.Errorf("NormalizeText not idempotent: %q -> %q", first.Title, NormalizeText(first.Title))
	}
}

func TestNormalizeIDFallsBackToFilePathAndByteOffset(t *testing.T) {
	// No per-record id from the tokenizer: two records from the same
	// file at different byte offsets must not collide on CanonicalRecord.id.
	r1 := rawrecord.RawRecord{Source: rawrecord.Source{FilePath: "in.ris", ByteOffset: 0}}
	r2 := rawrecord.RawRecord{Source: rawrecord.Source{FilePath: "in.ris", ByteOffset: 512}}

	got1 := Normalize(r1, 2026)
	got2 := Normalize(r2, 2026)

	if got1.ID == got2.ID {
		t.Fatalf("records at distinct byte offsets of the same file collided on id %q", got1.ID)
	}
	if got1.ID != "in.ris#0" {
		t.Errorf("ID = %q, want in.ris#0", got1.ID)
	}
	if got2.ID != "in.ris#512" {
		t.Errorf("ID = %q, want in.ris#512", got2.ID)
	}
}

func TestNormalizeMalformedFieldNeverRejectsRecord(t *testing.T) {
	r := rec(f("DO", "garbage"), f("PY", "garbage"), f("PMID", "garbage"))
	got := Normalize(r, 2026)
	if got.ID == "" {
		t.Error("record id should survive even when every optional field is malformed")
	}
	if got.HasDOI || got.HasYear || got.HasPMID {
		t.Errorf("expected all malformed fields to be null, got %+v", got)
	}
}
