package canonical

import (
	"fmt"
	"strings"

	"github.com/matsen/refdedupe/internal/rawrecord"
)

// Normalize canonicalizes a RawRecord. It never fails: malformed or
// unrecognized fields become null and the record id is preserved so the
// record is never rejected outright.
//
// currentYear bounds year validity (see NormalizeYear) and is threaded in
// explicitly rather than read from the wall clock, keeping Normalize a
// pure function of its arguments — normalize(normalize(r)) == normalize(r)
// holds because every sub-step here is itself idempotent on its own
// already-normalized output.
func Normalize(r rawrecord.RawRecord, currentYear int) Record {
	rec := Record{
		ID:     recordID(r),
		RawRef: r.ID,
	}

	if title := firstOf(r, titleTags); title != "" {
		norm := NormalizeText(title)
		if norm != "" {
			rec.Title, rec.HasTitle = norm, true
		}
	}

	rec.Authors = NormalizeAuthors(allOf(r, authorTags))

	if year, ok := NormalizeYear(strings.Join(allOf(r, yearTags), " "), currentYear); ok {
		rec.Year, rec.HasYear = year, true
	}

	if venue := firstOf(r, venueTags); venue != "" {
		norm := NormalizeText(venue)
		if norm != "" {
			rec.Venue, rec.HasVenue = norm, true
		}
	}

	if vol := firstOf(r, volumeTags); vol != "" {
		rec.Volume, rec.HasVolume = vol, true
	}
	if issue := firstOf(r, issueTags); issue != "" {
		rec.Issue, rec.HasIssue = issue, true
	}

	pr := NormalizePages(firstOf(r, pagesTags), firstOf(r, pagesEndTags))
	if pr.Numeric {
		rec.PagesStart, rec.HasPagesStart = pr.StartInt, true
		rec.PagesEnd, rec.HasPagesEnd = pr.EndInt, true
	} else {
		rec.PagesStartText = pr.StartText
		rec.PagesEndText = pr.EndText
	}

	if doi, ok := NormalizeDOI(firstOf(r, doiTags)); ok {
		rec.DOI, rec.HasDOI = doi, true
	}

	if pmid, ok := NormalizePMID(firstOf(r, pmidTags)); ok {
		rec.PMID, rec.HasPMID = pmid, true
	}

	if abstract := firstOf(r, abstractTags); abstract != "" {
		norm := NormalizeText(abstract)
		if norm != "" {
			rec.Abstract, rec.HasAbstract = norm, true
		}
	}

	rec.Type = NormalizeType(firstOf(r, typeTags))

	return rec
}

// recordID derives a stable id from the source identifier. The raw
// record's own id, when present, is authoritative: it is the tokenizer's
// citekey or equivalent and is already unique within the run by
// construction.
// Falls back to file_path#byte_offset when the tokenizer assigned no id:
// byte offset is required, not just file path, since two records from
// the same file with no per-record id otherwise collide on the same id.
func recordID(r rawrecord.RawRecord) string {
	if r.ID != "" {
		return r.ID
	}
	return fmt.Sprintf("%s#%d", r.Source.FilePath, r.Source.ByteOffset)
}
