package canonical

// ToJSON renders the record as a plain map so that artifact encoding
// (internal/store) can marshal it with sorted, null-preserving fields.
// A field with Has*==false is emitted as nil (JSON null) rather than its
// Go zero value, so an absent field never looks like a real empty value.
func (r Record) ToJSON() map[string]any {
	authors := make([]map[string]any, len(r.Authors))
	for i, a := range r.Authors {
		authors[i] = map[string]any{
			"family":         a.Family,
			"given_initials": a.GivenInitials,
		}
	}

	m := map[string]any{
		"id":         r.ID,
		"authors":    authors,
		"type":       string(r.Type),
		"raw_ref":    r.RawRef,
		"title":      nullableString(r.HasTitle, r.Title),
		"year":       nullableInt(r.HasYear, r.Year),
		"venue":      nullableString(r.HasVenue, r.Venue),
		"volume":     nullableString(r.HasVolume, r.Volume),
		"issue":      nullableString(r.HasIssue, r.Issue),
		"doi":        nullableString(r.HasDOI, r.DOI),
		"pmid":       nullableString(r.HasPMID, r.PMID),
		"abstract":   nullableString(r.HasAbstract, r.Abstract),
	}

	if r.HasPagesStart {
		m["pages_start"] = r.PagesStart
	} else {
		m["pages_start"] = nullablePagesText(r.PagesStartText)
	}
	if r.HasPagesEnd {
		m["pages_end"] = r.PagesEnd
	} else {
		m["pages_end"] = nullablePagesText(r.PagesEndText)
	}

	return m
}

func nullableString(has bool, v string) any {
	if !has {
		return nil
	}
	return v
}

func nullableInt(has bool, v int) any {
	if !has {
		return nil
	}
	return v
}

func nullablePagesText(v string) any {
	if v == "" {
		return nil
	}
	return v
}
