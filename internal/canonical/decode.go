package canonical

// FromJSON reconstructs a Record from a JSON-decoded line of
// stage1/canonical_records.jsonl (ToJSON's map after encoding/json has
// turned numbers into float64 and lists into []any), for
// stage-resumable reruns that start from that artifact instead of raw
// input.
func FromJSON(m map[string]any) (Record, error) {
	r := Record{
		ID:     str(m["id"]),
		RawRef: str(m["raw_ref"]),
		Type:   RecordType(str(m["type"])),
	}

	if v, ok := m["title"]; ok && v != nil {
		r.Title, r.HasTitle = v.(string), true
	}
	if v, ok := m["venue"]; ok && v != nil {
		r.Venue, r.HasVenue = v.(string), true
	}
	if v, ok := m["volume"]; ok && v != nil {
		r.Volume, r.HasVolume = v.(string), true
	}
	if v, ok := m["issue"]; ok && v != nil {
		r.Issue, r.HasIssue = v.(string), true
	}
	if v, ok := m["doi"]; ok && v != nil {
		r.DOI, r.HasDOI = v.(string), true
	}
	if v, ok := m["pmid"]; ok && v != nil {
		r.PMID, r.HasPMID = v.(string), true
	}
	if v, ok := m["abstract"]; ok && v != nil {
		r.Abstract, r.HasAbstract = v.(string), true
	}
	if v, ok := m["year"]; ok && v != nil {
		r.Year, r.HasYear = int(num(v)), true
	}

	switch v := m["pages_start"].(type) {
	case float64:
		r.PagesStart, r.HasPagesStart = int(v), true
	case string:
		r.PagesStartText = v
	}
	switch v := m["pages_end"].(type) {
	case float64:
		r.PagesEnd, r.HasPagesEnd = int(v), true
	case string:
		r.PagesEndText = v
	}

	if rawAuthors, ok := m["authors"].([]any); ok {
		for _, a := range rawAuthors {
			am, ok := a.(map[string]any)
			if !ok {
				continue
			}
			r.Authors = append(r.Authors, Author{
				Family:        str(am["family"]),
				GivenInitials: str(am["given_initials"]),
			})
		}
	}

	return r, nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func num(v any) float64 {
	f, _ := v.(float64)
	return f
}
