package rawrecord

import "github.com/matsen/refdedupe/internal/rderrors"

// ToJSON renders r as a plain map, the wire shape external tokenizers
// write one-per-line as the core's input stream.
func (r RawRecord) ToJSON() map[string]any {
	fields := make([]any, len(r.Fields))
	for i, f := range r.Fields {
		fields[i] = map[string]any{"tag": f.Tag, "value": f.Value}
	}
	return map[string]any{
		"id":     r.ID,
		"fields": fields,
		"source": map[string]any{
			"file_path":   r.Source.FilePath,
			"byte_offset": r.Source.ByteOffset,
		},
	}
}

// FromJSON reconstructs a RawRecord from a decoded input line, returning
// an InputError if the record lacks both an id and a source file path
// (spec.md §7's InputError: "malformed RawRecord that lacks both id and
// source identifier").
func FromJSON(m map[string]any) (RawRecord, error) {
	r := RawRecord{ID: str(m["id"])}

	if src, ok := m["source"].(map[string]any); ok {
		r.Source.FilePath = str(src["file_path"])
		switch off := src["byte_offset"].(type) {
		case float64:
			r.Source.ByteOffset = int64(off)
		case int64:
			r.Source.ByteOffset = off
		}
	}

	if raw, ok := m["fields"].([]any); ok {
		for _, v := range raw {
			fm, ok := v.(map[string]any)
			if !ok {
				continue
			}
			r.Fields = append(r.Fields, Field{Tag: str(fm["tag"]), Value: str(fm["value"])})
		}
	}

	if !r.Valid() {
		return RawRecord{}, rderrors.InputError{Reason: "raw record has neither id nor source.file_path"}
	}
	return r, nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
