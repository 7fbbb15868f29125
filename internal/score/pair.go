package score

import (
	"fmt"
	"sort"
)

// ScoredPair is the Stage 3 artifact for a single candidate pair: its
// per-field quantized agreement levels (0, 0.5 or 1), the aggregated
// log-likelihood total,
// and a compact agreement pattern for quick inspection in the audit
// cache.
type ScoredPair struct {
	AID              string
	BID              string
	Blockers         map[string]bool
	FieldScores      map[FieldName]float64
	TotalScore       float64
	AgreementPattern uint64
}

// ToJSON renders p as a map so encoding/json's automatic key sorting
// produces a deterministic, sorted-key JSON line.
func (p ScoredPair) ToJSON() map[string]any {
	tags := make([]string, 0, len(p.Blockers))
	for tag, on := range p.Blockers {
		if on {
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)
	blockers := make([]any, len(tags))
	for i, t := range tags {
		blockers[i] = t
	}

	fields := make(map[string]any, len(p.FieldScores))
	for _, f := range FieldOrder {
		if s, ok := p.FieldScores[f]; ok {
			fields[string(f)] = s
		}
	}

	return map[string]any{
		"a_id":              p.AID,
		"b_id":              p.BID,
		"blockers":          blockers,
		"field_scores":      fields,
		"total_score":       p.TotalScore,
		"agreement_pattern": p.AgreementPattern,
	}
}

// FromJSON reconstructs a ScoredPair from a decoded JSON line.
func FromJSON(m map[string]any) (ScoredPair, error) {
	aID, _ := m["a_id"].(string)
	bID, _ := m["b_id"].(string)
	if aID == "" || bID == "" {
		return ScoredPair{}, fmt.Errorf("score: scored pair missing a_id/b_id")
	}

	blockers := make(map[string]bool)
	if raw, ok := m["blockers"].([]any); ok {
		for _, v := range raw {
			if tag, ok := v.(string); ok {
				blockers[tag] = true
			}
		}
	}

	fieldScores := make(map[FieldName]float64)
	if raw, ok := m["field_scores"].(map[string]any); ok {
		for k, v := range raw {
			if f, ok := v.(float64); ok {
				fieldScores[FieldName(k)] = f
			}
		}
	}

	total, _ := m["total_score"].(float64)

	var pattern uint64
	switch v := m["agreement_pattern"].(type) {
	case float64:
		pattern = uint64(v)
	case uint64:
		pattern = v
	}

	return ScoredPair{
		AID:              aID,
		BID:              bID,
		Blockers:         blockers,
		FieldScores:      fieldScores,
		TotalScore:       total,
		AgreementPattern: pattern,
	}, nil
}
