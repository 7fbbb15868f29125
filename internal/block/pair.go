// Package block generates candidate pairs from canonical records with
// high recall at sub-quadratic cost.
package block

import "sort"

// Pair is a candidate pair: two record ids (ordered a<b
// lexicographically) plus the set of blocker tags that proposed them.
type Pair struct {
	AID      string
	BID      string
	Blockers map[string]bool
}

// NewPair builds a Pair with ids placed in the required lexicographic
// order and a single blocker tag set.
func NewPair(id1, id2, tag string) Pair {
	a, b := id1, id2
	if a > b {
		a, b = b, a
	}
	return Pair{AID: a, BID: b, Blockers: map[string]bool{tag: true}}
}

// key identifies a pair independent of blocker tags, for the union step.
func (p Pair) key() [2]string { return [2]string{p.AID, p.BID} }

// BlockerTags returns the pair's blocker tags sorted for deterministic
// output.
func (p Pair) BlockerTags() []string {
	tags := make([]string, 0, len(p.Blockers))
	for t := range p.Blockers {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// ToJSON renders the pair for stage2/candidate_pairs.jsonl.
func (p Pair) ToJSON() map[string]any {
	tags := p.BlockerTags()
	blockers := make([]any, len(tags))
	for i, t := range tags {
		blockers[i] = t
	}
	return map[string]any{
		"a_id":     p.AID,
		"b_id":     p.BID,
		"blockers": blockers,
	}
}

// FromJSON reconstructs a Pair from a decoded stage2 artifact line.
func FromJSON(m map[string]any) (Pair, error) {
	p := Pair{AID: asString(m["a_id"]), BID: asString(m["b_id"]), Blockers: map[string]bool{}}
	if raw, ok := m["blockers"].([]any); ok {
		for _, v := range raw {
			if s, ok := v.(string); ok {
				p.Blockers[s] = true
			}
		}
	}
	return p, nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// Union merges pair lists from multiple blockers by (a_id, b_id),
// combining blocker tag sets, and returns the result sorted by
// (a_id, b_id).
func Union(lists ...[]Pair) []Pair {
	byKey := make(map[[2]string]Pair)
	var order [][2]string
	for _, list := range lists {
		for _, p := range list {
			k := p.key()
			existing, ok := byKey[k]
			if !ok {
				byKey[k] = p
				order = append(order, k)
				continue
			}
			for tag := range p.Blockers {
				existing.Blockers[tag] = true
			}
			byKey[k] = existing
		}
	}

	out := make([]Pair, 0, len(byKey))
	for _, k := range order {
		out = append(out, byKey[k])
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AID != out[j].AID {
			return out[i].AID < out[j].AID
		}
		return out[i].BID < out[j].BID
	})
	return out
}
