package cluster

import (
	"github.com/matsen/refdedupe/internal/decide"
)

// FromJSON reconstructs a Cluster from a decoded stage5 artifact line,
// for stage-resumable runs that start Merge from stage5/clusters.jsonl
// instead of from in-memory decisions.
func FromJSON(m map[string]any) (Cluster, error) {
	c := Cluster{}

	if raw, ok := m["members"].([]any); ok {
		for _, v := range raw {
			if s, ok := v.(string); ok {
				c.Members = append(c.Members, s)
			}
		}
	}

	if raw, ok := m["edges"].([]any); ok {
		for _, v := range raw {
			em, ok := v.(map[string]any)
			if !ok {
				continue
			}
			edge, err := decide.FromJSON(em)
			if err != nil {
				continue
			}
			c.Edges = append(c.Edges, edge)
		}
	}

	if split, ok := m["anti_transitivity_split"].(bool); ok {
		c.AntiTransitivitySplit = split
	}

	return c, nil
}
