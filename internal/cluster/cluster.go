// Package cluster forms connected components from AUTO_DUP pairwise
// decisions and enforces the anti-transitivity guard that keeps a
// cluster internally evidenced.
package cluster

import (
	"sort"

	"github.com/matsen/refdedupe/internal/decide"
)

// Cluster is the Stage 5 artifact: a set of record ids believed to
// refer to the same underlying work, plus the AUTO_DUP/REVIEW edges
// observed among its members.
type Cluster struct {
	Members               []string
	Edges                 []decide.PairDecision
	AntiTransitivitySplit bool
}

// ToJSON renders c as a map so encoding/json's automatic key sorting
// produces a deterministic, sorted-key JSON line.
func (c Cluster) ToJSON() map[string]any {
	members := append([]string(nil), c.Members...)
	sort.Strings(members)

	edges := make([]map[string]any, len(c.Edges))
	for i, e := range c.Edges {
		edges[i] = e.ToJSON()
	}

	return map[string]any{
		"cluster_id":              clusterID(members),
		"members":                 members,
		"edges":                  edges,
		"anti_transitivity_split": c.AntiTransitivitySplit,
	}
}

// clusterID is the lexicographically smallest member id, matching the
// "sort Cluster by min(member_id)" ordering guarantee.
func clusterID(sortedMembers []string) string {
	if len(sortedMembers) == 0 {
		return ""
	}
	return sortedMembers[0]
}

type unionFind struct {
	parent map[string]string
}

func newUnionFind() *unionFind {
	return &unionFind{parent: make(map[string]string)}
}

func (u *unionFind) find(x string) string {
	if _, ok := u.parent[x]; !ok {
		u.parent[x] = x
		return x
	}
	root := x
	for u.parent[root] != root {
		root = u.parent[root]
	}
	for u.parent[x] != root {
		next := u.parent[x]
		u.parent[x] = root
		x = next
	}
	return root
}

func (u *unionFind) union(a, b string) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	// Deterministic tiebreak so repeated runs produce identical roots.
	if ra > rb {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
}

// Build forms clusters from decisions. allPairScores supplies every
// candidate pair's total score (by (a_id,b_id) key, a_id<b_id), used
// by the anti-transitivity guard to check "was at least a candidate"
// (score >= t_low) for pairs with no AUTO_DUP edge. allRecordIDs lists
// every normalized record's id; any id that never joins an AUTO_DUP
// component survives as its own one-member cluster, so a record with no
// duplicate still reaches the merged output (spec.md §1's "deduplicated
// set" includes untouched records, not just the ones that matched).
func Build(decisions []decide.PairDecision, tLow float64, allPairScores map[[2]string]float64, allRecordIDs []string) []Cluster {
	dupEdges := make([]decide.PairDecision, 0, len(decisions))
	nonDupEdges := make([]decide.PairDecision, 0, len(decisions))
	for _, d := range decisions {
		if d.Decision == decide.AutoDup {
			dupEdges = append(dupEdges, d)
		} else {
			nonDupEdges = append(nonDupEdges, d)
		}
	}
	sort.Slice(dupEdges, func(i, j int) bool {
		if dupEdges[i].AID != dupEdges[j].AID {
			return dupEdges[i].AID < dupEdges[j].AID
		}
		return dupEdges[i].BID < dupEdges[j].BID
	})

	split := make(map[string]bool)
	for {
		components := unionComponents(dupEdges)
		violating := findViolatingComponent(components, dupEdges, tLow, allPairScores)
		if violating == nil {
			return withSingletons(buildClusters(components, dupEdges, nonDupEdges, split), components, allRecordIDs)
		}
		for _, m := range violating {
			split[m] = true
		}

		before := len(dupEdges)
		dupEdges = removeWeakestEdge(dupEdges, violating)
		if len(dupEdges) == before {
			// No AUTO_DUP edge left to remove inside the component; the
			// invariant cannot be repaired further, so stop iterating.
			return withSingletons(buildClusters(components, dupEdges, nonDupEdges, split), components, allRecordIDs)
		}
	}
}

// withSingletons appends a one-member cluster for every id in
// allRecordIDs that no AUTO_DUP component claimed, so non-duplicate
// records still flow into Stage 6 instead of being dropped, and
// re-sorts the result by cluster id.
func withSingletons(clusters []Cluster, components [][]string, allRecordIDs []string) []Cluster {
	covered := make(map[string]bool)
	for _, members := range components {
		for _, m := range members {
			covered[m] = true
		}
	}
	for _, id := range allRecordIDs {
		if covered[id] {
			continue
		}
		clusters = append(clusters, Cluster{Members: []string{id}})
	}
	sort.Slice(clusters, func(i, j int) bool { return clusters[i].Members[0] < clusters[j].Members[0] })
	return clusters
}

// unionComponents runs union-find over dupEdges and returns each
// resulting component as a sorted member slice, sorted by the
// component's minimum member id.
func unionComponents(dupEdges []decide.PairDecision) [][]string {
	uf := newUnionFind()
	present := make(map[string]bool)
	for _, e := range dupEdges {
		uf.union(e.AID, e.BID)
		present[e.AID] = true
		present[e.BID] = true
	}

	byRoot := make(map[string][]string)
	for id := range present {
		root := uf.find(id)
		byRoot[root] = append(byRoot[root], id)
	}

	components := make([][]string, 0, len(byRoot))
	for _, members := range byRoot {
		sort.Strings(members)
		components = append(components, members)
	}
	sort.Slice(components, func(i, j int) bool { return components[i][0] < components[j][0] })
	return components
}

// findViolatingComponent returns the first component (in sorted order)
// containing a pair with neither an AUTO_DUP edge nor a score >= t_low,
// or nil if every component satisfies the invariant.
func findViolatingComponent(components [][]string, dupEdges []decide.PairDecision, tLow float64, allPairScores map[[2]string]float64) []string {
	dupSet := make(map[[2]string]bool, len(dupEdges))
	for _, e := range dupEdges {
		dupSet[key(e.AID, e.BID)] = true
	}

	for _, members := range components {
		if len(members) < 3 {
			continue
		}
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				k := key(members[i], members[j])
				if dupSet[k] {
					continue
				}
				if score, ok := allPairScores[k]; ok && score >= tLow {
					continue
				}
				return members
			}
		}
	}
	return nil
}

// removeWeakestEdge drops the minimum-score AUTO_DUP edge whose
// endpoints are both in component.
func removeWeakestEdge(dupEdges []decide.PairDecision, component []string) []decide.PairDecision {
	inComponent := make(map[string]bool, len(component))
	for _, m := range component {
		inComponent[m] = true
	}

	weakestIdx := -1
	for i, e := range dupEdges {
		if !inComponent[e.AID] || !inComponent[e.BID] {
			continue
		}
		if weakestIdx == -1 || e.Score < dupEdges[weakestIdx].Score {
			weakestIdx = i
		}
	}
	if weakestIdx == -1 {
		return dupEdges
	}

	out := make([]decide.PairDecision, 0, len(dupEdges)-1)
	out = append(out, dupEdges[:weakestIdx]...)
	out = append(out, dupEdges[weakestIdx+1:]...)
	return out
}

func buildClusters(components [][]string, dupEdges, nonDupEdges []decide.PairDecision, split map[string]bool) []Cluster {
	dupByComponent := make(map[string][]decide.PairDecision)
	nonDupByComponent := make(map[string][]decide.PairDecision)

	memberOf := make(map[string]string)
	for _, members := range components {
		for _, m := range members {
			memberOf[m] = members[0]
		}
	}

	for _, e := range dupEdges {
		if root, ok := memberOf[e.AID]; ok {
			dupByComponent[root] = append(dupByComponent[root], e)
		}
	}
	for _, e := range nonDupEdges {
		rootA, okA := memberOf[e.AID]
		rootB, okB := memberOf[e.BID]
		if okA && okB && rootA == rootB {
			nonDupByComponent[rootA] = append(nonDupByComponent[rootA], e)
		}
	}

	clusters := make([]Cluster, 0, len(components))
	for _, members := range components {
		root := members[0]
		edges := append([]decide.PairDecision(nil), dupByComponent[root]...)
		edges = append(edges, nonDupByComponent[root]...)
		sort.Slice(edges, func(i, j int) bool {
			if edges[i].AID != edges[j].AID {
				return edges[i].AID < edges[j].AID
			}
			return edges[i].BID < edges[j].BID
		})
		wasSplit := false
		for _, m := range members {
			if split[m] {
				wasSplit = true
				break
			}
		}
		clusters = append(clusters, Cluster{
			Members:               members,
			Edges:                 edges,
			AntiTransitivitySplit: wasSplit,
		})
	}
	sort.Slice(clusters, func(i, j int) bool { return clusters[i].Members[0] < clusters[j].Members[0] })
	return clusters
}

func key(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}
