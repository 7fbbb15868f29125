package block

import (
	"sort"

	"github.com/matsen/refdedupe/internal/canonical"
)

// Result is Stage 2's output: the final pair list plus a coverage report
// naming which configured blockers actually ran.
type Result struct {
	Pairs    []Pair
	Coverage map[string]bool
}

// Run executes every tag in activeTags against records, unions the
// results, and applies the max-pairs-per-record cap. A blocker tag
// reports coverage=true once it executes, even if every individual
// record lacks the field it keys on; a blocker skips records missing its
// field rather than failing outright.
func Run(records []canonical.Record, activeTags []string, lshParams Params, maxPairsPerRecord int) Result {
	active := make(map[string]bool, len(activeTags))
	for _, t := range activeTags {
		active[t] = true
	}

	var lists [][]Pair
	coverage := make(map[string]bool)
	for _, tag := range AllTags {
		if !active[tag] {
			continue
		}
		switch tag {
		case TagDOI:
			lists = append(lists, DOIBlocker(records))
		case TagPMID:
			lists = append(lists, PMIDBlocker(records))
		case TagYearTitle:
			lists = append(lists, YearTitleBlocker(records))
		case TagLSH:
			lists = append(lists, LSHBlocker(records, lshParams))
		default:
			continue
		}
		coverage[tag] = true
	}

	pairs := Union(lists...)
	if maxPairsPerRecord > 0 {
		pairs = capPairsPerRecord(pairs, maxPairsPerRecord)
	}

	return Result{Pairs: pairs, Coverage: coverage}
}

// capPairsPerRecord enforces a per-record degree cap: for each record
// whose pair degree exceeds the cap, only its top `cap` pairs (ranked by
// largest blocker-tag set, ties broken by the other record's id) survive
// for that endpoint. A pair is dropped from the final result unless it
// survives at every endpoint that was over cap.
func capPairsPerRecord(pairs []Pair, cap int) []Pair {
	type incident struct {
		pairIdx int
		otherID string
		tagSize int
	}
	adjacency := make(map[string][]incident)
	for i, p := range pairs {
		adjacency[p.AID] = append(adjacency[p.AID], incident{pairIdx: i, otherID: p.BID, tagSize: len(p.Blockers)})
		adjacency[p.BID] = append(adjacency[p.BID], incident{pairIdx: i, otherID: p.AID, tagSize: len(p.Blockers)})
	}

	survives := make([]bool, len(pairs))
	for i := range survives {
		survives[i] = true
	}

	for _, incidents := range adjacency {
		if len(incidents) <= cap {
			continue
		}
		sort.Slice(incidents, func(i, j int) bool {
			if incidents[i].tagSize != incidents[j].tagSize {
				return incidents[i].tagSize > incidents[j].tagSize
			}
			return incidents[i].otherID < incidents[j].otherID
		})
		for _, inc := range incidents[cap:] {
			survives[inc.pairIdx] = false
		}
	}

	out := make([]Pair, 0, len(pairs))
	for i, p := range pairs {
		if survives[i] {
			out = append(out, p)
		}
	}
	return out
}
