package block

import (
	"testing"

	"github.com/matsen/refdedupe/internal/canonical"
)

func rec(id, doi, pmid, title, venue string, year int, hasYear bool) canonical.Record {
	return canonical.Record{
		ID: id, DOI: doi, HasDOI: doi != "", PMID: pmid, HasPMID: pmid != "",
		Title: title, HasTitle: title != "", Venue: venue, HasVenue: venue != "",
		Year: year, HasYear: hasYear,
	}
}

func TestDOIBlockerGroupsEqualDOI(t *testing.T) {
	records := []canonical.Record{
		rec("b", "10.1/x", "", "t1", "", 2000, false),
		rec("a", "10.1/x", "", "t2", "", 2000, false),
		rec("c", "10.1/y", "", "t3", "", 2000, false),
	}
	pairs := DOIBlocker(records)
	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1", len(pairs))
	}
	if pairs[0].AID != "a" || pairs[0].BID != "b" {
		t.Errorf("pair = %+v, want a<b ordering", pairs[0])
	}
}

func TestPMIDBlockerSkipsEmpty(t *testing.T) {
	records := []canonical.Record{
		rec("a", "", "", "t", "", 2000, false),
		rec("b", "", "", "t", "", 2000, false),
	}
	if pairs := PMIDBlocker(records); len(pairs) != 0 {
		t.Errorf("got %d pairs for records with no PMID, want 0", len(pairs))
	}
}

func TestYearTitleBlockerRequiresThreeTokens(t *testing.T) {
	records := []canonical.Record{
		rec("a", "", "", "deep learning images", "", 1998, true),
		rec("b", "", "", "deep learning image", "", 1998, true),
		rec("c", "", "", "ai", "", 1998, true), // below token minimum
	}
	pairs := YearTitleBlocker(records)
	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1", len(pairs))
	}
}

func TestYearTitleBlockerDifferentYearNoPair(t *testing.T) {
	records := []canonical.Record{
		rec("a", "", "", "a survey of caches", "", 2001, true),
		rec("b", "", "", "a survey of caches", "", 2015, true),
	}
	if pairs := YearTitleBlocker(records); len(pairs) != 0 {
		t.Errorf("got %d pairs across different years, want 0", len(pairs))
	}
}

func TestLSHBlockerFindsNearDuplicateTitles(t *testing.T) {
	records := []canonical.Record{
		rec("a", "", "", "deep learning for images of cats and dogs", "nature", 1998, true),
		rec("b", "", "", "deep learning for image of cats and dogs", "nature", 1998, true),
		rec("c", "", "", "completely unrelated subject about gardening tools", "gardening weekly", 1998, true),
	}
	pairs := LSHBlocker(records, DefaultParams)

	found := false
	for _, p := range pairs {
		if p.AID == "a" && p.BID == "b" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected LSH to collide near-duplicate titles a/b, pairs=%+v", pairs)
	}
}

func TestLSHParamsValidate(t *testing.T) {
	bad := Params{K: 5, H: 128, B: 16, R: 7, Seed: 1}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for b*r != H")
	}
	if err := DefaultParams.Validate(); err != nil {
		t.Errorf("DefaultParams should validate, got %v", err)
	}
}

func TestUnionMergesBlockerTags(t *testing.T) {
	a := []Pair{NewPair("x", "y", TagDOI)}
	b := []Pair{NewPair("y", "x", TagPMID)}
	out := Union(a, b)
	if len(out) != 1 {
		t.Fatalf("got %d pairs, want 1", len(out))
	}
	if !out[0].Blockers[TagDOI] || !out[0].Blockers[TagPMID] {
		t.Errorf("expected union of blocker tags, got %+v", out[0].Blockers)
	}
}

func TestRunAppliesMaxPairsPerRecordCap(t *testing.T) {
	// All five records share a DOI, so every record has degree 4. With cap
	// 2 each record keeps only its two pairs with the lexicographically
	// smallest other id (all pairs have the same single-tag blocker set),
	// and a pair survives only if every over-cap endpoint keeps it, so
	// "hub" ends with at most 2 pairs.
	records := []canonical.Record{
		rec("hub", "10.1/x", "", "", "", 0, false),
		rec("a", "10.1/x", "", "", "", 0, false),
		rec("b", "10.1/x", "", "", "", 0, false),
		rec("c", "10.1/x", "", "", "", 0, false),
		rec("d", "10.1/x", "", "", "", 0, false),
	}
	result := Run(records, []string{TagDOI}, DefaultParams, 2)

	hubDegree := 0
	for _, p := range result.Pairs {
		if p.AID == "hub" || p.BID == "hub" {
			hubDegree++
		}
	}
	if hubDegree > 2 {
		t.Errorf("hub degree = %d after cap, want <= 2", hubDegree)
	}
}

func TestRunReportsCoverage(t *testing.T) {
	result := Run(nil, []string{TagDOI, TagLSH}, DefaultParams, 0)
	if !result.Coverage[TagDOI] || !result.Coverage[TagLSH] {
		t.Errorf("coverage = %+v, want doi and lsh both true", result.Coverage)
	}
	if result.Coverage[TagPMID] {
		t.Errorf("coverage should not include inactive blocker pmid")
	}
}

func TestPairSymmetryNoDuplicateOrdering(t *testing.T) {
	records := []canonical.Record{
		rec("b", "10.1/x", "", "", "", 0, false),
		rec("a", "10.1/x", "", "", "", 0, false),
	}
	result := Run(records, []string{TagDOI}, DefaultParams, 0)
	if len(result.Pairs) != 1 {
		t.Fatalf("got %d pairs, want 1", len(result.Pairs))
	}
	if result.Pairs[0].AID >= result.Pairs[0].BID {
		t.Errorf("pair AID/BID not in a<b order: %+v", result.Pairs[0])
	}
}
