package auditdb

import (
	"path/filepath"
	"testing"

	"github.com/matsen/refdedupe/internal/block"
	"github.com/matsen/refdedupe/internal/decide"
	"github.com/matsen/refdedupe/internal/score"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	db, err := Open(filepath.Join(dir, "audit.sqlite"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenCreatesEmptySchema(t *testing.T) {
	db := openTemp(t)
	n, err := db.CountByDecision("AUTO_DUP")
	if err != nil {
		t.Fatalf("CountByDecision() error = %v", err)
	}
	if n != 0 {
		t.Errorf("got %d, want 0 on empty cache", n)
	}
}

func TestRebuildPopulatesAllTables(t *testing.T) {
	db := openTemp(t)

	pairs := []block.Pair{
		block.NewPair("a", "b", "doi_exact"),
	}
	scored := []score.ScoredPair{
		{AID: "a", BID: "b", TotalScore: 9.5, FieldScores: map[score.FieldName]float64{}},
	}
	decisions := []decide.PairDecision{
		{AID: "a", BID: "b", Score: 9.5, Decision: decide.AutoDup, Reason: "score_ge_t_high"},
		{AID: "c", BID: "d", Score: -3.0, Decision: decide.Review, Reason: "t_low_le_score_lt_t_high"},
	}

	if err := db.Rebuild(pairs, scored, decisions); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}

	dupCount, err := db.CountByDecision("AUTO_DUP")
	if err != nil {
		t.Fatalf("CountByDecision() error = %v", err)
	}
	if dupCount != 1 {
		t.Errorf("got %d AUTO_DUP rows, want 1", dupCount)
	}

	queue, err := db.ReviewQueue(10)
	if err != nil {
		t.Fatalf("ReviewQueue() error = %v", err)
	}
	if len(queue) != 1 || queue[0].AID != "c" {
		t.Errorf("ReviewQueue() = %+v, want single c/d entry", queue)
	}

	coverage, err := db.BlockerCoverage()
	if err != nil {
		t.Fatalf("BlockerCoverage() error = %v", err)
	}
	if coverage["doi_exact"] != 1 {
		t.Errorf("BlockerCoverage()[doi_exact] = %d, want 1", coverage["doi_exact"])
	}
}

func TestRebuildIsIdempotent(t *testing.T) {
	db := openTemp(t)
	pairs := []block.Pair{block.NewPair("a", "b", "doi_exact")}

	if err := db.Rebuild(pairs, nil, nil); err != nil {
		t.Fatalf("first Rebuild() error = %v", err)
	}
	if err := db.Rebuild(pairs, nil, nil); err != nil {
		t.Fatalf("second Rebuild() error = %v", err)
	}

	coverage, err := db.BlockerCoverage()
	if err != nil {
		t.Fatalf("BlockerCoverage() error = %v", err)
	}
	if coverage["doi_exact"] != 1 {
		t.Errorf("got %d, want 1 after repeated rebuild (no duplicate accumulation)", coverage["doi_exact"])
	}
}

func TestRebuildClearsPreviousRunData(t *testing.T) {
	db := openTemp(t)

	first := []decide.PairDecision{{AID: "a", BID: "b", Decision: decide.AutoDup}}
	if err := db.Rebuild(nil, nil, first); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}

	second := []decide.PairDecision{{AID: "x", BID: "y", Decision: decide.Review}}
	if err := db.Rebuild(nil, nil, second); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}

	n, err := db.CountByDecision("AUTO_DUP")
	if err != nil {
		t.Fatalf("CountByDecision() error = %v", err)
	}
	if n != 0 {
		t.Errorf("got %d AUTO_DUP rows, want 0 after second rebuild cleared the first run", n)
	}
}
