// Package auditdb provides an ephemeral, rebuildable SQLite cache over
// a run's candidate pairs, scores, and decisions, for ad-hoc inspection
// during audit. It is never consulted by the pipeline itself — the
// JSONL stage artifacts are the source of truth; this cache exists
// purely so a human (or a downstream tool) can query a run's decision
// trail without re-parsing JSONL by hand.
package auditdb

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/matsen/refdedupe/internal/block"
	"github.com/matsen/refdedupe/internal/decide"
	"github.com/matsen/refdedupe/internal/score"
)

// DB wraps a SQLite connection backing the audit cache.
type DB struct {
	db *sql.DB
}

// Open opens or creates the audit database at path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening audit database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating audit schema: %w", err)
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS candidate_pairs (
			a_id TEXT NOT NULL,
			b_id TEXT NOT NULL,
			blockers_json TEXT NOT NULL,
			PRIMARY KEY (a_id, b_id)
		);

		CREATE TABLE IF NOT EXISTS scored_pairs (
			a_id TEXT NOT NULL,
			b_id TEXT NOT NULL,
			total_score REAL NOT NULL,
			field_scores_json TEXT NOT NULL,
			PRIMARY KEY (a_id, b_id)
		);
		CREATE INDEX IF NOT EXISTS idx_scored_pairs_total_score ON scored_pairs(total_score);

		CREATE TABLE IF NOT EXISTS decisions (
			a_id TEXT NOT NULL,
			b_id TEXT NOT NULL,
			decision TEXT NOT NULL,
			score REAL NOT NULL,
			reason TEXT NOT NULL,
			PRIMARY KEY (a_id, b_id)
		);
		CREATE INDEX IF NOT EXISTS idx_decisions_decision ON decisions(decision);
	`
	_, err := db.Exec(schema)
	return err
}

// Rebuild clears every table and repopulates it from a run's in-memory
// stage results, mirroring how the pipeline would reconstruct the cache
// from the JSONL artifacts on disk.
func (d *DB) Rebuild(pairs []block.Pair, scored []score.ScoredPair, decisions []decide.PairDecision) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("starting audit rebuild transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"candidate_pairs", "scored_pairs", "decisions"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	pairStmt, err := tx.Prepare(`INSERT INTO candidate_pairs (a_id, b_id, blockers_json) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing candidate_pairs insert: %w", err)
	}
	defer pairStmt.Close()

	for _, p := range pairs {
		blockersJSON, err := json.Marshal(p.BlockerTags())
		if err != nil {
			return fmt.Errorf("encoding blockers for %s/%s: %w", p.AID, p.BID, err)
		}
		if _, err := pairStmt.Exec(p.AID, p.BID, string(blockersJSON)); err != nil {
			return fmt.Errorf("inserting candidate pair %s/%s: %w", p.AID, p.BID, err)
		}
	}

	scoredStmt, err := tx.Prepare(`INSERT INTO scored_pairs (a_id, b_id, total_score, field_scores_json) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing scored_pairs insert: %w", err)
	}
	defer scoredStmt.Close()

	for _, s := range scored {
		fieldScoresJSON, err := json.Marshal(s.ToJSON()["field_scores"])
		if err != nil {
			return fmt.Errorf("encoding field scores for %s/%s: %w", s.AID, s.BID, err)
		}
		if _, err := scoredStmt.Exec(s.AID, s.BID, s.TotalScore, string(fieldScoresJSON)); err != nil {
			return fmt.Errorf("inserting scored pair %s/%s: %w", s.AID, s.BID, err)
		}
	}

	decisionStmt, err := tx.Prepare(`INSERT INTO decisions (a_id, b_id, decision, score, reason) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing decisions insert: %w", err)
	}
	defer decisionStmt.Close()

	for _, dec := range decisions {
		if _, err := decisionStmt.Exec(dec.AID, dec.BID, string(dec.Decision), dec.Score, dec.Reason); err != nil {
			return fmt.Errorf("inserting decision %s/%s: %w", dec.AID, dec.BID, err)
		}
	}

	return tx.Commit()
}

// CountByDecision returns how many pairs received the given decision
// (e.g. "AUTO_DUP", "REVIEW", "AUTO_KEEP").
func (d *DB) CountByDecision(decision string) (int, error) {
	var n int
	err := d.db.QueryRow(`SELECT COUNT(*) FROM decisions WHERE decision = ?`, decision).Scan(&n)
	return n, err
}

// ReviewQueue returns every REVIEW-decision pair ordered by descending
// score, the set a human reviewer would triage first.
func (d *DB) ReviewQueue(limit int) ([]decide.PairDecision, error) {
	rows, err := d.db.Query(`
		SELECT a_id, b_id, score, reason
		FROM decisions
		WHERE decision = 'REVIEW'
		ORDER BY score DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying review queue: %w", err)
	}
	defer rows.Close()

	var out []decide.PairDecision
	for rows.Next() {
		var d decide.PairDecision
		d.Decision = decide.Review
		if err := rows.Scan(&d.AID, &d.BID, &d.Score, &d.Reason); err != nil {
			return nil, fmt.Errorf("scanning review queue row: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// BlockerCoverage reports, for each blocker tag, how many candidate
// pairs it contributed to.
func (d *DB) BlockerCoverage() (map[string]int, error) {
	rows, err := d.db.Query(`SELECT blockers_json FROM candidate_pairs`)
	if err != nil {
		return nil, fmt.Errorf("querying blocker coverage: %w", err)
	}
	defer rows.Close()

	coverage := make(map[string]int)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scanning blocker coverage row: %w", err)
		}
		var tags []string
		if err := json.Unmarshal([]byte(raw), &tags); err != nil {
			return nil, fmt.Errorf("parsing blocker tags: %w", err)
		}
		for _, tag := range tags {
			coverage[tag]++
		}
	}
	return coverage, rows.Err()
}
