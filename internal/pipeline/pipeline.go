// Package pipeline orchestrates the six deduplication stages end to end,
// materializing each stage's artifact on disk and returning the result
// summary returned to external callers.
//
// Stage-resume: Run and RunDetailed always pass each stage's results to
// the next in memory. The per-stage methods (Normalize, Block, Score,
// Decide, Cluster, Merge) take their input explicitly, so a caller can
// instead feed them results reloaded from the materialized JSONL
// artifacts; the single-stage CLI subcommands do exactly that.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/matsen/refdedupe/internal/block"
	"github.com/matsen/refdedupe/internal/calib"
	"github.com/matsen/refdedupe/internal/canonical"
	"github.com/matsen/refdedupe/internal/cluster"
	"github.com/matsen/refdedupe/internal/config"
	"github.com/matsen/refdedupe/internal/decide"
	"github.com/matsen/refdedupe/internal/merge"
	"github.com/matsen/refdedupe/internal/rawrecord"
	"github.com/matsen/refdedupe/internal/rderrors"
	"github.com/matsen/refdedupe/internal/score"
	"github.com/matsen/refdedupe/internal/store"
)

// ArtifactPaths names every file the pipeline writes, relative to
// cfg.OutputDir. Exported so cmd/refdedupe can print output_files
// without duplicating the layout.
type ArtifactPaths struct {
	CanonicalRecords string
	CandidatePairs   string
	ScoredPairs      string
	PairDecisions    string
	Clusters         string
	MergedRecords    string
	ClustersEnriched string
	Summary          string
}

// Paths returns the stage artifact layout under outputDir, matching
// spec.md §6's fixed relative paths.
func Paths(outputDir string) ArtifactPaths {
	return ArtifactPaths{
		CanonicalRecords: filepath.Join(outputDir, "stage1", "canonical_records.jsonl"),
		CandidatePairs:   filepath.Join(outputDir, "stage2", "candidate_pairs.jsonl"),
		ScoredPairs:      filepath.Join(outputDir, "stage3", "scored_pairs.jsonl"),
		PairDecisions:    filepath.Join(outputDir, "stage4", "pair_decisions.jsonl"),
		Clusters:         filepath.Join(outputDir, "stage5", "clusters.jsonl"),
		MergedRecords:    filepath.Join(outputDir, "artifacts", "merged_records.jsonl"),
		ClustersEnriched: filepath.Join(outputDir, "artifacts", "clusters_enriched.jsonl"),
		Summary:          filepath.Join(outputDir, "artifacts", "summary.json"),
	}
}

// Summary is the result returned to callers after a full run, per
// spec.md §6.
type Summary struct {
	Success             bool              `json:"success"`
	TotalRecords        int               `json:"total_records"`
	TotalCandidates     int               `json:"total_candidates"`
	TotalDuplicatesAuto int               `json:"total_duplicates_auto"`
	TotalReviewPairs    int               `json:"total_review_pairs"`
	BlockerCoverage     map[string]bool   `json:"blocker_coverage,omitempty"`
	OutputFiles         map[string]string `json:"output_files,omitempty"`
	ErrorMessage        string            `json:"error_message,omitempty"`
}

// Pipeline threads an immutable configuration and calibration tables
// through the six stage entry points. It carries no mutable state of
// its own; every stage method takes its input explicitly and returns
// its output, so two Pipeline values sharing a Config never interfere.
type Pipeline struct {
	Config config.Config
	Tables calib.Tables
}

// New constructs a Pipeline, validating cfg and loading calibration
// data once up front (per spec.md §5, "calibration tables... loaded
// once, immutable thereafter").
func New(cfg config.Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tables, err := calib.Default()
	if err != nil {
		return nil, err
	}
	if tHigh := decide.ResolveThresholdHigh(tables, cfg.FPRAlpha, cfg.THigh); cfg.TLow > tHigh {
		return nil, rderrors.ConfigurationError{Field: "t_low/t_high", Reason: fmt.Sprintf("t_low (%v) must be <= t_high (%v)", cfg.TLow, tHigh)}
	}
	return &Pipeline{Config: cfg, Tables: tables}, nil
}

// Run executes all six stages in order against raw, writing every
// artifact under p.Config.OutputDir, and returns the result summary.
// It never returns an error to the caller for per-record or per-pair
// anomalies: a malformed field becomes null and the record still flows
// through. The summary carries no count of such anomalies. It does
// return an error
// for fatal configuration/IO failures, mirroring spec.md §7's
// "stage-level configuration errors are fatal" while still producing a
// best-effort Summary with Success=false for the CLI to report.
func Run(cfg config.Config, raw []rawrecord.RawRecord, currentYear int) (Summary, error) {
	result, err := RunDetailed(cfg, raw, currentYear)
	return result.Summary, err
}

// Detailed carries every stage's in-memory output alongside the final
// Summary, so a caller (the CLI's --audit-db flag, a resumed run) can
// act on intermediate results without re-reading artifacts from disk.
type Detailed struct {
	Summary   Summary
	Pairs     []block.Pair
	Scored    []score.ScoredPair
	Decisions []decide.PairDecision
	Clusters  []cluster.Cluster
	Merged    []merge.MergedRecord
}

// RunDetailed is Run's full implementation, returning every
// intermediate stage result in addition to the Summary.
func RunDetailed(cfg config.Config, raw []rawrecord.RawRecord, currentYear int) (Detailed, error) {
	p, err := New(cfg)
	if err != nil {
		return Detailed{Summary: Summary{Success: false, ErrorMessage: err.Error()}}, err
	}

	paths := Paths(cfg.OutputDir)

	records := p.Normalize(raw, currentYear)
	if err := store.WriteJSONL(paths.CanonicalRecords, records); err != nil {
		return failDetailed(err)
	}

	blockResult := p.Block(records)
	if err := store.WriteJSONL(paths.CandidatePairs, blockResult.Pairs); err != nil {
		return failDetailed(err)
	}

	recordsByID := indexByID(records)
	scored := p.Score(blockResult.Pairs, recordsByID)
	if err := store.WriteJSONL(paths.ScoredPairs, scored); err != nil {
		return failDetailed(err)
	}

	decisions, err := p.Decide(scored, recordsByID)
	if err != nil {
		return failDetailed(err)
	}
	if err := store.WriteJSONL(paths.PairDecisions, decisions); err != nil {
		return failDetailed(err)
	}

	allPairScores := make(map[[2]string]float64, len(scored))
	for _, s := range scored {
		allPairScores[[2]string{s.AID, s.BID}] = s.TotalScore
	}
	recordIDs := make([]string, 0, len(records))
	for _, r := range records {
		recordIDs = append(recordIDs, r.ID)
	}
	clusters := p.Cluster(decisions, allPairScores, recordIDs)
	if err := store.WriteJSONL(paths.Clusters, clusters); err != nil {
		return failDetailed(err)
	}

	merged := p.Merge(clusters, recordsByID)
	if err := store.WriteJSONL(paths.MergedRecords, merged); err != nil {
		return failDetailed(err)
	}

	enriched := EnrichClusters(clusters, merged)
	if err := store.WriteJSONL(paths.ClustersEnriched, enriched); err != nil {
		return failDetailed(err)
	}

	totalDupAuto, totalReview := 0, 0
	for _, d := range decisions {
		switch d.Decision {
		case decide.AutoDup:
			totalDupAuto++
		case decide.Review:
			totalReview++
		}
	}

	summary := Summary{
		Success:             true,
		TotalRecords:        len(records),
		TotalCandidates:     len(blockResult.Pairs),
		TotalDuplicatesAuto: totalDupAuto,
		TotalReviewPairs:    totalReview,
		BlockerCoverage:     blockResult.Coverage,
		OutputFiles: map[string]string{
			"canonical_records": paths.CanonicalRecords,
			"candidate_pairs":   paths.CandidatePairs,
			"scored_pairs":      paths.ScoredPairs,
			"pair_decisions":    paths.PairDecisions,
			"clusters":          paths.Clusters,
			"merged_records":    paths.MergedRecords,
			"clusters_enriched": paths.ClustersEnriched,
		},
	}
	if err := writeSummary(paths.Summary, summary); err != nil {
		return failDetailed(err)
	}
	return Detailed{
		Summary:   summary,
		Pairs:     blockResult.Pairs,
		Scored:    scored,
		Decisions: decisions,
		Clusters:  clusters,
		Merged:    merged,
	}, nil
}

// writeSummary writes the result summary as a single formatted JSON
// object (not JSONL — summary.json is one document, not a record
// stream) to path, creating parent directories as needed.
func writeSummary(path string, summary Summary) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return rderrors.IOError{Path: filepath.Dir(path), Reason: err.Error()}
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return rderrors.IOError{Path: path, Reason: err.Error()}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return rderrors.IOError{Path: path, Reason: err.Error()}
	}
	return nil
}

// Normalize is Stage 1: canonicalize every raw record, sorted by id per
// spec.md §5's ordering guarantee.
func (p *Pipeline) Normalize(raw []rawrecord.RawRecord, currentYear int) []canonical.Record {
	out := make([]canonical.Record, 0, len(raw))
	for _, r := range raw {
		out = append(out, canonical.Normalize(r, currentYear))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Block is Stage 2: generate candidate pairs via the configured
// blockers.
func (p *Pipeline) Block(records []canonical.Record) block.Result {
	return block.Run(records, p.Config.CandidateBlockers, p.Config.BlockParams(), p.Config.MaxPairsPerRecord)
}

// Score is Stage 3: Fellegi–Sunter pairwise scoring over every
// candidate pair. Each pair's score depends only on its own two
// records and the (immutable) calibration weights, so the comparisons
// fan out across a bounded worker pool; results land in a slice
// indexed by the pair's original position, so the worker schedule
// never affects the output, only its wall-clock cost.
func (p *Pipeline) Score(pairs []block.Pair, recordsByID map[string]canonical.Record) []score.ScoredPair {
	weights := p.Tables.Weights()
	slots := make([]*score.ScoredPair, len(pairs))

	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, pair := range pairs {
		i, pair := i, pair
		g.Go(func() error {
			a, aok := recordsByID[pair.AID]
			b, bok := recordsByID[pair.BID]
			if !aok || !bok {
				return nil
			}
			fieldScores, total, pattern := score.Score(a, b, weights, p.Config.MissingWeight)
			slots[i] = &score.ScoredPair{
				AID: pair.AID, BID: pair.BID, Blockers: pair.Blockers,
				FieldScores: fieldScores, TotalScore: total, AgreementPattern: pattern,
			}
			return nil
		})
	}
	_ = g.Wait() // the scoring comparators never return an error

	out := make([]score.ScoredPair, 0, len(pairs))
	for _, s := range slots {
		if s != nil {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AID != out[j].AID {
			return out[i].AID < out[j].AID
		}
		return out[i].BID < out[j].BID
	})
	return out
}

// Decide is Stage 4: three-way decision under the FPR budget.
func (p *Pipeline) Decide(scored []score.ScoredPair, recordsByID map[string]canonical.Record) ([]decide.PairDecision, error) {
	tHigh := decide.ResolveThresholdHigh(p.Tables, p.Config.FPRAlpha, p.Config.THigh)
	return decide.Decide(scored, recordsByID, p.Config.TLow, tHigh)
}

// Cluster is Stage 5: connected components with the anti-transitivity
// guard. allRecordIDs lists every normalized record so non-duplicate
// records are emitted as singleton clusters rather than dropped.
func (p *Pipeline) Cluster(decisions []decide.PairDecision, allPairScores map[[2]string]float64, allRecordIDs []string) []cluster.Cluster {
	return cluster.Build(decisions, p.Config.TLow, allPairScores, allRecordIDs)
}

// Merge is Stage 6: survivor selection and field-level merge per
// cluster.
func (p *Pipeline) Merge(clusters []cluster.Cluster, recordsByID map[string]canonical.Record) []merge.MergedRecord {
	out := make([]merge.MergedRecord, 0, len(clusters))
	for _, c := range clusters {
		members := make([]canonical.Record, 0, len(c.Members))
		for _, id := range c.Members {
			if r, ok := recordsByID[id]; ok {
				members = append(members, r)
			}
		}
		if len(members) == 0 {
			continue
		}
		out = append(out, merge.Merge(members))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Record.ID < out[j].Record.ID })
	return out
}

func indexByID(records []canonical.Record) map[string]canonical.Record {
	m := make(map[string]canonical.Record, len(records))
	for _, r := range records {
		m[r.ID] = r
	}
	return m
}

func failDetailed(err error) (Detailed, error) {
	return Detailed{Summary: Summary{Success: false, ErrorMessage: err.Error()}}, err
}

// EnrichedCluster is the artifacts/clusters_enriched.jsonl shape: a
// cluster with its merged survivor record embedded, per spec.md §6.
type EnrichedCluster struct {
	cluster.Cluster
	Merged merge.MergedRecord
}

func (e EnrichedCluster) ToJSON() map[string]any {
	m := e.Cluster.ToJSON()
	m["merged_record"] = e.Merged.ToJSON()
	return m
}

func EnrichClusters(clusters []cluster.Cluster, merged []merge.MergedRecord) []EnrichedCluster {
	mergedByID := make(map[string]merge.MergedRecord, len(merged))
	for _, m := range merged {
		mergedByID[m.Record.ID] = m
	}
	out := make([]EnrichedCluster, 0, len(clusters))
	for _, c := range clusters {
		// A merged record keeps its survivor's id, and the survivor can be
		// any member, so match on membership rather than on the min id.
		for _, id := range c.Members {
			if m, ok := mergedByID[id]; ok {
				out = append(out, EnrichedCluster{Cluster: c, Merged: m})
				break
			}
		}
	}
	return out
}
