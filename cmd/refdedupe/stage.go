package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/refdedupe/internal/block"
	"github.com/matsen/refdedupe/internal/canonical"
	"github.com/matsen/refdedupe/internal/cluster"
	"github.com/matsen/refdedupe/internal/decide"
	"github.com/matsen/refdedupe/internal/pipeline"
	"github.com/matsen/refdedupe/internal/rderrors"
	"github.com/matsen/refdedupe/internal/score"
	"github.com/matsen/refdedupe/internal/store"
)

// stageOutputDir is the shared --output-dir flag every single-stage
// subcommand accepts, overriding config's output_dir for that one
// invocation.
var stageOutputDir string

func addStageOutputDirFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&stageOutputDir, "output-dir", "", "Override config's output_dir")
}

func init() {
	addStageOutputDirFlag(normalizeCmd)
	normalizeCmd.Flags().StringVar(&runInput, "input", "", "Path to a JSONL file of RawRecord objects (required)")
	normalizeCmd.MarkFlagRequired("input")

	addStageOutputDirFlag(blockCmd)
	addStageOutputDirFlag(scoreCmd)
	addStageOutputDirFlag(decideCmd)
	addStageOutputDirFlag(clusterCmd)
	addStageOutputDirFlag(mergeCmd)

	rootCmd.AddCommand(normalizeCmd, blockCmd, scoreCmd, decideCmd, clusterCmd, mergeCmd)
}

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Run Stage 1 alone: canonicalize a RawRecord stream",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := defaultConfigFor(stageOutputDir)
		raw, err := readRawRecords(runInput)
		if err != nil {
			exitWithError(err)
		}
		p, err := pipeline.New(cfg)
		if err != nil {
			exitWithError(err)
		}
		records := p.Normalize(raw, currentYear())
		paths := pipeline.Paths(cfg.OutputDir)
		if err := store.WriteJSONL(paths.CanonicalRecords, records); err != nil {
			exitWithError(rderrors.IOError{Path: paths.CanonicalRecords, Reason: err.Error()})
		}
		return reportStage("normalize", len(records), paths.CanonicalRecords)
	},
}

var blockCmd = &cobra.Command{
	Use:   "block",
	Short: "Run Stage 2 alone: generate candidate pairs from stage1's canonical records",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := defaultConfigFor(stageOutputDir)
		p, err := pipeline.New(cfg)
		if err != nil {
			exitWithError(err)
		}
		paths := pipeline.Paths(cfg.OutputDir)
		records, err := readCanonicalRecords(paths.CanonicalRecords)
		if err != nil {
			exitWithError(err)
		}
		result := p.Block(records)
		if err := store.WriteJSONL(paths.CandidatePairs, result.Pairs); err != nil {
			exitWithError(rderrors.IOError{Path: paths.CandidatePairs, Reason: err.Error()})
		}
		return reportStage("block", len(result.Pairs), paths.CandidatePairs)
	},
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Run Stage 3 alone: Fellegi-Sunter score stage2's candidate pairs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := defaultConfigFor(stageOutputDir)
		p, err := pipeline.New(cfg)
		if err != nil {
			exitWithError(err)
		}
		paths := pipeline.Paths(cfg.OutputDir)
		records, err := readCanonicalRecords(paths.CanonicalRecords)
		if err != nil {
			exitWithError(err)
		}
		pairs, err := readCandidatePairs(paths.CandidatePairs)
		if err != nil {
			exitWithError(err)
		}
		recordsByID := recordsByID(records)
		scored := p.Score(pairs, recordsByID)
		if err := store.WriteJSONL(paths.ScoredPairs, scored); err != nil {
			exitWithError(rderrors.IOError{Path: paths.ScoredPairs, Reason: err.Error()})
		}
		return reportStage("score", len(scored), paths.ScoredPairs)
	},
}

var decideCmd = &cobra.Command{
	Use:   "decide",
	Short: "Run Stage 4 alone: three-way decision over stage3's scored pairs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := defaultConfigFor(stageOutputDir)
		p, err := pipeline.New(cfg)
		if err != nil {
			exitWithError(err)
		}
		paths := pipeline.Paths(cfg.OutputDir)
		records, err := readCanonicalRecords(paths.CanonicalRecords)
		if err != nil {
			exitWithError(err)
		}
		scored, err := readScoredPairs(paths.ScoredPairs)
		if err != nil {
			exitWithError(err)
		}
		decisions, err := p.Decide(scored, recordsByID(records))
		if err != nil {
			exitWithError(err)
		}
		if err := store.WriteJSONL(paths.PairDecisions, decisions); err != nil {
			exitWithError(rderrors.IOError{Path: paths.PairDecisions, Reason: err.Error()})
		}
		return reportStage("decide", len(decisions), paths.PairDecisions)
	},
}

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Run Stage 5 alone: connected components over stage4's decisions",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := defaultConfigFor(stageOutputDir)
		p, err := pipeline.New(cfg)
		if err != nil {
			exitWithError(err)
		}
		paths := pipeline.Paths(cfg.OutputDir)
		records, err := readCanonicalRecords(paths.CanonicalRecords)
		if err != nil {
			exitWithError(err)
		}
		scored, err := readScoredPairs(paths.ScoredPairs)
		if err != nil {
			exitWithError(err)
		}
		decisions, err := readPairDecisions(paths.PairDecisions)
		if err != nil {
			exitWithError(err)
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
			exitWithError(rderrors.IOError{Path: paths.Clusters, Reason: err.Error()})
		}
		return reportStage("cluster", len(clusters), paths.Clusters)
	},
}

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Run Stage 6 alone: survivor selection and field merge over stage5's clusters",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := defaultConfigFor(stageOutputDir)
		p, err := pipeline.New(cfg)
		if err != nil {
			exitWithError(err)
		}
		paths := pipeline.Paths(cfg.OutputDir)
		records, err := readCanonicalRecords(paths.CanonicalRecords)
		if err != nil {
			exitWithError(err)
		}
		clusters, err := readClusters(paths.Clusters)
		if err != nil {
			exitWithError(err)
		}
		merged := p.Merge(clusters, recordsByID(records))
		if err := store.WriteJSONL(paths.MergedRecords, merged); err != nil {
			exitWithError(rderrors.IOError{Path: paths.MergedRecords, Reason: err.Error()})
		}
		enriched := pipeline.EnrichClusters(clusters, merged)
		if err := store.WriteJSONL(paths.ClustersEnriched, enriched); err != nil {
			exitWithError(rderrors.IOError{Path: paths.ClustersEnriched, Reason: err.Error()})
		}
		return reportStage("merge", len(merged), paths.MergedRecords)
	},
}

func reportStage(name string, count int, path string) error {
	if humanOutput {
		fmt.Printf("%s: wrote %d record(s) to %s\n", name, count, path)
		return nil
	}
	return outputJSON(map[string]any{"stage": name, "count": count, "output": path})
}

func recordsByID(records []canonical.Record) map[string]canonical.Record {
	m := make(map[string]canonical.Record, len(records))
	for _, r := range records {
		m[r.ID] = r
	}
	return m
}

func readCanonicalRecords(path string) ([]canonical.Record, error) {
	return store.ReadJSONL(path, canonical.FromJSON)
}

func readCandidatePairs(path string) ([]block.Pair, error) {
	return store.ReadJSONL(path, block.FromJSON)
}

func readScoredPairs(path string) ([]score.ScoredPair, error) {
	return store.ReadJSONL(path, score.FromJSON)
}

func readPairDecisions(path string) ([]decide.PairDecision, error) {
	return store.ReadJSONL(path, decide.FromJSON)
}

func readClusters(path string) ([]cluster.Cluster, error) {
	return store.ReadJSONL(path, cluster.FromJSON)
}
