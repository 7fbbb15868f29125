package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matsen/refdedupe/internal/auditdb"
	"github.com/matsen/refdedupe/internal/config"
	"github.com/matsen/refdedupe/internal/pipeline"
	"github.com/matsen/refdedupe/internal/rawrecord"
	"github.com/matsen/refdedupe/internal/rderrors"
	"github.com/matsen/refdedupe/internal/store"
)

var (
	runInput     string
	runOutputDir string
	runAuditDB   bool
)

func init() {
	runCmd.Flags().StringVar(&runInput, "input", "", "Path to a JSONL file of RawRecord objects (required)")
	runCmd.Flags().StringVar(&runOutputDir, "output-dir", "", "Override config's output_dir")
	runCmd.Flags().BoolVar(&runAuditDB, "audit-db", false, "Also rebuild artifacts/audit.db for ad-hoc SQL inspection")
	runCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run all six pipeline stages against a RawRecord input stream",
	Long: `run executes normalize, block, score, decide, cluster, and merge in
sequence against --input, writing every stage artifact under the
configured output_dir and printing the result summary.`,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := loadConfigOrDefault()
	if runOutputDir != "" {
		cfg.OutputDir = runOutputDir
	}
	if err := cfg.Validate(); err != nil {
		exitWithError(err)
	}

	raw, err := readRawRecords(runInput)
	if err != nil {
		exitWithError(err)
	}

	detailed, runErr := pipeline.RunDetailed(cfg, raw, currentYear())
	summary := detailed.Summary
	if runErr != nil {
		if humanOutput {
			fmt.Printf("run failed: %s\n", summary.ErrorMessage)
		} else {
			outputJSON(summary)
		}
		exitWithError(runErr)
		return nil
	}

	if runAuditDB {
		if err := rebuildAuditDB(cfg.OutputDir, detailed); err != nil {
			exitWithError(err)
		}
	}

	if humanOutput {
		fmt.Printf("records:          %d\n", summary.TotalRecords)
		fmt.Printf("candidate pairs:  %d\n", summary.TotalCandidates)
		fmt.Printf("auto-duplicates:  %d\n", summary.TotalDuplicatesAuto)
		fmt.Printf("review pairs:     %d\n", summary.TotalReviewPairs)
		for name, path := range summary.OutputFiles {
			fmt.Printf("  %-18s %s\n", name+":", path)
		}
		return nil
	}
	return outputJSON(summary)
}

// readRawRecords reads a JSONL file of RawRecord objects, as a
// format-specific tokenizer would produce for the core to consume.
func readRawRecords(path string) ([]rawrecord.RawRecord, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, rderrors.IOError{Path: path, Reason: err.Error()}
	}
	return store.ReadJSONL(path, rawrecord.FromJSON)
}

// defaultConfigFor resolves a usable config, applying output-dir
// overrides. Used by the per-stage subcommands in stage.go.
func defaultConfigFor(outputDirOverride string) config.Config {
	cfg := loadConfigOrDefault()
	if outputDirOverride != "" {
		cfg.OutputDir = outputDirOverride
	}
	return cfg
}

// rebuildAuditDB rewrites the ephemeral SQLite audit cache from a run's
// in-memory results. It is pure cache: deleting artifacts/audit.db and
// re-running `run --audit-db` regenerates it byte-for-byte.
func rebuildAuditDB(outputDir string, d pipeline.Detailed) error {
	path := filepath.Join(outputDir, "artifacts", "audit.db")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return rderrors.IOError{Path: filepath.Dir(path), Reason: err.Error()}
	}
	db, err := auditdb.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Rebuild(d.Pairs, d.Scored, d.Decisions)
}
