// Package main provides the refdedupe CLI entry point.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

// humanOutput controls whether commands print human-readable text
// instead of JSON.
var humanOutput bool

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "refdedupe",
	Short: "Deduplication engine for bibliographic reference records",
	Long: `refdedupe is the core deduplication engine for a bibliographic
reference management system.

It ingests a stream of raw tag/value records parsed from RIS, PubMed
NBIB, BibTeX, Web-of-Science CIW, or EndNote ENW files, identifies
records referring to the same underlying work, and emits a
deduplicated set together with an auditable decision trail.

The pipeline runs in six stages (normalize, block, score, decide,
cluster, merge), each writing a materialized JSONL artifact so a run
can be inspected or resumed stage by stage.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&configRoot, "root", "", "Repository root containing .refdedupe/config.yaml (default: search from cwd)")
	rootCmd.Version = Version
}

// configRoot overrides the repository search start directory; empty
// means "search from the current working directory".
var configRoot string

// startDir returns the directory repository discovery should start
// from: --root if set, else REFDEDUPE_CONFIG, else the current working
// directory.
func startDir() (string, error) {
	if configRoot != "" {
		return configRoot, nil
	}
	if v := os.Getenv("REFDEDUPE_CONFIG"); v != "" {
		return v, nil
	}
	return os.Getwd()
}

// currentYear bounds Normalize's year validity per spec.md §4.1. It is
// the one place the CLI reads the wall clock; internal/pipeline and
// internal/canonical stay pure functions of their arguments.
func currentYear() int {
	return time.Now().Year()
}
