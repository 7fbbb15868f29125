package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/refdedupe/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or initialize run configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default .refdedupe/config.yaml at the repository root",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := startDir()
		if err != nil {
			return err
		}
		cfg := config.Default()
		if err := cfg.Save(root); err != nil {
			exitWithError(err)
		}
		if humanOutput {
			fmt.Printf("wrote %s\n", config.ConfigPath(root))
			return nil
		}
		return outputJSON(map[string]string{"status": "initialized", "path": config.ConfigPath(root)})
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfigOrDefault()
		if humanOutput {
			fmt.Printf("fpr_alpha:            %v\n", cfg.FPRAlpha)
			fmt.Printf("t_low:                %v\n", cfg.TLow)
			fmt.Printf("t_high:               %v\n", derefOrAuto(cfg.THigh))
			fmt.Printf("candidate_blockers:   %v\n", cfg.CandidateBlockers)
			fmt.Printf("max_pairs_per_record: %v\n", cfg.MaxPairsPerRecord)
			fmt.Printf("missing_weight:       %v\n", cfg.MissingWeight)
			fmt.Printf("output_dir:           %v\n", cfg.OutputDir)
			return nil
		}
		return outputJSON(cfg)
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the effective configuration and exit nonzero if invalid",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfigOrDefault()
		if err := cfg.Validate(); err != nil {
			exitWithError(err)
		}
		if humanOutput {
			fmt.Println("configuration is valid")
			return nil
		}
		return outputJSON(map[string]string{"status": "valid"})
	},
}

// loadConfigOrDefault loads .refdedupe/config.yaml from the discovered
// repository root, falling back to package defaults when no repository
// is found — config is optional; every field already has a default.
func loadConfigOrDefault() config.Config {
	root, err := startDir()
	if err != nil {
		return config.Default()
	}
	repoRoot, err := config.FindRepository(root)
	if err != nil {
		return config.Default()
	}
	cfg, err := config.Load(repoRoot)
	if err != nil {
		return config.Default()
	}
	return cfg
}

func derefOrAuto(v *float64) string {
	if v == nil {
		return "auto (derived from fpr_alpha)"
	}
	return fmt.Sprintf("%v", *v)
}
