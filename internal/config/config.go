// Package config loads, validates, and discovers run configuration for
// the deduplication pipeline.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/matsen/refdedupe/internal/block"
	"github.com/matsen/refdedupe/internal/rderrors"
)

const (
	RefDedupeDir = ".refdedupe"
	ConfigFile   = "config.yaml"
)

// LSHParams mirrors block.Params for YAML (un)marshaling; block.Params
// itself carries no yaml tags since it's also constructed directly by
// code that never touches configuration files.
type LSHParams struct {
	K    int    `yaml:"k" json:"k"`
	H    int    `yaml:"h" json:"h"`
	B    int    `yaml:"b" json:"b"`
	R    int    `yaml:"r" json:"r"`
	Seed uint64 `yaml:"seed" json:"seed"`
}

func (p LSHParams) toBlockParams() block.Params {
	return block.Params{K: p.K, H: p.H, B: p.B, R: p.R, Seed: p.Seed}
}

func fromBlockParams(p block.Params) LSHParams {
	return LSHParams{K: p.K, H: p.H, B: p.B, R: p.R, Seed: p.Seed}
}

// Config is the run configuration for a deduplication pass, loaded from
// .refdedupe/config.yaml and overridable by CLI flags.
type Config struct {
	FPRAlpha          float64   `yaml:"fpr_alpha" json:"fpr_alpha"`
	TLow              float64   `yaml:"t_low" json:"t_low"`
	THigh             *float64  `yaml:"t_high" json:"t_high,omitempty"`
	CandidateBlockers []string  `yaml:"candidate_blockers" json:"candidate_blockers"`
	LSHParams         LSHParams `yaml:"lsh_params" json:"lsh_params"`
	MaxPairsPerRecord int       `yaml:"max_pairs_per_record" json:"max_pairs_per_record"`
	MissingWeight     float64   `yaml:"missing_weight" json:"missing_weight"`
	OutputDir         string    `yaml:"output_dir" json:"output_dir"`
}

// Default returns the configuration every key falls back to when absent
// from both the config file and CLI flags.
func Default() Config {
	return Config{
		FPRAlpha:          0.01,
		TLow:              0.3,
		THigh:             nil,
		CandidateBlockers: append([]string(nil), block.AllTags...),
		LSHParams:         fromBlockParams(block.DefaultParams),
		MaxPairsPerRecord: 200,
		MissingWeight:     0.5,
		OutputDir:         "refdedupe-output",
	}
}

// ConfigDirPath returns the path to the .refdedupe directory under root.
func ConfigDirPath(root string) string {
	return filepath.Join(root, RefDedupeDir)
}

// ConfigPath returns the path to config.yaml under root.
func ConfigPath(root string) string {
	return filepath.Join(root, RefDedupeDir, ConfigFile)
}

// IsRepository reports whether root contains a .refdedupe directory.
func IsRepository(root string) bool {
	info, err := os.Stat(ConfigDirPath(root))
	return err == nil && info.IsDir()
}

// FindRepository walks up from start looking for a .refdedupe directory,
// returning the first ancestor (inclusive of start) that has one.
func FindRepository(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsRepository(abs) {
			return abs, nil
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return "", rderrors.ConfigurationError{Field: "root", Reason: "no .refdedupe directory found in any ancestor of " + start}
		}
		abs = parent
	}
}

// Load reads config.yaml from root, applying Default() for any field
// left unset in the file, and validates the result.
func Load(root string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		return Config{}, rderrors.IOError{Path: ConfigPath(root), Reason: err.Error()}
	}

	overlay := fileOverlay{}
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return Config{}, rderrors.ConfigurationError{Field: "config.yaml", Reason: err.Error()}
	}
	overlay.applyTo(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes cfg to config.yaml under root, creating the .refdedupe
// directory if necessary.
func (c Config) Save(root string) error {
	if err := os.MkdirAll(ConfigDirPath(root), 0755); err != nil {
		return rderrors.IOError{Path: ConfigDirPath(root), Reason: err.Error()}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return rderrors.IOError{Path: ConfigPath(root), Reason: err.Error()}
	}
	return nil
}

// fileOverlay mirrors Config but with every field optional (pointer or
// nil-able), so a partial config.yaml only overrides the keys it names
// and Default() supplies the rest.
type fileOverlay struct {
	FPRAlpha          *float64   `yaml:"fpr_alpha"`
	TLow              *float64   `yaml:"t_low"`
	THigh             *float64   `yaml:"t_high"`
	CandidateBlockers []string   `yaml:"candidate_blockers"`
	LSHParams         *LSHParams `yaml:"lsh_params"`
	MaxPairsPerRecord *int       `yaml:"max_pairs_per_record"`
	MissingWeight     *float64   `yaml:"missing_weight"`
	OutputDir         *string    `yaml:"output_dir"`
}

func (o fileOverlay) applyTo(c *Config) {
	if o.FPRAlpha != nil {
		c.FPRAlpha = *o.FPRAlpha
	}
	if o.TLow != nil {
		c.TLow = *o.TLow
	}
	if o.THigh != nil {
		c.THigh = o.THigh
	}
	if o.CandidateBlockers != nil {
		c.CandidateBlockers = o.CandidateBlockers
	}
	if o.LSHParams != nil {
		c.LSHParams = *o.LSHParams
	}
	if o.MaxPairsPerRecord != nil {
		c.MaxPairsPerRecord = *o.MaxPairsPerRecord
	}
	if o.MissingWeight != nil {
		c.MissingWeight = *o.MissingWeight
	}
	if o.OutputDir != nil {
		c.OutputDir = *o.OutputDir
	}
}

// validBlockerTags indexes block.AllTags for membership checks.
func validBlockerTags() map[string]bool {
	set := make(map[string]bool, len(block.AllTags))
	for _, t := range block.AllTags {
		set[t] = true
	}
	return set
}

// Validate checks every field's invariant and returns a
// rderrors.ConfigurationError naming the first offending field.
func (c Config) Validate() error {
	if c.FPRAlpha <= 0 || c.FPRAlpha > 0.5 {
		return rderrors.ConfigurationError{Field: "fpr_alpha", Reason: "must be in (0, 0.5]"}
	}
	if c.TLow < 0 {
		return rderrors.ConfigurationError{Field: "t_low", Reason: "must be >= 0"}
	}
	if c.THigh != nil && c.TLow > *c.THigh {
		return rderrors.ConfigurationError{Field: "t_low/t_high", Reason: "t_low must be <= t_high"}
	}
	if len(c.CandidateBlockers) == 0 {
		return rderrors.ConfigurationError{Field: "candidate_blockers", Reason: "must name at least one blocker"}
	}
	valid := validBlockerTags()
	for _, tag := range c.CandidateBlockers {
		if !valid[tag] {
			return rderrors.ConfigurationError{Field: "candidate_blockers", Reason: fmt.Sprintf("unknown blocker %q", tag)}
		}
	}
	if err := c.LSHParams.toBlockParams().Validate(); err != nil {
		return rderrors.ConfigurationError{Field: "lsh_params", Reason: err.Error()}
	}
	if c.MaxPairsPerRecord <= 0 {
		return rderrors.ConfigurationError{Field: "max_pairs_per_record", Reason: "must be > 0"}
	}
	if c.MissingWeight < 0 || c.MissingWeight > 1 {
		return rderrors.ConfigurationError{Field: "missing_weight", Reason: "must be in [0, 1]"}
	}
	if c.OutputDir == "" {
		return rderrors.ConfigurationError{Field: "output_dir", Reason: "must be non-empty"}
	}
	return nil
}

// BlockParams returns the configured LSH blocker parameters in
// block.Params form.
func (c Config) BlockParams() block.Params {
	return c.LSHParams.toBlockParams()
}
