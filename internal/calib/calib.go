// Package calib loads the calibration data the score and decide stages
// depend on: per-field match/non-match probabilities and a non-match
// score sample used to derive the upper decision threshold.
package calib

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/matsen/refdedupe/internal/rderrors"
	"github.com/matsen/refdedupe/internal/score"
)

//go:embed default.yaml
var defaultYAML []byte

// Tables holds the calibration values loaded once at pipeline start and
// shared read-only across every worker.
type Tables struct {
	M  map[score.FieldName]float64
	U  map[score.FieldName]float64
	Fu []float64 // sorted ascending
}

type fileFormat struct {
	M  map[string]float64 `yaml:"m"`
	U  map[string]float64 `yaml:"u"`
	Fu []float64          `yaml:"f_u"`
}

// Default returns the calibration data shipped with the binary.
func Default() (Tables, error) {
	return parse(defaultYAML)
}

// Load reads calibration data from a YAML file on disk, in the same
// shape as the shipped default.
func Load(path string, readFile func(string) ([]byte, error)) (Tables, error) {
	data, err := readFile(path)
	if err != nil {
		return Tables{}, rderrors.CalibrationError{Reason: fmt.Sprintf("reading %s: %v", path, err)}
	}
	return parse(data)
}

func parse(data []byte) (Tables, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Tables{}, rderrors.CalibrationError{Reason: fmt.Sprintf("parsing calibration data: %v", err)}
	}

	t := Tables{
		M:  make(map[score.FieldName]float64, len(f.M)),
		U:  make(map[score.FieldName]float64, len(f.U)),
		Fu: append([]float64(nil), f.Fu...),
	}
	for k, v := range f.M {
		t.M[score.FieldName(k)] = v
	}
	for k, v := range f.U {
		t.U[score.FieldName(k)] = v
	}
	sort.Float64s(t.Fu)

	if err := t.Validate(); err != nil {
		return Tables{}, err
	}
	return t, nil
}

// Validate checks that every field in score.FieldOrder has an m and u
// entry in (0,1), and that the non-match sample is non-empty.
func (t Tables) Validate() error {
	for _, f := range score.FieldOrder {
		m, ok := t.M[f]
		if !ok || m <= 0 || m >= 1 {
			return rderrors.CalibrationError{Reason: fmt.Sprintf("missing or out-of-range m_f for field %q", f)}
		}
		u, ok := t.U[f]
		if !ok || u <= 0 || u >= 1 {
			return rderrors.CalibrationError{Reason: fmt.Sprintf("missing or out-of-range u_f for field %q", f)}
		}
	}
	if len(t.Fu) == 0 {
		return rderrors.CalibrationError{Reason: "non-match score sample f_u is empty"}
	}
	return nil
}

// Weights adapts the calibration tables to score.Weights for Score.
func (t Tables) Weights() score.Weights {
	return score.Weights{M: t.M, U: t.U}
}

// QuantileAtLeast returns the smallest score s in Fu such that
// Pr_{X~Fu}(X >= s) <= alpha, using linear interpolation on the
// empirical quantile function. This is the Neyman–Pearson derivation of
// t_high at false-positive rate alpha.
func (t Tables) QuantileAtLeast(alpha float64) float64 {
	n := len(t.Fu)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return t.Fu[0]
	}

	// Pr(X >= s) <= alpha  <=>  s is at or above the (1-alpha) quantile.
	q := 1 - alpha
	if q <= 0 {
		return t.Fu[0]
	}
	if q >= 1 {
		return t.Fu[n-1]
	}

	pos := q * float64(n-1)
	lo := int(pos)
	hi := lo + 1
	if hi >= n {
		return t.Fu[n-1]
	}
	frac := pos - float64(lo)
	return t.Fu[lo] + frac*(t.Fu[hi]-t.Fu[lo])
}
