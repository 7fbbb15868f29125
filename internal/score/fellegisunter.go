package score

import (
	"math"

	"github.com/matsen/refdedupe/internal/canonical"
)

// Quantize maps a raw comparator score in [0,1] onto the three
// agreement levels the log-likelihood aggregation uses.
func Quantize(raw float64) float64 {
	switch {
	case raw < 0.5:
		return 0
	case raw < 0.85:
		return 0.5
	default:
		return 1
	}
}

// Weights holds the calibrated match/non-match probabilities a field's
// full agreement carries, keyed by field.
type Weights struct {
	M map[FieldName]float64
	U map[FieldName]float64
}

// Score computes the Fellegi–Sunter total log-likelihood score and
// per-field agreement pattern for the pair (a, b) against w, quantizing
// each raw comparator score before aggregating.
func Score(a, b canonical.Record, w Weights, missingWeight float64) (fieldScores map[FieldName]float64, total float64, pattern uint64) {
	fieldScores = make(map[FieldName]float64, len(FieldOrder))

	for i, f := range FieldOrder {
		raw := CompareField(f, a, b, missingWeight)
		agree := Quantize(raw)
		fieldScores[f] = agree

		// A null field carries no evidence either way, so it contributes
		// exactly 0 to the total regardless of what missingWeight quantizes
		// to — it never enters the m/u log-likelihood ratio.
		if IsMissing(f, a, b) {
			continue
		}

		m := w.M[f]
		u := w.U[f]
		total += agree*logRatio(m, u) + (1-agree)*logRatio(1-m, 1-u)

		if agree == 1 {
			pattern |= 1 << uint(i)
		}
	}

	return fieldScores, total, pattern
}

// logRatio returns log(num/den), clamping both operands away from 0 and
// 1 so a calibration table with an exact 0 or 1 entry never produces
// +/-Inf or NaN.
func logRatio(num, den float64) float64 {
	const eps = 1e-9
	num = clamp(num, eps, 1-eps)
	den = clamp(den, eps, 1-eps)
	return math.Log(num / den)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
