// Package decide turns scored candidate pairs into a three-way decision
// (AUTO_DUP, REVIEW, AUTO_KEEP) under a configured false-positive-rate
// budget, with a DOI/PMID exact-match short circuit.
package decide

import (
	"fmt"
	"sort"

	"github.com/matsen/refdedupe/internal/calib"
	"github.com/matsen/refdedupe/internal/canonical"
	"github.com/matsen/refdedupe/internal/rderrors"
	"github.com/matsen/refdedupe/internal/score"
)

// Decision is the closed three-way outcome of a pairwise comparison.
type Decision string

const (
	AutoDup  Decision = "AUTO_DUP"
	Review   Decision = "REVIEW"
	AutoKeep Decision = "AUTO_KEEP"
)

const reasonDOIShortCircuit = "doi_exact_short_circuit"
const reasonPMIDShortCircuit = "pmid_exact_short_circuit"
const reasonAboveHigh = "score_ge_t_high"
const reasonBelowLow = "score_lt_t_low"
const reasonBetween = "t_low_le_score_lt_t_high"

// PairDecision is the Stage 4 artifact for one candidate pair.
type PairDecision struct {
	AID           string
	BID           string
	Score         float64
	ThresholdLow  float64
	ThresholdHigh float64
	Decision      Decision
	Reason        string
}

// ToJSON renders p as a map so encoding/json's automatic key sorting
// produces a deterministic, sorted-key JSON line.
func (p PairDecision) ToJSON() map[string]any {
	return map[string]any{
		"a_id":           p.AID,
		"b_id":           p.BID,
		"score":          p.Score,
		"threshold_low":  p.ThresholdLow,
		"threshold_high": p.ThresholdHigh,
		"decision":       string(p.Decision),
		"reason":         p.Reason,
	}
}

// FromJSON reconstructs a PairDecision from a decoded JSON line.
func FromJSON(m map[string]any) (PairDecision, error) {
	aID, _ := m["a_id"].(string)
	bID, _ := m["b_id"].(string)
	if aID == "" || bID == "" {
		return PairDecision{}, fmt.Errorf("decide: pair decision missing a_id/b_id")
	}
	sc, _ := m["score"].(float64)
	lo, _ := m["threshold_low"].(float64)
	hi, _ := m["threshold_high"].(float64)
	dec, _ := m["decision"].(string)
	reason, _ := m["reason"].(string)
	return PairDecision{
		AID: aID, BID: bID, Score: sc,
		ThresholdLow: lo, ThresholdHigh: hi,
		Decision: Decision(dec), Reason: reason,
	}, nil
}

// ResolveThresholdHigh returns tHigh if explicitly configured (non-nil),
// else derives it from the calibration tables' non-match sample at the
// given false-positive rate via Neyman–Pearson.
func ResolveThresholdHigh(tables calib.Tables, fprAlpha float64, tHigh *float64) float64 {
	if tHigh != nil {
		return *tHigh
	}
	return tables.QuantileAtLeast(fprAlpha)
}

// Decide maps each scored pair to a PairDecision. recordsByID must
// contain every record id referenced by pairs, so the DOI/PMID
// short-circuit can consult the original (non-quantized) identifiers.
//
// Pairs are returned sorted by (a_id, b_id) regardless of input order,
// matching every other stage artifact's ordering guarantee.
func Decide(pairs []score.ScoredPair, recordsByID map[string]canonical.Record, tLow, tHigh float64) ([]PairDecision, error) {
	if tLow > tHigh {
		return nil, rderrors.ConfigurationError{Field: "t_low/t_high", Reason: fmt.Sprintf("t_low (%v) must be <= t_high (%v)", tLow, tHigh)}
	}

	out := make([]PairDecision, 0, len(pairs))
	for _, p := range pairs {
		d := PairDecision{
			AID: p.AID, BID: p.BID, Score: p.TotalScore,
			ThresholdLow: tLow, ThresholdHigh: tHigh,
		}

		a, aok := recordsByID[p.AID]
		b, bok := recordsByID[p.BID]
		switch {
		case aok && bok && a.HasDOI && b.HasDOI && a.DOI == b.DOI:
			d.Decision, d.Reason = AutoDup, reasonDOIShortCircuit
		case aok && bok && a.HasPMID && b.HasPMID && a.PMID == b.PMID:
			d.Decision, d.Reason = AutoDup, reasonPMIDShortCircuit
		case p.TotalScore >= tHigh:
			d.Decision, d.Reason = AutoDup, reasonAboveHigh
		case p.TotalScore >= tLow:
			d.Decision, d.Reason = Review, reasonBetween
		default:
			d.Decision, d.Reason = AutoKeep, reasonBelowLow
		}

		out = append(out, d)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].AID != out[j].AID {
			return out[i].AID < out[j].AID
		}
		return out[i].BID < out[j].BID
	})
	return out, nil
}
