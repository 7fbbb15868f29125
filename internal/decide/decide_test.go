package decide

import (
	"errors"
	"testing"

	"github.com/matsen/refdedupe/internal/calib"
	"github.com/matsen/refdedupe/internal/canonical"
	"github.com/matsen/refdedupe/internal/rderrors"
	"github.com/matsen/refdedupe/internal/score"
)

func mustDefaultTables(t *testing.T) calib.Tables {
	tables, err := calib.Default()
	if err != nil {
		t.Fatalf("calib.Default(): %v", err)
	}
	return tables
}

func pair(a, b string, total float64) score.ScoredPair {
	return score.ScoredPair{AID: a, BID: b, TotalScore: total, FieldScores: map[score.FieldName]float64{}}
}

func TestDecideAboveHighIsAutoDup(t *testing.T) {
	records := map[string]canonical.Record{"a": {ID: "a"}, "b": {ID: "b"}}
	out, err := Decide([]score.ScoredPair{pair("a", "b", 5.0)}, records, 0.3, 3.0)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if out[0].Decision != AutoDup || out[0].Reason != reasonAboveHigh {
		t.Errorf("got %+v, want AUTO_DUP/%s", out[0], reasonAboveHigh)
	}
}

func TestDecideBelowLowIsAutoKeep(t *testing.T) {
	records := map[string]canonical.Record{"a": {ID: "a"}, "b": {ID: "b"}}
	out, err := Decide([]score.ScoredPair{pair("a", "b", -5.0)}, records, 0.3, 3.0)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if out[0].Decision != AutoKeep {
		t.Errorf("got %+v, want AUTO_KEEP", out[0])
	}
}

func TestDecideBetweenIsReview(t *testing.T) {
	records := map[string]canonical.Record{"a": {ID: "a"}, "b": {ID: "b"}}
	out, err := Decide([]score.ScoredPair{pair("a", "b", 1.0)}, records, 0.3, 3.0)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if out[0].Decision != Review {
		t.Errorf("got %+v, want REVIEW", out[0])
	}
}

func TestDecideDOIShortCircuitOverridesLowScore(t *testing.T) {
	records := map[string]canonical.Record{
		"a": {ID: "a", HasDOI: true, DOI: "10.1/x"},
		"b": {ID: "b", HasDOI: true, DOI: "10.1/x"},
	}
	out, err := Decide([]score.ScoredPair{pair("a", "b", -10.0)}, records, 0.3, 3.0)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if out[0].Decision != AutoDup || out[0].Reason != reasonDOIShortCircuit {
		t.Errorf("got %+v, want AUTO_DUP/%s despite low score", out[0], reasonDOIShortCircuit)
	}
}

func TestDecidePMIDShortCircuit(t *testing.T) {
	records := map[string]canonical.Record{
		"a": {ID: "a", HasPMID: true, PMID: "12345"},
		"b": {ID: "b", HasPMID: true, PMID: "12345"},
	}
	out, err := Decide([]score.ScoredPair{pair("a", "b", -10.0)}, records, 0.3, 3.0)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if out[0].Decision != AutoDup || out[0].Reason != reasonPMIDShortCircuit {
		t.Errorf("got %+v, want AUTO_DUP/%s", out[0], reasonPMIDShortCircuit)
	}
}

func TestDecideRejectsInvertedThresholds(t *testing.T) {
	_, err := Decide(nil, nil, 5.0, 1.0)
	if err == nil {
		t.Fatal("expected ConfigurationError for t_low > t_high")
	}
	var cfgErr rderrors.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Errorf("expected ConfigurationError, got %T", err)
	}
}

func TestDecideSortsOutputByIDPair(t *testing.T) {
	records := map[string]canonical.Record{"a": {ID: "a"}, "b": {ID: "b"}, "c": {ID: "c"}}
	out, err := Decide([]score.ScoredPair{
		pair("b", "c", 0),
		pair("a", "b", 0),
	}, records, 0.3, 3.0)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if out[0].AID != "a" || out[1].AID != "b" {
		t.Errorf("output not sorted: %+v", out)
	}
}

func TestResolveThresholdHighPrefersExplicit(t *testing.T) {
	explicit := 9.0
	got := ResolveThresholdHigh(mustDefaultTables(t), 0.01, &explicit)
	if got != 9.0 {
		t.Errorf("ResolveThresholdHigh with explicit override = %v, want 9.0", got)
	}
}

func TestResolveThresholdHighMonotonicInAlpha(t *testing.T) {
	tables := mustDefaultTables(t)
	strict := ResolveThresholdHigh(tables, 0.001, nil)
	loose := ResolveThresholdHigh(tables, 0.1, nil)
	if strict < loose {
		t.Errorf("lowering fpr_alpha should never decrease t_high: strict=%v loose=%v", strict, loose)
	}
}

func TestDecisionRoundTrip(t *testing.T) {
	d := PairDecision{AID: "a", BID: "b", Score: 1.5, ThresholdLow: 0.3, ThresholdHigh: 3.0, Decision: Review, Reason: reasonBetween}
	out, err := FromJSON(d.ToJSON())
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if out != d {
		t.Errorf("round trip = %+v, want %+v", out, d)
	}
}
