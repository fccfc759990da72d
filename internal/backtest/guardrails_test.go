package backtest

import "testing"

func TestEvaluateGuardrails_SmallSampleTriggers(t *testing.T) {
	car20Ds := []float64{0.01, -0.01, 0.02}
	hits := []bool{true, false, true}

	report, err := EvaluateGuardrails(car20Ds, hits)
	if err == nil {
		t.Fatal("expected an error when a guardrail trips")
	}
	if !report.Triggered {
		t.Fatal("expected Triggered=true for an undersized sample")
	}
	found := false
	for _, r := range report.Reasons {
		if r == "sample_size_below_30" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected sample_size_below_30 reason, got %v", report.Reasons)
	}
}

func TestEvaluateGuardrails_NoObservations(t *testing.T) {
	if _, err := EvaluateGuardrails(nil, nil); err == nil {
		t.Fatal("expected an error for an empty observation set")
	}
}

func TestEvaluateGuardrails_ImplausibleMeanTriggers(t *testing.T) {
	car20Ds := make([]float64, 40)
	hits := make([]bool, 40)
	for i := range car20Ds {
		car20Ds[i] = 0.10 // far above the 5% plausibility guardrail
		hits[i] = i%2 == 0
	}
	report, err := EvaluateGuardrails(car20Ds, hits)
	if err == nil {
		t.Fatal("expected an error when mean CAR exceeds the plausibility guardrail")
	}
	if !report.Triggered {
		t.Fatal("expected Triggered=true")
	}
}
