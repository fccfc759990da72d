package backtest

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/sawpanic/capitolflow/internal/errs"
)

var (
	errNoObservations   = errors.New("no car observations supplied")
	errGuardrailTripped = errors.New("one or more backtest guardrails triggered")
)

// GuardrailReport is the batch-level review gate from spec.md §4.8: a
// result set that looks too good to be true, or too thin to trust, is
// marked review_required and withheld from downstream signal consumption
// rather than silently accepted.
type GuardrailReport struct {
	SampleSize         int
	MeanCAR20D         float64
	HitRate            float64 // fraction of trades with CAR20D in the signal's expected direction
	WelchTStat         float64
	WelchPValue        float64
	Triggered          bool
	Reasons            []string
}

// EvaluateGuardrails checks a batch of CAR20D observations (paired with
// whether each trade's realized CAR agreed with its signal direction)
// against the four §4.8 guardrails: implausibly large mean CAR (>5%), an
// implausibly high hit rate (>75%), an undersized sample (<30), and a
// Welch t-test against zero that fails to reach significance (p >= 0.05).
// Any one guardrail tripping marks the whole batch review_required.
func EvaluateGuardrails(car20Ds []float64, hits []bool) (GuardrailReport, error) {
	n := len(car20Ds)
	report := GuardrailReport{SampleSize: n}
	if n == 0 {
		return report, &errs.BacktestError{Kind: errs.BacktestGuardrailTriggered, Err: errNoObservations}
	}

	report.MeanCAR20D = mean(car20Ds)

	hitCount := 0
	for _, h := range hits {
		if h {
			hitCount++
		}
	}
	report.HitRate = float64(hitCount) / float64(len(hits))

	tStat, pValue := welchOneSampleT(car20Ds)
	report.WelchTStat = tStat
	report.WelchPValue = pValue

	if math.Abs(report.MeanCAR20D) > 0.05 {
		report.Triggered = true
		report.Reasons = append(report.Reasons, "mean_car_20d_exceeds_5pct")
	}
	if report.HitRate > 0.75 {
		report.Triggered = true
		report.Reasons = append(report.Reasons, "hit_rate_exceeds_75pct")
	}
	if n < 30 {
		report.Triggered = true
		report.Reasons = append(report.Reasons, "sample_size_below_30")
	}
	if pValue >= 0.05 {
		report.Triggered = true
		report.Reasons = append(report.Reasons, "welch_t_test_not_significant")
	}

	if report.Triggered {
		return report, &errs.BacktestError{Kind: errs.BacktestGuardrailTriggered, Err: errGuardrailTripped}
	}
	return report, nil
}

func mean(xs []float64) float64 {
	return stat.Mean(xs, nil)
}

// welchOneSampleT tests the sample mean against zero (no market-adjusted
// abnormal return), the null hypothesis the guardrail needs rejected
// before treating a batch's CAR as a genuine effect rather than noise.
func welchOneSampleT(xs []float64) (tStat, pValue float64) {
	n := float64(len(xs))
	if n < 2 {
		return 0, 1
	}
	m := stat.Mean(xs, nil)
	variance := stat.Variance(xs, nil)
	se := math.Sqrt(variance / n)
	if se == 0 {
		return 0, 1
	}
	t := m / se
	// Two-sided p-value approximation via the normal distribution, adequate
	// for the sample sizes this guardrail operates on (n>=30 is itself one
	// of the gates being checked).
	p := 2 * (1 - normalCDF(math.Abs(t)))
	return t, p
}

func normalCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}
