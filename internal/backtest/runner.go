package backtest

import (
	"context"

	"github.com/sawpanic/capitolflow/internal/domain"
	"github.com/sawpanic/capitolflow/internal/errs"
)

// BatchReport is the output of a full backtest run over a set of trades:
// the per-trade results that could be computed, the ones excluded along
// the way, and the guardrail verdict over the surviving sample.
type BatchReport struct {
	Results    []Result
	Excluded   []Result
	Guardrails GuardrailReport
	// ReviewRequired mirrors Guardrails.Triggered: true means every
	// EnhancedSignal derived from this batch's trades must be flagged
	// review_required and withheld from downstream consumption (§7).
	ReviewRequired bool
}

// SignalLookup resolves the directional call a trade's AlphaSignal made,
// so the guardrail's hit-rate statistic can compare realized CAR sign
// against what the signal actually predicted.
type SignalLookup interface {
	ByTradeHash(ctx context.Context, tradeHash string) (domain.AlphaSignal, bool, error)
}

// Run backtests every trade in trades, building the CAR20D/hit-rate
// observations EvaluateGuardrails needs and folding routine per-trade
// exclusions (insufficient history, price gaps, unresolved tickers) into
// the batch report rather than failing the whole run.
func (b *Backtester) Run(ctx context.Context, trades []domain.Trade, signals SignalLookup) (BatchReport, error) {
	report := BatchReport{}

	var car20Ds []float64
	var hits []bool

	for _, t := range trades {
		result, err := b.RunForTrade(ctx, t)
		if err != nil {
			excluded := Result{TradeHash: t.DataHash, Excluded: true}
			if be, ok := err.(*errs.BacktestError); ok {
				excluded.ExclusionReason = string(be.Kind)
			} else {
				excluded.ExclusionReason = "unknown"
			}
			report.Excluded = append(report.Excluded, excluded)
			continue
		}

		report.Results = append(report.Results, result)
		car20Ds = append(car20Ds, result.CAR20D)

		if signals == nil {
			continue
		}
		sig, ok, err := signals.ByTradeHash(ctx, t.DataHash)
		if err != nil || !ok {
			continue
		}
		hits = append(hits, hitAgrees(sig.Direction, result.CAR20D))
	}

	if len(car20Ds) == 0 {
		return report, &errs.BacktestError{Kind: errs.BacktestInsufficientHistory, Err: errNoObservations}
	}

	guardrails, err := EvaluateGuardrails(car20Ds, hits)
	report.Guardrails = guardrails
	report.ReviewRequired = guardrails.Triggered
	if err != nil {
		var be *errs.BacktestError
		if bErr, ok := err.(*errs.BacktestError); ok {
			be = bErr
		}
		if be != nil && be.Kind == errs.BacktestGuardrailTriggered {
			// Guardrail trips are an expected, reportable outcome, not a
			// run failure: the caller gets the report with ReviewRequired
			// set rather than an error to propagate.
			return report, nil
		}
		return report, err
	}
	return report, nil
}

// hitAgrees reports whether a realized CAR20D agrees with a signal's
// directional call: positive CAR for a LONG signal, negative for SHORT.
func hitAgrees(dir domain.SignalDirection, car20D float64) bool {
	switch dir {
	case domain.SignalLong:
		return car20D > 0
	case domain.SignalShort:
		return car20D < 0
	default:
		return false
	}
}

// GuardrailLookup is the feedback path from a completed backtest batch into
// signal enhancement (spec.md §4.8 scenario 4): a guardrail trip is a
// verdict about the whole sample, so every trade that contributed a
// Result to the batch carries that same verdict forward.
type GuardrailLookup struct {
	reviewRequired map[string]bool
}

// NewGuardrailLookup builds a lookup from a completed BatchReport.
func NewGuardrailLookup(report BatchReport) *GuardrailLookup {
	m := make(map[string]bool, len(report.Results))
	for _, r := range report.Results {
		m[r.TradeHash] = report.ReviewRequired
	}
	return &GuardrailLookup{reviewRequired: m}
}

// ReviewRequired reports whether tradeHash's batch tripped a guardrail. A
// nil lookup (no backtest has run) never flags a trade.
func (g *GuardrailLookup) ReviewRequired(tradeHash string) bool {
	if g == nil {
		return false
	}
	return g.reviewRequired[tradeHash]
}
