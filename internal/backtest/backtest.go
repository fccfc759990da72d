// Package backtest implements the event-study backtester from spec.md
// §4.8: market-adjusted cumulative abnormal return (CAR) over {5,20,60}
// trading-day windows anchored at filing_date+1, an optional three-factor
// (Fama-French) CAR computed via OLS over a prior estimation window, and
// the guardrails that flag a result set as requiring human review before
// any downstream signal consumes it.
//
// Backtest results are a reporting artifact, not a pipeline table: unlike
// Trade/SQS/ConvergenceEvent/AlphaSignal/EnhancedSignal, nothing else in
// the system reads a persisted BacktestResult back in, so this package
// returns its results in memory for the CLI's `backtest` report to render
// rather than adding a seventh store table purely for write-once output.
package backtest

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sawpanic/capitolflow/internal/domain"
	"github.com/sawpanic/capitolflow/internal/errs"
)

// PriceBar is one daily close observation.
type PriceBar struct {
	Date  time.Time
	Close float64
}

// PriceProvider supplies daily closes for a ticker and for the market
// index used in the market-adjustment step.
type PriceProvider interface {
	DailyCloses(ctx context.Context, ticker string, from, to time.Time) ([]PriceBar, error)
	MarketIndexCloses(ctx context.Context, from, to time.Time) ([]PriceBar, error)
}

// FactorRow is one day's Fama-French three-factor observation.
type FactorRow struct {
	Date time.Time
	MktRF, SMB, HML, RF float64
}

// FactorProvider supplies daily FF3 factor returns.
type FactorProvider interface {
	DailyFactors(ctx context.Context, from, to time.Time) ([]FactorRow, error)
}

// Result is one trade's event-study outcome.
type Result struct {
	TradeHash          string
	EventDate          time.Time
	CAR5D, CAR20D, CAR60D float64
	FF3Alpha           float64
	FF3Beta            float64
	FF3SMB             float64
	FF3HML             float64
	FF3RSquared        float64
	FF3SampleSize      int
	FF3CAR             float64 // cumulative residual over the event window, FF3-adjusted
	Excluded           bool
	ExclusionReason    string
}

const (
	windowEstimationStart = -250 // trading days relative to event date
	windowEstimationEnd   = -10
	minEstimationObs      = 200
	maxEstimationRSquared = 0.95
)

// Backtester computes per-trade event studies.
type Backtester struct {
	prices  PriceProvider
	factors FactorProvider
}

// New constructs a Backtester.
func New(prices PriceProvider, factors FactorProvider) *Backtester {
	return &Backtester{prices: prices, factors: factors}
}

// RunForTrade computes the market-adjusted CAR and, when enough
// estimation-window history exists, the FF3-adjusted CAR for one trade.
// The event date is filing_date+1 (§4.8): the earliest day the market
// could plausibly have reacted to public disclosure.
func (b *Backtester) RunForTrade(ctx context.Context, t domain.Trade) (Result, error) {
	eventDate := t.FilingDate.AddDate(0, 0, 1)
	result := Result{TradeHash: t.DataHash, EventDate: eventDate}

	if t.Ticker == nil {
		return Result{}, &errs.BacktestError{Kind: errs.BacktestInsufficientHistory, TradeHash: t.DataHash, Err: fmt.Errorf("no resolved ticker")}
	}

	maxWindow := 60
	stockBars, err := b.prices.DailyCloses(ctx, *t.Ticker, eventDate.AddDate(0, 0, -5), eventDate.AddDate(0, 0, maxWindow+5))
	if err != nil {
		return Result{}, &errs.BacktestError{Kind: errs.BacktestInsufficientHistory, TradeHash: t.DataHash, Err: err}
	}
	marketBars, err := b.prices.MarketIndexCloses(ctx, eventDate.AddDate(0, 0, -5), eventDate.AddDate(0, 0, maxWindow+5))
	if err != nil {
		return Result{}, &errs.BacktestError{Kind: errs.BacktestInsufficientHistory, TradeHash: t.DataHash, Err: err}
	}

	stockSeries, err := fillGaps(stockBars)
	if err != nil {
		return Result{}, &errs.BacktestError{Kind: errs.BacktestPriceGap, TradeHash: t.DataHash, Err: err}
	}
	marketSeries, err := fillGaps(marketBars)
	if err != nil {
		return Result{}, &errs.BacktestError{Kind: errs.BacktestPriceGap, TradeHash: t.DataHash, Err: err}
	}

	car5, err := marketAdjustedCAR(stockSeries, marketSeries, eventDate, 5)
	if err != nil {
		return Result{}, &errs.BacktestError{Kind: errs.BacktestInsufficientHistory, TradeHash: t.DataHash, Err: err}
	}
	car20, err := marketAdjustedCAR(stockSeries, marketSeries, eventDate, 20)
	if err != nil {
		return Result{}, &errs.BacktestError{Kind: errs.BacktestInsufficientHistory, TradeHash: t.DataHash, Err: err}
	}
	car60, err := marketAdjustedCAR(stockSeries, marketSeries, eventDate, 60)
	if err != nil {
		return Result{}, &errs.BacktestError{Kind: errs.BacktestInsufficientHistory, TradeHash: t.DataHash, Err: err}
	}
	result.CAR5D, result.CAR20D, result.CAR60D = car5, car20, car60

	if b.factors != nil {
		ff3, err := b.runFF3(ctx, *t.Ticker, eventDate)
		if err == nil {
			result.FF3Alpha = ff3.alpha
			result.FF3Beta = ff3.beta
			result.FF3SMB = ff3.smb
			result.FF3HML = ff3.hml
			result.FF3RSquared = ff3.rSquared
			result.FF3SampleSize = ff3.sampleSize
			result.FF3CAR = ff3.eventCAR
		}
	}

	return result, nil
}

// fillGaps returns bars sorted ascending by date. It inserts no bars:
// consecutive bars up to 4 calendar days apart (a weekend plus one holiday)
// are kept as they are, so a missing day's move lands in the next bar's
// return, and any wider gap is an error. The gap is measured in calendar
// days, not trading days, so a 4-day span with several missing weekdays
// (Monday to Friday) is also accepted. Returned as a date->close map plus
// sorted dates for window slicing.
type series struct {
	dates  []time.Time
	closes map[string]float64
}

func fillGaps(bars []PriceBar) (series, error) {
	if len(bars) < 2 {
		return series{}, fmt.Errorf("insufficient price history: %d bars", len(bars))
	}
	sorted := append([]PriceBar(nil), bars...)
	sortBarsByDate(sorted)

	closes := make(map[string]float64, len(sorted))
	dates := make([]time.Time, 0, len(sorted))
	var prev *PriceBar
	for i := range sorted {
		cur := sorted[i]
		if prev != nil {
			gapDays := int(cur.Date.Sub(prev.Date).Hours() / 24)
			if gapDays > 4 { // allow weekends; a >4 calendar-day gap on a trading series is a real data gap
				return series{}, fmt.Errorf("price gap of %d days exceeds one-day fill tolerance", gapDays)
			}
		}
		closes[dateKey(cur.Date)] = cur.Close
		dates = append(dates, cur.Date)
		prevCopy := cur
		prev = &prevCopy
	}
	return series{dates: dates, closes: closes}, nil
}

func sortBarsByDate(bars []PriceBar) {
	for i := 1; i < len(bars); i++ {
		for j := i; j > 0 && bars[j].Date.Before(bars[j-1].Date); j-- {
			bars[j], bars[j-1] = bars[j-1], bars[j]
		}
	}
}

func dateKey(t time.Time) string { return t.Format("2006-01-02") }

// marketAdjustedCAR sums (stock log-return - market log-return) over the
// windowDays trading days starting at eventDate.
func marketAdjustedCAR(stock, market series, eventDate time.Time, windowDays int) (float64, error) {
	var car float64
	count := 0
	for i, d := range stock.dates {
		if d.Before(eventDate) {
			continue
		}
		if count >= windowDays {
			break
		}
		if i == 0 {
			continue
		}
		prevDate := stock.dates[i-1]
		sc, ok1 := stock.closes[dateKey(d)]
		sp, ok2 := stock.closes[dateKey(prevDate)]
		mc, ok3 := market.closes[dateKey(d)]
		mp, ok4 := market.closes[dateKey(prevDate)]
		if !ok1 || !ok2 || !ok3 || !ok4 || sp <= 0 || mp <= 0 {
			continue
		}
		stockRet := logReturn(sp, sc)
		marketRet := logReturn(mp, mc)
		car += stockRet - marketRet
		count++
	}
	if count < windowDays/2 {
		return 0, fmt.Errorf("only %d of %d expected trading days observed", count, windowDays)
	}
	return car, nil
}

func logReturn(prev, cur float64) float64 {
	if prev <= 0 || cur <= 0 {
		return 0
	}
	return math.Log(cur / prev)
}
