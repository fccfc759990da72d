package backtest

import (
	"context"
	"testing"
	"time"

	"github.com/sawpanic/capitolflow/internal/domain"
)

type fakePrices struct {
	trendBps float64 // daily log-return applied to the stock series, market stays flat
}

func dailyBars(from, to time.Time, dailyReturn float64) []PriceBar {
	var bars []PriceBar
	price := 100.0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		bars = append(bars, PriceBar{Date: d, Close: price})
		price *= 1 + dailyReturn
	}
	return bars
}

func (f *fakePrices) DailyCloses(ctx context.Context, ticker string, from, to time.Time) ([]PriceBar, error) {
	return dailyBars(from, to, f.trendBps), nil
}

func (f *fakePrices) MarketIndexCloses(ctx context.Context, from, to time.Time) ([]PriceBar, error) {
	return dailyBars(from, to, 0), nil
}

type fakeSignals struct {
	byHash map[string]domain.AlphaSignal
}

func (f *fakeSignals) ByTradeHash(ctx context.Context, tradeHash string) (domain.AlphaSignal, bool, error) {
	sig, ok := f.byHash[tradeHash]
	return sig, ok, nil
}

func tickerPtr(s string) *string { return &s }

func TestBacktester_Run_AggregatesAndGuardrails(t *testing.T) {
	prices := &fakePrices{trendBps: 0.01} // positive daily drift -> positive CAR
	bt := New(prices, nil)

	filingBase := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var trades []domain.Trade
	sigs := &fakeSignals{byHash: map[string]domain.AlphaSignal{}}
	for i := 0; i < 32; i++ {
		hash := time.Duration(i).String()
		tr := domain.Trade{
			DataHash:   hash,
			Ticker:     tickerPtr("ACME"),
			FilingDate: filingBase.AddDate(0, 0, i),
		}
		trades = append(trades, tr)
		sigs.byHash[hash] = domain.AlphaSignal{Direction: domain.SignalLong}
	}

	batch, err := bt.Run(context.Background(), trades, sigs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batch.Results) == 0 {
		t.Fatal("expected at least one successful backtest result")
	}
	if batch.Guardrails.SampleSize != len(batch.Results) {
		t.Fatalf("expected guardrail sample size to match result count, got %d vs %d", batch.Guardrails.SampleSize, len(batch.Results))
	}
}

func TestBacktester_Run_ExcludesUnresolvedTicker(t *testing.T) {
	prices := &fakePrices{trendBps: 0}
	bt := New(prices, nil)

	trades := []domain.Trade{
		{DataHash: "no-ticker", Ticker: nil, FilingDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	batch, err := bt.Run(context.Background(), trades, nil)
	if err == nil {
		t.Fatal("expected an error when every trade is excluded (no observations)")
	}
	if len(batch.Excluded) != 1 {
		t.Fatalf("expected 1 excluded trade, got %d", len(batch.Excluded))
	}
}

func TestHitAgrees(t *testing.T) {
	if !hitAgrees(domain.SignalLong, 0.01) {
		t.Fatal("expected a long signal to agree with positive CAR")
	}
	if hitAgrees(domain.SignalLong, -0.01) {
		t.Fatal("expected a long signal to disagree with negative CAR")
	}
	if !hitAgrees(domain.SignalShort, -0.01) {
		t.Fatal("expected a short signal to agree with negative CAR")
	}
}
