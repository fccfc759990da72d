package signal

import (
	"context"
	"testing"
	"time"

	"github.com/sawpanic/capitolflow/internal/backtest"
	"github.com/sawpanic/capitolflow/internal/config"
	"github.com/sawpanic/capitolflow/internal/domain"
	"github.com/sawpanic/capitolflow/internal/store"
)

type fakeTradeReader struct {
	byHash map[string]domain.Trade
}

func (f *fakeTradeReader) Query(ctx context.Context, q store.TradeQuery) ([]domain.Trade, error) {
	return nil, nil
}

func (f *fakeTradeReader) ByHash(ctx context.Context, dataHash string) (domain.Trade, bool, error) {
	t, ok := f.byHash[dataHash]
	return t, ok, nil
}

func (f *fakeTradeReader) AllCanonical(ctx context.Context) ([]domain.Trade, error) {
	out := make([]domain.Trade, 0, len(f.byHash))
	for _, t := range f.byHash {
		out = append(out, t)
	}
	return out, nil
}

type fakeSQSReader struct{}

func (fakeSQSReader) ByTradeHash(ctx context.Context, tradeHash string) (domain.SQSRecord, bool, error) {
	return domain.SQSRecord{}, false, nil
}
func (fakeSQSReader) All(ctx context.Context) ([]domain.SQSRecord, error) { return nil, nil }

type fakeConvReader struct{}

func (fakeConvReader) ForTicker(ctx context.Context, ticker string, direction domain.Direction) ([]domain.ConvergenceEvent, error) {
	return nil, nil
}
func (fakeConvReader) Active(ctx context.Context, asOf time.Time, windowDays int) ([]domain.ConvergenceEvent, error) {
	return nil, nil
}

type fakeSignalReader struct {
	sigs []domain.AlphaSignal
}

func (f *fakeSignalReader) ByTradeHash(ctx context.Context, tradeHash string) (domain.AlphaSignal, bool, error) {
	for _, s := range f.sigs {
		if s.TradeHash == tradeHash {
			return s, true, nil
		}
	}
	return domain.AlphaSignal{}, false, nil
}

func (f *fakeSignalReader) All(ctx context.Context) ([]domain.AlphaSignal, error) {
	return f.sigs, nil
}

type fakeEnhancedWriter struct {
	upserted []domain.EnhancedSignal
}

func (f *fakeEnhancedWriter) Upsert(ctx context.Context, sig domain.EnhancedSignal) error {
	f.upserted = append(f.upserted, sig)
	return nil
}

func newTestEnhancer(t *testing.T, trade domain.Trade, sig domain.AlphaSignal, guardrails *backtest.GuardrailLookup, writer *fakeEnhancedWriter) *Enhancer {
	t.Helper()
	trades := &fakeTradeReader{byHash: map[string]domain.Trade{trade.DataHash: trade}}
	signals := &fakeSignalReader{sigs: []domain.AlphaSignal{sig}}
	return NewEnhancer(trades, fakeSQSReader{}, fakeConvReader{}, signals, writer, nil, nil, guardrails,
		config.DefaultPACSWeights(), config.DefaultVIXRegimeBands(), *config.DefaultPipelineConfig())
}

func TestEnhancer_Run_GuardrailTripPinsStrengthAndFlagsReview(t *testing.T) {
	filing := time.Now().AddDate(0, 0, -1)
	trade := domain.Trade{DataHash: "tripped", FilingDate: filing, ExtractionConfidence: 1.0, AmountBucket: "$1,001 - $15,000"}
	sig := domain.AlphaSignal{TradeHash: "tripped", SignalStrength: 0.2, SQSGrade: domain.GradeGold, FilingLagDays: 1}

	report := backtest.BatchReport{
		Results:        []backtest.Result{{TradeHash: "tripped"}},
		ReviewRequired: true,
	}
	guardrails := backtest.NewGuardrailLookup(report)

	writer := &fakeEnhancedWriter{}
	enh := newTestEnhancer(t, trade, sig, guardrails, writer)

	out, err := enh.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected exactly one enhanced signal, got %d", len(out))
	}
	if !out[0].ReviewRequired {
		t.Error("expected ReviewRequired=true when the trade's batch tripped a guardrail")
	}
	if out[0].EnhancedStrength != 1.0 {
		t.Errorf("expected enhanced_strength pinned to 1.0, got %v", out[0].EnhancedStrength)
	}
}

func TestEnhancer_Run_NoGuardrailLookupLeavesSignalUntouched(t *testing.T) {
	filing := time.Now().AddDate(0, 0, -1)
	trade := domain.Trade{DataHash: "clean", FilingDate: filing, ExtractionConfidence: 1.0, AmountBucket: "$1,001 - $15,000"}
	sig := domain.AlphaSignal{TradeHash: "clean", SignalStrength: 0.2, SQSGrade: domain.GradeGold, FilingLagDays: 1}

	writer := &fakeEnhancedWriter{}
	enh := newTestEnhancer(t, trade, sig, nil, writer)

	out, err := enh.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected exactly one enhanced signal, got %d", len(out))
	}
	if out[0].ReviewRequired {
		t.Error("expected ReviewRequired=false with no guardrail lookup wired")
	}
	if out[0].EnhancedStrength != 0.2 {
		t.Errorf("expected enhanced_strength to reflect the unmodified signal strength, got %v", out[0].EnhancedStrength)
	}
}

func TestEnhancer_Run_BatchNotTrippedLeavesSignalUntouched(t *testing.T) {
	filing := time.Now().AddDate(0, 0, -1)
	trade := domain.Trade{DataHash: "ok", FilingDate: filing, ExtractionConfidence: 1.0, AmountBucket: "$1,001 - $15,000"}
	sig := domain.AlphaSignal{TradeHash: "ok", SignalStrength: 0.4, SQSGrade: domain.GradeGold, FilingLagDays: 1}

	report := backtest.BatchReport{
		Results:        []backtest.Result{{TradeHash: "ok"}},
		ReviewRequired: false,
	}
	guardrails := backtest.NewGuardrailLookup(report)

	writer := &fakeEnhancedWriter{}
	enh := newTestEnhancer(t, trade, sig, guardrails, writer)

	out, err := enh.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[0].ReviewRequired {
		t.Error("expected ReviewRequired=false when the batch did not trip any guardrail")
	}
	if out[0].EnhancedStrength != 0.4 {
		t.Errorf("expected enhanced_strength to reflect the unmodified signal strength, got %v", out[0].EnhancedStrength)
	}
}
