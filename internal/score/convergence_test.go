package score

import (
	"context"
	"testing"
	"time"

	"github.com/sawpanic/capitolflow/internal/domain"
	"github.com/sawpanic/capitolflow/internal/store"
)

type fakeTradeReader struct {
	trades []domain.Trade
}

func (f *fakeTradeReader) Query(ctx context.Context, q store.TradeQuery) ([]domain.Trade, error) {
	return f.trades, nil
}

func (f *fakeTradeReader) ByHash(ctx context.Context, dataHash string) (domain.Trade, bool, error) {
	for _, t := range f.trades {
		if t.DataHash == dataHash {
			return t, true, nil
		}
	}
	return domain.Trade{}, false, nil
}

func (f *fakeTradeReader) AllCanonical(ctx context.Context) ([]domain.Trade, error) {
	return f.trades, nil
}

type fakeConvergenceWriter struct {
	events []domain.ConvergenceEvent
}

func (f *fakeConvergenceWriter) Upsert(ctx context.Context, ev domain.ConvergenceEvent) error {
	f.events = append(f.events, ev)
	return nil
}

func ticker(s string) *string { return &s }

func TestConvergenceDetector_Run_DetectsCluster(t *testing.T) {
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	reader := &fakeTradeReader{trades: []domain.Trade{
		{DataHash: "a", PoliticianName: "Jane Doe", Chamber: domain.ChamberSenate, Ticker: ticker("ACME"), TransactionType: domain.TransactionBuy, TransactionDate: base, AmountBucket: "$50,001 - $100,000"},
		{DataHash: "b", PoliticianName: "John Roe", Chamber: domain.ChamberHouse, Ticker: ticker("ACME"), TransactionType: domain.TransactionBuy, TransactionDate: base.AddDate(0, 0, 3), AmountBucket: "$50,001 - $100,000"},
	}}
	writer := &fakeConvergenceWriter{}
	det := NewConvergenceDetector(reader, writer, 30, nil)

	events, err := det.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected exactly one convergence event, got %d", len(events))
	}
	if events[0].DistinctPoliticianCount() != 2 {
		t.Fatalf("expected 2 distinct politicians, got %d", events[0].DistinctPoliticianCount())
	}
	if !events[0].SpansBothChambers() {
		t.Fatal("expected the event to span both chambers")
	}
	if len(writer.events) != 1 {
		t.Fatalf("expected the event persisted, got %d writes", len(writer.events))
	}
}

func TestConvergenceDetector_Run_SinglePoliticianNoEvent(t *testing.T) {
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	reader := &fakeTradeReader{trades: []domain.Trade{
		{DataHash: "a", PoliticianName: "Jane Doe", Chamber: domain.ChamberSenate, Ticker: ticker("ACME"), TransactionType: domain.TransactionBuy, TransactionDate: base, AmountBucket: "$50,001 - $100,000"},
		{DataHash: "b", PoliticianName: "Jane Doe", Chamber: domain.ChamberSenate, Ticker: ticker("ACME"), TransactionType: domain.TransactionBuy, TransactionDate: base.AddDate(0, 0, 3), AmountBucket: "$50,001 - $100,000"},
	}}
	writer := &fakeConvergenceWriter{}
	det := NewConvergenceDetector(reader, writer, 30, nil)

	events, err := det.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events for a single politician, got %d", len(events))
	}
}

func TestConvergenceDetector_Run_ScenarioThreeScoresTwelve(t *testing.T) {
	day := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	reader := &fakeTradeReader{trades: []domain.Trade{
		{DataHash: "a", PoliticianName: "Pelosi", Chamber: domain.ChamberHouse, Ticker: ticker("AAPL"), TransactionType: domain.TransactionBuy, TransactionDate: day, AmountBucket: "$1,001 - $15,000"},
		{DataHash: "b", PoliticianName: "Boozman", Chamber: domain.ChamberSenate, Ticker: ticker("AAPL"), TransactionType: domain.TransactionBuy, TransactionDate: day, AmountBucket: "$1,001 - $15,000"},
	}}
	writer := &fakeConvergenceWriter{}
	det := NewConvergenceDetector(reader, writer, 30, nil)

	events, err := det.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected exactly one convergence event, got %d", len(events))
	}
	if events[0].Score != 12 {
		t.Fatalf("expected score 2*2 + 5(span<=1) + 3(cross-chamber) = 12, got %v (%+v)", events[0].Score, events[0].ScoreBreakdown)
	}
}

func TestConvergenceDetector_Run_HighFrequencyDiscountKeysOffCorpusWideCount(t *testing.T) {
	day := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	trades := []domain.Trade{
		{DataHash: "a", PoliticianName: "Prolific Trader", Chamber: domain.ChamberHouse, Ticker: ticker("AAPL"), TransactionType: domain.TransactionBuy, TransactionDate: day, AmountBucket: "$1,001 - $15,000"},
		{DataHash: "b", PoliticianName: "John Roe", Chamber: domain.ChamberSenate, Ticker: ticker("AAPL"), TransactionType: domain.TransactionBuy, TransactionDate: day, AmountBucket: "$1,001 - $15,000"},
	}
	// Pad the corpus with 101 unrelated trades for "Prolific Trader" so their
	// corpus-wide total exceeds the >100 threshold, even though only one of
	// those trades falls inside this window.
	for i := 0; i < 101; i++ {
		trades = append(trades, domain.Trade{
			DataHash:        "pad" + string(rune('a'+i%26)) + string(rune('A'+i/26)),
			PoliticianName:  "Prolific Trader",
			Chamber:         domain.ChamberHouse,
			Ticker:          ticker("MSFT"),
			TransactionType: domain.TransactionBuy,
			TransactionDate: day.AddDate(-1, 0, -i),
			AmountBucket:    "$1,001 - $15,000",
		})
	}
	reader := &fakeTradeReader{trades: trades}
	writer := &fakeConvergenceWriter{}
	det := NewConvergenceDetector(reader, writer, 30, nil)

	events, err := det.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var found bool
	for _, ev := range events {
		if ev.Ticker == "AAPL" {
			found = true
			if ev.ScoreBreakdown.HighFrequencyDiscount != -2 {
				t.Fatalf("expected a -2 high-frequency discount, got %v", ev.ScoreBreakdown.HighFrequencyDiscount)
			}
		}
	}
	if !found {
		t.Fatal("expected an AAPL convergence event")
	}
}

func TestConvergenceDetector_Run_OutsideWindowNoEvent(t *testing.T) {
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	reader := &fakeTradeReader{trades: []domain.Trade{
		{DataHash: "a", PoliticianName: "Jane Doe", Chamber: domain.ChamberSenate, Ticker: ticker("ACME"), TransactionType: domain.TransactionBuy, TransactionDate: base, AmountBucket: "$50,001 - $100,000"},
		{DataHash: "b", PoliticianName: "John Roe", Chamber: domain.ChamberHouse, Ticker: ticker("ACME"), TransactionType: domain.TransactionBuy, TransactionDate: base.AddDate(0, 0, 60), AmountBucket: "$50,001 - $100,000"},
	}}
	writer := &fakeConvergenceWriter{}
	det := NewConvergenceDetector(reader, writer, 30, nil)

	events, err := det.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events when trades fall outside the window, got %d", len(events))
	}
}
