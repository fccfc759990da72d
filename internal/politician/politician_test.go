package politician

import (
	"context"
	"testing"
	"time"

	"github.com/sawpanic/capitolflow/internal/domain"
	"github.com/sawpanic/capitolflow/internal/store"
)

type fakeTradeReader struct{ trades []domain.Trade }

func (f *fakeTradeReader) Query(ctx context.Context, q store.TradeQuery) ([]domain.Trade, error) {
	return f.trades, nil
}
func (f *fakeTradeReader) ByHash(ctx context.Context, h string) (domain.Trade, bool, error) {
	return domain.Trade{}, false, nil
}
func (f *fakeTradeReader) AllCanonical(ctx context.Context) ([]domain.Trade, error) {
	return f.trades, nil
}

type fakePISWriter struct{ scores []domain.PISScore }

func (f *fakePISWriter) Upsert(ctx context.Context, s domain.PISScore) error {
	f.scores = append(f.scores, s)
	return nil
}

func tkr(s string) *string { return &s }

func TestRanker_Run_RanksDescending(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	reader := &fakeTradeReader{trades: []domain.Trade{
		{PoliticianName: "Prolific Trader", Ticker: tkr("A"), TransactionDate: base, FilingDate: base.AddDate(0, 0, 1), AmountBucket: "$1,000,001 - $5,000,000"},
		{PoliticianName: "Prolific Trader", Ticker: tkr("B"), TransactionDate: base, FilingDate: base.AddDate(0, 0, 1), AmountBucket: "$1,000,001 - $5,000,000"},
		{PoliticianName: "Quiet Trader", Ticker: tkr("A"), TransactionDate: base, FilingDate: base.AddDate(0, 0, 50), AmountBucket: "$1,001 - $15,000"},
	}}
	writer := &fakePISWriter{}
	ranker := New(reader, writer)

	scores, err := ranker.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scores) != 2 {
		t.Fatalf("expected 2 politicians, got %d", len(scores))
	}
	if scores[0].Rank != 1 || scores[1].Rank != 2 {
		t.Fatalf("expected dense ranks 1,2, got %d,%d", scores[0].Rank, scores[1].Rank)
	}
	if scores[0].Composite < scores[1].Composite {
		t.Fatal("expected scores sorted by descending composite")
	}
	if len(writer.scores) != 2 {
		t.Fatalf("expected both scores persisted, got %d", len(writer.scores))
	}
}

func TestGrade_Bands(t *testing.T) {
	cases := []struct {
		composite float64
		want      string
	}{
		{75, "A"},
		{74.9, "B"},
		{50, "B"},
		{49.9, "C"},
		{25, "C"},
		{24.9, "D"},
	}
	for _, c := range cases {
		if got := Grade(c.composite); got != c.want {
			t.Errorf("Grade(%v) = %v, want %v", c.composite, got, c.want)
		}
	}
}
