package load

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sawpanic/capitolflow/internal/config"
	"github.com/sawpanic/capitolflow/internal/domain"
	"github.com/sawpanic/capitolflow/internal/load/names"
	"github.com/sawpanic/capitolflow/internal/load/tickers"
)

type fakeTradeWriter struct {
	inserted []domain.Trade
	seen     map[string]bool
}

func newFakeTradeWriter() *fakeTradeWriter {
	return &fakeTradeWriter{seen: make(map[string]bool)}
}

func (f *fakeTradeWriter) InsertIfAbsent(ctx context.Context, t domain.Trade) (bool, error) {
	if f.seen[t.DataHash] {
		return false, nil
	}
	f.seen[t.DataHash] = true
	f.inserted = append(f.inserted, t)
	return true, nil
}

type fakeLogWriter struct {
	rows []domain.ExtractionLog
}

func (f *fakeLogWriter) Append(ctx context.Context, log domain.ExtractionLog) error {
	f.rows = append(f.rows, log)
	return nil
}

func newTestLoader(trades *fakeTradeWriter, logs *fakeLogWriter) *Loader {
	nameRes := names.NewResolver([]string{"Jane Doe"}, nil, 0.75)
	tickerRes := tickers.NewResolver(map[string]string{"acme corp": "ACME"}, nil)
	cfg := *config.DefaultPipelineConfig()
	return New(trades, logs, nameRes, tickerRes, cfg, zerolog.Nop())
}

func sampleCandidate(confidence float64) domain.CandidateTrade {
	return sampleCandidateOnDay(confidence, 5)
}

// sampleCandidateOnDay varies the transaction day so candidates within the
// same test batch hash to distinct Trade rows (data_hash ignores confidence).
func sampleCandidateOnDay(confidence float64, day int) domain.CandidateTrade {
	tx := time.Date(2026, 1, day, 0, 0, 0, 0, time.UTC)
	return domain.CandidateTrade{
		Chamber:              domain.ChamberSenate,
		SurfaceName:          "Jane Doe",
		TransactionDate:      tx,
		FilingDate:           tx.AddDate(0, 0, 10),
		TickerRaw:            "ACME",
		AssetNameRaw:         "Acme Corp",
		TransactionType:      domain.TransactionBuy,
		AmountBucket:         "$1,001 - $15,000",
		Owner:                domain.OwnerSelf,
		ExtractionConfidence: confidence,
	}
}

func TestLoad_BatchRejectedBelowRejectThreshold(t *testing.T) {
	trades := newFakeTradeWriter()
	logs := &fakeLogWriter{}
	loader := newTestLoader(trades, logs)

	result := domain.ExtractionResult{
		Candidates:        []domain.CandidateTrade{sampleCandidate(0.95), sampleCandidate(0.95)},
		OverallConfidence: 0.3,
		SourceIdentifier:  "senate-batch-1",
	}

	summary, err := loader.Load(context.Background(), result)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if summary.Rejected != 2 {
		t.Errorf("expected whole batch (2 rows) rejected, got %d", summary.Rejected)
	}
	if summary.Inserted != 0 {
		t.Errorf("expected no rows inserted when batch fails the confidence gate, got %d", summary.Inserted)
	}
	if len(trades.inserted) != 0 {
		t.Errorf("expected no trades persisted, got %d", len(trades.inserted))
	}
	if len(logs.rows) != 1 || logs.rows[0].Status != domain.ExtractionFailed {
		t.Fatalf("expected exactly one failed ExtractionLog row, got %+v", logs.rows)
	}
}

func TestLoad_BatchManualReviewBand(t *testing.T) {
	trades := newFakeTradeWriter()
	logs := &fakeLogWriter{}
	loader := newTestLoader(trades, logs)

	// Even a per-candidate-high-confidence row must be forced manual_review
	// when the batch's overall confidence sits in [0.5, 0.7).
	result := domain.ExtractionResult{
		Candidates:        []domain.CandidateTrade{sampleCandidate(0.99)},
		OverallConfidence: 0.6,
		SourceIdentifier:  "senate-batch-2",
	}

	summary, err := loader.Load(context.Background(), result)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if summary.Rejected != 0 {
		t.Errorf("expected no rows rejected in the manual_review band, got %d", summary.Rejected)
	}
	if summary.ManualReview != 1 || summary.Inserted != 1 {
		t.Fatalf("expected 1 manual_review insert, got manual_review=%d inserted=%d", summary.ManualReview, summary.Inserted)
	}
	if len(trades.inserted) != 1 || trades.inserted[0].Status != domain.TradeStatusManualReview {
		t.Fatalf("expected the persisted trade to carry manual_review status, got %+v", trades.inserted)
	}
	if len(logs.rows) != 1 || logs.rows[0].Status != domain.ExtractionManualReview {
		t.Fatalf("expected a manual_review ExtractionLog row, got %+v", logs.rows)
	}
}

func TestLoad_BatchProceedsAboveManualReviewThreshold(t *testing.T) {
	trades := newFakeTradeWriter()
	logs := &fakeLogWriter{}
	loader := newTestLoader(trades, logs)

	result := domain.ExtractionResult{
		Candidates:        []domain.CandidateTrade{sampleCandidate(0.99)},
		OverallConfidence: 0.85,
		SourceIdentifier:  "senate-batch-3",
	}

	summary, err := loader.Load(context.Background(), result)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if summary.Inserted != 1 || summary.ManualReview != 0 {
		t.Fatalf("expected a clean canonical insert, got %+v", summary)
	}
	if len(trades.inserted) != 1 || trades.inserted[0].Status != domain.TradeStatusCanonical {
		t.Fatalf("expected canonical trade status, got %+v", trades.inserted)
	}
	if len(logs.rows) != 1 || logs.rows[0].Status != domain.ExtractionSuccess {
		t.Fatalf("expected a success ExtractionLog row, got %+v", logs.rows)
	}
}

func TestLoad_PerCandidateGateStillAppliesAboveBatchThreshold(t *testing.T) {
	trades := newFakeTradeWriter()
	logs := &fakeLogWriter{}
	loader := newTestLoader(trades, logs)

	// Batch overall confidence clears 0.7, but one row's own confidence is
	// low enough to be rejected individually, and another sits in the
	// per-row manual_review band.
	result := domain.ExtractionResult{
		Candidates: []domain.CandidateTrade{
			sampleCandidateOnDay(0.95, 5), // canonical
			sampleCandidateOnDay(0.3, 6),  // rejected
			sampleCandidateOnDay(0.6, 7),  // manual_review
		},
		OverallConfidence: 0.9,
		SourceIdentifier:  "senate-batch-4",
	}

	summary, err := loader.Load(context.Background(), result)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if summary.Rejected != 1 {
		t.Errorf("expected 1 per-row rejection, got %d", summary.Rejected)
	}
	if summary.ManualReview != 1 {
		t.Errorf("expected 1 per-row manual_review, got %d", summary.ManualReview)
	}
}
