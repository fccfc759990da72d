package domain

import (
	"testing"
	"time"
)

func TestTrade_Validate(t *testing.T) {
	tx := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	filing := tx.AddDate(0, 0, 20)

	base := Trade{
		Chamber:              ChamberSenate,
		TransactionType:      TransactionBuy,
		ExtractionConfidence: 0.9,
		TransactionDate:      tx,
		FilingDate:           filing,
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("expected valid trade, got %v", err)
	}

	badChamber := base
	badChamber.Chamber = "Unicameral"
	if err := badChamber.Validate(); err == nil {
		t.Fatal("expected error for invalid chamber")
	}

	badTx := base
	badTx.TransactionType = "Gift"
	if err := badTx.Validate(); err == nil {
		t.Fatal("expected error for invalid transaction type")
	}

	badConfidence := base
	badConfidence.ExtractionConfidence = 1.5
	if err := badConfidence.Validate(); err == nil {
		t.Fatal("expected error for out-of-range confidence")
	}

	badDates := base
	badDates.FilingDate = tx.AddDate(0, 0, -1)
	if err := badDates.Validate(); err == nil {
		t.Fatal("expected error when filing_date precedes transaction_date")
	}
}

func TestTrade_FilingLagDays(t *testing.T) {
	tx := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := Trade{TransactionDate: tx, FilingDate: tx.AddDate(0, 0, 12)}
	if got := tr.FilingLagDays(); got != 12 {
		t.Fatalf("expected 12 day lag, got %d", got)
	}
}

func TestComputeDataHash_Deterministic(t *testing.T) {
	tx := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	h1 := ComputeDataHash("Jane Doe", tx, "ACME", "$1,001 - $15,000", TransactionBuy)
	h2 := ComputeDataHash("Jane Doe", tx, "ACME", "$1,001 - $15,000", TransactionBuy)
	if h1 != h2 {
		t.Fatal("expected identical hashes for identical inputs")
	}
	h3 := ComputeDataHash("Jane Doe", tx, "ACME", "$15,001 - $50,000", TransactionBuy)
	if h1 == h3 {
		t.Fatal("expected different hashes for different amount buckets")
	}
}

func TestTrade_SetDataHash_NilTicker(t *testing.T) {
	tr := Trade{
		PoliticianName:  "Jane Doe",
		TransactionDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		AmountBucket:    "$1,001 - $15,000",
		TransactionType: TransactionBuy,
	}
	tr.SetDataHash()
	if tr.DataHash == "" {
		t.Fatal("expected non-empty data hash")
	}
}

func TestAmountBucketMidpoint_Unknown(t *testing.T) {
	if _, ok := AmountBucketMidpoint("not a bucket"); ok {
		t.Fatal("expected ok=false for unknown bucket")
	}
	mid, ok := AmountBucketMidpoint("$1,001 - $15,000")
	if !ok || mid <= 0 {
		t.Fatalf("expected a positive known midpoint, got %v ok=%v", mid, ok)
	}
}
