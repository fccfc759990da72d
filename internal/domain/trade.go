// Package domain holds the canonical record types that flow through the
// ETL pipeline and scoring subsystems: Trade, ExtractionLog, SQSRecord,
// ConvergenceEvent, AlphaSignal, EnhancedSignal, and the Politician entity
// (spec.md §3). These are plain structs with foreign-key back-references,
// never embedded object graphs, per §9 design notes.
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Chamber enumerates the two chambers of Congress.
type Chamber string

const (
	ChamberSenate Chamber = "Senate"
	ChamberHouse  Chamber = "House"
)

// TransactionType enumerates the disclosed transaction kinds.
type TransactionType string

const (
	TransactionBuy      TransactionType = "Buy"
	TransactionSale     TransactionType = "Sale"
	TransactionExchange TransactionType = "Exchange"
)

// Owner enumerates the disclosed ownership relationship.
type Owner string

const (
	OwnerSelf           Owner = "Self"
	OwnerSpouse         Owner = "Spouse"
	OwnerJoint          Owner = "Joint"
	OwnerDependentChild Owner = "Dependent-Child"
	OwnerUnknown        Owner = "Unknown"
)

// SourceFormat tags the provenance of an extraction.
type SourceFormat string

const (
	SourceSenateHTML       SourceFormat = "senate_html"
	SourceHousePDF         SourceFormat = "house_pdf"
	SourceCapitolTradesHTML SourceFormat = "capitoltrades_html"
)

// TradeStatus distinguishes canonical trades from audit-only rows (§3, §4.4).
type TradeStatus string

const (
	TradeStatusCanonical     TradeStatus = "canonical"
	TradeStatusManualReview  TradeStatus = "manual_review"
)

// Trade is the canonical unit of ingestion (spec.md §3).
type Trade struct {
	DataHash            string
	Chamber             Chamber
	PoliticianName      string // canonical name
	SurfaceName         string // as-disclosed form, retained for audit
	TransactionDate     time.Time
	FilingDate          time.Time
	Ticker              *string // nil for unresolved / non-equity assets
	AssetName           string
	AssetType           string
	TransactionType     TransactionType
	AmountBucket        string
	Owner               Owner
	Comment             string
	SourceURL           string
	SourceFormat        SourceFormat
	ExtractionConfidence float64
	Status              TradeStatus
	CreatedAt           time.Time
}

// FilingLagDays returns filing_date - transaction_date in whole calendar days.
func (t *Trade) FilingLagDays() int {
	return int(t.FilingDate.Sub(t.TransactionDate).Hours() / 24)
}

// Validate checks the trade invariants from spec.md §3: chamber and
// transaction_type membership, confidence bounds, and filing_date >=
// transaction_date.
func (t *Trade) Validate() error {
	switch t.Chamber {
	case ChamberSenate, ChamberHouse:
	default:
		return fmt.Errorf("invalid chamber: %q", t.Chamber)
	}
	switch t.TransactionType {
	case TransactionBuy, TransactionSale, TransactionExchange:
	default:
		return fmt.Errorf("invalid transaction_type: %q", t.TransactionType)
	}
	if t.ExtractionConfidence < 0 || t.ExtractionConfidence > 1 {
		return fmt.Errorf("extraction_confidence out of [0,1]: %f", t.ExtractionConfidence)
	}
	if t.FilingDate.Before(t.TransactionDate) {
		return fmt.Errorf("filing_date %s precedes transaction_date %s", t.FilingDate, t.TransactionDate)
	}
	return nil
}

// ComputeDataHash computes the identity hash from spec.md §3:
// SHA-256(politician_name || transaction_date || ticker || amount_bucket || transaction_type).
// politician_name here is the canonical name (post name-normalization),
// matching the Loader's hash+insert step (§4.4 step 4) which runs after
// canonicalization.
func ComputeDataHash(politicianName string, transactionDate time.Time, ticker string, amountBucket string, txType TransactionType) string {
	h := sha256.New()
	h.Write([]byte(politicianName))
	h.Write([]byte(transactionDate.Format("2006-01-02")))
	h.Write([]byte(ticker))
	h.Write([]byte(amountBucket))
	h.Write([]byte(txType))
	return hex.EncodeToString(h.Sum(nil))
}

// SetDataHash computes and assigns DataHash from the trade's own fields.
func (t *Trade) SetDataHash() {
	ticker := ""
	if t.Ticker != nil {
		ticker = *t.Ticker
	}
	t.DataHash = ComputeDataHash(t.PoliticianName, t.TransactionDate, ticker, t.AmountBucket, t.TransactionType)
}

// AmountBucketMidpoint maps a disclosed bucket string to its scalar midpoint
// in dollars, per spec.md §3 ("when a scalar is required, the midpoint of
// the bucket is used and the bucket string retained"). Unknown buckets
// return 0 and ok=false.
func AmountBucketMidpoint(bucket string) (float64, bool) {
	midpoints := map[string]float64{
		"$1,001 - $15,000":          8000,
		"$15,001 - $50,000":         32500,
		"$50,001 - $100,000":        75000,
		"$100,001 - $250,000":       175000,
		"$250,001 - $500,000":       375000,
		"$500,001 - $1,000,000":     750000,
		"$1,000,001 - $5,000,000":   3000000,
		"$5,000,001 - $25,000,000":  15000000,
		"$25,000,001 - $50,000,000": 37500000,
		"Over $50,000,000":          60000000,
	}
	v, ok := midpoints[bucket]
	return v, ok
}
