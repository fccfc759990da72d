package transform

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sawpanic/capitolflow/internal/domain"
)

// wireCandidate mirrors the JSON shape demanded by candidateSchemaDescription;
// decodeCandidates converts it into domain.CandidateTrade.
type wireCandidate struct {
	Chamber              string  `json:"chamber"`
	SurfaceName          string  `json:"surface_name"`
	TransactionDate      string  `json:"transaction_date"`
	FilingDate           string  `json:"filing_date"`
	TickerRaw            string  `json:"ticker_raw"`
	AssetNameRaw         string  `json:"asset_name_raw"`
	AssetType            string  `json:"asset_type"`
	TransactionType      string  `json:"transaction_type"`
	AmountBucket         string  `json:"amount_bucket"`
	Owner                string  `json:"owner"`
	Comment              string  `json:"comment"`
	ExtractionConfidence float64 `json:"extraction_confidence"`
}

func decodeCandidates(raw json.RawMessage, sourceFormat domain.SourceFormat) ([]domain.CandidateTrade, error) {
	var wire []wireCandidate
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("decode candidate array: %w", err)
	}

	out := make([]domain.CandidateTrade, 0, len(wire))
	for i, w := range wire {
		txDate, err := time.Parse("2006-01-02", w.TransactionDate)
		if err != nil {
			return nil, fmt.Errorf("candidate[%d]: bad transaction_date %q: %w", i, w.TransactionDate, err)
		}
		filingDate, err := time.Parse("2006-01-02", w.FilingDate)
		if err != nil {
			return nil, fmt.Errorf("candidate[%d]: bad filing_date %q: %w", i, w.FilingDate, err)
		}
		out = append(out, domain.CandidateTrade{
			Chamber:              domain.Chamber(w.Chamber),
			SurfaceName:          w.SurfaceName,
			TransactionDate:      txDate,
			FilingDate:           filingDate,
			TickerRaw:            w.TickerRaw,
			AssetNameRaw:         w.AssetNameRaw,
			AssetType:            w.AssetType,
			TransactionType:      domain.TransactionType(w.TransactionType),
			AmountBucket:         w.AmountBucket,
			Owner:                domain.Owner(w.Owner),
			Comment:              w.Comment,
			ExtractionConfidence: w.ExtractionConfidence,
		})
	}
	return out, nil
}

// validateCandidates applies schema validation (spec.md §4.3 S2 VALIDATE):
// required-field presence, enum membership, confidence bounds, and
// filing_date >= transaction_date. A candidate failing validation is
// dropped rather than failing the whole batch, UNLESS every candidate in
// the batch fails, in which case the batch itself retries.
func validateCandidates(candidates []domain.CandidateTrade) ([]domain.CandidateTrade, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("empty candidate set")
	}

	survivors := make([]domain.CandidateTrade, 0, len(candidates))
	for _, c := range candidates {
		if err := validateOne(c); err != nil {
			continue
		}
		survivors = append(survivors, c)
	}
	if len(survivors) == 0 {
		return nil, fmt.Errorf("all %d candidates failed schema validation", len(candidates))
	}
	return survivors, nil
}

func validateOne(c domain.CandidateTrade) error {
	switch c.Chamber {
	case domain.ChamberSenate, domain.ChamberHouse:
	default:
		return fmt.Errorf("invalid chamber %q", c.Chamber)
	}
	switch c.TransactionType {
	case domain.TransactionBuy, domain.TransactionSale, domain.TransactionExchange:
	default:
		return fmt.Errorf("invalid transaction_type %q", c.TransactionType)
	}
	switch c.Owner {
	case domain.OwnerSelf, domain.OwnerSpouse, domain.OwnerJoint, domain.OwnerDependentChild, domain.OwnerUnknown:
	default:
		return fmt.Errorf("invalid owner %q", c.Owner)
	}
	if c.SurfaceName == "" {
		return fmt.Errorf("surface_name required")
	}
	if c.AmountBucket == "" {
		return fmt.Errorf("amount_bucket required")
	}
	if c.ExtractionConfidence < 0 || c.ExtractionConfidence > 1 {
		return fmt.Errorf("extraction_confidence out of [0,1]: %f", c.ExtractionConfidence)
	}
	if c.FilingDate.Before(c.TransactionDate) {
		return fmt.Errorf("filing_date precedes transaction_date")
	}
	return nil
}
