// Package load implements the L3 persistence gate from spec.md §4.4: a
// confidence gate, name/ticker normalization, hash-and-insert dedup, and
// exactly one audit-log row per Transformer batch.
package load

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sawpanic/capitolflow/internal/config"
	"github.com/sawpanic/capitolflow/internal/domain"
	"github.com/sawpanic/capitolflow/internal/errs"
	"github.com/sawpanic/capitolflow/internal/load/names"
	"github.com/sawpanic/capitolflow/internal/load/tickers"
	"github.com/sawpanic/capitolflow/internal/store"
)

// Result summarizes one Load invocation for the pipeline orchestrator and
// the run-level report.
type Result struct {
	Inserted       int
	Duplicates     int
	Rejected       int
	ManualReview   int
	NameUnresolved int
}

// Loader gates, normalizes, hashes, and persists ExtractionResult candidates.
type Loader struct {
	trades     store.TradeWriter
	logs       store.ExtractionLogWriter
	nameRes    *names.Resolver
	tickerRes  *tickers.Resolver
	cfg        config.PipelineConfig
	log        zerolog.Logger
}

// New constructs a Loader bound to its single-writer table handles.
func New(trades store.TradeWriter, logs store.ExtractionLogWriter, nameRes *names.Resolver, tickerRes *tickers.Resolver, cfg config.PipelineConfig, log zerolog.Logger) *Loader {
	return &Loader{trades: trades, logs: logs, nameRes: nameRes, tickerRes: tickerRes, cfg: cfg, log: log}
}

// Load runs the confidence gate, normalization, and hash+insert dedup over
// one ExtractionResult, then appends exactly one ExtractionLog row
// summarizing the whole batch (§4.4 step 5).
func (l *Loader) Load(ctx context.Context, result domain.ExtractionResult) (Result, error) {
	var summary Result

	// Batch-level confidence gate (§4.4 step 1). This runs before any
	// per-candidate handling: a low-confidence extraction batch is
	// rejected or demoted wholesale, regardless of how confident any
	// individual row within it looks.
	if result.OverallConfidence < l.cfg.ConfidenceRejectBelow {
		summary.Rejected = len(result.Candidates)
		l.log.Warn().
			Float64("overall_confidence", result.OverallConfidence).
			Str("source", result.SourceIdentifier).
			Msg("load: batch rejected, overall confidence below reject threshold")
		return summary, l.appendLog(ctx, result, summary, domain.ExtractionFailed)
	}
	batchManualReview := result.OverallConfidence < l.cfg.ConfidenceManualReviewBelow

	for _, candidate := range result.Candidates {
		tradeStatus := domain.TradeStatusCanonical
		switch {
		case batchManualReview:
			// Whole batch is in [reject, manual_review) confidence band:
			// every surviving row is written manual_review and excluded
			// from downstream signal generation, independent of its own
			// per-candidate confidence.
			tradeStatus = domain.TradeStatusManualReview
			summary.ManualReview++
		case candidate.ExtractionConfidence < l.cfg.ConfidenceRejectBelow:
			summary.Rejected++
			continue
		case candidate.ExtractionConfidence < l.cfg.ConfidenceManualReviewBelow:
			tradeStatus = domain.TradeStatusManualReview
			summary.ManualReview++
		}

		canonicalName, ok := l.nameRes.Resolve(candidate.SurfaceName)
		if !ok {
			summary.NameUnresolved++
			l.log.Warn().Str("surface_name", candidate.SurfaceName).Msg("load: politician name unresolved, candidate dropped")
			continue
		}

		ticker := l.tickerRes.Resolve(ctx, candidate.TickerRaw, candidate.AssetNameRaw)

		trade := domain.Trade{
			Chamber:              candidate.Chamber,
			PoliticianName:       canonicalName,
			SurfaceName:          candidate.SurfaceName,
			TransactionDate:      candidate.TransactionDate,
			FilingDate:           candidate.FilingDate,
			Ticker:               ticker,
			AssetName:            candidate.AssetNameRaw,
			AssetType:            candidate.AssetType,
			TransactionType:      candidate.TransactionType,
			AmountBucket:         candidate.AmountBucket,
			Owner:                candidate.Owner,
			Comment:              candidate.Comment,
			SourceURL:            result.SourceIdentifier,
			SourceFormat:         result.SourceFormat,
			ExtractionConfidence: candidate.ExtractionConfidence,
			Status:               tradeStatus,
			CreatedAt:            time.Now(),
		}
		trade.SetDataHash()

		if err := trade.Validate(); err != nil {
			summary.Rejected++
			l.log.Warn().Err(err).Str("data_hash", trade.DataHash).Msg("load: trade failed validation, dropped")
			continue
		}

		inserted, err := l.trades.InsertIfAbsent(ctx, trade)
		if err != nil {
			return summary, &errs.LoadError{Kind: errs.LoadStoreWriteFailed, Err: err}
		}
		if inserted {
			summary.Inserted++
		} else {
			summary.Duplicates++
		}
	}

	status := domain.ExtractionSuccess
	switch {
	case batchManualReview:
		status = domain.ExtractionManualReview
	case summary.Inserted == 0 && len(result.Candidates) > 0:
		status = domain.ExtractionPartial
	case len(result.Candidates) == 0:
		status = domain.ExtractionFailed
	}

	return summary, l.appendLog(ctx, result, summary, status)
}

// appendLog writes the single ExtractionLog row required per batch (§4.4
// step 5), whether the batch was fully processed or rejected outright by
// the confidence gate.
func (l *Loader) appendLog(ctx context.Context, result domain.ExtractionResult, summary Result, status domain.ExtractionStatus) error {
	logRow := domain.ExtractionLog{
		ID:               uuid.NewString(),
		SourceIdentifier: result.SourceIdentifier,
		SourceFormat:     result.SourceFormat,
		RawRecordCount:   len(result.Candidates),
		ExtractedCount:   summary.Inserted,
		DuplicateCount:   summary.Duplicates,
		Confidence:       result.OverallConfidence,
		Status:           status,
		LLMCallCount:     result.LLMCallCount,
		Timestamp:        time.Now(),
	}
	if err := l.logs.Append(ctx, logRow); err != nil {
		return &errs.LoadError{Kind: errs.LoadStoreWriteFailed, Err: err}
	}
	return nil
}
