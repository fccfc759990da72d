// Package store defines the L0 persistence contracts (spec.md §4.1). Each
// table has exactly one write-owning component by construction (§9 design
// notes): the Loader writes Trade and ExtractionLog; the Scorer writes
// SQSRecord; the Convergence detector writes ConvergenceEvent; the Signal
// generator writes AlphaSignal; the Enhancer writes EnhancedSignal. Every
// other component receives a read-only view, expressed here as narrower
// interfaces so the compiler enforces the discipline.
package store

import (
	"context"
	"time"

	"github.com/sawpanic/capitolflow/internal/domain"
)

// TimeRange bounds a read query by calendar date, inclusive on both ends.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// TradeQuery keys reads on the tuple named in spec.md §4.1.
type TradeQuery struct {
	PoliticianName string
	Ticker         string
	Chamber        domain.Chamber
	TransactionDates TimeRange
	FilingDates    TimeRange
	Limit          int
}

// TradeWriter is the single-writer handle the Loader holds.
type TradeWriter interface {
	// InsertIfAbsent attempts the atomic (check-hash -> insert) dedup path
	// from §4.4 step 4. inserted=false means a hash collision occurred and
	// the row was skipped silently.
	InsertIfAbsent(ctx context.Context, t domain.Trade) (inserted bool, err error)
}

// TradeReader is the read-only view every other component receives.
type TradeReader interface {
	Query(ctx context.Context, q TradeQuery) ([]domain.Trade, error)
	// ByHash looks up a single trade for foreign-key resolution.
	ByHash(ctx context.Context, dataHash string) (domain.Trade, bool, error)
	// AllCanonical returns canonical (non-audit-only) trades ordered by
	// (transaction_date, filing_date, data_hash) ascending, the ordering
	// guarantee required by §5 for SQS/convergence/signal generation.
	AllCanonical(ctx context.Context) ([]domain.Trade, error)
}

// ExtractionLogWriter is the Loader's append-only audit handle.
type ExtractionLogWriter interface {
	Append(ctx context.Context, log domain.ExtractionLog) error
}

// ExtractionLogReader supports provenance reconstruction (§6 outputs).
type ExtractionLogReader interface {
	ListBySource(ctx context.Context, sourceIdentifier string, tr TimeRange) ([]domain.ExtractionLog, error)
}

// SQSWriter is the Scorer's single-writer handle.
type SQSWriter interface {
	Upsert(ctx context.Context, rec domain.SQSRecord) error
}

// SQSReader is the read-only view consumed by the signal generator and reports.
type SQSReader interface {
	ByTradeHash(ctx context.Context, tradeHash string) (domain.SQSRecord, bool, error)
	All(ctx context.Context) ([]domain.SQSRecord, error)
}

// ConvergenceWriter is the Convergence detector's single-writer handle.
type ConvergenceWriter interface {
	Upsert(ctx context.Context, ev domain.ConvergenceEvent) error
}

// ConvergenceReader supports the signal enhancer's convergence_bonus lookup.
type ConvergenceReader interface {
	ForTicker(ctx context.Context, ticker string, direction domain.Direction) ([]domain.ConvergenceEvent, error)
	Active(ctx context.Context, asOf time.Time, windowDays int) ([]domain.ConvergenceEvent, error)
}

// SignalWriter is the Signal generator's single-writer handle.
type SignalWriter interface {
	Upsert(ctx context.Context, sig domain.AlphaSignal) error
}

// SignalReader is consumed by the Enhancer and reporting collaborators.
type SignalReader interface {
	ByTradeHash(ctx context.Context, tradeHash string) (domain.AlphaSignal, bool, error)
	All(ctx context.Context) ([]domain.AlphaSignal, error)
}

// EnhancedSignalWriter is the Enhancer's single-writer handle.
type EnhancedSignalWriter interface {
	Upsert(ctx context.Context, sig domain.EnhancedSignal) error
}

// EnhancedSignalReader is consumed by downstream reporting collaborators.
type EnhancedSignalReader interface {
	ByTradeHash(ctx context.Context, tradeHash string) (domain.EnhancedSignal, bool, error)
	All(ctx context.Context) ([]domain.EnhancedSignal, error)
}

// PISWriter is the politician ranking pass's single-writer handle.
type PISWriter interface {
	Upsert(ctx context.Context, score domain.PISScore) error
}

// PISReader is consumed by the SQS scorer (conviction/information-edge
// dimensions) and reporting collaborators.
type PISReader interface {
	ByName(ctx context.Context, politicianName string) (domain.PISScore, bool, error)
	All(ctx context.Context) ([]domain.PISScore, error)
}

// Store aggregates every table's reader/writer pair. Concrete
// implementations (internal/store/postgres) construct one Store and hand
// out only the narrow interface each component needs, enforcing the
// single-writer discipline at the call site rather than by convention.
type Store interface {
	Trades() (TradeWriter, TradeReader)
	ExtractionLogs() (ExtractionLogWriter, ExtractionLogReader)
	SQS() (SQSWriter, SQSReader)
	Convergence() (ConvergenceWriter, ConvergenceReader)
	Signals() (SignalWriter, SignalReader)
	EnhancedSignals() (EnhancedSignalWriter, EnhancedSignalReader)
	PIS() (PISWriter, PISReader)
	Close() error
}
