// Package postgres implements store.Store on PostgreSQL via sqlx and
// lib/pq, grounded on the teacher's internal/persistence/postgres package
// (trades_repo.go). Each table gets a dedicated writer mutex in addition to
// Postgres's own row locking, making the §5 "single writer lock per table"
// requirement explicit in process rather than implicit in the database.
package postgres

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/sawpanic/capitolflow/internal/store"
)

// Store is the PostgreSQL-backed implementation of store.Store. Readers
// are concurrent and never block writers (WAL semantics delegated to
// Postgres's MVCC); each writer additionally serializes on its own mutex
// so that a single logical writer per table holds exclusive access even
// across goroutines within this process.
type Store struct {
	db      *sqlx.DB
	timeout time.Duration

	tradesMu      sync.Mutex
	extractionMu  sync.Mutex
	sqsMu         sync.Mutex
	convergenceMu sync.Mutex
	signalsMu     sync.Mutex
	enhancedMu    sync.Mutex
	pisMu         sync.Mutex
}

// Open connects to PostgreSQL, applies the schema, and returns a ready Store.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres: dsn is required")
	}
	db, err := sqlx.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: apply schema: %w", err)
	}

	return &Store{db: db, timeout: cfg.QueryTimeout}, nil
}

// NewWithDB wraps an already-open *sqlx.DB without pinging it or applying
// the schema.
func NewWithDB(db *sqlx.DB, timeout time.Duration) *Store {
	return &Store{db: db, timeout: timeout}
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Trades() (store.TradeWriter, store.TradeReader) {
	r := &tradesRepo{db: s.db, timeout: s.timeout, mu: &s.tradesMu}
	return r, r
}

func (s *Store) ExtractionLogs() (store.ExtractionLogWriter, store.ExtractionLogReader) {
	r := &extractionLogRepo{db: s.db, timeout: s.timeout, mu: &s.extractionMu}
	return r, r
}

func (s *Store) SQS() (store.SQSWriter, store.SQSReader) {
	r := &sqsRepo{db: s.db, timeout: s.timeout, mu: &s.sqsMu}
	return r, r
}

func (s *Store) Convergence() (store.ConvergenceWriter, store.ConvergenceReader) {
	r := &convergenceRepo{db: s.db, timeout: s.timeout, mu: &s.convergenceMu}
	return r, r
}

func (s *Store) Signals() (store.SignalWriter, store.SignalReader) {
	r := &signalsRepo{db: s.db, timeout: s.timeout, mu: &s.signalsMu}
	return r, r
}

func (s *Store) EnhancedSignals() (store.EnhancedSignalWriter, store.EnhancedSignalReader) {
	r := &enhancedSignalsRepo{db: s.db, timeout: s.timeout, mu: &s.enhancedMu}
	return r, r
}

func (s *Store) PIS() (store.PISWriter, store.PISReader) {
	r := &pisRepo{db: s.db, timeout: s.timeout, mu: &s.pisMu}
	return r, r
}
