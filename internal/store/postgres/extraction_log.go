package postgres

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sawpanic/capitolflow/internal/domain"
	"github.com/sawpanic/capitolflow/internal/store"
)

type extractionLogRepo struct {
	db      *sqlx.DB
	timeout time.Duration
	mu      *sync.Mutex
}

type extractionLogRow struct {
	ID               string    `db:"id"`
	SourceIdentifier string    `db:"source_identifier"`
	SourceFormat     string    `db:"source_format"`
	RawRecordCount   int       `db:"raw_record_count"`
	ExtractedCount   int       `db:"extracted_count"`
	DuplicateCount   int       `db:"duplicate_count"`
	Confidence       float64   `db:"confidence"`
	Status           string    `db:"status"`
	ErrorMessage     string    `db:"error_message"`
	LLMCallCount     int       `db:"llm_call_count"`
	Timestamp        time.Time `db:"ts"`
}

// Append writes exactly one row per batch (§4.4 step 5); append-only, no
// update path, matching the Store's append-only contract (§4.1, §6).
func (r *extractionLogRepo) Append(ctx context.Context, log domain.ExtractionLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO extraction_logs (
			id, source_identifier, source_format, raw_record_count, extracted_count,
			duplicate_count, confidence, status, error_message, llm_call_count, ts
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		log.ID, log.SourceIdentifier, string(log.SourceFormat), log.RawRecordCount, log.ExtractedCount,
		log.DuplicateCount, log.Confidence, string(log.Status), log.ErrorMessage, log.LLMCallCount, log.Timestamp)
	if err != nil {
		return fmt.Errorf("append extraction log: %w", err)
	}
	return nil
}

func (r *extractionLogRepo) ListBySource(ctx context.Context, sourceIdentifier string, tr store.TimeRange) ([]domain.ExtractionLog, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	var rows []extractionLogRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM extraction_logs
		WHERE source_identifier = $1 AND ts >= $2 AND ts <= $3
		ORDER BY ts`, sourceIdentifier, tr.Start, tr.End)
	if err != nil {
		return nil, fmt.Errorf("list extraction logs: %w", err)
	}
	out := make([]domain.ExtractionLog, len(rows))
	for i, row := range rows {
		out[i] = domain.ExtractionLog{
			ID: row.ID, SourceIdentifier: row.SourceIdentifier, SourceFormat: domain.SourceFormat(row.SourceFormat),
			RawRecordCount: row.RawRecordCount, ExtractedCount: row.ExtractedCount, DuplicateCount: row.DuplicateCount,
			Confidence: row.Confidence, Status: domain.ExtractionStatus(row.Status), ErrorMessage: row.ErrorMessage,
			LLMCallCount: row.LLMCallCount, Timestamp: row.Timestamp,
		}
	}
	return out, nil
}
