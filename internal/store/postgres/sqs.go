package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sawpanic/capitolflow/internal/domain"
)

type sqsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
	mu      *sync.Mutex
}

type sqsRow struct {
	TradeHash       string  `db:"trade_hash"`
	Actionability   float64 `db:"actionability"`
	Timeliness      float64 `db:"timeliness"`
	Conviction      float64 `db:"conviction"`
	InformationEdge float64 `db:"information_edge"`
	MarketImpact    float64 `db:"market_impact"`
	SQS             float64 `db:"sqs"`
	Grade           string  `db:"grade"`
}

func (r sqsRow) toDomain() domain.SQSRecord {
	return domain.SQSRecord{
		TradeHash: r.TradeHash, Actionability: r.Actionability, Timeliness: r.Timeliness,
		Conviction: r.Conviction, InformationEdge: r.InformationEdge, MarketImpact: r.MarketImpact,
		SQS: r.SQS, Grade: domain.Grade(r.Grade),
	}
}

// Upsert is used rather than insert-only because re-running the scorer on
// an unchanged trade set must be idempotent and byte-identical (§8), which
// an INSERT ... ON CONFLICT DO UPDATE over the same deterministic inputs
// satisfies trivially.
func (r *sqsRepo) Upsert(ctx context.Context, rec domain.SQSRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sqs_records (trade_hash, actionability, timeliness, conviction, information_edge, market_impact, sqs, grade)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (trade_hash) DO UPDATE SET
			actionability = EXCLUDED.actionability, timeliness = EXCLUDED.timeliness,
			conviction = EXCLUDED.conviction, information_edge = EXCLUDED.information_edge,
			market_impact = EXCLUDED.market_impact, sqs = EXCLUDED.sqs, grade = EXCLUDED.grade`,
		rec.TradeHash, rec.Actionability, rec.Timeliness, rec.Conviction, rec.InformationEdge,
		rec.MarketImpact, rec.SQS, string(rec.Grade))
	if err != nil {
		return fmt.Errorf("upsert sqs record: %w", err)
	}
	return nil
}

func (r *sqsRepo) ByTradeHash(ctx context.Context, tradeHash string) (domain.SQSRecord, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	var row sqsRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM sqs_records WHERE trade_hash = $1`, tradeHash)
	if err == sql.ErrNoRows {
		return domain.SQSRecord{}, false, nil
	}
	if err != nil {
		return domain.SQSRecord{}, false, fmt.Errorf("get sqs record: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *sqsRepo) All(ctx context.Context) ([]domain.SQSRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	var rows []sqsRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT * FROM sqs_records`); err != nil {
		return nil, fmt.Errorf("list sqs records: %w", err)
	}
	out := make([]domain.SQSRecord, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, nil
}
