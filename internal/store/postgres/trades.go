package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sawpanic/capitolflow/internal/domain"
	"github.com/sawpanic/capitolflow/internal/store"
)

type tradesRepo struct {
	db      *sqlx.DB
	timeout time.Duration
	mu      *sync.Mutex
}

type tradeRow struct {
	DataHash             string    `db:"data_hash"`
	Chamber              string    `db:"chamber"`
	PoliticianName       string    `db:"politician_name"`
	SurfaceName          string    `db:"surface_name"`
	TransactionDate      time.Time `db:"transaction_date"`
	FilingDate           time.Time `db:"filing_date"`
	Ticker               sql.NullString `db:"ticker"`
	AssetName            string    `db:"asset_name"`
	AssetType            string    `db:"asset_type"`
	TransactionType      string    `db:"transaction_type"`
	AmountBucket         string    `db:"amount_bucket"`
	Owner                string    `db:"owner"`
	Comment              string    `db:"comment"`
	SourceURL            string    `db:"source_url"`
	SourceFormat         string    `db:"source_format"`
	ExtractionConfidence float64   `db:"extraction_confidence"`
	Status               string    `db:"status"`
	CreatedAt            time.Time `db:"created_at"`
}

func toRow(t domain.Trade) tradeRow {
	row := tradeRow{
		DataHash:             t.DataHash,
		Chamber:              string(t.Chamber),
		PoliticianName:       t.PoliticianName,
		SurfaceName:          t.SurfaceName,
		TransactionDate:      t.TransactionDate,
		FilingDate:           t.FilingDate,
		AssetName:            t.AssetName,
		AssetType:            t.AssetType,
		TransactionType:      string(t.TransactionType),
		AmountBucket:         t.AmountBucket,
		Owner:                string(t.Owner),
		Comment:              t.Comment,
		SourceURL:            t.SourceURL,
		SourceFormat:         string(t.SourceFormat),
		ExtractionConfidence: t.ExtractionConfidence,
		Status:               string(t.Status),
		CreatedAt:            t.CreatedAt,
	}
	if t.Ticker != nil {
		row.Ticker = sql.NullString{String: *t.Ticker, Valid: true}
	}
	return row
}

func (r tradeRow) toDomain() domain.Trade {
	t := domain.Trade{
		DataHash:             r.DataHash,
		Chamber:              domain.Chamber(r.Chamber),
		PoliticianName:       r.PoliticianName,
		SurfaceName:          r.SurfaceName,
		TransactionDate:      r.TransactionDate,
		FilingDate:           r.FilingDate,
		AssetName:            r.AssetName,
		AssetType:            r.AssetType,
		TransactionType:      domain.TransactionType(r.TransactionType),
		AmountBucket:         r.AmountBucket,
		Owner:                domain.Owner(r.Owner),
		Comment:              r.Comment,
		SourceURL:            r.SourceURL,
		SourceFormat:         domain.SourceFormat(r.SourceFormat),
		ExtractionConfidence: r.ExtractionConfidence,
		Status:               domain.TradeStatus(r.Status),
		CreatedAt:            r.CreatedAt,
	}
	if r.Ticker.Valid {
		ticker := r.Ticker.String
		t.Ticker = &ticker
	}
	return t
}

// InsertIfAbsent implements the atomic (check-hash -> insert) dedup path
// from spec.md §4.4 step 4 using Postgres's ON CONFLICT DO NOTHING, which
// is race-free under concurrent writers without a client-side check-then-act.
func (r *tradesRepo) InsertIfAbsent(ctx context.Context, t domain.Trade) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	row := toRow(t)
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO trades (
			data_hash, chamber, politician_name, surface_name, transaction_date,
			filing_date, ticker, asset_name, asset_type, transaction_type,
			amount_bucket, owner, comment, source_url, source_format,
			extraction_confidence, status, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		ON CONFLICT (data_hash) DO NOTHING`,
		row.DataHash, row.Chamber, row.PoliticianName, row.SurfaceName, row.TransactionDate,
		row.FilingDate, row.Ticker, row.AssetName, row.AssetType, row.TransactionType,
		row.AmountBucket, row.Owner, row.Comment, row.SourceURL, row.SourceFormat,
		row.ExtractionConfidence, row.Status, row.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return false, nil
		}
		return false, fmt.Errorf("insert trade: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert trade rows affected: %w", err)
	}
	return n == 1, nil
}

func (r *tradesRepo) Query(ctx context.Context, q store.TradeQuery) ([]domain.Trade, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT * FROM trades WHERE 1=1`
	args := []interface{}{}
	i := 1
	add := func(clause string, v interface{}) {
		query += fmt.Sprintf(" AND %s $%d", clause, i)
		args = append(args, v)
		i++
	}
	if q.PoliticianName != "" {
		add("politician_name =", q.PoliticianName)
	}
	if q.Ticker != "" {
		add("ticker =", q.Ticker)
	}
	if q.Chamber != "" {
		add("chamber =", string(q.Chamber))
	}
	if !q.TransactionDates.Start.IsZero() {
		add("transaction_date >=", q.TransactionDates.Start)
	}
	if !q.TransactionDates.End.IsZero() {
		add("transaction_date <=", q.TransactionDates.End)
	}
	if !q.FilingDates.Start.IsZero() {
		add("filing_date >=", q.FilingDates.Start)
	}
	if !q.FilingDates.End.IsZero() {
		add("filing_date <=", q.FilingDates.End)
	}
	query += " ORDER BY transaction_date, filing_date, data_hash"
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	var rows []tradeRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	out := make([]domain.Trade, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, nil
}

func (r *tradesRepo) ByHash(ctx context.Context, dataHash string) (domain.Trade, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	var row tradeRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM trades WHERE data_hash = $1`, dataHash)
	if err == sql.ErrNoRows {
		return domain.Trade{}, false, nil
	}
	if err != nil {
		return domain.Trade{}, false, fmt.Errorf("get trade by hash: %w", err)
	}
	return row.toDomain(), true, nil
}

// AllCanonical returns canonical trades in the ordering guarantee required
// by spec.md §5: ascending (transaction_date, filing_date), ties broken by
// data_hash.
func (r *tradesRepo) AllCanonical(ctx context.Context) ([]domain.Trade, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	var rows []tradeRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM trades
		WHERE status = $1
		ORDER BY transaction_date, filing_date, data_hash`, string(domain.TradeStatusCanonical))
	if err != nil {
		return nil, fmt.Errorf("list canonical trades: %w", err)
	}
	out := make([]domain.Trade, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, nil
}
