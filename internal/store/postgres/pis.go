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

type pisRepo struct {
	db      *sqlx.DB
	timeout time.Duration
	mu      *sync.Mutex
}

type pisRow struct {
	PoliticianName  string  `db:"politician_name"`
	Activity        float64 `db:"activity"`
	Conviction      float64 `db:"conviction"`
	Diversification float64 `db:"diversification"`
	Timing          float64 `db:"timing"`
	Composite       float64 `db:"composite"`
	Rank            int     `db:"rank"`
}

func (r pisRow) toDomain() domain.PISScore {
	return domain.PISScore{
		PoliticianName: r.PoliticianName, Activity: r.Activity, Conviction: r.Conviction,
		Diversification: r.Diversification, Timing: r.Timing, Composite: r.Composite, Rank: r.Rank,
	}
}

func (r *pisRepo) Upsert(ctx context.Context, s domain.PISScore) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO politician_pis (politician_name, activity, conviction, diversification, timing, composite, rank)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (politician_name) DO UPDATE SET
			activity = EXCLUDED.activity, conviction = EXCLUDED.conviction,
			diversification = EXCLUDED.diversification, timing = EXCLUDED.timing,
			composite = EXCLUDED.composite, rank = EXCLUDED.rank`,
		s.PoliticianName, s.Activity, s.Conviction, s.Diversification, s.Timing, s.Composite, s.Rank)
	if err != nil {
		return fmt.Errorf("upsert pis score: %w", err)
	}
	return nil
}

func (r *pisRepo) ByName(ctx context.Context, politicianName string) (domain.PISScore, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	var row pisRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM politician_pis WHERE politician_name = $1`, politicianName)
	if err == sql.ErrNoRows {
		return domain.PISScore{}, false, nil
	}
	if err != nil {
		return domain.PISScore{}, false, fmt.Errorf("get pis score: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *pisRepo) All(ctx context.Context) ([]domain.PISScore, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	var rows []pisRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT * FROM politician_pis ORDER BY composite DESC`); err != nil {
		return nil, fmt.Errorf("list pis scores: %w", err)
	}
	out := make([]domain.PISScore, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, nil
}
