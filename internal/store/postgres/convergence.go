package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sawpanic/capitolflow/internal/domain"
)

type convergenceRepo struct {
	db      *sqlx.DB
	timeout time.Duration
	mu      *sync.Mutex
}

type convergenceRow struct {
	Ticker         string    `db:"ticker"`
	Direction      string    `db:"direction"`
	WindowStart    time.Time `db:"window_start"`
	WindowEnd      time.Time `db:"window_end"`
	SpanDays       int       `db:"span_days"`
	Participants   []byte    `db:"participants"`
	Score          float64   `db:"score"`
	ScoreBreakdown []byte    `db:"score_breakdown"`
}

func (r convergenceRow) toDomain() (domain.ConvergenceEvent, error) {
	ev := domain.ConvergenceEvent{
		Ticker: r.Ticker, Direction: domain.Direction(r.Direction),
		WindowStart: r.WindowStart, WindowEnd: r.WindowEnd, SpanDays: r.SpanDays, Score: r.Score,
	}
	if err := json.Unmarshal(r.Participants, &ev.Participants); err != nil {
		return ev, fmt.Errorf("unmarshal participants: %w", err)
	}
	if err := json.Unmarshal(r.ScoreBreakdown, &ev.ScoreBreakdown); err != nil {
		return ev, fmt.Errorf("unmarshal score breakdown: %w", err)
	}
	return ev, nil
}

// Upsert is keyed on (ticker, direction, window_start) per spec.md §3,
// and is idempotent so re-running the detector on an unpermuted input set
// produces identical rows (§8 round-trip law).
func (r *convergenceRepo) Upsert(ctx context.Context, ev domain.ConvergenceEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	participants, err := json.Marshal(ev.Participants)
	if err != nil {
		return fmt.Errorf("marshal participants: %w", err)
	}
	breakdown, err := json.Marshal(ev.ScoreBreakdown)
	if err != nil {
		return fmt.Errorf("marshal score breakdown: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO convergence_events (ticker, direction, window_start, window_end, span_days, participants, score, score_breakdown)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (ticker, direction, window_start) DO UPDATE SET
			window_end = EXCLUDED.window_end, span_days = EXCLUDED.span_days,
			participants = EXCLUDED.participants, score = EXCLUDED.score,
			score_breakdown = EXCLUDED.score_breakdown`,
		ev.Ticker, string(ev.Direction), ev.WindowStart, ev.WindowEnd, ev.SpanDays, participants, ev.Score, breakdown)
	if err != nil {
		return fmt.Errorf("upsert convergence event: %w", err)
	}
	return nil
}

func (r *convergenceRepo) ForTicker(ctx context.Context, ticker string, direction domain.Direction) ([]domain.ConvergenceEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	var rows []convergenceRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM convergence_events WHERE ticker = $1 AND direction = $2 ORDER BY window_start`,
		ticker, string(direction))
	if err != nil {
		return nil, fmt.Errorf("list convergence events for ticker: %w", err)
	}
	return decodeConvergenceRows(rows)
}

// Active returns events whose window falls within windowDays of asOf,
// i.e. the "hot set" from spec.md §4.6 step 4; older events remain
// queryable via ForTicker for audit but are excluded here.
func (r *convergenceRepo) Active(ctx context.Context, asOf time.Time, windowDays int) ([]domain.ConvergenceEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	cutoff := asOf.AddDate(0, 0, -windowDays)
	var rows []convergenceRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM convergence_events WHERE window_end >= $1 ORDER BY window_start`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list active convergence events: %w", err)
	}
	return decodeConvergenceRows(rows)
}

func decodeConvergenceRows(rows []convergenceRow) ([]domain.ConvergenceEvent, error) {
	out := make([]domain.ConvergenceEvent, len(rows))
	for i, row := range rows {
		ev, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out[i] = ev
	}
	return out, nil
}
