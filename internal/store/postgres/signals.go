package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sawpanic/capitolflow/internal/domain"
)

type signalsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
	mu      *sync.Mutex
}

type signalRow struct {
	TradeHash          string  `db:"trade_hash"`
	Direction          string  `db:"direction"`
	ExpectedAlpha5D    float64 `db:"expected_alpha_5d"`
	ExpectedAlpha20D   float64 `db:"expected_alpha_20d"`
	Confidence         float64 `db:"confidence"`
	SignalStrength     float64 `db:"signal_strength"`
	CombinedMultiplier float64 `db:"combined_multiplier"`
	ConvergenceBonus   float64 `db:"convergence_bonus"`
	PoliticianGrade    string  `db:"politician_grade"`
	FilingLagDays      int     `db:"filing_lag_days"`
	SQSSnapshot        float64 `db:"sqs_snapshot"`
	SQSGrade           string  `db:"sqs_grade"`
	Reasoning          []byte  `db:"reasoning"`
	CreatedAt          time.Time `db:"created_at"`
}

func (r signalRow) toDomain() (domain.AlphaSignal, error) {
	sig := domain.AlphaSignal{
		TradeHash: r.TradeHash, Direction: domain.SignalDirection(r.Direction),
		ExpectedAlpha5D: r.ExpectedAlpha5D, ExpectedAlpha20D: r.ExpectedAlpha20D,
		Confidence: r.Confidence, SignalStrength: r.SignalStrength, CombinedMultiplier: r.CombinedMultiplier,
		ConvergenceBonus: r.ConvergenceBonus, PoliticianGrade: r.PoliticianGrade, FilingLagDays: r.FilingLagDays,
		SQSSnapshot: r.SQSSnapshot, SQSGrade: domain.Grade(r.SQSGrade), CreatedAt: r.CreatedAt,
	}
	if err := json.Unmarshal(r.Reasoning, &sig.Reasoning); err != nil {
		return sig, fmt.Errorf("unmarshal reasoning: %w", err)
	}
	return sig, nil
}

func (r *signalsRepo) Upsert(ctx context.Context, sig domain.AlphaSignal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	reasoning, err := json.Marshal(sig.Reasoning)
	if err != nil {
		return fmt.Errorf("marshal reasoning: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO alpha_signals (
			trade_hash, direction, expected_alpha_5d, expected_alpha_20d, confidence,
			signal_strength, combined_multiplier, convergence_bonus, politician_grade,
			filing_lag_days, sqs_snapshot, sqs_grade, reasoning, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		ON CONFLICT (trade_hash) DO UPDATE SET
			direction = EXCLUDED.direction, expected_alpha_5d = EXCLUDED.expected_alpha_5d,
			expected_alpha_20d = EXCLUDED.expected_alpha_20d, confidence = EXCLUDED.confidence,
			signal_strength = EXCLUDED.signal_strength, combined_multiplier = EXCLUDED.combined_multiplier,
			convergence_bonus = EXCLUDED.convergence_bonus, politician_grade = EXCLUDED.politician_grade,
			filing_lag_days = EXCLUDED.filing_lag_days, sqs_snapshot = EXCLUDED.sqs_snapshot,
			sqs_grade = EXCLUDED.sqs_grade, reasoning = EXCLUDED.reasoning`,
		sig.TradeHash, string(sig.Direction), sig.ExpectedAlpha5D, sig.ExpectedAlpha20D, sig.Confidence,
		sig.SignalStrength, sig.CombinedMultiplier, sig.ConvergenceBonus, sig.PoliticianGrade,
		sig.FilingLagDays, sig.SQSSnapshot, string(sig.SQSGrade), reasoning, sig.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert alpha signal: %w", err)
	}
	return nil
}

func (r *signalsRepo) ByTradeHash(ctx context.Context, tradeHash string) (domain.AlphaSignal, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	var row signalRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM alpha_signals WHERE trade_hash = $1`, tradeHash)
	if err == sql.ErrNoRows {
		return domain.AlphaSignal{}, false, nil
	}
	if err != nil {
		return domain.AlphaSignal{}, false, fmt.Errorf("get alpha signal: %w", err)
	}
	sig, err := row.toDomain()
	return sig, err == nil, err
}

func (r *signalsRepo) All(ctx context.Context) ([]domain.AlphaSignal, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	var rows []signalRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT * FROM alpha_signals`); err != nil {
		return nil, fmt.Errorf("list alpha signals: %w", err)
	}
	out := make([]domain.AlphaSignal, len(rows))
	for i, row := range rows {
		sig, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out[i] = sig
	}
	return out, nil
}
