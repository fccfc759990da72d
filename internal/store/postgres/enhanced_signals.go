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

type enhancedSignalsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
	mu      *sync.Mutex
}

type enhancedSignalRow struct {
	TradeHash        string  `db:"trade_hash"`
	PACS             float64 `db:"pacs"`
	VIXAtFiling      float64 `db:"vix_at_filing"`
	VIXMultiplier    float64 `db:"vix_multiplier"`
	EnhancedStrength float64 `db:"enhanced_strength"`
	AmountSweetSpot  bool    `db:"amount_sweet_spot"`
	BurstConvergence bool    `db:"burst_convergence"`
	ContractBonus    float64 `db:"contract_bonus"`
	DecayedAlpha20D  float64 `db:"decayed_alpha_20d"`
	HardFiltered     bool    `db:"hard_filtered"`
	HardFilterReason string  `db:"hard_filter_reason"`
	ReviewRequired   bool    `db:"review_required"`
	CreatedAt        time.Time `db:"created_at"`
}

func (r enhancedSignalRow) toDomain() domain.EnhancedSignal {
	return domain.EnhancedSignal{
		TradeHash: r.TradeHash, PACS: r.PACS, VIXAtFiling: r.VIXAtFiling, VIXMultiplier: r.VIXMultiplier,
		EnhancedStrength: r.EnhancedStrength, AmountSweetSpot: r.AmountSweetSpot, BurstConvergence: r.BurstConvergence,
		ContractBonus: r.ContractBonus, DecayedAlpha20D: r.DecayedAlpha20D, HardFiltered: r.HardFiltered,
		HardFilterReason: r.HardFilterReason, ReviewRequired: r.ReviewRequired, CreatedAt: r.CreatedAt,
	}
}

func (r *enhancedSignalsRepo) Upsert(ctx context.Context, sig domain.EnhancedSignal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO enhanced_signals (
			trade_hash, pacs, vix_at_filing, vix_multiplier, enhanced_strength,
			amount_sweet_spot, burst_convergence, contract_bonus, decayed_alpha_20d,
			hard_filtered, hard_filter_reason, review_required, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (trade_hash) DO UPDATE SET
			pacs = EXCLUDED.pacs, vix_at_filing = EXCLUDED.vix_at_filing, vix_multiplier = EXCLUDED.vix_multiplier,
			enhanced_strength = EXCLUDED.enhanced_strength, amount_sweet_spot = EXCLUDED.amount_sweet_spot,
			burst_convergence = EXCLUDED.burst_convergence, contract_bonus = EXCLUDED.contract_bonus,
			decayed_alpha_20d = EXCLUDED.decayed_alpha_20d, hard_filtered = EXCLUDED.hard_filtered,
			hard_filter_reason = EXCLUDED.hard_filter_reason, review_required = EXCLUDED.review_required`,
		sig.TradeHash, sig.PACS, sig.VIXAtFiling, sig.VIXMultiplier, sig.EnhancedStrength,
		sig.AmountSweetSpot, sig.BurstConvergence, sig.ContractBonus, sig.DecayedAlpha20D,
		sig.HardFiltered, sig.HardFilterReason, sig.ReviewRequired, sig.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert enhanced signal: %w", err)
	}
	return nil
}

func (r *enhancedSignalsRepo) ByTradeHash(ctx context.Context, tradeHash string) (domain.EnhancedSignal, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	var row enhancedSignalRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM enhanced_signals WHERE trade_hash = $1`, tradeHash)
	if err == sql.ErrNoRows {
		return domain.EnhancedSignal{}, false, nil
	}
	if err != nil {
		return domain.EnhancedSignal{}, false, fmt.Errorf("get enhanced signal: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *enhancedSignalsRepo) All(ctx context.Context) ([]domain.EnhancedSignal, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	var rows []enhancedSignalRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT * FROM enhanced_signals`); err != nil {
		return nil, fmt.Errorf("list enhanced signals: %w", err)
	}
	out := make([]domain.EnhancedSignal, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, nil
}
