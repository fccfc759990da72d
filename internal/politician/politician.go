// Package politician computes the Politician Influence Score (PIS), a
// per-politician ranking over activity, conviction, diversification, and
// timing sub-scores derived purely from that politician's own trade
// history (spec.md glossary, supplementing the distilled spec with the
// full four-dimension ranking the original system exposes as a standalone
// report).
package politician

import (
	"context"
	"math"
	"sort"

	"github.com/sawpanic/capitolflow/internal/domain"
	"github.com/sawpanic/capitolflow/internal/store"
)

// Ranker computes PISScore for every politician with at least one
// canonical trade.
type Ranker struct {
	trades store.TradeReader
	pis    store.PISWriter
}

// New constructs a Ranker.
func New(trades store.TradeReader, pis store.PISWriter) *Ranker {
	return &Ranker{trades: trades, pis: pis}
}

// Run recomputes and persists PISScore for every politician observed in
// the canonical trade set, assigning dense ranks by descending composite.
func (r *Ranker) Run(ctx context.Context) ([]domain.PISScore, error) {
	trades, err := r.trades.AllCanonical(ctx)
	if err != nil {
		return nil, err
	}

	byPolitician := make(map[string][]domain.Trade)
	for _, t := range trades {
		byPolitician[t.PoliticianName] = append(byPolitician[t.PoliticianName], t)
	}

	scores := make([]domain.PISScore, 0, len(byPolitician))
	for name, ts := range byPolitician {
		scores = append(scores, domain.PISScore{
			PoliticianName:  name,
			Activity:        activityScore(ts),
			Conviction:      convictionScore(ts),
			Diversification: diversificationScore(ts),
			Timing:          timingScore(ts),
		})
	}
	for i := range scores {
		s := &scores[i]
		s.Composite = 0.25*s.Activity + 0.25*s.Conviction + 0.25*s.Diversification + 0.25*s.Timing
	}

	sort.Slice(scores, func(i, j int) bool { return scores[i].Composite > scores[j].Composite })
	for i := range scores {
		scores[i].Rank = i + 1
		if err := r.pis.Upsert(ctx, scores[i]); err != nil {
			return nil, err
		}
	}
	return scores, nil
}

// activityScore rewards trade frequency, log-scaled against a 50-trade
// ceiling so a handful of very prolific traders don't flatten the scale.
func activityScore(ts []domain.Trade) float64 {
	n := float64(len(ts))
	const ceiling = 50.0
	score := 100 * math.Log1p(n) / math.Log1p(ceiling)
	return clamp(score, 0, 100)
}

// convictionScore averages amount-bucket midpoint across the politician's
// trades, log-scaled the same way the SQS scorer treats single-trade size.
func convictionScore(ts []domain.Trade) float64 {
	if len(ts) == 0 {
		return 0
	}
	var sum float64
	var n int
	for _, t := range ts {
		if mid, ok := domain.AmountBucketMidpoint(t.AmountBucket); ok {
			sum += mid
			n++
		}
	}
	if n == 0 {
		return 0
	}
	avg := sum / float64(n)
	const minLog, maxLog = 3.0, 7.7
	v := math.Log10(avg)
	return clamp(100*(v-minLog)/(maxLog-minLog), 0, 100)
}

// diversificationScore is the fraction of distinct tickers over total
// trades, scaled to [0,100]: a politician trading only one name scores
// low (concentrated, sector-specific activity); one trading many names
// scores high (broad, index-like activity).
func diversificationScore(ts []domain.Trade) float64 {
	if len(ts) == 0 {
		return 0
	}
	distinct := make(map[string]struct{})
	for _, t := range ts {
		if t.Ticker != nil {
			distinct[*t.Ticker] = struct{}{}
		}
	}
	if len(distinct) == 0 {
		return 0
	}
	return clamp(100*float64(len(distinct))/float64(len(ts)), 0, 100)
}

// timingScore rewards a politician's historical pattern of short filing
// lag (a proxy for disclosure discipline, itself correlated in the
// empirical literature with more actionable historical signals).
func timingScore(ts []domain.Trade) float64 {
	if len(ts) == 0 {
		return 0
	}
	var sum float64
	for _, t := range ts {
		lag := float64(t.FilingLagDays())
		if lag < 0 {
			lag = 0
		}
		sum += clamp(100*(1-lag/60), 0, 100)
	}
	return sum / float64(len(ts))
}

// Grade buckets a PIS composite into the A-D bands the multiplier ladder
// (config.MultiplierLadder.PoliticianGradeMultiplier) keys on.
func Grade(composite float64) string {
	switch {
	case composite >= 75:
		return "A"
	case composite >= 50:
		return "B"
	case composite >= 25:
		return "C"
	default:
		return "D"
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
