package score

import (
	"context"
	"sort"
	"time"

	"github.com/sawpanic/capitolflow/internal/domain"
	"github.com/sawpanic/capitolflow/internal/store"
)

// ConvergenceDetector finds multi-politician co-trading clusters, per
// spec.md §4.6: partition canonical trades by (ticker, direction), slide a
// 30-day window, and emit an event for any window covering >=2 distinct
// politicians. Windows are found by scanning maximal runs rather than
// every possible sub-window, since the maximal run for a given anchor
// trade always dominates any of its sub-windows on participant count.
type ConvergenceDetector struct {
	trades     store.TradeReader
	writer     store.ConvergenceWriter
	windowDays int
	notable    map[string]bool // curated notable-participant set (§4.6 step 3 bonus)
}

// NewConvergenceDetector builds a detector. notable names receive the
// notable-participant scoring bonus.
func NewConvergenceDetector(trades store.TradeReader, writer store.ConvergenceWriter, windowDays int, notable map[string]bool) *ConvergenceDetector {
	return &ConvergenceDetector{trades: trades, writer: writer, windowDays: windowDays, notable: notable}
}

// Run partitions all canonical trades and persists every qualifying
// convergence event. Order-insensitivity (§8): the same trade set
// produces the same event regardless of the order trades were read in,
// since partitioning keys and the window scan are both deterministic
// functions of (ticker, direction, transaction_date, data_hash).
func (d *ConvergenceDetector) Run(ctx context.Context) ([]domain.ConvergenceEvent, error) {
	trades, err := d.trades.AllCanonical(ctx)
	if err != nil {
		return nil, err
	}

	type key struct {
		ticker    string
		direction domain.Direction
	}
	partitions := make(map[key][]domain.Trade)
	for _, t := range trades {
		if t.Ticker == nil {
			continue
		}
		dir, ok := directionOf(t.TransactionType)
		if !ok {
			continue
		}
		k := key{ticker: *t.Ticker, direction: dir}
		partitions[k] = append(partitions[k], t)
	}

	tradeCounts := make(map[string]int, len(trades))
	for _, t := range trades {
		tradeCounts[t.PoliticianName]++
	}

	var events []domain.ConvergenceEvent
	for k, ts := range partitions {
		sort.Slice(ts, func(i, j int) bool {
			if ts[i].TransactionDate.Equal(ts[j].TransactionDate) {
				return ts[i].DataHash < ts[j].DataHash
			}
			return ts[i].TransactionDate.Before(ts[j].TransactionDate)
		})
		for _, ev := range d.findWindows(k.ticker, k.direction, ts, tradeCounts) {
			events = append(events, ev)
			if err := d.writer.Upsert(ctx, ev); err != nil {
				return nil, err
			}
		}
	}
	return events, nil
}

func directionOf(tx domain.TransactionType) (domain.Direction, bool) {
	switch tx {
	case domain.TransactionBuy:
		return domain.DirectionBuy, true
	case domain.TransactionSale:
		return domain.DirectionSale, true
	default:
		return "", false
	}
}

// findWindows scans date-sorted trades for one (ticker, direction)
// partition and returns one event per maximal run whose span fits inside
// windowDays and whose distinct-politician count is >=2. Runs are
// anchored at every trade so overlapping clusters are each considered,
// then deduplicated by keeping only the maximal run for any given anchor.
func (d *ConvergenceDetector) findWindows(ticker string, direction domain.Direction, ts []domain.Trade, tradeCounts map[string]int) []domain.ConvergenceEvent {
	var events []domain.ConvergenceEvent
	n := len(ts)
	for i := 0; i < n; i++ {
		j := i
		for j+1 < n && ts[j+1].TransactionDate.Sub(ts[i].TransactionDate) <= time.Duration(d.windowDays)*24*time.Hour {
			j++
		}
		if j == i {
			continue
		}
		window := ts[i : j+1]
		distinct := distinctPoliticians(window)
		if len(distinct) < 2 {
			continue
		}

		participants := make([]domain.ConvergenceParticipant, 0, len(window))
		for _, t := range window {
			participants = append(participants, domain.ConvergenceParticipant{
				PoliticianName:  t.PoliticianName,
				Chamber:         t.Chamber,
				TradeHash:       t.DataHash,
				TransactionDate: t.TransactionDate,
			})
		}

		breakdown := d.score(window, distinct, tradeCounts)
		events = append(events, domain.ConvergenceEvent{
			Ticker:         ticker,
			Direction:      direction,
			WindowStart:    window[0].TransactionDate,
			WindowEnd:      window[len(window)-1].TransactionDate,
			SpanDays:       int(window[len(window)-1].TransactionDate.Sub(window[0].TransactionDate).Hours() / 24),
			Participants:   participants,
			Score:          breakdown.Total(),
			ScoreBreakdown: breakdown,
		})
	}
	return dedupeMaximal(events)
}

func distinctPoliticians(ts []domain.Trade) map[string]struct{} {
	out := make(map[string]struct{})
	for _, t := range ts {
		out[t.PoliticianName] = struct{}{}
	}
	return out
}

// score computes the §4.6 step-3 rubric: base 2x distinct politicians,
// a time-density bonus for tighter clustering, a cross-chamber bonus, an
// amount-weight bonus keyed on the single largest disclosed trade in the
// window, a high-frequency discount for politicians whose corpus-wide
// trade volume makes co-occurrence unremarkable, and a notable-participant
// bonus.
func (d *ConvergenceDetector) score(window []domain.Trade, distinct map[string]struct{}, tradeCounts map[string]int) domain.ConvergenceScoreBreakdown {
	base := 2.0 * float64(len(distinct))

	spanDays := window[len(window)-1].TransactionDate.Sub(window[0].TransactionDate).Hours() / 24
	density := 0.0
	switch {
	case spanDays <= 1:
		density = 5
	case spanDays <= 7:
		density = 3
	case spanDays <= 14:
		density = 1
	}

	crossChamber := 0.0
	var hasSenate, hasHouse bool
	for _, t := range window {
		switch t.Chamber {
		case domain.ChamberSenate:
			hasSenate = true
		case domain.ChamberHouse:
			hasHouse = true
		}
	}
	if hasSenate && hasHouse {
		crossChamber = 3
	}

	var maxAmount float64
	for _, t := range window {
		if mid, ok := domain.AmountBucketMidpoint(t.AmountBucket); ok && mid > maxAmount {
			maxAmount = mid
		}
	}
	amountBonus := 0.0
	switch {
	case maxAmount >= 1_000_000:
		amountBonus = 3
	case maxAmount >= 50_000:
		amountBonus = 1
	}

	highFreqDiscount := 0.0
	for name := range distinct {
		if tradeCounts[name] > 100 {
			highFreqDiscount = -2
			break
		}
	}

	notableBonus := 0.0
	if d.notable != nil {
		for name := range distinct {
			if d.notable[name] {
				notableBonus = 2
				break
			}
		}
	}

	return domain.ConvergenceScoreBreakdown{
		Base:                    base,
		TimeDensityBonus:        density,
		CrossChamberBonus:       crossChamber,
		AmountWeightBonus:       amountBonus,
		HighFrequencyDiscount:   highFreqDiscount,
		NotableParticipantBonus: notableBonus,
	}
}

// dedupeMaximal keeps only events that are not a strict subset (by
// participant trade-hash set) of another event in the same partition,
// since an anchor at every index otherwise reports every sub-window of a
// maximal cluster as its own event.
func dedupeMaximal(events []domain.ConvergenceEvent) []domain.ConvergenceEvent {
	keep := make([]bool, len(events))
	for i := range events {
		keep[i] = true
	}
	for i := range events {
		for j := range events {
			if i == j || !keep[i] {
				continue
			}
			if isSubset(events[i], events[j]) && !isSubset(events[j], events[i]) {
				keep[i] = false
			}
		}
	}
	out := make([]domain.ConvergenceEvent, 0, len(events))
	for i, e := range events {
		if keep[i] {
			out = append(out, e)
		}
	}
	return out
}

func isSubset(a, b domain.ConvergenceEvent) bool {
	if len(a.Participants) >= len(b.Participants) {
		return false
	}
	bSet := make(map[string]struct{}, len(b.Participants))
	for _, p := range b.Participants {
		bSet[p.TradeHash] = struct{}{}
	}
	for _, p := range a.Participants {
		if _, ok := bSet[p.TradeHash]; !ok {
			return false
		}
	}
	return true
}
