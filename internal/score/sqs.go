// Package score computes the Signal Quality Score and the 30-day
// convergence detector, both driven purely off canonical Trade rows
// (spec.md §4.6). Each dimension is scored 0-100 before weighting so the
// composite itself lands on a 0-100 scale matching the grade bands.
package score

import (
	"context"
	"math"

	"github.com/sawpanic/capitolflow/internal/config"
	"github.com/sawpanic/capitolflow/internal/domain"
	"github.com/sawpanic/capitolflow/internal/score/marketcap"
	"github.com/sawpanic/capitolflow/internal/score/oversight"
	"github.com/sawpanic/capitolflow/internal/store"
)

// SQSScorer computes per-trade Signal Quality Score records.
type SQSScorer struct {
	weights    config.SQSWeights
	bands      config.GradeBands
	pis        store.PISReader
	trades     store.TradeReader
	committees *oversight.Lookup
	caps       *marketcap.Lookup
}

// NewSQSScorer builds a scorer against the politician PIS reader (for the
// conviction dimension), the canonical trade reader (for the
// multi-trade-same-direction conviction bonus), and the two curated
// fixture lookups behind the information-edge and market-impact
// dimensions. committees and caps may both be nil, in which case those
// dimensions fall back to their spec-mandated "otherwise"/neutral bands.
func NewSQSScorer(weights config.SQSWeights, bands config.GradeBands, pis store.PISReader, trades store.TradeReader, committees *oversight.Lookup, caps *marketcap.Lookup) *SQSScorer {
	return &SQSScorer{weights: weights, bands: bands, pis: pis, trades: trades, committees: committees, caps: caps}
}

// Score computes one SQSRecord for a canonical trade.
func (s *SQSScorer) Score(ctx context.Context, t domain.Trade) domain.SQSRecord {
	actionability := actionabilityScore(t)
	timeliness := timelinessScore(t)
	conviction := s.convictionScore(ctx, t)
	informationEdge := s.informationEdgeScore(t)
	marketImpact := s.marketImpactScore(t)

	sqs := s.weights.Actionability*actionability +
		s.weights.Timeliness*timeliness +
		s.weights.Conviction*conviction +
		s.weights.InformationEdge*informationEdge +
		s.weights.MarketImpact*marketImpact

	return domain.SQSRecord{
		TradeHash:       t.DataHash,
		Actionability:   actionability,
		Timeliness:      timeliness,
		Conviction:      conviction,
		InformationEdge: informationEdge,
		MarketImpact:    marketImpact,
		SQS:             sqs,
		Grade:           domain.BandGrade(sqs, s.bands.Platinum, s.bands.Gold, s.bands.Silver, s.bands.Bronze),
	}
}

// actionabilityScore implements spec.md §4.6's categorical rule: 100 if
// the ticker is known and the direction is unambiguous (Buy or Sale); 70
// if the ticker is known but the direction is ambiguous (Exchange); 30 if
// the ticker itself is unresolved but the asset's class/sector is still
// disclosed (AssetType populated); 0 otherwise.
func actionabilityScore(t domain.Trade) float64 {
	switch {
	case t.Ticker != nil && (t.TransactionType == domain.TransactionBuy || t.TransactionType == domain.TransactionSale):
		return 100
	case t.Ticker != nil:
		return 70
	case t.AssetType != "":
		return 30
	default:
		return 0
	}
}

// timelinessScore bands filing_lag_days per spec.md §4.6: a trade is only
// actionable while the market hasn't already repriced the information.
func timelinessScore(t domain.Trade) float64 {
	lag := t.FilingLagDays()
	switch {
	case lag <= 7:
		return 100
	case lag <= 15:
		return 75
	case lag <= 30:
		return 50
	case lag <= 45:
		return 25
	default:
		return 0
	}
}

// conviction dimension bonus weights (sum to 100 at full strength, per
// spec.md §4.6's "sum ... capped at 100").
const (
	convictionAmountMax        = 40.0
	convictionMultiTradeBonus  = 20.0
	convictionConfidenceWeight = 15.0
)

var convictionOwnerBonus = map[domain.Owner]float64{
	domain.OwnerSelf:           25,
	domain.OwnerJoint:          20,
	domain.OwnerSpouse:         15,
	domain.OwnerDependentChild: 10,
	domain.OwnerUnknown:        12,
}

// convictionScore implements spec.md §4.6's additive conviction dimension:
// an amount-bucket bonus, an ownership-directness bonus (a Self trade
// signals more conviction than a Spouse/Joint/Dependent-Child one), a
// bonus when the same politician has other canonical trades in the same
// ticker and direction (a pattern, not a one-off), and a bonus scaled by
// the extraction's own confidence. The four terms are summed and capped
// at 100.
func (s *SQSScorer) convictionScore(ctx context.Context, t domain.Trade) float64 {
	midpoint, _ := domain.AmountBucketMidpoint(t.AmountBucket)
	amountBonus := amountToScore(midpoint) / 100 * convictionAmountMax

	ownerBonus := convictionOwnerBonus[t.Owner]

	var multiTradeBonus float64
	if s.trades != nil && t.Ticker != nil {
		matches, err := s.trades.Query(ctx, store.TradeQuery{
			PoliticianName: t.PoliticianName,
			Ticker:         *t.Ticker,
		})
		if err == nil {
			sameDirection := 0
			for _, m := range matches {
				if m.DataHash != t.DataHash && m.TransactionType == t.TransactionType {
					sameDirection++
				}
			}
			if sameDirection > 0 {
				multiTradeBonus = convictionMultiTradeBonus
			}
		}
	}

	confidenceBonus := t.ExtractionConfidence * convictionConfidenceWeight

	return clamp(amountBonus+ownerBonus+multiTradeBonus+confidenceBonus, 0, 100)
}

// informationEdgeScore implements spec.md §4.6's committee-oversight
// categorical rule via the curated oversight.Lookup fixture. With no
// fixture loaded, every trade falls to the "otherwise" band (20) rather
// than a fabricated neutral score, since no oversight data exists to
// claim edge from.
func (s *SQSScorer) informationEdgeScore(t domain.Trade) float64 {
	if s.committees == nil {
		return 20
	}
	return s.committees.Score(t.PoliticianName, t.Ticker)
}

// market-impact dimension: inverse-size bias per spec.md §4.6 — a large
// trade in a small company moves price more than the same trade size in
// a mega-cap, so the tier sets the baseline and trade size pushes the
// score further in the tier's favored direction.
var marketImpactTierBase = map[marketcap.Tier]float64{
	marketcap.TierMicro:   90,
	marketcap.TierSmall:   70,
	marketcap.TierMid:     50,
	marketcap.TierLarge:   30,
	marketcap.TierMega:    10,
	marketcap.TierUnknown: 50,
}

var marketImpactSizeDirection = map[marketcap.Tier]float64{
	marketcap.TierMicro:   1,
	marketcap.TierSmall:   1,
	marketcap.TierMid:     0,
	marketcap.TierLarge:   -1,
	marketcap.TierMega:    -1,
	marketcap.TierUnknown: 0,
}

func (s *SQSScorer) marketImpactScore(t domain.Trade) float64 {
	var tier marketcap.Tier = marketcap.TierUnknown
	if s.caps != nil {
		tier = s.caps.TierFor(t.Ticker)
	}

	midpoint, _ := domain.AmountBucketMidpoint(t.AmountBucket)
	sizeScore := amountToScore(midpoint)

	base := marketImpactTierBase[tier]
	direction := marketImpactSizeDirection[tier]
	adjusted := base + direction*(sizeScore-50)*0.4

	return clamp(adjusted, 0, 100)
}

// amountToScore log-scales a dollar amount onto [0,100] across the
// disclosed bucket range ($1,001 to $50,000,000+).
func amountToScore(amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	const minLog, maxLog = 3.0, 7.7 // log10(1001) .. log10(50,000,000)
	v := math.Log10(amount)
	score := 100 * (v - minLog) / (maxLog - minLog)
	return clamp(score, 0, 100)
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
