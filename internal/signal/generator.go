// Package signal turns a canonical Trade plus its SQS/convergence context
// into a directional AlphaSignal (spec.md §4.7), then the Enhancer derives
// an EnhancedSignal by layering the PACS composite, VIX regime adjustment,
// and the optional bonuses.
package signal

import (
	"context"
	"time"

	"github.com/sawpanic/capitolflow/internal/config"
	"github.com/sawpanic/capitolflow/internal/domain"
	"github.com/sawpanic/capitolflow/internal/politician"
	"github.com/sawpanic/capitolflow/internal/store"
)

// Generator computes AlphaSignal for canonical, SQS-scored trades.
type Generator struct {
	trades  store.TradeReader
	sqs     store.SQSReader
	conv    store.ConvergenceReader
	pis     store.PISReader
	writer  store.SignalWriter
	ladder  config.MultiplierLadder
	alpha   config.ExpectedAlphaBaseline
	pipeCfg config.PipelineConfig
}

// NewGenerator constructs a Generator.
func NewGenerator(trades store.TradeReader, sqs store.SQSReader, conv store.ConvergenceReader, pis store.PISReader,
	writer store.SignalWriter, ladder config.MultiplierLadder, alpha config.ExpectedAlphaBaseline, pipeCfg config.PipelineConfig) *Generator {
	return &Generator{trades: trades, sqs: sqs, conv: conv, pis: pis, writer: writer, ladder: ladder, alpha: alpha, pipeCfg: pipeCfg}
}

// Run generates and persists one AlphaSignal per canonical trade whose
// extraction confidence clears the signal visibility floor (§3).
func (g *Generator) Run(ctx context.Context) ([]domain.AlphaSignal, error) {
	trades, err := g.trades.AllCanonical(ctx)
	if err != nil {
		return nil, err
	}

	var out []domain.AlphaSignal
	for _, t := range trades {
		if t.ExtractionConfidence < g.pipeCfg.SignalVisibilityFloor {
			continue
		}
		sig, ok, err := g.generateOne(ctx, t)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if err := g.writer.Upsert(ctx, sig); err != nil {
			return nil, err
		}
		out = append(out, sig)
	}
	return out, nil
}

func (g *Generator) generateOne(ctx context.Context, t domain.Trade) (domain.AlphaSignal, bool, error) {
	direction, ok := directionFor(t.TransactionType, g.pipeCfg.SaleIsContrarian)
	if !ok {
		return domain.AlphaSignal{}, false, nil // Exchange carries no directional call (§4.7)
	}

	var reasoning []string

	base5D, base20D := g.baseline(t.TransactionType)
	reasoning = append(reasoning, baselineReason(t.TransactionType, base5D, base20D))

	mult := 1.0

	chamberMult := g.ladder.ChamberMultiplier[string(t.Chamber)]
	if chamberMult == 0 {
		chamberMult = 1.0
	}
	mult *= chamberMult
	reasoning = append(reasoning, ratioReason("chamber", string(t.Chamber), chamberMult))

	amountMult := amountMultiplierFor(t.AmountBucket, g.ladder.AmountBucketMultiplier)
	mult *= amountMult
	reasoning = append(reasoning, ratioReason("amount_bucket", t.AmountBucket, amountMult))

	lagDays := t.FilingLagDays()
	lagMult := g.ladder.FilingLagSlowMultiplier
	if lagDays < g.pipeCfg.FilingLagFastBandDays {
		lagMult = g.ladder.FilingLagFastMultiplier
	}
	mult *= lagMult
	reasoning = append(reasoning, ratioReason("filing_lag_days", lagDays, lagMult))

	grade := "C"
	if g.pis != nil {
		if p, ok, err := g.pis.ByName(ctx, t.PoliticianName); err == nil && ok {
			grade = politician.Grade(p.Composite)
		}
	}
	gradeMult := g.ladder.PoliticianGradeMultiplier[grade]
	if gradeMult == 0 {
		gradeMult = 1.0
	}
	mult *= gradeMult
	reasoning = append(reasoning, ratioReason("politician_grade", grade, gradeMult))

	convergenceBonus := 0.0
	if g.conv != nil && t.Ticker != nil {
		if dir, ok := convergenceDirection(t.TransactionType); ok {
			events, err := g.conv.ForTicker(ctx, *t.Ticker, dir)
			if err == nil {
				for _, ev := range events {
					if withinEvent(ev, t) {
						convergenceBonus = ev.Score
						break
					}
				}
			}
		}
	}

	sqsSnapshot := 0.0
	sqsGrade := domain.GradeDiscard
	if rec, ok, err := g.sqs.ByTradeHash(ctx, t.DataHash); err == nil && ok {
		sqsSnapshot = rec.SQS
		sqsGrade = rec.Grade
	}

	strength := clampStrength((mult - 1) / 4) // normalize the ladder's product onto a [0,1]-ish strength scale

	sig := domain.AlphaSignal{
		TradeHash:          t.DataHash,
		Direction:          direction,
		ExpectedAlpha5D:    base5D * mult,
		ExpectedAlpha20D:   base20D * mult,
		Confidence:         t.ExtractionConfidence,
		SignalStrength:     strength,
		CombinedMultiplier: mult,
		ConvergenceBonus:   convergenceBonus,
		PoliticianGrade:    grade,
		FilingLagDays:      lagDays,
		SQSSnapshot:        sqsSnapshot,
		SQSGrade:           sqsGrade,
		Reasoning:          reasoning,
		CreatedAt:          time.Now(),
	}
	return sig, true, nil
}

// directionFor maps Buy->LONG and, when the contrarian flag is enabled
// (§9 open question, exposed as config.PipelineConfig.SaleIsContrarian),
// Sale->LONG as a contrarian follow signal; Exchange never maps.
func directionFor(tx domain.TransactionType, saleIsContrarian bool) (domain.SignalDirection, bool) {
	switch tx {
	case domain.TransactionBuy:
		return domain.SignalLong, true
	case domain.TransactionSale:
		if saleIsContrarian {
			return domain.SignalLong, true
		}
		return domain.SignalShort, true
	default:
		return "", false
	}
}

func convergenceDirection(tx domain.TransactionType) (domain.Direction, bool) {
	switch tx {
	case domain.TransactionBuy:
		return domain.DirectionBuy, true
	case domain.TransactionSale:
		return domain.DirectionSale, true
	default:
		return "", false
	}
}

func withinEvent(ev domain.ConvergenceEvent, t domain.Trade) bool {
	for _, p := range ev.Participants {
		if p.TradeHash == t.DataHash {
			return true
		}
	}
	return false
}

func (g *Generator) baseline(tx domain.TransactionType) (float64, float64) {
	switch tx {
	case domain.TransactionSale:
		return g.alpha.SaleContrarian5D, g.alpha.SaleContrarian20D
	default:
		return g.alpha.Buy5D, g.alpha.Buy20D
	}
}

func amountMultiplierFor(bucket string, table []config.AmountBucketMult) float64 {
	for _, m := range table {
		if m.Bucket == bucket {
			return m.Multiplier
		}
	}
	return 1.0
}

func clampStrength(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
