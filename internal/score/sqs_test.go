package score

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/sawpanic/capitolflow/internal/config"
	"github.com/sawpanic/capitolflow/internal/domain"
	"github.com/sawpanic/capitolflow/internal/score/marketcap"
	"github.com/sawpanic/capitolflow/internal/score/oversight"
)

func TestSQSScorer_Score_NoOptionalLookups(t *testing.T) {
	weights := config.DefaultSQSWeights()
	bands := config.DefaultGradeBands()
	scorer := NewSQSScorer(weights, bands, nil, nil, nil, nil)

	tx := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	trade := domain.Trade{
		DataHash:        "hash1",
		Ticker:          ticker("AAPL"),
		TransactionType: domain.TransactionBuy,
		TransactionDate: tx,
		FilingDate:      tx.AddDate(0, 0, 5),
		AmountBucket:    "$1,000,001 - $5,000,000",
		Owner:           domain.OwnerSelf,
	}

	rec := scorer.Score(context.Background(), trade)
	if rec.TradeHash != "hash1" {
		t.Fatalf("expected trade hash propagated, got %s", rec.TradeHash)
	}
	if rec.SQS <= 0 || rec.SQS > 100 {
		t.Fatalf("expected SQS in (0,100], got %v", rec.SQS)
	}
	if rec.Grade == "" {
		t.Fatal("expected a non-empty grade")
	}
}

func TestActionabilityScore_CategoricalBands(t *testing.T) {
	cases := []struct {
		name  string
		trade domain.Trade
		want  float64
	}{
		{"known ticker, buy", domain.Trade{Ticker: ticker("AAPL"), TransactionType: domain.TransactionBuy}, 100},
		{"known ticker, sale", domain.Trade{Ticker: ticker("AAPL"), TransactionType: domain.TransactionSale}, 100},
		{"known ticker, ambiguous exchange", domain.Trade{Ticker: ticker("AAPL"), TransactionType: domain.TransactionExchange}, 70},
		{"unresolved ticker, asset type known", domain.Trade{AssetType: "Stock Option", TransactionType: domain.TransactionBuy}, 30},
		{"nothing known", domain.Trade{TransactionType: domain.TransactionBuy}, 0},
	}
	for _, c := range cases {
		if got := actionabilityScore(c.trade); got != c.want {
			t.Errorf("%s: actionabilityScore = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestTimelinessScore_Bands(t *testing.T) {
	tx := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mk := func(lagDays int) domain.Trade {
		return domain.Trade{TransactionDate: tx, FilingDate: tx.AddDate(0, 0, lagDays)}
	}
	cases := []struct {
		lag  int
		want float64
	}{
		{0, 100}, {7, 100}, {8, 75}, {15, 75}, {16, 50}, {30, 50}, {31, 25}, {45, 25}, {46, 0}, {90, 0},
	}
	for _, c := range cases {
		if got := timelinessScore(mk(c.lag)); got != c.want {
			t.Errorf("lag=%d: timelinessScore = %v, want %v", c.lag, got, c.want)
		}
	}
}

func TestConvictionScore_AdditiveBonusesCapped(t *testing.T) {
	scorer := NewSQSScorer(config.DefaultSQSWeights(), config.DefaultGradeBands(), nil, nil, nil, nil)

	big := domain.Trade{
		DataHash:             "big",
		AmountBucket:         "Over $50,000,000",
		Owner:                domain.OwnerSelf,
		ExtractionConfidence: 1.0,
	}
	small := domain.Trade{
		DataHash:             "small",
		AmountBucket:         "$1,001 - $15,000",
		Owner:                domain.OwnerDependentChild,
		ExtractionConfidence: 0.5,
	}

	gotBig := scorer.convictionScore(context.Background(), big)
	gotSmall := scorer.convictionScore(context.Background(), small)

	if gotBig <= gotSmall {
		t.Fatalf("expected a large, self-owned, high-confidence trade to score above a small dependent-child one: big=%v small=%v", gotBig, gotSmall)
	}
	if gotBig > 100 {
		t.Fatalf("conviction score must be capped at 100, got %v", gotBig)
	}
}

func TestConvictionScore_MultiTradeSameDirectionBonus(t *testing.T) {
	trades := &fakeTradeReader{
		trades: []domain.Trade{
			{DataHash: "other", PoliticianName: "Jane Doe", TransactionType: domain.TransactionBuy},
		},
	}
	scorer := NewSQSScorer(config.DefaultSQSWeights(), config.DefaultGradeBands(), nil, trades, nil, nil)

	trade := domain.Trade{
		DataHash:        "this",
		PoliticianName:  "Jane Doe",
		Ticker:          ticker("AAPL"),
		TransactionType: domain.TransactionBuy,
		AmountBucket:    "$1,001 - $15,000",
		Owner:           domain.OwnerUnknown,
	}

	withHistory := scorer.convictionScore(context.Background(), trade)

	barren := NewSQSScorer(config.DefaultSQSWeights(), config.DefaultGradeBands(), nil, &fakeTradeReader{}, nil, nil)
	without := barren.convictionScore(context.Background(), trade)

	if withHistory <= without {
		t.Fatalf("expected the multi-trade-same-direction bonus to raise the score: with=%v without=%v", withHistory, without)
	}
	if math.Abs((withHistory-without)-convictionMultiTradeBonus) > 1e-9 {
		t.Fatalf("expected the bonus delta to equal convictionMultiTradeBonus (%v), got %v", convictionMultiTradeBonus, withHistory-without)
	}
}

func TestInformationEdgeScore_CommitteeRule(t *testing.T) {
	lookup := oversight.NewLookup(
		[]oversight.Assignment{
			{PoliticianName: "Jane Doe", Sector: "technology", Role: oversight.RoleChair},
			{PoliticianName: "John Roe", Sector: "technology", Role: oversight.RoleMember},
			{PoliticianName: "No Match", Sector: "energy", Role: oversight.RoleChair},
		},
		map[string]string{"AAPL": "technology"},
	)
	scorer := NewSQSScorer(config.DefaultSQSWeights(), config.DefaultGradeBands(), nil, nil, lookup, nil)

	chair := domain.Trade{PoliticianName: "Jane Doe", Ticker: ticker("AAPL")}
	if got := scorer.informationEdgeScore(chair); got != 100 {
		t.Errorf("chair on overseeing committee: got %v, want 100", got)
	}

	member := domain.Trade{PoliticianName: "John Roe", Ticker: ticker("AAPL")}
	if got := scorer.informationEdgeScore(member); got != 70 {
		t.Errorf("plain member: got %v, want 70", got)
	}

	offSector := domain.Trade{PoliticianName: "No Match", Ticker: ticker("AAPL")}
	if got := scorer.informationEdgeScore(offSector); got != 50 {
		t.Errorf("committee assignment but wrong sector: got %v, want 50", got)
	}

	unknown := domain.Trade{PoliticianName: "Nobody", Ticker: ticker("AAPL")}
	if got := scorer.informationEdgeScore(unknown); got != 20 {
		t.Errorf("no assignment at all: got %v, want 20", got)
	}

	noLookup := NewSQSScorer(config.DefaultSQSWeights(), config.DefaultGradeBands(), nil, nil, nil, nil)
	if got := noLookup.informationEdgeScore(chair); got != 20 {
		t.Errorf("no fixture loaded: got %v, want 20", got)
	}
}

func TestMarketImpactScore_InverseSizeBias(t *testing.T) {
	caps := marketcap.NewLookup(map[string]marketcap.Tier{
		"SMOL": marketcap.TierMicro,
		"BIGC": marketcap.TierMega,
	})
	scorer := NewSQSScorer(config.DefaultSQSWeights(), config.DefaultGradeBands(), nil, nil, nil, caps)

	bigTrade := domain.Trade{AmountBucket: "Over $50,000,000"}

	smallCapTrade := bigTrade
	smallCapTrade.Ticker = ticker("SMOL")
	megaCapTrade := bigTrade
	megaCapTrade.Ticker = ticker("BIGC")

	smallScore := scorer.marketImpactScore(smallCapTrade)
	megaScore := scorer.marketImpactScore(megaCapTrade)

	if smallScore <= megaScore {
		t.Fatalf("expected a small-cap trade to score above a mega-cap trade of the same size: small=%v mega=%v", smallScore, megaScore)
	}

	unknownTrade := bigTrade
	unknownTrade.Ticker = ticker("ZZZZ")
	if got := scorer.marketImpactScore(unknownTrade); got != 50 {
		t.Errorf("unmapped ticker should fall to the neutral unknown tier, got %v", got)
	}
}

func TestAmountToScore_Bounds(t *testing.T) {
	if got := amountToScore(0); got != 0 {
		t.Fatalf("expected 0 for non-positive amount, got %v", got)
	}
	if got := amountToScore(60_000_000); got > 100 {
		t.Fatalf("expected score clamped to 100, got %v", got)
	}
}
