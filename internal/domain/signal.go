package domain

import "time"

// SignalDirection is the directional call of an AlphaSignal (spec.md §3).
type SignalDirection string

const (
	SignalLong  SignalDirection = "LONG"
	SignalShort SignalDirection = "SHORT"
)

// AlphaSignal is the per-trade directional signal (spec.md §3, §4.7).
type AlphaSignal struct {
	TradeHash          string // foreign key to Trade.DataHash
	Direction          SignalDirection
	ExpectedAlpha5D    float64
	ExpectedAlpha20D   float64
	Confidence         float64
	SignalStrength     float64
	CombinedMultiplier float64
	ConvergenceBonus   float64
	PoliticianGrade    string
	FilingLagDays      int
	SQSSnapshot        float64
	SQSGrade           Grade
	Reasoning          []string // textual trace, one entry per ladder factor applied
	CreatedAt          time.Time
}

// EnhancedSignal is derived from AlphaSignal by applying the PACS
// composite, the VIX regime multiplier, and optional contract-award /
// social-alignment bonuses (spec.md §3, §4.7).
type EnhancedSignal struct {
	TradeHash        string // foreign key to Trade.DataHash
	PACS             float64
	VIXAtFiling      float64
	VIXMultiplier    float64
	EnhancedStrength float64
	AmountSweetSpot  bool
	BurstConvergence bool
	ContractBonus    float64
	DecayedAlpha20D  float64 // expected_alpha after linear decay to event-age
	HardFiltered     bool
	HardFilterReason string
	ReviewRequired   bool // set when a guardrail suppressed the backing backtest result
	CreatedAt        time.Time
}
