package config

// SQSWeights are the five-dimension Signal Quality Score weights from
// spec.md §3/§4.6. They sum to 1.0 and are reviewed together because they
// are jointly calibrated (§9 design notes).
type SQSWeights struct {
	Actionability    float64
	Timeliness       float64
	Conviction       float64
	InformationEdge  float64
	MarketImpact     float64
}

// DefaultSQSWeights returns the spec-mandated weights (0.30/0.20/0.25/0.15/0.10).
func DefaultSQSWeights() SQSWeights {
	return SQSWeights{
		Actionability:   0.30,
		Timeliness:      0.20,
		Conviction:      0.25,
		InformationEdge: 0.15,
		MarketImpact:    0.10,
	}
}

// GradeBands maps the SQS band cutoffs from spec.md §3 (lower bound inclusive).
type GradeBands struct {
	Platinum float64
	Gold     float64
	Silver   float64
	Bronze   float64
}

// DefaultGradeBands returns the spec-mandated bands (80/60/40/20).
func DefaultGradeBands() GradeBands {
	return GradeBands{Platinum: 80, Gold: 60, Silver: 40, Bronze: 20}
}

// PACSWeights are the §4.7 composite weights: 0.50/0.25/0.15/0.10.
type PACSWeights struct {
	SignalStrength   float64
	InverseFilingLag float64
	OptionsSentiment float64
	Convergence      float64
}

// DefaultPACSWeights returns the spec-mandated PACS weights.
func DefaultPACSWeights() PACSWeights {
	return PACSWeights{
		SignalStrength:   0.50,
		InverseFilingLag: 0.25,
		OptionsSentiment: 0.15,
		Convergence:      0.10,
	}
}

// VIXRegimeBands are the §4.7 regime multiplier bands. Per §9 design notes
// these are tuning constants, not business rules, and are grouped in one
// table so recalibration is reviewed as a unit.
type VIXRegimeBands struct {
	GoldilocksLow   float64 // VIX >= this
	GoldilocksHigh  float64 // VIX <= this -> Goldilocks multiplier
	GoldilocksMult  float64
	LowVIXMult      float64 // VIX < GoldilocksLow
	HighVIXMult     float64 // VIX > GoldilocksHigh
}

// DefaultVIXRegimeBands returns the spec-mandated bands: 1.3x in [14,16],
// 0.7x below 14, 0.8x above 16.
func DefaultVIXRegimeBands() VIXRegimeBands {
	return VIXRegimeBands{
		GoldilocksLow:  14,
		GoldilocksHigh: 16,
		GoldilocksMult: 1.3,
		LowVIXMult:     0.7,
		HighVIXMult:    0.8,
	}
}

// MultiplierLadder is the single co-located table of (factor, bucket,
// multiplier) tuples backing the AlphaSignal combined_multiplier (§4.7,
// §9 "The PACS multiplier ladder is a single table"). Values are derived
// from the backtest literature referenced in the spec and must change
// together.
type MultiplierLadder struct {
	ChamberMultiplier       map[string]float64 // "Senate" / "House"
	AmountBucketMultiplier  []AmountBucketMult
	FilingLagFastMultiplier float64 // strict lag < FilingLagFastBandDays
	FilingLagSlowMultiplier float64 // lag >= FilingLagFastBandDays
	PoliticianGradeMultiplier map[string]float64 // "A".."D" PIS-derived grade
}

// AmountBucketMult pairs an amount-bucket label with its multiplier.
type AmountBucketMult struct {
	Bucket     string
	Multiplier float64
}

// DefaultMultiplierLadder returns the spec-referenced calibration constants,
// e.g. $15K-$50K -> 1.93x relative to $1K-$15K, filing_lag<15d -> 4.6x.
func DefaultMultiplierLadder() MultiplierLadder {
	return MultiplierLadder{
		ChamberMultiplier: map[string]float64{
			"Senate": 1.15,
			"House":  1.00,
		},
		AmountBucketMultiplier: []AmountBucketMult{
			{Bucket: "$1,001 - $15,000", Multiplier: 1.00},
			{Bucket: "$15,001 - $50,000", Multiplier: 1.93},
			{Bucket: "$50,001 - $100,000", Multiplier: 2.40},
			{Bucket: "$100,001 - $250,000", Multiplier: 2.95},
			{Bucket: "$250,001 - $500,000", Multiplier: 3.35},
			{Bucket: "$500,001 - $1,000,000", Multiplier: 3.80},
			{Bucket: "$1,000,001 - $5,000,000", Multiplier: 4.10},
			{Bucket: "$5,000,001 - $25,000,000", Multiplier: 4.25},
			{Bucket: "$25,000,001 - $50,000,000", Multiplier: 4.30},
			{Bucket: "Over $50,000,000", Multiplier: 4.35},
		},
		FilingLagFastMultiplier:   4.6,
		FilingLagSlowMultiplier:   1.0,
		PoliticianGradeMultiplier: map[string]float64{"A": 1.50, "B": 1.20, "C": 1.00, "D": 0.80},
	}
}

// ExpectedAlphaBaseline is the §4.7 calibrated baseline for Buy->LONG: 0.77%
// over 5d, 0.79% over 20d. Sale->LONG contrarian values are held separately
// because they are calibrated from a different, smaller empirical sample
// (§9 open question) and are toggled off via PipelineConfig.SaleIsContrarian.
type ExpectedAlphaBaseline struct {
	Buy5D, Buy20D         float64
	SaleContrarian5D      float64
	SaleContrarian20D     float64
}

// DefaultExpectedAlphaBaseline returns the spec-mandated constants.
func DefaultExpectedAlphaBaseline() ExpectedAlphaBaseline {
	return ExpectedAlphaBaseline{
		Buy5D:             0.0077,
		Buy20D:            0.0079,
		SaleContrarian5D:  0.0041,
		SaleContrarian20D: 0.0063,
	}
}

// AmountSweetSpotBonus is the §4.7 enhancer bonus for trades in [$15K,$50K].
const AmountSweetSpotBonus = 5.0

// BurstConvergenceBonus is the §4.7 bonus when a 7-day subset exists inside
// the 30-day convergence window.
const BurstConvergenceBonus = 0.5

// ContractAwardBonus and ContractAwardMegaBonus are the §4.7 optional
// contract-award bonuses.
const (
	ContractAwardBonus     = 0.1
	ContractAwardMegaBonus = 0.2
	ContractAwardMegaFloor = 100_000_000.0
)
