package domain

// Grade is the quality band assigned to an SQS score (spec.md §3).
type Grade string

const (
	GradePlatinum Grade = "Platinum"
	GradeGold     Grade = "Gold"
	GradeSilver   Grade = "Silver"
	GradeBronze   Grade = "Bronze"
	GradeDiscard  Grade = "Discard"
)

// SQSRecord is the per-trade quality score, one-to-one with Trade
// (spec.md §3, §4.6).
type SQSRecord struct {
	TradeHash       string // foreign key to Trade.DataHash
	Actionability   float64
	Timeliness      float64
	Conviction      float64
	InformationEdge float64
	MarketImpact    float64
	SQS             float64
	Grade           Grade
}

// BandGrade assigns a quality grade to a raw SQS value using the bands from
// spec.md §3: Platinum >=80, Gold 60-79, Silver 40-59, Bronze 20-39,
// Discard <20. The bands are exhaustive and disjoint (§8 SQS bounds).
func BandGrade(sqs float64, platinum, gold, silver, bronze float64) Grade {
	switch {
	case sqs >= platinum:
		return GradePlatinum
	case sqs >= gold:
		return GradeGold
	case sqs >= silver:
		return GradeSilver
	case sqs >= bronze:
		return GradeBronze
	default:
		return GradeDiscard
	}
}
