package domain

import "time"

// Direction is the trade direction used to partition convergence windows
// (spec.md §4.6: partition by (ticker, direction)).
type Direction string

const (
	DirectionBuy  Direction = "Buy"
	DirectionSale Direction = "Sale"
)

// ConvergenceParticipant is one politician's contribution to a
// ConvergenceEvent.
type ConvergenceParticipant struct {
	PoliticianName string
	Chamber        Chamber
	TradeHash      string
	TransactionDate time.Time
}

// ConvergenceScoreBreakdown itemizes the §4.6 step-3 score components so the
// final score is auditable.
type ConvergenceScoreBreakdown struct {
	Base                 float64
	TimeDensityBonus     float64
	CrossChamberBonus    float64
	AmountWeightBonus    float64
	HighFrequencyDiscount float64
	NotableParticipantBonus float64
}

// Total sums the breakdown into the final convergence score.
func (b ConvergenceScoreBreakdown) Total() float64 {
	return b.Base + b.TimeDensityBonus + b.CrossChamberBonus + b.AmountWeightBonus +
		b.HighFrequencyDiscount + b.NotableParticipantBonus
}

// ConvergenceEvent is a set of trades on one (ticker, direction) falling
// inside one 30-day window and involving >=2 distinct politicians
// (spec.md §3, §4.6). Keyed on (ticker, direction, window_start).
type ConvergenceEvent struct {
	Ticker       string
	Direction    Direction
	WindowStart  time.Time
	WindowEnd    time.Time
	SpanDays     int
	Participants []ConvergenceParticipant
	Score        float64
	ScoreBreakdown ConvergenceScoreBreakdown
}

// DistinctPoliticianCount returns the number of unique politicians among
// the event's participants.
func (e *ConvergenceEvent) DistinctPoliticianCount() int {
	seen := make(map[string]struct{}, len(e.Participants))
	for _, p := range e.Participants {
		seen[p.PoliticianName] = struct{}{}
	}
	return len(seen)
}

// SpansBothChambers reports whether the event's participants include both
// a Senate and a House member.
func (e *ConvergenceEvent) SpansBothChambers() bool {
	var hasSenate, hasHouse bool
	for _, p := range e.Participants {
		switch p.Chamber {
		case ChamberSenate:
			hasSenate = true
		case ChamberHouse:
			hasHouse = true
		}
	}
	return hasSenate && hasHouse
}
