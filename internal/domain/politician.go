package domain

// Politician is derived from trades: canonical identity, chamber, and
// aggregate behavior metrics feeding the PIS ranking (spec.md §3, glossary).
type Politician struct {
	CanonicalName string
	Chamber       Chamber
	TotalTrades   int
	Notable       bool // curated-list flag used by the convergence detector (§4.6)
}

// PISScore is the politician-level ranking composed of four sub-dimensions
// (spec.md glossary: activity, conviction, diversification, timing).
type PISScore struct {
	PoliticianName  string
	Activity        float64
	Conviction      float64
	Diversification float64
	Timing          float64
	Composite       float64
	Rank            int
}
