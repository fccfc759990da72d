// Package contracts provides the optional contract-award bonus lookup
// from spec.md §4.7: a static, operator-curated fixture of known
// government contract awards keyed by ticker, consulted to bump
// EnhancedSignal.ContractBonus when a disclosed trade's ticker received
// an award near the transaction date. This is explicitly a fixture, not a
// live feed — the live contract-award data source is out of scope.
package contracts

import (
	"encoding/json"
	"os"
	"sort"
	"time"
)

// Award is one curated contract-award fact.
type Award struct {
	Ticker string    `json:"ticker"`
	Date   time.Time `json:"date"`
	Value  float64   `json:"value"`
	Agency string    `json:"agency"`
}

// Lookup answers "was ticker awarded a contract near date?" against a
// fixture loaded once at startup.
type Lookup struct {
	byTicker map[string][]Award
	window   time.Duration
}

// NewLookup builds a Lookup from a pre-parsed award list. window bounds how
// close a transaction date must be to an award date to count as related,
// defaulting to +/-30 days when zero.
func NewLookup(awards []Award, window time.Duration) *Lookup {
	if window <= 0 {
		window = 30 * 24 * time.Hour
	}
	byTicker := make(map[string][]Award)
	for _, a := range awards {
		byTicker[a.Ticker] = append(byTicker[a.Ticker], a)
	}
	for _, list := range byTicker {
		sort.Slice(list, func(i, j int) bool { return list[i].Date.Before(list[j].Date) })
	}
	return &Lookup{byTicker: byTicker, window: window}
}

// LoadFixture reads a JSON array of Award from path and builds a Lookup.
func LoadFixture(path string, window time.Duration) (*Lookup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var awards []Award
	if err := json.Unmarshal(data, &awards); err != nil {
		return nil, err
	}
	return NewLookup(awards, window), nil
}

// Lookup returns the nearest award for ticker within the configured
// window of date, if any.
func (l *Lookup) Lookup(ticker string, date time.Time) (Award, bool) {
	candidates, ok := l.byTicker[ticker]
	if !ok {
		return Award{}, false
	}
	var best Award
	found := false
	bestDelta := l.window + 1
	for _, a := range candidates {
		delta := date.Sub(a.Date)
		if delta < 0 {
			delta = -delta
		}
		if delta <= l.window && delta < bestDelta {
			best = a
			bestDelta = delta
			found = true
		}
	}
	return best, found
}
