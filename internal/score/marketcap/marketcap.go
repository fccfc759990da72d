// Package marketcap provides the company-size tier lookup behind the SQS
// market-impact dimension (spec.md §4.6): a static, operator-curated
// fixture mapping a ticker to a market-capitalization tier, following the
// same fixture-at-startup pattern as internal/signal/contracts and
// internal/score/oversight. No price/factor provider this module talks to
// exposes market cap, so the tier comes from a curated fixture rather than
// a live feed.
package marketcap

import (
	"encoding/json"
	"os"
	"strings"
)

// Tier buckets a company's market capitalization.
type Tier string

const (
	TierMega    Tier = "mega"    // >$200B
	TierLarge   Tier = "large"   // $10B-$200B
	TierMid     Tier = "mid"     // $2B-$10B
	TierSmall   Tier = "small"   // $300M-$2B
	TierMicro   Tier = "micro"   // <$300M
	TierUnknown Tier = "unknown"
)

// Lookup answers "what size is this company?" against a fixture loaded
// once at startup.
type Lookup struct {
	byTicker map[string]Tier
}

// NewLookup builds a Lookup from a pre-parsed ticker-to-tier map.
func NewLookup(tiers map[string]Tier) *Lookup {
	byTicker := make(map[string]Tier, len(tiers))
	for ticker, tier := range tiers {
		byTicker[strings.ToUpper(ticker)] = tier
	}
	return &Lookup{byTicker: byTicker}
}

// LoadFixture reads a JSON object of ticker -> tier string from path and
// builds a Lookup.
func LoadFixture(path string) (*Lookup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	tiers := make(map[string]Tier, len(raw))
	for ticker, tier := range raw {
		tiers[ticker] = Tier(tier)
	}
	return NewLookup(tiers), nil
}

// TierFor returns the cap tier for ticker, or TierUnknown for a nil
// ticker or one absent from the fixture.
func (l *Lookup) TierFor(ticker *string) Tier {
	if ticker == nil {
		return TierUnknown
	}
	if tier, ok := l.byTicker[strings.ToUpper(*ticker)]; ok {
		return tier
	}
	return TierUnknown
}
