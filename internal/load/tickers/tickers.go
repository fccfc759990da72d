// Package tickers resolves a disclosed raw asset description to a market
// ticker symbol, per spec.md §4.4 step 3's four-layer resolution: a static
// dictionary of known issuer-name-to-ticker mappings, pattern recognition
// against the raw ticker field (e.g. "AAPL (put)" style qualifiers), an
// external lookup provider for names the static dictionary misses, and a
// null result (non-equity or unresolvable) when all three fail.
package tickers

import (
	"context"
	"regexp"
	"strings"
)

// ExternalLookup is the third resolution layer: a symbol-lookup provider
// (e.g. the price provider's search endpoint). Implementations wrap the
// netkit-mediated HTTP client; tests supply a stub.
type ExternalLookup interface {
	LookupByName(ctx context.Context, assetName string) (symbol string, ok bool)
}

// Resolver runs the four-layer resolution chain.
type Resolver struct {
	staticDict map[string]string // lowercased issuer name -> ticker
	external   ExternalLookup
}

var qualifiedTickerRe = regexp.MustCompile(`^([A-Z]{1,6})(?:\s*\((?:put|call|option)\))?$`)

// NewResolver builds a Resolver. external may be nil, in which case layer
// three is skipped and unresolved raw/name pairs fall straight to null.
func NewResolver(staticDict map[string]string, external ExternalLookup) *Resolver {
	normalized := make(map[string]string, len(staticDict))
	for k, v := range staticDict {
		normalized[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return &Resolver{staticDict: normalized, external: external}
}

// Resolve returns the resolved ticker, or nil when no layer produces one —
// callers store a nil Trade.Ticker for non-equity or unresolvable assets.
func (r *Resolver) Resolve(ctx context.Context, tickerRaw, assetNameRaw string) *string {
	if sym, ok := r.staticDict[strings.ToLower(strings.TrimSpace(assetNameRaw))]; ok {
		return &sym
	}

	if m := qualifiedTickerRe.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(tickerRaw))); m != nil {
		sym := m[1]
		return &sym
	}

	if r.external != nil {
		if sym, ok := r.external.LookupByName(ctx, assetNameRaw); ok {
			return &sym
		}
	}

	return nil
}
