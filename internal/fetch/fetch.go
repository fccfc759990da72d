// Package fetch defines the L1 fetcher contract from spec.md §4.2: a sum
// type of concrete fetchers sharing one `Fetch(params) -> []FetchResult`
// operation, dispatched by variant tag rather than an inheritance tree
// (§9 design notes).
package fetch

import (
	"context"
	"time"
)

// FetchResult carries opaque payload bytes plus routing metadata. The
// Transformer routes on (ContentType, Metadata["source_site"]) without any
// of the fetchers knowing about extraction.
type FetchResult struct {
	Payload     []byte
	ContentType string // "text/html", "application/pdf", ...
	SourceURL   string
	Metadata    map[string]string // must include "source_site"
}

// Params bounds a single fetch invocation by lookback window and chamber.
type Params struct {
	LookbackDays int
	Since        time.Time
	Until        time.Time
}

// Fetcher is implemented by each concrete source (Senate, House,
// Capitol-Trades). Dispatch on which Fetcher to call is the orchestrator's
// job (internal/pipeline); shared plumbing (rate limiting, circuit
// breaking, retry) lives in internal/netkit, not in per-fetcher code.
type Fetcher interface {
	// Name identifies the fetcher for logging, metrics, and ExtractionLog
	// attribution.
	Name() string
	// SourceSite is the Transformer routing key this fetcher's results carry.
	SourceSite() string
	Fetch(ctx context.Context, params Params) ([]FetchResult, error)
}
