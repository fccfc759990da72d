// Package pipeline drives the per-chamber fetch -> transform -> load chain
// with the fallback discipline from spec.md §4.2/§4.5: Senate falls back
// to Capitol Trades when the headful session fails or returns nothing
// within the lookback window; House has no fallback (the clerk site is
// the only source). An empty result set within the lookback window counts
// as a failed fetch for fallback purposes, not a vacuous success.
package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/sawpanic/capitolflow/internal/domain"
	"github.com/sawpanic/capitolflow/internal/fetch"
	"github.com/sawpanic/capitolflow/internal/load"
	"github.com/sawpanic/capitolflow/internal/transform"
)

// ChamberSource pairs a fetcher with its ordered fallback chain. Senate's
// chain is [senateFetcher, capitolTradesFetcher]; House's is [houseFetcher].
type ChamberSource struct {
	Chamber  domain.Chamber
	Fetchers []fetch.Fetcher // tried in order; first non-empty success wins
}

// RunSummary reports one source's outcome for the run-level report (§6).
type RunSummary struct {
	Chamber        domain.Chamber
	FetcherUsed    string
	FetchAttempts  []string // every fetcher name tried, in order
	CandidateCount int
	LoadResult     load.Result
	Failed         bool
	Err            error
}

// Orchestrator wires one Transformer and Loader across every chamber source.
type Orchestrator struct {
	transformer *transform.Transformer
	loader      *load.Loader
	log         zerolog.Logger
}

// New constructs the Orchestrator.
func New(transformer *transform.Transformer, loader *load.Loader, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{transformer: transformer, loader: loader, log: log}
}

// Run executes every chamber source's fallback chain for the given
// lookback window and returns one RunSummary per source.
func (o *Orchestrator) Run(ctx context.Context, sources []ChamberSource, lookbackDays int) []RunSummary {
	until := time.Now()
	since := until.AddDate(0, 0, -lookbackDays)
	params := fetch.Params{LookbackDays: lookbackDays, Since: since, Until: until}

	summaries := make([]RunSummary, 0, len(sources))
	for _, src := range sources {
		summaries = append(summaries, o.runSource(ctx, src, params))
	}
	return summaries
}

func (o *Orchestrator) runSource(ctx context.Context, src ChamberSource, params fetch.Params) RunSummary {
	summary := RunSummary{Chamber: src.Chamber}

	for _, f := range src.Fetchers {
		summary.FetchAttempts = append(summary.FetchAttempts, f.Name())

		results, err := f.Fetch(ctx, params)
		if err != nil {
			o.log.Warn().Err(err).Str("fetcher", f.Name()).Str("chamber", string(src.Chamber)).
				Msg("pipeline: fetcher failed, trying next in fallback chain")
			summary.Err = err
			continue
		}
		if len(results) == 0 {
			// Empty result within the lookback window is a fallback trigger,
			// not a vacuous success (§4.5).
			o.log.Warn().Str("fetcher", f.Name()).Str("chamber", string(src.Chamber)).
				Msg("pipeline: fetcher returned no results within lookback window, trying next")
			continue
		}

		summary.FetcherUsed = f.Name()
		summary.Err = nil
		o.processResults(ctx, results, &summary)
		return summary
	}

	summary.Failed = true
	return summary
}

func (o *Orchestrator) processResults(ctx context.Context, results []fetch.FetchResult, summary *RunSummary) {
	for _, result := range results {
		extraction, err := o.transformer.Run(ctx, result)
		if err != nil {
			o.log.Error().Err(err).Str("source_url", result.SourceURL).Msg("pipeline: transform failed")
			summary.Err = err
			continue
		}
		summary.CandidateCount += len(extraction.Candidates)

		loadResult, err := o.loader.Load(ctx, extraction)
		if err != nil {
			o.log.Error().Err(err).Str("source_url", result.SourceURL).Msg("pipeline: load failed")
			summary.Err = err
			summary.Failed = true
			return
		}
		summary.LoadResult.Inserted += loadResult.Inserted
		summary.LoadResult.Duplicates += loadResult.Duplicates
		summary.LoadResult.Rejected += loadResult.Rejected
		summary.LoadResult.ManualReview += loadResult.ManualReview
		summary.LoadResult.NameUnresolved += loadResult.NameUnresolved
	}
}
