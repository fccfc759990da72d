// Package senate implements the Senate eFD fetcher (spec.md §4.2, §6). The
// Senate disclosure site gates its search form behind a bot-detection
// check; headless Chrome is detected and blocked, so this fetcher drives a
// real, visible Chrome instance via chromedp (grounded on the headful
// automation pattern in the dbn-go-slurp-docs teacher tool) and clicks
// through the gatekeeper checkbox before issuing the search.
package senate

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"

	"github.com/sawpanic/capitolflow/internal/config"
	"github.com/sawpanic/capitolflow/internal/errs"
	"github.com/sawpanic/capitolflow/internal/fetch"
	"github.com/sawpanic/capitolflow/internal/netkit/circuit"
	"github.com/sawpanic/capitolflow/internal/netkit/ratelimit"
)

const (
	sourceSite  = "senate.gov"
	searchPath  = "/search/report/data/"
	gateCheckbox = `input[type="checkbox"][name="agree_statement"]`
	searchButton = `button[type="submit"]`
	resultsTable = `#filedReports`
)

// Fetcher drives a headful Chrome session against the Senate eFD search.
type Fetcher struct {
	cfg     config.ProviderConfig
	limiter *ratelimit.Limiter
	breaker *circuit.Breaker
	log     zerolog.Logger
	// chromePath, when set, pins the Chrome/Chromium binary chromedp drives.
	// Left empty, chromedp locates a system browser.
	chromePath string
	minInterval time.Duration
	lastFetch   time.Time
}

// New constructs the Senate fetcher. limiter and breaker are shared with the
// rest of the pipeline's per-provider middleware (internal/netkit).
func New(cfg config.ProviderConfig, limiter *ratelimit.Limiter, breaker *circuit.Breaker, chromePath string, log zerolog.Logger) *Fetcher {
	return &Fetcher{cfg: cfg, limiter: limiter, breaker: breaker, chromePath: chromePath, log: log, minInterval: cfg.GetMinInterval()}
}

func (f *Fetcher) Name() string       { return "senate" }
func (f *Fetcher) SourceSite() string { return sourceSite }

// Fetch opens a headful browser session, accepts the gatekeeper checkbox,
// submits the search form for the requested lookback window, and returns
// the rendered results table as one HTML FetchResult. Headless mode is
// deliberately never used: chromedp.Flag("headless", false) keeps a real
// window so the site's bot-detection does not see the headless UA/CDP
// fingerprint that triggers a block (§4.2).
func (f *Fetcher) Fetch(ctx context.Context, params fetch.Params) ([]fetch.FetchResult, error) {
	if err := f.limiter.Wait(ctx, f.cfg.Host); err != nil {
		return nil, &errs.FetchError{Source: f.Name(), Kind: errs.FetchRateLimit, Err: err}
	}
	if d := f.minInterval - time.Since(f.lastFetch); d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, &errs.FetchError{Source: f.Name(), Kind: errs.FetchNetwork, Err: ctx.Err()}
		}
	}
	f.lastFetch = time.Now()

	deadline := f.cfg.GetFetchDeadline()
	fetchCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	var html string
	err := f.breaker.Call(fetchCtx, func(callCtx context.Context) error {
		allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", false), // bot-detection defeat requirement (§4.2)
			chromedp.Flag("disable-blink-features", "AutomationControlled"),
			chromedp.UserAgent(f.cfg.Host),
		)
		if f.chromePath != "" {
			allocOpts = append(allocOpts, chromedp.ExecPath(f.chromePath))
		}
		allocCtx, allocCancel := chromedp.NewExecAllocator(callCtx, allocOpts...)
		defer allocCancel()
		browserCtx, browserCancel := chromedp.NewContext(allocCtx)
		defer browserCancel()

		since := params.Since.Format("01/02/2006")
		until := params.Until.Format("01/02/2006")

		return chromedp.Run(browserCtx,
			chromedp.Navigate(f.cfg.BaseURL+searchPath),
			chromedp.WaitVisible(gateCheckbox, chromedp.ByQuery),
			chromedp.Click(gateCheckbox, chromedp.ByQuery),
			chromedp.SetValue(`input[name="submitted_start_date"]`, since, chromedp.ByQuery),
			chromedp.SetValue(`input[name="submitted_end_date"]`, until, chromedp.ByQuery),
			chromedp.Click(searchButton, chromedp.ByQuery),
			chromedp.WaitVisible(resultsTable, chromedp.ByQuery),
			chromedp.Sleep(500*time.Millisecond),
			chromedp.OuterHTML(resultsTable, &html, chromedp.ByQuery),
		)
	})
	if err != nil {
		kind := errs.FetchNetwork
		if ctx.Err() != nil {
			kind = errs.FetchNetwork
		}
		return nil, &errs.FetchError{Source: f.Name(), Kind: kind, Err: fmt.Errorf("senate browser session: %w", err)}
	}

	if html == "" {
		return nil, nil // empty result set; orchestrator treats as failed-for-fallback-purposes
	}

	return []fetch.FetchResult{{
		Payload:     []byte(html),
		ContentType: "text/html",
		SourceURL:   f.cfg.BaseURL + searchPath,
		Metadata:    map[string]string{"source_site": sourceSite},
	}}, nil
}
