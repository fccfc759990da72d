// Package capitoltrades implements the Capitol Trades aggregator fetcher,
// which serves as the Senate fallback when the headful eFD session fails
// or returns nothing within the lookback window (spec.md §4.2, §4.5). The
// site paginates its trade listing 1-based: page=0 returns an empty
// result set rather than an error, so callers must start at page=1.
package capitoltrades

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"

	"github.com/sawpanic/capitolflow/internal/config"
	"github.com/sawpanic/capitolflow/internal/errs"
	"github.com/sawpanic/capitolflow/internal/fetch"
	"github.com/sawpanic/capitolflow/internal/netkit/circuit"
	"github.com/sawpanic/capitolflow/internal/netkit/ratelimit"
)

const (
	sourceSite = "capitoltrades.com"
	listingRowSelectorClass = "trade-row"
	maxPages = 50
)

// Fetcher walks the Capitol Trades paginated trade listing.
type Fetcher struct {
	cfg         config.ProviderConfig
	client      *retryablehttp.Client
	limiter     *ratelimit.Limiter
	breaker     *circuit.Breaker
	log         zerolog.Logger
	minInterval time.Duration
	lastFetch   time.Time
}

// New constructs the Capitol Trades fetcher.
func New(cfg config.ProviderConfig, limiter *ratelimit.Limiter, breaker *circuit.Breaker, log zerolog.Logger) *Fetcher {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.Logger = nil
	return &Fetcher{cfg: cfg, client: client, limiter: limiter, breaker: breaker, log: log, minInterval: cfg.GetMinInterval()}
}

func (f *Fetcher) Name() string       { return "capitoltrades" }
func (f *Fetcher) SourceSite() string { return sourceSite }

func (f *Fetcher) Fetch(ctx context.Context, params fetch.Params) ([]fetch.FetchResult, error) {
	deadline := f.cfg.GetFetchDeadline()
	fetchCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	var results []fetch.FetchResult
	page := 1 // 1-based: page=0 yields an empty page, not an error (§4.2)
	for page <= maxPages {
		if err := f.limiter.Wait(fetchCtx, f.cfg.Host); err != nil {
			return nil, &errs.FetchError{Source: f.Name(), Kind: errs.FetchRateLimit, Err: err}
		}
		if d := f.minInterval - time.Since(f.lastFetch); d > 0 {
			select {
			case <-time.After(d):
			case <-fetchCtx.Done():
				return nil, &errs.FetchError{Source: f.Name(), Kind: errs.FetchNetwork, Err: fetchCtx.Err()}
			}
		}
		f.lastFetch = time.Now()

		var body []byte
		var trimmed string
		var rowCount int
		err := f.breaker.Call(fetchCtx, func(callCtx context.Context) error {
			b, err := f.fetchPage(callCtx, params, page)
			if err != nil {
				return err
			}
			body = b
			var parseErr error
			trimmed, rowCount, parseErr = trimToTradeRows(body)
			return parseErr
		})
		if err != nil {
			if fe, ok := err.(*errs.FetchError); ok {
				return nil, fe
			}
			return nil, &errs.FetchError{Source: f.Name(), Kind: errs.FetchParse, Err: err}
		}

		if rowCount == 0 {
			break // empty page: end of results (or page=0-equivalent tail)
		}

		results = append(results, fetch.FetchResult{
			Payload:     []byte(trimmed),
			ContentType: "text/html",
			SourceURL:   fmt.Sprintf("%s?page=%d", f.cfg.BaseURL, page),
			Metadata: map[string]string{
				"source_site": sourceSite,
				"page":        fmt.Sprintf("%d", page),
			},
		})
		page++
	}

	if len(results) == 0 {
		return nil, nil
	}
	return results, nil
}

func (f *Fetcher) fetchPage(ctx context.Context, params fetch.Params, page int) ([]byte, error) {
	url := fmt.Sprintf("%s/trades?page=%d&txDateFrom=%s&txDateTo=%s",
		f.cfg.BaseURL, page, params.Since.Format("2006-01-02"), params.Until.Format("2006-01-02"))

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &errs.FetchError{Source: f.Name(), Kind: errs.FetchNetwork, Err: err}
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &errs.FetchError{Source: f.Name(), Kind: errs.FetchNetwork, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests {
		return nil, &errs.FetchError{Source: f.Name(), Kind: errs.FetchBlocked, Err: fmt.Errorf("capitoltrades returned %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &errs.FetchError{Source: f.Name(), Kind: errs.FetchNetwork, Err: fmt.Errorf("capitoltrades returned %d", resp.StatusCode)}
	}
	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, &errs.FetchError{Source: f.Name(), Kind: errs.FetchNetwork, Err: err}
	}
	return buf.Bytes(), nil
}

// trimToTradeRows extracts only the trade-row table rows from the full
// page, dropping navigation chrome, scripts, and styling so the payload
// handed to the Transformer's prompt is roughly 1% of the raw page size
// (spec.md §4.2 "the fetched HTML must be trimmed before it reaches the
// extraction stage").
func trimToTradeRows(body []byte) (string, int, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", 0, fmt.Errorf("parse capitoltrades page: %w", err)
	}

	var rows []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" && hasClassContaining(n, listingRowSelectorClass) {
			rows = append(rows, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if len(rows) == 0 {
		return "", 0, nil
	}

	var sb strings.Builder
	sb.WriteString("<table>")
	for _, row := range rows {
		if err := html.Render(&sb, row); err != nil {
			return "", 0, fmt.Errorf("render trade row: %w", err)
		}
	}
	sb.WriteString("</table>")
	return sb.String(), len(rows), nil
}

func hasClassContaining(n *html.Node, needle string) bool {
	for _, a := range n.Attr {
		if a.Key == "class" && strings.Contains(a.Val, needle) {
			return true
		}
	}
	return false
}
