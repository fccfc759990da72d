// Package house implements the House Clerk disclosure fetcher (spec.md
// §4.2, §6). The House site answers a known form POST with an HTML
// listing whose first column links to a PDF; this fetcher parses that
// listing with golang.org/x/net/html and downloads each referenced PDF as
// a separate FetchResult tagged application/pdf, so the Transformer can
// rasterize and present them to the multimodal House-PDF prompt.
package house

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
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

const sourceSite = "house.gov"

// Fetcher issues the House disclosure search form POST and resolves the
// referenced PDFs.
type Fetcher struct {
	cfg         config.ProviderConfig
	client      *retryablehttp.Client
	limiter     *ratelimit.Limiter
	breaker     *circuit.Breaker
	log         zerolog.Logger
	minInterval time.Duration
	lastFetch   time.Time
}

// New constructs the House fetcher on top of a retryablehttp client so
// transient network failures retry before surfacing a FetchError.
func New(cfg config.ProviderConfig, limiter *ratelimit.Limiter, breaker *circuit.Breaker, log zerolog.Logger) *Fetcher {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.Logger = nil
	return &Fetcher{cfg: cfg, client: client, limiter: limiter, breaker: breaker, log: log, minInterval: cfg.GetMinInterval()}
}

func (f *Fetcher) Name() string       { return "house" }
func (f *Fetcher) SourceSite() string { return sourceSite }

// listingRow is one parsed row of the House PTR search results.
type listingRow struct {
	PoliticianLastFirst string
	PDFURL              string
}

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

	var rows []listingRow
	err := f.breaker.Call(fetchCtx, func(callCtx context.Context) error {
		body, err := f.postSearch(callCtx, params)
		if err != nil {
			return err
		}
		rows, err = parseListing(body)
		return err
	})
	if err != nil {
		if fe, ok := err.(*errs.FetchError); ok {
			return nil, fe
		}
		return nil, &errs.FetchError{Source: f.Name(), Kind: errs.FetchParse, Err: err}
	}
	if len(rows) == 0 {
		return nil, nil
	}

	results := make([]fetch.FetchResult, 0, len(rows))
	for _, row := range rows {
		pdf, err := f.downloadPDF(fetchCtx, row.PDFURL)
		if err != nil {
			f.log.Warn().Err(err).Str("url", row.PDFURL).Msg("house: pdf download failed, skipping row")
			continue
		}
		results = append(results, fetch.FetchResult{
			Payload:     pdf,
			ContentType: "application/pdf",
			SourceURL:   row.PDFURL,
			Metadata: map[string]string{
				"source_site":      sourceSite,
				"politician_raw":   row.PoliticianLastFirst,
			},
		})
	}
	return results, nil
}

func (f *Fetcher) postSearch(ctx context.Context, params fetch.Params) ([]byte, error) {
	form := url.Values{}
	form.Set("FilingYear", fmt.Sprintf("%d", params.Since.Year()))
	form.Set("State", "")
	form.Set("District", "")

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost,
		f.cfg.BaseURL+"/FinancialDisclosure/ViewMemberSearchResult", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &errs.FetchError{Source: f.Name(), Kind: errs.FetchNetwork, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &errs.FetchError{Source: f.Name(), Kind: errs.FetchNetwork, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests {
		return nil, &errs.FetchError{Source: f.Name(), Kind: errs.FetchBlocked, Err: fmt.Errorf("house search returned %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &errs.FetchError{Source: f.Name(), Kind: errs.FetchNetwork, Err: fmt.Errorf("house search returned %d", resp.StatusCode)}
	}
	return io.ReadAll(resp.Body)
}

func (f *Fetcher) downloadPDF(ctx context.Context, pdfURL string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, pdfURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pdf fetch returned %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// parseListing walks the House results table extracting the politician
// name (in "LAST, First (suffix)" form, per §6) and the PDF link from the
// first column of each row.
func parseListing(body []byte) ([]listingRow, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse house listing html: %w", err)
	}

	var rows []listingRow
	var walk func(*html.Node)
	var currentName string
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			currentName = ""
			var link string
			var td func(*html.Node, int)
			col := 0
			td = func(node *html.Node, _ int) {
				for c := node.FirstChild; c != nil; c = c.NextSibling {
					if c.Type == html.ElementNode && c.Data == "td" {
						col++
						text := textContent(c)
						if col == 1 {
							currentName = strings.TrimSpace(text)
							if href, ok := findHref(c); ok {
								link = href
							}
						}
					}
					td(c, col)
				}
			}
			td(n, 0)
			if currentName != "" && link != "" {
				rows = append(rows, listingRow{PoliticianLastFirst: currentName, PDFURL: link})
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return rows, nil
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func findHref(n *html.Node) (string, bool) {
	if n.Type == html.ElementNode && n.Data == "a" {
		for _, a := range n.Attr {
			if a.Key == "href" {
				return a.Val, true
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if href, ok := findHref(c); ok {
			return href, true
		}
	}
	return "", false
}
