// Package marketdata implements the PriceProvider/FactorProvider/VIXProvider
// collaborators the backtest and enhancer packages depend on, against the
// "price" and "factor" external sources named in spec.md §6. It reuses the
// same netkit middleware stack (rate limit, circuit breaker, budget) every
// other fetcher in this module is built on, rather than a bespoke client.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sawpanic/capitolflow/internal/backtest"
	"github.com/sawpanic/capitolflow/internal/config"
	"github.com/sawpanic/capitolflow/internal/netkit/budget"
	"github.com/sawpanic/capitolflow/internal/netkit/circuit"
	"github.com/sawpanic/capitolflow/internal/netkit/client"
	"github.com/sawpanic/capitolflow/internal/netkit/ratelimit"
	"github.com/sawpanic/capitolflow/internal/store/cache"
)

// Client is a thin HTTP client against the price/factor providers,
// middleware-wrapped exactly like the fetch/* packages.
type Client struct {
	priceHTTP  *http.Client
	factorHTTP *http.Client
	priceBase  string
	factorBase string
	apiKey     string
}

// New wires a Client from the resolved provider configs, limiters, and
// breakers the CLI already constructed for the "price" and "factor" sources.
// priceCache, when non-nil, fronts the price provider's daily-closes and
// VIX lookups: those bars are immutable once a trading day settles, so a
// shared TTL cache (spec.md §5) avoids re-fetching the same window across
// overlapping backtest runs.
func New(priceCfg, factorCfg config.ProviderConfig, priceKey string,
	priceLimiter, factorLimiter *ratelimit.Limiter, priceBreaker, factorBreaker *circuit.Breaker,
	priceBudget, factorBudget *budget.Tracker, priceCache cache.Cache) *Client {

	priceWrapper := client.NewWrapper(client.WrapperConfig{
		Provider: "price", ProviderConfig: &priceCfg,
		RateLimiter: priceLimiter, CircuitBreaker: priceBreaker, BudgetTracker: priceBudget, Cache: priceCache,
	}, http.DefaultTransport)
	factorWrapper := client.NewWrapper(client.WrapperConfig{
		Provider: "factor", ProviderConfig: &factorCfg,
		RateLimiter: factorLimiter, CircuitBreaker: factorBreaker, BudgetTracker: factorBudget,
	}, http.DefaultTransport)

	return &Client{
		priceHTTP:  &http.Client{Transport: priceWrapper, Timeout: priceCfg.GetRequestTimeout()},
		factorHTTP: &http.Client{Transport: factorWrapper, Timeout: factorCfg.GetRequestTimeout()},
		priceBase:  priceCfg.BaseURL,
		factorBase: factorCfg.BaseURL,
		apiKey:     priceKey,
	}
}

type barWire struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

func (c *Client) getBars(ctx context.Context, path string, values url.Values) ([]backtest.PriceBar, error) {
	reqURL := fmt.Sprintf("%s%s?%s", c.priceBase, path, values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.priceHTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("price provider returned status %d", resp.StatusCode)
	}
	var wire []barWire
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decode price bars: %w", err)
	}
	bars := make([]backtest.PriceBar, 0, len(wire))
	for _, w := range wire {
		d, err := time.Parse("2006-01-02", w.Date)
		if err != nil {
			continue
		}
		bars = append(bars, backtest.PriceBar{Date: d, Close: w.Close})
	}
	return bars, nil
}

// DailyCloses implements backtest.PriceProvider.
func (c *Client) DailyCloses(ctx context.Context, ticker string, from, to time.Time) ([]backtest.PriceBar, error) {
	values := url.Values{
		"ticker": {ticker},
		"from":   {from.Format("2006-01-02")},
		"to":     {to.Format("2006-01-02")},
	}
	return c.getBars(ctx, "/v1/daily-closes", values)
}

// MarketIndexCloses implements backtest.PriceProvider using the S&P 500
// total-return index as the market benchmark for CAR's market adjustment.
func (c *Client) MarketIndexCloses(ctx context.Context, from, to time.Time) ([]backtest.PriceBar, error) {
	values := url.Values{
		"ticker": {"SPY"},
		"from":   {from.Format("2006-01-02")},
		"to":     {to.Format("2006-01-02")},
	}
	return c.getBars(ctx, "/v1/daily-closes", values)
}

type factorWire struct {
	Date  string  `json:"date"`
	MktRF float64 `json:"mkt_rf"`
	SMB   float64 `json:"smb"`
	HML   float64 `json:"hml"`
	RF    float64 `json:"rf"`
}

// DailyFactors implements backtest.FactorProvider against the Fama-French
// three-factor daily series.
func (c *Client) DailyFactors(ctx context.Context, from, to time.Time) ([]backtest.FactorRow, error) {
	values := url.Values{"from": {from.Format("2006-01-02")}, "to": {to.Format("2006-01-02")}}
	reqURL := fmt.Sprintf("%s/v1/ff3-daily?%s", c.factorBase, values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.factorHTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("factor provider returned status %d", resp.StatusCode)
	}
	var wire []factorWire
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decode factor rows: %w", err)
	}
	rows := make([]backtest.FactorRow, 0, len(wire))
	for _, w := range wire {
		d, err := time.Parse("2006-01-02", w.Date)
		if err != nil {
			continue
		}
		rows = append(rows, backtest.FactorRow{Date: d, MktRF: w.MktRF, SMB: w.SMB, HML: w.HML, RF: w.RF})
	}
	return rows, nil
}

// VIXAsOf implements signal.VIXProvider. It only ever asks for a single
// historical date, so it can never introduce forward-looking VIX leakage
// into the enhancer regardless of when the lookup actually runs.
func (c *Client) VIXAsOf(ctx context.Context, date time.Time) (float64, error) {
	values := url.Values{"ticker": {"VIX"}, "date": {date.Format("2006-01-02")}}
	reqURL := fmt.Sprintf("%s/v1/index-close?%s", c.priceBase, values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.priceHTTP.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("price provider returned status %d for VIX lookup", resp.StatusCode)
	}
	var out struct {
		Close float64 `json:"close"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode VIX close: %w", err)
	}
	return out.Close, nil
}

// LookupByName implements tickers.ExternalLookup, the last-resort ticker
// resolution step (§4.4) when neither the static dictionary nor the
// regex pattern recognized a ticker in the candidate trade.
func (c *Client) LookupByName(ctx context.Context, assetName string) (string, bool) {
	values := url.Values{"name": {assetName}}
	reqURL := fmt.Sprintf("%s/v1/symbol-lookup?%s", c.priceBase, values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", false
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.priceHTTP.Do(req)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", false
	}
	var out struct {
		Symbol string `json:"symbol"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.Symbol == "" {
		return "", false
	}
	return out.Symbol, true
}
