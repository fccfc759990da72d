package transform

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sawpanic/capitolflow/internal/config"
	"github.com/sawpanic/capitolflow/internal/netkit/budget"
	"github.com/sawpanic/capitolflow/internal/netkit/circuit"
	"github.com/sawpanic/capitolflow/internal/netkit/client"
	"github.com/sawpanic/capitolflow/internal/netkit/ratelimit"
)

// LLMClient abstracts the extraction call so the Transformer stays
// vendor-neutral: one text variant, one multimodal variant, both driven
// through the same provider-agnostic request shape.
type LLMClient interface {
	Extract(ctx context.Context, variant PromptVariant, payload []byte) (string, error)
}

// httpLLMClient implements LLMClient over a single JSON HTTP endpoint,
// layering the rate-limit/budget/circuit-breaker middleware of
// internal/netkit/client, the same wrapper the price/factor providers use.
// The fetchers hold their own rate limiter and circuit breaker instead of
// going through this wrapper.
type httpLLMClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// NewHTTPClient builds the LLM client from provider configuration and the
// shared netkit middleware managers.
func NewHTTPClient(cfg config.ProviderConfig, secrets config.Secrets, limiter *ratelimit.Limiter, breaker *circuit.Breaker, tracker *budget.Tracker, model string) LLMClient {
	wrapperCfg := client.WrapperConfig{
		Provider:       "llm",
		ProviderConfig: &cfg,
		RateLimiter:    limiter,
		CircuitBreaker: breaker,
		BudgetTracker:  tracker,
	}
	wrapper := client.NewWrapper(wrapperCfg, http.DefaultTransport)
	return &httpLLMClient{
		httpClient: &http.Client{Transport: wrapper, Timeout: cfg.GetRequestTimeout()},
		baseURL:    cfg.BaseURL,
		apiKey:     secrets.LLMAPIKey,
		model:      model,
	}
}

type extractionRequest struct {
	Model    string           `json:"model"`
	Prompt   string           `json:"prompt"`
	Text     string           `json:"text,omitempty"`
	ImageB64 string           `json:"image_base64,omitempty"`
	MaxTokens int             `json:"max_tokens"`
}

type extractionResponse struct {
	Output string `json:"output"`
}

// Extract sends the fetcher payload to the LLM provider, text inline for
// HTML sources and base64-encoded for the House PDF multimodal variant,
// and returns the raw text response for the FSM's PARSE stage to recover
// JSON from.
func (c *httpLLMClient) Extract(ctx context.Context, variant PromptVariant, payload []byte) (string, error) {
	reqBody := extractionRequest{
		Model:     c.model,
		Prompt:    variant.Template,
		MaxTokens: 4096,
	}
	if variant.Multimodal {
		reqBody.ImageB64 = base64.StdEncoding.EncodeToString(payload)
	} else {
		reqBody.Text = string(payload)
	}

	buf, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal extraction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/extract", bytes.NewReader(buf))
	if err != nil {
		return "", fmt.Errorf("build extraction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("extraction request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read extraction response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("extraction provider returned %d: %s", resp.StatusCode, string(body))
	}

	var out extractionResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode extraction response envelope: %w", err)
	}
	return out.Output, nil
}
