package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ProvidersConfig is the complete external-provider operations configuration:
// the Senate/House/Capitol-Trades fetchers, the price provider, the factor
// provider, and the LLM provider all share the same rate-limit / budget /
// circuit shape.
type ProvidersConfig struct {
	Providers map[string]ProviderConfig `yaml:"providers"`
	Budget    BudgetConfig              `yaml:"budget"`
	Global    GlobalConfig              `yaml:"global"`
}

// ProviderConfig configures a single external source.
type ProviderConfig struct {
	Host           string        `yaml:"host"`
	RPS            int           `yaml:"rps"`
	Burst          int           `yaml:"burst"`
	DailyBudget    int           `yaml:"daily_budget"`
	TTLSecs        int           `yaml:"ttl_secs"`
	MinIntervalMS  int           `yaml:"min_interval_ms"` // per-source minimum inter-request delay (§4.2)
	BackoffMS      BackoffConfig `yaml:"backoff_ms"`
	Circuit        CircuitConfig `yaml:"circuit"`
	Enabled        bool          `yaml:"enabled"`
	BaseURL        string        `yaml:"base_url"`
	FetchDeadline  int           `yaml:"fetch_deadline_secs"` // §5 fetcher default 120s
}

// BackoffConfig is exponential backoff configuration for retryablehttp.
type BackoffConfig struct {
	Base   int  `yaml:"base"`
	Max    int  `yaml:"max"`
	Jitter bool `yaml:"jitter"`
}

// CircuitConfig mirrors internal/netkit/circuit.Config in YAML form.
type CircuitConfig struct {
	FailureThreshold int `yaml:"failure_threshold"`
	SuccessThreshold int `yaml:"success_threshold"`
	TimeoutMS        int `yaml:"timeout_ms"`
}

// BudgetConfig is global daily-budget bookkeeping.
type BudgetConfig struct {
	WarnThreshold float64 `yaml:"warn_threshold"`
	ResetHour     int     `yaml:"reset_hour"`
}

// GlobalConfig holds settings shared by every provider.
type GlobalConfig struct {
	MaxConcurrentPerHost int    `yaml:"max_concurrent_per_host"`
	UserAgent            string `yaml:"user_agent"`
}

// LoadProvidersConfig loads and validates provider configuration from YAML.
func LoadProvidersConfig(configPath string) (*ProvidersConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read providers config: %w", err)
	}

	var cfg ProvidersConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse providers config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid providers config: %w", err)
	}
	return &cfg, nil
}

// Validate checks internal consistency of the whole providers config.
func (c *ProvidersConfig) Validate() error {
	if c.Budget.WarnThreshold <= 0 || c.Budget.WarnThreshold > 1 {
		return fmt.Errorf("budget warn_threshold must be in (0,1], got %f", c.Budget.WarnThreshold)
	}
	if c.Budget.ResetHour < 0 || c.Budget.ResetHour > 23 {
		return fmt.Errorf("budget reset_hour must be 0-23, got %d", c.Budget.ResetHour)
	}
	if c.Global.MaxConcurrentPerHost <= 0 {
		return fmt.Errorf("global max_concurrent_per_host must be positive")
	}
	if c.Global.UserAgent == "" {
		return fmt.Errorf("global user_agent cannot be empty")
	}
	for name, provider := range c.Providers {
		if err := provider.Validate(name); err != nil {
			return fmt.Errorf("provider %s: %w", name, err)
		}
	}
	return nil
}

// Validate checks a single provider's configuration.
func (p *ProviderConfig) Validate(name string) error {
	if p.Host == "" {
		return fmt.Errorf("host cannot be empty")
	}
	if p.RPS <= 0 {
		return fmt.Errorf("rps must be positive, got %d", p.RPS)
	}
	if p.Burst < p.RPS {
		return fmt.Errorf("burst (%d) must be >= rps (%d)", p.Burst, p.RPS)
	}
	if p.BaseURL == "" {
		return fmt.Errorf("base_url cannot be empty")
	}
	if err := p.BackoffMS.Validate(); err != nil {
		return fmt.Errorf("backoff_ms: %w", err)
	}
	if err := p.Circuit.Validate(); err != nil {
		return fmt.Errorf("circuit: %w", err)
	}
	return nil
}

func (b *BackoffConfig) Validate() error {
	if b.Base <= 0 {
		return fmt.Errorf("base must be positive, got %d", b.Base)
	}
	if b.Max <= b.Base {
		return fmt.Errorf("max (%d) must be > base (%d)", b.Max, b.Base)
	}
	return nil
}

func (c *CircuitConfig) Validate() error {
	if c.FailureThreshold <= 0 {
		return fmt.Errorf("failure_threshold must be positive, got %d", c.FailureThreshold)
	}
	if c.SuccessThreshold <= 0 {
		return fmt.Errorf("success_threshold must be positive, got %d", c.SuccessThreshold)
	}
	if c.TimeoutMS <= 0 {
		return fmt.Errorf("timeout_ms must be positive, got %d", c.TimeoutMS)
	}
	return nil
}

// GetCacheTTL returns the provider's cache TTL.
func (p *ProviderConfig) GetCacheTTL() time.Duration {
	return time.Duration(p.TTLSecs) * time.Second
}

// GetRequestTimeout returns the per-request timeout derived from the circuit config.
func (p *ProviderConfig) GetRequestTimeout() time.Duration {
	return time.Duration(p.Circuit.TimeoutMS) * time.Millisecond
}

// GetFetchDeadline returns the fetcher-level deadline, defaulting to the
// §5 default of 120s when unset.
func (p *ProviderConfig) GetFetchDeadline() time.Duration {
	if p.FetchDeadline <= 0 {
		return 120 * time.Second
	}
	return time.Duration(p.FetchDeadline) * time.Second
}

// GetMinInterval returns the minimum inter-request delay for this provider.
func (p *ProviderConfig) GetMinInterval() time.Duration {
	return time.Duration(p.MinIntervalMS) * time.Millisecond
}

// DefaultProvidersConfig returns a production-ready default configuration
// for all six external sources named in spec.md §6.
func DefaultProvidersConfig() *ProvidersConfig {
	// timeoutMS is per-provider: headful disclosure scraping and LLM
	// completions run far slower than a JSON price/factor API, so each
	// gets its own circuit.RequestTimeout rather than one blanket value.
	mk := func(host, baseURL string, rps, burst, dailyBudget, ttlSecs, minIntervalMS, timeoutMS int) ProviderConfig {
		return ProviderConfig{
			Host:          host,
			BaseURL:       baseURL,
			RPS:           rps,
			Burst:         burst,
			DailyBudget:   dailyBudget,
			TTLSecs:       ttlSecs,
			MinIntervalMS: minIntervalMS,
			BackoffMS:     BackoffConfig{Base: 500, Max: 30000, Jitter: true},
			Circuit:       CircuitConfig{FailureThreshold: 5, SuccessThreshold: 2, TimeoutMS: timeoutMS},
			Enabled:       true,
			FetchDeadline: 120,
		}
	}
	return &ProvidersConfig{
		Providers: map[string]ProviderConfig{
			"senate":        mk("efdsearch.senate.gov", "https://efdsearch.senate.gov", 1, 2, 2000, 3600, 2000, 45000),
			"house":         mk("disclosures-clerk.house.gov", "https://disclosures-clerk.house.gov", 2, 4, 5000, 3600, 1000, 45000),
			"capitoltrades": mk("www.capitoltrades.com", "https://www.capitoltrades.com", 2, 4, 5000, 1800, 1000, 45000),
			"price":         mk("api.priceprovider.example", "https://api.priceprovider.example", 5, 10, 50000, 86400, 200, 10000),
			"factor":        mk("factors.example", "https://factors.example", 1, 1, 60, 2592000, 0, 10000),
			"llm":           mk("api.llmprovider.example", "https://api.llmprovider.example", 2, 2, 20000, 0, 500, 60000),
		},
		Budget: BudgetConfig{WarnThreshold: 0.8, ResetHour: 0},
		Global: GlobalConfig{MaxConcurrentPerHost: 4, UserAgent: "CapitolFlow/1.0 (+research; contact=ops@capitolflow.example)"},
	}
}
