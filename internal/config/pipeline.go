package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PipelineConfig holds the tuning constants for the ETL pipeline: retry
// budget, concurrency caps, and confidence thresholds from spec.md §4.3-§4.5.
type PipelineConfig struct {
	// MaxLLMRetries is the hard cap N=3 on Transformer retries (§4.3 S3).
	MaxLLMRetries int `yaml:"max_llm_retries"`
	// MaxConcurrentLLMCalls is the global LLM concurrency cap (§5, default 2).
	MaxConcurrentLLMCalls int `yaml:"max_concurrent_llm_calls"`
	// ConfidenceRejectBelow rejects an entire batch below this (§4.4 step 1).
	ConfidenceRejectBelow float64 `yaml:"confidence_reject_below"`
	// ConfidenceManualReviewBelow routes individual trades to manual_review
	// below this but above ConfidenceRejectBelow.
	ConfidenceManualReviewBelow float64 `yaml:"confidence_manual_review_below"`
	// SignalVisibilityFloor: trades below this confidence never reach the
	// signal generator (§8 confidence gate, fixed at 0.7 by spec.md §3).
	SignalVisibilityFloor float64 `yaml:"signal_visibility_floor"`
	// NameSimilarityThreshold is the fuzzy first-name match floor (§4.4 step 2).
	NameSimilarityThreshold float64 `yaml:"name_similarity_threshold"`
	// FetcherDefaultDeadlineSecs and LLMDefaultDeadlineSecs are the §5 defaults.
	FetcherDefaultDeadlineSecs int `yaml:"fetcher_default_deadline_secs"`
	LLMDefaultDeadlineSecs     int `yaml:"llm_default_deadline_secs"`
	// ConvergenceWindowDays is the sliding window width (§4.6, fixed at 30).
	ConvergenceWindowDays int `yaml:"convergence_window_days"`
	// SaleIsContrarian toggles the Sale->LONG contrarian mapping (§9 open
	// question: exposed as a configuration flag, not hard-coded).
	SaleIsContrarian bool `yaml:"sale_is_contrarian"`
	// FilingLagFastBandDays is the strict-less-than boundary for the "fast"
	// filing-lag multiplier band (§8 boundary behavior: lag==15 is NOT fast).
	FilingLagFastBandDays int `yaml:"filing_lag_fast_band_days"`
}

// DefaultPipelineConfig returns the spec-mandated defaults.
func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		MaxLLMRetries:               3,
		MaxConcurrentLLMCalls:       2,
		ConfidenceRejectBelow:       0.5,
		ConfidenceManualReviewBelow: 0.7,
		SignalVisibilityFloor:       0.7,
		NameSimilarityThreshold:     0.75,
		FetcherDefaultDeadlineSecs:  120,
		LLMDefaultDeadlineSecs:      60,
		ConvergenceWindowDays:       30,
		SaleIsContrarian:            true,
		FilingLagFastBandDays:       15,
	}
}

// Validate checks the pipeline config for internal consistency.
func (p *PipelineConfig) Validate() error {
	if p.MaxLLMRetries <= 0 {
		return fmt.Errorf("max_llm_retries must be positive, got %d", p.MaxLLMRetries)
	}
	if p.MaxConcurrentLLMCalls <= 0 {
		return fmt.Errorf("max_concurrent_llm_calls must be positive, got %d", p.MaxConcurrentLLMCalls)
	}
	if p.ConfidenceRejectBelow < 0 || p.ConfidenceRejectBelow > 1 {
		return fmt.Errorf("confidence_reject_below must be in [0,1], got %f", p.ConfidenceRejectBelow)
	}
	if p.ConfidenceManualReviewBelow <= p.ConfidenceRejectBelow || p.ConfidenceManualReviewBelow > 1 {
		return fmt.Errorf("confidence_manual_review_below (%f) must be > confidence_reject_below (%f) and <= 1",
			p.ConfidenceManualReviewBelow, p.ConfidenceRejectBelow)
	}
	if p.NameSimilarityThreshold <= 0 || p.NameSimilarityThreshold > 1 {
		return fmt.Errorf("name_similarity_threshold must be in (0,1], got %f", p.NameSimilarityThreshold)
	}
	if p.ConvergenceWindowDays <= 0 {
		return fmt.Errorf("convergence_window_days must be positive, got %d", p.ConvergenceWindowDays)
	}
	return nil
}

// LoadPipelineConfig loads pipeline configuration from YAML, falling back to
// defaults for any unset fields by starting from DefaultPipelineConfig.
func LoadPipelineConfig(configPath string) (*PipelineConfig, error) {
	cfg := DefaultPipelineConfig()
	if configPath == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read pipeline config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse pipeline config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %w", err)
	}
	return cfg, nil
}
