// Package ratelimit provides per-source token-bucket rate limiting shared
// by every external collaborator this module calls out to: the Senate and
// House disclosure sites, the Capitol Trades fallback, the LLM extraction
// provider, and the price/factor market-data providers. Each external
// source gets its own bucket keyed by hostname, so a slow LLM provider
// never starves the fetchers' own pacing and vice versa.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter provides per-source rate limiting using the token bucket
// algorithm. "Source" here is a hostname (senate.gov, clerk.house.gov,
// the LLM provider's API host, ...), not a database or cache key.
type Limiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	rps      float64 // requests per second
	burst    int     // burst capacity
}

// NewLimiter creates a new rate limiter with the specified RPS and burst
// capacity. Disclosure sites and the LLM provider are polled far less
// aggressively than a market-data API, so callers typically pass a small
// RPS (1-2) with a modest burst (2-5) rather than exchange-grade throughput.
func NewLimiter(rps float64, burst int) *Limiter {
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
		burst:    burst,
	}
}

// sourceLimiter returns or creates a rate limiter for the specified source.
func (l *Limiter) sourceLimiter(source string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[source]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if limiter, exists := l.limiters[source]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(rate.Limit(l.rps), l.burst)
	l.limiters[source] = limiter
	return limiter
}

// Allow returns true if a request for the specified source is allowed
// right now, without blocking.
func (l *Limiter) Allow(source string) bool {
	limiter := l.sourceLimiter(source)
	return limiter.Allow()
}

// Wait blocks until a request for the specified source is allowed or the
// context is cancelled. Fetchers and the LLM client call this before every
// outbound request (internal/netkit/client.Wrapper).
func (l *Limiter) Wait(ctx context.Context, source string) error {
	limiter := l.sourceLimiter(source)
	return limiter.Wait(ctx)
}

// Reserve reserves a token for the specified source and returns a
// Reservation.
func (l *Limiter) Reserve(source string) *rate.Reservation {
	limiter := l.sourceLimiter(source)
	return limiter.Reserve()
}

// SetRPS updates the requests-per-second limit for every tracked source.
func (l *Limiter) SetRPS(rps float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.rps = rps
	for _, limiter := range l.limiters {
		limiter.SetLimit(rate.Limit(rps))
	}
}

// SetBurst updates the burst capacity for every tracked source.
func (l *Limiter) SetBurst(burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.burst = burst
	for _, limiter := range l.limiters {
		limiter.SetBurst(burst)
	}
}

// Stats returns statistics for every source this limiter has seen.
func (l *Limiter) Stats() map[string]LimiterStats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stats := make(map[string]LimiterStats)
	now := time.Now()

	for source, limiter := range l.limiters {
		reservation := limiter.Reserve()
		delay := reservation.Delay()
		reservation.Cancel()

		stats[source] = LimiterStats{
			Source:          source,
			RPS:             float64(limiter.Limit()),
			Burst:           limiter.Burst(),
			TokensAvailable: limiter.Tokens(),
			NextAllowedAt:   now.Add(delay),
			Delay:           delay,
		}
	}

	return stats
}

// Reset clears every tracked source's limiter.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.limiters = make(map[string]*rate.Limiter)
}

// LimiterStats represents statistics for a single source's limiter.
type LimiterStats struct {
	Source          string        `json:"source"`
	RPS             float64       `json:"rps"`
	Burst           int           `json:"burst"`
	TokensAvailable float64       `json:"tokens_available"`
	NextAllowedAt   time.Time     `json:"next_allowed_at"`
	Delay           time.Duration `json:"delay"`
}

// IsThrottled returns true if the limiter is currently delaying requests
// for this source.
func (s *LimiterStats) IsThrottled() bool {
	return s.Delay > 0
}

// Manager manages one Limiter per provider (senate, house, capitoltrades,
// llm, price, factor), so the CLI can report throttling per external
// dependency without every fetcher needing its own bookkeeping.
type Manager struct {
	limiters map[string]*Limiter
	mu       sync.RWMutex
}

// NewManager creates a new rate limiter manager.
func NewManager() *Manager {
	return &Manager{
		limiters: make(map[string]*Limiter),
	}
}

// AddProvider adds a rate limiter for a specific provider.
func (m *Manager) AddProvider(name string, rps float64, burst int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.limiters[name] = NewLimiter(rps, burst)
}

// GetLimiter returns the rate limiter for a specific provider.
func (m *Manager) GetLimiter(provider string) (*Limiter, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	limiter, exists := m.limiters[provider]
	return limiter, exists
}

// Allow returns true if a request is allowed for the specified provider
// and source.
func (m *Manager) Allow(provider, source string) bool {
	limiter, exists := m.GetLimiter(provider)
	if !exists {
		return true // no limiter configured, allow request
	}
	return limiter.Allow(source)
}

// Wait blocks until a request is allowed for the specified provider and
// source.
func (m *Manager) Wait(ctx context.Context, provider, source string) error {
	limiter, exists := m.GetLimiter(provider)
	if !exists {
		return nil // no limiter configured, allow immediately
	}
	return limiter.Wait(ctx, source)
}

// Stats returns statistics for every provider and its sources.
func (m *Manager) Stats() map[string]map[string]LimiterStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := make(map[string]map[string]LimiterStats)
	for provider, limiter := range m.limiters {
		stats[provider] = limiter.Stats()
	}
	return stats
}

// Reset clears every provider's limiters.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, limiter := range m.limiters {
		limiter.Reset()
	}
}
