package workers

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"codementor/internal/logging/types"

	"golang.org/x/time/rate"
)

// ErrCircuitOpen is returned while a domain's breaker is open
var ErrCircuitOpen = errors.New("circuit breaker open")

// CircuitState represents the state of a circuit breaker
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (cs CircuitState) String() string {
	switch cs {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// LimiterConfig configures per-domain limits
type LimiterConfig struct {
	RequestsPerMinute int
	Burst             int
	MaxFailures       int
	ResetTimeout      time.Duration
}

// DefaultLimiterConfig matches what problem sites tolerate from a single client
func DefaultLimiterConfig(requestsPerMinute int) LimiterConfig {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 30
	}
	return LimiterConfig{
		RequestsPerMinute: requestsPerMinute,
		Burst:             5,
		MaxFailures:       5,
		ResetTimeout:      30 * time.Second,
	}
}

type domainState struct {
	limiter      *rate.Limiter
	requests     int64
	failures     int
	lastFailTime time.Time
	lastSeen     time.Time
	state        CircuitState
}

// RateLimiter throttles fetches per domain and stops hitting a domain that
// keeps failing until ResetTimeout has passed
type RateLimiter struct {
	config  LimiterConfig
	domains map[string]*domainState
	mu      sync.Mutex
	logger  types.Logger
	now     func() time.Time
}

// NewRateLimiter creates a new rate limiter instance
func NewRateLimiter(cfg LimiterConfig, logger types.Logger) *RateLimiter {
	return &RateLimiter{
		config:  cfg,
		domains: make(map[string]*domainState),
		logger:  logger,
		now:     time.Now,
	}
}

// Wait blocks until a request to domain is permitted or ctx is done
func (rl *RateLimiter) Wait(ctx context.Context, domain string) error {
	domain = strings.ToLower(domain)

	rl.mu.Lock()
	ds := rl.domain(domain)
	if !rl.admit(domain, ds) {
		rl.mu.Unlock()
		return ErrCircuitOpen
	}
	ds.requests++
	ds.lastSeen = rl.now()
	limiter := ds.limiter
	rl.mu.Unlock()

	return limiter.Wait(ctx)
}

// RecordSuccess closes a half-open breaker
func (rl *RateLimiter) RecordSuccess(domain string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	ds, ok := rl.domains[strings.ToLower(domain)]
	if !ok {
		return
	}
	if ds.state != CircuitClosed {
		rl.logger.Info("Circuit breaker closed after successful request", map[string]interface{}{
			"domain": domain,
		})
	}
	ds.state = CircuitClosed
	ds.failures = 0
}

// RecordFailure counts a failed request and opens the breaker at MaxFailures
func (rl *RateLimiter) RecordFailure(domain string, err error) {
	domain = strings.ToLower(domain)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	ds := rl.domain(domain)
	ds.failures++
	ds.lastFailTime = rl.now()

	if ds.state == CircuitHalfOpen || (ds.state == CircuitClosed && ds.failures >= rl.config.MaxFailures) {
		ds.state = CircuitOpen
		rl.logger.Warn("Circuit breaker opened due to failures", map[string]interface{}{
			"domain":   domain,
			"failures": ds.failures,
			"error":    err,
		})
	}
}

// State reports the breaker state for domain
func (rl *RateLimiter) State(domain string) CircuitState {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	ds, ok := rl.domains[strings.ToLower(domain)]
	if !ok {
		return CircuitClosed
	}
	rl.admit(domain, ds)
	return ds.state
}

// Stats returns per-domain counters for diagnostics
func (rl *RateLimiter) Stats() map[string]map[string]interface{} {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	stats := make(map[string]map[string]interface{}, len(rl.domains))
	for domain, ds := range rl.domains {
		stats[domain] = map[string]interface{}{
			"requests":      ds.requests,
			"failures":      ds.failures,
			"circuit_state": ds.state.String(),
			"last_seen":     ds.lastSeen,
		}
	}
	return stats
}

// Prune drops domains idle for longer than maxIdle with a closed breaker
func (rl *RateLimiter) Prune(maxIdle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-maxIdle)
	removed := 0
	for domain, ds := range rl.domains {
		if ds.state == CircuitClosed && ds.lastSeen.Before(cutoff) {
			delete(rl.domains, domain)
			removed++
		}
	}
	return removed
}

// domain must be called with rl.mu held
func (rl *RateLimiter) domain(domain string) *domainState {
	if ds, ok := rl.domains[domain]; ok {
		return ds
	}

	rps := rate.Limit(float64(rl.config.RequestsPerMinute) / 60.0)
	ds := &domainState{
		limiter:  rate.NewLimiter(rps, rl.config.Burst),
		lastSeen: rl.now(),
	}
	rl.domains[domain] = ds

	rl.logger.Debug("Created new domain rate limiter", map[string]interface{}{
		"domain": domain,
		"rate":   float64(rps),
		"burst":  rl.config.Burst,
	})
	return ds
}

// admit must be called with rl.mu held. It moves an open breaker to
// half-open once ResetTimeout has elapsed.
func (rl *RateLimiter) admit(domain string, ds *domainState) bool {
	switch ds.state {
	case CircuitOpen:
		if rl.now().Sub(ds.lastFailTime) < rl.config.ResetTimeout {
			return false
		}
		ds.state = CircuitHalfOpen
		rl.logger.Info("Circuit breaker transitioned to half-open", map[string]interface{}{
			"domain": domain,
		})
		return true
	default:
		return true
	}
}
