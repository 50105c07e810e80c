package fetch

import (
	"context"
	"errors"

	"codementor/internal/scraper/workers"
	"codementor/pkg/utils"
)

// Limited gates a Fetcher behind a per-domain RateLimiter
type Limited struct {
	inner   Fetcher
	limiter *workers.RateLimiter
}

// NewLimited wraps inner
func NewLimited(inner Fetcher, limiter *workers.RateLimiter) *Limited {
	return &Limited{inner: inner, limiter: limiter}
}

func (l *Limited) Fetch(ctx context.Context, req Request) (*Page, error) {
	domain := utils.ExtractDomain(req.URL)
	if domain == "" {
		return nil, utils.NewBadRequestError("invalid URL: " + req.URL)
	}

	if err := l.limiter.Wait(ctx, domain); err != nil {
		if errors.Is(err, workers.ErrCircuitOpen) {
			return nil, utils.NewRateLimitedError(domain + " is failing, retry later")
		}
		return nil, err
	}

	page, err := l.inner.Fetch(ctx, req)
	if err != nil {
		l.limiter.RecordFailure(domain, err)
		return nil, err
	}
	l.limiter.RecordSuccess(domain)
	return page, nil
}

func (l *Limited) Name() string {
	return l.inner.Name()
}

func (l *Limited) Close() error {
	return l.inner.Close()
}

// Stats exposes the limiter counters
func (l *Limited) Stats() map[string]map[string]interface{} {
	return l.limiter.Stats()
}
