package fetch

import (
	"context"
	"fmt"
	"time"

	"codementor/internal/config"
	"codementor/internal/logging/types"
	"codementor/internal/scraper/captcha"
	"codementor/internal/scraper/workers"
)

// Engine names accepted by New
const (
	EngineStatic    = "static"
	EngineHeaded    = "headed"
	EngineFirecrawl = "firecrawl"
	EngineHybrid    = "hybrid"
)

// Request describes one page fetch. Settle is how long to let client-side
// rendering run after load; engines that cannot execute scripts ignore it.
type Request struct {
	URL     string
	Settle  time.Duration
	Timeout time.Duration
}

// Page is the rendered HTML of a fetched URL
type Page struct {
	URL       string
	HTML      string
	Engine    string
	FetchedAt time.Time
}

// Fetcher retrieves the HTML of a problem page
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (*Page, error)
	Name() string
	Close() error
}

// Engines lists the engine names New accepts
func Engines() []string {
	return []string{EngineStatic, EngineHeaded, EngineFirecrawl, EngineHybrid}
}

// New builds the fetcher for engine, wrapped in the per-domain rate limiter
func New(engine string, cfg *config.Config, logger types.Logger) (Fetcher, error) {
	var (
		inner Fetcher
		err   error
	)

	switch engine {
	case EngineStatic, "":
		inner = NewStaticFetcher(cfg.Scraper.UserAgent, cfg.Scraper.RequestTimeout, logger)
	case EngineHeaded:
		inner = NewHeadedFetcher(NewBrowserManager(BrowserOptionsFromConfig(cfg), logger), newSolver(cfg, logger), cfg.Scraper.RequestTimeout, logger)
	case EngineFirecrawl:
		inner, err = NewFirecrawlFetcher(cfg.Firecrawl.APIKey, cfg.Firecrawl.APIURL, cfg.Firecrawl.Timeout, logger)
	case EngineHybrid:
		headed := NewHeadedFetcher(NewBrowserManager(BrowserOptionsFromConfig(cfg), logger), newSolver(cfg, logger), cfg.Scraper.RequestTimeout, logger)
		fc, fcErr := NewFirecrawlFetcher(cfg.Firecrawl.APIKey, cfg.Firecrawl.APIURL, cfg.Firecrawl.Timeout, logger)
		if fcErr != nil {
			headed.Close()
			return nil, fcErr
		}
		inner = NewHybridFetcher(headed, fc, NewCaptchaDomains(cfg.Scraper.CaptchaDomainsFile, logger), logger)
	default:
		return nil, fmt.Errorf("unsupported fetch engine: %s", engine)
	}
	if err != nil {
		return nil, err
	}

	limiter := workers.NewRateLimiter(workers.DefaultLimiterConfig(cfg.Scraper.RateLimit), logger.WithField("component", "rate_limiter"))
	return NewLimited(inner, limiter), nil
}

func newSolver(cfg *config.Config, logger types.Logger) captcha.Solver {
	return captcha.NewTwoCaptchaSolver(captcha.SolverConfig{
		APIKey:    cfg.Scraper.Captcha.APIKey,
		Timeout:   cfg.Scraper.Captcha.Timeout,
		AutoSolve: cfg.Scraper.Captcha.EnableAutoSolve,
	}, logger)
}
