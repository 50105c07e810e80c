package captcha

import (
	"context"
	"errors"
	"fmt"
	"time"

	"codementor/internal/logging/types"
	"codementor/pkg/utils"

	api2captcha "github.com/2captcha/2captcha-go"
)

// ErrSolverDisabled is returned when no API key is configured or auto-solve is off
var ErrSolverDisabled = errors.New("captcha solving disabled")

// Solver obtains a token for a challenge widget on pageURL
type Solver interface {
	SolveTurnstile(ctx context.Context, siteKey, pageURL string) (string, error)
	SolveRecaptcha(ctx context.Context, siteKey, pageURL string) (string, error)
	Enabled() bool
}

// SolverConfig configures the 2captcha client
type SolverConfig struct {
	APIKey    string
	Timeout   time.Duration
	AutoSolve bool
}

// TwoCaptchaSolver solves challenges through the 2captcha service
type TwoCaptchaSolver struct {
	config SolverConfig
	client *api2captcha.Client
	logger types.Logger
}

// NewTwoCaptchaSolver creates a new 2captcha solver
func NewTwoCaptchaSolver(cfg SolverConfig, logger types.Logger) *TwoCaptchaSolver {
	logger = logger.WithField("component", "2captcha")

	client := api2captcha.NewClient(cfg.APIKey)
	client.DefaultTimeout = int(cfg.Timeout.Seconds())
	client.RecaptchaTimeout = int(cfg.Timeout.Seconds())
	client.PollingInterval = 5

	if cfg.APIKey == "" {
		logger.Warn("2captcha API key not configured, captcha solving disabled")
	} else {
		logger.Info("2captcha solver initialized", map[string]interface{}{
			"api_key":           utils.MaskSecret(cfg.APIKey),
			"timeout":           cfg.Timeout.String(),
			"enable_auto_solve": cfg.AutoSolve,
		})
	}

	return &TwoCaptchaSolver{config: cfg, client: client, logger: logger}
}

// Enabled reports whether solving will be attempted
func (s *TwoCaptchaSolver) Enabled() bool {
	return s.config.APIKey != "" && s.config.AutoSolve
}

// SolveTurnstile solves a Cloudflare Turnstile widget
func (s *TwoCaptchaSolver) SolveTurnstile(ctx context.Context, siteKey, pageURL string) (string, error) {
	widget := api2captcha.CloudflareTurnstile{SiteKey: siteKey, Url: pageURL}
	return s.solve(ctx, "turnstile", siteKey, pageURL, widget.ToRequest())
}

// SolveRecaptcha solves a reCAPTCHA v2 widget
func (s *TwoCaptchaSolver) SolveRecaptcha(ctx context.Context, siteKey, pageURL string) (string, error) {
	widget := api2captcha.ReCaptcha{SiteKey: siteKey, Url: pageURL}
	return s.solve(ctx, "recaptcha", siteKey, pageURL, widget.ToRequest())
}

// solve runs the blocking client call in a goroutine so ctx cancellation is
// honoured; the 2captcha client has no context support of its own
func (s *TwoCaptchaSolver) solve(ctx context.Context, kind, siteKey, pageURL string, req api2captcha.Request) (string, error) {
	if !s.Enabled() {
		return "", ErrSolverDisabled
	}

	s.logger.Info("Starting captcha solve", map[string]interface{}{
		"kind":     kind,
		"site_key": siteKey,
		"page_url": pageURL,
	})
	start := time.Now()

	type result struct {
		code string
		id   string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		code, id, err := s.client.Solve(req)
		done <- result{code, id, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		if r.err != nil {
			s.logger.Error("Captcha solve failed", map[string]interface{}{
				"kind":       kind,
				"page_url":   pageURL,
				"captcha_id": r.id,
				"error":      r.err.Error(),
			})
			return "", fmt.Errorf("failed to solve %s: %w", kind, r.err)
		}
		s.logger.Info("Captcha solved", map[string]interface{}{
			"kind":         kind,
			"page_url":     pageURL,
			"solving_time": time.Since(start).String(),
		})
		return r.code, nil
	}
}
