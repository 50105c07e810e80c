package fetch

import (
	"context"
	"errors"
	"net/http"

	"codementor/internal/logging/types"
	"codementor/pkg/utils"
)

// HybridFetcher tries the primary engine and falls back when it hits a
// challenge. Hosts that challenged once go straight to the fallback.
type HybridFetcher struct {
	primary  Fetcher
	fallback Fetcher
	domains  *CaptchaDomains
	logger   types.Logger
}

// NewHybridFetcher creates a hybrid fetcher
func NewHybridFetcher(primary, fallback Fetcher, domains *CaptchaDomains, logger types.Logger) *HybridFetcher {
	logger = logger.WithField("engine", EngineHybrid)
	logger.Info("Hybrid fetcher initialized", map[string]interface{}{
		"primary":               primary.Name(),
		"fallback":              fallback.Name(),
		"known_captcha_domains": domains.Count(),
	})
	return &HybridFetcher{primary: primary, fallback: fallback, domains: domains, logger: logger}
}

func (h *HybridFetcher) Fetch(ctx context.Context, req Request) (*Page, error) {
	if h.domains.Known(req.URL) {
		h.logger.Debug("Known captcha domain, using fallback directly", map[string]interface{}{"url": req.URL})
		return h.fallback.Fetch(ctx, req)
	}

	page, err := h.primary.Fetch(ctx, req)
	if err == nil {
		return page, nil
	}

	if !isCaptcha(err) {
		return nil, err
	}

	h.logger.Info("Primary engine hit a challenge, falling back", map[string]interface{}{
		"url":      req.URL,
		"fallback": h.fallback.Name(),
	})
	h.domains.Add(req.URL)
	return h.fallback.Fetch(ctx, req)
}

func (h *HybridFetcher) Name() string {
	return EngineHybrid
}

func (h *HybridFetcher) Close() error {
	return errors.Join(h.primary.Close(), h.fallback.Close())
}

func isCaptcha(err error) bool {
	var ce *utils.CustomError
	return errors.As(err, &ce) && ce.Code == http.StatusTemporaryRedirect
}
