package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"codementor/internal/logging/types"
	"codementor/internal/scraper/captcha"
	"codementor/pkg/utils"
)

const maxBodyBytes = 10 << 20

// StaticFetcher performs a plain GET. It suits Codeforces, which renders
// statements server side; SPA platforms need the headed engine.
type StaticFetcher struct {
	client    *http.Client
	userAgent string
	logger    types.Logger
}

// NewStaticFetcher creates a static fetcher
func NewStaticFetcher(userAgent string, timeout time.Duration, logger types.Logger) *StaticFetcher {
	return &StaticFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		logger:    logger.WithField("engine", EngineStatic),
	}
}

func (f *StaticFetcher) Fetch(ctx context.Context, req Request) (*Page, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, utils.NewBadRequestError(err.Error())
	}
	if f.userAgent != "" {
		httpReq.Header.Set("User-Agent", f.userAgent)
	}
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	httpReq.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", req.URL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	html := string(body)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, utils.NewRateLimitedError(req.URL)
	case resp.StatusCode >= 400:
		if challenge := captcha.Detect(html); challenge.Kind != captcha.KindNone {
			return nil, utils.NewCaptchaError(string(challenge.Kind))
		}
		return nil, utils.NewScrapingError(fmt.Sprintf("unexpected status %d from %s", resp.StatusCode, req.URL))
	}

	if challenge := captcha.Detect(html); challenge.Kind != captcha.KindNone {
		return nil, utils.NewCaptchaError(string(challenge.Kind))
	}

	f.logger.Debug("Fetched page", map[string]interface{}{
		"url":   req.URL,
		"bytes": len(body),
	})

	return &Page{URL: req.URL, HTML: html, Engine: EngineStatic, FetchedAt: time.Now()}, nil
}

func (f *StaticFetcher) Name() string {
	return EngineStatic
}

func (f *StaticFetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}
