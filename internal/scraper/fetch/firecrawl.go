package fetch

import (
	"context"
	"fmt"
	"time"

	"codementor/internal/logging/types"
	"codementor/pkg/utils"

	"github.com/mendableai/firecrawl-go"
)

// FirecrawlFetcher renders pages through the Firecrawl API, which handles
// bot checks that a local browser cannot clear
type FirecrawlFetcher struct {
	app     *firecrawl.FirecrawlApp
	timeout time.Duration
	logger  types.Logger
}

// NewFirecrawlFetcher creates a Firecrawl fetcher
func NewFirecrawlFetcher(apiKey, apiURL string, timeout time.Duration, logger types.Logger) (*FirecrawlFetcher, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("firecrawl API key not configured")
	}

	app, err := firecrawl.NewFirecrawlApp(apiKey, apiURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firecrawl: %w", err)
	}

	logger.Info("Firecrawl fetcher initialized", map[string]interface{}{"api_url": apiURL})
	return &FirecrawlFetcher{app: app, timeout: timeout, logger: logger.WithField("engine", EngineFirecrawl)}, nil
}

func (f *FirecrawlFetcher) Fetch(ctx context.Context, req Request) (*Page, error) {
	timeout := f.timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	waitFor := int(req.Settle.Milliseconds())
	params := &firecrawl.ScrapeParams{
		Formats: []string{"rawHtml"},
		WaitFor: &waitFor,
	}

	type result struct {
		doc *firecrawl.FirecrawlDocument
		err error
	}
	done := make(chan result, 1)
	go func() {
		doc, err := f.app.ScrapeURL(req.URL, params)
		done <- result{doc, err}
	}()

	var r result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r = <-done:
	}

	if r.err != nil {
		return nil, utils.NewScrapingError(fmt.Sprintf("firecrawl: %v", r.err))
	}
	if r.doc == nil {
		return nil, utils.NewScrapingError("firecrawl returned no document")
	}

	html := r.doc.RawHTML
	if html == "" {
		html = r.doc.HTML
	}
	if html == "" {
		return nil, utils.NewScrapingError("firecrawl returned no HTML")
	}

	f.logger.Debug("Fetched page", map[string]interface{}{"url": req.URL, "bytes": len(html)})
	return &Page{URL: req.URL, HTML: html, Engine: EngineFirecrawl, FetchedAt: time.Now()}, nil
}

func (f *FirecrawlFetcher) Name() string {
	return EngineFirecrawl
}

func (f *FirecrawlFetcher) Close() error {
	return nil
}
