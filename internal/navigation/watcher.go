package navigation

import (
	"context"
	"time"

	"codementor/internal/logging/types"
	"codementor/pkg/models"
)

// EventKind is what caused a route event
type EventKind string

const (
	EventLoad         EventKind = "load"
	EventPushState    EventKind = "pushState"
	EventReplaceState EventKind = "replaceState"
	EventPopState     EventKind = "popState"
	EventMutation     EventKind = "mutation"
)

// RouteEvent reports the page URL after a navigation or DOM change
type RouteEvent struct {
	Kind EventKind
	URL  string
}

// RouteSource streams route events until ctx is done or the page goes away,
// then closes the channel
type RouteSource interface {
	Events(ctx context.Context) (<-chan RouteEvent, error)
}

// Panel is the mentor UI element living in the watched page
type Panel interface {
	Exists(ctx context.Context) (bool, error)
	Inject(ctx context.Context) error
}

// Scraper produces ProblemData for the page currently at url
type Scraper interface {
	Scrape(ctx context.Context, url string) (*models.ProblemData, error)
}

// ScraperFunc adapts a function to Scraper
type ScraperFunc func(ctx context.Context, url string) (*models.ProblemData, error)

// Scrape calls f
func (f ScraperFunc) Scrape(ctx context.Context, url string) (*models.ProblemData, error) {
	return f(ctx, url)
}

// Options configures a Watcher
type Options struct {
	Debounce time.Duration
	// Sink receives every freshly scraped record
	Sink func(*models.ProblemData)
}

// Watcher re-runs the page scraper when a single-page app changes route and
// keeps the panel present
type Watcher struct {
	source    RouteSource
	panel     Panel
	scraper   Scraper
	sink      func(*models.ProblemData)
	debounce  time.Duration
	logger    types.Logger
	lastURL   string
	scrapes   int
	reinjects int
}

// NewWatcher creates a navigation watcher
func NewWatcher(source RouteSource, panel Panel, scraper Scraper, opts Options, logger types.Logger) *Watcher {
	sink := opts.Sink
	if sink == nil {
		sink = func(*models.ProblemData) {}
	}
	return &Watcher{
		source:   source,
		panel:    panel,
		scraper:  scraper,
		sink:     sink,
		debounce: opts.Debounce,
		logger:   logger.WithField("component", "navigation_watcher"),
	}
}

// Run consumes route events until ctx is cancelled or the source closes.
// Settled URLs are handled one at a time on the calling goroutine.
func (w *Watcher) Run(ctx context.Context) error {
	events, err := w.source.Events(ctx)
	if err != nil {
		return err
	}

	done := make(chan struct{})
	defer close(done)

	settled := make(chan string)
	debouncer := NewDebouncer(w.debounce, func(url string) {
		select {
		case settled <- url:
		case <-done:
		}
	})
	defer debouncer.Stop()

	w.logger.Info("Navigation watcher started", map[string]interface{}{
		"debounce": debouncer.Delay().String(),
	})

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-events:
			if !ok {
				w.logger.Info("Route source closed, stopping watcher", map[string]interface{}{
					"scrapes":   w.scrapes,
					"reinjects": w.reinjects,
				})
				return nil
			}
			w.logger.Debug("Route event", map[string]interface{}{
				"kind": string(ev.Kind),
				"url":  ev.URL,
			})
			debouncer.Trigger(ev.URL)

		case url := <-settled:
			w.handle(ctx, url)
		}
	}
}

// handle restores the panel and, when the URL moved, scrapes the new page.
// Failures are logged and the watcher keeps going.
func (w *Watcher) handle(ctx context.Context, url string) {
	w.ensurePanel(ctx)

	if url == w.lastURL {
		return
	}

	data, err := w.scraper.Scrape(ctx, url)
	if err != nil {
		w.logger.Error("Re-scrape after navigation failed", map[string]interface{}{
			"url":   url,
			"error": err.Error(),
		})
		return
	}

	w.lastURL = url
	w.scrapes++
	w.sink(data)
}

func (w *Watcher) ensurePanel(ctx context.Context) {
	if w.panel == nil {
		return
	}

	exists, err := w.panel.Exists(ctx)
	if err != nil {
		w.logger.Warn("Panel lookup failed", map[string]interface{}{"error": err.Error()})
		return
	}
	if exists {
		return
	}

	if err := w.panel.Inject(ctx); err != nil {
		w.logger.Error("Panel re-injection failed", map[string]interface{}{"error": err.Error()})
		return
	}
	w.reinjects++
	w.logger.Info("Panel re-injected")
}
