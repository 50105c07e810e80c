package navigation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"codementor/internal/logging"
	"codementor/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type chanSource struct {
	ch chan RouteEvent
}

func newChanSource() *chanSource {
	return &chanSource{ch: make(chan RouteEvent, 16)}
}

func (s *chanSource) Events(context.Context) (<-chan RouteEvent, error) {
	return s.ch, nil
}

type fakePanel struct {
	present  atomic.Bool
	injected atomic.Int32
}

func (p *fakePanel) Exists(context.Context) (bool, error) {
	return p.present.Load(), nil
}

func (p *fakePanel) Inject(context.Context) error {
	p.present.Store(true)
	p.injected.Add(1)
	return nil
}

type recorder struct {
	mu   sync.Mutex
	urls []string
}

func (r *recorder) scrape(_ context.Context, url string) (*models.ProblemData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.urls = append(r.urls, url)
	return models.NewProblemData(models.PlatformLeetCode, url), nil
}

func (r *recorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.urls...)
}

func TestDebouncer_CoalescesBurst(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []string
	)
	fired := make(chan struct{}, 4)
	d := NewDebouncer(MinDebounce, func(url string) {
		mu.Lock()
		calls = append(calls, url)
		mu.Unlock()
		fired <- struct{}{}
	})
	defer d.Stop()

	d.Trigger("https://leetcode.com/problems/a/")
	d.Trigger("https://leetcode.com/problems/b/")
	d.Trigger("https://leetcode.com/problems/c/")

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("debouncer never fired")
	}
	time.Sleep(MinDebounce + 100*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"https://leetcode.com/problems/c/"}, calls)
}

func TestDebouncer_ClampsDelay(t *testing.T) {
	assert.Equal(t, MinDebounce, NewDebouncer(10*time.Millisecond, func(string) {}).Delay())
	assert.Equal(t, DefaultDebounce, NewDebouncer(0, func(string) {}).Delay())
	assert.Equal(t, time.Second, NewDebouncer(time.Second, func(string) {}).Delay())
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(MinDebounce, func(string) { calls.Add(1) })

	d.Trigger("https://codeforces.com/problemset/problem/4/A")
	d.Stop()
	d.Trigger("https://codeforces.com/problemset/problem/4/B")

	time.Sleep(MinDebounce + 200*time.Millisecond)
	assert.Zero(t, calls.Load())
}

func TestWatcher_RapidRouteChangesScrapeOnce(t *testing.T) {
	source := newChanSource()
	rec := &recorder{}
	sunk := make(chan *models.ProblemData, 4)

	w := NewWatcher(source, nil, ScraperFunc(rec.scrape), Options{
		Sink: func(d *models.ProblemData) { sunk <- d },
	}, logging.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()

	source.ch <- RouteEvent{Kind: EventPushState, URL: "https://leetcode.com/problems/two-sum/"}
	source.ch <- RouteEvent{Kind: EventReplaceState, URL: "https://leetcode.com/problems/three-sum/"}
	source.ch <- RouteEvent{Kind: EventPopState, URL: "https://leetcode.com/problems/four-sum/"}

	select {
	case d := <-sunk:
		assert.Equal(t, "https://leetcode.com/problems/four-sum/", d.URL)
	case <-time.After(3 * time.Second):
		t.Fatal("no scrape after route changes")
	}

	time.Sleep(DefaultDebounce + 100*time.Millisecond)
	assert.Equal(t, []string{"https://leetcode.com/problems/four-sum/"}, rec.seen())

	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)
}

func TestWatcher_SameURLMutationRestoresPanelOnly(t *testing.T) {
	source := newChanSource()
	panel := &fakePanel{}
	rec := &recorder{}
	sunk := make(chan *models.ProblemData, 4)

	w := NewWatcher(source, panel, ScraperFunc(rec.scrape), Options{
		Sink: func(d *models.ProblemData) { sunk <- d },
	}, logging.Nop())

	errc := make(chan error, 1)
	go func() { errc <- w.Run(context.Background()) }()

	url := "https://www.codechef.com/problems/FLOW001"
	source.ch <- RouteEvent{Kind: EventLoad, URL: url}

	select {
	case <-sunk:
	case <-time.After(3 * time.Second):
		t.Fatal("initial scrape missing")
	}
	assert.Equal(t, int32(1), panel.injected.Load())

	// page removed the panel
	panel.present.Store(false)
	source.ch <- RouteEvent{Kind: EventMutation, URL: url}

	require.Eventually(t, func() bool {
		return panel.injected.Load() == 2
	}, 3*time.Second, 20*time.Millisecond)
	assert.Len(t, rec.seen(), 1)

	close(source.ch)
	assert.NoError(t, <-errc)
}

func TestWatcher_ScrapeFailureKeepsWatching(t *testing.T) {
	source := newChanSource()
	var attempts atomic.Int32
	sunk := make(chan *models.ProblemData, 4)

	scraper := ScraperFunc(func(_ context.Context, url string) (*models.ProblemData, error) {
		if attempts.Add(1) == 1 {
			return nil, errors.New("page not ready")
		}
		return models.NewProblemData(models.PlatformHackerRank, url), nil
	})
	w := NewWatcher(source, nil, scraper, Options{
		Sink: func(d *models.ProblemData) { sunk <- d },
	}, logging.Nop())

	errc := make(chan error, 1)
	go func() { errc <- w.Run(context.Background()) }()

	url := "https://www.hackerrank.com/challenges/solve-me-first/problem"
	source.ch <- RouteEvent{Kind: EventLoad, URL: url}
	require.Eventually(t, func() bool { return attempts.Load() == 1 }, 3*time.Second, 20*time.Millisecond)

	// the failed URL was never recorded, so the same URL is retried
	source.ch <- RouteEvent{Kind: EventMutation, URL: url}
	select {
	case d := <-sunk:
		assert.Equal(t, url, d.URL)
	case <-time.After(3 * time.Second):
		t.Fatal("retry scrape missing")
	}

	close(source.ch)
	assert.NoError(t, <-errc)
}

type failingSource struct{}

func (failingSource) Events(context.Context) (<-chan RouteEvent, error) {
	return nil, errors.New("target closed")
}

func TestWatcher_SourceError(t *testing.T) {
	w := NewWatcher(failingSource{}, nil, ScraperFunc((&recorder{}).scrape), Options{}, logging.Nop())
	assert.EqualError(t, w.Run(context.Background()), "target closed")
}
