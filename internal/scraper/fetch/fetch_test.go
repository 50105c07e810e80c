package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"codementor/internal/logging"
	"codementor/internal/scraper/workers"
	"codementor/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	name  string
	html  string
	err   error
	calls int
}

func (s *stubFetcher) Fetch(_ context.Context, req Request) (*Page, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &Page{URL: req.URL, HTML: s.html, Engine: s.name}, nil
}

func (s *stubFetcher) Name() string { return s.name }
func (s *stubFetcher) Close() error { return nil }

func TestStaticFetcher_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "codementor-test", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`<div class="problem-statement">Watermelon</div>`))
	}))
	defer srv.Close()

	f := NewStaticFetcher("codementor-test", 5*time.Second, logging.Nop())
	page, err := f.Fetch(context.Background(), Request{URL: srv.URL})
	require.NoError(t, err)
	assert.Contains(t, page.HTML, "Watermelon")
	assert.Equal(t, EngineStatic, page.Engine)
}

func TestStaticFetcher_Challenge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`<title>Just a moment...</title>`))
	}))
	defer srv.Close()

	_, err := NewStaticFetcher("", 5*time.Second, logging.Nop()).Fetch(context.Background(), Request{URL: srv.URL})
	assert.True(t, isCaptcha(err))
}

func TestStaticFetcher_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewStaticFetcher("", 5*time.Second, logging.Nop()).Fetch(context.Background(), Request{URL: srv.URL})
	var ce *utils.CustomError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, http.StatusTooManyRequests, ce.Code)
}

func TestHybridFetcher_FallsBackOnCaptcha(t *testing.T) {
	primary := &stubFetcher{name: "primary", err: utils.NewCaptchaError("turnstile")}
	fallback := &stubFetcher{name: "fallback", html: "<p>ok</p>"}
	domains := NewCaptchaDomains(filepath.Join(t.TempDir(), "domains.txt"), logging.Nop())
	h := NewHybridFetcher(primary, fallback, domains, logging.Nop())

	url := "https://www.codechef.com/problems/FLOW001"
	page, err := h.Fetch(context.Background(), Request{URL: url})
	require.NoError(t, err)
	assert.Equal(t, "fallback", page.Engine)
	assert.True(t, domains.Known(url))

	// second fetch skips the primary entirely
	_, err = h.Fetch(context.Background(), Request{URL: url})
	require.NoError(t, err)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 2, fallback.calls)
}

func TestHybridFetcher_OtherErrorsPropagate(t *testing.T) {
	boom := errors.New("navigation failed")
	primary := &stubFetcher{name: "primary", err: boom}
	fallback := &stubFetcher{name: "fallback"}
	h := NewHybridFetcher(primary, fallback, NewCaptchaDomains("", logging.Nop()), logging.Nop())

	_, err := h.Fetch(context.Background(), Request{URL: "https://leetcode.com/problems/two-sum/"})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, fallback.calls)
}

func TestCaptchaDomains_Persist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "domains.txt")
	NewCaptchaDomains(path, logging.Nop()).Add("https://www.hackerrank.com/challenges/x/problem")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "www.hackerrank.com\t")

	reloaded := NewCaptchaDomains(path, logging.Nop())
	assert.True(t, reloaded.Known("https://www.hackerrank.com/challenges/y/problem"))
	assert.Equal(t, 1, reloaded.Count())
}

func TestLimited_OpenCircuitRejects(t *testing.T) {
	inner := &stubFetcher{name: "inner", err: errors.New("down")}
	limiter := workers.NewRateLimiter(workers.LimiterConfig{
		RequestsPerMinute: 6000,
		Burst:             10,
		MaxFailures:       1,
		ResetTimeout:      time.Hour,
	}, logging.Nop())
	l := NewLimited(inner, limiter)

	_, err := l.Fetch(context.Background(), Request{URL: "https://codeforces.com/problemset/problem/4/A"})
	require.Error(t, err)

	_, err = l.Fetch(context.Background(), Request{URL: "https://codeforces.com/problemset/problem/4/A"})
	var ce *utils.CustomError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, http.StatusTooManyRequests, ce.Code)
	assert.Equal(t, 1, inner.calls)
}

func TestNew_UnknownEngine(t *testing.T) {
	_, err := New("carrier-pigeon", nil, logging.Nop())
	assert.Error(t, err)
}
