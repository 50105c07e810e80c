package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"codementor/internal/config"
	"codementor/internal/logging"
	"codementor/internal/session"
	"codementor/pkg/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, geminiURL string) *App {
	t.Helper()

	cfg := config.Default()
	cfg.LLM.BaseURL = geminiURL
	cfg.LLM.MaxAttempts = 1

	a, err := NewWithStore(cfg, session.NewMemoryStore(), logging.Nop())
	require.NoError(t, err)
	require.NoError(t, a.Start(false))
	t.Cleanup(func() { a.Stop(context.Background()) })
	return a
}

func geminiServer(t *testing.T, text string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":` + quote(text) + `}]}}]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestNewStore_Backends(t *testing.T) {
	cfg := config.Default()

	store, err := NewStore(cfg, logging.Nop())
	require.NoError(t, err)
	assert.IsType(t, &session.MemoryStore{}, store)

	cfg.Storage.Backend = "sqlite"
	_, err = NewStore(cfg, logging.Nop())
	assert.EqualError(t, err, "unsupported storage backend: sqlite")
}

func TestNewWithStore_UnknownEngine(t *testing.T) {
	cfg := config.Default()
	cfg.Scraper.Engine = "carrier-pigeon"

	_, err := NewWithStore(cfg, session.NewMemoryStore(), logging.Nop())
	assert.Error(t, err)
}

func TestChecks_LLMNeedsKey(t *testing.T) {
	a := newTestApp(t, geminiServer(t, "ok").URL)
	ctx := context.Background()

	checks := a.Checks()
	require.Contains(t, checks, "storage")
	require.Contains(t, checks, "llm")
	assert.NoError(t, checks["storage"](ctx))
	assert.Error(t, checks["llm"](ctx))

	require.NoError(t, a.Repo.SetAPIKey(ctx, "test-key"))
	assert.NoError(t, checks["llm"](ctx))
}

func TestNudge_UsesCompletion(t *testing.T) {
	a := newTestApp(t, geminiServer(t, "Check your loop bounds, then ask for a hint.").URL)
	ctx := context.Background()
	require.NoError(t, a.Repo.SetAPIKey(ctx, "test-key"))

	s := session.New("s1", time.Now())
	s.SecondsElapsed = 1900
	assert.Equal(t, "Check your loop bounds, then ask for a hint.", a.nudge(ctx, s))
}

func TestNudge_FallsBackWithoutKey(t *testing.T) {
	a := newTestApp(t, geminiServer(t, "unused").URL)

	s := session.New("s1", time.Now())
	s.SecondsElapsed = 1800
	assert.Equal(t, "You've been working on this for 30 minutes. Would you like a hint to help you progress?",
		a.nudge(context.Background(), s))
}

func TestRouter_EndToEnd(t *testing.T) {
	a := newTestApp(t, geminiServer(t, `{"reply":"Think about complements.","approaches":[{"name":"Hash map","time":"O(n)"}]}`).URL)
	ctx := context.Background()
	require.NoError(t, a.Repo.SetAPIKey(ctx, "test-key"))

	problem := models.NewProblemData(models.PlatformLeetCode, "https://leetcode.com/problems/two-sum/")
	body, err := json.Marshal(map[string]interface{}{
		"type":        "USER_QUERY",
		"sessionId":   "s1",
		"query":       "how do I start?",
		"problemData": problem,
	})
	require.NoError(t, err)

	out, err := json.Marshal(a.Router.Dispatch(ctx, body))
	require.NoError(t, err)
	assert.Contains(t, string(out), `"success":true`)
	assert.Contains(t, string(out), "Think about complements.")

	saved, err := a.Repo.Approaches(ctx, problem.URL)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "Hash map", saved[0].Name)
}

func TestNewStore_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Default()
	cfg.Storage.Backend = "redis"
	cfg.Redis.URL = "redis://" + mr.Addr()

	store, err := NewStore(cfg, logging.Nop())
	require.NoError(t, err)
	assert.IsType(t, &session.RedisStore{}, store)
	require.NoError(t, store.Close())

	cfg.Redis.URL = "redis//bad"
	store, err = NewStore(cfg, logging.Nop())
	assert.Error(t, err)
	assert.Nil(t, store)
}
