package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"codementor/internal/api/handlers"
	"codementor/internal/background"
	"codementor/internal/config"
	"codementor/internal/logging"
	"codementor/internal/platform"
	"codementor/internal/router"
	"codementor/internal/scraper"
	"codementor/internal/session"
	"codementor/pkg/models"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cannedCompleter string

func (c cannedCompleter) Complete(context.Context, string) (string, error) {
	return string(c), nil
}

func newServer(t *testing.T, checks map[string]handlers.Checker) *echo.Echo {
	t.Helper()

	repo := session.NewRepository(session.NewMemoryStore(), logging.Nop())
	deps := Dependencies{
		Router:  router.New(cannedCompleter(`{"reply":"Start with a map","approaches":[{"name":"Hash map"}]}`), repo, router.Options{}, logging.Nop()),
		Scraper: scraper.New(platform.NewRegistry(), nil, time.Second, logging.Nop()),
		Checks:  checks,
	}

	e := echo.New()
	SetupRoutes(e, config.Default(), deps)
	return e
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestMessages(t *testing.T) {
	e := newServer(t, nil)

	rec := do(e, http.MethodPost, "/api/v1/messages", `{"type":"USER_QUERY","sessionId":"tab","query":"How do I start?"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	var got models.UserQueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Success)
	assert.Equal(t, "tab", got.SessionID)
	assert.Equal(t, "Start with a map", got.Reply)
	assert.Len(t, got.Approaches, 1)

	rec = do(e, http.MethodPost, "/api/v1/messages", `{"type":"NOT_A_THING"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var failed models.AckResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &failed))
	assert.False(t, failed.Success)
	assert.Equal(t, models.CodeUnknownMessage, failed.Code)
}

func TestMessageTypes(t *testing.T) {
	rec := do(newServer(t, nil), http.MethodGet, "/api/v1/messages/types", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "HINT_LADDER")
}

func TestScrapeSnapshot(t *testing.T) {
	e := newServer(t, nil)

	body := `{"url":"https://leetcode.com/problems/two-sum/","html":"<html><head><title>Two Sum - LeetCode</title></head><body></body></html>"}`
	rec := do(e, http.MethodPost, "/api/v1/scrape", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.ScrapeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Success)
	assert.True(t, got.IsProblemPage)
	assert.Equal(t, "snapshot", got.Engine)
	require.NotNil(t, got.Problem)
	assert.Equal(t, models.PlatformLeetCode, got.Problem.Platform)
	assert.NotNil(t, got.Problem.ScrapedSolutions)
}

func TestScrapeErrors(t *testing.T) {
	e := newServer(t, nil)

	rec := do(e, http.MethodPost, "/api/v1/scrape", `{"html":"<p></p>"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodPost, "/api/v1/scrape", `{"url":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// problem page but no fetch engine
	rec = do(e, http.MethodPost, "/api/v1/scrape", `{"url":"https://codeforces.com/problemset/problem/4/A"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	// not a problem page: reported without fetching
	rec = do(e, http.MethodPost, "/api/v1/scrape", `{"url":"https://leetcode.com/explore/"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var got models.ScrapeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.False(t, got.IsProblemPage)
}

func TestPlatforms(t *testing.T) {
	rec := do(newServer(t, nil), http.MethodGet, "/api/v1/platforms", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Platforms []models.PlatformInfo `json:"platforms"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Platforms, 4)
	assert.Equal(t, models.PlatformLeetCode, got.Platforms[0].ID)
	assert.Equal(t, "1.2s", got.Platforms[3].SettleDelay)
}

func TestFetchStatsWithoutEngine(t *testing.T) {
	rec := do(newServer(t, nil), http.MethodGet, "/api/v1/fetch/stats", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	e := newServer(t, map[string]handlers.Checker{
		"storage": func(context.Context) error { return nil },
		"llm":     func(context.Context) error { return errors.New("no API key configured") },
	})

	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/health/live", "").Code)

	rec := do(e, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var ready models.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ready))
	assert.Equal(t, "ok", ready.Checks["storage"])
	assert.Equal(t, "error: no API key configured", ready.Checks["llm"])

	rec = do(e, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"degraded"`)
}

func TestScrapeJobs(t *testing.T) {
	s := scraper.New(platform.NewRegistry(), nil, time.Second, logging.Nop())
	jobs := background.NewTaskManager(s, background.Options{Workers: 1}, logging.Nop())
	require.NoError(t, jobs.Start(context.Background()))
	t.Cleanup(func() { _ = jobs.Stop(context.Background()) })

	e := echo.New()
	SetupRoutes(e, config.Default(), Dependencies{Scraper: s, Jobs: jobs})

	rec := do(e, http.MethodPost, "/api/v1/scrape/jobs", `{"url":"https://leetcode.com/problems/two-sum/","html":"<html><body><p>Given an array</p></body></html>"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var accepted background.TaskResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accepted))
	assert.Equal(t, background.TaskStatusAccepted, accepted.Status)
	assert.Equal(t, "snapshot", accepted.Engine)

	require.Eventually(t, func() bool {
		rec := do(e, http.MethodGet, "/api/v1/scrape/jobs/"+accepted.ProcessID, "")
		var got background.TaskResult
		if rec.Code != http.StatusOK || json.Unmarshal(rec.Body.Bytes(), &got) != nil {
			return false
		}
		return got.Status == background.TaskStatusSuccess && got.Problem.Platform == models.PlatformLeetCode
	}, 3*time.Second, 20*time.Millisecond)

	rec = do(e, http.MethodGet, "/api/v1/scrape/jobs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), accepted.ProcessID)

	rec = do(e, http.MethodGet, "/api/v1/scrape/jobs/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(e, http.MethodPost, "/api/v1/scrape/jobs", `{"url":"not a url"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
