package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"codementor/internal/llm/providers"
	"codementor/internal/logging"
	"codementor/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return nil
}

// geminiServer answers with statuses in order, then 200 with text
func geminiServer(t *testing.T, statuses []int, text string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(calls.Add(1))
		assert.Equal(t, "/models/gemini-2.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var body struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hello", body.Contents[0].Parts[0].Text)

		w.Header().Set("Content-Type", "application/json")
		if n <= len(statuses) {
			w.WriteHeader(statuses[n-1])
			_, _ = w.Write([]byte(`{"error":{"message":"upstream says no"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":` + jsonString(text) + `}]}}]}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func newTestClient(baseURL string, keys KeySource, sleeps *sleepRecorder) *Client {
	policy := DefaultRetryPolicy()
	policy.Sleep = sleeps.sleep
	provider := providers.NewGeminiProvider(baseURL, "gemini-2.5-flash", nil, logging.Nop())
	return NewClient(provider, keys, policy, 5*time.Second, logging.Nop())
}

func TestComplete_Success(t *testing.T) {
	srv, calls := geminiServer(t, nil, "```json\n{\"reply\":\"hi\"}\n```")
	sleeps := &sleepRecorder{}

	text, err := newTestClient(srv.URL, StaticKey("test-key"), sleeps).Complete(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, `{"reply":"hi"}`, text)
	assert.Equal(t, int32(1), calls.Load())
	assert.Empty(t, sleeps.delays)
}

func TestComplete_RetriesServerErrorsWithLinearBackoff(t *testing.T) {
	srv, calls := geminiServer(t, []int{http.StatusTooManyRequests, http.StatusInternalServerError}, "third time lucky")
	sleeps := &sleepRecorder{}

	text, err := newTestClient(srv.URL, StaticKey("test-key"), sleeps).Complete(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "third time lucky", text)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeps.delays)
}

func TestComplete_RetriesExhausted(t *testing.T) {
	srv, calls := geminiServer(t, []int{503, 503, 503, 503}, "never")
	sleeps := &sleepRecorder{}

	_, err := newTestClient(srv.URL, StaticKey("test-key"), sleeps).Complete(context.Background(), "hello")

	var exhausted *RetriesExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeps.delays)
	assert.Equal(t, models.CodeRetriesExhausted, ErrorCode(err))
}

func TestComplete_BadRequestFailsImmediately(t *testing.T) {
	srv, calls := geminiServer(t, []int{http.StatusBadRequest}, "unused")
	sleeps := &sleepRecorder{}

	_, err := newTestClient(srv.URL, StaticKey("test-key"), sleeps).Complete(context.Background(), "hello")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "upstream says no", apiErr.Message)
	assert.Equal(t, int32(1), calls.Load())
	assert.Empty(t, sleeps.delays)
	assert.Equal(t, models.CodeAPIError, ErrorCode(err))
	assert.Equal(t, "upstream says no", UserMessage(err))
}

func TestComplete_NoAPIKey(t *testing.T) {
	srv, calls := geminiServer(t, nil, "unused")

	_, err := newTestClient(srv.URL, FallbackKeys{StaticKey(""), nil}, &sleepRecorder{}).Complete(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrNoAPIKey)
	assert.Zero(t, calls.Load())
	assert.Equal(t, models.CodeNoAPIKey, ErrorCode(err))
}

func TestComplete_MissingCandidateReturnsSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	text, err := newTestClient(srv.URL, StaticKey("test-key"), &sleepRecorder{}).Complete(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, providers.NoTextSentinel, text)
}

func TestRetryPolicy_TransportErrorsAreNotRetried(t *testing.T) {
	sleeps := &sleepRecorder{}
	policy := DefaultRetryPolicy()
	policy.Sleep = sleeps.sleep

	calls := 0
	boom := errors.New("connection reset")
	_, err := policy.Do(context.Background(), logging.Nop(), func(context.Context) (string, error) {
		calls++
		return "", boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicy_SleepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	policy := DefaultRetryPolicy()
	_, err := policy.Do(ctx, logging.Nop(), func(context.Context) (string, error) {
		return "", &APIError{Status: 500, Message: "down"}
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsRetryableStatus(t *testing.T) {
	assert.True(t, IsRetryableStatus(429))
	assert.True(t, IsRetryableStatus(500))
	assert.True(t, IsRetryableStatus(503))
	assert.False(t, IsRetryableStatus(400))
	assert.False(t, IsRetryableStatus(401))
	assert.False(t, IsRetryableStatus(404))
}

func TestCleanResponse(t *testing.T) {
	assert.Equal(t, `{"a":1}`, CleanResponse("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, CleanResponse("```JSON{\"a\":1}```"))
	assert.Equal(t, "plain", CleanResponse("  plain \n"))
}

func TestParseStructured(t *testing.T) {
	got := ParseStructured(`{"reply":"hi","approaches":[{"name":"A"}]}`)
	assert.Equal(t, "hi", got.Reply)
	assert.Equal(t, []models.Approach{{Name: "A"}}, got.Approaches)

	got = ParseStructured("plain text")
	assert.Equal(t, "plain text", got.Reply)
	assert.NotNil(t, got.Approaches)
	assert.Empty(t, got.Approaches)

	got = ParseStructured(`{"reply":"ok","approaches":"none"}`)
	assert.Equal(t, "ok", got.Reply)
	assert.Empty(t, got.Approaches)

	got = ParseStructured(`{"approaches":[]}`)
	assert.Equal(t, "No explanation generated.", got.Reply)
}

func TestDecodeJSON_ParseError(t *testing.T) {
	var v map[string]interface{}
	err := DecodeJSON("not json", &v)

	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)
}
