package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"codementor/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelope_AddsTypeAndSession(t *testing.T) {
	body, err := envelope(models.MessageHintLadder, "abc", map[string]interface{}{"level": 2})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"HINT_LADDER","sessionId":"abc","level":2}`, string(body))
}

func TestDecodeReply(t *testing.T) {
	resp, err := decodeReply[models.HintResponse](json.RawMessage(`{"success":true,"level":2,"hint":"look at pairs","hintsUsed":2}`))
	require.NoError(t, err)
	assert.Equal(t, "look at pairs", resp.Hint)
	assert.Equal(t, 2, resp.Level)

	_, err = decodeReply[models.HintResponse](json.RawMessage(`{"success":false,"error":"all hints used for this problem","code":"VALIDATION_ERROR"}`))
	assert.EqualError(t, err, "VALIDATION_ERROR: all hints used for this problem")

	_, err = decodeReply[models.HintResponse](json.RawMessage(`not json`))
	assert.Error(t, err)
}

func TestRemoteClient_Send(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/messages", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &got)
		_, _ = w.Write([]byte(`{"success":true,"reply":"hi","approaches":[]}`))
	}))
	defer srv.Close()

	c := &remoteClient{baseURL: srv.URL, session: "cli", http: srv.Client()}
	data, err := c.Send(context.Background(), models.MessageUserQuery, map[string]interface{}{"query": "help"})
	require.NoError(t, err)

	resp, err := decodeReply[models.UserQueryResponse](data)
	require.NoError(t, err)
	assert.Equal(t, "hi", resp.Reply)
	assert.Equal(t, "USER_QUERY", got["type"])
	assert.Equal(t, "cli", got["sessionId"])
	assert.Equal(t, "help", got["query"])
}

func TestRemoteClient_ScrapeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"success":false,"error":"upstream returned 503"}`))
	}))
	defer srv.Close()

	c := &remoteClient{baseURL: srv.URL, http: srv.Client()}
	_, err := c.Scrape(context.Background(), "https://leetcode.com/problems/two-sum/", "")
	assert.EqualError(t, err, "scrape failed: upstream returned 503")
}

func TestRemoteClient_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := &remoteClient{baseURL: srv.URL, http: srv.Client()}
	_, err := c.Status(context.Background())
	assert.ErrorContains(t, err, "GET /status failed: 502")
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", excerpt("short", 10))
	assert.Equal(t, "abc...", excerpt("abcdef", 3))
}
