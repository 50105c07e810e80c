package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"codementor/internal/app"
	"codementor/internal/platform"
	"codementor/pkg/models"
)

// mentorClient is the transport behind every command
type mentorClient interface {
	// Send routes one message and returns the raw JSON reply
	Send(ctx context.Context, msgType models.MessageType, payload map[string]interface{}) (json.RawMessage, error)
	Scrape(ctx context.Context, url, html string) (*models.ScrapeResponse, error)
	Status(ctx context.Context) (*models.HealthResponse, error)
	Close(ctx context.Context)
}

func newClient(baseURL, session string) (mentorClient, error) {
	if baseURL != "" {
		return &remoteClient{
			baseURL: baseURL,
			session: session,
			http:    &http.Client{Timeout: 3 * time.Minute},
		}, nil
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := a.Start(false); err != nil {
		a.Stop(context.Background())
		return nil, err
	}
	return &localClient{app: a, session: session}, nil
}

func envelope(msgType models.MessageType, session string, payload map[string]interface{}) ([]byte, error) {
	msg := make(map[string]interface{}, len(payload)+2)
	for k, v := range payload {
		msg[k] = v
	}
	msg["type"] = msgType
	msg["sessionId"] = session
	return json.Marshal(msg)
}

type localClient struct {
	app     *app.App
	session string
}

func (c *localClient) Send(ctx context.Context, msgType models.MessageType, payload map[string]interface{}) (json.RawMessage, error) {
	body, err := envelope(msgType, c.session, payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(c.app.Router.Dispatch(ctx, body))
}

func (c *localClient) Scrape(ctx context.Context, url, html string) (*models.ScrapeResponse, error) {
	start := time.Now()

	var (
		problem *models.ProblemData
		err     error
	)
	if html != "" {
		problem, err = c.app.Scraper.ScrapeHTML(url, html)
	} else {
		problem, err = c.app.Scraper.ScrapeURL(ctx, url)
	}
	if err != nil {
		return nil, err
	}

	engine := c.app.Scraper.Engine()
	if html != "" {
		engine = "snapshot"
	}
	return &models.ScrapeResponse{
		Success:        true,
		Problem:        problem,
		IsProblemPage:  platform.IsProblemPage(problem.Platform, url),
		ProcessingTime: time.Since(start),
		Engine:         engine,
	}, nil
}

func (c *localClient) Status(ctx context.Context) (*models.HealthResponse, error) {
	checks := map[string]string{}
	status := "operational"
	for name, check := range c.app.Checks() {
		if err := check(ctx); err != nil {
			checks[name] = "error: " + err.Error()
			status = "degraded"
			continue
		}
		checks[name] = "ok"
	}
	checks["llm_provider"] = c.app.LLM.GetProviderName()
	checks["fetch_engine"] = c.app.Scraper.Engine()

	return &models.HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Version:   "local",
		Checks:    checks,
	}, nil
}

func (c *localClient) Close(ctx context.Context) {
	c.app.Stop(ctx)
}

type remoteClient struct {
	baseURL string
	session string
	http    *http.Client
}

func (c *remoteClient) Send(ctx context.Context, msgType models.MessageType, payload map[string]interface{}) (json.RawMessage, error) {
	body, err := envelope(msgType, c.session, payload)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPost, "/api/v1/messages", body)
}

func (c *remoteClient) Scrape(ctx context.Context, url, html string) (*models.ScrapeResponse, error) {
	body, err := json.Marshal(models.ScrapeRequest{URL: url, HTML: html})
	if err != nil {
		return nil, err
	}
	data, err := c.do(ctx, http.MethodPost, "/api/v1/scrape", body)
	if err != nil {
		return nil, err
	}

	var resp models.ScrapeResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("invalid response: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("scrape failed: %s", resp.Error)
	}
	return &resp, nil
}

func (c *remoteClient) Status(ctx context.Context) (*models.HealthResponse, error) {
	data, err := c.do(ctx, http.MethodGet, "/status", nil)
	if err != nil {
		return nil, err
	}

	var resp models.HealthResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("invalid response: %w", err)
	}
	return &resp, nil
}

func (c *remoteClient) Close(context.Context) {
	c.http.CloseIdleConnections()
}

// do returns the body of any response the server produced, including error
// statuses that carry a JSON body
func (c *remoteClient) do(ctx context.Context, method, path string, body []byte) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 300 && !json.Valid(data) {
		return nil, fmt.Errorf("%s %s failed: %s", method, path, resp.Status)
	}
	return data, nil
}

// decodeReply unpacks a routed reply, turning success=false into an error
func decodeReply[T any](data json.RawMessage) (*T, error) {
	var result models.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("invalid response: %w", err)
	}
	if !result.Success {
		return nil, fmt.Errorf("%s: %s", result.Code, result.Error)
	}

	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("invalid response: %w", err)
	}
	return &out, nil
}
