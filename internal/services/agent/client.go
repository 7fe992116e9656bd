package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/NordCoder/Proberus/internal/domain/task"
)

// Client executes authenticated requests against the orchestrator API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
	agentID    int64
}

func NewClient(baseURL, token string, timeout time.Duration) (*Client, error) {
	normalized, err := normalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, errors.New("agent token is required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:    normalized,
		httpClient: &http.Client{Timeout: timeout},
		token:      token,
	}, nil
}

// WithHTTPClient overrides the default http.Client. Primarily useful for testing.
func (c *Client) WithHTTPClient(httpClient *http.Client) {
	if httpClient != nil {
		c.httpClient = httpClient
	}
}

func normalizeBaseURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errors.New("orchestrator base URL is required")
	}

	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("invalid orchestrator base URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("invalid orchestrator base URL: %s", raw)
	}

	parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	parsed.RawQuery = ""
	parsed.Fragment = ""

	return strings.TrimSuffix(parsed.String(), "/"), nil
}

// Register announces the agent and remembers the assigned id for later calls.
func (c *Client) Register(ctx context.Context, name, location, ip string) (int64, error) {
	body := map[string]string{
		"name":     name,
		"location": location,
		"ip":       ip,
		"token":    c.token,
	}

	var payload struct {
		AgentID int64 `json:"agent_id"`
	}
	if err := c.postJSON(ctx, "/api/agents", body, &payload); err != nil {
		return 0, fmt.Errorf("register agent: %w", err)
	}
	if payload.AgentID == 0 {
		return 0, errors.New("register response did not contain agent_id")
	}

	c.agentID = payload.AgentID
	return payload.AgentID, nil
}

func (c *Client) Heartbeat(ctx context.Context) error {
	body := map[string]any{"agent_id": c.agentID, "token": c.token}
	if err := c.postJSON(ctx, "/api/agents/heartbeat", body, nil); err != nil {
		return fmt.Errorf("heartbeat: %w", err)
	}
	return nil
}

func (c *Client) PullTasks(ctx context.Context) ([]task.Task, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/agent/tasks", nil)
	if err != nil {
		return nil, fmt.Errorf("create pull request: %w", err)
	}

	var payload struct {
		Tasks []task.Task `json:"tasks"`
	}
	if err := c.do(req, &payload); err != nil {
		return nil, fmt.Errorf("pull tasks: %w", err)
	}
	return payload.Tasks, nil
}

func (c *Client) SubmitResult(ctx context.Context, taskID string, success bool, output, errText string) error {
	if taskID == "" {
		return errors.New("task id is required")
	}

	body := map[string]any{
		"task_id":  taskID,
		"agent_id": c.agentID,
		"results": map[string]any{
			"success": success,
			"output":  output,
			"error":   errText,
		},
	}
	if err := c.postJSON(ctx, "/api/agent/results", body, nil); err != nil {
		return fmt.Errorf("submit result: %w", err)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if urlErr, ok := err.(*url.Error); ok {
			return fmt.Errorf("execute request: %s", urlErr.Err)
		}
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		if len(b) == 0 {
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(b))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
