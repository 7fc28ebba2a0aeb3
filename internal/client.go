package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultRequestTimeout = 15 * time.Second

// Client is the bearer-token REST client for the backend's /api surface.
// Requests carry a bounded timeout; timeouts surface as *TimeoutError, 401
// responses as *AuthError, and other failures as *RequestError. The client
// never retries: backoff is the streaming transport's concern only.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a client for the given server URL. A zero timeout uses
// the default.
func NewClient(serverURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Client{
		baseURL: trimTrailingSlash(serverURL),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// Token returns the bearer token the client was built with.
func (c *Client) Token() string {
	return c.token
}

// BaseURL returns the normalized backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func trimTrailingSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

// errorBody is the backend's error response shape.
type errorBody struct {
	Error  string `json:"error,omitempty"`
	Detail string `json:"detail,omitempty"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &RequestError{Method: method, Path: path, Err: err}
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/api"+path, reqBody)
	if err != nil {
		return &RequestError{Method: method, Path: path, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		var uerr *url.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &uerr) && uerr.Timeout()) {
			return &TimeoutError{Method: method, Path: path, Err: err}
		}
		return &RequestError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return &AuthError{Path: path}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		detail := fmt.Sprintf("HTTP %d", resp.StatusCode)
		if err := json.NewDecoder(resp.Body).Decode(&eb); err == nil {
			if eb.Detail != "" {
				detail = eb.Detail
			} else if eb.Error != "" {
				detail = eb.Error
			}
		}
		return &RequestError{Method: method, Path: path, Status: resp.StatusCode, Detail: detail}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RequestError{Method: method, Path: path, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

// Login exchanges the admin password for a bearer token. The only endpoint
// callable without a token.
func (c *Client) Login(ctx context.Context, password string) (string, error) {
	var out struct {
		AccessToken string `json:"access_token"`
	}
	req := map[string]string{"password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", req, &out); err != nil {
		return "", err
	}
	return out.AccessToken, nil
}

// ListSessions returns all sessions in server-defined order.
func (c *Client) ListSessions(ctx context.Context) ([]Session, error) {
	var out struct {
		Sessions []Session `json:"sessions"`
	}
	if err := c.do(ctx, http.MethodGet, "/sessions", nil, &out); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

// GetSession fetches one session with its full message history.
func (c *Client) GetSession(ctx context.Context, id string) (*SessionDetail, error) {
	var out SessionDetail
	if err := c.do(ctx, http.MethodGet, "/sessions/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateSession creates a new session server-side.
func (c *Client) CreateSession(ctx context.Context) (*Session, error) {
	var out Session
	if err := c.do(ctx, http.MethodPost, "/sessions", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteSession deletes a session and its history.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/sessions/"+url.PathEscape(id), nil, nil)
}

// GetConfig fetches the backend's agent configuration.
func (c *Client) GetConfig(ctx context.Context) (*AgentConfig, error) {
	var out AgentConfig
	if err := c.do(ctx, http.MethodGet, "/config", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateConfig applies a partial configuration update and returns the new
// effective config.
func (c *Client) UpdateConfig(ctx context.Context, upd AgentConfigUpdate) (*AgentConfig, error) {
	var out AgentConfig
	if err := c.do(ctx, http.MethodPut, "/config", upd, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Providers lists the selectable LLM providers.
func (c *Client) Providers(ctx context.Context) ([]ProviderInfo, error) {
	var out struct {
		Providers []ProviderInfo `json:"providers"`
	}
	if err := c.do(ctx, http.MethodGet, "/config/providers", nil, &out); err != nil {
		return nil, err
	}
	return out.Providers, nil
}

// TestConnection validates the current LLM provider credentials.
func (c *Client) TestConnection(ctx context.Context) (bool, string, error) {
	var out struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/config/test-connection", nil, &out); err != nil {
		return false, "", err
	}
	return out.Success, out.Message, nil
}

// GetLogs fetches a page of backend logs, optionally filtered by level.
func (c *Client) GetLogs(ctx context.Context, level string, limit, offset int) (*LogsPage, error) {
	q := url.Values{}
	if level != "" {
		q.Set("level", level)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	path := "/logs"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out LogsPage
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ClearLogs removes all backend logs.
func (c *Client) ClearLogs(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/logs", nil, nil)
}

// ListSkills returns the skill registry.
func (c *Client) ListSkills(ctx context.Context) ([]Skill, error) {
	var out struct {
		Skills []Skill `json:"skills"`
	}
	if err := c.do(ctx, http.MethodGet, "/skills", nil, &out); err != nil {
		return nil, err
	}
	return out.Skills, nil
}

// GetSkill fetches one skill including its content.
func (c *Client) GetSkill(ctx context.Context, id string) (*Skill, error) {
	var out Skill
	if err := c.do(ctx, http.MethodGet, "/skills/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SkillUpdate carries a partial skill update.
type SkillUpdate struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Content     *string `json:"content,omitempty"`
	Enabled     *bool   `json:"enabled,omitempty"`
}

// CreateSkill registers a new skill.
func (c *Client) CreateSkill(ctx context.Context, name, description, content string, enabled bool) (*Skill, error) {
	req := map[string]interface{}{
		"name":        name,
		"description": description,
		"content":     content,
		"enabled":     enabled,
	}
	var out Skill
	if err := c.do(ctx, http.MethodPost, "/skills", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateSkill applies a partial update to a skill.
func (c *Client) UpdateSkill(ctx context.Context, id string, upd SkillUpdate) (*Skill, error) {
	var out Skill
	if err := c.do(ctx, http.MethodPut, "/skills/"+url.PathEscape(id), upd, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteSkill removes a skill from the registry.
func (c *Client) DeleteSkill(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/skills/"+url.PathEscape(id), nil, nil)
}

// ListMemory returns the agent's persistent memory files with content.
func (c *Client) ListMemory(ctx context.Context) ([]MemoryFile, error) {
	var out []MemoryFile
	if err := c.do(ctx, http.MethodGet, "/memory", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetMemory fetches one memory file.
func (c *Client) GetMemory(ctx context.Context, filename string) (*MemoryFile, error) {
	var out MemoryFile
	if err := c.do(ctx, http.MethodGet, "/memory/"+url.PathEscape(filename), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PutMemory replaces a memory file's content.
func (c *Client) PutMemory(ctx context.Context, filename, content string) error {
	req := map[string]string{"content": content}
	return c.do(ctx, http.MethodPut, "/memory/"+url.PathEscape(filename), req, nil)
}

// ListTools returns the static tool catalog.
func (c *Client) ListTools(ctx context.Context) ([]ToolInfo, error) {
	var out []ToolInfo
	if err := c.do(ctx, http.MethodGet, "/tools", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GatewayStatus returns per-platform gateway status.
func (c *Client) GatewayStatus(ctx context.Context) ([]GatewayPlatform, error) {
	var out struct {
		Platforms []GatewayPlatform `json:"platforms"`
	}
	if err := c.do(ctx, http.MethodGet, "/gateway/status", nil, &out); err != nil {
		return nil, err
	}
	return out.Platforms, nil
}

// ListCronJobs returns all scheduled jobs.
func (c *Client) ListCronJobs(ctx context.Context) ([]CronJob, error) {
	var out []CronJob
	if err := c.do(ctx, http.MethodGet, "/cron/jobs", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateCronJob schedules a new job.
func (c *Client) CreateCronJob(ctx context.Context, name, schedule, command string, enabled bool) (*CronJob, error) {
	req := map[string]interface{}{
		"name":     name,
		"schedule": schedule,
		"command":  command,
		"enabled":  enabled,
	}
	var out CronJob
	if err := c.do(ctx, http.MethodPost, "/cron/jobs", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteCronJob removes a scheduled job.
func (c *Client) DeleteCronJob(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/cron/jobs/"+url.PathEscape(id), nil, nil)
}

// GetHealth fetches the backend health report.
func (c *Client) GetHealth(ctx context.Context) (*Health, error) {
	var out Health
	if err := c.do(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
