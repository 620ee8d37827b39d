// Package executor is the HTTP client for the agent executor API. It
// reads task metadata and event logs, streams live events and delivers
// step feedback. It never interprets events; reconstruction happens in
// the timeline package.
package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"taskline/internal/event"
)

// maxErrorBody bounds how much of an error response is echoed into errors.
const maxErrorBody = 4 << 10

// Task is the executor's view of one task.
type Task struct {
	ID     string       `json:"id"`
	Title  string       `json:"title,omitempty"`
	Status event.Status `json:"status"`
}

// Client talks to one executor instance.
type Client struct {
	baseURL *url.URL
	token   string
	http    *http.Client
	log     *zap.Logger
}

// NewClient builds a client for the executor at baseURL. token may be
// empty for unauthenticated local executors; a nil logger disables
// logging.
func NewClient(baseURL, token string, timeout time.Duration, log *zap.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid executor URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid executor URL %q: unsupported scheme", baseURL)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: u,
		token:   token,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}, nil
}

// Task fetches metadata for one task.
func (c *Client) Task(ctx context.Context, taskID string) (Task, error) {
	var task Task
	path := fmt.Sprintf("/api/v1/tasks/%s", url.PathEscape(taskID))
	if err := c.getJSON(ctx, path, &task); err != nil {
		return Task{}, err
	}
	return task, nil
}

// Events fetches the task's event log. sinceSeq > 0 skips that many
// leading events, letting callers resume after a spooled prefix.
func (c *Client) Events(ctx context.Context, taskID string, sinceSeq int64) ([]event.TaskEvent, error) {
	path := fmt.Sprintf("/api/v1/tasks/%s/events", url.PathEscape(taskID))
	if sinceSeq > 0 {
		path += "?since_seq=" + strconv.FormatInt(sinceSeq, 10)
	}
	var events []event.TaskEvent
	if err := c.getJSON(ctx, path, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// SendFeedback delivers one feedback action for a step. It satisfies the
// feedback.Sender interface.
func (c *Client) SendFeedback(ctx context.Context, taskID, stepID string, action event.FeedbackAction, message string) error {
	path := fmt.Sprintf("/api/v1/tasks/%s/steps/%s/feedback",
		url.PathEscape(taskID), url.PathEscape(stepID))
	body := struct {
		Action  event.FeedbackAction `json:"action"`
		Message string               `json:"message,omitempty"`
	}{Action: action, Message: message}
	return c.postJSON(ctx, path, body)
}

// Continue resumes a failed task. Bound to the continue_task action hint.
func (c *Client) Continue(ctx context.Context, taskID string) error {
	path := fmt.Sprintf("/api/v1/tasks/%s/continue", url.PathEscape(taskID))
	return c.postJSON(ctx, path, struct{}{})
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.statusError(http.MethodGet, path, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// postJSON sends a write. Every write carries a fresh request id so the
// executor can deduplicate a retried submission.
func (c *Client) postJSON(ctx context.Context, path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusNoContent {
		return c.statusError(http.MethodPost, path, resp)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// endpoint joins path onto the base URL. Anything after a "?" becomes the
// raw query; URL.Path would escape it.
func (c *Client) endpoint(path string) string {
	u := *c.baseURL
	if i := strings.IndexByte(path, '?'); i >= 0 {
		u.RawQuery = path[i+1:]
		path = path[:i]
	}
	u.Path = strings.TrimRight(u.Path, "/") + path
	return u.String()
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// statusError turns a non-2xx response into an error carrying the
// executor's own message when one is present.
func (c *Client) statusError(method, path string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var apiErr struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != "" {
		return fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, apiErr.Error)
	}
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, msg)
	}
	return fmt.Errorf("%s %s: %s", method, path, resp.Status)
}
