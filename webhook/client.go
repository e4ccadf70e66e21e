// Package webhook posts user messages to the agent endpoint and returns its
// plain-text reply.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// StatusError is returned when the webhook answers with a non-2xx status.
// The response body is discarded.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
}

type Reply struct {
	Text       string
	StatusCode int
	Metrics    *NetworkMetrics
}

// Sender delivers one message and waits for the reply.
type Sender interface {
	Send(ctx context.Context, text string) (Reply, error)
}

type payload struct {
	Message string `json:"message"`
}

type Client struct {
	url  string
	http *TracedClient
}

func New(endpoint string, timeout time.Duration) *Client {
	return &Client{url: endpoint, http: NewTracedClient(timeout)}
}

func (c *Client) URL() string { return c.url }

// Send POSTs {"message": text} once. There is no retry.
func (c *Client) Send(ctx context.Context, text string) (Reply, error) {
	body, err := json.Marshal(payload{Message: text})
	if err != nil {
		return Reply{}, fmt.Errorf("encoding payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Reply{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Reply{}, fmt.Errorf("posting to webhook: %w", err)
	}

	reply := Reply{StatusCode: resp.StatusCode, Metrics: resp.Metrics}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return reply, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}
	reply.Text = string(resp.Body)
	return reply, nil
}

// Ping sends a HEAD request and reports how long the round trip took.
// Any HTTP answer counts as reachable; webhook hosts often reject HEAD.
func (c *Client) Ping(ctx context.Context) (time.Duration, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.url, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("building request: %w", err)
	}
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("reaching webhook: %w", err)
	}
	return time.Since(start), resp.StatusCode, nil
}

// Reason renders a send failure the way it is shown to the user: the status
// line for HTTP errors, otherwise the innermost transport error.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Error()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		if ue.Timeout() {
			return "timeout"
		}
		return ue.Err.Error()
	}
	return err.Error()
}
