// Package ai is the HTTP client for the external plan orchestrator.
// The orchestrator owns all generation logic; this client only forwards
// enriched payloads and relays responses.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrUpstreamUnavailable marks a transport-level failure reaching the
// orchestrator (connection refused, DNS, timeout). Handlers map it to
// 502; upstream application errors are relayed with their own status
// instead.
var ErrUpstreamUnavailable = errors.New("ai orchestrator unreachable")

const defaultTimeout = 30 * time.Second

// Paths on the orchestrator.
const (
	pathGenerate = "/routines/generate"
	pathAdapt    = "/routines/adapt"
	pathExplain  = "/routines/explain"
	pathChat     = "/chat"
)

// Response is an orchestrator reply, relayed to the caller verbatim.
// StatusCode may be any upstream status including non-2xx.
type Response struct {
	StatusCode int
	Body       json.RawMessage
}

// Ok reports whether the upstream answered with a 2xx status.
func (r *Response) Ok() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client talks to the orchestrator over plain HTTP with a fixed
// per-request timeout.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an orchestrator client. A non-positive timeout
// falls back to 30 seconds.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GenerateRoutine requests a fresh routine for the user's profile.
func (c *Client) GenerateRoutine(ctx context.Context, payload any) (*Response, error) {
	return c.post(ctx, pathGenerate, payload)
}

// AdaptRoutine requests changes to an existing routine.
func (c *Client) AdaptRoutine(ctx context.Context, payload any) (*Response, error) {
	return c.post(ctx, pathAdapt, payload)
}

// ExplainRoutine requests a plain-language explanation of a routine.
func (c *Client) ExplainRoutine(ctx context.Context, payload any) (*Response, error) {
	return c.post(ctx, pathExplain, payload)
}

// Chat forwards a free-form coaching message.
func (c *Client) Chat(ctx context.Context, payload any) (*Response, error) {
	return c.post(ctx, pathChat, payload)
}

func (c *Client) post(ctx context.Context, path string, payload any) (*Response, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal orchestrator payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to build orchestrator request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrUpstreamUnavailable, err)
	}
	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}
