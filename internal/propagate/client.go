// Package propagate forwards the merged projects document to the downstream
// execution service and classifies the outcome. It never retries and never
// rolls back the local store; the registry on disk is the source of truth
// and is allowed to run ahead of the downstream's applied state.
package propagate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/minegate/minegate/internal/limits"
	"github.com/minegate/minegate/internal/registry"
)

// Status classifies one propagation attempt.
type Status string

const (
	// StatusAccepted means the downstream reported success (2xx).
	StatusAccepted Status = "accepted"
	// StatusRejected means the downstream was reachable but refused the
	// update; the response body is surfaced to the caller.
	StatusRejected Status = "rejected"
	// StatusUnreachable means no connection could be established.
	StatusUnreachable Status = "unreachable"
)

// Result is the classified outcome of a propagation attempt.
type Result struct {
	Status     Status
	StatusCode int
	Body       json.RawMessage
}

// HealthResult is the outcome of a reachability probe.
type HealthResult struct {
	URL       string
	Reachable bool
	Response  json.RawMessage
}

// Client talks to the downstream execution service.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// New creates a propagation client for the service at baseURL. Requests are
// bounded by timeout end to end.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
}

// BaseURL returns the downstream service location.
func (c *Client) BaseURL() string { return c.baseURL }

// Propagate POSTs the full registry to the downstream update endpoint and
// classifies the response. A transport failure yields StatusUnreachable, a
// non-2xx response StatusRejected; neither is an error in the Go sense
// because the caller needs the classification either way.
func (c *Client) Propagate(ctx context.Context, after registry.Registry) (Result, error) {
	payload, err := json.Marshal(after)
	if err != nil {
		return Result{}, fmt.Errorf("failed to marshal projects: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/update-projects", bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{Status: StatusUnreachable}, nil
	}
	defer resp.Body.Close()

	body := readBody(resp.Body)
	if resp.StatusCode/100 != 2 {
		return Result{Status: StatusRejected, StatusCode: resp.StatusCode, Body: body}, nil
	}
	return Result{Status: StatusAccepted, StatusCode: resp.StatusCode, Body: body}, nil
}

// Health GETs the downstream health endpoint. Any 2xx with a body counts as
// reachable; a transport failure does not.
func (c *Client) Health(ctx context.Context) HealthResult {
	out := HealthResult{URL: c.baseURL}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return out
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return out
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return out
	}
	out.Reachable = true
	out.Response = readBody(resp.Body)
	return out
}

// readBody relays the downstream body as raw JSON, wrapping non-JSON output
// so the caller always gets a valid JSON value.
func readBody(r io.Reader) json.RawMessage {
	b, err := io.ReadAll(io.LimitReader(r, limits.DownstreamBody))
	if err != nil || len(b) == 0 {
		return nil
	}
	if json.Valid(b) {
		return json.RawMessage(b)
	}
	wrapped, err := json.Marshal(map[string]string{"raw": string(b)})
	if err != nil {
		return nil
	}
	return json.RawMessage(wrapped)
}
