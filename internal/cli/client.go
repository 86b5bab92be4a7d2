package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iotinator/iotinator-master/internal/agent"
)

// ErrUnexpectedStatus is returned when the master answers with a non-2xx status.
var ErrUnexpectedStatus = errors.New("cli: unexpected status from master")

// ListEntry is one agent as rendered by the master's /api/list.
type ListEntry struct {
	Name        string  `json:"name"`
	IP          string  `json:"ip"`
	CanSleep    bool    `json:"canSleep"`
	Pong        bool    `json:"pong"`
	UIClassName string  `json:"uiClassName"`
	Heap        int32   `json:"heap"`
	Custom      *string `json:"custom,omitempty"`
}

// Health is the master's /api/health answer.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Agents  int    `json:"agents"`
}

// Metrics is the part of /api/metrics iotctl shows.
type Metrics struct {
	UptimeSeconds int64 `json:"uptime_seconds"`
	MQTT          struct {
		Enabled   bool `json:"enabled"`
		Connected bool `json:"connected"`
	} `json:"mqtt"`
	Agents struct {
		Total         int `json:"total"`
		Pong          int `json:"pong"`
		Sleeping      int `json:"sleeping"`
		ToRename      int `json:"to_rename"`
		ListSizeHint  int `json:"list_size_hint"`
		ParseTreeSize int `json:"parse_tree_size"`
	} `json:"agents"`
}

// Client calls a master's HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a Client for the master at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// List fetches the agent listing keyed by MAC.
func (c *Client) List(ctx context.Context) (map[string]ListEntry, error) {
	var entries map[string]ListEntry
	if err := c.do(ctx, http.MethodGet, "/api/list", &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Agent fetches one agent.
func (c *Client) Agent(ctx context.Context, mac string) (*agent.Agent, error) {
	var a agent.Agent
	if err := c.do(ctx, http.MethodGet, "/api/agents/"+url.PathEscape(mac), &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Ping runs a ping sweep on the master.
func (c *Client) Ping(ctx context.Context) (*agent.PingReport, error) {
	var report agent.PingReport
	if err := c.do(ctx, http.MethodPost, "/api/ping", &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Reset asks the master to restart every agent.
func (c *Client) Reset(ctx context.Context) (*agent.ResetReport, error) {
	var report agent.ResetReport
	if err := c.do(ctx, http.MethodPost, "/api/reset", &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Health fetches the master status.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.do(ctx, http.MethodGet, "/api/health", &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Metrics fetches the master metrics.
func (c *Client) Metrics(ctx context.Context) (*Metrics, error) {
	var m Metrics
	if err := c.do(ctx, http.MethodGet, "/api/metrics", &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("building %s %s: %w", method, path, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		//nolint:errcheck // Drain so the connection can be reused
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: %s %s: %d", ErrUnexpectedStatus, method, path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}
