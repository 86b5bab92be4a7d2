// Package httpprobe reaches agents over their HTTP API on behalf of the registry.
package httpprobe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/iotinator/iotinator-master/internal/agent"
)

// Agent endpoints.
const (
	pingPath    = "/api/ping"
	restartPath = "/api/restart"
	renamePath  = "/api/rename"
)

const (
	defaultPort    = 80
	defaultTimeout = 3 * time.Second
)

// Config configures a Prober.
type Config struct {
	// Port is the agents' HTTP port.
	Port int

	// Timeout bounds each request, including reading the response.
	Timeout time.Duration

	// Client overrides the HTTP client. Its Timeout is left as is.
	Client *http.Client
}

// Prober implements agent.Prober over HTTP.
//
// Thread Safety: All methods are safe for concurrent use.
type Prober struct {
	port       int
	timeout    time.Duration
	httpClient *http.Client
}

var _ agent.Prober = (*Prober)(nil)

// New creates a Prober, applying defaults for unset fields.
func New(cfg Config) *Prober {
	port := cfg.Port
	if port <= 0 {
		port = defaultPort
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	return &Prober{
		port:       port,
		timeout:    timeout,
		httpClient: client,
	}
}

// Ping checks the agent answers GET /api/ping.
func (p *Prober) Ping(ctx context.Context, a agent.Agent) error {
	return p.do(ctx, a, http.MethodGet, pingPath, nil)
}

// Reset asks the agent to restart.
func (p *Prober) Reset(ctx context.Context, a agent.Agent) error {
	return p.do(ctx, a, http.MethodPost, restartPath, nil)
}

// Rename pushes a new name to the agent.
func (p *Prober) Rename(ctx context.Context, a agent.Agent, name string) error {
	body, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return fmt.Errorf("httpprobe: encoding rename: %w", err)
	}
	return p.do(ctx, a, http.MethodPost, renamePath, body)
}

// BaseURL returns the root URL used to reach a.
//
// Agents acting as both station and access point report two addresses
// separated by a comma; the first is used.
func (p *Prober) BaseURL(a agent.Agent) (string, error) {
	host, _, _ := strings.Cut(a.IP, ",")
	host = strings.TrimSpace(host)
	if host == "" {
		return "", fmt.Errorf("%w: %s", ErrNoAddress, a.MAC)
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(p.port)), nil
}

func (p *Prober) do(ctx context.Context, a agent.Agent, method, path string, body []byte) error {
	base, err := p.BaseURL(a)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, base+path, reader)
	if err != nil {
		return fmt.Errorf("httpprobe: building %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpprobe: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	// Drain body to allow connection reuse
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s %s returned %d", ErrUnexpectedStatus, method, path, resp.StatusCode)
	}
	return nil
}
