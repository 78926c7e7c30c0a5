// Package httpc provides an HTTP client for the alejo REST API with sensible
// defaults. Use this instead of http.DefaultClient to ensure timeouts are set.
package httpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/teslashibe/go-alejo/pkg/fusion"
)

// Default timeouts for HTTP operations.
const (
	DefaultTimeout         = 10 * time.Second
	DefaultConnectTimeout  = 5 * time.Second
	DefaultKeepAlive       = 30 * time.Second
	DefaultIdleConnTimeout = 90 * time.Second
)

// ErrStatus is returned when the server answers with a non-2xx status.
var ErrStatus = errors.New("httpc: unexpected status")

// NewHTTPClient creates an http.Client with the specified timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   DefaultConnectTimeout,
				KeepAlive: DefaultKeepAlive,
			}).DialContext,
			MaxIdleConns:          10,
			MaxIdleConnsPerHost:   4,
			IdleConnTimeout:       DefaultIdleConnTimeout,
			TLSHandshakeTimeout:   5 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// Health is the /health response
type Health struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Loop        bool   `json:"loop"`
	Adapters    int    `json:"adapters"`
	Subscribers int    `json:"subscribers"`
	UptimeS     int64  `json:"uptime_s"`
}

// Status is the subset of /api/status a client usually needs
type Status struct {
	Initialized bool         `json:"initialized"`
	Active      []string     `json:"active"`
	Context     string       `json:"context,omitempty"`
	Strategy    string       `json:"strategy"`
	Stats       fusion.Stats `json:"stats"`
}

// Client talks to one alejo server.
type Client struct {
	base string
	http *http.Client
}

// New creates a client for base, which may use an http(s) or ws(s) scheme.
func New(base string) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	case "http", "https":
	default:
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	return &Client{base: u.String(), http: NewHTTPClient(DefaultTimeout)}, nil
}

// BaseURL returns the normalised http(s) base URL.
func (c *Client) BaseURL() string {
	return c.base
}

// Health fetches /health.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	err := c.do(ctx, http.MethodGet, "/health", nil, &h)
	return h, err
}

// Status fetches /api/status.
func (c *Client) Status(ctx context.Context) (Status, error) {
	var s Status
	err := c.do(ctx, http.MethodGet, "/api/status", nil, &s)
	return s, err
}

// SetContext changes the situational context.
func (c *Client) SetContext(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodPost, "/api/context", map[string]string{"context": name}, nil)
}

// SetModality activates or deactivates a modality.
func (c *Client) SetModality(ctx context.Context, modality string, active bool) error {
	return c.do(ctx, http.MethodPut, "/api/modalities/"+url.PathEscape(modality), map[string]bool{"active": active}, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w %d from %s %s: %s", ErrStatus, resp.StatusCode, method, path, bytes.TrimSpace(msg))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
