// Package watch is a small monitoring client for the telemetry endpoint.
package watch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sprocketaudio/mctelemetry/internal/telemetry"
)

const (
	DefaultInterval = 5 * time.Second
	DefaultTimeout  = 2 * time.Second

	maxBody = 1 << 20
)

// Client polls one telemetry endpoint.
type Client struct {
	base string
	http *http.Client
}

// NewClient accepts a base URL such as http://127.0.0.1:8765. A trailing
// /telemetry is tolerated.
func NewClient(base string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	base = strings.TrimSuffix(base, "/telemetry")
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &Client{base: base, http: &http.Client{Timeout: timeout}}
}

// URL returns the telemetry route being polled.
func (c *Client) URL() string { return c.base + "/telemetry" }

// Fetch reads and decodes the current payload.
func (c *Client) Fetch(ctx context.Context) (telemetry.Payload, error) {
	body, err := c.get(ctx, "/telemetry")
	if err != nil {
		return telemetry.Payload{}, err
	}
	return telemetry.Decode(body)
}

// Health reports whether /health answers ok.
func (c *Client) Health(ctx context.Context) error {
	body, err := c.get(ctx, "/health")
	if err != nil {
		return err
	}
	if string(body) != "ok" {
		return fmt.Errorf("unexpected health body %q", body)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", path, resp.Status)
	}
	return body, nil
}
