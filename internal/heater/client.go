package heater

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/bobil/internal/logging"
	"github.com/muurk/bobil/internal/version"
)

const (
	// DefaultTimeout bounds every request made by the client
	DefaultTimeout = 10 * time.Second

	// maxBodySize caps how much of the status page is read
	maxBodySize = 1 << 20
)

// defaultHTTPClient is shared by clients created without their own session.
// Timeouts are applied per request through the context.
var defaultHTTPClient = &http.Client{}

// Client talks to the heater's embedded web server. It performs exactly one
// GET per call and never retries; callers decide what to do with failures.
type Client struct {
	// Host is the configured host, e.g. "192.168.4.1" or "heater.local:8080"
	Host string

	// BaseURL is derived from Host (e.g. "http://192.168.4.1")
	BaseURL string

	// Timeout bounds each request. Zero means DefaultTimeout.
	Timeout time.Duration

	// HTTPClient is the session shared with the caller; the client does not
	// close it.
	HTTPClient *http.Client
}

// NewClient creates a client for the heater at host. A nil httpClient selects
// a process-wide default.
func NewClient(host string, httpClient *http.Client) *Client {
	host = strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(host), "http://"), "/")
	if httpClient == nil {
		httpClient = defaultHTTPClient
	}

	return &Client{
		Host:       host,
		BaseURL:    "http://" + host,
		Timeout:    DefaultTimeout,
		HTTPClient: httpClient,
	}
}

// SetTimeout sets the per-request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.Timeout = timeout
}

// FetchSnapshot downloads the status page and parses it.
//
// Non-2xx responses, timeouts and connection failures are returned as
// communication errors. Anything else is an API error.
func (c *Client) FetchSnapshot(ctx context.Context) (*Snapshot, error) {
	start := time.Now()

	body, err := c.get(ctx, "/", true)
	if err != nil {
		logging.Debug("Status fetch failed",
			zap.String("host", c.Host),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return nil, err
	}

	snapshot := Parse(body)

	logging.Debug("Status fetched",
		zap.String("host", c.Host),
		zap.Duration("duration", time.Since(start)),
		zap.Int("body_bytes", len(body)),
		zap.Int("fields", len(snapshot.Fields())),
	)

	return snapshot, nil
}

// Probe performs a single fetch to validate that host is a reachable heater.
// It is intended for setup-time checks and surfaces the same error kinds as
// FetchSnapshot.
func (c *Client) Probe(ctx context.Context) (*Snapshot, error) {
	snapshot, err := c.FetchSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	logging.Info("Heater probe succeeded",
		zap.String("host", c.Host),
		zap.Int("fields", len(snapshot.Fields())),
	)
	return snapshot, nil
}

// SendCommand issues a named command to the heater.
func (c *Client) SendCommand(ctx context.Context, cmd Command) error {
	endpoint := cmd.Endpoint()
	if endpoint == "" {
		return NewAPIError(fmt.Sprintf("unknown command %q", cmd), c.Host, nil)
	}
	return c.Send(ctx, endpoint)
}

// Send issues a GET to endpoint (relative to BaseURL) and discards the body.
func (c *Client) Send(ctx context.Context, endpoint string) error {
	if _, err := c.get(ctx, endpoint, false); err != nil {
		logging.Warn("Heater command failed",
			zap.String("host", c.Host),
			zap.String("endpoint", endpoint),
			zap.Error(err),
		)
		return err
	}

	logging.Info("Heater command sent",
		zap.String("host", c.Host),
		zap.String("endpoint", endpoint),
	)
	return nil
}

// get performs one bounded GET. When readBody is false the response body is
// drained and discarded.
func (c *Client) get(ctx context.Context, endpoint string, readBody bool) (string, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+endpoint, nil)
	if err != nil {
		return "", NewAPIError("failed to create GET request", c.Host, err)
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", NewCommunicationError("GET request failed", c.Host, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return "", NewHTTPStatusError(resp.StatusCode, c.Host)
	}

	if !readBody {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return "", nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		// A deadline hit while streaming the body is still a timeout
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", NewCommunicationError("timed out reading response body", c.Host, err)
		}
		return "", NewAPIError("failed to read response body", c.Host, err)
	}
	if len(data) > maxBodySize {
		return "", NewAPIError(fmt.Sprintf("response body exceeds %d bytes", maxBodySize), c.Host, nil)
	}

	return string(data), nil
}
