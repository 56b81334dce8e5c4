// Package client provides the upstream HTTP client for the document backend.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"document-proxy-go/internal/config"
	"document-proxy-go/internal/metrics"
)

// ErrResponseTooLarge is returned when the backend body exceeds the configured limit.
var ErrResponseTooLarge = errors.New("upstream response body exceeds limit")

// Response is a fully read backend response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// BackendClient sends requests to the document backend.
type BackendClient struct {
	httpClient       *http.Client
	maxResponseBytes int64
	logger           *slog.Logger
	metrics          *metrics.Metrics
}

// NewBackendClient creates a BackendClient with connection pooling and timeouts.
// The metrics parameter is optional; pass nil to disable upstream metrics recording.
func NewBackendClient(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *BackendClient {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.Upstream.IdleConnections,
		MaxIdleConnsPerHost: cfg.Upstream.IdleConnections,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &BackendClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second,
		},
		maxResponseBytes: cfg.Upstream.MaxResponseBytes,
		logger:           logger.With("component", "backend_client"),
		metrics:          m,
	}
}

// Send executes a request against the backend and reads the whole response body.
// The provided context controls the lifetime of the upstream request: when the
// inbound client disconnects, the backend call is canceled too.
func (c *BackendClient) Send(ctx context.Context, method, url string, header http.Header) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	req.Header = header

	c.logger.Debug("upstream request",
		"method", req.Method,
		"path", req.URL.Path,
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	label := metrics.NormalizeMethod(req.Method)

	if err != nil {
		c.observe(label, "error", start)
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := c.readBody(resp.Body)
	c.observe(label, strconv.Itoa(resp.StatusCode), start)
	if err != nil {
		return nil, fmt.Errorf("read upstream body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

func (c *BackendClient) readBody(r io.Reader) ([]byte, error) {
	if c.maxResponseBytes <= 0 {
		return io.ReadAll(r)
	}
	body, err := io.ReadAll(io.LimitReader(r, c.maxResponseBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > c.maxResponseBytes {
		return nil, ErrResponseTooLarge
	}
	return body, nil
}

func (c *BackendClient) observe(method, status string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.UpstreamDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	c.metrics.UpstreamResponses.WithLabelValues(method, status).Inc()
}
