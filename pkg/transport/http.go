package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultMaxIdleConnsPerHost bounds idle keep-alive connections to the collector.
	DefaultMaxIdleConnsPerHost = 10
	// DefaultIdleConnTimeout is the default idle connection timeout.
	DefaultIdleConnTimeout = 90 * time.Second
	// DefaultTLSHandshakeTimeout is the default TLS handshake timeout.
	DefaultTLSHandshakeTimeout = 10 * time.Second
)

// maxDrainBytes bounds how much of a response body is read before closing, so
// the connection can be reused.
const maxDrainBytes = 4 << 10

// ClientConfig configures the HTTP client used by HTTPTransport.
type ClientConfig struct {
	// Timeout limits each request. Zero sets no deadline, leaving the
	// connection-level timeouts below as the only bounds.
	Timeout time.Duration
	// MaxIdleConnsPerHost, if zero, uses DefaultMaxIdleConnsPerHost.
	MaxIdleConnsPerHost int
	// IdleConnTimeout, if zero, uses DefaultIdleConnTimeout.
	IdleConnTimeout time.Duration
	// TLSHandshakeTimeout, if zero, uses DefaultTLSHandshakeTimeout.
	TLSHandshakeTimeout time.Duration
}

// NewClient creates an HTTP client with keep-alive enabled and the defaults
// above filled in. If cfg is nil, all defaults are used.
func NewClient(cfg *ClientConfig) *http.Client {
	if cfg == nil {
		cfg = &ClientConfig{}
	}

	perHost := cfg.MaxIdleConnsPerHost
	if perHost == 0 {
		perHost = DefaultMaxIdleConnsPerHost
	}
	idle := cfg.IdleConnTimeout
	if idle == 0 {
		idle = DefaultIdleConnTimeout
	}
	handshake := cfg.TLSHandshakeTimeout
	if handshake == 0 {
		handshake = DefaultTLSHandshakeTimeout
	}

	return &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConnsPerHost: perHost,
			IdleConnTimeout:     idle,
			TLSHandshakeTimeout: handshake,
		},
	}
}

// HTTPTransport POSTs events with the access key as a bearer token.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport creates a transport using client, or a default client when nil.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = NewClient(nil)
	}
	return &HTTPTransport{client: client}
}

// Name implements Transport.
func (t *HTTPTransport) Name() string { return "http" }

// Send POSTs the body. The request is detached from ctx cancellation so it
// completes even if the caller navigates away; ctx values are kept.
func (t *HTTPTransport) Send(ctx context.Context, req Request) error {
	if req.Endpoint == "" {
		return ErrEmptyEndpoint
	}

	httpReq, err := http.NewRequestWithContext(
		context.WithoutCancel(ctx), http.MethodPost, req.Endpoint, bytes.NewReader(req.Body),
	)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", ContentTypeJSON)
	httpReq.Header.Set("Authorization", "Bearer "+req.AccessKey)

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))

	if resp.StatusCode >= http.StatusBadRequest {
		return &StatusError{StatusCode: resp.StatusCode}
	}

	return nil
}

// StatusError reports a collector response with a 4xx or 5xx status.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("collector responded with status %d", e.StatusCode)
}
