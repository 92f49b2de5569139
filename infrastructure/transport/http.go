// Package transport performs outbound HTTP for the security core.
// Requests arriving here are fully resolved and already authorized;
// this layer owns connection reuse, deadlines and response body caps.
package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/scriptgate-dev/scriptgate/domain/ports"
	"github.com/scriptgate-dev/scriptgate/log"
)

type clientConfig struct {
	maxResponseSize int
	httpClient      *http.Client
}

func defaultClientConfig() clientConfig {
	return clientConfig{
		maxResponseSize: DefaultMaxResponseSize,
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        32,
				MaxIdleConnsPerHost: 8,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Option configures a Client.
type Option func(*clientConfig)

// WithMaxResponseSize caps retained response body bytes.
func WithMaxResponseSize(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.maxResponseSize = n
		}
	}
}

// WithHTTPClient substitutes the underlying http.Client. Tests use
// this to point at httptest servers with short timeouts.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// Client is the ports.Transport implementation over net/http.
type Client struct {
	logger log.Logger
	config clientConfig
}

// NewClient creates a Client.
func NewClient(logger log.Logger, opts ...Option) *Client {
	cfg := defaultClientConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Client{logger: logger, config: cfg}
}

var _ ports.Transport = (*Client)(nil)

// Send performs the request. The per-request timeout rides on the
// context so cancellation from the enforcement pipeline and the
// request deadline collapse into one mechanism.
func (c *Client) Send(ctx context.Context, req ports.SendRequest) (ports.SendResponse, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return ports.SendResponse{}, fmt.Errorf("building request: %w", err)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	client := c.config.httpClient
	if req.PinnedIP != "" {
		client = c.pinnedClient(httpReq.URL, req.PinnedIP)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return ports.SendResponse{}, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	buf := NewBoundedBuffer(c.config.maxResponseSize)
	if _, err := io.Copy(buf, resp.Body); err != nil {
		return ports.SendResponse{}, fmt.Errorf("reading response: %w", err)
	}
	if buf.Truncated {
		c.logger.Warn("response body truncated", "url", req.URL, "cap", c.config.maxResponseSize)
	}

	return ports.SendResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       buf.Bytes(),
	}, nil
}

// pinnedClient clones the client with a dialer fixed to the approved
// address. The URL's hostname keeps carrying the Host header and TLS
// SNI, so only the connection target changes; a fresh DNS answer at
// dial time is never consulted.
func (c *Client) pinnedClient(u *url.URL, ip string) *http.Client {
	base, ok := c.config.httpClient.Transport.(*http.Transport)
	if !ok || base == nil {
		base = http.DefaultTransport.(*http.Transport)
	}

	port := u.Port()
	if port == "" {
		if u.Scheme == "https" {
			port = "443"
		} else {
			port = "80"
		}
	}
	addr := net.JoinHostPort(ip, port)

	pinned := base.Clone()
	pinned.DialContext = func(ctx context.Context, network, _ string) (net.Conn, error) {
		return (&net.Dialer{}).DialContext(ctx, network, addr)
	}
	if u.Scheme == "https" {
		if pinned.TLSClientConfig == nil {
			pinned.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		pinned.TLSClientConfig.ServerName = u.Hostname()
	}

	client := *c.config.httpClient
	client.Transport = pinned
	return &client
}
