package ports

import (
	"context"
	"time"
)

// SendRequest is a fully-resolved outbound HTTP request. By the time a
// transport sees it, all secret markers have been substituted; a
// request with unresolved markers must never reach Send.
type SendRequest struct {
	URL     string
	Method  string
	Headers map[string]string
	Body    []byte
	Timeout time.Duration

	// PinnedIP, when set, is the address the transport must dial
	// instead of re-resolving the URL's hostname. The hostname still
	// travels in the Host header and TLS SNI. Pinning ties the dial to
	// the address the SSRF guard approved, so a rebinding DNS answer
	// between check and dial cannot redirect the request.
	PinnedIP string
}

// SendResponse is the outcome of an outbound HTTP request.
type SendResponse struct {
	StatusCode int
	Headers    map[string][]string
	Body       []byte
}

// Transport performs outbound HTTP on behalf of the core.
type Transport interface {
	Send(ctx context.Context, req SendRequest) (SendResponse, error)
}
