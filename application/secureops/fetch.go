package secureops

import (
	"context"
	"net"
	"net/url"
	"time"

	"github.com/scriptgate-dev/scriptgate/application/validation"
	"github.com/scriptgate-dev/scriptgate/domain/entities"
	derrors "github.com/scriptgate-dev/scriptgate/domain/errors"
	"github.com/scriptgate-dev/scriptgate/domain/ports"
)

var actFetch = action{name: "http_fetch", class: "fetch", capability: entities.CapabilityFetch}

// FetchRequest is a guest-originated outbound HTTP request. Headers
// and body may carry {{secret:ID}} markers; they are resolved inside
// the native path only.
type FetchRequest struct {
	URL       string            `json:"url"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers,omitempty"`
	Body      string            `json:"body,omitempty"`
	TimeoutMs int               `json:"timeout_ms,omitempty"`
}

// Fetch performs an outbound HTTP request on behalf of a guest.
// Pipeline order on top of the standard steps: the target is checked
// against the SSRF guard, then secret markers are substituted, with
// any unresolved identifier aborting before a byte is sent, and one
// SecretAccessed event is emitted per identifier used.
func (o *Ops) Fetch(ctx context.Context, uc entities.UserContext, req FetchRequest) entities.OpResult {
	payloads := []payload{
		{value: req.URL, class: validation.ClassURL, field: "url"},
		{value: req.Body, class: validation.ClassField, field: "body"},
	}
	for name, value := range req.Headers {
		payloads = append(payloads, payload{value: value, class: validation.ClassField, field: "header " + name})
	}

	return o.run(ctx, uc, actFetch, req.URL, payloads, func(ctx context.Context) (map[string]any, error) {
		pinnedIP, err := o.checkFetchTarget(uc, req.URL)
		if err != nil {
			return nil, err
		}

		headers, body, used, err := o.injector.RenderRequest(req.Headers, req.Body)
		if err != nil {
			return nil, err
		}
		for _, id := range used {
			o.auditor.Log(entities.SecurityEvent{
				Kind:      entities.EventSecretAccessed,
				Severity:  entities.SeverityInfo,
				Principal: uc.Principal(),
				SourceIP:  uc.SourceIP(),
				Resource:  id,
				Action:    actFetch.name,
				Outcome:   "success",
				Detail:    "call site " + callSite(uc),
			})
		}

		timeout := o.config.delegateTimeout
		if req.TimeoutMs > 0 {
			if d := time.Duration(req.TimeoutMs) * time.Millisecond; d < timeout {
				timeout = d
			}
		}
		method := req.Method
		if method == "" {
			method = "GET"
		}

		resp, err := o.deps.Transport.Send(ctx, ports.SendRequest{
			URL:      req.URL,
			Method:   method,
			Headers:  headers,
			Body:     []byte(body),
			Timeout:  timeout,
			PinnedIP: pinnedIP,
		})
		if err != nil {
			return nil, &derrors.UpstreamError{Err: err, Action: actFetch.name, Target: req.URL}
		}
		return map[string]any{
			"status_code": resp.StatusCode,
			"headers":     resp.Headers,
			"body":        string(resp.Body),
		}, nil
	})
}

func callSite(uc entities.UserContext) string {
	if uri := uc.ScriptURI(); uri != "" {
		return uri
	}
	return "native"
}

// checkFetchTarget blocks loopback, private, link-local and multicast
// targets unless private fetch is allowed or the caller is an
// administrator. Hostnames are resolved once; the returned address is
// pinned into the transport dial so a rebinding DNS answer between
// check and dial cannot smuggle a blocked address past the guard.
func (o *Ops) checkFetchTarget(uc entities.UserContext, rawURL string) (string, error) {
	if o.config.ssrfAllowPrivate || uc.Has(entities.CapabilityAdmin) {
		return "", nil
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", &derrors.UpstreamError{
			Err:    err,
			Action: actFetch.name,
			Target: rawURL,
		}
	}

	host := parsed.Hostname()
	if ip := net.ParseIP(host); ip != nil {
		// An IP literal needs no pinning; there is no name to rebind.
		return "", blockedIP(ip, rawURL)
	}

	ips, err := o.config.lookupIP(host)
	if err != nil || len(ips) == 0 {
		return "", &derrors.UpstreamError{Err: err, Action: actFetch.name, Target: rawURL}
	}
	for _, ip := range ips {
		if berr := blockedIP(ip, rawURL); berr != nil {
			return "", berr
		}
	}
	return ips[0].String(), nil
}

func blockedIP(ip net.IP, target string) error {
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsMulticast() || ip.IsUnspecified() {
		return &derrors.CapabilityError{
			Required: entities.CapabilityAdmin,
			Action:   "fetch private target " + target,
		}
	}
	return nil
}
