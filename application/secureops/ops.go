// Package secureops is the enforcement point of the security core.
// Every sensitive host capability is exposed as one entry point with a
// fixed pipeline: input validation, capability check, rate-limit
// admission, delegate call, audit record, in that order; any failing
// step short-circuits the rest. The delegate is never invoked
// after a denial, and every call produces exactly one audit event
// whose outcome matches the returned result.
package secureops

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/scriptgate-dev/scriptgate/application/audit"
	"github.com/scriptgate-dev/scriptgate/application/ratelimit"
	"github.com/scriptgate-dev/scriptgate/application/secrets"
	"github.com/scriptgate-dev/scriptgate/application/validation"
	"github.com/scriptgate-dev/scriptgate/domain/entities"
	derrors "github.com/scriptgate-dev/scriptgate/domain/errors"
	"github.com/scriptgate-dev/scriptgate/domain/policy"
	"github.com/scriptgate-dev/scriptgate/domain/ports"
	"github.com/scriptgate-dev/scriptgate/log"
)

// action identifies one entry point for capability and rate-limit
// purposes.
type action struct {
	name       string
	class      string
	capability entities.Capability
	mutating   bool
}

// Deps are the collaborators Secure Operations mediates access to.
// The core never touches storage, network or registries except through
// these.
type Deps struct {
	Scripts   ports.Repository
	Assets    ports.Repository
	Tables    ports.Repository
	Transport ports.Transport
	Registry  ports.EndpointRegistry
	Streams   ports.StreamBroadcaster
	Users     ports.UserStore
}

type opsConfig struct {
	delegateTimeout  time.Duration
	ssrfAllowPrivate bool
	lookupIP         func(host string) ([]net.IP, error)
}

func defaultOpsConfig() opsConfig {
	return opsConfig{
		delegateTimeout: 30 * time.Second,
		lookupIP:        net.LookupIP,
	}
}

// Option configures Ops.
type Option func(*opsConfig)

// WithDelegateTimeout bounds every delegate call that can block.
func WithDelegateTimeout(d time.Duration) Option {
	return func(c *opsConfig) {
		if d > 0 {
			c.delegateTimeout = d
		}
	}
}

// WithAllowPrivateFetch disables the SSRF guard on outbound fetch
// targets. Intended for tests and single-tenant deployments.
func WithAllowPrivateFetch(allow bool) Option {
	return func(c *opsConfig) {
		c.ssrfAllowPrivate = allow
	}
}

// WithLookupFunc substitutes the DNS resolver used by the SSRF guard.
// Intended for tests.
func WithLookupFunc(fn func(host string) ([]net.IP, error)) Option {
	return func(c *opsConfig) {
		if fn != nil {
			c.lookupIP = fn
		}
	}
}

// Ops wraps each sensitive host capability with the enforcement
// pipeline. Construct once at process start and share across guest
// executions.
type Ops struct {
	logger    log.Logger
	validator *validation.Validator
	checker   *policy.Checker
	limits    *ratelimit.Service
	store     *secrets.Store
	injector  *secrets.Injector
	auditor   *audit.Auditor
	deps      Deps
	locks     *keyLocks
	config    opsConfig
}

// NewOps wires the enforcement pipeline over its collaborators.
func NewOps(
	logger log.Logger,
	validator *validation.Validator,
	checker *policy.Checker,
	limits *ratelimit.Service,
	store *secrets.Store,
	auditor *audit.Auditor,
	deps Deps,
	opts ...Option,
) *Ops {
	cfg := defaultOpsConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Ops{
		logger:    logger,
		validator: validator,
		checker:   checker,
		limits:    limits,
		store:     store,
		injector:  secrets.NewInjector(store),
		auditor:   auditor,
		deps:      deps,
		locks:     newKeyLocks(),
		config:    cfg,
	}
}

// payload is one guest-supplied argument to validate.
type payload struct {
	value string
	class validation.PayloadClass
	field string
}

// run executes the fixed pipeline for one entry point. delegate runs
// only if every preceding step passes; it returns outcome data for the
// result and must respect ctx cancellation.
func (o *Ops) run(
	ctx context.Context,
	uc entities.UserContext,
	act action,
	resource string,
	payloads []payload,
	delegate func(ctx context.Context) (map[string]any, error),
) entities.OpResult {
	// Step 1: validation, before anything can mutate.
	for _, p := range payloads {
		if vr := o.validator.Validate(p.value, p.class); !vr.OK {
			o.audit(uc, act, resource, entities.EventDangerousPattern, entities.SeverityWarning,
				string(entities.ErrKindValidationRejected),
				fmt.Sprintf("field %s: %s", p.field, vr.Reason))
			return entities.OpFailure(entities.ErrKindValidationRejected, string(vr.Reason))
		}
	}

	// Step 2: capability check. False is a denial, not an error.
	if !o.checker.Allow(uc, act.capability, act.name, resource) {
		o.audit(uc, act, resource, entities.EventCapabilityDenied, entities.SeverityWarning,
			string(entities.ErrKindCapabilityDenied),
			fmt.Sprintf("requires %s", act.capability))
		return entities.OpFailure(entities.ErrKindCapabilityDenied, string(entities.ErrKindCapabilityDenied))
	}

	// Step 3: rate-limit admission for (principal, action class).
	if !o.limits.Admit(uc.RateKey(), act.class, 1) {
		o.audit(uc, act, resource, entities.EventRateLimitExceeded, entities.SeverityWarning,
			string(entities.ErrKindRateLimited), "")
		return entities.OpFailure(entities.ErrKindRateLimited, string(entities.ErrKindRateLimited))
	}

	// Mutations to one (principal, resource) pair are serialized so
	// the audit order matches the effective mutation order.
	if act.mutating {
		release := o.locks.acquire(uc.Principal() + "\x00" + resource)
		defer release()
	}

	// Step 4: delegate, under an explicit timeout.
	dctx, cancel := context.WithTimeout(ctx, o.config.delegateTimeout)
	defer cancel()
	data, err := delegate(dctx)
	if err != nil {
		kind := derrors.KindOf(err)
		if errors.Is(err, context.DeadlineExceeded) {
			kind = entities.ErrKindTimeout
		}
		o.audit(uc, act, resource, entities.EventOperation, entities.SeverityError,
			string(kind), safeDetail(kind, err))
		return entities.OpFailure(kind, string(kind))
	}

	// Step 5: exactly one success event.
	o.audit(uc, act, resource, entities.EventOperation, entities.SeverityInfo, "success", "")
	return entities.OpSuccess(data)
}

// safeDetail keeps collaborator error text out of guest-adjacent logs
// for kinds where the message could leak internals.
func safeDetail(kind entities.ErrorKind, err error) string {
	switch kind {
	case entities.ErrKindSecretNotFound:
		var snf *derrors.SecretNotFoundError
		if errors.As(err, &snf) {
			return "identifier " + snf.Identifier
		}
		return ""
	case entities.ErrKindTimeout:
		return "delegate deadline exceeded"
	default:
		return err.Error()
	}
}

func (o *Ops) audit(uc entities.UserContext, act action, resource string, kind entities.EventKind, severity entities.Severity, outcome, detail string) {
	o.auditor.Log(entities.SecurityEvent{
		Kind:      kind,
		Severity:  severity,
		Principal: uc.Principal(),
		SourceIP:  uc.SourceIP(),
		Resource:  resource,
		Action:    act.name,
		Outcome:   outcome,
		Detail:    detail,
	})
}

// Auditor exposes the auditor for sink registration at wiring time.
func (o *Ops) Auditor() *audit.Auditor {
	return o.auditor
}
