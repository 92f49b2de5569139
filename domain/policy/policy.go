// Package policy implements capability and privilege checks. Checks
// are pure and side-effect-free: a denial is a boolean the caller must
// act on, not an error. Secure Operations translates "false" into a
// denial event.
package policy

import (
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/scriptgate-dev/scriptgate/domain/entities"
	"github.com/scriptgate-dev/scriptgate/domain/ports"
)

type checkerConfig struct {
	denialHandler ports.DenialHandler
	scopes        map[string]map[entities.Capability][]string
}

func defaultCheckerConfig() checkerConfig {
	return checkerConfig{
		denialHandler: &NopDenialHandler{},
		scopes:        make(map[string]map[entities.Capability][]string),
	}
}

// Option configures a Checker.
type Option func(*checkerConfig)

// WithDenialHandler sets the handler invoked on every denial.
func WithDenialHandler(h ports.DenialHandler) Option {
	return func(c *checkerConfig) {
		c.denialHandler = h
	}
}

// WithResourceScope restricts a role's use of a capability to resource
// keys matching the given glob patterns. A role without a scope for a
// capability may use it on any resource.
func WithResourceScope(role string, capability entities.Capability, patterns ...string) Option {
	return func(c *checkerConfig) {
		byCap, ok := c.scopes[role]
		if !ok {
			byCap = make(map[entities.Capability][]string)
			c.scopes[role] = byCap
		}
		byCap[capability] = append(byCap[capability], patterns...)
	}
}

// Checker answers capability and privilege questions. It is safe for
// concurrent use; compiled scope patterns are cached per (role,
// capability).
type Checker struct {
	config checkerConfig
	cache  sync.Map // key: scopeKey, value: []string (validated patterns)
}

type scopeKey struct {
	role       string
	capability entities.Capability
}

// NewChecker creates a Checker with the given options.
func NewChecker(opts ...Option) *Checker {
	cfg := defaultCheckerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Checker{config: cfg}
}

// HasCapability reports whether the context's role carries the
// capability. Pure; no denial handler invocation.
func (c *Checker) HasCapability(uc entities.UserContext, capability entities.Capability) bool {
	return uc.Has(capability)
}

// HasPrivilege reports whether role a's capability set is a superset
// of role b's. Administrator implies Editor implies Authenticated.
func (c *Checker) HasPrivilege(a, b entities.Role) bool {
	return a.Implies(b)
}

// Allow checks the capability and, when a resource scope is configured
// for the role, that the resource key falls inside it. On denial the
// configured handler is invoked and false is returned.
func (c *Checker) Allow(uc entities.UserContext, capability entities.Capability, action, resource string) bool {
	if !uc.Has(capability) {
		c.config.denialHandler.OnDenial(capability, action, uc)
		return false
	}
	patterns := c.scopePatterns(uc.Role().Name, capability)
	if len(patterns) == 0 {
		return true
	}
	for _, pattern := range patterns {
		if matched, _ := doublestar.Match(pattern, resource); matched {
			return true
		}
	}
	c.config.denialHandler.OnDenial(capability, action, uc)
	return false
}

func (c *Checker) scopePatterns(role string, capability entities.Capability) []string {
	key := scopeKey{role: role, capability: capability}
	if v, ok := c.cache.Load(key); ok {
		return v.([]string)
	}
	var validated []string
	if byCap, ok := c.config.scopes[role]; ok {
		for _, p := range byCap[capability] {
			if doublestar.ValidatePattern(p) {
				validated = append(validated, p)
			}
		}
	}
	c.cache.Store(key, validated)
	return validated
}
