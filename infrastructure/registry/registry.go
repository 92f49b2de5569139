// Package registry holds the in-process endpoint registry and stream
// hub. Registrations arriving here have already been validated and
// authorized; this layer owns uniqueness and lookup.
package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/scriptgate-dev/scriptgate/domain/ports"
	"github.com/scriptgate-dev/scriptgate/log"
)

// Registry is an in-memory ports.EndpointRegistry. Names are unique
// per kind: a route and a tool may share a name, two routes may not.
type Registry struct {
	mu      sync.RWMutex
	logger  log.Logger
	entries map[ports.RegistrationKind]map[string]ports.Registration
}

// NewRegistry creates an empty Registry.
func NewRegistry(logger log.Logger) *Registry {
	return &Registry{
		logger:  logger,
		entries: make(map[ports.RegistrationKind]map[string]ports.Registration),
	}
}

var _ ports.EndpointRegistry = (*Registry)(nil)

// Register records the registration. Re-registering an existing
// (kind, name) pair replaces it; scripts re-register on every reload.
func (r *Registry) Register(ctx context.Context, reg ports.Registration) error {
	if reg.Name == "" {
		return fmt.Errorf("registration name cannot be empty")
	}
	if reg.HandlerRef == "" {
		return fmt.Errorf("registration handler_ref cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	byName, ok := r.entries[reg.Kind]
	if !ok {
		byName = make(map[string]ports.Registration)
		r.entries[reg.Kind] = byName
	}
	if _, replaced := byName[reg.Name]; replaced {
		r.logger.Debug("registration replaced", "kind", string(reg.Kind), "name", reg.Name)
	}
	byName[reg.Name] = reg
	return nil
}

// Lookup returns the registration for (kind, name).
func (r *Registry) Lookup(kind ports.RegistrationKind, name string) (ports.Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.entries[kind][name]
	return reg, ok
}

// ByKind returns all registrations of one kind.
func (r *Registry) ByKind(kind ports.RegistrationKind) []ports.Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ports.Registration, 0, len(r.entries[kind]))
	for _, reg := range r.entries[kind] {
		out = append(out, reg)
	}
	return out
}
