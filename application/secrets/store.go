// Package secrets holds secret values and keeps them structurally out
// of guest reach. The guest-visible surface is existence and listing
// only; Get exists for native call sites (the outbound transport path)
// and is never wired into the guest bridge.
package secrets

import (
	"errors"
	"os"
	"sort"
	"strings"

	derrors "github.com/scriptgate-dev/scriptgate/domain/errors"
	"github.com/scriptgate-dev/scriptgate/internal/safestate"
	"github.com/scriptgate-dev/scriptgate/log"
)

// Store maps secret identifiers to opaque values. Values are never
// serialized, logged, or returned in any structure that crosses the
// guest boundary.
type Store struct {
	guard  *safestate.Guard[map[string]string]
	logger log.Logger
}

// NewStore creates an empty store.
func NewStore(logger log.Logger) *Store {
	return &Store{
		guard: safestate.New("secrets", func() map[string]string {
			return make(map[string]string)
		}),
		logger: logger,
	}
}

// LoadFromEnv loads every environment variable carrying the prefix,
// keyed by the name with the prefix stripped. Returns how many were
// loaded.
func (s *Store) LoadFromEnv(prefix string) int {
	loaded := 0
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, prefix) {
			continue
		}
		id := strings.TrimPrefix(name, prefix)
		if id == "" {
			continue
		}
		s.Put(id, value)
		loaded++
	}
	if loaded > 0 {
		s.logger.Info("secrets loaded from environment", "count", loaded)
	}
	return loaded
}

// Exists reports whether the identifier is present.
func (s *Store) Exists(id string) bool {
	found := false
	s.do(func(m *map[string]string) error {
		_, found = (*m)[id]
		return nil
	})
	return found
}

// Identifiers returns all known identifiers, sorted. Values are not
// reachable through this method.
func (s *Store) Identifiers() []string {
	var ids []string
	s.do(func(m *map[string]string) error {
		ids = make([]string, 0, len(*m))
		for id := range *m {
			ids = append(ids, id)
		}
		return nil
	})
	sort.Strings(ids)
	return ids
}

// Get returns the secret value. Native-side callers only: this method
// must never be reachable from a guest-callable function.
func (s *Store) Get(id string) (string, bool) {
	var value string
	var found bool
	s.do(func(m *map[string]string) error {
		value, found = (*m)[id]
		return nil
	})
	return value, found
}

// Put adds or replaces a secret.
func (s *Store) Put(id, value string) {
	s.do(func(m *map[string]string) error {
		(*m)[id] = value
		return nil
	})
}

// Delete removes a secret, reporting whether it existed.
func (s *Store) Delete(id string) bool {
	existed := false
	s.do(func(m *map[string]string) error {
		_, existed = (*m)[id]
		delete(*m, id)
		return nil
	})
	return existed
}

// Len returns the number of stored secrets.
func (s *Store) Len() int {
	n := 0
	s.do(func(m *map[string]string) error {
		n = len(*m)
		return nil
	})
	return n
}

// do runs fn under the guard. A recovered panic empties the store
// rather than wedging it; losing cached secrets is recoverable, a
// poisoned lock is not.
func (s *Store) do(fn func(m *map[string]string) error) {
	if err := s.guard.Do(fn); err != nil {
		var lre *derrors.LockRecoveredError
		if errors.As(err, &lre) {
			s.logger.Error("secret store reinitialized after panic")
		}
	}
}
