// Package safestate wraps shared mutable state behind a
// recover-on-acquire guard. A panic raised while the state is held
// reinitializes it to a safe default instead of wedging every later
// acquirer, and surfaces as a recoverable LockRecoveredError.
package safestate

import (
	"sync"
	"sync/atomic"

	derrors "github.com/scriptgate-dev/scriptgate/domain/errors"
)

// Guard owns one piece of shared state. All access goes through Do;
// critical sections must stay bounded (lookups and increments only, no
// I/O while held).
type Guard[T any] struct {
	mu         sync.Mutex
	state      T
	name       string
	reset      func() T
	recoveries atomic.Uint64
}

// New creates a Guard whose state starts at, and is recovered to,
// reset().
func New[T any](name string, reset func() T) *Guard[T] {
	return &Guard[T]{name: name, state: reset(), reset: reset}
}

// Do runs fn with exclusive access to the state. If fn panics, the
// state is reinitialized and a LockRecoveredError is returned; the
// panic does not propagate.
func (g *Guard[T]) Do(fn func(state *T) error) (err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			g.state = g.reset()
			g.recoveries.Add(1)
			err = &derrors.LockRecoveredError{Subsystem: g.name, Cause: r}
		}
	}()
	return fn(&g.state)
}

// Recoveries returns how many times the state has been reinitialized
// after a panic.
func (g *Guard[T]) Recoveries() uint64 {
	return g.recoveries.Load()
}
