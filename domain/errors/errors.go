// Package errors provides the typed error taxonomy of the security
// core. Every error maps to a stable entities.ErrorKind; the mapping
// is what crosses the guest boundary, never the error itself.
package errors

import (
	stdErrors "errors"
	"fmt"
	"time"

	"github.com/scriptgate-dev/scriptgate/domain/entities"
)

// KindedError is implemented by error types that know their stable
// failure class.
type KindedError interface {
	error
	Kind() entities.ErrorKind
}

// KindOf extracts the stable failure class from an error. Context
// deadline errors map to Timeout; anything unrecognized maps to
// UpstreamFailure, the class for delegate collaborator failures.
func KindOf(err error) entities.ErrorKind {
	if err == nil {
		return entities.ErrKindNone
	}
	var ke KindedError
	if stdErrors.As(err, &ke) {
		return ke.Kind()
	}
	return entities.ErrKindUpstreamFailure
}

// ValidationError is returned when a guest payload matches a dangerous
// pattern class. It carries the reason code, never the matched text.
type ValidationError struct {
	Reason entities.ViolationReason
	Field  string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation rejected %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("validation rejected: %s", e.Reason)
}

func (e *ValidationError) Kind() entities.ErrorKind { return entities.ErrKindValidationRejected }

// CapabilityError is returned when the acting context lacks the
// capability an operation requires.
type CapabilityError struct {
	Required entities.Capability
	Action   string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("missing capability %s for %s", e.Required, e.Action)
}

func (e *CapabilityError) Kind() entities.ErrorKind { return entities.ErrKindCapabilityDenied }

// RateLimitError is returned when the admission bucket for an action
// class is exhausted. It deliberately carries no bucket internals.
type RateLimitError struct {
	Action string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s", e.Action)
}

func (e *RateLimitError) Kind() entities.ErrorKind { return entities.ErrKindRateLimited }

// SecretNotFoundError is returned when a secret marker references an
// identifier the store does not hold. The identifier is safe to
// surface; the value space never is.
type SecretNotFoundError struct {
	Identifier string
}

func (e *SecretNotFoundError) Error() string {
	return fmt.Sprintf("secret not found: %s", e.Identifier)
}

func (e *SecretNotFoundError) Kind() entities.ErrorKind { return entities.ErrKindSecretNotFound }

// UpstreamError wraps a failure from a delegate collaborator
// (repository, transport, registry).
type UpstreamError struct {
	Err    error
	Action string
	Target string
}

func (e *UpstreamError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("%s failed for %s: %v", e.Action, e.Target, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Action, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Kind() entities.ErrorKind { return entities.ErrKindUpstreamFailure }

// TimeoutError is returned when a delegate call exceeds its deadline.
type TimeoutError struct {
	Action   string
	Duration time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %v", e.Action, e.Duration)
}

func (e *TimeoutError) Timeout() bool { return true }

func (e *TimeoutError) Kind() entities.ErrorKind { return entities.ErrKindTimeout }

// LockRecoveredError reports that shared state was reinitialized after
// a panic while the lock was held. Self-healing; surfaces only as a
// logged anomaly.
type LockRecoveredError struct {
	Subsystem string
	Cause     any
}

func (e *LockRecoveredError) Error() string {
	return fmt.Sprintf("%s state recovered after panic", e.Subsystem)
}

func (e *LockRecoveredError) Kind() entities.ErrorKind { return entities.ErrKindInternalLockRecover }
