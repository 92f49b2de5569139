package errors

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scriptgate-dev/scriptgate/domain/entities"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want entities.ErrorKind
	}{
		{"nil", nil, entities.ErrKindNone},
		{"validation", &ValidationError{Reason: entities.ViolationCodeExecution}, entities.ErrKindValidationRejected},
		{"capability", &CapabilityError{Required: entities.CapabilityFetch, Action: "http_fetch"}, entities.ErrKindCapabilityDenied},
		{"rate limit", &RateLimitError{Action: "script_upsert"}, entities.ErrKindRateLimited},
		{"secret", &SecretNotFoundError{Identifier: "API_KEY"}, entities.ErrKindSecretNotFound},
		{"upstream", &UpstreamError{Err: context.Canceled, Action: "asset_put"}, entities.ErrKindUpstreamFailure},
		{"timeout", &TimeoutError{Action: "http_fetch"}, entities.ErrKindTimeout},
		{"lock recovered", &LockRecoveredError{Subsystem: "secrets"}, entities.ErrKindInternalLockRecover},
		{"plain error", fmt.Errorf("disk full"), entities.ErrKindUpstreamFailure},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, KindOf(tc.err))
		})
	}
}

func TestKindOfWrapped(t *testing.T) {
	inner := &SecretNotFoundError{Identifier: "TOKEN"}
	wrapped := fmt.Errorf("rendering request: %w", inner)
	assert.Equal(t, entities.ErrKindSecretNotFound, KindOf(wrapped))
}

func TestSecretNotFoundErrorMessage(t *testing.T) {
	err := &SecretNotFoundError{Identifier: "API_KEY"}
	// The identifier is surfaced, never the value space.
	assert.Equal(t, "secret not found: API_KEY", err.Error())
}

func TestUpstreamErrorUnwrap(t *testing.T) {
	inner := fmt.Errorf("connection refused")
	err := &UpstreamError{Err: inner, Action: "http_fetch", Target: "https://example.com"}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "https://example.com")
}
