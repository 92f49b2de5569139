package entities

// ErrorKind is a stable, machine-checkable failure class. The string
// values are part of the guest-visible contract: guest code branches
// on them, and they never carry more than the class itself.
type ErrorKind string

const (
	ErrKindNone                ErrorKind = ""
	ErrKindValidationRejected  ErrorKind = "ValidationRejected"
	ErrKindCapabilityDenied    ErrorKind = "CapabilityDenied"
	ErrKindRateLimited         ErrorKind = "RateLimited"
	ErrKindSecretNotFound      ErrorKind = "SecretNotFound"
	ErrKindUpstreamFailure     ErrorKind = "UpstreamFailure"
	ErrKindTimeout             ErrorKind = "Timeout"
	ErrKindInternalLockRecover ErrorKind = "InternalLockRecovered"
)

// OpResult is the outcome of one secure operation as seen by the
// caller. Failures are values, never panics: the guest side must be
// able to branch on Error without observing host internals.
type OpResult struct {
	Success bool           `json:"success"`
	Error   ErrorKind      `json:"error,omitempty"`
	Message string         `json:"message,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// OpSuccess creates a successful result carrying optional outcome data.
func OpSuccess(data map[string]any) OpResult {
	return OpResult{Success: true, Data: data}
}

// OpFailure creates a failed result with the given kind and a
// non-leaking message.
func OpFailure(kind ErrorKind, message string) OpResult {
	return OpResult{Success: false, Error: kind, Message: message}
}

// Outcome returns "success" for successful results and the error kind
// otherwise. This is the value recorded in the audit event.
func (r OpResult) Outcome() string {
	if r.Success {
		return "success"
	}
	return string(r.Error)
}
