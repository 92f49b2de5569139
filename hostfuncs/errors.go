package hostfuncs

import (
	"encoding/json"

	"github.com/scriptgate-dev/scriptgate/domain/entities"
)

// ErrorResponse is the JSON shape guests receive when the bridge
// itself rejects a call: unknown function, malformed payload,
// recovered panic. Delegated operation failures travel inside
// entities.OpResult instead.
type ErrorResponse struct {
	// Error is a stable machine-readable identifier.
	Error string `json:"error"`

	// Message is human-readable and safe to show in guest logs.
	Message string `json:"message"`

	// Code follows HTTP status semantics.
	Code int `json:"code"`
}

// ToJSON serializes the ErrorResponse. The type is simple enough that
// marshalling cannot fail; nil is returned defensively if it somehow
// does.
func (e ErrorResponse) ToJSON() []byte {
	data, err := json.Marshal(e)
	if err != nil {
		return nil
	}
	return data
}

// NewMalformedRequestError covers guest payloads that do not decode.
func NewMalformedRequestError(message string) ErrorResponse {
	return ErrorResponse{
		Error:   "MALFORMED_REQUEST",
		Message: message,
		Code:    400,
	}
}

// NewNotFoundError covers calls to unregistered function names.
func NewNotFoundError(name string) ErrorResponse {
	return ErrorResponse{
		Error:   "NOT_FOUND",
		Message: "unknown host function: " + name,
		Code:    404,
	}
}

// NewPayloadTooLargeError covers requests over the bridge size cap.
func NewPayloadTooLargeError() ErrorResponse {
	return ErrorResponse{
		Error:   "PAYLOAD_TOO_LARGE",
		Message: "request exceeds bridge payload limit",
		Code:    413,
	}
}

// NewInternalError covers unexpected bridge failures.
func NewInternalError(message string) ErrorResponse {
	return ErrorResponse{
		Error:   "INTERNAL_ERROR",
		Message: message,
		Code:    500,
	}
}

// NewPanicError converts a recovered panic value into a response the
// guest can parse. The panic value itself is not forwarded verbatim
// unless it is already a plain error or string.
func NewPanicError(panicValue any) ErrorResponse {
	var msg string
	switch v := panicValue.(type) {
	case error:
		msg = v.Error()
	case string:
		msg = v
	default:
		msg = "panic recovered"
	}
	return ErrorResponse{
		Error:   "INTERNAL_ERROR",
		Message: "panic: " + msg,
		Code:    500,
	}
}

// StatusCode maps an operation error kind onto the HTTP-style code
// used in bridge responses and gateway surfaces.
func StatusCode(kind entities.ErrorKind) int {
	switch kind {
	case entities.ErrKindNone:
		return 200
	case entities.ErrKindValidationRejected:
		return 400
	case entities.ErrKindCapabilityDenied:
		return 403
	case entities.ErrKindSecretNotFound:
		return 404
	case entities.ErrKindRateLimited:
		return 429
	case entities.ErrKindUpstreamFailure:
		return 502
	case entities.ErrKindTimeout:
		return 504
	default:
		return 500
	}
}
