package entities

// ViolationReason is a stable, enumerable reason code for a rejected
// payload. Reason codes never include the matched substring, so they
// are safe to log and to return to guests.
type ViolationReason string

const (
	ViolationNone          ViolationReason = ""
	ViolationPayloadTooBig ViolationReason = "payload_too_large"
	ViolationCodeExecution ViolationReason = "code_execution_primitive"
	ViolationPathTraversal ViolationReason = "path_traversal"
	ViolationXSSMarkup     ViolationReason = "xss_markup"
	ViolationControlBytes  ViolationReason = "control_bytes"
)

// ValidationResult is the outcome of validating one guest-supplied
// payload. The zero value is not valid; use Valid or Violation.
type ValidationResult struct {
	OK     bool            `json:"ok"`
	Reason ViolationReason `json:"reason,omitempty"`
	Field  string          `json:"field,omitempty"`
}

// Valid returns a passing validation result.
func Valid() ValidationResult {
	return ValidationResult{OK: true}
}

// Violation returns a failing result for the named field.
func Violation(reason ViolationReason, field string) ValidationResult {
	return ValidationResult{OK: false, Reason: reason, Field: field}
}
