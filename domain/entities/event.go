package entities

import "time"

// EventKind classifies a SecurityEvent.
type EventKind string

const (
	EventAuthFailure       EventKind = "auth_failure"
	EventCapabilityDenied  EventKind = "capability_denied"
	EventRateLimitExceeded EventKind = "rate_limit_exceeded"
	EventSecretAccessed    EventKind = "secret_accessed"
	EventDangerousPattern  EventKind = "dangerous_pattern_detected"
	EventOperation         EventKind = "operation"
	EventThreatEscalation  EventKind = "threat_escalation"
	EventLockRecovered     EventKind = "lock_recovered"
)

// Severity is the severity of a SecurityEvent, lowest first.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// SecurityEvent is one append-only audit record. It is immutable
// after creation; Detail must never contain secret values or raw
// guest-supplied payload text.
type SecurityEvent struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Kind      EventKind `json:"kind"`
	Severity  Severity  `json:"severity"`
	Principal string    `json:"principal"`
	SourceIP  string    `json:"source_ip,omitempty"`
	Resource  string    `json:"resource,omitempty"`
	Action    string    `json:"action,omitempty"`
	Outcome   string    `json:"outcome"` // "success" or a stable error kind
	Detail    string    `json:"detail,omitempty"`
}

// Succeeded reports whether the event records a successful outcome.
func (e SecurityEvent) Succeeded() bool {
	return e.Outcome == "success"
}
