package ports

import "github.com/scriptgate-dev/scriptgate/domain/entities"

// EventSink consumes forwarded security events. Consume must not
// block: the auditor delivers events on a single forwarding goroutine
// and a slow sink delays other sinks, never the audited operation.
type EventSink interface {
	Consume(event entities.SecurityEvent)
}

// EventSinkFunc adapts a function to the EventSink interface.
type EventSinkFunc func(event entities.SecurityEvent)

func (f EventSinkFunc) Consume(event entities.SecurityEvent) { f(event) }

// DenialHandler observes capability denials as they happen. Used by
// the policy layer to surface denials without coupling it to the
// auditor.
type DenialHandler interface {
	OnDenial(capability entities.Capability, action string, uc entities.UserContext)
}
