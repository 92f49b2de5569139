package ports

import "context"

// RegistrationKind distinguishes the host registries a guest can
// register into.
type RegistrationKind string

const (
	RegistrationRoute    RegistrationKind = "route"
	RegistrationResolver RegistrationKind = "resolver"
	RegistrationTool     RegistrationKind = "tool"
)

// Registration describes one route, GraphQL resolver or tool being
// registered. HandlerRef names a handler inside the guest script; the
// core authorizes the registration call, not the registry's dispatch.
type Registration struct {
	Kind       RegistrationKind
	Name       string
	HandlerRef string
	Metadata   map[string]any
}

// EndpointRegistry accepts validated, authorized registrations.
type EndpointRegistry interface {
	Register(ctx context.Context, reg Registration) error
}

// StreamBroadcaster publishes a payload to a named server-side stream.
type StreamBroadcaster interface {
	Broadcast(ctx context.Context, stream string, payload []byte) error
}
