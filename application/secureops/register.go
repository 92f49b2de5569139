package secureops

import (
	"context"

	"github.com/scriptgate-dev/scriptgate/application/validation"
	"github.com/scriptgate-dev/scriptgate/domain/entities"
	derrors "github.com/scriptgate-dev/scriptgate/domain/errors"
	"github.com/scriptgate-dev/scriptgate/domain/ports"
)

var (
	actRegisterRoute    = action{name: "register_route", class: "register", capability: entities.CapabilityRegister, mutating: true}
	actRegisterResolver = action{name: "register_resolver", class: "register", capability: entities.CapabilityRegister, mutating: true}
	actRegisterTool     = action{name: "register_tool", class: "register", capability: entities.CapabilityRegister, mutating: true}
	actBroadcast        = action{name: "stream_broadcast", class: "streams", capability: entities.CapabilityBroadcast}
)

// RegisterRoute authorizes and forwards an HTTP route registration.
// The registry owns dispatch; this entry point owns the registration
// call itself.
func (o *Ops) RegisterRoute(ctx context.Context, uc entities.UserContext, name, handlerRef string, metadata map[string]any) entities.OpResult {
	return o.register(ctx, uc, actRegisterRoute, ports.RegistrationRoute, name, handlerRef, metadata)
}

// RegisterResolver authorizes and forwards a GraphQL resolver
// registration.
func (o *Ops) RegisterResolver(ctx context.Context, uc entities.UserContext, name, handlerRef string, metadata map[string]any) entities.OpResult {
	return o.register(ctx, uc, actRegisterResolver, ports.RegistrationResolver, name, handlerRef, metadata)
}

// RegisterTool authorizes and forwards a tool registration.
func (o *Ops) RegisterTool(ctx context.Context, uc entities.UserContext, name, handlerRef string, metadata map[string]any) entities.OpResult {
	return o.register(ctx, uc, actRegisterTool, ports.RegistrationTool, name, handlerRef, metadata)
}

func (o *Ops) register(ctx context.Context, uc entities.UserContext, act action, kind ports.RegistrationKind, name, handlerRef string, metadata map[string]any) entities.OpResult {
	return o.run(ctx, uc, act, name, []payload{
		{value: name, class: validation.ClassPath, field: "name"},
		{value: handlerRef, class: validation.ClassPath, field: "handler_ref"},
	}, func(ctx context.Context) (map[string]any, error) {
		reg := ports.Registration{
			Kind:       kind,
			Name:       name,
			HandlerRef: handlerRef,
			Metadata:   metadata,
		}
		if err := o.deps.Registry.Register(ctx, reg); err != nil {
			return nil, &derrors.UpstreamError{Err: err, Action: act.name, Target: name}
		}
		return map[string]any{"kind": string(kind), "name": name}, nil
	})
}

// Broadcast publishes a payload to a named server-side stream.
func (o *Ops) Broadcast(ctx context.Context, uc entities.UserContext, stream, message string) entities.OpResult {
	return o.run(ctx, uc, actBroadcast, stream, []payload{
		{value: stream, class: validation.ClassPath, field: "stream"},
		{value: message, class: validation.ClassField, field: "message"},
	}, func(ctx context.Context) (map[string]any, error) {
		if err := o.deps.Streams.Broadcast(ctx, stream, []byte(message)); err != nil {
			return nil, &derrors.UpstreamError{Err: err, Action: actBroadcast.name, Target: stream}
		}
		return map[string]any{"stream": stream}, nil
	})
}
