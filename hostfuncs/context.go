package hostfuncs

import (
	"context"

	"github.com/scriptgate-dev/scriptgate/domain/entities"
)

// HostContext wraps the standard context with call-scoped bridge
// state: the invoked function name plus values middleware wants to
// hand down the chain without a context.WithValue allocation per hop.
type HostContext interface {
	context.Context

	// FunctionName is the registered name the guest invoked.
	FunctionName() string

	// SetValue stores a call-scoped value. Unlike context.WithValue
	// this mutates the HostContext in place; the context lives for
	// exactly one invocation.
	SetValue(key, value any)

	// GetValue retrieves a value stored by SetValue.
	GetValue(key any) (value any, ok bool)
}

type hostContext struct {
	context.Context
	values   map[any]any
	funcName string
}

// NewHostContext wraps ctx for one bridged invocation.
func NewHostContext(ctx context.Context, funcName string) HostContext {
	return &hostContext{
		Context:  ctx,
		funcName: funcName,
		values:   make(map[any]any),
	}
}

func (c *hostContext) FunctionName() string {
	return c.funcName
}

func (c *hostContext) SetValue(key, value any) {
	c.values[key] = value
}

func (c *hostContext) GetValue(key any) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// HostContextFrom returns ctx unchanged when it is already a
// HostContext, otherwise wraps it.
func HostContextFrom(ctx context.Context, funcName string) HostContext {
	if hc, ok := ctx.(HostContext); ok {
		return hc
	}
	return NewHostContext(ctx, funcName)
}

type userContextKey struct{}

// WithUserContext attaches the calling principal to ctx. The guest
// runtime sets this once per execution, before any bridged call.
func WithUserContext(ctx context.Context, uc entities.UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, uc)
}

// UserContextFrom extracts the calling principal. Calls without one
// run as the anonymous principal, which holds no capabilities; absence
// of identity can only narrow what a call may do.
func UserContextFrom(ctx context.Context) entities.UserContext {
	if uc, ok := ctx.Value(userContextKey{}).(entities.UserContext); ok {
		return uc
	}
	return entities.NewAnonymousContext("")
}
