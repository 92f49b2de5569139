package hostfuncs

import (
	"context"
	"fmt"
	"sort"
)

// HandlerRegistry is the immutable set of functions a guest may call.
// Immutability is the point: once a runtime holds a registry, no code
// path can widen the guest's surface, and lookups need no lock.
type HandlerRegistry struct {
	handlers   map[string]ByteHandler
	names      []string
	middleware []Middleware
}

type registryBuilder struct {
	handlers   map[string]ByteHandler
	middleware []Middleware
	errors     []error
}

// NewRegistry builds an immutable HandlerRegistry. Registering the
// same name twice is a wiring bug and fails construction.
//
//	registry, err := hostfuncs.NewRegistry(
//	    hostfuncs.WithMiddleware(hostfuncs.PanicRecoveryMiddleware()),
//	    hostfuncs.WithBundle(hostfuncs.GuestBundle(ops)),
//	)
func NewRegistry(opts ...RegistryOption) (*HandlerRegistry, error) {
	b := &registryBuilder{
		handlers: make(map[string]ByteHandler),
	}

	for _, opt := range opts {
		opt(b)
	}

	if len(b.errors) > 0 {
		return nil, b.errors[0]
	}

	names := make([]string, 0, len(b.handlers))
	for name := range b.handlers {
		names = append(names, name)
	}
	sort.Strings(names)

	// Wrap each handler once at construction, innermost last, so the
	// first registered middleware runs outermost.
	wrapped := make(map[string]ByteHandler, len(b.handlers))
	for name, handler := range b.handlers {
		h := handler
		for i := len(b.middleware) - 1; i >= 0; i-- {
			h = b.middleware[i](h)
		}
		wrapped[name] = h
	}

	return &HandlerRegistry{
		handlers:   wrapped,
		names:      names,
		middleware: b.middleware,
	}, nil
}

// Invoke dispatches one guest call by name. An unknown name yields a
// NOT_FOUND ErrorResponse in the payload, never a Go error, so guest
// runtimes have a single decode path.
func (r *HandlerRegistry) Invoke(ctx context.Context, name string, payload []byte) ([]byte, error) {
	handler, ok := r.handlers[name]
	if !ok {
		return NewNotFoundError(name).ToJSON(), nil
	}

	hctx := HostContextFrom(ctx, name)
	return handler(hctx, payload)
}

// Has reports whether a function name is registered.
func (r *HandlerRegistry) Has(name string) bool {
	_, ok := r.handlers[name]
	return ok
}

// Names returns the registered function names, sorted.
func (r *HandlerRegistry) Names() []string {
	result := make([]string, len(r.names))
	copy(result, r.names)
	return result
}

func (b *registryBuilder) addHandler(name string, handler ByteHandler) error {
	if name == "" {
		return fmt.Errorf("handler name cannot be empty")
	}
	if _, exists := b.handlers[name]; exists {
		return fmt.Errorf("duplicate handler name: %q", name)
	}
	b.handlers[name] = handler
	return nil
}

// WithByteHandler registers a raw ByteHandler under the given name.
func WithByteHandler(name string, handler ByteHandler) RegistryOption {
	return func(b *registryBuilder) {
		if err := b.addHandler(name, handler); err != nil {
			b.errors = append(b.errors, err)
		}
	}
}

// WithHandler registers a typed function with JSON codec handling.
func WithHandler[Req any, Resp any](name string, fn HostFunc[Req, Resp]) RegistryOption {
	return func(b *registryBuilder) {
		if err := b.addHandler(name, NewJSONHandler(fn)); err != nil {
			b.errors = append(b.errors, err)
		}
	}
}

// WithMiddleware appends middleware. FIFO: first added wraps outermost.
func WithMiddleware(mw ...Middleware) RegistryOption {
	return func(b *registryBuilder) {
		b.middleware = append(b.middleware, mw...)
	}
}
