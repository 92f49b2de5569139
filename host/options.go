package host

import (
	"github.com/scriptgate-dev/scriptgate/hostfuncs"
	guestwasm "github.com/scriptgate-dev/scriptgate/infrastructure/wazero"
	"github.com/scriptgate-dev/scriptgate/log"
)

// Option defines a functional option for configuring the Executor.
type Option func(*Executor)

// WithHostFunctions configures the executor with a host function registry.
func WithHostFunctions(registry *hostfuncs.HandlerRegistry) Option {
	return func(e *Executor) {
		e.registry = registry
	}
}

// WithLogger sets the executor's logger. It is also passed down to the
// host function adapter.
func WithLogger(logger log.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithAdapterOptions forwards options to the host function adapter,
// e.g. a custom import module name or request size cap.
func WithAdapterOptions(opts ...guestwasm.AdapterOption) Option {
	return func(e *Executor) {
		e.adapterOpts = append(e.adapterOpts, opts...)
	}
}
