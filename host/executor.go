package host

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/scriptgate-dev/scriptgate/domain/entities"
	"github.com/scriptgate-dev/scriptgate/hostfuncs"
	guestwasm "github.com/scriptgate-dev/scriptgate/infrastructure/wazero"
	"github.com/scriptgate-dev/scriptgate/log"
)

// Executor owns one wazero runtime with the bridged host functions
// installed. Construct once and load many guests; compiled module
// caching is the runtime's concern.
type Executor struct {
	runtime     wazero.Runtime
	registry    *hostfuncs.HandlerRegistry
	logger      log.Logger
	adapterOpts []guestwasm.AdapterOption
}

// NewExecutor creates the runtime, instantiates WASI, and registers
// every function in the registry as a guest-importable host function.
func NewExecutor(ctx context.Context, opts ...Option) (*Executor, error) {
	e := &Executor{logger: log.Nop()}
	for _, opt := range opts {
		opt(e)
	}

	if e.registry == nil {
		registry, err := hostfuncs.NewRegistry()
		if err != nil {
			return nil, fmt.Errorf("creating default registry: %w", err)
		}
		e.registry = registry
	}

	rt := wazero.NewRuntime(ctx)
	wasi_snapshot_preview1.MustInstantiate(ctx, rt)

	adapterOpts := append([]guestwasm.AdapterOption{guestwasm.WithLogger(e.logger)}, e.adapterOpts...)
	if err := guestwasm.RegisterWithRuntime(ctx, rt, e.registry, adapterOpts...); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("registering host functions: %w", err)
	}

	e.runtime = rt
	return e, nil
}

// Close releases the runtime and every guest instantiated from it.
func (e *Executor) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// Guest is one instantiated WASM guest module.
type Guest struct {
	module api.Module
}

// Load instantiates a guest from its compiled WASM bytes. The module's
// start function runs here; `_initialize` is called when exported.
func (e *Executor) Load(ctx context.Context, wasmBytes []byte) (*Guest, error) {
	mod, err := e.runtime.Instantiate(ctx, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("instantiating guest module: %w", err)
	}

	if init := mod.ExportedFunction("_initialize"); init != nil {
		if _, err := init.Call(ctx); err != nil {
			_ = mod.Close(ctx)
			return nil, fmt.Errorf("initializing guest module: %w", err)
		}
	}

	return &Guest{module: mod}, nil
}

// Close releases the guest instance.
func (g *Guest) Close(ctx context.Context) error {
	return g.module.Close(ctx)
}

// Run calls the guest's "run" export as the given principal.
func (g *Guest) Run(ctx context.Context, uc entities.UserContext, input []byte) ([]byte, error) {
	return g.Invoke(ctx, uc, "run", input)
}

// Invoke calls a named guest export as the given principal. The export
// takes and returns one packed i64 pointer/length; input is written
// into guest memory through the guest's "allocate" export first.
func (g *Guest) Invoke(ctx context.Context, uc entities.UserContext, export string, input []byte) ([]byte, error) {
	ctx = guestwasm.WithPrincipal(ctx, uc)

	fn := g.module.ExportedFunction(export)
	if fn == nil {
		return nil, fmt.Errorf("guest does not export %q", export)
	}

	packed, err := g.writeInput(ctx, input)
	if err != nil {
		return nil, err
	}

	results, err := fn.Call(ctx, packed)
	if err != nil {
		return nil, fmt.Errorf("calling guest %s: %w", export, err)
	}
	if len(results) == 0 || results[0] == 0 {
		return nil, nil
	}

	ptr := uint32(results[0] >> 32)
	length := uint32(results[0])
	out, ok := g.module.Memory().Read(ptr, length)
	if !ok {
		return nil, fmt.Errorf("reading guest %s response: out of bounds", export)
	}
	// The guest may reuse its memory on the next call.
	resp := make([]byte, length)
	copy(resp, out)
	return resp, nil
}

func (g *Guest) writeInput(ctx context.Context, input []byte) (uint64, error) {
	if len(input) == 0 {
		return 0, nil
	}

	allocate := g.module.ExportedFunction("allocate")
	if allocate == nil {
		return 0, fmt.Errorf("guest does not export allocate")
	}
	results, err := allocate.Call(ctx, uint64(len(input)))
	if err != nil {
		return 0, fmt.Errorf("allocating guest memory: %w", err)
	}
	if len(results) == 0 {
		return 0, fmt.Errorf("guest allocate returned nothing")
	}

	ptr := uint32(results[0]) //nolint:gosec // G115: WASM32 pointers are 32-bit
	if !g.module.Memory().Write(ptr, input) {
		return 0, fmt.Errorf("writing guest input: out of bounds")
	}
	return (uint64(ptr) << 32) | uint64(len(input)), nil //nolint:gosec // G115: input bounded by caller
}
