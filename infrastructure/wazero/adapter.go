package wazero

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/scriptgate-dev/scriptgate/hostfuncs"
	"github.com/scriptgate-dev/scriptgate/log"
)

// DefaultMaxRequestSize caps how many bytes a guest may claim for one
// request. A hostile length prefix costs one comparison, not an
// allocation.
const DefaultMaxRequestSize uint32 = 1 * 1024 * 1024

// AdapterConfig holds configuration for the wazero adapter.
type AdapterConfig struct {
	// ModuleName is the host module name guests import from.
	ModuleName string

	// MaxRequestSize limits request reads from guest memory.
	MaxRequestSize uint32

	// Logger records memory-protocol failures. These never reach the
	// audit log; they are runtime plumbing, not security decisions.
	Logger log.Logger

	// CustomHandlers adds wazero-specific exports that do not fit the
	// packed i64 request/response pattern.
	CustomHandlers []CustomHandler
}

// CustomHandler is a raw wazero export outside the standard calling
// convention.
type CustomHandler struct {
	Name        string
	Handler     api.GoModuleFunc
	ParamTypes  []api.ValueType
	ResultTypes []api.ValueType
}

// AdapterOption configures the adapter.
type AdapterOption func(*AdapterConfig)

// WithModuleName overrides the host module name.
func WithModuleName(name string) AdapterOption {
	return func(c *AdapterConfig) {
		c.ModuleName = name
	}
}

// WithMaxRequestSize overrides the guest request size cap.
func WithMaxRequestSize(size uint32) AdapterOption {
	return func(c *AdapterConfig) {
		c.MaxRequestSize = size
	}
}

// WithLogger sets the logger for memory-protocol failures.
func WithLogger(logger log.Logger) AdapterOption {
	return func(c *AdapterConfig) {
		c.Logger = logger
	}
}

// WithCustomHandler adds a raw wazero export.
func WithCustomHandler(h CustomHandler) AdapterOption {
	return func(c *AdapterConfig) {
		c.CustomHandlers = append(c.CustomHandlers, h)
	}
}

func defaultAdapterConfig() AdapterConfig {
	return AdapterConfig{
		ModuleName:     "scriptgate_host",
		MaxRequestSize: DefaultMaxRequestSize,
		Logger:         log.Nop(),
	}
}

// RegisterWithRuntime instantiates a host module exporting every
// function in the registry. Each export reads its request from guest
// memory, dispatches through the registry, and writes the response
// back using the guest's "allocate" export.
func RegisterWithRuntime(ctx context.Context, runtime wazero.Runtime, registry *hostfuncs.HandlerRegistry, opts ...AdapterOption) error {
	cfg := defaultAdapterConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	builder := runtime.NewHostModuleBuilder(cfg.ModuleName)

	for _, name := range registry.Names() {
		funcName := name
		builder.NewFunctionBuilder().
			WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
				handleRegistryCall(ctx, mod, stack, registry, funcName, cfg)
			}), []api.ValueType{api.ValueTypeI64}, []api.ValueType{api.ValueTypeI64}).
			Export(funcName)
	}

	for _, ch := range cfg.CustomHandlers {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(ch.Handler, ch.ParamTypes, ch.ResultTypes).
			Export(ch.Name)
	}

	_, err := builder.Instantiate(ctx)
	return err
}

func handleRegistryCall(ctx context.Context, mod api.Module, stack []uint64, registry *hostfuncs.HandlerRegistry, name string, cfg AdapterConfig) {
	ptr, length := unpackPtrLen(stack[0])

	if length > cfg.MaxRequestSize {
		cfg.Logger.Warn("guest request over size cap", "function", name, "size", length, "cap", cfg.MaxRequestSize)
		stack[0] = writeErrorResponse(ctx, mod, cfg.Logger, hostfuncs.NewPayloadTooLargeError())
		return
	}

	requestBytes, ok := mod.Memory().Read(ptr, length)
	if !ok {
		cfg.Logger.Error("guest request read failed", "function", name, "ptr", ptr, "len", length)
		stack[0] = writeErrorResponse(ctx, mod, cfg.Logger, hostfuncs.NewInternalError("failed to read request from guest memory"))
		return
	}

	responseBytes, err := registry.Invoke(ctx, name, requestBytes)
	if err != nil {
		cfg.Logger.Error("handler invocation failed", "function", name, "error", err)
		stack[0] = writeErrorResponse(ctx, mod, cfg.Logger, hostfuncs.NewInternalError(fmt.Sprintf("handler %s failed", name)))
		return
	}

	stack[0] = writeResponse(ctx, mod, cfg.Logger, responseBytes)
}

// writeResponse allocates guest memory and writes the response bytes.
// Returns packed ptr+len, or 0 when the guest cannot receive it.
func writeResponse(ctx context.Context, mod api.Module, logger log.Logger, data []byte) uint64 {
	allocateFn := mod.ExportedFunction("allocate")
	if allocateFn == nil {
		logger.Error("guest module missing allocate export", "module", mod.Name())
		return 0
	}

	results, err := allocateFn.Call(ctx, uint64(len(data)))
	if err != nil {
		logger.Error("guest allocate failed", "module", mod.Name(), "error", err)
		return 0
	}
	ptr := uint32(results[0]) //nolint:gosec // G115: WASM32 pointers are 32-bit

	if !mod.Memory().Write(ptr, data) {
		logger.Error("guest response write failed", "module", mod.Name(), "ptr", ptr, "len", len(data))
		return 0
	}

	return packPtrLen(ptr, uint32(len(data))) //nolint:gosec // G115: length bounded by config
}

func writeErrorResponse(ctx context.Context, mod api.Module, logger log.Logger, errResp hostfuncs.ErrorResponse) uint64 {
	return writeResponse(ctx, mod, logger, errResp.ToJSON())
}

// packPtrLen packs a pointer and length into one i64: pointer in the
// upper 32 bits, length in the lower.
func packPtrLen(ptr, length uint32) uint64 {
	return (uint64(ptr) << 32) | uint64(length)
}

func unpackPtrLen(packed uint64) (ptr, length uint32) {
	ptr = uint32(packed >> 32)           //nolint:gosec // G115: packed format stores 32-bit values
	length = uint32(packed & 0xFFFFFFFF) //nolint:gosec // G115: packed format stores 32-bit values
	return ptr, length
}
