// Package wazero exposes the guest bridge to WebAssembly modules
// running under the wazero runtime.
//
// It handles the memory choreography between host and guest:
//
//   - packed i64 pointer+length values on the call stack
//   - reading request bytes out of guest memory, with a size cap
//   - allocating guest memory via the module's "allocate" export and
//     writing response bytes back
//
// Every exported function dispatches through a
// hostfuncs.HandlerRegistry, so the WASM surface is exactly the
// registry surface; nothing reaches the enforcement pipeline except
// through it.
//
//	registry, err := hostfuncs.NewRegistry(
//	    hostfuncs.WithMiddleware(hostfuncs.PanicRecoveryMiddleware()),
//	    hostfuncs.WithBundle(hostfuncs.GuestBundle(ops)),
//	)
//	if err != nil {
//	    return err
//	}
//	runtime := wazero.NewRuntime(ctx)
//	err = wazerobridge.RegisterWithRuntime(ctx, runtime, registry)
package wazero
