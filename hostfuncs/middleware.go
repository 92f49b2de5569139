package hostfuncs

import (
	"context"
	"time"

	"github.com/scriptgate-dev/scriptgate/log"
)

// Middleware wraps a ByteHandler with cross-cutting behavior. The
// chain is applied at registry construction in FIFO order: the first
// registered middleware is the outermost layer.
type Middleware func(next ByteHandler) ByteHandler

// RegistryOption configures a HandlerRegistry during construction.
type RegistryOption func(*registryBuilder)

// PanicRecoveryMiddleware converts handler panics into an
// INTERNAL_ERROR response instead of crashing the host. Register it
// first so it wraps every other layer.
func PanicRecoveryMiddleware() Middleware {
	return func(next ByteHandler) ByteHandler {
		return func(ctx context.Context, payload []byte) (resp []byte, err error) {
			defer func() {
				if r := recover(); r != nil {
					resp = NewPanicError(r).ToJSON()
					err = nil
				}
			}()
			return next(ctx, payload)
		}
	}
}

// MaxPayloadMiddleware rejects guest requests over limit bytes before
// they reach JSON decoding. A guest claiming an enormous request size
// costs the host one length check, not an allocation.
func MaxPayloadMiddleware(limit int) Middleware {
	return func(next ByteHandler) ByteHandler {
		return func(ctx context.Context, payload []byte) ([]byte, error) {
			if limit > 0 && len(payload) > limit {
				return NewPayloadTooLargeError().ToJSON(), nil
			}
			return next(ctx, payload)
		}
	}
}

// LoggingMiddleware records each bridged invocation with its function
// name, principal and duration.
func LoggingMiddleware(logger log.Logger) Middleware {
	return func(next ByteHandler) ByteHandler {
		return func(ctx context.Context, payload []byte) ([]byte, error) {
			funcName := "unknown"
			if hc, ok := ctx.(HostContext); ok {
				funcName = hc.FunctionName()
			}
			uc := UserContextFrom(ctx)

			start := time.Now()
			resp, err := next(ctx, payload)
			fields := []any{
				"func", funcName,
				"principal", uc.Principal(),
				"duration", time.Since(start),
			}
			if err != nil {
				logger.Error("host function failed", append(fields, "error", err)...)
			} else {
				logger.Debug("host function completed", fields...)
			}
			return resp, err
		}
	}
}
