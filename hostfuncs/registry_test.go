package hostfuncs

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoRequest struct {
	Value string `json:"value"`
}

type echoResponse struct {
	Echo string `json:"echo"`
}

func echoOption() RegistryOption {
	return WithHandler("echo", func(ctx context.Context, req echoRequest) echoResponse {
		return echoResponse{Echo: req.Value}
	})
}

func decodeError(t *testing.T, raw []byte) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	return resp
}

func TestRegistryInvoke(t *testing.T) {
	registry, err := NewRegistry(echoOption())
	require.NoError(t, err)

	raw, err := registry.Invoke(context.Background(), "echo", []byte(`{"value":"hi"}`))
	require.NoError(t, err)

	var resp echoResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	assert.Equal(t, "hi", resp.Echo)
}

func TestRegistryUnknownName(t *testing.T) {
	registry, err := NewRegistry(echoOption())
	require.NoError(t, err)

	raw, err := registry.Invoke(context.Background(), "nope", nil)
	require.NoError(t, err)

	resp := decodeError(t, raw)
	assert.Equal(t, "NOT_FOUND", resp.Error)
	assert.Equal(t, 404, resp.Code)
	assert.Contains(t, resp.Message, "nope")
}

func TestRegistryMalformedPayload(t *testing.T) {
	registry, err := NewRegistry(echoOption())
	require.NoError(t, err)

	raw, err := registry.Invoke(context.Background(), "echo", []byte(`{not json`))
	require.NoError(t, err)

	resp := decodeError(t, raw)
	assert.Equal(t, "MALFORMED_REQUEST", resp.Error)
	assert.Equal(t, 400, resp.Code)
}

func TestRegistryDuplicateNameFails(t *testing.T) {
	_, err := NewRegistry(echoOption(), echoOption())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestRegistryEmptyNameFails(t *testing.T) {
	_, err := NewRegistry(WithByteHandler("", func(ctx context.Context, payload []byte) ([]byte, error) {
		return nil, nil
	}))
	require.Error(t, err)
}

func TestRegistryNamesSorted(t *testing.T) {
	registry, err := NewRegistry(
		WithByteHandler("zeta", func(ctx context.Context, payload []byte) ([]byte, error) { return nil, nil }),
		WithByteHandler("alpha", func(ctx context.Context, payload []byte) ([]byte, error) { return nil, nil }),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha", "zeta"}, registry.Names())
	assert.True(t, registry.Has("alpha"))
	assert.False(t, registry.Has("beta"))
}

func TestMiddlewareOrder(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next ByteHandler) ByteHandler {
			return func(ctx context.Context, payload []byte) ([]byte, error) {
				order = append(order, name)
				return next(ctx, payload)
			}
		}
	}

	registry, err := NewRegistry(
		WithMiddleware(tag("outer"), tag("inner")),
		echoOption(),
	)
	require.NoError(t, err)

	_, err = registry.Invoke(context.Background(), "echo", []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestPanicRecovery(t *testing.T) {
	registry, err := NewRegistry(
		WithMiddleware(PanicRecoveryMiddleware()),
		WithByteHandler("boom", func(ctx context.Context, payload []byte) ([]byte, error) {
			panic("handler bug")
		}),
	)
	require.NoError(t, err)

	raw, err := registry.Invoke(context.Background(), "boom", nil)
	require.NoError(t, err)

	resp := decodeError(t, raw)
	assert.Equal(t, "INTERNAL_ERROR", resp.Error)
	assert.Contains(t, resp.Message, "handler bug")
}

func TestMaxPayloadMiddleware(t *testing.T) {
	registry, err := NewRegistry(
		WithMiddleware(MaxPayloadMiddleware(8)),
		echoOption(),
	)
	require.NoError(t, err)

	raw, err := registry.Invoke(context.Background(), "echo", []byte(`{"value":"too long for the cap"}`))
	require.NoError(t, err)

	resp := decodeError(t, raw)
	assert.Equal(t, "PAYLOAD_TOO_LARGE", resp.Error)
	assert.Equal(t, 413, resp.Code)
}

func TestHandlerSeesFunctionName(t *testing.T) {
	registry, err := NewRegistry(
		WithByteHandler("who", func(ctx context.Context, payload []byte) ([]byte, error) {
			hc, ok := ctx.(HostContext)
			require.True(t, ok)
			return []byte(hc.FunctionName()), nil
		}),
	)
	require.NoError(t, err)

	raw, err := registry.Invoke(context.Background(), "who", nil)
	require.NoError(t, err)
	assert.Equal(t, "who", string(raw))
}
