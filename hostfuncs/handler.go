package hostfuncs

import (
	"context"
	"encoding/json"
)

// HostFunc is the typed signature of one bridged function: a context
// and a typed request in, a typed response out. The response type is
// usually entities.OpResult.
type HostFunc[Req any, Resp any] func(context.Context, Req) Resp

// ByteHandler is the raw form every guest runtime speaks: JSON bytes
// in, JSON bytes out. A non-nil error means the bridge itself failed;
// operation failures travel inside the response bytes.
type ByteHandler func(context.Context, []byte) ([]byte, error)

// NewJSONHandler adapts a typed HostFunc into a ByteHandler. A request
// that does not decode into Req comes back as an ErrorResponse rather
// than a Go error, so a malformed guest payload cannot trap the
// runtime.
func NewJSONHandler[Req any, Resp any](fn HostFunc[Req, Resp]) ByteHandler {
	return func(ctx context.Context, payload []byte) ([]byte, error) {
		var req Req
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &req); err != nil {
				return NewMalformedRequestError(err.Error()).ToJSON(), nil
			}
		}

		resp := fn(ctx, req)

		out, err := json.Marshal(resp)
		if err != nil {
			return NewInternalError("encoding response failed").ToJSON(), nil
		}
		return out, nil
	}
}
