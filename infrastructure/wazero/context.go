package wazero

import (
	"context"

	"github.com/tetratelabs/wazero/api"

	"github.com/scriptgate-dev/scriptgate/domain/entities"
	"github.com/scriptgate-dev/scriptgate/hostfuncs"
)

// WithPrincipal binds the calling principal to the context an entire
// guest execution will run under. Set it once before instantiating or
// invoking the guest; every bridged call then carries this identity.
func WithPrincipal(ctx context.Context, uc entities.UserContext) context.Context {
	return hostfuncs.WithUserContext(ctx, uc)
}

// GuestName names the calling guest for diagnostics: the script URI
// when the principal carries one, otherwise the WASM module name.
func GuestName(ctx context.Context, mod api.Module) string {
	uc := hostfuncs.UserContextFrom(ctx)
	if uri := uc.ScriptURI(); uri != "" {
		return uri
	}
	return mod.Name()
}
