package hostfuncs

import (
	"context"
	"encoding/base64"

	"github.com/scriptgate-dev/scriptgate/application/audit"
	"github.com/scriptgate-dev/scriptgate/application/secureops"
	"github.com/scriptgate-dev/scriptgate/domain/entities"
)

// HostFuncBundle is a named group of bridged functions registered as a
// unit.
type HostFuncBundle interface {
	// Handlers maps function names to their ByteHandler.
	Handlers() map[string]ByteHandler
}

type staticBundle struct {
	handlers map[string]ByteHandler
}

func (b *staticBundle) Handlers() map[string]ByteHandler {
	return b.handlers
}

// KeyRequest addresses one stored resource.
type KeyRequest struct {
	Key string `json:"key"`
}

// PrefixRequest scopes a listing.
type PrefixRequest struct {
	Prefix string `json:"prefix,omitempty"`
}

// ScriptUpsertRequest stores or replaces a script.
type ScriptUpsertRequest struct {
	Key    string `json:"key"`
	Source string `json:"source"`
}

// AssetPutRequest stores binary content, base64-encoded for the JSON
// crossing.
type AssetPutRequest struct {
	Key     string `json:"key"`
	Content string `json:"content"`
}

// TableUpsertRequest stores or replaces a table definition.
type TableUpsertRequest struct {
	Key        string `json:"key"`
	Definition string `json:"definition"`
}

// RegisterRequest declares a route, resolver or tool endpoint.
type RegisterRequest struct {
	Name       string         `json:"name"`
	HandlerRef string         `json:"handler_ref"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// BroadcastRequest pushes a message to a named stream.
type BroadcastRequest struct {
	Stream  string `json:"stream"`
	Message string `json:"message"`
}

// SecretRequest names a secret by identifier only. No bridged request
// or response ever carries a secret value.
type SecretRequest struct {
	ID string `json:"id"`
}

// ScriptBundle bridges script storage: script_upsert, script_delete,
// script_get, script_list.
func ScriptBundle(ops *secureops.Ops) HostFuncBundle {
	return &staticBundle{
		handlers: map[string]ByteHandler{
			"script_upsert": NewJSONHandler(func(ctx context.Context, req ScriptUpsertRequest) entities.OpResult {
				return ops.UpsertScript(ctx, UserContextFrom(ctx), req.Key, req.Source)
			}),
			"script_delete": NewJSONHandler(func(ctx context.Context, req KeyRequest) entities.OpResult {
				return ops.DeleteScript(ctx, UserContextFrom(ctx), req.Key)
			}),
			"script_get": NewJSONHandler(func(ctx context.Context, req KeyRequest) entities.OpResult {
				return ops.GetScript(ctx, UserContextFrom(ctx), req.Key)
			}),
			"script_list": NewJSONHandler(func(ctx context.Context, req PrefixRequest) entities.OpResult {
				return ops.ListScripts(ctx, UserContextFrom(ctx), req.Prefix)
			}),
		},
	}
}

// AssetBundle bridges asset storage: asset_put, asset_delete,
// asset_get, asset_list. Content crosses the bridge base64-encoded.
func AssetBundle(ops *secureops.Ops) HostFuncBundle {
	return &staticBundle{
		handlers: map[string]ByteHandler{
			"asset_put": NewJSONHandler(func(ctx context.Context, req AssetPutRequest) entities.OpResult {
				content, err := base64.StdEncoding.DecodeString(req.Content)
				if err != nil {
					return entities.OpFailure(entities.ErrKindValidationRejected, "content is not valid base64")
				}
				return ops.PutAsset(ctx, UserContextFrom(ctx), req.Key, content)
			}),
			"asset_delete": NewJSONHandler(func(ctx context.Context, req KeyRequest) entities.OpResult {
				return ops.DeleteAsset(ctx, UserContextFrom(ctx), req.Key)
			}),
			"asset_get": NewJSONHandler(func(ctx context.Context, req KeyRequest) entities.OpResult {
				return ops.GetAsset(ctx, UserContextFrom(ctx), req.Key)
			}),
			"asset_list": NewJSONHandler(func(ctx context.Context, req PrefixRequest) entities.OpResult {
				return ops.ListAssets(ctx, UserContextFrom(ctx), req.Prefix)
			}),
		},
	}
}

// TableBundle bridges table definitions: table_upsert, table_delete,
// table_get, table_list.
func TableBundle(ops *secureops.Ops) HostFuncBundle {
	return &staticBundle{
		handlers: map[string]ByteHandler{
			"table_upsert": NewJSONHandler(func(ctx context.Context, req TableUpsertRequest) entities.OpResult {
				return ops.UpsertTable(ctx, UserContextFrom(ctx), req.Key, req.Definition)
			}),
			"table_delete": NewJSONHandler(func(ctx context.Context, req KeyRequest) entities.OpResult {
				return ops.DeleteTable(ctx, UserContextFrom(ctx), req.Key)
			}),
			"table_get": NewJSONHandler(func(ctx context.Context, req KeyRequest) entities.OpResult {
				return ops.GetTable(ctx, UserContextFrom(ctx), req.Key)
			}),
			"table_list": NewJSONHandler(func(ctx context.Context, req PrefixRequest) entities.OpResult {
				return ops.ListTables(ctx, UserContextFrom(ctx), req.Prefix)
			}),
		},
	}
}

// FetchBundle bridges mediated outbound HTTP: http_fetch. Secret
// markers in headers and body are resolved host-side after the
// capability check; the guest never sees resolved values in its own
// request.
func FetchBundle(ops *secureops.Ops) HostFuncBundle {
	return &staticBundle{
		handlers: map[string]ByteHandler{
			"http_fetch": NewJSONHandler(func(ctx context.Context, req secureops.FetchRequest) entities.OpResult {
				return ops.Fetch(ctx, UserContextFrom(ctx), req)
			}),
		},
	}
}

// RegistrationBundle bridges endpoint registration and stream
// broadcast: register_route, register_resolver, register_tool,
// stream_broadcast.
func RegistrationBundle(ops *secureops.Ops) HostFuncBundle {
	return &staticBundle{
		handlers: map[string]ByteHandler{
			"register_route": NewJSONHandler(func(ctx context.Context, req RegisterRequest) entities.OpResult {
				return ops.RegisterRoute(ctx, UserContextFrom(ctx), req.Name, req.HandlerRef, req.Metadata)
			}),
			"register_resolver": NewJSONHandler(func(ctx context.Context, req RegisterRequest) entities.OpResult {
				return ops.RegisterResolver(ctx, UserContextFrom(ctx), req.Name, req.HandlerRef, req.Metadata)
			}),
			"register_tool": NewJSONHandler(func(ctx context.Context, req RegisterRequest) entities.OpResult {
				return ops.RegisterTool(ctx, UserContextFrom(ctx), req.Name, req.HandlerRef, req.Metadata)
			}),
			"stream_broadcast": NewJSONHandler(func(ctx context.Context, req BroadcastRequest) entities.OpResult {
				return ops.Broadcast(ctx, UserContextFrom(ctx), req.Stream, req.Message)
			}),
		},
	}
}

// SecretBundle bridges the opaque secret surface: secret_exists and
// secret_list. Retrieval is deliberately absent; values are only ever
// injected host-side during http_fetch.
func SecretBundle(ops *secureops.Ops) HostFuncBundle {
	return &staticBundle{
		handlers: map[string]ByteHandler{
			"secret_exists": NewJSONHandler(func(ctx context.Context, req SecretRequest) entities.OpResult {
				return ops.SecretExists(ctx, UserContextFrom(ctx), req.ID)
			}),
			"secret_list": NewJSONHandler(func(ctx context.Context, req struct{}) entities.OpResult {
				return ops.SecretIdentifiers(ctx, UserContextFrom(ctx))
			}),
		},
	}
}

// AuditBundle bridges audit introspection for log viewers:
// audit_query.
func AuditBundle(ops *secureops.Ops) HostFuncBundle {
	return &staticBundle{
		handlers: map[string]ByteHandler{
			"audit_query": NewJSONHandler(func(ctx context.Context, req audit.Filter) entities.OpResult {
				return ops.QueryAudit(ctx, UserContextFrom(ctx), req)
			}),
		},
	}
}

type compositeBundle struct {
	bundles []HostFuncBundle
}

func (b *compositeBundle) Handlers() map[string]ByteHandler {
	result := make(map[string]ByteHandler)
	for _, bundle := range b.bundles {
		for name, handler := range bundle.Handlers() {
			result[name] = handler
		}
	}
	return result
}

// GuestBundle is the full guest-safe surface. Secret mutation, audit
// pruning and role administration are native entry points on Ops and
// are intentionally not bridged.
func GuestBundle(ops *secureops.Ops) HostFuncBundle {
	return &compositeBundle{
		bundles: []HostFuncBundle{
			ScriptBundle(ops),
			AssetBundle(ops),
			TableBundle(ops),
			FetchBundle(ops),
			RegistrationBundle(ops),
			SecretBundle(ops),
			AuditBundle(ops),
		},
	}
}

// WithBundle registers every handler in the bundle.
func WithBundle(bundle HostFuncBundle) RegistryOption {
	return func(b *registryBuilder) {
		for name, handler := range bundle.Handlers() {
			if err := b.addHandler(name, handler); err != nil {
				b.errors = append(b.errors, err)
			}
		}
	}
}
