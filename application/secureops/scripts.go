package secureops

import (
	"context"

	"github.com/scriptgate-dev/scriptgate/application/validation"
	"github.com/scriptgate-dev/scriptgate/domain/entities"
	derrors "github.com/scriptgate-dev/scriptgate/domain/errors"
)

var (
	actScriptUpsert = action{name: "script_upsert", class: "scripts", capability: entities.CapabilityWriteScripts, mutating: true}
	actScriptDelete = action{name: "script_delete", class: "scripts", capability: entities.CapabilityWriteScripts, mutating: true}
	actScriptGet    = action{name: "script_get", class: "scripts", capability: entities.CapabilityReadScripts}
	actScriptList   = action{name: "script_list", class: "scripts", capability: entities.CapabilityReadScripts}
)

// UpsertScript stores guest script source under the key.
func (o *Ops) UpsertScript(ctx context.Context, uc entities.UserContext, key, source string) entities.OpResult {
	return o.run(ctx, uc, actScriptUpsert, key, []payload{
		{value: key, class: validation.ClassPath, field: "key"},
		{value: source, class: validation.ClassScript, field: "source"},
	}, func(ctx context.Context) (map[string]any, error) {
		if err := o.deps.Scripts.Upsert(ctx, key, []byte(source)); err != nil {
			return nil, &derrors.UpstreamError{Err: err, Action: "script_upsert", Target: key}
		}
		return map[string]any{"key": key}, nil
	})
}

// DeleteScript removes a stored script.
func (o *Ops) DeleteScript(ctx context.Context, uc entities.UserContext, key string) entities.OpResult {
	return o.run(ctx, uc, actScriptDelete, key, []payload{
		{value: key, class: validation.ClassPath, field: "key"},
	}, func(ctx context.Context) (map[string]any, error) {
		if err := o.deps.Scripts.Delete(ctx, key); err != nil {
			return nil, &derrors.UpstreamError{Err: err, Action: "script_delete", Target: key}
		}
		return map[string]any{"key": key}, nil
	})
}

// GetScript returns stored script source.
func (o *Ops) GetScript(ctx context.Context, uc entities.UserContext, key string) entities.OpResult {
	return o.run(ctx, uc, actScriptGet, key, []payload{
		{value: key, class: validation.ClassPath, field: "key"},
	}, func(ctx context.Context) (map[string]any, error) {
		content, err := o.deps.Scripts.Get(ctx, key)
		if err != nil {
			return nil, &derrors.UpstreamError{Err: err, Action: "script_get", Target: key}
		}
		return map[string]any{"key": key, "source": string(content)}, nil
	})
}

// ListScripts lists stored script keys under the prefix.
func (o *Ops) ListScripts(ctx context.Context, uc entities.UserContext, prefix string) entities.OpResult {
	return o.run(ctx, uc, actScriptList, prefix, []payload{
		{value: prefix, class: validation.ClassPath, field: "prefix"},
	}, func(ctx context.Context) (map[string]any, error) {
		keys, err := o.deps.Scripts.List(ctx, prefix)
		if err != nil {
			return nil, &derrors.UpstreamError{Err: err, Action: "script_list", Target: prefix}
		}
		return map[string]any{"keys": keys}, nil
	})
}
