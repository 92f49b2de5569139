package secureops

import (
	"context"

	"github.com/scriptgate-dev/scriptgate/application/validation"
	"github.com/scriptgate-dev/scriptgate/domain/entities"
	derrors "github.com/scriptgate-dev/scriptgate/domain/errors"
)

var (
	actTableUpsert = action{name: "table_upsert", class: "tables", capability: entities.CapabilityWriteTables, mutating: true}
	actTableDelete = action{name: "table_delete", class: "tables", capability: entities.CapabilityWriteTables, mutating: true}
	actTableGet    = action{name: "table_get", class: "tables", capability: entities.CapabilityReadTables}
	actTableList   = action{name: "table_list", class: "tables", capability: entities.CapabilityReadTables}
)

// UpsertTable stores a table definition or row payload under the key.
// The per-tenant query engine behind the repository owns SQL-level
// concerns; this entry point owns mediation.
func (o *Ops) UpsertTable(ctx context.Context, uc entities.UserContext, key, definition string) entities.OpResult {
	return o.run(ctx, uc, actTableUpsert, key, []payload{
		{value: key, class: validation.ClassPath, field: "key"},
		{value: definition, class: validation.ClassField, field: "definition"},
	}, func(ctx context.Context) (map[string]any, error) {
		if err := o.deps.Tables.Upsert(ctx, key, []byte(definition)); err != nil {
			return nil, &derrors.UpstreamError{Err: err, Action: "table_upsert", Target: key}
		}
		return map[string]any{"key": key}, nil
	})
}

// DeleteTable removes a table definition.
func (o *Ops) DeleteTable(ctx context.Context, uc entities.UserContext, key string) entities.OpResult {
	return o.run(ctx, uc, actTableDelete, key, []payload{
		{value: key, class: validation.ClassPath, field: "key"},
	}, func(ctx context.Context) (map[string]any, error) {
		if err := o.deps.Tables.Delete(ctx, key); err != nil {
			return nil, &derrors.UpstreamError{Err: err, Action: "table_delete", Target: key}
		}
		return map[string]any{"key": key}, nil
	})
}

// GetTable returns a stored table definition.
func (o *Ops) GetTable(ctx context.Context, uc entities.UserContext, key string) entities.OpResult {
	return o.run(ctx, uc, actTableGet, key, []payload{
		{value: key, class: validation.ClassPath, field: "key"},
	}, func(ctx context.Context) (map[string]any, error) {
		content, err := o.deps.Tables.Get(ctx, key)
		if err != nil {
			return nil, &derrors.UpstreamError{Err: err, Action: "table_get", Target: key}
		}
		return map[string]any{"key": key, "definition": string(content)}, nil
	})
}

// ListTables lists table keys under the prefix.
func (o *Ops) ListTables(ctx context.Context, uc entities.UserContext, prefix string) entities.OpResult {
	return o.run(ctx, uc, actTableList, prefix, []payload{
		{value: prefix, class: validation.ClassPath, field: "prefix"},
	}, func(ctx context.Context) (map[string]any, error) {
		keys, err := o.deps.Tables.List(ctx, prefix)
		if err != nil {
			return nil, &derrors.UpstreamError{Err: err, Action: "table_list", Target: prefix}
		}
		return map[string]any{"keys": keys}, nil
	})
}
