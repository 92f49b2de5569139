package secureops

import (
	"context"
	"time"

	"github.com/scriptgate-dev/scriptgate/application/audit"
	"github.com/scriptgate-dev/scriptgate/application/validation"
	"github.com/scriptgate-dev/scriptgate/domain/entities"
	derrors "github.com/scriptgate-dev/scriptgate/domain/errors"
)

var (
	actSecretExists = action{name: "secret_exists", class: "secrets", capability: entities.CapabilityListSecrets}
	actSecretList   = action{name: "secret_list", class: "secrets", capability: entities.CapabilityListSecrets}
	actSecretPut    = action{name: "secret_put", class: "admin", capability: entities.CapabilityAdmin, mutating: true}
	actSecretDelete = action{name: "secret_delete", class: "admin", capability: entities.CapabilityAdmin, mutating: true}
	actAuditQuery   = action{name: "audit_query", class: "audit", capability: entities.CapabilityViewLogs}
	actAuditPrune   = action{name: "audit_prune", class: "admin", capability: entities.CapabilityAdmin, mutating: true}
	actRoleList     = action{name: "role_list", class: "admin", capability: entities.CapabilityAdmin}
	actRoleAssign   = action{name: "role_assign", class: "admin", capability: entities.CapabilityAdmin, mutating: true}
	actRoleRemove   = action{name: "role_remove", class: "admin", capability: entities.CapabilityAdmin, mutating: true}
)

// SecretExists reports whether a secret identifier is present. This
// and SecretIdentifiers are the entire guest-reachable secret surface:
// values never cross.
func (o *Ops) SecretExists(ctx context.Context, uc entities.UserContext, id string) entities.OpResult {
	return o.run(ctx, uc, actSecretExists, id, []payload{
		{value: id, class: validation.ClassPath, field: "id"},
	}, func(ctx context.Context) (map[string]any, error) {
		return map[string]any{"id": id, "exists": o.store.Exists(id)}, nil
	})
}

// SecretIdentifiers lists known secret identifiers.
func (o *Ops) SecretIdentifiers(ctx context.Context, uc entities.UserContext) entities.OpResult {
	return o.run(ctx, uc, actSecretList, "", nil, func(ctx context.Context) (map[string]any, error) {
		return map[string]any{"identifiers": o.store.Identifiers()}, nil
	})
}

// PutSecret adds or replaces a secret at runtime. Administrator only,
// and native-only: this entry point is never bound into the guest
// bridge, so secret values cannot transit guest memory in either
// direction.
func (o *Ops) PutSecret(ctx context.Context, uc entities.UserContext, id, value string) entities.OpResult {
	return o.run(ctx, uc, actSecretPut, id, []payload{
		{value: id, class: validation.ClassPath, field: "id"},
	}, func(ctx context.Context) (map[string]any, error) {
		o.store.Put(id, value)
		return map[string]any{"id": id}, nil
	})
}

// DeleteSecret removes a secret at runtime. Administrator and
// native-only, like PutSecret.
func (o *Ops) DeleteSecret(ctx context.Context, uc entities.UserContext, id string) entities.OpResult {
	return o.run(ctx, uc, actSecretDelete, id, []payload{
		{value: id, class: validation.ClassPath, field: "id"},
	}, func(ctx context.Context) (map[string]any, error) {
		if !o.store.Delete(id) {
			return nil, &derrors.SecretNotFoundError{Identifier: id}
		}
		return map[string]any{"id": id}, nil
	})
}

// QueryAudit returns retained audit events matching the filter.
func (o *Ops) QueryAudit(ctx context.Context, uc entities.UserContext, filter audit.Filter) entities.OpResult {
	return o.run(ctx, uc, actAuditQuery, "", nil, func(ctx context.Context) (map[string]any, error) {
		events := o.auditor.Query(filter)
		return map[string]any{"events": events, "count": len(events)}, nil
	})
}

// PruneAudit drops retained audit events older than the cutoff.
func (o *Ops) PruneAudit(ctx context.Context, uc entities.UserContext, before time.Time) entities.OpResult {
	return o.run(ctx, uc, actAuditPrune, "", nil, func(ctx context.Context) (map[string]any, error) {
		removed := o.auditor.Prune(before)
		return map[string]any{"removed": removed}, nil
	})
}

// ListRoles lists role names known to the user repository.
func (o *Ops) ListRoles(ctx context.Context, uc entities.UserContext) entities.OpResult {
	return o.run(ctx, uc, actRoleList, "", nil, func(ctx context.Context) (map[string]any, error) {
		roles, err := o.deps.Users.ListRoles(ctx)
		if err != nil {
			return nil, &derrors.UpstreamError{Err: err, Action: actRoleList.name}
		}
		return map[string]any{"roles": roles}, nil
	})
}

// AssignRole assigns a named role to a principal.
func (o *Ops) AssignRole(ctx context.Context, uc entities.UserContext, principal, role string) entities.OpResult {
	return o.run(ctx, uc, actRoleAssign, principal, []payload{
		{value: principal, class: validation.ClassPath, field: "principal"},
		{value: role, class: validation.ClassPath, field: "role"},
	}, func(ctx context.Context) (map[string]any, error) {
		if err := o.deps.Users.AssignRole(ctx, principal, role); err != nil {
			return nil, &derrors.UpstreamError{Err: err, Action: actRoleAssign.name, Target: principal}
		}
		return map[string]any{"principal": principal, "role": role}, nil
	})
}

// RemoveRole clears a principal's role assignment.
func (o *Ops) RemoveRole(ctx context.Context, uc entities.UserContext, principal string) entities.OpResult {
	return o.run(ctx, uc, actRoleRemove, principal, []payload{
		{value: principal, class: validation.ClassPath, field: "principal"},
	}, func(ctx context.Context) (map[string]any, error) {
		if err := o.deps.Users.RemoveRole(ctx, principal); err != nil {
			return nil, &derrors.UpstreamError{Err: err, Action: actRoleRemove.name, Target: principal}
		}
		return map[string]any{"principal": principal}, nil
	})
}
