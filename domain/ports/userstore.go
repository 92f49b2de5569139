package ports

import (
	"context"

	"github.com/scriptgate-dev/scriptgate/domain/entities"
)

// UserStore is the external user repository. Role assignments persist
// there; the core reads them at request time and never caches them
// across requests.
type UserStore interface {
	// RoleFor returns the role assigned to the principal.
	RoleFor(ctx context.Context, principal string) (entities.Role, error)

	// ListRoles returns all known role names.
	ListRoles(ctx context.Context) ([]string, error)

	// AssignRole assigns a named role to the principal.
	AssignRole(ctx context.Context, principal, role string) error

	// RemoveRole clears the principal's role assignment.
	RemoveRole(ctx context.Context, principal string) error
}
