package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleHas(t *testing.T) {
	t.Run("direct capability", func(t *testing.T) {
		role := NewRole("reader", CapabilityReadScripts)
		assert.True(t, role.Has(CapabilityReadScripts))
		assert.False(t, role.Has(CapabilityWriteScripts))
	})

	t.Run("admin implies everything", func(t *testing.T) {
		for _, c := range []Capability{
			CapabilityReadScripts, CapabilityWriteScripts, CapabilityFetch,
			CapabilityListSecrets, CapabilityViewLogs, CapabilityBroadcast,
		} {
			assert.True(t, RoleAdministrator.Has(c), "administrator should hold %s", c)
		}
	})

	t.Run("empty role has nothing", func(t *testing.T) {
		assert.False(t, RoleAnonymous.Has(CapabilityReadScripts))
	})
}

func TestRoleImplies(t *testing.T) {
	t.Run("builtin hierarchy", func(t *testing.T) {
		assert.True(t, RoleAdministrator.Implies(RoleEditor))
		assert.True(t, RoleAdministrator.Implies(RoleAuthenticated))
		assert.True(t, RoleEditor.Implies(RoleAuthenticated))
		assert.True(t, RoleAuthenticated.Implies(RoleAnonymous))
	})

	t.Run("implication does not reverse", func(t *testing.T) {
		assert.False(t, RoleAuthenticated.Implies(RoleEditor))
		assert.False(t, RoleEditor.Implies(RoleAdministrator))
	})

	t.Run("disjoint roles do not imply each other", func(t *testing.T) {
		a := NewRole("a", CapabilityReadScripts)
		b := NewRole("b", CapabilityFetch)
		assert.False(t, a.Implies(b))
		assert.False(t, b.Implies(a))
	})
}

func TestBuiltinRoles(t *testing.T) {
	roles := BuiltinRoles()
	require.Len(t, roles, 4)
	for name, role := range roles {
		assert.Equal(t, name, role.Name)
	}

	// Editor deliberately lacks the admin-only surface.
	editor := roles[RoleEditor.Name]
	assert.False(t, editor.Has(CapabilityViewLogs))
	assert.False(t, editor.Has(CapabilityAdmin))
}

func TestRoleList(t *testing.T) {
	role := NewRole("r", CapabilityWriteScripts, CapabilityReadScripts)
	assert.Equal(t, []Capability{CapabilityReadScripts, CapabilityWriteScripts}, role.List())
}
