package entities

import "sort"

// Capability is an atomic permission tag. A role is a set of
// capabilities; granting a role grants exactly its set, plus anything
// implied by CapabilityAdmin.
type Capability string

const (
	// CapabilityReadScripts allows reading stored guest scripts.
	CapabilityReadScripts Capability = "scripts.read"

	// CapabilityWriteScripts allows creating, updating and deleting
	// stored guest scripts.
	CapabilityWriteScripts Capability = "scripts.write"

	// CapabilityReadAssets allows reading stored assets.
	CapabilityReadAssets Capability = "assets.read"

	// CapabilityWriteAssets allows creating and updating assets.
	CapabilityWriteAssets Capability = "assets.write"

	// CapabilityDeleteAssets allows deleting assets.
	CapabilityDeleteAssets Capability = "assets.delete"

	// CapabilityReadTables allows reading tenant table data.
	CapabilityReadTables Capability = "tables.read"

	// CapabilityWriteTables allows mutating tenant tables and schemas.
	CapabilityWriteTables Capability = "tables.write"

	// CapabilityFetch allows outbound HTTP requests through the host
	// transport.
	CapabilityFetch Capability = "net.fetch"

	// CapabilityBroadcast allows publishing to server-side streams.
	CapabilityBroadcast Capability = "streams.broadcast"

	// CapabilityRegister allows registering routes, resolvers and
	// tools with the host registries.
	CapabilityRegister Capability = "endpoints.register"

	// CapabilityListSecrets allows listing secret identifiers and
	// checking existence. Secret values are never readable through any
	// capability; see the secrets package.
	CapabilityListSecrets Capability = "secrets.list"

	// CapabilityViewLogs allows reading the audit event stream.
	CapabilityViewLogs Capability = "logs.view"

	// CapabilityAdmin grants every capability, including the
	// administrative surface (role management, audit pruning, secret
	// identifier administration).
	CapabilityAdmin Capability = "admin"
)

// Role is a named set of capabilities.
type Role struct {
	Name         string
	Capabilities map[Capability]bool
}

// NewRole creates a role from a capability list.
func NewRole(name string, caps ...Capability) Role {
	set := make(map[Capability]bool, len(caps))
	for _, c := range caps {
		set[c] = true
	}
	return Role{Name: name, Capabilities: set}
}

// Has reports whether the role carries the capability, directly or via
// CapabilityAdmin.
func (r Role) Has(c Capability) bool {
	if r.Capabilities[CapabilityAdmin] {
		return true
	}
	return r.Capabilities[c]
}

// Implies reports whether this role's capability set is a superset of
// the other role's set. A role holding CapabilityAdmin implies every
// role.
func (r Role) Implies(other Role) bool {
	if r.Capabilities[CapabilityAdmin] {
		return true
	}
	for c := range other.Capabilities {
		if !r.Capabilities[c] {
			return false
		}
	}
	return true
}

// List returns the role's capabilities in sorted order.
func (r Role) List() []Capability {
	out := make([]Capability, 0, len(r.Capabilities))
	for c := range r.Capabilities {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Built-in roles. Administrator implies Editor implies Authenticated
// implies Anonymous; the implication holds because each set is a
// superset of the next.
var (
	RoleAnonymous = NewRole("anonymous")

	RoleAuthenticated = NewRole("authenticated",
		CapabilityReadScripts,
		CapabilityReadAssets,
		CapabilityReadTables,
	)

	RoleEditor = NewRole("editor",
		CapabilityReadScripts,
		CapabilityWriteScripts,
		CapabilityReadAssets,
		CapabilityWriteAssets,
		CapabilityDeleteAssets,
		CapabilityReadTables,
		CapabilityWriteTables,
		CapabilityFetch,
		CapabilityBroadcast,
		CapabilityRegister,
		CapabilityListSecrets,
	)

	RoleAdministrator = NewRole("administrator", CapabilityAdmin)
)

// BuiltinRoles returns the built-in roles keyed by name.
func BuiltinRoles() map[string]Role {
	return map[string]Role{
		RoleAnonymous.Name:     RoleAnonymous,
		RoleAuthenticated.Name: RoleAuthenticated,
		RoleEditor.Name:        RoleEditor,
		RoleAdministrator.Name: RoleAdministrator,
	}
}
