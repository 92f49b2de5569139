package entities

// UserContext is the identity for one guest execution. It is built by
// the request dispatcher before the guest runs and is immutable for
// the lifetime of the request: the capability set observed by the
// first pipeline step is the set observed by the last.
type UserContext struct {
	principal string
	anonymous bool
	role      Role
	scriptURI string
	owners    []string
	sourceIP  string
}

// NewUserContext creates an authenticated user context.
func NewUserContext(principal string, role Role) UserContext {
	return UserContext{principal: principal, role: role}
}

// NewAnonymousContext creates a context for an unauthenticated caller.
// Anonymous callers carry the anonymous role regardless of the role
// argument a dispatcher might otherwise supply.
func NewAnonymousContext(sourceIP string) UserContext {
	return UserContext{
		principal: "anonymous",
		anonymous: true,
		role:      RoleAnonymous,
		sourceIP:  sourceIP,
	}
}

// WithScript returns a copy carrying the executing script's URI and
// owning principals.
func (u UserContext) WithScript(uri string, owners ...string) UserContext {
	u.scriptURI = uri
	u.owners = append([]string(nil), owners...)
	return u
}

// WithSourceIP returns a copy carrying the caller's network address.
func (u UserContext) WithSourceIP(ip string) UserContext {
	u.sourceIP = ip
	return u
}

// Principal returns the principal identifier ("anonymous" for
// unauthenticated callers).
func (u UserContext) Principal() string { return u.principal }

// Anonymous reports whether the caller is unauthenticated.
func (u UserContext) Anonymous() bool { return u.anonymous }

// Role returns the assigned role.
func (u UserContext) Role() Role { return u.role }

// ScriptURI returns the URI of the executing script, if any.
func (u UserContext) ScriptURI() string { return u.scriptURI }

// Owners returns the owning principals of the executing script.
func (u UserContext) Owners() []string {
	return append([]string(nil), u.owners...)
}

// SourceIP returns the caller's network address, if known.
func (u UserContext) SourceIP() string { return u.sourceIP }

// RateKey returns the identity used for rate-limit bucketing: the
// principal for authenticated callers, the source address otherwise.
func (u UserContext) RateKey() string {
	if u.anonymous && u.sourceIP != "" {
		return "ip:" + u.sourceIP
	}
	return u.principal
}

// Has reports whether the context's role carries the capability.
func (u UserContext) Has(c Capability) bool {
	return u.role.Has(c)
}
