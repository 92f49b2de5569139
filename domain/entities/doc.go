// Package entities provides the core domain types of the security
// core: capabilities and roles, the per-request user context, security
// events, and the structured results returned across the guest
// boundary.
package entities
