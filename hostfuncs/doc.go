// Package hostfuncs is the guest-facing bridge of the security core.
// Guests (WASM modules, Lua scripts) never call host collaborators
// directly: every call crosses this bridge as a named function with a
// JSON request and a JSON response, and every bridged function routes
// through the enforcement pipeline in application/secureops.
//
// The bridge never panics into the guest and never surfaces a Go error
// for a denial: denials, validation rejections and rate limits come
// back as structured JSON the guest can parse.
package hostfuncs
