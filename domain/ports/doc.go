// Package ports defines the interfaces the security core consumes
// from external collaborators (storage, transport, registries, user
// repository) and the sinks it exposes events to. The core never
// bypasses these interfaces with direct resource access.
package ports
