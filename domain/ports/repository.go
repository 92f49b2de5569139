package ports

import "context"

// Repository is a keyed store for one resource class (scripts, assets,
// tenant tables). The delegate owns atomicity of individual
// operations; the core owns ordering and mediation.
type Repository interface {
	// Upsert stores content under the key, creating or replacing it.
	Upsert(ctx context.Context, key string, content []byte) error

	// Get returns the content stored under the key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes the key. Deleting a missing key is an error.
	Delete(ctx context.Context, key string) error

	// List returns the stored keys, optionally filtered by prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}
