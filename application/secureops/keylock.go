package secureops

import "sync"

// keyLocks serializes mutating effects per (principal, resource) key.
// Entries are refcounted and removed when the last holder releases, so
// the table stays proportional to in-flight mutations.
type keyLocks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyLocks() *keyLocks {
	return &keyLocks{entries: make(map[string]*lockEntry)}
}

// acquire locks the entry for key and returns its release function.
func (k *keyLocks) acquire(key string) func() {
	k.mu.Lock()
	entry, ok := k.entries[key]
	if !ok {
		entry = &lockEntry{}
		k.entries[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.entries, key)
		}
		k.mu.Unlock()
	}
}
