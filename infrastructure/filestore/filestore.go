// Package filestore persists one resource class (scripts, assets,
// table definitions) as files under a root directory. Keys map to
// relative paths; anything that would escape the root is rejected
// before touching the filesystem.
package filestore

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/scriptgate-dev/scriptgate/domain/ports"
)

type storeConfig struct {
	dirPerm  os.FileMode
	filePerm os.FileMode
}

func defaultStoreConfig() storeConfig {
	return storeConfig{
		dirPerm:  0o755,
		filePerm: 0o600,
	}
}

// Option configures a Store.
type Option func(*storeConfig)

// WithFilePermissions sets permissions for stored files. Default is
// 0o600.
func WithFilePermissions(perm os.FileMode) Option {
	return func(c *storeConfig) {
		c.filePerm = perm
	}
}

// WithDirPermissions sets permissions for created directories. Default
// is 0o755.
func WithDirPermissions(perm os.FileMode) Option {
	return func(c *storeConfig) {
		c.dirPerm = perm
	}
}

// Store is a file-backed ports.Repository rooted at one directory.
type Store struct {
	root   string
	config storeConfig
}

// NewStore creates a Store rooted at dir. The directory is created on
// first write, not here.
func NewStore(dir string, opts ...Option) *Store {
	cfg := defaultStoreConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Store{root: dir, config: cfg}
}

var _ ports.Repository = (*Store)(nil)

// resolve maps a key to an absolute path under the root. The upper
// validation layer already rejects traversal sequences; this is the
// repository's own boundary and holds even for native callers.
func (s *Store) resolve(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("empty key")
	}
	clean := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("key %q escapes store root", key)
	}
	return filepath.Join(s.root, clean), nil
}

func (s *Store) Upsert(ctx context.Context, key string, content []byte) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), s.config.dirPerm); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	if err := os.WriteFile(path, content, s.config.filePerm); err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", key, err)
	}
	return data, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == s.root {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if prefix == "" || strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list store: %w", err)
	}
	return keys, nil
}
