// Package userstore persists role assignments. Assignments live in a
// YAML file keyed by principal; role definitions themselves come from
// the built-in role set.
package userstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/scriptgate-dev/scriptgate/domain/entities"
	"github.com/scriptgate-dev/scriptgate/domain/ports"
)

type fileStoreConfig struct {
	path     string
	dirPerm  os.FileMode
	filePerm os.FileMode
}

func defaultFileStoreConfig() fileStoreConfig {
	return fileStoreConfig{
		path:     filepath.Join(os.Getenv("HOME"), ".scriptgate", "roles.yaml"),
		dirPerm:  0o755,
		filePerm: 0o600, // assignments are authz data, user-only
	}
}

// FileStoreOption configures a FileStore.
type FileStoreOption func(*fileStoreConfig)

// WithPath sets the path to the assignments file.
func WithPath(path string) FileStoreOption {
	return func(c *fileStoreConfig) {
		c.path = path
	}
}

// WithFilePermissions sets permissions for the assignments file.
func WithFilePermissions(perm os.FileMode) FileStoreOption {
	return func(c *fileStoreConfig) {
		c.filePerm = perm
	}
}

// assignmentFile is the on-disk shape: principal to role name.
type assignmentFile struct {
	Assignments map[string]string `yaml:"assignments"`
}

// FileStore is a YAML-backed ports.UserStore. Reads and writes go
// through the file every time; role changes made out of band take
// effect on the next operation, never mid-request.
type FileStore struct {
	mu     sync.Mutex
	config fileStoreConfig
	roles  map[string]entities.Role
}

// NewFileStore creates a FileStore over the built-in role set.
func NewFileStore(opts ...FileStoreOption) *FileStore {
	cfg := defaultFileStoreConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	roles := make(map[string]entities.Role)
	for _, r := range entities.BuiltinRoles() {
		roles[r.Name] = r
	}

	return &FileStore{config: cfg, roles: roles}
}

var _ ports.UserStore = (*FileStore)(nil)

// RoleFor returns the principal's assigned role. Unassigned principals
// hold the authenticated role; absence of an assignment never grants
// anything an authenticated user does not already have.
func (s *FileStore) RoleFor(ctx context.Context, principal string) (entities.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return entities.Role{}, err
	}

	name, ok := file.Assignments[principal]
	if !ok {
		return s.roles[entities.RoleAuthenticated.Name], nil
	}
	role, ok := s.roles[name]
	if !ok {
		return entities.Role{}, fmt.Errorf("principal %q assigned unknown role %q", principal, name)
	}
	return role, nil
}

func (s *FileStore) ListRoles(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.roles))
	for name := range s.roles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *FileStore) AssignRole(ctx context.Context, principal, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.roles[role]; !ok {
		return fmt.Errorf("unknown role %q", role)
	}

	file, err := s.load()
	if err != nil {
		return err
	}
	file.Assignments[principal] = role
	return s.save(file)
}

func (s *FileStore) RemoveRole(ctx context.Context, principal string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return err
	}
	delete(file.Assignments, principal)
	return s.save(file)
}

// ConfigPath returns the path to the backing file.
func (s *FileStore) ConfigPath() string {
	return s.config.path
}

func (s *FileStore) load() (*assignmentFile, error) {
	data, err := os.ReadFile(s.config.path)
	if os.IsNotExist(err) {
		return &assignmentFile{Assignments: make(map[string]string)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read role assignments: %w", err)
	}

	var file assignmentFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse role assignments: %w", err)
	}
	if file.Assignments == nil {
		file.Assignments = make(map[string]string)
	}
	return &file, nil
}

func (s *FileStore) save(file *assignmentFile) error {
	data, err := yaml.Marshal(file)
	if err != nil {
		return fmt.Errorf("failed to marshal role assignments: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.config.path), s.config.dirPerm); err != nil {
		return fmt.Errorf("failed to create assignments directory: %w", err)
	}
	if err := os.WriteFile(s.config.path, data, s.config.filePerm); err != nil {
		return fmt.Errorf("failed to write role assignments: %w", err)
	}
	return nil
}
