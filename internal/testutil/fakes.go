package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/scriptgate-dev/scriptgate/domain/entities"
	"github.com/scriptgate-dev/scriptgate/domain/ports"
)

// MemRepository is an in-memory ports.Repository.
type MemRepository struct {
	mu      sync.Mutex
	items   map[string][]byte
	FailErr error // returned by every call when set
}

// NewMemRepository creates an empty MemRepository.
func NewMemRepository() *MemRepository {
	return &MemRepository{items: make(map[string][]byte)}
}

var _ ports.Repository = (*MemRepository)(nil)

func (r *MemRepository) Upsert(ctx context.Context, key string, content []byte) error {
	if r.FailErr != nil {
		return r.FailErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := make([]byte, len(content))
	copy(stored, content)
	r.items[key] = stored
	return nil
}

func (r *MemRepository) Get(ctx context.Context, key string) ([]byte, error) {
	if r.FailErr != nil {
		return nil, r.FailErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	content, ok := r.items[key]
	if !ok {
		return nil, fmt.Errorf("key %q not found", key)
	}
	return content, nil
}

func (r *MemRepository) Delete(ctx context.Context, key string) error {
	if r.FailErr != nil {
		return r.FailErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[key]; !ok {
		return fmt.Errorf("key %q not found", key)
	}
	delete(r.items, key)
	return nil
}

func (r *MemRepository) List(ctx context.Context, prefix string) ([]string, error) {
	if r.FailErr != nil {
		return nil, r.FailErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var keys []string
	for key := range r.items {
		if prefix == "" || strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Len returns the stored item count.
func (r *MemRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// FakeTransport records outbound requests and replays a canned
// response.
type FakeTransport struct {
	mu       sync.Mutex
	Requests []ports.SendRequest
	Response ports.SendResponse
	Err      error
}

var _ ports.Transport = (*FakeTransport)(nil)

func (f *FakeTransport) Send(ctx context.Context, req ports.SendRequest) (ports.SendResponse, error) {
	f.mu.Lock()
	f.Requests = append(f.Requests, req)
	f.mu.Unlock()
	if f.Err != nil {
		return ports.SendResponse{}, f.Err
	}
	return f.Response, nil
}

// Sent returns a copy of recorded requests.
func (f *FakeTransport) Sent() []ports.SendRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ports.SendRequest, len(f.Requests))
	copy(out, f.Requests)
	return out
}

// FakeRegistry records registrations.
type FakeRegistry struct {
	mu            sync.Mutex
	Registrations []ports.Registration
	Err           error
}

var _ ports.EndpointRegistry = (*FakeRegistry)(nil)

func (f *FakeRegistry) Register(ctx context.Context, reg ports.Registration) error {
	if f.Err != nil {
		return f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Registrations = append(f.Registrations, reg)
	return nil
}

// FakeBroadcaster records broadcasts.
type FakeBroadcaster struct {
	mu       sync.Mutex
	Messages map[string][][]byte
	Err      error
}

var _ ports.StreamBroadcaster = (*FakeBroadcaster)(nil)

func (f *FakeBroadcaster) Broadcast(ctx context.Context, stream string, payload []byte) error {
	if f.Err != nil {
		return f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Messages == nil {
		f.Messages = make(map[string][][]byte)
	}
	f.Messages[stream] = append(f.Messages[stream], payload)
	return nil
}

// FakeUserStore is an in-memory ports.UserStore over the built-in
// roles.
type FakeUserStore struct {
	mu          sync.Mutex
	Assignments map[string]string
	Err         error
}

// NewFakeUserStore creates an empty FakeUserStore.
func NewFakeUserStore() *FakeUserStore {
	return &FakeUserStore{Assignments: make(map[string]string)}
}

var _ ports.UserStore = (*FakeUserStore)(nil)

func (f *FakeUserStore) RoleFor(ctx context.Context, principal string) (entities.Role, error) {
	if f.Err != nil {
		return entities.Role{}, f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	name, ok := f.Assignments[principal]
	if !ok {
		return entities.RoleAuthenticated, nil
	}
	for _, r := range entities.BuiltinRoles() {
		if r.Name == name {
			return r, nil
		}
	}
	return entities.Role{}, fmt.Errorf("unknown role %q", name)
}

func (f *FakeUserStore) ListRoles(ctx context.Context) ([]string, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	var names []string
	for _, r := range entities.BuiltinRoles() {
		names = append(names, r.Name)
	}
	sort.Strings(names)
	return names, nil
}

func (f *FakeUserStore) AssignRole(ctx context.Context, principal, role string) error {
	if f.Err != nil {
		return f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Assignments[principal] = role
	return nil
}

func (f *FakeUserStore) RemoveRole(ctx context.Context, principal string) error {
	if f.Err != nil {
		return f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.Assignments, principal)
	return nil
}

// CaptureSink retains every event it consumes.
type CaptureSink struct {
	mu     sync.Mutex
	events []entities.SecurityEvent
}

var _ ports.EventSink = (*CaptureSink)(nil)

func (s *CaptureSink) Consume(event entities.SecurityEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

// Events returns a copy of captured events.
func (s *CaptureSink) Events() []entities.SecurityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entities.SecurityEvent, len(s.events))
	copy(out, s.events)
	return out
}

// Kinds returns the kinds of captured events in order.
func (s *CaptureSink) Kinds() []entities.EventKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entities.EventKind, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Kind)
	}
	return out
}
