package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/artpar/zacre/ports"
)

// UserStore is an in-memory implementation of ports.UserStore.
type UserStore struct {
	mu      sync.RWMutex
	users   map[string]ports.User // by ID
	byEmail map[string]string     // email -> ID
}

// NewUserStore creates a new in-memory user store.
func NewUserStore() *UserStore {
	return &UserStore{
		users:   make(map[string]ports.User),
		byEmail: make(map[string]string),
	}
}

// Get retrieves a user by ID.
func (s *UserStore) Get(_ context.Context, id string) (ports.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return ports.User{}, ports.ErrNotFound
	}
	return u, nil
}

// GetByEmail retrieves a user by email.
func (s *UserStore) GetByEmail(_ context.Context, email string) (ports.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return ports.User{}, ports.ErrNotFound
	}
	return s.users[id], nil
}

// Create stores a new user. Emails are unique.
func (s *UserStore) Create(_ context.Context, u ports.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[u.Email]; exists {
		return ports.ErrDuplicate
	}
	s.users[u.ID] = u
	s.byEmail[u.Email] = u.ID
	return nil
}

// List returns all users, newest first.
func (s *UserStore) List(_ context.Context) ([]ports.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ports.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Ensure interface compliance.
var _ ports.UserStore = (*UserStore)(nil)
