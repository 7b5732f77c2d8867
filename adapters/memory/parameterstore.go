package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/artpar/zacre/domain/parameter"
	"github.com/artpar/zacre/ports"
)

// ParameterStore is an in-memory implementation of ports.ParameterStore.
type ParameterStore struct {
	mu     sync.RWMutex
	config map[string]parameter.ConfigParameter
	types  map[string]parameter.Type
	reads  int
}

// NewParameterStore creates a new in-memory parameter store.
func NewParameterStore() *ParameterStore {
	return &ParameterStore{
		config: make(map[string]parameter.ConfigParameter),
		types:  make(map[string]parameter.Type),
	}
}

// GetConfig retrieves one config value.
func (s *ParameterStore) GetConfig(_ context.Context, key string) (parameter.ConfigParameter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reads++
	c, ok := s.config[key]
	if !ok {
		return parameter.ConfigParameter{}, ports.ErrNotFound
	}
	return c, nil
}

// Reads returns how many GetConfig calls reached the store.
func (s *ParameterStore) Reads() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reads
}

// CreateConfig writes the value only if the key is absent.
func (s *ParameterStore) CreateConfig(_ context.Context, key, value string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.config[key]; ok {
		return false, nil
	}
	s.config[key] = parameter.ConfigParameter{Key: key, Value: value, UpdatedAt: time.Now()}
	return true, nil
}

// PutConfig overwrites a value.
func (s *ParameterStore) PutConfig(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.config[key] = parameter.ConfigParameter{Key: key, Value: value, UpdatedAt: time.Now()}
	return nil
}

// ListConfig returns all values ordered by key.
func (s *ParameterStore) ListConfig(_ context.Context) ([]parameter.ConfigParameter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]parameter.ConfigParameter, 0, len(s.config))
	for _, c := range s.config {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// DeclareType writes the type only if the key is absent.
func (s *ParameterStore) DeclareType(_ context.Context, t parameter.Type) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.types[t.Key]; !ok {
		s.types[t.Key] = t
	}
	return nil
}

// ListTypes returns all types ordered by key.
func (s *ParameterStore) ListTypes(_ context.Context) ([]parameter.Type, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]parameter.Type, 0, len(s.types))
	for _, t := range s.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Ensure interface compliance.
var _ ports.ParameterStore = (*ParameterStore)(nil)
