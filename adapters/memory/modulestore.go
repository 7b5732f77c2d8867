package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/artpar/zacre/domain/layout"
	"github.com/artpar/zacre/ports"
)

// ModuleStore is an in-memory implementation of ports.ModuleStore.
type ModuleStore struct {
	mu      sync.RWMutex
	byShort map[string]layout.Module
}

// NewModuleStore creates a new in-memory module store.
func NewModuleStore() *ModuleStore {
	return &ModuleStore{byShort: make(map[string]layout.Module)}
}

// Upsert inserts the module or refreshes name and description.
func (s *ModuleStore) Upsert(_ context.Context, m layout.Module) (layout.Module, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.byShort[m.ShortName]; ok {
		cur.Name = m.Name
		cur.Description = m.Description
		s.byShort[m.ShortName] = cur
		return cur, nil
	}
	s.byShort[m.ShortName] = m
	return m, nil
}

// GetByShortName retrieves a module by registry key.
func (s *ModuleStore) GetByShortName(_ context.Context, shortName string) (layout.Module, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.byShort[shortName]
	if !ok {
		return layout.Module{}, ports.ErrNotFound
	}
	return m, nil
}

// Get retrieves a module by ID.
func (s *ModuleStore) Get(_ context.Context, id string) (layout.Module, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.byShort {
		if m.ID == id {
			return m, nil
		}
	}
	return layout.Module{}, ports.ErrNotFound
}

// List returns all modules ordered by name.
func (s *ModuleStore) List(_ context.Context) ([]layout.Module, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]layout.Module, 0, len(s.byShort))
	for _, m := range s.byShort {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Ensure interface compliance.
var _ ports.ModuleStore = (*ModuleStore)(nil)
