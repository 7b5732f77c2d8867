package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/artpar/zacre/domain/layout"
	"github.com/artpar/zacre/pkg/envelope"
	"github.com/artpar/zacre/ports"
)

// LayoutStore is an in-memory implementation of ports.LayoutStore.
// Instances must reference modules known to the module store, mirroring
// the foreign key of the SQL schema.
type LayoutStore struct {
	mu        sync.RWMutex
	modules   *ModuleStore
	layouts   map[string]layout.Layout
	instances map[string][]layout.Instance // by layout id

	// FailWrites, when set, is returned by Create and Update before any
	// change is applied.
	FailWrites error
}

// NewLayoutStore creates a new in-memory layout store.
func NewLayoutStore(modules *ModuleStore) *LayoutStore {
	return &LayoutStore{
		modules:   modules,
		layouts:   make(map[string]layout.Layout),
		instances: make(map[string][]layout.Instance),
	}
}

// Get retrieves a layout with instances.
func (s *LayoutStore) Get(_ context.Context, id string) (layout.Layout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.layouts[id]
	if !ok {
		return layout.Layout{}, ports.ErrNotFound
	}
	return s.joined(l), nil
}

// FindByTitle retrieves the layout with this title and description.
func (s *LayoutStore) FindByTitle(_ context.Context, title, description string) (layout.Layout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, l := range s.layouts {
		if l.Title == title && l.Description == description {
			return s.joined(l), nil
		}
	}
	return layout.Layout{}, ports.ErrNotFound
}

// Create inserts a layout and its instances.
func (s *LayoutStore) Create(ctx context.Context, l layout.Layout, instances []layout.NewInstance) error {
	if s.FailWrites != nil {
		return s.FailWrites
	}
	built, err := s.build(ctx, l.ID, instances)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.layouts[l.ID]; ok {
		return ports.ErrDuplicate
	}
	l.Modules = nil
	s.layouts[l.ID] = l
	s.instances[l.ID] = built
	return nil
}

// Update writes layout fields and replaces its instances.
func (s *LayoutStore) Update(ctx context.Context, l layout.Layout, instances []layout.NewInstance) error {
	if s.FailWrites != nil {
		return s.FailWrites
	}
	built, err := s.build(ctx, l.ID, instances)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.layouts[l.ID]
	if !ok {
		return ports.ErrNotFound
	}
	cur.Title, cur.Description, cur.IsActive, cur.UpdatedAt = l.Title, l.Description, l.IsActive, l.UpdatedAt
	s.layouts[l.ID] = cur
	s.instances[l.ID] = built
	return nil
}

// build resolves module rows for new instances without touching state.
func (s *LayoutStore) build(ctx context.Context, layoutID string, instances []layout.NewInstance) ([]layout.Instance, error) {
	out := make([]layout.Instance, 0, len(instances))
	for _, in := range instances {
		m, err := s.modules.Get(ctx, in.ModuleID)
		if err != nil {
			return nil, fmt.Errorf("insert instance %s: unknown module %s", in.ID, in.ModuleID)
		}
		params := make([]layout.InstanceParameter, 0, len(in.Parameters))
		seen := make(map[string]int)
		for _, p := range in.Parameters {
			if i, dup := seen[p.Key]; dup {
				params[i].Value = p.Value
				continue
			}
			seen[p.Key] = len(params)
			params = append(params, p)
		}
		out = append(out, layout.Instance{
			ID:         in.ID,
			LayoutID:   layoutID,
			ModuleID:   m.ID,
			ShortName:  m.ShortName,
			ModuleName: m.Name,
			X:          in.X,
			Y:          in.Y,
			Parameters: params,
		})
	}
	return out, nil
}

// Delete removes a layout with its instances.
func (s *LayoutStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.layouts[id]; !ok {
		return ports.ErrNotFound
	}
	delete(s.layouts, id)
	delete(s.instances, id)
	return nil
}

// List returns one page of matching layouts and the match count.
func (s *LayoutStore) List(_ context.Context, f layout.Filter, p envelope.Params) ([]layout.Layout, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []layout.Layout
	for _, l := range s.layouts {
		if s.matches(l, f) {
			matched = append(matched, l)
		}
	}
	items := paginate(matched, p, layoutSortKey, func(l layout.Layout) string { return l.ID })
	for i := range items {
		items[i] = s.joined(items[i])
	}
	return items, int64(len(matched)), nil
}

func (s *LayoutStore) matches(l layout.Layout, f layout.Filter) bool {
	if !eqOrEmpty(l.ID, f.ID) || !containsFold(l.Title, f.Title) ||
		!containsFold(l.Description, f.Description) || !flagMatches(l.IsActive, f.IsActive) {
		return false
	}
	if len(f.Modules) == 0 {
		return true
	}
	for _, in := range s.instances[l.ID] {
		for _, name := range f.Modules {
			if in.ShortName == name {
				return true
			}
		}
	}
	return false
}

func layoutSortKey(l layout.Layout, field string) (string, time.Time) {
	switch field {
	case "createdAt":
		return "", l.CreatedAt
	case "updatedAt":
		return "", l.UpdatedAt
	default:
		return l.Title, time.Time{}
	}
}

// GetMany retrieves the layouts with the given ids.
func (s *LayoutStore) GetMany(_ context.Context, ids []string) ([]layout.Layout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []layout.Layout
	for _, id := range ids {
		if l, ok := s.layouts[id]; ok {
			out = append(out, s.joined(l))
		}
	}
	return out, nil
}

// GetInstances retrieves instances by id.
func (s *LayoutStore) GetInstances(_ context.Context, ids []string) ([]layout.Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []layout.Instance
	layoutIDs := make([]string, 0, len(s.instances))
	for id := range s.instances {
		layoutIDs = append(layoutIDs, id)
	}
	sort.Strings(layoutIDs)
	for _, lid := range layoutIDs {
		for _, in := range s.instances[lid] {
			if want[in.ID] {
				out = append(out, copyInstance(in))
			}
		}
	}
	return out, nil
}

func (s *LayoutStore) joined(l layout.Layout) layout.Layout {
	list := s.instances[l.ID]
	l.Modules = make([]layout.Instance, len(list))
	for i, in := range list {
		l.Modules[i] = copyInstance(in)
	}
	return l
}

func copyInstance(in layout.Instance) layout.Instance {
	in.Parameters = append([]layout.InstanceParameter{}, in.Parameters...)
	return in
}

// Ensure interface compliance.
var _ ports.LayoutStore = (*LayoutStore)(nil)
