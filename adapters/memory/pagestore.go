package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/artpar/zacre/domain/page"
	"github.com/artpar/zacre/pkg/envelope"
	"github.com/artpar/zacre/ports"
)

// PageStore is an in-memory implementation of ports.PageStore.
type PageStore struct {
	mu    sync.RWMutex
	pages map[string]page.Page
}

// NewPageStore creates a new in-memory page store.
func NewPageStore() *PageStore {
	return &PageStore{pages: make(map[string]page.Page)}
}

// Get retrieves a page by ID.
func (s *PageStore) Get(_ context.Context, id string) (page.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.pages[id]
	if !ok {
		return page.Page{}, ports.ErrNotFound
	}
	return p, nil
}

// GetByURL retrieves a page by URL.
func (s *PageStore) GetByURL(_ context.Context, url string) (page.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.pages {
		if p.URL == url {
			return p, nil
		}
	}
	return page.Page{}, ports.ErrNotFound
}

// Create stores a new page. URLs are unique.
func (s *PageStore) Create(_ context.Context, p page.Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pages[p.ID]; ok || s.urlTaken(p.URL, "") {
		return ports.ErrDuplicate
	}
	p.Layout = nil
	s.pages[p.ID] = p
	return nil
}

// Update replaces an existing page.
func (s *PageStore) Update(_ context.Context, p page.Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pages[p.ID]; !ok {
		return ports.ErrNotFound
	}
	if s.urlTaken(p.URL, p.ID) {
		return ports.ErrDuplicate
	}
	p.Layout = nil
	s.pages[p.ID] = p
	return nil
}

func (s *PageStore) urlTaken(url, exceptID string) bool {
	for id, p := range s.pages {
		if p.URL == url && id != exceptID {
			return true
		}
	}
	return false
}

// Delete removes a page.
func (s *PageStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pages[id]; !ok {
		return ports.ErrNotFound
	}
	delete(s.pages, id)
	return nil
}

// List returns one page of matching pages and the match count.
func (s *PageStore) List(_ context.Context, f page.Filter, p envelope.Params) ([]page.Page, int64, error) {
	s.mu.RLock()
	var matched []page.Page
	for _, pg := range s.pages {
		if pageMatches(pg, f) {
			matched = append(matched, pg)
		}
	}
	s.mu.RUnlock()

	items := paginate(matched, p, pageSortKey, func(pg page.Page) string { return pg.ID })
	return items, int64(len(matched)), nil
}

func pageMatches(p page.Page, f page.Filter) bool {
	return eqOrEmpty(p.ID, f.ID) &&
		eqOrEmpty(p.URL, f.URL) &&
		containsFold(p.Title, f.Title) &&
		containsFold(p.Description, f.Description) &&
		eqOrEmpty(p.LayoutID, f.LayoutID) &&
		eqOrEmpty(p.CreatedByID, f.CreatedByID) &&
		eqOrEmpty(p.UpdatedByID, f.UpdatedByID) &&
		eqOrEmpty(p.Role, f.Role) &&
		eqOrEmpty(string(p.AssignedFeature), f.AssignedFeature) &&
		flagMatches(p.IsActive, f.IsActive) &&
		flagMatches(p.IsLocked, f.IsLocked)
}

func pageSortKey(p page.Page, field string) (string, time.Time) {
	switch field {
	case "updatedAt":
		return "", p.UpdatedAt
	case "title":
		return p.Title, time.Time{}
	case "url":
		return p.URL, time.Time{}
	case "layoutId":
		return p.LayoutID, time.Time{}
	default:
		return "", p.CreatedAt
	}
}

// ListActive returns all active pages in creation order.
func (s *PageStore) ListActive(_ context.Context) ([]page.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []page.Page
	for _, p := range s.pages {
		if p.IsActive {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// CountByLayout returns how many pages reference the layout.
func (s *PageStore) CountByLayout(_ context.Context, layoutID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, p := range s.pages {
		if p.LayoutID == layoutID {
			n++
		}
	}
	return n, nil
}

// Ensure interface compliance.
var _ ports.PageStore = (*PageStore)(nil)
