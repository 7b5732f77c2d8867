package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/artpar/zacre/domain/page"
	"github.com/artpar/zacre/ports"
	"github.com/rs/zerolog"
)

// Snapshot is an immutable view of the routable pages.
type Snapshot struct {
	Pages       []page.Page
	Matcher     *page.Matcher
	RefreshedAt time.Time
}

// Match resolves path against the snapshot. Returns nil if none matches.
func (s *Snapshot) Match(path string) *page.MatchResult {
	if s == nil || s.Matcher == nil {
		return nil
	}
	return s.Matcher.Match(path)
}

// OwnerOf returns the first page whose layout holds the instance.
func (s *Snapshot) OwnerOf(instanceID string) *page.Page {
	if s == nil {
		return nil
	}
	for i := range s.Pages {
		p := &s.Pages[i]
		if p.Layout == nil {
			continue
		}
		for _, in := range p.Layout.Modules {
			if in.ID == instanceID {
				return p
			}
		}
	}
	return nil
}

// WithFeature returns the pages tagged with feature, in registry order.
func (s *Snapshot) WithFeature(f page.Feature) []page.Page {
	if s == nil {
		return nil
	}
	var out []page.Page
	for _, p := range s.Pages {
		if p.AssignedFeature == f {
			out = append(out, p)
		}
	}
	return out
}

// PageRegistry keeps the active pages with their layouts in memory.
// Mutating services reload it before reporting success.
type PageRegistry struct {
	pages    ports.PageStore
	layouts  ports.LayoutStore
	clock    ports.Clock
	logger   zerolog.Logger
	observer ports.RenderObserver

	snapshot atomic.Pointer[Snapshot]
	reloadMu sync.Mutex

	refreshInterval atomic.Int64
	stopOnce        sync.Once
	stopRefresh     chan struct{}
}

// RegistryConfig configures the page registry.
type RegistryConfig struct {
	// RefreshInterval enables periodic reloads to pick up external writes.
	// Zero disables the loop.
	RefreshInterval time.Duration
	Observer        ports.RenderObserver
}

// NewPageRegistry creates a page registry. Call Start to load it.
func NewPageRegistry(
	pages ports.PageStore,
	layouts ports.LayoutStore,
	clock ports.Clock,
	logger zerolog.Logger,
	cfg RegistryConfig,
) *PageRegistry {
	r := &PageRegistry{
		pages:       pages,
		layouts:     layouts,
		clock:       clock,
		logger:      logger.With().Str("service", "registry").Logger(),
		observer:    cfg.Observer,
		stopRefresh: make(chan struct{}),
	}
	if r.observer == nil {
		r.observer = nopObserver{}
	}
	r.refreshInterval.Store(int64(cfg.RefreshInterval))
	r.snapshot.Store(&Snapshot{Matcher: page.NewMatcher(nil)})
	return r
}

// Start performs the initial load and starts the refresh loop.
func (r *PageRegistry) Start(ctx context.Context) error {
	if err := r.Reload(ctx); err != nil {
		return fmt.Errorf("initial registry load: %w", err)
	}
	go r.refreshLoop()
	return nil
}

// Stop ends the refresh loop.
func (r *PageRegistry) Stop() {
	r.stopOnce.Do(func() { close(r.stopRefresh) })
}

// SetRefreshInterval changes the refresh period; zero pauses the loop.
// Takes effect after the current wait.
func (r *PageRegistry) SetRefreshInterval(d time.Duration) {
	r.refreshInterval.Store(int64(d))
}

// idlePoll is how often a paused refresh loop checks for a new interval.
const idlePoll = time.Minute

func (r *PageRegistry) refreshLoop() {
	timer := time.NewTimer(r.nextWait())
	defer timer.Stop()

	for {
		select {
		case <-r.stopRefresh:
			return
		case <-timer.C:
			if time.Duration(r.refreshInterval.Load()) > 0 {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				if err := r.Reload(ctx); err != nil {
					r.logger.Error().Err(err).Msg("failed to refresh page registry")
				}
				cancel()
			}
			timer.Reset(r.nextWait())
		}
	}
}

func (r *PageRegistry) nextWait() time.Duration {
	if d := time.Duration(r.refreshInterval.Load()); d > 0 {
		return d
	}
	return idlePoll
}

// Reload re-queries active pages with their layouts and swaps the snapshot.
// Concurrent reloads are serialized so a slow reload never replaces a
// newer snapshot.
func (r *PageRegistry) Reload(ctx context.Context) error {
	r.reloadMu.Lock()
	defer r.reloadMu.Unlock()

	snap, err := r.load(ctx)
	r.observer.RegistryReloaded(len(snap.Pages), err)
	if err != nil {
		return err
	}
	r.snapshot.Store(snap)

	r.logger.Debug().
		Int("pages", len(snap.Pages)).
		Msg("page registry reloaded")
	return nil
}

func (r *PageRegistry) load(ctx context.Context) (*Snapshot, error) {
	active, err := r.pages.ListActive(ctx)
	if err != nil {
		return &Snapshot{}, fmt.Errorf("list active pages: %w", err)
	}

	seen := make(map[string]bool)
	var layoutIDs []string
	for _, p := range active {
		if !seen[p.LayoutID] {
			seen[p.LayoutID] = true
			layoutIDs = append(layoutIDs, p.LayoutID)
		}
	}

	layouts, err := r.layouts.GetMany(ctx, layoutIDs)
	if err != nil {
		return &Snapshot{}, fmt.Errorf("load page layouts: %w", err)
	}
	byID := make(map[string]int, len(layouts))
	for i, l := range layouts {
		byID[l.ID] = i
	}

	pages := make([]page.Page, 0, len(active))
	for _, p := range active {
		i, ok := byID[p.LayoutID]
		if !ok {
			r.logger.Warn().
				Str("page_id", p.ID).
				Str("layout_id", p.LayoutID).
				Msg("page layout missing, page skipped")
			continue
		}
		l := layouts[i]
		p.Layout = &l
		pages = append(pages, p)
	}

	return &Snapshot{
		Pages:       pages,
		Matcher:     page.NewMatcher(pages),
		RefreshedAt: r.clock.Now(),
	}, nil
}

// Snapshot returns the current snapshot. Never nil.
func (r *PageRegistry) Snapshot() *Snapshot {
	return r.snapshot.Load()
}

type nopObserver struct{}

func (nopObserver) ModuleRendered(string, string) {}
func (nopObserver) PageRendered(bool, time.Duration) {}
func (nopObserver) ActionExecuted(string, error) {}
func (nopObserver) RegistryReloaded(int, error) {}
