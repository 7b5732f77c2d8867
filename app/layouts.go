package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/artpar/zacre/domain/apperr"
	"github.com/artpar/zacre/domain/layout"
	"github.com/artpar/zacre/domain/parameter"
	"github.com/artpar/zacre/pkg/envelope"
	"github.com/artpar/zacre/ports"
	"github.com/rs/zerolog"
)

// Reloader refreshes derived state after a mutation.
type Reloader interface {
	Reload(ctx context.Context) error
}

// DefaultLayoutOrder is used when a listing has no valid orderBy.
var DefaultLayoutOrder = envelope.Order{Field: "title", Desc: true}

// LayoutService composes layouts out of module instances.
type LayoutService struct {
	layouts  ports.LayoutStore
	modules  ports.ModuleStore
	pages    ports.PageStore
	registry Reloader
	ids      ports.IDGenerator
	clock    ports.Clock
	logger   zerolog.Logger
}

// NewLayoutService creates a layout service.
func NewLayoutService(
	layouts ports.LayoutStore,
	modules ports.ModuleStore,
	pages ports.PageStore,
	registry Reloader,
	ids ports.IDGenerator,
	clock ports.Clock,
	logger zerolog.Logger,
) *LayoutService {
	return &LayoutService{
		layouts:  layouts,
		modules:  modules,
		pages:    pages,
		registry: registry,
		ids:      ids,
		clock:    clock,
		logger:   logger.With().Str("service", "layouts").Logger(),
	}
}

// Create inserts a layout with its instances. A layout with the same title
// and description is returned unchanged.
func (s *LayoutService) Create(ctx context.Context, in layout.CreateInput) (layout.Layout, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return layout.Layout{}, apperr.Validation("Layout title is required")
	}
	description := ""
	if in.Description != nil {
		description = *in.Description
	}

	existing, err := s.layouts.FindByTitle(ctx, title, description)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ports.ErrNotFound) {
		return layout.Layout{}, fmt.Errorf("find layout: %w", err)
	}

	instances, err := s.resolveModules(ctx, in.Modules, false)
	if err != nil {
		return layout.Layout{}, err
	}

	now := s.clock.Now()
	l := layout.Layout{
		ID:          s.ids.New(),
		Title:       title,
		Description: description,
		IsActive:    in.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.layouts.Create(ctx, l, instances); err != nil {
		return layout.Layout{}, fmt.Errorf("create layout: %w", err)
	}

	s.logger.Info().
		Str("layout_id", l.ID).
		Str("title", l.Title).
		Int("modules", len(instances)).
		Msg("layout created")

	return s.Get(ctx, l.ID)
}

// Update writes the provided fields and replaces the module set in one
// transaction. A nil module list keeps the current instances.
func (s *LayoutService) Update(ctx context.Context, id string, in layout.UpdateInput) (layout.Layout, error) {
	cur, err := s.Get(ctx, id)
	if err != nil {
		return layout.Layout{}, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return layout.Layout{}, apperr.Validation("Layout title is required")
		}
		cur.Title = title
	}
	if in.Description != nil {
		cur.Description = *in.Description
	}
	if in.IsActive != nil {
		cur.IsActive = *in.IsActive
	}
	cur.UpdatedAt = s.clock.Now()

	var instances []layout.NewInstance
	if in.Modules == nil {
		instances = s.keepInstances(cur.Modules)
	} else {
		instances, err = s.resolveModules(ctx, in.Modules, true)
		if err != nil {
			return layout.Layout{}, err
		}
	}

	if err := s.layouts.Update(ctx, cur, instances); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return layout.Layout{}, apperr.NotFound("Layout not found")
		}
		return layout.Layout{}, fmt.Errorf("update layout: %w", err)
	}
	if err := s.registry.Reload(ctx); err != nil {
		return layout.Layout{}, fmt.Errorf("reload registry: %w", err)
	}

	s.logger.Info().
		Str("layout_id", id).
		Int("modules", len(instances)).
		Msg("layout updated")

	return s.Get(ctx, id)
}

// Delete removes a layout no page references.
func (s *LayoutService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	n, err := s.pages.CountByLayout(ctx, id)
	if err != nil {
		return fmt.Errorf("count layout pages: %w", err)
	}
	if n > 0 {
		return apperr.Conflict("Layout has pages, cannot delete")
	}

	if err := s.layouts.Delete(ctx, id); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return apperr.NotFound("Layout not found")
		}
		return fmt.Errorf("delete layout: %w", err)
	}
	if err := s.registry.Reload(ctx); err != nil {
		return fmt.Errorf("reload registry: %w", err)
	}

	s.logger.Info().Str("layout_id", id).Msg("layout deleted")
	return nil
}

// Get returns a layout with its modules and parameters.
func (s *LayoutService) Get(ctx context.Context, id string) (layout.Layout, error) {
	l, err := s.layouts.Get(ctx, id)
	if errors.Is(err, ports.ErrNotFound) {
		return layout.Layout{}, apperr.NotFound("Layout not found")
	}
	if err != nil {
		return layout.Layout{}, fmt.Errorf("get layout: %w", err)
	}
	return l, nil
}

// List returns one page of layouts.
func (s *LayoutService) List(ctx context.Context, f layout.Filter, p envelope.Params) (envelope.Page[layout.Layout], error) {
	if p.Order.Field == "" {
		p.Order = DefaultLayoutOrder
	}
	p = p.Normalize()

	items, total, err := s.layouts.List(ctx, f, p)
	if err != nil {
		return envelope.Page[layout.Layout]{}, fmt.Errorf("list layouts: %w", err)
	}
	return envelope.NewPage(items, total, p), nil
}

// ListModules returns the module rows available to layouts.
func (s *LayoutService) ListModules(ctx context.Context) ([]layout.Module, error) {
	return s.modules.List(ctx)
}

// resolveModules maps module references to persistable instances.
// Unresolvable references are skipped. With dropUndefined, parameters are
// deduplicated and nil values dropped; otherwise nil values become "".
func (s *LayoutService) resolveModules(ctx context.Context, inputs []layout.ModuleInput, dropUndefined bool) ([]layout.NewInstance, error) {
	out := make([]layout.NewInstance, 0, len(inputs))
	for _, in := range inputs {
		m, err := s.findModule(ctx, in)
		if errors.Is(err, ports.ErrNotFound) {
			s.logger.Warn().
				Str("short_name", in.ShortName).
				Str("module_id", in.ModuleID).
				Msg("module not found, instance skipped")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("resolve module: %w", err)
		}

		params := in.Params
		if dropUndefined {
			params = layout.DedupParams(params)
		}
		rows := make([]layout.InstanceParameter, 0, len(params))
		for _, p := range params {
			value := ""
			if p.Value != nil {
				value = *p.Value
			}
			rows = append(rows, layout.InstanceParameter{
				Key:   qualify(m.ShortName, p.Key),
				Value: value,
			})
		}

		out = append(out, layout.NewInstance{
			ID:         s.ids.New(),
			ModuleID:   m.ID,
			X:          deref(in.X),
			Y:          deref(in.Y),
			Parameters: rows,
		})
	}
	return out, nil
}

func (s *LayoutService) findModule(ctx context.Context, in layout.ModuleInput) (layout.Module, error) {
	if in.ShortName != "" {
		return s.modules.GetByShortName(ctx, in.ShortName)
	}
	if in.ModuleID != "" {
		return s.modules.Get(ctx, in.ModuleID)
	}
	return layout.Module{}, ports.ErrNotFound
}

func (s *LayoutService) keepInstances(current []layout.Instance) []layout.NewInstance {
	out := make([]layout.NewInstance, len(current))
	for i, in := range current {
		out[i] = layout.NewInstance{
			ID:         in.ID,
			ModuleID:   in.ModuleID,
			X:          in.X,
			Y:          in.Y,
			Parameters: in.Parameters,
		}
	}
	return out
}

// qualify prefixes key with the module short name unless it already is.
func qualify(shortName, key string) string {
	if strings.HasPrefix(key, shortName+".") {
		return key
	}
	return parameter.Qualify(shortName, key)
}

func deref(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}
