package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/artpar/zacre/domain/apperr"
	"github.com/artpar/zacre/domain/page"
	"github.com/artpar/zacre/pkg/envelope"
	"github.com/artpar/zacre/ports"
	"github.com/rs/zerolog"
)

// DefaultPageOrder is used when a listing has no valid orderBy.
var DefaultPageOrder = envelope.Order{Field: "createdAt", Desc: true}

// PageService manages pages bound to layouts.
type PageService struct {
	pages    ports.PageStore
	layouts  ports.LayoutStore
	registry Reloader
	ids      ports.IDGenerator
	clock    ports.Clock
	logger   zerolog.Logger
}

// NewPageService creates a page service.
func NewPageService(
	pages ports.PageStore,
	layouts ports.LayoutStore,
	registry Reloader,
	ids ports.IDGenerator,
	clock ports.Clock,
	logger zerolog.Logger,
) *PageService {
	return &PageService{
		pages:    pages,
		layouts:  layouts,
		registry: registry,
		ids:      ids,
		clock:    clock,
		logger:   logger.With().Str("service", "pages").Logger(),
	}
}

// Create inserts a page. A page already serving the URL is returned as is,
// or rejected with a conflict when in.Strict is set.
func (s *PageService) Create(ctx context.Context, in page.CreateInput) (page.Page, error) {
	if err := s.requireLayout(ctx, in.LayoutID); err != nil {
		return page.Page{}, err
	}
	if !page.ValidURL(in.URL) {
		return page.Page{}, apperr.Validation("URL must start with /")
	}
	if _, ok := page.ParseFeature(string(in.AssignedFeature)); !ok {
		return page.Page{}, apperr.Validation("Unknown page feature")
	}

	existing, err := s.pages.GetByURL(ctx, in.URL)
	if err == nil {
		if in.Strict {
			return page.Page{}, apperr.Conflict("URL is already taken by another page")
		}
		return existing, nil
	}
	if !errors.Is(err, ports.ErrNotFound) {
		return page.Page{}, fmt.Errorf("find page: %w", err)
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	now := s.clock.Now()
	p := page.Page{
		ID:              s.ids.New(),
		Title:           strings.TrimSpace(in.Title),
		Description:     in.Description,
		URL:             in.URL,
		LayoutID:        in.LayoutID,
		IsActive:        active,
		IsLocked:        in.IsLocked,
		Role:            in.Role,
		AssignedFeature: in.AssignedFeature,
		CreatedByID:     in.CreatedByID,
		UpdatedByID:     in.CreatedByID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.pages.Create(ctx, p); err != nil {
		if errors.Is(err, ports.ErrDuplicate) {
			return page.Page{}, apperr.Conflict("URL is already taken by another page")
		}
		return page.Page{}, fmt.Errorf("create page: %w", err)
	}
	if err := s.registry.Reload(ctx); err != nil {
		return page.Page{}, fmt.Errorf("reload registry: %w", err)
	}

	s.logger.Info().
		Str("page_id", p.ID).
		Str("url", p.URL).
		Msg("page created")
	return p, nil
}

// Update applies the provided fields.
func (s *PageService) Update(ctx context.Context, id string, in page.UpdateInput) (page.Page, error) {
	cur, err := s.Get(ctx, id)
	if err != nil {
		return page.Page{}, err
	}

	if in.URL != nil {
		if !page.ValidURL(*in.URL) {
			return page.Page{}, apperr.Validation("URL must start with /")
		}
		other, err := s.pages.GetByURL(ctx, *in.URL)
		switch {
		case err == nil && other.ID != id:
			return page.Page{}, apperr.Conflict("URL is already taken by another page")
		case err != nil && !errors.Is(err, ports.ErrNotFound):
			return page.Page{}, fmt.Errorf("find page: %w", err)
		}
	}
	if in.LayoutID != nil {
		if err := s.requireLayout(ctx, *in.LayoutID); err != nil {
			return page.Page{}, err
		}
	}
	if in.AssignedFeature != nil {
		if _, ok := page.ParseFeature(string(*in.AssignedFeature)); !ok {
			return page.Page{}, apperr.Validation("Unknown page feature")
		}
	}

	p := in.Apply(cur)
	p.UpdatedAt = s.clock.Now()

	if err := s.pages.Update(ctx, p); err != nil {
		switch {
		case errors.Is(err, ports.ErrDuplicate):
			return page.Page{}, apperr.Conflict("URL is already taken by another page")
		case errors.Is(err, ports.ErrNotFound):
			return page.Page{}, apperr.NotFound("Page not found")
		}
		return page.Page{}, fmt.Errorf("update page: %w", err)
	}
	if err := s.registry.Reload(ctx); err != nil {
		return page.Page{}, fmt.Errorf("reload registry: %w", err)
	}

	s.logger.Info().Str("page_id", id).Msg("page updated")
	return p, nil
}

// Delete removes an unlocked page.
func (s *PageService) Delete(ctx context.Context, id string) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if p.IsLocked {
		return apperr.Conflict("Cannot delete a locked page")
	}

	if err := s.pages.Delete(ctx, id); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return apperr.NotFound("Page not found")
		}
		return fmt.Errorf("delete page: %w", err)
	}
	if err := s.registry.Reload(ctx); err != nil {
		return fmt.Errorf("reload registry: %w", err)
	}

	s.logger.Info().Str("page_id", id).Msg("page deleted")
	return nil
}

// Get returns a page.
func (s *PageService) Get(ctx context.Context, id string) (page.Page, error) {
	p, err := s.pages.Get(ctx, id)
	if errors.Is(err, ports.ErrNotFound) {
		return page.Page{}, apperr.NotFound("Page not found")
	}
	if err != nil {
		return page.Page{}, fmt.Errorf("get page: %w", err)
	}
	return p, nil
}

// List returns one page of pages.
func (s *PageService) List(ctx context.Context, f page.Filter, p envelope.Params) (envelope.Page[page.Page], error) {
	if p.Order.Field == "" {
		p.Order = DefaultPageOrder
	}
	p = p.Normalize()

	items, total, err := s.pages.List(ctx, f, p)
	if err != nil {
		return envelope.Page[page.Page]{}, fmt.Errorf("list pages: %w", err)
	}
	return envelope.NewPage(items, total, p), nil
}

func (s *PageService) requireLayout(ctx context.Context, id string) error {
	if id == "" {
		return apperr.NotFound("Layout not found")
	}
	_, err := s.layouts.Get(ctx, id)
	if errors.Is(err, ports.ErrNotFound) {
		return apperr.NotFound("Layout not found")
	}
	if err != nil {
		return fmt.Errorf("get layout: %w", err)
	}
	return nil
}
