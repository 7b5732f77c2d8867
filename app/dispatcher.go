package app

import (
	"context"
	"fmt"
	"html/template"

	"github.com/artpar/zacre/core/registry"
	"github.com/artpar/zacre/core/validation"
	"github.com/artpar/zacre/domain/apperr"
	"github.com/artpar/zacre/domain/layout"
	"github.com/artpar/zacre/domain/page"
	"github.com/artpar/zacre/ports"
	"github.com/artpar/zacre/web"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DataItem is the data of one instance. Data is nil when the module has
// no data capability or it failed.
type DataItem struct {
	ID   string `json:"id"`
	Data any    `json:"data"`
}

// Dispatcher serves per-instance data, renders, and actions.
type Dispatcher struct {
	layouts   ports.LayoutStore
	pages     SnapshotSource
	modules   *registry.Registry
	shell     *web.Shell
	validator validation.Validator
	observer  ports.RenderObserver
	logger    zerolog.Logger
}

// NewDispatcher creates a module dispatcher.
func NewDispatcher(
	layouts ports.LayoutStore,
	pages SnapshotSource,
	modules *registry.Registry,
	shell *web.Shell,
	observer ports.RenderObserver,
	logger zerolog.Logger,
) *Dispatcher {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Dispatcher{
		layouts:  layouts,
		pages:    pages,
		modules:  modules,
		shell:    shell,
		observer: observer,
		logger:   logger.With().Str("service", "dispatcher").Logger(),
	}
}

// GetData loads the data of each requested instance, in request order.
// Unknown ids are omitted.
func (d *Dispatcher) GetData(ctx context.Context, ids []string, req registry.Request) ([]DataItem, error) {
	if len(ids) == 0 {
		return []DataItem{}, nil
	}
	instances, err := d.layouts.GetInstances(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load instances: %w", err)
	}
	byID := make(map[string]layout.Instance, len(instances))
	for _, in := range instances {
		byID[in.ID] = in
	}

	var found []layout.Instance
	for _, id := range ids {
		if in, ok := byID[id]; ok {
			found = append(found, in)
			delete(byID, id)
		}
	}

	items := make([]DataItem, len(found))
	var g errgroup.Group
	for i, in := range found {
		items[i].ID = in.ID
		g.Go(func() error {
			items[i].Data = d.loadData(ctx, in, req)
			return nil
		})
	}
	_ = g.Wait()
	return items, nil
}

func (d *Dispatcher) loadData(ctx context.Context, in layout.Instance, req registry.Request) (data any) {
	log := d.logger.With().Str("element_id", in.ID).Str("module", in.ShortName).Logger()
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).Msg("module panicked loading data")
			data = nil
		}
	}()

	desc, ok := d.modules.Lookup(in.ShortName)
	if !ok || desc.Data == nil {
		return nil
	}
	v, err := desc.Data(ctx, NewElement(in), req)
	if err != nil {
		log.Warn().Err(err).Msg("module data failed")
		return nil
	}
	return v
}

// RenderSingle renders one instance for a client swap. The owning page is
// the first registry page whose layout holds the instance; path params
// and query come from the referer matched against that page's URL.
func (d *Dispatcher) RenderSingle(ctx context.Context, id, referer string, req registry.Request) (template.HTML, error) {
	in, err := d.instance(ctx, id)
	if err != nil {
		return "", err
	}
	desc, ok := d.modules.Lookup(in.ShortName)
	if !ok {
		return "", apperr.NotFound("Module not found")
	}
	if desc.Render == nil {
		return "", registry.ErrCapability
	}

	owner := d.pages.Snapshot().OwnerOf(id)
	if owner == nil {
		return "", apperr.NotFound("Page not found")
	}
	req.Params = page.RefererParams(referer, owner.URL)
	req.Query = page.RefererQuery(referer)

	inner, err := desc.Render(ctx, NewElement(in), req)
	if err != nil {
		d.observer.ModuleRendered(in.ShortName, ports.OutcomeError)
		return "", fmt.Errorf("render %s: %w", in.ShortName, err)
	}
	d.observer.ModuleRendered(in.ShortName, ports.OutcomeRender)
	return d.shell.Fragment(in.ID, in.ShortName, desc.Swappable(), inner)
}

// ExecuteAction validates the payload against the module's action schema
// and runs the action once.
func (d *Dispatcher) ExecuteAction(ctx context.Context, id string, payload map[string]any, req registry.Request) (registry.ActionResult, error) {
	in, err := d.instance(ctx, id)
	if err != nil {
		return registry.ActionResult{}, err
	}
	desc, ok := d.modules.Lookup(in.ShortName)
	if !ok {
		return registry.ActionResult{}, apperr.NotFound("Module not found")
	}
	if desc.Action == nil {
		return registry.ActionResult{}, registry.ErrCapability
	}

	if desc.ActionSchema != nil {
		if payload == nil {
			payload = map[string]any{}
		}
		if result := d.validator.Validate(desc.ActionSchema, payload); !result.Valid {
			return registry.ActionResult{}, apperr.Validation("Invalid request: " + result.Error())
		}
	}

	res, err := desc.Action(ctx, NewElement(in), req, payload)
	d.observer.ActionExecuted(in.ShortName, err)
	if err != nil {
		d.logger.Info().
			Err(err).
			Str("element_id", id).
			Str("module", in.ShortName).
			Msg("module action failed")
		return registry.ActionResult{}, err
	}
	return res, nil
}

func (d *Dispatcher) instance(ctx context.Context, id string) (layout.Instance, error) {
	found, err := d.layouts.GetInstances(ctx, []string{id})
	if err != nil {
		return layout.Instance{}, fmt.Errorf("load instance: %w", err)
	}
	if len(found) == 0 {
		return layout.Instance{}, apperr.NotFound("Layout module not found")
	}
	return found[0], nil
}
