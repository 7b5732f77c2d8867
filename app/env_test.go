package app_test

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/artpar/zacre/adapters/clock"
	"github.com/artpar/zacre/adapters/idgen"
	"github.com/artpar/zacre/adapters/memory"
	"github.com/artpar/zacre/app"
	"github.com/artpar/zacre/core/registry"
	"github.com/artpar/zacre/core/schema"
	"github.com/artpar/zacre/domain/layout"
	"github.com/artpar/zacre/domain/page"
	"github.com/artpar/zacre/web"
	"github.com/rs/zerolog"
)

// testEnv wires the services over in-memory stores.
type testEnv struct {
	clock    *clock.Fake
	modules  *memory.ModuleStore
	layouts  *memory.LayoutStore
	pages    *memory.PageStore
	params   *memory.ParameterStore
	cache    *memory.ConfigCache
	registry *registry.Registry

	pageRegistry *app.PageRegistry
	parameters   *app.ParameterService
	layoutSvc    *app.LayoutService
	pageSvc      *app.PageService
	assembler    *app.Assembler
	dispatcher   *app.Dispatcher

	publicDir    string
	actionsCount atomic.Int32
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	logger := zerolog.Nop()

	e := &testEnv{
		clock:   clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		modules: memory.NewModuleStore(),
		pages:   memory.NewPageStore(),
		params:  memory.NewParameterStore(),
	}
	e.layouts = memory.NewLayoutStore(e.modules)
	e.cache = memory.NewConfigCache(24*time.Hour, e.clock)

	reg, err := registry.New(e.testModules()...)
	if err != nil {
		t.Fatalf("registry.New() error = %v", err)
	}
	reg.Freeze()
	e.registry = reg
	for _, d := range reg.All() {
		_, err := e.modules.Upsert(ctx, layout.Module{ID: "mod-" + d.ShortName, ShortName: d.ShortName, Name: d.Name})
		if err != nil {
			t.Fatal(err)
		}
	}

	e.publicDir = t.TempDir()
	if err := os.WriteFile(filepath.Join(e.publicDir, "main-test1.js"), []byte("//"), 0o644); err != nil {
		t.Fatal(err)
	}

	ids := idgen.NewSequential("id-")
	shell := web.MustShell()

	e.pageRegistry = app.NewPageRegistry(e.pages, e.layouts, e.clock, logger, app.RegistryConfig{})
	e.parameters = app.NewParameterService(e.params, e.cache, logger)
	e.layoutSvc = app.NewLayoutService(e.layouts, e.modules, e.pages, e.pageRegistry, ids, e.clock, logger)
	e.pageSvc = app.NewPageService(e.pages, e.layouts, e.pageRegistry, ids, e.clock, logger)
	e.assembler = app.NewAssembler(e.pageRegistry, reg, e.parameters, shell,
		web.NewAssets(e.publicDir, web.EnvDevelopment), e.clock, logger, app.AssemblerConfig{})
	e.dispatcher = app.NewDispatcher(e.layouts, e.pageRegistry, reg, shell, nil, logger)

	if err := e.pageRegistry.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(e.pageRegistry.Stop)
	return e
}

var textTemplate = template.Must(template.New("text").Parse(`<p>{{.}}</p>`))

func execText(v string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := textTemplate.Execute(&buf, v); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

func (e *testEnv) testModules() []registry.Descriptor {
	return []registry.Descriptor{
		{
			ShortName: "text",
			Name:      "Text",
			Parameters: []registry.ParamSpec{
				{Key: "body", Required: true},
			},
			Render: func(_ context.Context, el registry.Element, _ registry.Request) (template.HTML, error) {
				return execText(el.Parameters.Get("body"))
			},
		},
		{
			ShortName: "hero",
			Name:      "Hero",
			Loader: func(el registry.Element, _ registry.Request) (template.HTML, error) {
				return "<p>skeleton</p>", nil
			},
			Render: func(context.Context, registry.Element, registry.Request) (template.HTML, error) {
				return "<p>full</p>", nil
			},
		},
		{
			ShortName: "banner",
			Name:      "Banner",
			Loader: func(registry.Element, registry.Request) (template.HTML, error) {
				return "<p>banner</p>", nil
			},
		},
		{
			ShortName: "broken",
			Name:      "Broken",
			Render: func(context.Context, registry.Element, registry.Request) (template.HTML, error) {
				return "", errors.New("boom")
			},
		},
		{
			ShortName: "panicky",
			Name:      "Panicky",
			Render: func(context.Context, registry.Element, registry.Request) (template.HTML, error) {
				panic("module bug")
			},
		},
		{
			ShortName: "inert",
			Name:      "Inert",
		},
		{
			ShortName: "param",
			Name:      "Param",
			Render: func(_ context.Context, _ registry.Element, req registry.Request) (template.HTML, error) {
				return execText(req.Param("id") + "|" + req.Query.Get("tab"))
			},
		},
		{
			ShortName: "data",
			Name:      "Data",
			Data: func(_ context.Context, el registry.Element, _ registry.Request) (any, error) {
				return map[string]any{"id": el.ID}, nil
			},
		},
		{
			ShortName: "datafail",
			Name:      "Data Fail",
			Data: func(context.Context, registry.Element, registry.Request) (any, error) {
				return nil, errors.New("no data")
			},
		},
		{
			ShortName: "counter",
			Name:      "Counter",
			ActionSchema: []schema.Field{
				schema.Required(schema.String("name", schema.NotEmpty())),
			},
			Action: func(_ context.Context, _ registry.Element, _ registry.Request, payload map[string]any) (registry.ActionResult, error) {
				e.actionsCount.Add(1)
				return registry.ActionResult{Redirect: &registry.Redirect{URL: "/done", Message: "ok"}}, nil
			},
		},
	}
}

func at(x, y int) (*int, *int) {
	return &x, &y
}

func str(s string) *string {
	return &s
}

func boolPtr(b bool) *bool {
	return &b
}

func mod(shortName string, x, y int, params ...layout.ParamInput) layout.ModuleInput {
	px, py := at(x, y)
	return layout.ModuleInput{ShortName: shortName, X: px, Y: py, Params: params}
}

func param(key, value string) layout.ParamInput {
	return layout.ParamInput{Key: key, Value: str(value)}
}

func (e *testEnv) createLayout(t *testing.T, title string, modules ...layout.ModuleInput) layout.Layout {
	t.Helper()
	l, err := e.layoutSvc.Create(context.Background(), layout.CreateInput{Title: title, IsActive: true, Modules: modules})
	if err != nil {
		t.Fatalf("Create layout %q error = %v", title, err)
	}
	return l
}

func (e *testEnv) createPage(t *testing.T, url, layoutID string) page.Page {
	t.Helper()
	e.clock.Advance(time.Second)
	p, err := e.pageSvc.Create(context.Background(), page.CreateInput{Title: url, URL: url, LayoutID: layoutID})
	if err != nil {
		t.Fatalf("Create page %q error = %v", url, err)
	}
	return p
}
