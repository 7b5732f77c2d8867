package app

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/artpar/zacre/core/registry"
	"github.com/artpar/zacre/domain/layout"
	"github.com/artpar/zacre/domain/page"
	"github.com/artpar/zacre/domain/parameter"
	"github.com/artpar/zacre/ports"
	"github.com/artpar/zacre/web"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// SnapshotSource yields the current page registry view.
type SnapshotSource interface {
	Snapshot() *Snapshot
}

// ConfigReader reads site configuration.
type ConfigReader interface {
	GetConfigs(ctx context.Context, keys ...string) (map[string]string, error)
}

// BundleResolver names the client bundle.
type BundleResolver interface {
	BundleName() (string, error)
}

// Document is an assembled HTML page.
type Document struct {
	Found  bool
	Page   *page.Page
	Params map[string]string
	HTML   []byte
}

// Assembler renders pages out of their layout's module instances.
type Assembler struct {
	pages       SnapshotSource
	modules     *registry.Registry
	config      ConfigReader
	shell       *web.Shell
	assets      BundleResolver
	clock       ports.Clock
	observer    ports.RenderObserver
	logger      zerolog.Logger
	concurrency int
}

// AssemblerConfig configures the assembler.
type AssemblerConfig struct {
	// Concurrency limits parallel instance renders. Zero is unlimited.
	Concurrency int
	Observer    ports.RenderObserver
}

// NewAssembler creates a page assembler.
func NewAssembler(
	pages SnapshotSource,
	modules *registry.Registry,
	config ConfigReader,
	shell *web.Shell,
	assets BundleResolver,
	clock ports.Clock,
	logger zerolog.Logger,
	cfg AssemblerConfig,
) *Assembler {
	a := &Assembler{
		pages:       pages,
		modules:     modules,
		config:      config,
		shell:       shell,
		assets:      assets,
		clock:       clock,
		observer:    cfg.Observer,
		logger:      logger.With().Str("service", "assembler").Logger(),
		concurrency: cfg.Concurrency,
	}
	if a.observer == nil {
		a.observer = nopObserver{}
	}
	return a
}

// Match resolves path against the current registry snapshot.
func (a *Assembler) Match(path string) *page.MatchResult {
	return a.pages.Snapshot().Match(path)
}

// Assemble renders the page serving path. An unknown path yields a
// Document with Found=false holding the placeholder, not an error.
func (a *Assembler) Assemble(ctx context.Context, path string, req registry.Request) (Document, error) {
	start := a.clock.Now()
	return a.AssembleMatch(ctx, a.Match(path), req, start)
}

// AssembleMatch renders a page resolved earlier with Match.
func (a *Assembler) AssembleMatch(ctx context.Context, m *page.MatchResult, req registry.Request, start time.Time) (Document, error) {
	if m == nil {
		html, err := a.document(ctx, [][]template.HTML{{a.shell.ErrorFragment("page", "")}})
		if err != nil {
			return Document{}, err
		}
		a.observer.PageRendered(false, a.clock.Now().Sub(start))
		return Document{Found: false, HTML: html}, nil
	}

	req.Params = m.Params
	var instances []layout.Instance
	if m.Page.Layout != nil {
		instances = m.Page.Layout.Modules
	}

	rows := a.renderGrid(ctx, instances, req)
	html, err := a.document(ctx, rows)
	if err != nil {
		return Document{}, err
	}

	a.observer.PageRendered(true, a.clock.Now().Sub(start))
	return Document{Found: true, Page: m.Page, Params: m.Params, HTML: html}, nil
}

// renderGrid renders every instance concurrently and arranges the
// fragments into rows. Per-instance failures become error fragments.
func (a *Assembler) renderGrid(ctx context.Context, instances []layout.Instance, req registry.Request) [][]template.HTML {
	out := make([]template.HTML, len(instances))

	var g errgroup.Group
	if a.concurrency > 0 {
		g.SetLimit(a.concurrency)
	}
	for i, in := range instances {
		g.Go(func() error {
			out[i] = a.renderInstance(ctx, in, req)
			return nil
		})
	}
	_ = g.Wait()

	cells := make([]layout.Cell[template.HTML], len(instances))
	for i, in := range instances {
		cells[i] = layout.Cell[template.HTML]{X: in.X, Y: in.Y, Value: out[i]}
	}
	rows := layout.Arrange(cells)

	grid := make([][]template.HTML, len(rows))
	for i, r := range rows {
		grid[i] = r.Cells
	}
	return grid
}

func (a *Assembler) renderInstance(ctx context.Context, in layout.Instance, req registry.Request) (html template.HTML) {
	log := a.logger.With().
		Str("element_id", in.ID).
		Str("module", in.ShortName).
		Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).Msg("module panicked during render")
			a.observer.ModuleRendered(in.ShortName, ports.OutcomeError)
			html = a.shell.ErrorFragment(in.ShortName, in.ID)
		}
	}()

	d, ok := a.modules.Lookup(in.ShortName)
	if !ok || !d.Renderable() {
		log.Warn().Msg("module cannot be rendered")
		a.observer.ModuleRendered(in.ShortName, ports.OutcomeError)
		return a.shell.ErrorFragment(in.ShortName, in.ID)
	}

	el := NewElement(in)
	var (
		inner   template.HTML
		err     error
		outcome string
	)
	if d.Loader != nil {
		outcome = ports.OutcomeLoader
		inner, err = d.Loader(el, req)
	} else {
		outcome = ports.OutcomeRender
		inner, err = d.Render(ctx, el, req)
	}
	if err == nil {
		html, err = a.shell.Fragment(in.ID, in.ShortName, d.Swappable(), inner)
	}
	if err != nil {
		log.Warn().Err(err).Msg("module failed to render")
		a.observer.ModuleRendered(in.ShortName, ports.OutcomeError)
		return a.shell.ErrorFragment(in.ShortName, in.ID)
	}

	a.observer.ModuleRendered(in.ShortName, outcome)
	return html
}

func (a *Assembler) document(ctx context.Context, rows [][]template.HTML) ([]byte, error) {
	cfg, err := a.config.GetConfigs(ctx, parameter.ShellKeys...)
	if err != nil {
		return nil, fmt.Errorf("read site config: %w", err)
	}
	bundle, err := a.assets.BundleName()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	err = a.shell.Render(&buf, web.ShellData{
		Theme:       cfg[parameter.KeyWebsiteTheme],
		Title:       cfg[parameter.KeyWebsiteName],
		Description: cfg[parameter.KeyWebsiteDescription],
		Keywords:    cfg[parameter.KeyWebsiteKeywords],
		Author:      cfg[parameter.KeyWebsiteAuthor],
		Favicon:     cfg[parameter.KeyWebsiteFavicon],
		Bundle:      bundle,
		Rows:        rows,
	})
	if err != nil {
		return nil, fmt.Errorf("render document: %w", err)
	}
	return buf.Bytes(), nil
}

// NewElement builds the module view of an instance with resolved parameters.
func NewElement(in layout.Instance) registry.Element {
	return registry.Element{
		ID:         in.ID,
		LayoutID:   in.LayoutID,
		ShortName:  in.ShortName,
		X:          in.X,
		Y:          in.Y,
		Parameters: parameter.Resolve(in.ShortName, in.Rows()),
	}
}
