// Package modules holds the built-in site modules: public chrome
// (navbar, hero, footer), the sign-in form, and the admin screens used
// to manage layouts and pages.
package modules

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"strings"

	"github.com/artpar/zacre/app"
	"github.com/artpar/zacre/core/registry"
	"github.com/artpar/zacre/domain/apperr"
	"github.com/artpar/zacre/domain/layout"
	"github.com/artpar/zacre/domain/page"
	"github.com/artpar/zacre/domain/parameter"
	"github.com/artpar/zacre/pkg/envelope"
	"github.com/artpar/zacre/ports"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("modules").Funcs(template.FuncMap{
	"title": titleCase,
}).ParseFS(templateFS, "templates/*.html"))

// PageSource exposes the routable pages.
type PageSource interface {
	Snapshot() *app.Snapshot
}

// PageFilter selects pages with a filter expression.
type PageFilter interface {
	Filter(expression string, pages []page.Page, viewer *ports.Session) ([]page.Page, error)
}

// LayoutManager is the layout administration surface.
type LayoutManager interface {
	Create(ctx context.Context, in layout.CreateInput) (layout.Layout, error)
	Update(ctx context.Context, id string, in layout.UpdateInput) (layout.Layout, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (layout.Layout, error)
	List(ctx context.Context, f layout.Filter, p envelope.Params) (envelope.Page[layout.Layout], error)
	ListModules(ctx context.Context) ([]layout.Module, error)
}

// PageManager is the page administration surface.
type PageManager interface {
	Create(ctx context.Context, in page.CreateInput) (page.Page, error)
	Update(ctx context.Context, id string, in page.UpdateInput) (page.Page, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (page.Page, error)
	List(ctx context.Context, f page.Filter, p envelope.Params) (envelope.Page[page.Page], error)
}

// Parameters reads site config and declared parameter types.
type Parameters interface {
	GetConfig(ctx context.Context, key string) (string, error)
	ListParameterTypes(ctx context.Context) ([]parameter.Type, error)
}

// Deps are the services the built-in modules call into.
type Deps struct {
	Pages      PageSource
	Filter     PageFilter
	Layouts    LayoutManager
	PageAdmin  PageManager
	Parameters Parameters
	Version    string
}

// All returns the built-in module descriptors in registration order.
func All(d Deps) []registry.Descriptor {
	return []registry.Descriptor{
		navbar(d),
		hero(d),
		footer(d),
		signIn(d),
		adminSidebar(d),
		adminLayouts(d),
		adminPages(d),
		layoutForm(d),
		pageForm(d),
	}
}

func execute(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// pages returns the routable pages passing expression for the viewer.
func (d Deps) pages(expression string, viewer *ports.Session) ([]page.Page, error) {
	var all []page.Page
	if snap := d.Pages.Snapshot(); snap != nil {
		all = snap.Pages
	}
	return d.Filter.Filter(expression, all, viewer)
}

// config reads a site config value, treating a missing key as "".
func (d Deps) config(ctx context.Context, key string) string {
	v, err := d.Parameters.GetConfig(ctx, key)
	if err != nil {
		return ""
	}
	return v
}

func requireAdmin(req registry.Request) error {
	if req.User == nil {
		return apperr.Unauthorized("User not authenticated")
	}
	if req.User.Role != "admin" {
		return apperr.Forbidden("Forbidden")
	}
	return nil
}

// editing reports whether the id path parameter names an existing record
// rather than the "new" form.
func editing(id string) bool {
	return id != "" && id != "new"
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	s = strings.ToLower(s)
	return strings.ToUpper(s[:1]) + s[1:]
}
