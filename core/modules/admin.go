package modules

import (
	"context"
	"html/template"

	"github.com/artpar/zacre/app"
	"github.com/artpar/zacre/core/registry"
	"github.com/artpar/zacre/domain/layout"
	"github.com/artpar/zacre/domain/page"
	"github.com/artpar/zacre/pkg/envelope"
)

type pager struct {
	Current int
	Total   int
	Items   int64
	Query   string
}

// Prev and Next return the neighbouring page numbers, or 0 when absent.
func (p pager) Prev() int {
	if p.Current > 1 {
		return p.Current - 1
	}
	return 0
}

func (p pager) Next() int {
	if p.Current < p.Total {
		return p.Current + 1
	}
	return 0
}

func newPager[T any](pg envelope.Page[T], q string) pager {
	return pager{Current: pg.CurrentPage, Total: pg.TotalPages, Items: pg.TotalItems, Query: q}
}

type layoutListView struct {
	Search  string
	Layouts []layout.Layout
	Pager   pager
}

func adminLayouts(d Deps) registry.Descriptor {
	return registry.Descriptor{
		ShortName:   "admin-layouts",
		Name:        "Admin layouts",
		Description: "Searchable, paginated list of layouts.",
		Loader: func(registry.Element, registry.Request) (template.HTML, error) {
			return execute("admin-layouts-loader", nil)
		},
		Render: func(ctx context.Context, _ registry.Element, req registry.Request) (template.HTML, error) {
			q := req.Query.Get("q")
			res, err := d.Layouts.List(ctx, layout.Filter{Title: q},
				envelope.ParseParams(req.Query, layout.SortFields, app.DefaultLayoutOrder))
			if err != nil {
				return "", err
			}
			return execute("admin-layouts", layoutListView{Search: q, Layouts: res.Items, Pager: newPager(res, q)})
		},
	}
}

type pageListView struct {
	Search string
	Pages  []page.Page
	Pager  pager
}

func adminPages(d Deps) registry.Descriptor {
	return registry.Descriptor{
		ShortName:   "admin-pages",
		Name:        "Admin pages",
		Description: "Searchable, paginated list of pages.",
		Loader: func(registry.Element, registry.Request) (template.HTML, error) {
			return execute("admin-pages-loader", nil)
		},
		Render: func(ctx context.Context, _ registry.Element, req registry.Request) (template.HTML, error) {
			q := req.Query.Get("q")
			res, err := d.PageAdmin.List(ctx, page.Filter{Title: q},
				envelope.ParseParams(req.Query, page.SortFields, app.DefaultPageOrder))
			if err != nil {
				return "", err
			}
			return execute("admin-pages", pageListView{Search: q, Pages: res.Items, Pager: newPager(res, q)})
		},
	}
}
