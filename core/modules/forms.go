package modules

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"

	"github.com/artpar/zacre/core/registry"
	"github.com/artpar/zacre/core/schema"
	"github.com/artpar/zacre/domain/apperr"
	"github.com/artpar/zacre/domain/layout"
	"github.com/artpar/zacre/domain/page"
	"github.com/artpar/zacre/domain/parameter"
	"github.com/artpar/zacre/pkg/envelope"
)

// Form methods.
const (
	MethodCreate = "CREATE"
	MethodUpdate = "UPDATE"
	MethodDelete = "DELETE"
)

// decode converts a validated payload into its typed form.
func decode(payload map[string]any, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperr.Validation("Invalid request: " + err.Error())
	}
	return nil
}

// -----------------------------------------------------------------------------
// layout-form
// -----------------------------------------------------------------------------

var layoutFormSchema = []schema.Field{
	schema.String("layoutId"),
	schema.Required(schema.String("title")),
	schema.Required(schema.String("description")),
	schema.Bool("isActive"),
	schema.Required(schema.Enum("method", MethodCreate, MethodUpdate, MethodDelete)),
	schema.Required(schema.Array("modules", schema.Object("",
		schema.String("layoutModuleId"),
		schema.String("moduleId"),
		schema.String("shortName"),
		schema.Required(schema.Int("x")),
		schema.Required(schema.Int("y")),
		schema.Required(schema.Array("parameters", schema.Object("",
			schema.Required(schema.String("key")),
			schema.Required(schema.String("value")),
		))),
	))),
}

type layoutAction struct {
	LayoutID    string `json:"layoutId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	IsActive    *bool  `json:"isActive"`
	Method      string `json:"method"`
	Modules     []struct {
		ModuleID   string `json:"moduleId"`
		ShortName  string `json:"shortName"`
		X          int    `json:"x"`
		Y          int    `json:"y"`
		Parameters []struct {
			Key   string `json:"key"`
			Value string `json:"value"`
		} `json:"parameters"`
	} `json:"modules"`
}

func (a layoutAction) moduleInputs() []layout.ModuleInput {
	out := make([]layout.ModuleInput, 0, len(a.Modules))
	for _, m := range a.Modules {
		x, y := m.X, m.Y
		in := layout.ModuleInput{ShortName: m.ShortName, ModuleID: m.ModuleID, X: &x, Y: &y}
		for _, p := range m.Parameters {
			v := p.Value
			in.Params = append(in.Params, layout.ParamInput{Key: p.Key, Value: &v})
		}
		out = append(out, in)
	}
	return out
}

// LayoutFormData is served to the layout editor on the client.
type LayoutFormData struct {
	AllParameterTypes []ParameterTypeItem `json:"allParameterTypes"`
	AllModules        []ModuleItem        `json:"allModules"`
}

// ParameterTypeItem is one declared parameter the editor can add.
type ParameterTypeItem struct {
	Key        string              `json:"key"`
	Type       parameter.ValueType `json:"type"`
	IsRequired bool                `json:"isRequired"`
}

// ModuleItem is one module the editor can place.
type ModuleItem struct {
	ID        string `json:"id"`
	ShortName string `json:"shortName"`
	Name      string `json:"name"`
}

type instanceView struct {
	layout.Instance
	Available []string
}

type layoutFormView struct {
	Editing   bool
	Layout    layout.Layout
	Instances []instanceView
	Modules   []layout.Module
}

func layoutForm(d Deps) registry.Descriptor {
	formData := func(ctx context.Context) (LayoutFormData, []parameter.Type, []layout.Module, error) {
		types, err := d.Parameters.ListParameterTypes(ctx)
		if err != nil {
			return LayoutFormData{}, nil, nil, err
		}
		mods, err := d.Layouts.ListModules(ctx)
		if err != nil {
			return LayoutFormData{}, nil, nil, err
		}
		out := LayoutFormData{
			AllParameterTypes: make([]ParameterTypeItem, len(types)),
			AllModules:        make([]ModuleItem, len(mods)),
		}
		for i, t := range types {
			out.AllParameterTypes[i] = ParameterTypeItem{Key: t.Key, Type: t.ValueType, IsRequired: t.IsRequired}
		}
		for i, m := range mods {
			out.AllModules[i] = ModuleItem{ID: m.ID, ShortName: m.ShortName, Name: m.Name}
		}
		return out, types, mods, nil
	}

	return registry.Descriptor{
		ShortName:   "layout-form",
		Name:        "Layout form",
		Description: "Editor to create, change and delete a layout.",
		Loader: func(registry.Element, registry.Request) (template.HTML, error) {
			return execute("layout-form-loader", nil)
		},
		Render: func(ctx context.Context, _ registry.Element, req registry.Request) (template.HTML, error) {
			_, types, mods, err := formData(ctx)
			if err != nil {
				return "", err
			}
			v := layoutFormView{Modules: mods}
			if id := req.Param("layoutId"); editing(id) {
				l, err := d.Layouts.Get(ctx, id)
				if err != nil {
					return "", err
				}
				v.Editing, v.Layout = true, l
				for _, in := range l.Modules {
					v.Instances = append(v.Instances, instanceView{Instance: in, Available: available(in, types)})
				}
			}
			return execute("layout-form", v)
		},
		Data: func(ctx context.Context, _ registry.Element, _ registry.Request) (any, error) {
			out, _, _, err := formData(ctx)
			return out, err
		},
		ActionSchema: layoutFormSchema,
		Action: func(ctx context.Context, _ registry.Element, req registry.Request, payload map[string]any) (registry.ActionResult, error) {
			if err := requireAdmin(req); err != nil {
				return registry.ActionResult{}, err
			}
			var a layoutAction
			if err := decode(payload, &a); err != nil {
				return registry.ActionResult{}, err
			}

			switch {
			case a.Method == MethodDelete:
				if a.LayoutID == "" {
					return registry.ActionResult{}, apperr.Validation("Layout ID is required to delete a layout")
				}
				if err := d.Layouts.Delete(ctx, a.LayoutID); err != nil {
					return registry.ActionResult{}, err
				}
				return redirect("/admin/layouts", "Layout deleted successfully"), nil

			case a.LayoutID != "":
				desc := a.Description
				_, err := d.Layouts.Update(ctx, a.LayoutID, layout.UpdateInput{
					Title:       &a.Title,
					Description: &desc,
					IsActive:    a.IsActive,
					Modules:     a.moduleInputs(),
				})
				if err != nil {
					return registry.ActionResult{}, err
				}
				return redirect("/admin/layouts", "Layout updated successfully"), nil

			default:
				if a.Method == MethodUpdate {
					return registry.ActionResult{}, apperr.Validation("Layout ID is required to update a layout")
				}
				desc := a.Description
				_, err := d.Layouts.Create(ctx, layout.CreateInput{
					Title:       a.Title,
					Description: &desc,
					IsActive:    a.IsActive == nil || *a.IsActive,
					Modules:     a.moduleInputs(),
				})
				if err != nil {
					return registry.ActionResult{}, err
				}
				return redirect("/admin/layouts", "Layout created successfully"), nil
			}
		},
	}
}

// available lists the declared parameter keys of in's module that the
// instance does not set yet.
func available(in layout.Instance, types []parameter.Type) []string {
	set := make(map[string]bool, len(in.Parameters))
	for _, p := range in.Parameters {
		set[p.Key] = true
	}
	prefix := in.ShortName + "."
	var out []string
	for _, t := range types {
		if strings.HasPrefix(t.Key, prefix) && !set[t.Key] {
			out = append(out, t.Key)
		}
	}
	return out
}

func redirect(url, msg string) registry.ActionResult {
	return registry.ActionResult{Redirect: &registry.Redirect{URL: url, Message: msg}}
}

// -----------------------------------------------------------------------------
// page-form
// -----------------------------------------------------------------------------

var pageFormSchema = []schema.Field{
	schema.String("pageId"),
	schema.Required(schema.String("title")),
	schema.Required(schema.String("description")),
	schema.Required(schema.String("url")),
	schema.Required(schema.String("layoutId")),
	schema.Required(schema.Bool("isActive")),
	schema.String("assignedFeature"),
	schema.Required(schema.Enum("method", MethodCreate, MethodUpdate, MethodDelete)),
}

type pageAction struct {
	PageID          string `json:"pageId"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	URL             string `json:"url"`
	LayoutID        string `json:"layoutId"`
	IsActive        bool   `json:"isActive"`
	AssignedFeature string `json:"assignedFeature"`
	Method          string `json:"method"`
}

// PageFormData is served to the page editor on the client.
type PageFormData struct {
	AllLayouts []layout.Layout `json:"allLayouts"`
	Features   []page.Feature  `json:"features"`
}

type pageFormView struct {
	Editing  bool
	Page     page.Page
	Layouts  []layout.Layout
	Features []page.Feature
}

// allLayouts lists every layout for the picker, capped at the list limit.
func allLayouts(ctx context.Context, d Deps) ([]layout.Layout, error) {
	res, err := d.Layouts.List(ctx, layout.Filter{}, envelope.Params{
		Page:  1,
		Limit: envelope.MaxLimit,
		Order: envelope.Order{Field: "title"},
	})
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

func pageForm(d Deps) registry.Descriptor {
	return registry.Descriptor{
		ShortName:   "page-form",
		Name:        "Page form",
		Description: "Editor to create, change and delete a page.",
		Loader: func(registry.Element, registry.Request) (template.HTML, error) {
			return execute("page-form-loader", nil)
		},
		Render: func(ctx context.Context, _ registry.Element, req registry.Request) (template.HTML, error) {
			layouts, err := allLayouts(ctx, d)
			if err != nil {
				return "", err
			}
			v := pageFormView{Layouts: layouts, Features: page.Features, Page: page.Page{IsActive: true}}
			if id := req.Param("pageId"); editing(id) {
				p, err := d.PageAdmin.Get(ctx, id)
				if err != nil {
					return "", err
				}
				v.Editing, v.Page = true, p
			}
			return execute("page-form", v)
		},
		Data: func(ctx context.Context, _ registry.Element, _ registry.Request) (any, error) {
			layouts, err := allLayouts(ctx, d)
			if err != nil {
				return nil, err
			}
			return PageFormData{AllLayouts: layouts, Features: page.Features}, nil
		},
		ActionSchema: pageFormSchema,
		Action: func(ctx context.Context, _ registry.Element, req registry.Request, payload map[string]any) (registry.ActionResult, error) {
			if err := requireAdmin(req); err != nil {
				return registry.ActionResult{}, err
			}
			var a pageAction
			if err := decode(payload, &a); err != nil {
				return registry.ActionResult{}, err
			}
			feature, ok := page.ParseFeature(a.AssignedFeature)
			if !ok {
				return registry.ActionResult{}, apperr.Validation(fmt.Sprintf("Unknown page feature %q", a.AssignedFeature))
			}

			switch {
			case a.Method == MethodDelete:
				if a.PageID == "" {
					return registry.ActionResult{}, apperr.Validation("Page ID is required to delete a page")
				}
				if err := d.PageAdmin.Delete(ctx, a.PageID); err != nil {
					return registry.ActionResult{}, err
				}
				return redirect("/admin/pages", "Page deleted successfully"), nil

			case a.PageID != "":
				_, err := d.PageAdmin.Update(ctx, a.PageID, page.UpdateInput{
					Title:           &a.Title,
					Description:     &a.Description,
					URL:             &a.URL,
					LayoutID:        &a.LayoutID,
					IsActive:        &a.IsActive,
					AssignedFeature: &feature,
					UpdatedByID:     req.User.UserID,
				})
				if err != nil {
					return registry.ActionResult{}, err
				}
				return redirect("/admin/pages", "Page updated successfully"), nil

			default:
				if a.Method == MethodUpdate {
					return registry.ActionResult{}, apperr.Validation("Page ID is required to update a page")
				}
				_, err := d.PageAdmin.Create(ctx, page.CreateInput{
					Title:           a.Title,
					Description:     a.Description,
					URL:             a.URL,
					LayoutID:        a.LayoutID,
					IsActive:        &a.IsActive,
					AssignedFeature: feature,
					CreatedByID:     req.User.UserID,
					Strict:          true,
				})
				if err != nil {
					return registry.ActionResult{}, err
				}
				return redirect("/admin/pages", "Page created successfully"), nil
			}
		},
	}
}
