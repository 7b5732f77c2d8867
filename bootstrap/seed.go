package bootstrap

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/artpar/zacre/domain/layout"
	"github.com/artpar/zacre/domain/page"
	"github.com/artpar/zacre/pkg/envelope"
)

// Seed defaults.
const (
	AdminEmail           = "admin@zacre.local"
	DefaultAdminPassword = "admin"
)

// siteConfig is the initial site configuration. Existing values are kept.
var siteConfig = []struct{ key, value string }{
	{"website.name", "Zacre"},
	{"website.description", "A modular site builder"},
	{"website.keywords", "cms, site builder, modules"},
	{"website.author", "Zacre"},
	{"website.logo", "/logo.svg"},
	{"website.favicon", "/favicon.ico"},
	{"website.theme", "light"},
}

// navFilter shows public pages, sign-in to anonymous visitors, and the
// admin entry point to admins.
const navFilter = `assignedFeature == "" || (assignedFeature == "AUTH" && !signedIn) || (url == "/admin" && userRole == "admin")`

type seedModule struct {
	shortName string
	x, y      int
	params    map[string]string
}

type seedLayout struct {
	title       string
	description string
	modules     []seedModule
}

type seedPage struct {
	url     string
	title   string
	layout  string
	feature page.Feature
	role    string
}

var seedLayouts = []seedLayout{
	{
		title:       "Home",
		description: "Landing page",
		modules: []seedModule{
			{shortName: "navbar", y: 0, params: map[string]string{"titleText": "Zacre", "pageFilter": navFilter}},
			{shortName: "hero", y: 1, params: map[string]string{
				"title":             "Build pages out of modules",
				"description":       "Compose layouts on a grid and bind them to URLs.",
				"primaryButtonText": "Sign in",
				"primaryButtonLink": "/sign-in",
				"viewType":          "centered",
			}},
			{shortName: "footer", y: 2, params: map[string]string{"copyrightText": "Zacre"}},
		},
	},
	{
		title:       "Sign In",
		description: "Sign-in form",
		modules: []seedModule{
			{shortName: "navbar", y: 0, params: map[string]string{"titleText": "Zacre", "pageFilter": navFilter}},
			{shortName: "sign-in", y: 1},
			{shortName: "footer", y: 2, params: map[string]string{"copyrightText": "Zacre"}},
		},
	},
	{
		title:       "Admin",
		description: "Layout list",
		modules:     adminModules("admin-layouts"),
	},
	{
		title:       "Admin layout form",
		description: "Create and edit layouts",
		modules:     adminModules("layout-form"),
	},
	{
		title:       "Admin pages",
		description: "Page list",
		modules:     adminModules("admin-pages"),
	},
	{
		title:       "Admin page form",
		description: "Create and edit pages",
		modules:     adminModules("page-form"),
	},
}

func adminModules(main string) []seedModule {
	return []seedModule{
		{shortName: "admin-sidebar", x: 0, params: map[string]string{"isAlwaysVisible": "true"}},
		{shortName: main, x: 1},
	}
}

var seedPages = []seedPage{
	{url: "/", title: "Home", layout: "Home"},
	{url: "/sign-in", title: "Sign in", layout: "Sign In", feature: page.FeatureAuth},
	{url: "/admin", title: "Dashboard", layout: "Admin", feature: page.FeatureAdmin, role: "admin"},
	{url: "/admin/layouts", title: "Layouts", layout: "Admin", feature: page.FeatureAdmin, role: "admin"},
	{url: "/admin/layouts/new", title: "New layout", layout: "Admin layout form", feature: page.FeatureAdmin, role: "admin"},
	{url: "/admin/layouts/:layoutId", title: "Edit layout", layout: "Admin layout form", feature: page.FeatureAdmin, role: "admin"},
	{url: "/admin/pages", title: "Pages", layout: "Admin pages", feature: page.FeatureAdmin, role: "admin"},
	{url: "/admin/pages/new", title: "New page", layout: "Admin page form", feature: page.FeatureAdmin, role: "admin"},
	{url: "/admin/pages/:pageId", title: "Edit page", layout: "Admin page form", feature: page.FeatureAdmin, role: "admin"},
}

// SeedResult reports what Seed created.
type SeedResult struct {
	AdminCreated bool
	ConfigKeys   int
	Pages        int
}

// Seed creates the admin user, site config, default layouts and pages.
// It is idempotent: existing rows are left untouched.
func (a *App) Seed(ctx context.Context, adminPassword string) (SeedResult, error) {
	var res SeedResult
	if adminPassword == "" {
		adminPassword = DefaultAdminPassword
	}

	admin, created, err := a.Auth.EnsureUser(ctx, AdminEmail, "Administrator", "admin", adminPassword)
	if err != nil {
		return res, fmt.Errorf("seed admin: %w", err)
	}
	res.AdminCreated = created

	for _, c := range siteConfig {
		ok, err := a.Parameters.SetConfig(ctx, c.key, c.value)
		if err != nil {
			return res, fmt.Errorf("seed config %s: %w", c.key, err)
		}
		if ok {
			res.ConfigKeys++
		}
	}

	known, err := a.Pages.List(ctx, page.Filter{}, envelope.Params{Limit: envelope.MaxLimit})
	if err != nil {
		return res, fmt.Errorf("seed pages: %w", err)
	}
	seeded := make(map[string]bool, len(known.Items))
	for _, p := range known.Items {
		seeded[p.URL] = true
	}

	layoutIDs := make(map[string]string, len(seedLayouts))
	for _, sl := range seedLayouts {
		desc := sl.description
		l, err := a.Layouts.Create(ctx, layout.CreateInput{
			Title:       sl.title,
			Description: &desc,
			IsActive:    true,
			Modules:     sl.inputs(),
		})
		if err != nil {
			return res, fmt.Errorf("seed layout %s: %w", sl.title, err)
		}
		layoutIDs[sl.title] = l.ID
	}

	for _, sp := range seedPages {
		if seeded[sp.url] {
			continue
		}
		active := true
		_, err := a.Pages.Create(ctx, page.CreateInput{
			Title:           sp.title,
			URL:             sp.url,
			LayoutID:        layoutIDs[sp.layout],
			IsActive:        &active,
			IsLocked:        true,
			Role:            sp.role,
			AssignedFeature: sp.feature,
			CreatedByID:     admin.ID,
		})
		if err != nil {
			return res, fmt.Errorf("seed page %s: %w", sp.url, err)
		}
		res.Pages++
	}

	a.Logger.Info().
		Bool("admin_created", res.AdminCreated).
		Int("config_keys", res.ConfigKeys).
		Int("pages", res.Pages).
		Msg("seed complete")
	return res, nil
}

func (sl seedLayout) inputs() []layout.ModuleInput {
	out := make([]layout.ModuleInput, 0, len(sl.modules))
	for _, m := range sl.modules {
		x, y := m.x, m.y
		in := layout.ModuleInput{ShortName: m.shortName, X: &x, Y: &y}
		for _, k := range slices.Sorted(maps.Keys(m.params)) {
			v := m.params[k]
			in.Params = append(in.Params, layout.ParamInput{Key: k, Value: &v})
		}
		out = append(out, in)
	}
	return out
}
