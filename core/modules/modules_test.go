package modules_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/artpar/zacre/adapters/clock"
	"github.com/artpar/zacre/adapters/idgen"
	"github.com/artpar/zacre/adapters/memory"
	"github.com/artpar/zacre/app"
	"github.com/artpar/zacre/core/modules"
	"github.com/artpar/zacre/core/registry"
	"github.com/artpar/zacre/core/validation"
	"github.com/artpar/zacre/domain/apperr"
	"github.com/artpar/zacre/domain/layout"
	"github.com/artpar/zacre/domain/page"
	"github.com/artpar/zacre/domain/parameter"
	"github.com/artpar/zacre/pkg/envelope"
	"github.com/artpar/zacre/ports"
	"github.com/rs/zerolog"
)

type fixture struct {
	clock      *clock.Fake
	registry   *registry.Registry
	pages      *app.PageRegistry
	parameters *app.ParameterService
	layouts    *app.LayoutService
	pageSvc    *app.PageService
}

var admin = &ports.Session{UserID: "user-1", Email: "admin@zacre.local", Role: "admin"}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := zerolog.Nop()

	f := &fixture{clock: clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))}
	moduleStore := memory.NewModuleStore()
	layoutStore := memory.NewLayoutStore(moduleStore)
	pageStore := memory.NewPageStore()
	ids := idgen.NewSequential("id-")

	f.pages = app.NewPageRegistry(pageStore, layoutStore, f.clock, logger, app.RegistryConfig{})
	f.parameters = app.NewParameterService(memory.NewParameterStore(), memory.NewConfigCache(time.Hour, f.clock), logger)
	f.layouts = app.NewLayoutService(layoutStore, moduleStore, pageStore, f.pages, ids, f.clock, logger)
	f.pageSvc = app.NewPageService(pageStore, layoutStore, f.pages, ids, f.clock, logger)

	reg, err := registry.New(modules.All(modules.Deps{
		Pages:      f.pages,
		Filter:     app.NewPageFilterService(),
		Layouts:    f.layouts,
		PageAdmin:  f.pageSvc,
		Parameters: f.parameters,
		Version:    "v1.2.3",
	})...)
	if err != nil {
		t.Fatalf("registry.New() error = %v", err)
	}
	reg.Freeze()
	f.registry = reg

	for _, d := range reg.All() {
		if _, err := moduleStore.Upsert(ctx, layout.Module{ID: "mod-" + d.ShortName, ShortName: d.ShortName, Name: d.Name}); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.parameters.DeclareParameterTypes(ctx, reg.All()); err != nil {
		t.Fatal(err)
	}
	if err := f.pages.Start(ctx); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(f.pages.Stop)
	return f
}

func (f *fixture) module(t *testing.T, shortName string) registry.Descriptor {
	t.Helper()
	d, ok := f.registry.Lookup(shortName)
	if !ok {
		t.Fatalf("module %s not registered", shortName)
	}
	return d
}

func (f *fixture) layout(t *testing.T, title string) layout.Layout {
	t.Helper()
	l, err := f.layouts.Create(context.Background(), layout.CreateInput{Title: title, IsActive: true})
	if err != nil {
		t.Fatalf("Create(%s) error = %v", title, err)
	}
	return l
}

func (f *fixture) page(t *testing.T, url, title string, feature page.Feature, layoutID string) page.Page {
	t.Helper()
	f.clock.Advance(time.Second)
	p, err := f.pageSvc.Create(context.Background(), page.CreateInput{
		Title: title, URL: url, LayoutID: layoutID, AssignedFeature: feature,
	})
	if err != nil {
		t.Fatalf("Create(%s) error = %v", url, err)
	}
	return p
}

func element(shortName string, kv ...string) registry.Element {
	v := parameter.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		v[kv[i]] = kv[i+1]
	}
	return registry.Element{ID: "el-1", ShortName: shortName, Parameters: v}
}

func render(t *testing.T, d registry.Descriptor, el registry.Element, req registry.Request) string {
	t.Helper()
	html, err := d.Render(context.Background(), el, req)
	if err != nil {
		t.Fatalf("%s Render() error = %v", d.ShortName, err)
	}
	return string(html)
}

func TestAll_Registers(t *testing.T) {
	f := newFixture(t)

	want := []string{"navbar", "hero", "footer", "sign-in", "admin-sidebar",
		"admin-layouts", "admin-pages", "layout-form", "page-form"}
	all := f.registry.All()
	if len(all) != len(want) {
		t.Fatalf("got %d modules, want %d", len(all), len(want))
	}
	for i, d := range all {
		if d.ShortName != want[i] {
			t.Errorf("module[%d] = %s, want %s", i, d.ShortName, want[i])
		}
		if !d.Renderable() {
			t.Errorf("%s has neither loader nor render", d.ShortName)
		}
	}

	types, _ := f.parameters.ListParameterTypes(context.Background())
	keys := map[string]bool{}
	for _, ty := range types {
		keys[ty.Key] = true
	}
	for _, k := range []string{"hero.title", "navbar.pageFilter", "footer.github", "sign-in.isSignUpEnabled"} {
		if !keys[k] {
			t.Errorf("parameter type %s not declared", k)
		}
	}
}

func TestNavbar_FiltersPages(t *testing.T) {
	f := newFixture(t)
	l := f.layout(t, "Home")
	f.page(t, "/", "Home", "", l.ID)
	f.page(t, "/about", "About <us>", "", l.ID)
	f.page(t, "/admin", "Dashboard", page.FeatureAdmin, l.ID)
	f.page(t, "/blog/:slug", "Post", "", l.ID)

	nav := f.module(t, "navbar")

	html := render(t, nav, element("navbar", "titleText", "Zacre"), registry.Request{})
	for _, want := range []string{`href="/about"`, "About &lt;us&gt;", "Zacre"} {
		if !strings.Contains(html, want) {
			t.Errorf("navbar missing %s", want)
		}
	}
	if strings.Contains(html, "/admin") || strings.Contains(html, "/blog/") {
		t.Error("default filter should hide featured and pattern pages")
	}
	if strings.Contains(html, `type="search"`) {
		t.Error("search should be off by default")
	}

	html = render(t, nav, element("navbar", "pageFilter", `assignedFeature == "ADMIN"`, "isSearchEnabled", "true"), registry.Request{})
	if !strings.Contains(html, `href="/admin"`) || strings.Contains(html, `href="/about"`) {
		t.Errorf("custom filter not applied\n%s", html)
	}
	if !strings.Contains(html, `type="search"`) {
		t.Error("search should be enabled")
	}

	if _, err := nav.Render(context.Background(), element("navbar", "pageFilter", "url =="), registry.Request{}); err == nil {
		t.Error("invalid filter should fail the render")
	}
}

func TestHero_LoaderAndData(t *testing.T) {
	f := newFixture(t)
	hero := f.module(t, "hero")

	html, err := hero.Loader(element("hero"), registry.Request{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(html), "Error: Module hero cannot be loaded (ID: el-1)") {
		t.Errorf("missing title placeholder\n%s", html)
	}

	html, err = hero.Loader(element("hero",
		"title", "Build <fast>",
		"primaryButtonText", "Start",
		"primaryButtonLink", "/sign-in",
		"viewType", "centered",
	), registry.Request{})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Build &lt;fast&gt;", `href="/sign-in"`, "btn-primary", "text-center"} {
		if !strings.Contains(string(html), want) {
			t.Errorf("hero missing %s", want)
		}
	}
	if strings.Contains(string(html), "btn-outline") {
		t.Error("secondary button should be omitted without text")
	}

	data, err := hero.Data(context.Background(), element("hero"), registry.Request{})
	if err != nil {
		t.Fatal(err)
	}
	if got := data.(modules.HeroData).ModulesCount; got != 9 {
		t.Errorf("ModulesCount = %d, want 9", got)
	}
}

func TestFooter_Socials(t *testing.T) {
	f := newFixture(t)
	l := f.layout(t, "Home")
	f.page(t, "/pricing", "Pricing", "", l.ID)

	html, err := f.module(t, "footer").Loader(element("footer",
		"copyrightText", "© Zacre",
		"github", "https://github.com/artpar",
		"emailAddress", "hi@zacre.local",
	), registry.Request{})
	if err != nil {
		t.Fatal(err)
	}
	s := string(html)
	for _, want := range []string{`data-lucide="github"`, "mailto:hi@zacre.local", `href="/pricing"`, "Built with Zacre"} {
		if !strings.Contains(s, want) {
			t.Errorf("footer missing %s", want)
		}
	}
	if strings.Contains(s, `data-lucide="youtube"`) || strings.Contains(s, "tel:") {
		t.Error("unset links should be omitted")
	}
}

func TestSignInAndSidebar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.parameters.SetConfig(ctx, parameter.KeyWebsiteLogo, "/logo.webp"); err != nil {
		t.Fatal(err)
	}
	l := f.layout(t, "Admin")
	f.page(t, "/admin/pages", "Pages", page.FeatureAdmin, l.ID)
	f.page(t, "/admin/pages/:pageId", "Page", page.FeatureAdmin, l.ID)
	f.page(t, "/", "Home", "", l.ID)

	html := render(t, f.module(t, "sign-in"), element("sign-in"), registry.Request{})
	if !strings.Contains(html, `action="/api/auth/sign-in"`) || !strings.Contains(html, `src="/logo.webp"`) {
		t.Errorf("sign-in form\n%s", html)
	}

	html = render(t, f.module(t, "admin-sidebar"), element("admin-sidebar"), registry.Request{User: admin})
	if !strings.Contains(html, `href="/admin/pages"`) || !strings.Contains(html, "Zacre v1.2.3") {
		t.Errorf("sidebar\n%s", html)
	}
	if strings.Contains(html, `href="/"`+">Home") || strings.Contains(html, ":pageId") {
		t.Error("sidebar should list linkable admin pages only")
	}
	if !strings.Contains(html, "lg:drawer-open") {
		t.Error("sidebar should collapse on small screens by default")
	}
}

func TestAdminLayouts_Paginates(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 12; i++ {
		f.layout(t, "Layout "+string(rune('A'+i)))
	}
	list := f.module(t, "admin-layouts")

	html := render(t, list, element("admin-layouts"), registry.Request{})
	if n := strings.Count(html, "layout-card"); n != 10 {
		t.Errorf("page 1 has %d cards, want 10", n)
	}
	if !strings.Contains(html, "Page 1 of 2") {
		t.Error("missing pager")
	}

	html = render(t, list, element("admin-layouts"), registry.Request{Query: map[string][]string{"page": {"2"}}})
	if n := strings.Count(html, "layout-card"); n != 2 {
		t.Errorf("page 2 has %d cards, want 2", n)
	}

	html = render(t, list, element("admin-layouts"), registry.Request{Query: map[string][]string{"q": {"layout c"}}})
	if n := strings.Count(html, "layout-card"); n != 1 || !strings.Contains(html, "Layout C") {
		t.Errorf("search returned %d cards", n)
	}

	loader, err := list.Loader(element("admin-layouts"), registry.Request{})
	if err != nil || !strings.Contains(string(loader), "skeleton") {
		t.Errorf("loader = %s, %v", loader, err)
	}
}

func TestAdminPages_Lists(t *testing.T) {
	f := newFixture(t)
	l := f.layout(t, "Home")
	f.page(t, "/", "Home", "", l.ID)
	f.page(t, "/sign-in", "Sign In", page.FeatureAuth, l.ID)

	html := render(t, f.module(t, "admin-pages"), element("admin-pages"), registry.Request{})
	if n := strings.Count(html, "page-card"); n != 2 {
		t.Errorf("got %d page cards, want 2", n)
	}
	if !strings.Contains(html, ">Auth</span>") {
		t.Error("feature badge should be title cased")
	}
}

func layoutPayload(method, id string) map[string]any {
	return map[string]any{
		"layoutId":    id,
		"title":       "Landing",
		"description": "Marketing",
		"isActive":    true,
		"method":      method,
		"modules": []any{
			map[string]any{
				"shortName": "hero",
				"x":         float64(0),
				"y":         float64(1),
				"parameters": []any{
					map[string]any{"key": "hero.title", "value": "Welcome"},
				},
			},
			map[string]any{
				"moduleId":   "mod-navbar",
				"x":          float64(0),
				"y":          float64(0),
				"parameters": []any{},
			},
		},
	}
}

func TestLayoutForm_Action(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	form := f.module(t, "layout-form")

	if res := (validation.Validator{}).Validate(form.ActionSchema, layoutPayload("CREATE", "")); !res.Valid {
		t.Fatalf("payload should satisfy the schema: %s", res.Error())
	}
	bad := layoutPayload("CREATE", "")
	bad["modules"].([]any)[0].(map[string]any)["x"] = "left"
	if res := (validation.Validator{}).Validate(form.ActionSchema, bad); res.Valid {
		t.Error("string coordinate should fail the schema")
	}

	if _, err := form.Action(ctx, element("layout-form"), registry.Request{}, layoutPayload("CREATE", "")); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Errorf("anonymous action error = %v, want unauthorized", err)
	}
	viewer := &ports.Session{UserID: "u2", Role: "viewer"}
	if _, err := form.Action(ctx, element("layout-form"), registry.Request{User: viewer}, layoutPayload("CREATE", "")); !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("viewer action error = %v, want forbidden", err)
	}

	req := registry.Request{User: admin}
	res, err := form.Action(ctx, element("layout-form"), req, layoutPayload("CREATE", ""))
	if err != nil {
		t.Fatalf("create error = %v", err)
	}
	if res.Redirect == nil || res.Redirect.URL != "/admin/layouts" || res.Redirect.Message != "Layout created successfully" {
		t.Errorf("create result = %+v", res.Redirect)
	}

	listed, err := f.layouts.List(ctx, layout.Filter{Title: "Landing"}, envelope.Params{})
	if err != nil || len(listed.Items) != 1 {
		t.Fatalf("List() = %v, %v", listed.Items, err)
	}
	created := listed.Items[0]
	if len(created.Modules) != 2 {
		t.Fatalf("created %d instances, want 2", len(created.Modules))
	}

	update := layoutPayload("UPDATE", created.ID)
	update["title"] = "Landing v2"
	update["modules"] = []any{}
	res, err = form.Action(ctx, element("layout-form"), req, update)
	if err != nil || res.Redirect.Message != "Layout updated successfully" {
		t.Fatalf("update = %+v, %v", res.Redirect, err)
	}
	got, _ := f.layouts.Get(ctx, created.ID)
	if got.Title != "Landing v2" || len(got.Modules) != 0 {
		t.Errorf("after update = %s with %d modules", got.Title, len(got.Modules))
	}

	if _, err := form.Action(ctx, element("layout-form"), req, layoutPayload("UPDATE", "")); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("update without id error = %v", err)
	}

	res, err = form.Action(ctx, element("layout-form"), req, layoutPayload("DELETE", created.ID))
	if err != nil || res.Redirect.Message != "Layout deleted successfully" {
		t.Fatalf("delete = %+v, %v", res.Redirect, err)
	}
	if _, err := f.layouts.Get(ctx, created.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("layout should be gone, got %v", err)
	}
}

func TestLayoutForm_RenderAndData(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	title := "Hi"
	l, err := f.layouts.Create(ctx, layout.CreateInput{Title: "Home", IsActive: true, Modules: []layout.ModuleInput{{
		ShortName: "hero",
		Params:    []layout.ParamInput{{Key: "title", Value: &title}},
	}}})
	if err != nil {
		t.Fatal(err)
	}
	form := f.module(t, "layout-form")

	html := render(t, form, element("layout-form"), registry.Request{Params: map[string]string{"layoutId": l.ID}})
	for _, want := range []string{"Edit Layout", `value="Home"`, `data-parameter-key="hero.title"`, `<option value="hero.description">`} {
		if !strings.Contains(html, want) {
			t.Errorf("edit form missing %s", want)
		}
	}
	if strings.Contains(html, `<option value="hero.title">`) {
		t.Error("a set parameter should not be offered again")
	}

	html = render(t, form, element("layout-form"), registry.Request{Params: map[string]string{"layoutId": "new"}})
	if !strings.Contains(html, "Create Layout") || strings.Contains(html, `value="DELETE"`) {
		t.Error("new form should not offer delete")
	}

	if _, err := form.Render(ctx, element("layout-form"), registry.Request{Params: map[string]string{"layoutId": "missing"}}); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("missing layout error = %v", err)
	}

	data, err := form.Data(ctx, element("layout-form"), registry.Request{})
	if err != nil {
		t.Fatal(err)
	}
	fd := data.(modules.LayoutFormData)
	if len(fd.AllModules) != 9 || len(fd.AllParameterTypes) == 0 {
		t.Errorf("form data = %d modules, %d types", len(fd.AllModules), len(fd.AllParameterTypes))
	}
}

func pagePayload(method, id, url, layoutID string) map[string]any {
	return map[string]any{
		"pageId":          id,
		"title":           "About",
		"description":     "",
		"url":             url,
		"layoutId":        layoutID,
		"isActive":        true,
		"assignedFeature": "",
		"method":          method,
	}
}

func TestPageForm_Action(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.layout(t, "Home")
	form := f.module(t, "page-form")
	req := registry.Request{User: admin}

	res, err := form.Action(ctx, element("page-form"), req, pagePayload("CREATE", "", "/about", l.ID))
	if err != nil || res.Redirect.URL != "/admin/pages" || res.Redirect.Message != "Page created successfully" {
		t.Fatalf("create = %+v, %v", res.Redirect, err)
	}
	m := f.pages.Snapshot().Match("/about")
	if m == nil {
		t.Fatal("created page should be routable at once")
	}
	if m.Page.CreatedByID != admin.UserID {
		t.Errorf("CreatedByID = %q", m.Page.CreatedByID)
	}

	if _, err := form.Action(ctx, element("page-form"), req, pagePayload("CREATE", "", "/about", l.ID)); !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("duplicate URL error = %v, want conflict", err)
	}
	bad := pagePayload("CREATE", "", "/x", l.ID)
	bad["assignedFeature"] = "BILLING"
	if _, err := form.Action(ctx, element("page-form"), req, bad); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("unknown feature error = %v", err)
	}

	upd := pagePayload("UPDATE", m.Page.ID, "/about-us", l.ID)
	if res, err := form.Action(ctx, element("page-form"), req, upd); err != nil || res.Redirect.Message != "Page updated successfully" {
		t.Fatalf("update = %+v, %v", res.Redirect, err)
	}
	if f.pages.Snapshot().Match("/about-us") == nil || f.pages.Snapshot().Match("/about") != nil {
		t.Error("registry should follow the URL change")
	}

	res, err = form.Action(ctx, element("page-form"), req, pagePayload("DELETE", m.Page.ID, "/about-us", l.ID))
	if err != nil || res.Redirect.Message != "Page deleted successfully" {
		t.Fatalf("delete = %+v, %v", res.Redirect, err)
	}

	locked, err := f.pageSvc.Create(ctx, page.CreateInput{Title: "Root", URL: "/", LayoutID: l.ID, IsLocked: true})
	if err != nil {
		t.Fatal(err)
	}
	_, err = form.Action(ctx, element("page-form"), req, pagePayload("DELETE", locked.ID, "/", l.ID))
	if apperr.MessageOf(err, "") != "Cannot delete a locked page" {
		t.Errorf("locked delete error = %v", err)
	}
}

func TestPageForm_RenderAndData(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	home := f.layout(t, "Home")
	f.layout(t, "Blog")
	p := f.page(t, "/", "Home", page.FeatureAuth, home.ID)
	form := f.module(t, "page-form")

	html := render(t, form, element("page-form"), registry.Request{Params: map[string]string{"pageId": p.ID}})
	for _, want := range []string{"Edit Page", `value="/"`, `<option value="AUTH" selected>Auth</option>`, `<option value="` + home.ID + `" selected>Home</option>`} {
		if !strings.Contains(html, want) {
			t.Errorf("edit form missing %s", want)
		}
	}

	html = render(t, form, element("page-form"), registry.Request{})
	if !strings.Contains(html, "Create Page") || !strings.Contains(html, `name="isActive" checked`) {
		t.Error("new page form should default to active")
	}

	data, err := form.Data(ctx, element("page-form"), registry.Request{})
	if err != nil {
		t.Fatal(err)
	}
	fd := data.(modules.PageFormData)
	if len(fd.AllLayouts) != 2 || len(fd.Features) != 2 {
		t.Errorf("form data = %d layouts, %d features", len(fd.AllLayouts), len(fd.Features))
	}
}
