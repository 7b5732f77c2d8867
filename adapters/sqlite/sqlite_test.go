package sqlite_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/artpar/zacre/adapters/sqlite"
	"github.com/artpar/zacre/domain/layout"
	"github.com/artpar/zacre/domain/page"
	"github.com/artpar/zacre/domain/parameter"
	"github.com/artpar/zacre/pkg/envelope"
	"github.com/artpar/zacre/ports"
)

func setupTestDB(t *testing.T) (*sqlite.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp("", "zacre-test-*.db")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	path := f.Name()
	f.Close()

	db, err := sqlite.Open(path)
	if err != nil {
		os.Remove(path)
		t.Fatalf("open database: %v", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		os.Remove(path)
		t.Fatalf("migrate: %v", err)
	}

	cleanup := func() {
		db.Close()
		os.Remove(path)
		os.Remove(path + "-wal")
		os.Remove(path + "-shm")
	}

	return db, cleanup
}

func seedModule(t *testing.T, db *sqlite.DB, shortName string) layout.Module {
	t.Helper()
	m, err := sqlite.NewModuleStore(db).Upsert(context.Background(), layout.Module{
		ID:        "mod-" + shortName,
		ShortName: shortName,
		Name:      shortName,
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("upsert module: %v", err)
	}
	return m
}

func newLayout(id, title string) layout.Layout {
	now := time.Now()
	return layout.Layout{ID: id, Title: title, IsActive: true, CreatedAt: now, UpdatedAt: now}
}

func TestMigrate_Idempotent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	if err := db.Migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	versions, err := db.Versions()
	if err != nil {
		t.Fatalf("versions: %v", err)
	}
	if len(versions) != 1 || versions[0] != "001_initial" {
		t.Errorf("versions = %v, want [001_initial]", versions)
	}
}

// -----------------------------------------------------------------------------
// UserStore Tests
// -----------------------------------------------------------------------------

func TestUserStore_CreateAndGet(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewUserStore(db)
	ctx := context.Background()

	user := ports.User{
		ID:           "user-1",
		Email:        "admin@zacre.local",
		Name:         "Admin",
		Role:         "admin",
		PasswordHash: []byte("hash"),
	}
	if err := store.Create(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	got, err := store.GetByEmail(ctx, user.Email)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.ID != user.ID || got.Role != "admin" || string(got.PasswordHash) != "hash" {
		t.Errorf("got %+v", got)
	}

	if err := store.Create(ctx, user); !errors.Is(err, ports.ErrDuplicate) {
		t.Errorf("duplicate create err = %v, want ErrDuplicate", err)
	}
	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("get missing err = %v, want ErrNotFound", err)
	}
}

// -----------------------------------------------------------------------------
// ModuleStore Tests
// -----------------------------------------------------------------------------

func TestModuleStore_UpsertKeepsID(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewModuleStore(db)
	ctx := context.Background()

	first, err := store.Upsert(ctx, layout.Module{ID: "a", ShortName: "hero", Name: "Hero", CreatedAt: time.Now()})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	second, err := store.Upsert(ctx, layout.Module{ID: "b", ShortName: "hero", Name: "Hero banner", CreatedAt: time.Now()})
	if err != nil {
		t.Fatalf("upsert again: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("ID = %s, want %s", second.ID, first.ID)
	}
	if second.Name != "Hero banner" {
		t.Errorf("Name = %s, want Hero banner", second.Name)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("len(modules) = %d, want 1", len(all))
	}
}

// -----------------------------------------------------------------------------
// ParameterStore Tests
// -----------------------------------------------------------------------------

func TestParameterStore_CreateConfigIfAbsent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewParameterStore(db)
	ctx := context.Background()

	created, err := store.CreateConfig(ctx, parameter.KeyWebsiteName, "Zacre")
	if err != nil || !created {
		t.Fatalf("first create = %v, %v", created, err)
	}
	created, err = store.CreateConfig(ctx, parameter.KeyWebsiteName, "Other")
	if err != nil || created {
		t.Fatalf("second create = %v, %v", created, err)
	}

	got, err := store.GetConfig(ctx, parameter.KeyWebsiteName)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Value != "Zacre" {
		t.Errorf("Value = %q, want Zacre", got.Value)
	}

	if err := store.PutConfig(ctx, parameter.KeyWebsiteName, "Renamed"); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, _ = store.GetConfig(ctx, parameter.KeyWebsiteName)
	if got.Value != "Renamed" {
		t.Errorf("Value after put = %q, want Renamed", got.Value)
	}

	if _, err := store.GetConfig(ctx, "website.missing"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("missing err = %v, want ErrNotFound", err)
	}
}

func TestParameterStore_DeclareType(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewParameterStore(db)
	ctx := context.Background()

	typ := parameter.Type{
		Key:          "hero.viewType",
		ValueType:    parameter.TypeString,
		IsSelect:     true,
		SelectValues: []string{"default", "centered"},
	}
	if err := store.DeclareType(ctx, typ); err != nil {
		t.Fatalf("declare: %v", err)
	}
	typ.IsRequired = true
	if err := store.DeclareType(ctx, typ); err != nil {
		t.Fatalf("declare again: %v", err)
	}

	types, err := store.ListTypes(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(types) != 1 {
		t.Fatalf("len(types) = %d, want 1", len(types))
	}
	if types[0].IsRequired {
		t.Error("existing declaration should be kept")
	}
	if len(types[0].SelectValues) != 2 || types[0].SelectValues[1] != "centered" {
		t.Errorf("SelectValues = %v", types[0].SelectValues)
	}
}

// -----------------------------------------------------------------------------
// LayoutStore Tests
// -----------------------------------------------------------------------------

func TestLayoutStore_CreateAndGet(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	hero := seedModule(t, db, "hero")
	navbar := seedModule(t, db, "navbar")
	store := sqlite.NewLayoutStore(db)
	ctx := context.Background()

	instances := []layout.NewInstance{
		{ID: "el-1", ModuleID: navbar.ID, X: 0, Y: 0},
		{ID: "el-2", ModuleID: hero.ID, X: 0, Y: 1, Parameters: []layout.InstanceParameter{
			{Key: "hero.title", Value: "Welcome"},
			{Key: "hero.description", Value: ""},
		}},
	}
	if err := store.Create(ctx, newLayout("l-1", "Home"), instances); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.Get(ctx, "l-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Modules) != 2 {
		t.Fatalf("len(Modules) = %d, want 2", len(got.Modules))
	}
	if got.Modules[0].ShortName != "navbar" || got.Modules[1].ShortName != "hero" {
		t.Errorf("modules = %s, %s", got.Modules[0].ShortName, got.Modules[1].ShortName)
	}
	heroEl := got.Modules[1]
	if heroEl.Y != 1 || len(heroEl.Parameters) != 2 || heroEl.Parameters[0].Value != "Welcome" {
		t.Errorf("hero instance = %+v", heroEl)
	}

	found, err := store.FindByTitle(ctx, "Home", "")
	if err != nil || found.ID != "l-1" {
		t.Errorf("FindByTitle = %v, %v", found.ID, err)
	}
}

func TestLayoutStore_UpdateReplacesInstances(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	hero := seedModule(t, db, "hero")
	footer := seedModule(t, db, "footer")
	store := sqlite.NewLayoutStore(db)
	ctx := context.Background()

	l := newLayout("l-1", "Home")
	if err := store.Create(ctx, l, []layout.NewInstance{{ID: "el-1", ModuleID: hero.ID}}); err != nil {
		t.Fatalf("create: %v", err)
	}

	l.Title = "Landing"
	if err := store.Update(ctx, l, []layout.NewInstance{{ID: "el-2", ModuleID: footer.ID, Y: 3}}); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, _ := store.Get(ctx, "l-1")
	if got.Title != "Landing" {
		t.Errorf("Title = %s, want Landing", got.Title)
	}
	if len(got.Modules) != 1 || got.Modules[0].ID != "el-2" {
		t.Errorf("Modules = %+v", got.Modules)
	}
}

func TestLayoutStore_UpdateRollsBack(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	hero := seedModule(t, db, "hero")
	store := sqlite.NewLayoutStore(db)
	ctx := context.Background()

	l := newLayout("l-1", "Home")
	original := []layout.NewInstance{{ID: "el-1", ModuleID: hero.ID, Parameters: []layout.InstanceParameter{
		{Key: "hero.title", Value: "Welcome"},
	}}}
	if err := store.Create(ctx, l, original); err != nil {
		t.Fatalf("create: %v", err)
	}

	l.Title = "Broken"
	err := store.Update(ctx, l, []layout.NewInstance{
		{ID: "el-2", ModuleID: hero.ID},
		{ID: "el-3", ModuleID: "no-such-module"},
	})
	if err == nil {
		t.Fatal("expected update to fail on unknown module")
	}

	got, _ := store.Get(ctx, "l-1")
	if got.Title != "Home" {
		t.Errorf("Title = %s, want Home", got.Title)
	}
	if len(got.Modules) != 1 || got.Modules[0].ID != "el-1" {
		t.Fatalf("Modules = %+v, want the original instance", got.Modules)
	}
	if len(got.Modules[0].Parameters) != 1 || got.Modules[0].Parameters[0].Value != "Welcome" {
		t.Errorf("Parameters = %+v", got.Modules[0].Parameters)
	}
}

func TestLayoutStore_UpdateMissing(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	err := sqlite.NewLayoutStore(db).Update(context.Background(), newLayout("nope", "x"), nil)
	if !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestLayoutStore_DeleteCascades(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	hero := seedModule(t, db, "hero")
	store := sqlite.NewLayoutStore(db)
	ctx := context.Background()

	instances := []layout.NewInstance{{ID: "el-1", ModuleID: hero.ID, Parameters: []layout.InstanceParameter{{Key: "hero.title", Value: "x"}}}}
	if err := store.Create(ctx, newLayout("l-1", "Home"), instances); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Delete(ctx, "l-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	left, err := store.GetInstances(ctx, []string{"el-1"})
	if err != nil {
		t.Fatalf("get instances: %v", err)
	}
	if len(left) != 0 {
		t.Errorf("instances left = %d, want 0", len(left))
	}
	var params int
	db.QueryRow("SELECT COUNT(*) FROM layout_module_parameters").Scan(&params)
	if params != 0 {
		t.Errorf("parameters left = %d, want 0", params)
	}

	if err := store.Delete(ctx, "l-1"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestLayoutStore_ListPagination(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewLayoutStore(db)
	ctx := context.Background()

	for i := 1; i <= 25; i++ {
		if err := store.Create(ctx, newLayout(fmt.Sprintf("l-%02d", i), fmt.Sprintf("Layout %02d", i)), nil); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	params := envelope.Params{Page: 2, Limit: 10, Order: envelope.Order{Field: "title"}}
	items, total, err := store.List(ctx, layout.Filter{}, params)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 25 {
		t.Errorf("total = %d, want 25", total)
	}
	if len(items) != 10 {
		t.Fatalf("len(items) = %d, want 10", len(items))
	}
	if items[0].Title != "Layout 11" || items[9].Title != "Layout 20" {
		t.Errorf("items span %s..%s, want Layout 11..Layout 20", items[0].Title, items[9].Title)
	}
}

func TestLayoutStore_ListFilters(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	hero := seedModule(t, db, "hero")
	footer := seedModule(t, db, "footer")
	store := sqlite.NewLayoutStore(db)
	ctx := context.Background()

	store.Create(ctx, newLayout("l-1", "Home"), []layout.NewInstance{{ID: "e1", ModuleID: hero.ID}})
	store.Create(ctx, newLayout("l-2", "About"), []layout.NewInstance{{ID: "e2", ModuleID: footer.ID}})
	inactive := newLayout("l-3", "Draft home")
	inactive.IsActive = false
	store.Create(ctx, inactive, nil)

	tests := []struct {
		name   string
		filter layout.Filter
		want   int
	}{
		{"all", layout.Filter{}, 3},
		{"by module", layout.Filter{Modules: []string{"hero"}}, 1},
		{"by any module", layout.Filter{Modules: []string{"hero", "footer"}}, 2},
		{"title contains", layout.Filter{Title: "ome"}, 2},
		{"inactive", layout.Filter{IsActive: ptr(false)}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, total, err := store.List(ctx, tt.filter, envelope.Params{})
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if total != int64(tt.want) {
				t.Errorf("total = %d, want %d", total, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// PageStore Tests
// -----------------------------------------------------------------------------

func newPage(id, url, layoutID string) page.Page {
	now := time.Now()
	return page.Page{ID: id, Title: id, URL: url, LayoutID: layoutID, IsActive: true, CreatedAt: now, UpdatedAt: now}
}

func TestPageStore_CRUD(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	layouts := sqlite.NewLayoutStore(db)
	store := sqlite.NewPageStore(db)
	ctx := context.Background()

	if err := layouts.Create(ctx, newLayout("l-1", "Home"), nil); err != nil {
		t.Fatalf("create layout: %v", err)
	}

	p := newPage("p-1", "/", "l-1")
	p.AssignedFeature = page.FeatureAuth
	if err := store.Create(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Create(ctx, newPage("p-2", "/", "l-1")); !errors.Is(err, ports.ErrDuplicate) {
		t.Errorf("duplicate url err = %v, want ErrDuplicate", err)
	}

	got, err := store.GetByURL(ctx, "/")
	if err != nil {
		t.Fatalf("get by url: %v", err)
	}
	if got.ID != "p-1" || got.AssignedFeature != page.FeatureAuth {
		t.Errorf("got %+v", got)
	}

	got.Title = "Home page"
	got.IsLocked = true
	if err := store.Update(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = store.Get(ctx, "p-1")
	if got.Title != "Home page" || !got.IsLocked {
		t.Errorf("after update %+v", got)
	}

	n, err := store.CountByLayout(ctx, "l-1")
	if err != nil || n != 1 {
		t.Errorf("CountByLayout = %d, %v", n, err)
	}

	if err := store.Delete(ctx, "p-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "p-1"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("get deleted err = %v, want ErrNotFound", err)
	}
}

func TestPageStore_ListActiveAndFilter(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	layouts := sqlite.NewLayoutStore(db)
	store := sqlite.NewPageStore(db)
	ctx := context.Background()

	layouts.Create(ctx, newLayout("l-1", "Home"), nil)
	layouts.Create(ctx, newLayout("l-2", "Admin"), nil)

	store.Create(ctx, newPage("p-1", "/", "l-1"))
	admin := newPage("p-2", "/admin", "l-2")
	admin.Role = "admin"
	store.Create(ctx, admin)
	hidden := newPage("p-3", "/hidden", "l-1")
	hidden.IsActive = false
	store.Create(ctx, hidden)

	active, err := store.ListActive(ctx)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 2 {
		t.Errorf("len(active) = %d, want 2", len(active))
	}

	items, total, err := store.List(ctx, page.Filter{LayoutID: "l-1"}, envelope.Params{Order: envelope.Order{Field: "url"}})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || items[0].URL != "/" || items[1].URL != "/hidden" {
		t.Errorf("list = %d items, total %d", len(items), total)
	}

	_, total, _ = store.List(ctx, page.Filter{Role: "admin"}, envelope.Params{})
	if total != 1 {
		t.Errorf("role filter total = %d, want 1", total)
	}
}

func ptr[T any](v T) *T { return &v }
