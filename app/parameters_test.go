package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/artpar/zacre/core/registry"
	"github.com/artpar/zacre/domain/apperr"
	"github.com/artpar/zacre/domain/layout"
	"github.com/artpar/zacre/domain/parameter"
)

func TestParameterService_CachesConfig(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	if _, err := e.parameters.SetConfig(ctx, "website.name", "Zacre"); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		v, err := e.parameters.GetConfig(ctx, "website.name")
		if err != nil || v != "Zacre" {
			t.Fatalf("GetConfig() = %q, %v", v, err)
		}
	}
	if n := e.params.Reads(); n != 1 {
		t.Errorf("store reads = %d, want 1", n)
	}

	e.clock.Advance(24 * time.Hour)
	if _, err := e.parameters.GetConfig(ctx, "website.name"); err != nil {
		t.Fatal(err)
	}
	if n := e.params.Reads(); n != 2 {
		t.Errorf("store reads after expiry = %d, want 2", n)
	}
}

func TestParameterService_SetConfigIsCreateIfAbsent(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	created, err := e.parameters.SetConfig(ctx, "website.theme", "light")
	if err != nil || !created {
		t.Fatalf("SetConfig() = %v, %v", created, err)
	}
	if _, err := e.parameters.GetConfig(ctx, "website.theme"); err != nil {
		t.Fatal(err)
	}

	created, err = e.parameters.SetConfig(ctx, "website.theme", "dark")
	if err != nil || created {
		t.Fatalf("second SetConfig() = %v, %v; want not created", created, err)
	}
	if v, _ := e.parameters.GetConfig(ctx, "website.theme"); v != "light" {
		t.Errorf("value = %q, want existing light", v)
	}
	if n := e.params.Reads(); n != 2 {
		t.Errorf("store reads = %d, want 2 (cache invalidated by SetConfig)", n)
	}

	if err := e.parameters.UpdateConfig(ctx, "website.theme", "dark"); err != nil {
		t.Fatal(err)
	}
	if v, _ := e.parameters.GetConfig(ctx, "website.theme"); v != "dark" {
		t.Errorf("value after UpdateConfig = %q, want dark", v)
	}
}

func TestParameterService_MissingConfig(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	if _, err := e.parameters.GetConfig(ctx, "nope"); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("GetConfig() error = %v, want not found", err)
	}

	got, err := e.parameters.GetConfigs(ctx, "nope", "website.name")
	if err != nil {
		t.Fatalf("GetConfigs() error = %v", err)
	}
	if got["nope"] != "" || len(got) != 2 {
		t.Errorf("GetConfigs() = %v", got)
	}
}

func TestParameterService_ResolveInstanceParameters(t *testing.T) {
	e := newTestEnv(t)

	got := e.parameters.ResolveInstanceParameters(layout.Instance{
		ShortName: "hero",
		Parameters: []layout.InstanceParameter{
			{Key: "hero.title", Value: "Hi\x00"},
			{Key: "flat", Value: "kept"},
		},
	})
	if got.Get("title") != "Hi" || got.Get("flat") != "kept" {
		t.Errorf("resolved = %v", got)
	}
}

func TestParameterService_DeclareParameterTypes(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	mods := []registry.Descriptor{{
		ShortName: "hero",
		Parameters: []registry.ParamSpec{
			{Key: "title", Required: true},
			{Key: "viewType", SelectValues: []string{"centered", "split"}},
		},
	}}
	if err := e.parameters.DeclareParameterTypes(ctx, mods); err != nil {
		t.Fatal(err)
	}
	// Declaring again keeps the rows.
	mods[0].Parameters[0].Required = false
	if err := e.parameters.DeclareParameterTypes(ctx, mods); err != nil {
		t.Fatal(err)
	}

	types, err := e.parameters.ListParameterTypes(ctx)
	if err != nil {
		t.Fatal(err)
	}
	byKey := map[string]parameter.Type{}
	for _, ty := range types {
		byKey[ty.Key] = ty
	}
	if ty := byKey["hero.title"]; !ty.IsRequired || ty.ValueType != parameter.TypeString {
		t.Errorf("hero.title = %+v", ty)
	}
	if ty := byKey["hero.viewType"]; !ty.IsSelect || len(ty.SelectValues) != 2 {
		t.Errorf("hero.viewType = %+v", ty)
	}
}
