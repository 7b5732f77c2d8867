package validation

import (
	"strings"
	"testing"

	"github.com/artpar/zacre/core/schema"
)

var layoutForm = []schema.Field{
	schema.String("layoutId"),
	schema.Required(schema.String("title", schema.NotEmpty())),
	schema.Required(schema.String("description")),
	schema.Bool("isActive"),
	schema.Required(schema.Enum("method", "CREATE", "UPDATE", "DELETE")),
	schema.Array("modules", schema.Object("",
		schema.String("shortName"),
		schema.Int("x"),
		schema.Int("y"),
		schema.Array("params", schema.Object("",
			schema.Required(schema.String("key")),
			schema.String("value"),
		)),
	)),
}

func TestValidate_Valid(t *testing.T) {
	payload := map[string]any{
		"title":       "Home",
		"description": "",
		"method":      "CREATE",
		"isActive":    true,
		"modules": []any{
			map[string]any{"shortName": "hero", "x": float64(0), "y": float64(1), "params": []any{
				map[string]any{"key": "title", "value": "Hi"},
			}},
		},
	}

	result := Validator{}.Validate(layoutForm, payload)
	if !result.Valid {
		t.Errorf("expected valid, got %s", result.Error())
	}
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name      string
		payload   map[string]any
		wantField string
		wantRule  string
	}{
		{
			name:      "missing required",
			payload:   map[string]any{"description": "", "method": "CREATE"},
			wantField: "title",
			wantRule:  "required",
		},
		{
			name:      "null is missing",
			payload:   map[string]any{"title": nil, "description": "", "method": "CREATE"},
			wantField: "title",
			wantRule:  "required",
		},
		{
			name:      "blank title",
			payload:   map[string]any{"title": "  ", "description": "", "method": "CREATE"},
			wantField: "title",
			wantRule:  "not_empty",
		},
		{
			name:      "bad enum",
			payload:   map[string]any{"title": "x", "description": "", "method": "PATCH"},
			wantField: "method",
			wantRule:  "enum",
		},
		{
			name:      "wrong type",
			payload:   map[string]any{"title": "x", "description": "", "method": "CREATE", "isActive": "yes"},
			wantField: "isActive",
			wantRule:  "type",
		},
		{
			name: "fractional coordinate",
			payload: map[string]any{"title": "x", "description": "", "method": "CREATE", "modules": []any{
				map[string]any{"x": 1.5},
			}},
			wantField: "modules[0].x",
			wantRule:  "type",
		},
		{
			name: "nested required",
			payload: map[string]any{"title": "x", "description": "", "method": "CREATE", "modules": []any{
				map[string]any{"params": []any{map[string]any{"value": "v"}}},
			}},
			wantField: "modules[0].params[0].key",
			wantRule:  "required",
		},
		{
			name:      "array expected",
			payload:   map[string]any{"title": "x", "description": "", "method": "CREATE", "modules": "hero"},
			wantField: "modules",
			wantRule:  "type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validator{}.Validate(layoutForm, tt.payload)
			if result.Valid {
				t.Fatal("expected invalid")
			}
			var found bool
			for _, e := range result.Errors {
				if e.Field == tt.wantField && e.Constraint == tt.wantRule {
					found = true
				}
			}
			if !found {
				t.Errorf("errors = %v, want %s/%s", result.Errors, tt.wantField, tt.wantRule)
			}
		})
	}
}

func TestValidate_UnknownFields(t *testing.T) {
	payload := map[string]any{"title": "x", "description": "", "method": "DELETE", "extra": 1}

	if r := (Validator{}).Validate(layoutForm, payload); !r.Valid {
		t.Errorf("lenient validator rejected extra key: %s", r.Error())
	}

	r := Validator{Strict: true}.Validate(layoutForm, payload)
	if r.Valid || r.Errors[0].Constraint != "unknown_field" {
		t.Errorf("strict validator result = %+v", r)
	}
}

func TestValidationResult_Error(t *testing.T) {
	r := Validator{}.Validate(layoutForm, map[string]any{})
	msg := r.Error()
	for _, want := range []string{"title: field is required", "method: field is required"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
}

func TestValidate_Constraints(t *testing.T) {
	fields := []schema.Field{
		schema.String("url", schema.Pattern("^/", "URL must start with /")),
		schema.String("code", schema.MinLength(2), schema.MaxLength(3)),
	}

	r := Validator{}.Validate(fields, map[string]any{"url": "about", "code": "abcd"})
	if len(r.Errors) != 2 {
		t.Fatalf("errors = %v, want 2", r.Errors)
	}
	if r.Errors[0].Message != "URL must start with /" {
		t.Errorf("message = %q", r.Errors[0].Message)
	}
}
