// Package validation checks decoded JSON payloads against ordered
// schema fields before a module action runs.
package validation

import (
	"fmt"
	"math"
	"net/mail"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/artpar/zacre/core/schema"
)

var uuidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// Validator validates payloads against schema fields.
// In strict mode keys missing from the schema are rejected; otherwise
// they are ignored.
type Validator struct {
	Strict bool
}

// Validate checks payload against fields and collects every failure.
// Nested failures are reported with paths like "modules[0].x".
func (v Validator) Validate(fields []schema.Field, payload map[string]any) schema.ValidationResult {
	result := schema.ValidationResult{Valid: true}
	v.object(&result, "", fields, payload)
	return result
}

func (v Validator) object(result *schema.ValidationResult, prefix string, fields []schema.Field, data map[string]any) {
	if v.Strict {
		known := make(map[string]bool, len(fields))
		for _, f := range fields {
			known[f.Name] = true
		}
		for name := range data {
			if !known[name] {
				result.AddError(join(prefix, name), "unknown_field", name,
					fmt.Sprintf("unknown field '%s' - not defined in schema", name))
			}
		}
	}

	for _, f := range fields {
		path := join(prefix, f.Name)
		value, ok := data[f.Name]
		if !ok || value == nil {
			if f.Required {
				result.AddError(path, "required", nil, "field is required")
			}
			continue
		}
		v.field(result, path, f, value)
	}
}

func (v Validator) field(result *schema.ValidationResult, path string, f schema.Field, value any) {
	if !checkType(result, path, f, value) {
		return
	}

	switch f.Type {
	case schema.FieldTypeObject:
		v.object(result, path, f.Fields, value.(map[string]any))
	case schema.FieldTypeArray:
		if f.Items != nil {
			for i, item := range value.([]any) {
				itemPath := fmt.Sprintf("%s[%d]", path, i)
				if item == nil {
					if f.Items.Required {
						result.AddError(itemPath, "required", nil, "field is required")
					}
					continue
				}
				v.field(result, itemPath, *f.Items, item)
			}
		}
	}

	for _, c := range f.Constraints {
		if err := schema.ValidateConstraint(path, value, c); err != nil {
			result.Errors = append(result.Errors, *err)
			result.Valid = false
		}
	}
}

// checkType reports whether value has the field's type, recording an
// error when it does not.
func checkType(result *schema.ValidationResult, path string, f schema.Field, value any) bool {
	fail := func(msg string) bool {
		result.AddError(path, "type", value, msg)
		return false
	}

	switch f.Type {
	case schema.FieldTypeString:
		if _, ok := value.(string); !ok {
			return fail("must be a string")
		}
	case schema.FieldTypeEmail:
		str, ok := value.(string)
		if !ok {
			return fail("must be a string")
		}
		if _, err := mail.ParseAddress(str); err != nil {
			return fail("invalid email address")
		}
	case schema.FieldTypeURL:
		str, ok := value.(string)
		if !ok {
			return fail("must be a string")
		}
		if _, err := url.ParseRequestURI(str); err != nil {
			return fail("invalid URL")
		}
	case schema.FieldTypeUUID:
		str, ok := value.(string)
		if !ok || !uuidPattern.MatchString(str) {
			return fail("invalid UUID format")
		}
	case schema.FieldTypeEnum:
		str, ok := value.(string)
		if !ok || !contains(f.Values, str) {
			result.AddError(path, "enum", value, fmt.Sprintf("must be one of: %s", strings.Join(f.Values, ", ")))
			return false
		}
	case schema.FieldTypeInt:
		if !isInteger(value) {
			return fail("must be an integer")
		}
	case schema.FieldTypeFloat:
		if !isNumber(value) {
			return fail("must be a number")
		}
	case schema.FieldTypeBool:
		if _, ok := value.(bool); !ok {
			return fail("must be a boolean")
		}
	case schema.FieldTypeObject:
		if _, ok := value.(map[string]any); !ok {
			return fail("must be an object")
		}
	case schema.FieldTypeArray:
		if _, ok := value.([]any); !ok {
			return fail("must be an array")
		}
	}
	return true
}

func isInteger(value any) bool {
	switch n := value.(type) {
	case int, int32, int64:
		return true
	case float64:
		return n == math.Trunc(n) && !math.IsInf(n, 0)
	case string:
		_, err := strconv.Atoi(n)
		return err == nil
	}
	return false
}

func isNumber(value any) bool {
	switch n := value.(type) {
	case int, int32, int64, float32, float64:
		return true
	case string:
		_, err := strconv.ParseFloat(n, 64)
		return err == nil
	}
	return false
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
