package schema

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"
)

// ConstraintType identifies the type of constraint.
type ConstraintType string

// String constraints. Non-string values pass every constraint; the field
// type check rejects them first.
const (
	ConstraintMinLength ConstraintType = "min_length"
	ConstraintMaxLength ConstraintType = "max_length"
	ConstraintPattern   ConstraintType = "pattern"
	ConstraintNotEmpty  ConstraintType = "not_empty"
)

// Constraint is an extra rule applied to a string field.
type Constraint struct {
	Type    ConstraintType
	Length  int    // min_length, max_length
	Pattern string // pattern
	Message string // overrides the default message
}

// MinLength requires at least n characters.
func MinLength(n int) Constraint { return Constraint{Type: ConstraintMinLength, Length: n} }

// MaxLength allows at most n characters.
func MaxLength(n int) Constraint { return Constraint{Type: ConstraintMaxLength, Length: n} }

// NotEmpty rejects blank strings.
func NotEmpty() Constraint { return Constraint{Type: ConstraintNotEmpty} }

// Pattern requires a regular expression match. An invalid expression
// never matches.
func Pattern(re, msg string) Constraint {
	return Constraint{Type: ConstraintPattern, Pattern: re, Message: msg}
}

// ConstraintError represents a validation failure.
type ConstraintError struct {
	Field      string `json:"field"`
	Constraint string `json:"constraint"`
	Value      any    `json:"value,omitempty"`
	Message    string `json:"message"`
}

func (e ConstraintError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationResult holds all validation errors for a request.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ConstraintError `json:"errors,omitempty"`
}

// AddError adds a validation error.
func (r *ValidationResult) AddError(field, constraint string, value any, message string) {
	r.Valid = false
	r.Errors = append(r.Errors, ConstraintError{
		Field:      field,
		Constraint: constraint,
		Value:      value,
		Message:    message,
	})
}

// Error joins the field errors with "; ".
func (r ValidationResult) Error() string {
	if r.Valid {
		return ""
	}
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

var patterns sync.Map // string -> *regexp.Regexp, nil when invalid

func compiled(expr string) *regexp.Regexp {
	if re, ok := patterns.Load(expr); ok {
		return re.(*regexp.Regexp)
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		re = nil
	}
	patterns.Store(expr, re)
	return re
}

// ValidateConstraint checks value against one constraint.
func ValidateConstraint(field string, value any, c Constraint) *ConstraintError {
	str, ok := value.(string)
	if !ok {
		return nil
	}

	fail := func(got any, msg string) *ConstraintError {
		if c.Message != "" {
			msg = c.Message
		}
		return &ConstraintError{Field: field, Constraint: string(c.Type), Value: got, Message: msg}
	}

	switch c.Type {
	case ConstraintMinLength:
		if n := utf8.RuneCountInString(str); n < c.Length {
			return fail(n, fmt.Sprintf("must be at least %d characters", c.Length))
		}
	case ConstraintMaxLength:
		if n := utf8.RuneCountInString(str); n > c.Length {
			return fail(n, fmt.Sprintf("must be at most %d characters", c.Length))
		}
	case ConstraintNotEmpty:
		if strings.TrimSpace(str) == "" {
			return fail(str, "must not be empty")
		}
	case ConstraintPattern:
		if re := compiled(c.Pattern); re == nil || !re.MatchString(str) {
			return fail(str, fmt.Sprintf("must match pattern %s", c.Pattern))
		}
	}
	return nil
}
