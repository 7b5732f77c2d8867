// Package formatter renders command output as a table, JSON or YAML.
package formatter

import (
	"fmt"
	"io"
	"sort"
	"sync"
)

// Formatter converts listing data to a specific output format.
type Formatter interface {
	// Name returns the formatter name (e.g., "table", "json", "yaml").
	Name() string

	// Description returns a human-readable description.
	Description() string

	// FormatList formats a list of records.
	FormatList(w io.Writer, list List, opts FormatOptions) error

	// FormatError formats an error.
	FormatError(w io.Writer, err error) error
}

// List is a named set of records sharing the same columns.
type List struct {
	// Kind names the records, e.g. "pages".
	Kind string

	// Columns are the record keys in display order.
	Columns []string

	Records []map[string]any
}

// FormatOptions configures formatting behavior.
type FormatOptions struct {
	// Columns restricts output to these keys (nil = all list columns).
	Columns []string

	// NoHeader disables header row for tabular formats.
	NoHeader bool

	// Compact minimizes whitespace (for json).
	Compact bool

	// MaxWidth truncates long values (0 = no limit).
	MaxWidth int
}

// columns returns the keys to print for list.
func (o FormatOptions) columns(list List) []string {
	if len(o.Columns) > 0 {
		return o.Columns
	}
	return list.Columns
}

// project keeps only cols of each record.
func project(records []map[string]any, cols []string) []map[string]any {
	out := make([]map[string]any, len(records))
	for i, r := range records {
		m := make(map[string]any, len(cols))
		for _, c := range cols {
			if v, ok := r[c]; ok {
				m[c] = v
			}
		}
		out[i] = m
	}
	return out
}

// Registry manages registered formatters.
type Registry struct {
	mu         sync.RWMutex
	formatters map[string]Formatter
	defaultFmt string
}

// NewRegistry creates a registry holding the table, json and yaml
// formatters with table as the default.
func NewRegistry() *Registry {
	r := &Registry{
		formatters: make(map[string]Formatter),
		defaultFmt: "table",
	}
	r.formatters["table"] = NewTableFormatter()
	r.formatters["json"] = NewJSONFormatter()
	r.formatters["yaml"] = NewYAMLFormatter()
	return r
}

// Register adds a formatter to the registry.
func (r *Registry) Register(f Formatter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.formatters[f.Name()]; exists {
		return fmt.Errorf("formatter %q already registered", f.Name())
	}

	r.formatters[f.Name()] = f
	return nil
}

// Get returns a formatter by name. An empty name selects the default.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" {
		name = r.defaultFmt
	}
	f, ok := r.formatters[name]
	if !ok {
		return nil, fmt.Errorf("unknown output format %q (available: %v)", name, r.namesLocked())
	}
	return f, nil
}

// List returns all registered formatter names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.formatters))
	for name := range r.formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
