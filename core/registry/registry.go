// Package registry holds the module descriptors known to the process.
// Descriptors are registered once at startup and looked up by short
// name at render and dispatch time.
package registry

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"sync"

	"github.com/artpar/zacre/core/schema"
	"github.com/artpar/zacre/domain/apperr"
	"github.com/artpar/zacre/domain/parameter"
	"github.com/artpar/zacre/ports"
)

// ErrCapability is returned when a module lacks the requested capability.
var ErrCapability = apperr.NotFound("Module capability not found")

// ErrFrozen is returned by Register after Freeze.
var ErrFrozen = errors.New("registry is frozen")

// Element is one placed module instance with its resolved parameters.
type Element struct {
	ID         string
	LayoutID   string
	ShortName  string
	X, Y       int
	Parameters parameter.Values
}

// Request is the request context handed to module capabilities.
type Request struct {
	Params map[string]string // path parameters of the serving page
	Query  url.Values
	User   *ports.Session
	Path   string
}

// Param returns a path parameter or "".
func (r Request) Param(name string) string {
	return r.Params[name]
}

// Redirect instructs the client to navigate after showing Message.
type Redirect struct {
	URL     string
	Message string
}

// ActionResult is either a redirect directive or a value returned to
// the caller as-is.
type ActionResult struct {
	Redirect *Redirect
	Value    any
}

// Capability signatures.
type (
	LoaderFunc func(el Element, req Request) (template.HTML, error)
	RenderFunc func(ctx context.Context, el Element, req Request) (template.HTML, error)
	DataFunc   func(ctx context.Context, el Element, req Request) (any, error)
	ActionFunc func(ctx context.Context, el Element, req Request, payload map[string]any) (ActionResult, error)
)

// ParamSpec declares one parameter a module accepts.
type ParamSpec struct {
	Key          string
	Type         parameter.ValueType
	Required     bool
	SelectValues []string
}

// Descriptor is an immutable module definition.
type Descriptor struct {
	ShortName   string
	Name        string
	Description string
	Parameters  []ParamSpec

	// Loader runs synchronously during assembly without data access.
	Loader LoaderFunc
	// Render produces the full fragment.
	Render RenderFunc
	// Data serves client-side data requests.
	Data DataFunc
	// Action handles form submissions.
	Action ActionFunc
	// ActionSchema, when set, gates Action.
	ActionSchema []schema.Field
}

// Swappable reports whether assembly emits loader output that the client
// may swap. The client keeps the loader when no render is served.
func (d Descriptor) Swappable() bool {
	return d.Loader != nil
}

// Renderable reports whether assembly can produce a fragment.
func (d Descriptor) Renderable() bool {
	return d.Loader != nil || d.Render != nil
}

// ParameterTypes returns the declared parameters keyed "<shortName>.<key>".
func (d Descriptor) ParameterTypes() []parameter.Type {
	out := make([]parameter.Type, len(d.Parameters))
	for i, p := range d.Parameters {
		vt := p.Type
		if vt == "" {
			vt = parameter.TypeString
		}
		out[i] = parameter.Type{
			Key:          parameter.Qualify(d.ShortName, p.Key),
			ValueType:    vt,
			IsRequired:   p.Required,
			IsSelect:     len(p.SelectValues) > 0,
			SelectValues: p.SelectValues,
		}
	}
	return out
}

// Registry is an ordered, append-only set of descriptors.
type Registry struct {
	mu     sync.RWMutex
	mods   []Descriptor
	frozen bool
}

// New creates a registry holding mods, in order.
func New(mods ...Descriptor) (*Registry, error) {
	r := &Registry{}
	for _, d := range mods {
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register appends a descriptor. Short names must be non-empty and unique.
func (r *Registry) Register(d Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return ErrFrozen
	}
	if d.ShortName == "" {
		return errors.New("module short name is required")
	}
	for _, m := range r.mods {
		if m.ShortName == d.ShortName {
			return fmt.Errorf("module %q already registered", d.ShortName)
		}
	}
	r.mods = append(r.mods, d)
	return nil
}

// Freeze rejects further registration.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Lookup finds a descriptor by exact, case-sensitive short name.
func (r *Registry) Lookup(shortName string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.mods {
		if m.ShortName == shortName {
			return m, true
		}
	}
	return Descriptor{}, false
}

// All returns the descriptors in registration order.
func (r *Registry) All() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, len(r.mods))
	copy(out, r.mods)
	return out
}
