// Package layout provides value types for layouts and their module instances.
package layout

import (
	"time"

	"github.com/artpar/zacre/domain/parameter"
)

// Layout is a grid of module instances reusable across pages.
type Layout struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	IsActive    bool       `json:"isActive"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	Modules     []Instance `json:"modules"`
	PageCount   int        `json:"pageCount"`
}

// Instance is one placement of a module inside a layout.
type Instance struct {
	ID         string              `json:"id"`
	LayoutID   string              `json:"layoutId"`
	ModuleID   string              `json:"moduleId"`
	ShortName  string              `json:"shortName"`
	ModuleName string              `json:"moduleName"`
	X          int                 `json:"x"`
	Y          int                 `json:"y"`
	Parameters []InstanceParameter `json:"parameters"`
}

// InstanceParameter is a fully-qualified key/value scoped to an instance.
type InstanceParameter struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Rows converts the stored parameters to resolution input.
func (i Instance) Rows() []parameter.Row {
	rows := make([]parameter.Row, len(i.Parameters))
	for n, p := range i.Parameters {
		rows[n] = parameter.Row{Key: p.Key, Value: p.Value}
	}
	return rows
}

// Module is a registered module row.
type Module struct {
	ID          string    `json:"id"`
	ShortName   string    `json:"shortName"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ParamInput is a requested parameter. A nil Value means "undefined".
type ParamInput struct {
	Key   string  `json:"key"`
	Value *string `json:"value,omitempty"`
}

// ModuleInput requests one instance; the module is referenced by
// ShortName or ModuleID.
type ModuleInput struct {
	ShortName string       `json:"shortName,omitempty"`
	ModuleID  string       `json:"moduleId,omitempty"`
	X         *int         `json:"x,omitempty"`
	Y         *int         `json:"y,omitempty"`
	Params    []ParamInput `json:"params"`
}

// CreateInput is the request to compose a new layout.
type CreateInput struct {
	Title       string        `json:"title"`
	Description *string       `json:"description,omitempty"`
	IsActive    bool          `json:"isActive"`
	Modules     []ModuleInput `json:"modules"`
}

// UpdateInput replaces the module set; nil fields keep their value.
type UpdateInput struct {
	Title       *string       `json:"title,omitempty"`
	Description *string       `json:"description,omitempty"`
	IsActive    *bool         `json:"isActive,omitempty"`
	Modules     []ModuleInput `json:"modules"`
}

// NewInstance is a resolved instance ready to persist.
type NewInstance struct {
	ID         string
	ModuleID   string
	X          int
	Y          int
	Parameters []InstanceParameter
}

// Filter narrows layout listings. Empty fields match everything.
type Filter struct {
	ID          string
	Title       string
	Description string
	IsActive    *bool
	Modules     []string // module short names; a layout matches if it holds any
}

// SortFields lists the fields layouts may be ordered by.
var SortFields = []string{"createdAt", "updatedAt", "title"}

// DedupParams drops undefined values and keeps the last value per key.
// First-seen key order is preserved.
func DedupParams(params []ParamInput) []ParamInput {
	idx := make(map[string]int, len(params))
	out := make([]ParamInput, 0, len(params))
	for _, p := range params {
		if p.Value == nil {
			continue
		}
		if i, ok := idx[p.Key]; ok {
			out[i] = p
			continue
		}
		idx[p.Key] = len(out)
		out = append(out, p)
	}
	return out
}
