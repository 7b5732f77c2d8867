// Package page provides value types for pages and URL matching.
package page

import (
	"strings"
	"time"

	"github.com/artpar/zacre/domain/layout"
)

// Feature tags a page for conditional navigation.
type Feature string

const (
	FeatureNone  Feature = ""
	FeatureAuth  Feature = "AUTH"
	FeatureAdmin Feature = "ADMIN"
)

// Features lists the assignable features.
var Features = []Feature{FeatureAuth, FeatureAdmin}

// ParseFeature validates a feature name; "" means none.
func ParseFeature(s string) (Feature, bool) {
	switch Feature(s) {
	case FeatureNone, FeatureAuth, FeatureAdmin:
		return Feature(s), true
	}
	return FeatureNone, false
}

// Page binds a URL to a layout.
type Page struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	URL             string    `json:"url"`
	LayoutID        string    `json:"layoutId"`
	IsActive        bool      `json:"isActive"`
	IsLocked        bool      `json:"isLocked"`
	Role            string    `json:"role,omitempty"`
	AssignedFeature Feature   `json:"assignedFeature,omitempty"`
	CreatedByID     string    `json:"createdById"`
	UpdatedByID     string    `json:"updatedById"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`

	// Layout is populated when the page is loaded with its layout joined.
	Layout *layout.Layout `json:"layout,omitempty"`
}

// CreateInput is the request to create a page.
type CreateInput struct {
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	URL             string  `json:"url"`
	LayoutID        string  `json:"layoutId"`
	IsActive        *bool   `json:"isActive,omitempty"`
	IsLocked        bool    `json:"isLocked"`
	Role            string  `json:"role,omitempty"`
	AssignedFeature Feature `json:"assignedFeature,omitempty"`
	CreatedByID     string  `json:"createdById,omitempty"`
	// Strict rejects a taken URL instead of returning the page serving it.
	Strict bool `json:"-"`
}

// UpdateInput changes a page; nil fields keep their value.
type UpdateInput struct {
	Title           *string  `json:"title,omitempty"`
	Description     *string  `json:"description,omitempty"`
	URL             *string  `json:"url,omitempty"`
	LayoutID        *string  `json:"layoutId,omitempty"`
	IsActive        *bool    `json:"isActive,omitempty"`
	IsLocked        *bool    `json:"isLocked,omitempty"`
	Role            *string  `json:"role,omitempty"`
	AssignedFeature *Feature `json:"assignedFeature,omitempty"`
	UpdatedByID     string   `json:"updatedById,omitempty"`
}

// Apply returns p with the provided fields of in applied.
func (in UpdateInput) Apply(p Page) Page {
	if in.Title != nil {
		p.Title = *in.Title
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.URL != nil {
		p.URL = *in.URL
	}
	if in.LayoutID != nil {
		p.LayoutID = *in.LayoutID
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if in.IsLocked != nil {
		p.IsLocked = *in.IsLocked
	}
	if in.Role != nil {
		p.Role = *in.Role
	}
	if in.AssignedFeature != nil {
		p.AssignedFeature = *in.AssignedFeature
	}
	if in.UpdatedByID != "" {
		p.UpdatedByID = in.UpdatedByID
	}
	return p
}

// Filter narrows page listings. Empty fields match everything.
type Filter struct {
	ID              string
	URL             string
	Title           string
	Description     string
	LayoutID        string
	CreatedByID     string
	UpdatedByID     string
	Role            string
	AssignedFeature string
	IsActive        *bool
	IsLocked        *bool
}

// SortFields lists the fields pages may be ordered by.
var SortFields = []string{"createdAt", "updatedAt", "title", "url", "layoutId"}

// ValidURL reports whether u can be served as a page address.
func ValidURL(u string) bool {
	return strings.HasPrefix(u, "/")
}

// Segments splits a path on "/" dropping empty segments.
func Segments(path string) []string {
	parts := strings.Split(path, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// IsPattern reports whether the URL contains ":param" segments.
func IsPattern(u string) bool {
	for _, s := range Segments(u) {
		if strings.HasPrefix(s, ":") {
			return true
		}
	}
	return false
}
