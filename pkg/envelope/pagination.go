// Package envelope provides list pagination, ordering, and the JSON
// response envelope used by the admin API.
package envelope

import (
	"net/url"
	"strconv"
	"strings"
)

// DefaultLimit is the page size used when none is requested.
const DefaultLimit = 10

// MaxLimit caps requested page sizes.
const MaxLimit = 100

// Params holds the requested page, size, and ordering of a listing.
type Params struct {
	Page  int
	Limit int
	Order Order
}

// Normalize clamps page and limit to valid values.
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Offset returns the number of rows to skip: (page-1)*limit.
func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// Page is the paginated list envelope.
type Page[T any] struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalItems  int64 `json:"totalItems"`
	PerPage     int   `json:"perPage"`
	Items       []T   `json:"items"`
}

// NewPage builds the envelope for one page of items.
func NewPage[T any](items []T, total int64, p Params) Page[T] {
	p = p.Normalize()
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		CurrentPage: p.Page,
		TotalPages:  TotalPages(total, p.Limit),
		TotalItems:  total,
		PerPage:     p.Limit,
		Items:       items,
	}
}

// TotalPages returns ceil(total/limit). An empty listing has zero pages.
func TotalPages(total int64, limit int) int {
	if limit < 1 || total <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// ParseParams reads page, limit (or per_page), and orderBy from a query.
// Unknown order fields or directions fall back to def.
func ParseParams(query url.Values, allowed []string, def Order) Params {
	p := Params{Page: 1, Limit: DefaultLimit, Order: def}

	if v := query.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.Page = n
		}
	}
	if v := query.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.Limit = n
		}
	} else if v := query.Get("per_page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.Limit = n
		}
	}
	if v := strings.TrimSpace(query.Get("orderBy")); v != "" {
		p.Order = ParseOrder(v, allowed, def)
	}

	return p.Normalize()
}
