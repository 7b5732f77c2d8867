package envelope

import "strings"

// Order is a single-field ordering.
type Order struct {
	Field string
	Desc  bool
}

// String formats the order as "field:direction".
func (o Order) String() string {
	if o.Desc {
		return o.Field + ":desc"
	}
	return o.Field + ":asc"
}

// ParseOrder parses "field:direction" restricted to allowed fields.
// A missing direction means ascending. An unknown field or direction
// yields def.
func ParseOrder(raw string, allowed []string, def Order) Order {
	field, dir, hasDir := strings.Cut(strings.TrimSpace(raw), ":")
	if !contains(allowed, field) {
		return def
	}

	o := Order{Field: field}
	if hasDir {
		switch strings.ToLower(dir) {
		case "asc":
		case "desc":
			o.Desc = true
		default:
			return def
		}
	}
	return o
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
