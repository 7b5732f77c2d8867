package memory

import (
	"sort"
	"strings"
	"time"

	"github.com/artpar/zacre/pkg/envelope"
)

// sortKey extracts the comparable value of an ordering field.
type sortKey[T any] func(item T, field string) (s string, t time.Time)

// paginate orders items by p.Order, then returns the requested page.
// Ties fall back to tie, usually the id.
func paginate[T any](items []T, p envelope.Params, key sortKey[T], tie func(T) string) []T {
	p = p.Normalize()
	sort.SliceStable(items, func(i, j int) bool {
		si, ti := key(items[i], p.Order.Field)
		sj, tj := key(items[j], p.Order.Field)
		var less, equal bool
		if !ti.IsZero() || !tj.IsZero() {
			less, equal = ti.Before(tj), ti.Equal(tj)
		} else {
			less, equal = si < sj, si == sj
		}
		if equal {
			return tie(items[i]) < tie(items[j])
		}
		if p.Order.Desc {
			return !less
		}
		return less
	})

	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func containsFold(s, sub string) bool {
	return sub == "" || strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func eqOrEmpty(v, want string) bool {
	return want == "" || v == want
}

func flagMatches(v bool, want *bool) bool {
	return want == nil || v == *want
}
