package page

import (
	"sort"
	"strings"
)

// MatchResult holds the matched page and captured path parameters.
type MatchResult struct {
	Page   *Page
	Params map[string]string
}

// Matcher resolves request paths to pages.
// Exact URLs win over ":param" patterns; among patterns the one with
// more literal segments wins, then the one registered first.
type Matcher struct {
	pages    []Page
	exact    map[string]int
	patterns []compiledPattern
}

type compiledPattern struct {
	pageIdx  int
	segments []string
	literals int
}

// NewMatcher compiles the given pages.
func NewMatcher(pages []Page) *Matcher {
	m := &Matcher{
		pages: pages,
		exact: make(map[string]int, len(pages)),
	}

	for i, p := range pages {
		if !IsPattern(p.URL) {
			if _, dup := m.exact[p.URL]; !dup {
				m.exact[p.URL] = i
			}
			continue
		}
		segs := Segments(p.URL)
		literals := 0
		for _, s := range segs {
			if !strings.HasPrefix(s, ":") {
				literals++
			}
		}
		m.patterns = append(m.patterns, compiledPattern{pageIdx: i, segments: segs, literals: literals})
	}

	sort.SliceStable(m.patterns, func(i, j int) bool {
		return m.patterns[i].literals > m.patterns[j].literals
	})

	return m
}

// Match finds the page serving path. Returns nil if none matches.
func (m *Matcher) Match(path string) *MatchResult {
	if path == "" {
		path = "/"
	}
	if i, ok := m.exact[path]; ok {
		return &MatchResult{Page: &m.pages[i], Params: map[string]string{}}
	}
	if trimmed := strings.TrimSuffix(path, "/"); trimmed != path && trimmed != "" {
		if i, ok := m.exact[trimmed]; ok {
			return &MatchResult{Page: &m.pages[i], Params: map[string]string{}}
		}
	}

	segs := Segments(path)
	for _, cp := range m.patterns {
		if params := matchSegments(cp.segments, segs); params != nil {
			return &MatchResult{Page: &m.pages[cp.pageIdx], Params: params}
		}
	}
	return nil
}

// Pages returns the compiled pages in registration order.
func (m *Matcher) Pages() []Page {
	return m.pages
}

// matchSegments matches pattern segments positionally.
// Returns nil when the counts differ or a literal segment mismatches.
func matchSegments(pattern, path []string) map[string]string {
	if len(pattern) != len(path) {
		return nil
	}
	params := make(map[string]string)
	for i, seg := range pattern {
		if name, ok := strings.CutPrefix(seg, ":"); ok {
			params[name] = path[i]
			continue
		}
		if seg != path[i] {
			return nil
		}
	}
	return params
}
