package app

import (
	"fmt"
	"strings"
	"sync"

	"github.com/artpar/zacre/domain/page"
	"github.com/artpar/zacre/ports"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// DefaultPageFilter lists pages without an assigned feature.
const DefaultPageFilter = `assignedFeature == ""`

// pageEnv is the environment a page filter expression evaluates against.
type pageEnv struct {
	URL             string `expr:"url"`
	Title           string `expr:"title"`
	AssignedFeature string `expr:"assignedFeature"`
	Role            string `expr:"role"`
	IsLocked        bool   `expr:"isLocked"`

	// Viewer
	SignedIn bool   `expr:"signedIn"`
	UserRole string `expr:"userRole"`
}

// PageFilterService selects navigation pages with boolean Expr expressions.
type PageFilterService struct {
	// Compiled program cache
	cache   map[string]*vm.Program
	cacheMu sync.RWMutex

	envOptions []expr.Option
}

// NewPageFilterService creates a page filter service.
func NewPageFilterService() *PageFilterService {
	s := &PageFilterService{
		cache: make(map[string]*vm.Program),
	}

	s.envOptions = []expr.Option{
		expr.Env(pageEnv{}),
		expr.AsBool(),
		expr.Function("inSection", func(params ...any) (any, error) {
			if len(params) != 2 {
				return nil, fmt.Errorf("inSection requires 2 arguments (url, section)")
			}
			u, section := fmt.Sprint(params[0]), strings.TrimSuffix(fmt.Sprint(params[1]), "/")
			return u == section || strings.HasPrefix(u, section+"/"), nil
		}),
	}

	return s
}

// Compile validates and caches an expression. "" compiles the default.
func (s *PageFilterService) Compile(expression string) (*vm.Program, error) {
	if strings.TrimSpace(expression) == "" {
		expression = DefaultPageFilter
	}

	s.cacheMu.RLock()
	program, ok := s.cache[expression]
	s.cacheMu.RUnlock()
	if ok {
		return program, nil
	}

	program, err := expr.Compile(expression, s.envOptions...)
	if err != nil {
		return nil, fmt.Errorf("compile page filter: %w", err)
	}

	s.cacheMu.Lock()
	s.cache[expression] = program
	s.cacheMu.Unlock()
	return program, nil
}

// Filter returns the pages for which expression holds. Pattern URLs are
// never listed since they cannot be linked to directly.
func (s *PageFilterService) Filter(expression string, pages []page.Page, viewer *ports.Session) ([]page.Page, error) {
	program, err := s.Compile(expression)
	if err != nil {
		return nil, err
	}

	env := pageEnv{}
	if viewer != nil {
		env.SignedIn = true
		env.UserRole = viewer.Role
	}

	var out []page.Page
	for _, p := range pages {
		if page.IsPattern(p.URL) {
			continue
		}
		env.URL = p.URL
		env.Title = p.Title
		env.AssignedFeature = string(p.AssignedFeature)
		env.Role = p.Role
		env.IsLocked = p.IsLocked

		result, err := expr.Run(program, env)
		if err != nil {
			return nil, fmt.Errorf("eval page filter: %w", err)
		}
		if ok, _ := result.(bool); ok {
			out = append(out, p)
		}
	}
	return out, nil
}
