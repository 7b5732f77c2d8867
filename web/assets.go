package web

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"regexp"
	"sync"
)

// Asset environments.
const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

var bundlePattern = regexp.MustCompile(`^main-[\w\d]+\.js$`)

// ErrNoBundle is returned when the public directory holds no client bundle.
var ErrNoBundle = errors.New("client bundle main-*.js not found")

// Assets locates the hashed client bundle and serves the public directory.
// In production the bundle name is resolved once and cached.
type Assets struct {
	dir string

	mu         sync.Mutex
	production bool
	cached     string
}

// NewAssets creates an asset resolver over dir.
func NewAssets(dir, environment string) *Assets {
	return &Assets{dir: dir, production: environment == EnvProduction}
}

// Dir returns the public directory.
func (a *Assets) Dir() string {
	return a.dir
}

// SetEnvironment switches caching on or off and drops the cached name.
func (a *Assets) SetEnvironment(environment string) {
	a.mu.Lock()
	a.production = environment == EnvProduction
	a.cached = ""
	a.mu.Unlock()
}

// BundleName returns the file name of the client bundle.
func (a *Assets) BundleName() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.production && a.cached != "" {
		return a.cached, nil
	}

	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return "", fmt.Errorf("read public dir: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() && bundlePattern.MatchString(e.Name()) {
			if a.production {
				a.cached = e.Name()
			}
			return e.Name(), nil
		}
	}
	return "", ErrNoBundle
}

// Handler serves files from the public directory.
func (a *Assets) Handler() http.Handler {
	return http.FileServer(http.Dir(a.dir))
}
