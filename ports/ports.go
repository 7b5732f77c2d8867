// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/artpar/zacre/domain/layout"
	"github.com/artpar/zacre/domain/page"
	"github.com/artpar/zacre/domain/parameter"
	"github.com/artpar/zacre/pkg/envelope"
)

// ErrNotFound is returned by stores when an entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned by stores when a unique constraint is violated.
var ErrDuplicate = errors.New("already exists")

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// Hasher provides password hashing.
type Hasher interface {
	// Hash generates a hash from plaintext.
	Hash(plaintext string) ([]byte, error)

	// Compare checks if plaintext matches hash.
	Compare(hash []byte, plaintext string) bool
}

// -----------------------------------------------------------------------------
// Data Store Ports
// -----------------------------------------------------------------------------

// PageStore persists pages.
type PageStore interface {
	Get(ctx context.Context, id string) (page.Page, error)
	GetByURL(ctx context.Context, url string) (page.Page, error)
	Create(ctx context.Context, p page.Page) error
	Update(ctx context.Context, p page.Page) error
	Delete(ctx context.Context, id string) error

	// List returns one page of matching rows and the total match count.
	List(ctx context.Context, f page.Filter, p envelope.Params) ([]page.Page, int64, error)

	// ListActive returns every active page ordered by creation time.
	ListActive(ctx context.Context) ([]page.Page, error)

	// CountByLayout returns how many pages reference the layout.
	CountByLayout(ctx context.Context, layoutID string) (int, error)
}

// LayoutStore persists layouts with their module instances and parameters.
type LayoutStore interface {
	// Get returns the layout with instances and parameters joined.
	Get(ctx context.Context, id string) (layout.Layout, error)

	// FindByTitle returns the layout with exactly this title and description.
	FindByTitle(ctx context.Context, title, description string) (layout.Layout, error)

	// Create inserts the layout and its instances in one transaction.
	Create(ctx context.Context, l layout.Layout, instances []layout.NewInstance) error

	// Update writes the layout fields and replaces the full instance set in
	// one transaction. On failure the previous state is kept.
	Update(ctx context.Context, l layout.Layout, instances []layout.NewInstance) error

	// Delete removes the layout; instances and parameters cascade.
	Delete(ctx context.Context, id string) error

	List(ctx context.Context, f layout.Filter, p envelope.Params) ([]layout.Layout, int64, error)

	// GetMany returns the layouts with the given ids, joined. Missing ids
	// are omitted.
	GetMany(ctx context.Context, ids []string) ([]layout.Layout, error)

	// GetInstances returns the instances with the given ids. Missing ids
	// are omitted.
	GetInstances(ctx context.Context, ids []string) ([]layout.Instance, error)
}

// ModuleStore persists module rows mirrored from the module registry.
type ModuleStore interface {
	// Upsert inserts or refreshes the row keyed by short name and returns
	// the stored row.
	Upsert(ctx context.Context, m layout.Module) (layout.Module, error)
	GetByShortName(ctx context.Context, shortName string) (layout.Module, error)
	Get(ctx context.Context, id string) (layout.Module, error)
	List(ctx context.Context) ([]layout.Module, error)
}

// ParameterStore persists site configuration and parameter type declarations.
type ParameterStore interface {
	GetConfig(ctx context.Context, key string) (parameter.ConfigParameter, error)

	// CreateConfig writes the value only if the key is absent.
	// Reports whether a row was written.
	CreateConfig(ctx context.Context, key, value string) (bool, error)

	// PutConfig overwrites the value, creating the key if needed.
	PutConfig(ctx context.Context, key, value string) error

	ListConfig(ctx context.Context) ([]parameter.ConfigParameter, error)

	// DeclareType writes the type only if the key is absent.
	DeclareType(ctx context.Context, t parameter.Type) error
	ListTypes(ctx context.Context) ([]parameter.Type, error)
}

// User represents an account able to sign in.
type User struct {
	ID           string
	Email        string
	Name         string
	Role         string
	PasswordHash []byte
	CreatedAt    time.Time
}

// UserStore persists user accounts.
type UserStore interface {
	Get(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	Create(ctx context.Context, u User) error
	List(ctx context.Context) ([]User, error)
}

// -----------------------------------------------------------------------------
// Cache Ports
// -----------------------------------------------------------------------------

// ConfigCache caches site configuration values.
// Implementations may be process-local or shared.
type ConfigCache interface {
	// Get returns the cached value and whether it was present and fresh.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// -----------------------------------------------------------------------------
// Auth Ports
// -----------------------------------------------------------------------------

// Session is the authenticated principal of a request.
type Session struct {
	UserID string
	Email  string
	Role   string
}

// AuthProvider extracts the session from a request.
// Returns nil when the request is anonymous or the credential is invalid.
type AuthProvider interface {
	Authenticate(r *http.Request) *Session
}

// -----------------------------------------------------------------------------
// Observability Ports
// -----------------------------------------------------------------------------

// Module render outcomes.
const (
	OutcomeLoader = "loader"
	OutcomeRender = "render"
	OutcomeError  = "error"
)

// RenderObserver receives rendering and dispatch events.
type RenderObserver interface {
	// ModuleRendered records how one instance was produced.
	ModuleRendered(shortName, outcome string)

	// PageRendered records a full document assembly.
	PageRendered(found bool, d time.Duration)

	// ActionExecuted records one action dispatch.
	ActionExecuted(shortName string, err error)

	// RegistryReloaded records a page registry rebuild.
	RegistryReloaded(pages int, err error)
}
