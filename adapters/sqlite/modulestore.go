package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/artpar/zacre/domain/layout"
	"github.com/artpar/zacre/ports"
)

// ModuleStore implements ports.ModuleStore using SQLite.
type ModuleStore struct {
	db *DB
}

// NewModuleStore creates a new SQLite module store.
func NewModuleStore(db *DB) *ModuleStore {
	return &ModuleStore{db: db}
}

// Upsert inserts the module or refreshes its name and description.
// The stored id and creation time are kept when the row exists.
func (s *ModuleStore) Upsert(ctx context.Context, m layout.Module) (layout.Module, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO modules (id, short_name, name, description, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(short_name) DO UPDATE SET
			name = excluded.name,
			description = excluded.description
	`, m.ID, m.ShortName, m.Name, m.Description, m.CreatedAt.UTC())
	if err != nil {
		return layout.Module{}, fmt.Errorf("upsert module %s: %w", m.ShortName, err)
	}
	return s.GetByShortName(ctx, m.ShortName)
}

// GetByShortName retrieves a module by its registry key.
func (s *ModuleStore) GetByShortName(ctx context.Context, shortName string) (layout.Module, error) {
	return scanModule(s.db.QueryRowContext(ctx, `
		SELECT id, short_name, name, description, created_at FROM modules WHERE short_name = ?
	`, shortName))
}

// Get retrieves a module by ID.
func (s *ModuleStore) Get(ctx context.Context, id string) (layout.Module, error) {
	return scanModule(s.db.QueryRowContext(ctx, `
		SELECT id, short_name, name, description, created_at FROM modules WHERE id = ?
	`, id))
}

// List returns all modules ordered by name.
func (s *ModuleStore) List(ctx context.Context) ([]layout.Module, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, short_name, name, description, created_at FROM modules ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("query modules: %w", err)
	}
	defer rows.Close()

	var modules []layout.Module
	for rows.Next() {
		m, err := scanModule(rows)
		if err != nil {
			return nil, err
		}
		modules = append(modules, m)
	}
	return modules, rows.Err()
}

func scanModule(row scanner) (layout.Module, error) {
	var m layout.Module
	err := row.Scan(&m.ID, &m.ShortName, &m.Name, &m.Description, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return layout.Module{}, ports.ErrNotFound
	}
	if err != nil {
		return layout.Module{}, err
	}
	return m, nil
}

// Ensure interface compliance.
var _ ports.ModuleStore = (*ModuleStore)(nil)
