package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/artpar/zacre/domain/parameter"
	"github.com/artpar/zacre/ports"
)

// ParameterStore implements ports.ParameterStore using SQLite.
type ParameterStore struct {
	db *DB
}

// NewParameterStore creates a new SQLite parameter store.
func NewParameterStore(db *DB) *ParameterStore {
	return &ParameterStore{db: db}
}

// GetConfig retrieves one site config value.
func (s *ParameterStore) GetConfig(ctx context.Context, key string) (parameter.ConfigParameter, error) {
	var c parameter.ConfigParameter
	err := s.db.QueryRowContext(ctx, `
		SELECT key, value, updated_at FROM config_parameters WHERE key = ?
	`, key).Scan(&c.Key, &c.Value, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return parameter.ConfigParameter{}, ports.ErrNotFound
	}
	if err != nil {
		return parameter.ConfigParameter{}, err
	}
	return c, nil
}

// CreateConfig writes the value only when the key does not exist yet.
func (s *ParameterStore) CreateConfig(ctx context.Context, key, value string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO config_parameters (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO NOTHING
	`, key, value, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("create config %s: %w", key, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// PutConfig stores or overwrites a value.
func (s *ParameterStore) PutConfig(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO config_parameters (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("put config %s: %w", key, err)
	}
	return nil
}

// ListConfig returns all config values ordered by key.
func (s *ParameterStore) ListConfig(ctx context.Context) ([]parameter.ConfigParameter, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value, updated_at FROM config_parameters ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("query config: %w", err)
	}
	defer rows.Close()

	var out []parameter.ConfigParameter
	for rows.Next() {
		var c parameter.ConfigParameter
		if err := rows.Scan(&c.Key, &c.Value, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeclareType writes a parameter type only when the key does not exist yet.
// Select values are stored comma separated.
func (s *ParameterStore) DeclareType(ctx context.Context, t parameter.Type) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO parameter_types (key, value_type, is_required, is_select, select_values)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO NOTHING
	`, t.Key, string(t.ValueType), t.IsRequired, t.IsSelect, strings.Join(t.SelectValues, ","))
	if err != nil {
		return fmt.Errorf("declare parameter type %s: %w", t.Key, err)
	}
	return nil
}

// ListTypes returns all parameter types ordered by key.
func (s *ParameterStore) ListTypes(ctx context.Context) ([]parameter.Type, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, value_type, is_required, is_select, select_values
		FROM parameter_types
		ORDER BY key
	`)
	if err != nil {
		return nil, fmt.Errorf("query parameter types: %w", err)
	}
	defer rows.Close()

	var out []parameter.Type
	for rows.Next() {
		var t parameter.Type
		var valueType, selectValues string
		if err := rows.Scan(&t.Key, &valueType, &t.IsRequired, &t.IsSelect, &selectValues); err != nil {
			return nil, err
		}
		t.ValueType = parameter.ValueType(valueType)
		if selectValues != "" {
			t.SelectValues = strings.Split(selectValues, ",")
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Ensure interface compliance.
var _ ports.ParameterStore = (*ParameterStore)(nil)
