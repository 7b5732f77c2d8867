package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/artpar/zacre/domain/layout"
	"github.com/artpar/zacre/pkg/envelope"
	"github.com/artpar/zacre/ports"
)

// LayoutStore implements ports.LayoutStore using SQLite.
type LayoutStore struct {
	db *DB
}

// NewLayoutStore creates a new SQLite layout store.
func NewLayoutStore(db *DB) *LayoutStore {
	return &LayoutStore{db: db}
}

const layoutColumns = `
	l.id, l.title, l.description, l.is_active, l.created_at, l.updated_at,
	(SELECT COUNT(*) FROM pages p WHERE p.layout_id = l.id)`

var layoutOrderColumns = map[string]string{
	"createdAt": "l.created_at",
	"updatedAt": "l.updated_at",
	"title":     "l.title",
}

// Get retrieves a layout with its instances and parameters.
func (s *LayoutStore) Get(ctx context.Context, id string) (layout.Layout, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+layoutColumns+` FROM layouts l WHERE l.id = ?`, id)
	l, err := scanLayout(row)
	if err != nil {
		return layout.Layout{}, err
	}
	return s.withInstances(ctx, l)
}

// FindByTitle retrieves the layout with this exact title and description.
func (s *LayoutStore) FindByTitle(ctx context.Context, title, description string) (layout.Layout, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+layoutColumns+`
		FROM layouts l
		WHERE l.title = ? AND l.description = ?
		ORDER BY l.created_at
		LIMIT 1
	`, title, description)
	l, err := scanLayout(row)
	if err != nil {
		return layout.Layout{}, err
	}
	return s.withInstances(ctx, l)
}

func (s *LayoutStore) withInstances(ctx context.Context, l layout.Layout) (layout.Layout, error) {
	byLayout, err := loadInstances(ctx, s.db, "lm.layout_id", []string{l.ID})
	if err != nil {
		return layout.Layout{}, err
	}
	l.Modules = byLayout[l.ID]
	if l.Modules == nil {
		l.Modules = []layout.Instance{}
	}
	return l, nil
}

// Create inserts a layout and its instances atomically.
func (s *LayoutStore) Create(ctx context.Context, l layout.Layout, instances []layout.NewInstance) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO layouts (id, title, description, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, l.ID, l.Title, l.Description, l.IsActive, l.CreatedAt.UTC(), l.UpdatedAt.UTC())
	if err != nil {
		if isUniqueConstraintError(err) {
			return ports.ErrDuplicate
		}
		return fmt.Errorf("insert layout: %w", err)
	}

	if err := insertInstances(ctx, tx, l.ID, instances); err != nil {
		return err
	}
	return tx.Commit()
}

// Update writes the layout fields and replaces its instances atomically.
func (s *LayoutStore) Update(ctx context.Context, l layout.Layout, instances []layout.NewInstance) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE layouts
		SET title = ?, description = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`, l.Title, l.Description, l.IsActive, l.UpdatedAt.UTC(), l.ID)
	if err != nil {
		return fmt.Errorf("update layout: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ports.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM layout_module_parameters
		WHERE layout_module_id IN (SELECT id FROM layout_modules WHERE layout_id = ?)
	`, l.ID); err != nil {
		return fmt.Errorf("delete parameters: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM layout_modules WHERE layout_id = ?`, l.ID); err != nil {
		return fmt.Errorf("delete instances: %w", err)
	}

	if err := insertInstances(ctx, tx, l.ID, instances); err != nil {
		return err
	}
	return tx.Commit()
}

func insertInstances(ctx context.Context, tx *sql.Tx, layoutID string, instances []layout.NewInstance) error {
	for pos, in := range instances {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO layout_modules (id, layout_id, module_id, x, y, position)
			VALUES (?, ?, ?, ?, ?, ?)
		`, in.ID, layoutID, in.ModuleID, in.X, in.Y, pos)
		if err != nil {
			return fmt.Errorf("insert instance %s: %w", in.ID, err)
		}

		for ppos, p := range in.Parameters {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO layout_module_parameters (layout_module_id, key, value, position)
				VALUES (?, ?, ?, ?)
				ON CONFLICT(layout_module_id, key) DO UPDATE SET value = excluded.value
			`, in.ID, p.Key, p.Value, ppos)
			if err != nil {
				return fmt.Errorf("insert parameter %s: %w", p.Key, err)
			}
		}
	}
	return nil
}

// Delete removes a layout. Instances and parameters cascade.
func (s *LayoutStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM layouts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete layout: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// List returns one page of layouts and the total match count.
func (s *LayoutStore) List(ctx context.Context, f layout.Filter, p envelope.Params) ([]layout.Layout, int64, error) {
	var w where
	w.eq("l.id", f.ID)
	w.like("l.title", f.Title)
	w.like("l.description", f.Description)
	w.flag("l.is_active", f.IsActive)
	if len(f.Modules) > 0 {
		w.raw(`EXISTS (
			SELECT 1 FROM layout_modules lm JOIN modules m ON m.id = lm.module_id
			WHERE lm.layout_id = l.id AND m.short_name IN (`+placeholders(len(f.Modules))+`))`,
			stringArgs(f.Modules)...)
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM layouts l`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count layouts: %w", err)
	}

	p = p.Normalize()
	query := `SELECT ` + layoutColumns + ` FROM layouts l` + w.String() +
		orderClause(p.Order, layoutOrderColumns, "l.title") + `, l.id LIMIT ? OFFSET ?`
	args := append(append([]any{}, w.args...), p.Limit, p.Offset())

	layouts, err := s.queryLayouts(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return layouts, total, nil
}

// GetMany retrieves the layouts with the given ids.
func (s *LayoutStore) GetMany(ctx context.Context, ids []string) ([]layout.Layout, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + layoutColumns + ` FROM layouts l WHERE l.id IN (` + placeholders(len(ids)) + `)`
	return s.queryLayouts(ctx, query, stringArgs(ids)...)
}

func (s *LayoutStore) queryLayouts(ctx context.Context, query string, args ...any) ([]layout.Layout, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query layouts: %w", err)
	}
	defer rows.Close()

	var layouts []layout.Layout
	var ids []string
	for rows.Next() {
		l, err := scanLayout(rows)
		if err != nil {
			return nil, err
		}
		layouts = append(layouts, l)
		ids = append(ids, l.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return layouts, nil
	}

	byLayout, err := loadInstances(ctx, s.db, "lm.layout_id", ids)
	if err != nil {
		return nil, err
	}
	for i := range layouts {
		layouts[i].Modules = byLayout[layouts[i].ID]
		if layouts[i].Modules == nil {
			layouts[i].Modules = []layout.Instance{}
		}
	}
	return layouts, nil
}

// GetInstances retrieves instances by id, in no particular order.
func (s *LayoutStore) GetInstances(ctx context.Context, ids []string) ([]layout.Instance, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	byLayout, err := loadInstances(ctx, s.db, "lm.id", ids)
	if err != nil {
		return nil, err
	}
	var out []layout.Instance
	for _, list := range byLayout {
		out = append(out, list...)
	}
	return out, nil
}

// loadInstances loads instances whose column matches one of ids, grouped
// by layout id in insertion order.
func loadInstances(ctx context.Context, q querier, column string, ids []string) (map[string][]layout.Instance, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT lm.id, lm.layout_id, lm.module_id, m.short_name, m.name, lm.x, lm.y
		FROM layout_modules lm
		JOIN modules m ON m.id = lm.module_id
		WHERE `+column+` IN (`+placeholders(len(ids))+`)
		ORDER BY lm.layout_id, lm.position
	`, stringArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("query instances: %w", err)
	}

	byLayout := make(map[string][]layout.Instance)
	var instanceIDs []string
	for rows.Next() {
		var in layout.Instance
		if err := rows.Scan(&in.ID, &in.LayoutID, &in.ModuleID, &in.ShortName, &in.ModuleName, &in.X, &in.Y); err != nil {
			rows.Close()
			return nil, err
		}
		in.Parameters = []layout.InstanceParameter{}
		byLayout[in.LayoutID] = append(byLayout[in.LayoutID], in)
		instanceIDs = append(instanceIDs, in.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(instanceIDs) == 0 {
		return byLayout, nil
	}

	params, err := loadParameters(ctx, q, instanceIDs)
	if err != nil {
		return nil, err
	}
	for layoutID, list := range byLayout {
		for i := range list {
			if ps, ok := params[list[i].ID]; ok {
				list[i].Parameters = ps
			}
		}
		byLayout[layoutID] = list
	}
	return byLayout, nil
}

func loadParameters(ctx context.Context, q querier, instanceIDs []string) (map[string][]layout.InstanceParameter, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT layout_module_id, key, value
		FROM layout_module_parameters
		WHERE layout_module_id IN (`+placeholders(len(instanceIDs))+`)
		ORDER BY layout_module_id, position
	`, stringArgs(instanceIDs)...)
	if err != nil {
		return nil, fmt.Errorf("query parameters: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]layout.InstanceParameter)
	for rows.Next() {
		var id string
		var p layout.InstanceParameter
		if err := rows.Scan(&id, &p.Key, &p.Value); err != nil {
			return nil, err
		}
		out[id] = append(out[id], p)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLayout(row scanner) (layout.Layout, error) {
	var l layout.Layout
	err := row.Scan(&l.ID, &l.Title, &l.Description, &l.IsActive, &l.CreatedAt, &l.UpdatedAt, &l.PageCount)
	if errors.Is(err, sql.ErrNoRows) {
		return layout.Layout{}, ports.ErrNotFound
	}
	if err != nil {
		return layout.Layout{}, err
	}
	return l, nil
}

// Ensure interface compliance.
var _ ports.LayoutStore = (*LayoutStore)(nil)
