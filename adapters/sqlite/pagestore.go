package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/artpar/zacre/domain/page"
	"github.com/artpar/zacre/pkg/envelope"
	"github.com/artpar/zacre/ports"
)

// PageStore implements ports.PageStore using SQLite.
type PageStore struct {
	db *DB
}

// NewPageStore creates a new SQLite page store.
func NewPageStore(db *DB) *PageStore {
	return &PageStore{db: db}
}

const pageColumns = `
	id, title, description, url, layout_id, is_active, is_locked, role,
	assigned_feature, created_by_id, updated_by_id, created_at, updated_at`

var pageOrderColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"title":     "title",
	"url":       "url",
	"layoutId":  "layout_id",
}

// Get retrieves a page by ID.
func (s *PageStore) Get(ctx context.Context, id string) (page.Page, error) {
	return scanPage(s.db.QueryRowContext(ctx, `SELECT `+pageColumns+` FROM pages WHERE id = ?`, id))
}

// GetByURL retrieves a page by its URL.
func (s *PageStore) GetByURL(ctx context.Context, url string) (page.Page, error) {
	return scanPage(s.db.QueryRowContext(ctx, `SELECT `+pageColumns+` FROM pages WHERE url = ?`, url))
}

// Create stores a new page.
func (s *PageStore) Create(ctx context.Context, p page.Page) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pages (`+pageColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Title, p.Description, p.URL, p.LayoutID, p.IsActive, p.IsLocked, p.Role,
		string(p.AssignedFeature), p.CreatedByID, p.UpdatedByID, p.CreatedAt.UTC(), p.UpdatedAt.UTC())
	if err != nil {
		if isUniqueConstraintError(err) {
			return ports.ErrDuplicate
		}
		return fmt.Errorf("insert page: %w", err)
	}
	return nil
}

// Update modifies an existing page.
func (s *PageStore) Update(ctx context.Context, p page.Page) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE pages
		SET title = ?, description = ?, url = ?, layout_id = ?, is_active = ?, is_locked = ?,
			role = ?, assigned_feature = ?, updated_by_id = ?, updated_at = ?
		WHERE id = ?
	`, p.Title, p.Description, p.URL, p.LayoutID, p.IsActive, p.IsLocked,
		p.Role, string(p.AssignedFeature), p.UpdatedByID, p.UpdatedAt.UTC(), p.ID)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ports.ErrDuplicate
		}
		return fmt.Errorf("update page: %w", err)
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

// Delete removes a page.
func (s *PageStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM pages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete page: %w", err)
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

// List returns one page of pages and the total match count.
func (s *PageStore) List(ctx context.Context, f page.Filter, p envelope.Params) ([]page.Page, int64, error) {
	var w where
	w.eq("id", f.ID)
	w.eq("url", f.URL)
	w.like("title", f.Title)
	w.like("description", f.Description)
	w.eq("layout_id", f.LayoutID)
	w.eq("created_by_id", f.CreatedByID)
	w.eq("updated_by_id", f.UpdatedByID)
	w.eq("role", f.Role)
	w.eq("assigned_feature", f.AssignedFeature)
	w.flag("is_active", f.IsActive)
	w.flag("is_locked", f.IsLocked)

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count pages: %w", err)
	}

	p = p.Normalize()
	query := `SELECT ` + pageColumns + ` FROM pages` + w.String() +
		orderClause(p.Order, pageOrderColumns, "created_at") + `, id LIMIT ? OFFSET ?`
	args := append(append([]any{}, w.args...), p.Limit, p.Offset())

	pages, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return pages, total, nil
}

// ListActive returns all active pages in creation order.
func (s *PageStore) ListActive(ctx context.Context) ([]page.Page, error) {
	return s.query(ctx, `SELECT `+pageColumns+` FROM pages WHERE is_active = 1 ORDER BY created_at, id`)
}

// CountByLayout returns how many pages reference a layout.
func (s *PageStore) CountByLayout(ctx context.Context, layoutID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages WHERE layout_id = ?`, layoutID).Scan(&n)
	return n, err
}

func (s *PageStore) query(ctx context.Context, query string, args ...any) ([]page.Page, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pages: %w", err)
	}
	defer rows.Close()

	var pages []page.Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

func scanPage(row scanner) (page.Page, error) {
	var p page.Page
	var feature string
	err := row.Scan(
		&p.ID, &p.Title, &p.Description, &p.URL, &p.LayoutID, &p.IsActive, &p.IsLocked, &p.Role,
		&feature, &p.CreatedByID, &p.UpdatedByID, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return page.Page{}, ports.ErrNotFound
	}
	if err != nil {
		return page.Page{}, err
	}
	p.AssignedFeature = page.Feature(feature)
	return p, nil
}

// Ensure interface compliance.
var _ ports.PageStore = (*PageStore)(nil)
