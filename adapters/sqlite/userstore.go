package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/artpar/zacre/ports"
)

// UserStore implements ports.UserStore using SQLite.
type UserStore struct {
	db *DB
}

// NewUserStore creates a new SQLite user store.
func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

// Get retrieves a user by ID.
func (s *UserStore) Get(ctx context.Context, id string) (ports.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, email, name, role, password_hash, created_at FROM users WHERE id = ?
	`, id))
}

// GetByEmail retrieves a user by email.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (ports.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, email, name, role, password_hash, created_at FROM users WHERE email = ?
	`, email))
}

// Create stores a new user.
func (s *UserStore) Create(ctx context.Context, u ports.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, role, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, u.ID, u.Email, u.Name, u.Role, u.PasswordHash, u.CreatedAt.UTC())
	if err != nil {
		if isUniqueConstraintError(err) {
			return ports.ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// List returns all users, newest first.
func (s *UserStore) List(ctx context.Context) ([]ports.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, email, name, role, password_hash, created_at FROM users ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []ports.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func scanUser(row scanner) (ports.User, error) {
	var u ports.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.User{}, ports.ErrNotFound
	}
	if err != nil {
		return ports.User{}, err
	}
	return u, nil
}

// Ensure interface compliance.
var _ ports.UserStore = (*UserStore)(nil)
