package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/artpar/zacre/pkg/envelope"
	"github.com/mattn/go-sqlite3"
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// where accumulates AND-ed conditions for listing queries.
type where struct {
	conditions []string
	args       []any
}

func (w *where) eq(column, value string) {
	if value == "" {
		return
	}
	w.conditions = append(w.conditions, column+" = ?")
	w.args = append(w.args, value)
}

func (w *where) like(column, value string) {
	if value == "" {
		return
	}
	w.conditions = append(w.conditions, column+" LIKE ?")
	w.args = append(w.args, "%"+value+"%")
}

func (w *where) flag(column string, value *bool) {
	if value == nil {
		return
	}
	w.conditions = append(w.conditions, column+" = ?")
	w.args = append(w.args, *value)
}

func (w *where) raw(condition string, args ...any) {
	w.conditions = append(w.conditions, condition)
	w.args = append(w.args, args...)
}

func (w *where) String() string {
	if len(w.conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conditions, " AND ")
}

// orderClause maps an allow-listed order to a column.
// Fields missing from columns fall back to fallback.
func orderClause(o envelope.Order, columns map[string]string, fallback string) string {
	col, ok := columns[o.Field]
	if !ok {
		col = fallback
	}
	if o.Desc {
		return " ORDER BY " + col + " DESC"
	}
	return " ORDER BY " + col + " ASC"
}

// placeholders returns "?, ?, ?" for n values.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

func stringArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

func isUniqueConstraintError(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique ||
			se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
