package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
)

var (
	ErrNoRecord       = errors.New("no record with this key")
	ErrDuplicateKey   = errors.New("record with this key already exists")
	ErrInconsistent   = errors.New("database inconsistency")
	ErrSchemaMismatch = errors.New("mapping does not match table schema")
)

// RowScanner is satisfied by *sql.Row and *sql.Rows.
type RowScanner interface {
	Scan(dest ...any) error
}

// RowMapper converts one row, read in mapping column order, into a T.
type RowMapper[T any] func(RowScanner) (T, error)

// Column binds one table column to a field of T.
type Column[T any] struct {
	Name  string
	Value func(T) any
}

// Mapping declares how records of type T are persisted in a single table.
// Columns are written and read in declaration order.
type Mapping[T any, K comparable] struct {
	Table   string
	Key     string
	KeyOf   func(T) K
	Columns []Column[T]
	Scan    RowMapper[T]
}

// Table executes key-addressed CRUD for one mapping. Every call runs on its
// own connection which is released before the call returns.
type Table[T any, K comparable] struct {
	db      *sql.DB
	m       Mapping[T, K]
	timeout time.Duration

	selectSQL string
	byKeySQL  string
	countSQL  string
	insertSQL string
	updateSQL string
	deleteSQL string
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// NewTable checks m against itself and against the live table schema, then
// prepares the statement texts. A mapping naming a column the table lacks is
// rejected with ErrSchemaMismatch.
func NewTable[T any, K comparable](ctx context.Context, db *sql.DB, m Mapping[T, K], timeout time.Duration) (*Table[T, K], error) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if err := m.check(); err != nil {
		return nil, err
	}

	t := &Table[T, K]{db: db, m: m, timeout: timeout}
	if err := t.checkSchema(ctx); err != nil {
		return nil, err
	}
	t.buildStatements()
	return t, nil
}

func (m Mapping[T, K]) check() error {
	if !identRe.MatchString(m.Table) {
		return fmt.Errorf("%w: invalid table name %q", ErrSchemaMismatch, m.Table)
	}
	if m.KeyOf == nil || m.Scan == nil {
		return fmt.Errorf("%w: table %q needs KeyOf and Scan", ErrSchemaMismatch, m.Table)
	}
	if len(m.Columns) == 0 {
		return fmt.Errorf("%w: table %q has no columns", ErrSchemaMismatch, m.Table)
	}
	seen := make(map[string]struct{}, len(m.Columns))
	for _, c := range m.Columns {
		if !identRe.MatchString(c.Name) {
			return fmt.Errorf("%w: invalid column name %q", ErrSchemaMismatch, c.Name)
		}
		if c.Value == nil {
			return fmt.Errorf("%w: column %q has no value accessor", ErrSchemaMismatch, c.Name)
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("%w: column %q declared twice", ErrSchemaMismatch, c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	if _, ok := seen[m.Key]; !ok {
		return fmt.Errorf("%w: key column %q is not declared", ErrSchemaMismatch, m.Key)
	}
	return nil
}

// checkSchema verifies that every declared column exists in the table.
func (t *Table[T, K]) checkSchema(ctx context.Context) error {
	return t.withConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, `PRAGMA table_info(`+t.m.Table+`)`)
		if err != nil {
			return fmt.Errorf("read schema of %s: %w", t.m.Table, err)
		}
		defer rows.Close()

		existing := map[string]struct{}{}
		for rows.Next() {
			var (
				cid     int
				name    string
				ctype   string
				notNull int
				dflt    sql.NullString
				pk      int
			)
			if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
				return fmt.Errorf("read schema of %s: %w", t.m.Table, err)
			}
			existing[name] = struct{}{}
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("read schema of %s: %w", t.m.Table, err)
		}
		if len(existing) == 0 {
			return fmt.Errorf("%w: table %q does not exist", ErrSchemaMismatch, t.m.Table)
		}
		for _, c := range t.m.Columns {
			if _, ok := existing[c.Name]; !ok {
				return fmt.Errorf("%w: field %q is not present in table %q", ErrSchemaMismatch, c.Name, t.m.Table)
			}
		}
		return nil
	})
}

func (t *Table[T, K]) buildStatements() {
	names := make([]string, 0, len(t.m.Columns))
	placeholders := make([]string, 0, len(t.m.Columns))
	sets := make([]string, 0, len(t.m.Columns))
	for _, c := range t.m.Columns {
		names = append(names, c.Name)
		placeholders = append(placeholders, "?")
		if c.Name != t.m.Key {
			sets = append(sets, c.Name+" = ?")
		}
	}
	cols := strings.Join(names, ", ")
	where := " WHERE " + t.m.Key + " = ?"

	t.selectSQL = "SELECT " + cols + " FROM " + t.m.Table
	t.byKeySQL = t.selectSQL + where
	t.countSQL = "SELECT COUNT(*) FROM " + t.m.Table + where
	t.insertSQL = "INSERT INTO " + t.m.Table + " (" + cols + ") VALUES (" + strings.Join(placeholders, ", ") + ")"
	t.updateSQL = "UPDATE " + t.m.Table + " SET " + strings.Join(sets, ", ") + where
	t.deleteSQL = "DELETE FROM " + t.m.Table + where
}

// withConn acquires a dedicated connection for fn and releases it on every
// exit path.
func (t *Table[T, K]) withConn(ctx context.Context, fn func(context.Context, *sql.Conn) error) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	conn, err := t.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	return fn(ctx, conn)
}

// GetByKey returns the single record stored under key. More than one matching
// row is reported as ErrInconsistent.
func (t *Table[T, K]) GetByKey(ctx context.Context, key K) (T, error) {
	var out T
	err := t.withConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, t.byKeySQL, key)
		if err != nil {
			return fmt.Errorf("select %s: %w", t.m.Table, err)
		}
		defer rows.Close()

		if !rows.Next() {
			if err := rows.Err(); err != nil {
				return fmt.Errorf("select %s: %w", t.m.Table, err)
			}
			return ErrNoRecord
		}
		rec, err := t.m.Scan(rows)
		if err != nil {
			return fmt.Errorf("map %s row: %w", t.m.Table, err)
		}
		if rows.Next() {
			return fmt.Errorf("%w: multiple rows in %s for key %v", ErrInconsistent, t.m.Table, key)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("select %s: %w", t.m.Table, err)
		}
		out = rec
		return nil
	})
	return out, err
}

// GetAll returns every record in read order; an empty table yields an empty
// slice.
func (t *Table[T, K]) GetAll(ctx context.Context) ([]T, error) {
	out := []T{}
	err := t.withConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, t.selectSQL)
		if err != nil {
			return fmt.Errorf("select %s: %w", t.m.Table, err)
		}
		defer rows.Close()

		for rows.Next() {
			rec, err := t.m.Scan(rows)
			if err != nil {
				return fmt.Errorf("map %s row: %w", t.m.Table, err)
			}
			out = append(out, rec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Post inserts rec unless a record with the same key exists.
func (t *Table[T, K]) Post(ctx context.Context, rec T) error {
	key := t.m.KeyOf(rec)
	return t.withConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		n, err := t.count(ctx, conn, key)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrDuplicateKey
		}

		args := make([]any, 0, len(t.m.Columns))
		for _, c := range t.m.Columns {
			args = append(args, c.Value(rec))
		}
		if _, err := conn.ExecContext(ctx, t.insertSQL, args...); err != nil {
			if isConstraintViolation(err) {
				return ErrDuplicateKey
			}
			return fmt.Errorf("insert %s: %w", t.m.Table, err)
		}
		return nil
	})
}

// Update overwrites every non-key column of the record stored under key.
func (t *Table[T, K]) Update(ctx context.Context, key K, rec T) error {
	return t.withConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		n, err := t.count(ctx, conn, key)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNoRecord
		}

		args := make([]any, 0, len(t.m.Columns))
		for _, c := range t.m.Columns {
			if c.Name != t.m.Key {
				args = append(args, c.Value(rec))
			}
		}
		args = append(args, key)
		if _, err := conn.ExecContext(ctx, t.updateSQL, args...); err != nil {
			return fmt.Errorf("update %s: %w", t.m.Table, err)
		}
		return nil
	})
}

// Delete removes the record stored under key.
func (t *Table[T, K]) Delete(ctx context.Context, key K) error {
	return t.withConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		n, err := t.count(ctx, conn, key)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNoRecord
		}
		if _, err := conn.ExecContext(ctx, t.deleteSQL, key); err != nil {
			return fmt.Errorf("delete %s: %w", t.m.Table, err)
		}
		return nil
	})
}

func (t *Table[T, K]) count(ctx context.Context, conn *sql.Conn, key K) (int, error) {
	var n int
	if err := conn.QueryRowContext(ctx, t.countSQL, key).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", t.m.Table, err)
	}
	return n, nil
}

func isConstraintViolation(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey || se.ExtendedCode == sqlite3.ErrConstraintUnique
}
