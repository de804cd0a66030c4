package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/grindelf/accounts/internal/core/domain"
)

const usersTable = "users"

// UserMapping is the declared field-to-column mapping of domain.User onto the
// users table. The role travels as its string encoding in the status column.
var UserMapping = Mapping[domain.User, string]{
	Table: usersTable,
	Key:   "name",
	KeyOf: func(u domain.User) string { return u.Name },
	Columns: []Column[domain.User]{
		{Name: "name", Value: func(u domain.User) any { return u.Name }},
		{Name: "password", Value: func(u domain.User) any { return u.Password }},
		{Name: "status", Value: func(u domain.User) any { return u.Role.String() }},
	},
	Scan: scanUser,
}

func scanUser(row RowScanner) (domain.User, error) {
	var (
		u      domain.User
		status string
	)
	if err := row.Scan(&u.Name, &u.Password, &status); err != nil {
		return domain.User{}, err
	}
	role, err := domain.ParseRole(status)
	if err != nil {
		return domain.User{}, err
	}
	u.Role = role
	return u, nil
}

// UserRepository stores users in the SQLite users table.
type UserRepository struct {
	db    *sql.DB
	table *Table[domain.User, string]
}

// NewUserRepository validates UserMapping against the live schema.
func NewUserRepository(ctx context.Context, db *sql.DB, timeout time.Duration) (*UserRepository, error) {
	table, err := NewTable(ctx, db, UserMapping, timeout)
	if err != nil {
		return nil, err
	}
	return &UserRepository{db: db, table: table}, nil
}

func (r *UserRepository) GetByName(ctx context.Context, name string) (*domain.User, error) {
	u, err := r.table.GetByKey(ctx, name)
	if err != nil {
		return nil, translate(err, "get user")
	}
	return &u, nil
}

func (r *UserRepository) GetAll(ctx context.Context) ([]domain.User, error) {
	users, err := r.table.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Save inserts user. A role without a declared encoding is rejected before
// anything is written.
func (r *UserRepository) Save(ctx context.Context, user domain.User) error {
	if _, err := user.Role.MarshalText(); err != nil {
		return err
	}
	return translate(r.table.Post(ctx, user), "insert user")
}

func (r *UserRepository) Update(ctx context.Context, user domain.User) error {
	if _, err := user.Role.MarshalText(); err != nil {
		return err
	}
	return translate(r.table.Update(ctx, user.Name, user), "update user")
}

func (r *UserRepository) Delete(ctx context.Context, name string) error {
	return translate(r.table.Delete(ctx, name), "delete user")
}

func (r *UserRepository) Backend() string {
	return "sqlite"
}

func (r *UserRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func translate(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNoRecord):
		return domain.ErrUserNotFound
	case errors.Is(err, ErrDuplicateKey):
		return domain.ErrUserExists
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
