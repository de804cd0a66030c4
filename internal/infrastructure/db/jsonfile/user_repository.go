package jsonfile

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/grindelf/accounts/internal/core/domain"
)

// UserRepository stores users as an array of {name, password, status}
// objects. Lookups scan linearly; name uniqueness is checked on save.
type UserRepository struct {
	doc *Document[domain.User]
}

// NewUserRepository opens the users document at path.
func NewUserRepository(path string, opts ...Option) (*UserRepository, error) {
	doc, err := Open[domain.User](path, opts...)
	if err != nil {
		return nil, err
	}
	return &UserRepository{doc: doc}, nil
}

func (r *UserRepository) GetByName(ctx context.Context, name string) (*domain.User, error) {
	users, err := r.doc.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	i := indexOf(users, name)
	if i < 0 {
		return nil, domain.ErrUserNotFound
	}
	u := users[i]
	return &u, nil
}

func (r *UserRepository) GetAll(ctx context.Context) ([]domain.User, error) {
	users, err := r.doc.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (r *UserRepository) Save(ctx context.Context, user domain.User) error {
	if _, err := user.Role.MarshalText(); err != nil {
		return err
	}
	return r.doc.Mutate(ctx, func(users []domain.User) ([]domain.User, error) {
		if indexOf(users, user.Name) >= 0 {
			return nil, domain.ErrUserExists
		}
		return append(users, user), nil
	})
}

func (r *UserRepository) Update(ctx context.Context, user domain.User) error {
	if _, err := user.Role.MarshalText(); err != nil {
		return err
	}
	return r.doc.Mutate(ctx, func(users []domain.User) ([]domain.User, error) {
		i := indexOf(users, user.Name)
		if i < 0 {
			return nil, domain.ErrUserNotFound
		}
		users[i] = user
		return users, nil
	})
}

func (r *UserRepository) Delete(ctx context.Context, name string) error {
	return r.doc.Mutate(ctx, func(users []domain.User) ([]domain.User, error) {
		i := indexOf(users, name)
		if i < 0 {
			return nil, domain.ErrUserNotFound
		}
		return slices.Delete(users, i, i+1), nil
	})
}

func (r *UserRepository) Backend() string {
	return "json"
}

// Ping checks that the document file is still there.
func (r *UserRepository) Ping(ctx context.Context) error {
	_, err := os.Stat(r.doc.Path())
	return err
}

func indexOf(users []domain.User, name string) int {
	return slices.IndexFunc(users, func(u domain.User) bool { return u.Name == name })
}
