package ports

import (
	"context"

	"github.com/grindelf/accounts/internal/core/domain"
)

// UserRepository is the storage contract every backend implements in full.
// Lookups and mutations are keyed by user name.
type UserRepository interface {
	// GetByName returns domain.ErrUserNotFound when no user has the name.
	GetByName(ctx context.Context, name string) (*domain.User, error)
	// GetAll returns every stored user in backend read order.
	GetAll(ctx context.Context) ([]domain.User, error)
	// Save returns domain.ErrUserExists when the name is already taken.
	Save(ctx context.Context, user domain.User) error
	// Update replaces the user stored under user.Name.
	Update(ctx context.Context, user domain.User) error
	// Delete removes the user stored under name.
	Delete(ctx context.Context, name string) error
}

// StorageProbe reports on the health of the configured backend.
type StorageProbe interface {
	Backend() string
	Ping(ctx context.Context) error
}
