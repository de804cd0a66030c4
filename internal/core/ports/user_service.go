package ports

import (
	"context"

	"github.com/grindelf/accounts/internal/core/domain"
)

// UserService covers account administration that is not reachable from the
// public HTTP surface.
type UserService interface {
	List(ctx context.Context) ([]domain.User, error)
	Get(ctx context.Context, name string) (*domain.User, error)
	Create(ctx context.Context, name, password string, role domain.Role) (*domain.User, error)
	SetRole(ctx context.Context, name string, role domain.Role) (*domain.User, error)
	ChangePassword(ctx context.Context, name, password string) error
	Delete(ctx context.Context, name string) error
}
