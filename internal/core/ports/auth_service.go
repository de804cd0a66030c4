package ports

import (
	"context"

	"github.com/grindelf/accounts/internal/core/domain"
)

type AuthService interface {
	Signup(ctx context.Context, name, password string) (*domain.User, error)
	Login(ctx context.Context, name, password string) (*domain.User, error)
}
