package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/grindelf/accounts/internal/core/domain"
	"github.com/grindelf/accounts/internal/core/ports"
)

// UserService implements account administration on top of a UserRepository.
type UserService struct {
	repo ports.UserRepository
	log  zerolog.Logger
}

func NewUserService(repo ports.UserRepository, log zerolog.Logger) *UserService {
	return &UserService{repo: repo, log: log}
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.repo.GetAll(ctx)
}

func (s *UserService) Get(ctx context.Context, name string) (*domain.User, error) {
	return s.repo.GetByName(ctx, name)
}

func (s *UserService) Create(ctx context.Context, name, password string, role domain.Role) (*domain.User, error) {
	user := domain.User{Name: name, Password: password, Role: role}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}
	loggerFrom(ctx, &s.log).Info().Str("name", name).Stringer("role", role).Msg("user created")
	return &user, nil
}

func (s *UserService) SetRole(ctx context.Context, name string, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %d", domain.ErrUnknownRole, uint8(role))
	}
	user, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	user.Role = role
	if err := s.repo.Update(ctx, *user); err != nil {
		return nil, err
	}
	loggerFrom(ctx, &s.log).Info().Str("name", name).Stringer("role", role).Msg("user role changed")
	return user, nil
}

func (s *UserService) ChangePassword(ctx context.Context, name, password string) error {
	if password == "" {
		return domain.ErrInvalidUser
	}
	user, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return err
	}
	user.Password = password
	if err := s.repo.Update(ctx, *user); err != nil {
		return err
	}
	loggerFrom(ctx, &s.log).Info().Str("name", name).Msg("user password changed")
	return nil
}

func (s *UserService) Delete(ctx context.Context, name string) error {
	if err := s.repo.Delete(ctx, name); err != nil {
		return err
	}
	loggerFrom(ctx, &s.log).Info().Str("name", name).Msg("user deleted")
	return nil
}
