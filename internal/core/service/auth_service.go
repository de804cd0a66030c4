package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/grindelf/accounts/internal/core/domain"
	"github.com/grindelf/accounts/internal/core/ports"
)

// AuthRecorder receives the outcome of every signup and login.
type AuthRecorder interface {
	LoginAttempt(result string)
	Signup(result string)
}

// AuthService implements signup and login against a UserRepository.
type AuthService struct {
	repo     ports.UserRepository
	recorder AuthRecorder
	log      zerolog.Logger
}

func NewAuthService(repo ports.UserRepository, recorder AuthRecorder, log zerolog.Logger) *AuthService {
	return &AuthService{repo: repo, recorder: recorder, log: log}
}

// Signup stores a new plain user. It fails with domain.ErrUserExists when the
// name is taken.
func (s *AuthService) Signup(ctx context.Context, name, password string) (*domain.User, error) {
	user := domain.NewUser(name, password)
	if err := user.Validate(); err != nil {
		s.recorder.Signup("invalid")
		return nil, err
	}

	if err := s.repo.Save(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			s.recorder.Signup("name_taken")
			s.logger(ctx).Info().Str("name", name).Msg("signup rejected: name taken")
			return nil, err
		}
		s.recorder.Signup("error")
		return nil, err
	}

	s.recorder.Signup("created")
	s.logger(ctx).Info().Str("name", name).Msg("user signed up")
	return &user, nil
}

// Login returns the stored user when name and password match it. Unknown names
// and wrong passwords both yield domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, name, password string) (*domain.User, error) {
	if name == "" || password == "" {
		s.recorder.LoginAttempt("invalid_credentials")
		return nil, domain.ErrInvalidCredentials
	}

	stored, err := s.repo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.recorder.LoginAttempt("invalid_credentials")
			s.logger(ctx).Info().Str("name", name).Msg("login rejected: unknown user")
			return nil, domain.ErrInvalidCredentials
		}
		s.recorder.LoginAttempt("error")
		return nil, err
	}

	if !stored.Equal(domain.User{Name: name, Password: password}) {
		s.recorder.LoginAttempt("invalid_credentials")
		s.logger(ctx).Info().Str("name", name).Msg("login rejected: password mismatch")
		return nil, domain.ErrInvalidCredentials
	}

	s.recorder.LoginAttempt("success")
	s.logger(ctx).Info().Str("name", name).Stringer("role", stored.Role).Msg("user logged in")
	return stored, nil
}

func (s *AuthService) logger(ctx context.Context) *zerolog.Logger {
	return loggerFrom(ctx, &s.log)
}
