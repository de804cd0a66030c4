package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/grindelf/accounts/internal/core/domain"
)

func TestUserService_CreateAndList(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserService(repo, zerolog.Nop())
	ctx := context.Background()

	if _, err := svc.Create(ctx, "root", "toor", domain.RoleAdmin); err != nil {
		t.Fatalf("create admin: %v", err)
	}
	if _, err := svc.Create(ctx, "alice", "pw", domain.RoleJustUser); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := svc.Create(ctx, "alice", "pw", domain.RoleJustUser); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}

	users, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 2 || users[0].Name != "root" || users[1].Name != "alice" {
		t.Fatalf("unexpected users: %+v", users)
	}
}

func TestUserService_SetRole(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserService(repo, zerolog.Nop())
	ctx := context.Background()
	_, _ = svc.Create(ctx, "alice", "pw", domain.RoleJustUser)

	user, err := svc.SetRole(ctx, "alice", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("set role: %v", err)
	}
	if !user.IsAdmin() || !repo.users[0].IsAdmin() {
		t.Fatalf("role not persisted: %+v", repo.users[0])
	}
	if _, err := svc.SetRole(ctx, "ghost", domain.RoleAdmin); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := svc.SetRole(ctx, "alice", domain.Role(42)); !errors.Is(err, domain.ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
}

func TestUserService_ChangePassword(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserService(repo, zerolog.Nop())
	ctx := context.Background()
	_, _ = svc.Create(ctx, "alice", "old", domain.RoleAdmin)

	if err := svc.ChangePassword(ctx, "alice", "new"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if repo.users[0].Password != "new" || !repo.users[0].IsAdmin() {
		t.Fatalf("unexpected stored user: %+v", repo.users[0])
	}
	if err := svc.ChangePassword(ctx, "alice", ""); !errors.Is(err, domain.ErrInvalidUser) {
		t.Fatalf("expected ErrInvalidUser, got %v", err)
	}
}

func TestUserService_DeleteTwice(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserService(repo, zerolog.Nop())
	ctx := context.Background()
	_, _ = svc.Create(ctx, "alice", "pw", domain.RoleJustUser)

	if err := svc.Delete(ctx, "alice"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ctx, "alice"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound on second delete, got %v", err)
	}
}
