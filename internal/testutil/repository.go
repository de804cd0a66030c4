// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grindelf/accounts/internal/core/domain"
	"github.com/grindelf/accounts/internal/core/ports"
)

// RunUserRepositoryContract exercises the behaviour every ports.UserRepository
// must share. newRepo is called once per subtest and must return an empty
// repository.
func RunUserRepositoryContract(t *testing.T, newRepo func(t *testing.T) ports.UserRepository) {
	t.Helper()
	ctx := context.Background()

	t.Run("empty storage", func(t *testing.T) {
		repo := newRepo(t)

		all, err := repo.GetAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)

		_, err = repo.GetByName(ctx, "alice")
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("save then get", func(t *testing.T) {
		repo := newRepo(t)
		admin := domain.User{Name: "root", Password: "toor", Role: domain.RoleAdmin}

		require.NoError(t, repo.Save(ctx, domain.NewUser("alice", "pw1")))
		require.NoError(t, repo.Save(ctx, admin))

		got, err := repo.GetByName(ctx, "root")
		require.NoError(t, err)
		assert.Equal(t, admin, *got)

		all, err := repo.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "alice", all[0].Name)
		assert.Equal(t, domain.RoleJustUser, all[0].Role)
		assert.Equal(t, "root", all[1].Name)
	})

	t.Run("duplicate save keeps original", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Save(ctx, domain.NewUser("alice", "pw1")))

		err := repo.Save(ctx, domain.User{Name: "alice", Password: "pw2", Role: domain.RoleAdmin})
		assert.ErrorIs(t, err, domain.ErrUserExists)

		got, err := repo.GetByName(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "pw1", got.Password)
		assert.Equal(t, domain.RoleJustUser, got.Role)

		all, err := repo.GetAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("update", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Save(ctx, domain.NewUser("alice", "pw1")))
		require.NoError(t, repo.Save(ctx, domain.NewUser("bob", "pw")))

		require.NoError(t, repo.Update(ctx, domain.User{Name: "alice", Password: "pw2", Role: domain.RoleAdmin}))

		got, err := repo.GetByName(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "pw2", got.Password)
		assert.True(t, got.IsAdmin())

		bob, err := repo.GetByName(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, "pw", bob.Password)

		err = repo.Update(ctx, domain.NewUser("ghost", "x"))
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("delete is not idempotent", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Save(ctx, domain.NewUser("alice", "pw1")))
		require.NoError(t, repo.Save(ctx, domain.NewUser("bob", "pw")))

		assert.ErrorIs(t, repo.Delete(ctx, "ghost"), domain.ErrUserNotFound)
		require.NoError(t, repo.Delete(ctx, "alice"))
		assert.ErrorIs(t, repo.Delete(ctx, "alice"), domain.ErrUserNotFound)

		_, err := repo.GetByName(ctx, "alice")
		assert.ErrorIs(t, err, domain.ErrUserNotFound)

		all, err := repo.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "bob", all[0].Name)
	})

	t.Run("undeclared role is rejected", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Save(ctx, domain.NewUser("alice", "pw1")))

		err := repo.Save(ctx, domain.User{Name: "x", Password: "p", Role: domain.Role(9)})
		assert.ErrorIs(t, err, domain.ErrUnknownRole)
		err = repo.Update(ctx, domain.User{Name: "alice", Password: "pw2", Role: domain.Role(9)})
		assert.ErrorIs(t, err, domain.ErrUnknownRole)

		all, err := repo.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, domain.NewUser("alice", "pw1"), all[0])
	})

	t.Run("lookup is exact", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Save(ctx, domain.NewUser("Alice", "pw")))

		_, err := repo.GetByName(ctx, "alice")
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}
