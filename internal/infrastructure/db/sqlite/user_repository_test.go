package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grindelf/accounts/internal/core/domain"
	"github.com/grindelf/accounts/internal/core/ports"
	"github.com/grindelf/accounts/internal/testutil"
)

func TestUserRepository_Contract(t *testing.T) {
	testutil.RunUserRepositoryContract(t, func(t *testing.T) ports.UserRepository {
		repo, err := NewUserRepository(context.Background(), openTestDB(t), time.Second)
		require.NoError(t, err)
		return repo
	})
}

func TestUserRepository_StatusColumnEncoding(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo, err := NewUserRepository(ctx, db, time.Second)
	require.NoError(t, err)

	require.NoError(t, repo.Save(ctx, domain.User{Name: "root", Password: "toor", Role: domain.RoleAdmin}))
	require.NoError(t, repo.Save(ctx, domain.NewUser("alice", "pw")))

	var status string
	require.NoError(t, db.QueryRow(`SELECT status FROM users WHERE name = 'root'`).Scan(&status))
	assert.Equal(t, "admin", status)
	require.NoError(t, db.QueryRow(`SELECT status FROM users WHERE name = 'alice'`).Scan(&status))
	assert.Equal(t, "just_user", status)
}

func TestUserRepository_UnknownStatusFailsToMap(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo, err := NewUserRepository(ctx, db, time.Second)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO users (name, password, status) VALUES ('eve', 'pw', 'superuser')`)
	require.NoError(t, err)

	_, err = repo.GetByName(ctx, "eve")
	assert.ErrorIs(t, err, domain.ErrUnknownRole)
}

func TestUserRepository_Probe(t *testing.T) {
	repo, err := NewUserRepository(context.Background(), openTestDB(t), time.Second)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", repo.Backend())
	assert.NoError(t, repo.Ping(context.Background()))
}
