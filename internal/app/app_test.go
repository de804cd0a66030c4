package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grindelf/accounts/internal/core/domain"
	"github.com/grindelf/accounts/internal/infrastructure/config"
)

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg, err := config.LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"STORAGE_BACKEND": backend,
		"SQLITE_PATH":     filepath.Join(dir, "users.db"),
		"JSON_PATH":       filepath.Join(dir, "users.json"),
	}))
	require.NoError(t, err)
	return cfg
}

func postForm(h http.Handler, target, name, password string) *httptest.ResponseRecorder {
	form := url.Values{"name": {name}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestApp_BothBackendsServeTheSameFlow(t *testing.T) {
	for _, backend := range []string{config.BackendSQLite, config.BackendJSON} {
		t.Run(backend, func(t *testing.T) {
			a, err := New(context.Background(), testConfig(t, backend), zerolog.Nop())
			require.NoError(t, err)
			t.Cleanup(func() { assert.NoError(t, a.Shutdown(context.Background())) })

			h := a.Handler()
			assert.Equal(t, http.StatusCreated, postForm(h, "/signup", "alice", "pw1").Code)
			assert.Equal(t, http.StatusOK, postForm(h, "/login", "alice", "pw1").Code)
			assert.Equal(t, http.StatusConflict, postForm(h, "/signup", "alice", "pw2").Code)
			assert.Equal(t, http.StatusUnauthorized, postForm(h, "/login", "alice", "wrong").Code)

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), `"`+backend+`"`)

			rec = httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
			assert.Contains(t, rec.Body.String(), "go_goroutines")
		})
	}
}

func TestOpenStorage_PersistsAcrossReopen(t *testing.T) {
	for _, backend := range []string{config.BackendSQLite, config.BackendJSON} {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			cfg := testConfig(t, backend)

			s, err := OpenStorage(ctx, cfg, zerolog.Nop())
			require.NoError(t, err)
			require.NoError(t, s.Users.Save(ctx, domain.User{Name: "root", Password: "toor", Role: domain.RoleAdmin}))
			require.NoError(t, s.Close())

			s, err = OpenStorage(ctx, cfg, zerolog.Nop())
			require.NoError(t, err)
			defer s.Close()

			u, err := s.Users.GetByName(ctx, "root")
			require.NoError(t, err)
			assert.True(t, u.IsAdmin())
			assert.Equal(t, backend, s.Probe.Backend())
			assert.Nil(t, s.Redis)
		})
	}
}

func TestOpenStorage_JSONWithRedisLock(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t, config.BackendJSON)
	cfg.Redis.Addr = mr.Addr()

	a, err := New(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, a.Shutdown(context.Background())) })
	require.NotNil(t, a.storage.Redis)

	h := a.Handler()
	assert.Equal(t, http.StatusCreated, postForm(h, "/signup", "alice", "pw1").Code)
	assert.Equal(t, http.StatusOK, postForm(h, "/login", "alice", "pw1").Code)
	// Every lock was released.
	assert.False(t, mr.Exists(cfg.Redis.LockKey))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":{"status":"ok"}`)
}

func TestOpenStorage_UnknownBackend(t *testing.T) {
	cfg := testConfig(t, config.BackendJSON)
	cfg.Storage.Backend = "mongo"

	_, err := OpenStorage(context.Background(), cfg, zerolog.Nop())
	assert.ErrorContains(t, err, `unknown storage backend "mongo"`)
}
