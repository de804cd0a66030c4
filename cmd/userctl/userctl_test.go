package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	t    *testing.T
	env  map[string]string
	path string
}

func newHarness(t *testing.T) *harness {
	dir := t.TempDir()
	return &harness{
		t:    t,
		path: filepath.Join(dir, "users.json"),
		env: map[string]string{
			"STORAGE_BACKEND": "json",
			"JSON_PATH":       filepath.Join(dir, "users.json"),
			"SQLITE_PATH":     filepath.Join(dir, "users.db"),
		},
	}
}

func (h *harness) run(args ...string) (string, string, error) {
	h.t.Helper()
	var stdout, stderr bytes.Buffer
	err := newCLI(envconfig.MapLookuper(h.env)).execute(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, stderr, err := h.run(args...)
	require.NoError(h.t, err, "userctl %s: %s", strings.Join(args, " "), stderr)
	return out
}

func TestUserctl_Lifecycle(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, "created alice (just_user)\n", h.mustRun("add", "alice", "pw1"))
	assert.Equal(t, "created root (admin)\n", h.mustRun("add", "root", "toor", "--admin"))

	out := h.mustRun("list")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"NAME", "ROLE"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"alice", "just_user"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"root", "admin"}, strings.Fields(lines[2]))

	assert.Equal(t, "alice is now admin\n", h.mustRun("set-role", "alice", "admin"))
	assert.Equal(t, "name: alice\nrole: admin\n", h.mustRun("get", "alice"))

	h.mustRun("passwd", "alice", "pw2")
	data, err := os.ReadFile(h.path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"password":"pw2"`)

	assert.Equal(t, "deleted alice\n", h.mustRun("delete", "alice"))
	_, stderr, err := h.run("delete", "alice")
	require.Error(t, err)
	assert.Contains(t, stderr, "user not found")
}

func TestUserctl_Errors(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "alice", "pw")

	_, stderr, err := h.run("add", "alice", "other")
	require.Error(t, err)
	assert.Contains(t, stderr, "user already exists")

	_, _, err = h.run("set-role", "alice", "superuser")
	assert.Error(t, err)

	_, _, err = h.run("get")
	assert.Error(t, err)
}

func TestUserctl_FlagsOverrideEnvironment(t *testing.T) {
	h := newHarness(t)
	dbPath := filepath.Join(t.TempDir(), "other.db")

	h.mustRun("--backend", "sqlite", "--sqlite-path", dbPath, "add", "bob", "pw")

	_, err := os.Stat(dbPath)
	require.NoError(t, err)
	assert.Contains(t, h.mustRun("--backend", "sqlite", "--sqlite-path", dbPath, "list"), "bob")
	// The JSON file from the environment was never touched.
	assert.NotContains(t, h.mustRun("list"), "bob")
}

func TestUserctl_RejectsUnknownBackend(t *testing.T) {
	h := newHarness(t)

	_, stderr, err := h.run("--backend", "mongo", "list")
	require.Error(t, err)
	assert.Contains(t, stderr, "unknown STORAGE_BACKEND")
}
