package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const (
	defaultTimeout = 5 * time.Second
	busyTimeoutMS  = 5000
)

// Config captures the settings for opening the SQLite users database.
type Config struct {
	// Path is a file path or a sqlite3 DSN such as "file:x?mode=memory".
	Path    string
	Timeout time.Duration
}

const usersSchema = `CREATE TABLE IF NOT EXISTS users (
	name     TEXT PRIMARY KEY,
	password TEXT NOT NULL,
	status   TEXT NOT NULL DEFAULT 'just_user'
)`

// Open opens (or creates) the database at cfg.Path, verifies connectivity and
// makes sure the users table exists. It does not evolve an existing schema.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	path := cfg.Path
	if path == "" {
		path = "users.db"
	}
	if !strings.HasPrefix(path, "file:") {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("sqlite mkdir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", withBusyTimeout(path))
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	openCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(openCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}
	if _, err := db.ExecContext(openCtx, usersSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite bootstrap users table: %w", err)
	}
	return db, nil
}

// withBusyTimeout appends the driver's busy timeout parameter so that every
// pooled connection waits on a locked database instead of failing at once.
func withBusyTimeout(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_busy_timeout=%d", dsn, sep, busyTimeoutMS)
}
