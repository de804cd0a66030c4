package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/grindelf/accounts/internal/core/ports"
	"github.com/grindelf/accounts/internal/infrastructure/config"
	"github.com/grindelf/accounts/internal/infrastructure/db/jsonfile"
	redisdb "github.com/grindelf/accounts/internal/infrastructure/db/redis"
	"github.com/grindelf/accounts/internal/infrastructure/db/sqlite"
)

type backendRepository interface {
	ports.UserRepository
	ports.StorageProbe
}

// Storage is the user repository chosen by configuration together with the
// connections it owns.
type Storage struct {
	Users ports.UserRepository
	Probe ports.StorageProbe
	// Redis is set only when the JSON backend runs with the cross-process lock.
	Redis *redis.Client

	db *sql.DB
}

// OpenStorage opens the backend named by cfg.Storage.Backend.
func OpenStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Storage, error) {
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		return openSQLite(ctx, cfg, log)
	case config.BackendJSON:
		return openJSON(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func openSQLite(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Storage, error) {
	db, err := sqlite.Open(ctx, sqlite.Config{Path: cfg.Storage.SQLitePath, Timeout: cfg.Storage.Timeout})
	if err != nil {
		return nil, err
	}
	repo, err := sqlite.NewUserRepository(ctx, db, cfg.Storage.Timeout)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Info().Str("backend", repo.Backend()).Str("path", cfg.Storage.SQLitePath).Msg("storage opened")
	return newStorage(repo, nil, db), nil
}

func openJSON(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Storage, error) {
	var (
		opts = []jsonfile.Option{jsonfile.WithTimeout(cfg.Storage.Timeout)}
		rdb  *redis.Client
	)
	if cfg.Redis.Enabled() {
		client, err := redisdb.Connect(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			Password: cfg.Redis.Password,
			Timeout:  cfg.Storage.Timeout,
		})
		if err != nil {
			return nil, err
		}
		rdb = client
		opts = append(opts, jsonfile.WithLocker(redisdb.NewLock(client, cfg.Redis.LockKey, cfg.Redis.LockTTL)))
	}

	repo, err := jsonfile.NewUserRepository(cfg.Storage.JSONPath, opts...)
	if err != nil {
		if rdb != nil {
			_ = rdb.Close()
		}
		return nil, err
	}

	log.Info().
		Str("backend", repo.Backend()).
		Str("path", cfg.Storage.JSONPath).
		Bool("redis_lock", rdb != nil).
		Msg("storage opened")
	return newStorage(repo, rdb, nil), nil
}

func newStorage(repo backendRepository, rdb *redis.Client, db *sql.DB) *Storage {
	return &Storage{Users: repo, Probe: repo, Redis: rdb, db: db}
}

// Close releases the database handle and the Redis client, if any.
func (s *Storage) Close() error {
	var errs []error
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close sqlite: %w", err))
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	return errors.Join(errs...)
}
