// Package app wires configuration, storage and the HTTP router into a
// runnable server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/grindelf/accounts/internal/api"
	"github.com/grindelf/accounts/internal/api/metrics"
	"github.com/grindelf/accounts/internal/core/service"
	"github.com/grindelf/accounts/internal/infrastructure/config"
)

// App represents the application instance.
type App struct {
	config  *config.Config
	logger  zerolog.Logger
	storage *Storage
	router  *echo.Echo
	server  *http.Server
}

// New opens storage and builds the router. The caller owns the returned App
// and must call Shutdown.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	storage, err := OpenStorage(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	users := metrics.InstrumentRepository(storage.Users, storage.Probe.Backend(), m)
	router, err := api.NewRouter(api.Deps{
		Auth:     service.NewAuthService(users, m, log),
		Storage:  storage.Probe,
		Redis:    storage.Redis,
		Registry: reg,
		Log:      log,
	})
	if err != nil {
		_ = storage.Close()
		return nil, fmt.Errorf("setup router: %w", err)
	}

	return &App{
		config:  cfg,
		logger:  log,
		storage: storage,
		router:  router,
		server: &http.Server{
			Addr:              net.JoinHostPort("", cfg.Port),
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}, nil
}

// Handler exposes the router, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.router
}

// Run serves HTTP until Shutdown is called.
func (a *App) Run() error {
	a.logger.Info().
		Str("port", a.config.Port).
		Str("backend", a.storage.Probe.Backend()).
		Msg("starting server")

	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones and closes
// storage.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info().Msg("shutting down server")

	var errs []error
	if err := a.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown server: %w", err))
	}
	if err := a.storage.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
