package main

import (
	"context"
	"io"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"

	"github.com/grindelf/accounts/internal/app"
	"github.com/grindelf/accounts/internal/core/ports"
	"github.com/grindelf/accounts/internal/core/service"
	"github.com/grindelf/accounts/internal/infrastructure/config"
	"github.com/grindelf/accounts/pkg/logger"
)

// cli holds the state shared by every subcommand. users and storage are set
// by the root PersistentPreRunE and released by execute.
type cli struct {
	lookup envconfig.Lookuper

	backend    string
	sqlitePath string
	jsonPath   string
	verbose    bool

	storage *app.Storage
	users   ports.UserService
}

func newCLI(lookup envconfig.Lookuper) *cli {
	return &cli{lookup: lookup}
}

// execute runs the command line in args and releases storage afterwards,
// whether or not the command succeeded.
func (c *cli) execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	defer c.close()
	return root.ExecuteContext(ctx)
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "userctl",
		Short:        "userctl manages accounts in the user storage",
		Long:         "userctl manages accounts in the user storage. It reads the same environment configuration as the server.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.open(cmd)
		},
	}

	root.PersistentFlags().StringVar(&c.backend, "backend", "", "storage backend: sqlite or json (overrides STORAGE_BACKEND)")
	root.PersistentFlags().StringVar(&c.sqlitePath, "sqlite-path", "", "SQLite database file (overrides SQLITE_PATH)")
	root.PersistentFlags().StringVar(&c.jsonPath, "json-path", "", "JSON users file (overrides JSON_PATH)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log storage activity to stderr")

	root.AddCommand(
		c.listCmd(),
		c.getCmd(),
		c.addCmd(),
		c.setRoleCmd(),
		c.passwdCmd(),
		c.deleteCmd(),
	)
	return root
}

func (c *cli) open(cmd *cobra.Command) error {
	cfg, err := config.LoadWith(cmd.Context(), c.lookup)
	if err != nil {
		return err
	}
	if c.backend != "" {
		cfg.Storage.Backend = c.backend
	}
	if c.sqlitePath != "" {
		cfg.Storage.SQLitePath = c.sqlitePath
	}
	if c.jsonPath != "" {
		cfg.Storage.JSONPath = c.jsonPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := zerolog.Nop()
	if c.verbose {
		log = logger.New(logger.Options{Level: cfg.LogLevel, Pretty: true, Output: cmd.ErrOrStderr()})
	}

	storage, err := app.OpenStorage(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	c.storage = storage
	c.users = service.NewUserService(storage.Users, log)
	return nil
}

func (c *cli) close() error {
	if c.storage == nil {
		return nil
	}
	err := c.storage.Close()
	c.storage = nil
	return err
}
