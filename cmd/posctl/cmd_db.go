package main

import (
	"context"
	"os"

	"mobile-pos/internal/config"
	"mobile-pos/internal/database"
	"mobile-pos/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// env is the state shared by every command once the database is open
type env struct {
	cfg    *config.Config
	log    *zap.Logger
	db     database.Service
	closer func()
}

// bootDB loads config and opens the database connection. Logs go to stderr
// so an export can stream CSV on stdout.
func bootDB(ctx context.Context) (*env, error) {
	cfg := config.Load()
	log := logger.NewJSON(os.Stderr, zapcore.InfoLevel)

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	return &env{
		cfg: cfg,
		log: log,
		db:  db,
		closer: func() {
			db.Close()
			log.Sync()
		},
	}, nil
}

// posctl migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run all pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := bootDB(cmd.Context())
		if err != nil {
			return err
		}
		defer e.closer()

		return database.RunMigrations(e.db.DB(), e.cfg.Server.MigrationsDir, e.log)
	},
}

// posctl migrate:rollback
var migrateRollbackCmd = &cobra.Command{
	Use:   "migrate:rollback",
	Short: "Roll back the most recent migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := bootDB(cmd.Context())
		if err != nil {
			return err
		}
		defer e.closer()

		return database.RollbackMigration(e.db.DB(), e.cfg.Server.MigrationsDir, e.log)
	},
}

// posctl migrate:status
var migrateStatusCmd = &cobra.Command{
	Use:   "migrate:status",
	Short: "Show the status of each migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := bootDB(cmd.Context())
		if err != nil {
			return err
		}
		defer e.closer()

		return database.GetMigrationStatus(e.db.DB(), e.cfg.Server.MigrationsDir)
	},
}
