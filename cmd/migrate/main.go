package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/landlordheaven/heaven-backend/pkg/config"
	"github.com/landlordheaven/heaven-backend/pkg/db"
	"github.com/landlordheaven/heaven-backend/pkg/logger"
	"github.com/landlordheaven/heaven-backend/pkg/migrate"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var dir string
	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Manage the Landlord Heaven Postgres schema",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&dir, "dir", "", "migrations directory (default: the set built into this binary)")

	for _, c := range []struct{ use, short string }{
		{"up", "apply every pending migration"},
		{"down", "roll back the latest migration"},
		{"redo", "roll back and reapply the latest migration"},
		{"status", "print applied and pending migrations"},
	} {
		command := c.use
		root.AddCommand(&cobra.Command{
			Use:   command,
			Short: c.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDB(cmd.Context(), command, func(ctx context.Context, sqlDB *sql.DB) error {
					return migrate.Run(ctx, sqlDB, dir, command)
				})
			},
		})
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "goto VERSION",
			Short: "migrate up or down to VERSION (YYYYMMDDHHMMSS, 0 for empty)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				target, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return withDB(cmd.Context(), "goto", func(ctx context.Context, sqlDB *sql.DB) error {
					return migrate.Goto(ctx, sqlDB, dir, target)
				})
			},
		},
		&cobra.Command{
			Use:   "create NAME",
			Short: "write an empty migration file",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				target := dir
				if target == "" {
					target = migrate.SourceDir
				}
				path, err := migrate.CreateSQLMigration(target, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "created", path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "validate",
			Short: "check migration names and goose sections",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := migrate.ValidateDir(dir); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations ok")
				return nil
			},
		},
	)
	return root
}

// withDB loads config, opens Postgres and hands fn the underlying *sql.DB.
func withDB(ctx context.Context, command string, fn func(context.Context, *sql.DB) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "cmd": command})

	if cfg.DB.Driver == config.DriverSQLite {
		err := errors.New("sqlite schemas are created by the api at startup with HEAVEN_AUTO_MIGRATE=true")
		logg.Error(ctx, "unsupported driver", err)
		return err
	}

	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "database unavailable", err)
		return err
	}
	defer func() {
		if err := client.Close(); err != nil {
			logg.Error(ctx, "closing database", err)
		}
	}()

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}
	if err := fn(ctx, sqlDB); err != nil {
		logg.Error(ctx, "migration failed", err)
		return err
	}
	logg.Info(ctx, "migration finished")
	return nil
}
