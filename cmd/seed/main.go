package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/landlordheaven/heaven-backend/internal/seed"
	"github.com/landlordheaven/heaven-backend/pkg/config"
	"github.com/landlordheaven/heaven-backend/pkg/db"
	"github.com/landlordheaven/heaven-backend/pkg/logger"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "seed"})
	_ = godotenv.Load()

	file := flag.String("file", "", "fixture YAML file (defaults to the embedded fixtures)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	if cfg.App.IsProd() {
		fmt.Fprintln(os.Stderr, "refusing to seed a production database")
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{"env": cfg.App.Env})

	raw := seed.Default()
	if *file != "" {
		raw, err = os.ReadFile(*file)
		if err != nil {
			logg.Error(ctx, "failed to read fixture file", err)
			os.Exit(1)
		}
	}
	fixtures, err := seed.Parse(raw)
	if err != nil {
		logg.Error(ctx, "invalid fixtures", err)
		os.Exit(1)
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to connect to database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	res, err := seed.Load(ctx, dbClient.DB(), fixtures)
	if err != nil {
		logg.Error(ctx, "seed failed", err)
		_ = dbClient.Close()
		os.Exit(1)
	}
	logg.Info(logg.WithFields(ctx, map[string]any{
		"users":               res.Users,
		"cases":               res.Cases,
		"orders":              res.Orders,
		"legal_change_events": res.LegalChangeEvents,
	}), "seed finished")
}
