package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/querylens/querylens/internal/config"
	"github.com/querylens/querylens/internal/database"
	"github.com/querylens/querylens/internal/demo/seed"
	"github.com/querylens/querylens/internal/observability"
)

func main() {
	cfg, err := config.LoadFromEnv("querylens-seed")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	seedCfg, err := seed.LoadConfigFromEnv(os.LookupEnv)
	if err != nil {
		slog.Error("failed to load seed config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, database.DBConfig{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	seeder, err := seed.NewSeeder(db, cfg.Database.Driver, seedCfg, logger)
	if err != nil {
		logger.Error("failed to initialize seeder", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("seeding demo database",
		slog.Int64("seed", seedCfg.Seed),
		slog.Int("sales", seedCfg.Sales),
		slog.Bool("reset", seedCfg.Reset),
	)
	summary, err := seeder.Run(ctx)
	if err != nil {
		logger.Error("seeding failed", slog.Any("error", err))
		stop()
		os.Exit(1)
	}
	logger.Info("demo database seeded", slog.Any("rows", summary))
}
