package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/querylens/querylens/internal/api"
	"github.com/querylens/querylens/internal/archive"
	"github.com/querylens/querylens/internal/auth"
	"github.com/querylens/querylens/internal/chart"
	"github.com/querylens/querylens/internal/config"
	"github.com/querylens/querylens/internal/database"
	"github.com/querylens/querylens/internal/examples"
	"github.com/querylens/querylens/internal/nl2sql"
	"github.com/querylens/querylens/internal/observability"
	"github.com/querylens/querylens/internal/pipeline"
	"github.com/querylens/querylens/internal/query/sqlexec"
	"github.com/querylens/querylens/internal/schema"
	s3store "github.com/querylens/querylens/internal/storage/s3"
)

func main() {
	cfg, err := config.LoadFromEnv("querylens-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)
	db, err := database.Open(context.Background(), database.DBConfig{
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

	dialect, err := schema.DialectFor(cfg.Database.Driver)
	if err != nil {
		logger.Error("failed to select schema dialect", slog.Any("error", err))
		os.Exit(1)
	}

	generator, err := nl2sql.New(context.Background(), nl2sql.Config{
		Provider:    cfg.AI.Provider,
		BaseURL:     cfg.AI.BaseURL,
		APIKey:      cfg.AI.APIKey,
		Model:       cfg.AI.Model,
		Temperature: cfg.AI.Temperature,
		Timeout:     cfg.AI.Timeout,
	})
	if err != nil {
		logger.Error("failed to initialize sql generator", slog.Any("error", err))
		os.Exit(1)
	}

	exampleQueries, err := examples.Load(cfg.Examples.File)
	if err != nil {
		logger.Error("failed to load example queries", slog.Any("error", err))
		os.Exit(1)
	}

	readiness := []api.ReadinessCheck{api.CheckDatabase(db)}
	pipelineDeps := pipeline.Dependencies{
		DB:           db,
		Introspector: schema.NewIntrospector(dialect, logger),
		Generator:    generator,
		Executor: sqlexec.New(sqlexec.Config{
			ReadOnly:     cfg.Pipeline.ReadOnly,
			QueryTimeout: cfg.Pipeline.QueryTimeout,
			MaxRows:      cfg.Pipeline.MaxRows,
		}, logger),
		Selector: chart.NewSelector(chart.DefaultRules()),
		Logger:   logger,
	}
	if cfg.Archive.Enabled {
		storeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		store, err := s3store.New(storeCtx, s3store.Config{
			Endpoint:         cfg.Archive.Endpoint,
			Region:           cfg.Archive.Region,
			Bucket:           cfg.Archive.Bucket,
			AccessKeyID:      cfg.Archive.AccessKeyID,
			SecretAccessKey:  cfg.Archive.SecretAccessKey,
			UseSSL:           cfg.Archive.UseSSL,
			Prefix:           cfg.Archive.Prefix,
			AutoCreateBucket: cfg.Archive.AutoCreateBucket,
		})
		cancel()
		if err != nil {
			logger.Error("failed to initialize answer archive store", slog.Any("error", err))
			os.Exit(1)
		}
		archiver, err := archive.New(store, archive.Options{Timeout: cfg.Archive.Timeout})
		if err != nil {
			logger.Error("failed to initialize answer archive", slog.Any("error", err))
			os.Exit(1)
		}
		pipelineDeps.Archiver = archiver
		readiness = append(readiness, store.Ping)
	}

	service, err := pipeline.NewService(pipelineDeps, pipeline.Config{
		MaxConcurrent: cfg.Pipeline.MaxConcurrent,
		SchemaTimeout: cfg.Pipeline.SchemaTimeout,
	})
	if err != nil {
		logger.Error("failed to initialize pipeline", slog.Any("error", err))
		os.Exit(1)
	}

	deps := api.Dependencies{
		Logger:            logger,
		Pipeline:          service,
		Examples:          exampleQueries,
		Readiness:         api.CombineReadinessChecks(readiness...),
		DependencyTimeout: 2 * time.Second,
	}
	if cfg.Auth.Required {
		validator, err := auth.NewStaticAPIKeyValidator(cfg.Auth.StaticKeys)
		if err != nil {
			logger.Error("failed to parse static auth keys", slog.Any("error", err))
			os.Exit(1)
		}
		deps.AuthMiddleware = auth.Middleware(logger, validator)
	}

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server",
			slog.String("addr", cfg.HTTP.Address),
			slog.String("ai_provider", cfg.AI.Provider),
			slog.Bool("read_only", cfg.Pipeline.ReadOnly),
			slog.Bool("archive", cfg.Archive.Enabled),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}
