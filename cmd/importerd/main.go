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

	"github.com/gin-gonic/gin"

	"github.com/hrdtools/employee-importer/internal/common"
	"github.com/hrdtools/employee-importer/internal/ingest"
	"github.com/hrdtools/employee-importer/internal/progress"
	"github.com/hrdtools/employee-importer/internal/repository"
	"github.com/hrdtools/employee-importer/internal/server"
	"github.com/hrdtools/employee-importer/internal/worker"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(cfg.Import.UploadDir, 0o755); err != nil {
		logger.Error("failed to create upload directory", "dir", cfg.Import.UploadDir, "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := repository.Open(ctx, repository.Config{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		DialTimeout:     cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.HealthCheck(ctx, 5*time.Second); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	if err := store.Migrate(ctx); err != nil {
		logger.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	jobs := repository.NewJobRepository(store, logger)
	employees := repository.NewEmployeeRepository(store, logger)

	importer := worker.NewImporter(jobs, employees, logger)
	queue := worker.NewImportQueue(importer, logger,
		worker.WithWorkers(cfg.Import.Workers),
		worker.WithQueueSize(cfg.Import.QueueSize),
	)
	intake := ingest.NewIntake(jobs, queue, cfg.Import.UploadDir, logger)

	if cfg.Import.WatchDir != "" {
		go func() {
			watchCfg := ingest.WatchConfig{
				Root:        cfg.Import.WatchDir,
				InitialScan: true,
				Debounce:    2 * time.Second,
			}
			if err := ingest.RunWatcher(ctx, watchCfg, intake, logger); err != nil {
				logger.Error("watcher stopped", "error", err)
			}
		}()
	}

	handler := server.NewHandler(intake, jobs, employees, queue, progress.NewRowCountEstimator(), store, logger)
	router := gin.New()
	router.Use(gin.Recovery())
	server.SetupRoutes(router, handler, cfg.Server.StaticDir)

	srv := &http.Server{Addr: cfg.Server.HTTPAddr, Handler: router}
	go func() {
		logger.Info("http server listening", "addr", cfg.Server.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	queue.Shutdown(shutdownCtx)
	logger.Info("stopped")
}
