package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/Matcher/internal/api"
	"github.com/MikeSquared-Agency/Matcher/internal/config"
	"github.com/MikeSquared-Agency/Matcher/internal/hermes"
	"github.com/MikeSquared-Agency/Matcher/internal/matching"
	"github.com/MikeSquared-Agency/Matcher/internal/metrics"
	"github.com/MikeSquared-Agency/Matcher/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the metrics server and the refresh loop",
	RunE: func(_ *cobra.Command, _ []string) error {
		return serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// openStore prefers Postgres and falls back to a snapshot file.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	if cfg.Database.URL != "" {
		db, err := store.NewPostgresStore(ctx, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		if err := db.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("connected to database")
		return db, nil
	}
	if cfg.Data.SnapshotPath != "" {
		snap, err := store.LoadSnapshot(cfg.Data.SnapshotPath)
		if err != nil {
			return nil, err
		}
		logger.Info("loaded snapshot", "path", cfg.Data.SnapshotPath,
			"activities", len(snap.Activities), "employees", len(snap.Employees))
		return store.NewMemoryStore(snap), nil
	}
	return nil, errors.New("either database.url or data.snapshot_path is required")
}

func serve() error {
	cfg, err := loadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return err
	}

	logger := newLogger(cfg, os.Stdout, false)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		return err
	}
	defer db.Close()

	// Hermes (optional)
	var hermesClient hermes.Client
	if cfg.Hermes.URL != "" {
		hc, err := hermes.NewNATSClient(ctx, cfg.Hermes.URL, logger)
		if err != nil {
			logger.Warn("failed to connect to hermes, running without events", "error", err)
		} else {
			hermesClient = hc
			defer hc.Close()
			logger.Info("connected to hermes")
		}
	}

	m := metrics.NewManager()

	svc, err := matching.New(db, hermesClient, m, cfg, logger)
	if err != nil {
		logger.Error("invalid scoring configuration", "error", err)
		return err
	}
	svc.Start(ctx)
	defer svc.Stop()
	svc.SetupSubscriptions()
	logger.Info("matcher started",
		"strategy", cfg.Scoring.DefaultStrategy,
		"refresh_interval", cfg.RefreshInterval(),
	)

	apiServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewRouter(svc, m, cfg.Server.RateLimit, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler:           api.NewMetricsRouter(m),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("API server starting", "port", cfg.Server.Port)
		if err := apiServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("API server error", "error", err)
		}
	}()

	go func() {
		logger.Info("metrics server starting", "port", cfg.Server.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = apiServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)

	logger.Info("shutdown complete")
	return nil
}
