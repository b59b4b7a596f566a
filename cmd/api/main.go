package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dengueatlas/analytics-service/internal/adapter/csvsource"
	"github.com/dengueatlas/analytics-service/internal/adapter/httpapi"
	"github.com/dengueatlas/analytics-service/internal/adapter/reportcache"
	"github.com/dengueatlas/analytics-service/internal/config"
	"github.com/dengueatlas/analytics-service/internal/domain"
	"github.com/dengueatlas/analytics-service/internal/model"
	"github.com/dengueatlas/analytics-service/internal/observability"
	"github.com/dengueatlas/analytics-service/internal/report"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	raw, err := csvsource.ReadFile(cfg.CSVPath)
	if err != nil {
		logger.Error("failed to load case data", "path", cfg.CSVPath, "error", err)
		os.Exit(1)
	}
	logger.Info("case data loaded", "path", cfg.CSVPath, "rows", len(raw.Rows))

	rows, err := domain.EngineerFeatures(raw)
	if err != nil {
		logger.Error("failed to engineer features", "error", err)
		os.Exit(1)
	}
	metrics.RowsLoaded.Set(float64(len(rows)))

	// Catalog (feature-flagged via CATALOG_PATH).
	catalog := report.DefaultCatalog()
	if cfg.CatalogPath != "" {
		catalog, err = report.LoadCatalogFile(cfg.CatalogPath)
		if err != nil {
			logger.Error("failed to load factor catalog", "path", cfg.CatalogPath, "error", err)
			os.Exit(1)
		}
		logger.Info("factor catalog loaded", "path", cfg.CatalogPath)
	}

	assembler := report.NewAssembler(catalog, func() model.Regressor {
		return model.NewRandomForest(model.DefaultForestConfig())
	}, logger, metrics)

	cache := reportcache.New(assembler, raw, cfg.ReportCacheSize, metrics)

	srv := httpapi.NewServer(cfg.HTTPAddr, cache, rows, cfg.DefaultYear, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Warm the default-year bundle so the first request does not pay
	// the model fit.
	go func() {
		if _, err := cache.Bundle(cfg.DefaultYear); err != nil {
			logger.Error("report warm-up failed", "year", cfg.DefaultYear, "error", err)
		} else {
			logger.Info("report warm-up complete", "year", cfg.DefaultYear)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
