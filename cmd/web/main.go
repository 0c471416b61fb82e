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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"dalcli/internal/config"
	"dalcli/internal/infrastructure"
	"dalcli/internal/middleware"
	"dalcli/internal/services"
	transport "dalcli/internal/transport/http"
	"dalcli/pkg/contracts/domain"
)

const version = "2.0.0"

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	defaults := domain.ReportRequest{
		OutputDir:   cfg.Reports.OutputDir,
		FarmPrefix:  cfg.Reports.FarmPrefix,
		Distributor: cfg.Reports.Distributor,
		Weeks:       8,
	}
	if cfg.Reports.CurvesFile != "" {
		curves, err := config.LoadCurves(cfg.Reports.CurvesFile)
		if err != nil {
			return fmt.Errorf("load curve table: %w", err)
		}
		defaults.Curves = curves
		logger.Info("curve table loaded",
			slog.String("file", cfg.Reports.CurvesFile),
			slog.Int("curves", len(curves)))
	}

	service := services.NewReportService(logger)
	metrics := middleware.NewMetrics()
	router := setupRouter(service, defaults, metrics, logger)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			slog.String("addr", server.Addr),
			slog.String("version", version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// setupRouter wires the middleware chain and routes. Middleware order is
// RequestID, metrics, logger, recoverer.
func setupRouter(service *services.ReportService, defaults domain.ReportRequest,
	metrics *middleware.Metrics, logger *slog.Logger) chi.Router {

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(metrics.Instrument)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(middleware.Recoverer(logger))

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		healthHandler := transport.NewHealthHandler(version, logger)
		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/version", healthHandler.Version)

		reportHandler := transport.NewReportHandler(service, defaults, logger).WithMetrics(metrics)
		reportHandler.RegisterRoutes(r)
	})

	r.Handle("/metrics", metrics.Handler())
	return r
}
