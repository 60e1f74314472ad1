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

	"github.com/kirillkom/bazaar-search/internal/bootstrap"
	"github.com/kirillkom/bazaar-search/internal/config"
	"github.com/kirillkom/bazaar-search/internal/observability/logging"
	"github.com/kirillkom/bazaar-search/internal/observability/metrics"
)

const serviceName = "worker"

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger(serviceName, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Service: serviceName})
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("worker_metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("worker_metrics_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	handler := bootstrap.NewEnrichmentHandler(serviceName, app.EnrichUC, cfg.EnrichRPS, workerMetrics, cfg.EnrichTimeout)
	slog.Info("worker_subscribed", "subject", cfg.NATSSubject, "enrich_rps", cfg.EnrichRPS)
	if err := app.Queue.SubscribeListingEnrichment(ctx, handler.Handle); err != nil {
		slog.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
	slog.Info("worker_stopped")
}
