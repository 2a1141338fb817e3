package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vhsingh/jobs-qa/internal/bootstrap"
	"github.com/vhsingh/jobs-qa/internal/config"
	"github.com/vhsingh/jobs-qa/internal/observability/logging"
	"github.com/vhsingh/jobs-qa/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("worker", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		slog.Info("worker_metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("worker metrics server error: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	slog.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeCorpusRefresh(ctx, func(handlerCtx context.Context, requestID string) error {
		refreshCtx, cancel := context.WithTimeout(handlerCtx, 15*time.Minute)
		defer cancel()

		workerMetrics.StartRefresh()
		start := time.Now()
		report, err := app.RefreshUC.Refresh(refreshCtx)
		if err != nil {
			workerMetrics.FinishRefresh("worker", time.Since(start), 0, 0, err)
			slog.Error("corpus_refresh_failed", "request_id", requestID, "error", err)
			return err
		}
		workerMetrics.FinishRefresh("worker", time.Since(start), report.Jobs, report.Chunks, nil)
		slog.Info("corpus_refresh_done",
			"request_id", requestID,
			"jobs", report.Jobs,
			"chunks", report.Chunks,
		)
		return nil
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
