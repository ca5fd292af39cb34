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

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/notewise/internal/bootstrap"
	"github.com/kirillkom/notewise/internal/config"
	"github.com/kirillkom/notewise/internal/core/domain"
	"github.com/kirillkom/notewise/internal/observability/logging"
	"github.com/kirillkom/notewise/internal/observability/metrics"
)

const (
	serviceName         = "worker"
	recategorizeTimeout = 2 * time.Minute
)

func main() {
	cfg := config.Load()
	logger := logging.NewLogger(serviceName, cfg.LogLevel)
	slog.SetDefault(logger)

	if cfg.NATSURL == "" {
		logger.Error("worker_requires_nats", "hint", "set NATS_URL")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, bootstrap.WithRole(serviceName))
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("worker_subscribed", "subject", cfg.NATSRecategorizeSubject)
		return app.Queue.SubscribeRecategorize(gCtx, func(handlerCtx context.Context, noteID int64) error {
			workCtx, cancel := context.WithTimeout(handlerCtx, recategorizeTimeout)
			defer cancel()

			workerMetrics.StartRecategorize()
			started := time.Now()
			note, result, err := app.Notes.Recategorize(workCtx, noteID)
			workerMetrics.FinishRecategorize(serviceName, time.Since(started), err)

			if domain.IsKind(err, domain.ErrNoteNotFound) {
				logger.Info("recategorize_skipped", "note_id", noteID, "reason", "deleted")
				return nil
			}
			if err != nil {
				return err
			}
			logger.Info("recategorize_done",
				"note_id", note.ID,
				"categories", note.Categories,
				"source", result.Source,
				"classifier_error", result.ErrorMessage(),
			)
			return nil
		})
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker_stopped", "error", err)
		os.Exit(1)
	}
}
