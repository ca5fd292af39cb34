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

	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"

	httpadapter "github.com/kirillkom/notewise/internal/adapters/http"
	"github.com/kirillkom/notewise/internal/bootstrap"
	"github.com/kirillkom/notewise/internal/config"
	"github.com/kirillkom/notewise/internal/core/domain"
	"github.com/kirillkom/notewise/internal/observability/logging"
	"github.com/kirillkom/notewise/internal/observability/metrics"
)

const serviceName = "api"

func main() {
	cfg := config.Load()
	logger := logging.NewLogger(serviceName, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpMetrics := metrics.NewHTTPServerMetrics(serviceName)
	app, err := bootstrap.New(ctx, cfg,
		bootstrap.WithRole(serviceName),
		bootstrap.WithBreakerObserver(func(operation string, _, to gobreaker.State) {
			httpMetrics.SetBreakerState(serviceName, operation, breakerGauge(to))
		}),
		bootstrap.WithCategorizationObserver(func(result domain.Categorization, duration time.Duration) {
			httpMetrics.RecordCategorization(serviceName, string(result.Source), result.Err != nil, duration)
		}),
	)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	router := httpadapter.NewRouter(cfg, app.Notes, app.State, app.Bulk, app.Exporter,
		httpadapter.WithMetrics(httpMetrics),
		httpadapter.WithHealthDetails(func() map[string]string {
			return map[string]string{
				"classifier_breaker": app.ClassifierBreakerState().String(),
				"store":              cfg.StoreDriver,
			}
		}),
	)
	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("api_listening", "port", cfg.APIPort, "store", cfg.StoreDriver, "nats", cfg.NATSURL != "")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return app.RelayRemoteEvents(gCtx)
	})
	g.Go(func() error {
		for event := range app.Bus.Subscribe(gCtx) {
			httpMetrics.RecordNoteEvent(serviceName, string(event.Kind))
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("api_shutdown_failed", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("api_stopped", "error", err)
		os.Exit(1)
	}
}

func breakerGauge(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
