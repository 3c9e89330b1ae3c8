// cmd/venue-finder/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"venue-finder/internal/common/camunda"
	"venue-finder/internal/common/config"
	"venue-finder/internal/common/logger"
	"venue-finder/internal/common/observability"
	"venue-finder/internal/finder/session"
	"venue-finder/internal/loader"
	"venue-finder/internal/server"
	filtervenues "venue-finder/internal/workers/venues/filter-venues"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// sweepInterval checks for idle sessions a few times per TTL.
func sweepInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	if interval := ttl / 4; interval > time.Second {
		return interval
	}
	return time.Second
}

func main() {
	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}
	_ = bootLog.Sync()

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer func() { _ = zapLog.Sync() }()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting venue finder",
		zap.String("environment", cfg.App.Environment),
		zap.String("datasource", cfg.Datasource.Kind),
	)

	obs := observability.New(cfg.Observability.ServiceName,
		observability.WithJaegerEndpoint(cfg.Observability.JaegerEndpoint),
		observability.WithLogger(log),
	)
	defer obs.Shutdown()

	// --- Venue Store ---
	src, closeSource, err := loader.Open(cfg, log)
	if err != nil {
		zapLog.Fatal("venue source setup failed", zap.Error(err))
	}
	defer closeSource()

	var loaded *loader.Result
	err = retryWithBackoff(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Datasource.Timeout))
		defer cancel()
		var err error
		loaded, err = loader.Load(ctx, src, log)
		return err
	}, 5, 2*time.Second, zapLog, "venue load")
	if err != nil {
		zapLog.Fatal("venue load failed after retries", zap.Error(err))
	}
	zapLog.Info("venue store ready",
		zap.Int("venues", loaded.Store.Len()),
		zap.Int("dropped", len(loaded.Warnings)),
	)

	// --- Sessions ---
	finderCfg := session.Config{
		RatingMin:             cfg.Finder.RatingMin,
		RatingMax:             cfg.Finder.RatingMax,
		ShowAllWhenUnselected: cfg.Finder.ShowAllWhenUnselected,
		ToggleOnReselect:      cfg.Finder.Toggle(),
	}
	sessionTTL := config.GetDuration(cfg.Server.SessionTTL)
	registry := server.NewRegistry(loaded.Store, finderCfg, log,
		server.WithSessionTTL(sessionTTL),
		server.WithMaxSessions(cfg.Server.MaxSessions),
		server.WithSessionRecorder(obs),
	)

	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	go registry.Run(janitorCtx, sweepInterval(sessionTTL))

	serverOpts := []server.Option{
		server.WithTracer(obs),
		server.WithLogger(log),
	}

	// --- Zeebe Worker ---
	var (
		zeebe   *camunda.Client
		workers []*camunda.Worker
	)
	if cfg.Camunda.Enabled {
		connectCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		zeebe, err = camunda.Connect(connectCtx, camunda.ConfigFromApp(cfg.Camunda), log)
		cancel()
		if err != nil {
			zapLog.Fatal("zeebe client failed", zap.Error(err))
		}
		zapLog.Info("zeebe client connected", zap.String("gateway", cfg.Camunda.BrokerAddress))
		serverOpts = append(serverOpts, server.WithReadinessCheck("zeebe", zeebe.HealthCheck))

		if config.IsWorkerEnabled(cfg, filtervenues.TaskType) {
			handler, err := filtervenues.NewHandler(filtervenues.HandlerOptions{
				AppConfig: cfg,
				Logger:    log,
				Recorder:  obs,
			})
			if err != nil {
				zapLog.Fatal("worker setup failed", zap.String("taskType", filtervenues.TaskType), zap.Error(err))
			}
			wcfg := config.GetWorkerConfig(cfg, filtervenues.TaskType)
			workers = append(workers, camunda.StartWorker(zeebe.GetClient(), filtervenues.TaskType, wcfg, handler.Handle, log))
		}
	}

	// --- HTTP Server ---
	srv := server.New(registry, loaded.Store, server.RatingScale{
		Min:     cfg.Finder.RatingMin,
		Max:     cfg.Finder.RatingMax,
		Default: cfg.Finder.RatingMin,
	}, serverOpts...)

	httpServer := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		zapLog.Info("http server listening", zap.String("address", cfg.Server.Address))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		zapLog.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-serverErr:
		zapLog.Error("http server failed", zap.Error(err))
	}

	srv.SetReady(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http server shutdown failed", zap.Error(err))
	}
	for _, w := range workers {
		w.Close()
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("error closing zeebe client", zap.Error(err))
		}
	}

	zapLog.Info("venue finder stopped",
		zap.Int("sessions", registry.Len()),
	)
}
