package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/crmd/crmd/internal/config"
	"github.com/crmd/crmd/internal/customer"
	"github.com/crmd/crmd/internal/events"
	"github.com/crmd/crmd/internal/observability/logger"
	"github.com/crmd/crmd/internal/observability/metrics"
	"github.com/crmd/crmd/internal/observability/tracing"
	"github.com/crmd/crmd/internal/store/postgres"
	transportHTTP "github.com/crmd/crmd/internal/transport/http"
)

func runServe(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.InfoContext(ctx, "starting crmd", slog.String("version", version))

	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		Exporter:       cfg.Observability.TraceExporter,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		SamplingRate:   1.0,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracer: %w", err)
	}
	defer tracer.Shutdown(context.Background())

	meter, err := metrics.New(ctx, metrics.Config{
		Enabled: cfg.Observability.OTELEnabled,
	}, cfg.Observability.ServiceName)
	if err != nil {
		return fmt.Errorf("failed to initialize meter: %w", err)
	}
	defer meter.Shutdown(context.Background())

	operations, err := meter.CreateCounter("crm.customer.operations", "Customer operations by outcome")
	if err != nil {
		return err
	}

	dbCfg := databaseConfig(cfg)
	dbCfg.TracerProvider = tracer.Provider()
	dbCfg.MeterProvider = meter.Provider()

	db, err := postgres.New(ctx, dbCfg)
	if err != nil {
		return err
	}
	defer db.Close()
	slog.InfoContext(ctx, "connected to database",
		logger.Driver(cfg.Database.Driver),
		logger.Database(cfg.Database.Database),
	)

	if err := db.EnsureSchema(ctx); err != nil {
		return err
	}

	publisher := newPublisher(cfg)
	defer publisher.Close()

	customerService := customer.NewService(
		postgres.NewCustomerRepository(db, nil),
		events.NewNotifier(publisher, nil),
		operations,
	)

	rateLimiter := transportHTTP.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	defer rateLimiter.Stop()

	router := transportHTTP.NewRouter(
		transportHTTP.NewHandler(customerService, db),
		rateLimiter,
		transportHTTP.CORSConfig{
			AllowedOrigins:   transportHTTP.ParseOrigins(cfg.CORS.AllowedOrigins),
			AllowCredentials: cfg.CORS.AllowCredentials,
		},
	)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting http server", logger.Component("server"), logger.Operation("listen"))
		slog.Info(fmt.Sprintf("listening on %s", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", logger.Error(err))
	}

	slog.Info("server stopped")
	return nil
}

// newPublisher connects to the broker when one is configured and falls back
// to logging events otherwise.
func newPublisher(cfg *config.Config) events.Publisher {
	if cfg.Events.AMQPURL == "" {
		return events.NewLogPublisher(nil)
	}

	p, err := events.DialAMQP(cfg.Events.AMQPURL, cfg.Events.Exchange)
	if err != nil {
		slog.Warn("event broker unavailable, logging events instead",
			logger.Component("events"),
			logger.Error(err),
		)
		return events.NewLogPublisher(nil)
	}
	return p
}
