package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/time/rate"

	httpapi "github.com/i474232898/route-winds-aggregation/internal/api/http"
	"github.com/i474232898/route-winds-aggregation/internal/config"
	"github.com/i474232898/route-winds-aggregation/internal/observability"
	"github.com/i474232898/route-winds-aggregation/internal/scheduler"
	"github.com/i474232898/route-winds-aggregation/internal/weather"
	"github.com/i474232898/route-winds-aggregation/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// Open-Meteo is the only forecast upstream; every route batch is one call.
	var limiter *rate.Limiter
	if cfg.UpstreamRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.UpstreamRPS), cfg.UpstreamBurst)
	}
	openMeteo := providers.NewOpenMeteoProvider(providers.HTTPClientConfig{
		Client:  &http.Client{Timeout: cfg.UpstreamTimeout},
		Limiter: limiter,
	}, cfg.OpenMeteoBaseURL, cfg.OpenMeteoAPIKey)

	avwx := providers.NewAVWXProvider(providers.HTTPClientConfig{
		Client: &http.Client{Timeout: cfg.AVWXTimeout},
	}, cfg.AVWXBaseURL, cfg.AVWXToken)
	if cfg.AVWXToken == "" {
		logger.Warn("AVWX_TOKEN not set; /api/metar will answer 500")
	}

	resolver := weather.NewResolver(openMeteo, weather.ResolverConfig{
		Timeout: cfg.UpstreamTimeout,
		Options: cfg.QueryOptions(),
	}, logger, metrics)
	service := weather.NewService(cfg.Levels, resolver)

	prober := scheduler.NewProber(service, cfg.ProbeLat, cfg.ProbeLon, cfg.ProbeInterval, nil, logger, metrics)
	sched := scheduler.New(prober, cfg.ProbeInterval, logger)
	if err := sched.Start(); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	app := httpapi.NewApp(httpapi.Deps{
		Service:   service,
		Metar:     avwx,
		Readiness: prober,
		Logger:    logger,
		Metrics:   metrics,
		AccessLog: true,
	})

	go func() {
		logger.Info("http server starting", "port", cfg.Port, "level_table", cfg.LevelTableFile)
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("fiber server stopped", "error", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("error during shutdown", "error", err)
	}
	logger.Info("shutdown complete")
}
