package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/solar-forecast-service/internal/aggregation"
	"github.com/kjstillabower/solar-forecast-service/internal/client"
	"github.com/kjstillabower/solar-forecast-service/internal/config"
	"github.com/kjstillabower/solar-forecast-service/internal/degraded"
	httphandler "github.com/kjstillabower/solar-forecast-service/internal/http"
	"github.com/kjstillabower/solar-forecast-service/internal/lifecycle"
	"github.com/kjstillabower/solar-forecast-service/internal/observability"
	"github.com/kjstillabower/solar-forecast-service/internal/service"
)

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, weatherClient, err := newServer(cfg, logger)
	if err != nil {
		logger.Fatal("weather client", zap.Error(err))
	}

	observability.RegisterRateLimitGauges(cfg.OverloadWindow)
	degraded.StartRecoveryListener(ctx, weatherClient.Ping, cfg.DegradedRetryInitial, cfg.DegradedRetryMax, func() {
		logger.Warn("weather API still failing after recovery probes",
			zap.Duration("retry_max", cfg.DegradedRetryMax))
	})

	pingCtx, pingCancel := context.WithTimeout(ctx, cfg.WeatherAPITimeout)
	if err := weatherClient.Ping(pingCtx); err != nil {
		logger.Warn("weather API unreachable at startup", zap.Error(err))
	}
	pingCancel()

	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	stop()

	if err := lifecycle.Drain(srv, lifecycle.DrainConfig{
		ShutdownTimeout: cfg.ShutdownTimeout,
		InFlightTimeout: cfg.ShutdownInFlightTimeout,
		CheckInterval:   cfg.ShutdownInFlightCheckInterval,
		InFlight:        httphandler.InFlightCount,
		WaitInFlight:    httphandler.WaitForInFlight,
		OnInFlight:      observability.RecordShutdownInFlight,
	}, logger); err != nil {
		logger.Error("drain", zap.Error(err))
	}

	logger.Info("shutdown complete")
	if err := observability.FlushLogs(logger); err != nil {
		fmt.Fprintf(os.Stderr, "flush logs: %v\n", err)
	}
}

// newServer builds the weather client, service and router from cfg.
func newServer(cfg *config.Config, logger *zap.Logger) (*http.Server, *client.OpenMeteoClient, error) {
	weatherClient, err := client.NewOpenMeteoClient(client.Config{
		URL:            cfg.WeatherAPIURL,
		Timezone:       cfg.WeatherAPITimezone,
		Timeout:        cfg.WeatherAPITimeout,
		RetryAttempts:  cfg.RetryAttempts,
		RetryBaseDelay: cfg.RetryBaseDelay,
		RetryMaxDelay:  cfg.RetryMaxDelay,
		Breaker: client.BreakerConfig{
			Enabled:          cfg.CircuitBreakerEnabled,
			FailureThreshold: uint32(cfg.CircuitBreakerFailureThreshold),
			Timeout:          cfg.CircuitBreakerTimeout,
			MaxHalfOpen:      uint32(cfg.CircuitBreakerMaxHalfOpen),
		},
	})
	if err != nil {
		return nil, nil, err
	}
	if cfg.CircuitBreakerEnabled {
		logger.Info("circuit breaker enabled",
			zap.Int("failure_threshold", cfg.CircuitBreakerFailureThreshold),
			zap.Duration("timeout", cfg.CircuitBreakerTimeout))
	}

	estimator := aggregation.EnergyEstimator{
		InstalledPowerKW: cfg.PVInstalledPowerKW,
		Efficiency:       cfg.PVEfficiency,
	}
	weatherService := service.NewWeatherService(weatherClient, estimator, logger, cfg.CoalesceTimeout)

	healthConfig := &httphandler.HealthConfig{
		OverloadWindow:       cfg.OverloadWindow,
		OverloadThresholdPct: cfg.OverloadThresholdPct,
		RateLimitRPS:         cfg.RateLimitRPS,
		DegradedWindow:       cfg.DegradedWindow,
		DegradedErrorPct:     cfg.DegradedErrorPct,
		BreakerOpen:          weatherClient.BreakerOpen,
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}
	handler := httphandler.NewHandler(weatherService, healthConfig, logger)
	router := httphandler.NewRouter(handler, logger, limiter, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
	}
	return srv, weatherClient, nil
}
