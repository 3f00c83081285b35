package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/belvedhair/booking-widget/internal/admin"
	"github.com/belvedhair/booking-widget/internal/api/router"
	appconfig "github.com/belvedhair/booking-widget/internal/config"
	"github.com/belvedhair/booking-widget/internal/http/handlers"
	"github.com/belvedhair/booking-widget/internal/ical"
	"github.com/belvedhair/booking-widget/internal/observability/metrics"
	"github.com/belvedhair/booking-widget/internal/salonapi"
	"github.com/belvedhair/booking-widget/internal/wizard"
	"github.com/belvedhair/booking-widget/pkg/logging"
)

func main() {
	// Load .env in development; ignored when absent
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger.Info("starting booking widget server",
		"env", cfg.Env,
		"port", cfg.Port,
		"session_backend", cfg.SessionBackend,
	)

	salonTZ, err := time.LoadLocation(cfg.SalonTZ)
	if err != nil {
		logger.Error("invalid salon timezone", "tz", cfg.SalonTZ, "error", err)
		os.Exit(1)
	}

	widgetMetrics := metrics.NewWidgetMetrics(nil)

	apiClient := salonapi.New(cfg.BookingAPIBaseURL, cfg.BookingAPITimeout, logger)
	apiClient.SetLatencyObserver(widgetMetrics)

	// The barber roster changes rarely; it is fetched once at startup.
	startupCtx, cancel := context.WithTimeout(context.Background(), cfg.BookingAPITimeout)
	barbers, err := apiClient.Barbers(startupCtx)
	cancel()
	if err != nil {
		logger.Error("failed to load barbers from booking backend", "error", err)
		os.Exit(1)
	}
	logger.Info("barber roster loaded", "count", len(barbers))

	var store wizard.Store
	switch cfg.SessionBackend {
	case "redis":
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		store = wizard.NewRedisStore(redis.NewClient(opts), cfg.SessionTTL, nil)
	default:
		mem := wizard.NewMemoryStore(cfg.SessionTTL)
		mem.StartJanitor(context.Background(), time.Minute)
		store = mem
	}

	wiz := wizard.New(apiClient, logger)
	exporter := ical.New(salonTZ, cfg.SalonLocation)
	panel := admin.NewPanel(apiClient, logger)

	widgetHandler := handlers.NewWidgetHandler(wiz, store, barbers, exporter, widgetMetrics, logger)
	adminHandler := handlers.NewAdminHandler(panel, barbers, widgetMetrics, logger)
	pageHandler, err := handlers.NewPageHandler(cfg.SalonName, barbers, logger)
	if err != nil {
		logger.Error("failed to parse page templates", "error", err)
		os.Exit(1)
	}

	r := router.New(&router.Config{
		Logger:             logger,
		Pages:              pageHandler,
		Widget:             widgetHandler,
		Admin:              adminHandler,
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		SubmitRate:         1,
		SubmitBurst:        5,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("shutting down", "signal", fmt.Sprintf("%v", sig))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
