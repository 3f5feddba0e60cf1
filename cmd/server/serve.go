package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/robnorris1/property-management-system-sub000/config"
	"github.com/robnorris1/property-management-system-sub000/internal/api"
	"github.com/robnorris1/property-management-system-sub000/internal/auth"
	"github.com/robnorris1/property-management-system-sub000/internal/cache"
	"github.com/robnorris1/property-management-system-sub000/internal/geocoding"
	"github.com/robnorris1/property-management-system-sub000/internal/processor"
	"github.com/robnorris1/property-management-system-sub000/internal/queue"
	"github.com/robnorris1/property-management-system-sub000/internal/scheduler"
	"github.com/robnorris1/property-management-system-sub000/internal/service"
	"github.com/robnorris1/property-management-system-sub000/internal/telegram"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func newCache(cfg *config.Config, logger *logrus.Logger) cache.Cache {
	if cfg.Cache.RedisURL == "" {
		logger.Info("REDIS_URL not set, analytics cache disabled")
		return cache.Noop{}
	}
	rc, err := cache.NewRedisCache(cfg.Cache.RedisURL, cfg.Cache.AnalyticsTTL, logger)
	if err != nil {
		logger.WithError(err).Warn("Analytics cache unavailable, continuing without it")
		return cache.Noop{}
	}
	return rc
}

// newNotifier returns a queue-backed Telegram notifier and a function that
// drains the queue, or nil when Telegram is not configured.
func newNotifier(cfg *config.Config, logger *logrus.Logger) (service.Notifier, func()) {
	tg := telegram.NewService(telegram.Config{
		BotToken: cfg.Telegram.BotToken,
		ChatID:   cfg.Telegram.ChatID,
		APIBase:  cfg.Telegram.APIBase,
	}, logger)
	if !tg.Enabled() {
		logger.Info("Telegram notifications disabled")
		return nil, func() {}
	}

	q := queue.NewNotificationQueue(cfg.Notifications.QueueSize, logger)
	dispatcher := processor.NewDispatcher(q, processor.Config{
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
	}, logger)
	dispatcher.Start()
	q.Start(cfg.Notifications.Workers)

	return queue.NewAsyncNotifier(q, tg), func() {
		_ = q.Close()
		dispatcher.Stop()
	}
}

// newGeocoder returns nil when geocoding is disabled.
func newGeocoder(cfg *config.Config, logger *logrus.Logger) service.Geocoder {
	if !cfg.Geocoding.Enabled {
		return nil
	}
	return geocoding.NewGeocoder(geocoding.Config{
		BaseURL:      cfg.Geocoding.BaseURL,
		UserAgent:    cfg.Geocoding.UserAgent,
		CountryCodes: cfg.Geocoding.CountryCodes,
		CacheDir:     cfg.Geocoding.CacheDir,
		MinInterval:  cfg.Geocoding.MinInterval,
	}, logger)
}

func runServe() error {
	cfg, logger, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer db.Close()

	gin.SetMode(cfg.Server.GinMode)

	analyticsCache := newCache(cfg, logger)
	defer analyticsCache.Close()

	notifier, drainNotifications := newNotifier(cfg, logger)
	defer drainNotifications()

	svc := service.New(db.GetDB(), logger, service.Options{
		Cache:    analyticsCache,
		Notifier: notifier,
		Geocoder: newGeocoder(cfg, logger),
	})
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer)

	handler := api.NewHandler(svc, tokens, logger, map[string]api.ReadinessCheck{
		"database": db.Ping,
		"cache":    analyticsCache.Ping,
	})
	router := api.NewRouter(handler, cfg.Server.CORSOrigins)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	if cfg.Scheduler.Enabled {
		jobs := scheduler.NewScheduler(svc, scheduler.Config{
			ReconcileHour: cfg.Scheduler.ReconcileHour,
			DigestHour:    cfg.Scheduler.DigestHour,
			DigestDays:    cfg.Scheduler.DigestDays,
			Geocode:       cfg.Geocoding.Enabled,
		}, logger)
		jobs.Start()
		defer jobs.Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Starting server on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}
