package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/nano-press/backend/internal/handlers"
	"github.com/anonto42/nano-press/backend/internal/repositories"
	"github.com/anonto42/nano-press/backend/internal/repositories/memory"
	"github.com/anonto42/nano-press/backend/internal/router"
	"github.com/anonto42/nano-press/backend/pkg/cache"
	"github.com/anonto42/nano-press/backend/pkg/config"
	"github.com/anonto42/nano-press/backend/pkg/firebase"
	"github.com/anonto42/nano-press/backend/pkg/logger"
	"github.com/anonto42/nano-press/backend/pkg/metrics"
	"github.com/anonto42/nano-press/backend/pkg/payments"
	"github.com/anonto42/nano-press/backend/validators"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, dotenv, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}
	log := logger.New(cfg.LogLevel)
	if !dotenv {
		log.Debug("No .env file found, using process environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := router.Dependencies{
		Config:  cfg,
		Log:     log,
		Metrics: metrics.New(),
	}

	// Storage
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		log.Warn("Using in-memory storage, data is lost on restart")
		deps.Repos = router.NewMemoryRepositories(memory.New())
	default:
		db, err := config.InitDB(cfg, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to initialize databases")
		}
		defer db.CloseDB()
		if err := db.Migrate(); err != nil {
			log.WithError(err).Fatal("Failed to migrate PostgreSQL schema")
		}
		posts := repositories.NewMongoPostRepository(db.Mongo.Database(cfg.MongoDatabase))
		if err := posts.EnsureIndexes(ctx); err != nil {
			log.WithError(err).Fatal("Failed to create MongoDB indexes")
		}
		deps.Repos = router.NewPostgresRepositories(db, cfg.MongoDatabase)
		deps.Health = db
	}

	// Optional integrations
	if cfg.FirebaseCredentialsPath != "" {
		app, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to initialize Firebase")
		}
		deps.Firebase = app
	} else {
		log.Info("FIREBASE_CREDENTIALS_PATH not set, federated login disabled")
	}

	if cfg.StripeSecretKey != "" {
		deps.Gateway = payments.NewStripeProvider(payments.StripeConfig{
			SecretKey: cfg.StripeSecretKey,
			PriceID:   cfg.StripePriceID,
			Timeout:   cfg.StripeTimeout,
		})
	} else {
		log.Info("STRIPE_SECRET_KEY not set, checkout and tips disabled")
	}
	if cfg.StripeWebhookSecret != "" {
		deps.Verifier = payments.NewWebhookVerifier(cfg.StripeWebhookSecret)
	} else {
		log.Warn("STRIPE_WEBHOOK_SECRET not set, payment webhooks are rejected")
	}

	if cfg.RedisURL != "" {
		accessCache, err := cache.NewAccessCache(ctx, cfg.RedisURL)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer accessCache.Close()
		deps.AccessCache = accessCache
	} else {
		log.Info("REDIS_URL not set, access cache disabled")
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validators.NewValidator()
	e.HTTPErrorHandler = handlers.NewHTTPErrorHandler(log, cfg.IsDevelopment())

	config.SetupMiddleware(e, cfg, log)
	router.SetupRoutes(e, deps)

	metricsServer := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           deps.Metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.WithField("port", cfg.MetricsPort).Info("Metrics server listening")
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Metrics server failed")
		}
	}()

	go func() {
		log.WithFields(logrus.Fields{"port": cfg.Port, "env": cfg.Env}).Info("HTTP server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("HTTP server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server shutdown failed")
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Metrics server shutdown failed")
	}
}
