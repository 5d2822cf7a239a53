package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/feral-file/ff-editions/internal/adapter"
	"github.com/feral-file/ff-editions/internal/api/middleware"
	"github.com/feral-file/ff-editions/internal/api/rest"
	"github.com/feral-file/ff-editions/internal/api/server"
	"github.com/feral-file/ff-editions/internal/collection"
	"github.com/feral-file/ff-editions/internal/config"
	"github.com/feral-file/ff-editions/internal/fulfillment"
	"github.com/feral-file/ff-editions/internal/logger"
	"github.com/feral-file/ff-editions/internal/messaging"
	"github.com/feral-file/ff-editions/internal/notification"
	"github.com/feral-file/ff-editions/internal/providers/jetstream"
	"github.com/feral-file/ff-editions/internal/providers/signer"
	"github.com/feral-file/ff-editions/internal/providers/solana"
	"github.com/feral-file/ff-editions/internal/purchase"
	"github.com/feral-file/ff-editions/internal/ratelimit"
	"github.com/feral-file/ff-editions/internal/reconciler"
	"github.com/feral-file/ff-editions/internal/store"
	"github.com/feral-file/ff-editions/internal/supply"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadAPIConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		Environment:     cfg.Environment,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "editions-api",
			"chain":   string(cfg.Solana.Chain),
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Feral File Editions API")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err), zap.String("host", cfg.Database.Host))
	}
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database",
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
	)

	dataStore := store.NewPGStore(db)

	// Initialize adapters
	clock := adapter.NewClock()
	jsonAdapter := adapter.NewJSON()
	jcsAdapter := adapter.NewJCS()

	rpcPolicy := adapter.DefaultRetryPolicy()
	rpcPolicy.Timeout = cfg.Solana.RequestTimeout
	rpcPolicy.MaxRetries = cfg.Solana.MaxRetries
	ledger := solana.NewClient(cfg.Solana.RPCURL, cfg.Solana.Chain, adapter.NewHTTPClient(rpcPolicy))

	signerPolicy := adapter.DefaultRetryPolicy()
	signerPolicy.Timeout = cfg.Signer.RequestTimeout
	signerPolicy.MaxRetries = cfg.Signer.MaxRetries
	builder := signer.NewClient(cfg.Signer.URL, cfg.Signer.APIKey, adapter.NewHTTPClient(signerPolicy))

	// Notifications are recorded in the outbox even without a broker
	var publisher messaging.Publisher
	if cfg.NATS.URL != "" {
		publisher, err = jetstream.NewPublisher(ctx, jetstream.Config{
			URL:            cfg.NATS.URL,
			StreamName:     cfg.NATS.StreamName,
			SubjectPrefix:  cfg.NATS.SubjectPrefix,
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectionName: cfg.NATS.ConnectionName,
		}, adapter.NewNatsJetStream())
		if err != nil {
			logger.FatalCtx(ctx, "Failed to connect to NATS", zap.Error(err))
		}
		defer publisher.Close()
	} else {
		logger.WarnCtx(ctx, "NATS URL not configured, notifications will only be recorded")
	}
	notifier := notification.NewDispatcher(notification.Config{
		SubjectPrefix:  cfg.NATS.SubjectPrefix,
		PublishTimeout: cfg.NATS.PublishTimeout,
	}, dataStore, publisher, jcsAdapter, jsonAdapter, clock)

	// Rate limiter
	var redisClient adapter.RedisClient
	if cfg.Redis.URL != "" {
		redisClient, err = adapter.NewRedisClient(cfg.Redis.URL)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to create Redis client", zap.Error(err))
		}
	}
	limiter, err := ratelimit.NewLimiter(cfg.RateLimit, redisClient, clock)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create rate limiter", zap.Error(err))
	}
	defer func() {
		if err := limiter.Close(); err != nil {
			logger.Warn("Failed to close rate limiter", zap.Error(err))
		}
	}()

	// Pipeline
	orchestrator := fulfillment.NewOrchestrator(fulfillment.Config{StaleThreshold: cfg.Pipeline.StaleThreshold}, dataStore, builder, notifier, clock)
	rec := reconciler.NewReconciler(reconciler.Config{
		StaleThreshold: cfg.Pipeline.StaleThreshold,
		PaymentExpiry:  cfg.Pipeline.PaymentExpiry,
	}, dataStore, ledger, orchestrator, notifier, clock)
	purchases := purchase.NewService(dataStore, supply.NewLedger(dataStore), limiter, ledger, builder, rec, clock)
	collections := collection.NewService(collection.Config{StaleThreshold: cfg.Pipeline.StaleThreshold}, dataStore, limiter, builder, rec, clock)

	serverConfig := server.Config{
		Debug:          cfg.Debug,
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:    time.Duration(cfg.Server.IdleTimeout) * time.Second,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		TrustedProxies: cfg.Server.TrustedProxies,
		Auth: middleware.AuthConfig{
			JWTPublicKey: cfg.Auth.JWTPublicKey,
		},
		Webhook: middleware.WebhookAuthConfig{
			Secret:    cfg.Webhook.Secret,
			Tolerance: cfg.Webhook.TimestampTolerance,
		},
	}

	srv := server.New(serverConfig, rest.NewHandler(purchases, collections, rec))

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "server"))
		cancel()
	}

	// Create shutdown context with timeout (don't use canceled ctx)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	logger.InfoCtx(shutdownCtx, "Shutting down server...")

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.FatalCtx(shutdownCtx, "Server forced to shutdown", zap.Error(err))
	}

	logger.Info("API server stopped")
}
