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
	"github.com/feral-file/ff-editions/internal/config"
	"github.com/feral-file/ff-editions/internal/fulfillment"
	"github.com/feral-file/ff-editions/internal/logger"
	"github.com/feral-file/ff-editions/internal/messaging"
	"github.com/feral-file/ff-editions/internal/notification"
	"github.com/feral-file/ff-editions/internal/providers/jetstream"
	"github.com/feral-file/ff-editions/internal/providers/signer"
	"github.com/feral-file/ff-editions/internal/providers/solana"
	"github.com/feral-file/ff-editions/internal/reconciler"
	"github.com/feral-file/ff-editions/internal/store"
	"github.com/feral-file/ff-editions/internal/sweeper"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadSweeperConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		Environment:     cfg.Environment,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "editions-sweeper",
			"chain":   string(cfg.Solana.Chain),
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Sweeper")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err), zap.String("host", cfg.Database.Host))
	}

	// Configure connection pool
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database",
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
	)

	dataStore := store.NewPGStore(db)
	clock := adapter.NewClock()

	rpcPolicy := adapter.DefaultRetryPolicy()
	rpcPolicy.Timeout = cfg.Solana.RequestTimeout
	rpcPolicy.MaxRetries = cfg.Solana.MaxRetries
	ledger := solana.NewClient(cfg.Solana.RPCURL, cfg.Solana.Chain, adapter.NewHTTPClient(rpcPolicy))

	signerPolicy := adapter.DefaultRetryPolicy()
	signerPolicy.Timeout = cfg.Signer.RequestTimeout
	signerPolicy.MaxRetries = cfg.Signer.MaxRetries
	builder := signer.NewClient(cfg.Signer.URL, cfg.Signer.APIKey, adapter.NewHTTPClient(signerPolicy))

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
	}, dataStore, publisher, adapter.NewJCS(), adapter.NewJSON(), clock)

	orchestrator := fulfillment.NewOrchestrator(fulfillment.Config{StaleThreshold: cfg.Pipeline.StaleThreshold}, dataStore, builder, notifier, clock)
	rec := reconciler.NewReconciler(reconciler.Config{
		StaleThreshold: cfg.Pipeline.StaleThreshold,
		PaymentExpiry:  cfg.Pipeline.PaymentExpiry,
	}, dataStore, ledger, orchestrator, notifier, clock)

	sweeperConfig := &sweeper.ReconciliationSweeperConfig{
		Interval:       cfg.Reconciler.Interval,
		BatchSize:      cfg.Reconciler.BatchSize,
		WorkerPoolSize: cfg.Reconciler.Worker.WorkerPoolSize,
		QueueSize:      cfg.Reconciler.Worker.WorkerQueueSize,
		MinAge:         cfg.Reconciler.MinAge,
	}
	reconciliationSweeper := sweeper.NewReconciliationSweeper(sweeperConfig, dataStore, rec, clock)

	logger.InfoCtx(ctx, "Initialized reconciliation sweeper",
		zap.Duration("interval", cfg.Reconciler.Interval),
		zap.Int("batch_size", cfg.Reconciler.BatchSize),
		zap.Int("worker_pool_size", cfg.Reconciler.Worker.WorkerPoolSize),
		zap.Duration("min_age", cfg.Reconciler.MinAge),
	)

	// Start the sweeper in a goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := reconciliationSweeper.Start(ctx); err != nil {
			errChan <- err
		}
	}()

	// Wait for interrupt signal or error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		logger.ErrorCtx(ctx, err)
	}

	// Stop before canceling so the in-flight cycle can finish its batch
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := reconciliationSweeper.Stop(shutdownCtx); err != nil {
		logger.ErrorCtx(shutdownCtx, err)
	}
	cancel()

	logger.InfoCtx(shutdownCtx, "Sweeper stopped")
}
