// Package main provides a CLI tool for running database migrations.
package main

import (
	"flag"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/feral-file/ff-editions/internal/config"
	"github.com/feral-file/ff-editions/internal/logger"
	"github.com/feral-file/ff-editions/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
	action     = flag.String("action", "up", "Migration action: up, down, version")
	steps      = flag.Int("steps", 1, "Number of migrations to roll back with -action=down")
)

func main() {
	flag.Parse()

	config.ChdirRepoRoot()
	cfg, err := config.LoadMigrateConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	err = logger.Initialize(logger.Config{
		Debug:       cfg.Debug,
		SentryDSN:   cfg.SentryDSN,
		Environment: cfg.Environment,
		Tags: map[string]string{
			"service": "editions-migrate",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)

	if err := run(cfg, *action, *steps); err != nil {
		logger.Fatal("Migration failed", zap.String("action", *action), zap.Error(err))
	}
}

func run(cfg *config.MigrateConfig, action string, steps int) error {
	databaseURL := cfg.Database.URL()

	switch action {
	case "up":
		logger.Info("Running migrations", zap.String("path", cfg.MigrationsPath))
		if err := store.RunMigrations(databaseURL, cfg.MigrationsPath); err != nil {
			return err
		}
		logger.Info("Migrations completed successfully")

	case "down":
		if steps < 1 {
			return fmt.Errorf("steps must be positive, got %d", steps)
		}
		logger.Info("Rolling back migrations", zap.Int("steps", steps))
		if err := store.RollbackMigrations(databaseURL, cfg.MigrationsPath, steps); err != nil {
			return err
		}
		logger.Info("Migrations rolled back successfully")

	case "version":
		version, dirty, err := store.MigrationVersion(databaseURL, cfg.MigrationsPath)
		if err != nil {
			return err
		}
		logger.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))

	default:
		return fmt.Errorf("unknown action: %s", action)
	}

	return nil
}
