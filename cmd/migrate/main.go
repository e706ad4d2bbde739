package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/saturnino-fabrica-de-software/campusguard/internal/config"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/database"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Flags
	action := flag.String("action", "up", "Migration action: up, down, status, force")
	steps := flag.Int("steps", 0, "Version to force (for force action)")
	dbName := flag.String("db", "campusguard", "Database name recorded by the migrator")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := config.NewLogger(cfg)

	// golang-migrate needs a database/sql connection
	db, err := database.NewPool(database.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}
	defer func() { _ = db.Close() }()

	migrator, err := database.NewMigrator(db, *dbName, logger)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer func() { _ = migrator.Close() }()

	switch *action {
	case "up":
		if err := migrator.Up(); err != nil {
			return fmt.Errorf("migration up failed: %w", err)
		}

	case "down":
		if err := migrator.Down(); err != nil {
			return fmt.Errorf("migration down failed: %w", err)
		}
		logger.Info("rolled back last migration")

	case "status", "version":
		status, err := migrator.Status()
		if err != nil {
			return fmt.Errorf("failed to get status: %w", err)
		}
		logger.Info("schema status",
			"version", status.Version,
			"latest", status.Latest,
			"pending", status.Pending(),
			"dirty", status.Dirty,
		)
		if status.Dirty {
			return fmt.Errorf("version %d is dirty, fix the schema and run -action force -steps %d", status.Version, status.Version)
		}

	case "force":
		if *steps == 0 {
			return fmt.Errorf("steps flag is required for force action")
		}
		if err := migrator.Force(*steps); err != nil {
			return fmt.Errorf("force migration failed: %w", err)
		}

	default:
		return fmt.Errorf("invalid action: %s (use: up, down, status, force)", *action)
	}

	return nil
}
