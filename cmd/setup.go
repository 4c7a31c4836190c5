package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"applesync/internal/shared"
)

// Setup creates the config file if missing and, for the sqlite ledger
// backend, initializes the database and runs migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	config := r.config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			config = shared.DefaultConfig()
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err = shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	}
	r.config = config

	if config.Ledger.Backend != "sqlite" {
		r.writePlain("✓ Setup complete (ledger backend: %s)\n", configOrDefaultBackend(config))
		r.writePlain("Next: set Spotify credentials in %s and run 'applesync auth login'\n", configPath)
		return nil
	}

	r.logger.Info("initializing ledger database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return nil
}

func configOrDefaultBackend(config *shared.Config) string {
	if config.Ledger.Backend == "" {
		return "json"
	}
	return config.Ledger.Backend
}
