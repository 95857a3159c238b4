package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/desertthunder/allezgo/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup creates the config file when missing and initializes the storage database.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if err := shared.CreateConfigFile(configPath); err == nil {
		r.logger.Info("config file created", "path", configPath)
	} else if !errors.Is(err, os.ErrExist) {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	config, err := shared.LoadConfig(configPath)
	if err != nil {
		return err
	}

	if config.Storage.Driver == "memory" {
		r.logger.Info("memory storage configured, no database to initialize")
		return r.writePlain("✓ Setup complete (memory storage)\n")
	}

	r.logger.Info("initializing database", "path", config.Storage.Path)
	db, err := shared.OpenStorageDatabase(config.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	r.logger.Infof("setup complete for database: %v", config.Storage.Path)
	return r.writePlain("✓ Setup complete\nConfig: %s\nDatabase: %s\n", configPath, config.Storage.Path)
}
