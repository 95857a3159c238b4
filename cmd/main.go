package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/desertthunder/allezgo/internal/repositories"
	"github.com/desertthunder/allezgo/internal/shared"
	"github.com/urfave/cli/v3"
)

const configPath = "config.toml"

func main() {
	logger := shared.NewLogger(nil)

	config, err := shared.ResolveConfig(configPath)
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	if level, err := shared.ParseLogLevel(config.Log.Level); err == nil {
		shared.SetLogLevel(logger, level)
	}

	store, db, err := repositories.NewStore(config.Storage)
	if err != nil {
		logger.Fatalf("failed to open storage: %v", err)
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Store:      store,
		DB:         db,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:    "allezgo",
		Usage:   "Synchronize Peloton rides with Garmin Connect",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level: debug, info, warn or error (defaults to log.level)",
				Sources: cli.EnvVars("ALLEZGO_LOG_LEVEL"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if !cmd.IsSet("log-level") {
				return ctx, nil
			}
			level, err := shared.ParseLogLevel(cmd.String("log-level"))
			if err != nil {
				return ctx, fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
			}
			shared.SetLogLevel(runner.logger, level)
			return ctx, nil
		},
		Commands: runner.register(),
	}

	err = app.Run(context.Background(), os.Args)
	if db != nil {
		db.Close()
	}

	if err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}
