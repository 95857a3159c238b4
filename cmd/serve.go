package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/allezgo/internal/server"
	"github.com/desertthunder/allezgo/internal/web"
	"github.com/urfave/cli/v3"
)

// Serve runs the web app until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Server
	if cmd.IsSet("host") {
		cfg.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Port = cmd.Int("port")
	}

	f := r.Form()
	if _, err := f.Load(ctx); err != nil {
		r.logger.Warn("failed to load remembered credentials", "error", err)
	}

	app, err := web.New(f, r.logger)
	if err != nil {
		return fmt.Errorf("failed to build web app: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, app.Routes(cfg))
	return server.ListenAndServe(ctx, srv, r.logger, func(url string) {
		if !cmd.Bool("open") {
			return
		}
		if err := r.openBrowser(url + web.SyncPath); err != nil {
			r.logger.Warn("failed to open browser", "url", url, "error", err)
		}
	})
}
