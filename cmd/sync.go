package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/allezgo/internal/formatter"
	"github.com/desertthunder/allezgo/internal/shared"
	"github.com/urfave/cli/v3"
)

// Sync fills the form from remembered credentials and flags, submits it and prints the rendered result.
//
// Flags override remembered values. A response carrying an error message is printed and returned as an error.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	switch format {
	case "text", "json", "markdown", "md", "csv":
	default:
		return fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidFlag, format)
	}

	f := r.Form()
	if !cmd.Bool("no-restore") {
		if restored, err := f.Load(ctx); err != nil {
			r.logger.Warn("failed to load remembered credentials", "error", err)
		} else if restored {
			r.logger.Debug("using remembered credentials")
		}
	}

	if err := r.applySyncFlags(ctx, cmd); err != nil {
		return err
	}

	s := f.Snapshot()
	if !s.IsSubmittable() {
		return fmt.Errorf("%w: %s", shared.ErrMissingCredentials, strings.Join(s.Credentials.Missing(), ", "))
	}

	resp, err := f.Submit(ctx)
	if err != nil {
		return err
	}

	if format == "json" {
		if err := r.writeJSON(resp, true); err != nil {
			return err
		}
	} else {
		view := formatter.NewResultView(resp, f.Snapshot().ResultDays)
		if err := formatter.WriteResult(r.output, view, format); err != nil {
			return err
		}
	}

	if resp.HasError() {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, resp.Error)
	}
	return nil
}

func (r *Runner) applySyncFlags(ctx context.Context, cmd *cli.Command) error {
	f := r.Form()

	fields := []struct {
		flag string
		set  func(context.Context, string) error
	}{
		{"peloton-email", f.SetPelotonEmail},
		{"peloton-password", f.SetPelotonPassword},
		{"garmin-email", f.SetGarminEmail},
		{"garmin-password", f.SetGarminPassword},
		{"gear", f.SetGarminGearName},
	}
	for _, field := range fields {
		if !cmd.IsSet(field.flag) {
			continue
		}
		if err := field.set(ctx, cmd.String(field.flag)); err != nil {
			return err
		}
	}

	if cmd.IsSet("today") {
		if err := f.SetTodayOnly(ctx, cmd.Bool("today")); err != nil {
			return err
		}
	}
	if cmd.IsSet("remember") {
		if err := f.SetRememberCredentials(ctx, cmd.Bool("remember")); err != nil {
			return err
		}
	}

	return nil
}
