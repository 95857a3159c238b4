package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/allezgo/internal/formatter"
	"github.com/desertthunder/allezgo/internal/shared"
	"github.com/urfave/cli/v3"
)

func (r *Runner) requireHistory() error {
	if r.runs == nil {
		return fmt.Errorf("%w: sync history requires the sqlite storage driver", shared.ErrServiceUnavailable)
	}
	return nil
}

// HistoryList prints recorded sync runs, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireHistory(); err != nil {
		return err
	}

	runs, err := r.runs.List(ctx, cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(runs, true)
	}

	data, err := formatter.ExportHistory(runs)
	if err != nil {
		return err
	}
	return r.writePlain("%s", data)
}

// HistoryPrune deletes runs that started before now minus --older-than.
func (r *Runner) HistoryPrune(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireHistory(); err != nil {
		return err
	}

	age := cmd.Duration("older-than")
	if age <= 0 {
		return fmt.Errorf("%w: --older-than must be positive", shared.ErrInvalidFlag)
	}

	n, err := r.runs.Prune(ctx, time.Now().Add(-age))
	if err != nil {
		return err
	}

	r.logger.Info("pruned sync history", "deleted", n, "older_than", age)
	return r.writePlain("✓ Deleted %d sync run(s)\n", n)
}
