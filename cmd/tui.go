package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/allezgo/internal/shared"
	"github.com/desertthunder/allezgo/internal/ui"
	"github.com/urfave/cli/v3"
)

const tuiLogPath = "./tmp/allezgo-tui.log"

// TUI launches the interactive terminal form.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, logFile, err := shared.NewFileLogger(tuiLogPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer logFile.Close()
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	f := r.Form()
	if _, err := f.Load(ctx); err != nil {
		r.logger.Warn("failed to load remembered credentials", "error", err)
	}

	model := ui.NewModel(ctx, f)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
