package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"applesync/internal/shared"
	"applesync/internal/ui"
)

// TUI launches the interactive terminal UI for playlist syncing.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	lib, exclude, err := r.loadLibrary()
	if err != nil {
		return err
	}

	engine, err := r.ensureEngine(ctx)
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/applesync-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	model := ui.NewModel(ctx, lib, exclude, engine)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
