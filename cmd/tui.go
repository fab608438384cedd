package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/jukebox/internal/repositories"
	"github.com/desertthunder/jukebox/internal/shared"
	"github.com/desertthunder/jukebox/internal/tasks"
	"github.com/desertthunder/jukebox/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for previewing and queueing a playlist.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	guild := cmd.Int64("guild")
	user := cmd.Int64("user")

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, shared.ParseLogLevel(r.config.Log.Level))
	r.SetLogger(fileLogger)

	return r.withPerms(ctx, func(repo *repositories.PermRepository) error {
		r.player.Join(guild)
		defer r.player.Leave(guild)

		model := ui.NewModel(ctx, r.newEngine(repo), tasks.NewRequest(guild, user), cmd.StringArg("reference"))
		p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen())

		if _, err := p.Run(); err != nil {
			return fmt.Errorf("error running TUI: %w", err)
		}
		return nil
	})
}
