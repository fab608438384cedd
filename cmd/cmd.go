// submodule cmd contains command definitions
package main

import (
	"fmt"
	"strings"

	"github.com/desertthunder/jukebox/internal/formatter"
	"github.com/urfave/cli/v3"
)

// setupCommand handles setup operations for the config file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write a config file populated with defaults",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "status",
				Usage:  "Show applied and pending migrations",
				Action: r.SetupStatus,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// resolveCommand resolves one playlist reference and prints its tracks.
func resolveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "resolve",
		Aliases: []string{"r"},
		Usage:   "Resolve a playlist reference into playable tracks",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "reference"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "source",
				Aliases: []string{"s"},
				Usage:   "Playlist source (auto, youtube, spotify)",
				Value:   "auto",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   fmt.Sprintf("Output format (%s)", strings.Join(formatter.Formats, ", ")),
				Value:   formatter.FormatText,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to a file instead of stdout",
			},
		},
		Action: r.Resolve,
	}
}

// exportCommand resolves several references concurrently and writes one file per playlist.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Resolve many playlist references and export each to a file",
		ArgsUsage: "<reference>...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   fmt.Sprintf("Export format (%s)", strings.Join(formatter.Formats, ", ")),
				Value:   formatter.FormatJSON,
			},
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Usage:   "Output directory (default: jukebox_export_{epoch})",
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "Concurrent resolutions",
				Value:   4,
			},
			&cli.Float64Flag{
				Name:  "rate",
				Usage: "Resolutions started per second",
				Value: 2,
			},
		},
		Action: r.Export,
	}
}

// permsCommand manages permission tiers directly in the database.
func permsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "perms",
		Aliases: []string{"perm"},
		Usage:   "Manage per-guild permission tiers",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Show a user's tier",
				ArgsUsage: "<user>",
				Flags:     []cli.Flag{r.guildFlag()},
				Action:    r.PermsGet,
			},
			{
				Name:      "set",
				Usage:     "Set a user's tier (none, user, dj, admin)",
				ArgsUsage: "<user> <level>",
				Flags:     []cli.Flag{r.guildFlag()},
				Action:    r.PermsSet,
			},
			{
				Name:      "list",
				Aliases:   []string{"ls"},
				Usage:     "List users holding a tier",
				ArgsUsage: "<level>",
				Flags: []cli.Flag{
					r.guildFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PermsList,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Remove a user's tier",
				ArgsUsage: "<user>",
				Flags:     []cli.Flag{r.guildFlag()},
				Action:    r.PermsRemove,
			},
			{
				Name:   "purge",
				Usage:  "Remove every tier in the guild",
				Flags:  []cli.Flag{r.guildFlag()},
				Action: r.PermsPurge,
			},
			{
				Name:      "copy",
				Usage:     "Copy every tier from another guild into --guild",
				ArgsUsage: "<source-guild>",
				Flags:     []cli.Flag{r.guildFlag()},
				Action:    r.PermsCopy,
			},
		},
	}
}

// consoleCommand runs chat commands typed on stdin.
func consoleCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "console",
		Usage:  "Run chat commands from the terminal as a guild member",
		Flags:  []cli.Flag{r.guildFlag(), r.userFlag()},
		Action: r.Console,
	}
}

// serveCommand starts the HTTP resolution endpoint.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve playlist resolution over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address",
				Value: r.config.Server.Addr,
			},
		},
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command for previewing and queueing playlists.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI to preview and queue a playlist",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "reference"},
		},
		Flags: []cli.Flag{
			r.guildFlag(),
			r.userFlag(),
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Log destination while the TUI owns the terminal",
				Value: "./tmp/jukebox-tui.log",
			},
		},
		Action: r.TUI,
	}
}
