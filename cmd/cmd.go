// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles setup operations for config and the ledger database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and ledger storage",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// authCommand handles Spotify authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify authentication",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authenticate with Spotify using OAuth2",
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Check current authentication state",
				Action: r.AuthStatus,
			},
		},
	}
}

// libraryCommand inspects the prepared Apple Music library export
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "library",
		Aliases: []string{"lib"},
		Usage:   "Inspect the local library export",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List library playlists, smallest first",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.LibraryList,
			},
			{
				Name:  "show",
				Usage: "Show the tracks of one library playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.LibraryShow,
			},
		},
	}
}

// syncCommand runs playlist syncs
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Sync library playlists to Spotify",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Sync one playlist or, with --all, every non-excluded playlist",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "playlist",
						Aliases: []string{"p"},
						Usage:   "Library playlist name to sync",
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Sync every non-excluded playlist, smallest first",
					},
				},
				Action: r.SyncRun,
			},
		},
	}
}

// ledgerCommand inspects persisted sync state
func ledgerCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "ledger",
		Usage: "Inspect the sync ledger",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print ledger entries",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
					&cli.StringFlag{
						Name:  "playlist",
						Usage: "Only entries assigned to this playlist",
					},
				},
				Action: r.LedgerShow,
			},
		},
	}
}

// reportCommand exports match reports from the ledger
func reportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Export per-playlist match reports",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Report format: json, csv, markdown",
				Value:   "json",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory (default: match_report_{epoch})",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent report writers",
				Value: 4,
			},
		},
		Action: r.Report,
	}
}

// tuiCommand returns the top-level TUI command for interactive playlist syncing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for playlist syncing",
		Action:  r.TUI,
	}
}
