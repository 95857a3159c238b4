// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

// syncCommand submits one sync request from flags and/or remembered credentials
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Synchronize Peloton rides to Garmin Connect",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "peloton-email",
				Usage:   "Email address you use to login to Peloton",
				Sources: cli.EnvVars("ALLEZGO_PELOTON_EMAIL"),
			},
			&cli.StringFlag{
				Name:    "peloton-password",
				Usage:   "Password you use to login to Peloton",
				Sources: cli.EnvVars("ALLEZGO_PELOTON_PASSWORD"),
			},
			&cli.StringFlag{
				Name:    "garmin-email",
				Usage:   "Email address you use to login to Garmin Connect",
				Sources: cli.EnvVars("ALLEZGO_GARMIN_EMAIL"),
			},
			&cli.StringFlag{
				Name:    "garmin-password",
				Usage:   "Password you use to login to Garmin Connect",
				Sources: cli.EnvVars("ALLEZGO_GARMIN_PASSWORD"),
			},
			&cli.StringFlag{
				Name:    "gear",
				Usage:   "Brand & Model of the custom gear for your Peloton bike in Garmin",
				Sources: cli.EnvVars("ALLEZGO_GARMIN_GEAR"),
			},
			&cli.BoolFlag{
				Name:  "today",
				Usage: "Only synchronize today's rides",
			},
			&cli.BoolFlag{
				Name:  "remember",
				Usage: "Remember credentials on this computer (use --remember=false to forget)",
			},
			&cli.BoolFlag{
				Name:  "no-restore",
				Usage: "Ignore remembered credentials",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json, markdown or csv",
				Value:   "text",
			},
		},
		Action: r.Sync,
	}
}

// serveCommand runs the local web app
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the sync form as a local web app",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Interface to listen on (defaults to server.host)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on (defaults to server.port)",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the form in the default browser",
			},
		},
		Action: r.Serve,
	}
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"ui"},
		Usage:   "Fill in and submit the sync form in the terminal",
		Action:  r.TUI,
	}
}

// credentialsCommand inspects and removes remembered credentials
func credentialsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "credentials",
		Aliases: []string{"creds"},
		Usage:   "Manage remembered credentials",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show remembered credentials with passwords masked",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output JSON",
					},
				},
				Action: r.CredentialsShow,
			},
			{
				Name:   "forget",
				Usage:  "Remove remembered credentials",
				Action: r.CredentialsForget,
			},
		},
	}
}

// historyCommand reads and prunes recorded sync runs
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Recorded sync runs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recent sync runs, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to show (0 for all)",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output JSON",
					},
				},
				Action: r.HistoryList,
			},
			{
				Name:  "prune",
				Usage: "Delete sync runs older than a duration",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "older-than",
						Usage: "Age of the runs to delete",
						Value: 30 * 24 * time.Hour,
					},
				},
				Action: r.HistoryPrune,
			},
		},
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create a config file and initialize the database",
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
