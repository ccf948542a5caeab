// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: text, markdown, csv or json",
		Value:   "text",
	}
}

func yesFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "yes",
		Aliases: []string{"y"},
		Usage:   "Skip the confirmation prompt",
	}
}

func topNFlag() cli.Flag {
	return &cli.IntFlag{
		Name:  "top-n",
		Usage: "Number of recommendations to request",
		Value: 10,
	}
}

// setupCommand handles setup operations for the local store and configuration.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize the local session database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Write a config.toml populated with the defaults",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "print",
						Usage: "Print the effective configuration instead of writing a file",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

func credentialFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "username",
			Aliases: []string{"u"},
			Usage:   "Account username (prompted when omitted)",
		},
		&cli.StringFlag{
			Name:    "password",
			Aliases: []string{"p"},
			Usage:   "Account password (prompted when omitted)",
		},
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage your CineAI session",
		Commands: []*cli.Command{
			{
				Name:   "signup",
				Usage:  "Create an account and sign in",
				Flags:  credentialFlags(),
				Action: r.AuthSignup,
			},
			{
				Name:   "login",
				Usage:  "Sign in and store the access token",
				Flags:  credentialFlags(),
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored access token",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Check API health and the stored token",
				Action: r.AuthStatus,
			},
			{
				Name:   "whoami",
				Usage:  "Show the signed-in user",
				Action: r.AuthWhoami,
			},
			{
				Name:  "import",
				Usage: "Import the token of a web session",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "token",
						Usage: "Bearer token to store",
					},
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command from browser DevTools (Copy as cURL)",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to .sh file containing cURL command",
					},
				},
				Action: r.AuthImport,
			},
		},
	}
}

// blendCommand handles blend sessions
func blendCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "blend",
		Aliases: []string{"blends", "b"},
		Usage:   "Create, join and browse shared recommendation sessions",
		Commands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Create a blend",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Action:    r.BlendCreate,
			},
			{
				Name:      "join",
				Usage:     "Join a blend by code",
				Arguments: []cli.Argument{&cli.StringArg{Name: "code"}},
				Action:    r.BlendJoin,
			},
			{
				Name:  "invite",
				Usage: "Invite a user into a blend",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "code"},
					&cli.StringArg{Name: "user"},
				},
				Action: r.BlendInvite,
			},
			{
				Name:   "list",
				Usage:  "List your blends, including ones remembered locally",
				Flags:  []cli.Flag{formatFlag()},
				Action: r.BlendList,
			},
			{
				Name:      "show",
				Usage:     "Show a blend's members and recommendations",
				Arguments: []cli.Argument{&cli.StringArg{Name: "code"}},
				Flags:     []cli.Flag{formatFlag()},
				Action:    r.BlendShow,
			},
			{
				Name:      "delete",
				Usage:     "Delete a blend permanently",
				Arguments: []cli.Argument{&cli.StringArg{Name: "code"}},
				Flags:     []cli.Flag{yesFlag()},
				Action:    r.BlendDelete,
			},
			{
				Name:      "copy",
				Usage:     "Copy a blend code to the clipboard",
				Arguments: []cli.Argument{&cli.StringArg{Name: "code"}},
				Action:    r.BlendCopy,
			},
			{
				Name:      "open",
				Usage:     "Open a blend in the web app",
				Arguments: []cli.Argument{&cli.StringArg{Name: "code"}},
				Action:    r.BlendOpen,
			},
			{
				Name:      "watch",
				Usage:     "Follow a blend, printing it whenever it changes",
				Arguments: []cli.Argument{&cli.StringArg{Name: "code"}},
				Action:    r.BlendWatch,
			},
			{
				Name:      "export",
				Usage:     "Write a blend to a file",
				Arguments: []cli.Argument{&cli.StringArg{Name: "code"}},
				Flags: []cli.Flag{
					formatFlag(),
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: blend_{CODE}.{ext})",
					},
				},
				Action: r.BlendExport,
			},
			{
				Name:  "history",
				Usage: "Add watched movies from a blend (comma separated titles)",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "code"},
					&cli.StringArgs{Name: "titles", Min: 0, Max: -1},
				},
				Action: r.BlendHistory,
			},
		},
	}
}

// historyCommand handles watch history
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Watch history",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Add watched movies (comma separated titles)",
				Arguments: []cli.Argument{&cli.StringArgs{Name: "titles", Min: 0, Max: -1}},
				Action:    r.HistoryAdd,
			},
			{
				Name:   "list",
				Usage:  "Show your watch history",
				Flags:  []cli.Flag{formatFlag()},
				Action: r.HistoryList,
			},
			{
				Name:  "recent",
				Usage: "Show titles added from this device",
				Flags: []cli.Flag{
					formatFlag(),
					&cli.BoolFlag{
						Name:  "clear",
						Usage: "Forget the recently watched titles",
					},
				},
				Action: r.HistoryRecent,
			},
		},
	}
}

// recommendCommand handles movie recommendations
func recommendCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "recommend",
		Aliases: []string{"rec"},
		Usage:   "Movie recommendations",
		Commands: []*cli.Command{
			{
				Name:      "mood",
				Usage:     "Recommend movies for a mood",
				Arguments: []cli.Argument{&cli.StringArg{Name: "mood"}},
				Flags: []cli.Flag{
					topNFlag(),
					formatFlag(),
					&cli.BoolFlag{
						Name:  "with-recent",
						Usage: "Steer results with the recently watched titles",
					},
				},
				Action: r.RecommendMood,
			},
			{
				Name:   "history",
				Usage:  "Recommend movies from your watch history",
				Flags:  []cli.Flag{topNFlag(), formatFlag()},
				Action: r.RecommendHistory,
			},
		},
	}
}

func movieIDFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "movie-id",
		Usage: "Catalogue id of the movie (a manual id is generated when omitted)",
	}
}

// watchlistCommand handles watchlists
func watchlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "watchlist",
		Aliases: []string{"wl"},
		Usage:   "Manage watchlists",
		Commands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Create a watchlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Action:    r.WatchlistCreate,
			},
			{
				Name:   "list",
				Usage:  "List your watchlists",
				Flags:  []cli.Flag{formatFlag()},
				Action: r.WatchlistList,
			},
			{
				Name:      "show",
				Usage:     "Show a watchlist and its movies",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{formatFlag()},
				Action:    r.WatchlistShow,
			},
			{
				Name:  "add",
				Usage: "Add a movie to a watchlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
					&cli.StringArg{Name: "title"},
				},
				Flags:  []cli.Flag{movieIDFlag()},
				Action: r.WatchlistAdd,
			},
			{
				Name:  "remove",
				Usage: "Remove a movie from a watchlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
					&cli.StringArg{Name: "movie-id"},
				},
				Action: r.WatchlistRemove,
			},
			{
				Name:      "delete",
				Usage:     "Delete a watchlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{yesFlag()},
				Action:    r.WatchlistDelete,
			},
			{
				Name:  "watched",
				Usage: "Record a movie as watched and take it off the watchlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
					&cli.StringArg{Name: "title"},
				},
				Flags: []cli.Flag{
					movieIDFlag(),
					&cli.BoolFlag{
						Name:  "keep",
						Usage: "Leave the movie on the watchlist",
					},
				},
				Action: r.WatchlistWatched,
			},
		},
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct authenticated calls to the CineAI API",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "compact",
						Usage: "Print JSON on one line",
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for the interactive blend screens.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive blend screens",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the TUI is running",
				Value: "./tmp/cineai-tui.log",
			},
		},
		Action: r.TUI,
	}
}

// devCommand runs local development helpers.
func devCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "dev",
		Usage: "Development helpers",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Run an in-memory CineAI API for offline demos",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address",
						Value: "127.0.0.1:8000",
					},
					&cli.StringFlag{
						Name:  "secret",
						Usage: "HMAC secret for issued tokens",
						Value: "cineai-dev-secret",
					},
					&cli.StringSliceFlag{
						Name:  "user",
						Usage: "Seed an account as username:password (repeatable)",
					},
				},
				Action: r.DevServe,
			},
		},
	}
}

// rootCommand is the cineai application with every subcommand attached to r.
func rootCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "cineai",
		Usage:   "Blend movie tastes with friends from the terminal",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before:   r.Before,
		After:    r.After,
		Commands: r.register(),
	}
}
