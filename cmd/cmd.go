// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func formatFlag(value string) cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: table, csv, markdown, text or json",
		Value:   value,
	}
}

func outputFlag(usage string) cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   usage,
	}
}

func playlistFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "id",
		Usage:    "Playlist id, URI or URL",
		Required: true,
	}
}

// setupCommand handles first run configuration.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write an example config.toml to the --config path",
				Action: r.SetupConfig,
			},
		},
	}
}

// authCommand handles Spotify authorization.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Spotify authorization",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authorize sung with your Spotify account using OAuth2",
				Action: r.AuthLogin,
			},
			{
				Name:  "status",
				Usage: "Show the stored token and its scopes",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "check",
						Usage: "Call the API to verify the token",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output JSON",
					},
				},
				Action: r.AuthStatus,
			},
		},
	}
}

// castCommand converts references between encodings.
func castCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "cast",
		Usage:     "Convert track or playlist references between id, uri, url and href",
		ArgsUsage: "<ref>...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "to",
				Usage: "Target encoding: id, uri, url or href",
				Value: "id",
			},
			&cli.StringSliceFlag{
				Name:  "from",
				Usage: "Accepted input encodings (default: any)",
			},
			&cli.StringFlag{
				Name:  "type",
				Usage: "Entity type: track, playlist, album or artist",
				Value: "track",
			},
		},
		Action: r.Cast,
	}
}

// searchCommand runs track searches.
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search Spotify for tracks",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "year",
				Usage: "Year or range, e.g. 1990-1999",
			},
			&cli.StringFlag{
				Name:  "genre",
				Usage: "Genre filter",
			},
			&cli.StringFlag{
				Name:  "market",
				Usage: "ISO 3166-1 alpha-2 market",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Number of results (1-50)",
				Value:   20,
			},
			&cli.IntFlag{
				Name:  "offset",
				Usage: "Index of the first result",
			},
			formatFlag("table"),
			outputFlag("Write results to a file instead of stdout"),
		},
		Action: r.Search,
	}
}

// tracksCommand inspects individual tracks.
func tracksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tracks",
		Usage: "Track operations",
		Commands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Show metadata for tracks given by id, URI or URL",
				ArgsUsage: "<ref>...",
				Flags: []cli.Flag{
					formatFlag("table"),
					outputFlag("Write the table to a file instead of stdout"),
				},
				Action: r.TracksShow,
			},
		},
	}
}

// playlistCommand reads and edits playlists.
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlist",
		Aliases: []string{"pl"},
		Usage:   "Playlist operations",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "List the tracks of a playlist",
				Flags: []cli.Flag{
					playlistFlag(),
					formatFlag("table"),
					outputFlag("Write the table to a file instead of stdout"),
					&cli.StringFlag{
						Name:  "export-dir",
						Usage: "Write a README.md (and cover.jpg when --cover is set) to this directory",
					},
					&cli.StringFlag{
						Name:  "cover",
						Usage: "Cover image URL for --export-dir",
					},
				},
				Action: r.PlaylistShow,
			},
			{
				Name:   "url",
				Usage:  "Print the open.spotify.com URL of a playlist",
				Flags:  []cli.Flag{playlistFlag()},
				Action: r.PlaylistURL,
			},
			{
				Name:      "add",
				Usage:     "Add tracks to a playlist",
				ArgsUsage: "<ref>...",
				Flags:     []cli.Flag{playlistFlag()},
				Action:    r.PlaylistAdd,
			},
			{
				Name:      "remove",
				Usage:     "Remove every occurrence of tracks from a playlist",
				ArgsUsage: "<ref>...",
				Flags:     []cli.Flag{playlistFlag()},
				Action:    r.PlaylistRemove,
			},
			{
				Name:      "create",
				Usage:     "Create a playlist, optionally seeded with tracks",
				ArgsUsage: "<ref>...",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Playlist name",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "public",
						Usage: "Make the playlist public",
					},
				},
				Action: r.PlaylistCreate,
			},
			{
				Name:  "delete",
				Usage: "Unfollow (delete) a playlist",
				Flags: []cli.Flag{
					playlistFlag(),
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "Do not ask for confirmation",
					},
				},
				Action: r.PlaylistDelete,
			},
			{
				Name:  "analyze",
				Usage: "Write a Markdown report on a playlist",
				Flags: []cli.Flag{
					playlistFlag(),
					outputFlag("Write the report to a file instead of stdout"),
					&cli.StringFlag{
						Name:  "title",
						Usage: "Report title",
					},
					&cli.IntFlag{
						Name:  "top",
						Usage: "Number of most popular songs to list",
						Value: 20,
					},
				},
				Action: r.PlaylistAnalyze,
			},
		},
	}
}

// meCommand reads the current user's listening history.
func meCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "me",
		Usage: "Your listening history",
		Commands: []*cli.Command{
			{
				Name:  "recent",
				Usage: "List recently played tracks",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Number of plays (1-50)",
						Value:   50,
					},
					&cli.BoolFlag{
						Name:  "names",
						Usage: "Print only track names, one per line",
					},
					formatFlag("table"),
					outputFlag("Write the table to a file instead of stdout"),
				},
				Action: r.MeRecent,
			},
			{
				Name:  "top",
				Usage: "List your top tracks",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "time-range",
						Usage: "short (4 weeks), medium (6 months) or long (1 year)",
						Value: "long",
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Number of tracks (1-50)",
						Value:   20,
					},
					&cli.IntFlag{
						Name:  "offset",
						Usage: "Rank of the first track",
					},
					formatFlag("table"),
					outputFlag("Write the table to a file instead of stdout"),
				},
				Action: r.MeTop,
			},
		},
	}
}

// chordsCommand renders chord sheets.
func chordsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "chords",
		Usage: "Chord sheet operations",
		Commands: []*cli.Command{
			{
				Name:  "render",
				Usage: "Render a chord sheet to text or PDF",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "to",
						Usage: "Output format: text or pdf",
						Value: "text",
					},
					outputFlag("Output file (required for pdf)"),
					&cli.BoolFlag{
						Name:  "filter",
						Usage: "Drop lines that do not look like lyrics",
					},
					&cli.BoolFlag{
						Name:  "keep-metadata",
						Usage: "With --filter, keep [Chorus] style markers",
					},
					&cli.BoolFlag{
						Name:  "pack",
						Usage: "Join short lyric lines",
					},
					&cli.IntFlag{
						Name:  "max-length",
						Usage: "Widest packed line",
						Value: 80,
					},
					&cli.StringFlag{
						Name:  "page-size",
						Usage: "PDF page size: A3, A4, A5, LETTER or LEGAL (default from config)",
					},
					&cli.StringFlag{
						Name:  "title",
						Usage: "PDF title (default: first lyric line)",
					},
					&cli.BoolFlag{
						Name:    "watch",
						Aliases: []string{"w"},
						Usage:   "Re-render whenever the input file changes",
					},
				},
				Action: r.ChordsRender,
			},
		},
	}
}

// tuiCommand launches the terminal UI.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Browse a playlist or search results interactively",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "playlist",
				Usage: "Playlist id, URI or URL (tracks can be removed)",
			},
			&cli.StringFlag{
				Name:  "search",
				Usage: "Search query (read-only)",
			},
			&cli.StringFlag{
				Name:  "log",
				Usage: "Log file",
				Value: "./tmp/sung-tui.log",
			},
		},
		Action: r.TUI,
	}
}
