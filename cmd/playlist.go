package main

import (
	"bufio"
	"cmp"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/desertthunder/sung/internal/analysis"
	"github.com/desertthunder/sung/internal/formatter"
	"github.com/desertthunder/sung/internal/playlist"
	"github.com/desertthunder/sung/internal/refs"
	"github.com/desertthunder/sung/internal/services"
	"github.com/desertthunder/sung/internal/shared"
	"github.com/desertthunder/sung/internal/tracks"
	"github.com/urfave/cli/v3"
)

func (r *Runner) openPlaylist(api services.API, cmd *cli.Command) (*playlist.Playlist, error) {
	return playlist.New(api, cmd.String("id"), playlist.WithLogger(r.logger))
}

// readPlaylist reads the --id playlist into a table and returns it with the bare playlist id.
func (r *Runner) readPlaylist(ctx context.Context, cmd *cli.Command) (*tracks.Table, string, error) {
	var (
		table *tracks.Table
		id    string
	)
	err := r.withSpotify(ctx, func(api services.API) error {
		reader, err := playlist.NewReader(api, cmd.String("id"), playlist.WithLogger(r.logger))
		if err != nil {
			return err
		}
		id = reader.ID()
		table, err = reader.Table(ctx)
		return err
	})
	return table, id, err
}

// PlaylistShow prints the tracks of a playlist, or exports them with --output or --export-dir.
func (r *Runner) PlaylistShow(ctx context.Context, cmd *cli.Command) error {
	table, id, err := r.readPlaylist(ctx, cmd)
	if err != nil {
		return err
	}

	title := fmt.Sprintf("Playlist %s", id)
	if dir := cmd.String("export-dir"); dir != "" {
		result, err := formatter.WriteMarkdownExport(table, dir, title, cmd.String("cover"))
		if err != nil {
			return err
		}
		r.writePlain("✓ Playlist exported to %s\n", result.Directory)
		for _, f := range result.Files {
			r.writePlain("  %s\n", f)
		}
		return nil
	}
	return r.writeTable(cmd, table, title)
}

// PlaylistURL prints the web URL of a playlist. No API call is made.
func (r *Runner) PlaylistURL(ctx context.Context, cmd *cli.Command) error {
	id, err := refs.PlaylistID(cmd.String("id"))
	if err != nil {
		return err
	}
	return r.writePlain("%s\n", refs.PlaylistURL(id))
}

// PlaylistAdd appends the argument tracks to a playlist.
func (r *Runner) PlaylistAdd(ctx context.Context, cmd *cli.Command) error {
	return r.editPlaylist(ctx, cmd, "Added", (*playlist.Playlist).Add)
}

// PlaylistRemove removes every occurrence of the argument tracks from a playlist.
func (r *Runner) PlaylistRemove(ctx context.Context, cmd *cli.Command) error {
	return r.editPlaylist(ctx, cmd, "Removed", (*playlist.Playlist).Remove)
}

func (r *Runner) editPlaylist(ctx context.Context, cmd *cli.Command, verb string,
	edit func(*playlist.Playlist, context.Context, ...string) error) error {
	args := cmd.Args().Slice()
	if len(args) == 0 {
		return fmt.Errorf("%w: at least one track reference is required", shared.ErrMissingArgument)
	}

	var p *playlist.Playlist
	err := r.withSpotify(ctx, func(api services.API) error {
		var err error
		if p, err = r.openPlaylist(api, cmd); err != nil {
			return err
		}
		return edit(p, ctx, args...)
	}, services.PlaylistModifyScopes...)
	if err != nil {
		return err
	}
	return r.writePlain("✓ %s %d tracks (%s)\n", verb, len(args), p.URL())
}

// PlaylistCreate creates a playlist for the current user with the argument tracks.
func (r *Runner) PlaylistCreate(ctx context.Context, cmd *cli.Command) error {
	trackRefs := cmd.Args().Slice()
	if _, err := refs.Track.IDs(trackRefs); err != nil {
		return err
	}

	var p *playlist.Playlist
	err := r.withSpotify(ctx, func(api services.API) error {
		var err error
		p, err = playlist.Create(ctx, api, trackRefs, cmd.String("name"), cmd.Bool("public"), playlist.WithLogger(r.logger))
		return err
	}, services.PlaylistModifyScopes...)
	if p != nil {
		r.writePlain("✓ Created %s playlist %s\n", strings.ToLower(shared.VisibilityString(cmd.Bool("public"))), p.ID())
		r.writePlain("  %s\n", p.URL())
	}
	if err != nil {
		return err
	}
	if len(trackRefs) > 0 {
		r.writePlain("  Tracks: %d\n", len(trackRefs))
	}
	return nil
}

// PlaylistDelete unfollows a playlist after confirmation, which deletes playlists the user owns.
func (r *Runner) PlaylistDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := refs.PlaylistID(cmd.String("id"))
	if err != nil {
		return err
	}

	if !cmd.Bool("yes") && !r.confirm(fmt.Sprintf("Delete playlist %s?", id)) {
		return r.writePlain("Cancelled\n")
	}

	err = r.withSpotify(ctx, func(api services.API) error {
		p, err := r.openPlaylist(api, cmd)
		if err != nil {
			return err
		}
		return p.Unfollow(ctx)
	}, services.PlaylistModifyScopes...)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Deleted playlist %s\n", id)
}

// confirm asks a yes/no question on the runner's input. Anything but y or yes is a no.
func (r *Runner) confirm(question string) bool {
	r.writePlain("%s [y/N] ", question)
	line, err := bufio.NewReader(r.input).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// PlaylistAnalyze writes a Markdown report on a playlist's tracks.
func (r *Runner) PlaylistAnalyze(ctx context.Context, cmd *cli.Command) error {
	table, id, err := r.readPlaylist(ctx, cmd)
	if err != nil {
		return err
	}

	opts := analysis.DefaultReportOptions()
	opts.Title = cmp.Or(cmd.String("title"), fmt.Sprintf("Playlist %s", id))
	if n := cmd.Int("top"); n > 0 {
		opts.TopSongs = n
	}

	var w io.Writer = r.output
	if path := cmd.String("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		defer f.Close()
		w = f
	}

	if err := analysis.New(table).Report(w, opts); err != nil {
		return err
	}
	if path := cmd.String("output"); path != "" {
		r.logger.Info("report written", "path", path, "tracks", table.Len())
		return r.writePlain("✓ Report written to %s\n", path)
	}
	return nil
}
