package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/sung/internal/formatter"
	"github.com/desertthunder/sung/internal/refs"
	"github.com/desertthunder/sung/internal/search"
	"github.com/desertthunder/sung/internal/services"
	"github.com/desertthunder/sung/internal/shared"
	"github.com/desertthunder/sung/internal/tracks"
	"github.com/urfave/cli/v3"
)

var casters = map[string]*refs.Caster{
	"track":    refs.Track,
	"playlist": refs.Playlist,
	"album":    refs.Album,
	"artist":   refs.Artist,
}

// Cast converts each argument to the --to encoding.
func (r *Runner) Cast(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) == 0 {
		return fmt.Errorf("%w: at least one reference is required", shared.ErrMissingArgument)
	}

	caster, ok := casters[strings.ToLower(cmd.String("type"))]
	if !ok {
		return fmt.Errorf("%w: --type %q", shared.ErrInvalidFlag, cmd.String("type"))
	}

	target, err := refs.ParseKind(cmd.String("to"))
	if err != nil {
		return err
	}

	var from []refs.Kind
	for _, s := range cmd.StringSlice("from") {
		k, err := refs.ParseKind(s)
		if err != nil {
			return err
		}
		from = append(from, k)
	}

	for _, ref := range args {
		out, err := caster.Cast(ref, target, from...)
		if err != nil {
			return err
		}
		r.writePlain("%s\n", out)
	}
	return nil
}

// Search runs a track search and prints the results as a table.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	q := strings.Join(cmd.Args().Slice(), " ")
	if strings.TrimSpace(q) == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	opts := search.Options{
		Filters: search.Filters{Year: cmd.String("year"), Genre: cmd.String("genre")},
		Market:  cmd.String("market"),
		Limit:   cmd.Int("limit"),
		Offset:  cmd.Int("offset"),
	}
	r.logger.Debug("searching", "query", search.Query(q, opts.Filters), "limit", search.Limit(opts.Limit))

	var table *tracks.Table
	err := r.withSpotify(ctx, func(api services.API) error {
		c, err := search.Collection(ctx, api, q, opts)
		if err != nil {
			return err
		}
		table, err = c.Table(ctx, nil)
		return err
	})
	if err != nil {
		return err
	}

	if table.Len() == 0 {
		return r.writePlain("No tracks found for %q\n", q)
	}
	return r.writeTable(cmd, table, fmt.Sprintf("Search: %s", q))
}

// TracksShow fetches the metadata of the given tracks.
func (r *Runner) TracksShow(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) == 0 {
		return fmt.Errorf("%w: at least one track reference is required", shared.ErrMissingArgument)
	}
	if _, err := refs.Track.IDs(args); err != nil {
		return err
	}

	var table *tracks.Table
	err := r.withSpotify(ctx, func(api services.API) error {
		var err error
		table, err = tracks.FromRefs(api, args).Table(ctx, nil)
		return err
	})
	if err != nil {
		return err
	}
	return r.writeTable(cmd, table, "Tracks")
}

// writeTable renders table in the --format format to stdout, or exports it to --output.
func (r *Runner) writeTable(cmd *cli.Command, table *tracks.Table, title string) error {
	f, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	opts := formatter.Options{Title: title}

	if path := cmd.String("output"); path != "" {
		if err := formatter.Export(table, path, f, opts); err != nil {
			return err
		}
		r.logger.Info("table exported", "path", path, "rows", table.Len())
		return r.writePlain("✓ Wrote %d tracks to %s\n", table.Len(), path)
	}
	return formatter.Write(r.output, table, f, opts)
}
