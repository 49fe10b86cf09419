package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/sung/internal/history"
	"github.com/desertthunder/sung/internal/services"
	"github.com/desertthunder/sung/internal/shared"
	"github.com/desertthunder/sung/internal/tracks"
	"github.com/urfave/cli/v3"
)

// MeRecent lists the recently played tracks, newest first.
func (r *Runner) MeRecent(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")

	if cmd.Bool("names") {
		var names any
		err := r.withSpotify(ctx, func(api services.API) error {
			var err error
			names, err = history.Recent(ctx, api, limit, nil)
			return err
		}, services.RecentlyPlayedScopes...)
		if err != nil {
			return err
		}

		list, _ := names.([]any)
		for _, name := range list {
			r.writePlain("%v\n", name)
		}
		return nil
	}

	var table *tracks.Table
	err := r.withSpotify(ctx, func(api services.API) error {
		c, err := history.RecentCollection(ctx, api, limit)
		if err != nil {
			return err
		}
		table, err = c.Table(ctx, nil)
		return err
	}, services.RecentlyPlayedScopes...)
	if err != nil {
		return err
	}

	if table.Len() == 0 {
		return r.writePlain("Nothing played recently\n")
	}
	return r.writeTable(cmd, table, "Recently played")
}

// MeTop lists the user's top tracks over --time-range.
func (r *Runner) MeTop(ctx context.Context, cmd *cli.Command) error {
	timeRange, err := parseTimeRange(cmd.String("time-range"))
	if err != nil {
		return err
	}
	opts := services.TopOptions{TimeRange: timeRange, Limit: cmd.Int("limit"), Offset: cmd.Int("offset")}

	var table *tracks.Table
	err = r.withSpotify(ctx, func(api services.API) error {
		c, err := history.TopCollection(ctx, api, opts)
		if err != nil {
			return err
		}
		table, err = c.Table(ctx, nil)
		return err
	}, services.TopReadScopes...)
	if err != nil {
		return err
	}

	if table.Len() == 0 {
		return r.writePlain("No top tracks for %s\n", timeRange)
	}
	return r.writeTable(cmd, table, fmt.Sprintf("Top tracks (%s)", timeRange))
}

// parseTimeRange accepts short, medium and long with or without the "_term" suffix.
func parseTimeRange(s string) (string, error) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "_term") {
	case "short":
		return services.TimeRangeShort, nil
	case "medium":
		return services.TimeRangeMedium, nil
	case "", "long":
		return services.TimeRangeLong, nil
	}
	return "", fmt.Errorf("%w: --time-range %q (use short, medium or long)", shared.ErrInvalidFlag, s)
}
