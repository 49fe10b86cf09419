package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/sung/internal/playlist"
	"github.com/desertthunder/sung/internal/search"
	"github.com/desertthunder/sung/internal/services"
	"github.com/desertthunder/sung/internal/shared"
	"github.com/desertthunder/sung/internal/tracks"
	"github.com/desertthunder/sung/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive track browser for a playlist or a search.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, closeLog, err := shared.NewFileLogger(cmd.String("log"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer closeLog()
	fileLogger.SetLevel(r.logger.GetLevel())
	r.logger = fileLogger

	model, err := r.tuiModel(ctx, cmd.String("playlist"), cmd.String("search"))
	if err != nil {
		return err
	}

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

// tuiModel builds the model for exactly one of playlistRef and query. Playlists are opened for editing;
// search results are read-only.
func (r *Runner) tuiModel(ctx context.Context, playlistRef, query string) (*ui.Model, error) {
	switch {
	case playlistRef != "" && query != "":
		return nil, fmt.Errorf("%w: use either --playlist or --search", shared.ErrInvalidFlag)
	case playlistRef != "":
		api, err := r.spotifyAPI(ctx, services.PlaylistModifyScopes...)
		if err != nil {
			return nil, err
		}
		p, err := playlist.New(api, playlistRef, playlist.WithLogger(r.logger))
		if err != nil {
			return nil, err
		}
		return ui.NewModel(ctx, fmt.Sprintf("Playlist %s", p.ID()), p, r.logger), nil
	case query != "":
		var c *tracks.Collection
		err := r.withSpotify(ctx, func(api services.API) error {
			var err error
			c, err = search.Collection(ctx, api, query, search.Options{})
			return err
		})
		if err != nil {
			return nil, err
		}
		return ui.NewModel(ctx, fmt.Sprintf("Search: %s", query), ui.Static{Collection: c}, r.logger), nil
	}
	return nil, fmt.Errorf("%w: --playlist or --search", shared.ErrMissingArgument)
}
