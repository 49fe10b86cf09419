package playlist

import (
	"context"
	"fmt"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sung/internal/refs"
	"github.com/desertthunder/sung/internal/services"
	"github.com/desertthunder/sung/internal/shared"
	"github.com/desertthunder/sung/internal/tracks"
)

const (
	// BatchSize is the largest number of tracks sent in one add or remove call.
	BatchSize = services.MaxPlaylistItemsPerRequest

	// DefaultName is used by [Create] when no name is given.
	DefaultName = "New Playlist"
)

// Playlist is a remote playlist that can be changed.
//
// Reads go through the reader's cache, which every successful change invalidates, so the playlist
// and its [Reader] always agree. A Playlist is not safe for concurrent use.
type Playlist struct {
	reader *Reader
	api    services.API
	logger *log.Logger
	tracks *tracks.Cache[*tracks.Collection]
}

// New returns a handle to the playlist identified by ref, in any encoding.
func New(api services.API, ref string, opts ...Option) (*Playlist, error) {
	r, err := NewReader(api, ref, opts...)
	if err != nil {
		return nil, err
	}
	return &Playlist{
		reader: r,
		api:    api,
		logger: r.logger,
		tracks: r.tracks,
	}, nil
}

// Create makes a playlist owned by the current user, adds trackRefs to it and returns a handle.
//
// An empty name is replaced with [DefaultName]. References are validated before the playlist is created.
// If adding the tracks fails, the handle is returned along with the error.
func Create(ctx context.Context, api services.API, trackRefs []string, name string, public bool, opts ...Option) (*Playlist, error) {
	ids, err := refs.Track.IDs(trackRefs)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = DefaultName
	}

	user, err := api.CurrentUserID(ctx)
	if err != nil {
		return nil, err
	}

	id, err := api.CreatePlaylist(ctx, user, name, "", public)
	if err != nil {
		return nil, err
	}

	p, err := New(api, id, opts...)
	if err != nil {
		return nil, err
	}
	p.logger.Info("created playlist", "name", name, "public", public)

	if err := p.submit(ctx, ids, api.AddPlaylistItems); err != nil {
		return p, err
	}
	return p, nil
}

// ID returns the bare playlist id.
func (p *Playlist) ID() string { return p.reader.ID() }

// URL returns the playlist's web URL.
func (p *Playlist) URL() string { return p.reader.URL() }

// Reader returns the playlist's read-only view.
func (p *Playlist) Reader() *Reader { return p.reader }

// Tracks returns the playlist's tracks, reading them if the cache is empty.
func (p *Playlist) Tracks(ctx context.Context) (*tracks.Collection, error) {
	return p.tracks.Get(ctx)
}

// Table projects the current tracks to a table that includes when each track was added.
func (p *Playlist) Table(ctx context.Context, opts ...tracks.TableOption) (*tracks.Table, error) {
	c, err := p.Tracks(ctx)
	if err != nil {
		return nil, err
	}
	return p.reader.table(ctx, c, opts)
}

// Add appends tracks, in batches of [BatchSize]. All references are validated before the first call.
//
// The first failing batch aborts the call; earlier batches stay applied.
func (p *Playlist) Add(ctx context.Context, trackRefs ...string) error {
	ids, err := refs.Track.IDs(trackRefs)
	if err != nil {
		return err
	}
	return p.submit(ctx, ids, p.api.AddPlaylistItems)
}

// Append adds one track to the end of the playlist.
func (p *Playlist) Append(ctx context.Context, ref string) error {
	return p.Add(ctx, ref)
}

// Remove deletes every occurrence of each track, in batches of [BatchSize].
func (p *Playlist) Remove(ctx context.Context, trackRefs ...string) error {
	ids, err := refs.Track.IDs(trackRefs)
	if err != nil {
		return err
	}
	return p.submit(ctx, ids, p.api.RemovePlaylistItems)
}

// Delete removes one track, failing with a [*tracks.NotFoundError] if the playlist does not contain it.
func (p *Playlist) Delete(ctx context.Context, ref string) error {
	c, err := p.Tracks(ctx)
	if err != nil {
		return err
	}
	if _, err := c.Index(ref); err != nil {
		return err
	}
	return p.Remove(ctx, ref)
}

// Replace is not supported; tracks can only be added or removed.
func (p *Playlist) Replace(ref string, meta tracks.Metadata) error {
	return fmt.Errorf("%w: playlist tracks cannot be replaced, use Add", shared.ErrUnsupportedOperation)
}

// Unfollow removes the playlist from the current user's library, which deletes it if the user owns it.
func (p *Playlist) Unfollow(ctx context.Context) error {
	if err := p.api.UnfollowPlaylist(ctx, p.ID()); err != nil {
		return err
	}
	p.logger.Info("unfollowed playlist")
	p.tracks.Invalidate()
	return nil
}

func (p *Playlist) submit(ctx context.Context, ids []string, call func(context.Context, string, []string) error) error {
	if len(ids) == 0 {
		return nil
	}

	done := 0
	for batch := range slices.Chunk(ids, BatchSize) {
		if err := call(ctx, p.ID(), batch); err != nil {
			if done > 0 {
				p.tracks.Invalidate()
			}
			p.logger.Error("playlist update failed", "applied", done, "requested", len(ids), "err", err)
			return err
		}
		done += len(batch)
	}

	p.logger.Debug("playlist updated", "tracks", done)
	p.tracks.Invalidate()
	return nil
}
