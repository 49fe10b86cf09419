// Package playlist reads and modifies remote Spotify playlists.
//
// [Reader] pages through a playlist's items into a [tracks.Collection]. [Playlist] composes a reader with
// batched add and remove calls and drops its cached collection after every successful change, so the
// next read always reflects the remote state.
package playlist

import (
	"context"
	"maps"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sung/internal/refs"
	"github.com/desertthunder/sung/internal/services"
	"github.com/desertthunder/sung/internal/shared"
	"github.com/desertthunder/sung/internal/tracks"
)

// PageSize is the number of items requested per playlist page.
const PageSize = services.MaxPlaylistPageSize

// Option configures a [Reader] or [Playlist].
type Option func(*options)

type options struct {
	logger   *log.Logger
	pageSize int
}

// WithLogger logs page fetches and mutations to l.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithPageSize overrides [PageSize]. Values outside 1..[PageSize] are ignored.
func WithPageSize(n int) Option {
	return func(o *options) {
		if n > 0 && n <= PageSize {
			o.pageSize = n
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: shared.DiscardLogger(), pageSize: PageSize}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Reader is a read-only view of a remote playlist.
type Reader struct {
	api      services.API
	id       string
	logger   *log.Logger
	pageSize int
	addedAt  map[string]string
	tracks   *tracks.Cache[*tracks.Collection]
}

// NewReader returns a reader for the playlist identified by ref, in any encoding.
func NewReader(api services.API, ref string, opts ...Option) (*Reader, error) {
	id, err := refs.PlaylistID(ref)
	if err != nil {
		return nil, err
	}

	o := buildOptions(opts)
	r := &Reader{
		api:      api,
		id:       id,
		logger:   o.logger.With("playlist", id),
		pageSize: o.pageSize,
		addedAt:  map[string]string{},
	}
	r.tracks = tracks.NewCache(r.FetchAll)
	return r, nil
}

// ID returns the bare playlist id.
func (r *Reader) ID() string { return r.id }

// URL returns the playlist's web URL. It makes no request.
func (r *Reader) URL() string { return refs.PlaylistURL(r.id) }

// FetchAll reads every page of the playlist and returns its tracks in order.
//
// Items without a track, such as local files or removed tracks, are skipped. Nothing is returned until
// the last page has been read.
func (r *Reader) FetchAll(ctx context.Context) (*tracks.Collection, error) {
	var (
		metas   []tracks.Metadata
		addedAt = map[string]string{}
		skipped int
	)

	for offset := 0; ; {
		page, err := r.api.PlaylistItems(ctx, r.id, r.pageSize, offset)
		if err != nil {
			return nil, err
		}
		r.logger.Debug("fetched playlist page", "offset", offset, "items", len(page.Items), "total", page.Total)

		for _, item := range page.Items {
			id, _ := item.Track["id"].(string)
			if item.Track == nil || id == "" {
				skipped++
				continue
			}
			metas = append(metas, item.Track)
			if _, seen := addedAt[id]; !seen && item.AddedAt != "" {
				addedAt[id] = item.AddedAt
			}
		}

		if page.Next == nil || len(page.Items) == 0 {
			break
		}
		offset += len(page.Items)
	}

	if skipped > 0 {
		r.logger.Debug("skipped items without a track", "count", skipped)
	}
	r.addedAt = addedAt
	return tracks.FromMetadata(r.api, metas), nil
}

// Tracks returns the playlist's tracks, reading them on first use.
func (r *Reader) Tracks(ctx context.Context) (*tracks.Collection, error) {
	return r.tracks.Get(ctx)
}

// AddedAt maps track ids to the time they were first added, as of the last read.
func (r *Reader) AddedAt() map[string]string {
	return maps.Clone(r.addedAt)
}

// Table reads the playlist and projects it to a table that includes when each track was added.
func (r *Reader) Table(ctx context.Context, opts ...tracks.TableOption) (*tracks.Table, error) {
	c, err := r.Tracks(ctx)
	if err != nil {
		return nil, err
	}
	return r.table(ctx, c, opts)
}

func (r *Reader) table(ctx context.Context, c *tracks.Collection, opts []tracks.TableOption) (*tracks.Table, error) {
	opts = append([]tracks.TableOption{tracks.WithAddedAt(r.AddedAt())}, opts...)
	return c.Table(ctx, nil, opts...)
}
