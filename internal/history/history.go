// Package history reads the current user's listening history: recently played tracks and top tracks.
//
// Both reads make a single request and pass the raw response through an extractor, so callers choose
// the shape of the result.
package history

import (
	"context"

	"github.com/desertthunder/sung/internal/extract"
	"github.com/desertthunder/sung/internal/services"
	"github.com/desertthunder/sung/internal/tracks"
)

const (
	// MaxLimit is the largest number of items returned by one call.
	MaxLimit = services.MaxHistoryLimit
	// DefaultTopLimit is used by [Top] when no limit is given.
	DefaultTopLimit = 20
)

// Source reads the user's listening history.
type Source interface {
	RecentlyPlayed(ctx context.Context, limit int) (map[string]any, error)
	TopTracks(ctx context.Context, opts services.TopOptions) (map[string]any, error)
}

var (
	recentNames  = extract.MustPath(extract.RecentlyPlayedNames)
	recentTracks = extract.MustPath(extract.RecentlyPlayedTracks)
	topItems     = extract.MustPath(extract.TopTrackItems)
)

// Recent returns the extracted recently played response. A nil extractor yields the played track names,
// newest first; a non-positive limit means [MaxLimit].
func Recent(ctx context.Context, src Source, limit int, e extract.Extractor) (any, error) {
	if limit <= 0 {
		limit = MaxLimit
	}
	res, err := src.RecentlyPlayed(ctx, min(limit, MaxLimit))
	if err != nil {
		return nil, err
	}
	if e == nil {
		e = recentNames
	}
	return e(res), nil
}

// Top returns the extracted top tracks response. A nil extractor returns the response unchanged.
func Top(ctx context.Context, src Source, opts services.TopOptions, e extract.Extractor) (any, error) {
	if opts.Limit <= 0 {
		opts.Limit = DefaultTopLimit
	}
	opts.Limit = min(opts.Limit, MaxLimit)

	res, err := src.TopTracks(ctx, opts)
	if err != nil {
		return nil, err
	}
	return extract.Ensure(e)(res), nil
}

// RecentCollection wraps the recently played tracks, newest first, in a collection backed by api.
// A track played several times appears once per play.
func RecentCollection(ctx context.Context, api services.API, limit int) (*tracks.Collection, error) {
	res, err := Recent(ctx, api, limit, recentTracks)
	if err != nil {
		return nil, err
	}
	return tracks.FromMetadata(api, metadata(res)), nil
}

// TopCollection wraps one page of top tracks, best first, in a collection backed by api.
func TopCollection(ctx context.Context, api services.API, opts services.TopOptions) (*tracks.Collection, error) {
	res, err := Top(ctx, api, opts, topItems)
	if err != nil {
		return nil, err
	}
	return tracks.FromMetadata(api, metadata(res)), nil
}

func metadata(v any) []tracks.Metadata {
	items, _ := v.([]any)
	out := make([]tracks.Metadata, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok && m != nil {
			out = append(out, m)
		}
	}
	return out
}
