// Package search runs Spotify track searches.
//
// Structured filters are folded into the free-text query ([Query]) and one request is made per call;
// results are never paged beyond the requested limit.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/sung/internal/extract"
	"github.com/desertthunder/sung/internal/services"
	"github.com/desertthunder/sung/internal/shared"
	"github.com/desertthunder/sung/internal/tracks"
)

const (
	// MaxLimit is the largest number of results the API returns for one search.
	MaxLimit = services.MaxSearchLimit
	// DefaultLimit is used when no limit is given.
	DefaultLimit = 20
)

// Searcher runs one search request.
type Searcher interface {
	Search(ctx context.Context, query string, opts services.SearchOptions) (map[string]any, error)
}

// Filters are search modifiers appended to the query.
type Filters struct {
	Year  string // a year or a range such as 1990-1999
	Genre string
}

// Options configure a search.
type Options struct {
	Filters
	Type   string
	Market string
	Limit  int
	Offset int

	// Extract post-processes the raw response. It defaults to the list of track items.
	Extract extract.Extractor
}

var trackItems = extract.MustPath(extract.SearchTrackItems)

// Query appends the year and genre filters, in that order, to q.
func Query(q string, f Filters) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(q))
	if y := strings.TrimSpace(f.Year); y != "" {
		b.WriteString(" year:")
		b.WriteString(y)
	}
	if g := strings.TrimSpace(f.Genre); g != "" {
		b.WriteString(" genre:")
		b.WriteString(g)
	}
	return strings.TrimSpace(b.String())
}

// Limit clamps n to 1..[MaxLimit], mapping non-positive values to [DefaultLimit].
func Limit(n int) int {
	if n <= 0 {
		return DefaultLimit
	}
	return min(n, MaxLimit)
}

// Run performs one search and returns the extracted result.
func Run(ctx context.Context, s Searcher, q string, opts Options) (any, error) {
	query := Query(q, opts.Filters)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is empty", shared.ErrMissingArgument)
	}

	res, err := s.Search(ctx, query, services.SearchOptions{
		Type:   opts.Type,
		Market: opts.Market,
		Limit:  Limit(opts.Limit),
		Offset: opts.Offset,
	})
	if err != nil {
		return nil, err
	}

	if opts.Extract == nil {
		return trackItems(res), nil
	}
	return opts.Extract(res), nil
}

// Tracks searches for tracks and returns their metadata in result order.
func Tracks(ctx context.Context, s Searcher, q string, opts Options) ([]tracks.Metadata, error) {
	opts.Type = "track"
	opts.Extract = trackItems

	res, err := Run(ctx, s, q, opts)
	if err != nil {
		return nil, err
	}

	items, _ := res.([]any)
	out := make([]tracks.Metadata, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out, nil
}

// Collection searches for tracks and wraps the results in a collection backed by api.
func Collection(ctx context.Context, api services.API, q string, opts Options) (*tracks.Collection, error) {
	metas, err := Tracks(ctx, api, q, opts)
	if err != nil {
		return nil, err
	}
	return tracks.FromMetadata(api, metas), nil
}
