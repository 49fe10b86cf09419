package testing

import (
	"context"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/sung/internal/services"
	"github.com/desertthunder/sung/internal/shared"
)

var _ services.API = (*FakeSpotify)(nil)

var songWords = []string{"Love", "Night", "Summer", "Blue", "Heart", "River", "Fire", "Dream", "Rain", "Gold"}

// TrackID returns a deterministic, well-formed track id for n in [0, 999].
func TrackID(n int) string {
	return fmt.Sprintf("4iV5W9uYEdYUVa79Axb%03d", n)
}

// TrackIDs returns TrackID(from) through TrackID(to), inclusive.
func TrackIDs(from, to int) []string {
	ids := make([]string, 0, to-from+1)
	for n := from; n <= to; n++ {
		ids = append(ids, TrackID(n))
	}
	return ids
}

// FakeTrack builds track metadata shaped like the several-tracks endpoint response.
func FakeTrack(n int) map[string]any {
	id := TrackID(n)
	word := songWords[n%len(songWords)]
	year := 1960 + n%60
	return map[string]any{
		"id":           id,
		"name":         fmt.Sprintf("%s Song %d", word, n),
		"uri":          "spotify:track:" + id,
		"href":         "https://api.spotify.com/v1/tracks/" + id,
		"type":         "track",
		"duration_ms":  float64(120000 + n*1000),
		"popularity":   float64(n % 100),
		"explicit":     n%7 == 0,
		"track_number": float64(n%12 + 1),
		"artists": []any{
			map[string]any{"id": fmt.Sprintf("artist%d", n%5), "name": fmt.Sprintf("Artist %d", n%5)},
		},
		"album": map[string]any{
			"id":           fmt.Sprintf("album%d", n%10),
			"name":         fmt.Sprintf("Album %d", n%10),
			"release_date": fmt.Sprintf("%d-01-01", year),
		},
		"external_urls": map[string]any{"spotify": "https://open.spotify.com/track/" + id},
	}
}

// FakePlaylist is a playlist held by [FakeSpotify].
type FakePlaylist struct {
	ID          string
	Owner       string
	Name        string
	Description string
	Public      bool
	Items       []services.PlaylistItem
}

// TrackIDs lists the ids of the playlist's items in order, with "" for null tracks.
func (p *FakePlaylist) TrackIDs() []string {
	ids := make([]string, len(p.Items))
	for i, item := range p.Items {
		if item.Track != nil {
			ids[i], _ = item.Track["id"].(string)
		}
	}
	return ids
}

// FakeSpotify is an in-memory [services.API] holding a track catalog and playlists.
//
// Every method counts its calls and fails with the error registered through [FakeSpotify.Fail].
type FakeSpotify struct {
	mu     sync.Mutex
	UserID string
	Now    func() time.Time

	// Played lists recently played track ids, newest first.
	Played []string
	// Top lists the user's top track ids, best first, for every time range.
	Top []string

	catalog   map[string]map[string]any
	playlists map[string]*FakePlaylist
	calls     map[string]int
	failures  map[string]error
	seq       int
}

// NewFakeSpotify returns a fake whose catalog holds [FakeTrack] 1 through n.
func NewFakeSpotify(n int) *FakeSpotify {
	f := &FakeSpotify{
		UserID:    "fakeuser",
		Now:       func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
		catalog:   make(map[string]map[string]any),
		playlists: make(map[string]*FakePlaylist),
		calls:     make(map[string]int),
		failures:  make(map[string]error),
	}
	for i := 1; i <= n; i++ {
		f.AddTrack(FakeTrack(i))
	}
	return f
}

// AddTrack adds metadata to the catalog, keyed by its "id".
func (f *FakeSpotify) AddTrack(meta map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, _ := meta["id"].(string)
	f.catalog[id] = meta
}

// AddPlaylist stores p, replacing any playlist with the same id.
func (f *FakeSpotify) AddPlaylist(p *FakePlaylist) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playlists[p.ID] = p
}

// Playlist returns the stored playlist, or nil.
func (f *FakeSpotify) Playlist(id string) *FakePlaylist {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.playlists[id]
}

// Fail makes every later call to method return err. A nil err clears the failure.
func (f *FakeSpotify) Fail(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failures, method)
		return
	}
	f.failures[method] = err
}

// Calls reports how many times method was called.
func (f *FakeSpotify) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// begin locks f, counts the call and returns any injected failure. Callers must unlock.
func (f *FakeSpotify) begin(method string) error {
	f.mu.Lock()
	f.calls[method]++
	return f.failures[method]
}

func (f *FakeSpotify) Search(ctx context.Context, query string, opts services.SearchOptions) (map[string]any, error) {
	if err := f.begin("Search"); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	defer f.mu.Unlock()

	var terms []string
	for _, field := range strings.Fields(query) {
		if !strings.Contains(field, ":") {
			terms = append(terms, strings.ToLower(field))
		}
	}

	ids := make([]string, 0, len(f.catalog))
	for id := range f.catalog {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var matches []any
	for _, id := range ids {
		name, _ := f.catalog[id]["name"].(string)
		name = strings.ToLower(name)
		if slices.ContainsFunc(terms, func(t string) bool { return !strings.Contains(name, t) }) {
			continue
		}
		matches = append(matches, maps.Clone(f.catalog[id]))
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	limit = min(limit, services.MaxSearchLimit)
	start := min(opts.Offset, len(matches))
	end := min(start+limit, len(matches))

	return map[string]any{
		"tracks": map[string]any{
			"items":  append([]any{}, matches[start:end]...),
			"total":  float64(len(matches)),
			"limit":  float64(limit),
			"offset": float64(opts.Offset),
		},
	}, nil
}

func (f *FakeSpotify) Tracks(ctx context.Context, ids []string) ([]map[string]any, error) {
	if err := f.begin("Tracks"); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	defer f.mu.Unlock()

	if len(ids) > services.MaxTracksPerRequest {
		return nil, fmt.Errorf("%w: maximum %d track IDs allowed", shared.ErrInvalidArgument, services.MaxTracksPerRequest)
	}

	out := make([]map[string]any, len(ids))
	for i, id := range ids {
		if meta, ok := f.catalog[id]; ok {
			out[i] = maps.Clone(meta)
		}
	}
	return out, nil
}

func (f *FakeSpotify) PlaylistItems(ctx context.Context, playlistID string, limit, offset int) (*services.PlaylistItemsPage, error) {
	if err := f.begin("PlaylistItems"); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	defer f.mu.Unlock()

	p, ok := f.playlists[playlistID]
	if !ok {
		return nil, notFound()
	}
	if limit <= 0 || limit > services.MaxPlaylistPageSize {
		limit = services.MaxPlaylistPageSize
	}

	start := min(offset, len(p.Items))
	end := min(start+limit, len(p.Items))
	page := &services.PlaylistItemsPage{
		Items:  make([]services.PlaylistItem, 0, end-start),
		Total:  len(p.Items),
		Limit:  limit,
		Offset: offset,
	}
	for _, item := range p.Items[start:end] {
		page.Items = append(page.Items, services.PlaylistItem{AddedAt: item.AddedAt, Track: maps.Clone(item.Track)})
	}
	if end < len(p.Items) {
		next := fmt.Sprintf("https://api.spotify.com/v1/playlists/%s/tracks?offset=%d&limit=%d", playlistID, end, limit)
		page.Next = &next
	}
	return page, nil
}

func (f *FakeSpotify) AddPlaylistItems(ctx context.Context, playlistID string, trackIDs []string) error {
	if err := f.begin("AddPlaylistItems"); err != nil {
		f.mu.Unlock()
		return err
	}
	defer f.mu.Unlock()

	p, ok := f.playlists[playlistID]
	if !ok {
		return notFound()
	}
	if len(trackIDs) > services.MaxPlaylistItemsPerRequest {
		return &services.APIError{Status: http.StatusBadRequest, Message: "Too many ids requested"}
	}

	items := make([]services.PlaylistItem, 0, len(trackIDs))
	for _, id := range trackIDs {
		meta, ok := f.catalog[id]
		if !ok {
			return &services.APIError{Status: http.StatusBadRequest, Message: "Invalid base62 id"}
		}
		items = append(items, services.PlaylistItem{AddedAt: f.Now().Format(time.RFC3339), Track: meta})
	}
	p.Items = append(p.Items, items...)
	return nil
}

func (f *FakeSpotify) RemovePlaylistItems(ctx context.Context, playlistID string, trackIDs []string) error {
	if err := f.begin("RemovePlaylistItems"); err != nil {
		f.mu.Unlock()
		return err
	}
	defer f.mu.Unlock()

	p, ok := f.playlists[playlistID]
	if !ok {
		return notFound()
	}
	if len(trackIDs) > services.MaxPlaylistItemsPerRequest {
		return &services.APIError{Status: http.StatusBadRequest, Message: "Too many ids requested"}
	}

	p.Items = slices.DeleteFunc(p.Items, func(item services.PlaylistItem) bool {
		if item.Track == nil {
			return false
		}
		id, _ := item.Track["id"].(string)
		return slices.Contains(trackIDs, id)
	})
	return nil
}

func (f *FakeSpotify) CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (string, error) {
	if err := f.begin("CreatePlaylist"); err != nil {
		f.mu.Unlock()
		return "", err
	}
	defer f.mu.Unlock()

	if userID != f.UserID {
		return "", &services.APIError{Status: http.StatusForbidden, Message: "You cannot create a playlist for another user"}
	}

	f.seq++
	id := fmt.Sprintf("37i9dQZF1DX%011d", f.seq)
	f.playlists[id] = &FakePlaylist{ID: id, Owner: userID, Name: name, Description: description, Public: public}
	return id, nil
}

func (f *FakeSpotify) CurrentUserID(ctx context.Context) (string, error) {
	if err := f.begin("CurrentUserID"); err != nil {
		f.mu.Unlock()
		return "", err
	}
	defer f.mu.Unlock()
	return f.UserID, nil
}

func (f *FakeSpotify) UnfollowPlaylist(ctx context.Context, playlistID string) error {
	if err := f.begin("UnfollowPlaylist"); err != nil {
		f.mu.Unlock()
		return err
	}
	defer f.mu.Unlock()

	if _, ok := f.playlists[playlistID]; !ok {
		return notFound()
	}
	delete(f.playlists, playlistID)
	return nil
}

func (f *FakeSpotify) RecentlyPlayed(ctx context.Context, limit int) (map[string]any, error) {
	if err := f.begin("RecentlyPlayed"); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	defer f.mu.Unlock()

	if limit <= 0 || limit > services.MaxHistoryLimit {
		limit = services.MaxHistoryLimit
	}

	items := []any{}
	for i, id := range f.Played[:min(limit, len(f.Played))] {
		playedAt := f.Now().Add(-time.Duration(i+1) * 3 * time.Minute)
		items = append(items, map[string]any{
			"track":     maps.Clone(f.catalog[id]),
			"played_at": playedAt.Format(time.RFC3339),
		})
	}
	return map[string]any{"items": items, "limit": float64(limit)}, nil
}

func (f *FakeSpotify) TopTracks(ctx context.Context, opts services.TopOptions) (map[string]any, error) {
	if err := f.begin("TopTracks"); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	defer f.mu.Unlock()

	switch opts.TimeRange {
	case "", services.TimeRangeShort, services.TimeRangeMedium, services.TimeRangeLong:
	default:
		return nil, &services.APIError{Status: http.StatusBadRequest, Message: "Invalid time range"}
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	limit = min(limit, services.MaxHistoryLimit)
	start := min(opts.Offset, len(f.Top))
	end := min(start+limit, len(f.Top))

	items := []any{}
	for _, id := range f.Top[start:end] {
		items = append(items, maps.Clone(f.catalog[id]))
	}
	return map[string]any{
		"items":  items,
		"total":  float64(len(f.Top)),
		"limit":  float64(limit),
		"offset": float64(opts.Offset),
	}, nil
}

func notFound() error {
	return &services.APIError{Status: http.StatusNotFound, Message: "Resource not found"}
}
