package playlist

import (
	"context"
	"errors"
	"reflect"
	"slices"
	"testing"

	"github.com/desertthunder/sung/internal/services"
	"github.com/desertthunder/sung/internal/shared"
	tu "github.com/desertthunder/sung/internal/testing"
	"github.com/desertthunder/sung/internal/tracks"
)

const testPlaylistID = "37i9dQZF1DXcBWIGoYBM5M"

// seedPlaylist stores a playlist holding FakeTrack(n) for each n, or a null track for n == 0.
func seedPlaylist(f *tu.FakeSpotify, ns ...int) {
	items := make([]services.PlaylistItem, len(ns))
	for i, n := range ns {
		items[i] = services.PlaylistItem{AddedAt: "2024-01-02T03:04:05Z"}
		if n > 0 {
			items[i].Track = tu.FakeTrack(n)
		}
	}
	f.AddPlaylist(&tu.FakePlaylist{ID: testPlaylistID, Owner: f.UserID, Items: items})
}

func mustIDs(t *testing.T, c *tracks.Collection) []string {
	t.Helper()
	ids, err := c.IDs()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return ids
}

func TestReader(t *testing.T) {
	ctx := context.Background()

	t.Run("normalizes the playlist reference", func(t *testing.T) {
		for _, ref := range []string{
			testPlaylistID,
			"spotify:playlist:" + testPlaylistID,
			"https://open.spotify.com/playlist/" + testPlaylistID + "?si=abc",
			"https://api.spotify.com/v1/playlists/" + testPlaylistID,
		} {
			r, err := NewReader(tu.NewFakeSpotify(0), ref)
			if err != nil {
				t.Fatalf("%s: expected no error, got %v", ref, err)
			}
			if r.ID() != testPlaylistID {
				t.Errorf("expected %s, got %s", testPlaylistID, r.ID())
			}
		}

		if _, err := NewReader(tu.NewFakeSpotify(0), "not a playlist"); !errors.Is(err, shared.ErrInvalidReference) {
			t.Errorf("expected ErrInvalidReference, got %v", err)
		}
	})

	t.Run("URL makes no request", func(t *testing.T) {
		f := tu.NewFakeSpotify(0)
		r, _ := NewReader(f, testPlaylistID)

		if got := r.URL(); got != "https://open.spotify.com/playlist/"+testPlaylistID {
			t.Errorf("unexpected URL %s", got)
		}
		if f.Calls("PlaylistItems") != 0 {
			t.Errorf("expected no requests, got %d", f.Calls("PlaylistItems"))
		}
	})

	t.Run("pages through every item and skips null tracks", func(t *testing.T) {
		f := tu.NewFakeSpotify(250)
		var ns []int
		for n := 1; n <= 230; n++ {
			if n%10 == 0 {
				ns = append(ns, 0)
			}
			ns = append(ns, n)
		}
		seedPlaylist(f, ns...)

		r, _ := NewReader(f, testPlaylistID)
		c, err := r.FetchAll(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if c.Len() != 230 {
			t.Errorf("expected 230 tracks, got %d", c.Len())
		}
		if got := f.Calls("PlaylistItems"); got != 3 {
			t.Errorf("expected 3 pages, got %d", got)
		}
		if !reflect.DeepEqual(mustIDs(t, c), tu.TrackIDs(1, 230)) {
			t.Error("expected tracks in playlist order")
		}
		if r.AddedAt()[tu.TrackID(1)] != "2024-01-02T03:04:05Z" {
			t.Errorf("expected added_at to be captured, got %v", r.AddedAt()[tu.TrackID(1)])
		}
	})

	t.Run("Tracks is memoized", func(t *testing.T) {
		f := tu.NewFakeSpotify(3)
		seedPlaylist(f, 1, 2, 3)
		r, _ := NewReader(f, testPlaylistID, WithPageSize(2))

		for range 3 {
			if _, err := r.Tracks(ctx); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		}
		if got := f.Calls("PlaylistItems"); got != 2 {
			t.Errorf("expected 2 page requests, got %d", got)
		}
	})

	t.Run("propagates page errors", func(t *testing.T) {
		f := tu.NewFakeSpotify(0)
		r, _ := NewReader(f, testPlaylistID)

		_, err := r.FetchAll(ctx)
		var apiErr *services.APIError
		if !errors.As(err, &apiErr) || apiErr.Status != 404 {
			t.Errorf("expected not found APIError, got %v", err)
		}
	})

	t.Run("table includes added dates", func(t *testing.T) {
		f := tu.NewFakeSpotify(2)
		seedPlaylist(f, 1, 2)
		r, _ := NewReader(f, testPlaylistID)

		table, err := r.Table(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if table.Len() != 2 {
			t.Fatalf("expected 2 rows, got %d", table.Len())
		}
		if got := table.Value(0, "added_at_date"); got != "2024-01-02" {
			t.Errorf("expected added_at_date 2024-01-02, got %v", got)
		}
	})
}

func TestPlaylist(t *testing.T) {
	ctx := context.Background()

	t.Run("create then read back", func(t *testing.T) {
		f := tu.NewFakeSpotify(10)
		want := tu.TrackIDs(1, 7)

		p, err := Create(ctx, f, want, "", false)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if f.Playlist(p.ID()).Name != DefaultName {
			t.Errorf("expected default name, got %s", f.Playlist(p.ID()).Name)
		}

		c, err := p.Tracks(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if c.Len() != 7 {
			t.Errorf("expected 7 tracks, got %d", c.Len())
		}
		if !reflect.DeepEqual(mustIDs(t, c), want) {
			t.Errorf("expected %v, got %v", want, mustIDs(t, c))
		}
	})

	t.Run("create validates references first", func(t *testing.T) {
		f := tu.NewFakeSpotify(1)

		_, err := Create(ctx, f, []string{tu.TrackID(1), "spotify:track:short"}, "x", true)
		if !errors.Is(err, shared.ErrInvalidReference) {
			t.Errorf("expected ErrInvalidReference, got %v", err)
		}
		if f.Calls("CreatePlaylist") != 0 {
			t.Error("expected no playlist to be created")
		}
	})

	t.Run("delete invalidates the cache", func(t *testing.T) {
		f := tu.NewFakeSpotify(10)
		p, err := Create(ctx, f, tu.TrackIDs(1, 7), "seven", false)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		before, _ := p.Tracks(ctx)
		if before.Len() != 7 {
			t.Fatalf("expected 7 tracks, got %d", before.Len())
		}

		gone := tu.TrackID(4)
		if err := p.Delete(ctx, "spotify:track:"+gone); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		after, err := p.Tracks(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if after.Len() != 6 {
			t.Errorf("expected 6 tracks after delete, got %d", after.Len())
		}
		if after.Contains(gone) {
			t.Error("expected deleted track to be gone")
		}
		if got := f.Calls("PlaylistItems"); got != 2 {
			t.Errorf("expected the playlist to be read twice, got %d", got)
		}
	})

	t.Run("reader view is refreshed after remove", func(t *testing.T) {
		f := tu.NewFakeSpotify(10)
		p, err := Create(ctx, f, tu.TrackIDs(1, 7), "seven", false)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		before, err := p.Reader().Tracks(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if before.Len() != 7 {
			t.Fatalf("expected 7 tracks, got %d", before.Len())
		}

		if err := p.Remove(ctx, tu.TrackID(4)); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		after, err := p.Reader().Tracks(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if after.Len() != 6 {
			t.Errorf("expected 6 tracks through the reader, got %d", after.Len())
		}
		if own, _ := p.Tracks(ctx); own != after {
			t.Error("expected the playlist and its reader to share one collection")
		}
	})

	t.Run("delete of a missing track", func(t *testing.T) {
		f := tu.NewFakeSpotify(3)
		seedPlaylist(f, 1, 2)
		p, _ := New(f, testPlaylistID)

		err := p.Delete(ctx, tu.TrackID(3))
		var nf *tracks.NotFoundError
		if !errors.As(err, &nf) {
			t.Fatalf("expected NotFoundError, got %v", err)
		}
		if f.Calls("RemovePlaylistItems") != 0 {
			t.Error("expected no remove request")
		}
	})

	t.Run("remove drops every occurrence", func(t *testing.T) {
		f := tu.NewFakeSpotify(3)
		seedPlaylist(f, 1, 2, 1, 3, 1)
		p, _ := New(f, testPlaylistID)

		if err := p.Remove(ctx, "https://open.spotify.com/track/"+tu.TrackID(1)); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		c, _ := p.Tracks(ctx)
		want := []string{tu.TrackID(2), tu.TrackID(3)}
		if !reflect.DeepEqual(mustIDs(t, c), want) {
			t.Errorf("expected %v, got %v", want, mustIDs(t, c))
		}
		if f.Calls("RemovePlaylistItems") != 1 {
			t.Errorf("expected one remove call, got %d", f.Calls("RemovePlaylistItems"))
		}
	})

	t.Run("adds in batches", func(t *testing.T) {
		f := tu.NewFakeSpotify(250)
		seedPlaylist(f)
		p, _ := New(f, testPlaylistID)

		if err := p.Add(ctx, tu.TrackIDs(1, 250)...); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := f.Calls("AddPlaylistItems"); got != 3 {
			t.Errorf("expected 3 batches, got %d", got)
		}

		c, _ := p.Tracks(ctx)
		if c.Len() != 250 {
			t.Errorf("expected 250 tracks, got %d", c.Len())
		}
	})

	t.Run("append accepts any encoding", func(t *testing.T) {
		f := tu.NewFakeSpotify(2)
		seedPlaylist(f, 1)
		p, _ := New(f, testPlaylistID)

		if err := p.Append(ctx, "https://api.spotify.com/v1/tracks/"+tu.TrackID(2)); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := f.Playlist(testPlaylistID).TrackIDs(); !slices.Equal(got, tu.TrackIDs(1, 2)) {
			t.Errorf("unexpected playlist contents %v", got)
		}
	})

	t.Run("empty add is a no-op", func(t *testing.T) {
		f := tu.NewFakeSpotify(0)
		seedPlaylist(f)
		p, _ := New(f, testPlaylistID)

		if err := p.Add(ctx); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
		if f.Calls("AddPlaylistItems") != 0 {
			t.Error("expected no request")
		}
	})

	t.Run("fails fast", func(t *testing.T) {
		f := tu.NewFakeSpotify(250)
		seedPlaylist(f)
		p, _ := New(f, testPlaylistID)

		boom := errors.New("rate limited")
		f.Fail("AddPlaylistItems", boom)

		if err := p.Add(ctx, tu.TrackIDs(1, 250)...); !errors.Is(err, boom) {
			t.Errorf("expected injected error, got %v", err)
		}
		if got := f.Calls("AddPlaylistItems"); got != 1 {
			t.Errorf("expected the first failure to abort, got %d calls", got)
		}
	})

	t.Run("invalid reference fails before any request", func(t *testing.T) {
		f := tu.NewFakeSpotify(1)
		seedPlaylist(f)
		p, _ := New(f, testPlaylistID)

		if err := p.Add(ctx, tu.TrackID(1), "spotify:album:"+tu.TrackID(1)); !errors.Is(err, shared.ErrInvalidReference) {
			t.Errorf("expected ErrInvalidReference, got %v", err)
		}
		if f.Calls("AddPlaylistItems") != 0 {
			t.Error("expected no request")
		}
	})

	t.Run("replace is unsupported", func(t *testing.T) {
		p, _ := New(tu.NewFakeSpotify(0), testPlaylistID)
		if err := p.Replace(tu.TrackID(1), nil); !errors.Is(err, shared.ErrUnsupportedOperation) {
			t.Errorf("expected ErrUnsupportedOperation, got %v", err)
		}
	})

	t.Run("unfollow", func(t *testing.T) {
		f := tu.NewFakeSpotify(1)
		seedPlaylist(f, 1)
		p, _ := New(f, testPlaylistID)

		if err := p.Unfollow(ctx); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if f.Playlist(testPlaylistID) != nil {
			t.Error("expected playlist to be gone")
		}
		if _, err := p.Tracks(ctx); err == nil {
			t.Error("expected reading an unfollowed playlist to fail")
		}
	})
}
