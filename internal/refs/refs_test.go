package refs

import (
	"errors"
	"testing"

	"github.com/desertthunder/sung/internal/shared"
)

const trackID = "4uLU6hMCjMI75M1A2tKUQC"

func encodings(id string) map[Kind]string {
	return map[Kind]string{
		KindID:   id,
		KindURI:  "spotify:track:" + id,
		KindURL:  "https://open.spotify.com/track/" + id,
		KindHref: "https://api.spotify.com/v1/tracks/" + id,
	}
}

func TestCast(t *testing.T) {
	t.Run("every encoding to every encoding", func(t *testing.T) {
		enc := encodings(trackID)
		for from, ref := range enc {
			for to, want := range enc {
				got, err := CastTrack(ref, to)
				if err != nil {
					t.Fatalf("cast %s -> %s: unexpected error %v", from, to, err)
				}
				if got != want {
					t.Errorf("cast %s -> %s: expected %q, got %q", from, to, want, got)
				}
			}
		}
	})

	t.Run("round trip", func(t *testing.T) {
		enc := encodings(trackID)
		for _, x := range enc {
			for _, a := range Kinds() {
				direct, err := CastTrack(x, a)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				for _, b := range Kinds() {
					via, err := CastTrack(x, b)
					if err != nil {
						t.Fatalf("unexpected error: %v", err)
					}
					back, err := CastTrack(via, a)
					if err != nil {
						t.Fatalf("unexpected error: %v", err)
					}
					if back != direct {
						t.Errorf("cast(cast(%q, %s), %s) = %q, want %q", x, b, a, back, direct)
					}
				}
			}
		}
	})

	t.Run("explicit source kind", func(t *testing.T) {
		got, err := CastTrack("spotify:track:"+trackID, KindURL, KindURI)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got != "https://open.spotify.com/track/"+trackID {
			t.Errorf("unexpected result %q", got)
		}

		if _, err := CastTrack(trackID, KindURL, KindURI); !errors.Is(err, shared.ErrInvalidReference) {
			t.Errorf("expected ErrInvalidReference for mismatched source kind, got %v", err)
		}
	})

	t.Run("share links keep working", func(t *testing.T) {
		got, err := TrackID("https://open.spotify.com/track/" + trackID + "?si=abc123")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got != trackID {
			t.Errorf("expected %q, got %q", trackID, got)
		}
	})

	t.Run("malformed references", func(t *testing.T) {
		tc := []struct {
			name string
			ref  string
		}{
			{name: "empty", ref: ""},
			{name: "short id", ref: "4uLU6hMCjMI75M1A2tKUQ"},
			{name: "long id", ref: "4uLU6hMCjMI75M1A2tKUQCX"},
			{name: "wrong entity uri", ref: "spotify:album:" + trackID},
			{name: "wrong host", ref: "https://example.com/track/" + trackID},
			{name: "punctuation", ref: "4uLU6hMCjMI75M1A2tKUQ!"},
			{name: "surrounding space", ref: " " + trackID},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				_, err := CastTrack(tt.ref, KindURI)
				if !errors.Is(err, shared.ErrInvalidReference) {
					t.Errorf("expected ErrInvalidReference, got %v", err)
				}
			})
		}
	})

	t.Run("unsupported target kind", func(t *testing.T) {
		_, err := CastTrack(trackID, Kind("urn"))
		if !errors.Is(err, shared.ErrUnsupportedKind) {
			t.Errorf("expected ErrUnsupportedKind, got %v", err)
		}

		_, err = CastTrack("garbage", Kind("urn"))
		if !errors.Is(err, shared.ErrUnsupportedKind) {
			t.Errorf("expected target kind to be checked first, got %v", err)
		}
	})
}

func TestDetect(t *testing.T) {
	for kind, ref := range encodings(trackID) {
		got, id, err := Track.Detect(ref)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", kind, err)
		}
		if got != kind {
			t.Errorf("expected %s, got %s", kind, got)
		}
		if id != trackID {
			t.Errorf("expected id %s, got %s", trackID, id)
		}
	}
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" URI ")
	if err != nil || k != KindURI {
		t.Errorf("expected uri, got %q (%v)", k, err)
	}

	if _, err := ParseKind("isrc"); !errors.Is(err, shared.ErrUnsupportedKind) {
		t.Errorf("expected ErrUnsupportedKind, got %v", err)
	}
}

func TestPlaylistID(t *testing.T) {
	const id = "37i9dQZF1DXcBWIGoYBM5M"

	tc := []struct {
		name string
		ref  string
	}{
		{name: "bare id", ref: id},
		{name: "uri", ref: "spotify:playlist:" + id},
		{name: "url", ref: "https://open.spotify.com/playlist/" + id},
		{name: "url with query", ref: "https://open.spotify.com/playlist/" + id + "?si=1a2b3c"},
		{name: "href", ref: "https://api.spotify.com/v1/playlists/" + id},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PlaylistID(tt.ref)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got != id {
				t.Errorf("expected %q, got %q", id, got)
			}
		})
	}

	if _, err := PlaylistID("spotify:track:" + id); !errors.Is(err, shared.ErrInvalidReference) {
		t.Errorf("expected track uri to be rejected, got %v", err)
	}

	if got := PlaylistURL(id); got != "https://open.spotify.com/playlist/"+id {
		t.Errorf("unexpected playlist url %q", got)
	}
}

func TestIDs(t *testing.T) {
	ids, err := Track.IDs([]string{trackID, "spotify:track:" + trackID})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(ids) != 2 || ids[0] != trackID || ids[1] != trackID {
		t.Errorf("unexpected ids %v", ids)
	}

	if _, err := Track.IDs([]string{trackID, "nope"}); !errors.Is(err, shared.ErrInvalidReference) {
		t.Errorf("expected ErrInvalidReference, got %v", err)
	}
}
