package extract

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/desertthunder/sung/internal/shared"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("failed to decode fixture: %v", err)
	}
	return v
}

const trackJSON = `{
	"id": "4uLU6hMCjMI75M1A2tKUQC",
	"name": "Never Gonna Give You Up",
	"artists": [{"name": "Rick Astley"}, {"name": "Someone Else"}],
	"album": {
		"name": "Whenever You Need Somebody",
		"release_date": "1987-11-12",
		"total_tracks": 10,
		"images": [{"url": "big"}, {"url": "small"}]
	},
	"duration_ms": 213573,
	"popularity": 80,
	"explicit": false,
	"external_urls": {"spotify": "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC"},
	"preview_url": null
}`

func TestPath(t *testing.T) {
	track := decode(t, trackJSON)

	tc := []struct {
		name string
		path string
		want any
	}{
		{name: "top level", path: "name", want: "Never Gonna Give You Up"},
		{name: "nested", path: "album.name", want: "Whenever You Need Somebody"},
		{name: "list index", path: "artists.0.name", want: "Rick Astley"},
		{name: "negative index", path: "album.images.-1.url", want: "small"},
		{name: "number", path: "popularity", want: float64(80)},
		{name: "wildcard", path: "artists.*.name", want: []any{"Rick Astley", "Someone Else"}},
		{name: "missing key", path: "album.label", want: nil},
		{name: "index out of range", path: "artists.5.name", want: nil},
		{name: "through a scalar", path: "name.first", want: nil},
		{name: "explicit null", path: "preview_url", want: nil},
		{name: "empty path is identity", path: "", want: track},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := MustPath(tt.path)(track)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %#v, got %#v", tt.want, got)
			}
		})
	}

	t.Run("custom default", func(t *testing.T) {
		got := MustPath("album.label", WithDefault("unknown"))(track)
		if got != "unknown" {
			t.Errorf("expected default, got %v", got)
		}
	})

	t.Run("missing element under wildcard", func(t *testing.T) {
		record := decode(t, `{"items": [{"track": {"id": "a"}}, {"track": null}, {}]}`)
		got := MustPath("items.*.track.id")(record)
		want := []any{"a", nil, nil}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("malformed path", func(t *testing.T) {
		if _, err := Path("album..name"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("typed go values", func(t *testing.T) {
		record := map[string]any{"tracks": []map[string]any{{"name": "a"}, {"name": "b"}}}
		got := MustPath("tracks.1.name")(record)
		if got != "b" {
			t.Errorf("expected b, got %v", got)
		}
	})
}

func TestMapping(t *testing.T) {
	track := decode(t, trackJSON)

	t.Run("keeps field order", func(t *testing.T) {
		e := MustMapping(Spec{
			{Name: "title", Path: "name"},
			{Name: "by", Path: "artists.0.name"},
			{Name: "label", Path: "album.label"},
		})
		rec := e(track).(Record)

		if !reflect.DeepEqual(rec.Keys, []string{"title", "by", "label"}) {
			t.Errorf("unexpected keys %v", rec.Keys)
		}
		if rec.Get("by") != "Rick Astley" {
			t.Errorf("expected Rick Astley, got %v", rec.Get("by"))
		}
		if v, ok := rec.Values["label"]; !ok || v != nil {
			t.Errorf("expected missing field to be present with nil, got %v (%v)", v, ok)
		}

		data, err := json.Marshal(rec)
		if err != nil {
			t.Fatalf("failed to marshal record: %v", err)
		}
		want := `{"title":"Never Gonna Give You Up","by":"Rick Astley","label":null}`
		if string(data) != want {
			t.Errorf("expected %s, got %s", want, data)
		}
	})

	t.Run("fields are identity mappings", func(t *testing.T) {
		e, err := Fields("name", "popularity")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		rec := e(track).(Record)
		if rec.Get("name") != "Never Gonna Give You Up" || rec.Get("popularity") != float64(80) {
			t.Errorf("unexpected record %v", rec.Values)
		}
	})

	t.Run("FromMap sorts names", func(t *testing.T) {
		spec := FromMap(map[string]string{"b": "x", "a": "y"})
		if !reflect.DeepEqual(spec.Names(), []string{"a", "b"}) {
			t.Errorf("unexpected names %v", spec.Names())
		}
	})

	t.Run("standard track metadata", func(t *testing.T) {
		rec := StandardTrack(track).(Record)
		if rec.Get("artist") != "Rick Astley" {
			t.Errorf("expected artist, got %v", rec.Get("artist"))
		}
		if rec.Get("release_date") != "1987-11-12" {
			t.Errorf("expected release date, got %v", rec.Get("release_date"))
		}
		if rec.Get("available_markets") != nil {
			t.Errorf("expected missing markets to be nil, got %v", rec.Get("available_markets"))
		}
		if len(rec.Keys) != len(StandardTrackMetadata) {
			t.Errorf("expected %d keys, got %d", len(StandardTrackMetadata), len(rec.Keys))
		}
	})

	t.Run("pure", func(t *testing.T) {
		e := MustMapping(StandardTrackMetadata)
		a, _ := json.Marshal(e(track))
		b, _ := json.Marshal(e(track))
		if string(a) != string(b) {
			t.Error("expected identical output for identical input")
		}
	})
}

func TestEnsureAndApplyAll(t *testing.T) {
	if got := Ensure(nil)("x"); got != "x" {
		t.Errorf("expected identity, got %v", got)
	}

	out := ApplyAll(MustPath("n"), []any{
		map[string]any{"n": 1},
		map[string]any{},
	})
	if !reflect.DeepEqual(out, []any{1, nil}) {
		t.Errorf("unexpected output %v", out)
	}
}
