package ui

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/sung/internal/playlist"
	"github.com/desertthunder/sung/internal/services"
	tu "github.com/desertthunder/sung/internal/testing"
	"github.com/desertthunder/sung/internal/tracks"
)

const testPlaylistID = "37i9dQZF1DXcBWIGoYBM5M"

func seed(f *tu.FakeSpotify, ns ...int) {
	items := make([]services.PlaylistItem, len(ns))
	for i, n := range ns {
		items[i] = services.PlaylistItem{AddedAt: "2024-01-02T03:04:05Z", Track: tu.FakeTrack(n)}
	}
	f.AddPlaylist(&tu.FakePlaylist{ID: testPlaylistID, Owner: f.UserID, Name: "Mix", Items: items})
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends a key and returns the follow-up command.
func press(m *Model, s string) tea.Cmd {
	_, cmd := m.Update(keyPress(s))
	return cmd
}

// deliver runs cmd and feeds its message back into the model, returning the next command.
func deliver(t *testing.T, m *Model, cmd tea.Cmd) tea.Cmd {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	_, next := m.Update(cmd())
	return next
}

func newLoadedModel(t *testing.T, src Source) *Model {
	t.Helper()
	m := NewModel(context.Background(), "Mix", src, nil)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	deliver(t, m, m.Init())
	return m
}

func TestModel(t *testing.T) {
	t.Run("lists tracks from a read-only source", func(t *testing.T) {
		fake := tu.NewFakeSpotify(0)
		seed(fake, 1, 2, 3)
		reader, err := playlist.NewReader(fake, testPlaylistID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		m := newLoadedModel(t, reader)
		if got := len(m.list.Items()); got != 3 {
			t.Fatalf("expected 3 items, got %d", got)
		}
		if view := m.View(); !strings.Contains(view, "Night Song 1") {
			t.Errorf("expected track name in view, got:\n%s", view)
		}

		press(m, "d")
		if m.view != TrackListView || !strings.Contains(m.status, "read-only") {
			t.Errorf("expected read-only notice, got view %d status %q", m.view, m.status)
		}
	})

	t.Run("shows details", func(t *testing.T) {
		fake := tu.NewFakeSpotify(0)
		seed(fake, 1, 2)
		pl, _ := playlist.New(fake, testPlaylistID)
		m := newLoadedModel(t, pl)

		press(m, "j")
		press(m, "enter")
		if m.view != DetailView {
			t.Fatalf("expected detail view, got %d", m.view)
		}

		view := m.View()
		for _, want := range []string{"Summer Song 2", "Artist 2", "Album 2", "2:02", tu.TrackID(2)} {
			if !strings.Contains(view, want) {
				t.Errorf("expected %q in detail view, got:\n%s", want, view)
			}
		}

		press(m, "esc")
		if m.view != TrackListView {
			t.Errorf("expected list view, got %d", m.view)
		}
	})

	t.Run("removes a track after confirmation", func(t *testing.T) {
		fake := tu.NewFakeSpotify(0)
		seed(fake, 1, 2, 3)
		pl, _ := playlist.New(fake, testPlaylistID)
		m := newLoadedModel(t, pl)

		press(m, "d")
		if m.view != ConfirmView {
			t.Fatalf("expected confirm view, got %d", m.view)
		}
		if view := m.View(); !strings.Contains(view, "Remove 'Night Song 1' from Mix?") {
			t.Errorf("unexpected confirm view:\n%s", view)
		}

		reload := deliver(t, m, press(m, "y"))
		if !strings.Contains(m.status, "Removed Night Song 1") {
			t.Errorf("unexpected status %q", m.status)
		}
		deliver(t, m, reload)

		if got := len(m.list.Items()); got != 2 {
			t.Errorf("expected 2 items after reload, got %d", got)
		}
		if slices.Contains(fake.Playlist(testPlaylistID).TrackIDs(), tu.TrackID(1)) {
			t.Error("expected track to be removed from the playlist")
		}
		if fake.Calls("PlaylistItems") != 2 {
			t.Errorf("expected the playlist to be read again, got %d reads", fake.Calls("PlaylistItems"))
		}
	})

	t.Run("declining keeps the track", func(t *testing.T) {
		fake := tu.NewFakeSpotify(0)
		seed(fake, 1, 2)
		pl, _ := playlist.New(fake, testPlaylistID)
		m := newLoadedModel(t, pl)

		press(m, "d")
		if cmd := press(m, "n"); cmd != nil {
			t.Error("expected no command")
		}
		if m.view != TrackListView || fake.Calls("RemovePlaylistItems") != 0 {
			t.Errorf("expected nothing removed, view %d", m.view)
		}
	})

	t.Run("reports a failed removal", func(t *testing.T) {
		fake := tu.NewFakeSpotify(0)
		seed(fake, 1, 2)
		fake.Fail("RemovePlaylistItems", errors.New("forbidden"))
		pl, _ := playlist.New(fake, testPlaylistID)
		m := newLoadedModel(t, pl)

		press(m, "d")
		if next := deliver(t, m, press(m, "y")); next != nil {
			t.Error("expected no reload after a failed removal")
		}
		if !strings.Contains(m.status, "Could not remove Night Song 1") {
			t.Errorf("unexpected status %q", m.status)
		}
	})

	t.Run("load failure", func(t *testing.T) {
		fake := tu.NewFakeSpotify(0)
		fake.Fail("PlaylistItems", errors.New("boom"))
		reader, _ := playlist.NewReader(fake, testPlaylistID)
		m := newLoadedModel(t, reader)

		if view := m.View(); !strings.Contains(view, "Error: boom") {
			t.Errorf("expected error view, got:\n%s", view)
		}
	})

	t.Run("static source and quit", func(t *testing.T) {
		fake := tu.NewFakeSpotify(5)
		c := tracks.FromRefs(fake, tu.TrackIDs(1, 5))
		m := newLoadedModel(t, Static{Collection: c})

		if got := len(m.list.Items()); got != 5 {
			t.Errorf("expected 5 items, got %d", got)
		}

		cmd := press(m, "q")
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})
}

func TestTrackItem(t *testing.T) {
	item := newTrackItem(map[string]any{
		"id":      "x",
		"name":    "Under Pressure",
		"artists": []any{map[string]any{"name": "Queen"}, map[string]any{"name": "David Bowie"}},
		"album":   map[string]any{"name": "Hot Space"},
	})

	if item.Title() != "Under Pressure" {
		t.Errorf("unexpected title %q", item.Title())
	}
	if item.Description() != "Queen, David Bowie • Hot Space" {
		t.Errorf("unexpected description %q", item.Description())
	}
	if !strings.Contains(item.FilterValue(), "Bowie") {
		t.Errorf("expected artists in filter value, got %q", item.FilterValue())
	}
}
