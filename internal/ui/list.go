package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/sung/internal/extract"
	"github.com/desertthunder/sung/internal/tracks"
)

var _ list.Item = trackItem{}

var artistNames = extract.MustPath("artists.*.name")

// trackItem wraps [tracks.Metadata] to implement [list.Item].
type trackItem struct {
	id      string
	name    string
	artists string
	album   string
	meta    tracks.Metadata
}

func newTrackItem(meta tracks.Metadata) trackItem {
	item := trackItem{meta: meta}
	item.id, _ = meta["id"].(string)
	item.name, _ = meta["name"].(string)
	if album, ok := meta["album"].(map[string]any); ok {
		item.album, _ = album["name"].(string)
	}

	if names, ok := artistNames(meta).([]any); ok {
		parts := make([]string, 0, len(names))
		for _, n := range names {
			if s, ok := n.(string); ok {
				parts = append(parts, s)
			}
		}
		item.artists = strings.Join(parts, ", ")
	}
	return item
}

func (i trackItem) FilterValue() string { return i.name + " " + i.artists }
func (i trackItem) Title() string       { return i.name }
func (i trackItem) Description() string {
	desc := i.artists
	if i.album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.album)
	}
	return desc
}
