// Package ui implements an interactive track browser using bubbletea's Elm architecture.
//
// The browser has three views:
//  1. [TrackListView] : filterable list of tracks (name, artists, album)
//  2. [DetailView] : the standard metadata of the selected track
//  3. [ConfirmView] : confirm removing the selected track from a mutable playlist
//
// The [Model] reads tracks from a [Source]. When the source also implements [Remover] (a mutable
// playlist), `d` removes the selected track and the list is reloaded from the source, whose cache the
// removal invalidated.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, d, y/n, q) with contextual help
// displayed via charmbracelet/bubbles/help.
package ui
