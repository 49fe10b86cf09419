package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgTracksLoaded MsgKind = iota
	MsgTrackRemoved
)

type tracksLoaded struct {
	items []trackItem
	err   error
}

type trackRemoved struct {
	item trackItem
	err  error
}

// tracksLoadedMsg is the constructor for [MsgTracksLoaded]
func tracksLoadedMsg(items []trackItem, err error) Msg {
	return Msg{kind: MsgTracksLoaded, data: tracksLoaded{items, err}}
}

// trackRemovedMsg is the constructor for [MsgTrackRemoved]
func trackRemovedMsg(item trackItem, err error) Msg {
	return Msg{kind: MsgTrackRemoved, data: trackRemoved{item, err}}
}
