package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/sung/internal/extract"
	"github.com/desertthunder/sung/internal/formatter"
	"github.com/desertthunder/sung/internal/shared"
	"github.com/desertthunder/sung/internal/tracks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	TrackListView ViewState = iota
	DetailView
	ConfirmView
)

// Source supplies the tracks to browse. Implemented by playlist.Reader and playlist.Playlist.
type Source interface {
	Tracks(ctx context.Context) (*tracks.Collection, error)
}

// Remover is implemented by sources whose tracks can be removed.
type Remover interface {
	Delete(ctx context.Context, ref string) error
}

// Static is a [Source] over a fixed collection, such as search results.
type Static struct {
	Collection *tracks.Collection
}

func (s Static) Tracks(context.Context) (*tracks.Collection, error) { return s.Collection, nil }

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	title    string
	source   Source
	remover  Remover
	logger   *log.Logger
	view     ViewState
	width    int
	height   int
	list     list.Model
	selected *trackItem
	loaded   bool
	status   string
	err      error
	help     help.Model
	keys     keyMap
}

// NewModel creates a browser over src. Removal is enabled when src implements [Remover].
func NewModel(ctx context.Context, title string, src Source, logger *log.Logger) *Model {
	if logger == nil {
		logger = shared.DiscardLogger()
	}

	m := &Model{
		ctx:    ctx,
		title:  title,
		source: src,
		logger: logger,
		view:   TrackListView,
		help:   help.New(),
		keys:   newKeyMap(),
	}
	if r, ok := src.(Remover); ok {
		m.remover = r
	}

	m.list = list.New(nil, list.NewDefaultDelegate(), 0, 0)
	m.list.Title = title
	m.list.SetShowHelp(false)
	return m
}

// Init loads the tracks from the source.
func (m *Model) Init() tea.Cmd {
	return m.loadTracks()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case TrackListView:
			return m.handleTrackListKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		}

	case Msg:
		switch msg.kind {
		case MsgTracksLoaded:
			data := msg.data.(tracksLoaded)
			if data.err != nil {
				m.logger.Error("failed to load tracks", "error", data.err)
				m.err = data.err
				return m, nil
			}

			m.loaded = true
			items := make([]list.Item, len(data.items))
			for i, it := range data.items {
				items[i] = it
			}
			m.logger.Debug("tracks loaded", "count", len(items))
			return m, m.list.SetItems(items)

		case MsgTrackRemoved:
			data := msg.data.(trackRemoved)
			m.view = TrackListView
			m.selected = nil
			if data.err != nil {
				m.logger.Error("failed to remove track", "id", data.item.id, "error", data.err)
				m.status = styles.err.Render(fmt.Sprintf("Could not remove %s: %v", data.item.name, data.err))
				return m, nil
			}
			m.logger.Info("track removed", "id", data.item.id, "name", data.item.name)
			m.status = styles.ok.Render(fmt.Sprintf("✓ Removed %s", data.item.name))
			return m, m.loadTracks()
		}
	}

	var cmd tea.Cmd
	if m.view == TrackListView {
		m.list, cmd = m.list.Update(msg)
	}
	return m, cmd
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}
	if !m.loaded {
		return "Loading tracks..."
	}

	switch m.view {
	case TrackListView:
		return m.renderTrackList()
	case DetailView:
		return m.renderDetail()
	case ConfirmView:
		return m.renderConfirm()
	default:
		return ""
	}
}

func (m *Model) selectedItem() *trackItem {
	if it, ok := m.list.SelectedItem().(trackItem); ok {
		return &it
	}
	return nil
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		if it := m.selectedItem(); it != nil {
			m.selected = it
			m.view = DetailView
		}
		return m, nil
	case "d":
		m.confirmRemoval(m.selectedItem())
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "enter", "backspace":
		m.view = TrackListView
		m.selected = nil
	case "d":
		m.confirmRemoval(m.selected)
	}
	return m, nil
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n", "esc":
		m.view = TrackListView
		m.selected = nil
		return m, nil
	case "y":
		if m.selected == nil {
			m.view = TrackListView
			return m, nil
		}
		m.status = fmt.Sprintf("Removing %s...", m.selected.name)
		return m, m.removeTrack(*m.selected)
	}
	return m, nil
}

func (m *Model) confirmRemoval(it *trackItem) {
	if it == nil {
		return
	}
	if m.remover == nil {
		m.status = styles.warn.Render("This track list is read-only")
		return
	}
	m.selected = it
	m.view = ConfirmView
}

func (m *Model) loadTracks() tea.Cmd {
	return func() tea.Msg {
		c, err := m.source.Tracks(m.ctx)
		if err != nil {
			return tracksLoadedMsg(nil, err)
		}
		metas, err := c.Metadata(m.ctx)
		if err != nil {
			return tracksLoadedMsg(nil, err)
		}

		items := make([]trackItem, len(metas))
		for i, meta := range metas {
			items[i] = newTrackItem(meta)
		}
		return tracksLoadedMsg(items, nil)
	}
}

func (m *Model) removeTrack(it trackItem) tea.Cmd {
	return func() tea.Msg {
		return trackRemovedMsg(it, m.remover.Delete(m.ctx, it.id))
	}
}

func (m *Model) renderTrackList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	if m.remover != nil {
		helpKeys = []key.Binding{m.keys.enter, m.keys.remove, m.keys.quit}
	}
	return fmt.Sprintf("%s\n%s\n%s", m.list.View(), m.status, m.help.ShortHelpView(helpKeys))
}

// detailFields are the [extract.StandardTrackMetadata] fields shown in the detail view.
var detailFields = []string{"name", "artist", "album", "release_date", "duration_ms", "popularity", "explicit", "track_number", "external_url"}

func (m *Model) renderDetail() string {
	if m.selected == nil {
		return ""
	}

	record, _ := extract.StandardTrack(m.selected.meta).(extract.Record)

	var b strings.Builder
	b.WriteString(styles.title.Render(m.selected.name) + "\n")
	for _, field := range detailFields {
		value := formatter.Cell(record.Get(field))
		switch field {
		case "duration_ms":
			if ms, ok := record.Get(field).(float64); ok {
				value = shared.FormatDuration(int(ms))
			}
		case "artist":
			value = m.selected.artists
		}
		if value == "" {
			continue
		}
		fmt.Fprintf(&b, "%s %s\n", styles.label.Render(field), value)
	}
	fmt.Fprintf(&b, "%s %s\n", styles.label.Render("id"), m.selected.id)

	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	if m.remover != nil {
		helpKeys = []key.Binding{m.keys.back, m.keys.remove, m.keys.quit}
	}
	return fmt.Sprintf("%s\n%s", b.String(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderConfirm() string {
	if m.selected == nil {
		return ""
	}

	title := styles.title.Render(fmt.Sprintf("Remove '%s' from %s?", m.selected.name, m.title))
	info := fmt.Sprintf("\nArtists: %s\nAlbum: %s\n%s\n",
		m.selected.artists, m.selected.album, styles.help.Render("Every occurrence of the track is removed."))

	helpKeys := []key.Binding{m.keys.yes, m.keys.no}
	return fmt.Sprintf("%s\n%s\n%s", title, info, m.help.ShortHelpView(helpKeys))
}
