package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"applesync/internal/library"
	"applesync/internal/models"
	"applesync/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LibraryListView ViewState = iota
	TrackListView
	ConfirmView
	SyncView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	library      *library.Library
	exclude      []string
	engine       *tasks.PlaylistEngine
	width        int
	height       int
	playlistList list.Model
	trackList    list.Model
	selected     string
	songs        []models.Song
	progressChan chan tasks.ProgressUpdate
	done         chan syncCompleteMsg
	progress     tasks.ProgressUpdate
	result       *tasks.PlaylistSyncResult
	err          error
	help         help.Model
	keys         keyMap
}

type libraryLoadedMsg struct {
	names []string
}

type progressUpdateMsg tasks.ProgressUpdate

type syncCompleteMsg struct {
	result *tasks.PlaylistSyncResult
	err    error
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, lib *library.Library, exclude []string, engine *tasks.PlaylistEngine) *Model {
	return &Model{
		ctx:     ctx,
		view:    LibraryListView,
		library: lib,
		exclude: exclude,
		engine:  engine,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init initializes the TUI by loading the library's playlist names.
func (m *Model) Init() tea.Cmd {
	return func() tea.Msg {
		return libraryLoadedMsg{names: m.library.Names(m.exclude)}
	}
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.playlistList.Width() == 0 {
			m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.trackList.Width() == 0 {
			m.trackList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case LibraryListView:
			return m.handleLibraryListKeys(msg)
		case TrackListView:
			return m.handleTrackListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case libraryLoadedMsg:
		items := make([]list.Item, len(msg.names))
		for i, name := range msg.names {
			songs, _ := m.library.Get(name)
			items[i] = playlistItem{name: name, tracks: len(songs)}
		}
		m.playlistList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.playlistList.Title = "Library Playlists"
		m.playlistList.SetSize(m.width-4, m.height-8)
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case syncCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case LibraryListView:
		return m.renderLibraryList()
	case TrackListView:
		return m.renderTrackList()
	case ConfirmView:
		return m.renderConfirm()
	case SyncView:
		return m.renderSync()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleLibraryListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		if selected := m.playlistList.SelectedItem(); selected != nil {
			if pl, ok := selected.(playlistItem); ok {
				m.showTracks(pl.name)
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = LibraryListView
		return m, nil
	case "enter":
		m.view = ConfirmView
		return m, nil
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n":
		m.view = TrackListView
		return m, nil
	case "y":
		m.view = SyncView
		return m, m.startSync()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = LibraryListView
		m.selected = ""
		m.songs = nil
		m.result = nil
		m.err = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case LibraryListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case TrackListView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) showTracks(name string) {
	songs, _ := m.library.Get(name)
	m.selected = name
	m.songs = songs

	items := make([]list.Item, len(songs))
	for i, song := range songs {
		items[i] = songItem{song: song}
	}
	m.trackList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.trackList.Title = fmt.Sprintf("Tracks in '%s'", name)
	m.trackList.SetSize(m.width-4, m.height-8)
	m.view = TrackListView
}

func (m *Model) startSync() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	done := make(chan syncCompleteMsg, 1)

	go func(progress chan tasks.ProgressUpdate) {
		result, err := m.engine.SyncPlaylist(m.ctx, progress, m.selected, m.songs)
		if err == nil {
			err = m.engine.SaveLedger(progress)
		}
		done <- syncCompleteMsg{result: result, err: err}
		close(progress)
	}(m.progressChan)

	m.done = done
	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress := m.progressChan
	done := m.done
	return func() tea.Msg {
		if progress == nil {
			return nil
		}
		update, ok := <-progress
		if !ok {
			return <-done
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderLibraryList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.playlistList.View(), helpView)
}

func (m *Model) renderTrackList() string {
	syncKey := key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "sync"),
	)
	helpKeys := []key.Binding{syncKey, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.trackList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Sync '%s' to Spotify?", m.selected))
	info := fmt.Sprintf("\nPlaylist: %s\nTracks: %d\n", m.selected, len(m.songs))

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderSync() string {
	title := styles.title.Render("Syncing Playlist")

	var phase string
	switch m.progress.Phase {
	case tasks.EnsurePlaylist:
		phase = "Locating playlist on Spotify..."
	case tasks.SearchTracks:
		phase = fmt.Sprintf("Searching tracks (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.AddTracks:
		phase = "Adding tracks..."
	case tasks.SaveLedger:
		phase = "Saving ledger..."
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Sync failed: %v\n\nPress r to retry, q to quit", m.err))
	}

	if m.result == nil {
		return styles.err.Render("No result available\n\nPress r to retry, q to quit")
	}

	title := styles.ok.Render("✓ Sync Complete!")
	info := fmt.Sprintf(
		"\nPlaylist: %s (%d tracks)\nSearched: %d  Accepted: %d (%.1f%%)\nAdded: %d  Already present: %d  Previously synced: %d",
		m.result.PlaylistName,
		m.result.TotalTracks,
		m.result.Searched,
		m.result.Accepted,
		m.result.MatchPercentage,
		m.result.Added,
		m.result.AlreadyPresent,
		m.result.AlreadySynced,
	)

	var missed string
	if n := len(m.result.NotFound) + len(m.result.BelowThreshold); n > 0 {
		missed = fmt.Sprintf("\n\n%s", styles.warn.Render(fmt.Sprintf("Failed to match %d tracks:", n)))
		for _, song := range m.result.NotFound {
			missed += fmt.Sprintf("\n  • %s - %s", song.Artist, song.Name)
		}
		for _, match := range m.result.BelowThreshold {
			missed += fmt.Sprintf("\n  • %s - %s (best %.2f)", match.Source.Artist, match.Source.Name, match.Similarity.Total)
		}
	}

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, missed, helpView)
}
