// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for syncing library playlists:
//  1. [LibraryListView] : Browse the playlists of the local library export
//  2. [TrackListView] : Preview a playlist's tracks before syncing
//  3. [ConfirmView] : Confirm the sync operation
//  4. [SyncView] : Monitor real-time progress updates
//  5. [ResultView] : Display match counts and rejected tracks
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the PlaylistEngine, providing non-blocking status reporting during syncs.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
