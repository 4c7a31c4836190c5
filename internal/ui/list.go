package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"applesync/internal/models"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = songItem{}
)

// playlistItem wraps a library playlist name to implement [list.Item].
type playlistItem struct {
	name   string
	tracks int
}

func (i playlistItem) FilterValue() string { return i.name }
func (i playlistItem) Title() string       { return i.name }
func (i playlistItem) Description() string {
	return fmt.Sprintf("%d tracks", i.tracks)
}

// songItem wraps [models.Song] to implement [list.Item].
type songItem struct {
	song models.Song
}

func (i songItem) FilterValue() string { return i.song.Name }
func (i songItem) Title() string       { return i.song.Name }
func (i songItem) Description() string {
	desc := i.song.Artist
	if i.song.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.song.Album)
	}
	return desc
}
