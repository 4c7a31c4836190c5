package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"applesync/internal/shared"
)

// LibraryList lists the playlists of the prepared library export, smallest
// first, with exclusions applied.
func (r *Runner) LibraryList(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	lib, exclude, err := r.loadLibrary()
	if err != nil {
		return err
	}

	names := lib.Names(exclude)

	if useJSON {
		type entry struct {
			Name   string `json:"name"`
			Tracks int    `json:"tracks"`
		}
		out := make([]entry, 0, len(names))
		for _, name := range names {
			songs, _ := lib.Get(name)
			out = append(out, entry{Name: name, Tracks: len(songs)})
		}
		return r.writeJSON(out, pretty)
	}

	r.writePlain("Found %d playlists (%d excluded):\n\n", len(names), len(lib.Playlists)-len(names))
	for i, name := range names {
		songs, _ := lib.Get(name)
		r.writePlain("%d. %s (%d tracks)\n", i+1, name, len(songs))
	}

	return nil
}

// LibraryShow prints the tracks of one library playlist.
func (r *Runner) LibraryShow(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	if name == "" {
		return fmt.Errorf("%w: playlist name is required", shared.ErrMissingArgument)
	}

	lib, _, err := r.loadLibrary()
	if err != nil {
		return err
	}

	songs, ok := lib.Get(name)
	if !ok {
		return fmt.Errorf("%w: no playlist named %q in library export", shared.ErrPlaylistNotFound, name)
	}

	if useJSON {
		return r.writeJSON(songs, pretty)
	}

	r.writePlain("Playlist: %s\n", name)
	r.writePlain("Tracks: %d\n\n", len(songs))
	for i, song := range songs {
		r.writePlain("%d. %s - %s\n", i+1, song.Artist, song.Name)
		if song.Album != "" {
			r.writePlain("   Album: %s\n", song.Album)
		}
	}

	return nil
}
