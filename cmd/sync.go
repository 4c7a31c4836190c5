package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/urfave/cli/v3"

	"applesync/internal/models"
	"applesync/internal/shared"
	"applesync/internal/tasks"
)

// SyncRun syncs one named playlist or every non-excluded playlist.
//
// Playlists are processed sequentially, smallest first, over one shared
// ledger; the ledger is saved once at the end and only if it changed.
func (r *Runner) SyncRun(ctx context.Context, cmd *cli.Command) error {
	playlistName := cmd.String("playlist")
	all := cmd.Bool("all")

	if playlistName == "" && !all {
		return fmt.Errorf("%w: either --playlist or --all is required", shared.ErrMissingArgument)
	}
	if playlistName != "" && all {
		return fmt.Errorf("%w: cannot specify both --playlist and --all", shared.ErrInvalidArgument)
	}

	lib, exclude, err := r.loadLibrary()
	if err != nil {
		return err
	}

	var names []string
	if all {
		names = lib.Names(exclude)
	} else {
		if _, ok := lib.Get(playlistName); !ok {
			return fmt.Errorf("%w: no playlist named %q in library export", shared.ErrPlaylistNotFound, playlistName)
		}
		names = []string{playlistName}
	}

	engine, err := r.ensureEngine(ctx)
	if err != nil {
		return err
	}

	var runErr error
	for _, name := range names {
		songs, _ := lib.Get(name)

		r.writePlainHeader(fmt.Sprintf("Syncing %q (%d tracks)", name, len(songs)))

		result, err := r.syncWithProgress(ctx, engine, name, songs)
		if result != nil {
			r.printSyncResult(result)
		}
		if err != nil {
			// A permanent failure mid-run still gets the ledger saved below,
			// so completed work is not repeated next time.
			runErr = err
			break
		}
	}

	if err := engine.SaveLedger(nil); err != nil {
		if runErr != nil {
			r.logger.Error("failed to save ledger", "error", err)
			return runErr
		}
		return err
	}

	return runErr
}

// syncWithProgress runs one playlist sync while draining its progress channel
// to the logger.
func (r *Runner) syncWithProgress(ctx context.Context, engine *tasks.PlaylistEngine, name string, songs []models.Song) (*tasks.PlaylistSyncResult, error) {
	progress := make(chan tasks.ProgressUpdate, 50)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase.String())
		}
	}()

	result, err := engine.SyncPlaylist(ctx, progress, name, songs)
	close(progress)
	wg.Wait()

	return result, err
}

func (r *Runner) printSyncResult(result *tasks.PlaylistSyncResult) {
	r.writePlain("\nPlaylist: %s\n", result.PlaylistName)
	r.writePlain("  Total tracks:      %d\n", result.TotalTracks)
	r.writePlain("  Searched:          %d\n", result.Searched)
	r.writePlain("  Accepted:          %d (%.1f%%)\n", result.Accepted, result.MatchPercentage)
	r.writePlain("  Added:             %d\n", result.Added)
	r.writePlain("  Already present:   %d\n", result.AlreadyPresent)
	r.writePlain("  Previously synced: %d\n", result.AlreadySynced)
	r.writePlain("  Reused matches:    %d\n", result.Reused)

	if len(result.NotFound) > 0 {
		r.writePlainln("⚠ No match found for %d tracks:", len(result.NotFound))
		for _, song := range result.NotFound {
			r.writePlain("  • %s - %s\n", song.Artist, song.Name)
		}
	}

	if len(result.BelowThreshold) > 0 {
		r.writePlainln("⚠ Best candidate below threshold for %d tracks:", len(result.BelowThreshold))
		for _, m := range result.BelowThreshold {
			r.writePlain("  • %s - %s (best: %s - %s, %.2f)\n",
				m.Source.Artist, m.Source.Name,
				m.Candidate.Artist, m.Candidate.Name,
				m.Similarity.Total)
		}
	}
}
