package main

import (
	"context"
	"strings"

	"github.com/urfave/cli/v3"
)

// LedgerShow prints the persisted ledger entries, optionally filtered to one
// playlist's assignments.
func (r *Runner) LedgerShow(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")
	playlist := cmd.String("playlist")

	ldg, err := r.loadLedger()
	if err != nil {
		return err
	}

	records := ldg.Records()
	if playlist != "" {
		records = ldg.ByPlaylist(playlist)
	}

	if useJSON {
		return r.writeJSON(records, pretty)
	}

	r.writePlain("%d resolved tracks", len(records))
	if playlist != "" {
		r.writePlain(" assigned to %q", playlist)
	}
	r.writePlain("\n\n")

	for i, e := range records {
		r.writePlain("%d. %s - %s\n", i+1, e.SourceArtist, e.SourceName)
		r.writePlain("   → %s - %s (%.4f)\n", e.CandidateArtist, e.CandidateName, e.TotalSimilarity)
		if len(e.AssignedPlaylists) > 0 {
			r.writePlain("   Playlists: %s\n", strings.Join(e.AssignedPlaylists, ", "))
		}
	}

	return nil
}
