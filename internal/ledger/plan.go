package ledger

import (
	"applesync/internal/models"
)

// Assignment pairs a previously resolved source track with its catalogue
// candidate, so the engine can record ledger membership after the remote
// mutation succeeds.
type Assignment struct {
	SourceTrackID    string
	CandidateTrackID string
}

// Plan is the partition of an incoming playlist against the ledger state.
//
// Per source track the state machine is: Unseen -> resolved (entry exists)
// -> assigned to this playlist. Unseen tracks need a catalogue search;
// resolved-but-unassigned tracks only need assignment with the candidate
// found in an earlier run; already-assigned tracks need nothing.
type Plan struct {
	PlaylistName string
	ToSearch     []models.Song
	ToAssign     []Assignment
	Skipped      int // already assigned to this playlist
}

// Plan partitions the playlist's songs by ledger state. Songs without a
// source track id can never be tracked across runs and are always searched.
func (l *Ledger) Plan(playlistName string, songs []models.Song) Plan {
	plan := Plan{PlaylistName: playlistName}

	for _, song := range songs {
		if song.TrackID == "" {
			plan.ToSearch = append(plan.ToSearch, song)
			continue
		}
		entry, ok := l.entries[song.TrackID]
		switch {
		case !ok:
			plan.ToSearch = append(plan.ToSearch, song)
		case entry.HasPlaylist(playlistName):
			plan.Skipped++
		default:
			plan.ToAssign = append(plan.ToAssign, Assignment{
				SourceTrackID:    entry.SourceTrackID,
				CandidateTrackID: entry.CandidateTrackID,
			})
		}
	}

	return plan
}
