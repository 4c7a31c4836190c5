package tasks

import (
	"fmt"

	"applesync/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	EnsurePlaylist Phase = iota
	PlanTracks
	SearchTracks
	FetchMembership
	AddTracks
	SaveLedger
	ExportReport
)

func (p Phase) String() string {
	switch p {
	case EnsurePlaylist:
		return "ensure_playlist"
	case PlanTracks:
		return "plan_tracks"
	case SearchTracks:
		return "search_tracks"
	case FetchMembership:
		return "fetch_membership"
	case AddTracks:
		return "add_tracks"
	case SaveLedger:
		return "save_ledger"
	case ExportReport:
		return "export_report"
	default:
		return ""
	}
}

func ensurePlaylistUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   EnsurePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Locating playlist %q on Spotify...", name),
	}
}

func createdPlaylistUpdate(pl *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   EnsurePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Created playlist: %s (ID: %s)", pl.Name, pl.ID),
		Data:    pl,
	}
}

func planUpdate(toSearch, toAssign, skipped int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PlanTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("%d to search, %d resolved earlier, %d already synced", toSearch, toAssign, skipped),
	}
}

func searchTrackUpdate(step, total int, song models.Song) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s - %s", step, total, song.Artist, song.Name),
	}
}

func membershipUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchMembership,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching current tracks of %q...", name),
	}
}

func addTracksUpdate(step, total, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Adding %d tracks...", step, total, count),
	}
}

func saveLedgerUpdate(entries int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SaveLedger,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Saving ledger (%d entries)...", entries),
	}
}

func exportingReportUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportReport,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exporting: %s...", step, total, name),
	}
}

func reportCompletedUpdate(step, total int, name, file string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportReport,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%s)", step, total, name, file),
	}
}

func reportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportReport,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}
