// package tasks implements the playlist sync operations between the local
// library and the streaming catalogue.
//
// The core abstraction is SyncEngine, which orchestrates per-playlist syncs,
// ledger persistence, and match report exports. Operations emit progress
// updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"applesync/internal/ledger"
	"applesync/internal/match"
	"applesync/internal/models"
	"applesync/internal/services"
	"applesync/internal/shared"
)

// DefaultThreshold is the minimum total similarity an accepted match must
// reach.
const DefaultThreshold = 0.86

// DefaultChunkSize is the largest batch of track ids sent in one playlist
// mutation.
const DefaultChunkSize = 100

// DefaultRateLimit is the search request budget in requests per second.
const DefaultRateLimit = 5.0

// PlaylistSyncResult contains all counts from syncing a single playlist.
type PlaylistSyncResult struct {
	Playlist        *models.Playlist   // Destination playlist (found or created)
	PlaylistName    string             // Source playlist name
	TotalTracks     int                // Tracks in the source playlist
	Searched        int                // Tracks resolved against the catalogue this run
	Reused          int                // Tracks resolved in an earlier run, assigned this run
	AlreadySynced   int                // Tracks the ledger already had assigned here
	Accepted        int                // Matches at or above the acceptance threshold
	BelowThreshold  []models.SongMatch // Matches rejected by the threshold
	NotFound        []models.Song      // Tracks with no catalogue candidate at all
	Added           int                // Tracks actually appended to the remote playlist
	AlreadyPresent  int                // Matched tracks the remote playlist already contained
	MatchPercentage float64            // Accepted / Searched as percentage
}

// SyncEngine defines operations for syncing library playlists to the
// streaming service.
type SyncEngine interface {
	// SyncPlaylist syncs one named playlist: plans against the ledger,
	// resolves unseen tracks, and appends accepted matches to the remote
	// playlist, creating it if needed.
	SyncPlaylist(ctx context.Context, progress chan<- ProgressUpdate, name string, songs []models.Song) (*PlaylistSyncResult, error)

	// ExportReports writes per-playlist match reports for the given
	// playlist names.
	ExportReports(ctx context.Context, progress chan<- ProgressUpdate, names []string, opts ReportOpts) (*ReportResult, error)

	// SaveLedger persists the ledger if it changed during the run.
	SaveLedger(progress chan<- ProgressUpdate) error
}

// PlaylistEngine implements SyncEngine. It owns the run-scoped ledger and
// serializes all catalogue access through a single rate limiter.
type PlaylistEngine struct {
	service   services.Service
	resolver  *match.Resolver
	ledger    *ledger.Ledger
	store     ledger.Store
	limiter   *rate.Limiter
	threshold float64
	chunkSize int
}

// NewPlaylistEngine creates an engine over the given service, resolver and
// ledger. Zero or negative tuning values fall back to the defaults.
func NewPlaylistEngine(service services.Service, resolver *match.Resolver, ldg *ledger.Ledger, store ledger.Store, cfg shared.SyncConfig) *PlaylistEngine {
	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 || chunkSize > DefaultChunkSize {
		chunkSize = DefaultChunkSize
	}
	rateLimit := cfg.RateLimit
	if rateLimit <= 0 {
		rateLimit = DefaultRateLimit
	}

	return &PlaylistEngine{
		service:   service,
		resolver:  resolver,
		ledger:    ldg,
		store:     store,
		limiter:   rate.NewLimiter(rate.Limit(rateLimit), 1),
		threshold: threshold,
		chunkSize: chunkSize,
	}
}

// Ledger exposes the engine's run-scoped ledger for read-only inspection.
func (e *PlaylistEngine) Ledger() *ledger.Ledger { return e.ledger }

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *PlaylistEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// pendingAdd groups the source tracks that resolved to one catalogue
// candidate, so a successful batch can record every assignment it covers.
type pendingAdd struct {
	candidateID string
	sourceIDs   []string
}

// SyncPlaylist syncs one playlist end to end.
//
// The flow is: ensure the remote playlist exists, partition the source
// tracks by ledger state, resolve the unseen ones, filter by the acceptance
// threshold, drop candidates the remote playlist already contains, and
// append the rest in bounded batches. Ledger assignments are recorded only
// after the batch covering them succeeded, so an interrupted run retries
// exactly the unfinished work.
func (e *PlaylistEngine) SyncPlaylist(ctx context.Context, progress chan<- ProgressUpdate, name string, songs []models.Song) (*PlaylistSyncResult, error) {
	if e.service == nil {
		return nil, fmt.Errorf("%w: service not initialized", shared.ErrServiceUnavailable)
	}

	result := &PlaylistSyncResult{
		PlaylistName: name,
		TotalTracks:  len(songs),
	}

	e.sendProgress(progress, ensurePlaylistUpdate(name))
	playlist, err := e.ensurePlaylist(ctx, progress, name)
	if err != nil {
		return result, err
	}
	result.Playlist = playlist

	plan := e.ledger.Plan(name, songs)
	result.Reused = len(plan.ToAssign)
	result.AlreadySynced = plan.Skipped
	e.sendProgress(progress, planUpdate(len(plan.ToSearch), len(plan.ToAssign), plan.Skipped))

	pending := e.indexAssignments(plan.ToAssign)

	for i, song := range plan.ToSearch {
		if err := e.limiter.Wait(ctx); err != nil {
			return result, err
		}
		e.sendProgress(progress, searchTrackUpdate(i+1, len(plan.ToSearch), song))

		m, err := e.resolver.Resolve(ctx, song)
		if err != nil {
			return result, err
		}
		result.Searched++

		switch {
		case !m.Found():
			result.NotFound = append(result.NotFound, song)
		case m.Similarity.Total < e.threshold:
			result.BelowThreshold = append(result.BelowThreshold, m)
		default:
			result.Accepted++
			if song.TrackID != "" {
				e.ledger.Fold(m)
			}
			pending.add(song.TrackID, m.Candidate.TrackID)
		}
	}

	if result.Searched > 0 {
		result.MatchPercentage = float64(result.Accepted) / float64(result.Searched) * 100
	}

	if len(pending.order) == 0 {
		return result, nil
	}

	e.sendProgress(progress, membershipUpdate(name))
	members, err := e.service.PlaylistTrackIDs(ctx, playlist.ID)
	if err != nil {
		return result, err
	}

	var toAdd []string
	for _, candidateID := range pending.order {
		p := pending.byCandidate[candidateID]
		if members[candidateID] {
			result.AlreadyPresent += len(p.sourceIDs)
			e.assignAll(name, p.sourceIDs)
			continue
		}
		toAdd = append(toAdd, candidateID)
	}

	batches := shared.Chunks(toAdd, e.chunkSize)
	for i, batch := range batches {
		e.sendProgress(progress, addTracksUpdate(i+1, len(batches), len(batch)))
		if err := e.service.AddTracks(ctx, playlist.ID, batch); err != nil {
			return result, fmt.Errorf("failed to add tracks to %q: %w", name, err)
		}
		result.Added += len(batch)
		for _, candidateID := range batch {
			e.assignAll(name, pending.byCandidate[candidateID].sourceIDs)
		}
	}

	return result, nil
}

// SaveLedger persists the ledger through the configured store, skipping the
// write entirely when nothing changed.
func (e *PlaylistEngine) SaveLedger(progress chan<- ProgressUpdate) error {
	if e.store == nil || !e.ledger.Dirty() {
		return nil
	}
	e.sendProgress(progress, saveLedgerUpdate(e.ledger.Len()))
	if err := e.store.Save(e.ledger.Records()); err != nil {
		return fmt.Errorf("failed to save ledger: %w", err)
	}
	return nil
}

// ensurePlaylist finds the named playlist among the user's playlists or
// creates it as a private playlist.
func (e *PlaylistEngine) ensurePlaylist(ctx context.Context, progress chan<- ProgressUpdate, name string) (*models.Playlist, error) {
	playlists, err := e.service.GetPlaylists(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get playlists: %v", shared.ErrAPIRequest, err)
	}
	for i := range playlists {
		if playlists[i].Name == name {
			return &playlists[i], nil
		}
	}

	playlist, err := e.service.CreatePlaylist(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create playlist %q: %v", shared.ErrAPIRequest, name, err)
	}
	e.sendProgress(progress, createdPlaylistUpdate(playlist))
	return playlist, nil
}

// pendingSet keeps candidate order stable while grouping source tracks per
// candidate.
type pendingSet struct {
	order       []string
	byCandidate map[string]*pendingAdd
}

func (e *PlaylistEngine) indexAssignments(assignments []ledger.Assignment) *pendingSet {
	set := &pendingSet{byCandidate: make(map[string]*pendingAdd)}
	for _, a := range assignments {
		set.add(a.SourceTrackID, a.CandidateTrackID)
	}
	return set
}

func (s *pendingSet) add(sourceID, candidateID string) {
	p, ok := s.byCandidate[candidateID]
	if !ok {
		p = &pendingAdd{candidateID: candidateID}
		s.byCandidate[candidateID] = p
		s.order = append(s.order, candidateID)
	}
	if sourceID != "" {
		p.sourceIDs = append(p.sourceIDs, sourceID)
	}
}

func (e *PlaylistEngine) assignAll(playlist string, sourceIDs []string) {
	for _, id := range sourceIDs {
		e.ledger.Assign(id, playlist)
	}
}
