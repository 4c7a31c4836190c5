// Package ledger tracks which source tracks have already been resolved
// against the catalogue and which playlists they have been assigned to, so
// repeat runs never repeat searches or assignments.
package ledger

import (
	"applesync/internal/models"
)

// Entry records one successfully resolved source track. A single entry
// exists per source track regardless of how many playlists reference it;
// AssignedPlaylists only ever grows.
type Entry struct {
	SourceTrackID     string   `json:"source_track_id"`
	SourceName        string   `json:"source_name"`
	SourceArtist      string   `json:"source_artist"`
	SourceAlbum       string   `json:"source_album"`
	CandidateTrackID  string   `json:"candidate_track_id"`
	CandidateName     string   `json:"candidate_name"`
	CandidateArtist   string   `json:"candidate_artist"`
	CandidateAlbum    string   `json:"candidate_album"`
	TotalSimilarity   float64  `json:"total_similarity"`
	NameSimilarity    float64  `json:"song_name_similarity"`
	ArtistSimilarity  float64  `json:"artist_name_similarity"`
	AlbumSimilarity   float64  `json:"album_name_similarity"`
	AssignedPlaylists []string `json:"assigned_playlists"`
}

// HasPlaylist reports whether the entry has been assigned to the playlist.
func (e *Entry) HasPlaylist(name string) bool {
	for _, p := range e.AssignedPlaylists {
		if p == name {
			return true
		}
	}
	return false
}

// Ledger is the in-memory form of the persisted sync state, keyed by source
// track id. Insertion order is preserved for serialization stability.
type Ledger struct {
	entries map[string]*Entry
	order   []string
	dirty   bool
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{entries: make(map[string]*Entry)}
}

// FromRecords builds a ledger from the raw records a [Store] loaded.
// Later duplicates of the same source track id are folded into the first.
func FromRecords(records []Entry) *Ledger {
	l := New()
	for i := range records {
		record := records[i]
		if existing, ok := l.entries[record.SourceTrackID]; ok {
			for _, p := range record.AssignedPlaylists {
				if !existing.HasPlaylist(p) {
					existing.AssignedPlaylists = append(existing.AssignedPlaylists, p)
				}
			}
			continue
		}
		l.entries[record.SourceTrackID] = &record
		l.order = append(l.order, record.SourceTrackID)
	}
	return l
}

// Records returns all entries in insertion order, ready for persistence.
func (l *Ledger) Records() []Entry {
	records := make([]Entry, 0, len(l.order))
	for _, id := range l.order {
		records = append(records, *l.entries[id])
	}
	return records
}

// Len returns the number of resolved source tracks.
func (l *Ledger) Len() int { return len(l.order) }

// Dirty reports whether the ledger changed since it was loaded. An unchanged
// ledger is not rewritten at the end of a run.
func (l *Ledger) Dirty() bool { return l.dirty }

// Get returns the entry for a source track id.
func (l *Ledger) Get(sourceTrackID string) (*Entry, bool) {
	e, ok := l.entries[sourceTrackID]
	return e, ok
}

// ByPlaylist returns, in insertion order, the entries assigned to the
// playlist.
func (l *Ledger) ByPlaylist(name string) []Entry {
	var records []Entry
	for _, id := range l.order {
		if entry := l.entries[id]; entry.HasPlaylist(name) {
			records = append(records, *entry)
		}
	}
	return records
}

// Fold records a newly resolved match. The entry is created without any
// playlist assignment; Assign records membership once the remote mutation
// actually succeeded. Folding an already-known source track is a no-op.
func (l *Ledger) Fold(m models.SongMatch) *Entry {
	if existing, ok := l.entries[m.Source.TrackID]; ok {
		return existing
	}

	entry := &Entry{
		SourceTrackID:    m.Source.TrackID,
		SourceName:       m.Source.Name,
		SourceArtist:     m.Source.Artist,
		SourceAlbum:      m.Source.Album,
		CandidateTrackID: m.Candidate.TrackID,
		CandidateName:    m.Candidate.Name,
		CandidateArtist:  m.Candidate.Artist,
		CandidateAlbum:   m.Candidate.Album,
		TotalSimilarity:  m.Similarity.Total,
		NameSimilarity:   m.Similarity.Name,
		ArtistSimilarity: m.Similarity.Artist,
		AlbumSimilarity:  m.Similarity.Album,
	}
	l.entries[entry.SourceTrackID] = entry
	l.order = append(l.order, entry.SourceTrackID)
	l.dirty = true
	return entry
}

// Assign records that the source track is a member of the playlist.
// Returns false when the track is unknown or already assigned.
func (l *Ledger) Assign(sourceTrackID, playlist string) bool {
	entry, ok := l.entries[sourceTrackID]
	if !ok || entry.HasPlaylist(playlist) {
		return false
	}
	entry.AssignedPlaylists = append(entry.AssignedPlaylists, playlist)
	l.dirty = true
	return true
}
