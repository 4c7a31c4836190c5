package models

import "strings"

// Song identifies a track by name, artist and album.
//
// Identity is based on (Name, Artist, Album) only. TrackID, when present, is
// the identifier of the track within its own system (Apple Music library or
// Spotify catalogue) and is never comparable across systems.
type Song struct {
	Name    string `json:"name"`
	Artist  string `json:"artist"`
	Album   string `json:"album,omitempty"`
	TrackID string `json:"track_id,omitempty"`
}

// Key returns the identity key used for deduplication across runs.
// TrackID is deliberately excluded since it differs between systems.
func (s Song) Key() string {
	return s.Name + "\x1f" + s.Artist + "\x1f" + s.Album
}

// Query renders the song as a free-text catalogue search query with
// incidental whitespace collapsed.
func (s Song) Query() string {
	return strings.Join(strings.Fields(s.Name+" "+s.Artist+" "+s.Album), " ")
}

// WithoutAlbum returns a copy of the song with the album cleared.
func (s Song) WithoutAlbum() Song {
	return Song{Name: s.Name, Artist: s.Artist, TrackID: s.TrackID}
}

// IsZero reports whether the song carries no metadata at all.
func (s Song) IsZero() bool {
	return s.Name == "" && s.Artist == "" && s.Album == "" && s.TrackID == ""
}

// Similarity holds normalized string-similarity scores between a query song
// and a catalogue candidate. All scores are in [0, 1].
//
// AlbumScored is false when the query carried no album; Album is then
// meaningless and excluded from Total.
type Similarity struct {
	Total       float64 `json:"total_similarity"`
	Name        float64 `json:"song_name_similarity"`
	Artist      float64 `json:"artist_name_similarity"`
	Album       float64 `json:"album_name_similarity"`
	AlbumScored bool    `json:"album_scored"`
}

// SongMatch is the result of resolving one source song against the remote
// catalogue.
//
// Source is always the original, unmodified song. Candidate is the winning
// catalogue track, zero-valued when nothing was found. Similarity measures
// the winning query variant against the candidate, not the original song
// against the candidate.
type SongMatch struct {
	Source     Song       `json:"source"`
	Candidate  Song       `json:"candidate"`
	Similarity Similarity `json:"similarity"`
}

// Found reports whether the resolution produced a usable candidate.
func (m SongMatch) Found() bool {
	return m.Candidate.TrackID != ""
}

// Playlist represents a playlist on the streaming service.
type Playlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	TrackCount  int    `json:"track_count"`
	Public      bool   `json:"public"`
}
