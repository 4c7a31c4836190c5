package ledger

import (
	"database/sql"
	"fmt"

	"applesync/internal/shared"
)

// SQLiteStore persists the ledger in a SQLite database. Load and Save keep
// the same wholesale semantics as [JSONStore]: Save replaces the full record
// set in one transaction.
//
// The schema is created by [shared.RunMigrations]; a query failing against
// it is treated as a schema mismatch rather than coerced.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a store over an open database connection. The
// caller owns the connection lifecycle.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Load reads all entries ordered by insertion position, with their playlist
// assignments.
func (s *SQLiteStore) Load() ([]Entry, error) {
	rows, err := s.db.Query(`
		SELECT source_track_id, source_name, source_artist, source_album,
		       candidate_track_id, candidate_name, candidate_artist, candidate_album,
		       total_similarity, name_similarity, artist_similarity, album_similarity
		FROM ledger_entries
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrSchemaMismatch, err)
	}
	defer rows.Close()

	var records []Entry
	index := make(map[string]int)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.SourceTrackID, &e.SourceName, &e.SourceArtist, &e.SourceAlbum,
			&e.CandidateTrackID, &e.CandidateName, &e.CandidateArtist, &e.CandidateAlbum,
			&e.TotalSimilarity, &e.NameSimilarity, &e.ArtistSimilarity, &e.AlbumSimilarity,
		); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrSchemaMismatch, err)
		}
		index[e.SourceTrackID] = len(records)
		records = append(records, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ledger entries: %w", err)
	}

	assignments, err := s.db.Query(`
		SELECT source_track_id, playlist FROM ledger_assignments ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrSchemaMismatch, err)
	}
	defer assignments.Close()

	for assignments.Next() {
		var id, playlist string
		if err := assignments.Scan(&id, &playlist); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrSchemaMismatch, err)
		}
		if i, ok := index[id]; ok {
			records[i].AssignedPlaylists = append(records[i].AssignedPlaylists, playlist)
		}
	}
	if err := assignments.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ledger assignments: %w", err)
	}

	return records, nil
}

// Save replaces the entire persisted record set in one transaction.
func (s *SQLiteStore) Save(records []Entry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin ledger transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM ledger_assignments"); err != nil {
		return fmt.Errorf("failed to clear ledger assignments: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM ledger_entries"); err != nil {
		return fmt.Errorf("failed to clear ledger entries: %w", err)
	}

	insertEntry, err := tx.Prepare(`
		INSERT INTO ledger_entries (
			source_track_id, source_name, source_artist, source_album,
			candidate_track_id, candidate_name, candidate_artist, candidate_album,
			total_similarity, name_similarity, artist_similarity, album_similarity
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare entry insert: %w", err)
	}
	defer insertEntry.Close()

	insertAssignment, err := tx.Prepare(`
		INSERT INTO ledger_assignments (source_track_id, playlist) VALUES (?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare assignment insert: %w", err)
	}
	defer insertAssignment.Close()

	for _, e := range records {
		if _, err := insertEntry.Exec(
			e.SourceTrackID, e.SourceName, e.SourceArtist, e.SourceAlbum,
			e.CandidateTrackID, e.CandidateName, e.CandidateArtist, e.CandidateAlbum,
			e.TotalSimilarity, e.NameSimilarity, e.ArtistSimilarity, e.AlbumSimilarity,
		); err != nil {
			return fmt.Errorf("failed to insert ledger entry %s: %w", e.SourceTrackID, err)
		}
		for _, playlist := range e.AssignedPlaylists {
			if _, err := insertAssignment.Exec(e.SourceTrackID, playlist); err != nil {
				return fmt.Errorf("failed to insert assignment for %s: %w", e.SourceTrackID, err)
			}
		}
	}

	return tx.Commit()
}
