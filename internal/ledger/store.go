package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"applesync/internal/shared"
)

// Store loads and persists the full ordered set of ledger records.
//
// The ledger is read once at the start of a run and rewritten wholesale at
// the end; there are no partial or append writes mid-run. A load or save
// failure is fatal for the run.
type Store interface {
	Load() ([]Entry, error)
	Save(records []Entry) error
}

// requiredFields are the record fields every persisted entry must carry.
// A record missing any of them means the file was written by an
// incompatible version and the run must stop before mutating remote state.
var requiredFields = []string{
	"source_track_id",
	"candidate_track_id",
	"total_similarity",
	"song_name_similarity",
	"artist_name_similarity",
	"album_name_similarity",
	"assigned_playlists",
}

// JSONStore persists the ledger as a single ordered JSON array of records.
type JSONStore struct {
	path string
}

// NewJSONStore creates a store backed by the JSON file at path.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Load reads all records. A missing file is an empty ledger, not an error.
func (s *JSONStore) Load() ([]Entry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read ledger file: %w", err)
	}

	var raw []map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: ledger file is not a record array: %v", shared.ErrSchemaMismatch, err)
	}

	for i, record := range raw {
		for _, field := range requiredFields {
			if _, ok := record[field]; !ok {
				return nil, fmt.Errorf("%w: record %d missing field %q", shared.ErrSchemaMismatch, i, field)
			}
		}
	}

	var records []Entry
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrSchemaMismatch, err)
	}
	return records, nil
}

// Save rewrites the ledger file with the given records, creating parent
// directories as needed. The write goes through a temp file and rename so a
// crash mid-save never leaves a truncated ledger behind.
func (s *JSONStore) Save(records []Entry) error {
	if records == nil {
		records = []Entry{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal ledger: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create ledger directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write ledger file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace ledger file: %w", err)
	}
	return nil
}
