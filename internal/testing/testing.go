// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"applesync/internal/models"
)

// MockService is a configurable test double for [services.Service]. Every
// hook is optional; the zero value answers every call with empty success.
type MockService struct {
	AuthenticateFunc     func(ctx context.Context, credentials map[string]string) error
	SearchFunc           func(ctx context.Context, query string, limit int) ([]models.Song, error)
	GetPlaylistsFunc     func(ctx context.Context) ([]models.Playlist, error)
	CreatePlaylistFunc   func(ctx context.Context, name string) (*models.Playlist, error)
	PlaylistTrackIDsFunc func(ctx context.Context, playlistID string) (map[string]bool, error)
	AddTracksFunc        func(ctx context.Context, playlistID string, trackIDs []string) error

	SearchQueries []string   // queries seen by Search, in order
	Added         [][]string // batches seen by AddTracks, in order
}

func (m *MockService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(ctx, credentials)
	}
	return nil
}

func (m *MockService) Search(ctx context.Context, query string, limit int) ([]models.Song, error) {
	m.SearchQueries = append(m.SearchQueries, query)
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query, limit)
	}
	return nil, nil
}

func (m *MockService) GetPlaylists(ctx context.Context) ([]models.Playlist, error) {
	if m.GetPlaylistsFunc != nil {
		return m.GetPlaylistsFunc(ctx)
	}
	return []models.Playlist{}, nil
}

func (m *MockService) CreatePlaylist(ctx context.Context, name string) (*models.Playlist, error) {
	if m.CreatePlaylistFunc != nil {
		return m.CreatePlaylistFunc(ctx, name)
	}
	return &models.Playlist{ID: "mock-" + name, Name: name}, nil
}

func (m *MockService) PlaylistTrackIDs(ctx context.Context, playlistID string) (map[string]bool, error) {
	if m.PlaylistTrackIDsFunc != nil {
		return m.PlaylistTrackIDsFunc(ctx, playlistID)
	}
	return map[string]bool{}, nil
}

func (m *MockService) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	m.Added = append(m.Added, trackIDs)
	if m.AddTracksFunc != nil {
		return m.AddTracksFunc(ctx, playlistID, trackIDs)
	}
	return nil
}

func (m *MockService) Name() string { return "mock" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// Candidate builds a catalogue song with a deterministic track id.
func Candidate(name, artist, album string) models.Song {
	return models.Song{
		Name:    name,
		Artist:  artist,
		Album:   album,
		TrackID: fmt.Sprintf("cand-%s-%s", artist, name),
	}
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
