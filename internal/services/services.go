// package services defines interface Service for interacting with the
// remote streaming catalogue.
package services

import (
	"context"

	"golang.org/x/oauth2"

	"applesync/internal/models"
)

// Service defines the narrow catalogue contract the sync engine consumes:
// fuzzy track search, playlist membership reads, and bounded playlist
// mutations.
//
// All methods are blocking; implementations wrap remote calls in a bounded
// retry policy and distinguish transient from permanent failures via the
// shared error taxonomy. Search degrades to an empty result on retry
// exhaustion; callers treat absence of a result as "not found".
type Service interface {
	// Authenticate establishes credentials with the service.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// Search looks up catalogue tracks for a free-text query, capped at
	// limit results.
	Search(ctx context.Context, query string, limit int) ([]models.Song, error)

	// GetPlaylists retrieves all playlists for the authenticated user.
	GetPlaylists(ctx context.Context) ([]models.Playlist, error)

	// CreatePlaylist creates a private playlist and returns it.
	CreatePlaylist(ctx context.Context, name string) (*models.Playlist, error)

	// PlaylistTrackIDs returns the set of track ids currently in the playlist.
	PlaylistTrackIDs(ctx context.Context, playlistID string) (map[string]bool, error)

	// AddTracks appends a bounded-size batch of track ids to the playlist.
	AddTracks(ctx context.Context, playlistID string, trackIDs []string) error

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// OAuthService is implemented by services that authenticate users through an
// OAuth2 authorization code flow.
type OAuthService interface {
	// AuthURL returns the authorization URL for the given CSRF state token.
	AuthURL(state string) string

	// OAuthConfig exposes the underlying OAuth2 config for the callback
	// exchange.
	OAuthConfig() *oauth2.Config
}
