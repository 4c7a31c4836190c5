// Spotify API implementation of [Service]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2"

	"applesync/internal/models"
	"applesync/internal/shared"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Country     string `json:"country"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Artists []SpotifyArtist `json:"artists"`
	Album   SpotifyAlbum    `json:"album"`
	URI     string          `json:"uri"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ReleaseDate string `json:"release_date"`
	URI         string `json:"uri"`
}

// SpotifySearchResponse represents the tracks portion of a search response.
type SpotifySearchResponse struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
		Total int            `json:"total"`
	} `json:"tracks"`
}

// SpotifyPlaylist represents a Spotify playlist.
type SpotifyPlaylist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
	Tracks      struct {
		Total int `json:"total"`
	} `json:"tracks"`
	URI string `json:"uri"`
}

// SpotifyPaginatedPlaylists represents a paginated response of playlists.
type SpotifyPaginatedPlaylists struct {
	Items  []SpotifyPlaylist `json:"items"`
	Total  int               `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
	Next   *string           `json:"next"`
}

// spotifyPlaylistItems is the paginated /playlists/{id}/tracks response,
// narrowed to track ids.
type spotifyPlaylistItems struct {
	Items []struct {
		Track *struct {
			ID string `json:"id"`
		} `json:"track"`
	} `json:"items"`
	Next *string `json:"next"`
}

// SpotifyService implements the Service interface for Spotify API interactions.
// Uses [oauth2] for authentication; every request runs under the injected
// retry policy so transient failures (timeouts, 429s) degrade to "no result"
// instead of sinking a sync run.
type SpotifyService struct {
	config     *oauth2.Config
	token      *oauth2.Token
	httpClient *http.Client
	retry      shared.Policy
	baseURL    string
	userID     string
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://localhost:8080/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"playlist-read-private",
			"playlist-modify-private",
			"playlist-modify-public",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		httpClient: http.DefaultClient,
		retry:      shared.DefaultPolicy(),
		baseURL:    spotifyBaseURL,
	}, nil
}

// SetRetryPolicy overrides the default retry policy.
func (s *SpotifyService) SetRetryPolicy(p shared.Policy) { s.retry = p }

// SetBaseURL overrides the API base URL. Used by tests.
func (s *SpotifyService) SetBaseURL(u string) { s.baseURL = u }

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// OAuthConfig exposes the underlying OAuth2 config for the auth flow.
func (s *SpotifyService) OAuthConfig() *oauth2.Config { return s.config }

// AuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) AuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Authenticate establishes a token. Accepts "access_token", "auth_code", or
// "token_path" pointing to a previously saved token file.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		s.UseToken(ctx, &oauth2.Token{AccessToken: accessToken})
		return nil
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.config.Exchange(ctx, authCode)
		if err != nil {
			return fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
		}
		s.UseToken(ctx, token)
		return nil
	}

	if tokenPath, ok := credentials["token_path"]; ok && tokenPath != "" {
		token, err := LoadToken(tokenPath)
		if err != nil {
			return err
		}
		s.UseToken(ctx, token)
		return nil
	}

	return fmt.Errorf("%w: missing access_token, auth_code or token_path", shared.ErrMissingCredentials)
}

// UseToken installs a token and an auto-refreshing HTTP client for it.
func (s *SpotifyService) UseToken(ctx context.Context, token *oauth2.Token) {
	s.token = token
	s.httpClient = s.config.Client(ctx, token)
}

// LoadToken reads a persisted OAuth2 token from disk.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read token file: %v", shared.ErrNotAuthenticated, err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("%w: failed to parse token file: %v", shared.ErrNotAuthenticated, err)
	}
	return &token, nil
}

// SaveToken persists an OAuth2 token to disk with restricted permissions.
func SaveToken(path string, token *oauth2.Token) error {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// classifyStatus maps an HTTP status to the shared error taxonomy so the
// retry policy can decide what is worth another attempt.
func classifyStatus(status int) error {
	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: spotify API status %d", shared.ErrRateLimited, status)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: spotify API status %d", shared.ErrAuthFailed, status)
	case status == http.StatusBadRequest:
		return fmt.Errorf("%w: spotify API status %d", shared.ErrBadRequest, status)
	case status >= 500:
		return fmt.Errorf("%w: spotify API status %d", shared.ErrServiceUnavailable, status)
	default:
		return fmt.Errorf("%w: spotify API status %d", shared.ErrAPIRequest, status)
	}
}

// doRequest performs one authenticated HTTP request to the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body any, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	var reqBody *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return fmt.Errorf("%w: %v", shared.ErrTimeout, err)
		}
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classifyStatus(resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// doWithRetry runs doRequest under the retry policy.
func (s *SpotifyService) doWithRetry(ctx context.Context, method, endpoint string, body any, result any) error {
	return s.retry.Do(ctx, func() error {
		return s.doRequest(ctx, method, endpoint, body, result)
	})
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doWithRetry(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CurrentUserID returns the authenticated user's id, cached after the first
// lookup.
func (s *SpotifyService) CurrentUserID(ctx context.Context) (string, error) {
	if s.userID != "" {
		return s.userID, nil
	}
	user, err := s.UserProfile(ctx)
	if err != nil {
		return "", err
	}
	s.userID = user.ID
	return s.userID, nil
}

// Search looks up catalogue tracks for a free-text query.
//
// Transient failures are retried by the policy; on exhaustion the search
// degrades to an empty result rather than failing the caller, per the
// resolver contract. Permanent failures surface unchanged.
func (s *SpotifyService) Search(ctx context.Context, query string, limit int) ([]models.Song, error) {
	if limit <= 0 {
		limit = 15
	}
	if limit > 50 {
		limit = 50
	}

	endpoint := fmt.Sprintf("/search?q=%s&type=track&limit=%d", url.QueryEscape(query), limit)

	var response SpotifySearchResponse
	if err := s.doWithRetry(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		if errors.Is(err, shared.ErrRetriesExhausted) {
			return nil, nil
		}
		return nil, err
	}

	songs := make([]models.Song, 0, len(response.Tracks.Items))
	for _, item := range response.Tracks.Items {
		songs = append(songs, trackToSong(item))
	}
	return songs, nil
}

// trackToSong flattens a Spotify track into a Song identity. All artist
// names are joined with a space, matching how source metadata lists
// collaborations.
func trackToSong(track SpotifyTrack) models.Song {
	names := make([]string, 0, len(track.Artists))
	for _, artist := range track.Artists {
		names = append(names, artist.Name)
	}
	return models.Song{
		Name:    track.Name,
		Artist:  strings.TrimSpace(strings.Join(names, " ")),
		Album:   track.Album.Name,
		TrackID: track.ID,
	}
}

// GetPlaylists retrieves all playlists for the authenticated user.
func (s *SpotifyService) GetPlaylists(ctx context.Context) ([]models.Playlist, error) {
	var all []models.Playlist
	limit := 50
	offset := 0

	for {
		endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", limit, offset)

		var response SpotifyPaginatedPlaylists
		if err := s.doWithRetry(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
			return nil, err
		}

		for _, sp := range response.Items {
			all = append(all, models.Playlist{
				ID:          sp.ID,
				Name:        sp.Name,
				Description: sp.Description,
				TrackCount:  sp.Tracks.Total,
				Public:      sp.Public,
			})
		}

		if response.Next == nil || len(response.Items) == 0 {
			break
		}
		offset += limit
	}

	return all, nil
}

// CreatePlaylist creates a private playlist for the current user.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, name string) (*models.Playlist, error) {
	userID, err := s.CurrentUserID(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]any{"name": name, "public": false}
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(userID))

	var created SpotifyPlaylist
	if err := s.doWithRetry(ctx, http.MethodPost, endpoint, body, &created); err != nil {
		return nil, err
	}

	return &models.Playlist{
		ID:          created.ID,
		Name:        created.Name,
		Description: created.Description,
		TrackCount:  created.Tracks.Total,
		Public:      created.Public,
	}, nil
}

// PlaylistTrackIDs returns the set of track ids currently in the playlist,
// following pagination to the end.
func (s *SpotifyService) PlaylistTrackIDs(ctx context.Context, playlistID string) (map[string]bool, error) {
	ids := make(map[string]bool)
	offset := 0
	limit := 100

	for {
		endpoint := fmt.Sprintf("/playlists/%s/tracks?fields=items.track.id,next&limit=%d&offset=%d",
			url.PathEscape(playlistID), limit, offset)

		var response spotifyPlaylistItems
		if err := s.doWithRetry(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
			return nil, err
		}
		if len(response.Items) == 0 {
			break
		}

		for _, item := range response.Items {
			// Local files and removed tracks come back with a null track
			if item.Track != nil && item.Track.ID != "" {
				ids[item.Track.ID] = true
			}
		}

		offset += len(response.Items)
		if response.Next == nil {
			break
		}
	}

	return ids, nil
}

// AddTracks appends a batch of track ids to the playlist. Batches are capped
// at 100 ids by the Spotify API; larger inputs are rejected rather than
// silently split so the engine keeps control over batch boundaries.
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	if len(trackIDs) == 0 {
		return nil
	}
	if len(trackIDs) > 100 {
		return fmt.Errorf("%w: at most 100 track ids per request, got %d", shared.ErrInvalidArgument, len(trackIDs))
	}

	uris := make([]string, 0, len(trackIDs))
	for _, id := range trackIDs {
		uris = append(uris, "spotify:track:"+id)
	}

	body := map[string]any{"uris": uris}
	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	return s.doWithRetry(ctx, http.MethodPost, endpoint, body, nil)
}
