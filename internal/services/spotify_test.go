package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"applesync/internal/shared"
)

func newTestService(t *testing.T, handler http.Handler) (*SpotifyService, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	service, err := NewSpotifyService(map[string]string{
		"client_id":     "test-client",
		"client_secret": "test-secret",
	})
	if err != nil {
		t.Fatalf("NewSpotifyService() error = %v", err)
	}

	service.SetBaseURL(server.URL)
	service.SetRetryPolicy(shared.Policy{
		MaxAttempts: 3,
		Backoff:     func(int) time.Duration { return 0 },
		Retryable:   shared.IsTransient,
	})
	service.token = &oauth2.Token{AccessToken: "test-token"}

	return service, server
}

func TestNewSpotifyServiceMissingCredentials(t *testing.T) {
	tc := []struct {
		name        string
		credentials map[string]string
	}{
		{"no client id", map[string]string{"client_secret": "s"}},
		{"no client secret", map[string]string{"client_id": "c"}},
		{"empty values", map[string]string{"client_id": "", "client_secret": ""}},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSpotifyService(tt.credentials)
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("NewSpotifyService() error = %v, want ErrMissingCredentials", err)
			}
		})
	}
}

func TestSearchParsesTracks(t *testing.T) {
	var gotQuery, gotLimit string
	service, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotLimit = r.URL.Query().Get("limit")

		fmt.Fprint(w, `{
			"tracks": {
				"items": [
					{
						"id": "sp-1",
						"name": "California Love",
						"artists": [{"name": "2Pac"}, {"name": "Dr. Dre"}],
						"album": {"name": "All Eyez On Me"}
					}
				],
				"total": 1
			}
		}`)
	}))

	songs, err := service.Search(context.Background(), "California Love 2Pac", 15)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if gotQuery != "California Love 2Pac" {
		t.Errorf("query = %q, want the raw search text", gotQuery)
	}
	if gotLimit != "15" {
		t.Errorf("limit = %q, want 15", gotLimit)
	}
	if len(songs) != 1 {
		t.Fatalf("Search() = %d songs, want 1", len(songs))
	}

	song := songs[0]
	if song.TrackID != "sp-1" {
		t.Errorf("TrackID = %q, want sp-1", song.TrackID)
	}
	if song.Artist != "2Pac Dr. Dre" {
		t.Errorf("Artist = %q, want joined artist names", song.Artist)
	}
	if song.Album != "All Eyez On Me" {
		t.Errorf("Album = %q, want %q", song.Album, "All Eyez On Me")
	}
}

func TestSearchClampsLimit(t *testing.T) {
	var limits []string
	service, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limits = append(limits, r.URL.Query().Get("limit"))
		fmt.Fprint(w, `{"tracks": {"items": []}}`)
	}))

	if _, err := service.Search(context.Background(), "a", 0); err != nil {
		t.Fatal(err)
	}
	if _, err := service.Search(context.Background(), "a", 500); err != nil {
		t.Fatal(err)
	}

	if limits[0] != "15" {
		t.Errorf("zero limit sent as %q, want default 15", limits[0])
	}
	if limits[1] != "50" {
		t.Errorf("oversized limit sent as %q, want cap 50", limits[1])
	}
}

func TestSearchRetriesRateLimit(t *testing.T) {
	calls := 0
	service, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"tracks": {"items": [{"id": "sp-1", "name": "Track", "artists": [{"name": "Artist"}], "album": {"name": ""}}]}}`)
	}))

	songs, err := service.Search(context.Background(), "Track Artist", 15)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if calls != 2 {
		t.Errorf("server saw %d requests, want 2 (retry after 429)", calls)
	}
	if len(songs) != 1 {
		t.Errorf("Search() = %d songs, want 1", len(songs))
	}
}

func TestSearchExhaustionDegradesToEmpty(t *testing.T) {
	calls := 0
	service, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	songs, err := service.Search(context.Background(), "Track", 15)
	if err != nil {
		t.Errorf("Search() error = %v, want nil after exhaustion", err)
	}
	if songs != nil {
		t.Errorf("Search() = %v, want nil", songs)
	}
	if calls != 3 {
		t.Errorf("server saw %d requests, want the full 3 attempts", calls)
	}
}

func TestSearchAuthFailureIsNotRetried(t *testing.T) {
	calls := 0
	service, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := service.Search(context.Background(), "Track", 15)
	if !errors.Is(err, shared.ErrAuthFailed) {
		t.Errorf("Search() error = %v, want ErrAuthFailed", err)
	}
	if calls != 1 {
		t.Errorf("server saw %d requests, want 1", calls)
	}
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	service, err := NewSpotifyService(map[string]string{
		"client_id":     "test-client",
		"client_secret": "test-secret",
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = service.Search(context.Background(), "Track", 15)
	if !errors.Is(err, shared.ErrNotAuthenticated) {
		t.Errorf("Search() error = %v, want ErrNotAuthenticated", err)
	}
}

func TestGetPlaylistsPagination(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/me/playlists", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("offset") == "0" {
			json.NewEncoder(w).Encode(map[string]any{
				"items": []map[string]any{{"id": "p1", "name": "Workout"}},
				"next":  "has-more",
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{{"id": "p2", "name": "Focus"}},
			"next":  nil,
		})
	})
	service, _ := newTestService(t, mux)

	playlists, err := service.GetPlaylists(context.Background())
	if err != nil {
		t.Fatalf("GetPlaylists() error = %v", err)
	}
	if len(playlists) != 2 {
		t.Fatalf("GetPlaylists() = %d playlists, want 2", len(playlists))
	}
	if playlists[0].Name != "Workout" || playlists[1].Name != "Focus" {
		t.Errorf("playlists = [%s %s], want [Workout Focus]", playlists[0].Name, playlists[1].Name)
	}
}

func TestCreatePlaylistUsesCachedUser(t *testing.T) {
	meCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		meCalls++
		fmt.Fprint(w, `{"id": "user-1", "display_name": "Tester"}`)
	})
	mux.HandleFunc("/users/user-1/playlists", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["public"] != false {
			t.Errorf("create body public = %v, want false", body["public"])
		}
		fmt.Fprintf(w, `{"id": "pl-new", "name": %q}`, body["name"])
	})

	service, _ := newTestService(t, mux)

	for _, name := range []string{"Workout", "Focus"} {
		playlist, err := service.CreatePlaylist(context.Background(), name)
		if err != nil {
			t.Fatalf("CreatePlaylist(%q) error = %v", name, err)
		}
		if playlist.ID != "pl-new" || playlist.Name != name {
			t.Errorf("CreatePlaylist(%q) = %+v", name, playlist)
		}
	}

	if meCalls != 1 {
		t.Errorf("/me called %d times, want 1 (cached user id)", meCalls)
	}
}

func TestPlaylistTrackIDsSkipsNullTracks(t *testing.T) {
	service, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"items": [
				{"track": {"id": "sp-1"}},
				{"track": null},
				{"track": {"id": "sp-2"}}
			],
			"next": null
		}`)
	}))

	ids, err := service.PlaylistTrackIDs(context.Background(), "pl-1")
	if err != nil {
		t.Fatalf("PlaylistTrackIDs() error = %v", err)
	}
	if len(ids) != 2 || !ids["sp-1"] || !ids["sp-2"] {
		t.Errorf("PlaylistTrackIDs() = %v, want sp-1 and sp-2", ids)
	}
}

func TestAddTracks(t *testing.T) {
	var gotURIs []string
	service, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			URIs []string `json:"uris"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		gotURIs = body.URIs
		w.WriteHeader(http.StatusCreated)
	}))

	if err := service.AddTracks(context.Background(), "pl-1", []string{"sp-1", "sp-2"}); err != nil {
		t.Fatalf("AddTracks() error = %v", err)
	}
	if len(gotURIs) != 2 || gotURIs[0] != "spotify:track:sp-1" {
		t.Errorf("uris = %v, want spotify:track prefixed ids", gotURIs)
	}
}

func TestAddTracksRejectsOversizedBatch(t *testing.T) {
	service, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("server should not be called for an oversized batch")
	}))

	ids := make([]string, 101)
	for i := range ids {
		ids[i] = fmt.Sprintf("sp-%d", i)
	}

	err := service.AddTracks(context.Background(), "pl-1", ids)
	if !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("AddTracks() error = %v, want ErrInvalidArgument", err)
	}
}

func TestAddTracksEmptyIsNoOp(t *testing.T) {
	service, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("server should not be called for an empty batch")
	}))

	if err := service.AddTracks(context.Background(), "pl-1", nil); err != nil {
		t.Errorf("AddTracks() error = %v, want nil", err)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth", "token.json")
	token := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(time.Hour).Truncate(time.Second),
	}

	if err := SaveToken(path, token); err != nil {
		t.Fatalf("SaveToken() error = %v", err)
	}

	loaded, err := LoadToken(path)
	if err != nil {
		t.Fatalf("LoadToken() error = %v", err)
	}
	if loaded.AccessToken != token.AccessToken || loaded.RefreshToken != token.RefreshToken {
		t.Errorf("loaded token = %+v, want %+v", loaded, token)
	}
}

func TestLoadTokenMissingFile(t *testing.T) {
	_, err := LoadToken(filepath.Join(t.TempDir(), "token.json"))
	if !errors.Is(err, shared.ErrNotAuthenticated) {
		t.Errorf("LoadToken() error = %v, want ErrNotAuthenticated", err)
	}
}
