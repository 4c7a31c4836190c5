package match

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"applesync/internal/models"
	"applesync/internal/shared"
)

// stubSearcher answers queries from a fixed map and records every query it
// receives. Unknown queries return no candidates.
type stubSearcher struct {
	results map[string][]models.Song
	errs    map[string]error
	queries []string
}

func (s *stubSearcher) Search(ctx context.Context, query string, limit int) ([]models.Song, error) {
	s.queries = append(s.queries, query)
	if err, ok := s.errs[query]; ok {
		return nil, err
	}
	return s.results[query], nil
}

func TestResolveExactMatch(t *testing.T) {
	song := models.Song{Name: "California Love", Artist: "2Pac", Album: "All Eyez On Me", TrackID: "lib-1"}
	candidate := models.Song{Name: "California Love", Artist: "2Pac", Album: "All Eyez On Me", TrackID: "sp-1"}

	searcher := &stubSearcher{results: map[string][]models.Song{
		song.Query(): {candidate},
	}}
	resolver := NewResolver(searcher, 15)

	match, err := resolver.Resolve(context.Background(), song)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if match.Candidate.TrackID != "sp-1" {
		t.Errorf("Candidate.TrackID = %q, want %q", match.Candidate.TrackID, "sp-1")
	}
	if match.Similarity.Total < 0.999 {
		t.Errorf("Similarity.Total = %v, want 1.0", match.Similarity.Total)
	}
	if match.Source != song {
		t.Errorf("Source = %v, want the original song", match.Source)
	}
}

func TestResolveFeaturedArtistVariant(t *testing.T) {
	// The catalogue only knows the track without the collaborator suffix.
	// The expanded variant must find it and clear the acceptance threshold.
	song := models.Song{
		Name:    "All Eyez On Me (feat. Big Syke)",
		Artist:  "2Pac",
		Album:   "All Eyez On Me",
		TrackID: "lib-2",
	}
	candidate := models.Song{Name: "All Eyez On Me", Artist: "2Pac", Album: "All Eyez On Me", TrackID: "sp-2"}

	variant := models.Song{Name: "All Eyez On Me", Artist: "2Pac", Album: "All Eyez On Me"}
	searcher := &stubSearcher{results: map[string][]models.Song{
		variant.Query(): {candidate},
	}}
	resolver := NewResolver(searcher, 15)

	match, err := resolver.Resolve(context.Background(), song)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if !match.Found() {
		t.Fatal("Found() = false, want a match via the expanded variant")
	}
	if match.Candidate.TrackID != "sp-2" {
		t.Errorf("Candidate.TrackID = %q, want %q", match.Candidate.TrackID, "sp-2")
	}
	if match.Similarity.Total < 0.86 {
		t.Errorf("Similarity.Total = %v, want >= 0.86", match.Similarity.Total)
	}
	if match.Source != song {
		t.Errorf("Source = %v, want the original unmodified song", match.Source)
	}
}

func TestResolveKeepsBestAcrossAttempts(t *testing.T) {
	song := models.Song{Name: "Track", Artist: "Artist", Album: "Album", TrackID: "lib-3"}

	poor := models.Song{Name: "zzzz", Artist: "yyyy", Album: "xxxx", TrackID: "sp-poor"}
	exact := models.Song{Name: "Track", Artist: "Artist", TrackID: "sp-exact"}

	searcher := &stubSearcher{results: map[string][]models.Song{
		song.Query():                {poor},
		song.WithoutAlbum().Query(): {exact},
	}}
	resolver := NewResolver(searcher, 15)

	match, err := resolver.Resolve(context.Background(), song)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if match.Candidate.TrackID != "sp-exact" {
		t.Errorf("Candidate.TrackID = %q, want the later attempt's exact match", match.Candidate.TrackID)
	}
}

func TestResolveEarliestAttemptWinsTies(t *testing.T) {
	song := models.Song{Name: "Track", Artist: "Artist", Album: "Album", TrackID: "lib-4"}

	first := models.Song{Name: "Track", Artist: "Artist", Album: "Album", TrackID: "sp-first"}
	second := models.Song{Name: "Track", Artist: "Artist", TrackID: "sp-second"}

	// Both attempts produce a perfect 1.0; the first attempt must win.
	searcher := &stubSearcher{results: map[string][]models.Song{
		song.Query():                {first},
		song.WithoutAlbum().Query(): {second},
	}}
	resolver := NewResolver(searcher, 15)

	match, err := resolver.Resolve(context.Background(), song)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if match.Candidate.TrackID != "sp-first" {
		t.Errorf("Candidate.TrackID = %q, want %q on tie", match.Candidate.TrackID, "sp-first")
	}
}

func TestResolveFirstCandidateWinsWithinAttempt(t *testing.T) {
	song := models.Song{Name: "Track", Artist: "Artist", Album: "Album"}

	a := models.Song{Name: "Track", Artist: "Artist", Album: "Album", TrackID: "sp-a"}
	b := models.Song{Name: "Track", Artist: "Artist", Album: "Album", TrackID: "sp-b"}

	searcher := &stubSearcher{results: map[string][]models.Song{
		song.Query(): {a, b},
	}}
	resolver := NewResolver(searcher, 15)

	match, _ := resolver.Resolve(context.Background(), song)
	if match.Candidate.TrackID != "sp-a" {
		t.Errorf("Candidate.TrackID = %q, want the earlier candidate on tie", match.Candidate.TrackID)
	}
}

func TestResolveNoCandidates(t *testing.T) {
	song := models.Song{Name: "Obscure B-Side", Artist: "Nobody", Album: "Lost Tapes", TrackID: "lib-5"}

	searcher := &stubSearcher{}
	resolver := NewResolver(searcher, 15)

	match, err := resolver.Resolve(context.Background(), song)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if match.Found() {
		t.Error("Found() = true, want false with no candidates")
	}
	if match.Source != song {
		t.Errorf("Source = %v, want the original song", match.Source)
	}
	if match.Similarity.Total != 0 {
		t.Errorf("Similarity.Total = %v, want 0", match.Similarity.Total)
	}
}

func TestResolveSkipsFailedAttempts(t *testing.T) {
	song := models.Song{Name: "Track", Artist: "Artist", Album: "Album", TrackID: "lib-6"}
	candidate := models.Song{Name: "Track", Artist: "Artist", TrackID: "sp-6"}

	searcher := &stubSearcher{
		errs: map[string]error{
			song.Query(): fmt.Errorf("%w: transport closed", shared.ErrAPIRequest),
		},
		results: map[string][]models.Song{
			song.WithoutAlbum().Query(): {candidate},
		},
	}
	resolver := NewResolver(searcher, 15)

	match, err := resolver.Resolve(context.Background(), song)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if match.Candidate.TrackID != "sp-6" {
		t.Errorf("Candidate.TrackID = %q, want the later attempt to succeed", match.Candidate.TrackID)
	}
}

func TestResolvePermanentErrorAborts(t *testing.T) {
	song := models.Song{Name: "Track", Artist: "Artist", Album: "Album", TrackID: "lib-7"}

	searcher := &stubSearcher{
		errs: map[string]error{
			song.Query(): fmt.Errorf("%w: spotify API status 401", shared.ErrAuthFailed),
		},
	}
	resolver := NewResolver(searcher, 15)

	_, err := resolver.Resolve(context.Background(), song)
	if !errors.Is(err, shared.ErrAuthFailed) {
		t.Errorf("Resolve() error = %v, want ErrAuthFailed", err)
	}
	if len(searcher.queries) != 1 {
		t.Errorf("searcher saw %d queries after permanent failure, want 1", len(searcher.queries))
	}
}

func TestResolveAttemptOrder(t *testing.T) {
	song := models.Song{Name: "Track (feat. X)", Artist: "A & B", Album: "Album"}

	searcher := &stubSearcher{}
	resolver := NewResolver(searcher, 15)

	if _, err := resolver.Resolve(context.Background(), song); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if len(searcher.queries) < 2 {
		t.Fatalf("searcher saw %d queries, want at least 2", len(searcher.queries))
	}
	if searcher.queries[0] != song.Query() {
		t.Errorf("first query = %q, want the unmodified song", searcher.queries[0])
	}
	if searcher.queries[1] != song.WithoutAlbum().Query() {
		t.Errorf("second query = %q, want the album-cleared song", searcher.queries[1])
	}
}
