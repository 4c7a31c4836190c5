package match

import (
	"context"

	"applesync/internal/models"
	"applesync/internal/shared"
)

// DefaultSearchLimit caps the number of candidates requested per catalogue
// search attempt.
const DefaultSearchLimit = 15

// Searcher is the catalogue search capability the resolver depends on.
//
// Implementations absorb transient failures behind a retry policy: on
// exhaustion they return an empty result set and no error. Errors that do
// come back are treated as permanent when [shared.IsPermanent] says so.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]models.Song, error)
}

// Resolver finds the best catalogue match for a source song by issuing one
// search per query variant and folding all results down to a single winner.
type Resolver struct {
	searcher Searcher
	limit    int
}

// NewResolver creates a Resolver with the given search capability and
// per-attempt result cap.
func NewResolver(searcher Searcher, limit int) *Resolver {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	return &Resolver{searcher: searcher, limit: limit}
}

// Resolve returns the best match for song across all query variants.
//
// The attempt list is the song itself, the song with its album cleared, and
// every expansion variant, in that order. Each attempt's candidates are
// scored against the attempt identity (not the original song); the best
// candidate per attempt is then reduced to a global best, ties broken by the
// earliest attempt. The returned match always reports the original song as
// its source, while the similarity stays bound to the winning
// attempt/candidate pair.
//
// A failed or empty search skips that attempt. Only permanent errors (auth,
// malformed request) abort resolution. When no attempt yields a candidate,
// the result is an empty-candidate match with a zero similarity vector.
func (r *Resolver) Resolve(ctx context.Context, song models.Song) (models.SongMatch, error) {
	attempts := make([]models.Song, 0, 2)
	attempts = append(attempts, song, song.WithoutAlbum())
	attempts = append(attempts, Expand(song)...)

	best := models.SongMatch{Source: song}
	found := false

	for _, attempt := range attempts {
		candidates, err := r.searcher.Search(ctx, attempt.Query(), r.limit)
		if err != nil {
			if shared.IsPermanent(err) || ctx.Err() != nil {
				return models.SongMatch{Source: song}, err
			}
			continue
		}
		if len(candidates) == 0 {
			continue
		}

		attemptBest := bestForAttempt(attempt, candidates)
		if !found || attemptBest.Similarity.Total > best.Similarity.Total {
			best = attemptBest
			found = true
		}
	}

	best.Source = song
	return best, nil
}

// bestForAttempt scores every candidate against the attempt identity and
// keeps the maximum, ties broken by first occurrence in the returned order.
func bestForAttempt(attempt models.Song, candidates []models.Song) models.SongMatch {
	bestIdx := 0
	var bestSim models.Similarity

	for i, candidate := range candidates {
		sim := Score(attempt, candidate)
		if i == 0 || sim.Total > bestSim.Total {
			bestIdx, bestSim = i, sim
		}
	}

	return models.SongMatch{
		Source:     attempt,
		Candidate:  candidates[bestIdx],
		Similarity: bestSim,
	}
}
