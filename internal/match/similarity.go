// package match implements fuzzy song identity resolution against the
// remote catalogue: per-field string similarity, noisy-metadata query
// expansion, and best-across-attempts selection.
package match

import (
	"strings"

	"github.com/hbollon/go-edlib"

	"applesync/internal/models"
)

// Field weights for the aggregate score. Getting the song name right is
// slightly more important than artist or album.
const (
	nameWeight   = 0.4
	artistWeight = 0.3
	albumWeight  = 0.3

	// When the query has no album, the remaining weights collapse to the
	// same 4:3 name:artist ratio summing to 1.
	nameWeightNoAlbum   = 0.6
	artistWeightNoAlbum = 0.4
)

// cleanString lowercases and trims a string so that case and incidental
// whitespace never affect similarity.
func cleanString(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// fieldSimilarity measures the normalized similarity of two metadata fields
// in [0, 1]. Two empty fields are identical.
func fieldSimilarity(a, b string) float64 {
	a, b = cleanString(a), cleanString(b)
	if a == b {
		return 1
	}
	score, err := edlib.StringsSimilarity(a, b, edlib.JaroWinkler)
	if err != nil {
		return 0
	}
	return float64(score)
}

// Score compares a query song against a catalogue candidate and returns the
// per-field similarity vector with its weighted aggregate.
//
// When the query carries no album the album comparison is excluded entirely
// (AlbumScored false) rather than scored against the candidate's album.
func Score(query, candidate models.Song) models.Similarity {
	sim := models.Similarity{
		Name:   fieldSimilarity(query.Name, candidate.Name),
		Artist: fieldSimilarity(query.Artist, candidate.Artist),
	}

	if query.Album == "" {
		sim.Total = nameWeightNoAlbum*sim.Name + artistWeightNoAlbum*sim.Artist
		return sim
	}

	sim.AlbumScored = true
	sim.Album = fieldSimilarity(query.Album, candidate.Album)
	sim.Total = nameWeight*sim.Name + artistWeight*sim.Artist + albumWeight*sim.Album
	return sim
}
