package match

import (
	"regexp"
	"strings"

	"applesync/internal/models"
)

var (
	// Matches the featured-artist marker and everything after it,
	// e.g. "All Eyez On Me (feat. Big Syke)" -> "All Eyez On Me".
	featSplit = regexp.MustCompile(`(?i)\s*\(?\b(?:feat|ft)\.`)
	// Matches just the marker token, keeping the collaborator name.
	featToken = regexp.MustCompile(`(?i)\b(?:feat|ft)\.\s*`)
	// Matches a parenthesized remaster annotation,
	// e.g. "Fight the Power (2014 Remastered Version)".
	remasterParen = regexp.MustCompile(`(?i)\s*\([^()]*remastered[^()]*\)`)
	// Matches a bare remaster marker outside parentheses,
	// e.g. "Song Remastered 1998" -> "Song 1998".
	remasterWord = regexp.MustCompile(`(?i)\s*\bremastered\b\s*`)
)

// Expand generates alternate query identities for a song whose metadata
// carries noise the catalogue search tends to choke on: featured-artist
// markers, remaster annotations, and multi-artist separators.
//
// Each rewrite is emitted in both album-present and album-cleared forms.
// The output is deterministic for identical input; duplicates are permitted
// and treated by the resolver as harmless extra attempts. The unchanged song
// and its album-cleared form are the caller's responsibility.
func Expand(song models.Song) []models.Song {
	var variants []models.Song
	emit := func(name, artist string) {
		name = strings.Join(strings.Fields(name), " ")
		artist = strings.Join(strings.Fields(artist), " ")
		variants = append(variants,
			models.Song{Name: name, Artist: artist, Album: song.Album, TrackID: song.TrackID},
			models.Song{Name: name, Artist: artist, TrackID: song.TrackID},
		)
	}

	lowerName := strings.ToLower(song.Name)

	// Sometimes there is no match if the song name includes "feat." or "ft."
	if strings.Contains(lowerName, "feat.") || strings.Contains(lowerName, "ft.") {
		emit(featToken.ReplaceAllString(song.Name, ""), song.Artist)
		emit(featSplit.Split(song.Name, 2)[0], song.Artist)
	}

	// Sometimes there is no match if the song name includes "remastered"
	if strings.Contains(lowerName, "remastered") {
		name := remasterParen.ReplaceAllString(song.Name, " ")
		name = remasterWord.ReplaceAllString(name, " ")
		emit(name, song.Artist)
	}

	// Sometimes there is no match if the artist is a collaboration joined
	// with "&", like "Brian Eno & John Cale"
	if idx := strings.Index(song.Artist, "&"); idx >= 0 {
		emit(song.Name, song.Artist[:idx])
		emit(song.Name, strings.ReplaceAll(song.Artist, " & ", ", "))
	}

	return variants
}
