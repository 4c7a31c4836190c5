// Package models defines the domain entities shared by the matching and
// syncing layers.
//
// The package contains two categories of types:
//
// 1. Identity and matching values:
//   - [Song] : A track identified by its textual metadata; used both as a
//     search query and as a catalogue search result
//   - [Similarity] : Per-field and aggregate string-similarity scores
//   - [SongMatch] : The outcome of resolving one source song against the
//     remote catalogue
//
// 2. Remote catalogue DTOs:
//   - [Playlist] : Basic playlist metadata from the streaming service
//
// Song, Similarity and SongMatch are value types; they are never modified
// after construction.
package models
