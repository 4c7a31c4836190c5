// package library loads the prepared Apple Music playlist export.
//
// The export is produced upstream by the library exporter: a JSON object
// mapping playlist names to song lists. Parsing the raw Library.xml is out
// of scope here.
package library

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"applesync/internal/models"
)

// Library holds the playlists of a prepared Apple Music export.
type Library struct {
	Playlists map[string][]models.Song
}

// Load reads the prepared playlists JSON from path.
func Load(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read library export: %w", err)
	}

	var playlists map[string][]models.Song
	if err := json.Unmarshal(data, &playlists); err != nil {
		return nil, fmt.Errorf("failed to parse library export: %w", err)
	}

	return &Library{Playlists: playlists}, nil
}

// LoadExclusions reads a newline-separated list of playlist names to skip.
// A missing file means nothing is excluded.
func LoadExclusions(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read exclusion list: %w", err)
	}

	var names []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			names = append(names, line)
		}
	}
	return names, nil
}

// Get returns the songs of a playlist by name.
func (l *Library) Get(name string) ([]models.Song, bool) {
	songs, ok := l.Playlists[name]
	return songs, ok
}

// Names returns playlist names ordered smallest playlist first, excluding
// any name in exclude. Small playlists sync quickly and surface problems
// before the large ones start burning API quota.
func (l *Library) Names(exclude []string) []string {
	excluded := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		excluded[name] = true
	}

	names := make([]string, 0, len(l.Playlists))
	for name := range l.Playlists {
		if !excluded[name] {
			names = append(names, name)
		}
	}

	sort.Slice(names, func(i, j int) bool {
		a, b := len(l.Playlists[names[i]]), len(l.Playlists[names[j]])
		if a != b {
			return a < b
		}
		return names[i] < names[j]
	})
	return names
}
