// package formatter renders match reports to various formats (CSV, Markdown, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"applesync/internal/ledger"
	"applesync/internal/shared"
)

// MatchReportToCSV converts ledger entries to CSV with one row per source
// track. Similarity columns are formatted with four decimal places.
func MatchReportToCSV(entries []ledger.Entry) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{
		"Source ID", "Source Name", "Source Artist", "Source Album",
		"Candidate ID", "Candidate Name", "Candidate Artist", "Candidate Album",
		"Similarity", "Playlists",
	}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, e := range entries {
		record := []string{
			e.SourceTrackID,
			e.SourceName,
			e.SourceArtist,
			e.SourceAlbum,
			e.CandidateTrackID,
			e.CandidateName,
			e.CandidateArtist,
			e.CandidateAlbum,
			strconv.FormatFloat(e.TotalSimilarity, 'f', 4, 64),
			strconv.Itoa(len(e.AssignedPlaylists)),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// MatchReportToMarkdown converts ledger entries to a Markdown document.
func MatchReportToMarkdown(name string, entries []ledger.Entry) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", name))
	buf.WriteString(fmt.Sprintf("**Matched tracks**: %d\n\n", len(entries)))

	if len(entries) == 0 {
		buf.WriteString("No matched tracks recorded for this playlist.\n")
		return buf.Bytes()
	}

	buf.WriteString("## Matches\n\n")
	for i, e := range entries {
		albumPart := ""
		if e.CandidateAlbum != "" {
			albumPart = fmt.Sprintf(" (%s)", e.CandidateAlbum)
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s [%.4f]\n",
			i+1, e.CandidateArtist, e.CandidateName, albumPart, e.TotalSimilarity))
	}

	return buf.Bytes()
}

// WriteMatchReportCSV writes a playlist's match report as CSV.
func WriteMatchReportCSV(name string, entries []ledger.Entry, path string) error {
	data, err := MatchReportToCSV(entries)
	if err != nil {
		return fmt.Errorf("failed to generate CSV for %q: %w", name, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write CSV file: %w", err)
	}
	return nil
}

// WriteMatchReportMarkdown writes a playlist's match report as Markdown.
func WriteMatchReportMarkdown(name string, entries []ledger.Entry, path string) error {
	if err := os.WriteFile(path, MatchReportToMarkdown(name, entries), 0644); err != nil {
		return fmt.Errorf("failed to write Markdown file: %w", err)
	}
	return nil
}

// WriteMatchReportJSON writes a playlist's match report as an indented JSON
// document with the playlist name and its entries.
func WriteMatchReportJSON(name string, entries []ledger.Entry, path string) error {
	if entries == nil {
		entries = []ledger.Entry{}
	}
	report := struct {
		Playlist string         `json:"playlist"`
		Entries  []ledger.Entry `json:"entries"`
	}{Playlist: name, Entries: entries}

	data, err := shared.MarshalJSON(report, true)
	if err != nil {
		return fmt.Errorf("failed to generate JSON for %q: %w", name, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}
	return nil
}

// WriteManifest writes any summary value as indented JSON.
func WriteManifest(v any, path string) error {
	data, err := shared.MarshalJSON(v, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
