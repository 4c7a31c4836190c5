package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"applesync/internal/formatter"
	"applesync/internal/ledger"
	"applesync/internal/shared"
)

// ReportOpts contains configuration for match report exports.
type ReportOpts struct {
	Format     string // Report format: json, csv, markdown
	OutputDir  string // Base output directory (default: match_report_{epoch})
	NumWorkers int    // Concurrent workers (default: 4)
}

// PlaylistReportResult describes the outcome of exporting one playlist's
// report.
type PlaylistReportResult struct {
	PlaylistName string `json:"playlist_name"`
	File         string `json:"file,omitempty"`
	Entries      int    `json:"entries"`
	Success      bool   `json:"success"`
	Error        error  `json:"-"`
	ErrorMessage string `json:"error,omitempty"`
}

// ReportResult summarizes a full report export run.
type ReportResult struct {
	TotalPlaylists    int                    `json:"total_playlists"`
	SuccessfulReports int                    `json:"successful_reports"`
	FailedReports     int                    `json:"failed_reports"`
	OutputDirectory   string                 `json:"output_directory"`
	ManifestPath      string                 `json:"manifest_path,omitempty"`
	Results           []PlaylistReportResult `json:"results"`
}

type reportJob struct {
	name    string
	entries []ledger.Entry
}

// ExportReports writes one match report per playlist name, drawn from the
// engine's ledger, using a bounded worker pool. Reports are pure local IO;
// no catalogue requests are made.
//
// Playlists with no ledger assignments still produce an (empty) report, so
// the output directory always mirrors the requested name list.
func (e *PlaylistEngine) ExportReports(ctx context.Context, progress chan<- ProgressUpdate, names []string, opts ReportOpts) (*ReportResult, error) {
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("match_report_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 8 {
		opts.NumWorkers = 8
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &ReportResult{
		TotalPlaylists:  len(names),
		OutputDirectory: opts.OutputDir,
		Results:         make([]PlaylistReportResult, 0, len(names)),
	}

	jobs := make(chan reportJob, len(names))
	results := make(chan PlaylistReportResult, len(names))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.reportWorker(ctx, &wg, jobs, results, opts)
	}

	for i, name := range names {
		e.sendProgress(progress, exportingReportUpdate(i+1, len(names), name))
		jobs <- reportJob{name: name, entries: e.ledger.ByPlaylist(name)}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulReports++
			e.sendProgress(progress, reportCompletedUpdate(completed, len(names), res.PlaylistName, res.File))
		} else {
			result.FailedReports++
			e.sendProgress(progress, reportFailedUpdate(completed, len(names), res.PlaylistName, res.Error))
		}
	}

	manifestPath := filepath.Join(opts.OutputDir, "report_manifest.json")
	if err := formatter.WriteManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("reports written but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// reportWorker is a worker goroutine that writes reports from the jobs channel.
func (e *PlaylistEngine) reportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan reportJob,
	results chan<- PlaylistReportResult,
	opts ReportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		results <- e.writeSingleReport(job, opts)
	}
}

// writeSingleReport writes one playlist's report in the requested format.
func (e *PlaylistEngine) writeSingleReport(job reportJob, opts ReportOpts) PlaylistReportResult {
	result := PlaylistReportResult{
		PlaylistName: job.name,
		Entries:      len(job.entries),
	}

	base := filepath.Join(opts.OutputDir, shared.Slugify(job.name))

	var path string
	var err error
	switch opts.Format {
	case "csv":
		path = base + ".csv"
		err = formatter.WriteMatchReportCSV(job.name, job.entries, path)
	case "markdown":
		path = base + ".md"
		err = formatter.WriteMatchReportMarkdown(job.name, job.entries, path)
	case "json":
		fallthrough
	default:
		path = base + ".json"
		err = formatter.WriteMatchReportJSON(job.name, job.entries, path)
	}

	if err != nil {
		result.Error = err
		result.ErrorMessage = err.Error()
		return result
	}
	result.File = path
	result.Success = true
	return result
}
