package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"applesync/internal/tasks"
)

// Report exports per-playlist match reports from the ledger. Reports are
// local-only; no Spotify credentials are needed.
func (r *Runner) Report(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	outputDir := cmd.String("output")
	workers := cmd.Int("workers")

	lib, exclude, err := r.loadLibrary()
	if err != nil {
		return err
	}
	names := lib.Names(exclude)

	ldg, err := r.loadLedger()
	if err != nil {
		return err
	}

	store, err := r.openStore()
	if err != nil {
		return err
	}

	// Reports never touch the catalogue, so a resolver-less engine over the
	// loaded ledger is enough.
	engine := tasks.NewPlaylistEngine(nil, nil, ldg, store, r.config.Sync)

	result, err := engine.ExportReports(ctx, nil, names, tasks.ReportOpts{
		Format:     format,
		OutputDir:  outputDir,
		NumWorkers: int(workers),
	})
	if err != nil {
		return err
	}

	r.writePlain("✓ Wrote %d of %d reports to %s\n", result.SuccessfulReports, result.TotalPlaylists, result.OutputDirectory)
	for _, res := range result.Results {
		if !res.Success {
			r.writePlain("  ✗ %s: %s\n", res.PlaylistName, res.ErrorMessage)
		}
	}
	if result.ManifestPath != "" {
		r.writePlain("Manifest: %s\n", result.ManifestPath)
	}

	return nil
}
