package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"applesync/internal/ledger"
	"applesync/internal/library"
	"applesync/internal/match"
	"applesync/internal/services"
	"applesync/internal/shared"
	"applesync/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config  *shared.Config
	spotify services.Service
	logger  *log.Logger
	output  io.Writer
	engine  *tasks.PlaylistEngine
	store   ledger.Store
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config  *shared.Config
	Spotify services.Service
	Logger  *log.Logger
	Output  io.Writer
	Store   ledger.Store
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:  opts.Config,
		spotify: opts.Spotify,
		logger:  opts.Logger,
		output:  opts.Output,
		store:   opts.Store,
	}
}

// SetLogger swaps the runner's logger, used when the TUI redirects logs to a file.
func (r *Runner) SetLogger(l *log.Logger) { r.logger = l }

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, libraryCommand, syncCommand, ledgerCommand, reportCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// openStore builds the configured ledger store. The sqlite backend opens the
// database and expects migrations to have been run by setup.
func (r *Runner) openStore() (ledger.Store, error) {
	if r.store != nil {
		return r.store, nil
	}

	switch r.config.Ledger.Backend {
	case "", "json":
		r.store = ledger.NewJSONStore(r.config.Ledger.Path)
	case "sqlite":
		db, err := shared.NewDatabase(r.config.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open ledger database: %w", err)
		}
		shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
		r.store = ledger.NewSQLiteStore(db)
	default:
		return nil, fmt.Errorf("%w: unknown ledger backend %q", shared.ErrInvalidConfig, r.config.Ledger.Backend)
	}
	return r.store, nil
}

// loadLedger loads the full persisted ledger. A schema mismatch is fatal
// before any remote state is touched.
func (r *Runner) loadLedger() (*ledger.Ledger, error) {
	store, err := r.openStore()
	if err != nil {
		return nil, err
	}
	records, err := store.Load()
	if err != nil {
		return nil, err
	}
	r.logger.Debug("ledger loaded", "entries", len(records))
	return ledger.FromRecords(records), nil
}

// ensureAuthenticated installs the saved token on the Spotify service.
func (r *Runner) ensureAuthenticated(ctx context.Context) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}
	return r.spotify.Authenticate(ctx, map[string]string{
		"token_path": r.config.Credentials.Spotify.TokenPath,
	})
}

// ensureEngine builds the sync engine: authenticated service, resolver and
// loaded ledger. Idempotent across commands in one invocation.
func (r *Runner) ensureEngine(ctx context.Context) (*tasks.PlaylistEngine, error) {
	if r.engine != nil {
		return r.engine, nil
	}

	if err := r.ensureAuthenticated(ctx); err != nil {
		return nil, err
	}

	ldg, err := r.loadLedger()
	if err != nil {
		return nil, err
	}

	searcher, ok := r.spotify.(match.Searcher)
	if !ok {
		return nil, fmt.Errorf("%w: service does not support search", shared.ErrServiceUnavailable)
	}
	resolver := match.NewResolver(searcher, r.config.Sync.SearchLimit)

	store, err := r.openStore()
	if err != nil {
		return nil, err
	}

	r.engine = tasks.NewPlaylistEngine(r.spotify, resolver, ldg, store, r.config.Sync)
	return r.engine, nil
}

// loadLibrary reads the prepared library export and the exclusion list.
func (r *Runner) loadLibrary() (*library.Library, []string, error) {
	lib, err := library.Load(r.config.Library.PlaylistsPath)
	if err != nil {
		return nil, nil, err
	}
	exclude, err := library.LoadExclusions(r.config.Library.ExcludePath)
	if err != nil {
		return nil, nil, err
	}
	return lib, exclude, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
