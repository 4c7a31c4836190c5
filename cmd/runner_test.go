package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"applesync/internal/ledger"
	"applesync/internal/shared"
	mocks "applesync/internal/testing"
)

func newTestRunner(buf *bytes.Buffer) *Runner {
	return NewRunner(RunnerOpts{
		Config: shared.DefaultConfig(),
		Output: buf,
	})
}

func TestNewRunnerDefaults(t *testing.T) {
	r := NewRunner(RunnerOpts{})

	if r.config == nil {
		t.Error("config = nil, want defaults")
	}
	if r.logger == nil {
		t.Error("logger = nil, want default logger")
	}
	if r.output == nil {
		t.Error("output = nil, want stdout")
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	r := newTestRunner(&buf)

	data := map[string]string{"playlist": "Workout"}
	if err := r.writeJSON(data, false); err != nil {
		t.Fatalf("writeJSON() error = %v", err)
	}

	if got := buf.String(); got != `{"playlist":"Workout"}`+"\n" {
		t.Errorf("writeJSON() output = %q", got)
	}
}

func TestWriteJSONPretty(t *testing.T) {
	var buf bytes.Buffer
	r := newTestRunner(&buf)

	if err := r.writeJSON(map[string]string{"playlist": "Workout"}, true); err != nil {
		t.Fatalf("writeJSON() error = %v", err)
	}
	if !strings.Contains(buf.String(), "  \"playlist\": \"Workout\"") {
		t.Errorf("pretty output not indented: %q", buf.String())
	}
}

func TestWriteJSONFailedWriter(t *testing.T) {
	r := NewRunner(RunnerOpts{Output: &mocks.FWriter{}})
	if err := r.writeJSON(map[string]string{}, false); err == nil {
		t.Error("writeJSON() with a failing writer returned nil error")
	}
}

func TestWritePlain(t *testing.T) {
	var buf bytes.Buffer
	r := newTestRunner(&buf)

	if err := r.writePlain("synced %d tracks\n", 3); err != nil {
		t.Fatalf("writePlain() error = %v", err)
	}
	if buf.String() != "synced 3 tracks\n" {
		t.Errorf("writePlain() output = %q", buf.String())
	}
}

func TestOpenStoreJSONBackend(t *testing.T) {
	r := newTestRunner(&bytes.Buffer{})
	r.config.Ledger.Backend = "json"
	r.config.Ledger.Path = filepath.Join(t.TempDir(), "ledger.json")

	store, err := r.openStore()
	if err != nil {
		t.Fatalf("openStore() error = %v", err)
	}
	if _, ok := store.(*ledger.JSONStore); !ok {
		t.Errorf("openStore() = %T, want *ledger.JSONStore", store)
	}
}

func TestOpenStoreDefaultsToJSON(t *testing.T) {
	r := newTestRunner(&bytes.Buffer{})
	r.config.Ledger.Backend = ""

	store, err := r.openStore()
	if err != nil {
		t.Fatalf("openStore() error = %v", err)
	}
	if _, ok := store.(*ledger.JSONStore); !ok {
		t.Errorf("openStore() = %T, want *ledger.JSONStore", store)
	}
}

func TestOpenStoreUnknownBackend(t *testing.T) {
	r := newTestRunner(&bytes.Buffer{})
	r.config.Ledger.Backend = "etcd"

	_, err := r.openStore()
	if !errors.Is(err, shared.ErrInvalidConfig) {
		t.Errorf("openStore() error = %v, want ErrInvalidConfig", err)
	}
}

func TestOpenStoreReusesInjectedStore(t *testing.T) {
	injected := ledger.NewJSONStore(filepath.Join(t.TempDir(), "ledger.json"))
	r := NewRunner(RunnerOpts{Config: shared.DefaultConfig(), Store: injected})
	r.config.Ledger.Backend = "etcd" // must not matter with an injected store

	store, err := r.openStore()
	if err != nil {
		t.Fatalf("openStore() error = %v", err)
	}
	if store != ledger.Store(injected) {
		t.Error("openStore() built a new store instead of reusing the injected one")
	}
}

func TestEnsureAuthenticatedWithoutService(t *testing.T) {
	r := newTestRunner(&bytes.Buffer{})

	err := r.ensureAuthenticated(context.Background())
	if !errors.Is(err, shared.ErrServiceUnavailable) {
		t.Errorf("ensureAuthenticated() error = %v, want ErrServiceUnavailable", err)
	}
}

func TestLoadLibrary(t *testing.T) {
	dir := t.TempDir()
	playlistsPath := filepath.Join(dir, "playlists.json")
	excludePath := filepath.Join(dir, "exclude.txt")

	data := `{"Workout": [{"name": "Alpha", "artist": "Artist", "track_id": "lib-a"}]}`
	if err := os.WriteFile(playlistsPath, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(excludePath, []byte("Voice Memos\n"), 0644); err != nil {
		t.Fatal(err)
	}

	r := newTestRunner(&bytes.Buffer{})
	r.config.Library.PlaylistsPath = playlistsPath
	r.config.Library.ExcludePath = excludePath

	lib, exclude, err := r.loadLibrary()
	if err != nil {
		t.Fatalf("loadLibrary() error = %v", err)
	}
	if _, ok := lib.Get("Workout"); !ok {
		t.Error("loaded library missing the Workout playlist")
	}
	if len(exclude) != 1 || exclude[0] != "Voice Memos" {
		t.Errorf("exclusions = %v, want [Voice Memos]", exclude)
	}
}

func TestRegisterCommands(t *testing.T) {
	r := newTestRunner(&bytes.Buffer{})

	commands := r.register()
	if len(commands) != 7 {
		t.Fatalf("register() = %d commands, want 7", len(commands))
	}

	names := make(map[string]bool, len(commands))
	for _, command := range commands {
		names[command.Name] = true
	}
	for _, want := range []string{"setup", "auth", "library", "sync", "ledger", "report", "tui"} {
		if !names[want] {
			t.Errorf("register() missing %q command", want)
		}
	}
}
