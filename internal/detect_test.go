package internal

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/fubuki/internal/models"
	"github.com/starford/fubuki/internal/store"
	"github.com/starford/fubuki/internal/windows"
)

func detectConfig(t *testing.T) *Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recognition.yaml")
	data := []byte("anime:\n  - '^(?P<title>.+?) - Episode (?P<episode>\\d+) - mpv$'\nmanga: []\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := NewDefaultConfig()
	cfg.Recognition.Patterns = path
	return cfg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDetect(t *testing.T) {
	cfg := detectConfig(t)
	src := windows.Static{"Terminal", "Sousou no Frieren - Episode 5 - mpv"}

	got, err := Detect(context.Background(), cfg, src, discardLogger())
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if !got.Detected || got.Media == nil {
		t.Fatalf("nothing detected: %+v", got)
	}
	if got.Media.Title != "Sousou no Frieren" || got.Media.Category != models.CategoryAnime {
		t.Errorf("media = %+v", got.Media)
	}
	if got.Description != "Watching Episode 5" {
		t.Errorf("description = %q", got.Description)
	}
	if got.Windows != 2 {
		t.Errorf("windows = %d, want 2", got.Windows)
	}
}

func TestDetect_NoMatch(t *testing.T) {
	got, err := Detect(context.Background(), detectConfig(t), windows.Static{"Terminal"}, discardLogger())
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if got.Detected || got.Media != nil {
		t.Errorf("unexpected detection: %+v", got)
	}
}

func TestDetect_MissingPatterns(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Recognition.Patterns = filepath.Join(t.TempDir(), "missing.yaml")

	if _, err := Detect(context.Background(), cfg, windows.Static{}, discardLogger()); err == nil {
		t.Fatal("expected error for missing pattern file")
	}
}

func TestRecentUpdates(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "fubuki.db")

	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.RecordUpdate(context.Background(), store.UpdateRecord{
		MediaID: 154587, EntryID: 1545870, Category: models.CategoryAnime,
		Title: "Sousou no Frieren", Outcome: store.OutcomeSent,
	}); err != nil {
		t.Fatal(err)
	}
	db.Close()

	records, err := RecentUpdates(context.Background(), cfg, 10)
	if err != nil {
		t.Fatalf("RecentUpdates: %v", err)
	}
	if len(records) != 1 || records[0].MediaID != 154587 {
		t.Errorf("records = %+v", records)
	}
}
