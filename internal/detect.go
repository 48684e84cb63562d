package internal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/fubuki/internal/recognition"
	"github.com/starford/fubuki/internal/store"
	"github.com/starford/fubuki/internal/windows"
)

// Detection is the result of a one-shot recognition.
type Detection struct {
	Detected    bool               `json:"detected"`
	Media       *recognition.Media `json:"media,omitempty"`
	Description string             `json:"description,omitempty"`
	Windows     int                `json:"windows"`
}

// Detect recognizes the titles listed by src once. Nothing is searched or
// pushed remotely.
func Detect(ctx context.Context, cfg *Config, src windows.Source, logger *slog.Logger) (Detection, error) {
	rec, err := cfg.Recognition.Source().Build(logger)
	if err != nil {
		return Detection{}, fmt.Errorf("load patterns: %w", err)
	}

	titles, err := src.Titles(ctx)
	if err != nil {
		return Detection{}, fmt.Errorf("list windows: %w", err)
	}

	out := Detection{Windows: len(titles)}
	if m, ok := rec.Recognize(titles); ok {
		out.Detected = true
		out.Media = &m
		out.Description = m.Describe()
	}
	return out, nil
}

// RecentUpdates reads the newest update history records from the
// configured database. It does not take the instance lock, so it can run
// next to a live daemon.
func RecentUpdates(ctx context.Context, cfg *Config, limit int) ([]store.UpdateRecord, error) {
	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	defer db.Close()
	return db.History(ctx, limit)
}
