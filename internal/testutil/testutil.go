// Package testutil provides shared test helpers for databases and list fixtures.
package testutil

import (
	"os"
	"testing"

	"github.com/starford/fubuki/internal/catalog"
	"github.com/starford/fubuki/internal/models"
	"github.com/starford/fubuki/internal/store"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "fubuki-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// AnimeEntry returns a CURRENT TV entry with record id mediaID*10.
func AnimeEntry(mediaID int, title string, progress, episodes int) models.Entry {
	return models.Entry{
		ID:       mediaID * 10,
		MediaID:  mediaID,
		Status:   models.StatusCurrent,
		Progress: &progress,
		Media: models.Media{
			ID:       mediaID,
			Type:     models.CategoryAnime,
			Format:   models.FormatTV,
			Episodes: &episodes,
			Title:    models.Title{Romaji: title},
		},
	}
}

// MangaEntry returns a CURRENT manga entry with record id mediaID*10.
func MangaEntry(mediaID int, title string, progress int) models.Entry {
	return models.Entry{
		ID:       mediaID * 10,
		MediaID:  mediaID,
		Status:   models.StatusCurrent,
		Progress: &progress,
		Media: models.Media{
			ID:     mediaID,
			Type:   models.CategoryManga,
			Format: models.FormatManga,
			Title:  models.Title{Romaji: title},
		},
	}
}

// Collection puts entries into a single "Watching" or "Reading" group.
func Collection(category models.Category, entries ...models.Entry) *catalog.Collection {
	name := "Watching"
	if category == models.CategoryManga {
		name = "Reading"
	}
	return &catalog.Collection{
		Category: category,
		Groups:   []catalog.Group{{Name: name, Status: models.StatusCurrent, Entries: entries}},
	}
}
