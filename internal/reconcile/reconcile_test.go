package reconcile

import (
	"testing"
	"time"

	"github.com/starford/fubuki/internal/catalog"
	"github.com/starford/fubuki/internal/models"
	"github.com/starford/fubuki/internal/recognition"
)

func intPtr(v int) *int { return &v }

func f64(v float64) *float64 { return &v }

func tv(id, episodes int) models.Media {
	m := models.Media{ID: id, Type: models.CategoryAnime, Format: models.FormatTV, Title: models.Title{Romaji: "Show"}}
	if episodes > 0 {
		m.Episodes = intPtr(episodes)
	}
	return m
}

func relate(m *models.Media, kind models.RelationKind, to models.Media) {
	m.Relations = append(m.Relations, models.Relation{Kind: kind, Node: to})
}

func collectionOf(media ...models.Media) *catalog.Collection {
	entries := make([]models.Entry, 0, len(media))
	for _, m := range media {
		entries = append(entries, models.Entry{ID: m.ID * 100, MediaID: m.ID, Status: models.StatusCurrent, Media: m})
	}
	return &catalog.Collection{
		Category: models.CategoryAnime,
		Groups:   []catalog.Group{{Name: "Watching", Status: models.StatusCurrent, Entries: entries}},
	}
}

func TestTotalEpisodes_SinglePrequel(t *testing.T) {
	prequel, current := tv(1, 276), tv(2, 24)
	relate(&current, models.RelationPrequel, prequel)
	c := collectionOf(prequel, current)

	total, ok := TotalEpisodes(c, current, 300)
	if !ok || total != 300 {
		t.Fatalf("TotalEpisodes = %d, %v; want 300", total, ok)
	}
	e, _ := c.FindEntryByID(2)
	offset, ok := ProgressOffset(c, e, 300)
	if !ok || offset != 24 {
		t.Errorf("ProgressOffset = %d, %v; want 24", offset, ok)
	}
}

func TestTotalEpisodes_AmbiguousPrequels(t *testing.T) {
	a, b, current := tv(1, 12), tv(2, 12), tv(3, 24)
	relate(&current, models.RelationPrequel, a)
	relate(&current, models.RelationPrequel, b)
	c := collectionOf(a, b, current)

	total, ok := TotalEpisodes(c, current, 30)
	if !ok || total != 24 {
		t.Errorf("TotalEpisodes = %d, %v; want own count 24", total, ok)
	}
}

func TestTotalEpisodes_FitsInSeason(t *testing.T) {
	m := tv(1, 12)
	total, ok := TotalEpisodes(collectionOf(m), m, 12)
	if !ok || total != 12 {
		t.Errorf("TotalEpisodes = %d, %v", total, ok)
	}
}

func TestTotalEpisodes_UnknownEpisodes(t *testing.T) {
	m := tv(1, 0)
	if _, ok := TotalEpisodes(collectionOf(m), m, 5); ok {
		t.Error("media without an episode count should be unknown")
	}
}

func TestTotalEpisodes_UntrackedPrequel(t *testing.T) {
	prequel, current := tv(1, 12), tv(2, 12)
	relate(&current, models.RelationPrequel, prequel)
	if _, ok := TotalEpisodes(collectionOf(current), current, 20); ok {
		t.Error("untracked prequel should make the total unknown")
	}
}

func TestTotalEpisodes_WalksChain(t *testing.T) {
	s1, s2, s3 := tv(1, 10), tv(2, 10), tv(3, 10)
	relate(&s2, models.RelationPrequel, s1)
	relate(&s3, models.RelationPrequel, s2)
	c := collectionOf(s1, s2, s3)

	total, ok := TotalEpisodes(c, s3, 25)
	if !ok || total != 30 {
		t.Errorf("TotalEpisodes = %d, %v; want 30", total, ok)
	}
}

func TestTotalEpisodes_CycleTerminates(t *testing.T) {
	a, b := tv(1, 10), tv(2, 10)
	relate(&a, models.RelationPrequel, b)
	relate(&b, models.RelationPrequel, a)
	c := collectionOf(a, b)

	done := make(chan struct{})
	go func() {
		defer close(done)
		TotalEpisodes(c, a, 1000)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("TotalEpisodes did not terminate on a prequel cycle")
	}
}

func TestProgressOffset_FitsReturnsFalse(t *testing.T) {
	m := tv(1, 12)
	c := collectionOf(m)
	e, _ := c.FindEntryByID(1)
	if _, ok := ProgressOffset(c, e, 12); ok {
		t.Error("progress within the season needs no offset")
	}
}

func seasons() *catalog.Collection {
	s1, s2 := tv(1, 12), tv(2, 12)
	relate(&s2, models.RelationPrequel, s1)
	relate(&s1, models.RelationSequel, s2)
	return collectionOf(s1, s2)
}

func TestProgressOffsetForSequel(t *testing.T) {
	offset, sequelID, ok := ProgressOffsetForSequel(seasons(), 1, 15)
	if !ok || sequelID != 2 || offset != 3 {
		t.Errorf("ProgressOffsetForSequel = %d, %d, %v; want 3, 2", offset, sequelID, ok)
	}
}

func fixedNow() time.Time {
	return time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
}

func TestReconcile_RetargetsSequel(t *testing.T) {
	c := seasons()
	r := New(fixedNow)

	res, ok := r.Reconcile(c, 1, recognition.Media{Title: "Show", Category: models.CategoryAnime, Progress: f64(15)}, nil)
	if !ok {
		t.Fatal("expected entry")
	}
	if !res.Retargeted() || res.Entry.MediaID != 2 {
		t.Fatalf("expected retarget to sequel, got media %d", res.Entry.MediaID)
	}
	if !res.NeedsUpdate || res.Entry.Progress == nil || *res.Entry.Progress != 3 {
		t.Errorf("sequel progress = %v, needs update %v", res.Entry.Progress, res.NeedsUpdate)
	}
	s1, _ := c.FindEntryByID(1)
	if s1.Progress != nil {
		t.Errorf("matched season should be untouched, got %d", *s1.Progress)
	}
}

func TestReconcile_AbsoluteNumberInCurrentSeason(t *testing.T) {
	prequel, current := tv(1, 276), tv(2, 24)
	relate(&current, models.RelationPrequel, prequel)
	c := collectionOf(prequel, current)

	res, _ := New(fixedNow).Reconcile(c, 2, recognition.Media{Category: models.CategoryAnime, Progress: f64(290)}, nil)
	if res.Entry.MediaID != 2 || res.Entry.Progress == nil || *res.Entry.Progress != 14 {
		t.Errorf("got media %d progress %v; want 2 at 14", res.Entry.MediaID, res.Entry.Progress)
	}
}

func TestReconcile_AmbiguousKeepsRecognized(t *testing.T) {
	a, b, current := tv(1, 12), tv(2, 12), tv(3, 24)
	relate(&current, models.RelationPrequel, a)
	relate(&current, models.RelationPrequel, b)
	// No sequel either: the number is used as recognized.
	c := collectionOf(a, b, current)

	res, _ := New(fixedNow).Reconcile(c, 3, recognition.Media{Category: models.CategoryAnime, Progress: f64(30)}, nil)
	if res.Retargeted() || res.Entry.Progress == nil || *res.Entry.Progress != 30 {
		t.Errorf("got media %d progress %v; want recognized 30", res.Entry.MediaID, res.Entry.Progress)
	}
}

func TestReconcile_OffsetPastSeasonWithoutSequel(t *testing.T) {
	c := seasons()

	// 30 lands past the second season and it has no sequel to carry it.
	res, _ := New(fixedNow).Reconcile(c, 2, recognition.Media{Category: models.CategoryAnime, Progress: f64(30)}, nil)
	if res.Retargeted() || res.Entry.Progress == nil || *res.Entry.Progress != 30 {
		t.Errorf("got media %d progress %v; want recognized 30", res.Entry.MediaID, res.Entry.Progress)
	}
}

type pendingUpdates map[int]models.Entry

func (p pendingUpdates) Pending(mediaID int) (models.Entry, bool) {
	e, ok := p[mediaID]
	return e, ok
}

func TestReconcile_LeavesCollectionUntouched(t *testing.T) {
	c := collectionOf(tv(1, 12))
	r := New(fixedNow)
	rec := recognition.Media{Category: models.CategoryAnime, Progress: f64(4)}

	first, _ := r.Reconcile(c, 1, rec, nil)
	if !first.NeedsUpdate {
		t.Fatal("first reconcile should need an update")
	}
	// Progress jumped straight to 4, so the start date is left alone.
	if !first.Entry.StartedAt.IsZero() {
		t.Errorf("started_at set on progress 4: %s", first.Entry.StartedAt)
	}
	if got := c.EntryRef(1).Progress; got != nil {
		t.Errorf("list progress = %d, want untouched", *got)
	}

	// Nothing was confirmed, so the same recognition is still a change.
	again, _ := r.Reconcile(c, 1, rec, nil)
	if !again.NeedsUpdate {
		t.Error("unconfirmed progress should still need an update")
	}
}

func TestReconcile_PendingIsBaseline(t *testing.T) {
	c := collectionOf(tv(1, 12))
	r := New(fixedNow)
	rec := recognition.Media{Category: models.CategoryAnime, Progress: f64(4)}

	first, _ := r.Reconcile(c, 1, rec, nil)
	pending := pendingUpdates{1: first.Entry}

	if same, _ := r.Reconcile(c, 1, rec, pending); same.NeedsUpdate {
		t.Error("progress equal to the pending update should not need another")
	}
	next, _ := r.Reconcile(c, 1, recognition.Media{Category: models.CategoryAnime, Progress: f64(5)}, pending)
	if !next.NeedsUpdate || *next.Entry.Progress != 5 {
		t.Errorf("progress ahead of pending: needs=%v entry=%+v", next.NeedsUpdate, next.Entry)
	}
}

func TestReconcile_MangaVolume(t *testing.T) {
	m := models.Media{ID: 7, Type: models.CategoryManga, Format: models.FormatManga, Chapters: intPtr(100), Volumes: intPtr(10)}
	c := &catalog.Collection{Category: models.CategoryManga, Groups: []catalog.Group{{Entries: []models.Entry{{ID: 70, MediaID: 7, Status: models.StatusCurrent, Media: m}}}}}

	res, _ := New(fixedNow).Reconcile(c, 7, recognition.Media{Category: models.CategoryManga, Progress: f64(39.1), Volume: f64(3)}, nil)
	if !res.NeedsUpdate {
		t.Fatal("expected update")
	}
	if *res.Entry.Progress != 39 || res.Entry.ProgressVolumes == nil || *res.Entry.ProgressVolumes != 2 {
		t.Errorf("progress %d volumes %v; want 39 and 2", *res.Entry.Progress, res.Entry.ProgressVolumes)
	}
}

func TestReconcile_UnknownID(t *testing.T) {
	if _, ok := New(nil).Reconcile(collectionOf(tv(1, 12)), 99, recognition.Media{}, nil); ok {
		t.Error("unknown media id should not reconcile")
	}
}
