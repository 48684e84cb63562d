package reconcile

import (
	"github.com/starford/fubuki/internal/catalog"
	"github.com/starford/fubuki/internal/models"
)

// TotalEpisodes returns how many episodes the prequel chain ending at m holds
// when progress is an absolute episode number spanning several seasons.
//
// When progress fits inside m, or m has zero or several TV prequels, only
// m's own count is returned. Otherwise the single prequel's tracked entry is
// consulted, walking further back while the accumulated count is still below
// progress. A prequel missing from c, or without an episode count, makes the
// total unknown. Each media id is visited at most once, so relation cycles
// terminate.
func TotalEpisodes(c *catalog.Collection, m models.Media, progress int) (int, bool) {
	return totalEpisodes(c, m, progress, map[int]struct{}{m.ID: {}})
}

func totalEpisodes(c *catalog.Collection, m models.Media, progress int, seen map[int]struct{}) (int, bool) {
	if m.Episodes == nil {
		return 0, false
	}
	length := *m.Episodes
	if progress <= length {
		return length, true
	}

	prequels := m.RelatedTV(models.RelationPrequel)
	if len(prequels) != 1 {
		return length, true
	}
	id := prequels[0].ID
	if _, ok := seen[id]; ok {
		return length, true
	}
	seen[id] = struct{}{}

	ref := c.EntryRef(id)
	if ref == nil || ref.Media.Episodes == nil {
		return 0, false
	}
	prequel := ref.Media
	if *prequel.Episodes+length >= progress {
		return *prequel.Episodes + length, true
	}
	sub, ok := totalEpisodes(c, prequel, progress, seen)
	if !ok {
		return length, true
	}
	return length + sub, true
}

// ProgressOffset converts an absolute episode number into one relative to
// e's season. It reports false when progress already fits in the season or
// the prequel chain total is unknown. A negative result means the number
// belongs to a later season.
func ProgressOffset(c *catalog.Collection, e models.Entry, progress int) (int, bool) {
	length := 0
	if e.Media.Episodes != nil {
		length = *e.Media.Episodes
	}
	if progress <= length {
		return 0, false
	}
	total, ok := TotalEpisodes(c, e.Media, progress)
	if !ok {
		return 0, false
	}
	return progress - total + length, true
}

// ProgressOffsetForSequel recomputes the offset against the single TV sequel
// of mediaID and returns it with the sequel's media id. The sequel must be
// tracked in c.
func ProgressOffsetForSequel(c *catalog.Collection, mediaID, progress int) (offset, sequelID int, ok bool) {
	ref := c.EntryRef(mediaID)
	if ref == nil {
		return 0, 0, false
	}
	sequel, ok := ref.Media.FindAnimeSequel()
	if !ok {
		return 0, 0, false
	}
	sequelRef := c.EntryRef(sequel.ID)
	if sequelRef == nil {
		return 0, 0, false
	}
	offset, ok = ProgressOffset(c, *sequelRef, progress)
	if !ok {
		return 0, 0, false
	}
	return offset, sequel.ID, true
}
