// Package catalog mirrors the viewer's remote lists in memory and answers
// id and fuzzy-title lookups against them.
package catalog

import "github.com/starford/fubuki/internal/models"

// Group is one named list (e.g. "Watching", a custom list) of a collection.
type Group struct {
	Name                 string         `json:"name"`
	Status               models.Status  `json:"status,omitempty"`
	IsCustomList         bool           `json:"isCustomList"`
	IsSplitCompletedList bool           `json:"isSplitCompletedList"`
	Entries              []models.Entry `json:"entries"`
}

// Collection is the in-memory copy of one category of the viewer's lists.
// A media id appears in at most one group. A Collection is replaced as a
// whole on every refresh.
type Collection struct {
	Category models.Category `json:"category"`
	Groups   []Group         `json:"groups"`
}

// Len returns the number of entries across all groups.
func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, g := range c.Groups {
		n += len(g.Entries)
	}
	return n
}

// EntryRef returns a pointer to the entry tracking mediaID, or nil. Changes
// through the pointer are visible to later lookups.
func (c *Collection) EntryRef(mediaID int) *models.Entry {
	if c == nil {
		return nil
	}
	for gi := range c.Groups {
		entries := c.Groups[gi].Entries
		for ei := range entries {
			if entries[ei].MediaID == mediaID {
				return &entries[ei]
			}
		}
	}
	return nil
}

// FindEntryByID returns a copy of the entry tracking mediaID.
func (c *Collection) FindEntryByID(mediaID int) (models.Entry, bool) {
	ref := c.EntryRef(mediaID)
	if ref == nil {
		return models.Entry{}, false
	}
	return ref.Clone(), true
}

// SearchForTitle returns the entry whose media has the title most similar to
// query. Only titles scoring at least MatchThreshold are eligible; ties keep
// the entry seen first.
func (c *Collection) SearchForTitle(query string) (*models.Entry, bool) {
	if c == nil {
		return nil, false
	}
	var (
		best    *models.Entry
		bestSim float64
	)
	for gi := range c.Groups {
		entries := c.Groups[gi].Entries
		for ei := range entries {
			sim := bestTitleSimilarity(&entries[ei].Media, query)
			if sim < MatchThreshold || sim <= bestSim {
				continue
			}
			best, bestSim = &entries[ei], sim
			if sim == 1 {
				return best, true
			}
		}
	}
	return best, best != nil
}

// BestIDForSearch picks the media id among candidates (typically remote
// search results) that best matches query. Candidates must already be on
// the viewer's lists and must match the oneshot filter: oneshot selects only
// ONE_SHOT media, otherwise ONE_SHOT and format-less media are skipped.
//
// When two candidates tie on similarity the licensed one wins, since
// unlicensed duplicates often share the licensed original's title.
func BestIDForSearch(candidates []models.Media, query string, oneshot bool) (int, bool) {
	var (
		bestID       int
		bestSim      float64
		bestLicensed bool
		found        bool
	)
	for i := range candidates {
		m := &candidates[i]
		if m.ListEntry == nil || !formatAllowed(m.Format, oneshot) {
			continue
		}
		sim := bestTitleSimilarity(m, query)
		if sim < MatchThreshold {
			continue
		}
		switch {
		case !found || sim > bestSim:
		case sim == bestSim && m.IsLicensed && !bestLicensed:
		default:
			continue
		}
		bestID, bestSim, bestLicensed, found = m.ID, sim, m.IsLicensed, true
	}
	return bestID, found
}

func formatAllowed(f models.Format, oneshot bool) bool {
	if oneshot {
		return f == models.FormatOneShot
	}
	return f != "" && f != models.FormatOneShot
}

func bestTitleSimilarity(m *models.Media, query string) float64 {
	best := 0.0
	for _, title := range m.AllTitles() {
		if sim := Similarity(title, query); sim > best {
			best = sim
		}
	}
	return best
}
