package anilist

import (
	"github.com/starford/fubuki/internal/catalog"
	"github.com/starford/fubuki/internal/models"
)

// The remote schema allows null at almost every level, including inside
// lists. Wire types mirror that with pointers; the to* functions drop absent
// elements so the rest of the program works with plain values.

type wireTitle struct {
	Romaji        *string `json:"romaji"`
	English       *string `json:"english"`
	Native        *string `json:"native"`
	UserPreferred *string `json:"userPreferred"`
}

type wireImage struct {
	Large  *string `json:"large"`
	Medium *string `json:"medium"`
}

type wireDate struct {
	Year  *int `json:"year"`
	Month *int `json:"month"`
	Day   *int `json:"day"`
}

type wireEdge struct {
	RelationType *models.RelationKind `json:"relationType"`
	Node         *wireMedia           `json:"node"`
}

type wireConnection struct {
	Edges []*wireEdge `json:"edges"`
}

type wireListEntryRef struct {
	ID       int            `json:"id"`
	Status   *models.Status `json:"status"`
	Progress *int           `json:"progress"`
}

type wireMedia struct {
	ID             int               `json:"id"`
	Type           *models.Category  `json:"type"`
	Format         *models.Format    `json:"format"`
	Title          *wireTitle        `json:"title"`
	Synonyms       []*string         `json:"synonyms"`
	Episodes       *int              `json:"episodes"`
	Chapters       *int              `json:"chapters"`
	Volumes        *int              `json:"volumes"`
	IsLicensed     *bool             `json:"isLicensed"`
	Description    *string           `json:"description"`
	CoverImage     *wireImage        `json:"coverImage"`
	Relations      *wireConnection   `json:"relations"`
	MediaListEntry *wireListEntryRef `json:"mediaListEntry"`
}

type wireEntry struct {
	ID              int            `json:"id"`
	MediaID         int            `json:"mediaId"`
	Status          *models.Status `json:"status"`
	Progress        *int           `json:"progress"`
	ProgressVolumes *int           `json:"progressVolumes"`
	Score           *float64       `json:"score"`
	StartedAt       *wireDate      `json:"startedAt"`
	CompletedAt     *wireDate      `json:"completedAt"`
	Media           *wireMedia     `json:"media"`
}

type wireGroup struct {
	Name                 *string        `json:"name"`
	Status               *models.Status `json:"status"`
	IsCustomList         *bool          `json:"isCustomList"`
	IsSplitCompletedList *bool          `json:"isSplitCompletedList"`
	Entries              []*wireEntry   `json:"entries"`
}

type wireCollection struct {
	Lists []*wireGroup `json:"lists"`
}

type wireListOptions struct {
	CustomLists []*string `json:"customLists"`
}

type wireUser struct {
	ID      int        `json:"id"`
	Name    string     `json:"name"`
	Avatar  *wireImage `json:"avatar"`
	Options *struct {
		ProfileColor *string `json:"profileColor"`
	} `json:"options"`
	MediaListOptions *struct {
		ScoreFormat *models.ScoreFormat `json:"scoreFormat"`
		AnimeList   *wireListOptions    `json:"animeList"`
		MangaList   *wireListOptions    `json:"mangaList"`
	} `json:"mediaListOptions"`
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func nonEmpty(in []*string) []string {
	var out []string
	for _, s := range in {
		if s != nil && *s != "" {
			out = append(out, *s)
		}
	}
	return out
}

func (d *wireDate) toModel() models.FuzzyDate {
	if d == nil {
		return models.FuzzyDate{}
	}
	return models.FuzzyDate{Year: d.Year, Month: d.Month, Day: d.Day}
}

func fromDate(d models.FuzzyDate) *wireDate {
	return &wireDate{Year: d.Year, Month: d.Month, Day: d.Day}
}

func (w *wireMedia) toModel() models.Media {
	m := models.Media{
		ID:          w.ID,
		Synonyms:    nonEmpty(w.Synonyms),
		Episodes:    w.Episodes,
		Chapters:    w.Chapters,
		Volumes:     w.Volumes,
		Description: str(w.Description),
	}
	if w.Type != nil {
		m.Type = *w.Type
	}
	if w.Format != nil {
		m.Format = *w.Format
	}
	if w.Title != nil {
		m.Title = models.Title{
			Romaji:        str(w.Title.Romaji),
			English:       str(w.Title.English),
			Native:        str(w.Title.Native),
			UserPreferred: str(w.Title.UserPreferred),
		}
	}
	if w.IsLicensed != nil {
		m.IsLicensed = *w.IsLicensed
	}
	if w.CoverImage != nil {
		m.CoverURL = str(w.CoverImage.Large)
		if m.CoverURL == "" {
			m.CoverURL = str(w.CoverImage.Medium)
		}
	}
	if w.Relations != nil {
		for _, edge := range w.Relations.Edges {
			if edge == nil || edge.Node == nil || edge.RelationType == nil {
				continue
			}
			m.Relations = append(m.Relations, models.Relation{Kind: *edge.RelationType, Node: edge.Node.toModel()})
		}
	}
	if w.MediaListEntry != nil {
		ref := &models.ListEntryRef{ID: w.MediaListEntry.ID, Progress: w.MediaListEntry.Progress}
		if w.MediaListEntry.Status != nil {
			ref.Status = *w.MediaListEntry.Status
		}
		m.ListEntry = ref
	}
	return m
}

func (w *wireEntry) toModel() models.Entry {
	e := models.Entry{
		ID:              w.ID,
		MediaID:         w.MediaID,
		Progress:        w.Progress,
		ProgressVolumes: w.ProgressVolumes,
		StartedAt:       w.StartedAt.toModel(),
		CompletedAt:     w.CompletedAt.toModel(),
	}
	if w.Status != nil {
		e.Status = *w.Status
	}
	if w.Score != nil {
		e.Score = *w.Score
	}
	if w.Media != nil {
		e.Media = w.Media.toModel()
	}
	return e
}

func (w *wireCollection) toModel(category models.Category) *catalog.Collection {
	c := &catalog.Collection{Category: category}
	if w == nil {
		return c
	}
	// Custom lists repeat entries already listed under their status group.
	seen := map[int]struct{}{}
	for _, list := range w.Lists {
		if list == nil {
			continue
		}
		g := catalog.Group{Name: str(list.Name)}
		if list.Status != nil {
			g.Status = *list.Status
		}
		if list.IsCustomList != nil {
			g.IsCustomList = *list.IsCustomList
		}
		if list.IsSplitCompletedList != nil {
			g.IsSplitCompletedList = *list.IsSplitCompletedList
		}
		for _, entry := range list.Entries {
			// Entries without media cannot be matched or offset, so they
			// are not worth keeping.
			if entry == nil || entry.Media == nil {
				continue
			}
			if _, dup := seen[entry.MediaID]; dup {
				continue
			}
			seen[entry.MediaID] = struct{}{}
			g.Entries = append(g.Entries, entry.toModel())
		}
		c.Groups = append(c.Groups, g)
	}
	return c
}

func (w *wireUser) toModel() models.User {
	u := models.User{ID: w.ID, Name: w.Name}
	if w.Avatar != nil {
		u.AvatarURL = str(w.Avatar.Large)
		if u.AvatarURL == "" {
			u.AvatarURL = str(w.Avatar.Medium)
		}
	}
	if w.Options != nil {
		u.ProfileColor = str(w.Options.ProfileColor)
	}
	if o := w.MediaListOptions; o != nil {
		if o.ScoreFormat != nil {
			u.ScoreFormat = *o.ScoreFormat
		}
		lists := map[models.Category][]string{}
		if o.AnimeList != nil {
			if names := nonEmpty(o.AnimeList.CustomLists); len(names) > 0 {
				lists[models.CategoryAnime] = names
			}
		}
		if o.MangaList != nil {
			if names := nonEmpty(o.MangaList.CustomLists); len(names) > 0 {
				lists[models.CategoryManga] = names
			}
		}
		if len(lists) > 0 {
			u.CustomLists = lists
		}
	}
	return u
}
