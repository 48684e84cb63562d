package models

import (
	"regexp"
	"strings"
)

var (
	htmlTagRe     = regexp.MustCompile(`<.+?>`)
	lineBreakRepl = strings.NewReplacer("<br>", "\n", "<br/>", "\n", "<br />", "\n")
)

// Title holds the localized names of a media item. Any variant may be empty.
type Title struct {
	Romaji        string `json:"romaji,omitempty"`
	English       string `json:"english,omitempty"`
	Native        string `json:"native,omitempty"`
	UserPreferred string `json:"userPreferred,omitempty"`
}

// Relation is a directed edge from one media item to another.
type Relation struct {
	Kind RelationKind `json:"relationType"`
	Node Media        `json:"node"`
}

// ListEntryRef marks a media item the viewer already tracks. Search results
// carry it so the caller can tell tracked media from the rest of the catalog.
type ListEntryRef struct {
	ID       int    `json:"id"`
	Status   Status `json:"status,omitempty"`
	Progress *int   `json:"progress,omitempty"`
}

// Media is the catalog descriptor of one anime or manga.
type Media struct {
	ID          int           `json:"id"`
	Title       Title         `json:"title"`
	Type        Category      `json:"type,omitempty"`
	Format      Format        `json:"format,omitempty"`
	Synonyms    []string      `json:"synonyms,omitempty"`
	Episodes    *int          `json:"episodes,omitempty"`
	Chapters    *int          `json:"chapters,omitempty"`
	Volumes     *int          `json:"volumes,omitempty"`
	Relations   []Relation    `json:"relations,omitempty"`
	CoverURL    string        `json:"coverUrl,omitempty"`
	Description string        `json:"description,omitempty"`
	IsLicensed  bool          `json:"isLicensed"`
	ListEntry   *ListEntryRef `json:"mediaListEntry,omitempty"`
}

// AllTitles returns every non-empty name of m: romaji, user-preferred,
// native, english, then synonyms.
func (m *Media) AllTitles() []string {
	out := make([]string, 0, 4+len(m.Synonyms))
	for _, t := range []string{m.Title.Romaji, m.Title.UserPreferred, m.Title.Native, m.Title.English} {
		if t != "" {
			out = append(out, t)
		}
	}
	for _, s := range m.Synonyms {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// PreferredTitle returns the user-preferred title, falling back to romaji.
func (m *Media) PreferredTitle() string {
	if m.Title.UserPreferred != "" {
		return m.Title.UserPreferred
	}
	return m.Title.Romaji
}

// PlainDescription returns the description with line-break tags turned into
// newlines and any other markup removed.
func (m *Media) PlainDescription() string {
	if m.Description == "" {
		return ""
	}
	return htmlTagRe.ReplaceAllString(lineBreakRepl.Replace(m.Description), "")
}

// Total returns the episode count for anime and the chapter count for manga.
func (m *Media) Total() *int {
	if m.Type == CategoryManga {
		return m.Chapters
	}
	return m.Episodes
}

// RelatedTV returns the targets of every kind edge whose node is a TV series.
func (m *Media) RelatedTV(kind RelationKind) []Media {
	var out []Media
	for _, r := range m.Relations {
		if r.Kind == kind && r.Node.Format == FormatTV {
			out = append(out, r.Node)
		}
	}
	return out
}

// FindAnimeSequel returns the sequel of m when exactly one TV sequel exists.
func (m *Media) FindAnimeSequel() (Media, bool) {
	sequels := m.RelatedTV(RelationSequel)
	if len(sequels) != 1 {
		return Media{}, false
	}
	return sequels[0], true
}
