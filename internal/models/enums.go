// Package models defines the catalog domain types shared by recognition,
// reconciliation and the remote client.
package models

// Category is the kind of media a list tracks.
type Category string

// Categories.
const (
	CategoryAnime Category = "ANIME"
	CategoryManga Category = "MANGA"
)

// Categories lists every category in recognition order.
var Categories = []Category{CategoryAnime, CategoryManga}

// String returns the display name.
func (c Category) String() string {
	switch c {
	case CategoryAnime:
		return "Anime"
	case CategoryManga:
		return "Manga"
	}
	return string(c)
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return c == CategoryAnime || c == CategoryManga
}

// Status is the state of a list entry.
type Status string

// Entry statuses.
const (
	StatusCurrent   Status = "CURRENT"
	StatusPlanning  Status = "PLANNING"
	StatusCompleted Status = "COMPLETED"
	StatusDropped   Status = "DROPPED"
	StatusPaused    Status = "PAUSED"
	StatusRepeating Status = "REPEATING"
)

// Format is the publication format of a media item.
type Format string

// Media formats.
const (
	FormatTV      Format = "TV"
	FormatTVShort Format = "TV_SHORT"
	FormatMovie   Format = "MOVIE"
	FormatSpecial Format = "SPECIAL"
	FormatOVA     Format = "OVA"
	FormatONA     Format = "ONA"
	FormatMusic   Format = "MUSIC"
	FormatManga   Format = "MANGA"
	FormatNovel   Format = "NOVEL"
	FormatOneShot Format = "ONE_SHOT"
)

// String returns the display name.
func (f Format) String() string {
	switch f {
	case FormatTV:
		return "TV"
	case FormatTVShort:
		return "TV Short"
	case FormatMovie:
		return "Movie"
	case FormatSpecial:
		return "Special"
	case FormatOVA:
		return "OVA"
	case FormatONA:
		return "ONA"
	case FormatMusic:
		return "Music"
	case FormatManga:
		return "Manga"
	case FormatNovel:
		return "Light Novel"
	case FormatOneShot:
		return "Oneshot"
	}
	return string(f)
}

// RelationKind labels an edge between two media items.
type RelationKind string

// Relation kinds.
const (
	RelationAdaptation  RelationKind = "ADAPTATION"
	RelationPrequel     RelationKind = "PREQUEL"
	RelationSequel      RelationKind = "SEQUEL"
	RelationParent      RelationKind = "PARENT"
	RelationSideStory   RelationKind = "SIDE_STORY"
	RelationCharacter   RelationKind = "CHARACTER"
	RelationSummary     RelationKind = "SUMMARY"
	RelationAlternative RelationKind = "ALTERNATIVE"
	RelationSpinOff     RelationKind = "SPIN_OFF"
	RelationOther       RelationKind = "OTHER"
	RelationSource      RelationKind = "SOURCE"
	RelationCompilation RelationKind = "COMPILATION"
	RelationContains    RelationKind = "CONTAINS"
)

// ScoreFormat is the viewer's scoring scale.
type ScoreFormat string

// Score formats.
const (
	ScorePoint100       ScoreFormat = "POINT_100"
	ScorePoint10Decimal ScoreFormat = "POINT_10_DECIMAL"
	ScorePoint10        ScoreFormat = "POINT_10"
	ScorePoint5         ScoreFormat = "POINT_5"
	ScorePoint3         ScoreFormat = "POINT_3"
)
