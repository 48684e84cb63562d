package recognition

import (
	"strconv"
	"strings"

	"github.com/starford/fubuki/internal/models"
)

// Media is what a window title says is being watched or read.
type Media struct {
	Title    string          `json:"title"`
	Category models.Category `json:"category"`
	// Progress is the episode (anime) or chapter (manga) number.
	Progress *float64 `json:"progress,omitempty"`
	// Volume is the 1-indexed volume being read (manga only).
	Volume  *float64 `json:"volume,omitempty"`
	Oneshot bool     `json:"oneshot,omitempty"`
}

// Equal reports whether m and o describe the same media and progress.
func (m Media) Equal(o Media) bool {
	return m.Title == o.Title &&
		m.Category == o.Category &&
		m.Oneshot == o.Oneshot &&
		floatEqual(m.Progress, o.Progress) &&
		floatEqual(m.Volume, o.Volume)
}

// SameMedia reports whether m and o name the same title, ignoring progress.
func (m Media) SameMedia(o Media) bool {
	return m.Title == o.Title && m.Category == o.Category && m.Oneshot == o.Oneshot
}

// Describe renders the progress for display, e.g. "Watching Episode 5" or
// "Reading Vol. 3, Ch. 39".
func (m Media) Describe() string {
	if m.Category == models.CategoryAnime {
		if m.Progress == nil {
			return "Watching"
		}
		return "Watching Episode " + formatNumber(*m.Progress)
	}

	var parts []string
	if m.Volume != nil {
		parts = append(parts, "Vol. "+formatNumber(*m.Volume))
	}
	if m.Progress != nil {
		parts = append(parts, "Ch. "+formatNumber(*m.Progress))
	}
	switch {
	case len(parts) > 0:
		return "Reading " + strings.Join(parts, ", ")
	case m.Oneshot:
		return "Reading Oneshot"
	}
	return "Reading"
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func floatEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
