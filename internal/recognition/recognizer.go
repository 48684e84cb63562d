package recognition

import (
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/starford/fubuki/internal/models"
)

// Capture group names understood by the recognizer.
const (
	GroupTitle   = "title"
	GroupEpisode = "episode"
	GroupChapter = "chapter"
	GroupVolume  = "volume"
	GroupOneshot = "oneshot"
)

// Recognizer extracts Media from window titles.
type Recognizer struct {
	catalog *Catalog
	logger  *slog.Logger
}

// NewRecognizer returns a Recognizer over c. A nil logger discards output.
func NewRecognizer(c *Catalog, logger *slog.Logger) *Recognizer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Recognizer{catalog: c, logger: logger}
}

// Catalog returns the compiled patterns in use.
func (r *Recognizer) Catalog() *Catalog {
	return r.catalog
}

// Recognize returns the media named by the first window title that matches
// a pattern. Anime patterns are tried before manga patterns for each title.
// A match whose title group is missing or empty does not count.
func (r *Recognizer) Recognize(titles []string) (Media, bool) {
	for _, title := range titles {
		for _, category := range models.Categories {
			if m, ok := r.recognizeAs(category, title); ok {
				return m, true
			}
		}
	}
	return Media{}, false
}

func (r *Recognizer) recognizeAs(category models.Category, window string) (Media, bool) {
	groups, ok := r.catalog.Captures(category, window)
	if !ok {
		return Media{}, false
	}
	title := strings.TrimSpace(groups[GroupTitle])
	if title == "" {
		return Media{}, false
	}

	m := Media{Title: title, Category: category}
	switch category {
	case models.CategoryAnime:
		m.Progress = r.parseNumber(groups, GroupEpisode, window)
	case models.CategoryManga:
		m.Progress = r.parseNumber(groups, GroupChapter, window)
		m.Volume = r.parseNumber(groups, GroupVolume, window)
		m.Oneshot = strings.TrimSpace(groups[GroupOneshot]) != ""
	}
	return m, true
}

// parseNumber reads a numeric capture. Unparseable text is logged and yields
// no value; the title itself still counts as recognized.
func (r *Recognizer) parseNumber(groups map[string]string, name, window string) *float64 {
	raw := strings.TrimSpace(groups[name])
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		r.logger.Warn("recognition: parse number failed",
			slog.String("group", name),
			slog.String("value", raw),
			slog.String("window", window),
			slog.String("error", err.Error()))
		return nil
	}
	return &v
}

// Holder publishes the current Recognizer so patterns can be swapped while
// readers keep using the previous set until the swap completes.
type Holder struct {
	p atomic.Pointer[Recognizer]
}

// NewHolder returns a Holder publishing r.
func NewHolder(r *Recognizer) *Holder {
	h := &Holder{}
	h.p.Store(r)
	return h
}

// Load returns the current Recognizer.
func (h *Holder) Load() *Recognizer {
	return h.p.Load()
}

// Store replaces the current Recognizer.
func (h *Holder) Store(r *Recognizer) {
	h.p.Store(r)
}

// Recognize delegates to the current Recognizer.
func (h *Holder) Recognize(titles []string) (Media, bool) {
	r := h.p.Load()
	if r == nil {
		return Media{}, false
	}
	return r.Recognize(titles)
}
