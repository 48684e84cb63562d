package tracker

import (
	"context"

	"github.com/starford/fubuki/internal/apperr"
	"github.com/starford/fubuki/internal/models"
	"github.com/starford/fubuki/internal/queue"
	"github.com/starford/fubuki/internal/recognition"
)

// Status is a snapshot of the engine state.
type Status struct {
	User        *models.User            `json:"user,omitempty"`
	Current     *recognition.Media      `json:"current,omitempty"`
	Description string                  `json:"description,omitempty"`
	Matched     *models.Entry           `json:"matched,omitempty"`
	Queue       []queue.Item            `json:"queue"`
	InFlight    *models.Entry           `json:"inFlight,omitempty"`
	Lists       map[models.Category]int `json:"lists"`
}

// Ready reports whether both lists are loaded.
func (s Status) Ready() bool {
	for _, c := range models.Categories {
		if _, ok := s.Lists[c]; !ok {
			return false
		}
	}
	return true
}

func (e *Engine) status() Status {
	s := Status{
		Queue: e.queue.Snapshot(),
		Lists: make(map[models.Category]int, len(e.lists)),
	}
	if e.user != nil {
		u := *e.user
		s.User = &u
	}
	if e.current != nil {
		rec := *e.current
		s.Current = &rec
		s.Description = rec.Describe()
	}
	if e.matched != nil {
		if entry, ok := e.lists[e.matched.category].FindEntryByID(e.matched.mediaID); ok {
			s.Matched = &entry
		}
	}
	if entry, ok := e.queue.InFlight(); ok {
		s.InFlight = &entry
	}
	for c, list := range e.lists {
		s.Lists[c] = list.Len()
	}
	return s
}

// request delivers ev to the engine goroutine.
func (e *Engine) request(ctx context.Context, ev event) error {
	select {
	case e.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status returns the current engine state.
func (e *Engine) Status(ctx context.Context) (Status, error) {
	reply := make(chan Status, 1)
	if err := e.request(ctx, statusRequested{reply: reply}); err != nil {
		return Status{}, err
	}
	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return Status{}, ctx.Err()
	}
}

// Cancel drops the queued update for mediaID. It fails with
// apperr.ErrNotFound when nothing is queued for it; an update already in
// flight cannot be cancelled.
func (e *Engine) Cancel(ctx context.Context, mediaID int) error {
	reply := make(chan bool, 1)
	if err := e.request(ctx, cancelRequested{mediaID: mediaID, reply: reply}); err != nil {
		return err
	}
	select {
	case ok := <-reply:
		if !ok {
			return apperr.ErrNotFound
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Refresh asks the engine to refetch the viewer's lists. It returns once
// the request is accepted; the fetch completes in the background.
func (e *Engine) Refresh(ctx context.Context) error {
	return e.request(ctx, refreshRequested{})
}

// Lookup searches the loaded lists for the entry best matching query. An
// empty category searches anime first, then manga.
func (e *Engine) Lookup(ctx context.Context, query string, category models.Category) (models.Entry, error) {
	reply := make(chan lookupResult, 1)
	if err := e.request(ctx, lookupRequested{query: query, category: category, reply: reply}); err != nil {
		return models.Entry{}, err
	}
	select {
	case r := <-reply:
		if !r.found {
			return models.Entry{}, apperr.ErrNotFound
		}
		return r.entry, nil
	case <-ctx.Done():
		return models.Entry{}, ctx.Err()
	}
}
