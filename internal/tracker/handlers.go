package tracker

import (
	"context"
	"log/slog"

	"github.com/starford/fubuki/internal/catalog"
	"github.com/starford/fubuki/internal/models"
	"github.com/starford/fubuki/internal/recognition"
	"github.com/starford/fubuki/internal/store"
)

// MediaEvent is the payload of media notifications.
type MediaEvent struct {
	Media       recognition.Media `json:"media"`
	Description string            `json:"description"`
	MediaID     int               `json:"mediaId,omitempty"`
}

// UpdateEvent is the payload of update notifications.
type UpdateEvent struct {
	Entry models.Entry `json:"entry"`
	Error string       `json:"error,omitempty"`
}

// ListsEvent is the payload of lists.refreshed.
type ListsEvent struct {
	Category models.Category `json:"category"`
	Entries  int             `json:"entries"`
}

func (e *Engine) onTick(ctx context.Context) {
	if e.user == nil && !e.fetchingViewer && e.now().Sub(e.lastViewerTry) >= viewerRetryBackoff {
		e.fetchViewer(ctx)
	}

	wctx, cancel := context.WithTimeout(ctx, windowsTimeout)
	titles, err := e.windows.Titles(wctx)
	cancel()
	if err != nil {
		e.logger.Debug("tracker: list windows failed", slog.String("error", err.Error()))
	}

	rec, ok := e.recognizer.Recognize(titles)
	if !ok {
		e.clearCurrent(ctx)
	} else {
		e.observe(ctx, rec)
	}
	e.dispatch(ctx)
}

// observe records rec as the current recognition and applies it once it is
// resolved to a list entry.
func (e *Engine) observe(ctx context.Context, rec recognition.Media) {
	if e.current == nil || !e.current.SameMedia(rec) {
		e.cancelMatched(ctx)
		e.matched = nil
		e.logger.Info("tracker: media detected",
			slog.String("title", rec.Title),
			slog.String("category", rec.Category.String()),
			slog.String("progress", rec.Describe()))
		e.publish(KindMediaDetected, MediaEvent{Media: rec, Description: rec.Describe()})
	}
	e.current = &rec

	if e.matched == nil && !e.resolve(ctx, rec) {
		return
	}
	e.apply(ctx, rec)
}

// resolve looks rec up in the local lists and falls back to a remote search.
// It reports whether a match is available now.
func (e *Engine) resolve(ctx context.Context, rec recognition.Media) bool {
	c := e.lists[rec.Category]
	if c == nil {
		return false
	}
	if entry, ok := c.SearchForTitle(rec.Title); ok {
		e.matched = &match{category: rec.Category, mediaID: entry.MediaID}
		return true
	}
	if e.searching || e.user == nil {
		return false
	}
	if _, missed := e.misses[rec.Title]; missed {
		return false
	}
	e.searching = true
	e.spawn(ctx, func(ctx context.Context) event {
		results, err := e.remote.Search(ctx, rec.Title, rec.Category)
		if err != nil {
			return searchDone{rec: rec, err: err}
		}
		id, found := catalog.BestIDForSearch(results, rec.Title, rec.Oneshot)
		return searchDone{rec: rec, mediaID: id, found: found}
	})
	return false
}

// apply reconciles the current recognition against the matched entry and
// queues the change.
func (e *Engine) apply(ctx context.Context, rec recognition.Media) {
	m := e.matched
	res, ok := e.reconciler.Reconcile(e.lists[m.category], m.mediaID, rec, e.queue)
	if !ok {
		e.matched = nil
		return
	}
	if !res.NeedsUpdate {
		return
	}
	if m.queuedID != 0 && m.queuedID != res.Entry.MediaID {
		e.removeQueued(ctx, m.queuedID)
	}
	m.queuedID = res.Entry.MediaID
	e.queue.Enqueue(res.Entry)
	e.logger.Info("tracker: update queued",
		slog.Int("media_id", res.Entry.MediaID),
		slog.String("progress", res.Entry.ProgressString()),
		slog.Bool("retargeted", res.Retargeted()))
	e.publish(KindUpdateQueued, UpdateEvent{Entry: res.Entry})
}

func (e *Engine) clearCurrent(ctx context.Context) {
	if e.current == nil {
		return
	}
	e.cancelMatched(ctx)
	e.logger.Info("tracker: media cleared", slog.String("title", e.current.Title))
	e.publish(KindMediaCleared, MediaEvent{Media: *e.current})
	e.current = nil
	e.matched = nil
}

// cancelMatched drops the update queued for the current match, if any.
func (e *Engine) cancelMatched(ctx context.Context) {
	if e.matched == nil || e.matched.queuedID == 0 {
		return
	}
	e.removeQueued(ctx, e.matched.queuedID)
	e.matched.queuedID = 0
}

func (e *Engine) removeQueued(ctx context.Context, mediaID int) bool {
	entry, ok := e.queue.Remove(mediaID)
	if !ok {
		return false
	}
	e.logger.Info("tracker: update cancelled", slog.Int("media_id", mediaID))
	e.record(ctx, entry, store.OutcomeCancelled, nil)
	e.publish(KindUpdateCancelled, UpdateEvent{Entry: entry})
	return true
}

// dispatch sends the next due update. Only one is ever in flight.
func (e *Engine) dispatch(ctx context.Context) {
	entry, ok := e.queue.Dequeue()
	if !ok {
		return
	}
	if e.matched != nil && e.matched.queuedID == entry.MediaID {
		e.matched.queuedID = 0
	}
	e.logger.Info("tracker: sending update", slog.Int("media_id", entry.MediaID), slog.String("progress", entry.ProgressString()))
	e.spawn(ctx, func(ctx context.Context) event {
		saved, err := e.remote.PushUpdate(ctx, entry)
		return updateDone{sent: entry, saved: saved, err: err}
	})
}

func (e *Engine) onUpdateDone(ctx context.Context, ev updateDone) {
	e.queue.Done()
	if ev.err != nil {
		e.logger.Error("tracker: update failed", slog.Int("media_id", ev.sent.MediaID), slog.String("error", ev.err.Error()))
		e.record(ctx, ev.sent, store.OutcomeFailed, ev.err)
		e.publish(KindUpdateFailed, UpdateEvent{Entry: ev.sent, Error: ev.err.Error()})
		return
	}
	// Only confirmed progress reaches the lists, so a failed or cancelled
	// update is detected again on a later tick.
	confirmed := ev.saved
	if confirmed.ID == 0 {
		confirmed = ev.sent
	}
	if ref := e.lists[ev.sent.Media.Type].EntryRef(ev.sent.MediaID); ref != nil && confirmed.ID == ref.ID {
		ref.Status = confirmed.Status
		ref.Progress = confirmed.Progress
		ref.ProgressVolumes = confirmed.ProgressVolumes
		ref.StartedAt = confirmed.StartedAt
		ref.CompletedAt = confirmed.CompletedAt
	}
	e.logger.Info("tracker: update sent", slog.Int("media_id", ev.sent.MediaID), slog.String("progress", ev.sent.ProgressString()))
	e.record(ctx, ev.sent, store.OutcomeSent, nil)
	e.publish(KindUpdateSent, UpdateEvent{Entry: ev.sent})
	e.dispatch(ctx)
}

func (e *Engine) onSearchDone(ctx context.Context, ev searchDone) {
	e.searching = false
	if ev.err != nil {
		e.logger.Warn("tracker: search failed", slog.String("title", ev.rec.Title), slog.String("error", ev.err.Error()))
		return
	}
	if e.current == nil || !e.current.SameMedia(ev.rec) {
		return
	}
	if !ev.found || e.lists[ev.rec.Category].EntryRef(ev.mediaID) == nil {
		e.misses[ev.rec.Title] = struct{}{}
		e.logger.Info("tracker: media not found", slog.String("title", ev.rec.Title))
		e.publish(KindMediaNotFound, MediaEvent{Media: ev.rec, Description: ev.rec.Describe()})
		return
	}
	e.matched = &match{category: ev.rec.Category, mediaID: ev.mediaID}
	e.apply(ctx, *e.current)
	e.dispatch(ctx)
}

func (e *Engine) refresh(ctx context.Context) {
	if e.user == nil {
		e.fetchViewer(ctx)
		return
	}
	for _, category := range models.Categories {
		e.fetchLists(ctx, category)
	}
}

func (e *Engine) fetchViewer(ctx context.Context) {
	if e.fetchingViewer {
		return
	}
	e.fetchingViewer = true
	e.lastViewerTry = e.now()
	e.spawn(ctx, func(ctx context.Context) event {
		u, err := e.remote.FetchViewer(ctx)
		return viewerLoaded{user: u, err: err}
	})
}

func (e *Engine) onViewerLoaded(ctx context.Context, ev viewerLoaded) {
	e.fetchingViewer = false
	if ev.err != nil {
		e.logger.Warn("tracker: fetch viewer failed", slog.String("error", ev.err.Error()))
		return
	}
	u := ev.user
	e.user = &u
	e.logger.Info("tracker: viewer loaded", slog.String("name", u.Name), slog.Int("id", u.ID))
	for _, category := range models.Categories {
		e.fetchLists(ctx, category)
	}
}

func (e *Engine) fetchLists(ctx context.Context, category models.Category) {
	if e.fetchingLists[category] {
		return
	}
	e.fetchingLists[category] = true
	userID := e.user.ID
	e.spawn(ctx, func(ctx context.Context) event {
		c, err := e.remote.FetchLists(ctx, userID, category)
		return listsLoaded{category: category, collection: c, err: err}
	})
}

func (e *Engine) onListsLoaded(ctx context.Context, ev listsLoaded) {
	e.fetchingLists[ev.category] = false
	if ev.err != nil {
		e.logger.Warn("tracker: fetch lists failed", slog.String("category", ev.category.String()), slog.String("error", ev.err.Error()))
		return
	}
	e.lists[ev.category] = ev.collection
	// Matches and misses were computed against the replaced lists.
	if e.matched != nil && e.matched.category == ev.category {
		e.matched = nil
	}
	for title := range e.misses {
		delete(e.misses, title)
	}
	e.logger.Info("tracker: lists refreshed", slog.String("category", ev.category.String()), slog.Int("entries", ev.collection.Len()))
	e.publish(KindListsRefreshed, ListsEvent{Category: ev.category, Entries: ev.collection.Len()})

	if e.store != nil {
		if _, err := e.store.SaveSnapshot(ctx, ev.collection); err != nil {
			e.logger.Warn("tracker: save snapshot failed", slog.String("error", err.Error()))
		}
	}
}

func (e *Engine) cancel(ctx context.Context, mediaID int) bool {
	if !e.removeQueued(ctx, mediaID) {
		return false
	}
	if e.matched != nil && e.matched.queuedID == mediaID {
		e.matched.queuedID = 0
	}
	return true
}

func (e *Engine) lookup(query string, category models.Category) lookupResult {
	categories := models.Categories
	if category != "" {
		categories = []models.Category{category}
	}
	for _, c := range categories {
		if entry, ok := e.lists[c].SearchForTitle(query); ok {
			return lookupResult{entry: entry.Clone(), found: true}
		}
	}
	return lookupResult{}
}

func (e *Engine) record(ctx context.Context, entry models.Entry, outcome store.Outcome, cause error) {
	if e.store == nil {
		return
	}
	r := store.UpdateRecord{
		MediaID:         entry.MediaID,
		EntryID:         entry.ID,
		Category:        entry.Media.Type,
		Title:           entry.Media.PreferredTitle(),
		Status:          entry.Status,
		Progress:        entry.Progress,
		ProgressVolumes: entry.ProgressVolumes,
		Outcome:         outcome,
		CreatedAt:       e.now().UTC(),
	}
	if cause != nil {
		r.Error = cause.Error()
	}
	if _, err := e.store.RecordUpdate(ctx, r); err != nil {
		e.logger.Warn("tracker: record update failed", slog.String("error", err.Error()))
	}
}
