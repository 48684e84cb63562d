// Package reconcile maps recognized media onto the viewer's list entries and
// computes the progress change to push upstream.
package reconcile

import (
	"time"

	"github.com/starford/fubuki/internal/catalog"
	"github.com/starford/fubuki/internal/models"
	"github.com/starford/fubuki/internal/recognition"
)

// Result is the outcome of reconciling one recognition against a collection.
type Result struct {
	// Entry is a snapshot of the list entry after progress was applied.
	Entry models.Entry
	// NeedsUpdate is true when the entry changed and should be pushed.
	NeedsUpdate bool
	// Progress is the progress value applied after offset correction.
	Progress *float64
	// MatchedID is the media id the title matched; it differs from
	// Entry.MediaID when the progress overflowed into the sequel.
	MatchedID int
}

// Retargeted reports whether the update moved to the matched media's sequel.
func (r Result) Retargeted() bool {
	return r.MatchedID != r.Entry.MediaID
}

// Reconciler applies recognized progress to list entries.
type Reconciler struct {
	now func() time.Time
}

// New returns a Reconciler stamping dates from now, or time.Now when nil.
func New(now func() time.Time) *Reconciler {
	if now == nil {
		now = time.Now
	}
	return &Reconciler{now: now}
}

// Pending reports the update already waiting or in flight for a media id.
// It is the baseline progress is compared against, so an unsent change is
// not reported twice.
type Pending interface {
	Pending(mediaID int) (models.Entry, bool)
}

// Reconcile applies rec to a copy of the entry tracking mediaID in c. The
// copy starts from the pending update for that media when there is one, and
// from the list entry otherwise. c is never modified; it only changes once
// the remote service confirms an update. pending may be nil. It reports
// false when mediaID is not tracked in c.
func (r *Reconciler) Reconcile(c *catalog.Collection, mediaID int, rec recognition.Media, pending Pending) (Result, bool) {
	ref := c.EntryRef(mediaID)
	if ref == nil {
		return Result{}, false
	}

	target, progress := correctAbsolute(c, ref, rec.Progress)
	entry := target.Clone()
	if pending != nil {
		if p, ok := pending.Pending(target.MediaID); ok {
			entry = p
		}
	}
	updated := entry.UpdateProgress(progress, rec.Volume, models.Today(r.now()))
	return Result{
		Entry:       entry,
		NeedsUpdate: updated,
		Progress:    progress,
		MatchedID:   mediaID,
	}, true
}

// correctAbsolute turns an absolute episode number that exceeds the season
// into a within-season number, possibly on the sequel. Any ambiguity leaves
// the recognized number untouched.
func correctAbsolute(c *catalog.Collection, ref *models.Entry, progress *float64) (*models.Entry, *float64) {
	if ref.Media.Type != models.CategoryAnime || progress == nil || ref.Media.Episodes == nil {
		return ref, progress
	}
	p := int(*progress)
	episodes := *ref.Media.Episodes
	if p <= episodes {
		return ref, progress
	}

	if offset, ok := ProgressOffset(c, *ref, p); ok && withinSeason(offset, ref.Media.Episodes) {
		return ref, floatPtr(offset)
	}
	if offset, sequelID, ok := ProgressOffsetForSequel(c, ref.MediaID, p); ok {
		sequel := c.EntryRef(sequelID)
		if sequel != nil && withinSeason(offset, sequel.Media.Episodes) {
			return sequel, floatPtr(offset)
		}
	}
	return ref, progress
}

// withinSeason accepts an offset landing on an episode of the season. A zero
// offset, or one past the season's end, is not trusted for the current
// season and is tried against the sequel instead.
func withinSeason(offset int, episodes *int) bool {
	return offset > 0 && (episodes == nil || offset <= *episodes)
}

func floatPtr(v int) *float64 {
	f := float64(v)
	return &f
}
