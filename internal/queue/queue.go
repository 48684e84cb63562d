// Package queue holds list updates until they have settled for the
// configured delay and releases them one at a time.
package queue

import (
	"time"

	"github.com/starford/fubuki/internal/models"
)

// DelaySource supplies the debounce delay. It is consulted on every Dequeue
// so runtime changes apply to entries already queued.
type DelaySource interface {
	UpdateDelay() time.Duration
}

// Item is a queued update.
type Item struct {
	Entry    models.Entry `json:"entry"`
	QueuedAt time.Time    `json:"queuedAt"`
}

// Queue is a FIFO of pending updates keyed by media id. It is not safe for
// concurrent use; the owning goroutine serializes access.
type Queue struct {
	delay DelaySource
	now   func() time.Time

	items    []Item
	inFlight *models.Entry
}

// New returns an empty Queue. now defaults to time.Now.
func New(delay DelaySource, now func() time.Time) *Queue {
	if now == nil {
		now = time.Now
	}
	return &Queue{delay: delay, now: now}
}

// Enqueue adds e, or replaces the snapshot already queued for the same
// media. A replaced entry keeps its original queue time so the delay runs
// from the first observation. It reports whether e was newly added.
func (q *Queue) Enqueue(e models.Entry) bool {
	for i := range q.items {
		if q.items[i].Entry.MediaID == e.MediaID {
			q.items[i].Entry = e.Clone()
			return false
		}
	}
	q.items = append(q.items, Item{Entry: e.Clone(), QueuedAt: q.now()})
	return true
}

// Dequeue pops the oldest entry once its delay has elapsed and no other
// update is in flight. The popped entry is in flight until Done is called.
func (q *Queue) Dequeue() (models.Entry, bool) {
	if q.inFlight != nil || len(q.items) == 0 {
		return models.Entry{}, false
	}
	front := q.items[0]
	if q.now().Sub(front.QueuedAt) < q.delay.UpdateDelay() {
		return models.Entry{}, false
	}
	q.items = q.items[1:]
	e := front.Entry
	q.inFlight = &e
	return e.Clone(), true
}

// Done releases the in-flight slot, whatever the outcome of the request.
func (q *Queue) Done() {
	q.inFlight = nil
}

// InFlight returns the entry currently being sent.
func (q *Queue) InFlight() (models.Entry, bool) {
	if q.inFlight == nil {
		return models.Entry{}, false
	}
	return q.inFlight.Clone(), true
}

// Remove drops the queued update for mediaID regardless of how long it has
// waited. An in-flight update cannot be removed.
func (q *Queue) Remove(mediaID int) (models.Entry, bool) {
	for i := range q.items {
		if q.items[i].Entry.MediaID == mediaID {
			e := q.items[i].Entry
			q.items = append(q.items[:i], q.items[i+1:]...)
			return e, true
		}
	}
	return models.Entry{}, false
}

// Pending returns the snapshot queued or in flight for mediaID. The queued
// one is newer when both exist.
func (q *Queue) Pending(mediaID int) (models.Entry, bool) {
	for i := range q.items {
		if q.items[i].Entry.MediaID == mediaID {
			return q.items[i].Entry.Clone(), true
		}
	}
	if q.inFlight != nil && q.inFlight.MediaID == mediaID {
		return q.inFlight.Clone(), true
	}
	return models.Entry{}, false
}

// Contains reports whether an update for mediaID is queued.
func (q *Queue) Contains(mediaID int) bool {
	for i := range q.items {
		if q.items[i].Entry.MediaID == mediaID {
			return true
		}
	}
	return false
}

// Len returns the number of queued updates, excluding the in-flight one.
func (q *Queue) Len() int {
	return len(q.items)
}

// Snapshot returns copies of the queued items in dequeue order.
func (q *Queue) Snapshot() []Item {
	out := make([]Item, len(q.items))
	for i, it := range q.items {
		out[i] = Item{Entry: it.Entry.Clone(), QueuedAt: it.QueuedAt}
	}
	return out
}
