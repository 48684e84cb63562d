package tracker

import (
	"github.com/starford/fubuki/internal/catalog"
	"github.com/starford/fubuki/internal/models"
	"github.com/starford/fubuki/internal/recognition"
)

// event is the closed set of messages handled by the engine goroutine.
type event interface {
	isEvent()
}

// tick asks for one recognition pass.
type tick struct{}

type viewerLoaded struct {
	user models.User
	err  error
}

type listsLoaded struct {
	category   models.Category
	collection *catalog.Collection
	err        error
}

// searchDone carries the outcome of a remote title search started for rec.
type searchDone struct {
	rec     recognition.Media
	mediaID int
	found   bool
	err     error
}

type updateDone struct {
	sent  models.Entry
	saved models.Entry
	err   error
}

type refreshRequested struct{}

type cancelRequested struct {
	mediaID int
	reply   chan bool
}

type statusRequested struct {
	reply chan Status
}

type lookupRequested struct {
	query    string
	category models.Category
	reply    chan lookupResult
}

type lookupResult struct {
	entry models.Entry
	found bool
}

func (tick) isEvent()             {}
func (viewerLoaded) isEvent()     {}
func (listsLoaded) isEvent()      {}
func (searchDone) isEvent()       {}
func (updateDone) isEvent()       {}
func (refreshRequested) isEvent() {}
func (cancelRequested) isEvent()  {}
func (statusRequested) isEvent()  {}
func (lookupRequested) isEvent()  {}

// Notification kinds.
const (
	KindMediaDetected   = "media.detected"
	KindMediaCleared    = "media.cleared"
	KindMediaNotFound   = "media.not_found"
	KindUpdateQueued    = "update.queued"
	KindUpdateCancelled = "update.cancelled"
	KindUpdateSent      = "update.sent"
	KindUpdateFailed    = "update.failed"
	KindListsRefreshed  = "lists.refreshed"
)

// Notifier receives engine notifications. It is called from the engine
// goroutine and must not block.
type Notifier func(kind string, data any)
