// Package tracker runs the recognition loop: it reads window titles, matches
// them to the viewer's lists, and pushes debounced progress updates.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/fubuki/internal/apperr"
	"github.com/starford/fubuki/internal/catalog"
	"github.com/starford/fubuki/internal/models"
	"github.com/starford/fubuki/internal/queue"
	"github.com/starford/fubuki/internal/recognition"
	"github.com/starford/fubuki/internal/reconcile"
	"github.com/starford/fubuki/internal/store"
	"github.com/starford/fubuki/internal/windows"
)

const (
	// DefaultInterval is the time between recognition passes.
	DefaultInterval = 2 * time.Second

	windowsTimeout     = time.Second
	viewerRetryBackoff = time.Minute
	eventBuffer        = 32
)

// Remote is the catalog service the engine mirrors and updates.
type Remote interface {
	FetchViewer(ctx context.Context) (models.User, error)
	FetchLists(ctx context.Context, userID int, category models.Category) (*catalog.Collection, error)
	PushUpdate(ctx context.Context, e models.Entry) (models.Entry, error)
	Search(ctx context.Context, query string, category models.Category) ([]models.Media, error)
}

// Recognizer turns window titles into recognized media.
type Recognizer interface {
	Recognize(titles []string) (recognition.Media, bool)
}

// match is the list entry the current recognition resolved to.
type match struct {
	category models.Category
	mediaID  int
	// queuedID is the media id of the update this match put in the queue,
	// which is the sequel's id after a retarget.
	queuedID int
}

// Engine owns the mirrored lists, the update queue and the current
// recognition. All of that state is touched only by the goroutine in Run;
// other goroutines talk to it through events.
type Engine struct {
	remote     Remote
	windows    windows.Source
	recognizer Recognizer
	store      store.Store
	queue      *queue.Queue
	reconciler *reconcile.Reconciler
	logger     *slog.Logger
	notify     Notifier
	interval   time.Duration
	now        func() time.Time

	events chan event
	wg     sync.WaitGroup

	user           *models.User
	fetchingViewer bool
	lastViewerTry  time.Time
	fetchingLists  map[models.Category]bool
	lists          map[models.Category]*catalog.Collection

	current   *recognition.Media
	matched   *match
	searching bool
	// misses holds titles a remote search could not resolve against the
	// current lists, so they are not searched again every tick.
	misses map[string]struct{}
}

// Option configures an Engine.
type Option func(*Engine)

// WithStore persists update history and list snapshots.
func WithStore(s store.Store) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithNotifier sets the notification callback.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) {
		e.notify = n
	}
}

// WithInterval overrides DefaultInterval.
func WithInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.interval = d
		}
	}
}

// WithClock overrides time.Now for date stamping and retry backoff.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New returns an Engine. q must be owned exclusively by the engine.
func New(remote Remote, source windows.Source, recognizer Recognizer, q *queue.Queue, opts ...Option) *Engine {
	e := &Engine{
		remote:        remote,
		windows:       source,
		recognizer:    recognizer,
		queue:         q,
		logger:        slog.New(slog.DiscardHandler),
		interval:      DefaultInterval,
		now:           time.Now,
		events:        make(chan event, eventBuffer),
		fetchingLists: make(map[models.Category]bool, len(models.Categories)),
		lists:         make(map[models.Category]*catalog.Collection, len(models.Categories)),
		misses:        make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.reconciler = reconcile.New(e.now)
	return e
}

// Run processes ticks and events until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("tracker: started", slog.Duration("interval", e.interval))
	e.warmStart(ctx)
	e.handle(ctx, refreshRequested{})

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	e.handle(ctx, tick{})

	for {
		select {
		case <-ctx.Done():
			e.wg.Wait()
			e.logger.Info("tracker: stopped")
			return nil
		case <-ticker.C:
			e.handle(ctx, tick{})
		case ev := <-e.events:
			e.handle(ctx, ev)
		}
	}
}

func (e *Engine) handle(ctx context.Context, ev event) {
	switch ev := ev.(type) {
	case tick:
		e.onTick(ctx)
	case viewerLoaded:
		e.onViewerLoaded(ctx, ev)
	case listsLoaded:
		e.onListsLoaded(ctx, ev)
	case searchDone:
		e.onSearchDone(ctx, ev)
	case updateDone:
		e.onUpdateDone(ctx, ev)
	case refreshRequested:
		e.refresh(ctx)
	case cancelRequested:
		ev.reply <- e.cancel(ctx, ev.mediaID)
	case statusRequested:
		ev.reply <- e.status()
	case lookupRequested:
		ev.reply <- e.lookup(ev.query, ev.category)
	default:
		panic(fmt.Sprintf("tracker: unhandled event %T", ev))
	}
}

// spawn runs fn off the engine goroutine and feeds its result back as an
// event.
func (e *Engine) spawn(ctx context.Context, fn func(ctx context.Context) event) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ev := fn(ctx)
		select {
		case e.events <- ev:
		case <-ctx.Done():
		}
	}()
}

func (e *Engine) publish(kind string, data any) {
	if e.notify != nil {
		e.notify(kind, data)
	}
}

func (e *Engine) warmStart(ctx context.Context) {
	if e.store == nil {
		return
	}
	for _, category := range models.Categories {
		c, err := e.store.LoadSnapshot(ctx, category)
		if err != nil {
			if !errors.Is(err, apperr.ErrNotFound) {
				e.logger.Warn("tracker: load snapshot failed", slog.String("category", category.String()), slog.String("error", err.Error()))
			}
			continue
		}
		e.lists[category] = c
		e.logger.Info("tracker: warm start", slog.String("category", category.String()), slog.Int("entries", c.Len()))
	}
}
