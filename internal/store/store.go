package store

import (
	"context"
	"time"

	"github.com/starford/fubuki/internal/catalog"
	"github.com/starford/fubuki/internal/models"
)

// Outcome is how an update left the queue.
type Outcome string

// Update outcomes.
const (
	OutcomeSent      Outcome = "sent"
	OutcomeFailed    Outcome = "failed"
	OutcomeCancelled Outcome = "cancelled"
)

// UpdateRecord is one row of update history.
type UpdateRecord struct {
	ID              string          `json:"id"`
	MediaID         int             `json:"mediaId"`
	EntryID         int             `json:"entryId"`
	Category        models.Category `json:"category"`
	Title           string          `json:"title"`
	Status          models.Status   `json:"status,omitempty"`
	Progress        *int            `json:"progress,omitempty"`
	ProgressVolumes *int            `json:"progressVolumes,omitempty"`
	Outcome         Outcome         `json:"outcome"`
	Error           string          `json:"error,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// Store defines the persistence operations the tracker depends on.
// Consumers should depend on this interface rather than the concrete *DB
// type so tests can substitute fakes.
type Store interface {
	RecordUpdate(ctx context.Context, r UpdateRecord) (UpdateRecord, error)
	History(ctx context.Context, limit int) ([]UpdateRecord, error)
	SaveSnapshot(ctx context.Context, c *catalog.Collection) (bool, error)
	LoadSnapshot(ctx context.Context, category models.Category) (*catalog.Collection, error)
	Ping() error
	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)
