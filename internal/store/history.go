package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/starford/fubuki/internal/apperr"
	"github.com/starford/fubuki/internal/catalog"
	"github.com/starford/fubuki/internal/models"
)

// DefaultHistoryLimit caps History when no limit is given.
const DefaultHistoryLimit = 50

// RecordUpdate stores r, assigning an id and timestamp when missing.
func (db *DB) RecordUpdate(ctx context.Context, r UpdateRecord) (UpdateRecord, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO update_history
			(id, media_id, entry_id, category, title, status, progress, progress_volumes, outcome, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.MediaID, r.EntryID, string(r.Category), r.Title, string(r.Status),
		nullInt(r.Progress), nullInt(r.ProgressVolumes), string(r.Outcome), r.Error, r.CreatedAt)
	if err != nil {
		return UpdateRecord{}, fmt.Errorf("store: record update: %w", err)
	}
	return r, nil
}

// History returns the most recent records first. A non-positive limit
// selects DefaultHistoryLimit.
func (db *DB) History(ctx context.Context, limit int) ([]UpdateRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, media_id, entry_id, category, title, status, progress, progress_volumes, outcome, error, created_at
		FROM update_history
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: history: %w", err)
	}
	defer rows.Close()

	var out []UpdateRecord
	for rows.Next() {
		var (
			r                         UpdateRecord
			category, status, outcome string
			progress, volumes         sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &r.MediaID, &r.EntryID, &category, &r.Title, &status,
			&progress, &volumes, &outcome, &r.Error, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan history: %w", err)
		}
		r.Category = models.Category(category)
		r.Status = models.Status(status)
		r.Outcome = Outcome(outcome)
		r.Progress = intFromNull(progress)
		r.ProgressVolumes = intFromNull(volumes)
		out = append(out, r)
	}
	return out, rows.Err()
}

// SaveSnapshot stores c as the last known list for its category. It reports
// false when the stored snapshot already has identical content.
func (db *DB) SaveSnapshot(ctx context.Context, c *catalog.Collection) (bool, error) {
	if c == nil || !c.Category.Valid() {
		return false, fmt.Errorf("store: save snapshot: %w", apperr.ErrInvalid)
	}
	payload, err := json.Marshal(c)
	if err != nil {
		return false, fmt.Errorf("store: encode snapshot: %w", err)
	}
	sum := sha256.Sum256(payload)
	checksum := hex.EncodeToString(sum[:])

	var existing string
	err = db.conn.QueryRowContext(ctx, `SELECT checksum FROM list_snapshots WHERE category = ?`, string(c.Category)).Scan(&existing)
	switch {
	case err == nil && existing == checksum:
		return false, nil
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return false, fmt.Errorf("store: read snapshot checksum: %w", err)
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO list_snapshots (category, checksum, payload, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(category) DO UPDATE SET
			checksum   = excluded.checksum,
			payload    = excluded.payload,
			updated_at = excluded.updated_at
	`, string(c.Category), checksum, string(payload), time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("store: save snapshot: %w", err)
	}
	return true, nil
}

// LoadSnapshot returns the last saved list for category, or
// apperr.ErrNotFound when none was saved.
func (db *DB) LoadSnapshot(ctx context.Context, category models.Category) (*catalog.Collection, error) {
	var payload string
	err := db.conn.QueryRowContext(ctx, `SELECT payload FROM list_snapshots WHERE category = ?`, string(category)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: snapshot %s: %w", category, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: load snapshot: %w", err)
	}
	var c catalog.Collection
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return nil, fmt.Errorf("store: decode snapshot: %w", err)
	}
	return &c, nil
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func intFromNull(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
