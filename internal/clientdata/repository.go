// Package clientdata persists the last known good deal batch so the dashboard
// can serve stale data after a restart while the sheet source is down.
// Data is stored as encoded blobs with expiration timestamps.
package clientdata

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// DefaultTTL is how long a snapshot is kept when no TTL is configured
const DefaultTTL = 24 * time.Hour

// Repository stores snapshots in the deal_snapshots SQLite table
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRepository creates a new snapshot repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Store saves data with expiration = now + ttl.
// Uses INSERT OR REPLACE to upsert data.
func (r *Repository) Store(ctx context.Context, key string, data interface{}, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	now := r.now()
	_, err = r.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO deal_snapshots (key, data, stored_at, expires_at) VALUES (?, ?, ?, ?)",
		key, string(jsonData), now.Unix(), now.Add(ttl).Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store snapshot %s: %w", key, err)
	}

	return nil
}

// Get decodes the snapshot into dest regardless of expiration status.
// Stale data is better than no data when the source fails.
// Returns false, nil if the key doesn't exist.
func (r *Repository) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	var data string
	err := r.db.QueryRowContext(ctx, "SELECT data FROM deal_snapshots WHERE key = ?", key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get snapshot %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return false, fmt.Errorf("failed to decode snapshot %s: %w", key, err)
	}
	return true, nil
}

// Delete removes a specific entry.
func (r *Repository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM deal_snapshots WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", key, err)
	}
	return nil
}

// DeleteExpired removes all rows where expires_at < now.
// Returns the number of rows deleted.
func (r *Repository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM deal_snapshots WHERE expires_at < ?", r.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired snapshots: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}
