package kv

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/tabvault/tabvault/internal/errors"
)

// Sync partition quota limits, matching the host browser's per-item and
// total-item ceilings for the replicated storage area.
const (
	DefaultSyncItemMaxBytes = 8192
	DefaultSyncMaxItems     = 512
)

// syncSchemaVersion is the latest sync partition schema version.
// Bump this when adding migrations.
const syncSchemaVersion = 1

// SQLitePartition is the "sync" partition: small, replicated across
// devices by an external sync agent, with a strict per-item size ceiling.
// Backed by a single-table SQLite database in WAL mode.
type SQLitePartition struct {
	db           *sql.DB
	itemMaxBytes int
	maxItems     int
	notifier
}

// SQLiteOption configures a SQLitePartition.
type SQLiteOption func(*SQLitePartition)

// WithItemMaxBytes overrides the per-item size ceiling. Zero or negative
// disables the check.
func WithItemMaxBytes(n int) SQLiteOption {
	return func(p *SQLitePartition) { p.itemMaxBytes = n }
}

// WithMaxItems overrides the total item count ceiling. Zero or negative
// disables the check.
func WithMaxItems(n int) SQLiteOption {
	return func(p *SQLitePartition) { p.maxItems = n }
}

// OpenSQLite opens (creating if needed) the sync partition at
// baseDir/sync.db. The baseDir parameter allows tests to use t.TempDir().
func OpenSQLite(baseDir string, opts ...SQLiteOption) (*SQLitePartition, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	_ = os.Chmod(baseDir, 0700)

	dbPath := filepath.Join(baseDir, "sync.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sync partition: %w", err)
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrateSync(db); err != nil {
		db.Close()
		return nil, err
	}

	_ = os.Chmod(dbPath, 0600)

	p := &SQLitePartition{
		db:           db,
		itemMaxBytes: DefaultSyncItemMaxBytes,
		maxItems:     DefaultSyncMaxItems,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// migrateSync applies schema migrations based on user_version.
func migrateSync(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return fmt.Errorf("failed to get user_version: %w", err)
	}

	// Migration 0 -> 1: Initial schema (v1)
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS kv (
		  key        TEXT PRIMARY KEY,
		  value      BLOB NOT NULL,
		  updated_at INTEGER NOT NULL
		);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", syncSchemaVersion)); err != nil {
			return fmt.Errorf("failed to set user_version: %w", err)
		}
	}

	// Future migrations go here:
	// if version < 2 { ... }

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// Area identifies this partition as the sync namespace.
func (p *SQLitePartition) Area() Area { return AreaSync }

// Get retrieves the stored values for the given keys.
func (p *SQLitePartition) Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error) {
	result := make(map[string]json.RawMessage, len(keys))
	stmt, err := p.db.PrepareContext(ctx, "SELECT value FROM kv WHERE key = ?")
	if err != nil {
		return nil, fmt.Errorf("sync get: %w", err)
	}
	defer stmt.Close()

	for _, key := range keys {
		var value []byte
		err := stmt.QueryRowContext(ctx, key).Scan(&value)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("sync get %q: %w", key, err)
		}
		result[key] = json.RawMessage(value)
	}
	return result, nil
}

// Set stores every item, enforcing the per-item size ceiling and the total
// item count ceiling. The whole batch lands in one transaction.
func (p *SQLitePartition) Set(ctx context.Context, items map[string]json.RawMessage) error {
	if len(items) == 0 {
		return nil
	}

	for key, value := range items {
		if p.itemMaxBytes > 0 && len(value) > p.itemMaxBytes {
			return errors.NewQuotaExceeded(key, p.itemMaxBytes, len(value))
		}
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sync set: %w", err)
	}
	defer tx.Rollback()

	now := nowMillis()
	for key, value := range items {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			key, []byte(value), now)
		if err != nil {
			return fmt.Errorf("sync set %q: %w", key, err)
		}
	}

	if p.maxItems > 0 {
		var count int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM kv").Scan(&count); err != nil {
			return fmt.Errorf("sync set: %w", err)
		}
		if count > p.maxItems {
			return errors.NewQuotaExceeded("", p.maxItems, count)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sync set: %w", err)
	}

	p.emit(Change{Area: AreaSync, Keys: mapKeys(items)})
	return nil
}

// Remove deletes the given keys. Absent keys are ignored.
func (p *SQLitePartition) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sync remove: %w", err)
	}
	defer tx.Rollback()

	for _, key := range keys {
		if _, err := tx.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
			return fmt.Errorf("sync remove %q: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sync remove: %w", err)
	}

	p.emit(Change{Area: AreaSync, Keys: keys})
	return nil
}

// Clear deletes every key in the partition.
func (p *SQLitePartition) Clear(ctx context.Context) error {
	keys, err := p.Keys(ctx)
	if err != nil {
		return err
	}
	if _, err := p.db.ExecContext(ctx, "DELETE FROM kv"); err != nil {
		return fmt.Errorf("sync clear: %w", err)
	}
	p.emit(Change{Area: AreaSync, Keys: keys})
	return nil
}

// Keys lists every key currently stored.
func (p *SQLitePartition) Keys(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, "SELECT key FROM kv")
	if err != nil {
		return nil, fmt.Errorf("sync keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("sync keys: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Watch registers a change listener.
func (p *SQLitePartition) Watch(fn func(Change)) func() {
	return p.watch(fn)
}

// Close releases the database handle.
func (p *SQLitePartition) Close() error {
	return p.db.Close()
}
