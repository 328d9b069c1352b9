// Package store implements the storage manager: the sole authority for
// reading and writing workspace, tab-set, highlight, and settings records.
// It routes each record type to its partition, maintains the single-active
// invariant and the highlight cap, and performs cascading deletes.
//
// Error posture is deliberately two-tier: reads degrade to empty or
// default values (most callers are UI rendering paths where a transient
// backend glitch should not crash the interface) while writes fail loudly,
// since silently dropping a user's explicit action would lose data.
package store

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/tabvault/tabvault/internal/errors"
	"github.com/tabvault/tabvault/internal/kv"
)

// Fixed key names per record type. Each record type is confined to one
// statically known key within one partition, so concurrent writers to
// different record types never interfere.
const (
	KeyWorkspaces      = "workspaces"        // sync
	KeySettings        = "settings"          // sync
	KeyActiveWorkspace = "activeWorkspaceId" // sync
	KeyTabSets         = "tabSets"           // local
	KeyHighlights      = "highlights"        // local
	KeyTasks           = "tasks"             // local
)

// SnapshotVersion identifies the raw export snapshot format.
const SnapshotVersion = "1.0.0"

// Manager is the storage manager. Construct one per process with
// NewManager and pass it to callers; tests construct isolated instances
// over in-memory partitions.
//
// The mutex serializes every read-modify-write sequence within this
// process. A second process over the same partitions can still race; the
// backend offers no cross-process transaction, and the next successful
// composite operation re-derives correct state.
type Manager struct {
	sync  kv.Partition
	local kv.Partition
	mu    sync.Mutex
}

// NewManager creates a Manager over the given sync and local partitions.
func NewManager(syncPart, localPart kv.Partition) *Manager {
	return &Manager{sync: syncPart, local: localPart}
}

// SyncPartition exposes the sync partition for snapshot-level collaborators.
func (m *Manager) SyncPartition() kv.Partition { return m.sync }

// LocalPartition exposes the local partition for the quick-notes namespace
// and snapshot-level collaborators.
func (m *Manager) LocalPartition() kv.Partition { return m.local }

// getJSON reads and decodes one key. Returns false if the key is absent.
func getJSON(ctx context.Context, p kv.Partition, key string, out any) (bool, error) {
	items, err := p.Get(ctx, key)
	if err != nil {
		return false, err
	}
	raw, ok := items[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

// setJSON encodes and writes one key.
func setJSON(ctx context.Context, p kv.Partition, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.Set(ctx, map[string]json.RawMessage{key: raw})
}

// readDegraded reads and decodes one key for a non-fatal read path. On
// backend failure it logs and reports absent, so callers fall back to
// their empty value.
func readDegraded(ctx context.Context, p kv.Partition, key string, out any) bool {
	found, err := getJSON(ctx, p, key, out)
	if err != nil {
		log.Printf("store: degraded read of %q: %v", key, err)
		return false
	}
	return found
}

// writeFailed wraps a backend error for a fail-loud write path.
func writeFailed(op string, err error) error {
	if vErr, ok := err.(*errors.VaultError); ok && vErr.Code == errors.ErrQuotaExceeded {
		return vErr
	}
	return errors.NewWriteFailed(op, err)
}
