package store

import (
	"context"
	"encoding/json"

	"github.com/tabvault/tabvault/internal/kv"
	"github.com/tabvault/tabvault/internal/record"
)

// Snapshot is a verbatim dump of both partitions' raw key/value contents.
// It is not a normalized schema; import writes the maps back additively.
type Snapshot struct {
	Sync       map[string]json.RawMessage `json:"sync"`
	Local      map[string]json.RawMessage `json:"local"`
	ExportedAt int64                      `json:"exportedAt"`
	Version    string                     `json:"version"`
}

// ExportData dumps every key in both partitions. Fails loudly.
func (m *Manager) ExportData(ctx context.Context) (*Snapshot, error) {
	syncDump, err := dumpPartition(ctx, m.sync)
	if err != nil {
		return nil, writeFailed("export data", err)
	}
	localDump, err := dumpPartition(ctx, m.local)
	if err != nil {
		return nil, writeFailed("export data", err)
	}
	return &Snapshot{
		Sync:       syncDump,
		Local:      localDump,
		ExportedAt: record.Now(),
		Version:    SnapshotVersion,
	}, nil
}

// ImportData writes the snapshot's key maps verbatim into the respective
// partitions. The merge is additive at the backend level: existing keys
// not present in the snapshot are left alone. Fails loudly.
func (m *Manager) ImportData(ctx context.Context, snap *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(snap.Sync) > 0 {
		if err := m.sync.Set(ctx, snap.Sync); err != nil {
			return writeFailed("import data", err)
		}
	}
	if len(snap.Local) > 0 {
		if err := m.local.Set(ctx, snap.Local); err != nil {
			return writeFailed("import data", err)
		}
	}
	return nil
}

// ClearAllData clears both partitions entirely. Fails loudly.
func (m *Manager) ClearAllData(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.sync.Clear(ctx); err != nil {
		return writeFailed("clear data", err)
	}
	if err := m.local.Clear(ctx); err != nil {
		return writeFailed("clear data", err)
	}
	return nil
}

func dumpPartition(ctx context.Context, p kv.Partition) (map[string]json.RawMessage, error) {
	keys, err := p.Keys(ctx)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return map[string]json.RawMessage{}, nil
	}
	return p.Get(ctx, keys...)
}
