package store

import (
	"context"

	"github.com/tabvault/tabvault/internal/record"
)

// GetSettings returns the effective settings record: the stored (possibly
// partial) record resolved against the documented defaults. Non-fatal: a
// backend failure degrades to pure defaults.
func (m *Manager) GetSettings(ctx context.Context) record.Settings {
	var stored record.Settings
	if !readDegraded(ctx, m.sync, KeySettings, &stored) {
		return record.DefaultSettings()
	}
	return stored.WithDefaults()
}

// SaveSettings merges a partial update over the current effective settings
// (not over the raw stored record) and writes the result as a single
// record. Fails loudly on backend failure.
func (m *Manager) SaveSettings(ctx context.Context, patch record.SettingsPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	effective := m.GetSettings(ctx).Apply(patch)
	if err := setJSON(ctx, m.sync, KeySettings, effective); err != nil {
		return writeFailed("save settings", err)
	}
	return nil
}
