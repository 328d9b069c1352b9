package store

import (
	"context"

	"github.com/tabvault/tabvault/internal/record"
)

// AppendHighlight inserts a highlight at the head of the workspace's
// sequence, then truncates the sequence to the current MaxHighlights
// setting. The cap is read fresh from settings on every append, so a
// lowered cap retroactively trims existing overflow on the very next
// append. Fails loudly on backend failure.
func (m *Manager) AppendHighlight(ctx context.Context, workspaceID string, h record.Highlight) error {
	maxHighlights := m.GetSettings(ctx).MaxHighlights

	m.mu.Lock()
	defer m.mu.Unlock()

	groups := record.HighlightGroups{}
	if _, err := getJSON(ctx, m.local, KeyHighlights, &groups); err != nil {
		return writeFailed("save highlight", err)
	}

	seq := append([]record.Highlight{h}, groups[workspaceID]...)
	if maxHighlights > 0 && len(seq) > maxHighlights {
		seq = seq[:maxHighlights]
	}
	groups[workspaceID] = seq

	if err := setJSON(ctx, m.local, KeyHighlights, groups); err != nil {
		return writeFailed("save highlight", err)
	}
	return nil
}

// GetHighlights returns at most limit most-recent highlights for the
// workspace, newest first. A non-positive limit defaults to 50. Non-fatal:
// degrades to an empty list.
func (m *Manager) GetHighlights(ctx context.Context, workspaceID string, limit int) []record.Highlight {
	if limit <= 0 {
		limit = record.DefaultMaxHighlights
	}

	groups := record.HighlightGroups{}
	readDegraded(ctx, m.local, KeyHighlights, &groups)
	seq := groups[workspaceID]
	if len(seq) > limit {
		seq = seq[:limit]
	}
	return seq
}

// AllHighlightGroups returns the full per-workspace highlight map.
// Non-fatal: degrades to an empty map. Used by the legacy facade's
// flattening projection and the per-workspace bundle.
func (m *Manager) AllHighlightGroups(ctx context.Context) record.HighlightGroups {
	groups := record.HighlightGroups{}
	readDegraded(ctx, m.local, KeyHighlights, &groups)
	return groups
}
