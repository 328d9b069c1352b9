package store

import (
	"context"

	"github.com/tabvault/tabvault/internal/record"
)

// NewWorkspace builds a fresh inactive workspace record with a generated
// id and current timestamps.
func NewWorkspace(name string) (record.Workspace, error) {
	id, err := record.NewID()
	if err != nil {
		return record.Workspace{}, err
	}
	now := record.Now()
	return record.Workspace{
		ID:        id,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
		IsActive:  false,
	}, nil
}

// ListWorkspaces reads the full workspace collection. Non-fatal: a backend
// failure degrades to an empty list.
func (m *Manager) ListWorkspaces(ctx context.Context) []record.Workspace {
	var workspaces []record.Workspace
	readDegraded(ctx, m.sync, KeyWorkspaces, &workspaces)
	return workspaces
}

// GetWorkspace returns the workspace with the given id, or nil if absent
// or on backend failure.
func (m *Manager) GetWorkspace(ctx context.Context, id string) *record.Workspace {
	for _, w := range m.ListWorkspaces(ctx) {
		if w.ID == id {
			return &w
		}
	}
	return nil
}

// SaveWorkspace upserts a workspace by id. An existing record is replaced
// with UpdatedAt forced to now, ignoring whatever the caller supplied; a
// new record is appended as given. Fails loudly on backend failure.
func (m *Manager) SaveWorkspace(ctx context.Context, w record.Workspace) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveWorkspaceLocked(ctx, w)
}

func (m *Manager) saveWorkspaceLocked(ctx context.Context, w record.Workspace) error {
	var workspaces []record.Workspace
	if _, err := getJSON(ctx, m.sync, KeyWorkspaces, &workspaces); err != nil {
		return writeFailed("save workspace", err)
	}

	replaced := false
	for i := range workspaces {
		if workspaces[i].ID == w.ID {
			w.UpdatedAt = record.Now()
			workspaces[i] = w
			replaced = true
			break
		}
	}
	if !replaced {
		workspaces = append(workspaces, w)
	}

	if err := setJSON(ctx, m.sync, KeyWorkspaces, workspaces); err != nil {
		return writeFailed("save workspace", err)
	}
	return nil
}

// DeleteWorkspace removes a workspace and cascades to its dependents: the
// active pointer is cleared through the activation operation if it pointed
// here, and the workspace's tab sets and highlight group are removed.
//
// These are four sequential backend writes, not one atomic write; a crash
// between steps leaves invariants transiently violated until the next
// successful delete or activation re-derives state. Fails loudly.
func (m *Manager) DeleteWorkspace(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// 1. Remove from the workspace collection.
	var workspaces []record.Workspace
	if _, err := getJSON(ctx, m.sync, KeyWorkspaces, &workspaces); err != nil {
		return writeFailed("delete workspace", err)
	}
	kept := workspaces[:0]
	for _, w := range workspaces {
		if w.ID != id {
			kept = append(kept, w)
		}
	}
	if err := setJSON(ctx, m.sync, KeyWorkspaces, kept); err != nil {
		return writeFailed("delete workspace", err)
	}

	// 2. Clear the active pointer through the activation operation so the
	// isActive flags stay consistent with it.
	if m.getActivePointer(ctx) == id {
		if err := m.setActiveLocked(ctx, ""); err != nil {
			return err
		}
	}

	// 3. Remove the workspace's tab sets.
	var tabSets []record.TabSet
	if _, err := getJSON(ctx, m.local, KeyTabSets, &tabSets); err != nil {
		return writeFailed("delete workspace tab sets", err)
	}
	keptSets := tabSets[:0]
	for _, ts := range tabSets {
		if ts.WorkspaceID != id {
			keptSets = append(keptSets, ts)
		}
	}
	if err := setJSON(ctx, m.local, KeyTabSets, keptSets); err != nil {
		return writeFailed("delete workspace tab sets", err)
	}

	// 4. Remove the workspace's highlight group.
	groups := record.HighlightGroups{}
	if _, err := getJSON(ctx, m.local, KeyHighlights, &groups); err != nil {
		return writeFailed("delete workspace highlights", err)
	}
	delete(groups, id)
	if err := setJSON(ctx, m.local, KeyHighlights, groups); err != nil {
		return writeFailed("delete workspace highlights", err)
	}

	return nil
}

// SetActiveWorkspace sets or clears the active-workspace pointer, then
// rewrites every workspace's IsActive flag to match. Only the newly-active
// workspace's UpdatedAt is bumped. Pass "" to clear. Fails loudly.
func (m *Manager) SetActiveWorkspace(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setActiveLocked(ctx, id)
}

func (m *Manager) setActiveLocked(ctx context.Context, id string) error {
	if id == "" {
		if err := m.sync.Remove(ctx, KeyActiveWorkspace); err != nil {
			return writeFailed("clear active workspace", err)
		}
	} else {
		if err := setJSON(ctx, m.sync, KeyActiveWorkspace, id); err != nil {
			return writeFailed("set active workspace", err)
		}
	}

	var workspaces []record.Workspace
	if _, err := getJSON(ctx, m.sync, KeyWorkspaces, &workspaces); err != nil {
		return writeFailed("set active workspace", err)
	}
	changed := false
	for i := range workspaces {
		active := id != "" && workspaces[i].ID == id
		if active && !workspaces[i].IsActive {
			workspaces[i].UpdatedAt = record.Now()
		}
		if workspaces[i].IsActive != active {
			changed = true
		}
		workspaces[i].IsActive = active
	}
	if !changed {
		return nil
	}
	if err := setJSON(ctx, m.sync, KeyWorkspaces, workspaces); err != nil {
		return writeFailed("set active workspace", err)
	}
	return nil
}

// GetActiveWorkspace reads the active-workspace pointer. Returns "" if no
// workspace is active or on backend failure.
func (m *Manager) GetActiveWorkspace(ctx context.Context) string {
	return m.getActivePointer(ctx)
}

func (m *Manager) getActivePointer(ctx context.Context) string {
	var id string
	if !readDegraded(ctx, m.sync, KeyActiveWorkspace, &id) {
		return ""
	}
	return id
}
