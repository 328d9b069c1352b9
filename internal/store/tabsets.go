package store

import (
	"context"
	"time"

	"github.com/tabvault/tabvault/internal/record"
)

// SaveTabSet appends a new tab set for the given workspace and returns its
// generated id. An empty name defaults to a timestamp-derived label. Fails
// loudly on backend failure.
func (m *Manager) SaveTabSet(ctx context.Context, workspaceID string, tabs []record.TabRef, name string) (string, error) {
	id, err := record.NewID()
	if err != nil {
		return "", writeFailed("save tab set", err)
	}
	if name == "" {
		name = "Tab Set " + time.Now().Format("2006-01-02 15:04:05")
	}
	now := record.Now()
	ts := record.TabSet{
		ID:          id,
		WorkspaceID: workspaceID,
		Name:        name,
		Tabs:        tabs,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var tabSets []record.TabSet
	if _, err := getJSON(ctx, m.local, KeyTabSets, &tabSets); err != nil {
		return "", writeFailed("save tab set", err)
	}
	tabSets = append(tabSets, ts)
	if err := setJSON(ctx, m.local, KeyTabSets, tabSets); err != nil {
		return "", writeFailed("save tab set", err)
	}
	return id, nil
}

// GetTabSet returns the tab set with the given id, or nil if absent or on
// backend failure.
func (m *Manager) GetTabSet(ctx context.Context, id string) *record.TabSet {
	var tabSets []record.TabSet
	readDegraded(ctx, m.local, KeyTabSets, &tabSets)
	for _, ts := range tabSets {
		if ts.ID == id {
			return &ts
		}
	}
	return nil
}

// GetWorkspaceTabSets returns every tab set belonging to the workspace, in
// storage order. Non-fatal: degrades to an empty list.
func (m *Manager) GetWorkspaceTabSets(ctx context.Context, workspaceID string) []record.TabSet {
	var tabSets []record.TabSet
	readDegraded(ctx, m.local, KeyTabSets, &tabSets)
	var out []record.TabSet
	for _, ts := range tabSets {
		if ts.WorkspaceID == workspaceID {
			out = append(out, ts)
		}
	}
	return out
}
