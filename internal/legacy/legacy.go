// Package legacy provides the backward-compatible key/value-style storage
// API that predates the record-oriented manager. Two storage designs
// coexist: enumerated keys delegate to the manager, translating between
// shapes, while the free-form quick-notes namespace talks to the local
// partition directly with no validation and no cross-reference to
// workspace existence. A quick note can outlive its workspace; that is
// accepted debt, not a bug.
package legacy

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/tabvault/tabvault/internal/errors"
	"github.com/tabvault/tabvault/internal/kv"
	"github.com/tabvault/tabvault/internal/record"
	"github.com/tabvault/tabvault/internal/store"
)

// Enumerated legacy key names.
const (
	KeyWorkspaces        = "workspaces"
	KeyTabSets           = "tabSets"
	KeySavedTexts        = "savedTexts"
	KeyActiveWorkspaceID = "activeWorkspaceId"
	KeyConfig            = "config"
)

// quickNotePrefix opens the dynamic per-workspace quick-note namespace.
const quickNotePrefix = "quickNotes_"

// QuickNoteKey derives the storage key for a workspace's quick note.
func QuickNoteKey(workspaceID string) string {
	return quickNotePrefix + workspaceID
}

// Facade is the legacy storage API layered over the manager.
type Facade struct {
	mgr *store.Manager
}

// NewFacade creates a Facade over the given manager.
func NewFacade(mgr *store.Manager) *Facade {
	return &Facade{mgr: mgr}
}

// Get reads a legacy key. Value shape depends on the key:
// workspaces → []record.Workspace, tabSets → []record.TabSet,
// savedTexts → []record.Highlight (flattened), activeWorkspaceId → string,
// config → record.Settings, quickNotes_<id> → string.
// Forwarded keys share the manager's fail-soft read posture.
func (f *Facade) Get(ctx context.Context, key string) (any, error) {
	if strings.HasPrefix(key, quickNotePrefix) {
		return f.QuickNote(ctx, strings.TrimPrefix(key, quickNotePrefix))
	}

	switch key {
	case KeyWorkspaces:
		return f.mgr.ListWorkspaces(ctx), nil
	case KeyTabSets:
		var all []record.TabSet
		for _, w := range f.mgr.ListWorkspaces(ctx) {
			all = append(all, f.mgr.GetWorkspaceTabSets(ctx, w.ID)...)
		}
		return all, nil
	case KeySavedTexts:
		return FlattenHighlights(f.mgr.AllHighlightGroups(ctx)), nil
	case KeyActiveWorkspaceID:
		return f.mgr.GetActiveWorkspace(ctx), nil
	case KeyConfig:
		return f.mgr.GetSettings(ctx), nil
	}
	return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown storage key %q", key))
}

// Set writes a legacy key, forwarding to the manager for keys it
// understands. savedTexts and tabSets are read-only compatibility views.
// Fails loudly on write failure, like the manager.
func (f *Facade) Set(ctx context.Context, key string, value any) error {
	if strings.HasPrefix(key, quickNotePrefix) {
		text, ok := value.(string)
		if !ok {
			return errors.NewInvalidRequest("quick note value must be a string")
		}
		return f.SetQuickNote(ctx, strings.TrimPrefix(key, quickNotePrefix), text)
	}

	switch key {
	case KeyWorkspaces:
		workspaces, ok := value.([]record.Workspace)
		if !ok {
			return errors.NewInvalidRequest("workspaces value must be []record.Workspace")
		}
		for _, w := range workspaces {
			if err := f.mgr.SaveWorkspace(ctx, w); err != nil {
				return err
			}
		}
		return nil
	case KeyActiveWorkspaceID:
		id, ok := value.(string)
		if !ok {
			return errors.NewInvalidRequest("activeWorkspaceId value must be a string")
		}
		return f.mgr.SetActiveWorkspace(ctx, id)
	case KeyConfig:
		patch, ok := value.(record.SettingsPatch)
		if !ok {
			return errors.NewInvalidRequest("config value must be record.SettingsPatch")
		}
		return f.mgr.SaveSettings(ctx, patch)
	case KeyTabSets, KeySavedTexts:
		return errors.NewInvalidRequest(fmt.Sprintf("key %q is a read-only compatibility view", key))
	}
	return errors.NewInvalidRequest(fmt.Sprintf("unknown storage key %q", key))
}

// Remove deletes a legacy key where removal has defined semantics.
func (f *Facade) Remove(ctx context.Context, key string) error {
	if strings.HasPrefix(key, quickNotePrefix) {
		return f.RemoveQuickNote(ctx, strings.TrimPrefix(key, quickNotePrefix))
	}

	switch key {
	case KeyActiveWorkspaceID:
		return f.mgr.SetActiveWorkspace(ctx, "")
	case KeyWorkspaces, KeyTabSets, KeySavedTexts, KeyConfig:
		return errors.NewInvalidRequest(fmt.Sprintf("key %q cannot be removed through the legacy API", key))
	}
	return errors.NewInvalidRequest(fmt.Sprintf("unknown storage key %q", key))
}

// QuickNote reads a workspace's quick note from the local partition.
// Returns "" if no note exists. No validation, no cap, no check that the
// workspace exists.
func (f *Facade) QuickNote(ctx context.Context, workspaceID string) (string, error) {
	key := QuickNoteKey(workspaceID)
	items, err := f.mgr.LocalPartition().Get(ctx, key)
	if err != nil {
		return "", errors.NewInternal(err)
	}
	raw, ok := items[key]
	if !ok {
		return "", nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return "", errors.NewInternal(err)
	}
	return text, nil
}

// SetQuickNote writes a workspace's quick note to the local partition.
// Empty text removes the key rather than storing an empty note.
func (f *Facade) SetQuickNote(ctx context.Context, workspaceID, text string) error {
	if text == "" {
		return f.RemoveQuickNote(ctx, workspaceID)
	}
	raw, err := json.Marshal(text)
	if err != nil {
		return errors.NewInternal(err)
	}
	key := QuickNoteKey(workspaceID)
	if err := f.mgr.LocalPartition().Set(ctx, map[string]json.RawMessage{key: raw}); err != nil {
		return errors.NewWriteFailed("save quick note", err)
	}
	return nil
}

// RemoveQuickNote deletes a workspace's quick note.
func (f *Facade) RemoveQuickNote(ctx context.Context, workspaceID string) error {
	if err := f.mgr.LocalPartition().Remove(ctx, QuickNoteKey(workspaceID)); err != nil {
		return errors.NewWriteFailed("remove quick note", err)
	}
	return nil
}

// Watch registers a change listener on both partitions. The returned
// function unregisters it from both.
func (f *Facade) Watch(fn func(kv.Change)) (cancel func()) {
	cancelSync := f.mgr.SyncPartition().Watch(fn)
	cancelLocal := f.mgr.LocalPartition().Watch(fn)
	return func() {
		cancelSync()
		cancelLocal()
	}
}

// FlattenHighlights is the lossy savedTexts compatibility view: it folds
// every per-workspace highlight group into one list, losing the workspace
// grouping. Entries are ordered newest first across all workspaces so the
// view is deterministic.
func FlattenHighlights(groups record.HighlightGroups) []record.Highlight {
	var all []record.Highlight
	for _, seq := range groups {
		all = append(all, seq...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt > all[j].CreatedAt
	})
	return all
}
