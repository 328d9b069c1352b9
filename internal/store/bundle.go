package store

import (
	"context"

	"github.com/tabvault/tabvault/internal/errors"
	"github.com/tabvault/tabvault/internal/record"
)

// BundleVersion identifies the per-workspace export format.
const BundleVersion = "1.0.0"

// QuickNoteReader supplies a workspace's quick note. Quick notes live in
// the legacy facade's dynamic namespace, not in the storage manager.
type QuickNoteReader interface {
	QuickNote(ctx context.Context, workspaceID string) (string, error)
}

// TaskLister supplies a workspace's background tasks.
type TaskLister interface {
	ListByWorkspace(ctx context.Context, workspaceID string) ([]record.Task, error)
}

// BundleStats summarizes a bundle for human or AI consumption.
type BundleStats struct {
	TotalTabs       int   `json:"totalTabs"`
	TotalHighlights int   `json:"totalHighlights"`
	TotalTasks      int   `json:"totalTasks"`
	LastActivity    int64 `json:"lastActivity"`
}

// Bundle is a denormalized, self-contained export of one workspace's
// closure of records: the workspace joined with its tab sets, highlights,
// quick note, and tasks.
type Bundle struct {
	ExportedAt    int64              `json:"exportedAt"`
	ExportVersion string             `json:"exportVersion"`
	WorkspaceID   string             `json:"workspaceId"`
	Workspace     record.Workspace   `json:"workspace"`
	TabSets       []record.TabSet    `json:"tabSets"`
	Highlights    []record.Highlight `json:"highlights"`
	QuickNotes    string             `json:"quickNotes"`
	Tasks         []record.Task      `json:"tasks"`
	Stats         BundleStats        `json:"stats"`
}

// BuildBundle assembles the per-workspace export by joining manager
// records with the quick note and tasks obtained from their collaborators.
// Either collaborator may be nil, leaving its section empty.
func (m *Manager) BuildBundle(ctx context.Context, workspaceID string, notes QuickNoteReader, tasks TaskLister) (*Bundle, error) {
	w := m.GetWorkspace(ctx, workspaceID)
	if w == nil {
		return nil, errors.NewNotFound(workspaceID)
	}

	tabSets := m.GetWorkspaceTabSets(ctx, workspaceID)
	highlights := m.AllHighlightGroups(ctx)[workspaceID]

	var quickNote string
	if notes != nil {
		n, err := notes.QuickNote(ctx, workspaceID)
		if err != nil {
			return nil, err
		}
		quickNote = n
	}

	var taskList []record.Task
	if tasks != nil {
		list, err := tasks.ListByWorkspace(ctx, workspaceID)
		if err != nil {
			return nil, err
		}
		taskList = list
	}

	totalTabs := 0
	lastActivity := w.UpdatedAt
	for _, ts := range tabSets {
		totalTabs += len(ts.Tabs)
		if ts.UpdatedAt > lastActivity {
			lastActivity = ts.UpdatedAt
		}
	}
	for _, h := range highlights {
		if h.CreatedAt > lastActivity {
			lastActivity = h.CreatedAt
		}
	}
	for _, t := range taskList {
		if t.UpdatedAt > lastActivity {
			lastActivity = t.UpdatedAt
		}
	}

	return &Bundle{
		ExportedAt:    record.Now(),
		ExportVersion: BundleVersion,
		WorkspaceID:   workspaceID,
		Workspace:     *w,
		TabSets:       tabSets,
		Highlights:    highlights,
		QuickNotes:    quickNote,
		Tasks:         taskList,
		Stats: BundleStats{
			TotalTabs:       totalTabs,
			TotalHighlights: len(highlights),
			TotalTasks:      len(taskList),
			LastActivity:    lastActivity,
		},
	}, nil
}
