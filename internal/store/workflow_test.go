package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tabvault/tabvault/internal/kv"
	"github.com/tabvault/tabvault/internal/legacy"
	"github.com/tabvault/tabvault/internal/record"
	"github.com/tabvault/tabvault/internal/store"
	"github.com/tabvault/tabvault/internal/tasks"
)

// TestFullWorkflow exercises the complete workspace lifecycle over the
// real disk-backed partitions:
// create → activate → save tabs → highlight → quick note → task →
// bundle → delete → verify cascade
func TestFullWorkflow(t *testing.T) {
	ctx := context.Background()

	syncP, err := kv.OpenSQLite(t.TempDir())
	require.NoError(t, err)
	defer syncP.Close()

	localP, err := kv.OpenBadger(t.TempDir())
	require.NoError(t, err)
	defer localP.Close()

	mgr := store.NewManager(syncP, localP)
	facade := legacy.NewFacade(mgr)
	taskStore := tasks.NewStore(localP)

	// 1. Create workspace
	w, err := store.NewWorkspace("Research")
	require.NoError(t, err)
	require.NoError(t, mgr.SaveWorkspace(ctx, w))

	list := mgr.ListWorkspaces(ctx)
	require.Len(t, list, 1)
	require.False(t, list[0].IsActive)

	// 2. Activate
	require.NoError(t, mgr.SetActiveWorkspace(ctx, w.ID))
	require.Equal(t, w.ID, mgr.GetActiveWorkspace(ctx))
	require.True(t, mgr.ListWorkspaces(ctx)[0].IsActive)

	// 3. Save a tab set (with capture-time filtering)
	captured := record.FilterWebTabs([]record.TabRef{
		{ID: 1, URL: "https://a.example", Title: "A", Index: 0},
		{ID: 2, URL: "chrome://extensions", Index: 1},
		{ID: 3, URL: "https://b.example", Title: "B", Index: 2},
	})
	tsID, err := mgr.SaveTabSet(ctx, w.ID, captured, "Set1")
	require.NoError(t, err)

	sets := mgr.GetWorkspaceTabSets(ctx, w.ID)
	require.Len(t, sets, 1)
	require.Equal(t, tsID, sets[0].ID)
	require.Equal(t, "Set1", sets[0].Name)
	require.Len(t, sets[0].Tabs, 2)

	// 4. Highlights, newest first
	h1 := record.Highlight{ID: "h1", Text: "first", URL: "https://a.example", CreatedAt: record.Now()}
	h2 := record.Highlight{ID: "h2", Text: "second", URL: "https://b.example", CreatedAt: record.Now()}
	require.NoError(t, mgr.AppendHighlight(ctx, w.ID, h1))
	require.NoError(t, mgr.AppendHighlight(ctx, w.ID, h2))

	got := mgr.GetHighlights(ctx, w.ID, 0)
	require.Len(t, got, 2)
	require.Equal(t, "h2", got[0].ID)
	require.Equal(t, "h1", got[1].ID)

	// 5. Quick note through the legacy facade
	require.NoError(t, facade.SetQuickNote(ctx, w.ID, "## Ideas\n- follow up"))

	// 6. A capture task completes
	task, err := taskStore.Create(ctx, tasks.CreateInput{
		Type:        record.TaskTypeSummarize,
		WorkspaceID: w.ID,
		Content:     "page text",
		URL:         "https://a.example",
	})
	require.NoError(t, err)
	processing := record.TaskProcessing
	_, err = taskStore.Update(ctx, task.ID, tasks.UpdateInput{Status: &processing})
	require.NoError(t, err)
	completed := record.TaskCompleted
	_, err = taskStore.Update(ctx, task.ID, tasks.UpdateInput{
		Status: &completed,
		Result: &record.TaskResult{Summary: "a summary"},
	})
	require.NoError(t, err)

	// 7. Per-workspace bundle joins everything
	bundle, err := mgr.BuildBundle(ctx, w.ID, facade, taskStore)
	require.NoError(t, err)
	require.Equal(t, w.ID, bundle.WorkspaceID)
	require.Len(t, bundle.TabSets, 1)
	require.Len(t, bundle.Highlights, 2)
	require.Equal(t, "## Ideas\n- follow up", bundle.QuickNotes)
	require.Len(t, bundle.Tasks, 1)
	require.Equal(t, 2, bundle.Stats.TotalTabs)
	require.Equal(t, 2, bundle.Stats.TotalHighlights)
	require.Equal(t, 1, bundle.Stats.TotalTasks)
	require.NotZero(t, bundle.Stats.LastActivity)

	// 8. Delete cascades
	require.NoError(t, mgr.DeleteWorkspace(ctx, w.ID))
	require.Empty(t, mgr.ListWorkspaces(ctx))
	require.Empty(t, mgr.GetWorkspaceTabSets(ctx, w.ID))
	require.Empty(t, mgr.GetHighlights(ctx, w.ID, 0))
	require.Equal(t, "", mgr.GetActiveWorkspace(ctx))

	// The quick note outlives its workspace (legacy namespace is not
	// cascaded)
	note, err := facade.QuickNote(ctx, w.ID)
	require.NoError(t, err)
	require.Equal(t, "## Ideas\n- follow up", note)
}

func TestBundle_UnknownWorkspace(t *testing.T) {
	mgr := store.NewManager(
		kv.NewMemoryPartition(kv.AreaSync),
		kv.NewMemoryPartition(kv.AreaLocal),
	)
	_, err := mgr.BuildBundle(context.Background(), "missing", nil, nil)
	require.Error(t, err)
}
