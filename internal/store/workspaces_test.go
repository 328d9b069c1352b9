package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/tabvault/tabvault/internal/kv"
	"github.com/tabvault/tabvault/internal/record"
)

// newTestManager builds a Manager over in-memory partitions and returns
// the partitions for failure injection.
func newTestManager(t *testing.T) (*Manager, *kv.MemoryPartition, *kv.MemoryPartition) {
	t.Helper()
	syncP := kv.NewMemoryPartition(kv.AreaSync)
	localP := kv.NewMemoryPartition(kv.AreaLocal)
	return NewManager(syncP, localP), syncP, localP
}

// mustCreateWorkspace creates and saves a workspace, returning its id.
func mustCreateWorkspace(t *testing.T, m *Manager, name string) string {
	t.Helper()
	w, err := NewWorkspace(name)
	if err != nil {
		t.Fatalf("NewWorkspace failed: %v", err)
	}
	if err := m.SaveWorkspace(context.Background(), w); err != nil {
		t.Fatalf("SaveWorkspace failed: %v", err)
	}
	return w.ID
}

func TestNewWorkspace(t *testing.T) {
	w, err := NewWorkspace("Research")
	if err != nil {
		t.Fatalf("NewWorkspace failed: %v", err)
	}
	if len(w.ID) != 26 {
		t.Errorf("ID length = %d, want 26 (ULID)", len(w.ID))
	}
	if w.IsActive {
		t.Error("new workspace must start inactive")
	}
	if w.CreatedAt == 0 || w.UpdatedAt == 0 {
		t.Error("timestamps should be set")
	}
}

func TestSaveWorkspace_RoundTrip(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	w, _ := NewWorkspace("Research")
	w.Description = "reading list"
	w.ContextPrimer = "Summaries should focus on methodology."
	before := record.Now()
	if err := m.SaveWorkspace(ctx, w); err != nil {
		t.Fatalf("SaveWorkspace failed: %v", err)
	}

	got := m.GetWorkspace(ctx, w.ID)
	if got == nil {
		t.Fatal("GetWorkspace returned nil")
	}
	if got.Name != "Research" || got.Description != "reading list" {
		t.Errorf("round trip lost fields: %+v", got)
	}
	if got.ContextPrimer != w.ContextPrimer {
		t.Errorf("ContextPrimer = %q, want %q", got.ContextPrimer, w.ContextPrimer)
	}
	if got.UpdatedAt < before-1000 {
		t.Errorf("UpdatedAt = %d, want >= save time", got.UpdatedAt)
	}
}

func TestSaveWorkspace_UpsertForcesUpdatedAt(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	w, _ := NewWorkspace("Research")
	if err := m.SaveWorkspace(ctx, w); err != nil {
		t.Fatalf("SaveWorkspace failed: %v", err)
	}

	// Replace with a bogus caller-supplied UpdatedAt far in the past
	w.Name = "Renamed"
	w.UpdatedAt = 1
	time.Sleep(2 * time.Millisecond)
	before := record.Now()
	if err := m.SaveWorkspace(ctx, w); err != nil {
		t.Fatalf("SaveWorkspace failed: %v", err)
	}

	got := m.GetWorkspace(ctx, w.ID)
	if got.Name != "Renamed" {
		t.Errorf("Name = %q, want Renamed", got.Name)
	}
	if got.UpdatedAt < before {
		t.Errorf("UpdatedAt = %d, want forced to now (>= %d)", got.UpdatedAt, before)
	}
}

func TestGetWorkspace_Missing(t *testing.T) {
	m, _, _ := newTestManager(t)
	if got := m.GetWorkspace(context.Background(), "nope"); got != nil {
		t.Errorf("GetWorkspace(unknown) = %+v, want nil", got)
	}
}

func TestListWorkspaces_DegradesToEmptyOnReadFailure(t *testing.T) {
	m, syncP, _ := newTestManager(t)
	ctx := context.Background()

	mustCreateWorkspace(t, m, "Research")
	syncP.ReadErr = fmt.Errorf("backend unavailable")

	if got := m.ListWorkspaces(ctx); len(got) != 0 {
		t.Errorf("ListWorkspaces under failure = %v, want empty", got)
	}
	if got := m.GetActiveWorkspace(ctx); got != "" {
		t.Errorf("GetActiveWorkspace under failure = %q, want empty", got)
	}
}

func TestSaveWorkspace_FailsLoudOnWriteFailure(t *testing.T) {
	m, syncP, _ := newTestManager(t)

	w, _ := NewWorkspace("Research")
	syncP.WriteErr = fmt.Errorf("quota exceeded")

	err := m.SaveWorkspace(context.Background(), w)
	if err == nil {
		t.Fatal("SaveWorkspace should surface backend write failure")
	}
}

// P1: after each SetActiveWorkspace call, at most one workspace is active
// and it matches the last non-empty id passed.
func TestSetActiveWorkspace_SingleActiveInvariant(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	a := mustCreateWorkspace(t, m, "A")
	b := mustCreateWorkspace(t, m, "B")
	c := mustCreateWorkspace(t, m, "C")

	sequence := []string{a, b, b, c, "", a}
	for _, id := range sequence {
		if err := m.SetActiveWorkspace(ctx, id); err != nil {
			t.Fatalf("SetActiveWorkspace(%q) failed: %v", id, err)
		}

		activeCount := 0
		var activeID string
		for _, w := range m.ListWorkspaces(ctx) {
			if w.IsActive {
				activeCount++
				activeID = w.ID
			}
		}

		if id == "" {
			if activeCount != 0 {
				t.Fatalf("after clear, %d active workspaces, want 0", activeCount)
			}
			if got := m.GetActiveWorkspace(ctx); got != "" {
				t.Fatalf("pointer = %q after clear, want empty", got)
			}
			continue
		}
		if activeCount != 1 {
			t.Fatalf("after activate(%q), %d active workspaces, want 1", id, activeCount)
		}
		if activeID != id {
			t.Fatalf("active workspace = %q, want %q", activeID, id)
		}
		if got := m.GetActiveWorkspace(ctx); got != id {
			t.Fatalf("pointer = %q, want %q", got, id)
		}
	}
}

func TestSetActiveWorkspace_BumpsOnlyNewlyActive(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	a := mustCreateWorkspace(t, m, "A")
	b := mustCreateWorkspace(t, m, "B")

	if err := m.SetActiveWorkspace(ctx, a); err != nil {
		t.Fatalf("SetActiveWorkspace failed: %v", err)
	}
	beforeB := m.GetWorkspace(ctx, b).UpdatedAt

	time.Sleep(2 * time.Millisecond)
	if err := m.SetActiveWorkspace(ctx, b); err != nil {
		t.Fatalf("SetActiveWorkspace failed: %v", err)
	}

	afterA := m.GetWorkspace(ctx, a)
	afterB := m.GetWorkspace(ctx, b)
	if afterA.IsActive {
		t.Error("A should have been deactivated")
	}
	if !afterB.IsActive {
		t.Error("B should be active")
	}
	if afterB.UpdatedAt <= beforeB {
		t.Error("newly-active workspace should have UpdatedAt bumped")
	}
}

// P2: deleting a workspace removes its tab sets, its highlight group, and
// the active pointer if it pointed there.
func TestDeleteWorkspace_Cascades(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	id := mustCreateWorkspace(t, m, "Doomed")
	other := mustCreateWorkspace(t, m, "Survivor")

	if err := m.SetActiveWorkspace(ctx, id); err != nil {
		t.Fatalf("SetActiveWorkspace failed: %v", err)
	}
	if _, err := m.SaveTabSet(ctx, id, []record.TabRef{{ID: 1, URL: "https://a.example"}}, "s1"); err != nil {
		t.Fatalf("SaveTabSet failed: %v", err)
	}
	if _, err := m.SaveTabSet(ctx, other, []record.TabRef{{ID: 2, URL: "https://b.example"}}, "s2"); err != nil {
		t.Fatalf("SaveTabSet failed: %v", err)
	}
	h := record.Highlight{ID: "h1", Text: "quote", URL: "https://a.example"}
	if err := m.AppendHighlight(ctx, id, h); err != nil {
		t.Fatalf("AppendHighlight failed: %v", err)
	}

	if err := m.DeleteWorkspace(ctx, id); err != nil {
		t.Fatalf("DeleteWorkspace failed: %v", err)
	}

	if got := m.GetWorkspace(ctx, id); got != nil {
		t.Error("workspace should be gone")
	}
	if got := m.GetWorkspaceTabSets(ctx, id); len(got) != 0 {
		t.Errorf("tab sets = %v, want empty", got)
	}
	if got := m.GetHighlights(ctx, id, 0); len(got) != 0 {
		t.Errorf("highlights = %v, want empty", got)
	}
	if got := m.GetActiveWorkspace(ctx); got != "" {
		t.Errorf("active pointer = %q, want cleared", got)
	}

	// Unrelated records survive
	if got := m.GetWorkspaceTabSets(ctx, other); len(got) != 1 {
		t.Errorf("survivor tab sets = %v, want 1", got)
	}
	if got := m.GetWorkspace(ctx, other); got == nil {
		t.Error("survivor workspace should remain")
	}
}

func TestDeleteWorkspace_InactiveLeavesPointer(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	keep := mustCreateWorkspace(t, m, "Keep")
	doomed := mustCreateWorkspace(t, m, "Doomed")
	if err := m.SetActiveWorkspace(ctx, keep); err != nil {
		t.Fatalf("SetActiveWorkspace failed: %v", err)
	}

	if err := m.DeleteWorkspace(ctx, doomed); err != nil {
		t.Fatalf("DeleteWorkspace failed: %v", err)
	}

	if got := m.GetActiveWorkspace(ctx); got != keep {
		t.Errorf("active pointer = %q, want untouched %q", got, keep)
	}
	if !m.GetWorkspace(ctx, keep).IsActive {
		t.Error("kept workspace should remain active")
	}
}
