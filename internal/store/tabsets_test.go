package store

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/tabvault/tabvault/internal/record"
)

func TestSaveTabSet_ReturnsGeneratedID(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()
	wsID := mustCreateWorkspace(t, m, "W")

	tabs := []record.TabRef{
		{ID: 10, URL: "https://a.example", Title: "A", Index: 0},
		{ID: 11, URL: "https://b.example", Title: "B", Index: 1, Pinned: true},
	}
	id, err := m.SaveTabSet(ctx, wsID, tabs, "Set1")
	if err != nil {
		t.Fatalf("SaveTabSet failed: %v", err)
	}
	if len(id) != 26 {
		t.Errorf("id length = %d, want 26 (ULID)", len(id))
	}

	got := m.GetTabSet(ctx, id)
	if got == nil {
		t.Fatal("GetTabSet returned nil")
	}
	if got.Name != "Set1" {
		t.Errorf("Name = %q, want Set1", got.Name)
	}
	if got.WorkspaceID != wsID {
		t.Errorf("WorkspaceID = %q, want %q", got.WorkspaceID, wsID)
	}
	if len(got.Tabs) != 2 || got.Tabs[1].Pinned != true {
		t.Errorf("Tabs = %+v, want the saved snapshot", got.Tabs)
	}
}

func TestSaveTabSet_DefaultNameFromTimestamp(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()
	wsID := mustCreateWorkspace(t, m, "W")

	id, err := m.SaveTabSet(ctx, wsID, nil, "")
	if err != nil {
		t.Fatalf("SaveTabSet failed: %v", err)
	}

	got := m.GetTabSet(ctx, id)
	if !strings.HasPrefix(got.Name, "Tab Set ") {
		t.Errorf("Name = %q, want timestamp-derived default", got.Name)
	}
}

func TestGetWorkspaceTabSets_FiltersByWorkspace(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()
	a := mustCreateWorkspace(t, m, "A")
	b := mustCreateWorkspace(t, m, "B")

	for i := 0; i < 3; i++ {
		if _, err := m.SaveTabSet(ctx, a, nil, fmt.Sprintf("a%d", i)); err != nil {
			t.Fatalf("SaveTabSet failed: %v", err)
		}
	}
	if _, err := m.SaveTabSet(ctx, b, nil, "b0"); err != nil {
		t.Fatalf("SaveTabSet failed: %v", err)
	}

	if got := m.GetWorkspaceTabSets(ctx, a); len(got) != 3 {
		t.Errorf("workspace A tab sets = %d, want 3", len(got))
	}
	if got := m.GetWorkspaceTabSets(ctx, b); len(got) != 1 {
		t.Errorf("workspace B tab sets = %d, want 1", len(got))
	}
}

func TestGetTabSet_MissingAndDegraded(t *testing.T) {
	m, _, localP := newTestManager(t)
	ctx := context.Background()

	if got := m.GetTabSet(ctx, "nope"); got != nil {
		t.Errorf("GetTabSet(unknown) = %+v, want nil", got)
	}

	localP.ReadErr = fmt.Errorf("backend unavailable")
	if got := m.GetWorkspaceTabSets(ctx, "any"); len(got) != 0 {
		t.Errorf("tab sets under failure = %v, want empty", got)
	}
}

func TestSaveTabSet_FailsLoudOnWriteFailure(t *testing.T) {
	m, _, localP := newTestManager(t)
	ctx := context.Background()
	wsID := mustCreateWorkspace(t, m, "W")

	localP.WriteErr = fmt.Errorf("disk full")
	if _, err := m.SaveTabSet(ctx, wsID, nil, "x"); err == nil {
		t.Fatal("SaveTabSet should surface backend write failure")
	}
}
