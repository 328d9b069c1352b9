package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tabvault/tabvault/internal/kv"
	"github.com/tabvault/tabvault/internal/legacy"
	"github.com/tabvault/tabvault/internal/record"
	"github.com/tabvault/tabvault/internal/store"
	"github.com/tabvault/tabvault/internal/tasks"
)

// recordingTabs captures browser-side calls for assertions.
type recordingTabs struct {
	opened    []string
	focusMode *bool
}

func (r *recordingTabs) OpenTabSet(_ context.Context, ts record.TabSet) error {
	r.opened = append(r.opened, ts.ID)
	return nil
}

func (r *recordingTabs) SetFocusMode(_ context.Context, enabled bool) error {
	r.focusMode = &enabled
	return nil
}

func newTestServer(t *testing.T) (*httptest.Server, *store.Manager, *tasks.Store, *recordingTabs) {
	t.Helper()
	mgr := store.NewManager(kv.NewMemoryPartition(kv.AreaSync), kv.NewMemoryPartition(kv.AreaLocal))
	facade := legacy.NewFacade(mgr)
	taskStore := tasks.NewStore(mgr.LocalPartition())
	tabs := &recordingTabs{}

	renderer, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}
	h := NewHandlers(mgr, facade, taskStore, tabs, renderer, "test")

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.HandleRoot)
	mux.HandleFunc("GET /workspaces", h.HandleWorkspaces)
	mux.HandleFunc("GET /workspaces/{id}", h.HandleWorkspaceDetail)
	mux.HandleFunc("POST /api/message", h.HandleMessage)

	srv := httptest.NewServer(securityHeaders(mux))
	t.Cleanup(srv.Close)
	return srv, mgr, taskStore, tabs
}

func postMessage(t *testing.T, srv *httptest.Server, action string, data any) (int, map[string]any) {
	t.Helper()
	msg := map[string]any{"action": action}
	if data != nil {
		msg["data"] = data
	}
	body, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal message: %v", err)
	}
	resp, err := http.Post(srv.URL+"/api/message", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /api/message: %v", err)
	}
	defer resp.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.StatusCode, out
}

func createWorkspace(t *testing.T, mgr *store.Manager, name string) record.Workspace {
	t.Helper()
	ws, err := store.NewWorkspace(name)
	if err != nil {
		t.Fatalf("NewWorkspace(%q) error = %v", name, err)
	}
	if err := mgr.SaveWorkspace(context.Background(), ws); err != nil {
		t.Fatalf("SaveWorkspace(%q) error = %v", name, err)
	}
	return ws
}

func TestMessageSaveCurrentTabSet(t *testing.T) {
	srv, mgr, _, _ := newTestServer(t)
	ws := createWorkspace(t, mgr, "research")

	status, out := postMessage(t, srv, ActionSaveCurrentTabSet, map[string]any{
		"workspaceId": ws.ID,
		"name":        "morning session",
		"tabs": []map[string]any{
			{"id": 1, "url": "https://example.com/a", "title": "A", "index": 0},
			{"id": 2, "url": "chrome://settings", "title": "Settings", "index": 1},
			{"id": 3, "url": "https://example.com/b", "title": "B", "index": 2},
		},
	})
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %v)", status, out)
	}
	if out["success"] != true {
		t.Fatalf("success = %v, want true", out["success"])
	}
	if got := out["tabCount"]; got != float64(2) {
		t.Errorf("tabCount = %v, want 2 (non-web tab filtered)", got)
	}

	sets := mgr.GetWorkspaceTabSets(context.Background(), ws.ID)
	if len(sets) != 1 {
		t.Fatalf("GetWorkspaceTabSets() len = %d, want 1", len(sets))
	}
	if sets[0].Name != "morning session" {
		t.Errorf("tab set name = %q", sets[0].Name)
	}
}

func TestMessageSaveCurrentTabSetRequiresWorkspace(t *testing.T) {
	srv, _, _, _ := newTestServer(t)

	status, out := postMessage(t, srv, ActionSaveCurrentTabSet, map[string]any{
		"tabs": []map[string]any{{"id": 1, "url": "https://example.com"}},
	})
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
	if out["success"] != false {
		t.Errorf("success = %v, want false", out["success"])
	}
	if _, ok := out["error"].(string); !ok {
		t.Errorf("error missing from response: %v", out)
	}
}

func TestMessageOpenWorkspaceTabSet(t *testing.T) {
	srv, mgr, _, tabs := newTestServer(t)
	ws := createWorkspace(t, mgr, "research")
	id, err := mgr.SaveTabSet(context.Background(), ws.ID, []record.TabRef{
		{ID: 1, URL: "https://example.com", Title: "A"},
	}, "")
	if err != nil {
		t.Fatalf("SaveTabSet() error = %v", err)
	}

	status, out := postMessage(t, srv, ActionOpenWorkspaceTabSet, map[string]any{"tabSetId": id})
	if status != http.StatusOK || out["success"] != true {
		t.Fatalf("status = %d, body = %v", status, out)
	}
	if len(tabs.opened) != 1 || tabs.opened[0] != id {
		t.Errorf("opened = %v, want [%s]", tabs.opened, id)
	}

	status, _ = postMessage(t, srv, ActionOpenWorkspaceTabSet, map[string]any{"tabSetId": "missing"})
	if status != http.StatusNotFound {
		t.Errorf("open missing tab set status = %d, want 404", status)
	}
}

func TestMessageToggleFocusMode(t *testing.T) {
	srv, mgr, _, tabs := newTestServer(t)

	status, out := postMessage(t, srv, ActionToggleFocusMode, nil)
	if status != http.StatusOK || out["success"] != true {
		t.Fatalf("status = %d, body = %v", status, out)
	}
	if out["focusModeEnabled"] != true {
		t.Errorf("focusModeEnabled = %v, want true", out["focusModeEnabled"])
	}
	if tabs.focusMode == nil || !*tabs.focusMode {
		t.Errorf("tab controller focus mode = %v, want true", tabs.focusMode)
	}
	if !mgr.GetSettings(context.Background()).FocusModeEnabled {
		t.Error("settings not persisted after toggle")
	}

	// Second toggle flips back off.
	_, out = postMessage(t, srv, ActionToggleFocusMode, nil)
	if out["focusModeEnabled"] != false {
		t.Errorf("second toggle focusModeEnabled = %v, want false", out["focusModeEnabled"])
	}
}

func TestMessageSaveHighlight(t *testing.T) {
	srv, mgr, _, _ := newTestServer(t)
	ws := createWorkspace(t, mgr, "reading")

	status, out := postMessage(t, srv, ActionSaveHighlight, map[string]any{
		"workspaceId": ws.ID,
		"text":        "a memorable phrase",
		"url":         "https://example.com/article",
		"title":       "Article",
	})
	if status != http.StatusOK || out["success"] != true {
		t.Fatalf("status = %d, body = %v", status, out)
	}

	hs := mgr.GetHighlights(context.Background(), ws.ID, 0)
	if len(hs) != 1 || hs[0].Text != "a memorable phrase" {
		t.Fatalf("GetHighlights() = %+v", hs)
	}

	status, _ = postMessage(t, srv, ActionSaveHighlight, map[string]any{
		"workspaceId": ws.ID,
	})
	if status != http.StatusBadRequest {
		t.Errorf("empty text status = %d, want 400", status)
	}
}

func TestMessageTaskLifecycle(t *testing.T) {
	srv, mgr, taskStore, _ := newTestServer(t)
	ws := createWorkspace(t, mgr, "inbox")

	task, err := taskStore.Create(context.Background(), tasks.CreateInput{
		Type:        record.TaskTypeSummarize,
		WorkspaceID: ws.ID,
		Content:     "page body",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	status, out := postMessage(t, srv, ActionGetTasks, map[string]any{"workspaceId": ws.ID})
	if status != http.StatusOK {
		t.Fatalf("getTasks status = %d", status)
	}
	list, ok := out["tasks"].([]any)
	if !ok || len(list) != 1 {
		t.Fatalf("tasks = %v, want one entry", out["tasks"])
	}

	status, out = postMessage(t, srv, ActionUpdateTask, map[string]any{
		"id":     task.ID,
		"status": "processing",
	})
	if status != http.StatusOK || out["success"] != true {
		t.Fatalf("updateTask status = %d, body = %v", status, out)
	}

	status, _ = postMessage(t, srv, ActionDeleteTask, map[string]any{"id": task.ID})
	if status != http.StatusOK {
		t.Fatalf("deleteTask status = %d", status)
	}
	status, _ = postMessage(t, srv, ActionDeleteTask, map[string]any{"id": task.ID})
	if status != http.StatusNotFound {
		t.Errorf("delete missing task status = %d, want 404", status)
	}
}

func TestMessageUnknownAction(t *testing.T) {
	srv, _, _, _ := newTestServer(t)
	status, out := postMessage(t, srv, "lintWorkspace", nil)
	if status != http.StatusBadRequest || out["success"] != false {
		t.Errorf("status = %d, body = %v", status, out)
	}
}

func TestWorkspacePages(t *testing.T) {
	srv, mgr, _, _ := newTestServer(t)
	facade := legacy.NewFacade(mgr)
	ws := createWorkspace(t, mgr, "deep work")
	if err := mgr.SetActiveWorkspace(context.Background(), ws.ID); err != nil {
		t.Fatalf("SetActiveWorkspace() error = %v", err)
	}
	if err := facade.SetQuickNote(context.Background(), ws.ID, "# Plan\n\n- read **everything**"); err != nil {
		t.Fatalf("SetQuickNote() error = %v", err)
	}

	resp, err := http.Get(srv.URL + "/workspaces")
	if err != nil {
		t.Fatalf("GET /workspaces: %v", err)
	}
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("index status = %d", resp.StatusCode)
	}
	if !strings.Contains(body, "deep work") {
		t.Errorf("index missing workspace name:\n%s", body)
	}
	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}

	resp, err = http.Get(fmt.Sprintf("%s/workspaces/%s", srv.URL, ws.ID))
	if err != nil {
		t.Fatalf("GET detail: %v", err)
	}
	body = readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("detail status = %d", resp.StatusCode)
	}
	if !strings.Contains(body, "<strong>everything</strong>") {
		t.Errorf("quick note markdown not rendered:\n%s", body)
	}

	resp, err = http.Get(srv.URL + "/workspaces/does-not-exist")
	if err != nil {
		t.Fatalf("GET missing detail: %v", err)
	}
	readBody(t, resp)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing workspace status = %d, want 404", resp.StatusCode)
	}
}

func TestRootRedirects(t *testing.T) {
	srv, _, _, _ := newTestServer(t)
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status = %d, want 302", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/workspaces" {
		t.Errorf("Location = %q", loc)
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	return buf.String()
}
