// Package web serves a read-mostly HTML view over the vault plus the
// /api/message endpoint the extension surfaces talk to.
package web

import (
	"log"
	"net/http"

	"github.com/tabvault/tabvault/internal/legacy"
	"github.com/tabvault/tabvault/internal/record"
	"github.com/tabvault/tabvault/internal/store"
	"github.com/tabvault/tabvault/internal/tasks"
)

// Handlers bundles the stores the web surface reads from.
type Handlers struct {
	mgr       *store.Manager
	facade    *legacy.Facade
	taskStore *tasks.Store
	tabs      TabController
	renderer  *Renderer
	version   string
}

// NewHandlers wires the page and message handlers against the given stores.
func NewHandlers(mgr *store.Manager, facade *legacy.Facade, taskStore *tasks.Store, tabs TabController, renderer *Renderer, version string) *Handlers {
	if tabs == nil {
		tabs = LogTabController{}
	}
	return &Handlers{
		mgr:       mgr,
		facade:    facade,
		taskStore: taskStore,
		tabs:      tabs,
		renderer:  renderer,
		version:   version,
	}
}

type workspacesPage struct {
	Version    string
	Workspaces []record.Workspace
	ActiveID   string
}

// HandleWorkspaces renders the workspace index in store order.
func (h *Handlers) HandleWorkspaces(w http.ResponseWriter, r *http.Request) {
	page := workspacesPage{
		Version:    h.version,
		Workspaces: h.mgr.ListWorkspaces(r.Context()),
		ActiveID:   h.mgr.GetActiveWorkspace(r.Context()),
	}
	if err := h.renderer.renderPage(w, "workspaces.html", page); err != nil {
		log.Printf("web: render workspaces: %v", err)
		h.renderer.renderError(w, http.StatusInternalServerError, "failed to render page")
	}
}

type detailPage struct {
	Version    string
	Workspace  record.Workspace
	TabSets    []record.TabSet
	Highlights []record.Highlight
	QuickNote  string
	Tasks      []record.Task
}

// HandleWorkspaceDetail renders one workspace with its tab sets,
// highlights, quick note, and tasks.
func (h *Handlers) HandleWorkspaceDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ws := h.mgr.GetWorkspace(r.Context(), id)
	if ws == nil {
		h.renderer.renderError(w, http.StatusNotFound, "workspace not found: "+id)
		return
	}

	note, err := h.facade.QuickNote(r.Context(), id)
	if err != nil {
		log.Printf("web: quick note for %s: %v", id, err)
	}
	taskList, err := h.taskStore.ListByWorkspace(r.Context(), id)
	if err != nil {
		log.Printf("web: tasks for %s: %v", id, err)
	}

	page := detailPage{
		Version:    h.version,
		Workspace:  *ws,
		TabSets:    h.mgr.GetWorkspaceTabSets(r.Context(), id),
		Highlights: h.mgr.GetHighlights(r.Context(), id, 0),
		QuickNote:  note,
		Tasks:      taskList,
	}
	if err := h.renderer.renderPage(w, "detail.html", page); err != nil {
		log.Printf("web: render workspace %s: %v", id, err)
		h.renderer.renderError(w, http.StatusInternalServerError, "failed to render page")
	}
}

// HandleRoot redirects the bare root to the workspace index.
func (h *Handlers) HandleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/workspaces", http.StatusFound)
}
