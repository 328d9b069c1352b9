package web

import (
	"encoding/json"
	"net/http"

	"github.com/tabvault/tabvault/internal/errors"
	"github.com/tabvault/tabvault/internal/record"
	"github.com/tabvault/tabvault/internal/tasks"
)

// Message is the request envelope of the extension message surface.
type Message struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Message action names. SAVE_HIGHLIGHT keeps its historical spelling; it
// originates from the content script rather than the popup.
const (
	ActionSaveCurrentTabSet   = "saveCurrentTabSet"
	ActionOpenWorkspaceTabSet = "openWorkspaceTabSet"
	ActionToggleFocusMode     = "toggleFocusMode"
	ActionGetTasks            = "getTasks"
	ActionUpdateTask          = "updateTask"
	ActionDeleteTask          = "deleteTask"
	ActionSaveHighlight       = "SAVE_HIGHLIGHT"
)

// HandleMessage handles POST /api/message, the {action, data} request
// surface consumed by the extension's popup and content scripts. Every
// response carries success plus action-specific fields, or success=false
// with an error string.
func (h *Handlers) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var msg Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeMessageError(w, errors.NewInvalidRequest("request body must be {action, data} JSON"))
		return
	}

	var (
		resp map[string]any
		err  error
	)
	switch msg.Action {
	case ActionSaveCurrentTabSet:
		resp, err = h.saveCurrentTabSet(r, msg.Data)
	case ActionOpenWorkspaceTabSet:
		resp, err = h.openWorkspaceTabSet(r, msg.Data)
	case ActionToggleFocusMode:
		resp, err = h.toggleFocusMode(r)
	case ActionGetTasks:
		resp, err = h.getTasks(r, msg.Data)
	case ActionUpdateTask:
		resp, err = h.updateTask(r, msg.Data)
	case ActionDeleteTask:
		resp, err = h.deleteTask(r, msg.Data)
	case ActionSaveHighlight:
		resp, err = h.saveHighlight(r, msg.Data)
	default:
		err = errors.NewInvalidRequest("unknown action: " + msg.Action)
	}

	if err != nil {
		writeMessageError(w, err)
		return
	}
	resp["success"] = true
	writeJSON(w, http.StatusOK, resp)
}

type saveTabSetData struct {
	WorkspaceID string          `json:"workspaceId"`
	Name        string          `json:"name,omitempty"`
	Tabs        []record.TabRef `json:"tabs"`
}

func (h *Handlers) saveCurrentTabSet(r *http.Request, data json.RawMessage) (map[string]any, error) {
	var d saveTabSetData
	if err := decodeData(data, &d); err != nil {
		return nil, err
	}
	if d.WorkspaceID == "" {
		return nil, errors.NewInvalidRequest("workspaceId is required")
	}

	tabs := record.FilterWebTabs(d.Tabs)
	id, err := h.mgr.SaveTabSet(r.Context(), d.WorkspaceID, tabs, d.Name)
	if err != nil {
		return nil, err
	}
	return map[string]any{"tabSetId": id, "tabCount": len(tabs)}, nil
}

type openTabSetData struct {
	TabSetID string `json:"tabSetId"`
}

func (h *Handlers) openWorkspaceTabSet(r *http.Request, data json.RawMessage) (map[string]any, error) {
	var d openTabSetData
	if err := decodeData(data, &d); err != nil {
		return nil, err
	}

	ts := h.mgr.GetTabSet(r.Context(), d.TabSetID)
	if ts == nil {
		return nil, errors.NewNotFound(d.TabSetID)
	}
	if err := h.tabs.OpenTabSet(r.Context(), *ts); err != nil {
		return nil, errors.NewInternal(err)
	}
	return map[string]any{"opened": len(ts.Tabs)}, nil
}

func (h *Handlers) toggleFocusMode(r *http.Request) (map[string]any, error) {
	enabled := !h.mgr.GetSettings(r.Context()).FocusModeEnabled
	if err := h.mgr.SaveSettings(r.Context(), record.SettingsPatch{FocusModeEnabled: &enabled}); err != nil {
		return nil, err
	}
	if err := h.tabs.SetFocusMode(r.Context(), enabled); err != nil {
		return nil, errors.NewInternal(err)
	}
	return map[string]any{"focusModeEnabled": enabled}, nil
}

type getTasksData struct {
	WorkspaceID string `json:"workspaceId,omitempty"`
}

func (h *Handlers) getTasks(r *http.Request, data json.RawMessage) (map[string]any, error) {
	var d getTasksData
	if len(data) > 0 {
		if err := decodeData(data, &d); err != nil {
			return nil, err
		}
	}

	var (
		list []record.Task
		err  error
	)
	if d.WorkspaceID != "" {
		list, err = h.taskStore.ListByWorkspace(r.Context(), d.WorkspaceID)
	} else {
		list, err = h.taskStore.List(r.Context())
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	if list == nil {
		list = []record.Task{}
	}
	return map[string]any{"tasks": list}, nil
}

type updateTaskData struct {
	ID     string             `json:"id"`
	Status *record.TaskStatus `json:"status,omitempty"`
	Error  *string            `json:"error,omitempty"`
	Result *record.TaskResult `json:"result,omitempty"`
}

func (h *Handlers) updateTask(r *http.Request, data json.RawMessage) (map[string]any, error) {
	var d updateTaskData
	if err := decodeData(data, &d); err != nil {
		return nil, err
	}

	task, err := h.taskStore.Update(r.Context(), d.ID, tasks.UpdateInput{
		Status: d.Status,
		Error:  d.Error,
		Result: d.Result,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"task": task}, nil
}

type deleteTaskData struct {
	ID string `json:"id"`
}

func (h *Handlers) deleteTask(r *http.Request, data json.RawMessage) (map[string]any, error) {
	var d deleteTaskData
	if err := decodeData(data, &d); err != nil {
		return nil, err
	}
	if err := h.taskStore.Delete(r.Context(), d.ID); err != nil {
		return nil, err
	}
	return map[string]any{"deleted": d.ID}, nil
}

type saveHighlightData struct {
	WorkspaceID string   `json:"workspaceId"`
	Text        string   `json:"text"`
	URL         string   `json:"url"`
	Title       string   `json:"title,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

func (h *Handlers) saveHighlight(r *http.Request, data json.RawMessage) (map[string]any, error) {
	var d saveHighlightData
	if err := decodeData(data, &d); err != nil {
		return nil, err
	}
	if d.WorkspaceID == "" {
		return nil, errors.NewInvalidRequest("workspaceId is required")
	}
	if d.Text == "" {
		return nil, errors.NewInvalidRequest("text is required")
	}

	id, err := record.NewID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	highlight := record.Highlight{
		ID:        id,
		Text:      d.Text,
		URL:       d.URL,
		Title:     d.Title,
		Tags:      d.Tags,
		CreatedAt: record.Now(),
	}
	if err := h.mgr.AppendHighlight(r.Context(), d.WorkspaceID, highlight); err != nil {
		return nil, err
	}
	return map[string]any{"highlightId": id}, nil
}

// decodeData unmarshals an action's data payload into a typed struct.
func decodeData(data json.RawMessage, out any) error {
	if len(data) == 0 {
		return errors.NewInvalidRequest("data is required")
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.NewInvalidRequest("malformed data payload: " + err.Error())
	}
	return nil
}

// writeMessageError writes a {success:false, error} envelope with the
// status carried by a VaultError, or 500 for anything else.
func writeMessageError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if vErr, ok := err.(*errors.VaultError); ok && vErr.Status != 0 {
		status = vErr.Status
	}
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   err.Error(),
	})
}

// writeJSON writes a JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
