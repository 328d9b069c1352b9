// Package mcp exposes the vault over the Model Context Protocol so agents
// can read and edit workspaces alongside the extension surfaces.
package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tabvault/tabvault/internal/config"
	"github.com/tabvault/tabvault/internal/errors"
	"github.com/tabvault/tabvault/internal/legacy"
	"github.com/tabvault/tabvault/internal/record"
	"github.com/tabvault/tabvault/internal/store"
	"github.com/tabvault/tabvault/internal/tasks"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	mgr       *store.Manager
	facade    *legacy.Facade
	taskStore *tasks.Store
	cfg       *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(mgr *store.Manager, facade *legacy.Facade, taskStore *tasks.Store, cfg *config.Config) *Handlers {
	return &Handlers{mgr: mgr, facade: facade, taskStore: taskStore, cfg: cfg}
}

// Request types for each tool

// WorkspaceSaveRequest represents the arguments for workspace_save.
type WorkspaceSaveRequest struct {
	ID            string  `json:"id,omitempty"`
	Name          *string `json:"name,omitempty"`
	Description   *string `json:"description,omitempty"`
	Color         *string `json:"color,omitempty"`
	Icon          *string `json:"icon,omitempty"`
	ContextPrimer *string `json:"context_primer,omitempty"`
}

// WorkspaceActivateRequest represents the arguments for workspace_activate.
type WorkspaceActivateRequest struct {
	ID string `json:"id,omitempty"`
}

// WorkspaceIDRequest carries the single workspace id argument shared by
// workspace_delete, workspace_bundle, quicknote_get, and highlights_get.
type WorkspaceIDRequest struct {
	ID string `json:"id"`
}

// TabSetSaveRequest represents the arguments for tabset_save.
type TabSetSaveRequest struct {
	WorkspaceID string          `json:"workspace_id"`
	Name        string          `json:"name,omitempty"`
	Tabs        []record.TabRef `json:"tabs"`
}

// TabSetGetRequest represents the arguments for tabset_get.
type TabSetGetRequest struct {
	ID          string `json:"id,omitempty"`
	WorkspaceID string `json:"workspace_id,omitempty"`
}

// HighlightAddRequest represents the arguments for highlight_add.
type HighlightAddRequest struct {
	WorkspaceID string   `json:"workspace_id"`
	Text        string   `json:"text"`
	URL         string   `json:"url,omitempty"`
	Title       string   `json:"title,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// HighlightsGetRequest represents the arguments for highlights_get.
type HighlightsGetRequest struct {
	WorkspaceID string `json:"workspace_id"`
	Limit       int    `json:"limit,omitempty"`
}

// SettingsUpdateRequest represents the arguments for settings_update.
type SettingsUpdateRequest struct {
	OpenAIAPIKey             *string       `json:"openai_api_key,omitempty"`
	OpenAIModel              *string       `json:"openai_model,omitempty"`
	NotionAPIKey             *string       `json:"notion_api_key,omitempty"`
	NotionIntegrationEnabled *bool         `json:"notion_integration_enabled,omitempty"`
	FocusModeEnabled         *bool         `json:"focus_mode_enabled,omitempty"`
	AutoSaveTabSets          *bool         `json:"auto_save_tab_sets,omitempty"`
	Theme                    *record.Theme `json:"theme,omitempty"`
	MaxHighlights            *int          `json:"max_highlights,omitempty"`
}

// QuickNoteRequest represents the arguments for quicknote_get and quicknote_set.
type QuickNoteRequest struct {
	WorkspaceID string `json:"workspace_id"`
	Text        string `json:"text,omitempty"`
}

// TaskListRequest represents the arguments for task_list.
type TaskListRequest struct {
	WorkspaceID string `json:"workspace_id,omitempty"`
}

// TaskUpdateRequest represents the arguments for task_update.
type TaskUpdateRequest struct {
	ID     string             `json:"id"`
	Status *record.TaskStatus `json:"status,omitempty"`
	Error  *string            `json:"error,omitempty"`
	Result *record.TaskResult `json:"result,omitempty"`
}

// TaskDeleteRequest represents the arguments for task_delete.
type TaskDeleteRequest struct {
	ID string `json:"id"`
}

// DataImportRequest represents the arguments for data_import.
type DataImportRequest struct {
	Snapshot *store.Snapshot `json:"snapshot"`
}

// Handler implementations

// HandleWorkspaceList handles the workspace_list tool call.
func (h *Handlers) HandleWorkspaceList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list := h.mgr.ListWorkspaces(ctx)
	if list == nil {
		list = []record.Workspace{}
	}
	return successResult(map[string]any{
		"workspaces": list,
		"active_id":  h.mgr.GetActiveWorkspace(ctx),
	})
}

// HandleWorkspaceSave handles the workspace_save tool call.
func (h *Handlers) HandleWorkspaceSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[WorkspaceSaveRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	var ws record.Workspace
	if input.ID == "" {
		if input.Name == nil || *input.Name == "" {
			return errorResult(errors.NewInvalidRequest("name is required when creating a workspace")), nil
		}
		ws, err = store.NewWorkspace(*input.Name)
		if err != nil {
			return errorResult(errors.NewInternal(err)), nil
		}
	} else {
		existing := h.mgr.GetWorkspace(ctx, input.ID)
		if existing == nil {
			return errorResult(errors.NewNotFound(input.ID)), nil
		}
		ws = *existing
		if input.Name != nil {
			ws.Name = *input.Name
		}
	}
	if input.Description != nil {
		ws.Description = *input.Description
	}
	if input.Color != nil {
		ws.Color = *input.Color
	}
	if input.Icon != nil {
		ws.Icon = *input.Icon
	}
	if input.ContextPrimer != nil {
		ws.ContextPrimer = *input.ContextPrimer
	}

	if err := h.mgr.SaveWorkspace(ctx, ws); err != nil {
		return errorResult(err), nil
	}
	saved := h.mgr.GetWorkspace(ctx, ws.ID)
	if saved == nil {
		saved = &ws
	}
	return successResult(map[string]any{"workspace": saved})
}

// HandleWorkspaceActivate handles the workspace_activate tool call.
func (h *Handlers) HandleWorkspaceActivate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[WorkspaceActivateRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	if input.ID != "" && h.mgr.GetWorkspace(ctx, input.ID) == nil {
		return errorResult(errors.NewNotFound(input.ID)), nil
	}
	if err := h.mgr.SetActiveWorkspace(ctx, input.ID); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"active_id": h.mgr.GetActiveWorkspace(ctx)})
}

// HandleWorkspaceDelete handles the workspace_delete tool call.
func (h *Handlers) HandleWorkspaceDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[WorkspaceIDRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	if input.ID == "" {
		return errorResult(errors.NewInvalidRequest("id is required")), nil
	}

	if err := h.mgr.DeleteWorkspace(ctx, input.ID); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"deleted": input.ID})
}

// HandleWorkspaceBundle handles the workspace_bundle tool call.
func (h *Handlers) HandleWorkspaceBundle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[WorkspaceIDRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	if input.ID == "" {
		return errorResult(errors.NewInvalidRequest("id is required")), nil
	}

	bundle, err := h.mgr.BuildBundle(ctx, input.ID, h.facade, h.taskStore)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(bundle)
}

// HandleTabSetSave handles the tabset_save tool call.
func (h *Handlers) HandleTabSetSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TabSetSaveRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	if input.WorkspaceID == "" {
		return errorResult(errors.NewInvalidRequest("workspace_id is required")), nil
	}

	tabs := record.FilterWebTabs(input.Tabs)
	id, err := h.mgr.SaveTabSet(ctx, input.WorkspaceID, tabs, input.Name)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"tab_set_id": id, "tab_count": len(tabs)})
}

// HandleTabSetGet handles the tabset_get tool call.
func (h *Handlers) HandleTabSetGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TabSetGetRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	switch {
	case input.ID != "":
		ts := h.mgr.GetTabSet(ctx, input.ID)
		if ts == nil {
			return errorResult(errors.NewNotFound(input.ID)), nil
		}
		return successResult(map[string]any{"tab_set": ts})
	case input.WorkspaceID != "":
		sets := h.mgr.GetWorkspaceTabSets(ctx, input.WorkspaceID)
		if sets == nil {
			sets = []record.TabSet{}
		}
		return successResult(map[string]any{"tab_sets": sets})
	default:
		return errorResult(errors.NewInvalidRequest("id or workspace_id is required")), nil
	}
}

// HandleHighlightAdd handles the highlight_add tool call.
func (h *Handlers) HandleHighlightAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[HighlightAddRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	if input.WorkspaceID == "" {
		return errorResult(errors.NewInvalidRequest("workspace_id is required")), nil
	}
	if input.Text == "" {
		return errorResult(errors.NewInvalidRequest("text is required")), nil
	}

	id, err := record.NewID()
	if err != nil {
		return errorResult(errors.NewInternal(err)), nil
	}
	hl := record.Highlight{
		ID:        id,
		Text:      input.Text,
		URL:       input.URL,
		Title:     input.Title,
		Tags:      input.Tags,
		CreatedAt: record.Now(),
	}
	if err := h.mgr.AppendHighlight(ctx, input.WorkspaceID, hl); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"highlight_id": id})
}

// HandleHighlightsGet handles the highlights_get tool call.
func (h *Handlers) HandleHighlightsGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[HighlightsGetRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	if input.WorkspaceID == "" {
		return errorResult(errors.NewInvalidRequest("workspace_id is required")), nil
	}

	list := h.mgr.GetHighlights(ctx, input.WorkspaceID, input.Limit)
	if list == nil {
		list = []record.Highlight{}
	}
	return successResult(map[string]any{"highlights": list})
}

// HandleSettingsGet handles the settings_get tool call.
func (h *Handlers) HandleSettingsGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(map[string]any{"settings": h.mgr.GetSettings(ctx)})
}

// HandleSettingsUpdate handles the settings_update tool call.
func (h *Handlers) HandleSettingsUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SettingsUpdateRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	patch := record.SettingsPatch{
		OpenAIAPIKey:             input.OpenAIAPIKey,
		OpenAIModel:              input.OpenAIModel,
		NotionAPIKey:             input.NotionAPIKey,
		NotionIntegrationEnabled: input.NotionIntegrationEnabled,
		FocusModeEnabled:         input.FocusModeEnabled,
		AutoSaveTabSets:          input.AutoSaveTabSets,
		Theme:                    input.Theme,
		MaxHighlights:            input.MaxHighlights,
	}
	if err := h.mgr.SaveSettings(ctx, patch); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"settings": h.mgr.GetSettings(ctx)})
}

// HandleQuickNoteGet handles the quicknote_get tool call.
func (h *Handlers) HandleQuickNoteGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[QuickNoteRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	if input.WorkspaceID == "" {
		return errorResult(errors.NewInvalidRequest("workspace_id is required")), nil
	}

	text, err := h.facade.QuickNote(ctx, input.WorkspaceID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"text": text})
}

// HandleQuickNoteSet handles the quicknote_set tool call.
func (h *Handlers) HandleQuickNoteSet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[QuickNoteRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	if input.WorkspaceID == "" {
		return errorResult(errors.NewInvalidRequest("workspace_id is required")), nil
	}

	if input.Text == "" {
		if err := h.facade.RemoveQuickNote(ctx, input.WorkspaceID); err != nil {
			return errorResult(err), nil
		}
		return successResult(map[string]any{"removed": true})
	}
	if err := h.facade.SetQuickNote(ctx, input.WorkspaceID, input.Text); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"saved": true})
}

// HandleTaskList handles the task_list tool call.
func (h *Handlers) HandleTaskList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TaskListRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	var list []record.Task
	if input.WorkspaceID != "" {
		list, err = h.taskStore.ListByWorkspace(ctx, input.WorkspaceID)
	} else {
		list, err = h.taskStore.List(ctx)
	}
	if err != nil {
		return errorResult(err), nil
	}
	if list == nil {
		list = []record.Task{}
	}
	return successResult(map[string]any{"tasks": list})
}

// HandleTaskUpdate handles the task_update tool call.
func (h *Handlers) HandleTaskUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TaskUpdateRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	task, err := h.taskStore.Update(ctx, input.ID, tasks.UpdateInput{
		Status: input.Status,
		Error:  input.Error,
		Result: input.Result,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"task": task})
}

// HandleTaskDelete handles the task_delete tool call.
func (h *Handlers) HandleTaskDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TaskDeleteRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	if err := h.taskStore.Delete(ctx, input.ID); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"deleted": input.ID})
}

// HandleDataExport handles the data_export tool call.
func (h *Handlers) HandleDataExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, err := h.mgr.ExportData(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(snap)
}

// HandleDataImport handles the data_import tool call.
func (h *Handlers) HandleDataImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DataImportRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	if input.Snapshot == nil {
		return errorResult(errors.NewInvalidRequest("snapshot is required")), nil
	}

	if err := h.mgr.ImportData(ctx, input.Snapshot); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"imported": true})
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if vErr, ok := err.(*errors.VaultError); ok {
		errorObj := map[string]any{
			"code":    vErr.Code,
			"message": vErr.Message,
			"status":  vErr.Status,
		}
		if vErr.Code != errors.ErrInternal && vErr.Details != nil {
			errorObj["details"] = vErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
