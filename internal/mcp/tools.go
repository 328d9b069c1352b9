package mcp

import "github.com/mark3labs/mcp-go/mcp"

var workspaceListToolDef = mcp.NewTool("workspace_list",
	mcp.WithDescription("List all workspaces with their metadata and active state."),
)

var workspaceSaveToolDef = mcp.NewTool("workspace_save",
	mcp.WithDescription("Create a workspace, or update an existing one when id is given."),
	mcp.WithString("id", mcp.Description("Workspace id to update; omit to create")),
	mcp.WithString("name", mcp.Description("Workspace name; required when creating")),
	mcp.WithString("description", mcp.Description("Free-form description")),
	mcp.WithString("color", mcp.Description("UI accent color")),
	mcp.WithString("icon", mcp.Description("UI icon name")),
	mcp.WithString("context_primer", mcp.Description("Instruction string applied to AI analysis of this workspace")),
)

var workspaceActivateToolDef = mcp.NewTool("workspace_activate",
	mcp.WithDescription("Make a workspace the single active one, or clear the active workspace."),
	mcp.WithString("id", mcp.Description("Workspace id to activate; omit or empty to deactivate all")),
)

var workspaceDeleteToolDef = mcp.NewTool("workspace_delete",
	mcp.WithDescription("Delete a workspace together with its tab sets and highlights."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Workspace id to delete")),
)

var workspaceBundleToolDef = mcp.NewTool("workspace_bundle",
	mcp.WithDescription("Assemble one workspace's full contents: tab sets, highlights, quick note, tasks, and aggregate stats."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Workspace id")),
)

var tabSetSaveToolDef = mcp.NewTool("tabset_save",
	mcp.WithDescription("Save an ordered snapshot of browser tabs into a workspace. Non-web tabs are filtered out."),
	mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Owning workspace id")),
	mcp.WithString("name", mcp.Description("Tab set name; defaults to a timestamped name")),
	mcp.WithArray("tabs", mcp.Required(), mcp.Description("Tab snapshots: {id, url, title, favIconUrl, pinned, index}")),
)

var tabSetGetToolDef = mcp.NewTool("tabset_get",
	mcp.WithDescription("Fetch one tab set by id, or all tab sets of a workspace."),
	mcp.WithString("id", mcp.Description("Tab set id")),
	mcp.WithString("workspace_id", mcp.Description("Workspace id to list tab sets for")),
)

var highlightAddToolDef = mcp.NewTool("highlight_add",
	mcp.WithDescription("Save a text highlight into a workspace. The per-workspace cap evicts the oldest entries."),
	mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Owning workspace id")),
	mcp.WithString("text", mcp.Required(), mcp.Description("Highlighted text")),
	mcp.WithString("url", mcp.Description("Source page URL")),
	mcp.WithString("title", mcp.Description("Source page title")),
	mcp.WithArray("tags", mcp.Description("Optional tags")),
)

var highlightsGetToolDef = mcp.NewTool("highlights_get",
	mcp.WithDescription("Fetch a workspace's highlights, newest first."),
	mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace id")),
	mcp.WithNumber("limit", mcp.Description("Maximum highlights to return; defaults to 50")),
)

var settingsGetToolDef = mcp.NewTool("settings_get",
	mcp.WithDescription("Read the effective settings with defaults applied."),
)

var settingsUpdateToolDef = mcp.NewTool("settings_update",
	mcp.WithDescription("Merge a partial settings update field by field; omitted fields keep their values."),
	mcp.WithString("openai_api_key", mcp.Description("OpenAI API key")),
	mcp.WithString("openai_model", mcp.Description("OpenAI model name")),
	mcp.WithString("notion_api_key", mcp.Description("Notion API key")),
	mcp.WithBoolean("notion_integration_enabled", mcp.Description("Enable the Notion integration")),
	mcp.WithBoolean("focus_mode_enabled", mcp.Description("Enable focus mode")),
	mcp.WithBoolean("auto_save_tab_sets", mcp.Description("Automatically save tab sets")),
	mcp.WithString("theme", mcp.Description("UI theme: light, dark, or auto")),
	mcp.WithNumber("max_highlights", mcp.Description("Per-workspace highlight cap")),
)

var quickNoteGetToolDef = mcp.NewTool("quicknote_get",
	mcp.WithDescription("Read a workspace's quick note markdown."),
	mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace id")),
)

var quickNoteSetToolDef = mcp.NewTool("quicknote_set",
	mcp.WithDescription("Replace a workspace's quick note; empty text removes it."),
	mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace id")),
	mcp.WithString("text", mcp.Description("Note markdown; empty removes the note")),
)

var taskListToolDef = mcp.NewTool("task_list",
	mcp.WithDescription("List background analysis tasks, optionally scoped to a workspace."),
	mcp.WithString("workspace_id", mcp.Description("Workspace id to filter by")),
)

var taskUpdateToolDef = mcp.NewTool("task_update",
	mcp.WithDescription("Advance a task's lifecycle state. Completed and failed tasks are immutable."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Task id")),
	mcp.WithString("status", mcp.Description("New status: queued, processing, completed, or failed")),
	mcp.WithString("error", mcp.Description("Failure message")),
	mcp.WithObject("result", mcp.Description("Analysis result: {summary, keyPoints}")),
)

var taskDeleteToolDef = mcp.NewTool("task_delete",
	mcp.WithDescription("Delete a task in any state."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Task id")),
)

var dataExportToolDef = mcp.NewTool("data_export",
	mcp.WithDescription("Export every stored record from both partitions as a versioned snapshot."),
)

var dataImportToolDef = mcp.NewTool("data_import",
	mcp.WithDescription("Import a snapshot additively; existing keys are overwritten, unrelated keys are kept."),
	mcp.WithObject("snapshot", mcp.Required(), mcp.Description("Snapshot previously produced by data_export")),
)
