package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tabvault/tabvault/internal/config"
	"github.com/tabvault/tabvault/internal/legacy"
	"github.com/tabvault/tabvault/internal/store"
	"github.com/tabvault/tabvault/internal/tasks"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"workspace_list": {
		def:     workspaceListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleWorkspaceList },
	},
	"workspace_save": {
		def:     workspaceSaveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleWorkspaceSave },
	},
	"workspace_activate": {
		def:     workspaceActivateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleWorkspaceActivate },
	},
	"workspace_delete": {
		def:     workspaceDeleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleWorkspaceDelete },
	},
	"workspace_bundle": {
		def:     workspaceBundleToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleWorkspaceBundle },
	},
	"tabset_save": {
		def:     tabSetSaveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTabSetSave },
	},
	"tabset_get": {
		def:     tabSetGetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTabSetGet },
	},
	"highlight_add": {
		def:     highlightAddToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHighlightAdd },
	},
	"highlights_get": {
		def:     highlightsGetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHighlightsGet },
	},
	"settings_get": {
		def:     settingsGetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSettingsGet },
	},
	"settings_update": {
		def:     settingsUpdateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSettingsUpdate },
	},
	"quicknote_get": {
		def:     quickNoteGetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleQuickNoteGet },
	},
	"quicknote_set": {
		def:     quickNoteSetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleQuickNoteSet },
	},
	"task_list": {
		def:     taskListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTaskList },
	},
	"task_update": {
		def:     taskUpdateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTaskUpdate },
	},
	"task_delete": {
		def:     taskDeleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTaskDelete },
	},
	"data_export": {
		def:     dataExportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDataExport },
	},
	"data_import": {
		def:     dataImportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDataImport },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates a new MCP server with tabvault tools registered.
// Tools listed in cfg.DisabledTools are excluded from registration.
func NewServer(mgr *store.Manager, facade *legacy.Facade, taskStore *tasks.Store, cfg *config.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"tabvault",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(mgr, facade, taskStore, cfg)

	disabled := make(map[string]bool)
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(mgr *store.Manager, facade *legacy.Facade, taskStore *tasks.Store, cfg *config.Config, version string) error {
	s := NewServer(mgr, facade, taskStore, cfg, version)
	return server.ServeStdio(s)
}
