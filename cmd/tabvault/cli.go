package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/tabvault/tabvault/internal/errors"
	"github.com/tabvault/tabvault/internal/record"
	"github.com/tabvault/tabvault/internal/store"
	"github.com/tabvault/tabvault/internal/tasks"
	"github.com/tabvault/tabvault/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(a *app) *cli.App {
	cliApp := &cli.App{
		Name:    "tabvault",
		Usage:   "Workspace vault for browser sessions",
		Version: Version,
		Commands: []*cli.Command{
			workspaceCmd(a),
			tabsetCmd(a),
			highlightCmd(a),
			noteCmd(a),
			settingsCmd(a),
			taskCmd(a),
			exportCmd(a),
			importCmd(a),
			clearCmd(a),
			serveCmd(a),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	cliApp.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return cliApp
}

// workspaceCmd groups workspace subcommands.
func workspaceCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "workspace",
		Usage: "Manage workspaces",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List all workspaces",
				Action: func(c *cli.Context) error {
					list := a.mgr.ListWorkspaces(c.Context)
					if list == nil {
						list = []record.Workspace{}
					}
					return outputJSON(map[string]any{
						"workspaces": list,
						"active_id":  a.mgr.GetActiveWorkspace(c.Context),
					})
				},
			},
			{
				Name:      "create",
				Usage:     "Create a new workspace",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Workspace description"},
					&cli.StringFlag{Name: "color", Usage: "UI accent color"},
					&cli.StringFlag{Name: "icon", Usage: "UI icon name"},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() < 1 {
						return outputError(errors.NewInvalidRequest("workspace name is required"))
					}
					ws, err := store.NewWorkspace(c.Args().First())
					if err != nil {
						return outputError(errors.NewInternal(err))
					}
					ws.Description = c.String("description")
					ws.Color = c.String("color")
					ws.Icon = c.String("icon")
					if err := a.mgr.SaveWorkspace(c.Context, ws); err != nil {
						return outputError(err)
					}
					return outputJSON(ws)
				},
			},
			{
				Name:      "use",
				Usage:     "Activate a workspace (empty id deactivates all)",
				ArgsUsage: "[id]",
				Action: func(c *cli.Context) error {
					id := c.Args().First()
					if id != "" && a.mgr.GetWorkspace(c.Context, id) == nil {
						return outputError(errors.NewNotFound(id))
					}
					if err := a.mgr.SetActiveWorkspace(c.Context, id); err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"active_id": a.mgr.GetActiveWorkspace(c.Context)})
				},
			},
			{
				Name:      "rename",
				Usage:     "Rename a workspace",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Required: true, Usage: "New name"},
				},
				Action: func(c *cli.Context) error {
					id := c.Args().First()
					ws := a.mgr.GetWorkspace(c.Context, id)
					if ws == nil {
						return outputError(errors.NewNotFound(id))
					}
					ws.Name = c.String("name")
					if err := a.mgr.SaveWorkspace(c.Context, *ws); err != nil {
						return outputError(err)
					}
					return outputJSON(a.mgr.GetWorkspace(c.Context, id))
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a workspace with its tab sets and highlights",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					id := c.Args().First()
					if id == "" {
						return outputError(errors.NewInvalidRequest("workspace id is required"))
					}
					if a.mgr.GetWorkspace(c.Context, id) == nil {
						return outputError(errors.NewNotFound(id))
					}
					if err := a.mgr.DeleteWorkspace(c.Context, id); err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"deleted": id})
				},
			},
			{
				Name:      "bundle",
				Usage:     "Export one workspace's full contents with stats",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					id := c.Args().First()
					if id == "" {
						return outputError(errors.NewInvalidRequest("workspace id is required"))
					}
					bundle, err := a.mgr.BuildBundle(c.Context, id, a.facade, a.taskStore)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(bundle)
				},
			},
		},
	}
}

// tabsetCmd groups tab set subcommands.
func tabsetCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "tabset",
		Usage: "Manage saved tab sets",
		Subcommands: []*cli.Command{
			{
				Name:  "save",
				Usage: "Save a tab set (reads tab JSON array from stdin)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "workspace", Aliases: []string{"w"}, Required: true, Usage: "Owning workspace id"},
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Tab set name (defaults to timestamp)"},
				},
				Action: func(c *cli.Context) error {
					if !stdinHasData() {
						return outputError(errors.NewInvalidRequest("tab JSON must be piped via stdin"))
					}
					data, err := readStdin()
					if err != nil {
						return outputError(errors.NewInternal(err))
					}
					var tabs []record.TabRef
					if err := json.Unmarshal([]byte(data), &tabs); err != nil {
						return outputError(errors.NewInvalidRequest("stdin must be a JSON array of tabs: " + err.Error()))
					}
					tabs = record.FilterWebTabs(tabs)
					id, err := a.mgr.SaveTabSet(c.Context, c.String("workspace"), tabs, c.String("name"))
					if err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"tab_set_id": id, "tab_count": len(tabs)})
				},
			},
			{
				Name:  "list",
				Usage: "List a workspace's tab sets",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "workspace", Aliases: []string{"w"}, Required: true, Usage: "Workspace id"},
				},
				Action: func(c *cli.Context) error {
					sets := a.mgr.GetWorkspaceTabSets(c.Context, c.String("workspace"))
					if sets == nil {
						sets = []record.TabSet{}
					}
					return outputJSON(map[string]any{"tab_sets": sets})
				},
			},
			{
				Name:      "show",
				Usage:     "Show one tab set",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					id := c.Args().First()
					ts := a.mgr.GetTabSet(c.Context, id)
					if ts == nil {
						return outputError(errors.NewNotFound(id))
					}
					return outputJSON(ts)
				},
			},
		},
	}
}

// highlightCmd groups highlight subcommands.
func highlightCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "highlight",
		Usage: "Manage saved highlights",
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Save a highlight (text as argument or via stdin)",
				ArgsUsage: "[text]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "workspace", Aliases: []string{"w"}, Required: true, Usage: "Owning workspace id"},
					&cli.StringFlag{Name: "url", Usage: "Source page URL"},
					&cli.StringFlag{Name: "title", Usage: "Source page title"},
					&cli.StringFlag{Name: "tags", Usage: "Comma-separated tags"},
				},
				Action: func(c *cli.Context) error {
					text := c.Args().First()
					if text == "" && stdinHasData() {
						var err error
						text, err = readStdin()
						if err != nil {
							return outputError(errors.NewInternal(err))
						}
					}
					if text == "" {
						return outputError(errors.NewInvalidRequest("highlight text is required"))
					}
					id, err := record.NewID()
					if err != nil {
						return outputError(errors.NewInternal(err))
					}
					h := record.Highlight{
						ID:        id,
						Text:      text,
						URL:       c.String("url"),
						Title:     c.String("title"),
						Tags:      parseTags(c.String("tags")),
						CreatedAt: record.Now(),
					}
					if err := a.mgr.AppendHighlight(c.Context, c.String("workspace"), h); err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"highlight_id": id})
				},
			},
			{
				Name:  "list",
				Usage: "List a workspace's highlights, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "workspace", Aliases: []string{"w"}, Required: true, Usage: "Workspace id"},
					&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Maximum highlights to return"},
				},
				Action: func(c *cli.Context) error {
					list := a.mgr.GetHighlights(c.Context, c.String("workspace"), c.Int("limit"))
					if list == nil {
						list = []record.Highlight{}
					}
					return outputJSON(map[string]any{"highlights": list})
				},
			},
		},
	}
}

// noteCmd groups quick note subcommands.
func noteCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "note",
		Usage: "Manage per-workspace quick notes",
		Subcommands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Print a workspace's quick note",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "workspace", Aliases: []string{"w"}, Required: true, Usage: "Workspace id"},
				},
				Action: func(c *cli.Context) error {
					text, err := a.facade.QuickNote(c.Context, c.String("workspace"))
					if err != nil {
						return outputError(err)
					}
					fmt.Println(text)
					return nil
				},
			},
			{
				Name:      "set",
				Usage:     "Replace a workspace's quick note (text as argument or via stdin; empty removes)",
				ArgsUsage: "[text]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "workspace", Aliases: []string{"w"}, Required: true, Usage: "Workspace id"},
				},
				Action: func(c *cli.Context) error {
					text := c.Args().First()
					if text == "" && stdinHasData() {
						var err error
						text, err = readStdin()
						if err != nil {
							return outputError(errors.NewInternal(err))
						}
					}
					wsID := c.String("workspace")
					if text == "" {
						if err := a.facade.RemoveQuickNote(c.Context, wsID); err != nil {
							return outputError(err)
						}
						return outputJSON(map[string]any{"removed": true})
					}
					if err := a.facade.SetQuickNote(c.Context, wsID, text); err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"saved": true})
				},
			},
		},
	}
}

// settingsCmd groups settings subcommands.
func settingsCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Read and update settings",
		Subcommands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Print the effective settings with defaults applied",
				Action: func(c *cli.Context) error {
					return outputJSON(a.mgr.GetSettings(c.Context))
				},
			},
			{
				Name:  "set",
				Usage: "Merge a partial settings update; unset flags keep their values",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "theme", Usage: "UI theme: light|dark|auto"},
					&cli.IntFlag{Name: "max-highlights", Usage: "Per-workspace highlight cap"},
					&cli.StringFlag{Name: "openai-api-key", Usage: "OpenAI API key"},
					&cli.StringFlag{Name: "openai-model", Usage: "OpenAI model name"},
					&cli.StringFlag{Name: "notion-api-key", Usage: "Notion API key"},
					&cli.BoolFlag{Name: "notion-integration", Usage: "Enable the Notion integration"},
					&cli.BoolFlag{Name: "focus-mode", Usage: "Enable focus mode"},
					&cli.BoolFlag{Name: "auto-save-tab-sets", Usage: "Automatically save tab sets"},
				},
				Action: func(c *cli.Context) error {
					var patch record.SettingsPatch
					if c.IsSet("theme") {
						theme := record.Theme(c.String("theme"))
						patch.Theme = &theme
					}
					if c.IsSet("max-highlights") {
						n := c.Int("max-highlights")
						patch.MaxHighlights = &n
					}
					if c.IsSet("openai-api-key") {
						v := c.String("openai-api-key")
						patch.OpenAIAPIKey = &v
					}
					if c.IsSet("openai-model") {
						v := c.String("openai-model")
						patch.OpenAIModel = &v
					}
					if c.IsSet("notion-api-key") {
						v := c.String("notion-api-key")
						patch.NotionAPIKey = &v
					}
					if c.IsSet("notion-integration") {
						v := c.Bool("notion-integration")
						patch.NotionIntegrationEnabled = &v
					}
					if c.IsSet("focus-mode") {
						v := c.Bool("focus-mode")
						patch.FocusModeEnabled = &v
					}
					if c.IsSet("auto-save-tab-sets") {
						v := c.Bool("auto-save-tab-sets")
						patch.AutoSaveTabSets = &v
					}
					if err := a.mgr.SaveSettings(c.Context, patch); err != nil {
						return outputError(err)
					}
					return outputJSON(a.mgr.GetSettings(c.Context))
				},
			},
		},
	}
}

// taskCmd groups task subcommands.
func taskCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "task",
		Usage: "Manage background analysis tasks",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List tasks, optionally scoped to a workspace",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "workspace", Aliases: []string{"w"}, Usage: "Workspace id to filter by"},
				},
				Action: func(c *cli.Context) error {
					var (
						list []record.Task
						err  error
					)
					if wsID := c.String("workspace"); wsID != "" {
						list, err = a.taskStore.ListByWorkspace(c.Context, wsID)
					} else {
						list, err = a.taskStore.List(c.Context)
					}
					if err != nil {
						return outputError(err)
					}
					if list == nil {
						list = []record.Task{}
					}
					return outputJSON(map[string]any{"tasks": list})
				},
			},
			{
				Name:      "update",
				Usage:     "Advance a task's lifecycle state",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "status", Usage: "New status: queued|processing|completed|failed"},
					&cli.StringFlag{Name: "error", Usage: "Failure message"},
				},
				Action: func(c *cli.Context) error {
					input := tasks.UpdateInput{}
					if c.IsSet("status") {
						status := record.TaskStatus(c.String("status"))
						input.Status = &status
					}
					if c.IsSet("error") {
						msg := c.String("error")
						input.Error = &msg
					}
					task, err := a.taskStore.Update(c.Context, c.Args().First(), input)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(task)
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a task",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					id := c.Args().First()
					if err := a.taskStore.Delete(c.Context, id); err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"deleted": id})
				},
			},
		},
	}
}

// exportCmd creates the export command.
func exportCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export all data to a snapshot file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: <base>/exports/tabvault-<timestamp>.json)"},
		},
		Action: func(c *cli.Context) error {
			out, err := a.mgr.ExportToFile(c.Context, c.String("path"), a.baseDir, a.cfg)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(out)
		},
	}
}

// importCmd creates the import command.
func importCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import a snapshot file additively",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Snapshot file path"},
		},
		Action: func(c *cli.Context) error {
			out, err := a.mgr.ImportFromFile(c.Context, c.String("path"), a.baseDir, a.cfg)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(out)
		},
	}
}

// clearCmd creates the clear command.
func clearCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "clear",
		Usage: "Remove every stored record from both partitions",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Usage: "Confirm the wipe"},
		},
		Action: func(c *cli.Context) error {
			if !c.Bool("yes") {
				return outputError(errors.NewInvalidRequest("pass --yes to confirm clearing all data"))
			}
			if err := a.mgr.ClearAllData(c.Context); err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"cleared": true})
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the web UI and message API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Bind address"},
			&cli.IntFlag{Name: "port", Value: 8417, Usage: "Listen port"},
		},
		Action: func(c *cli.Context) error {
			renderer, err := web.NewRenderer()
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			h := web.NewHandlers(a.mgr, a.facade, a.taskStore, nil, renderer, Version)
			srv := web.NewServer(h, c.String("bind"), c.Int("port"))
			if err := srv.Run(c.Context); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if vErr, ok := err.(*errors.VaultError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", vErr.Code, vErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// parseTags splits a comma-separated string into a slice of tags.
func parseTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
