package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tabvault/tabvault/internal/config"
	"github.com/tabvault/tabvault/internal/kv"
	"github.com/tabvault/tabvault/internal/legacy"
	"github.com/tabvault/tabvault/internal/mcp"
	"github.com/tabvault/tabvault/internal/store"
	"github.com/tabvault/tabvault/internal/tasks"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"workspace": true, "tabset": true, "highlight": true,
	"note": true, "settings": true, "task": true,
	"export": true, "import": true, "clear": true,
	"serve": true, "help": true,
}

// app bundles everything the CLI and server surfaces share.
type app struct {
	mgr       *store.Manager
	facade    *legacy.Facade
	taskStore *tasks.Store
	cfg       *config.Config
	baseDir   string
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false // Default → MCP server
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   _        _                     _ _
  | |_ __ _| |____   ____ _ _   _| | |_
  | __/ _' | '_ \ \ / / _' | | | | | __|
  | || (_| | |_) \ V / (_| | |_| | | |_
   \__\__,_|_.__/ \_/ \__,_|\__,_|_|\__|

  Workspace vault for browser sessions

  Usage: tabvault <command> [options]
         tabvault --help

  MCP server mode requires piped input.`)
}

// openApp opens both partitions and loads config under baseDir.
func openApp(baseDir string) (*app, func(), error) {
	cfg, err := config.Load(baseDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Zero config values mean "keep the built-in quota defaults"; the
	// partition options treat zero as "disable the check", so only pass
	// explicit overrides through.
	var syncOpts []kv.SQLiteOption
	if cfg.SyncItemMaxBytes > 0 {
		syncOpts = append(syncOpts, kv.WithItemMaxBytes(cfg.SyncItemMaxBytes))
	}
	if cfg.SyncMaxItems > 0 {
		syncOpts = append(syncOpts, kv.WithMaxItems(cfg.SyncMaxItems))
	}
	syncPart, err := kv.OpenSQLite(baseDir, syncOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open sync partition: %w", err)
	}
	localPart, err := kv.OpenBadger(baseDir)
	if err != nil {
		syncPart.Close()
		return nil, nil, fmt.Errorf("failed to open local partition: %w", err)
	}

	mgr := store.NewManager(syncPart, localPart)
	a := &app{
		mgr:       mgr,
		facade:    legacy.NewFacade(mgr),
		taskStore: tasks.NewStore(localPart),
		cfg:       cfg,
		baseDir:   baseDir,
	}
	closeAll := func() {
		localPart.Close()
		syncPart.Close()
	}
	return a, closeAll, nil
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before opening storage (none needed)
	if isHelpOrVersion() {
		cliApp := newCLIApp(nil)
		if err := cliApp.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}
	baseDir := filepath.Join(homeDir, ".tabvault")

	a, closeAll, err := openApp(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeAll()

	if unknown := mcp.ValidateDisabledTools(a.cfg.DisabledTools); len(unknown) > 0 {
		fmt.Fprintf(os.Stderr, "warning: unknown disabled tools in config: %v\n", unknown)
	}

	// CLI mode: known subcommand
	if isCLIMode() {
		cliApp := newCLIApp(a)
		if err := cliApp.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'tabvault --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default)
	if err := mcp.Run(a.mgr, a.facade, a.taskStore, a.cfg, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
