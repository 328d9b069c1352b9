package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/tabvault/tabvault/internal/config"
	"github.com/tabvault/tabvault/internal/errors"
)

func TestExportToFileAndImportFromFile(t *testing.T) {
	ctx := context.Background()
	baseDir := t.TempDir()
	cfg := config.DefaultConfig()

	m, _, _ := newTestManager(t)
	id := mustCreateWorkspace(t, m, "portable")

	out, err := m.ExportToFile(ctx, "", baseDir, cfg)
	if err != nil {
		t.Fatalf("ExportToFile() error = %v", err)
	}
	if filepath.Dir(out.Path) != filepath.Join(baseDir, "exports") {
		t.Errorf("default export path = %q, want under %s/exports", out.Path, baseDir)
	}
	if out.SyncKeys == 0 {
		t.Error("SyncKeys = 0, want at least the workspace collection")
	}
	if _, err := os.Stat(out.Path); err != nil {
		t.Fatalf("export file missing: %v", err)
	}

	m2, _, _ := newTestManager(t)
	in, err := m2.ImportFromFile(ctx, out.Path, baseDir, cfg)
	if err != nil {
		t.Fatalf("ImportFromFile() error = %v", err)
	}
	if in.Version != SnapshotVersion {
		t.Errorf("Version = %q, want %q", in.Version, SnapshotVersion)
	}
	if got := m2.GetWorkspace(ctx, id); got == nil || got.Name != "portable" {
		t.Errorf("imported workspace = %+v", got)
	}
}

func TestExportToFileKeepsExistingOnOverwrite(t *testing.T) {
	ctx := context.Background()
	baseDir := t.TempDir()
	cfg := config.DefaultConfig()

	m, _, _ := newTestManager(t)
	mustCreateWorkspace(t, m, "first")

	path := filepath.Join(baseDir, "exports", "snap.json")
	if _, err := m.ExportToFile(ctx, path, baseDir, cfg); err != nil {
		t.Fatalf("first ExportToFile() error = %v", err)
	}
	mustCreateWorkspace(t, m, "second")
	if _, err := m.ExportToFile(ctx, path, baseDir, cfg); err != nil {
		t.Fatalf("second ExportToFile() error = %v", err)
	}

	m2, _, _ := newTestManager(t)
	if _, err := m2.ImportFromFile(ctx, path, baseDir, cfg); err != nil {
		t.Fatalf("ImportFromFile() error = %v", err)
	}
	if got := len(m2.ListWorkspaces(ctx)); got != 2 {
		t.Errorf("workspaces after overwrite and import = %d, want 2", got)
	}
}

func TestImportFromFileMalformed(t *testing.T) {
	ctx := context.Background()
	baseDir := t.TempDir()
	cfg := config.DefaultConfig()

	dir := filepath.Join(baseDir, "exports")
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "garbage.json")
	if err := os.WriteFile(path, []byte("not json"), 0600); err != nil {
		t.Fatal(err)
	}

	m, _, _ := newTestManager(t)
	_, err := m.ImportFromFile(ctx, path, baseDir, cfg)
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("ImportFromFile(malformed) error = %v, want INVALID_REQUEST", err)
	}
}

func TestValidatePath(t *testing.T) {
	baseDir := t.TempDir()

	tests := []struct {
		name    string
		path    string
		cfg     *config.Config
		wantErr bool
	}{
		{
			name: "default exports dir",
			path: filepath.Join(baseDir, "exports", "ok.json"),
			cfg:  config.DefaultConfig(),
		},
		{
			name:    "traversal rejected",
			path:    baseDir + "/exports/../escape.json",
			cfg:     config.DefaultConfig(),
			wantErr: true,
		},
		{
			name:    "wrong extension rejected",
			path:    filepath.Join(baseDir, "exports", "snap.txt"),
			cfg:     config.DefaultConfig(),
			wantErr: true,
		},
		{
			name:    "outside allowed dirs rejected",
			path:    filepath.Join(baseDir, "elsewhere", "snap.json"),
			cfg:     config.DefaultConfig(),
			wantErr: true,
		},
		{
			name:    "subdirectory of exports rejected",
			path:    filepath.Join(baseDir, "exports", "sub", "snap.json"),
			cfg:     config.DefaultConfig(),
			wantErr: true,
		},
		{
			name: "allowed path entry accepted",
			path: filepath.Join(baseDir, "elsewhere", "snap.json"),
			cfg:  &config.Config{AllowedPaths: []string{filepath.Join(baseDir, "elsewhere")}},
		},
		{
			name: "unsafe mode bypasses directory checks",
			path: filepath.Join(baseDir, "anywhere", "snap.json"),
			cfg:  &config.Config{AllowUnsafePaths: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.path, PathCheckWrite, baseDir, tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}
