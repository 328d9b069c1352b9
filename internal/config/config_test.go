package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.SyncItemMaxBytes != 0 {
		t.Errorf("SyncItemMaxBytes = %d, want 0 (engine default)", cfg.SyncItemMaxBytes)
	}
	if cfg.AllowUnsafePaths {
		t.Error("AllowUnsafePaths should default to false")
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	content := `{"sync_item_max_bytes": 4096, "disabled_tools": ["data_import"], "allow_unsafe_paths": true}`
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.SyncItemMaxBytes != 4096 {
		t.Errorf("SyncItemMaxBytes = %d, want 4096", cfg.SyncItemMaxBytes)
	}
	if len(cfg.DisabledTools) != 1 || cfg.DisabledTools[0] != "data_import" {
		t.Errorf("DisabledTools = %v, want [data_import]", cfg.DisabledTools)
	}
	if !cfg.AllowUnsafePaths {
		t.Error("AllowUnsafePaths should be true")
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{nope"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := Load(dir); err == nil {
		t.Error("Load should fail on invalid JSON")
	}
}

func TestMerge(t *testing.T) {
	base := &Config{
		SyncItemMaxBytes: 8192,
		DisabledTools:    []string{"a"},
	}
	overlay := &Config{
		SyncMaxItems:  100,
		DisabledTools: []string{"a", "b", " "},
	}

	got := Merge(base, overlay)

	if got.SyncItemMaxBytes != 8192 {
		t.Errorf("SyncItemMaxBytes = %d, want base 8192", got.SyncItemMaxBytes)
	}
	if got.SyncMaxItems != 100 {
		t.Errorf("SyncMaxItems = %d, want overlay 100", got.SyncMaxItems)
	}
	if len(got.DisabledTools) != 2 {
		t.Errorf("DisabledTools = %v, want deduplicated [a b]", got.DisabledTools)
	}
}
