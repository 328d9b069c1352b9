package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tabvault/tabvault/internal/config"
	"github.com/tabvault/tabvault/internal/errors"
)

// PathCheckMode indicates whether the path check is for reading or writing.
type PathCheckMode int

const (
	PathCheckRead  PathCheckMode = iota // for import (read file)
	PathCheckWrite                      // for export (write file)
)

// FileExportOutput is the result of exporting a snapshot to disk.
type FileExportOutput struct {
	Path       string `json:"path"`
	SyncKeys   int    `json:"sync_keys"`
	LocalKeys  int    `json:"local_keys"`
	ExportedAt int64  `json:"exported_at"`
}

// FileImportOutput is the result of importing a snapshot from disk.
type FileImportOutput struct {
	Path      string `json:"path"`
	SyncKeys  int    `json:"sync_keys"`
	LocalKeys int    `json:"local_keys"`
	Version   string `json:"version"`
}

// ExportToFile writes a full snapshot as a JSON file. An empty path
// defaults to <baseDir>/exports/tabvault-<timestamp>.json. The snapshot is
// written to a temp file and renamed into place so a failure never
// truncates an existing export.
func (m *Manager) ExportToFile(ctx context.Context, path, baseDir string, cfg *config.Config) (*FileExportOutput, error) {
	if path == "" {
		path = filepath.Join(baseDir, "exports",
			fmt.Sprintf("tabvault-%s.json", time.Now().Format("20060102-150405")))
	}
	if err := ValidatePath(path, PathCheckWrite, baseDir, cfg); err != nil {
		return nil, err
	}

	snap, err := m.ExportData(ctx)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	// Temp file plus rename keeps the previous export intact on failure.
	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to write export file: %w", err))
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return nil, errors.NewInternal(fmt.Errorf("failed to finalize export file: %w", err))
	}

	return &FileExportOutput{
		Path:       path,
		SyncKeys:   len(snap.Sync),
		LocalKeys:  len(snap.Local),
		ExportedAt: snap.ExportedAt,
	}, nil
}

// ImportFromFile reads a snapshot file and imports it additively.
func (m *Manager) ImportFromFile(ctx context.Context, path, baseDir string, cfg *config.Config) (*FileImportOutput, error) {
	if err := ValidatePath(path, PathCheckRead, baseDir, cfg); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to read import file: %w", err))
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("malformed snapshot file: %v", err))
	}

	if err := m.ImportData(ctx, &snap); err != nil {
		return nil, err
	}
	return &FileImportOutput{
		Path:      path,
		SyncKeys:  len(snap.Sync),
		LocalKeys: len(snap.Local),
		Version:   snap.Version,
	}, nil
}

// ValidatePath checks a snapshot file path before any IO:
// no traversal components, a .json extension, and a parent directory that
// is either <baseDir>/exports or listed in cfg.AllowedPaths. Symlinks are
// rejected regardless of cfg.AllowUnsafePaths.
func ValidatePath(path string, mode PathCheckMode, baseDir string, cfg *config.Config) error {
	if path == "" {
		return errors.NewInvalidRequest("path is required")
	}
	if containsTraversal(path) {
		return errors.NewInvalidRequest("path must not contain directory traversal (..)")
	}

	cleaned := filepath.Clean(path)
	if filepath.Ext(cleaned) != ".json" {
		return errors.NewInvalidRequest("path must have .json extension")
	}

	absPath, err := filepath.Abs(cleaned)
	if err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}

	if cfg != nil && cfg.AllowUnsafePaths {
		if mode == PathCheckRead {
			if _, err := os.Stat(absPath); os.IsNotExist(err) {
				return errors.NewNotFound(path)
			}
		}
		if info, err := os.Lstat(absPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
			return errors.NewInvalidRequest("path must not be a symlink")
		}
		return nil
	}

	allowedDirs, err := allowedExportDirs(baseDir, cfg)
	if err != nil {
		return err
	}
	// The file must be directly in an allowed directory, no subdirectories;
	// intermediate components could otherwise be swapped for symlinks
	// between validation and open.
	parentDir := filepath.Dir(absPath)
	if !isDirectlyInAllowedDir(parentDir, allowedDirs) {
		return errors.NewInvalidRequest(
			fmt.Sprintf("file must be directly in an allowed directory (no subdirectories); allowed: %v",
				allowedDirs))
	}
	if info, err := os.Lstat(parentDir); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInvalidRequest("parent directory must not be a symlink")
	}

	if mode == PathCheckRead {
		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			return errors.NewNotFound(path)
		}
	}
	if info, err := os.Lstat(absPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInvalidRequest("path must not be a symlink")
	}

	return nil
}

// allowedExportDirs returns the allowed directories, absolute and cleaned,
// resolving symlinked allowlist entries to their real targets.
func allowedExportDirs(baseDir string, cfg *config.Config) ([]string, error) {
	dirs := []string{filepath.Join(baseDir, "exports")}
	if cfg != nil {
		for _, p := range cfg.AllowedPaths {
			if filepath.IsAbs(p) {
				dirs = append(dirs, filepath.Clean(p))
			}
		}
	}

	result := make([]string, 0, len(dirs))
	for _, d := range dirs {
		abs, err := filepath.Abs(filepath.Clean(d))
		if err != nil {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid allowed path: %v", err))
		}
		if info, err := os.Lstat(abs); err == nil && info.Mode()&os.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(abs)
			if err != nil {
				return nil, errors.NewInvalidRequest(fmt.Sprintf("cannot resolve symlink in allowed path: %v", err))
			}
			abs = resolved
		}
		result = append(result, abs)
	}
	return result, nil
}

// isDirectlyInAllowedDir checks if parentDir exactly matches one of the
// allowed directories.
func isDirectlyInAllowedDir(parentDir string, allowedDirs []string) bool {
	parentDir = filepath.Clean(parentDir)
	for _, dir := range allowedDirs {
		if parentDir == filepath.Clean(dir) {
			return true
		}
	}
	return false
}

// containsTraversal checks if path contains ".." directory traversal.
func containsTraversal(path string) bool {
	for _, part := range strings.Split(path, string(filepath.Separator)) {
		if part == ".." {
			return true
		}
	}
	if filepath.Separator != '/' {
		for _, part := range strings.Split(path, "/") {
			if part == ".." {
				return true
			}
		}
	}
	return false
}
