package fs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"netconf-go/internal/netconf"
)

// OSFilesystemManager is the real filesystem implementation of FilesystemManager.
type OSFilesystemManager struct {
	ignorePatterns []string
}

// NewOSFilesystemManager creates a filesystem manager that applies the given
// ignore patterns on top of the defaults and any ignore file in the tree.
func NewOSFilesystemManager(ignorePatterns []string) *OSFilesystemManager {
	return &OSFilesystemManager{ignorePatterns: ignorePatterns}
}

// ListFiles returns the regular files directly inside dir, sorted. Symlinks
// are followed and kept when they resolve to a regular file; subdirectories,
// dangling links and special files are skipped.
func (m *OSFilesystemManager) ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		switch {
		case entry.Type().IsRegular():
		case entry.Type()&os.ModeSymlink != 0:
			info, err := os.Stat(path)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
		default:
			continue
		}
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths, nil
}

// ListEntries returns every entry directly inside dir, whatever its type, sorted.
func (m *OSFilesystemManager) ListEntries(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}

	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// IsIgnored reports whether path matches an ignore pattern. Patterns come from
// the defaults, the configured list, and the ignore file at root.
func (m *OSFilesystemManager) IsIgnored(path string, root string) (bool, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false, fmt.Errorf("relative path for %s: %w", path, err)
	}

	matcher, err := treeMatcher(root, m.ignorePatterns)
	if err != nil {
		return false, err
	}
	return matcher.Match(rel), nil
}

// Open opens a file for reading.
func (m *OSFilesystemManager) Open(path string) (io.ReadCloser, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat path: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("cannot open directory as file: %s", path)
	}
	return os.Open(path)
}

func (m *OSFilesystemManager) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat path: %w", err)
}

// WriteFile replaces path with data using a temp file in the same directory
// and a rename.
func (m *OSFilesystemManager) WriteFile(path string, data []byte) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// Remove deletes path and, for a directory, everything below it. Symlinks
// are removed, not followed. A missing path is not an error.
func (m *OSFilesystemManager) Remove(path string) error {
	return os.RemoveAll(path)
}

func (m *OSFilesystemManager) MkdirAll(dir string) error {
	return os.MkdirAll(dir, 0755)
}

var _ netconf.FilesystemManager = (*OSFilesystemManager)(nil)
