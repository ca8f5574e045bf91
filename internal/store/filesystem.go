package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"netconf-go/internal/netconf"
)

// FileSystemStore keeps artifacts as plain files directly under root:
//
//	<root>/
//	  audit.csv
//	  eap_users
//	  last
//	  ...
//
// Every write goes to a temp file in root and is renamed into place.
type FileSystemStore struct {
	name string
	root string
}

// NewFileSystemStore creates a store rooted at root. The directory is created
// by ValidateSetup, not here.
func NewFileSystemStore(name, root string) *FileSystemStore {
	return &FileSystemStore{name: name, root: root}
}

// Name returns the configured store name.
func (s *FileSystemStore) Name() string { return s.name }

// Root returns the directory artifacts are written to.
func (s *FileSystemStore) Root() string { return s.root }

// Put replaces the artifact name with size bytes read from r.
func (s *FileSystemStore) Put(name string, r io.Reader, size int64) error {
	if err := checkName(name); err != nil {
		return err
	}
	return s.writeFile(filepath.Join(s.root, name), r, size)
}

// Get copies the artifact name to w.
func (s *FileSystemStore) Get(name string, w io.Writer) error {
	if err := checkName(name); err != nil {
		return err
	}
	f, err := os.Open(filepath.Join(s.root, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s in %s: %w", name, s.name, netconf.ErrArtifactNotFound)
		}
		return fmt.Errorf("failed to open artifact: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read artifact: %w", err)
	}
	return nil
}

// Exists reports whether the artifact name has been written.
func (s *FileSystemStore) Exists(name string) (bool, error) {
	if err := checkName(name); err != nil {
		return false, err
	}
	_, err := os.Stat(filepath.Join(s.root, name))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("checking artifact %s: %w", name, err)
}

// ValidateSetup creates the root directory if needed and verifies it is a
// directory.
func (s *FileSystemStore) ValidateSetup() error {
	if err := os.MkdirAll(s.root, 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("store root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("store root is not a directory: %s", s.root)
	}
	return nil
}

// writeFile writes data from r to destPath using a temp file and rename.
func (s *FileSystemStore) writeFile(destPath string, r io.Reader, expectedSize int64) error {
	// Same directory so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
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

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// checkName rejects names that would escape the store root.
func checkName(name string) error {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return fmt.Errorf("invalid artifact name: %q", name)
	}
	return nil
}

var _ netconf.ArtifactStore = (*FileSystemStore)(nil)
