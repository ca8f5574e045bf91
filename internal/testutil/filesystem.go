package testutil

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"netconf-go/internal/fs"
	"netconf-go/internal/netconf"
)

// MockFilesystemManager is an in-memory filesystem for testing. Writes fail
// when the parent directory does not exist, like the real one.
type MockFilesystemManager struct {
	mu         sync.Mutex
	files      map[string][]byte
	dirs       map[string]bool
	ignore     *fs.IgnoreMatcher
	failWrite  map[string]error
	failRemove map[string]error
	writes     []string
}

// NewMockFilesystemManager creates a new mock filesystem.
func NewMockFilesystemManager() *MockFilesystemManager {
	return &MockFilesystemManager{
		files:      make(map[string][]byte),
		dirs:       map[string]bool{"/": true},
		ignore:     fs.NewIgnoreMatcher(nil),
		failWrite:  make(map[string]error),
		failRemove: make(map[string]error),
	}
}

// AddFile adds a file and any missing parent directories.
func (m *MockFilesystemManager) AddFile(path string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	m.mkdirAll(filepath.Dir(path))
	m.files[path] = bytes.Clone(content)
}

// AddDirectory adds a directory and any missing parents.
func (m *MockFilesystemManager) AddDirectory(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mkdirAll(filepath.Clean(path))
}

// SetIgnorePatterns replaces the ignore patterns used by IsIgnored.
func (m *MockFilesystemManager) SetIgnorePatterns(patterns []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ignore = fs.NewIgnoreMatcher(patterns)
}

// FailWrite makes every later WriteFile of path return err. A nil err clears
// the fault.
func (m *MockFilesystemManager) FailWrite(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWrite[filepath.Clean(path)] = err
}

// FailRemove makes every later Remove of path return err. A nil err clears
// the fault.
func (m *MockFilesystemManager) FailRemove(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failRemove[filepath.Clean(path)] = err
}

// Content returns a copy of the file at path.
func (m *MockFilesystemManager) Content(path string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[filepath.Clean(path)]
	if !ok {
		return nil, false
	}
	return bytes.Clone(data), true
}

// Names returns the base names of the files and directories directly inside
// dir, sorted.
func (m *MockFilesystemManager) Names(dir string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var names []string
	for _, p := range m.entries(filepath.Clean(dir)) {
		names = append(names, filepath.Base(p))
	}
	return names
}

// Writes returns every path passed to a successful WriteFile, in order.
func (m *MockFilesystemManager) Writes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.writes...)
}

func (m *MockFilesystemManager) ListFiles(dir string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	dir = filepath.Clean(dir)
	if !m.dirs[dir] {
		return nil, fmt.Errorf("reading directory: open %s: %w", dir, os.ErrNotExist)
	}
	return m.list(dir), nil
}

func (m *MockFilesystemManager) ListEntries(dir string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	dir = filepath.Clean(dir)
	if !m.dirs[dir] {
		return nil, fmt.Errorf("reading directory: open %s: %w", dir, os.ErrNotExist)
	}
	return m.entries(dir), nil
}

func (m *MockFilesystemManager) IsIgnored(path string, root string) (bool, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ignore.Match(rel), nil
}

func (m *MockFilesystemManager) Open(path string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[filepath.Clean(path)]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, os.ErrNotExist)
	}
	return io.NopCloser(bytes.NewReader(bytes.Clone(data))), nil
}

func (m *MockFilesystemManager) Exists(path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	_, isFile := m.files[path]
	return isFile || m.dirs[path], nil
}

func (m *MockFilesystemManager) WriteFile(path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	if err := m.failWrite[path]; err != nil {
		return err
	}
	if !m.dirs[filepath.Dir(path)] {
		return fmt.Errorf("write %s: %w", path, os.ErrNotExist)
	}
	if m.dirs[path] {
		return fmt.Errorf("write %s: is a directory", path)
	}
	m.files[path] = bytes.Clone(data)
	m.writes = append(m.writes, path)
	return nil
}

func (m *MockFilesystemManager) Remove(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	if err := m.failRemove[path]; err != nil {
		return err
	}
	delete(m.files, path)
	if !m.dirs[path] {
		return nil
	}
	prefix := path + string(filepath.Separator)
	for p := range m.files {
		if strings.HasPrefix(p, prefix) {
			delete(m.files, p)
		}
	}
	for d := range m.dirs {
		if d == path || strings.HasPrefix(d, prefix) {
			delete(m.dirs, d)
		}
	}
	return nil
}

func (m *MockFilesystemManager) MkdirAll(dir string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	dir = filepath.Clean(dir)
	if _, ok := m.files[dir]; ok {
		return fmt.Errorf("mkdir %s: not a directory", dir)
	}
	m.mkdirAll(dir)
	return nil
}

func (m *MockFilesystemManager) mkdirAll(dir string) {
	for {
		m.dirs[dir] = true
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

func (m *MockFilesystemManager) list(dir string) []string {
	var paths []string
	for p := range m.files {
		if filepath.Dir(p) == dir {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths
}

func (m *MockFilesystemManager) entries(dir string) []string {
	paths := m.list(dir)
	for d := range m.dirs {
		if d != dir && filepath.Dir(d) == dir {
			paths = append(paths, d)
		}
	}
	sort.Strings(paths)
	return paths
}

var _ netconf.FilesystemManager = (*MockFilesystemManager)(nil)
