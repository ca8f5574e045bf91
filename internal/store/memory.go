package store

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"sync"

	"netconf-go/internal/netconf"
)

// MemoryStore is an in-memory ArtifactStore, mostly for tests.
// It is safe for concurrent use.
type MemoryStore struct {
	name      string
	artifacts map[string][]byte
	failPut   map[string]error
	mu        sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store with the given name.
func NewMemoryStore(name string) *MemoryStore {
	return &MemoryStore{
		name:      name,
		artifacts: make(map[string][]byte),
		failPut:   make(map[string]error),
	}
}

func (m *MemoryStore) Name() string { return m.name }

// Put stores a copy of size bytes read from r under name.
func (m *MemoryStore) Put(name string, r io.Reader, size int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read artifact: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failPut[name]; err != nil {
		return err
	}
	m.artifacts[name] = data
	return nil
}

// Get writes the stored artifact to w.
func (m *MemoryStore) Get(name string, w io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.artifacts[name]
	if !ok {
		return fmt.Errorf("%s in %s: %w", name, m.name, netconf.ErrArtifactNotFound)
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	return nil
}

func (m *MemoryStore) Exists(name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.artifacts[name]
	return ok, nil
}

// ValidateSetup always succeeds for the in-memory store.
func (m *MemoryStore) ValidateSetup() error {
	return nil
}

// Content returns a copy of the stored artifact and whether it exists.
func (m *MemoryStore) Content(name string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.artifacts[name]
	if !ok {
		return nil, false
	}
	return bytes.Clone(data), true
}

// Names returns the stored artifact names, sorted.
func (m *MemoryStore) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.artifacts))
	for n := range m.artifacts {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// FailPut makes every later Put of name return err.
func (m *MemoryStore) FailPut(name string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPut[name] = err
}

var _ netconf.ArtifactStore = (*MemoryStore)(nil)
