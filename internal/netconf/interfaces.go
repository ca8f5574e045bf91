package netconf

import (
	"errors"
	"io"
	"time"

	"github.com/google/uuid"

	"netconf-go/internal/model"
)

// ErrArtifactNotFound is returned by ArtifactStore.Get for unknown names.
var ErrArtifactNotFound = errors.New("artifact not found")

// FilesystemManager abstracts the config tree and live state directory so the
// pipeline can be tested without touching the real filesystem.
type FilesystemManager interface {
	// ListFiles returns the regular files directly inside dir, joined onto
	// dir and sorted.
	ListFiles(dir string) ([]string, error)

	// ListEntries returns every entry directly inside dir, including
	// directories and links, joined onto dir and sorted.
	ListEntries(dir string) ([]string, error)

	// IsIgnored reports whether path, located under root, matches an ignore rule.
	IsIgnored(path string, root string) (bool, error)

	// Open opens a file for reading.
	Open(path string) (io.ReadCloser, error)

	// Exists reports whether path exists.
	Exists(path string) (bool, error)

	// WriteFile creates or replaces path with data.
	WriteFile(path string, data []byte) error

	// Remove deletes path, recursively for a directory. Removing a missing
	// path succeeds.
	Remove(path string) error

	// MkdirAll creates dir and any missing parents.
	MkdirAll(dir string) error
}

// ArtifactStore holds compiled artifacts by name. Writes replace an artifact
// as a whole; readers never observe a partial write.
type ArtifactStore interface {
	// Name identifies the store in logs and diagnostics.
	Name() string

	// Put stores size bytes read from r under name.
	Put(name string, r io.Reader, size int64) error

	// Get writes the artifact to w. Returns an error wrapping
	// ErrArtifactNotFound if name is unknown.
	Get(name string, w io.Writer) error

	// Exists reports whether name has been stored.
	Exists(name string) (bool, error)

	// ValidateSetup verifies the store is reachable and writable.
	ValidateSetup() error
}

// ConfigLoader turns the config tree files into typed records.
type ConfigLoader interface {
	// Load parses the given config files. Files it does not recognise are
	// skipped.
	Load(files []string) (*Tables, error)
}

// Signaler resolves daemon processes and delivers signals to them.
type Signaler interface {
	// PIDs returns the running process IDs for name; none is not an error.
	PIDs(name string) ([]int, error)

	// Signal delivers sig to pid.
	Signal(pid int, sig string) error
}

// LegacyBridge hands the VLAN name=number pairs to the external admin tool.
type LegacyBridge interface {
	Run(args []string) error
}

// RunStore records compile runs.
type RunStore interface {
	// StartRun records a new run and returns its row ID.
	StartRun(run *model.CompileRun) (int64, error)

	// FinishRun stores the outcome of a run.
	FinishRun(id int64, status string, digest string, changed bool, message string) error

	// ListRuns returns the most recent runs, newest first.
	ListRuns(limit int) ([]*model.CompileRun, error)

	Close() error
}

// Encryptor seals secret files in the config tree for a key pair whose
// private half is protected by a passphrase.
type Encryptor interface {
	// Setup generates the key pair. The private key is sealed with passphrase.
	Setup(passphrase string) error

	// Encrypt seals data read from r for the public key and writes it to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Unlock opens the private key with passphrase.
	Unlock(passphrase string) (DecryptionContext, error)

	// IsConfigured reports whether both key files exist.
	IsConfigured() bool
}

// DecryptionContext holds an unlocked private key in memory for one run.
type DecryptionContext interface {
	Decrypt(r io.Reader, w io.Writer) error
}

// Clock abstracts time retrieval so business logic is deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// IDGenerator abstracts unique ID generation so tests are deterministic.
type IDGenerator interface {
	New() string
}

// UUIDGenerator produces random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) New() string { return uuid.New().String() }
