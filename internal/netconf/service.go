package netconf

import (
	"bytes"
	"errors"
	"fmt"
)

// Paths locates the directories the compiler reads and reconciles.
type Paths struct {
	ConfigDir  string // input config tree
	LiveDir    string // live state consumed by the authentication daemon
	ScratchDir string // holds the daily marker
}

// Options carries the collaborators for NewCompiler.
type Options struct {
	Filesystem FilesystemManager
	Loader     ConfigLoader
	Output     ArtifactStore
	Mirrors    []ArtifactStore
	Bridge     LegacyBridge
	Signaler   Signaler
	Daemons    []Daemon
	Paths      Paths
	Logger     Logger
	Clock      Clock
}

// Compiler turns the config tree into compiled artifacts and reconciles live
// state against them. A Compiler is meant for a single exclusive runner; it
// does not guard against concurrent invocations sharing the same paths.
type Compiler struct {
	fsmgr    FilesystemManager
	loader   ConfigLoader
	output   ArtifactStore
	mirrors  []ArtifactStore
	bridge   LegacyBridge
	signaler Signaler
	daemons  []Daemon
	paths    Paths
	logger   Logger
	clock    Clock
}

// NewCompiler creates a Compiler with the provided collaborators.
func NewCompiler(opts Options) *Compiler {
	logger := opts.Logger
	if logger == nil {
		logger = NewNopLogger()
	}
	clock := opts.Clock
	if clock == nil {
		clock = RealClock{}
	}
	return &Compiler{
		fsmgr:    opts.Filesystem,
		loader:   opts.Loader,
		output:   opts.Output,
		mirrors:  opts.Mirrors,
		bridge:   opts.Bridge,
		signaler: opts.Signaler,
		daemons:  opts.Daemons,
		paths:    opts.Paths,
		logger:   logger,
		clock:    clock,
	}
}

// RunResult is the outcome of a full compile.
type RunResult struct {
	Mode      Mode
	Configure *ConfigureResult
	Change    *ChangeResult
	DailyRan  bool
	Reconcile *ReconcileResult // nil unless the config changed in server mode
	SignalErr error            // daemon signal failure, never fatal
}

// All runs the full compile: configure, the daily pass (server only), change
// detection, and when the configuration changed, reconciliation and daemon
// reload (server only). The new digest is committed only after the live tree
// has been reconciled.
func (c *Compiler) All(mode Mode) (*RunResult, error) {
	c.logger.Info("updating networking configuration", "mode", mode.String())
	res := &RunResult{Mode: mode}

	cfg, err := c.Configure()
	if err != nil {
		return nil, err
	}
	res.Configure = cfg

	if mode == ModeServer {
		c.logger.Debug("checking for daily operations")
		ran, err := c.DailyPass()
		if err != nil {
			c.logger.Warn("daily operations failed", "error", err)
		}
		res.DailyRan = ran
	}

	change, err := c.DetectChange()
	if err != nil {
		return nil, err
	}
	res.Change = change

	if !change.Changed {
		c.logger.Info("no changes", "digest", change.Digest)
		if err := c.CommitChange(change); err != nil {
			return nil, err
		}
		return res, nil
	}

	c.logger.Info("configuration updated", "digest", change.Digest, "previous", change.Previous)
	if mode != ModeServer {
		if err := c.CommitChange(change); err != nil {
			return nil, err
		}
		return res, nil
	}

	// Commit only once the live tree matches; a failed reconcile must be
	// retried by the next run.
	rec, err := c.Reconcile(cfg.Manifest.UserNames())
	if err != nil {
		return nil, err
	}
	res.Reconcile = rec
	if err := c.CommitChange(change); err != nil {
		return nil, err
	}

	if err := c.SignalAll(); err != nil {
		c.logger.Warn("failed signaling daemons", "error", err)
		res.SignalErr = err
	}
	return res, nil
}

// readArtifact returns the named artifact from the output store, or nil if it
// has never been written.
func (c *Compiler) readArtifact(name string) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.output.Get(name, &buf); err != nil {
		if errors.Is(err, ErrArtifactNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// writeArtifact stores data under name in the given store.
func writeArtifact(store ArtifactStore, name string, data []byte) error {
	return store.Put(name, bytes.NewReader(data), int64(len(data)))
}
