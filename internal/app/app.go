package app

import (
	"fmt"
	"os"
	"sync"

	"netconf-go/internal/config"
	"netconf-go/internal/database"
	"netconf-go/internal/encryption"
	"netconf-go/internal/fs"
	"netconf-go/internal/loader"
	"netconf-go/internal/model"
	"netconf-go/internal/netconf"
	"netconf-go/internal/process"
	"netconf-go/internal/store"
)

// PassphraseFunc supplies the key passphrase when a sealed file needs it.
type PassphraseFunc func() (string, error)

// Options customises NewNetconfApp. The zero value runs against the real
// system.
type Options struct {
	// Passphrase is asked for only when the tree holds a sealed passwords file.
	Passphrase PassphraseFunc
	// Signaler replaces the pidof/kill signaler.
	Signaler netconf.Signaler
	Clock    netconf.Clock
	IDs      netconf.IDGenerator
}

// NetconfApp is the application layer between the CLI and the Compiler.
// It constructs all dependencies from config, records every compile in the
// run history, and manages the DB lifecycle on Close.
type NetconfApp struct {
	runs     netconf.RunStore
	compiler *netconf.Compiler
	clock    netconf.Clock
	runID    string
	logger   netconf.Logger
	logFile  *os.File
}

// NewNetconfApp creates a fully wired NetconfApp from the given config.
// The caller must call Close when done.
func NewNetconfApp(cfg *config.Config, opts Options) (*NetconfApp, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	clock := opts.Clock
	if clock == nil {
		clock = netconf.RealClock{}
	}
	ids := opts.IDs
	if ids == nil {
		ids = netconf.UUIDGenerator{}
	}
	runID := ids.New()

	level, err := resolveLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	mirrors := make([]netconf.ArtifactStore, 0, len(cfg.Mirrors))
	for _, mc := range cfg.Mirrors {
		m, err := store.NewStoreFromConfig(mc)
		if err != nil {
			return nil, fmt.Errorf("creating mirror %q: %w", mc.Name, err)
		}
		mirrors = append(mirrors, m)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	db, err := database.NewDatabaseFromConfig(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	slogger, logFile, err := newLogger(cfg.LogDir, runID, level)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	fsmgr := fs.NewOSFilesystemManager(cfg.Filesystem.Ignore)

	signaler := opts.Signaler
	if signaler == nil {
		signaler = process.NewPidofSignaler(nil)
	}

	var bridge netconf.LegacyBridge
	if cfg.Legacy.Binary != "" {
		bridge = process.NewCommandBridge(cfg.Legacy.Binary, nil)
	}

	daemons := make([]netconf.Daemon, 0, len(cfg.Daemons))
	for _, d := range cfg.Daemons {
		daemons = append(daemons, netconf.Daemon{Name: d.Name, Signal: d.Signal})
	}

	compiler := netconf.NewCompiler(netconf.Options{
		Filesystem: fsmgr,
		Loader:     loader.NewYAMLLoader(fsmgr, unlocker(enc, opts.Passphrase)),
		Output:     store.NewFileSystemStore("output", cfg.OutputDir),
		Mirrors:    mirrors,
		Bridge:     bridge,
		Signaler:   signaler,
		Daemons:    daemons,
		Paths: netconf.Paths{
			ConfigDir:  cfg.ConfigDir,
			LiveDir:    cfg.LiveDir,
			ScratchDir: cfg.ScratchDir,
		},
		Logger: logger,
		Clock:  clock,
	})

	return &NetconfApp{
		runs:     db,
		compiler: compiler,
		clock:    clock,
		runID:    runID,
		logger:   logger,
		logFile:  logFile,
	}, nil
}

// unlocker opens the private key at most once per run.
func unlocker(enc netconf.Encryptor, passphrase PassphraseFunc) loader.UnlockFunc {
	return sync.OnceValues(func() (netconf.DecryptionContext, error) {
		if !enc.IsConfigured() {
			return nil, fmt.Errorf("encryption keys not configured; run keys init")
		}
		if passphrase == nil {
			return nil, fmt.Errorf("no passphrase available")
		}
		pass, err := passphrase()
		if err != nil {
			return nil, fmt.Errorf("reading passphrase: %w", err)
		}
		return enc.Unlock(pass)
	})
}

// RunID identifies this invocation in the log and the run history.
func (a *NetconfApp) RunID() string {
	return a.runID
}

// All runs the full compile. client selects client mode, which never
// touches live state.
func (a *NetconfApp) All(client bool) (*netconf.RunResult, error) {
	mode := netconf.ModeServer
	if client {
		mode = netconf.ModeClient
	}

	var res *netconf.RunResult
	err := a.record("all", mode, func(op *RunOperation) error {
		var err error
		res, err = a.compiler.All(mode)
		if err != nil {
			return err
		}
		op.Succeed(res.Change.Digest, res.Change.Changed)
		return nil
	})
	return res, err
}

// Configure compiles the artifacts without change detection or live
// reconciliation. The recorded digest is informational and does not
// replace the stored one.
func (a *NetconfApp) Configure() (*netconf.ConfigureResult, error) {
	var res *netconf.ConfigureResult
	err := a.record("configure", netconf.ModeClient, func(op *RunOperation) error {
		var err error
		res, err = a.compiler.Configure()
		if err != nil {
			return err
		}
		digest, err := a.compiler.Digest(res.Files)
		if err != nil {
			return err
		}
		op.Succeed(digest, false)
		return nil
	})
	return res, err
}

// record persists op before fn runs and stores its outcome afterwards.
func (a *NetconfApp) record(command string, mode netconf.Mode, fn func(*RunOperation) error) error {
	op := NewRunOperation(a.runID, command, mode)
	id, err := a.runs.StartRun(&model.CompileRun{
		RunID:     op.RunID,
		Operation: op.Command,
		Mode:      op.Mode,
		StartedAt: a.clock.Now(),
	})
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	op.ID = id

	runErr := fn(op)
	if runErr != nil {
		op.Fail(runErr)
		a.logger.Error("run failed", "command", command, "error", runErr)
	}

	if err := a.runs.FinishRun(op.ID, op.Status, op.Digest, op.Changed, op.Message); err != nil {
		if runErr != nil {
			return runErr
		}
		return fmt.Errorf("finishing run: %w", err)
	}
	return runErr
}

// History returns the most recent compile runs, newest first.
func (a *NetconfApp) History(limit int) ([]*model.CompileRun, error) {
	return a.runs.ListRuns(limit)
}

// Close closes the run history and the log file.
func (a *NetconfApp) Close() error {
	var firstErr error
	if err := a.runs.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}

// InitKeys generates the key pair protecting the passwords file.
func InitKeys(cfg *config.Config, passphrase string) error {
	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return fmt.Errorf("creating encryptor: %w", err)
	}
	if err := enc.Setup(passphrase); err != nil {
		return fmt.Errorf("generating keys: %w", err)
	}
	return nil
}

// EncryptSecret seals path next to itself and returns the sealed file's path.
// The plaintext is left in place for the operator to remove.
func EncryptSecret(cfg *config.Config, path string) (string, error) {
	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return "", fmt.Errorf("creating encryptor: %w", err)
	}
	if !enc.IsConfigured() {
		return "", fmt.Errorf("encryption keys not configured; run keys init")
	}
	return encryption.SealFile(enc, path)
}
