package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for netconf.
type Config struct {
	BaseDir    string           `toml:"base_dir"`
	ConfigDir  string           `toml:"config_dir"`  // the network config tree
	OutputDir  string           `toml:"output_dir"`  // compiled artifacts
	LiveDir    string           `toml:"live_dir"`    // state read by the RADIUS daemons
	ScratchDir string           `toml:"scratch_dir"` // daily marker location
	LogDir     string           `toml:"log_dir"`
	LogLevel   string           `toml:"log_level"`
	Legacy     LegacyConfig     `toml:"legacy"`
	Daemons    []DaemonConfig   `toml:"daemons"`
	Mirrors    []StoreConfig    `toml:"mirrors"`
	Encryption EncryptionConfig `toml:"encryption"`
	Database   DatabaseConfig   `toml:"database"`
	Filesystem FilesystemConfig `toml:"filesystem"`
}

// LegacyConfig names the external admin tool that receives the VLAN table.
// An empty Binary disables the bridge.
type LegacyConfig struct {
	Binary string `toml:"binary"`
}

// DaemonConfig is a daemon to signal after a change.
type DaemonConfig struct {
	Name   string `toml:"name"`
	Signal string `toml:"signal"` // kill(1) signal name or number, e.g. "HUP" or "2"
}

// EncryptionConfig holds paths to the age key pair protecting the passwords file.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "age" (default) or "test"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// FilesystemConfig holds filesystem-related settings.
type FilesystemConfig struct {
	Ignore []string `toml:"ignore"`
}

// StoreConfig represents configuration for an artifact mirror.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type StoreConfig struct {
	Type string `toml:"type"` // "memory", "s3", or "filesystem"
	Name string `toml:"name"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket          string `toml:"s3_bucket,omitempty"`
	S3Prefix          string `toml:"s3_prefix,omitempty"`
	S3Region          string `toml:"s3_region,omitempty"`
	S3Endpoint        string `toml:"s3_endpoint,omitempty"`
	S3PathStyle       bool   `toml:"s3_path_style,omitempty"`
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSRoot string `toml:"fs_root,omitempty"`
}

// DatabaseConfig represents configuration for the run history database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// NewConfig creates a new Config rooted at baseDir with the stock RADIUS
// deployment defaults.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir:    baseDir,
		ConfigDir:  filepath.Join(baseDir, "network"),
		OutputDir:  filepath.Join(baseDir, "bin"),
		LiveDir:    "/var/lib/radiucal",
		ScratchDir: "/tmp",
		LogDir:     filepath.Join(baseDir, "log"),
		LogLevel:   "info",
		Legacy:     LegacyConfig{Binary: "radiucal-admin-legacy"},
		Daemons: []DaemonConfig{
			{Name: "hostapd", Signal: "HUP"},
			{Name: "radiucal", Signal: "INT"},
		},
		Encryption: EncryptionConfig{
			Type:           "age",
			PublicKeyPath:  filepath.Join(baseDir, "keys", "netconf.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "netconf.key"),
		},
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
	}
}

// Validate checks that the directories every run needs are set and that
// each daemon entry is complete.
func (c *Config) Validate() error {
	required := []struct {
		key, value string
	}{
		{"config_dir", c.ConfigDir},
		{"output_dir", c.OutputDir},
		{"live_dir", c.LiveDir},
		{"scratch_dir", c.ScratchDir},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%s must be set", r.key)
		}
	}
	for i, d := range c.Daemons {
		if d.Name == "" || d.Signal == "" {
			return fmt.Errorf("daemons[%d] requires both name and signal", i)
		}
	}
	return nil
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
