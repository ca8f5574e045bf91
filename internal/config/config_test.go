package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		BaseDir:    "/home/user/.local/share/netconf",
		ConfigDir:  "/etc/network-config",
		OutputDir:  "/home/user/.local/share/netconf/bin",
		LiveDir:    "/var/lib/radiucal",
		ScratchDir: "/tmp",
		LogDir:     "/home/user/.local/share/netconf/log",
		LogLevel:   "debug",
		Legacy:     LegacyConfig{Binary: "radiucal-admin-legacy"},
		Daemons: []DaemonConfig{
			{Name: "hostapd", Signal: "HUP"},
		},
		Mirrors: []StoreConfig{
			{Type: "filesystem", Name: "local", FSRoot: "/backup/netconf"},
			{Type: "s3", Name: "offsite", S3Bucket: "radius", S3Prefix: "compiled", S3PathStyle: true},
		},
		Encryption: EncryptionConfig{
			PublicKeyPath:  "/home/user/.local/share/netconf/keys/netconf.pub",
			PrivateKeyPath: "/home/user/.local/share/netconf/keys/netconf.key",
		},
		Database: DatabaseConfig{Type: "sqlite", DataDir: "/home/user/.local/share/netconf/db"},
		Filesystem: FilesystemConfig{
			Ignore: []string{"*.swp", ".git"},
		},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.ConfigDir != original.ConfigDir {
		t.Errorf("ConfigDir = %q, want %q", got.ConfigDir, original.ConfigDir)
	}
	if got.LiveDir != original.LiveDir {
		t.Errorf("LiveDir = %q, want %q", got.LiveDir, original.LiveDir)
	}
	if got.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", got.LogLevel, "debug")
	}
	if got.Legacy.Binary != "radiucal-admin-legacy" {
		t.Errorf("Legacy.Binary = %q, want %q", got.Legacy.Binary, "radiucal-admin-legacy")
	}
	if len(got.Daemons) != 1 || got.Daemons[0] != original.Daemons[0] {
		t.Errorf("Daemons = %+v, want %+v", got.Daemons, original.Daemons)
	}
	if len(got.Mirrors) != 2 {
		t.Fatalf("len(Mirrors) = %d, want 2", len(got.Mirrors))
	}
	if got.Mirrors[0].FSRoot != "/backup/netconf" {
		t.Errorf("Mirrors[0].FSRoot = %q, want %q", got.Mirrors[0].FSRoot, "/backup/netconf")
	}
	if got.Mirrors[1].S3Bucket != "radius" || !got.Mirrors[1].S3PathStyle {
		t.Errorf("Mirrors[1] = %+v, want bucket radius with path style", got.Mirrors[1])
	}
	if got.Encryption.PrivateKeyPath != original.Encryption.PrivateKeyPath {
		t.Errorf("Encryption.PrivateKeyPath = %q, want %q", got.Encryption.PrivateKeyPath, original.Encryption.PrivateKeyPath)
	}
	if got.Database.Type != "sqlite" {
		t.Errorf("Database.Type = %q, want %q", got.Database.Type, "sqlite")
	}
	if len(got.Filesystem.Ignore) != 2 {
		t.Fatalf("len(Filesystem.Ignore) = %d, want 2", len(got.Filesystem.Ignore))
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("/data/netconf")

	checks := []struct {
		field, got, want string
	}{
		{"ConfigDir", cfg.ConfigDir, "/data/netconf/network"},
		{"OutputDir", cfg.OutputDir, "/data/netconf/bin"},
		{"LiveDir", cfg.LiveDir, "/var/lib/radiucal"},
		{"ScratchDir", cfg.ScratchDir, "/tmp"},
		{"LogDir", cfg.LogDir, "/data/netconf/log"},
		{"Legacy.Binary", cfg.Legacy.Binary, "radiucal-admin-legacy"},
		{"Encryption.PublicKeyPath", cfg.Encryption.PublicKeyPath, "/data/netconf/keys/netconf.pub"},
		{"Database.DataDir", cfg.Database.DataDir, "/data/netconf/db"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %q, want %q", c.field, c.got, c.want)
		}
	}

	want := []DaemonConfig{{Name: "hostapd", Signal: "HUP"}, {Name: "radiucal", Signal: "INT"}}
	if len(cfg.Daemons) != len(want) {
		t.Fatalf("len(Daemons) = %d, want %d", len(cfg.Daemons), len(want))
	}
	for i := range want {
		if cfg.Daemons[i] != want[i] {
			t.Errorf("Daemons[%d] = %+v, want %+v", i, cfg.Daemons[i], want[i])
		}
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on defaults error = %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing config dir", func(c *Config) { c.ConfigDir = "" }, "config_dir"},
		{"blank live dir", func(c *Config) { c.LiveDir = "  " }, "live_dir"},
		{"daemon without signal", func(c *Config) { c.Daemons = append(c.Daemons, DaemonConfig{Name: "x"}) }, "daemons[2]"},
		{"no daemons is fine", func(c *Config) { c.Daemons = nil }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig("/data")
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "netconf.toml")

		if err := Init(path, NewConfig(dir)); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "netconf.toml")
		cfg := NewConfig(dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}

		if err := Init(path, cfg); err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "netconf.toml")
		cfg := NewConfig(dir)
		cfg.Database = DatabaseConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.ConfigDir != cfg.ConfigDir {
			t.Errorf("ConfigDir = %q, want %q", got.ConfigDir, cfg.ConfigDir)
		}
		if got.Database.Type != "memory" {
			t.Errorf("Database.Type = %q, want %q", got.Database.Type, "memory")
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		if _, err := ReadFromFile("/nonexistent/path/netconf.toml"); err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
