package fs

import (
	"io"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func TestOSFilesystemManager_ListFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "vlans.yaml"), "vlans: []")
	writeTestFile(t, filepath.Join(dir, "alice.yaml"), "users: []")
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	writeTestFile(t, filepath.Join(dir, "sub", "nested.yaml"), "")
	if err := os.Symlink(filepath.Join(dir, "alice.yaml"), filepath.Join(dir, "link.yaml")); err != nil {
		t.Fatal(err)
	}

	m := NewOSFilesystemManager(nil)
	got, err := m.ListFiles(dir)
	if err != nil {
		t.Fatalf("ListFiles() error = %v", err)
	}

	want := []string{
		filepath.Join(dir, "alice.yaml"),
		filepath.Join(dir, "link.yaml"),
		filepath.Join(dir, "vlans.yaml"),
	}
	if !slices.Equal(got, want) {
		t.Errorf("ListFiles() = %v, want %v", got, want)
	}
}

func TestOSFilesystemManager_ListFiles_Symlinks(t *testing.T) {
	t.Parallel()
	shared := t.TempDir()
	writeTestFile(t, filepath.Join(shared, "users.yaml"), "users: [alice]")
	if err := os.Mkdir(filepath.Join(shared, "vlans"), 0755); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	links := map[string]string{
		"users.yaml": filepath.Join(shared, "users.yaml"),
		"vlans":      filepath.Join(shared, "vlans"),
		"gone.yaml":  filepath.Join(shared, "missing.yaml"),
	}
	for name, target := range links {
		if err := os.Symlink(target, filepath.Join(dir, name)); err != nil {
			t.Fatal(err)
		}
	}

	m := NewOSFilesystemManager(nil)
	got, err := m.ListFiles(dir)
	if err != nil {
		t.Fatalf("ListFiles() error = %v", err)
	}
	want := []string{filepath.Join(dir, "users.yaml")}
	if !slices.Equal(got, want) {
		t.Errorf("ListFiles() = %v, want %v", got, want)
	}

	f, err := m.Open(got[0])
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer f.Close()
	data, _ := io.ReadAll(f)
	if string(data) != "users: [alice]" {
		t.Errorf("content through link = %q", data)
	}
}

func TestOSFilesystemManager_ListEntries(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "alice"), "user")
	if err := os.Mkdir(filepath.Join(dir, "old"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(dir, "nowhere"), filepath.Join(dir, "dangling")); err != nil {
		t.Fatal(err)
	}

	m := NewOSFilesystemManager(nil)
	got, err := m.ListEntries(dir)
	if err != nil {
		t.Fatalf("ListEntries() error = %v", err)
	}
	want := []string{
		filepath.Join(dir, "alice"),
		filepath.Join(dir, "dangling"),
		filepath.Join(dir, "old"),
	}
	if !slices.Equal(got, want) {
		t.Errorf("ListEntries() = %v, want %v", got, want)
	}
}

func TestOSFilesystemManager_Remove_NonRegular(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	target := filepath.Join(t.TempDir(), "keep")
	writeTestFile(t, target, "keep")
	if err := os.MkdirAll(filepath.Join(dir, "old", "nested"), 0755); err != nil {
		t.Fatal(err)
	}
	writeTestFile(t, filepath.Join(dir, "old", "nested", "file"), "x")
	if err := os.Symlink(target, filepath.Join(dir, "link")); err != nil {
		t.Fatal(err)
	}

	m := NewOSFilesystemManager(nil)
	for _, name := range []string{"old", "link", "never-existed"} {
		if err := m.Remove(filepath.Join(dir, name)); err != nil {
			t.Errorf("Remove(%q) error = %v", name, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("entries left after Remove: %d", len(entries))
	}
	if _, err := os.Stat(target); err != nil {
		t.Errorf("link target removed: %v", err)
	}
}

func TestOSFilesystemManager_ListFiles_MissingDir(t *testing.T) {
	t.Parallel()
	m := NewOSFilesystemManager(nil)
	if _, err := m.ListFiles(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("ListFiles() expected error for missing directory")
	}
}

func TestOSFilesystemManager_IsIgnored(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, IgnoreFileName), "# local\n*.bak\n")

	m := NewOSFilesystemManager([]string{"README*"})

	tests := []struct {
		name string
		want bool
	}{
		{"vlans.yaml", false},
		{IgnoreFileName, true},
		{"old.bak", true},
		{"README.md", true},
		{".vlans.yaml.swp", true},
		{"vlans.yaml~", true},
	}
	for _, tt := range tests {
		got, err := m.IsIgnored(filepath.Join(root, tt.name), root)
		if err != nil {
			t.Fatalf("IsIgnored(%q) error = %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("IsIgnored(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestOSFilesystemManager_WriteFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "eap_users")
	m := NewOSFilesystemManager(nil)

	if err := m.WriteFile(path, []byte("first")); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := m.WriteFile(path, []byte("second")); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	f, err := m.Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer f.Close()
	data, _ := io.ReadAll(f)
	if string(data) != "second" {
		t.Errorf("content = %q, want %q", data, "second")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the target file, found %d entries", len(entries))
	}
}

func TestOSFilesystemManager_ExistsRemoveMkdir(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "live", "users")
	m := NewOSFilesystemManager(nil)

	if err := m.MkdirAll(dir); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	path := filepath.Join(dir, "alice")
	if err := m.WriteFile(path, []byte("user")); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	ok, err := m.Exists(path)
	if err != nil || !ok {
		t.Fatalf("Exists() = %v, %v; want true, nil", ok, err)
	}
	if err := m.Remove(path); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	ok, err = m.Exists(path)
	if err != nil || ok {
		t.Fatalf("Exists() after remove = %v, %v; want false, nil", ok, err)
	}

	if _, err := m.Open(dir); err == nil {
		t.Error("Open() on a directory expected error")
	}
}
