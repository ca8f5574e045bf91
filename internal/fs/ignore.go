package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IgnoreFileName is read from the root of the config tree.
const IgnoreFileName = ".netconfignore"

// defaultIgnorePatterns cover the ignore file itself, vim swap files and
// editor backups such as users.yaml~.
var defaultIgnorePatterns = []string{IgnoreFileName, ".*.swp", "*~"}

// IgnoreMatcher decides which config tree files are left out of loading and
// change detection. The tree is flat, so every rule is a shell glob matched
// against the file's base name.
type IgnoreMatcher struct {
	globs []string
}

// NewIgnoreMatcher builds a matcher from ignore rules. Blank lines, '#'
// comments and malformed globs are dropped.
func NewIgnoreMatcher(rules []string) *IgnoreMatcher {
	m := &IgnoreMatcher{}
	for _, rule := range rules {
		rule = strings.TrimSpace(rule)
		if rule == "" || strings.HasPrefix(rule, "#") {
			continue
		}
		if _, err := filepath.Match(rule, ""); err != nil {
			continue
		}
		m.globs = append(m.globs, rule)
	}
	return m
}

// Match reports whether the file at name, relative to the tree root, is ignored.
func (m *IgnoreMatcher) Match(name string) bool {
	base := filepath.Base(name)
	for _, glob := range m.globs {
		if ok, _ := filepath.Match(glob, base); ok {
			return true
		}
	}
	return false
}

// ReadIgnoreFile returns the lines of the ignore file at path, or nil when
// the tree has none.
func ReadIgnoreFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading ignore file: %w", err)
	}
	return strings.Split(string(data), "\n"), nil
}

// treeMatcher combines the defaults, the configured rules and the ignore file
// found at root.
func treeMatcher(root string, configured []string) (*IgnoreMatcher, error) {
	fromFile, err := ReadIgnoreFile(filepath.Join(root, IgnoreFileName))
	if err != nil {
		return nil, err
	}
	rules := make([]string, 0, len(defaultIgnorePatterns)+len(configured)+len(fromFile))
	rules = append(rules, defaultIgnorePatterns...)
	rules = append(rules, configured...)
	rules = append(rules, fromFile...)
	return NewIgnoreMatcher(rules), nil
}
