package netconf

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// usersDir is the per-user placeholder directory under the live tree.
const usersDir = "users"

// userPlaceholder is the content of a newly created per-user file.
var userPlaceholder = []byte("user")

// ReconcileResult lists the changes made to the live per-user directory.
type ReconcileResult struct {
	Created []string
	Removed []string
}

// Reconcile brings the live per-user directory into exact correspondence with
// users: stale entries are removed, missing files are created with placeholder
// content, and existing ones are never rewritten. It then refreshes the live
// eap_users copy from the compiled output.
//
// Changes are applied file by file; re-running with the same users converges
// to the same directory.
func (c *Compiler) Reconcile(users []string) (*ReconcileResult, error) {
	for _, u := range users {
		if !validUserFileName(u) {
			return nil, fmt.Errorf("user name cannot be used as a file name: %q", u)
		}
	}

	dir := filepath.Join(c.paths.LiveDir, usersDir)
	if err := c.fsmgr.MkdirAll(dir); err != nil {
		return nil, fmt.Errorf("unable to make live configs: %w", err)
	}

	target := make(map[string]bool, len(users))
	for _, u := range users {
		target[filepath.Join(dir, u)] = true
	}

	// Stale entries of any type are removed, directories included.
	current, err := c.fsmgr.ListEntries(dir)
	if err != nil {
		return nil, fmt.Errorf("listing live users: %w", err)
	}

	res := &ReconcileResult{}
	for _, path := range current {
		if target[path] {
			continue
		}
		c.logger.Info("dropping file", "path", path)
		if err := c.fsmgr.Remove(path); err != nil {
			return nil, fmt.Errorf("unable to remove %s: %w", path, err)
		}
		res.Removed = append(res.Removed, filepath.Base(path))
	}

	for _, u := range users {
		path := filepath.Join(dir, u)
		exists, err := c.fsmgr.Exists(path)
		if err != nil {
			return nil, fmt.Errorf("checking %s: %w", path, err)
		}
		if exists {
			continue
		}
		if err := c.fsmgr.WriteFile(path, userPlaceholder); err != nil {
			return nil, fmt.Errorf("unable to write %s: %w", path, err)
		}
		c.logger.Debug("user file created", "path", path)
		res.Created = append(res.Created, u)
	}

	if err := c.refreshEapUsers(); err != nil {
		return nil, err
	}

	c.logger.Info("live state reconciled", "created", len(res.Created), "removed", len(res.Removed))
	return res, nil
}

// refreshEapUsers copies the compiled eap_users file into the live tree.
func (c *Compiler) refreshEapUsers() error {
	var buf bytes.Buffer
	if err := c.output.Get(ArtifactEapUsers, &buf); err != nil {
		if errors.Is(err, ErrArtifactNotFound) {
			return newMissingEapUsersError(c.output.Name()+":"+ArtifactEapUsers, err)
		}
		return fmt.Errorf("reading compiled eap_users: %w", err)
	}

	dest := filepath.Join(c.paths.LiveDir, ArtifactEapUsers)
	if err := c.fsmgr.WriteFile(dest, buf.Bytes()); err != nil {
		return fmt.Errorf("unable to copy eap_users file: %w", err)
	}
	return nil
}

func validUserFileName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.ContainsRune(name, 0)
}
