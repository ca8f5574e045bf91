package netconf

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
)

// ChangeResult is the outcome of change detection.
type ChangeResult struct {
	Digest   string
	Previous string // empty on the first run
	Changed  bool
}

// Digest computes one SHA-256 digest over the given config files. Files are
// hashed in the order given, each framed by its base name and length so that
// renames and boundary shifts change the digest.
func (c *Compiler) Digest(files []string) (string, error) {
	h := sha256.New()
	for _, path := range files {
		if err := c.hashFile(h, path); err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (c *Compiler) hashFile(w io.Writer, path string) error {
	f, err := c.fsmgr.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	io.WriteString(w, filepath.Base(path))
	w.Write([]byte{0})
	io.WriteString(w, strconv.Itoa(len(data)))
	w.Write([]byte{0})
	w.Write(data)
	return nil
}

// DetectChange hashes the config tree and compares the digest against the
// one stored by the previous run. Nothing is written; the digest is only
// recorded by CommitChange once the run has been applied.
func (c *Compiler) DetectChange() (*ChangeResult, error) {
	files, err := c.ConfigFiles()
	if err != nil {
		return nil, err
	}

	prev, err := c.readArtifact(ArtifactHash)
	if err != nil {
		return nil, err
	}

	digest, err := c.Digest(files)
	if err != nil {
		return nil, err
	}

	previous := string(bytes.TrimSpace(prev))
	return &ChangeResult{
		Digest:   digest,
		Previous: previous,
		Changed:  previous != digest,
	}, nil
}

// CommitChange records change.Digest as the last applied digest. The digest
// it replaces is preserved as last.prev.
func (c *Compiler) CommitChange(change *ChangeResult) error {
	if change.Previous != "" {
		if err := writeArtifact(c.output, ArtifactPrevHash, []byte(change.Previous+"\n")); err != nil {
			return fmt.Errorf("unable to maintain last hash: %w", err)
		}
	}
	if err := writeArtifact(c.output, ArtifactHash, []byte(change.Digest+"\n")); err != nil {
		return fmt.Errorf("unable to store hash: %w", err)
	}
	return nil
}
