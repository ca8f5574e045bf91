package netconf

import (
	"fmt"
	"io"
	"path/filepath"
)

// ConfigureResult is the outcome of a configuration-only compile.
type ConfigureResult struct {
	Files     []string
	Manifest  *Manifest
	VLANArgs  []string
	Artifacts []string
}

// ConfigFiles lists the config tree, sorted, without ignored files.
func (c *Compiler) ConfigFiles() ([]string, error) {
	all, err := c.fsmgr.ListFiles(c.paths.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("unable to read config dir: %w", err)
	}
	files := make([]string, 0, len(all))
	for _, f := range all {
		ignored, err := c.fsmgr.IsIgnored(f, c.paths.ConfigDir)
		if err != nil {
			return nil, fmt.Errorf("checking ignore rules: %w", err)
		}
		if ignored {
			c.logger.Debug("config file ignored", "path", f)
			continue
		}
		files = append(files, f)
	}
	return files, nil
}

// Configure loads and validates the config tree, then writes the compiled
// artifacts, mirrors them, and hands the VLAN set to the legacy bridge.
// Nothing is written unless validation succeeds and the eap_users payload is
// present.
func (c *Compiler) Configure() (*ConfigureResult, error) {
	if err := c.output.ValidateSetup(); err != nil {
		return nil, fmt.Errorf("output store %s: %w", c.output.Name(), err)
	}

	files, err := c.ConfigFiles()
	if err != nil {
		return nil, err
	}

	tables, err := c.loader.Load(files)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	manifest, err := Validate(tables)
	if err != nil {
		c.logger.Error("validation failed", "code", DiagnosticCode(err), "error", err)
		return nil, err
	}
	c.logger.Info("configuration validated",
		"vlans", len(tables.VLANs),
		"users", len(tables.Users),
		"macs", len(manifest.audit))

	eap, err := c.readEapUsers()
	if err != nil {
		return nil, err
	}

	diagram, table := RenderTopology(tables.VLANs)
	artifacts := []struct {
		name string
		data []byte
	}{
		{ArtifactAudit, RenderAudit(manifest)},
		{ArtifactDiagram, diagram},
		{ArtifactSegments, table},
		{ArtifactManifest, RenderManifest(manifest)},
		{ArtifactEapUsers, eap},
	}

	names := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		if err := writeArtifact(c.output, a.name, a.data); err != nil {
			return nil, newArtifactWriteError(a.name, err)
		}
		names = append(names, a.name)
		c.logger.Debug("artifact written", "name", a.name, "size", len(a.data))
	}

	for _, mirror := range c.mirrors {
		for _, a := range artifacts {
			if err := writeArtifact(mirror, a.name, a.data); err != nil {
				return nil, newMirrorError(mirror.Name(), a.name, err)
			}
		}
		c.logger.Info("artifacts mirrored", "mirror", mirror.Name(), "count", len(artifacts))
	}

	args := VLANArgs(tables.VLANs)
	if c.bridge != nil {
		if err := c.bridge.Run(args); err != nil {
			return nil, newLegacyBridgeError(err)
		}
	}

	return &ConfigureResult{
		Files:     files,
		Manifest:  manifest,
		VLANArgs:  args,
		Artifacts: names,
	}, nil
}

// readEapUsers reads the pre-built eap_users payload from the config tree.
func (c *Compiler) readEapUsers() ([]byte, error) {
	path := filepath.Join(c.paths.ConfigDir, ArtifactEapUsers)
	ok, err := c.fsmgr.Exists(path)
	if err != nil {
		return nil, fmt.Errorf("checking %s: %w", path, err)
	}
	if !ok {
		return nil, newMissingEapUsersError(path, nil)
	}

	f, err := c.fsmgr.Open(path)
	if err != nil {
		return nil, newMissingEapUsersError(path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}
