package store

import (
	"context"
	"fmt"

	"netconf-go/internal/config"
	"netconf-go/internal/netconf"
)

// NewStoreFromConfig creates an ArtifactStore implementation based on the
// store config type.
func NewStoreFromConfig(cfg config.StoreConfig) (netconf.ArtifactStore, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryStore(cfg.Name), nil
	case "s3":
		s, err := NewS3Store(context.Background(), cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "filesystem":
		if cfg.FSRoot == "" {
			return nil, fmt.Errorf("filesystem store requires fs_root to be set")
		}
		return NewFileSystemStore(cfg.Name, cfg.FSRoot), nil
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Type)
	}
}
