package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netconf-go/internal/config"
)

func TestNewStoreFromConfig(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.StoreConfig
		wantErr  bool
		wantType any
	}{
		{
			name:     "memory store",
			cfg:      config.StoreConfig{Type: "memory", Name: "test-memory"},
			wantType: &MemoryStore{},
		},
		{
			name:     "filesystem store",
			cfg:      config.StoreConfig{Type: "filesystem", Name: "test-fs", FSRoot: "/tmp/out"},
			wantType: &FileSystemStore{},
		},
		{
			name:    "filesystem store without root",
			cfg:     config.StoreConfig{Type: "filesystem", Name: "test-fs"},
			wantErr: true,
		},
		{
			name:    "s3 store without bucket",
			cfg:     config.StoreConfig{Type: "s3", Name: "test-s3"},
			wantErr: true,
		},
		{
			name:    "unknown store type",
			cfg:     config.StoreConfig{Type: "unknown", Name: "test-unknown"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewStoreFromConfig(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, got)
			assert.Equal(t, tt.cfg.Name, got.Name())
		})
	}
}
