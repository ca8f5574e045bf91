package testutil

import (
	"netconf-go/internal/encryption"
	"netconf-go/internal/netconf"
)

// NewTestEncryptor creates a deterministic encryptor for testing.
func NewTestEncryptor() netconf.Encryptor {
	return encryption.NewTestEncryptor()
}
