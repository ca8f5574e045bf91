package encryption

import (
	"bytes"
	"fmt"
	"io"

	"netconf-go/internal/netconf"
)

// testHeader marks data sealed by TestEncryptor.
var testHeader = []byte("NCENC\x00\x00\x00")

// TestEncryptor is a deterministic stand-in for AgeEncryptor. It prepends a
// fixed header on Encrypt and strips it on Decrypt. When Setup has been
// called, Unlock only accepts the same passphrase.
type TestEncryptor struct {
	passphrase  string
	setupCalled bool
}

var _ netconf.Encryptor = (*TestEncryptor)(nil)

// NewTestEncryptor creates a new TestEncryptor.
func NewTestEncryptor() *TestEncryptor {
	return &TestEncryptor{}
}

func (e *TestEncryptor) Setup(passphrase string) error {
	e.setupCalled = true
	e.passphrase = passphrase
	return nil
}

func (e *TestEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := w.Write(testHeader); err != nil {
		return fmt.Errorf("writing test header: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

func (e *TestEncryptor) Unlock(passphrase string) (netconf.DecryptionContext, error) {
	if e.setupCalled && passphrase != e.passphrase {
		return nil, fmt.Errorf("decrypting private key: incorrect passphrase")
	}
	return &TestDecryptionContext{}, nil
}

func (e *TestEncryptor) IsConfigured() bool {
	return true
}

// TestDecryptionContext strips the test header added by TestEncryptor.
type TestDecryptionContext struct{}

var _ netconf.DecryptionContext = (*TestDecryptionContext)(nil)

func (c *TestDecryptionContext) Decrypt(r io.Reader, w io.Writer) error {
	header := make([]byte, len(testHeader))
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("reading test header: %w", err)
	}
	if !bytes.Equal(header, testHeader) {
		return fmt.Errorf("invalid test encryption header")
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}
