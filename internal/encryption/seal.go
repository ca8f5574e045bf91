package encryption

import (
	"bytes"
	"fmt"
	"os"

	"netconf-go/internal/netconf"
)

// SealedSuffix is appended to the name of a sealed secret file.
const SealedSuffix = ".age"

// SealFile encrypts the file at path to path+SealedSuffix and returns the new
// path. The plaintext file is left in place for the operator to remove.
func SealFile(enc netconf.Encryptor, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var sealed bytes.Buffer
	if err := enc.Encrypt(f, &sealed); err != nil {
		return "", fmt.Errorf("sealing %s: %w", path, err)
	}

	dest := path + SealedSuffix
	tmp := dest + ".tmp"
	if err := os.WriteFile(tmp, sealed.Bytes(), 0600); err != nil {
		return "", fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("renaming %s: %w", tmp, err)
	}
	return dest, nil
}
