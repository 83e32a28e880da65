// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets reads credentials kept as plain-text files in a secrets
// directory. The file name is the key and its trimmed contents the value.
package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// KeyPDFPassword names the file holding the password for encrypted PDFs.
const KeyPDFPassword = "pdf-password"

// Read returns the trimmed contents of the file named key in dir. A missing
// directory or file yields an empty value and no error.
func Read(dir, key string) (string, error) {
	if key == "" || strings.HasPrefix(key, ".") || strings.ContainsAny(key, `/\`) {
		return "", fmt.Errorf("invalid secret key %q", key)
	}

	data, err := os.ReadFile(filepath.Join(dir, key))
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading secret %s: %w", key, err)
	}
	return strings.TrimSpace(string(data)), nil
}
