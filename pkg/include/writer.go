// SPDX-License-Identifier: MPL-2.0

package include

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// DefaultExtension is used for merged scripts whose root has no extension.
	DefaultExtension = ".kts"

	// hashPrefixLen is the number of hex digits of the content hash kept in file names.
	hashPrefixLen = 16
)

// DefaultOutputDir returns the per-user directory merged scripts are written
// to, falling back to the system temp directory.
func DefaultOutputDir() string {
	if dir, err := os.UserCacheDir(); err == nil && dir != "" {
		return filepath.Join(dir, "kscript", "scripts")
	}
	return filepath.Join(os.TempDir(), "kscript", "scripts")
}

// OutputName returns the file name for merged text: the root's stem, the first
// hex digits of the text's SHA-256 and the root's extension. Identical input
// always yields the same name.
func OutputName(rootName, text string) string {
	ext := filepath.Ext(rootName)
	stem := strings.TrimSuffix(rootName, ext)
	if ext == "" {
		ext = DefaultExtension
	}
	if stem == "" {
		stem = "script"
	}
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%s-%s%s", stem, hex.EncodeToString(sum[:])[:hashPrefixLen], ext)
}

// WriteMerged writes m into dir and returns the path of the written file.
// The file is written to a temporary name first and renamed into place.
func WriteMerged(dir string, m *Merged) (string, error) {
	text := m.Text()
	dest := filepath.Join(dir, OutputName(m.Name, text))
	if err := WriteFileAtomic(dest, []byte(text)); err != nil {
		return "", err
	}
	return dest, nil
}

// WriteFileAtomic writes data to path through a temporary file in the same
// directory, so readers never observe partial content.
func WriteFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name()) // Best-effort cleanup of the temp file
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("setting permissions on %s: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming into %s: %w", path, err)
	}
	return nil
}
