// Package fileid derives stable document ids for files imported from watched directories, so
// re-importing a changed file replaces its previous chunks.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
)

// Prefix marks ids derived from file paths.
const Prefix = "file-"

// hexLen is the number of hash characters kept.
const hexLen = 32

// FromPath returns the id for path after cleaning it. Callers pass absolute paths.
func FromPath(path string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(path)))
	return Prefix + hex.EncodeToString(sum[:])[:hexLen]
}

// ForFile resolves path to an absolute path and returns its id.
func ForFile(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	return FromPath(abs), nil
}

// IsFileID reports whether id was produced by FromPath.
func IsFileID(id string) bool {
	if !strings.HasPrefix(id, Prefix) || len(id) != len(Prefix)+hexLen {
		return false
	}
	_, err := hex.DecodeString(id[len(Prefix):])
	return err == nil
}
