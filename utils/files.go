package utils

import (
	"crypto/rand"
	"encoding/hex"
	"path/filepath"
	"regexp"
	"strings"
)

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// SanitizeFilename strips path components and replaces anything outside a
// conservative character set. The original filename is still stored verbatim
// in the file record; this only shapes the on-disk name.
func SanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	if name == "" || name == "." || name == ".." {
		name = "file"
	}
	return name
}

// StorageName builds a collision-free on-disk name by prefixing a random key.
func StorageName(originalName string) string {
	key := make([]byte, 6)
	if _, err := rand.Read(key); err != nil {
		return "upload_" + SanitizeFilename(originalName)
	}
	return hex.EncodeToString(key) + "_" + SanitizeFilename(originalName)
}

// FileExt returns the lowercased extension without the dot.
func FileExt(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}
