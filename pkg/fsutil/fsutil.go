// Package fsutil holds the file qualification rule shared by the scanner and
// the catalog loader.
package fsutil

import (
	"log"
	"os"
	"path/filepath"
	"strings"
)

// IsRegularFile follows symlinks; anything that cannot be stat'ed does not qualify.
func IsRegularFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("WARN: could not stat %s: %v. Skipping entry.", path, err)
		}
		return false
	}
	return info.Mode().IsRegular()
}

// Extension returns the suffix starting at the last dot, ignoring leading
// dots so that ".json" has no extension while "a.json" has ".json".
func Extension(name string) string {
	trimmed := strings.TrimLeft(name, ".")
	return filepath.Ext(trimmed)
}

// HasExtension reports whether the entry name inside dir is a regular file,
// after following symlinks, whose extension is exactly ext.
func HasExtension(dir, name, ext string) bool {
	return Extension(name) == ext && IsRegularFile(filepath.Join(dir, name))
}
