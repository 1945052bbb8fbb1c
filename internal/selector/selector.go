// Package selector finds the most recently modified entries under a
// directory. Absence is reported as an empty path, never as an error;
// callers decide whether a missing input is fatal.
package selector

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Filter restricts which directory entries are considered.
type Filter int

const (
	Any Filter = iota
	DirsOnly
	FilesOnly
)

// NewestEntry returns the direct child of root with the newest modification
// time, restricted by filter. Returns "" when root does not exist, is not a
// directory, or has no matching children. Entries that vanish between
// listing and stat are skipped. Ties keep the first entry encountered, which
// is deterministic within a single call.
func NewestEntry(root string, filter Filter) string {
	entries, err := os.ReadDir(root)
	if err != nil {
		return ""
	}

	var newest string
	var newestMod time.Time
	for _, e := range entries {
		if filter == DirsOnly && !e.IsDir() {
			continue
		}
		if filter == FilesOnly && e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest = filepath.Join(root, e.Name())
			newestMod = info.ModTime()
		}
	}
	return newest
}

// NewestEntryAndPDF returns the newest direct child of root and, one level
// deeper at most, the newest PDF associated with it: when the newest child
// is a directory, the newest .pdf file directly inside it; when the newest
// child is itself a .pdf file, that file. Either value may be "".
func NewestEntryAndPDF(root string) (newest, pdf string) {
	newest = NewestEntry(root, Any)
	if newest == "" {
		return "", ""
	}

	info, err := os.Stat(newest)
	if err != nil {
		return newest, ""
	}

	if info.IsDir() {
		return newest, newestPDFIn(newest)
	}
	if isPDF(newest) {
		return newest, newest
	}
	return newest, ""
}

func newestPDFIn(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	var newest string
	var newestMod time.Time
	for _, e := range entries {
		if e.IsDir() || !isPDF(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest = filepath.Join(dir, e.Name())
			newestMod = info.ModTime()
		}
	}
	return newest
}

func isPDF(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}
