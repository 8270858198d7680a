package fsync

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
)

// Rename records one directory rename performed by PrefixDirectories.
type Rename struct {
	From string
	To   string
}

// PrefixDirectories renames every immediate child directory of dir whose
// name does not start with prefix to prefix+name.
//
// Regular files and already-prefixed directories are left alone, which makes
// the operation idempotent: a second call performs no renames. Symlinks that
// resolve to directories count as directories. Renames are applied in name
// order and returned in that order.
func PrefixDirectories(fs billy.Filesystem, dir, prefix string) ([]Rename, error) {
	if !IsDir(fs, dir) {
		return nil, fmt.Errorf("%s: %w", dir, ErrNotDirectory)
	}

	entries, err := fs.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var renames []Rename
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, prefix) {
			continue
		}

		from := filepath.Join(dir, name)
		if !isDirEntry(fs, from, entry) {
			continue
		}

		to := filepath.Join(dir, prefix+name)
		if err := fs.Rename(from, to); err != nil {
			return renames, fmt.Errorf("failed to rename %s to %s: %w", from, to, err)
		}
		renames = append(renames, Rename{From: from, To: to})
	}
	return renames, nil
}

// isDirEntry resolves symlinked entries; ReadDir reports them unresolved.
func isDirEntry(fs billy.Filesystem, path string, entry os.FileInfo) bool {
	if entry.Mode()&os.ModeSymlink != 0 {
		return IsDir(fs, path)
	}
	return entry.IsDir()
}
