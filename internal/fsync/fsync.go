package fsync

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// ErrNotDirectory is returned (wrapped) when a path that must be a
// directory is missing or is something else.
var ErrNotDirectory = errors.New("not a directory")

// IsDir reports whether path exists on fs and is a directory.
// Symlinks are followed.
func IsDir(fs billy.Filesystem, path string) bool {
	info, err := fs.Stat(path)
	return err == nil && info.IsDir()
}

// Exists reports whether path exists on fs. Symlinks are followed, so a
// dangling link does not count.
func Exists(fs billy.Filesystem, path string) bool {
	_, err := fs.Stat(path)
	return err == nil
}

// RemoveAll deletes path and everything below it. It reports whether
// anything was there to delete; a missing path is not an error.
func RemoveAll(fs billy.Filesystem, path string) (bool, error) {
	if _, err := fs.Lstat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if err := util.RemoveAll(fs, path); err != nil {
		return true, fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return true, nil
}
