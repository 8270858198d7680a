package fsync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/shinji-kodama/cdf-dryrun/internal/shell"
)

// Mirror makes dst an exact copy of src: missing and changed entries are
// copied, and entries that exist only in dst are deleted. It is a one-way,
// destructive sync, not a merge.
type Mirror interface {
	// Mirror synchronizes dst with src. Both paths are relative to the
	// project root the Mirror was created for.
	Mirror(ctx context.Context, src, dst string) error

	// Name identifies the implementation in log output.
	Name() string
}

// DefaultMirror returns an RsyncMirror when rsync is installed and an
// FSMirror over fs otherwise. dir is the project root fs is rooted at.
func DefaultMirror(fs billy.Filesystem, dir string) Mirror {
	if shell.LookPath("rsync") {
		return &RsyncMirror{Dir: dir}
	}
	return &FSMirror{FS: fs, Dir: dir}
}

// RsyncMirror mirrors with `rsync -a --delete <src>/ <dst>`.
type RsyncMirror struct {
	// Dir is the working directory rsync runs in.
	Dir string

	// Bin overrides the rsync executable. Empty means "rsync".
	Bin string
}

// Name implements Mirror.
func (m *RsyncMirror) Name() string {
	return "rsync"
}

// Mirror implements Mirror. The trailing slash on src makes rsync copy the
// directory's contents rather than the directory itself.
func (m *RsyncMirror) Mirror(ctx context.Context, src, dst string) error {
	bin := m.Bin
	if bin == "" {
		bin = "rsync"
	}

	cmd := shell.Command{
		Name: bin,
		Args: []string{"-a", "--delete", filepath.Clean(src) + "/", filepath.Clean(dst)},
		Dir:  m.Dir,
	}
	if _, err := shell.Run(ctx, cmd); err != nil {
		return fmt.Errorf("command '%s' failed: %w", cmd.String(), err)
	}
	return nil
}

// FSMirror mirrors in-process on a billy.Filesystem. It handles regular
// files, directories, and symlinks. File modes are carried over through
// billy.Change when FS implements it, otherwise through os.Chmod below Dir.
type FSMirror struct {
	FS billy.Filesystem

	// Dir is the on-disk directory FS is rooted at. Empty for in-memory
	// filesystems, whose modes are then left as created.
	Dir string
}

// Name implements Mirror.
func (m *FSMirror) Name() string {
	return "in-process"
}

// Mirror implements Mirror.
func (m *FSMirror) Mirror(ctx context.Context, src, dst string) error {
	src = filepath.Clean(src)
	dst = filepath.Clean(dst)

	if !IsDir(m.FS, src) {
		return fmt.Errorf("%s: %w", src, ErrNotDirectory)
	}

	// Paths (relative to src) that exist in the source tree. Anything in
	// dst outside this set is extraneous.
	keep := map[string]bool{".": true}

	err := util.Walk(m.FS, src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		keep[rel] = true
		return m.copyEntry(path, filepath.Join(dst, rel), info)
	})
	if err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}

	extraneous, err := m.extraneous(dst, keep)
	if err != nil {
		return err
	}
	for _, path := range extraneous {
		if err := util.RemoveAll(m.FS, path); err != nil {
			return fmt.Errorf("failed to delete %s: %w", path, err)
		}
	}
	return nil
}

// extraneous lists the top-most entries below dst that have no counterpart
// in keep. Children of an extraneous directory are not listed separately.
func (m *FSMirror) extraneous(dst string, keep map[string]bool) ([]string, error) {
	var paths []string
	err := util.Walk(m.FS, dst, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dst, path)
		if err != nil {
			return err
		}
		if keep[rel] {
			return nil
		}
		paths = append(paths, path)
		if info.IsDir() {
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dst, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// copyEntry makes dst match the single source entry at src.
func (m *FSMirror) copyEntry(src, dst string, info os.FileInfo) error {
	existing, err := m.FS.Lstat(dst)
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		existing = nil
	}

	switch {
	case info.IsDir():
		if existing != nil && !existing.IsDir() {
			if err := util.RemoveAll(m.FS, dst); err != nil {
				return err
			}
		}
		if err := m.FS.MkdirAll(dst, info.Mode().Perm()); err != nil {
			return err
		}
		return m.chmod(dst, info.Mode().Perm())

	case info.Mode()&os.ModeSymlink != 0:
		target, err := m.FS.Readlink(src)
		if err != nil {
			return err
		}
		if existing != nil && existing.Mode()&os.ModeSymlink != 0 {
			if current, err := m.FS.Readlink(dst); err == nil && current == target {
				return nil
			}
		}
		if existing != nil {
			if err := util.RemoveAll(m.FS, dst); err != nil {
				return err
			}
		}
		return m.FS.Symlink(target, dst)

	case info.Mode().IsRegular():
		if existing != nil && !existing.Mode().IsRegular() {
			if err := util.RemoveAll(m.FS, dst); err != nil {
				return err
			}
			existing = nil
		}
		if existing != nil && existing.Size() == info.Size() {
			same, err := m.sameContent(src, dst)
			if err != nil {
				return err
			}
			if same {
				return m.chmod(dst, info.Mode().Perm())
			}
		}
		if err := m.copyFile(src, dst, info.Mode().Perm()); err != nil {
			return err
		}
		return m.chmod(dst, info.Mode().Perm())

	default:
		// Devices, sockets and pipes have no place in a module tree.
		return fmt.Errorf("unsupported file type %s at %s", info.Mode().Type(), src)
	}
}

func (m *FSMirror) sameContent(a, b string) (bool, error) {
	left, err := util.ReadFile(m.FS, a)
	if err != nil {
		return false, err
	}
	right, err := util.ReadFile(m.FS, b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(left, right), nil
}

func (m *FSMirror) copyFile(src, dst string, perm os.FileMode) (err error) {
	in, err := m.FS.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := m.FS.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	_, err = io.Copy(out, in)
	return err
}

// chmod sets perm on path. osfs in go-billy v5 does not implement
// billy.Change, so on-disk trees fall back to os.Chmod.
func (m *FSMirror) chmod(path string, perm os.FileMode) error {
	if ch, ok := m.FS.(billy.Change); ok {
		err := ch.Chmod(path, perm)
		if err == nil || !errors.Is(err, billy.ErrNotSupported) {
			return err
		}
	}
	if m.Dir == "" {
		return nil
	}
	return os.Chmod(filepath.Join(m.Dir, path), perm)
}
