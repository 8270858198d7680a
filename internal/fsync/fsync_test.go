package fsync

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoveAll(t *testing.T) {
	fs := osfs.New(t.TempDir())
	require.NoError(t, util.WriteFile(fs, "build/CogniteDataFusion/functions/fn_a/handler.py", []byte("old"), 0o644))
	require.NoError(t, util.WriteFile(fs, "build/_build_environment.yaml", []byte("old"), 0o644))

	removed, err := RemoveAll(fs, "build")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.False(t, Exists(fs, "build"))

	removed, err = RemoveAll(fs, "build")
	require.NoError(t, err)
	assert.False(t, removed, "a missing path is not an error")
}

func TestIsDir(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("modules", 0o755))
	require.NoError(t, util.WriteFile(fs, "config.dev.yaml", []byte("environment: {}"), 0o644))

	assert.True(t, IsDir(fs, "modules"))
	assert.False(t, IsDir(fs, "config.dev.yaml"))
	assert.False(t, IsDir(fs, "missing"))

	assert.True(t, Exists(fs, "config.dev.yaml"))
	assert.False(t, Exists(fs, "missing"))
}

func TestExists_FollowsSymlinks(t *testing.T) {
	root := t.TempDir()
	fs := osfs.New(root)
	require.NoError(t, util.WriteFile(fs, "config.base.yaml", []byte("environment: {}"), 0o644))
	require.NoError(t, os.Symlink("config.base.yaml", filepath.Join(root, "config.dev.yaml")))
	require.NoError(t, os.Symlink("config.gone.yaml", filepath.Join(root, "config.prod.yaml")))

	assert.True(t, Exists(fs, "config.dev.yaml"))
	assert.False(t, Exists(fs, "config.prod.yaml"), "a dangling link does not exist")
}
