//go:build unix

package platform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_SameFileThroughSymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	require.NoError(t, os.Mkdir(target, 0o755))
	link := filepath.Join(dir, "link")
	require.NoError(t, os.Symlink(target, link))

	direct, err := os.Stat(target)
	require.NoError(t, err)
	viaLink, err := os.Stat(link)
	require.NoError(t, err)

	a, ok := ID(direct)
	require.True(t, ok)
	b, ok := ID(viaLink)
	require.True(t, ok)
	assert.Equal(t, a, b)

	other, err := os.Stat(dir)
	require.NoError(t, err)
	c, ok := ID(other)
	require.True(t, ok)
	assert.NotEqual(t, a, c)
}

func TestAdviseSequential(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	AdviseSequential(f)
	buf := make([]byte, 4)
	n, err := f.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "data", string(buf[:n]))
}
