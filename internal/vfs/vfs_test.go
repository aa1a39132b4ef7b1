package vfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFS(t *testing.T) *FS {
	t.Helper()
	f, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestAbs(t *testing.T) {
	t.Parallel()
	f := newFS(t)
	require.NoError(t, f.Mkdir("/data/logs"))
	require.NoError(t, f.Chdir("/data"))

	for _, tc := range []struct{ in, want string }{
		{"", "/data"},
		{".", "/data"},
		{"logs", "/data/logs"},
		{"../etc", "/etc"},
		{"../../../..", "/"},
		{"/a//b/", "/a/b"},
	} {
		assert.Equal(t, tc.want, f.Abs(tc.in), "input %q", tc.in)
	}
}

func TestChdir(t *testing.T) {
	t.Parallel()
	f := newFS(t)
	assert.Equal(t, "/", f.Getwd())

	require.NoError(t, f.Mkdir("data"))
	require.NoError(t, f.WriteFile("note.txt", []byte("hi")))

	require.NoError(t, f.Chdir("data"))
	assert.Equal(t, "/data", f.Getwd())

	assert.ErrorIs(t, f.Chdir("/note.txt"), ErrNotDir)
	assert.ErrorIs(t, f.Chdir("/missing"), os.ErrNotExist)
	assert.Equal(t, "/data", f.Getwd())

	require.NoError(t, f.Chdir(".."))
	assert.Equal(t, "/", f.Getwd())
}

func TestFileOperations(t *testing.T) {
	t.Parallel()
	f := newFS(t)
	require.NoError(t, f.WriteFile("/a.txt", []byte("alpha")))
	require.NoError(t, f.Mkdir("/dir"))

	require.NoError(t, f.Copy("/a.txt", "/dir"))
	data, err := f.ReadFile("/dir/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "alpha", string(data))

	require.NoError(t, f.Rename("/a.txt", "/b.txt"))
	assert.False(t, f.Exists("/a.txt"))
	assert.True(t, f.Exists("/b.txt"))

	entries, err := f.ReadDir("/")
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"b.txt", "dir"}, names)

	assert.ErrorIs(t, f.Remove("/dir"), ErrIsDir)
	assert.ErrorIs(t, f.RemoveDir("/b.txt"), ErrNotDir)
	assert.Error(t, f.RemoveDir("/dir"), "not empty")

	require.NoError(t, f.Remove("/dir/a.txt"))
	require.NoError(t, f.RemoveDir("/dir"))
	assert.False(t, f.Exists("/dir"))
}

func TestCopyOntoItself(t *testing.T) {
	t.Parallel()
	f := newFS(t)
	require.NoError(t, f.Mkdir("/dir"))
	require.NoError(t, f.WriteFile("/dir/a.txt", []byte("alpha")))
	require.NoError(t, f.Chdir("/dir"))

	for _, dst := range []string{"a.txt", "/dir/a.txt", "./a.txt", ".", "/dir"} {
		assert.ErrorIs(t, f.Copy("a.txt", dst), ErrSameFile, "destination %q", dst)
	}
	data, err := f.ReadFile("/dir/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "alpha", string(data))
}

func TestCopyOntoHardLink(t *testing.T) {
	t.Parallel()
	f := newFS(t)
	require.NoError(t, f.WriteFile("/a.txt", []byte("alpha")))
	if err := os.Link(f.HostPath("/a.txt"), f.HostPath("/b.txt")); err != nil {
		t.Skipf("hard links unavailable: %v", err)
	}

	assert.ErrorIs(t, f.Copy("/a.txt", "/b.txt"), ErrSameFile)
	data, err := f.ReadFile("/b.txt")
	require.NoError(t, err)
	assert.Equal(t, "alpha", string(data))
}

func TestRemoveDirInUse(t *testing.T) {
	t.Parallel()
	f := newFS(t)
	require.NoError(t, f.Mkdir("/x/y"))
	require.NoError(t, f.Chdir("/x/y"))
	assert.Error(t, f.RemoveDir("/x"))
	assert.Error(t, f.RemoveDir("."))
	assert.Error(t, f.RemoveDir("/"))
}

func TestHostPathStaysInsideRoot(t *testing.T) {
	t.Parallel()
	f := newFS(t)
	assert.Equal(t, filepath.Join(f.Root(), "etc", "passwd"), f.HostPath("/../../etc/passwd"))
	assert.Equal(t, f.Root(), f.HostPath("/"))
}

func TestSymlinkEscapeRejected(t *testing.T) {
	t.Parallel()
	f := newFS(t)
	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret"), []byte("x"), 0644))
	if err := os.Symlink(outside, filepath.Join(f.Root(), "out")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	_, err := f.ReadFile("/out/secret")
	assert.Error(t, err)
}
