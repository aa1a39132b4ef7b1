//go:build linux

package serial

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestConfigure(t *testing.T) {
	ptm, pts, err := pty.Open()
	if err != nil {
		t.Skipf("pty unavailable: %v", err)
	}
	defer ptm.Close()
	defer pts.Close()

	fd := int(pts.Fd())
	require.NoError(t, Configure(fd, 9600))

	tio, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	require.NoError(t, err)
	assert.Equal(t, uint32(unix.B9600), tio.Cflag&unix.CBAUD)
	assert.Equal(t, uint32(unix.CS8), tio.Cflag&unix.CSIZE)
	assert.Zero(t, tio.Cflag&unix.PARENB)
	assert.Zero(t, tio.Cflag&unix.CSTOPB)
	assert.NotZero(t, tio.Iflag&unix.ICRNL)
	assert.NotZero(t, tio.Oflag&unix.ONLCR)

	var cerr *ConfigError
	assert.ErrorAs(t, Configure(fd, 1234), &cerr)
}

func TestRebind(t *testing.T) {
	dir := t.TempDir()
	original, err := os.Create(filepath.Join(dir, "original"))
	require.NoError(t, err)
	defer original.Close()
	port, err := os.Create(filepath.Join(dir, "port"))
	require.NoError(t, err)
	defer port.Close()

	target, err := unix.Dup(int(original.Fd()))
	require.NoError(t, err)
	defer unix.Close(target)

	restore, err := rebind(int(port.Fd()), []int{target})
	require.NoError(t, err)
	_, err = unix.Write(target, []byte("to port\n"))
	require.NoError(t, err)

	require.NoError(t, restore())
	_, err = unix.Write(target, []byte("to original\n"))
	require.NoError(t, err)

	got, err := os.ReadFile(port.Name())
	require.NoError(t, err)
	assert.Equal(t, "to port\n", string(got))
	got, err = os.ReadFile(original.Name())
	require.NoError(t, err)
	assert.Equal(t, "to original\n", string(got))
}
