//go:build linux || darwin || freebsd || netbsd || openbsd

package lineio

import (
	"bytes"
	"io"
	"os"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCPR(t *testing.T) {
	t.Parallel()
	row, col, ok := parseCPR("\x1b[24;80R")
	assert.True(t, ok)
	assert.Equal(t, 24, row)
	assert.Equal(t, 80, col)

	row, col, ok = parseCPR("noise\x1b[1;2R")
	assert.True(t, ok)
	assert.Equal(t, 1, row)
	assert.Equal(t, 2, col)

	for _, bad := range []string{"", "\x1b[R", "\x1b[1R", "\x1b[a;bR", "\x1b[1;2"} {
		_, _, ok = parseCPR(bad)
		assert.False(t, ok, "%q", bad)
	}
}

func TestProbeTerminal(t *testing.T) {
	t.Setenv("TERM", "xterm")
	ptm, pts, err := pty.Open()
	if err != nil {
		t.Skipf("pty unavailable: %v", err)
	}
	defer ptm.Close()
	defer pts.Close()

	// Answer the cursor position request from the terminal side.
	go func() {
		var seen []byte
		buf := make([]byte, 64)
		for {
			n, err := ptm.Read(buf)
			if err != nil {
				return
			}
			seen = append(seen, buf[:n]...)
			if bytes.Contains(seen, []byte("\x1b[6n")) {
				_, _ = ptm.Write([]byte("\x1b[12;40R"))
				return
			}
		}
	}()

	s := NewSession(Options{In: pts, Out: pts, LineEditor: true, ProbeTimeout: 2 * time.Second})
	assert.True(t, s.Probe())
	assert.False(t, s.Dumb())
}

func TestProbeTerminalSilent(t *testing.T) {
	t.Setenv("TERM", "xterm")
	ptm, pts, err := pty.Open()
	if err != nil {
		t.Skipf("pty unavailable: %v", err)
	}
	defer ptm.Close()
	defer pts.Close()
	go func() { _, _ = io.Copy(io.Discard, ptm) }()

	var out bytes.Buffer
	s := NewSession(Options{In: pts, Out: &out, LineEditor: true, ProbeTimeout: 100 * time.Millisecond})
	assert.False(t, s.Probe())
	assert.True(t, s.Dumb())
	assert.Contains(t, out.String(), DumbModeWarning)
}

func TestProbeTerminalDumbTerm(t *testing.T) {
	t.Setenv("TERM", "dumb")
	ptm, pts, err := pty.Open()
	if err != nil {
		t.Skipf("pty unavailable: %v", err)
	}
	defer ptm.Close()
	defer pts.Close()

	err = probeTerminal(pts, io.Discard, time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dumb")
}

func TestPromptReaderEOF(t *testing.T) {
	ptm, pts, err := pty.Open()
	if err != nil {
		t.Skipf("pty unavailable: %v", err)
	}
	defer pts.Close()

	r := newPromptReader(ptm, nil)
	require.NoError(t, pts.Close())

	buf := make([]byte, 8)
	deadline := time.Now().Add(2 * time.Second)
	for r.Err() == nil && time.Now().Before(deadline) {
		_, _ = r.Read(buf)
	}
	require.Error(t, r.Err())
	var got []byte
	for i := 0; i < 2; i++ {
		n, err := r.Read(buf)
		require.NoError(t, err)
		got = append(got, buf[:n]...)
	}
	assert.ElementsMatch(t, []byte{ctrlC, ctrlD}, got)
	_ = ptm.Close()
}

// editorSession returns a line-editing session on the slave side of a pty.
// Output written by the editor is discarded.
func editorSession(t *testing.T) (*Session, *os.File) {
	t.Helper()
	t.Setenv("TERM", "xterm")
	ptm, pts, err := pty.Open()
	if err != nil {
		t.Skipf("pty unavailable: %v", err)
	}
	t.Cleanup(func() {
		_ = pts.Close()
		_ = ptm.Close()
	})
	go func() { _, _ = io.Copy(io.Discard, ptm) }()
	s := NewSession(Options{In: pts, Out: pts, LineEditor: true})
	s.dumb = false
	return s, ptm
}

type acquired struct {
	line string
	ok   bool
	err  error
}

func acquireAsync(s *Session) <-chan acquired {
	ch := make(chan acquired, 1)
	go func() {
		line, ok, err := s.AcquireLine("> ")
		ch <- acquired{line, ok, err}
	}()
	return ch
}

func waitAcquired(t *testing.T, ch <-chan acquired) acquired {
	t.Helper()
	select {
	case a := <-ch:
		return a
	case <-time.After(5 * time.Second):
		t.Fatal("AcquireLine did not return")
		return acquired{}
	}
}

func TestAcquireLineEditorSingleWrite(t *testing.T) {
	s, ptm := editorSession(t)
	ch := acquireAsync(s)
	_, err := ptm.Write([]byte("help\r"))
	require.NoError(t, err)

	a := waitAcquired(t, ch)
	require.NoError(t, a.err)
	assert.True(t, a.ok)
	assert.Equal(t, "help", a.line)
}

func TestAcquireLineEditorBufferedLines(t *testing.T) {
	s, ptm := editorSession(t)
	ch := acquireAsync(s)
	_, err := ptm.Write([]byte("help\rls -l\r"))
	require.NoError(t, err)

	a := waitAcquired(t, ch)
	require.NoError(t, a.err)
	assert.Equal(t, "help", a.line)

	a = waitAcquired(t, acquireAsync(s))
	require.NoError(t, a.err)
	assert.True(t, a.ok)
	assert.Equal(t, "ls -l", a.line)
}

func TestAcquireLineEditorTransportClosed(t *testing.T) {
	s, ptm := editorSession(t)
	ch := acquireAsync(s)
	for _, b := range []string{"a", "b", "c"} {
		_, err := ptm.Write([]byte(b))
		require.NoError(t, err)
		time.Sleep(30 * time.Millisecond)
	}
	require.NoError(t, ptm.Close())

	a := waitAcquired(t, ch)
	assert.False(t, a.ok)
	assert.ErrorIs(t, a.err, io.EOF)
}
