//go:build linux || darwin || freebsd || netbsd || openbsd

package lineio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joeycumines/go-prompt"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// pollInterval bounds how long the editor's reader blocks, so the editor
// can stop its read loop between lines without consuming the next input.
const pollInterval = 20 * time.Millisecond

// promptReader feeds the line editor from a terminal file descriptor. It
// hands over input at most one line at a time; bytes after a line
// terminator stay in input for the next edit.
type promptReader struct {
	fd    int
	state *term.State
	input *lineInput
	ended bool
	quit  int

	mu  sync.Mutex
	err error
}

func newPromptReader(f *os.File, input *lineInput) *promptReader {
	if input == nil {
		input = new(lineInput)
	}
	return &promptReader{fd: int(f.Fd()), input: input}
}

func (r *promptReader) Open() error {
	st, err := term.MakeRaw(r.fd)
	if err != nil {
		return fmt.Errorf("lineio: raw mode: %w", err)
	}
	r.state = st
	return nil
}

func (r *promptReader) Close() error {
	if r.state == nil {
		return nil
	}
	st := r.state
	r.state = nil
	return term.Restore(r.fd, st)
}

func (r *promptReader) Read(p []byte) (int, error) {
	if len(p) == 0 || r.ended {
		return 0, nil
	}
	if r.Err() != nil {
		return r.abandon(p), nil
	}
	if !r.input.buffered() {
		ready, err := waitReadable(r.fd, pollInterval)
		if err != nil || !ready {
			return 0, nil
		}
		buf := make([]byte, len(p))
		n, err := unix.Read(r.fd, buf)
		switch {
		case errors.Is(err, unix.EINTR), errors.Is(err, unix.EAGAIN):
			return 0, nil
		case err != nil:
			r.fail(err)
			return r.abandon(p), nil
		case n == 0:
			r.fail(io.EOF)
			return r.abandon(p), nil
		}
		r.input.fill(buf[:n])
	}
	n, terminated := r.input.take(p)
	r.ended = terminated
	return n, nil
}

// abandon ends an edit whose input failed. Ctrl-C discards any partial
// line, then Ctrl-D exits on the empty buffer.
func (r *promptReader) abandon(p []byte) int {
	if r.quit%2 == 0 {
		p[0] = ctrlC
	} else {
		p[0] = ctrlD
	}
	r.quit++
	return 1
}

func (r *promptReader) fail(err error) {
	// A terminal reports hangup as EIO.
	if errors.Is(err, unix.EIO) {
		err = io.EOF
	}
	r.mu.Lock()
	if r.err == nil {
		r.err = err
	}
	r.mu.Unlock()
}

// Err returns the error that ended input, io.EOF when the transport closed.
func (r *promptReader) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *promptReader) GetWinSize() *prompt.WinSize {
	ws := &prompt.WinSize{Row: prompt.DefRowCount, Col: prompt.DefColCount}
	if cols, rows, err := term.GetSize(r.fd); err == nil && cols > 0 && rows > 0 {
		setDim(&ws.Row, rows)
		setDim(&ws.Col, cols)
	}
	return ws
}

func setDim[T ~uint16 | ~uint32 | ~uint | ~int | ~int32](dst *T, v int) {
	*dst = T(v)
}

func waitReadable(fd int, timeout time.Duration) (bool, error) {
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, int(timeout/time.Millisecond))
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return false, nil
		}
		return false, err
	}
	return n > 0, nil
}

// probeTerminal asks the terminal for its cursor position and waits for the
// report.
func probeTerminal(in *os.File, out io.Writer, timeout time.Duration) error {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return errors.New("input is not a terminal")
	}
	if strings.EqualFold(os.Getenv("TERM"), "dumb") {
		return errors.New("TERM is dumb")
	}
	st, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("raw mode: %w", err)
	}
	defer term.Restore(fd, st)

	if _, err := io.WriteString(out, "\x1b[6n"); err != nil {
		return fmt.Errorf("write cursor position request: %w", err)
	}

	deadline := time.Now().Add(timeout)
	var resp []byte
	buf := make([]byte, 32)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return errors.New("no cursor position report")
		}
		ready, err := waitReadable(fd, remaining)
		if err != nil {
			return err
		}
		if !ready {
			continue
		}
		n, err := unix.Read(fd, buf)
		if err != nil {
			if errors.Is(err, unix.EINTR) || errors.Is(err, unix.EAGAIN) {
				continue
			}
			return err
		}
		if n == 0 {
			return io.EOF
		}
		resp = append(resp, buf[:n]...)
		if i := strings.IndexByte(string(resp), 'R'); i >= 0 {
			if _, _, ok := parseCPR(string(resp[:i+1])); ok {
				return nil
			}
			return fmt.Errorf("malformed cursor position report %q", resp)
		}
	}
}

// parseCPR parses a cursor position report, ESC [ row ; col R, ignoring any
// bytes before it.
func parseCPR(s string) (row, col int, ok bool) {
	i := strings.LastIndex(s, "\x1b[")
	if i < 0 || !strings.HasSuffix(s, "R") {
		return 0, 0, false
	}
	r, c, found := strings.Cut(s[i+2:len(s)-1], ";")
	if !found {
		return 0, 0, false
	}
	row, err1 := strconv.Atoi(r)
	col, err2 := strconv.Atoi(c)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return row, col, true
}
