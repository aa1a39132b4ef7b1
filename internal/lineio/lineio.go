// Package lineio reads console input lines from the serial transport, using
// a full line editor when the terminal supports escape sequences and a plain
// line-buffered reader otherwise.
package lineio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joeycumines/ttyconsole/internal/serial"
	"github.com/rivo/uniseg"
)

// DefaultProbeTimeout bounds the wait for a cursor position report.
const DefaultProbeTimeout = 500 * time.Millisecond

// DumbModeWarning is written once when the terminal probe fails.
const DumbModeWarning = "\r\n" +
	"Your terminal application does not support escape sequences.\n\n" +
	"Line editing and history features are disabled.\n\n" +
	"On Windows, try using Putty instead.\r\n"

// Candidate is a completion suggestion for the first word of a line.
type Candidate struct {
	Text        string
	Description string
}

// Options configures a Session.
type Options struct {
	// In and Out default to the process standard streams.
	In  *os.File
	Out io.Writer
	// MaxLineLength truncates longer lines, counted in user-perceived
	// characters. Zero disables the limit.
	MaxLineLength int
	// LineEditor enables the terminal probe. When false the session starts
	// in dumb mode without a warning.
	LineEditor bool
	// History supplies the entries offered by history navigation.
	History func() []string
	// Commands supplies completion candidates.
	Commands func() []Candidate
	// ProbeTimeout defaults to DefaultProbeTimeout.
	ProbeTimeout time.Duration
	Logger       *slog.Logger
}

// Session is the line I/O session of one console. It must be used from a
// single goroutine.
type Session struct {
	opts    Options
	in      *os.File
	out     io.Writer
	binding *serial.Binding
	dumb    bool
	reader  *bufio.Reader
	input   lineInput
	open    bool
}

// NewSession returns a session over opts. It is not usable until Open.
func NewSession(opts Options) *Session {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = DefaultProbeTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Session{
		opts: opts,
		in:   opts.In,
		out:  opts.Out,
		dumb: !opts.LineEditor,
	}
}

// Open claims the line editor.
func (s *Session) Open() error {
	if s.open {
		return nil
	}
	if err := acquireEngine(); err != nil {
		return err
	}
	s.open = true
	return nil
}

// Close releases the transport binding and the line editor.
func (s *Session) Close() error {
	err := s.binding.Release()
	s.binding = nil
	if s.open {
		s.open = false
		releaseEngine()
	}
	return err
}

// Bind makes p the session's transport. Alternate channels take over the
// standard streams, which the session then reads and writes.
func (s *Session) Bind(p serial.Port, pins serial.PinReserver) error {
	b, err := serial.Bind(p, pins)
	if err != nil {
		return err
	}
	s.binding = b
	if !p.IsDefault() {
		s.in, s.out = os.Stdin, os.Stdout
		s.reader = nil
		s.input = lineInput{}
	}
	s.opts.Logger.Info("serial transport bound", slog.String("port", p.String()))
	return nil
}

// Writer returns the session output.
func (s *Session) Writer() io.Writer {
	return s.out
}

// Dumb reports whether the session reads plain lines.
func (s *Session) Dumb() bool {
	return s.dumb
}

// Probe checks that the terminal answers escape sequences. On failure the
// session switches to dumb mode and writes DumbModeWarning. It reports
// whether the line editor is in use.
func (s *Session) Probe() bool {
	if !s.opts.LineEditor {
		s.dumb = true
		return false
	}
	if err := probeTerminal(s.in, s.out, s.opts.ProbeTimeout); err != nil {
		s.opts.Logger.Debug("terminal probe failed", slog.Any("error", err))
		s.dumb = true
		_, _ = io.WriteString(s.out, DumbModeWarning)
		return false
	}
	s.dumb = false
	return true
}

// AcquireLine shows prefix and reads one line. ok is false when the line is
// empty or the edit was abandoned; err is io.EOF once the transport closes
// and ErrInterrupted when a signal stops the line editor.
func (s *Session) AcquireLine(prefix string) (line string, ok bool, err error) {
	if s.dumb {
		line, err = s.readPlain(prefix)
	} else {
		line, err = s.readEdited(prefix)
	}
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", false, err
	}
	if strings.TrimSpace(line) == "" {
		return "", false, nil
	}
	return Truncate(line, s.opts.MaxLineLength), true, nil
}

func (s *Session) readPlain(prefix string) (string, error) {
	if _, err := io.WriteString(s.out, prefix); err != nil {
		return "", fmt.Errorf("lineio: write prompt: %w", err)
	}
	if s.reader == nil {
		s.reader = bufio.NewReader(s.in)
	}
	line, err := s.reader.ReadString('\n')
	return strings.TrimRight(line, "\r\n"), err
}

func (s *Session) history() []string {
	if s.opts.History == nil {
		return nil
	}
	return s.opts.History()
}

func (s *Session) commands() []Candidate {
	if s.opts.Commands == nil {
		return nil
	}
	return s.opts.Commands()
}

// Truncate shortens line to at most max grapheme clusters. A max below one
// leaves the line unchanged.
func Truncate(line string, max int) string {
	if max < 1 || len(line) <= max {
		return line
	}
	g := uniseg.NewGraphemes(line)
	for n := 0; g.Next(); n++ {
		if n == max {
			from, _ := g.Positions()
			return line[:from]
		}
	}
	return line
}
