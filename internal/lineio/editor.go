package lineio

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/joeycumines/go-prompt"
	istrings "github.com/joeycumines/go-prompt/strings"
	"github.com/joeycumines/ttyconsole/internal/argv"
)

// ErrInterrupted is returned by AcquireLine when a termination signal stops
// the line editor. It matches io.EOF.
var ErrInterrupted = fmt.Errorf("lineio: line editor stopped by signal: %w", io.EOF)

// Control bytes fed to the line editor when input ends.
const (
	ctrlC = 0x03
	ctrlD = 0x04
)

// readEdited runs one line-editor pass. The editor is rebuilt for every
// line so history navigation reflects entries appended since the last one.
func (s *Session) readEdited(prefix string) (string, error) {
	var (
		line     string
		executed bool
	)
	reader := newPromptReader(s.in, &s.input)
	p := prompt.New(
		func(in string) {
			line = in
			executed = true
		},
		prompt.WithPrefix(prefix),
		prompt.WithHistory(s.history()),
		prompt.WithCompleter(s.complete),
		prompt.WithExitChecker(func(in string, breakline bool) bool {
			return breakline
		}),
		prompt.WithReader(reader),
		prompt.WithWriter(newVT100Writer(s.out)),
	)
	return editResult(line, executed, p.RunNoExit(), reader.Err())
}

// editResult maps the outcome of an editor pass. code is the editor's exit
// code, non-negative only when a signal stopped it.
func editResult(line string, executed bool, code int, readErr error) (string, error) {
	if executed {
		return strings.TrimRight(line, "\r\n"), nil
	}
	if readErr != nil {
		return "", readErr
	}
	if code >= 0 {
		return "", ErrInterrupted
	}
	return "", nil
}

// lineInput holds transport bytes read past the end of a line. The editor
// treats a multi-byte chunk as pasted text, so a terminator is only honored
// when it arrives on its own.
type lineInput struct {
	pending []byte
	// afterCR drops the LF of a CR LF pair split across reads.
	afterCR bool
}

func (in *lineInput) buffered() bool {
	return len(in.pending) > 0
}

func (in *lineInput) fill(b []byte) {
	in.pending = append(in.pending, b...)
}

// take copies pending input into p, stopping before a line terminator so
// that the terminator is delivered alone. terminated reports that p holds
// just the terminator.
func (in *lineInput) take(p []byte) (n int, terminated bool) {
	if in.afterCR && len(in.pending) > 0 {
		if in.pending[0] == '\n' {
			in.pending = in.pending[1:]
		}
		in.afterCR = false
	}
	if len(in.pending) == 0 || len(p) == 0 {
		return 0, false
	}
	i := bytes.IndexAny(in.pending, "\r\n")
	switch {
	case i < 0:
		n = copy(p, in.pending)
	case i > 0:
		n = copy(p, in.pending[:i])
	default:
		p[0] = in.pending[0]
		drop := 1
		if p[0] == '\r' {
			if len(in.pending) > 1 && in.pending[1] == '\n' {
				drop = 2
			} else {
				in.afterCR = true
			}
		}
		in.pending = in.pending[drop:]
		return 1, true
	}
	in.pending = in.pending[n:]
	return n, terminated
}

// complete offers command names for the first word of the line.
func (s *Session) complete(d prompt.Document) ([]prompt.Suggest, istrings.RuneNumber, istrings.RuneNumber) {
	suggestions, start, end := s.suggest(d.TextBeforeCursor())
	return suggestions, istrings.RuneNumber(start), istrings.RuneNumber(end)
}

func (s *Session) suggest(before string) ([]prompt.Suggest, int, int) {
	cur := argv.Current(before)
	if words, _ := argv.Words(before); len(words) > 1 || (len(words) == 1 && words[0].Start != cur.Start) {
		return nil, cur.Start, cur.End
	}
	var suggestions []prompt.Suggest
	for _, c := range s.commands() {
		if strings.HasPrefix(c.Text, cur.Text) {
			suggestions = append(suggestions, prompt.Suggest{Text: c.Text, Description: c.Description})
		}
	}
	return suggestions, cur.Start, cur.End
}

// vt100Writer buffers editor output and emits VT100 control sequences on
// Flush. Colors are not rendered on the serial line.
type vt100Writer struct {
	mu  sync.Mutex
	out io.Writer
	buf bytes.Buffer
}

func newVT100Writer(out io.Writer) *vt100Writer {
	return &vt100Writer{out: out}
}

func (w *vt100Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	// Escape bytes typed by the user are shown, never interpreted.
	return w.buf.Write(bytes.ReplaceAll(p, []byte{0x1b}, []byte{'?'}))
}

func (w *vt100Writer) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

func (w *vt100Writer) WriteRaw(data []byte) {
	w.mu.Lock()
	w.buf.Write(data)
	w.mu.Unlock()
}

func (w *vt100Writer) WriteRawString(data string) {
	w.WriteRaw([]byte(data))
}

func (w *vt100Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := w.buf.WriteTo(w.out)
	return err
}

func (w *vt100Writer) EraseScreen()      { w.WriteRawString("\x1b[2J") }
func (w *vt100Writer) EraseUp()          { w.WriteRawString("\x1b[1J") }
func (w *vt100Writer) EraseDown()        { w.WriteRawString("\x1b[J") }
func (w *vt100Writer) EraseStartOfLine() { w.WriteRawString("\x1b[1K") }
func (w *vt100Writer) EraseEndOfLine()   { w.WriteRawString("\x1b[K") }
func (w *vt100Writer) EraseLine()        { w.WriteRawString("\x1b[2K") }
func (w *vt100Writer) ShowCursor()       { w.WriteRawString("\x1b[?25h") }
func (w *vt100Writer) HideCursor()       { w.WriteRawString("\x1b[?25l") }
func (w *vt100Writer) AskForCPR()        { w.WriteRawString("\x1b[6n") }
func (w *vt100Writer) SaveCursor()       { w.WriteRawString("\x1b7") }
func (w *vt100Writer) UnSaveCursor()     { w.WriteRawString("\x1b8") }
func (w *vt100Writer) ScrollDown()       { w.WriteRawString("\x1bD") }
func (w *vt100Writer) ScrollUp()         { w.WriteRawString("\x1bM") }
func (w *vt100Writer) SetTitle(string)   {}
func (w *vt100Writer) ClearTitle()       {}

func (w *vt100Writer) CursorGoTo(row, col int) {
	if row == 0 && col == 0 {
		w.WriteRawString("\x1b[H")
		return
	}
	w.WriteRawString(fmt.Sprintf("\x1b[%d;%dH", row, col))
}

func (w *vt100Writer) CursorUp(n int)       { w.move(n, 'A', 'B') }
func (w *vt100Writer) CursorDown(n int)     { w.move(n, 'B', 'A') }
func (w *vt100Writer) CursorForward(n int)  { w.move(n, 'C', 'D') }
func (w *vt100Writer) CursorBackward(n int) { w.move(n, 'D', 'C') }

func (w *vt100Writer) move(n int, dir, opposite byte) {
	switch {
	case n == 0:
		return
	case n < 0:
		n, dir = -n, opposite
	}
	w.WriteRawString(fmt.Sprintf("\x1b[%d%c", n, dir))
}

func (w *vt100Writer) SetColor(fg, bg prompt.Color, bold bool) {
	if bold {
		w.WriteRawString("\x1b[0;1m")
		return
	}
	w.WriteRawString("\x1b[0m")
}

func (w *vt100Writer) SetDisplayAttributes(fg, bg prompt.Color, attrs ...prompt.DisplayAttribute) {
	w.WriteRawString("\x1b[0m")
}
