package lineio

import (
	"io"
	"os"
	"strings"
	"testing"

	"github.com/joeycumines/go-prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pipeSession(t *testing.T, input string, opts Options) (*Session, *strings.Builder) {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	go func() {
		_, _ = io.WriteString(w, input)
		_ = w.Close()
	}()
	out := &strings.Builder{}
	opts.In = r
	opts.Out = out
	return NewSession(opts), out
}

func TestEngineSingleton(t *testing.T) {
	first := NewSession(Options{})
	require.NoError(t, first.Open())
	require.NoError(t, first.Open(), "reopening the same session is allowed")

	second := NewSession(Options{})
	assert.ErrorIs(t, second.Open(), ErrEngineBusy)

	require.NoError(t, first.Close())
	require.NoError(t, second.Open())
	require.NoError(t, second.Close())
}

func TestAcquireLineDumb(t *testing.T) {
	t.Parallel()
	s, out := pipeSession(t, "help\r\n\n   \nls -l /data", Options{})
	require.True(t, s.Dumb(), "sessions without the line editor start dumb")

	type result struct {
		line string
		ok   bool
	}
	var got []result
	for i := 0; i < 4; i++ {
		line, ok, err := s.AcquireLine("> ")
		require.NoError(t, err)
		got = append(got, result{line, ok})
	}
	assert.Equal(t, []result{
		{"help", true},
		{"", false},
		{"", false},
		{"ls -l /data", true},
	}, got)

	_, ok, err := s.AcquireLine("> ")
	assert.False(t, ok)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, strings.Repeat("> ", 5), out.String())
}

func TestAcquireLineTruncates(t *testing.T) {
	t.Parallel()
	s, _ := pipeSession(t, "abcdef\n", Options{MaxLineLength: 4})
	line, ok, err := s.AcquireLine("")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abcd", line)
}

func TestProbeDisabled(t *testing.T) {
	t.Parallel()
	s, out := pipeSession(t, "", Options{LineEditor: false})
	assert.False(t, s.Probe())
	assert.True(t, s.Dumb())
	assert.Empty(t, out.String())
}

func TestProbeNotATerminal(t *testing.T) {
	t.Parallel()
	s, out := pipeSession(t, "", Options{LineEditor: true})
	assert.False(t, s.Probe())
	assert.True(t, s.Dumb())
	assert.Equal(t, DumbModeWarning, out.String())
}

func TestTruncate(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 0, "hello"},
		{"hello", 10, "hello"},
		{"hello", 3, "hel"},
		{"cafés", 4, "café"},
		{"🇳🇿🇦🇺", 1, "🇳🇿"},
	} {
		assert.Equal(t, tc.want, Truncate(tc.in, tc.max), "Truncate(%q, %d)", tc.in, tc.max)
	}
}

func TestSuggest(t *testing.T) {
	t.Parallel()
	s := NewSession(Options{Commands: func() []Candidate {
		return []Candidate{
			{Text: "help", Description: "Show help"},
			{Text: "history", Description: "Show history"},
			{Text: "ls", Description: "List directory"},
		}
	}})

	got, start, end := s.suggest("h")
	assert.Equal(t, []prompt.Suggest{
		{Text: "help", Description: "Show help"},
		{Text: "history", Description: "Show history"},
	}, got)
	assert.Equal(t, 0, start)
	assert.Equal(t, 1, end)

	got, start, end = s.suggest("  l")
	require.Len(t, got, 1)
	assert.Equal(t, "ls", got[0].Text)
	assert.Equal(t, 2, start)
	assert.Equal(t, 3, end)

	got, _, _ = s.suggest("ls h")
	assert.Empty(t, got)
	got, _, _ = s.suggest("ls ")
	assert.Empty(t, got)
}
