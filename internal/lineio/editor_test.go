package lineio

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(in *lineInput, size int) []string {
	var chunks []string
	p := make([]byte, size)
	for in.buffered() {
		n, _ := in.take(p)
		if n > 0 {
			chunks = append(chunks, string(p[:n]))
		}
	}
	return chunks
}

func TestLineInputTake(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct {
		name  string
		input string
		want  []string
	}{
		{"plain", "abc", []string{"abc"}},
		{"cr", "help\r", []string{"help", "\r"}},
		{"lf", "help\n", []string{"help", "\n"}},
		{"crlf", "help\r\nls\r\n", []string{"help", "\r", "ls", "\r"}},
		{"two lines", "help\rls\r", []string{"help", "\r", "ls", "\r"}},
		{"empty lines", "\r\r", []string{"\r", "\r"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var in lineInput
			in.fill([]byte(tc.input))
			assert.Equal(t, tc.want, drain(&in, 64))
		})
	}
}

func TestLineInputTakeTerminated(t *testing.T) {
	t.Parallel()
	var in lineInput
	in.fill([]byte("ab\rcd"))
	p := make([]byte, 8)

	n, terminated := in.take(p)
	assert.Equal(t, "ab", string(p[:n]))
	assert.False(t, terminated)

	n, terminated = in.take(p)
	assert.Equal(t, "\r", string(p[:n]))
	assert.True(t, terminated)

	n, terminated = in.take(p)
	assert.Equal(t, "cd", string(p[:n]))
	assert.False(t, terminated)
	assert.False(t, in.buffered())
}

func TestLineInputSplitCRLF(t *testing.T) {
	t.Parallel()
	var in lineInput
	p := make([]byte, 8)
	in.fill([]byte("ls\r"))
	assert.Equal(t, []string{"ls", "\r"}, drain(&in, 8))

	// The LF of the pair arrives with the next read.
	in.fill([]byte("\npwd"))
	n, terminated := in.take(p)
	assert.Equal(t, "pwd", string(p[:n]))
	assert.False(t, terminated)

	// A lone LF later on is a line of its own.
	in.fill([]byte("\n"))
	n, terminated = in.take(p)
	assert.Equal(t, "\n", string(p[:n]))
	assert.True(t, terminated)
}

func TestLineInputSmallBuffer(t *testing.T) {
	t.Parallel()
	var in lineInput
	in.fill([]byte("abcdef\r"))
	assert.Equal(t, []string{"ab", "cd", "ef", "\r"}, drain(&in, 2))
}

func TestEditResult(t *testing.T) {
	t.Parallel()
	line, err := editResult("help\r\n", true, -1, nil)
	require.NoError(t, err)
	assert.Equal(t, "help", line)

	// An executed line wins over a later read failure.
	line, err = editResult("help", true, -1, io.EOF)
	require.NoError(t, err)
	assert.Equal(t, "help", line)

	line, err = editResult("", false, -1, nil)
	require.NoError(t, err)
	assert.Empty(t, line)

	_, err = editResult("", false, -1, io.EOF)
	assert.ErrorIs(t, err, io.EOF)

	boom := errors.New("boom")
	_, err = editResult("", false, -1, boom)
	assert.ErrorIs(t, err, boom)

	for _, code := range []int{0, 1} {
		_, err = editResult("", false, code, nil)
		assert.ErrorIs(t, err, ErrInterrupted)
		assert.ErrorIs(t, err, io.EOF)
	}
}
