//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package lineio

import (
	"errors"
	"io"
	"os"
	"time"

	"github.com/joeycumines/go-prompt"
)

type promptReader struct{}

func newPromptReader(*os.File, *lineInput) *promptReader { return &promptReader{} }

func (r *promptReader) Open() error              { return nil }
func (r *promptReader) Close() error             { return nil }
func (r *promptReader) Read([]byte) (int, error) { return 0, io.EOF }
func (r *promptReader) Err() error               { return io.EOF }

func (r *promptReader) GetWinSize() *prompt.WinSize {
	return &prompt.WinSize{Row: prompt.DefRowCount, Col: prompt.DefColCount}
}

func probeTerminal(*os.File, io.Writer, time.Duration) error {
	return errors.New("terminal probe not supported on this platform")
}
