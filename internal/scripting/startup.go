package scripting

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
)

// Startup script banners.
const (
	StartupBanner = "\r\nStartup script found, running...\r\n" +
		"---------------------------------------\r\n"
	StartupFooter = "\r\n---------------------------------------\r\n"
)

// FileReader reads files from the console filesystem.
type FileReader interface {
	ReadFile(name string) ([]byte, error)
}

// RunStartupScript executes the file at path once, between banners, when it
// exists. It reports whether the script ran. Script errors are written to w;
// only failures to read the file are returned.
func RunStartupScript(ctx context.Context, w io.Writer, files FileReader, path string, in *Interpreter, verbose bool) (bool, error) {
	if path == "" {
		return false, nil
	}
	source, err := files.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("scripting: read startup script: %w", err)
	}

	_, _ = io.WriteString(w, StartupBanner)
	if err := in.Execute(ctx, path, string(source)); err != nil {
		ReportError(w, err, verbose)
	}
	_, _ = io.WriteString(w, StartupFooter)
	return true, nil
}
