package history

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileBackend stores one entry per line in a plain text file. Every save
// rewrites the whole file through a temporary file and a rename, so a crash
// leaves either the old or the new history.
type FileBackend struct {
	path string
}

// NewFileBackend creates a backend for path. The file is created on the
// first save.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Path returns the history file location.
func (b *FileBackend) Path() string {
	return b.path
}

// Load reads the file, skipping blank lines. A missing file is empty history.
// Store.Append never produces entries the format cannot hold.
func (b *FileBackend) Load() ([]string, error) {
	content, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var entries []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) != "" {
			entries = append(entries, line)
		}
	}
	return entries, nil
}

// Save replaces the file contents with entries.
func (b *FileBackend) Save(entries []string) error {
	var content strings.Builder
	for _, e := range entries {
		content.WriteString(e)
		content.WriteByte('\n')
	}

	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(b.path)+".tmp*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(content.String()); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(0644); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), b.path)
}
