// Package vfs exposes a host directory as the console's filesystem. Paths are
// virtual: "/" is the root directory, and the working path is tracked per
// instance rather than through the process working directory, so that
// filesystem commands and scripts cannot escape the root.
package vfs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var (
	// ErrNotDir is returned when a directory operation targets a file.
	ErrNotDir = errors.New("not a directory")
	// ErrIsDir is returned when a file operation targets a directory.
	ErrIsDir = errors.New("is a directory")
	// ErrInUse is returned when removing the working path or one of its
	// parents.
	ErrInUse = errors.New("directory is in use")
	// ErrSameFile is returned when a copy would overwrite its own source.
	ErrSameFile = errors.New("source and destination are the same file")
)

// FS is a rooted filesystem with a working path.
// It is not safe for concurrent use; the console owns it exclusively.
type FS struct {
	root *os.Root
	dir  string
	cwd  string
}

// Open roots a new FS at dir, creating the directory if needed.
func Open(dir string) (*FS, error) {
	if dir == "" {
		return nil, errors.New("vfs: empty root directory")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("vfs: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("vfs: create root: %w", err)
	}
	root, err := os.OpenRoot(abs)
	if err != nil {
		return nil, fmt.Errorf("vfs: open root: %w", err)
	}
	return &FS{root: root, dir: abs, cwd: "/"}, nil
}

// Close releases the root directory handle.
func (f *FS) Close() error {
	return f.root.Close()
}

// Root returns the host directory backing "/".
func (f *FS) Root() string {
	return f.dir
}

// Getwd returns the current working path.
func (f *FS) Getwd() string {
	return f.cwd
}

// Chdir changes the working path. The target must be an existing directory.
func (f *FS) Chdir(p string) error {
	abs := f.Abs(p)
	info, err := f.root.Stat(rel(abs))
	if err != nil {
		return pathError("chdir", abs, err)
	}
	if !info.IsDir() {
		return pathError("chdir", abs, ErrNotDir)
	}
	f.cwd = abs
	return nil
}

// Abs resolves p against the working path, returning a clean absolute
// virtual path. ".." never climbs above "/".
func (f *FS) Abs(p string) string {
	if p == "" {
		return f.cwd
	}
	if !strings.HasPrefix(p, "/") {
		p = path.Join(f.cwd, p)
	}
	return path.Clean("/" + p)
}

// HostPath maps a virtual path onto the host filesystem, for handing files
// to external programs such as an editor.
func (f *FS) HostPath(p string) string {
	return filepath.Join(f.dir, filepath.FromSlash(rel(f.Abs(p))))
}

// Stat describes the named file.
func (f *FS) Stat(p string) (fs.FileInfo, error) {
	abs := f.Abs(p)
	info, err := f.root.Stat(rel(abs))
	if err != nil {
		return nil, pathError("stat", abs, err)
	}
	return info, nil
}

// Exists reports whether the named file exists.
func (f *FS) Exists(p string) bool {
	_, err := f.Stat(p)
	return err == nil
}

// ReadDir lists a directory, sorted by name.
func (f *FS) ReadDir(p string) ([]fs.DirEntry, error) {
	abs := f.Abs(p)
	entries, err := fs.ReadDir(f.root.FS(), rel(abs))
	if err != nil {
		return nil, pathError("readdir", abs, err)
	}
	return entries, nil
}

// ReadFile returns the contents of the named file.
func (f *FS) ReadFile(p string) ([]byte, error) {
	abs := f.Abs(p)
	data, err := f.root.ReadFile(rel(abs))
	if err != nil {
		return nil, pathError("read", abs, err)
	}
	return data, nil
}

// WriteFile replaces the contents of the named file.
func (f *FS) WriteFile(p string, data []byte) error {
	abs := f.Abs(p)
	return pathError("write", abs, f.root.WriteFile(rel(abs), data, 0644))
}

// Mkdir creates a directory and any missing parents.
func (f *FS) Mkdir(p string) error {
	abs := f.Abs(p)
	return pathError("mkdir", abs, f.root.MkdirAll(rel(abs), 0755))
}

// Rename moves src to dst. When dst is an existing directory, src is moved
// into it.
func (f *FS) Rename(src, dst string) error {
	from, to := f.Abs(src), f.into(src, dst)
	if from == "/" {
		return pathError("rename", from, errors.New("cannot move the root directory"))
	}
	return pathError("rename", from, f.root.Rename(rel(from), rel(to)))
}

// Copy copies the regular file src to dst. When dst is an existing
// directory, the copy is placed inside it.
func (f *FS) Copy(src, dst string) error {
	from, to := f.Abs(src), f.into(src, dst)
	info, err := f.root.Stat(rel(from))
	if err != nil {
		return pathError("copy", from, err)
	}
	if info.IsDir() {
		return pathError("copy", from, ErrIsDir)
	}
	if to == from {
		return pathError("copy", to, ErrSameFile)
	}
	if dst, err := f.root.Stat(rel(to)); err == nil && os.SameFile(info, dst) {
		return pathError("copy", to, ErrSameFile)
	}

	in, err := f.root.Open(rel(from))
	if err != nil {
		return pathError("copy", from, err)
	}
	defer in.Close()

	out, err := f.root.OpenFile(rel(to), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return pathError("copy", to, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return pathError("copy", to, err)
	}
	return pathError("copy", to, out.Close())
}

// Remove deletes a file. Directories are rejected; use RemoveDir.
func (f *FS) Remove(p string) error {
	abs := f.Abs(p)
	info, err := f.root.Lstat(rel(abs))
	if err != nil {
		return pathError("remove", abs, err)
	}
	if info.IsDir() {
		return pathError("remove", abs, ErrIsDir)
	}
	return pathError("remove", abs, f.root.Remove(rel(abs)))
}

// RemoveDir deletes an empty directory. The root and the current working
// path cannot be removed.
func (f *FS) RemoveDir(p string) error {
	abs := f.Abs(p)
	if abs == "/" || abs == f.cwd || strings.HasPrefix(f.cwd, abs+"/") {
		return pathError("rmdir", abs, ErrInUse)
	}
	info, err := f.root.Lstat(rel(abs))
	if err != nil {
		return pathError("rmdir", abs, err)
	}
	if !info.IsDir() {
		return pathError("rmdir", abs, ErrNotDir)
	}
	return pathError("rmdir", abs, f.root.Remove(rel(abs)))
}

// into resolves the destination of a move or copy.
func (f *FS) into(src, dst string) string {
	to := f.Abs(dst)
	if info, err := f.root.Stat(rel(to)); err == nil && info.IsDir() {
		to = path.Join(to, path.Base(f.Abs(src)))
	}
	return to
}

// rel converts a clean absolute virtual path into a name for os.Root.
func rel(abs string) string {
	r := strings.TrimPrefix(abs, "/")
	if r == "" {
		return "."
	}
	return r
}

// pathError reports err against the virtual path rather than the name
// handed to os.Root. A nil err stays nil.
func pathError(op, abs string, err error) error {
	if err == nil {
		return nil
	}
	var pe *fs.PathError
	if errors.As(err, &pe) {
		err = pe.Err
	}
	return &fs.PathError{Op: op, Path: abs, Err: err}
}
