package command

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"text/tabwriter"

	"github.com/joeycumines/ttyconsole/internal/vfs"
)

// Editor edits a host file interactively.
type Editor func(ctx context.Context, path string) error

// ExecEditor returns an Editor running $VISUAL, $EDITOR, or the first of
// nano, vi and ed found on PATH, attached to the given streams.
func ExecEditor(stdin io.Reader, stdout, stderr io.Writer) Editor {
	return func(ctx context.Context, path string) error {
		editor := os.Getenv("VISUAL")
		if editor == "" {
			editor = os.Getenv("EDITOR")
		}
		if editor == "" {
			for _, candidate := range []string{"nano", "vi", "ed"} {
				if _, err := exec.LookPath(candidate); err == nil {
					editor = candidate
					break
				}
			}
		}
		if editor == "" {
			return errors.New("no editor found (set $EDITOR)")
		}
		cmd := exec.CommandContext(ctx, editor, path)
		cmd.Stdin = stdin
		cmd.Stdout = stdout
		cmd.Stderr = stderr
		return cmd.Run()
	}
}

// RegisterFSCommands registers the filesystem commands operating on fsys.
// edit is skipped when editor is nil.
func RegisterFSCommands(r *Registry, fsys *vfs.FS, editor Editor) {
	r.RegisterGroup(GroupFS,
		newLsCommand(fsys),
		newCdCommand(fsys),
		newPwdCommand(fsys),
		newMvCommand(fsys),
		newCpCommand(fsys),
		newRmCommand(fsys),
		newRmdirCommand(fsys),
		newCatCommand(fsys),
	)
	if editor != nil {
		r.RegisterGroup(GroupFS, newEditCommand(fsys, editor))
	}
}

func newLsCommand(fsys *vfs.FS) Command {
	return NewFunc(
		"ls",
		"List directory contents",
		"ls [-l] [path]",
		func(fs *flag.FlagSet) {
			fs.Bool("l", false, "long listing with size, mode and modification time")
		},
		func(inv *Invocation) int {
			target, _ := inv.Next()
			info, err := fsys.Stat(target)
			if err != nil {
				return inv.Failf("%v", err)
			}
			long := inv.BoolFlag("l")
			if !info.IsDir() {
				printEntry(inv.Stdout, info, long)
				return 0
			}

			entries, err := fsys.ReadDir(target)
			if err != nil {
				return inv.Failf("%v", err)
			}
			w := tabwriter.NewWriter(inv.Stdout, 0, 8, 2, ' ', 0)
			for _, e := range entries {
				fi, err := e.Info()
				if err != nil {
					continue
				}
				printEntry(w, fi, long)
			}
			_ = w.Flush()
			return 0
		},
	)
}

func printEntry(w io.Writer, fi os.FileInfo, long bool) {
	name := fi.Name()
	if fi.IsDir() {
		name += "/"
	}
	if !long {
		_, _ = fmt.Fprintln(w, name)
		return
	}
	_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", fi.Mode().String(), fi.Size(), fi.ModTime().Format("2006-01-02 15:04"), name)
}

func newCdCommand(fsys *vfs.FS) Command {
	return NewFunc(
		"cd",
		"Change the working directory",
		"cd [path]",
		nil,
		func(inv *Invocation) int {
			target, ok := inv.Next()
			if !ok {
				target = "/"
			}
			if err := fsys.Chdir(target); err != nil {
				return inv.Failf("%v", err)
			}
			return 0
		},
	)
}

func newPwdCommand(fsys *vfs.FS) Command {
	return NewFunc(
		"pwd",
		"Print the working directory",
		"pwd",
		nil,
		func(inv *Invocation) int {
			_, _ = fmt.Fprintln(inv.Stdout, fsys.Getwd())
			return 0
		},
	)
}

func newMvCommand(fsys *vfs.FS) Command {
	return NewFunc(
		"mv",
		"Move or rename a file",
		"mv source destination",
		nil,
		func(inv *Invocation) int {
			if inv.NArg() != 2 {
				return inv.Failf("expected source and destination")
			}
			args := inv.Args()
			if err := fsys.Rename(args[0], args[1]); err != nil {
				return inv.Failf("%v", err)
			}
			return 0
		},
	)
}

func newCpCommand(fsys *vfs.FS) Command {
	return NewFunc(
		"cp",
		"Copy a file",
		"cp source destination",
		nil,
		func(inv *Invocation) int {
			if inv.NArg() != 2 {
				return inv.Failf("expected source and destination")
			}
			args := inv.Args()
			if err := fsys.Copy(args[0], args[1]); err != nil {
				return inv.Failf("%v", err)
			}
			return 0
		},
	)
}

func newRmCommand(fsys *vfs.FS) Command {
	return NewFunc(
		"rm",
		"Remove files",
		"rm file...",
		nil,
		func(inv *Invocation) int {
			return eachArg(inv, fsys.Remove)
		},
	)
}

func newRmdirCommand(fsys *vfs.FS) Command {
	return NewFunc(
		"rmdir",
		"Remove empty directories",
		"rmdir directory...",
		nil,
		func(inv *Invocation) int {
			return eachArg(inv, fsys.RemoveDir)
		},
	)
}

func newCatCommand(fsys *vfs.FS) Command {
	return NewFunc(
		"cat",
		"Print file contents",
		"cat file...",
		nil,
		func(inv *Invocation) int {
			return eachArg(inv, func(p string) error {
				data, err := fsys.ReadFile(p)
				if err != nil {
					return err
				}
				_, err = inv.Stdout.Write(data)
				return err
			})
		},
	)
}

func newEditCommand(fsys *vfs.FS, editor Editor) Command {
	return NewFunc(
		"edit",
		"Edit a file in an external editor",
		"edit file",
		nil,
		func(inv *Invocation) int {
			target, ok := inv.Next()
			if !ok {
				return inv.Failf("missing file")
			}
			if info, err := fsys.Stat(target); err == nil && info.IsDir() {
				return inv.Failf("%s: %v", fsys.Abs(target), vfs.ErrIsDir)
			}
			if err := editor(inv.Context, fsys.HostPath(target)); err != nil {
				return inv.Failf("%v", err)
			}
			return 0
		},
	)
}

// eachArg applies fn to every remaining argument, reporting each failure.
func eachArg(inv *Invocation, fn func(string) error) int {
	if inv.NArg() == 0 {
		return inv.Failf("missing operand")
	}
	code := 0
	for {
		arg, ok := inv.Next()
		if !ok {
			return code
		}
		if err := fn(arg); err != nil {
			code = inv.Failf("%v", err)
		}
	}
}
