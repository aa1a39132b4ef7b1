package command

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/joeycumines/ttyconsole/internal/argv"
)

var (
	// ErrEmptyLine is returned by Run for a line with no words.
	ErrEmptyLine = errors.New("empty command line")
	// ErrNotFound is returned by Run when the first word names no command.
	ErrNotFound = errors.New("command not found")
)

// InternalError reports that the command facility failed to execute a line,
// as opposed to a command completing with a non-zero status.
type InternalError struct {
	Command string
	Err     error
}

func (e *InternalError) Error() string {
	if e.Command == "" {
		return e.Err.Error()
	}
	return e.Command + ": " + e.Err.Error()
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Runner executes command lines against a Registry.
type Runner struct {
	registry *Registry
	stdout   io.Writer
	stderr   io.Writer
}

// NewRunner creates a Runner writing command output to stdout and stderr.
func NewRunner(registry *Registry, stdout, stderr io.Writer) *Runner {
	return &Runner{registry: registry, stdout: stdout, stderr: stderr}
}

// Run tokenizes line, resolves the command and executes it. The returned
// status is only meaningful when err is nil. Flag errors are reported on
// stderr together with the usage and yield status 1; "-h" prints the usage
// and yields 0. state records the positional cursor for the handler; the
// caller owns resetting it.
func (r *Runner) Run(ctx context.Context, state *ParseState, line string) (int, error) {
	words, err := argv.Split(line)
	if err != nil {
		return 0, &InternalError{Err: fmt.Errorf("split line: %w", err)}
	}
	if len(words) == 0 {
		return 0, ErrEmptyLine
	}

	cmd, ok := r.registry.Lookup(words[0])
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, words[0])
	}

	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	cmd.SetupFlags(fs)

	if state == nil {
		state = &ParseState{}
	}
	state.Argv = words
	state.Optind = 1

	if err := fs.Parse(words[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			PrintUsage(r.stdout, cmd)
			return 0, nil
		}
		_, _ = fmt.Fprintf(r.stderr, "%s: %v\n", cmd.Name(), err)
		PrintUsage(r.stderr, cmd)
		return 1, nil
	}
	state.Optind = len(words) - fs.NArg()

	inv := &Invocation{
		Context: ctx,
		Name:    cmd.Name(),
		Flags:   fs,
		Stdout:  r.stdout,
		Stderr:  r.stderr,
		state:   state,
	}
	return r.execute(cmd, inv)
}

func (r *Runner) execute(cmd Command, inv *Invocation) (code int, err error) {
	defer func() {
		if p := recover(); p != nil {
			code, err = 0, &InternalError{Command: cmd.Name(), Err: fmt.Errorf("panic: %v", p)}
		}
	}()
	return cmd.Execute(inv), nil
}

// PrintUsage writes the usage line and flag defaults of cmd.
func PrintUsage(w io.Writer, cmd Command) {
	_, _ = fmt.Fprintf(w, "Usage: %s\n", cmd.Usage())

	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	buf := &bytes.Buffer{}
	fs.SetOutput(buf)
	cmd.SetupFlags(fs)
	fs.PrintDefaults()
	if buf.Len() > 0 {
		_, _ = fmt.Fprintln(w, "")
		_, _ = fmt.Fprintln(w, "Flags:")
		_, _ = fmt.Fprint(w, buf.String())
	}
}
