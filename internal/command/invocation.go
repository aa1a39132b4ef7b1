package command

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"
)

// ParseState is the argument cursor shared between the command facility and
// the handler being run. It outlives a single line, so the console resets it
// after every dispatch; a stale cursor would make the next command skip or
// repeat arguments.
type ParseState struct {
	// Argv is the tokenized line, command name included.
	Argv []string
	// Optind indexes the next unconsumed element of Argv.
	Optind int
}

// Reset rewinds the cursor.
func (s *ParseState) Reset() {
	s.Argv = nil
	s.Optind = 0
}

// IsReset reports whether the cursor is rewound.
func (s *ParseState) IsReset() bool {
	return s.Argv == nil && s.Optind == 0
}

// Invocation carries everything a command needs for one execution.
type Invocation struct {
	Context context.Context
	Name    string
	Flags   *flag.FlagSet
	Stdout  io.Writer
	Stderr  io.Writer

	state *ParseState
}

// Args returns the positional arguments not yet consumed.
func (inv *Invocation) Args() []string {
	if inv.state.Optind >= len(inv.state.Argv) {
		return nil
	}
	return inv.state.Argv[inv.state.Optind:]
}

// NArg is len(inv.Args()).
func (inv *Invocation) NArg() int {
	return len(inv.Args())
}

// Next consumes one positional argument.
func (inv *Invocation) Next() (string, bool) {
	if inv.state.Optind >= len(inv.state.Argv) {
		return "", false
	}
	arg := inv.state.Argv[inv.state.Optind]
	inv.state.Optind++
	return arg, true
}

// BoolFlag returns the value of a boolean flag declared in SetupFlags.
func (inv *Invocation) BoolFlag(name string) bool {
	v, _ := inv.flagValue(name).(bool)
	return v
}

// IntFlag returns the value of an int flag declared in SetupFlags.
func (inv *Invocation) IntFlag(name string) int {
	v, _ := inv.flagValue(name).(int)
	return v
}

// StringFlag returns the value of a string flag declared in SetupFlags.
func (inv *Invocation) StringFlag(name string) string {
	v, _ := inv.flagValue(name).(string)
	return v
}

// DurationFlag returns the value of a duration flag declared in SetupFlags.
func (inv *Invocation) DurationFlag(name string) time.Duration {
	v, _ := inv.flagValue(name).(time.Duration)
	return v
}

func (inv *Invocation) flagValue(name string) any {
	if inv.Flags == nil {
		return nil
	}
	f := inv.Flags.Lookup(name)
	if f == nil {
		return nil
	}
	if g, ok := f.Value.(flag.Getter); ok {
		return g.Get()
	}
	return nil
}

// Failf writes an error line to Stderr and returns status 1.
func (inv *Invocation) Failf(format string, args ...any) int {
	_, _ = fmt.Fprintf(inv.Stderr, "%s: %s\n", inv.Name, fmt.Sprintf(format, args...))
	return 1
}
