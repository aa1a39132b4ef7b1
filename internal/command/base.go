package command

import (
	"flag"
)

// Command represents a command that can be executed from the console.
// Commands are registered once and never mutated afterwards; per-invocation
// state lives in the Invocation.
type Command interface {
	// Name returns the command name, matched exactly against the first word
	// of an input line.
	Name() string

	// Description returns a short description of the command.
	Description() string

	// Usage returns the usage string for the command.
	Usage() string

	// SetupFlags declares the command's flags on a fresh FlagSet.
	SetupFlags(fs *flag.FlagSet)

	// Execute runs the command, returning its status code. Zero means
	// success.
	Execute(inv *Invocation) int
}

// BaseCommand provides a basic implementation that other commands can embed.
type BaseCommand struct {
	name        string
	description string
	usage       string
}

// NewBaseCommand creates a new BaseCommand.
func NewBaseCommand(name, description, usage string) *BaseCommand {
	return &BaseCommand{
		name:        name,
		description: description,
		usage:       usage,
	}
}

// Name returns the command name.
func (c *BaseCommand) Name() string {
	return c.name
}

// Description returns the command description.
func (c *BaseCommand) Description() string {
	return c.description
}

// Usage returns the command usage.
func (c *BaseCommand) Usage() string {
	return c.usage
}

// SetupFlags is a default implementation that does nothing.
func (c *BaseCommand) SetupFlags(fs *flag.FlagSet) {}

// HandlerFunc is the signature of a command body.
type HandlerFunc func(inv *Invocation) int

type funcCommand struct {
	*BaseCommand
	flags   func(fs *flag.FlagSet)
	handler HandlerFunc
}

// NewFunc builds a Command from a handler. flags may be nil.
func NewFunc(name, description, usage string, flags func(fs *flag.FlagSet), handler HandlerFunc) Command {
	return &funcCommand{
		BaseCommand: NewBaseCommand(name, description, usage),
		flags:       flags,
		handler:     handler,
	}
}

func (c *funcCommand) SetupFlags(fs *flag.FlagSet) {
	if c.flags != nil {
		c.flags(fs)
	}
}

func (c *funcCommand) Execute(inv *Invocation) int {
	return c.handler(inv)
}
