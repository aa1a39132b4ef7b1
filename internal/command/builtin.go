package command

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/joeycumines/ttyconsole/internal/logging"
)

// Help groups used by the Register* functions.
const (
	GroupCore    = "core"
	GroupSystem  = "system"
	GroupNetwork = "network"
	GroupFS      = "filesystem"
	GroupGPIO    = "gpio"
)

// ClearScreen erases the display and homes the cursor.
const ClearScreen = "\x1b[2J\x1b[H"

// HistorySource is the history view needed by the history command.
type HistorySource interface {
	Entries() []string
	Clear() error
}

// LogSource is the log view needed by the dmesg command.
type LogSource interface {
	Recent(n int) []logging.Entry
	Search(query string) []logging.Entry
}

// RegisterCoreCommands registers help, history, clear and dmesg.
// history and logs may be nil, in which case the matching command is skipped.
func RegisterCoreCommands(r *Registry, history HistorySource, logs LogSource) {
	r.RegisterGroup(GroupCore, NewHelpCommand(r))
	if history != nil {
		r.RegisterGroup(GroupCore, NewHistoryCommand(history))
	}
	r.RegisterGroup(GroupCore, NewClearCommand())
	if logs != nil {
		r.RegisterGroup(GroupCore, NewDmesgCommand(logs))
	}
}

// HelpCommand displays help information for commands.
type HelpCommand struct {
	*BaseCommand
	registry *Registry
}

// NewHelpCommand creates a new help command.
func NewHelpCommand(registry *Registry) *HelpCommand {
	return &HelpCommand{
		BaseCommand: NewBaseCommand(
			"help",
			"Display help information for commands",
			"help [command]",
		),
		registry: registry,
	}
}

// Execute displays help information.
func (c *HelpCommand) Execute(inv *Invocation) int {
	name, ok := inv.Next()
	if !ok {
		c.list(inv.Stdout)
		return 0
	}

	cmd, found := c.registry.Lookup(name)
	if !found {
		return inv.Failf("unknown command: %s", name)
	}
	_, _ = fmt.Fprintf(inv.Stdout, "Command: %s\n", cmd.Name())
	_, _ = fmt.Fprintf(inv.Stdout, "Description: %s\n", cmd.Description())
	PrintUsage(inv.Stdout, cmd)
	return 0
}

func (c *HelpCommand) list(out io.Writer) {
	title := cases.Title(language.English)
	groups, members := c.registry.Groups()

	w := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
	for i, g := range groups {
		if i > 0 {
			_, _ = fmt.Fprintln(w, "")
		}
		heading := "Other"
		if g != "" {
			heading = title.String(g)
		}
		_, _ = fmt.Fprintf(w, "%s commands:\n", heading)
		for _, name := range members[g] {
			if cmd, ok := c.registry.Lookup(name); ok {
				_, _ = fmt.Fprintf(w, "  %s\t%s\n", cmd.Usage(), cmd.Description())
			}
		}
	}
	_ = w.Flush()
	_, _ = fmt.Fprintln(out, "")
	_, _ = fmt.Fprintln(out, "Use 'help <command>' for flags. Any other input is run as JavaScript.")
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(history HistorySource) Command {
	return NewFunc(
		"history",
		"Show or clear the command history",
		"history [-c] [count]",
		func(fs *flag.FlagSet) {
			fs.Bool("c", false, "clear the history")
		},
		func(inv *Invocation) int {
			if inv.BoolFlag("c") {
				if err := history.Clear(); err != nil {
					return inv.Failf("%v", err)
				}
				return 0
			}

			entries := history.Entries()
			first := 0
			if arg, ok := inv.Next(); ok {
				n, err := strconv.Atoi(arg)
				if err != nil || n < 0 {
					return inv.Failf("invalid count %q", arg)
				}
				first = max(len(entries)-n, 0)
			}
			for i := first; i < len(entries); i++ {
				_, _ = fmt.Fprintf(inv.Stdout, "%5d  %s\n", i+1, entries[i])
			}
			return 0
		},
	)
}

// NewClearCommand creates the clear command.
func NewClearCommand() Command {
	return NewFunc(
		"clear",
		"Clear the terminal screen",
		"clear",
		nil,
		func(inv *Invocation) int {
			_, _ = io.WriteString(inv.Stdout, ClearScreen)
			return 0
		},
	)
}

// NewDmesgCommand creates the dmesg command.
func NewDmesgCommand(logs LogSource) Command {
	return NewFunc(
		"dmesg",
		"Show recent log entries",
		"dmesg [-n count] [-s text]",
		func(fs *flag.FlagSet) {
			fs.Int("n", 20, "number of entries to show (0 for all)")
			fs.String("s", "", "only show entries containing `text`")
		},
		func(inv *Invocation) int {
			var entries []logging.Entry
			if q := inv.StringFlag("s"); q != "" {
				entries = logs.Search(q)
				if n := inv.IntFlag("n"); n > 0 && n < len(entries) {
					entries = entries[len(entries)-n:]
				}
			} else {
				entries = logs.Recent(inv.IntFlag("n"))
			}
			for _, e := range entries {
				_, _ = fmt.Fprintln(inv.Stdout, e.String())
			}
			return 0
		},
	)
}
