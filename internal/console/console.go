// Package console runs the interactive session loop: it binds the serial
// transport, starts the script interpreter, and then reads, records,
// classifies and executes input lines until the transport closes or the
// console is stopped.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/joeycumines/ttyconsole/internal/argv"
	"github.com/joeycumines/ttyconsole/internal/command"
	"github.com/joeycumines/ttyconsole/internal/config"
	"github.com/joeycumines/ttyconsole/internal/history"
	"github.com/joeycumines/ttyconsole/internal/promptfmt"
	"github.com/joeycumines/ttyconsole/internal/scripting"
	"github.com/joeycumines/ttyconsole/internal/serial"
)

// Welcome is printed once the transport and the interpreter are ready.
const Welcome = "\r\n" +
	"Welcome to ttyconsole.\r\n" +
	"Type 'help' to get the list of commands.\r\n" +
	"Use UP/DOWN arrows to navigate through command history.\r\n"

// ScriptName names interactive lines in script errors.
const ScriptName = "<console>"

var (
	// ErrRestart is returned by Run after the restart command.
	ErrRestart = errors.New("console: restart requested")
	// ErrRunning is returned by Run when the console is already running.
	ErrRunning = errors.New("console: already running")
)

// LineSource is the line I/O session the console reads from.
// *lineio.Session implements it.
type LineSource interface {
	Bind(p serial.Port, pins serial.PinReserver) error
	Probe() bool
	AcquireLine(prefix string) (line string, ok bool, err error)
	Writer() io.Writer
}

// Files is the console filesystem, which supplies the prompt path and the
// startup script.
type Files interface {
	promptfmt.WorkDirer
	scripting.FileReader
}

// Deps are the collaborators of a Console.
type Deps struct {
	Registry *command.Registry
	Lines    LineSource
	Files    Files
	// History records every non-empty line. Optional.
	History *history.Store
	// Pins receives serial pin reservations. Optional.
	Pins serial.PinReserver
	// NewInterpreter creates the interpreter once the transport is bound.
	// Defaults to a bare scripting.New writing to out.
	NewInterpreter func(out io.Writer, logger *slog.Logger) *scripting.Interpreter
	Logger         *slog.Logger
}

// Console is one interactive session.
type Console struct {
	settings config.Settings
	deps     Deps
	port     serial.Port
	policy   Policy
	id       string
	logger   *slog.Logger

	// state is the command argument cursor, rewound after every line.
	state command.ParseState

	running  atomic.Bool
	restart  atomic.Bool
	shutdown atomic.Bool
}

// New validates s and returns a console ready to Run. Transport selection
// happens here, so a bad channel is reported before anything is bound.
func New(s config.Settings, deps Deps) (*Console, error) {
	switch {
	case deps.Registry == nil:
		return nil, errors.New("console: registry is required")
	case deps.Lines == nil:
		return nil, errors.New("console: line source is required")
	case deps.Files == nil:
		return nil, errors.New("console: filesystem is required")
	}

	port, err := serial.Select(serial.Config{
		Channel:       s.SerialChannel,
		Baud:          s.SerialBaud,
		RxPin:         s.SerialRxPin,
		TxPin:         s.SerialTxPin,
		DevicePattern: s.SerialDevicePattern,
		Channels:      s.SerialChannels,
	})
	if err != nil {
		return nil, err
	}
	policy, err := NewPolicy(s.Dispatch, s.AllowList, deps.Registry)
	if err != nil {
		return nil, err
	}
	if s.Prompt == "" {
		s.Prompt = promptfmt.DefaultTemplate
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	id := uuid.NewString()
	return &Console{
		settings: s,
		deps:     deps,
		port:     port,
		policy:   policy,
		id:       id,
		logger:   logger.With(slog.String("session", id)),
	}, nil
}

// ID returns the session id attached to every log record.
func (c *Console) ID() string {
	return c.id
}

// Port returns the selected transport.
func (c *Console) Port() serial.Port {
	return c.port
}

// Restart asks the loop to return ErrRestart after the current line.
func (c *Console) Restart() {
	c.restart.Store(true)
}

// Shutdown asks the loop to stop before reading the next line. It is safe
// to call from any goroutine.
func (c *Console) Shutdown() {
	c.shutdown.Store(true)
}

// Run executes the session in the calling goroutine. It returns nil when
// the transport closes or Shutdown is called, the context cause when ctx
// ends, and ErrRestart after a restart request. The interpreter is
// destroyed on every path.
func (c *Console) Run(ctx context.Context) (err error) {
	if !c.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer c.running.Store(false)

	if err := c.deps.Lines.Bind(c.port, c.deps.Pins); err != nil {
		return fmt.Errorf("console: bind %s: %w", c.port, err)
	}
	out := c.deps.Lines.Writer()

	interp := c.newInterpreter(out)
	defer func() {
		_ = interp.Close()
		c.logger.Info("console stopped", slog.Any("reason", err))
	}()
	c.logger.Info("console started", slog.String("port", c.port.String()))

	if ran, err := scripting.RunStartupScript(ctx, out, c.deps.Files, c.settings.StartupScript, interp, c.settings.VerboseErrors); err != nil {
		c.logger.Warn("startup script not run", slog.Any("error", err))
	} else if ran {
		c.logger.Info("startup script executed", slog.String("path", c.settings.StartupScript))
	}

	_, _ = io.WriteString(out, Welcome)
	c.deps.Lines.Probe()

	runner := command.NewRunner(c.deps.Registry, out, out)
	for {
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}
		if c.shutdown.Load() {
			return nil
		}

		prompt := promptfmt.Render(c.settings.Prompt, c.deps.Files)
		line, ok, err := c.deps.Lines.AcquireLine(prompt)
		if errors.Is(err, io.EOF) {
			c.logger.Info("transport closed")
			return nil
		}
		if err != nil {
			return fmt.Errorf("console: read line: %w", err)
		}
		if !ok {
			c.logger.Debug("empty line")
			continue
		}
		c.logger.Debug("line received", slog.String("line", line))

		if c.deps.History != nil {
			if err := c.deps.History.Append(line); err != nil {
				c.logger.Warn("history not persisted", slog.Any("error", err))
			}
		}

		c.dispatch(ctx, runner, interp, out, argv.Interpolate(line, c.settings.LookupEnv))

		if c.restart.Load() {
			return ErrRestart
		}
	}
}

func (c *Console) newInterpreter(out io.Writer) *scripting.Interpreter {
	if c.deps.NewInterpreter != nil {
		return c.deps.NewInterpreter(out, c.logger)
	}
	return scripting.New(scripting.Options{
		Stdout:  out,
		Logger:  c.logger,
		Timeout: c.settings.ScriptTimeout,
	})
}

// dispatch runs one interpolated line and reports the outcome on out.
func (c *Console) dispatch(ctx context.Context, runner *command.Runner, interp *scripting.Interpreter, out io.Writer, line string) {
	if c.policy.Classify(line) == Unmatched {
		err := interp.Execute(ctx, ScriptName, line)
		c.state.Reset()
		scripting.ReportError(out, err, c.settings.VerboseErrors)
		return
	}
	code, err := runner.Run(ctx, &c.state, line)
	c.state.Reset()
	if err != nil {
		c.logger.Debug("command failed", slog.String("line", line), slog.Any("error", err))
	}
	Report(out, code, err)
}

// Report writes the outcome of a command line.
func Report(w io.Writer, code int, err error) {
	switch {
	case errors.Is(err, command.ErrNotFound):
		_, _ = io.WriteString(w, "Unrecognized command\n")
	case errors.Is(err, command.ErrEmptyLine):
	case err != nil:
		_, _ = fmt.Fprintf(w, "Internal error: %v\n", err)
	case code != 0:
		_, _ = fmt.Fprintf(w, "Command returned non-zero error code: 0x%x (%d)\n", code, code)
	}
}

// Handle tracks a console started with Start.
type Handle struct {
	done chan struct{}
	err  error
}

// Start runs the console on its own goroutine.
func (c *Console) Start(ctx context.Context) *Handle {
	h := &Handle{done: make(chan struct{})}
	go func() {
		defer close(h.done)
		h.err = c.Run(ctx)
	}()
	return h
}

// Wait blocks until the console stops and returns the Run result.
func (h *Handle) Wait() error {
	<-h.done
	return h.err
}

// Done is closed when the console stops.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}
