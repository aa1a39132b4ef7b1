package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dop251/goja_nodejs/require"
	"github.com/joeycumines/ttyconsole/internal/builtin"
	"github.com/joeycumines/ttyconsole/internal/command"
	"github.com/joeycumines/ttyconsole/internal/config"
	"github.com/joeycumines/ttyconsole/internal/console"
	"github.com/joeycumines/ttyconsole/internal/gpio"
	"github.com/joeycumines/ttyconsole/internal/history"
	"github.com/joeycumines/ttyconsole/internal/lineio"
	"github.com/joeycumines/ttyconsole/internal/logging"
	"github.com/joeycumines/ttyconsole/internal/scripting"
	"github.com/joeycumines/ttyconsole/internal/vfs"
)

// run serves consoles until one stops for a reason other than a restart.
// A restart rebuilds every component from a fresh read of the
// configuration.
func run(ctx context.Context, opts *rootOptions, stdin *os.File, stdout, stderr io.Writer) error {
	for {
		err := runOnce(ctx, opts, stdin, stdout, stderr)
		if !errors.Is(err, console.ErrRestart) {
			return err
		}
	}
}

func runOnce(ctx context.Context, opts *rootOptions, stdin *os.File, stdout, stderr io.Writer) error {
	settings, cfg, err := opts.loadSettings()
	if err != nil {
		return err
	}

	logger, closeLog, err := openLogger(settings)
	if err != nil {
		return err
	}
	defer closeLog()
	for _, w := range cfg.Warnings {
		logger.Warn("configuration warning", slog.String("warning", w))
	}

	if err := os.MkdirAll(settings.FSRoot, 0755); err != nil {
		return fmt.Errorf("create filesystem root: %w", err)
	}
	fsys, err := vfs.Open(settings.FSRoot)
	if err != nil {
		return err
	}
	defer fsys.Close()

	backend, err := history.OpenBackend(settings.HistoryBackend, settings.HistoryFile)
	if err != nil {
		return err
	}
	store, err := history.Open(backend, settings.HistorySize)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Load(); err != nil {
		logger.Warn("history not loaded", slog.Any("error", err))
	}

	bank := gpio.NewBank(settings.GPIOPins)

	var con *console.Console
	registry := command.NewRegistry()
	command.RegisterCoreCommands(registry, store, logger)
	command.RegisterSystemCommands(registry, func() { con.Restart() })
	command.RegisterNetworkCommands(registry)
	command.RegisterFSCommands(registry, fsys, command.ExecEditor(stdin, stdout, stderr))
	command.RegisterGPIOCommands(registry, bank)

	session := lineio.NewSession(lineio.Options{
		In:            stdin,
		Out:           stdout,
		MaxLineLength: settings.MaxLineLength,
		LineEditor:    settings.LineEditor,
		History:       store.Entries,
		Commands:      candidates(registry),
		Logger:        logger.Logger,
	})
	if err := session.Open(); err != nil {
		return err
	}
	defer session.Close()

	con, err = console.New(settings, console.Deps{
		Registry: registry,
		Lines:    session,
		Files:    fsys,
		History:  store,
		Pins:     bank,
		Logger:   logger.Logger,
		NewInterpreter: func(out io.Writer, l *slog.Logger) *scripting.Interpreter {
			return scripting.New(scripting.Options{
				Stdout:  out,
				Logger:  l,
				Timeout: settings.ScriptTimeout,
				Modules: func(r *require.Registry) {
					builtin.Register(ctx, r, builtin.Deps{
						Pins:      bank,
						FS:        fsys,
						LookupEnv: settings.LookupEnv,
					})
				},
			})
		},
	})
	if err != nil {
		return err
	}
	return con.Run(ctx)
}

// openLogger builds the in-memory log served by dmesg, forwarding to the
// configured log file.
func openLogger(s config.Settings) (*logging.Logger, func(), error) {
	level, err := logging.ParseLevel(s.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	opts := logging.Options{BufferSize: s.LogBufferSize, Level: level}
	closeFn := func() {}
	if s.LogFile != "" {
		f, err := os.OpenFile(s.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		opts.Sink = f
		closeFn = func() { _ = f.Close() }
	}
	return logging.New(opts), closeFn, nil
}

func candidates(r *command.Registry) func() []lineio.Candidate {
	return func() []lineio.Candidate {
		names := r.Names()
		out := make([]lineio.Candidate, 0, len(names))
		for _, name := range names {
			cmd, ok := r.Lookup(name)
			if !ok {
				continue
			}
			out = append(out, lineio.Candidate{Text: name, Description: cmd.Description()})
		}
		return out
	}
}
