// Package scripting is the bridge between the console and its embedded
// JavaScript interpreter.
package scripting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/require"
)

// ErrClosed is returned by Execute after Close.
var ErrClosed = errors.New("scripting: interpreter closed")

// ErrTimeout interrupts a script that exceeds Options.Timeout.
var ErrTimeout = errors.New("script timed out")

// Options configures an Interpreter.
type Options struct {
	// Stdout receives print and console output.
	Stdout io.Writer
	Logger *slog.Logger
	// Timeout interrupts each execution after the given duration. Zero
	// disables the limit.
	Timeout time.Duration
	// Modules registers native modules available to require.
	Modules func(registry *require.Registry)
}

// Interpreter is a persistent JavaScript context. Globals defined by one
// execution remain visible to the next.
type Interpreter struct {
	mu      sync.Mutex
	vm      *goja.Runtime
	out     io.Writer
	logger  *slog.Logger
	timeout time.Duration
	started time.Time
	// execCtx is the context of the running execution, used by delay.
	execCtx context.Context
}

// New creates an interpreter with the console globals installed.
func New(opts Options) *Interpreter {
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	in := &Interpreter{
		vm:      goja.New(),
		out:     opts.Stdout,
		logger:  opts.Logger,
		timeout: opts.Timeout,
		started: time.Now(),
		execCtx: context.Background(),
	}

	registry := require.NewRegistry()
	if opts.Modules != nil {
		opts.Modules(registry)
	}
	registry.Enable(in.vm)

	in.setupGlobals()
	return in
}

func (in *Interpreter) setupGlobals() {
	vm := in.vm
	_ = vm.Set("print", func(call goja.FunctionCall) goja.Value {
		in.println(call.Arguments)
		return goja.Undefined()
	})

	logTo := func(level slog.Level) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			msg := in.println(call.Arguments)
			in.logger.Log(context.Background(), level, msg, slog.String("source", "script"))
			return goja.Undefined()
		}
	}
	_ = vm.Set("console", map[string]any{
		"log":   logTo(slog.LevelDebug),
		"debug": logTo(slog.LevelDebug),
		"info":  logTo(slog.LevelInfo),
		"warn":  logTo(slog.LevelWarn),
		"error": logTo(slog.LevelError),
	})

	_ = vm.Set("delay", func(ms int64) {
		if ms <= 0 {
			return
		}
		t := time.NewTimer(time.Duration(ms) * time.Millisecond)
		defer t.Stop()
		select {
		case <-t.C:
		case <-in.execCtx.Done():
			in.vm.Interrupt(context.Cause(in.execCtx))
		}
	})
	_ = vm.Set("millis", func() int64 {
		return time.Since(in.started).Milliseconds()
	})
}

func (in *Interpreter) println(args []goja.Value) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = format(arg)
	}
	line := strings.Join(parts, " ")
	_, _ = fmt.Fprintln(in.out, line)
	return line
}

func format(v goja.Value) string {
	if obj, ok := v.(*goja.Object); ok {
		switch obj.ClassName() {
		case "Object", "Array":
			if b, err := json.Marshal(obj.Export()); err == nil {
				return string(b)
			}
		}
	}
	return v.String()
}

// Execute runs source in the persistent context. name labels stack traces.
// Script errors are returned as *goja.Exception; cancellation of ctx or the
// timeout interrupts the script and returns a *goja.InterruptedError
// wrapping the cause.
func (in *Interpreter) Execute(ctx context.Context, name, source string) (err error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.vm == nil {
		return ErrClosed
	}

	if in.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, in.timeout, ErrTimeout)
		defer cancel()
	}
	vm := in.vm
	fired := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		vm.Interrupt(context.Cause(ctx))
		close(fired)
	})
	in.execCtx = ctx
	defer func() {
		if !stop() {
			<-fired
		}
		vm.ClearInterrupt()
		in.execCtx = context.Background()
	}()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scripting: %s: panic: %v", name, r)
		}
	}()

	if ctx.Err() != nil {
		return context.Cause(ctx)
	}
	_, err = vm.RunScript(name, source)
	return err
}

// Close destroys the interpreter. Further executions fail with ErrClosed.
// It is safe to call more than once.
func (in *Interpreter) Close() error {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.vm = nil
	return nil
}
