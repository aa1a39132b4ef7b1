package main

import (
	"fmt"
	"io"
	"os"

	"github.com/joeycumines/ttyconsole/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// rootOptions holds the command line. Flags left unset keep the value from
// the configuration file.
type rootOptions struct {
	configPath    string
	channel       int
	baud          int
	rxPin         int
	txPin         int
	devicePattern string
	prompt        string
	dispatch      string
	historyFile   string
	historyKind   string
	fsRoot        string
	startup       string
	noLineEditor  bool
	logFile       string
	logLevel      string

	flags *pflag.FlagSet
}

func newRootCommand(stdin *os.File, stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "ttyconsole",
		Short: "Interactive command console over a serial line",
		Long: `ttyconsole reads lines from the terminal or a serial device, runs
built-in commands such as help, history or meminfo, and evaluates every
other line as JavaScript in a persistent interpreter.

Configuration is read from $` + config.EnvConfigPath + ` or ~/.ttyconsole/config;
flags override it.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, stdin, stdout, stderr)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	f := root.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "configuration file")
	f.IntVar(&opts.channel, "channel", 0, "serial channel (0 is the standard streams)")
	f.IntVarP(&opts.baud, "baud", "b", 0, "baud rate for alternate channels")
	f.IntVar(&opts.rxPin, "rx-pin", -1, "receive pin override")
	f.IntVar(&opts.txPin, "tx-pin", -1, "transmit pin override")
	f.StringVar(&opts.devicePattern, "device-pattern", "", "device path pattern, formatted with the channel")
	f.StringVarP(&opts.prompt, "prompt", "p", "", "prompt template; %pwd% is the working path")
	f.StringVar(&opts.dispatch, "dispatch", "", "line classification: allowlist or registry")
	f.StringVar(&opts.historyFile, "history-file", "", `history file, or "none"`)
	f.StringVar(&opts.historyKind, "history-backend", "", "history storage: file or bolt")
	f.StringVar(&opts.fsRoot, "fs-root", "", "host directory served as the console filesystem")
	f.StringVar(&opts.startup, "startup", "", "startup script inside the filesystem")
	f.BoolVar(&opts.noLineEditor, "no-line-editor", false, "always read plain lines")
	f.StringVar(&opts.logFile, "log-file", "", "append log records to this file")
	f.StringVar(&opts.logLevel, "log-level", "", "minimum level written to the log file")
	opts.flags = f

	root.AddCommand(newConfigCommand())
	return root
}

func newConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the configuration file location and options",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Configuration file: %s\n\n", path)
			_, _ = fmt.Fprint(out, config.DefaultSchema().FormatHelp())
			return nil
		},
	}
}

// loadSettings reads the configuration file and applies flag overrides.
func (o *rootOptions) loadSettings() (config.Settings, *config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFromPath(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return config.Settings{}, nil, err
	}

	set := func(name, key string) {
		if o.flags != nil && o.flags.Changed(name) {
			cfg.SetGlobalOption(key, o.flags.Lookup(name).Value.String())
		}
	}
	set("baud", config.KeySerialBaud)
	set("rx-pin", config.KeySerialRxPin)
	set("tx-pin", config.KeySerialTxPin)
	set("device-pattern", config.KeySerialDevicePattern)
	set("prompt", config.KeyConsolePrompt)
	set("dispatch", config.KeyConsoleDispatch)
	set("history-file", config.KeyHistoryFile)
	set("history-backend", config.KeyHistoryBackend)
	set("fs-root", config.KeyFSRoot)
	set("startup", config.KeyScriptStartup)
	set("log-file", config.KeyLogFile)
	set("log-level", config.KeyLogLevel)
	if o.noLineEditor {
		cfg.SetGlobalOption(config.KeyConsoleLineEditor, "false")
	}

	s, err := config.LoadSettings(cfg)
	if err != nil {
		return config.Settings{}, nil, err
	}
	// serial.channel also has an environment override; the flag beats both.
	if o.flags != nil && o.flags.Changed("channel") {
		s.SerialChannel = o.channel
	}
	return s, cfg, nil
}
