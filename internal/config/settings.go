package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Option keys.
const (
	KeySerialChannel        = "serial.channel"
	KeySerialBaud           = "serial.baud"
	KeySerialRxPin          = "serial.rx-pin"
	KeySerialTxPin          = "serial.tx-pin"
	KeySerialDevicePattern  = "serial.device-pattern"
	KeySerialChannels       = "serial.channels"
	KeyConsolePrompt        = "console.prompt"
	KeyConsoleMaxLineLength = "console.max-line-length"
	KeyConsoleDispatch      = "console.dispatch"
	KeyConsoleAllowList     = "console.allowlist"
	KeyConsoleLineEditor    = "console.line-editor"
	KeyHistorySize          = "history.size"
	KeyHistoryFile          = "history.file"
	KeyHistoryBackend       = "history.backend"
	KeyScriptStartup        = "script.startup"
	KeyScriptTimeout        = "script.timeout"
	KeyScriptVerboseErrors  = "script.verbose-errors"
	KeyFSRoot               = "fs.root"
	KeyGPIOPins             = "gpio.pins"
	KeyLogFile              = "log.file"
	KeyLogLevel             = "log.level"
	KeyLogBufferSize        = "log.buffer-size"
)

// Dispatch policies.
const (
	DispatchAllowList = "allowlist"
	DispatchRegistry  = "registry"
)

// HistoryDisabled as history.file keeps history in memory only.
const HistoryDisabled = "none"

// Settings is the resolved console configuration. It is a plain value and is
// not modified once built.
type Settings struct {
	SerialChannel       int
	SerialBaud          int
	SerialRxPin         int
	SerialTxPin         int
	SerialDevicePattern string
	SerialChannels      int

	Prompt        string
	MaxLineLength int
	Dispatch      string
	AllowList     []string
	LineEditor    bool

	HistorySize    int
	HistoryFile    string
	HistoryBackend string

	StartupScript string
	ScriptTimeout time.Duration
	VerboseErrors bool

	FSRoot   string
	GPIOPins int

	LogFile       string
	LogLevel      string
	LogBufferSize int

	// Env holds the [env] section, consulted before the process environment
	// when interpolating input lines.
	Env map[string]string
}

// DefaultSettings resolves an empty configuration.
func DefaultSettings() Settings {
	s, err := LoadSettings(NewConfig())
	if err != nil {
		panic(fmt.Sprintf("config: default settings invalid: %v", err))
	}
	return s
}

// LoadSettings resolves c against the default schema, applying environment
// overrides and defaults. Empty history and filesystem paths default to
// locations inside the config directory.
func LoadSettings(c *Config) (Settings, error) {
	schema := DefaultSchema()
	var (
		s    Settings
		errs []string
	)
	intOpt := func(key string) int {
		v, err := schema.Int(c, key)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return v
	}
	boolOpt := func(key string) bool {
		v, err := schema.Bool(c, key)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return v
	}

	s.SerialChannel = intOpt(KeySerialChannel)
	s.SerialBaud = intOpt(KeySerialBaud)
	s.SerialRxPin = intOpt(KeySerialRxPin)
	s.SerialTxPin = intOpt(KeySerialTxPin)
	s.SerialDevicePattern = schema.String(c, KeySerialDevicePattern)
	s.SerialChannels = intOpt(KeySerialChannels)

	s.Prompt = schema.String(c, KeyConsolePrompt)
	s.MaxLineLength = intOpt(KeyConsoleMaxLineLength)
	s.Dispatch = strings.ToLower(strings.TrimSpace(schema.String(c, KeyConsoleDispatch)))
	s.AllowList = schema.List(c, KeyConsoleAllowList)
	s.LineEditor = boolOpt(KeyConsoleLineEditor)

	s.HistorySize = intOpt(KeyHistorySize)
	s.HistoryFile = schema.String(c, KeyHistoryFile)
	s.HistoryBackend = strings.ToLower(strings.TrimSpace(schema.String(c, KeyHistoryBackend)))

	s.StartupScript = schema.String(c, KeyScriptStartup)
	if d, err := schema.Duration(c, KeyScriptTimeout); err != nil {
		errs = append(errs, err.Error())
	} else {
		s.ScriptTimeout = d
	}
	s.VerboseErrors = boolOpt(KeyScriptVerboseErrors)

	s.FSRoot = schema.String(c, KeyFSRoot)
	s.GPIOPins = intOpt(KeyGPIOPins)

	s.LogFile = schema.String(c, KeyLogFile)
	s.LogLevel = schema.String(c, KeyLogLevel)
	s.LogBufferSize = intOpt(KeyLogBufferSize)

	s.Env = c.Section(SectionEnv)

	switch s.Dispatch {
	case DispatchAllowList, DispatchRegistry:
	default:
		errs = append(errs, fmt.Sprintf("%s: must be %s or %s, got %q", KeyConsoleDispatch, DispatchAllowList, DispatchRegistry, s.Dispatch))
	}
	if s.HistorySize < 1 {
		errs = append(errs, fmt.Sprintf("%s: must be positive, got %d", KeyHistorySize, s.HistorySize))
	}
	if s.MaxLineLength < 1 {
		errs = append(errs, fmt.Sprintf("%s: must be positive, got %d", KeyConsoleMaxLineLength, s.MaxLineLength))
	}
	if s.ScriptTimeout < 0 {
		errs = append(errs, fmt.Sprintf("%s: must not be negative", KeyScriptTimeout))
	}
	if len(errs) > 0 {
		return Settings{}, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}

	if s.HistoryFile == "" || s.FSRoot == "" {
		dir, err := GetConfigDir()
		if err != nil {
			return Settings{}, fmt.Errorf("resolve config directory: %w", err)
		}
		if s.HistoryFile == "" {
			s.HistoryFile = filepath.Join(dir, "history")
		}
		if s.FSRoot == "" {
			s.FSRoot = filepath.Join(dir, "fs")
		}
	}
	if s.HistoryFile == HistoryDisabled {
		s.HistoryFile = ""
	}
	return s, nil
}

// LookupEnv resolves a variable for line interpolation: the [env] section
// first, then the process environment.
func (s Settings) LookupEnv(name string) (string, bool) {
	if v, ok := s.Env[name]; ok {
		return v, true
	}
	return os.LookupEnv(name)
}
