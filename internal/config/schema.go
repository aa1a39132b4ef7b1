package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// OptionType represents the expected type of a configuration option value.
type OptionType string

const (
	// TypeString is a plain string value (the default for all config values).
	TypeString OptionType = "string"
	// TypeBool is a boolean value (true/false/yes/no/1/0/on/off).
	TypeBool OptionType = "bool"
	// TypeInt is an integer value.
	TypeInt OptionType = "int"
	// TypeDuration is a Go time.Duration value (e.g. "30s", "5m", "1h").
	TypeDuration OptionType = "duration"
	// TypeList is a comma-separated list of values.
	TypeList OptionType = "list"
)

// ConfigOption declares a single configuration option with its type, default,
// documentation, and environment variable override.
type ConfigOption struct {
	// Key is the option name as it appears in the config file.
	Key string
	// Type is the expected value type for validation.
	Type OptionType
	// Default is the default value as a string, or "" for no default.
	Default string
	// Description is a human-readable description of the option.
	Description string
	// Section is "" for global options, or a section name.
	Section string
	// EnvVar is the environment variable that overrides this option, or "".
	EnvVar string
}

// ConfigSchema declares the expected configuration options.
// It is used for validation, documentation, typed resolution, and env var
// mapping.
type ConfigSchema struct {
	options []*ConfigOption
	// byKey indexes global options by key for fast lookup.
	byKey map[string]*ConfigOption
	// bySection indexes section options by section then key.
	bySection map[string]map[string]*ConfigOption
	// freeform sections accept any key, e.g. [env].
	freeform map[string]string
}

// NewSchema creates a new empty ConfigSchema.
func NewSchema() *ConfigSchema {
	return &ConfigSchema{
		byKey:     make(map[string]*ConfigOption),
		bySection: make(map[string]map[string]*ConfigOption),
		freeform:  make(map[string]string),
	}
}

// Register adds a ConfigOption to the schema. Duplicate keys within the same
// section are silently overwritten (last registration wins).
func (s *ConfigSchema) Register(opt ConfigOption) {
	ref := new(ConfigOption)
	*ref = opt
	s.options = append(s.options, ref)
	if opt.Section == "" {
		s.byKey[opt.Key] = ref
	} else {
		if s.bySection[opt.Section] == nil {
			s.bySection[opt.Section] = make(map[string]*ConfigOption)
		}
		s.bySection[opt.Section][opt.Key] = ref
	}
}

// RegisterAll adds multiple ConfigOptions to the schema.
func (s *ConfigSchema) RegisterAll(opts []ConfigOption) {
	for _, opt := range opts {
		s.Register(opt)
	}
}

// RegisterFreeform declares a section whose keys are user-defined.
func (s *ConfigSchema) RegisterFreeform(section, description string) {
	s.freeform[section] = description
}

// Options returns a copy of all registered options in registration order.
func (s *ConfigSchema) Options() []ConfigOption {
	out := make([]ConfigOption, len(s.options))
	for i, o := range s.options {
		out[i] = *o
	}
	return out
}

// Lookup returns the ConfigOption for a key in a given section ("" for global).
// Returns nil if the key is not registered.
func (s *ConfigSchema) Lookup(section, key string) *ConfigOption {
	if section == "" {
		return s.byKey[key]
	}
	if sec, ok := s.bySection[section]; ok {
		return sec[key]
	}
	return nil
}

// IsKnown returns true if the key is registered in the given section, or the
// section is freeform.
func (s *ConfigSchema) IsKnown(section, key string) bool {
	if section == "" {
		return s.byKey[key] != nil
	}
	if _, ok := s.freeform[section]; ok {
		return true
	}
	if sec, ok := s.bySection[section]; ok {
		return sec[key] != nil
	}
	return false
}

// GlobalOptions returns all registered global options (Section == "").
func (s *ConfigSchema) GlobalOptions() []ConfigOption {
	var out []ConfigOption
	for _, o := range s.options {
		if o.Section == "" {
			out = append(out, *o)
		}
	}
	return out
}

// SectionOptions returns all registered options for a specific section.
func (s *ConfigSchema) SectionOptions(section string) []ConfigOption {
	var out []ConfigOption
	for _, o := range s.options {
		if o.Section == section {
			out = append(out, *o)
		}
	}
	return out
}

// Sections returns a sorted list of all registered non-empty section names,
// freeform sections included.
func (s *ConfigSchema) Sections() []string {
	seen := make(map[string]bool)
	for sec := range s.bySection {
		seen[sec] = true
	}
	for sec := range s.freeform {
		seen[sec] = true
	}
	out := make([]string, 0, len(seen))
	for sec := range seen {
		out = append(out, sec)
	}
	sort.Strings(out)
	return out
}

// Resolve returns the effective value for a global config key by checking,
// in order: (1) the environment variable declared in the schema for this key,
// (2) the config value, (3) the schema default. Returns "" if the key is not
// found anywhere.
func (s *ConfigSchema) Resolve(c *Config, key string) string {
	opt := s.Lookup("", key)
	if opt != nil && opt.EnvVar != "" {
		if v, ok := os.LookupEnv(opt.EnvVar); ok {
			return v
		}
	}
	if v, ok := c.GetGlobalOption(key); ok {
		return v
	}
	if opt != nil {
		return opt.Default
	}
	return ""
}

// ValidateConfig checks a loaded Config against the schema and returns a list
// of human-readable issues (empty if the config is valid). Validation includes:
//   - Unknown global options (not in schema)
//   - Unknown sections, and unknown options within known sections
//   - Type mismatches for options with declared types
func ValidateConfig(c *Config, s *ConfigSchema) []string {
	var issues []string

	for key, value := range c.Global {
		opt := s.Lookup("", key)
		if opt == nil {
			issues = append(issues, fmt.Sprintf("unknown global option: %q (value: %q)", key, value))
			continue
		}
		if err := validateType(opt.Type, value); err != nil {
			issues = append(issues, fmt.Sprintf("global option %q: %v", key, err))
		}
	}

	for section, opts := range c.Sections {
		_, free := s.freeform[section]
		if _, known := s.bySection[section]; !known && !free {
			issues = append(issues, fmt.Sprintf("unknown section: [%s]", section))
			continue
		}
		for key, value := range opts {
			if !s.IsKnown(section, key) {
				issues = append(issues, fmt.Sprintf("unknown option in [%s]: %q (value: %q)", section, key, value))
				continue
			}
			if opt := s.Lookup(section, key); opt != nil {
				if err := validateType(opt.Type, value); err != nil {
					issues = append(issues, fmt.Sprintf("option %q in [%s]: %v", key, section, err))
				}
			}
		}
	}

	sort.Strings(issues)
	return issues
}

// validateType checks that a string value matches the expected OptionType.
func validateType(t OptionType, value string) error {
	switch t {
	case TypeString, TypeList, "":
		return nil
	case TypeBool:
		if _, err := parseBool(value); err != nil {
			return fmt.Errorf("expected bool, got %q", value)
		}
	case TypeInt:
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("expected int, got %q", value)
		}
	case TypeDuration:
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("expected duration, got %q", value)
		}
	default:
		return fmt.Errorf("unknown option type %q", t)
	}
	return nil
}

// --- Typed getters, resolved through the schema ---

// String returns the effective value of key.
func (s *ConfigSchema) String(c *Config, key string) string {
	return s.Resolve(c, key)
}

// Bool returns the effective value of key parsed as a boolean.
func (s *ConfigSchema) Bool(c *Config, key string) (bool, error) {
	v := s.Resolve(c, key)
	b, err := parseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

// Int returns the effective value of key parsed as an integer.
func (s *ConfigSchema) Int(c *Config, key string) (int, error) {
	v := s.Resolve(c, key)
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%s: expected int, got %q", key, v)
	}
	return i, nil
}

// Duration returns the effective value of key parsed as a time.Duration.
// An empty value is zero.
func (s *ConfigSchema) Duration(c *Config, key string) (time.Duration, error) {
	v := strings.TrimSpace(s.Resolve(c, key))
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: expected duration, got %q", key, v)
	}
	return d, nil
}

// List returns the effective value of key split on commas, with blanks
// dropped.
func (s *ConfigSchema) List(c *Config, key string) []string {
	var out []string
	for _, item := range strings.Split(s.Resolve(c, key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// --- Help text generation ---

// FormatHelp returns a formatted, human-readable reference of all registered
// options in the schema, grouped by section.
func (s *ConfigSchema) FormatHelp() string {
	var b strings.Builder

	globals := s.GlobalOptions()
	if len(globals) > 0 {
		b.WriteString("Global Options:\n")
		for _, o := range globals {
			writeOptionHelp(&b, o)
		}
	}

	for _, sec := range s.Sections() {
		if desc, ok := s.freeform[sec]; ok {
			b.WriteString(fmt.Sprintf("\n[%s]\n  %s\n", sec, desc))
			continue
		}
		opts := s.SectionOptions(sec)
		if len(opts) == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("\n[%s] Options:\n", sec))
		for _, o := range opts {
			writeOptionHelp(&b, o)
		}
	}

	return b.String()
}

func writeOptionHelp(b *strings.Builder, o ConfigOption) {
	b.WriteString(fmt.Sprintf("  %-28s %s", o.Key, o.Description))
	parts := make([]string, 0, 3)
	if o.Type != "" && o.Type != TypeString {
		parts = append(parts, fmt.Sprintf("type: %s", o.Type))
	}
	if o.Default != "" {
		parts = append(parts, fmt.Sprintf("default: %q", o.Default))
	}
	if o.EnvVar != "" {
		parts = append(parts, fmt.Sprintf("env: %s", o.EnvVar))
	}
	if len(parts) > 0 {
		b.WriteString(fmt.Sprintf(" (%s)", strings.Join(parts, ", ")))
	}
	b.WriteString("\n")
}

// --- Default schema ---

// DefaultSchema returns the canonical schema declaring all known console
// configuration options.
func DefaultSchema() *ConfigSchema {
	s := NewSchema()
	s.RegisterAll(defaultGlobalOptions())
	s.RegisterFreeform(SectionEnv, "NAME value pairs available to $NAME interpolation of input lines")
	return s
}

// SectionEnv holds variables for line interpolation.
const SectionEnv = "env"

func defaultGlobalOptions() []ConfigOption {
	return []ConfigOption{
		// Serial transport
		{Key: KeySerialChannel, Type: TypeInt, Default: "0", Description: "Serial channel; 0 is the process standard streams", EnvVar: "TTYCONSOLE_SERIAL_CHANNEL"},
		{Key: KeySerialBaud, Type: TypeInt, Default: "115200", Description: "Baud rate for alternate channels"},
		{Key: KeySerialRxPin, Type: TypeInt, Default: "-1", Description: "Receive pin override (-1 for the channel default)"},
		{Key: KeySerialTxPin, Type: TypeInt, Default: "-1", Description: "Transmit pin override (-1 for the channel default)"},
		{Key: KeySerialDevicePattern, Type: TypeString, Default: "/dev/ttyS%d", Description: "Device path pattern for alternate channels"},
		{Key: KeySerialChannels, Type: TypeInt, Default: "3", Description: "Number of serial channels available"},

		// Console
		{Key: KeyConsolePrompt, Type: TypeString, Default: "ttyconsole %pwd%> ", Description: "Prompt template; %pwd% is the working directory"},
		{Key: KeyConsoleMaxLineLength, Type: TypeInt, Default: "256", Description: "Maximum input line length in characters"},
		{Key: KeyConsoleDispatch, Type: TypeString, Default: DispatchAllowList, Description: "Line classification: allowlist or registry"},
		{Key: KeyConsoleAllowList, Type: TypeList, Default: "help,meminfo,sysinfo,clear,history,restart", Description: "Lines run as commands under allowlist dispatch"},
		{Key: KeyConsoleLineEditor, Type: TypeBool, Default: "true", Description: "Use the line editor when the terminal supports it"},

		// History
		{Key: KeyHistorySize, Type: TypeInt, Default: "100", Description: "Maximum number of history entries"},
		{Key: KeyHistoryFile, Type: TypeString, Default: "", Description: "History file; empty for the config directory, none to disable", EnvVar: "TTYCONSOLE_HISTORY_FILE"},
		{Key: KeyHistoryBackend, Type: TypeString, Default: "file", Description: "History storage: file or bolt"},

		// Scripting
		{Key: KeyScriptStartup, Type: TypeString, Default: "/autorun.js", Description: "Startup script inside the filesystem root"},
		{Key: KeyScriptTimeout, Type: TypeDuration, Default: "", Description: "Interrupt scripts running longer than this"},
		{Key: KeyScriptVerboseErrors, Type: TypeBool, Default: "false", Description: "Report script errors with stack traces"},

		// Filesystem
		{Key: KeyFSRoot, Type: TypeString, Default: "", Description: "Host directory exposed as /; empty for <config dir>/fs", EnvVar: "TTYCONSOLE_FS_ROOT"},
		{Key: KeyGPIOPins, Type: TypeInt, Default: "40", Description: "Number of simulated GPIO pins"},

		// Logging
		{Key: KeyLogFile, Type: TypeString, Default: "", Description: "Log file path (text output)", EnvVar: "TTYCONSOLE_LOG_FILE"},
		{Key: KeyLogLevel, Type: TypeString, Default: "info", Description: "Log level: debug, info, warn, error", EnvVar: "TTYCONSOLE_LOG_LEVEL"},
		{Key: KeyLogBufferSize, Type: TypeInt, Default: "256", Description: "In-memory log buffer size (entries)"},
	}
}
