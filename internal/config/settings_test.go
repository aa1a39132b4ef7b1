package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(EnvConfigPath, filepath.Join(dir, "config"))
	for _, name := range []string{
		"TTYCONSOLE_SERIAL_CHANNEL",
		"TTYCONSOLE_HISTORY_FILE",
		"TTYCONSOLE_FS_ROOT",
		"TTYCONSOLE_LOG_FILE",
		"TTYCONSOLE_LOG_LEVEL",
	} {
		if v, ok := os.LookupEnv(name); ok {
			t.Setenv(name, v)
			os.Unsetenv(name)
		}
	}
	return dir
}

func TestDefaultSettings(t *testing.T) {
	dir := isolateConfig(t)

	s := DefaultSettings()
	assert.Equal(t, 0, s.SerialChannel)
	assert.Equal(t, 115200, s.SerialBaud)
	assert.Equal(t, -1, s.SerialRxPin)
	assert.Equal(t, 3, s.SerialChannels)
	assert.Equal(t, "ttyconsole %pwd%> ", s.Prompt)
	assert.Equal(t, 256, s.MaxLineLength)
	assert.Equal(t, DispatchAllowList, s.Dispatch)
	assert.Equal(t, []string{"help", "meminfo", "sysinfo", "clear", "history", "restart"}, s.AllowList)
	assert.True(t, s.LineEditor)
	assert.Equal(t, 100, s.HistorySize)
	assert.Equal(t, filepath.Join(dir, "history"), s.HistoryFile)
	assert.Equal(t, "file", s.HistoryBackend)
	assert.Equal(t, "/autorun.js", s.StartupScript)
	assert.Zero(t, s.ScriptTimeout)
	assert.False(t, s.VerboseErrors)
	assert.Equal(t, filepath.Join(dir, "fs"), s.FSRoot)
	assert.Equal(t, 40, s.GPIOPins)
	assert.Equal(t, "info", s.LogLevel)
	assert.Equal(t, 256, s.LogBufferSize)
}

func TestLoadSettingsFromFile(t *testing.T) {
	isolateConfig(t)

	cfg, err := LoadFromReader(strings.NewReader(`serial.channel 2
console.dispatch Registry
history.file none
history.size 10
script.timeout 2s

[env]
PIN 13`))
	require.NoError(t, err)

	s, err := LoadSettings(cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, s.SerialChannel)
	assert.Equal(t, DispatchRegistry, s.Dispatch)
	assert.Equal(t, "", s.HistoryFile, "none keeps history in memory")
	assert.Equal(t, 10, s.HistorySize)
	assert.Equal(t, 2*time.Second, s.ScriptTimeout)
	assert.Equal(t, map[string]string{"PIN": "13"}, s.Env)
}

func TestLoadSettingsRejectsInvalidValues(t *testing.T) {
	isolateConfig(t)

	cfg := NewConfig()
	cfg.SetGlobalOption(KeyConsoleDispatch, "everything")
	cfg.SetGlobalOption(KeyHistorySize, "0")
	cfg.SetGlobalOption(KeySerialBaud, "fast")

	_, err := LoadSettings(cfg)
	require.Error(t, err)
	assert.ErrorContains(t, err, KeyConsoleDispatch)
	assert.ErrorContains(t, err, KeyHistorySize)
	assert.ErrorContains(t, err, KeySerialBaud)
}

func TestLoadSettingsEnvOverride(t *testing.T) {
	isolateConfig(t)
	t.Setenv("TTYCONSOLE_SERIAL_CHANNEL", "1")

	cfg := NewConfig()
	cfg.SetGlobalOption(KeySerialChannel, "2")
	s, err := LoadSettings(cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, s.SerialChannel)
}

func TestSettingsLookupEnv(t *testing.T) {
	t.Setenv("TTYCONSOLE_TEST_VAR", "from-process")
	t.Setenv("TTYCONSOLE_TEST_SHADOWED", "from-process")

	s := Settings{Env: map[string]string{"TTYCONSOLE_TEST_SHADOWED": "from-config"}}

	v, ok := s.LookupEnv("TTYCONSOLE_TEST_SHADOWED")
	assert.True(t, ok)
	assert.Equal(t, "from-config", v)

	v, ok = s.LookupEnv("TTYCONSOLE_TEST_VAR")
	assert.True(t, ok)
	assert.Equal(t, "from-process", v)

	_, ok = s.LookupEnv("TTYCONSOLE_TEST_MISSING")
	assert.False(t, ok)
}
