package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSchemaDeclaresEveryKey(t *testing.T) {
	s := DefaultSchema()
	for _, key := range []string{
		KeySerialChannel, KeySerialBaud, KeySerialRxPin, KeySerialTxPin,
		KeySerialDevicePattern, KeySerialChannels,
		KeyConsolePrompt, KeyConsoleMaxLineLength, KeyConsoleDispatch,
		KeyConsoleAllowList, KeyConsoleLineEditor,
		KeyHistorySize, KeyHistoryFile, KeyHistoryBackend,
		KeyScriptStartup, KeyScriptTimeout, KeyScriptVerboseErrors,
		KeyFSRoot, KeyGPIOPins,
		KeyLogFile, KeyLogLevel, KeyLogBufferSize,
	} {
		assert.True(t, s.IsKnown("", key), key)
	}
	assert.True(t, s.IsKnown(SectionEnv, "ANYTHING"))
	assert.False(t, s.IsKnown("", "serial.parity"))
	assert.Equal(t, []string{SectionEnv}, s.Sections())
}

func TestDefaultSchemaDefaultsAreValid(t *testing.T) {
	for _, opt := range DefaultSchema().Options() {
		if opt.Default == "" {
			continue
		}
		assert.NoError(t, validateType(opt.Type, opt.Default), opt.Key)
	}
}

func TestValidateConfigSectionOptions(t *testing.T) {
	s := NewSchema()
	s.Register(ConfigOption{Key: "depth", Type: TypeInt, Section: "probe"})
	c := NewConfig()
	c.Sections["probe"] = map[string]string{"depth": "deep", "width": "3"}

	issues := ValidateConfig(c, s)
	assert.Equal(t, []string{
		`option "depth" in [probe]: expected int, got "deep"`,
		`unknown option in [probe]: "width" (value: "3")`,
	}, issues)
}

func TestResolvePrecedence(t *testing.T) {
	s := DefaultSchema()
	c := NewConfig()

	t.Setenv("TTYCONSOLE_SERIAL_CHANNEL", "")
	// An empty but present variable still wins over the file.
	c.SetGlobalOption(KeySerialChannel, "2")
	assert.Equal(t, "", s.Resolve(c, KeySerialChannel))

	t.Setenv("TTYCONSOLE_SERIAL_CHANNEL", "1")
	assert.Equal(t, "1", s.Resolve(c, KeySerialChannel))

	assert.Equal(t, "115200", s.Resolve(c, KeySerialBaud))
	c.SetGlobalOption(KeySerialBaud, "9600")
	assert.Equal(t, "9600", s.Resolve(c, KeySerialBaud))

	assert.Equal(t, "", s.Resolve(c, "not.registered"))
}

func TestTypedGetters(t *testing.T) {
	s := DefaultSchema()
	c := NewConfig()
	c.SetGlobalOption(KeyScriptVerboseErrors, "yes")
	c.SetGlobalOption(KeyScriptTimeout, "1500ms")
	c.SetGlobalOption(KeyConsoleAllowList, " help , ,meminfo")
	c.SetGlobalOption(KeyGPIOPins, "many")

	b, err := s.Bool(c, KeyScriptVerboseErrors)
	require.NoError(t, err)
	assert.True(t, b)

	d, err := s.Duration(c, KeyScriptTimeout)
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, d)

	assert.Equal(t, []string{"help", "meminfo"}, s.List(c, KeyConsoleAllowList))

	_, err = s.Int(c, KeyGPIOPins)
	assert.ErrorContains(t, err, KeyGPIOPins)

	n, err := s.Int(c, KeyHistorySize)
	require.NoError(t, err)
	assert.Equal(t, 100, n)
}

func TestDurationEmptyIsZero(t *testing.T) {
	d, err := DefaultSchema().Duration(NewConfig(), KeyScriptTimeout)
	require.NoError(t, err)
	assert.Zero(t, d)
}

func TestFormatHelp(t *testing.T) {
	help := DefaultSchema().FormatHelp()
	assert.True(t, strings.HasPrefix(help, "Global Options:\n"))
	assert.Contains(t, help, "serial.channel")
	assert.Contains(t, help, "env: TTYCONSOLE_SERIAL_CHANNEL")
	assert.Contains(t, help, "[env]\n")
}
