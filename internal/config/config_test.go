package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigParsing(t *testing.T) {
	configContent := `# Serial transport
serial.channel 1
serial.baud 9600

console.prompt "esp32 %pwd% $ "

[env]
LED 2
GREETING hello world`

	config, err := LoadFromReader(strings.NewReader(configContent))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if value, ok := config.GetGlobalOption("serial.channel"); !ok || value != "1" {
		t.Errorf("Expected serial.channel=1, got %s (exists: %v)", value, ok)
	}

	if value, ok := config.GetGlobalOption("console.prompt"); !ok || value != "esp32 %pwd% $ " {
		t.Errorf("Expected quoted prompt to keep trailing space, got %q (exists: %v)", value, ok)
	}

	env := config.Section("env")
	if env["LED"] != "2" || env["GREETING"] != "hello world" {
		t.Errorf("Unexpected [env] section: %v", env)
	}

	if config.HasWarnings() {
		t.Errorf("Expected no warnings, got %v", config.Warnings)
	}
}

func TestEmptyConfig(t *testing.T) {
	config, err := LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Failed to load empty config: %v", err)
	}

	if len(config.Global) != 0 {
		t.Errorf("Expected empty global options, got %d", len(config.Global))
	}
	if config.Section("env") != nil {
		t.Errorf("Expected no env section")
	}
}

func TestConfigWarnings(t *testing.T) {
	configContent := `serial.channel one
colour auto

[aliases]
ll ls -l`

	config, err := LoadFromReader(strings.NewReader(configContent))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	want := []string{
		`global option "serial.channel": expected int, got "one"`,
		`unknown global option: "colour" (value: "auto")`,
		`unknown section: [aliases]`,
	}
	if len(config.Warnings) != len(want) {
		t.Fatalf("Expected %d warnings, got %v", len(want), config.Warnings)
	}
	for i, w := range want {
		if config.Warnings[i] != w {
			t.Errorf("warning %d: expected %q, got %q", i, w, config.Warnings[i])
		}
	}
}

func TestConfigInvalidQuotedValue(t *testing.T) {
	if _, err := LoadFromReader(strings.NewReader(`console.prompt "bad \q"`)); err == nil {
		t.Fatal("Expected error for invalid escape in quoted value")
	}
}

func TestLoadFromPathMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-config")

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("expected no error loading missing config, got %v", err)
	}

	if len(cfg.Global) != 0 || len(cfg.Sections) != 0 {
		t.Fatalf("expected empty config for missing file, got %+v", cfg)
	}
}

func TestLoadFromPathRejectsSymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "real")
	if err := os.WriteFile(target, []byte("serial.channel 1"), 0600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	link := filepath.Join(dir, "config")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	if _, err := LoadFromPath(link); err == nil {
		t.Fatal("expected symlinked config to be rejected")
	}
}

func TestLoadUsesConfigPathEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	if err := os.WriteFile(path, []byte("history.size 7"), 0600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv(EnvConfigPath, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected load success, got %v", err)
	}

	if got, ok := cfg.GetGlobalOption("history.size"); !ok || got != "7" {
		t.Fatalf("expected history.size from env-config, got %q exists=%v", got, ok)
	}
}
