package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"FOCUSFLOW_DB_PATH", "FOCUSFLOW_LOG_FILE", "FOCUSFLOW_LOG_LEVEL",
		"FOCUSFLOW_TICK_INTERVAL", "FOCUSFLOW_AUTOSTART_DELAY", "FOCUSFLOW_AUDIO",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := Default(dir)
	if cfg != want {
		t.Fatalf("expected defaults %+v, got %+v", want, cfg)
	}
	if cfg.TickInterval != time.Second || cfg.AutoStartDelay != 500*time.Millisecond {
		t.Fatalf("unexpected timing defaults: %+v", cfg)
	}
}

func TestLoadFileOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	yml := "db_path: /tmp/x.db\nlog_level: verbose\ntick_interval_ms: 250\naudio: false\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DBPath != "/tmp/x.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.LogLevel != "verbose" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.TickInterval != 250*time.Millisecond {
		t.Errorf("TickInterval = %s", cfg.TickInterval)
	}
	if cfg.Audio {
		t.Error("Audio should be disabled by file")
	}
	if cfg.LogFile != filepath.Join(dir, "focusflow.log") {
		t.Errorf("LogFile should keep default, got %q", cfg.LogFile)
	}
}

func TestLoadEnvBeatsFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log_level: off\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FOCUSFLOW_LOG_LEVEL", "verbose")
	t.Setenv("FOCUSFLOW_AUTOSTART_DELAY", "2s")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "verbose" {
		t.Errorf("env should override file, got %q", cfg.LogLevel)
	}
	if cfg.AutoStartDelay != 2*time.Second {
		t.Errorf("AutoStartDelay = %s", cfg.AutoStartDelay)
	}
}

func TestLoadBadYAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("db_path: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default(t.TempDir())
	cfg.TickInterval = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero tick interval")
	}
	cfg = Default(t.TempDir())
	cfg.DBPath = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty db path")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	cfg := Default(dir)
	cfg.LogLevel = "off"
	cfg.Audio = false
	cfg.TickInterval = 2 * time.Second
	if err := Save(dir, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got != cfg {
		t.Fatalf("round trip mismatch:\n got  %+v\n want %+v", got, cfg)
	}
}
