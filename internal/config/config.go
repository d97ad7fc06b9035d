// Package config loads application-level configuration: where data and logs
// live, log verbosity and timing knobs. User-facing timer settings are a
// separate concern handled by the settings package and persisted in the store.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	appDir         = "focusflow"
	configFileName = "config.yaml"
)

// Config is the resolved application configuration.
type Config struct {
	DBPath         string        `env:"FOCUSFLOW_DB_PATH"`
	LogFile        string        `env:"FOCUSFLOW_LOG_FILE"`
	LogLevel       string        `env:"FOCUSFLOW_LOG_LEVEL"`
	TickInterval   time.Duration `env:"FOCUSFLOW_TICK_INTERVAL"`
	AutoStartDelay time.Duration `env:"FOCUSFLOW_AUTOSTART_DELAY"`
	Audio          bool          `env:"FOCUSFLOW_AUDIO"`
}

type yamlConfig struct {
	DBPath               string `yaml:"db_path"`
	LogFile              string `yaml:"log_file"`
	LogLevel             string `yaml:"log_level"`
	TickIntervalMillis   int    `yaml:"tick_interval_ms"`
	AutoStartDelayMillis int    `yaml:"autostart_delay_ms"`
	Audio                *bool  `yaml:"audio"`
}

// Default returns the built-in configuration rooted at dir.
func Default(dir string) Config {
	return Config{
		DBPath:         filepath.Join(dir, "focusflow.db"),
		LogFile:        filepath.Join(dir, "focusflow.log"),
		LogLevel:       "normal",
		TickInterval:   time.Second,
		AutoStartDelay: 500 * time.Millisecond,
		Audio:          true,
	}
}

// Dir returns ~/.config/focusflow (or the platform equivalent).
func Dir() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(cfg, appDir), nil
}

// Load resolves configuration from defaults, then the YAML file in dir,
// then FOCUSFLOW_* environment variables.
func Load(dir string) (Config, error) {
	cfg := Default(dir)
	if err := cfg.applyFile(filepath.Join(dir, configFileName)); err != nil {
		return cfg, err
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects unusable timing values.
func (c Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("config: db path is empty")
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("config: tick interval must be positive, got %s", c.TickInterval)
	}
	if c.AutoStartDelay < 0 {
		return fmt.Errorf("config: autostart delay must not be negative, got %s", c.AutoStartDelay)
	}
	return nil
}

func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}

	var file yamlConfig
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}

	if file.DBPath != "" {
		c.DBPath = file.DBPath
	}
	if file.LogFile != "" {
		c.LogFile = file.LogFile
	}
	if file.LogLevel != "" {
		c.LogLevel = file.LogLevel
	}
	if file.TickIntervalMillis > 0 {
		c.TickInterval = time.Duration(file.TickIntervalMillis) * time.Millisecond
	}
	if file.AutoStartDelayMillis > 0 {
		c.AutoStartDelay = time.Duration(file.AutoStartDelayMillis) * time.Millisecond
	}
	if file.Audio != nil {
		c.Audio = *file.Audio
	}
	return nil
}

// Save writes the file-backed subset of c to dir/config.yaml.
func Save(dir string, c Config) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	audio := c.Audio
	file := yamlConfig{
		DBPath:               c.DBPath,
		LogFile:              c.LogFile,
		LogLevel:             c.LogLevel,
		TickIntervalMillis:   int(c.TickInterval / time.Millisecond),
		AutoStartDelayMillis: int(c.AutoStartDelay / time.Millisecond),
		Audio:                &audio,
	}
	out, err := yaml.Marshal(file)
	if err != nil {
		return fmt.Errorf("marshal config yaml: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, configFileName), out, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
