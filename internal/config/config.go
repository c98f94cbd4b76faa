package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config is the file/env configuration of sidedock.
type Config struct {
	// DBPath is the SQLite database file. A leading ~ is expanded.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`

	// RetentionDays is how many recent calendar days survive the purge sweep.
	RetentionDays int `mapstructure:"retention_days" yaml:"retention_days"`

	// MaxPins caps the number of concurrently pinned tasks across the store.
	MaxPins int `mapstructure:"max_pins" yaml:"max_pins"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	LogFile  string `mapstructure:"log_file" yaml:"log_file"`

	// Notifications decides how a first-use notification permission request
	// is answered.
	Notifications bool `mapstructure:"notifications" yaml:"notifications"`
}

const (
	DefaultRetentionDays = 7
	DefaultMaxPins       = 3
)

// Dir returns ~/.config/sidedock.
func Dir() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "sidedock"), nil
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	dir, err := Dir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(dir, "config.yaml")
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	dir, err := Dir()
	if err != nil {
		dir = "."
	}
	return &Config{
		DBPath:        filepath.Join(dir, "sidedock.db"),
		RetentionDays: DefaultRetentionDays,
		MaxPins:       DefaultMaxPins,
		LogLevel:      "INFO",
		LogFile:       filepath.Join(dir, "sidedock.log"),
		Notifications: true,
	}
}

// Load reads configuration from path, layering SIDEDOCK_* environment
// variables on top. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	def := Default()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("SIDEDOCK")
	v.AutomaticEnv()

	v.SetDefault("db_path", def.DBPath)
	v.SetDefault("retention_days", def.RetentionDays)
	v.SetDefault("max_pins", def.MaxPins)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_file", def.LogFile)
	v.SetDefault("notifications", def.Notifications)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	var err error
	if c.DBPath, err = homedir.Expand(c.DBPath); err != nil {
		return fmt.Errorf("expanding db_path: %w", err)
	}
	if c.LogFile, err = homedir.Expand(c.LogFile); err != nil {
		return fmt.Errorf("expanding log_file: %w", err)
	}
	if c.RetentionDays < 1 {
		c.RetentionDays = DefaultRetentionDays
	}
	if c.MaxPins < 1 {
		c.MaxPins = DefaultMaxPins
	}
	return nil
}

// Save writes cfg as YAML to path, creating parent directories if needed.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.Set("db_path", cfg.DBPath)
	v.Set("retention_days", cfg.RetentionDays)
	v.Set("max_pins", cfg.MaxPins)
	v.Set("log_level", cfg.LogLevel)
	v.Set("log_file", cfg.LogFile)
	v.Set("notifications", cfg.Notifications)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}
