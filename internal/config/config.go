// Package config loads the command line tool settings: an optional YAML
// file first, then FORMTREE_* environment variables on top.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "FORMTREE"

	ConfigFileName      = ".formtree"
	ConfigFileExtension = ".yaml"
)

var (
	ErrInvalidLogLevel  = errors.New("invalid log level")
	ErrInvalidLogFormat = errors.New("invalid log format")
	ErrInvalidTimeout   = errors.New("timeout must be positive")
	ErrEmptyDBPath      = errors.New("database path is empty")
)

type Config struct {
	DB               string        `mapstructure:"db" yaml:"db"`
	LogLevel         string        `mapstructure:"log_level" yaml:"log_level"`
	LogFormat        string        `mapstructure:"log_format" yaml:"log_format"`
	StrictDirectives bool          `mapstructure:"strict_directives" yaml:"strict_directives"`
	BusyTimeout      time.Duration `mapstructure:"busy_timeout" yaml:"busy_timeout"`
	LockTimeout      time.Duration `mapstructure:"lock_timeout" yaml:"lock_timeout"`
}

func Default() Config {
	return Config{
		DB:          "formtree.db",
		LogLevel:    "info",
		LogFormat:   "text",
		BusyTimeout: 5 * time.Second,
		LockTimeout: 10 * time.Second,
	}
}

// DefaultPath is $HOME/.formtree.yaml, or empty when the home directory is
// unknown.
func DefaultPath() string {
	home, err := homedir.Dir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ConfigFileName+ConfigFileExtension)
}

// Load reads path, applies the environment and validates the result. An
// explicit path must exist; the default path is optional.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	def := Default()
	v.SetDefault("db", def.DB)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_format", def.LogFormat)
	v.SetDefault("strict_directives", def.StrictDirectives)
	v.SetDefault("busy_timeout", def.BusyTimeout)
	v.SetDefault("lock_timeout", def.LockTimeout)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	optional := false
	if path == "" {
		path = DefaultPath()
		optional = true
	}
	if path != "" {
		if _, err := os.Stat(path); err == nil || !optional {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DB) == "" {
		return ErrEmptyDBPath
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.LogFormat)
	}
	if c.BusyTimeout <= 0 {
		return fmt.Errorf("busy_timeout: %w", ErrInvalidTimeout)
	}
	if c.LockTimeout <= 0 {
		return fmt.Errorf("lock_timeout: %w", ErrInvalidTimeout)
	}
	return nil
}

func (c Config) Level() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.LogLevel)
	}
}

// NewLogger builds the slog logger described by the config.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := c.Level()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
