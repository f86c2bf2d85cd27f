// Package config loads the settings of the lattice-enumerate command from
// defaults, an optional YAML file, LATTICE_* environment variables and
// command-line flags, in increasing order of precedence.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/rjb3977/lattice/strategy"
)

// Keys of the settings, as they appear in a config file
const (
	KeyThreads  = "threads"
	KeyRule     = "rule"
	KeyLogLevel = "log_level"
	KeyFormat   = "format"
	KeyMetrics  = "metrics"
	KeyVerify   = "verify"
)

// Output formats
const (
	FormatText = "text"
	FormatYAML = "yaml"
)

const envPrefix = "LATTICE"

// Config holds the settings of one run
type Config struct {
	// Threads caps the goroutines searching at once; 0 means one per CPU
	Threads  int    `mapstructure:"threads"`
	Rule     string `mapstructure:"rule"`
	LogLevel string `mapstructure:"log_level"`
	Format   string `mapstructure:"format"`
	// Metrics logs the search counters after the run
	Metrics bool `mapstructure:"metrics"`
	// Verify checks every point against the box before printing it
	Verify bool `mapstructure:"verify"`
}

// New returns a viper instance with defaults and environment bindings
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// SetDefaults sets the default value of every key on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyThreads, 0)
	v.SetDefault(KeyRule, strategy.NameSteepest)
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyFormat, FormatText)
	v.SetDefault(KeyMetrics, false)
	v.SetDefault(KeyVerify, false)
}

// Load reads the YAML file at path into v if path is not empty, and
// returns the validated settings
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("Load: failed to read config: %w", err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("Load: failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}
	return &cfg, nil
}

// Validate reports the first setting that is out of range
func (c *Config) Validate() error {
	if c.Threads < 0 {
		return fmt.Errorf("%s = %d is negative", KeyThreads, c.Threads)
	}
	if _, err := strategy.ByName(c.Rule); err != nil {
		return fmt.Errorf("%s: %q", KeyRule, err.Error())
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%s: %q", KeyLogLevel, err.Error())
	}
	if c.Format != FormatText && c.Format != FormatYAML {
		return fmt.Errorf("%s = %q is not %q or %q", KeyFormat, c.Format, FormatText, FormatYAML)
	}
	return nil
}

// NewLogger returns a logger writing to w at the configured level
func (c *Config) NewLogger(w io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}
