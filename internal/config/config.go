// Package config reads the patlight settings file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"

	"github.com/Hanaasagi/patlight/pkg/patternmatch"
)

const (
	AppName = "patlight"

	DefaultHighlightBackground = "rgba(0, 0, 255, 1)"
	DefaultHighlightForeground = "rgba(255, 255, 255, 0.7)"
	DefaultPatternsFile        = "patterns.json"
	DefaultConfigFile          = "config.toml"

	// EnvConfigPath overrides the settings file location.
	EnvConfigPath = "PATLIGHT_CONFIG"
)

// Keys understood by Config.Value.
const (
	KeyHighlightBackground = "highlight.background"
	KeyHighlightForeground = "highlight.foreground"
	KeyIsolationPrefix     = "isolation.prefix"
	KeyIsolationPostfix    = "isolation.postfix"
	KeyPatternsPath        = "patterns.path"
	KeyScanTimeout         = "scan.timeout"
)

// ConfigurationMissingError reports a key with no value in the file.
type ConfigurationMissingError struct {
	Key string
}

func (e *ConfigurationMissingError) Error() string {
	return fmt.Sprintf("configuration value %q is not set", e.Key)
}

// Config mirrors the TOML file. Absent keys stay nil.
type Config struct {
	Highlight HighlightConfig `toml:"highlight"`
	Isolation IsolationConfig `toml:"isolation"`
	Patterns  PatternsConfig  `toml:"patterns"`
	Scan      ScanConfig      `toml:"scan"`
}

type HighlightConfig struct {
	Background *string `toml:"background"`
	Foreground *string `toml:"foreground"`
}

type IsolationConfig struct {
	Prefix  *string `toml:"prefix"`
	Postfix *string `toml:"postfix"`
}

type PatternsConfig struct {
	Path *string `toml:"path"`
}

type ScanConfig struct {
	Timeout *string `toml:"timeout"`
}

// Value returns the raw value for key, or a *ConfigurationMissingError.
func (c *Config) Value(key string) (string, error) {
	var v *string
	switch key {
	case KeyHighlightBackground:
		v = c.Highlight.Background
	case KeyHighlightForeground:
		v = c.Highlight.Foreground
	case KeyIsolationPrefix:
		v = c.Isolation.Prefix
	case KeyIsolationPostfix:
		v = c.Isolation.Postfix
	case KeyPatternsPath:
		v = c.Patterns.Path
	case KeyScanTimeout:
		v = c.Scan.Timeout
	default:
		return "", fmt.Errorf("unknown configuration key %q", key)
	}
	if v == nil {
		return "", &ConfigurationMissingError{Key: key}
	}
	return *v, nil
}

// Settings is the resolved configuration snapshot handed to the highlighter.
type Settings struct {
	HighlightBackground string
	HighlightForeground string
	Isolation           patternmatch.IsolationBoundary
	PatternsPath        string
	ScanTimeout         time.Duration
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		HighlightBackground: DefaultHighlightBackground,
		HighlightForeground: DefaultHighlightForeground,
		Isolation:           patternmatch.DefaultIsolation(),
		PatternsPath:        DefaultPatternsPath(),
		ScanTimeout:         patternmatch.DefaultMatchTimeout,
	}
}

// DefaultPatternsPath is where the pattern-set file lives unless configured.
func DefaultPatternsPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, DefaultPatternsFile)
}

// DefaultPath returns the settings file location, honouring PATLIGHT_CONFIG.
func DefaultPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return filepath.Join(xdg.ConfigHome, AppName, DefaultConfigFile)
}

// Resolve substitutes the default for every missing value.
func (c *Config) Resolve() (Settings, error) {
	defaults := Defaults()
	s := defaults

	lookup := func(key, fallback string) string {
		v, err := c.Value(key)
		var missing *ConfigurationMissingError
		if errors.As(err, &missing) {
			slog.Debug("configuration value missing, using default", "key", key, "default", fallback)
			return fallback
		}
		return v
	}

	s.HighlightBackground = lookup(KeyHighlightBackground, defaults.HighlightBackground)
	s.HighlightForeground = lookup(KeyHighlightForeground, defaults.HighlightForeground)
	s.Isolation.Prefix = lookup(KeyIsolationPrefix, defaults.Isolation.Prefix)
	s.Isolation.Postfix = lookup(KeyIsolationPostfix, defaults.Isolation.Postfix)
	s.PatternsPath = expandHome(lookup(KeyPatternsPath, defaults.PatternsPath))

	timeout := lookup(KeyScanTimeout, defaults.ScanTimeout.String())
	d, err := time.ParseDuration(timeout)
	if err != nil {
		return s, fmt.Errorf("%s: %w", KeyScanTimeout, err)
	}
	s.ScanTimeout = d

	return s, nil
}

func expandHome(p string) string {
	if len(p) < 2 || p[:2] != "~/" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[2:])
}

// LoadConfigFromFile decodes path. A missing file yields an empty Config.
func LoadConfigFromFile(path string) (*Config, error) {
	config := &Config{}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config, nil // no config file, every value falls back
	}

	if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, fmt.Errorf("failed to decode TOML config: %w", err)
	}

	return config, nil
}

// Load reads and resolves the settings file at path.
func Load(path string) (Settings, error) {
	cfg, err := LoadConfigFromFile(path)
	if err != nil {
		return Settings{}, err
	}
	return cfg.Resolve()
}
