package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "AOS_"

// Settings represents the application preferences
type Settings struct {
	Backend string          `toml:"backend"` // "pactl" (default) or "native"
	Logging LoggingSettings `toml:"logging"`
	Notify  NotifySettings  `toml:"notify"`
	Chime   ChimeSettings   `toml:"chime"`
}

// LoggingSettings represents log output settings
type LoggingSettings struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // text, json
}

// NotifySettings represents desktop notification settings
type NotifySettings struct {
	Enabled bool `toml:"enabled"`
}

// ChimeSettings represents the confirmation sound played after a switch
type ChimeSettings struct {
	Path   string  `toml:"path"`   // empty = no chime
	Volume float64 `toml:"volume"` // 0.0-1.0
}

// DefaultSettings returns settings with sensible defaults
func DefaultSettings() *Settings {
	return &Settings{
		Backend: "pactl",
		Logging: LoggingSettings{
			Level:  "info",
			Format: "text",
		},
		Chime: ChimeSettings{
			Volume: 1.0,
		},
	}
}

// LoadSettings reads a settings file on top of the defaults.
// A missing file yields the defaults.
func LoadSettings(path string) (*Settings, error) {
	s := DefaultSettings()
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	if err := toml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("%w: failed to parse settings file %s: %w", ErrConfig, path, err)
	}
	return s, nil
}

// ApplyEnv overrides settings from AOS_* environment variables
func (s *Settings) ApplyEnv(getenv func(string) string) error {
	if v := getenv(EnvPrefix + "BACKEND"); v != "" {
		s.Backend = v
	}
	if v := getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		s.Logging.Level = v
	}
	if v := getenv(EnvPrefix + "LOG_FORMAT"); v != "" {
		s.Logging.Format = v
	}
	if v := getenv(EnvPrefix + "NOTIFY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: invalid %sNOTIFY value %q", ErrConfig, EnvPrefix, v)
		}
		s.Notify.Enabled = b
	}
	if v := getenv(EnvPrefix + "CHIME"); v != "" {
		s.Chime.Path = v
	}
	if v := getenv(EnvPrefix + "VOLUME"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: invalid %sVOLUME value %q", ErrConfig, EnvPrefix, v)
		}
		s.Chime.Volume = f
	}
	return nil
}

// ApplyFlags overrides settings with flags explicitly set on the command line
func (s *Settings) ApplyFlags(flags *pflag.FlagSet) {
	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "backend":
			s.Backend = f.Value.String()
		case "log-level":
			s.Logging.Level = f.Value.String()
		case "log-format":
			s.Logging.Format = f.Value.String()
		case "notify":
			s.Notify.Enabled, _ = flags.GetBool("notify")
		case "chime":
			s.Chime.Path = f.Value.String()
		case "volume":
			s.Chime.Volume, _ = flags.GetFloat64("volume")
		}
	})
}

// Validate validates the settings
func (s *Settings) Validate() error {
	validBackends := map[string]bool{
		"pactl":  true,
		"native": true,
	}
	if !validBackends[s.Backend] {
		return fmt.Errorf("%w: invalid backend: %s (must be one of: pactl, native)", ErrConfig, s.Backend)
	}

	validLevels := map[string]bool{
		"debug":   true,
		"info":    true,
		"warn":    true,
		"warning": true,
		"error":   true,
	}
	if !validLevels[strings.ToLower(s.Logging.Level)] {
		return fmt.Errorf("%w: invalid log level: %s (must be one of: debug, info, warn, error)", ErrConfig, s.Logging.Level)
	}

	if s.Logging.Format != "text" && s.Logging.Format != "json" {
		return fmt.Errorf("%w: invalid log format: %s (must be one of: text, json)", ErrConfig, s.Logging.Format)
	}

	// written so NaN fails too
	if !(s.Chime.Volume >= 0.0 && s.Chime.Volume <= 1.0) {
		return fmt.Errorf("%w: chime volume must be between 0.0 and 1.0 (got %.2f)", ErrConfig, s.Chime.Volume)
	}

	return nil
}
