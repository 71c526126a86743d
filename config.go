// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlcond

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
	"golang.org/x/text/language"

	"github.com/canonical/sqlcond/dialect"
)

// EnvPrefix is the prefix of the environment variables read by LoadConfig.
const EnvPrefix = "SQLCOND_"

// DialectAuto asks for the dialect to be detected from the database.
const DialectAuto = "auto"

// Config is the configuration of a DB.
type Config struct {
	// Dialect overrides dialect detection unless it is "auto".
	Dialect string `koanf:"dialect"`
	// Locale is the BCP 47 tag used to find the words of full-text
	// queries.
	Locale string `koanf:"locale"`
	// LogLevel is one of debug, info, warn or error.
	LogLevel string `koanf:"log_level"`
	// DetectTimeout bounds the probe queries of dialect detection.
	DetectTimeout time.Duration `koanf:"detect_timeout"`
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		Dialect:       DialectAuto,
		Locale:        "en",
		LogLevel:      "info",
		DetectTimeout: 5 * time.Second,
	}
}

// LoadConfig loads configuration from defaults, an optional YAML file,
// SQLCOND_ environment variables and the flags that were set, in increasing
// order of precedence. Flag names use dashes where keys use underscores.
func LoadConfig(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	def := DefaultConfig()
	if err := k.Load(confmap.Provider(map[string]any{
		"dialect":        def.Dialect,
		"locale":         def.Locale,
		"log_level":      def.LogLevel,
		"detect_timeout": def.DetectTimeout.String(),
	}, "."), nil); err != nil {
		return Config{}, fmt.Errorf("cannot load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("cannot read config file %s: %w", path, err)
		}
	}

	// SQLCOND_LOG_LEVEL -> log_level
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return Config{}, fmt.Errorf("cannot load environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return Config{}, fmt.Errorf("cannot load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("cannot decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that every setting can be parsed.
func (c Config) Validate() error {
	if _, _, err := c.Variant(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.Tag(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.Level(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.DetectTimeout < 0 {
		return fmt.Errorf("invalid config: negative detect_timeout %s", c.DetectTimeout)
	}
	return nil
}

// Variant returns the dialect override. ok is false when the dialect is
// to be detected.
func (c Config) Variant() (v dialect.Variant, ok bool, err error) {
	if c.Dialect == "" || strings.EqualFold(c.Dialect, DialectAuto) {
		return dialect.Unknown, false, nil
	}
	v, err = dialect.ParseVariant(c.Dialect)
	if err != nil {
		return dialect.Unknown, false, err
	}
	return v, true, nil
}

// Tag returns the locale. An empty locale is language.Und.
func (c Config) Tag() (language.Tag, error) {
	if c.Locale == "" {
		return language.Und, nil
	}
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.Und, fmt.Errorf("cannot parse locale %q: %w", c.Locale, err)
	}
	return tag, nil
}

// Level returns the log level. An empty level is info.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("cannot parse log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
