// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlcond_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/text/language"
	. "gopkg.in/check.v1"

	"github.com/canonical/sqlcond"
	"github.com/canonical/sqlcond/dialect"
)

type ConfigSuite struct {
	cleanups []func()
}

var _ = Suite(&ConfigSuite{})

func (s *ConfigSuite) writeConfig(c *C, content string) string {
	path := filepath.Join(c.MkDir(), "sqlcond.yaml")
	c.Assert(os.WriteFile(path, []byte(content), 0o644), IsNil)
	return path
}

func (s *ConfigSuite) setenv(c *C, key, value string) {
	old, ok := os.LookupEnv(key)
	c.Assert(os.Setenv(key, value), IsNil)
	s.cleanups = append(s.cleanups, func() {
		if ok {
			os.Setenv(key, old)
		} else {
			os.Unsetenv(key)
		}
	})
}

func (s *ConfigSuite) cleanup() {
	for _, f := range s.cleanups {
		f()
	}
	s.cleanups = nil
}

func flagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("dialect", "auto", "")
	flags.String("locale", "en", "")
	flags.String("log-level", "info", "")
	flags.Duration("detect-timeout", 5*time.Second, "")
	return flags
}

func (s *ConfigSuite) TestDefaults(c *C) {
	cfg, err := sqlcond.LoadConfig("", nil)
	c.Assert(err, IsNil)
	c.Assert(cfg, DeepEquals, sqlcond.DefaultConfig())

	_, ok, err := cfg.Variant()
	c.Assert(err, IsNil)
	c.Assert(ok, Equals, false)
	tag, err := cfg.Tag()
	c.Assert(err, IsNil)
	c.Assert(tag.String(), Equals, language.English.String())
	level, err := cfg.Level()
	c.Assert(err, IsNil)
	c.Assert(level, Equals, slog.LevelInfo)
}

func (s *ConfigSuite) TestLayers(c *C) {
	path := s.writeConfig(c, `
dialect: postgres
locale: tr
log_level: warn
detect_timeout: 2s
`)
	cfg, err := sqlcond.LoadConfig(path, nil)
	c.Assert(err, IsNil)
	c.Assert(cfg, DeepEquals, sqlcond.Config{
		Dialect:       "postgres",
		Locale:        "tr",
		LogLevel:      "warn",
		DetectTimeout: 2 * time.Second,
	})
	v, ok, err := cfg.Variant()
	c.Assert(err, IsNil)
	c.Assert(ok, Equals, true)
	c.Assert(v, Equals, dialect.PostgreSQL)

	// The environment overrides the file.
	defer s.cleanup()
	s.setenv(c, "SQLCOND_LOG_LEVEL", "debug")
	s.setenv(c, "SQLCOND_DIALECT", "mssql")
	cfg, err = sqlcond.LoadConfig(path, nil)
	c.Assert(err, IsNil)
	c.Assert(cfg.LogLevel, Equals, "debug")
	c.Assert(cfg.Dialect, Equals, "mssql")
	c.Assert(cfg.Locale, Equals, "tr")

	// Flags that were set override everything; the others are ignored.
	flags := flagSet()
	c.Assert(flags.Parse([]string{"--dialect", "sqlite", "--detect-timeout", "250ms"}), IsNil)
	cfg, err = sqlcond.LoadConfig(path, flags)
	c.Assert(err, IsNil)
	c.Assert(cfg, DeepEquals, sqlcond.Config{
		Dialect:       "sqlite",
		Locale:        "tr",
		LogLevel:      "debug",
		DetectTimeout: 250 * time.Millisecond,
	})
}

func (s *ConfigSuite) TestErrors(c *C) {
	_, err := sqlcond.LoadConfig(filepath.Join(c.MkDir(), "missing.yaml"), nil)
	c.Assert(err, ErrorMatches, `cannot read config file .*missing.yaml: .*`)

	path := s.writeConfig(c, "dialect: oracle\n")
	_, err = sqlcond.LoadConfig(path, nil)
	c.Assert(err, ErrorMatches, `invalid config: .*"oracle".*`)

	var tests = []struct {
		summary string
		cfg     sqlcond.Config
		err     string
	}{{
		summary: "bad locale",
		cfg:     sqlcond.Config{Locale: "not a locale!"},
		err:     `invalid config: cannot parse locale "not a locale!": .*`,
	}, {
		summary: "bad log level",
		cfg:     sqlcond.Config{LogLevel: "loud"},
		err:     `invalid config: cannot parse log level "loud": .*`,
	}, {
		summary: "negative timeout",
		cfg:     sqlcond.Config{DetectTimeout: -time.Second},
		err:     `invalid config: negative detect_timeout -1s`,
	}}
	for _, t := range tests {
		c.Assert(t.cfg.Validate(), ErrorMatches, t.err, Commentf("test %q failed", t.summary))
	}

	// The zero Config is valid.
	c.Assert(sqlcond.Config{}.Validate(), IsNil)
}
