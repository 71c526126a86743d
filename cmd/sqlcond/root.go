// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/canonical/sqlcond"
	"github.com/canonical/sqlcond/dialect"
)

// app is the state shared by the commands once the configuration is
// loaded.
type app struct {
	cfgFile string
	cfg     sqlcond.Config
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "sqlcond",
		Short: "Inspect SQL conditions and database dialects",
		Long: `sqlcond shows how conditions are rendered for each database dialect.

Configuration is read from the file given with --config, then from SQLCOND_
environment variables, then from flags.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			cfg, err := sqlcond.LoadConfig(a.cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			level, err := cfg.Level()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			a.logger.Debug("loaded configuration", "dialect", cfg.Dialect, "locale", cfg.Locale, "detect_timeout", cfg.DetectTimeout)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	def := sqlcond.DefaultConfig()
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "YAML config file")
	flags.String("log-level", def.LogLevel, "Log level (debug|info|warn|error)")
	flags.String("dialect", def.Dialect, "Database dialect, or auto to detect it")
	flags.String("locale", def.Locale, "Locale of full-text queries")
	flags.Duration("detect-timeout", def.DetectTimeout, "Time allowed for dialect detection")

	_ = rootCmd.RegisterFlagCompletionFunc("dialect", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		names := []string{sqlcond.DialectAuto}
		for _, v := range dialect.Variants() {
			names = append(names, v.String())
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(a.newDetectCommand())
	rootCmd.AddCommand(a.newTokenizeCommand())
	rootCmd.AddCommand(a.newPaginateCommand())
	rootCmd.AddCommand(a.newCompileCommand())
	return rootCmd
}

// variant returns the configured dialect, which must not be auto.
func (a *app) variant() (dialect.Variant, error) {
	v, ok, err := a.cfg.Variant()
	if err != nil {
		return dialect.Unknown, err
	}
	if !ok {
		return dialect.Unknown, fmt.Errorf("a dialect is needed, use --dialect")
	}
	return v, nil
}

func (a *app) locale() language.Tag {
	tag, _ := a.cfg.Tag()
	return tag
}
