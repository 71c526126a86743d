// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/canonical/sqlcond/condition"
	"github.com/canonical/sqlcond/dialect"
	"github.com/canonical/sqlcond/internal/bind"
	"github.com/canonical/sqlcond/internal/fulltext"
)

func (a *app) newDetectCommand() *cobra.Command {
	var driverName, dsn string
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Detect the dialect of a database",
		Long: `Connect to a database and print the product name it reports and the
dialect it is detected as.

Drivers: sqlite3, sqlite (pure Go), pgx, duckdb.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sqldb, err := sql.Open(driverName, dsn)
			if err != nil {
				return fmt.Errorf("cannot open database: %w", err)
			}
			defer sqldb.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if a.cfg.DetectTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, a.cfg.DetectTimeout)
				defer cancel()
			}
			detector := dialect.Detector{Logger: a.logger}
			d, err := detector.Detect(ctx, sqldb)
			if err != nil {
				return fmt.Errorf("cannot detect database dialect: %w", err)
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "product: %s\n", d.Product)
			_, _ = fmt.Fprintf(out, "variant: %s\n", d.Variant)
			return nil
		},
	}
	cmd.Flags().StringVar(&driverName, "driver", "sqlite3", "database/sql driver name")
	cmd.Flags().StringVar(&dsn, "dsn", ":memory:", "Data source name")
	return cmd
}

func (a *app) newTokenizeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tokenize TEXT...",
		Short: "Split a full-text query into words",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			words := fulltext.Tokenize(strings.Join(args, " "), a.locale())
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "tokens: %s\n", strings.Join(words, " "))
			_, _ = fmt.Fprintf(out, "mysql: %s\n", dialect.MySQLBooleanQuery(words))
			return nil
		},
	}
}

func (a *app) newPaginateCommand() *cobra.Command {
	var offset, limit int64
	var ordered bool
	cmd := &cobra.Command{
		Use:   "paginate",
		Short: "Print the pagination clause of a dialect",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := a.variant()
			if err != nil {
				return err
			}
			var o, l *int64
			if cmd.Flags().Changed("offset") {
				o = &offset
			}
			if cmd.Flags().Changed("limit") {
				l = &limit
			}
			clause, err := dialect.Paginate(dialect.ForVariant(v), o, l, ordered)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), clause)
			return nil
		},
	}
	cmd.Flags().Int64Var(&offset, "offset", 0, "Rows to skip")
	cmd.Flags().Int64Var(&limit, "limit", 0, "Maximum rows to return")
	cmd.Flags().BoolVar(&ordered, "ordered", false, "The statement already has an ORDER BY")
	return cmd
}

func (a *app) newCompileCommand() *cobra.Command {
	var column, query string
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile a full-text condition",
		Long: `Compile a full-text search of a column for a dialect and print the SQL
with the driver's placeholders and its arguments.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := a.variant()
			if err != nil {
				return err
			}
			cond := condition.FullTextMatches(condition.Column{Property: column}, query)
			out := cmd.OutOrStdout()
			if condition.IsNoCondition(cond) {
				_, _ = fmt.Fprintln(out, "no condition")
				return nil
			}
			quirks := dialect.ForVariant(v)
			compiler := condition.Compiler{Quirks: quirks, Locale: a.locale()}
			psql, err := compiler.Compile(cond)
			if err != nil {
				return err
			}
			a.logger.Debug("compiled condition", "condition", cond, "sql", psql.SQL())
			stmt, err := bind.Bind(psql.SQL(), psql.Params(), quirks.Placeholder())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "sql: %s\n", stmt.SQL)
			for i, arg := range stmt.Args {
				_, _ = fmt.Fprintf(out, "arg %d: %v\n", i+1, arg)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&column, "column", "", "Column to search")
	cmd.Flags().StringVar(&query, "fulltext", "", "Full-text query")
	_ = cmd.MarkFlagRequired("column")
	_ = cmd.MarkFlagRequired("fulltext")
	return cmd
}
