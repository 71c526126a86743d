// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package dialect

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"log/slog"
	"reflect"
	"strings"
)

// Recognizer matches a product name reported by a database.
type Recognizer struct {
	Variant Variant
	Match   func(product string) bool
}

func containsFold(words ...string) func(string) bool {
	return func(product string) bool {
		product = strings.ToLower(product)
		for _, w := range words {
			if strings.Contains(product, strings.ToLower(w)) {
				return true
			}
		}
		return false
	}
}

// DefaultRecognizers are tried in order; the first match wins.
var DefaultRecognizers = []Recognizer{
	{Variant: MySQL, Match: containsFold("MariaDB", "MySQL")},
	{Variant: PostgreSQL, Match: containsFold("PostgreSQL")},
	{Variant: H2, Match: func(product string) bool { return product == "H2" }},
	{Variant: MSSQL, Match: containsFold("Microsoft SQL Server")},
	{Variant: SQLite, Match: containsFold("SQLite")},
	{Variant: DuckDB, Match: containsFold("DuckDB")},
}

// Recognize returns the variant of the first default recognizer that matches
// product, or Unknown.
func Recognize(product string) Variant {
	v, _ := recognize(DefaultRecognizers, product)
	return v
}

func recognize(recognizers []Recognizer, product string) (Variant, bool) {
	for _, r := range recognizers {
		if r.Match(product) {
			return r.Variant, true
		}
	}
	return Unknown, false
}

// DefaultProbes are queries whose single text result names the product. A
// probe that fails or whose result is not recognised moves on to the next.
var DefaultProbes = []string{
	"SELECT @@version_comment",
	"SELECT version()",
	"SELECT @@VERSION",
}

// driverProducts maps the package name of a database/sql driver type to
// the product it talks to.
var driverProducts = map[string]string{
	"sqlite3": "SQLite",               // github.com/mattn/go-sqlite3
	"sqlite":  "SQLite",               // modernc.org/sqlite
	"stdlib":  "PostgreSQL",           // github.com/jackc/pgx/v5/stdlib
	"pq":      "PostgreSQL",           // github.com/lib/pq
	"mssql":   "Microsoft SQL Server", // github.com/microsoft/go-mssqldb
	"duckdb":  "DuckDB",               // github.com/marcboeker/go-duckdb
}

// DriverProduct returns the product served by a known driver, or "".
func DriverProduct(drv driver.Driver) string {
	if drv == nil {
		return ""
	}
	t := reflect.TypeOf(drv)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	pkg, _, ok := strings.Cut(t.String(), ".")
	if !ok {
		return ""
	}
	return driverProducts[pkg]
}

// Queryer is the part of *sql.DB, *sql.Conn and *sql.Tx used by detection.
type Queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Detection is the outcome of detecting a database.
type Detection struct {
	Product string
	Variant Variant
}

// Detector finds the variant of a live database.
type Detector struct {
	// Recognizers defaults to DefaultRecognizers.
	Recognizers []Recognizer
	// Probes defaults to DefaultProbes.
	Probes []string
	// Logger defaults to discarding.
	Logger *slog.Logger
}

func (d *Detector) logger() *slog.Logger {
	if d == nil || d.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return d.Logger
}

func (d *Detector) recognizers() []Recognizer {
	if d == nil || d.Recognizers == nil {
		return DefaultRecognizers
	}
	return d.Recognizers
}

func (d *Detector) probes() []string {
	if d == nil || d.Probes == nil {
		return DefaultProbes
	}
	return d.Probes
}

// Detect returns the product name and variant of db. If db exposes its
// driver (as *sql.DB does) and the driver is known, no query is run.
// Otherwise the probes are run in turn. Detect only fails if ctx is done.
func (d *Detector) Detect(ctx context.Context, db Queryer) (Detection, error) {
	log := d.logger()
	recognizers := d.recognizers()

	if withDriver, ok := db.(interface{ Driver() driver.Driver }); ok {
		if product := DriverProduct(withDriver.Driver()); product != "" {
			if v, ok := recognize(recognizers, product); ok {
				log.Debug("detected database from driver", "product", product, "variant", v)
				return Detection{Product: product, Variant: v}, nil
			}
		}
	}

	var first string
	for _, probe := range d.probes() {
		var product string
		err := db.QueryRowContext(ctx, probe).Scan(&product)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Detection{}, ctxErr
		}
		if err != nil {
			log.Debug("detection probe failed", "probe", probe, "err", err)
			continue
		}
		if first == "" {
			first = product
		}
		if v, ok := recognize(recognizers, product); ok {
			log.Debug("detected database from probe", "probe", probe, "product", product, "variant", v)
			return Detection{Product: product, Variant: v}, nil
		}
	}
	log.Debug("database not recognised", "product", first)
	return Detection{Product: first, Variant: Unknown}, nil
}
