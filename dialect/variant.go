// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package dialect

import (
	"fmt"
	"strings"
)

// Variant identifies a database family.
type Variant int

const (
	// Unknown is a database with no special behaviour.
	Unknown Variant = iota
	// MySQL covers MySQL and MariaDB.
	MySQL
	PostgreSQL
	H2
	MSSQL
	SQLite
	DuckDB
)

var variantNames = map[Variant]string{
	Unknown:    "unknown",
	MySQL:      "mysql",
	PostgreSQL: "postgresql",
	H2:         "h2",
	MSSQL:      "mssql",
	SQLite:     "sqlite",
	DuckDB:     "duckdb",
}

var variantAliases = map[string]Variant{
	"mariadb":    MySQL,
	"postgres":   PostgreSQL,
	"pg":         PostgreSQL,
	"sqlserver":  MSSQL,
	"sqlite3":    SQLite,
	"generic":    Unknown,
	"":           Unknown,
	"duck":       DuckDB,
	"postgresql": PostgreSQL,
}

func (v Variant) String() string {
	if name, ok := variantNames[v]; ok {
		return name
	}
	return fmt.Sprintf("Variant(%d)", int(v))
}

// ParseVariant returns the variant with the given name. Names are case
// insensitive and a few common aliases such as "mariadb" or "postgres" are
// accepted.
func ParseVariant(name string) (Variant, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for v, n := range variantNames {
		if n == name {
			return v, nil
		}
	}
	if v, ok := variantAliases[name]; ok {
		return v, nil
	}
	return Unknown, fmt.Errorf("unknown database variant %q", name)
}

// Variants returns every known variant in declaration order.
func Variants() []Variant {
	return []Variant{Unknown, MySQL, PostgreSQL, H2, MSSQL, SQLite, DuckDB}
}
