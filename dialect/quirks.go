// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package dialect

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrUnsupported is returned when a feature has no implementation for a
	// variant.
	ErrUnsupported = errors.New("unsupported for this dialect")
	// ErrInvalidArgument is matched by every ArgumentError.
	ErrInvalidArgument = errors.New("invalid argument")
)

// ArgumentError reports an out of range pagination parameter.
type ArgumentError struct {
	Param string
	Value int64
	Min   int64
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("parameter %s: invalid value %d: must be %d or greater", e.Param, e.Value, e.Min)
}

func (e *ArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// MatchAll is a predicate that is true for every row.
const MatchAll = "1=1"

// MatchNone is a predicate that is false for every row.
const MatchNone = "1=0"

// PlaceholderStyle is the bind parameter syntax a driver understands.
type PlaceholderStyle int

const (
	// PlaceholderQuestion uses ? for every parameter.
	PlaceholderQuestion PlaceholderStyle = iota
	// PlaceholderDollar uses $1, $2, ...
	PlaceholderDollar
	// PlaceholderAtP uses @p1, @p2, ...
	PlaceholderAtP
)

// Placeholder returns the placeholder for the parameter at position n,
// counting from 1.
func (s PlaceholderStyle) Placeholder(n int) string {
	switch s {
	case PlaceholderDollar:
		return "$" + strconv.Itoa(n)
	case PlaceholderAtP:
		return "@p" + strconv.Itoa(n)
	default:
		return "?"
	}
}

// BooleanForm says how a truth test on a boolean-like column is rendered.
type BooleanForm int

const (
	// BooleanStrings compares lower(expr) against sets of string spellings.
	BooleanStrings BooleanForm = iota
	// BooleanNative compares the expression against the dialect's boolean
	// literal.
	BooleanNative
)

// TrueStrings and FalseStrings are the spellings of true and false accepted
// for columns that store booleans as text.
var (
	TrueStrings  = []string{"1", "y", "yes", "true", "on", "enabled"}
	FalseStrings = []string{"0", "n", "no", "false", "off", "disabled"}
)

// FullText is a rendered full-text predicate. When MatchAll is set no word
// survived rendering and SQL and Query are empty.
type FullText struct {
	SQL      string
	Query    string
	MatchAll bool
}

// Quirks is the strategy for one database family.
type Quirks interface {
	Variant() Variant

	// PaginationClause returns the clause that skips offset rows and returns
	// at most limit rows, without a leading space. Nil values are absent.
	// Both values have been validated as non-negative.
	PaginationClause(offset, limit *int64) (string, error)

	// PaginationRequiresOrderBy returns the ORDER BY clause to inject when
	// pagination is used without one, or "" when none is needed.
	PaginationRequiresOrderBy() string

	// EncodeOpaqueValue converts a bind value to its wire form.
	EncodeOpaqueValue(v any) any

	// BooleanLiteralForm reports how IS TRUE and IS FALSE are rendered.
	BooleanLiteralForm() BooleanForm

	// Placeholder returns the driver's bind parameter style.
	Placeholder() PlaceholderStyle

	// IfNullFunction returns the two argument null replacement function.
	IfNullFunction() string

	// XorOperator returns the logical XOR operator, or "" if there is none.
	XorOperator() string

	// FullTextPredicate renders a full-text match of column against the
	// given lowercased words. param is the placeholder for the bound query.
	FullTextPredicate(column, param string, words []string) (FullText, error)
}

// ForVariant returns the quirks of the given variant.
func ForVariant(v Variant) Quirks {
	switch v {
	case MySQL:
		return mysqlQuirks{genericQuirks{variant: MySQL}}
	case MSSQL:
		return mssqlQuirks{genericQuirks{variant: MSSQL}}
	case PostgreSQL:
		return postgresQuirks{genericQuirks{variant: PostgreSQL}}
	case SQLite:
		return sqliteQuirks{genericQuirks{variant: SQLite}}
	case DuckDB:
		return duckdbQuirks{genericQuirks{variant: DuckDB}}
	case H2:
		return genericQuirks{variant: H2}
	default:
		return genericQuirks{variant: Unknown}
	}
}

// ValidateOffsetLimit checks that offset and limit are not negative.
func ValidateOffsetLimit(offset, limit *int64) error {
	if offset != nil && *offset < 0 {
		return &ArgumentError{Param: "offset", Value: *offset, Min: 0}
	}
	if limit != nil && *limit < 0 {
		return &ArgumentError{Param: "limit", Value: *limit, Min: 0}
	}
	return nil
}

// Paginate validates offset and limit and returns the pagination clause
// to append to a statement. ordered reports whether the statement already
// has an ORDER BY; if it does not and the dialect needs one, a constant
// ordering is prepended.
func Paginate(q Quirks, offset, limit *int64, ordered bool) (string, error) {
	if err := ValidateOffsetLimit(offset, limit); err != nil {
		return "", err
	}
	clause, err := q.PaginationClause(offset, limit)
	if err != nil {
		return "", err
	}
	if clause == "" {
		return "", nil
	}
	if !ordered {
		if orderBy := q.PaginationRequiresOrderBy(); orderBy != "" {
			clause = orderBy + " " + clause
		}
	}
	return clause, nil
}

// genericQuirks is the behaviour of a database without special needs. The
// other quirks embed it and override what differs.
type genericQuirks struct {
	variant Variant
}

func (q genericQuirks) Variant() Variant {
	return q.variant
}

func (genericQuirks) PaginationClause(offset, limit *int64) (string, error) {
	var parts []string
	// LIMIT must come first for MariaDB.
	if limit != nil {
		parts = append(parts, "LIMIT "+strconv.FormatInt(*limit, 10))
	}
	if offset != nil {
		parts = append(parts, "OFFSET "+strconv.FormatInt(*offset, 10))
	}
	return strings.Join(parts, " "), nil
}

func (genericQuirks) PaginationRequiresOrderBy() string {
	return ""
}

func (genericQuirks) EncodeOpaqueValue(v any) any {
	return v
}

func (genericQuirks) BooleanLiteralForm() BooleanForm {
	return BooleanStrings
}

func (genericQuirks) Placeholder() PlaceholderStyle {
	return PlaceholderQuestion
}

func (genericQuirks) IfNullFunction() string {
	return "IFNULL"
}

func (genericQuirks) XorOperator() string {
	return ""
}

func (q genericQuirks) FullTextPredicate(column, param string, words []string) (FullText, error) {
	return FullText{}, fmt.Errorf("cannot render full-text search on %s: %w", q.variant, ErrUnsupported)
}

type postgresQuirks struct {
	genericQuirks
}

func (postgresQuirks) BooleanLiteralForm() BooleanForm {
	return BooleanNative
}

func (postgresQuirks) Placeholder() PlaceholderStyle {
	return PlaceholderDollar
}

func (postgresQuirks) IfNullFunction() string {
	return "COALESCE"
}

type duckdbQuirks struct {
	genericQuirks
}

func (duckdbQuirks) BooleanLiteralForm() BooleanForm {
	return BooleanNative
}

// sqliteQuirks patches a missing limit because SQLite only accepts OFFSET
// after LIMIT. A negative limit means no limit.
type sqliteQuirks struct {
	genericQuirks
}

func (q sqliteQuirks) PaginationClause(offset, limit *int64) (string, error) {
	if offset != nil && limit == nil {
		unbounded := int64(-1)
		limit = &unbounded
	}
	return q.genericQuirks.PaginationClause(offset, limit)
}
