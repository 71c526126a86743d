// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlcond

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/canonical/sqlcond/internal/typeinfo"
)

var identifierRx = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z_0-9]*(\.[a-zA-Z_][a-zA-Z_0-9]*)?$`)

// Table is the metadata of an entity stored in a table. Its properties are
// the "db" tags of the entity struct, which are also the column names.
// A Table is immutable.
type Table struct {
	name  string
	alias string
	info  *typeinfo.Info
}

// NewTable returns the table called name holding entities of the type of
// sample, which must be a struct or a pointer to one. The reflection
// information of the type is generated once and cached.
func NewTable(name string, sample any) (*Table, error) {
	if !identifierRx.MatchString(name) {
		return nil, fmt.Errorf("cannot use table name %q: not an identifier", name)
	}
	info, err := typeinfo.GetTypeInfo(sample)
	if err != nil {
		return nil, fmt.Errorf("cannot use %T for table %s: %w", sample, name, err)
	}
	if len(info.Fields) == 0 {
		return nil, fmt.Errorf("cannot use %T for table %s: no fields with db tags", sample, name)
	}
	return &Table{name: name, info: info}, nil
}

// MustNewTable is the same as [NewTable] except that it panics on error.
func MustNewTable(name string, sample any) *Table {
	t, err := NewTable(name, sample)
	if err != nil {
		panic(err)
	}
	return t
}

// As returns the table under an alias. An empty alias removes it.
func (t *Table) As(alias string) *Table {
	if alias != "" && !identifierRx.MatchString(alias) {
		panic(fmt.Sprintf("cannot use table alias %q: not an identifier", alias))
	}
	return &Table{name: t.name, alias: alias, info: t.info}
}

// Name returns the table name.
func (t *Table) Name() string {
	return t.name
}

// Alias returns the table alias, or "".
func (t *Table) Alias() string {
	return t.alias
}

// qualifier is the prefix of column names.
func (t *Table) qualifier() string {
	if t.alias != "" {
		return t.alias
	}
	return t.name
}

// from returns the table reference of a FROM clause.
func (t *Table) from() string {
	if t.alias != "" {
		return t.name + " " + t.alias
	}
	return t.name
}

// Properties returns the column names of the entity in declaration order.
func (t *Table) Properties() []string {
	return t.info.Tags()
}

// Columns returns the qualified column names of the entity.
func (t *Table) Columns() []string {
	tags := t.info.Tags()
	cols := make([]string, len(tags))
	for i, tag := range tags {
		cols[i] = t.qualifier() + "." + tag
	}
	return cols
}

// ResolveColumn returns the qualified column of a property. The property
// is a column name, the name of a tagged struct field or a column name
// qualified with the table name or alias.
func (t *Table) ResolveColumn(property string) (string, error) {
	name := property
	if q, col, ok := strings.Cut(property, "."); ok {
		if q != t.name && q != t.alias {
			return "", fmt.Errorf("%w: %q is not a column of %s", ErrUnknownProperty, property, t.from())
		}
		name = col
	}
	f, ok := t.info.Field(name)
	if !ok {
		return "", fmt.Errorf("%w: %q is not a column of %s", ErrUnknownProperty, property, t.from())
	}
	return t.qualifier() + "." + f.Tag, nil
}
