// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package condition

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// ParametrizedSQL is a SQL fragment with :name placeholders together with
// the value bound to every name. It is immutable.
type ParametrizedSQL struct {
	sql    string
	params map[string]any
}

// MatchAll is a fragment that is true for every row.
var MatchAll = ParametrizedSQL{sql: "1=1"}

// NewParametrizedSQL returns a fragment of the given SQL and parameters. The
// parameter map is copied.
func NewParametrizedSQL(sql string, params map[string]any) ParametrizedSQL {
	return ParametrizedSQL{sql: sql, params: copyParams(params)}
}

func copyParams(params map[string]any) map[string]any {
	if len(params) == 0 {
		return nil
	}
	c := make(map[string]any, len(params))
	for k, v := range params {
		c[k] = v
	}
	return c
}

// SQL returns the SQL text.
func (p ParametrizedSQL) SQL() string {
	return p.sql
}

// Params returns a copy of the parameters.
func (p ParametrizedSQL) Params() map[string]any {
	c := copyParams(p.params)
	if c == nil {
		c = map[string]any{}
	}
	return c
}

// Param returns the value bound to name.
func (p ParametrizedSQL) Param(name string) (any, bool) {
	v, ok := p.params[name]
	return v, ok
}

// Names returns the parameter names in sorted order.
func (p ParametrizedSQL) Names() []string {
	names := make([]string, 0, len(p.params))
	for name := range p.params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Equal reports whether p and o have the same text and bindings.
func (p ParametrizedSQL) Equal(o ParametrizedSQL) bool {
	if p.sql != o.sql || len(p.params) != len(o.params) {
		return false
	}
	for k, v := range p.params {
		ov, ok := o.params[k]
		if !ok || !reflect.DeepEqual(v, ov) {
			return false
		}
	}
	return true
}

// String returns the SQL followed by the sorted parameters, e.g.
// "(a) = (:p1_1){p1_1=5}".
func (p ParametrizedSQL) String() string {
	var sb strings.Builder
	sb.WriteString(p.sql)
	sb.WriteString("{")
	for i, name := range p.Names() {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s=%v", name, p.params[name])
	}
	sb.WriteString("}")
	return sb.String()
}

// Merge returns a fragment with the given SQL and the union of the
// parameters of the fragments. A name bound to different values in two
// fragments is an error.
func Merge(sql string, fragments ...ParametrizedSQL) (ParametrizedSQL, error) {
	var params map[string]any
	for _, f := range fragments {
		for name, v := range f.params {
			if params == nil {
				params = make(map[string]any)
			}
			if prev, ok := params[name]; ok && !reflect.DeepEqual(prev, v) {
				return ParametrizedSQL{}, fmt.Errorf("%w: %q bound to %v and %v", ErrParameterCollision, name, prev, v)
			}
			params[name] = v
		}
	}
	return ParametrizedSQL{sql: sql, params: params}, nil
}

// MergeWithOperator joins two fragments with a binary operator,
// parenthesising both sides: "(left) OP (right)".
func MergeWithOperator(op string, left, right ParametrizedSQL) (ParametrizedSQL, error) {
	return Merge("("+left.sql+") "+op+" ("+right.sql+")", left, right)
}
