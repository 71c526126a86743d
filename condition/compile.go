// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package condition

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"golang.org/x/text/language"

	"github.com/canonical/sqlcond/dialect"
)

// ColumnResolver resolves an entity property to a qualified column name
// such as "person.name" or "p.name".
type ColumnResolver interface {
	ResolveColumn(property string) (string, error)
}

// ColumnResolverFunc adapts a function to a ColumnResolver.
type ColumnResolverFunc func(property string) (string, error)

func (f ColumnResolverFunc) ResolveColumn(property string) (string, error) {
	return f(property)
}

// compilationCount numbers compilations so that parameter names from two
// compilations never clash.
var compilationCount uint64

// Compiler turns conditions into parametrized SQL. The zero value compiles
// for a database with no quirks and uses property names as column names.
type Compiler struct {
	// Quirks defaults to dialect.ForVariant(dialect.Unknown).
	Quirks dialect.Quirks
	// Columns defaults to using the property as the column name.
	Columns ColumnResolver
	// Locale is used to find the words of full-text queries.
	Locale language.Tag
}

// Compile returns the SQL of cond. Every literal becomes a fresh :name
// placeholder.
func (c Compiler) Compile(cond Condition) (ParametrizedSQL, error) {
	cc := c.newCompilation()
	psql, err := cc.condition(cond)
	if err != nil {
		return ParametrizedSQL{}, fmt.Errorf("cannot compile condition: %w", err)
	}
	return psql, nil
}

// CompileExpression returns the SQL of e.
func (c Compiler) CompileExpression(e Expression) (ParametrizedSQL, error) {
	cc := c.newCompilation()
	psql, err := cc.expression(e)
	if err != nil {
		return ParametrizedSQL{}, fmt.Errorf("cannot compile expression: %w", err)
	}
	return psql, nil
}

// Compile compiles cond with the zero Compiler.
func Compile(cond Condition) (ParametrizedSQL, error) {
	return Compiler{}.Compile(cond)
}

// compilation is the state of one Compile call.
type compilation struct {
	quirks  dialect.Quirks
	columns ColumnResolver
	locale  language.Tag
	// prefix is unique to this compilation.
	prefix    string
	nextParam int
}

func (c Compiler) newCompilation() *compilation {
	cc := &compilation{
		quirks:  c.Quirks,
		columns: c.Columns,
		locale:  c.Locale,
		prefix:  "p" + strconv.FormatUint(atomic.AddUint64(&compilationCount, 1), 36) + "_",
	}
	if cc.quirks == nil {
		cc.quirks = dialect.ForVariant(dialect.Unknown)
	}
	return cc
}

// param returns a fresh parameter name.
func (cc *compilation) param() string {
	cc.nextParam++
	return cc.prefix + strconv.Itoa(cc.nextParam)
}

func (cc *compilation) expression(e Expression) (ParametrizedSQL, error) {
	switch e := e.(type) {
	case nil:
		return ParametrizedSQL{}, errors.New("nil expression")
	case Column:
		if cc.columns == nil {
			return ParametrizedSQL{sql: e.Property}, nil
		}
		col, err := cc.columns.ResolveColumn(e.Property)
		if err != nil {
			return ParametrizedSQL{}, err
		}
		return ParametrizedSQL{sql: col}, nil
	case Literal:
		name := cc.param()
		return ParametrizedSQL{sql: ":" + name, params: map[string]any{name: e.Value}}, nil
	case Lower:
		return cc.function("LOWER", e.Arg)
	case Cast:
		arg, err := cc.expression(e.Arg)
		if err != nil {
			return ParametrizedSQL{}, err
		}
		return ParametrizedSQL{sql: "CAST((" + arg.sql + ") AS " + e.SQLType + ")", params: arg.params}, nil
	case Coalesce:
		if len(e.Args) == 0 {
			return ParametrizedSQL{}, fmt.Errorf("cannot compile %s: no arguments", e)
		}
		return cc.function("COALESCE", e.Args...)
	case IfNull:
		return cc.function(cc.quirks.IfNullFunction(), e.Arg, e.Fallback)
	case NullIf:
		return cc.function("NULLIF", e.Arg, e.Other)
	}
	return ParametrizedSQL{}, fmt.Errorf("cannot compile expression of type %T", e)
}

// function renders NAME(arg1, arg2, ...).
func (cc *compilation) function(name string, args ...Expression) (ParametrizedSQL, error) {
	sqls := make([]string, len(args))
	frags := make([]ParametrizedSQL, len(args))
	for i, arg := range args {
		frag, err := cc.expression(arg)
		if err != nil {
			return ParametrizedSQL{}, err
		}
		sqls[i] = frag.sql
		frags[i] = frag
	}
	return Merge(name+"("+strings.Join(sqls, ", ")+")", frags...)
}

func (cc *compilation) binary(op string, left, right Expression) (ParametrizedSQL, error) {
	l, err := cc.expression(left)
	if err != nil {
		return ParametrizedSQL{}, err
	}
	r, err := cc.expression(right)
	if err != nil {
		return ParametrizedSQL{}, err
	}
	return MergeWithOperator(op, l, r)
}

func (cc *compilation) logical(op string, left, right Condition) (ParametrizedSQL, error) {
	l, err := cc.condition(left)
	if err != nil {
		return ParametrizedSQL{}, err
	}
	r, err := cc.condition(right)
	if err != nil {
		return ParametrizedSQL{}, err
	}
	return MergeWithOperator(op, l, r)
}

func (cc *compilation) condition(cond Condition) (ParametrizedSQL, error) {
	switch c := cond.(type) {
	case nil:
		return ParametrizedSQL{}, errors.New("nil condition")
	case noCondition:
		return ParametrizedSQL{}, ErrNoCondition
	case Eq:
		return cc.binary("=", c.Left, c.Right)
	case Compare:
		if c.Op < LT || c.Op > NE {
			return ParametrizedSQL{}, fmt.Errorf("cannot compile %s: unknown operator", c)
		}
		return cc.binary(c.Op.SQL(), c.Left, c.Right)
	case Like:
		return cc.binary("LIKE", c.Left, c.Pattern)
	case LikeIgnoreCase:
		return cc.binary("LIKE", Lower{Arg: c.Left}, Lower{Arg: c.Pattern})
	case In:
		return cc.in(c)
	case IsNull:
		return cc.postfix(c.Arg, "IS NULL")
	case IsNotNull:
		return cc.postfix(c.Arg, "IS NOT NULL")
	case IsTrue:
		return cc.truth(c.Arg, true)
	case IsFalse:
		return cc.truth(c.Arg, false)
	case Conjunction:
		return cc.logical("AND", c.Left, c.Right)
	case Disjunction:
		return cc.logical("OR", c.Left, c.Right)
	case Negation:
		arg, err := cc.condition(c.Arg)
		if err != nil {
			return ParametrizedSQL{}, err
		}
		return ParametrizedSQL{sql: "NOT (" + arg.sql + ")", params: arg.params}, nil
	case ExclusiveOr:
		return cc.xor(c)
	case NativeSQL:
		return NewParametrizedSQL(c.SQL, c.params), nil
	case FullText:
		return cc.fullText(c)
	}
	return ParametrizedSQL{}, fmt.Errorf("cannot compile condition of type %T", cond)
}

func (cc *compilation) postfix(arg Expression, op string) (ParametrizedSQL, error) {
	a, err := cc.expression(arg)
	if err != nil {
		return ParametrizedSQL{}, err
	}
	return ParametrizedSQL{sql: "(" + a.sql + ") " + op, params: a.params}, nil
}

func (cc *compilation) in(c In) (ParametrizedSQL, error) {
	if len(c.Values) == 0 {
		return ParametrizedSQL{sql: dialect.MatchNone}, nil
	}
	left, err := cc.expression(c.Left)
	if err != nil {
		return ParametrizedSQL{}, err
	}
	frags := []ParametrizedSQL{left}
	values := make([]string, len(c.Values))
	for i, v := range c.Values {
		frag, err := cc.expression(v)
		if err != nil {
			return ParametrizedSQL{}, err
		}
		values[i] = "(" + frag.sql + ")"
		frags = append(frags, frag)
	}
	return Merge("("+left.sql+") IN ("+strings.Join(values, ", ")+")", frags...)
}

// truth renders IS TRUE and IS FALSE. Without a native boolean the value is
// compared against the textual spellings of the truth value.
func (cc *compilation) truth(arg Expression, truth bool) (ParametrizedSQL, error) {
	if cc.quirks.BooleanLiteralForm() == dialect.BooleanNative {
		return cc.binary("=", arg, Literal{Value: truth})
	}
	a, err := cc.expression(arg)
	if err != nil {
		return ParametrizedSQL{}, err
	}
	spellings := dialect.FalseStrings
	if truth {
		spellings = dialect.TrueStrings
	}
	quoted := make([]string, len(spellings))
	for i, s := range spellings {
		quoted[i] = "'" + s + "'"
	}
	return ParametrizedSQL{sql: "lower(" + a.sql + ") IN (" + strings.Join(quoted, ", ") + ")", params: a.params}, nil
}

func (cc *compilation) xor(c ExclusiveOr) (ParametrizedSQL, error) {
	if op := cc.quirks.XorOperator(); op != "" {
		return cc.logical(op, c.Left, c.Right)
	}
	l, err := cc.condition(c.Left)
	if err != nil {
		return ParametrizedSQL{}, err
	}
	r, err := cc.condition(c.Right)
	if err != nil {
		return ParametrizedSQL{}, err
	}
	return Merge("(("+l.sql+") OR ("+r.sql+")) AND NOT (("+l.sql+") AND ("+r.sql+"))", l, r)
}

func (cc *compilation) fullText(c FullText) (ParametrizedSQL, error) {
	arg, err := cc.expression(c.arg)
	if err != nil {
		return ParametrizedSQL{}, err
	}
	name := cc.param()
	ft, err := cc.quirks.FullTextPredicate(arg.sql, ":"+name, c.Words(cc.locale))
	if err != nil {
		return ParametrizedSQL{}, fmt.Errorf("cannot compile %s: %w", c, err)
	}
	if ft.MatchAll {
		return MatchAll, nil
	}
	return Merge(ft.SQL, arg, ParametrizedSQL{params: map[string]any{name: ft.Query}})
}
