// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package condition

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/canonical/sqlcond/dialect"
	"github.com/canonical/sqlcond/internal/fulltext"
	"github.com/canonical/sqlcond/internal/typeinfo"
)

// RowAccessor reads the value of an entity property from an in-memory row.
type RowAccessor interface {
	Lookup(row any, property string) (any, error)
}

// RowAccessorFunc adapts a function to a RowAccessor.
type RowAccessorFunc func(row any, property string) (any, error)

func (f RowAccessorFunc) Lookup(row any, property string) (any, error) {
	return f(row, property)
}

// Evaluator tests conditions against rows held in memory, following SQL
// null semantics at the comparisons. The zero value reads maps with string
// keys and structs with "db" tags.
type Evaluator struct {
	// Locale is used by LOWER and full-text matching.
	Locale language.Tag
	// Rows defaults to reading maps and tagged structs.
	Rows RowAccessor
}

// Test reports whether row satisfies cond. NoCondition is satisfied by
// every row.
func (e Evaluator) Test(cond Condition, row any) (bool, error) {
	ok, err := e.test(cond, row)
	if err != nil {
		return false, fmt.Errorf("cannot test %s: %w", condString(cond), err)
	}
	return ok, nil
}

// Calculate returns the value of expr for row. SQL NULL is returned as nil.
func (e Evaluator) Calculate(expr Expression, row any) (any, error) {
	v, err := e.calculate(expr, row)
	if err != nil {
		return nil, fmt.Errorf("cannot calculate %s: %w", exprString(expr), err)
	}
	return v, nil
}

// Test tests cond against row with the zero Evaluator.
func Test(cond Condition, row any) (bool, error) {
	return Evaluator{}.Test(cond, row)
}

// Calculate calculates expr for row with the zero Evaluator.
func Calculate(expr Expression, row any) (any, error) {
	return Evaluator{}.Calculate(expr, row)
}

func (e Evaluator) lookup(row any, property string) (any, error) {
	if e.Rows != nil {
		return e.Rows.Lookup(row, property)
	}
	return typeinfo.Lookup(row, property)
}

func (e Evaluator) calculate(expr Expression, row any) (any, error) {
	switch x := expr.(type) {
	case nil:
		return nil, errors.New("nil expression")
	case Column:
		v, err := e.lookup(row, x.Property)
		if err != nil {
			return nil, err
		}
		return normalize(v)
	case Literal:
		return normalize(x.Value)
	case Lower:
		v, err := e.calculate(x.Arg, row)
		if err != nil || v == nil {
			return nil, err
		}
		s, ok := text(v)
		if !ok {
			return nil, fmt.Errorf("%w: %s of %T value, need text", ErrUnsupported, x, v)
		}
		return cases.Lower(e.Locale).String(s), nil
	case Cast:
		v, err := e.calculate(x.Arg, row)
		if err != nil {
			return nil, err
		}
		return castValue(v, x.Target)
	case Coalesce:
		if len(x.Args) == 0 {
			return nil, fmt.Errorf("%s: no arguments", x)
		}
		for _, arg := range x.Args {
			v, err := e.calculate(arg, row)
			if err != nil || v != nil {
				return v, err
			}
		}
		return nil, nil
	case IfNull:
		v, err := e.calculate(x.Arg, row)
		if err != nil || v != nil {
			return v, err
		}
		return e.calculate(x.Fallback, row)
	case NullIf:
		v, err := e.calculate(x.Arg, row)
		if err != nil || v == nil {
			return v, err
		}
		other, err := e.calculate(x.Other, row)
		if err != nil {
			return nil, err
		}
		if other != nil && valuesEqual(v, other) {
			return nil, nil
		}
		return v, nil
	}
	return nil, fmt.Errorf("cannot calculate expression of type %T", expr)
}

// operands calculates both sides of a binary condition. ok is false when
// either side is null.
func (e Evaluator) operands(left, right Expression, row any) (l, r any, ok bool, err error) {
	if l, err = e.calculate(left, row); err != nil {
		return nil, nil, false, err
	}
	if r, err = e.calculate(right, row); err != nil {
		return nil, nil, false, err
	}
	return l, r, l != nil && r != nil, nil
}

func (e Evaluator) test(cond Condition, row any) (bool, error) {
	switch c := cond.(type) {
	case nil:
		return false, errors.New("nil condition")
	case noCondition:
		return true, nil
	case Eq:
		l, r, ok, err := e.operands(c.Left, c.Right, row)
		if !ok || err != nil {
			return false, err
		}
		return valuesEqual(l, r), nil
	case Compare:
		return e.compare(c, row)
	case Like:
		return e.like(c.Left, c.Pattern, row, false)
	case LikeIgnoreCase:
		return e.like(c.Left, c.Pattern, row, true)
	case In:
		return e.in(c, row)
	case IsNull:
		v, err := e.calculate(c.Arg, row)
		return v == nil && err == nil, err
	case IsNotNull:
		v, err := e.calculate(c.Arg, row)
		return v != nil && err == nil, err
	case IsTrue:
		return e.truth(c.Arg, row, true)
	case IsFalse:
		return e.truth(c.Arg, row, false)
	case Conjunction:
		l, err := e.test(c.Left, row)
		if err != nil || !l {
			return false, err
		}
		return e.test(c.Right, row)
	case Disjunction:
		l, err := e.test(c.Left, row)
		if err != nil || l {
			return l, err
		}
		return e.test(c.Right, row)
	case Negation:
		v, err := e.test(c.Arg, row)
		return !v && err == nil, err
	case ExclusiveOr:
		l, err := e.test(c.Left, row)
		if err != nil {
			return false, err
		}
		r, err := e.test(c.Right, row)
		if err != nil {
			return false, err
		}
		return l != r, nil
	case NativeSQL:
		return false, fmt.Errorf("%w: native SQL cannot be evaluated in memory", ErrUnsupported)
	case FullText:
		return e.fullText(c, row)
	}
	return false, fmt.Errorf("cannot test condition of type %T", cond)
}

func (e Evaluator) compare(c Compare, row any) (bool, error) {
	l, r, ok, err := e.operands(c.Left, c.Right, row)
	if !ok || err != nil {
		return false, err
	}
	if c.Op == NE {
		return !valuesEqual(l, r), nil
	}
	cmp, err := compareValues(l, r)
	if err != nil {
		return false, err
	}
	switch c.Op {
	case LT:
		return cmp < 0, nil
	case LE:
		return cmp <= 0, nil
	case GT:
		return cmp > 0, nil
	case GE:
		return cmp >= 0, nil
	}
	return false, fmt.Errorf("unknown operator %s", c.Op)
}

func (e Evaluator) like(left, pattern Expression, row any, ignoreCase bool) (bool, error) {
	v, err := e.calculate(left, row)
	if err != nil {
		return false, err
	}
	p, err := e.calculate(pattern, row)
	if err != nil {
		return false, err
	}
	if p == nil {
		return false, errors.New("LIKE pattern is null")
	}
	ps, ok := text(p)
	if !ok {
		return false, fmt.Errorf("LIKE pattern of %T value, need text", p)
	}
	if v == nil {
		return false, nil
	}
	vs, ok := text(v)
	if !ok {
		return false, fmt.Errorf("LIKE of %T value, need text", v)
	}
	if ignoreCase {
		lower := cases.Lower(e.Locale)
		vs, ps = lower.String(vs), lower.String(ps)
	}
	return likeMatch([]rune(vs), []rune(ps)), nil
}

// likeMatch matches s against a LIKE pattern where % is any sequence and _
// is any single character.
func likeMatch(s, pattern []rune) bool {
	si, pi := 0, 0
	star, mark := -1, 0
	for si < len(s) {
		switch {
		case pi < len(pattern) && pattern[pi] == '%':
			star, mark = pi, si
			pi++
		case pi < len(pattern) && (pattern[pi] == '_' || pattern[pi] == s[si]):
			si++
			pi++
		case star >= 0:
			mark++
			si, pi = mark, star+1
		default:
			return false
		}
	}
	for pi < len(pattern) && pattern[pi] == '%' {
		pi++
	}
	return pi == len(pattern)
}

func (e Evaluator) in(c In, row any) (bool, error) {
	v, err := e.calculate(c.Left, row)
	if err != nil || v == nil {
		return false, err
	}
	for _, value := range c.Values {
		x, err := e.calculate(value, row)
		if err != nil {
			return false, err
		}
		if x != nil && valuesEqual(v, x) {
			return true, nil
		}
	}
	return false, nil
}

// truth matches booleans directly and anything else by its lowercased text
// against the spellings of truth.
func (e Evaluator) truth(arg Expression, row any, truth bool) (bool, error) {
	v, err := e.calculate(arg, row)
	if err != nil || v == nil {
		return false, err
	}
	if b, ok := v.(bool); ok {
		return b == truth, nil
	}
	spellings := dialect.FalseStrings
	if truth {
		spellings = dialect.TrueStrings
	}
	return slices.Contains(spellings, strings.ToLower(strings.TrimSpace(fmt.Sprint(v)))), nil
}

func (e Evaluator) fullText(c FullText, row any) (bool, error) {
	words := c.Words(e.Locale)
	if len(words) == 0 {
		return true, nil
	}
	v, err := e.calculate(c.arg, row)
	if err != nil || v == nil {
		return false, err
	}
	probe, ok := text(v)
	if !ok {
		return false, fmt.Errorf("full-text search of %T value, need text", v)
	}
	return fulltext.MatchesPrefixes(probe, words, e.Locale), nil
}
