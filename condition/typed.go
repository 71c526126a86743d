// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package condition

import (
	"math/big"

	"github.com/cockroachdb/apd/v3"
)

// Expr is an expression producing values of type V. It builds conditions
// whose operands are checked against V at compile time.
type Expr[V any] struct {
	e Expression
}

// Field returns the column of an entity property holding values of type V.
func Field[V any](property string) Expr[V] {
	return Expr[V]{e: Column{Property: property}}
}

// Value returns a literal.
func Value[V any](v V) Expr[V] {
	return Expr[V]{e: Literal{Value: v}}
}

// Of gives an untyped expression the value type V.
func Of[V any](e Expression) Expr[V] {
	return Expr[V]{e: e}
}

// Expression returns the underlying node.
func (x Expr[V]) Expression() Expression {
	return x.e
}

func (x Expr[V]) String() string {
	return exprString(x.e)
}

func lit[V any](v V) Expression {
	return Literal{Value: v}
}

func (x Expr[V]) Eq(v V) Condition {
	return Eq{Left: x.e, Right: lit(v)}
}

func (x Expr[V]) Ne(v V) Condition {
	return Compare{Op: NE, Left: x.e, Right: lit(v)}
}

func (x Expr[V]) Lt(v V) Condition {
	return Compare{Op: LT, Left: x.e, Right: lit(v)}
}

func (x Expr[V]) Le(v V) Condition {
	return Compare{Op: LE, Left: x.e, Right: lit(v)}
}

func (x Expr[V]) Gt(v V) Condition {
	return Compare{Op: GT, Left: x.e, Right: lit(v)}
}

func (x Expr[V]) Ge(v V) Condition {
	return Compare{Op: GE, Left: x.e, Right: lit(v)}
}

func (x Expr[V]) EqExpr(o Expr[V]) Condition {
	return Eq{Left: x.e, Right: o.e}
}

func (x Expr[V]) NeExpr(o Expr[V]) Condition {
	return Compare{Op: NE, Left: x.e, Right: o.e}
}

func (x Expr[V]) LtExpr(o Expr[V]) Condition {
	return Compare{Op: LT, Left: x.e, Right: o.e}
}

func (x Expr[V]) LeExpr(o Expr[V]) Condition {
	return Compare{Op: LE, Left: x.e, Right: o.e}
}

func (x Expr[V]) GtExpr(o Expr[V]) Condition {
	return Compare{Op: GT, Left: x.e, Right: o.e}
}

func (x Expr[V]) GeExpr(o Expr[V]) Condition {
	return Compare{Op: GE, Left: x.e, Right: o.e}
}

// In holds when the value is one of values. With no values nothing matches.
func (x Expr[V]) In(values ...V) Condition {
	exprs := make([]Expression, len(values))
	for i, v := range values {
		exprs[i] = lit(v)
	}
	return In{Left: x.e, Values: exprs}
}

func (x Expr[V]) NotIn(values ...V) Condition {
	return Not(x.In(values...))
}

// Between holds when the value lies within the inclusive bounds. A nil
// bound is open, and with both bounds nil it is NoCondition.
func (x Expr[V]) Between(lower, upper *V) Condition {
	var conds []Condition
	if lower != nil {
		conds = append(conds, x.Ge(*lower))
	}
	if upper != nil {
		conds = append(conds, x.Le(*upper))
	}
	return And(conds...)
}

func (x Expr[V]) NotBetween(lower, upper *V) Condition {
	return Not(x.Between(lower, upper))
}

func (x Expr[V]) IsNull() Condition {
	return IsNull{Arg: x.e}
}

func (x Expr[V]) IsNotNull() Condition {
	return IsNotNull{Arg: x.e}
}

func (x Expr[V]) IsTrue() Condition {
	return IsTrue{Arg: x.e}
}

func (x Expr[V]) IsFalse() Condition {
	return IsFalse{Arg: x.e}
}

// Is returns IsTrue or IsFalse.
func (x Expr[V]) Is(truth bool) Condition {
	if truth {
		return x.IsTrue()
	}
	return x.IsFalse()
}

func (x Expr[V]) Like(pattern string) Condition {
	return Like{Left: x.e, Pattern: Literal{Value: pattern}}
}

func (x Expr[V]) LikeIgnoreCase(pattern string) Condition {
	return LikeIgnoreCase{Left: x.e, Pattern: Literal{Value: pattern}}
}

// EqualIgnoreCase is LOWER(x) = LOWER(s).
func (x Expr[V]) EqualIgnoreCase(s string) Condition {
	return Eq{Left: Lower{Arg: x.e}, Right: Lower{Arg: Literal{Value: s}}}
}

func (x Expr[V]) NotEqualIgnoreCase(s string) Condition {
	return Not(x.EqualIgnoreCase(s))
}

// FullTextMatches searches the value for the words of a user supplied
// query. A query without words is NoCondition.
func (x Expr[V]) FullTextMatches(query string) Condition {
	return FullTextMatches(x.e, query)
}

func (x Expr[V]) Lower() Expr[string] {
	return Expr[string]{e: Lower{Arg: x.e}}
}

// Coalesce returns the first non-null of x and others.
func (x Expr[V]) Coalesce(others ...Expr[V]) Expr[V] {
	args := []Expression{x.e}
	for _, o := range others {
		args = append(args, o.e)
	}
	return Expr[V]{e: Coalesce{Args: args}}
}

func (x Expr[V]) IfNull(fallback V) Expr[V] {
	return Expr[V]{e: IfNull{Arg: x.e, Fallback: lit(fallback)}}
}

func (x Expr[V]) IfNullExpr(fallback Expr[V]) Expr[V] {
	return Expr[V]{e: IfNull{Arg: x.e, Fallback: fallback.e}}
}

func (x Expr[V]) NullIf(v V) Expr[V] {
	return Expr[V]{e: NullIf{Arg: x.e, Other: lit(v)}}
}

func (x Expr[V]) CastAsVarchar() Expr[string] {
	return Expr[string]{e: Cast{Arg: x.e, SQLType: "VARCHAR", Target: CastString}}
}

// CastAsChar casts to a single character.
func (x Expr[V]) CastAsChar() Expr[rune] {
	return Expr[rune]{e: Cast{Arg: x.e, SQLType: "CHAR(1)", Target: CastRune}}
}

// Castable are the Go types a Cast can produce besides rune.
type Castable interface {
	string | int64 | int32 | int16 | int8 | float64 | float32 | *big.Int | *apd.Decimal
}

// CastTo casts x to the SQL type sqlType, producing T when evaluated in
// memory.
func CastTo[T Castable, V any](x Expr[V], sqlType string) Expr[T] {
	return Expr[T]{e: Cast{Arg: x.e, SQLType: sqlType, Target: castTargetOf[T]()}}
}

func castTargetOf[T Castable]() CastTarget {
	var zero T
	switch any(zero).(type) {
	case int64:
		return CastInt64
	case int32:
		return CastInt32
	case int16:
		return CastInt16
	case int8:
		return CastInt8
	case float64:
		return CastFloat64
	case float32:
		return CastFloat32
	case *big.Int:
		return CastBigInt
	case *apd.Decimal:
		return CastDecimal
	}
	return CastString
}
