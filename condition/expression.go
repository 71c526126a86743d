// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package condition

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
)

// Expression is a node that produces a scalar value. The implementations
// in this package are the only ones.
type Expression interface {
	fmt.Stringer
	// Key is a canonical encoding of the node. Two expressions are
	// structurally equal if and only if their keys are equal.
	Key() string
	expressionNode()
}

// Column refers to the column of an entity property. The compiler resolves
// Property to a qualified column name.
type Column struct {
	Property string
}

// Literal is a value bound as a query parameter.
type Literal struct {
	Value any
}

// Lower is LOWER(Arg).
type Lower struct {
	Arg Expression
}

// Cast is CAST((Arg) AS SQLType). Target is the Go type the value is
// converted to when evaluated in memory.
type Cast struct {
	Arg     Expression
	SQLType string
	Target  CastTarget
}

// Coalesce is COALESCE(Args...), the first non-null argument.
type Coalesce struct {
	Args []Expression
}

// IfNull is IFNULL(Arg, Fallback).
type IfNull struct {
	Arg      Expression
	Fallback Expression
}

// NullIf is NULLIF(Arg, Other): null when both are equal, otherwise Arg.
type NullIf struct {
	Arg   Expression
	Other Expression
}

func (Column) expressionNode()   {}
func (Literal) expressionNode()  {}
func (Lower) expressionNode()    {}
func (Cast) expressionNode()     {}
func (Coalesce) expressionNode() {}
func (IfNull) expressionNode()   {}
func (NullIf) expressionNode()   {}

// CastTarget is the Go type produced by evaluating a Cast.
type CastTarget int

const (
	CastString CastTarget = iota
	CastInt64
	CastInt32
	CastInt16
	CastInt8
	CastFloat64
	CastFloat32
	// CastBigInt produces *big.Int.
	CastBigInt
	// CastDecimal produces *apd.Decimal.
	CastDecimal
	// CastRune produces the first rune of the text form, or 0.
	CastRune
)

var castTargetNames = []string{"string", "int64", "int32", "int16", "int8", "float64", "float32", "*big.Int", "*apd.Decimal", "rune"}

func (t CastTarget) String() string {
	if t >= 0 && int(t) < len(castTargetNames) {
		return castTargetNames[t]
	}
	return "CastTarget(" + strconv.Itoa(int(t)) + ")"
}

func exprKey(e Expression) string {
	if e == nil {
		return "nil"
	}
	return e.Key()
}

func exprString(e Expression) string {
	if e == nil {
		return "<nil>"
	}
	return e.String()
}

func (c Column) Key() string {
	return "col(" + strconv.Quote(c.Property) + ")"
}

func (c Column) String() string {
	return c.Property
}

func (l Literal) Key() string {
	return "lit(" + valueKey(l.Value) + ")"
}

func (l Literal) String() string {
	if l.Value == nil {
		return "null"
	}
	return fmt.Sprint(l.Value)
}

func (l Lower) Key() string {
	return "lower(" + exprKey(l.Arg) + ")"
}

func (l Lower) String() string {
	return "LOWER(" + exprString(l.Arg) + ")"
}

func (c Cast) Key() string {
	return "cast(" + exprKey(c.Arg) + "," + strconv.Quote(c.SQLType) + "," + c.Target.String() + ")"
}

func (c Cast) String() string {
	return "CAST(" + exprString(c.Arg) + " AS " + c.SQLType + ")"
}

func (c Coalesce) Key() string {
	return "coalesce(" + joinKeys(c.Args) + ")"
}

func (c Coalesce) String() string {
	return "COALESCE(" + joinStrings(c.Args) + ")"
}

func (f IfNull) Key() string {
	return "ifnull(" + exprKey(f.Arg) + "," + exprKey(f.Fallback) + ")"
}

func (f IfNull) String() string {
	return "IFNULL(" + exprString(f.Arg) + ", " + exprString(f.Fallback) + ")"
}

func (n NullIf) Key() string {
	return "nullif(" + exprKey(n.Arg) + "," + exprKey(n.Other) + ")"
}

func (n NullIf) String() string {
	return "NULLIF(" + exprString(n.Arg) + ", " + exprString(n.Other) + ")"
}

func joinKeys(exprs []Expression) string {
	keys := make([]string, len(exprs))
	for i, e := range exprs {
		keys[i] = exprKey(e)
	}
	return strings.Join(keys, ",")
}

func joinStrings(exprs []Expression) string {
	strs := make([]string, len(exprs))
	for i, e := range exprs {
		strs[i] = exprString(e)
	}
	return strings.Join(strs, ", ")
}

// valueKey encodes a literal value with its type. Values whose %#v form
// would expose pointers are encoded by their text form.
func valueKey(v any) string {
	switch v := v.(type) {
	case nil:
		return "nil"
	case *big.Int:
		if v == nil {
			return "*big.Int:nil"
		}
		return "*big.Int:" + v.String()
	case *apd.Decimal:
		if v == nil {
			return "*apd.Decimal:nil"
		}
		return "*apd.Decimal:" + v.String()
	case apd.Decimal:
		return "apd.Decimal:" + v.String()
	case time.Time:
		return "time.Time:" + v.Format(time.RFC3339Nano)
	}
	return fmt.Sprintf("%T:%#v", v, v)
}

// EqualExpressions reports whether a and b are structurally equal.
func EqualExpressions(a, b Expression) bool {
	return exprKey(a) == exprKey(b)
}
