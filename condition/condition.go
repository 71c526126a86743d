// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package condition

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrNoCondition is returned when NoCondition is compiled.
	ErrNoCondition = errors.New("NoCondition has no SQL representation")
	// ErrUnsupported is returned for operations a node does not support.
	ErrUnsupported = errors.New("unsupported operation")
	// ErrParameterCollision is returned when merging fragments that bind one
	// name to different values.
	ErrParameterCollision = errors.New("parameter collision")
)

// Condition is a node that produces a boolean. The implementations in this
// package are the only ones.
type Condition interface {
	fmt.Stringer
	// Key is a canonical encoding of the node. Two conditions are
	// structurally equal if and only if their keys are equal.
	Key() string
	conditionNode()
}

// Operator is a comparison operator other than equality.
type Operator int

const (
	LT Operator = iota
	LE
	GT
	GE
	NE
)

var operatorSQL = [...]string{LT: "<", LE: "<=", GT: ">", GE: ">=", NE: "<>"}

// SQL returns the SQL-92 spelling of the operator.
func (op Operator) SQL() string {
	if op >= 0 && int(op) < len(operatorSQL) {
		return operatorSQL[op]
	}
	return "Operator(" + strconv.Itoa(int(op)) + ")"
}

func (op Operator) String() string {
	return op.SQL()
}

// Eq is Left = Right.
type Eq struct {
	Left, Right Expression
}

// Compare is Left Op Right.
type Compare struct {
	Op          Operator
	Left, Right Expression
}

// Like is Left LIKE Pattern.
type Like struct {
	Left, Pattern Expression
}

// LikeIgnoreCase is LOWER(Left) LIKE LOWER(Pattern).
type LikeIgnoreCase struct {
	Left, Pattern Expression
}

// In is Left IN (Values...). An empty list matches nothing.
type In struct {
	Left   Expression
	Values []Expression
}

// IsNull is Arg IS NULL.
type IsNull struct {
	Arg Expression
}

// IsNotNull is Arg IS NOT NULL.
type IsNotNull struct {
	Arg Expression
}

// IsTrue holds when Arg is one of the spellings of true, or the boolean
// true on dialects with a native boolean.
type IsTrue struct {
	Arg Expression
}

// IsFalse is the counterpart of IsTrue.
type IsFalse struct {
	Arg Expression
}

// Conjunction is Left AND Right. Build it with And.
type Conjunction struct {
	Left, Right Condition
}

// Disjunction is Left OR Right. Build it with Or.
type Disjunction struct {
	Left, Right Condition
}

// Negation is NOT Arg. Build it with Not.
type Negation struct {
	Arg Condition
}

// ExclusiveOr is Left XOR Right. Build it with Xor.
type ExclusiveOr struct {
	Left, Right Condition
}

// noCondition is the identity of And and Or.
type noCondition struct{}

// NoCondition matches everything and vanishes when combined with another
// condition: And(NoCondition, x) and Or(NoCondition, x) are x. It is not a
// boolean literal and cannot be compiled.
var NoCondition Condition = noCondition{}

// IsNoCondition reports whether c is NoCondition or nil.
func IsNoCondition(c Condition) bool {
	return c == nil || c == NoCondition
}

// NativeSQL is a raw SQL fragment with its own parameters. It is copied into
// the compiled SQL without validation and cannot be evaluated in memory.
type NativeSQL struct {
	SQL    string
	params map[string]any
}

// Native returns a NativeSQL condition. The parameter map is copied.
func Native(sql string, params map[string]any) NativeSQL {
	return NativeSQL{SQL: sql, params: copyParams(params)}
}

// Params returns a copy of the parameters.
func (n NativeSQL) Params() map[string]any {
	c := copyParams(n.params)
	if c == nil {
		c = map[string]any{}
	}
	return c
}

func (Eq) conditionNode()             {}
func (Compare) conditionNode()        {}
func (Like) conditionNode()           {}
func (LikeIgnoreCase) conditionNode() {}
func (In) conditionNode()             {}
func (IsNull) conditionNode()         {}
func (IsNotNull) conditionNode()      {}
func (IsTrue) conditionNode()         {}
func (IsFalse) conditionNode()        {}
func (Conjunction) conditionNode()    {}
func (Disjunction) conditionNode()    {}
func (Negation) conditionNode()       {}
func (ExclusiveOr) conditionNode()    {}
func (noCondition) conditionNode()    {}
func (NativeSQL) conditionNode()      {}
func (FullText) conditionNode()       {}

// Equal reports whether a and b are structurally equal.
func Equal(a, b Condition) bool {
	return condKey(a) == condKey(b)
}

func condKey(c Condition) string {
	if c == nil {
		return "nil"
	}
	return c.Key()
}

func condString(c Condition) string {
	if c == nil {
		return "<nil>"
	}
	return c.String()
}

// And returns the conjunction of the conditions, folding from the left.
// NoCondition and nil are dropped and a condition structurally equal to
// the accumulated one is not repeated. With nothing left it returns
// NoCondition.
func And(conds ...Condition) Condition {
	return fold(conds, func(l, r Condition) Condition { return Conjunction{Left: l, Right: r} })
}

// Or returns the disjunction of the conditions with the same rules as And.
func Or(conds ...Condition) Condition {
	return fold(conds, func(l, r Condition) Condition { return Disjunction{Left: l, Right: r} })
}

func fold(conds []Condition, join func(l, r Condition) Condition) Condition {
	acc := NoCondition
	for _, c := range conds {
		switch {
		case IsNoCondition(c):
		case IsNoCondition(acc):
			acc = c
		case Equal(acc, c):
		default:
			acc = join(acc, c)
		}
	}
	return acc
}

// Not negates c. Not(NoCondition) is NoCondition.
func Not(c Condition) Condition {
	if IsNoCondition(c) {
		return NoCondition
	}
	return Negation{Arg: c}
}

// Xor is true when exactly one of a and b is. NoCondition is dropped as
// in And.
func Xor(a, b Condition) Condition {
	if IsNoCondition(a) {
		if IsNoCondition(b) {
			return NoCondition
		}
		return b
	}
	if IsNoCondition(b) {
		return a
	}
	return ExclusiveOr{Left: a, Right: b}
}

func (c Eq) Key() string {
	return "eq(" + exprKey(c.Left) + "," + exprKey(c.Right) + ")"
}

func (c Eq) String() string {
	return exprString(c.Left) + " = " + exprString(c.Right)
}

func (c Compare) Key() string {
	return "cmp" + c.Op.SQL() + "(" + exprKey(c.Left) + "," + exprKey(c.Right) + ")"
}

func (c Compare) String() string {
	return exprString(c.Left) + " " + c.Op.SQL() + " " + exprString(c.Right)
}

func (c Like) Key() string {
	return "like(" + exprKey(c.Left) + "," + exprKey(c.Pattern) + ")"
}

func (c Like) String() string {
	return exprString(c.Left) + " LIKE " + exprString(c.Pattern)
}

func (c LikeIgnoreCase) Key() string {
	return "ilike(" + exprKey(c.Left) + "," + exprKey(c.Pattern) + ")"
}

func (c LikeIgnoreCase) String() string {
	return exprString(c.Left) + " ILIKE " + exprString(c.Pattern)
}

func (c In) Key() string {
	return "in(" + exprKey(c.Left) + ",[" + joinKeys(c.Values) + "])"
}

func (c In) String() string {
	return exprString(c.Left) + " IN (" + joinStrings(c.Values) + ")"
}

func (c IsNull) Key() string {
	return "isnull(" + exprKey(c.Arg) + ")"
}

func (c IsNull) String() string {
	return exprString(c.Arg) + " IS NULL"
}

func (c IsNotNull) Key() string {
	return "isnotnull(" + exprKey(c.Arg) + ")"
}

func (c IsNotNull) String() string {
	return exprString(c.Arg) + " IS NOT NULL"
}

func (c IsTrue) Key() string {
	return "istrue(" + exprKey(c.Arg) + ")"
}

func (c IsTrue) String() string {
	return exprString(c.Arg) + " IS TRUE"
}

func (c IsFalse) Key() string {
	return "isfalse(" + exprKey(c.Arg) + ")"
}

func (c IsFalse) String() string {
	return exprString(c.Arg) + " IS FALSE"
}

func (c Conjunction) Key() string {
	return "and(" + condKey(c.Left) + "," + condKey(c.Right) + ")"
}

func (c Conjunction) String() string {
	return "(" + condString(c.Left) + ") AND (" + condString(c.Right) + ")"
}

func (c Disjunction) Key() string {
	return "or(" + condKey(c.Left) + "," + condKey(c.Right) + ")"
}

func (c Disjunction) String() string {
	return "(" + condString(c.Left) + ") OR (" + condString(c.Right) + ")"
}

func (c Negation) Key() string {
	return "not(" + condKey(c.Arg) + ")"
}

func (c Negation) String() string {
	return "NOT(" + condString(c.Arg) + ")"
}

func (c ExclusiveOr) Key() string {
	return "xor(" + condKey(c.Left) + "," + condKey(c.Right) + ")"
}

func (c ExclusiveOr) String() string {
	return "(" + condString(c.Left) + ") XOR (" + condString(c.Right) + ")"
}

func (noCondition) Key() string {
	return "none"
}

func (noCondition) String() string {
	return "NoCondition"
}

func (n NativeSQL) Key() string {
	names := make([]string, 0, len(n.params))
	for name := range n.params {
		names = append(names, name)
	}
	sort.Strings(names)
	var sb strings.Builder
	sb.WriteString("native(" + strconv.Quote(n.SQL))
	for _, name := range names {
		sb.WriteString("," + name + "=" + valueKey(n.params[name]))
	}
	sb.WriteString(")")
	return sb.String()
}

func (n NativeSQL) String() string {
	return "'" + n.SQL + "'" + NewParametrizedSQL("", n.params).String()
}
