// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package condition_test

import (
	"errors"
	"math/big"
	"time"

	"github.com/cockroachdb/apd/v3"
	. "gopkg.in/check.v1"
	"golang.org/x/text/language"

	"github.com/canonical/sqlcond/condition"
)

type EvaluateSuite struct{}

var _ = Suite(&EvaluateSuite{})

var (
	fred = person{ID: 30, Name: "Fred", Nick: strp("freddie"), Age: intp(41), Active: "Yes"}
	mary = person{ID: 40, Name: "Mary", Active: "off"}
)

func (s *EvaluateSuite) TestTest(c *C) {
	pid := condition.Field[int]("id")
	pname := condition.Field[string]("name")
	nick := condition.Field[*string]("nick")
	age := condition.Field[*int]("age")
	flag := condition.Field[string]("active")
	lo, hi := 30, 35

	tests := []struct {
		summary string
		cond    condition.Condition
		row     any
		result  bool
	}{{
		summary: "equal",
		cond:    pid.Eq(30),
		row:     fred,
		result:  true,
	}, {
		summary: "not equal",
		cond:    pid.Eq(31),
		row:     fred,
	}, {
		summary: "equal across integer types",
		cond:    condition.Eq{Left: condition.Column{Property: "id"}, Right: condition.Literal{Value: int64(30)}},
		row:     fred,
		result:  true,
	}, {
		summary: "equal to float",
		cond:    condition.Eq{Left: condition.Column{Property: "id"}, Right: condition.Literal{Value: 30.0}},
		row:     fred,
		result:  true,
	}, {
		summary: "text is not a number",
		cond:    condition.Eq{Left: condition.Column{Property: "id"}, Right: condition.Literal{Value: "30"}},
		row:     fred,
	}, {
		summary: "null is never equal",
		cond:    age.Eq(nil),
		row:     mary,
	}, {
		summary: "null is not equal to null",
		cond:    age.EqExpr(age),
		row:     mary,
	}, {
		summary: "null is never unequal",
		cond:    age.Ne(intp(3)),
		row:     mary,
	}, {
		summary: "pointer values compare by value",
		cond:    age.Eq(intp(41)),
		row:     &fred,
		result:  true,
	}, {
		summary: "less than",
		cond:    pid.Lt(31),
		row:     fred,
		result:  true,
	}, {
		summary: "greater or equal",
		cond:    pid.Ge(31),
		row:     fred,
	}, {
		summary: "between",
		cond:    pid.Between(&lo, &hi),
		row:     fred,
		result:  true,
	}, {
		summary: "not between",
		cond:    pid.NotBetween(&lo, &hi),
		row:     mary,
		result:  true,
	}, {
		summary: "strings compare by bytes",
		cond:    pname.Lt("Mary"),
		row:     fred,
		result:  true,
	}, {
		summary: "like",
		cond:    pname.Like("F_e%"),
		row:     fred,
		result:  true,
	}, {
		summary: "like is case sensitive",
		cond:    pname.Like("fred"),
		row:     fred,
	}, {
		summary: "like ignoring case",
		cond:    pname.LikeIgnoreCase("%RED"),
		row:     fred,
		result:  true,
	}, {
		summary: "like on null",
		cond:    nick.Like("%"),
		row:     mary,
	}, {
		summary: "equal ignoring case",
		cond:    pname.EqualIgnoreCase("FRED"),
		row:     fred,
		result:  true,
	}, {
		summary: "in",
		cond:    pid.In(10, 30),
		row:     fred,
		result:  true,
	}, {
		summary: "empty in",
		cond:    pid.In(),
		row:     fred,
	}, {
		summary: "not in",
		cond:    pid.NotIn(10, 20),
		row:     fred,
		result:  true,
	}, {
		summary: "null is in nothing",
		cond:    age.In(nil, intp(1)),
		row:     mary,
	}, {
		summary: "is null",
		cond:    nick.IsNull(),
		row:     mary,
		result:  true,
	}, {
		summary: "is not null",
		cond:    nick.IsNotNull(),
		row:     fred,
		result:  true,
	}, {
		summary: "is true from text",
		cond:    flag.IsTrue(),
		row:     fred,
		result:  true,
	}, {
		summary: "is false from text",
		cond:    flag.IsFalse(),
		row:     mary,
		result:  true,
	}, {
		summary: "is true from bool",
		cond:    condition.Field[bool]("ok").IsTrue(),
		row:     map[string]any{"ok": true},
		result:  true,
	}, {
		summary: "is false on null",
		cond:    condition.Field[bool]("ok").IsFalse(),
		row:     map[string]any{"ok": nil},
	}, {
		summary: "and",
		cond:    condition.And(pid.Eq(30), pname.Eq("Fred")),
		row:     fred,
		result:  true,
	}, {
		summary: "or",
		cond:    condition.Or(pid.Eq(1), pname.Eq("Fred")),
		row:     fred,
		result:  true,
	}, {
		summary: "not",
		cond:    condition.Not(pid.Eq(30)),
		row:     fred,
	}, {
		summary: "not of a null comparison",
		cond:    condition.Not(age.Eq(intp(1))),
		row:     mary,
		result:  true,
	}, {
		summary: "xor",
		cond:    condition.Xor(pid.Eq(30), pname.Eq("Fred")),
		row:     fred,
	}, {
		summary: "no condition",
		cond:    condition.NoCondition,
		row:     fred,
		result:  true,
	}, {
		summary: "ifnull",
		cond:    nick.IfNull(strp("none")).Eq(strp("none")),
		row:     mary,
		result:  true,
	}, {
		summary: "coalesce",
		cond:    nick.Coalesce(condition.Of[*string](pname.Expression())).Eq(strp("Mary")),
		row:     mary,
		result:  true,
	}, {
		summary: "nullif",
		cond:    pname.NullIf("Fred").IsNull(),
		row:     fred,
		result:  true,
	}, {
		summary: "cast",
		cond:    pid.CastAsVarchar().Eq("30"),
		row:     fred,
		result:  true,
	}, {
		summary: "qualified property",
		cond:    condition.Field[int]("person.id").Eq(30),
		row:     fred,
		result:  true,
	}, {
		summary: "map row",
		cond:    condition.Field[time.Time]("at").Lt(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
		row:     map[string]any{"at": time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		result:  true,
	}, {
		summary: "full text",
		cond:    pname.FullTextMatches("fr"),
		row:     fred,
		result:  true,
	}, {
		summary: "full text needs every word",
		cond:    condition.Field[string]("bio").FullTextMatches("fat k"),
		row:     map[string]string{"bio": "The fat cat"},
	}, {
		summary: "full text on null",
		cond:    nick.FullTextMatches("fr"),
		row:     mary,
	}}
	for i, t := range tests {
		c.Logf("test %d: %s", i, t.summary)
		result, err := condition.Test(t.cond, t.row)
		c.Assert(err, IsNil)
		c.Check(result, Equals, t.result)
	}
}

// For every expression e, e = NULL holds for no row.
func (s *EvaluateSuite) TestEqualsNullNeverHolds(c *C) {
	exprs := []condition.Expression{
		condition.Column{Property: "id"},
		condition.Column{Property: "nick"},
		condition.Lower{Arg: condition.Column{Property: "name"}},
		condition.Literal{Value: 1},
		condition.Literal{Value: nil},
		condition.IfNull{Arg: condition.Column{Property: "nick"}, Fallback: condition.Literal{Value: "x"}},
	}
	for _, e := range exprs {
		for _, row := range []any{fred, mary} {
			result, err := condition.Test(condition.Eq{Left: e, Right: condition.Literal{Value: nil}}, row)
			c.Assert(err, IsNil)
			c.Check(result, Equals, false, Commentf("%s", e))
		}
	}
}

func (s *EvaluateSuite) TestTestErrors(c *C) {
	tests := []struct {
		summary string
		cond    condition.Condition
		row     any
		err     string
	}{{
		summary: "native sql",
		cond:    condition.Native("id = 1", nil),
		row:     fred,
		err:     `cannot test 'id = 1'\{\}: unsupported operation: native SQL cannot be evaluated in memory`,
	}, {
		summary: "lower of a number",
		cond:    condition.Field[int]("id").Lower().Eq("x"),
		row:     fred,
		err:     `cannot test LOWER\(id\) = x: unsupported operation: LOWER\(id\) of int value, need text`,
	}, {
		summary: "unknown property",
		cond:    condition.Field[int]("shoe_size").Eq(1),
		row:     fred,
		err:     `cannot test shoe_size = 1: cannot look up "shoe_size" in condition_test.person: property not found`,
	}, {
		summary: "ordering of unrelated types",
		cond:    condition.Compare{Op: condition.LT, Left: condition.Column{Property: "name"}, Right: condition.Literal{Value: 3}},
		row:     fred,
		err:     `cannot test name < 3: cannot compare string with int`,
	}, {
		summary: "null like pattern",
		cond:    condition.Like{Left: condition.Column{Property: "name"}, Pattern: condition.Literal{}},
		row:     fred,
		err:     `cannot test name LIKE null: LIKE pattern is null`,
	}}
	for i, t := range tests {
		c.Logf("test %d: %s", i, t.summary)
		_, err := condition.Test(t.cond, t.row)
		c.Check(err, ErrorMatches, t.err)
	}

	_, err := condition.Test(condition.Native("x", nil), fred)
	c.Assert(errors.Is(err, condition.ErrUnsupported), Equals, true)
}

func (s *EvaluateSuite) TestCalculateCast(c *C) {
	tests := []struct {
		summary string
		value   any
		target  condition.CastTarget
		result  any
	}{{
		summary: "same type",
		value:   int64(3),
		target:  condition.CastInt64,
		result:  int64(3),
	}, {
		summary: "int to text",
		value:   42,
		target:  condition.CastString,
		result:  "42",
	}, {
		summary: "text to int16",
		value:   " -12 ",
		target:  condition.CastInt16,
		result:  int16(-12),
	}, {
		summary: "integral float to int32",
		value:   7.0,
		target:  condition.CastInt32,
		result:  int32(7),
	}, {
		summary: "text to float",
		value:   "2.5",
		target:  condition.CastFloat64,
		result:  2.5,
	}, {
		summary: "text to rune",
		value:   "été",
		target:  condition.CastRune,
		result:  'é',
	}, {
		summary: "empty text to rune",
		value:   "",
		target:  condition.CastRune,
		result:  rune(0),
	}, {
		summary: "null stays null",
		value:   nil,
		target:  condition.CastInt8,
		result:  nil,
	}}
	for i, t := range tests {
		c.Logf("test %d: %s", i, t.summary)
		expr := condition.Cast{Arg: condition.Literal{Value: t.value}, SQLType: "X", Target: t.target}
		result, err := condition.Calculate(expr, nil)
		c.Assert(err, IsNil)
		c.Check(result, DeepEquals, t.result)
	}
}

func (s *EvaluateSuite) TestCalculateArbitraryPrecision(c *C) {
	result, err := condition.Calculate(condition.CastTo[*big.Int](condition.Value("123456789012345678901234567890"), "DECIMAL(30)").Expression(), nil)
	c.Assert(err, IsNil)
	c.Assert(result.(*big.Int).String(), Equals, "123456789012345678901234567890")

	result, err = condition.Calculate(condition.CastTo[*apd.Decimal](condition.Value(12), "DECIMAL(10,2)").Expression(), nil)
	c.Assert(err, IsNil)
	c.Assert(result.(*apd.Decimal).String(), Equals, "12")

	huge, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	ok, err := condition.Test(condition.Field[*big.Int]("n").Gt(big.NewInt(1)), map[string]any{"n": huge})
	c.Assert(err, IsNil)
	c.Assert(ok, Equals, true)
}

func (s *EvaluateSuite) TestCalculateCastErrors(c *C) {
	tests := []struct {
		value  any
		target condition.CastTarget
		err    string
	}{{
		value:  "x",
		target: condition.CastInt64,
		err:    `cannot calculate CAST\(x AS X\): cannot cast string value x to int64: .*invalid syntax`,
	}, {
		value:  300,
		target: condition.CastInt8,
		err:    `cannot calculate CAST\(300 AS X\): cannot cast int value 300 to int8: value out of range`,
	}, {
		value:  2.5,
		target: condition.CastInt64,
		err:    `cannot calculate CAST\(2.5 AS X\): cannot cast float64 value 2.5 to int64: .*`,
	}, {
		value:  true,
		target: condition.CastFloat64,
		err:    `cannot calculate CAST\(true AS X\): cannot cast bool value true to float64: no conversion`,
	}, {
		value:  5,
		target: condition.CastRune,
		err:    `cannot calculate CAST\(5 AS X\): cannot cast int value 5 to rune: no conversion`,
	}}
	for _, t := range tests {
		expr := condition.Cast{Arg: condition.Literal{Value: t.value}, SQLType: "X", Target: t.target}
		_, err := condition.Calculate(expr, nil)
		c.Check(err, ErrorMatches, t.err)
	}
}

func (s *EvaluateSuite) TestLocale(c *C) {
	row := map[string]any{"city": "DİYARBAKIR"}
	city := condition.Field[string]("city")

	tr := condition.Evaluator{Locale: language.Turkish}
	lowered, err := tr.Calculate(city.Lower().Expression(), row)
	c.Assert(err, IsNil)
	c.Assert(lowered, Equals, "diyarbakır")

	ok, err := tr.Test(city.FullTextMatches("diyarbakı"), row)
	c.Assert(err, IsNil)
	c.Assert(ok, Equals, true)
}

func (s *EvaluateSuite) TestRowAccessor(c *C) {
	e := condition.Evaluator{Rows: condition.RowAccessorFunc(func(row any, property string) (any, error) {
		return row.([]any)[0], nil
	})}
	ok, err := e.Test(condition.Field[int]("anything").Eq(7), []any{7})
	c.Assert(err, IsNil)
	c.Assert(ok, Equals, true)
}
