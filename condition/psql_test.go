// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package condition_test

import (
	"errors"

	. "gopkg.in/check.v1"

	"github.com/canonical/sqlcond/condition"
)

type PSQLSuite struct{}

var _ = Suite(&PSQLSuite{})

func (s *PSQLSuite) TestMerge(c *C) {
	a := condition.NewParametrizedSQL("a = :x", map[string]any{"x": 1})
	b := condition.NewParametrizedSQL("b = :y", map[string]any{"y": "two"})

	merged, err := condition.MergeWithOperator("AND", a, b)
	c.Assert(err, IsNil)
	c.Assert(merged.SQL(), Equals, "(a = :x) AND (b = :y)")
	c.Assert(merged.Params(), DeepEquals, map[string]any{"x": 1, "y": "two"})
	c.Assert(merged.String(), Equals, "(a = :x) AND (b = :y){x=1, y=two}")
}

func (s *PSQLSuite) TestMergeSameBinding(c *C) {
	a := condition.NewParametrizedSQL("a = :x", map[string]any{"x": 1})
	merged, err := condition.Merge("a = :x OR a = :x", a, a)
	c.Assert(err, IsNil)
	c.Assert(merged.Names(), DeepEquals, []string{"x"})
}

func (s *PSQLSuite) TestMergeCollision(c *C) {
	a := condition.NewParametrizedSQL("a = :x", map[string]any{"x": 1})
	b := condition.NewParametrizedSQL("b = :x", map[string]any{"x": 2})
	_, err := condition.MergeWithOperator("AND", a, b)
	c.Assert(err, ErrorMatches, `parameter collision: "x" bound to 1 and 2`)
	c.Assert(errors.Is(err, condition.ErrParameterCollision), Equals, true)
}

func (s *PSQLSuite) TestImmutable(c *C) {
	params := map[string]any{"x": 1}
	p := condition.NewParametrizedSQL("a = :x", params)
	params["x"] = 2
	p.Params()["x"] = 3
	v, ok := p.Param("x")
	c.Assert(ok, Equals, true)
	c.Assert(v, Equals, 1)
}

func (s *PSQLSuite) TestEqual(c *C) {
	a := condition.NewParametrizedSQL("a = :x", map[string]any{"x": []byte("k")})
	c.Assert(a.Equal(condition.NewParametrizedSQL("a = :x", map[string]any{"x": []byte("k")})), Equals, true)
	c.Assert(a.Equal(condition.NewParametrizedSQL("a = :x", map[string]any{"x": []byte("j")})), Equals, false)
	c.Assert(a.Equal(condition.NewParametrizedSQL("a = :y", map[string]any{"x": []byte("k")})), Equals, false)
	c.Assert(condition.MatchAll.SQL(), Equals, "1=1")
	c.Assert(condition.MatchAll.Params(), HasLen, 0)
}
