// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package dialect_test

import (
	"errors"

	"github.com/google/uuid"
	. "gopkg.in/check.v1"

	"github.com/canonical/sqlcond/dialect"
)

type QuirksSuite struct{}

var _ = Suite(&QuirksSuite{})

func (s *QuirksSuite) TestPaginate(c *C) {
	tests := []struct {
		summary  string
		variant  dialect.Variant
		offset   *int64
		limit    *int64
		ordered  bool
		expected string
	}{{
		summary:  "mysql offset and limit",
		variant:  dialect.MySQL,
		offset:   int64p(10),
		limit:    int64p(5),
		expected: "LIMIT 5 OFFSET 10",
	}, {
		summary:  "mysql offset only patches limit",
		variant:  dialect.MySQL,
		offset:   int64p(10),
		expected: "LIMIT 2147483647 OFFSET 10",
	}, {
		summary:  "mysql limit only",
		variant:  dialect.MySQL,
		limit:    int64p(5),
		expected: "LIMIT 5",
	}, {
		summary:  "mssql without order by",
		variant:  dialect.MSSQL,
		offset:   int64p(10),
		limit:    int64p(5),
		expected: "ORDER BY (SELECT 1) OFFSET 10 ROWS FETCH NEXT 5 ROWS ONLY",
	}, {
		summary:  "mssql with order by",
		variant:  dialect.MSSQL,
		offset:   int64p(10),
		limit:    int64p(5),
		ordered:  true,
		expected: "OFFSET 10 ROWS FETCH NEXT 5 ROWS ONLY",
	}, {
		summary:  "mssql limit only starts at zero",
		variant:  dialect.MSSQL,
		limit:    int64p(3),
		ordered:  true,
		expected: "OFFSET 0 ROWS FETCH NEXT 3 ROWS ONLY",
	}, {
		summary:  "mssql offset only",
		variant:  dialect.MSSQL,
		offset:   int64p(7),
		ordered:  true,
		expected: "OFFSET 7 ROWS",
	}, {
		summary:  "mssql without pagination",
		variant:  dialect.MSSQL,
		expected: "",
	}, {
		summary:  "postgresql offset only",
		variant:  dialect.PostgreSQL,
		offset:   int64p(10),
		expected: "OFFSET 10",
	}, {
		summary:  "postgresql both",
		variant:  dialect.PostgreSQL,
		offset:   int64p(0),
		limit:    int64p(0),
		expected: "LIMIT 0 OFFSET 0",
	}, {
		summary:  "sqlite offset only",
		variant:  dialect.SQLite,
		offset:   int64p(4),
		expected: "LIMIT -1 OFFSET 4",
	}, {
		summary:  "unknown limit only",
		variant:  dialect.Unknown,
		limit:    int64p(20),
		expected: "LIMIT 20",
	}}
	for i, t := range tests {
		clause, err := dialect.Paginate(dialect.ForVariant(t.variant), t.offset, t.limit, t.ordered)
		c.Assert(err, IsNil, Commentf("test %d failed (%s)", i, t.summary))
		c.Check(clause, Equals, t.expected, Commentf("test %d failed (%s)", i, t.summary))
	}
}

func (s *QuirksSuite) TestPaginateErrors(c *C) {
	_, err := dialect.Paginate(dialect.ForVariant(dialect.MSSQL), int64p(10), int64p(0), false)
	c.Assert(err, ErrorMatches, "parameter limit: invalid value 0: must be 1 or greater")
	c.Assert(errors.Is(err, dialect.ErrInvalidArgument), Equals, true)

	for _, v := range dialect.Variants() {
		q := dialect.ForVariant(v)
		_, err := dialect.Paginate(q, int64p(-1), nil, false)
		c.Check(err, ErrorMatches, "parameter offset: invalid value -1: must be 0 or greater", Commentf("%s", v))
		_, err = dialect.Paginate(q, nil, int64p(-3), false)
		c.Check(err, ErrorMatches, "parameter limit: invalid value -3: must be 0 or greater", Commentf("%s", v))

		var argErr *dialect.ArgumentError
		c.Check(errors.As(err, &argErr), Equals, true)
		c.Check(argErr.Param, Equals, "limit")
		c.Check(argErr.Value, Equals, int64(-3))
	}
}

func (s *QuirksSuite) TestForVariant(c *C) {
	for _, v := range dialect.Variants() {
		c.Check(dialect.ForVariant(v).Variant(), Equals, v)
	}
	c.Check(dialect.ForVariant(dialect.PostgreSQL).BooleanLiteralForm(), Equals, dialect.BooleanNative)
	c.Check(dialect.ForVariant(dialect.DuckDB).BooleanLiteralForm(), Equals, dialect.BooleanNative)
	c.Check(dialect.ForVariant(dialect.MySQL).BooleanLiteralForm(), Equals, dialect.BooleanStrings)
	c.Check(dialect.ForVariant(dialect.H2).BooleanLiteralForm(), Equals, dialect.BooleanStrings)

	c.Check(dialect.ForVariant(dialect.MySQL).XorOperator(), Equals, "XOR")
	c.Check(dialect.ForVariant(dialect.SQLite).XorOperator(), Equals, "")

	c.Check(dialect.ForVariant(dialect.MSSQL).IfNullFunction(), Equals, "ISNULL")
	c.Check(dialect.ForVariant(dialect.PostgreSQL).IfNullFunction(), Equals, "COALESCE")
	c.Check(dialect.ForVariant(dialect.SQLite).IfNullFunction(), Equals, "IFNULL")
}

func (s *QuirksSuite) TestPlaceholder(c *C) {
	c.Check(dialect.ForVariant(dialect.MySQL).Placeholder().Placeholder(3), Equals, "?")
	c.Check(dialect.ForVariant(dialect.PostgreSQL).Placeholder().Placeholder(3), Equals, "$3")
	c.Check(dialect.ForVariant(dialect.MSSQL).Placeholder().Placeholder(3), Equals, "@p3")
}

func (s *QuirksSuite) TestEncodeOpaqueValue(c *C) {
	u := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	mysql := dialect.ForVariant(dialect.MySQL)
	c.Check(mysql.EncodeOpaqueValue(u), DeepEquals, u[:])
	c.Check(mysql.EncodeOpaqueValue(&u), DeepEquals, u[:])
	c.Check(mysql.EncodeOpaqueValue("x"), Equals, "x")
	c.Check(mysql.EncodeOpaqueValue((*uuid.UUID)(nil)), IsNil)

	pg := dialect.ForVariant(dialect.PostgreSQL)
	c.Check(pg.EncodeOpaqueValue(u), Equals, u)
}

func (s *QuirksSuite) TestFullTextPredicate(c *C) {
	mysql := dialect.ForVariant(dialect.MySQL)
	ft, err := mysql.FullTextPredicate("book.title", ":p1", []string{"the", "quick", "of", "fox"})
	c.Assert(err, IsNil)
	c.Check(ft, Equals, dialect.FullText{
		SQL:   "MATCH(book.title) AGAINST (:p1 IN BOOLEAN MODE)",
		Query: "+the* +quick* +fox*",
	})

	ft, err = mysql.FullTextPredicate("book.title", ":p1", []string{"of", "a"})
	c.Assert(err, IsNil)
	c.Check(ft.MatchAll, Equals, true)

	for _, v := range []dialect.Variant{dialect.PostgreSQL, dialect.MSSQL, dialect.H2, dialect.SQLite, dialect.DuckDB, dialect.Unknown} {
		_, err := dialect.ForVariant(v).FullTextPredicate("t.c", ":p", []string{"word"})
		c.Check(errors.Is(err, dialect.ErrUnsupported), Equals, true, Commentf("%s", v))
		c.Check(err, ErrorMatches, "cannot render full-text search on "+v.String()+": unsupported for this dialect")
	}
}

func (s *QuirksSuite) TestMySQLBooleanQuery(c *C) {
	long := ""
	for i := 0; i < 85; i++ {
		long += "x"
	}
	c.Check(dialect.MySQLBooleanQuery([]string{"ab", "abc", long, long[:84]}), Equals, "+abc* +"+long[:84]+"*")
	// Length is counted in characters, not bytes.
	c.Check(dialect.MySQLBooleanQuery([]string{"žluť"}), Equals, "+žluť*")
	c.Check(dialect.MySQLBooleanQuery([]string{"éé"}), Equals, "")
	c.Check(dialect.MySQLBooleanQuery(nil), Equals, "")
}

func (s *QuirksSuite) TestParseVariant(c *C) {
	for _, v := range dialect.Variants() {
		parsed, err := dialect.ParseVariant(v.String())
		c.Assert(err, IsNil)
		c.Check(parsed, Equals, v)
	}
	v, err := dialect.ParseVariant(" MariaDB ")
	c.Assert(err, IsNil)
	c.Check(v, Equals, dialect.MySQL)
	v, err = dialect.ParseVariant("postgres")
	c.Assert(err, IsNil)
	c.Check(v, Equals, dialect.PostgreSQL)

	_, err = dialect.ParseVariant("oracle")
	c.Assert(err, ErrorMatches, `unknown database variant "oracle"`)
	c.Check(dialect.Variant(42).String(), Equals, "Variant(42)")
}
