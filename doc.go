// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

/*
Package sqlcond runs conditions built with the condition package against SQL databases.

Conditions are written once as Go values and compiled to the SQL of whichever database they run on.
The dialect of a database is detected the first time it is used, from the database/sql driver when it is known and otherwise from the product name the database reports.
The same conditions can be tested against values held in memory with condition.Test.

# Basics

Entities are Go structs whose columns are named in `db` tags.
A Table binds an entity type to a table name:

	type Person struct {
		Name	string	`db:"name"`
		ID	int	`db:"id"`
		Team	string	`db:"team"`
	}

	var people = sqlcond.MustNewTable("person", Person{})

Conditions refer to entity properties by column name or field name:

	team := condition.Field[string]("team")
	id := condition.Field[int]("id")

	db, err := sqlcond.NewDB(sqldb)
	...
	var engineers []Person
	err = db.Find(ctx, people, condition.And(team.Eq("engineering"), id.Lt(10)),
		sqlcond.OrderBy(sqlcond.Asc("name")), sqlcond.Limit(20)).GetAll(&engineers)

On SQLite this runs:

	SELECT person.name, person.id, person.team FROM person
	WHERE ((person.team) = (?)) AND ((person.id) < (?))
	ORDER BY person.name LIMIT 20

and on SQL Server the same query uses @p1 placeholders and OFFSET ... FETCH NEXT pagination.

# Dialects

The dialect can be fixed instead of detected, either with the WithVariant option or in a Config:

	cfg, err := sqlcond.LoadConfig("sqlcond.yaml", nil)
	...
	db, err := sqlcond.NewDB(sqldb, sqlcond.WithConfig(cfg))

LoadConfig reads defaults, then the YAML file, then SQLCOND_ environment variables.

# Queries

Find returns a Query which is run with one of:

  - Get reads the first row.
  - Single reads the only row, failing if there are more.
  - GetAll reads every row into a slice.
  - Iter returns an Iterator to read the rows one by one.

Rows are read into structs with `db` tags or maps with string keys such as M.
A limit of zero returns no rows without querying the database.

Count, Exists and Delete run on the rows of a table matching a condition.
condition.NoCondition matches every row.
*/
package sqlcond
