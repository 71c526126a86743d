// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

/*
Package condition builds predicates over entity properties and compiles
them into parametrized SQL.

A condition is an immutable tree of Expression and Condition nodes:

	name := condition.Field[string]("name")
	age := condition.Field[int]("age")
	cond := condition.And(name.LikeIgnoreCase("fr%"), age.Ge(18))

A Compiler turns the tree into a ParametrizedSQL, a SQL fragment with :name
placeholders and the value bound to each name. The dialect.Quirks of the
compiler decide how dialect specific nodes are rendered:

	psql, err := condition.Compiler{Quirks: dialect.ForVariant(dialect.MySQL)}.Compile(cond)

Every compilation uses fresh parameter names, so fragments from separate
compilations can be merged without collisions.

The same tree can be tested against rows held in memory with an Evaluator.
Comparisons follow SQL null semantics: a comparison with NULL never holds.

NoCondition is the identity of And and Or. It matches every row but has no
SQL form of its own, and compiling it on its own is an error.
*/
package condition
