// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

/*
Package dialect normalises the differences between SQL database families that
matter when a compiled condition is embedded into a statement.

A [Variant] names a database family. Each variant has a [Quirks] strategy that
supplies the pagination clause, the ORDER BY that must accompany pagination,
the rendering of boolean-like comparisons, the wire encoding of opaque
identifiers such as UUIDs, the placeholder style of the driver and the
full-text search syntax.

The variant of a live database is found by a [Detector]. It derives the
backend's product name from the database/sql driver or, failing that, from a
short list of probe queries, and matches it against an ordered list of
recognizers. The first recognizer that matches wins and an unrecognised
product resolves to [Unknown].
*/
package dialect
