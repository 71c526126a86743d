// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

/*
Package typeinfo contains the reflection used to treat Go structs as entity
rows. Struct fields are mapped to columns by their "db" tags and the
information is generated once per type and cached. The package also locates
property values in rows for in-memory evaluation and builds scan targets for
query results.
*/
package typeinfo
