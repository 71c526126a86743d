// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package dialect

import "strconv"

// mssqlQuirks serves Microsoft SQL Server, which paginates with the standard
// OFFSET ... FETCH syntax.
type mssqlQuirks struct {
	genericQuirks
}

func (mssqlQuirks) PaginationClause(offset, limit *int64) (string, error) {
	if limit != nil && *limit == 0 {
		// FETCH NEXT 0 ROWS is not valid.
		return "", &ArgumentError{Param: "limit", Value: 0, Min: 1}
	}
	if offset == nil && limit == nil {
		return "", nil
	}
	var o int64
	if offset != nil {
		o = *offset
	}
	clause := "OFFSET " + strconv.FormatInt(o, 10) + " ROWS"
	if limit != nil {
		clause += " FETCH NEXT " + strconv.FormatInt(*limit, 10) + " ROWS ONLY"
	}
	return clause, nil
}

func (mssqlQuirks) PaginationRequiresOrderBy() string {
	return "ORDER BY (SELECT 1)"
}

func (mssqlQuirks) Placeholder() PlaceholderStyle {
	return PlaceholderAtP
}

func (mssqlQuirks) IfNullFunction() string {
	return "ISNULL"
}
