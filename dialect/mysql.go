// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package dialect

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// mysqlUnboundedLimit stands in for a missing limit since MySQL and MariaDB
// only accept OFFSET after LIMIT.
const mysqlUnboundedLimit = int64(math.MaxInt32)

// Words outside this length range are not in an InnoDB full-text index and
// would make a required term match nothing.
const (
	mysqlMinIndexedWord = 3
	mysqlMaxIndexedWord = 84
)

// mysqlQuirks serves MySQL and MariaDB.
type mysqlQuirks struct {
	genericQuirks
}

func (q mysqlQuirks) PaginationClause(offset, limit *int64) (string, error) {
	if offset != nil && limit == nil {
		unbounded := mysqlUnboundedLimit
		limit = &unbounded
	}
	return q.genericQuirks.PaginationClause(offset, limit)
}

// EncodeOpaqueValue packs UUIDs into the 16 bytes of a BINARY(16) column.
func (mysqlQuirks) EncodeOpaqueValue(v any) any {
	switch u := v.(type) {
	case uuid.UUID:
		return EncodeUUID(u)
	case *uuid.UUID:
		if u == nil {
			return nil
		}
		return EncodeUUID(*u)
	}
	return v
}

func (mysqlQuirks) XorOperator() string {
	return "XOR"
}

// FullTextPredicate renders a boolean mode MATCH ... AGAINST in which every
// indexable word is a required prefix term.
func (mysqlQuirks) FullTextPredicate(column, param string, words []string) (FullText, error) {
	query := MySQLBooleanQuery(words)
	if query == "" {
		return FullText{MatchAll: true}, nil
	}
	return FullText{
		SQL:   "MATCH(" + column + ") AGAINST (" + param + " IN BOOLEAN MODE)",
		Query: query,
	}, nil
}

// MySQLBooleanQuery returns the boolean mode full-text query "+w1* +w2*" for
// the given words. Words too short or too long for the index are omitted.
// The result is empty if no word remains.
func MySQLBooleanQuery(words []string) string {
	var terms []string
	for _, word := range words {
		word = strings.TrimSpace(word)
		n := utf8.RuneCountInString(word)
		if n < mysqlMinIndexedWord || n > mysqlMaxIndexedWord {
			continue
		}
		terms = append(terms, "+"+word+"*")
	}
	return strings.Join(terms, " ")
}
