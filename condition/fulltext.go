// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package condition

import (
	"errors"
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"github.com/canonical/sqlcond/internal/fulltext"
)

// FullText holds when every word of the query is a prefix of a word in Arg.
// Words are found when the condition is compiled or evaluated, using the
// locale of the compiler or evaluator.
type FullText struct {
	arg   Expression
	query string
}

// NewFullText returns a full-text condition matching arg against query.
// The query is trimmed and must not be blank.
func NewFullText(arg Expression, query string) (FullText, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return FullText{}, errors.New("parameter query: invalid value: must not be blank")
	}
	if arg == nil {
		return FullText{}, errors.New("parameter arg: invalid value: must not be nil")
	}
	return FullText{arg: arg, query: query}, nil
}

// FullTextMatches returns a full-text condition matching arg against the
// user supplied query, or NoCondition if the query has no words to search
// for.
func FullTextMatches(arg Expression, query string) Condition {
	ft, err := NewFullText(arg, query)
	if err != nil {
		return NoCondition
	}
	if len(ft.Words(language.Und)) == 0 {
		return NoCondition
	}
	return ft
}

// Arg returns the expression searched.
func (f FullText) Arg() Expression {
	return f.arg
}

// Query returns the trimmed query.
func (f FullText) Query() string {
	return f.query
}

// Words returns the distinct lowercased words of the query.
func (f FullText) Words(tag language.Tag) []string {
	return fulltext.Tokenize(f.query, tag)
}

func (f FullText) Key() string {
	return "fulltext(" + exprKey(f.arg) + "," + strconv.Quote(f.query) + ")"
}

func (f FullText) String() string {
	return exprString(f.arg) + " ~ [" + strings.Join(f.Words(language.Und), ", ") + "]"
}
