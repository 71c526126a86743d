// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

// Package bind rewrites the :name placeholders of compiled SQL into the
// positional placeholders of a database driver.
package bind

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/canonical/sqlcond/dialect"
)

// Statement is SQL ready to be run through database/sql.
type Statement struct {
	SQL  string
	Args []any
}

// Bind replaces every :name placeholder of query with the placeholder of
// style and returns the arguments in order. Placeholders inside string
// literals, quoted identifiers and comments are left alone, as are "::"
// casts. Every placeholder must have a value and every value must be used.
func Bind(query string, params map[string]any, style dialect.PlaceholderStyle) (stmt Statement, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("cannot bind parameters: %w", err)
		}
	}()

	b := &binder{}
	b.init(query)

	var sb strings.Builder
	// numbered maps names to their position for numbered styles.
	numbered := make(map[string]int)
	used := make(map[string]bool)
	var args []any
	mark := 0
	for b.pos < len(b.input) {
		if ok, err := b.skipQuoted(); err != nil {
			return Statement{}, err
		} else if ok {
			continue
		}
		if b.skipComment() {
			continue
		}
		if b.char != ':' {
			b.advanceChar()
			continue
		}

		start, line, col := b.pos, b.lineNum, b.colNum()
		b.advanceChar()
		if b.skipChar(':') {
			continue
		}
		nameStart := b.pos
		if !b.skipName() {
			continue
		}
		name := b.input[nameStart:b.pos]
		v, ok := params[name]
		if !ok {
			return Statement{}, errorAt(fmt.Errorf("parameter %q has no value", name), line, col, b.input)
		}
		used[name] = true

		sb.WriteString(b.input[mark:start])
		mark = b.pos
		if style == dialect.PlaceholderQuestion {
			args = append(args, v)
			sb.WriteString(style.Placeholder(len(args)))
			continue
		}
		n, ok := numbered[name]
		if !ok {
			args = append(args, v)
			n = len(args)
			numbered[name] = n
		}
		sb.WriteString(style.Placeholder(n))
	}
	sb.WriteString(b.input[mark:])

	if len(used) != len(params) {
		var unused []string
		for name := range params {
			if !used[name] {
				unused = append(unused, name)
			}
		}
		sort.Strings(unused)
		return Statement{}, fmt.Errorf("parameters not used in query: %s", strings.Join(unused, ", "))
	}
	return Statement{SQL: sb.String(), Args: args}, nil
}

type binder struct {
	input string
	pos   int
	// nextPos is start of the next char.
	nextPos int
	// char is the rune starting at pos. char is set to 0 when pos reaches the
	// end of input.
	char rune
	// lineNum is the number of the current line of the input.
	lineNum int
	// lineStart is the position of the first char of the current line in the
	// input.
	lineStart int
}

func (b *binder) init(input string) {
	b.input = input
	b.pos = 0
	b.nextPos = 0
	b.char = 0
	b.lineNum = 1
	b.lineStart = 0
	b.advanceChar()
}

// colNum calculates the current column number taking into account line breaks.
func (b *binder) colNum() int {
	return b.pos - b.lineStart + 1
}

// advanceChar moves to the next character in the input, keeping track of
// line breaks.
func (b *binder) advanceChar() bool {
	if b.nextPos >= len(b.input) {
		b.char = 0
		b.pos = b.nextPos
		return false
	}
	if b.char == '\n' {
		b.lineStart = b.nextPos
		b.lineNum++
	}
	var size int
	b.char, size = utf8.DecodeRuneInString(b.input[b.nextPos:])
	b.pos = b.nextPos
	b.nextPos += size
	return true
}

// errorAt wraps an error with line and column information.
func errorAt(err error, line int, column int, input string) error {
	if strings.ContainsRune(input, '\n') {
		return fmt.Errorf("line %d, column %d: %w", line, column, err)
	}
	return fmt.Errorf("column %d: %w", column, err)
}

type checkpoint struct {
	binder    *binder
	pos       int
	nextPos   int
	char      rune
	lineNum   int
	lineStart int
}

func (b *binder) save() checkpoint {
	return checkpoint{
		binder:    b,
		pos:       b.pos,
		nextPos:   b.nextPos,
		char:      b.char,
		lineNum:   b.lineNum,
		lineStart: b.lineStart,
	}
}

func (cp checkpoint) restore() {
	cp.binder.pos = cp.pos
	cp.binder.nextPos = cp.nextPos
	cp.binder.char = cp.char
	cp.binder.lineNum = cp.lineNum
	cp.binder.lineStart = cp.lineStart
}

// skipComment jumps over -- and /* */ comments. If no comment is found the
// state is left unchanged.
func (b *binder) skipComment() bool {
	cp := b.save()
	c := b.char
	if b.skipChar('-') || b.skipChar('/') {
		if (c == '-' && b.skipChar('-')) || (c == '/' && b.skipChar('*')) {
			var end rune
			if c == '-' {
				end = '\n'
			} else {
				end = '*'
			}
			for b.pos < len(b.input) {
				if b.char == end {
					// The newline ending a -- comment is not consumed.
					if end == '*' {
						b.advanceChar()
						if !b.skipChar('/') {
							continue
						}
					}
					return true
				}
				b.advanceChar()
			}
			return true
		}
		cp.restore()
		return false
	}
	return false
}

// skipQuoted jumps over string literals and quoted identifiers. Doubled up
// quotes are escaped.
func (b *binder) skipQuoted() (bool, error) {
	cp := b.save()

	c := b.char
	if b.skipChar('"') || b.skipChar('\'') || b.skipChar('`') {
		// We keep track of whether the next quote has been previously
		// escaped. If not, it might be a closing quote.
		maybeCloser := true
		for b.skipCharFind(c) {
			if maybeCloser && !b.peekChar(c) {
				return true, nil
			}
			maybeCloser = !maybeCloser
		}

		cp.restore()
		return false, errorAt(errors.New("missing closing quote"), b.lineNum, b.colNum(), b.input)
	}
	return false, nil
}

func (b *binder) peekChar(c rune) bool {
	return b.pos < len(b.input) && b.char == c
}

func (b *binder) skipChar(c rune) bool {
	if b.pos < len(b.input) && b.char == c {
		b.advanceChar()
		return true
	}
	return false
}

// skipCharFind advances past the next occurrence of c. If there is none the
// state is left unchanged.
func (b *binder) skipCharFind(c rune) bool {
	cp := b.save()
	for b.pos < len(b.input) {
		if b.char == c {
			b.advanceChar()
			return true
		}
		b.advanceChar()
	}
	cp.restore()
	return false
}

// isNameChar returns true if the given char can be part of a name.
func isNameChar(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_'
}

// isInitialNameChar returns true if the given char can appear at the start
// of a name.
func isInitialNameChar(c rune) bool {
	return unicode.IsLetter(c) || c == '_'
}

// skipName advances past a name and reports whether there was one.
func (b *binder) skipName() bool {
	if b.pos >= len(b.input) {
		return false
	}
	mark := b.pos
	if isInitialNameChar(b.char) {
		b.advanceChar()
		for b.pos < len(b.input) && isNameChar(b.char) {
			b.advanceChar()
		}
	}
	return b.pos > mark
}
