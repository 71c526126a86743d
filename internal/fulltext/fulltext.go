// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

// Package fulltext splits free text into the words of a full-text search.
package fulltext

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Tokenize returns the distinct words of text in order of first appearance,
// lowercased for the given locale. Words are found with Unicode word
// segmentation, so "don't" stays one word while "quick-brown" is two.
// Segments that do not start with a letter or digit are dropped.
func Tokenize(text string, tag language.Tag) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	text = cases.Lower(tag).String(norm.NFC.String(text))

	var words []string
	seen := make(map[string]bool)
	state := -1
	for text != "" {
		var word string
		word, text, state = uniseg.FirstWordInString(text, state)
		word = strings.TrimSpace(word)
		if word == "" || !isWordStart(word) || seen[word] {
			continue
		}
		seen[word] = true
		words = append(words, word)
	}
	return words
}

func isWordStart(word string) bool {
	r, _ := utf8.DecodeRuneInString(word)
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Other_Alphabetic, r)
}

// MatchesPrefixes reports whether every one of words is a prefix of some
// word of probe. An empty probe matches nothing.
func MatchesPrefixes(probe string, words []string, tag language.Tag) bool {
	probeWords := Tokenize(probe, tag)
	if len(probeWords) == 0 {
		return false
	}
	for _, w := range words {
		found := false
		for _, pw := range probeWords {
			if strings.HasPrefix(pw, w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
