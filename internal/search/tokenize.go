package search

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tokenize splits text into lowercase word tokens of at least two characters.
// Letters, digits and underscores form words; everything else separates them.
func Tokenize(text string) []string {
	f := func(c rune) bool {
		return !unicode.IsLetter(c) && !unicode.IsNumber(c) && c != '_'
	}
	fields := strings.FieldsFunc(strings.ToLower(text), f)
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		if utf8.RuneCountInString(field) < 2 {
			continue
		}
		tokens = append(tokens, field)
	}
	return tokens
}

// TokenizeFiltered tokenizes text and drops stop words
func TokenizeFiltered(text string, stopWords StopWords) []string {
	tokens := Tokenize(text)
	if len(stopWords) == 0 {
		return tokens
	}
	kept := tokens[:0]
	for _, token := range tokens {
		if !stopWords.Contains(token) {
			kept = append(kept, token)
		}
	}
	return kept
}
