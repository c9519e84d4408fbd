// Package match finds known slang terms in free text using whole-token
// matching. It is a pure function of its inputs: no normalization beyond
// lowercasing, no stemming.
package match

import (
	"strings"
	"unicode"
)

// Detect returns the subset of terms that occur in text as whole tokens,
// case-insensitively. Single-word terms must align with token boundaries
// ("cap" never matches inside "capable"); multi-word terms must appear as
// the exact contiguous token sequence. Results are in first-seen order of
// the terms slice and are always a subset of it.
func Detect(text string, terms []string) []string {
	if len(terms) == 0 {
		return nil
	}

	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}

	unigrams := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		unigrams[tok] = struct{}{}
	}

	var found []string
	for _, term := range terms {
		normalized := strings.ToLower(strings.TrimSpace(term))
		if normalized == "" {
			continue
		}
		parts := strings.Fields(normalized)
		if len(parts) == 1 {
			if _, ok := unigrams[normalized]; ok {
				found = append(found, term)
			}
			continue
		}
		if containsPhrase(tokens, parts) {
			found = append(found, term)
		}
	}
	return found
}

// containsPhrase reports whether parts occurs as a contiguous run in tokens.
func containsPhrase(tokens, parts []string) bool {
	if len(parts) > len(tokens) {
		return false
	}
	for i := 0; i+len(parts) <= len(tokens); i++ {
		matched := true
		for j, p := range parts {
			if tokens[i+j] != p {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}

// Tokenize splits text into lowercase word tokens. A token is a maximal run
// of letters, digits, or underscores, so punctuation and whitespace act as
// token boundaries.
func Tokenize(text string) []string {
	var tokens []string
	var current strings.Builder

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			current.WriteRune(unicode.ToLower(r))
		} else if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}
