package search

import (
	"strings"
	"unicode/utf8"
)

// LexicalScore returns the fraction of query tokens (at least minTokenLen
// runes long) that match some text token, in [0, 1]. A query token matches
// when a text token contains it or it contains a text token, which catches
// plurals and simple stems. Matching is case-insensitive. With no qualifying
// query tokens the score is 0.
func LexicalScore(query, text string, minTokenLen int) float64 {
	var queryTokens []string
	for _, tok := range strings.Fields(strings.ToLower(query)) {
		if utf8.RuneCountInString(tok) >= minTokenLen {
			queryTokens = append(queryTokens, tok)
		}
	}
	if len(queryTokens) == 0 {
		return 0
	}

	textTokens := strings.Fields(strings.ToLower(text))

	matches := 0
	for _, q := range queryTokens {
		for _, t := range textTokens {
			if strings.Contains(t, q) || strings.Contains(q, t) {
				matches++
				break
			}
		}
	}
	return float64(matches) / float64(len(queryTokens))
}

// containsFold reports whether s contains substr, ignoring case.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// titleMatches reports whether the title contains the raw query.
func titleMatches(title, query string) bool {
	return containsFold(title, query)
}

// tagsMatch reports whether any tag contains the raw query.
func tagsMatch(tags []string, query string) bool {
	for _, tag := range tags {
		if containsFold(tag, query) {
			return true
		}
	}
	return false
}
