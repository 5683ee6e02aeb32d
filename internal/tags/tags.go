// Package tags suggests tags for a new item from its title and content.
// It is a plain text heuristic; no embedding is involved.
package tags

import (
	"regexp"
	"strings"
)

// MaxSuggestions is the most tags SuggestTags returns.
const MaxSuggestions = 5

// wordPattern matches alphabetic words of 3 to 12 letters.
var wordPattern = regexp.MustCompile(`\b[a-z]{3,12}\b`)

// stopWords are articles, auxiliaries and conjunctions never worth a tag.
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {}, "at": {},
	"to": {}, "for": {}, "of": {}, "with": {}, "by": {}, "is": {}, "are": {},
	"was": {}, "were": {}, "be": {}, "been": {}, "have": {}, "has": {},
	"had": {}, "do": {}, "does": {}, "did": {}, "will": {}, "would": {},
	"could": {}, "should": {}, "may": {}, "might": {}, "can": {}, "must": {},
	"shall": {}, "a": {}, "an": {},
}

// SuggestTags returns up to MaxSuggestions lowercase words from title and
// content, skipping stop words and duplicates, in first-occurrence order.
func SuggestTags(title, content string) []string {
	text := strings.ToLower(title + " " + content)

	seen := make(map[string]struct{})
	tags := make([]string, 0, MaxSuggestions)
	for _, word := range wordPattern.FindAllString(text, -1) {
		if _, stop := stopWords[word]; stop {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		tags = append(tags, word)
		if len(tags) == MaxSuggestions {
			break
		}
	}
	return tags
}
