package search

import "strings"

// QueryEnhancer appends domain synonyms to a query before it is embedded.
//
// Example:
//
//	Input:  "best ai tools"
//	Output: "best ai tools artificial intelligence machine learning"
type QueryEnhancer struct {
	synonyms []Synonym
}

// QueryEnhancerOption configures the enhancer.
type QueryEnhancerOption func(*QueryEnhancer)

// WithSynonyms appends entries after the defaults.
func WithSynonyms(extra ...Synonym) QueryEnhancerOption {
	return func(e *QueryEnhancer) {
		for _, s := range extra {
			e.synonyms = append(e.synonyms, Synonym{
				Trigger:   strings.ToLower(s.Trigger),
				Expansion: s.Expansion,
			})
		}
	}
}

// WithoutDefaults starts from an empty table.
func WithoutDefaults() QueryEnhancerOption {
	return func(e *QueryEnhancer) {
		e.synonyms = nil
	}
}

// NewQueryEnhancer creates an enhancer with DefaultSynonyms.
func NewQueryEnhancer(opts ...QueryEnhancerOption) *QueryEnhancer {
	e := &QueryEnhancer{
		synonyms: append([]Synonym(nil), DefaultSynonyms...),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enhance returns query followed by the expansion of every trigger it
// contains (case-insensitive), in table order. Each entry contributes at
// most once. The result always starts with the verbatim query.
func (e *QueryEnhancer) Enhance(query string) string {
	lower := strings.ToLower(query)

	var sb strings.Builder
	sb.WriteString(query)
	for _, s := range e.synonyms {
		if s.Trigger == "" || !strings.Contains(lower, s.Trigger) {
			continue
		}
		sb.WriteByte(' ')
		sb.WriteString(s.Expansion)
	}
	return sb.String()
}
