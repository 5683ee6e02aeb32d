package search

// Synonym maps a lowercase trigger to the phrase appended when the trigger
// occurs anywhere in a query.
type Synonym struct {
	Trigger   string
	Expansion string
}

// DefaultSynonyms is the built-in expansion table. Order matters: expansions
// are appended in this order.
//
// Triggers match as plain substrings, so "ai" also fires on "email" and
// "code" on "barcode". That recall-over-precision trade is intentional for
// the embedding input; the raw query is still used for lexical scoring.
var DefaultSynonyms = []Synonym{
	{Trigger: "ai", Expansion: "artificial intelligence machine learning"},
	{Trigger: "ml", Expansion: "machine learning artificial intelligence"},
	{Trigger: "tech", Expansion: "technology technical"},
	{Trigger: "dev", Expansion: "development developer programming"},
	{Trigger: "code", Expansion: "programming development software"},
}
