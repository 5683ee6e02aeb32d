package mcp

// SearchInput defines the input schema for the search_vault tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"what to look for in notes and vault items"`
}

// SearchOutput defines the output schema for the search_vault tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results" jsonschema:"ranked matches, best first, at most three"`
}

// SearchResultOutput is a single ranked match.
type SearchResultOutput struct {
	ID         int64    `json:"id" jsonschema:"item id"`
	Kind       string   `json:"kind" jsonschema:"note or vault"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Tags       []string `json:"tags,omitempty"`
	Score      float64  `json:"score" jsonschema:"blended relevance score"`
	Similarity int      `json:"similarity" jsonschema:"score as a rounded percentage"`
}

// ChatInput defines the input schema for the chat_vault tool.
type ChatInput struct {
	Message string `json:"message" jsonschema:"a question answered from stored vault items"`
}

// ChatOutput defines the output schema for the chat_vault tool.
type ChatOutput struct {
	Response string             `json:"response"`
	Sources  []ChatSourceOutput `json:"sources,omitempty"`
}

// ChatSourceOutput is a vault item that supported a chat reply.
type ChatSourceOutput struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Similarity int    `json:"similarity"`
}

// AddNoteInput defines the input schema for the add_note tool.
type AddNoteInput struct {
	Title   string `json:"title" jsonschema:"note title"`
	Content string `json:"content" jsonschema:"note body"`
}

// AddNoteOutput defines the output schema for the add_note tool.
type AddNoteOutput struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
}

// SuggestTagsInput defines the input schema for the suggest_tags tool.
type SuggestTagsInput struct {
	Title   string `json:"title,omitempty" jsonschema:"item title"`
	Content string `json:"content,omitempty" jsonschema:"item content"`
}

// SuggestTagsOutput defines the output schema for the suggest_tags tool.
type SuggestTagsOutput struct {
	Tags []string `json:"tags"`
}

// StatusInput defines the input schema for the vault_status tool (no parameters).
type StatusInput struct{}

// StatusOutput defines the output schema for the vault_status tool.
type StatusOutput struct {
	Notes             int    `json:"notes"`
	VaultItems        int    `json:"vault_items"`
	Model             string `json:"model"`
	EmbedderAvailable bool   `json:"embedder_available"`
}
