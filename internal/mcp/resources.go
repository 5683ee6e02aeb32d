package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Resource URIs served by the vault.
const (
	StatusResourceURI = "vault://status"
	ItemsResourceURI  = "vault://items"
)

// ItemSummary is a vault item without its content or embedding.
type ItemSummary struct {
	ID        int64    `json:"id"`
	Title     string   `json:"title"`
	Type      string   `json:"type"`
	Category  string   `json:"category"`
	Tags      []string `json:"tags"`
	CreatedAt string   `json:"created_at"`
}

func (s *Server) registerResources() {
	s.mcp.AddResource(
		&mcp.Resource{
			Name:        "vault_status",
			URI:         StatusResourceURI,
			Description: "Item counts and active embedding model",
			MIMEType:    "application/json",
		},
		s.handleStatusResource,
	)
	s.mcp.AddResource(
		&mcp.Resource{
			Name:        "vault_items",
			URI:         ItemsResourceURI,
			Description: "Stored vault items, newest first, without content",
			MIMEType:    "application/json",
		},
		s.handleItemsResource,
	)
}

func (s *Server) handleStatusResource(ctx context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	out, err := s.status(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResource(StatusResourceURI, out)
}

func (s *Server) handleItemsResource(ctx context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	items, err := s.svc.ListVaultItems(ctx)
	if err != nil {
		return nil, MapError(err)
	}

	summaries := make([]ItemSummary, 0, len(items))
	for _, it := range items {
		summaries = append(summaries, ItemSummary{
			ID:        it.ID,
			Title:     it.Title,
			Type:      it.Type,
			Category:  it.Category,
			Tags:      it.Tags,
			CreatedAt: it.CreatedAt.Format(time.RFC3339),
		})
	}
	return jsonResource(ItemsResourceURI, summaries)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	content, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, MapError(err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: "application/json",
				Text:     string(content),
			},
		},
	}, nil
}
