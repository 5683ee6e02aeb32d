package server

import (
	"time"

	"github.com/Aman-CERP/personalvault/internal/search"
	"github.com/Aman-CERP/personalvault/internal/store"
)

// dateLayout formats lastAccessed for list views.
const dateLayout = "2006-01-02"

type addNoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type addVaultItemRequest struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Tags     []string `json:"tags"`
	Type     string   `json:"type"`
	Category string   `json:"category"`
}

type searchRequest struct {
	Query string `json:"query"`
}

type chatRequest struct {
	Message string `json:"message"`
}

type generateTagsRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type noteResponse struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type vaultItemResponse struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Tags         []string  `json:"tags"`
	Type         string    `json:"type"`
	Category     string    `json:"category"`
	CreatedAt    time.Time `json:"createdAt"`
	LastAccessed string    `json:"lastAccessed"`
}

// searchResultResponse is one ranked hit. Type is "note" or "vault";
// ItemType carries the vault item's own type.
type searchResultResponse struct {
	ID         int64                 `json:"id"`
	Title      string                `json:"title"`
	Content    string                `json:"content"`
	Type       store.Kind            `json:"type"`
	ItemType   string                `json:"itemType,omitempty"`
	Category   string                `json:"category,omitempty"`
	Tags       []string              `json:"tags,omitempty"`
	Similarity float64               `json:"similarity"`
	Breakdown  search.ScoreBreakdown `json:"breakdown"`
	CreatedAt  time.Time             `json:"createdAt"`
}

func toNoteResponse(n *store.Note) noteResponse {
	return noteResponse{
		ID:        n.ID,
		Title:     n.Title,
		Content:   n.Content,
		CreatedAt: n.CreatedAt,
	}
}

func toVaultItemResponse(v *store.VaultItem) vaultItemResponse {
	tags := v.Tags
	if tags == nil {
		tags = []string{}
	}
	return vaultItemResponse{
		ID:           v.ID,
		Title:        v.Title,
		Content:      v.Content,
		Tags:         tags,
		Type:         v.Type,
		Category:     v.Category,
		CreatedAt:    v.CreatedAt,
		LastAccessed: v.CreatedAt.Local().Format(dateLayout),
	}
}

func toSearchResultResponse(r *search.Result) searchResultResponse {
	resp := searchResultResponse{
		ID:         r.Item.ID(),
		Title:      r.Item.Title(),
		Content:    r.Item.Content(),
		Type:       r.Item.Kind,
		Similarity: r.Score,
		Breakdown:  r.Breakdown,
		CreatedAt:  r.Item.CreatedAt(),
	}
	if r.Item.Kind == store.KindVaultItem {
		resp.ItemType = r.Item.Vault.Type
		resp.Category = r.Item.Vault.Category
		resp.Tags = r.Item.Tags()
		if resp.Tags == nil {
			resp.Tags = []string{}
		}
	}
	return resp
}
