package server

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	verrors "github.com/Aman-CERP/personalvault/internal/errors"
	"github.com/Aman-CERP/personalvault/internal/vault"
)

// writeError maps err to a status code. Validation problems are 400 and
// missing items 404, both with their own message; anything else is a 500
// with the generic public message, and the detail only goes to the log.
func writeError(c *gin.Context, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case verrors.IsValidation(err):
		status = http.StatusBadRequest
	case verrors.IsNotFound(err):
		status = http.StatusNotFound
	default:
		_ = c.Error(err)
		slog.Error("request_failed", append([]any{slog.String("op", op)}, verrors.LogAttrs(err)...)...)
	}
	c.JSON(status, gin.H{"error": verrors.PublicMessage(err)})
}

// bindJSON decodes the body into dst, reporting malformed JSON as a 400.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return false
	}
	return true
}

// queryID parses the required ?id= parameter.
func queryID(c *gin.Context) (int64, bool) {
	raw := strings.TrimSpace(c.Query("id"))
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID is required"})
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID must be a positive integer"})
		return 0, false
	}
	return id, true
}

func (s *Server) health(c *gin.Context) {
	status, err := s.svc.Status(c.Request.Context())
	if err != nil {
		writeError(c, "health", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "vault": status})
}

func (s *Server) addNote(c *gin.Context) {
	var req addNoteRequest
	if !bindJSON(c, &req) {
		return
	}

	note, err := s.svc.AddNote(c.Request.Context(), vault.NoteInput{Title: req.Title, Content: req.Content})
	if err != nil {
		writeError(c, "add_note", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "note": toNoteResponse(note)})
}

func (s *Server) listNotes(c *gin.Context) {
	notes, err := s.svc.ListNotes(c.Request.Context())
	if err != nil {
		writeError(c, "list_notes", err)
		return
	}

	out := make([]noteResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, toNoteResponse(n))
	}
	c.JSON(http.StatusOK, gin.H{"notes": out})
}

func (s *Server) deleteNote(c *gin.Context) {
	id, ok := queryID(c)
	if !ok {
		return
	}
	if err := s.svc.DeleteNote(c.Request.Context(), id); err != nil {
		writeError(c, "delete_note", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) addVaultItem(c *gin.Context) {
	var req addVaultItemRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := s.svc.AddVaultItem(c.Request.Context(), vault.VaultItemInput{
		Title:    req.Title,
		Content:  req.Content,
		Tags:     req.Tags,
		Type:     req.Type,
		Category: req.Category,
	})
	if err != nil {
		writeError(c, "add_vault_item", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "item": toVaultItemResponse(item)})
}

func (s *Server) listVaultItems(c *gin.Context) {
	items, err := s.svc.ListVaultItems(c.Request.Context())
	if err != nil {
		writeError(c, "list_vault_items", err)
		return
	}

	out := make([]vaultItemResponse, 0, len(items))
	for _, v := range items {
		out = append(out, toVaultItemResponse(v))
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}

func (s *Server) deleteVaultItem(c *gin.Context) {
	id, ok := queryID(c)
	if !ok {
		return
	}
	if err := s.svc.DeleteVaultItem(c.Request.Context(), id); err != nil {
		writeError(c, "delete_vault_item", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) search(c *gin.Context) {
	var req searchRequest
	if !bindJSON(c, &req) {
		return
	}

	results, err := s.svc.Search(c.Request.Context(), req.Query)
	if err != nil {
		writeError(c, "search", err)
		return
	}

	out := make([]searchResultResponse, 0, len(results))
	for _, r := range results {
		out = append(out, toSearchResultResponse(r))
	}
	c.JSON(http.StatusOK, gin.H{"results": out})
}

func (s *Server) chat(c *gin.Context) {
	var req chatRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := s.svc.Chat(c.Request.Context(), req.Message)
	if err != nil {
		writeError(c, "chat", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) generateTags(c *gin.Context) {
	var req generateTagsRequest
	if !bindJSON(c, &req) {
		return
	}

	tags, err := s.svc.SuggestTags(req.Title, req.Content)
	if err != nil {
		writeError(c, "generate_tags", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}
