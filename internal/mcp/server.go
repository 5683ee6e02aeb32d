package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	verrors "github.com/Aman-CERP/personalvault/internal/errors"
	"github.com/Aman-CERP/personalvault/internal/search"
	"github.com/Aman-CERP/personalvault/internal/store"
	"github.com/Aman-CERP/personalvault/internal/vault"
	"github.com/Aman-CERP/personalvault/pkg/version"
)

// ServerName is the implementation name reported during the handshake.
const ServerName = "personalvault"

// Service is the vault behaviour the MCP tools need.
type Service interface {
	AddNote(ctx context.Context, in vault.NoteInput) (*store.Note, error)
	Search(ctx context.Context, query string) ([]*search.Result, error)
	Chat(ctx context.Context, message string) (*search.ChatResponse, error)
	SuggestTags(title, content string) ([]string, error)
	Status(ctx context.Context) (*vault.Status, error)
	ListVaultItems(ctx context.Context) ([]*store.VaultItem, error)
}

// Verify interface implementation at compile time
var _ Service = (*vault.Service)(nil)

// Server is the MCP server for the vault.
type Server struct {
	mcp    *mcp.Server
	svc    Service
	logger *slog.Logger
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

var toolInfos = []ToolInfo{
	{
		Name:        "search_vault",
		Description: "Search personal notes and vault items by meaning and keywords. Returns at most three ranked matches.",
	},
	{
		Name:        "chat_vault",
		Description: "Answer a question from the most similar stored vault items, citing them as sources.",
	},
	{
		Name:        "add_note",
		Description: "Store a new note. Both title and content are required.",
	},
	{
		Name:        "suggest_tags",
		Description: "Suggest up to five tags for a title and content without storing anything.",
	},
	{
		Name:        "vault_status",
		Description: "Report item counts and which embedding model is active.",
	},
}

// NewServer creates a new MCP server backed by svc.
func NewServer(svc Service) (*Server, error) {
	if svc == nil {
		return nil, errors.New("vault service is required")
	}

	s := &Server{
		svc:    svc,
		logger: slog.Default(),
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    ServerName,
			Version: version.Version,
		},
		nil, // capabilities are inferred from registered tools and resources
	)

	s.registerTools()
	s.registerResources()

	return s, nil
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Info returns the server name and version.
func (s *Server) Info() (name, ver string) {
	return ServerName, version.Version
}

// Capabilities returns whether tools and resources are enabled.
func (s *Server) Capabilities() (hasTools, hasResources bool) {
	return true, true
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	out := make([]ToolInfo, len(toolInfos))
	copy(out, toolInfos)
	return out
}

// CallTool invokes a tool by name with loosely typed arguments.
// Search and chat return markdown; the other tools return their output structs.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case "search_vault":
		query, _ := args["query"].(string)
		return s.searchMarkdown(ctx, query)
	case "chat_vault":
		message, _ := args["message"].(string)
		resp, err := s.chat(ctx, ChatInput{Message: message})
		if err != nil {
			return "", err
		}
		return FormatChatResponse(resp), nil
	case "add_note":
		title, _ := args["title"].(string)
		content, _ := args["content"].(string)
		return s.addNote(ctx, AddNoteInput{Title: title, Content: content})
	case "suggest_tags":
		title, _ := args["title"].(string)
		content, _ := args["content"].(string)
		return s.suggestTags(SuggestTagsInput{Title: title, Content: content})
	case "vault_status":
		return s.status(ctx)
	default:
		return nil, NewMethodNotFoundError(name)
	}
}

// Serve starts the server with the specified transport.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("mcp_server_starting", slog.String("transport", transport))

	switch transport {
	case "stdio", "":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("mcp_server_stopped", slog.String("error", err.Error()))
		} else {
			s.logger.Info("mcp_server_stopped")
		}
		return err
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{Name: toolInfos[0].Name, Description: toolInfos[0].Description}, s.mcpSearchHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: toolInfos[1].Name, Description: toolInfos[1].Description}, s.mcpChatHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: toolInfos[2].Name, Description: toolInfos[2].Description}, s.mcpAddNoteHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: toolInfos[3].Name, Description: toolInfos[3].Description}, s.mcpSuggestTagsHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: toolInfos[4].Name, Description: toolInfos[4].Description}, s.mcpStatusHandler)

	s.logger.Debug("mcp_tools_registered", slog.Int("count", len(toolInfos)))
}

func (s *Server) mcpSearchHandler(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (
	*mcp.CallToolResult,
	SearchOutput,
	error,
) {
	results, err := s.search(ctx, input.Query)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{Results: make([]SearchResultOutput, 0, len(results))}
	for _, r := range results {
		output.Results = append(output.Results, ToSearchResultOutput(r))
	}
	return nil, output, nil
}

func (s *Server) mcpChatHandler(ctx context.Context, _ *mcp.CallToolRequest, input ChatInput) (
	*mcp.CallToolResult,
	ChatOutput,
	error,
) {
	resp, err := s.chat(ctx, input)
	if err != nil {
		return nil, ChatOutput{}, err
	}
	return nil, ToChatOutput(resp), nil
}

func (s *Server) mcpAddNoteHandler(ctx context.Context, _ *mcp.CallToolRequest, input AddNoteInput) (
	*mcp.CallToolResult,
	AddNoteOutput,
	error,
) {
	out, err := s.addNote(ctx, input)
	if err != nil {
		return nil, AddNoteOutput{}, err
	}
	return nil, *out, nil
}

func (s *Server) mcpSuggestTagsHandler(_ context.Context, _ *mcp.CallToolRequest, input SuggestTagsInput) (
	*mcp.CallToolResult,
	SuggestTagsOutput,
	error,
) {
	out, err := s.suggestTags(input)
	if err != nil {
		return nil, SuggestTagsOutput{}, err
	}
	return nil, *out, nil
}

func (s *Server) mcpStatusHandler(ctx context.Context, _ *mcp.CallToolRequest, _ StatusInput) (
	*mcp.CallToolResult,
	*StatusOutput,
	error,
) {
	out, err := s.status(ctx)
	if err != nil {
		return nil, nil, err
	}
	return nil, out, nil
}

func (s *Server) search(ctx context.Context, query string) ([]*search.Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, NewInvalidParamsError("query parameter is required")
	}

	start := time.Now()
	requestID := generateRequestID()

	results, err := s.svc.Search(ctx, query)
	if err != nil {
		s.logFailure("search_vault", requestID, start, err)
		return nil, MapError(err)
	}

	s.logger.Info("tool_complete",
		slog.String("tool", "search_vault"),
		slog.String("request_id", requestID),
		slog.Duration("duration", time.Since(start)),
		slog.Int("result_count", len(results)))
	return results, nil
}

func (s *Server) searchMarkdown(ctx context.Context, query string) (string, error) {
	results, err := s.search(ctx, query)
	if err != nil {
		return "", err
	}
	return FormatSearchResults(query, results), nil
}

func (s *Server) chat(ctx context.Context, input ChatInput) (*search.ChatResponse, error) {
	if strings.TrimSpace(input.Message) == "" {
		return nil, NewInvalidParamsError("message parameter is required")
	}

	start := time.Now()
	requestID := generateRequestID()

	resp, err := s.svc.Chat(ctx, input.Message)
	if err != nil {
		s.logFailure("chat_vault", requestID, start, err)
		return nil, MapError(err)
	}

	s.logger.Info("tool_complete",
		slog.String("tool", "chat_vault"),
		slog.String("request_id", requestID),
		slog.Duration("duration", time.Since(start)),
		slog.Int("source_count", len(resp.Sources)))
	return resp, nil
}

func (s *Server) addNote(ctx context.Context, input AddNoteInput) (*AddNoteOutput, error) {
	start := time.Now()
	requestID := generateRequestID()

	note, err := s.svc.AddNote(ctx, vault.NoteInput{Title: input.Title, Content: input.Content})
	if err != nil {
		s.logFailure("add_note", requestID, start, err)
		return nil, MapError(err)
	}

	return &AddNoteOutput{
		ID:        note.ID,
		Title:     note.Title,
		CreatedAt: note.CreatedAt.Format(time.RFC3339),
	}, nil
}

func (s *Server) suggestTags(input SuggestTagsInput) (*SuggestTagsOutput, error) {
	suggested, err := s.svc.SuggestTags(input.Title, input.Content)
	if err != nil {
		return nil, MapError(err)
	}
	return &SuggestTagsOutput{Tags: suggested}, nil
}

func (s *Server) status(ctx context.Context) (*StatusOutput, error) {
	st, err := s.svc.Status(ctx)
	if err != nil {
		return nil, MapError(err)
	}
	return &StatusOutput{
		Notes:             st.Notes,
		VaultItems:        st.VaultItems,
		Model:             st.Model,
		EmbedderAvailable: st.EmbedderAvailable,
	}, nil
}

func (s *Server) logFailure(tool, requestID string, start time.Time, err error) {
	attrs := []any{
		slog.String("tool", tool),
		slog.String("request_id", requestID),
		slog.Duration("duration", time.Since(start)),
	}
	s.logger.Error("tool_failed", append(attrs, verrors.LogAttrs(err)...)...)
}

// generateRequestID creates a short unique request ID for log correlation.
func generateRequestID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
