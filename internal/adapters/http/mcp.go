package httpadapter

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/notewise/internal/core/domain"
	"github.com/kirillkom/notewise/internal/core/ports"
)

type mcpTools struct {
	notes ports.NoteService
}

func newMCPServer(notes ports.NoteService) *server.MCPServer {
	tools := &mcpTools{notes: notes}
	s := server.NewMCPServer("notewise", "1.0.0", server.WithToolCapabilities(false))

	s.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Save a note. Categories are assigned automatically."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Note body.")),
		mcp.WithString("title", mcp.Description("Optional title, at most 100 characters.")),
	), tools.createNote)

	s.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List notes newest first, optionally filtered."),
		mcp.WithString("category", mcp.Description("Category to filter by; All or empty matches every note."),
			mcp.Enum(append([]string{domain.CategoryAll}, domain.Vocabulary...)...)),
		mcp.WithString("search", mcp.Description("Case-insensitive text to find in title or content.")),
		mcp.WithBoolean("bookmarked_only", mcp.Description("Only return bookmarked notes.")),
	), tools.listNotes)

	s.AddTool(mcp.NewTool("toggle_bookmark",
		mcp.WithDescription("Flip the bookmark flag of a note."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Note id.")),
	), tools.toggleBookmark)

	s.AddTool(mcp.NewTool("delete_note",
		mcp.WithDescription("Delete a note."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Note id.")),
	), tools.deleteNote)

	return s
}

func newMCPHandler(notes ports.NoteService) http.Handler {
	return server.NewStreamableHTTPServer(newMCPServer(notes))
}

func (t *mcpTools) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var title *string
	if raw := req.GetString("title", ""); raw != "" {
		title = &raw
	}
	note, categorization, err := t.notes.Create(ctx, title, content)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(noteResponse{Note: note, Categorization: toCategorizationResponse(categorization)})
}

func (t *mcpTools) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := domain.NoteFilter{
		Category:       strings.TrimSpace(req.GetString("category", "")),
		Search:         req.GetString("search", ""),
		BookmarkedOnly: req.GetBool("bookmarked_only", false),
	}
	if err := validateFilterCategory(filter.Category); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	notes, err := t.notes.List(ctx, filter)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"notes": notes})
}

func (t *mcpTools) toggleBookmark(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := t.notes.ToggleBookmark(ctx, int64(id))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(note)
}

func (t *mcpTools) deleteNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := t.notes.Delete(ctx, int64(id)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("deleted"), nil
}

func jsonResult(payload any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(raw)), nil
}
