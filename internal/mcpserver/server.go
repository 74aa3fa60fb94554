// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Slate tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/slatehq/slate/internal/noteservice"
	"github.com/slatehq/slate/internal/refs"
)

// Server wraps the MCP server with Slate tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates a new MCP server with all Slate tools registered.
func New(svc *noteservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Slate",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Full-text search through note content and titles."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read a note by id, including its kind, links, and AN-n number."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List notes, optionally filtered by kind (source, atomic, hub, structured)."),
		mcp.WithString("kind", mcp.Description("Optional kind filter (empty for all)")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("create_source_note",
		mcp.WithDescription("Create a new source note. Content is free-form text; it can "+
			"later be decomposed into atomic notes. Read the note model first via the "+
			"get_note_model tool or the slate://note-model resource."),
		mcp.WithString("title", mcp.Description("Optional display title")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Note body text")),
	), s.createSourceNote)

	s.mcp.AddTool(mcp.NewTool("decompose_note",
		mcp.WithDescription("Propose atomic-note candidates for a note. Candidates are "+
			"proposals only; nothing is persisted until they are approved."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Id of the note to decompose")),
	), s.decomposeNote)

	s.mcp.AddTool(mcp.NewTool("ask_question",
		mcp.WithDescription("Answer a question using the atomic notes, with AN-n citations."),
		mcp.WithString("question", mcp.Required(), mcp.Description("The question to answer")),
	), s.askQuestion)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("List the ids of notes linking to the given note (hubs, structures, derived atomics)."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("resolve_reference",
		mcp.WithDescription("Resolve an AN-n citation token to its atomic note."),
		mcp.WithString("reference", mcp.Required(), mcp.Description("Citation token, e.g. AN-7")),
	), s.resolveReference)

	s.mcp.AddTool(mcp.NewTool("get_note_model",
		mcp.WithDescription("Returns the canonical Slate note model contract. "+
			"Call this before creating notes to understand kinds and references."),
	), s.getNoteModel)

	// Resource: note model contract.
	s.mcp.AddResource(
		mcp.NewResource("slate://note-model", "Note Model Contract",
			mcp.WithResourceDescription("Canonical note kinds and reference scheme all notes follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteModelResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.GetNote(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	out, _ := json.MarshalIndent(note, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind := ""
	if k, err := req.RequireString("kind"); err == nil {
		kind = k
	}
	notes, _, err := s.svc.ListNotes(ctx, kind, 0, 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var lines []string
	for _, n := range notes {
		line := fmt.Sprintf("%s\t%s\t%s", n.ID, n.Kind, n.Title)
		if n.GlobalNumber > 0 {
			line += "\t" + refs.FormatReference(n.GlobalNumber)
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("no notes"), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) createSourceNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title := ""
	if t, err := req.RequireString("title"); err == nil {
		title = t
	}
	note, err := s.svc.CreateSourceNote(ctx, title, content)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", note.ID)), nil
}

func (s *Server) decomposeNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cands, err := s.svc.Decompose(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	out, _ := json.MarshalIndent(cands, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) askQuestion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := req.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ans, err := s.svc.Ask(ctx, question)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if ans == nil {
		return mcp.NewToolResultText("no answer could be generated from the notes"), nil
	}
	out, _ := json.MarshalIndent(ans, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	back, err := s.svc.Backlinks(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(back) == 0 {
		return mcp.NewToolResultText("no backlinks"), nil
	}
	return mcp.NewToolResultText(strings.Join(back, "\n")), nil
}

func (s *Server) resolveReference(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := req.RequireString("reference")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	numbers := refs.ParseReference(ref)
	if len(numbers) == 0 {
		if n, convErr := strconv.Atoi(strings.TrimSpace(ref)); convErr == nil {
			numbers = []int{n}
		}
	}
	if len(numbers) == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("not a citation token: %s", ref)), nil
	}
	note, err := s.svc.ResolveReference(ctx, numbers[0])
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("reference not found: %s", refs.FormatReference(numbers[0]))), nil
	}
	out, _ := json.MarshalIndent(note, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getNoteModel(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteModelContract), nil
}

func (s *Server) readNoteModelResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "slate://note-model",
			MIMEType: "text/markdown",
			Text:     NoteModelContract,
		},
	}, nil
}
