// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Fubuki tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/fubuki/internal/apperr"
	"github.com/starford/fubuki/internal/models"
	"github.com/starford/fubuki/internal/recognition"
	"github.com/starford/fubuki/internal/settings"
	"github.com/starford/fubuki/internal/tracker"
)

const patternFormatURI = "fubuki://pattern-format"

// Tracker is the part of the tracker engine the tools drive.
type Tracker interface {
	Status(ctx context.Context) (tracker.Status, error)
	Cancel(ctx context.Context, mediaID int) error
	Refresh(ctx context.Context) error
	Lookup(ctx context.Context, query string, category models.Category) (models.Entry, error)
}

// Recognizer parses window titles.
type Recognizer interface {
	Recognize(titles []string) (recognition.Media, bool)
}

// Server wraps the MCP server with Fubuki tools.
type Server struct {
	mcp        *server.MCPServer
	tracker    Tracker
	recognizer Recognizer
	settings   *settings.Settings
}

// New creates a new MCP server with all Fubuki tools registered.
func New(t Tracker, r Recognizer, s *settings.Settings, version string) *Server {
	srv := &Server{tracker: t, recognizer: r, settings: s}

	srv.mcp = server.NewMCPServer(
		"Fubuki",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	srv.mcp.AddTool(mcp.NewTool("current_media",
		mcp.WithDescription("Show what is being watched or read right now, the list entry it "+
			"matched, and whether the tracker has loaded the lists."),
	), srv.currentMedia)

	srv.mcp.AddTool(mcp.NewTool("list_queue",
		mcp.WithDescription("List progress updates waiting to be sent, oldest first, and the "+
			"update currently being sent."),
	), srv.listQueue)

	srv.mcp.AddTool(mcp.NewTool("cancel_update",
		mcp.WithDescription("Cancel a pending progress update before it is sent."),
		mcp.WithNumber("media_id", mcp.Required(), mcp.Description("Media id of the queued update")),
	), srv.cancelUpdate)

	srv.mcp.AddTool(mcp.NewTool("refresh_lists",
		mcp.WithDescription("Refetch the anime and manga lists from AniList."),
	), srv.refreshLists)

	srv.mcp.AddTool(mcp.NewTool("search_list",
		mcp.WithDescription("Find the list entry whose title best matches a query."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Title to look for")),
		mcp.WithString("category", mcp.Enum(string(models.CategoryAnime), string(models.CategoryManga)),
			mcp.Description("Restrict to one list; both are searched when omitted")),
	), srv.searchList)

	srv.mcp.AddTool(mcp.NewTool("recognize_title",
		mcp.WithDescription("Run the recognition patterns against a window title without "+
			"touching the lists. Useful to test custom patterns. Read "+patternFormatURI+
			" for the pattern file format."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Window title to recognize")),
	), srv.recognizeTitle)

	srv.mcp.AddTool(mcp.NewTool("set_update_delay",
		mcp.WithDescription("Change how many seconds a progress update waits in the queue "+
			"before it is sent."),
		mcp.WithNumber("seconds", mcp.Required(), mcp.Min(0), mcp.Description("Delay in whole seconds")),
	), srv.setUpdateDelay)

	srv.mcp.AddResource(
		mcp.NewResource(patternFormatURI, "Recognition Pattern Format",
			mcp.WithResourceDescription("How to write window title recognition patterns."),
			mcp.WithMIMEType("text/markdown"),
		),
		srv.readPatternFormat,
	)

	return srv
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) currentMedia(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.tracker.Status(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if st.Current == nil {
		return mcp.NewToolResultText("nothing recognized"), nil
	}
	return jsonResult(map[string]any{
		"media":       st.Current,
		"description": st.Description,
		"matched":     st.Matched,
		"ready":       st.Ready(),
	}), nil
}

func (s *Server) listQueue(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.tracker.Status(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(st.Queue) == 0 && st.InFlight == nil {
		return mcp.NewToolResultText("queue is empty"), nil
	}
	lines := make([]string, 0, len(st.Queue)+1)
	if st.InFlight != nil {
		lines = append(lines, fmt.Sprintf("sending: %s (%d) %s",
			st.InFlight.Media.PreferredTitle(), st.InFlight.MediaID, st.InFlight.ProgressString()))
	}
	for _, item := range st.Queue {
		lines = append(lines, fmt.Sprintf("queued: %s (%d) %s since %s",
			item.Entry.Media.PreferredTitle(), item.Entry.MediaID, item.Entry.ProgressString(),
			item.QueuedAt.Format("15:04:05")))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) cancelUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mediaID, err := req.RequireInt("media_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.tracker.Cancel(ctx, mediaID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("no pending update for media %d", mediaID)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("cancelled: %d", mediaID)), nil
}

func (s *Server) refreshLists(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.tracker.Refresh(ctx); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("refresh started"), nil
}

func (s *Server) searchList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	category := models.Category(strings.ToUpper(req.GetString("category", "")))
	if category != "" && !category.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("unknown category: %s", category)), nil
	}
	e, err := s.tracker.Lookup(ctx, query, category)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultText("no matching entry"), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(e), nil
}

func (s *Server) recognizeTitle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, ok := s.recognizer.Recognize([]string{title})
	if !ok {
		return mcp.NewToolResultText("no pattern matched"), nil
	}
	return jsonResult(map[string]any{
		"media":       rec,
		"description": rec.Describe(),
	}), nil
}

func (s *Server) setUpdateDelay(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	seconds, err := req.RequireInt("seconds")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.settings.SetUpdateDelay(seconds); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("update delay: %ds", seconds)), nil
}

func (s *Server) readPatternFormat(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      patternFormatURI,
			MIMEType: "text/markdown",
			Text:     PatternFormat,
		},
	}, nil
}
