package mcpserver

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/fubuki/internal/apperr"
	"github.com/starford/fubuki/internal/models"
	"github.com/starford/fubuki/internal/queue"
	"github.com/starford/fubuki/internal/recognition"
	"github.com/starford/fubuki/internal/settings"
	"github.com/starford/fubuki/internal/testutil"
	"github.com/starford/fubuki/internal/tracker"
)

type fakeTracker struct {
	status    tracker.Status
	entries   []models.Entry
	cancelled []int
	refreshes int
}

func (f *fakeTracker) Status(context.Context) (tracker.Status, error) {
	return f.status, nil
}

func (f *fakeTracker) Cancel(_ context.Context, mediaID int) error {
	for _, item := range f.status.Queue {
		if item.Entry.MediaID == mediaID {
			f.cancelled = append(f.cancelled, mediaID)
			return nil
		}
	}
	return apperr.ErrNotFound
}

func (f *fakeTracker) Refresh(context.Context) error {
	f.refreshes++
	return nil
}

func (f *fakeTracker) Lookup(_ context.Context, query string, category models.Category) (models.Entry, error) {
	for _, e := range f.entries {
		if (category == "" || e.Media.Type == category) && e.Media.Title.Romaji == query {
			return e, nil
		}
	}
	return models.Entry{}, apperr.ErrNotFound
}

func testServer(t *testing.T) (*Server, *fakeTracker, *settings.Settings) {
	t.Helper()

	catalog, err := recognition.Compile(recognition.Patterns{
		Anime: []string{`^(?P<title>.+?) - Episode (?P<episode>\d+) - mpv$`},
	})
	if err != nil {
		t.Fatal(err)
	}
	frieren := testutil.AnimeEntry(1, "Sousou no Frieren", 5, 28)
	progress := 5.0
	ft := &fakeTracker{
		status: tracker.Status{
			Current:     &recognition.Media{Title: "Sousou no Frieren", Category: models.CategoryAnime, Progress: &progress},
			Description: "Watching Episode 5",
			Matched:     &frieren,
			Queue:       []queue.Item{{Entry: frieren, QueuedAt: time.Date(2026, 10, 14, 12, 30, 0, 0, time.UTC)}},
			Lists:       map[models.Category]int{models.CategoryAnime: 1, models.CategoryManga: 0},
		},
		entries: []models.Entry{frieren, testutil.MangaEntry(2, "Dandadan", 100)},
	}
	s := settings.New(5, "")
	return New(ft, recognition.NewRecognizer(catalog, nil), s, "test"), ft, s
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no in-process call helper, so handlers are invoked directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "current_media":
		result, err = srv.currentMedia(ctx, req)
	case "list_queue":
		result, err = srv.listQueue(ctx, req)
	case "cancel_update":
		result, err = srv.cancelUpdate(ctx, req)
	case "refresh_lists":
		result, err = srv.refreshLists(ctx, req)
	case "search_list":
		result, err = srv.searchList(ctx, req)
	case "recognize_title":
		result, err = srv.recognizeTitle(ctx, req)
	case "set_update_delay":
		result, err = srv.setUpdateDelay(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestCurrentMedia(t *testing.T) {
	srv, ft, _ := testServer(t)

	text := resultText(callTool(t, srv, "current_media", nil))
	if !strings.Contains(text, "Watching Episode 5") || !strings.Contains(text, `"ready": true`) {
		t.Errorf("current_media = %q", text)
	}

	ft.status.Current = nil
	if text := resultText(callTool(t, srv, "current_media", nil)); text != "nothing recognized" {
		t.Errorf("idle current_media = %q", text)
	}
}

func TestListQueue(t *testing.T) {
	srv, ft, _ := testServer(t)

	text := resultText(callTool(t, srv, "list_queue", nil))
	if text != "queued: Sousou no Frieren (1) 5 / 28 since 12:30:00" {
		t.Errorf("list_queue = %q", text)
	}

	ft.status.Queue = nil
	if text := resultText(callTool(t, srv, "list_queue", nil)); text != "queue is empty" {
		t.Errorf("empty list_queue = %q", text)
	}
}

func TestCancelUpdate(t *testing.T) {
	srv, ft, _ := testServer(t)

	r := callTool(t, srv, "cancel_update", map[string]any{"media_id": float64(1)})
	if r.IsError || resultText(r) != "cancelled: 1" || len(ft.cancelled) != 1 {
		t.Errorf("cancel_update = %q", resultText(r))
	}

	r = callTool(t, srv, "cancel_update", map[string]any{"media_id": float64(99)})
	if !r.IsError {
		t.Error("expected error for media without a pending update")
	}

	r = callTool(t, srv, "cancel_update", map[string]any{})
	if !r.IsError {
		t.Error("expected error for missing media_id")
	}
}

func TestRefreshLists(t *testing.T) {
	srv, ft, _ := testServer(t)

	if r := callTool(t, srv, "refresh_lists", nil); r.IsError || ft.refreshes != 1 {
		t.Errorf("refresh_lists = %q, refreshes %d", resultText(r), ft.refreshes)
	}
}

func TestSearchList(t *testing.T) {
	srv, _, _ := testServer(t)

	text := resultText(callTool(t, srv, "search_list", map[string]any{"query": "Dandadan"}))
	if !strings.Contains(text, `"mediaId": 2`) {
		t.Errorf("search_list = %q", text)
	}

	text = resultText(callTool(t, srv, "search_list", map[string]any{"query": "Dandadan", "category": "anime"}))
	if text != "no matching entry" {
		t.Errorf("anime-only search_list = %q", text)
	}

	if r := callTool(t, srv, "search_list", map[string]any{"query": "x", "category": "novel"}); !r.IsError {
		t.Error("expected error for unknown category")
	}
}

func TestRecognizeTitle(t *testing.T) {
	srv, _, _ := testServer(t)

	text := resultText(callTool(t, srv, "recognize_title", map[string]any{
		"title": "Sousou no Frieren - Episode 7 - mpv",
	}))
	if !strings.Contains(text, "Watching Episode 7") || !strings.Contains(text, `"title": "Sousou no Frieren"`) {
		t.Errorf("recognize_title = %q", text)
	}

	text = resultText(callTool(t, srv, "recognize_title", map[string]any{"title": "Terminal"}))
	if text != "no pattern matched" {
		t.Errorf("unmatched recognize_title = %q", text)
	}
}

func TestSetUpdateDelay(t *testing.T) {
	srv, _, s := testServer(t)

	r := callTool(t, srv, "set_update_delay", map[string]any{"seconds": float64(30)})
	if r.IsError || s.UpdateDelay() != 30*time.Second {
		t.Errorf("set_update_delay = %q, delay %v", resultText(r), s.UpdateDelay())
	}

	if r := callTool(t, srv, "set_update_delay", map[string]any{"seconds": float64(-1)}); !r.IsError {
		t.Error("expected error for negative delay")
	}
}

func TestPatternFormatResource(t *testing.T) {
	srv, _, _ := testServer(t)

	contents, err := srv.readPatternFormat(context.Background(), mcp.ReadResourceRequest{})
	if err != nil || len(contents) != 1 {
		t.Fatalf("resource = %v, %v", contents, err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || !strings.Contains(tc.Text, "(?P<title>") {
		t.Errorf("resource text = %+v", contents[0])
	}
}
