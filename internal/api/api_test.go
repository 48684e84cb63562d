package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/starford/fubuki/internal/apperr"
	"github.com/starford/fubuki/internal/models"
	"github.com/starford/fubuki/internal/queue"
	"github.com/starford/fubuki/internal/settings"
	"github.com/starford/fubuki/internal/store"
	"github.com/starford/fubuki/internal/testutil"
	"github.com/starford/fubuki/internal/tracker"
)

type fakeTracker struct {
	status    tracker.Status
	queued    map[int]bool
	refreshes int
}

func (f *fakeTracker) Status(context.Context) (tracker.Status, error) {
	return f.status, nil
}

func (f *fakeTracker) Cancel(_ context.Context, mediaID int) error {
	if !f.queued[mediaID] {
		return apperr.ErrNotFound
	}
	delete(f.queued, mediaID)
	return nil
}

func (f *fakeTracker) Refresh(context.Context) error {
	f.refreshes++
	return nil
}

type testEnv struct {
	tracker  *fakeTracker
	db       *store.DB
	settings *settings.Settings
	router   http.Handler
}

// newTestEnv builds a router over a fake tracker and a temp database.
// An empty authToken means disabled mode.
func newTestEnv(t *testing.T, authToken string) *testEnv {
	t.Helper()
	return newTestEnvWithSSE(t, authToken, nil)
}

func newTestEnvWithSSE(t *testing.T, authToken string, sseHandler http.Handler) *testEnv {
	t.Helper()
	e := testutil.AnimeEntry(1, "Sousou no Frieren", 5, 28)
	env := &testEnv{
		tracker: &fakeTracker{
			status: tracker.Status{
				User:  &models.User{ID: 7, Name: "shiro"},
				Queue: []queue.Item{{Entry: e, QueuedAt: time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)}},
				Lists: map[models.Category]int{models.CategoryAnime: 1, models.CategoryManga: 0},
			},
			queued: map[int]bool{1: true},
		},
		db:       testutil.TestDB(t),
		settings: settings.New(5, "remote-token"),
	}
	h := NewHandler(env.tracker, env.db, env.settings)
	env.router = NewRouter(h, authToken != "", authToken, sseHandler)
	return env
}

func (env *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(t, http.MethodGet, "/status", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Ready    bool          `json:"ready"`
		User     models.User   `json:"user"`
		Queue    []queue.Item  `json:"queue"`
		Settings settings.View `json:"settings"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Ready || resp.User.Name != "shiro" || len(resp.Queue) != 1 {
		t.Errorf("resp = %+v", resp)
	}
	if resp.Settings.UpdateDelaySeconds != 5 || !resp.Settings.HasToken {
		t.Errorf("settings = %+v", resp.Settings)
	}
	if bytes.Contains(w.Body.Bytes(), []byte("remote-token")) {
		t.Error("token leaked in status response")
	}
}

func TestQueue(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(t, http.MethodGet, "/queue", nil, "")
	var resp QueueResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if w.Code != http.StatusOK || len(resp.Items) != 1 || resp.Items[0].Entry.MediaID != 1 {
		t.Errorf("queue = %d %+v", w.Code, resp)
	}
}

func TestCancelUpdate(t *testing.T) {
	env := newTestEnv(t, "")

	if w := env.do(t, http.MethodDelete, "/queue/1", nil, ""); w.Code != http.StatusNoContent {
		t.Fatalf("cancel = %d, want 204", w.Code)
	}
	if w := env.do(t, http.MethodDelete, "/queue/1", nil, ""); w.Code != http.StatusNotFound {
		t.Errorf("second cancel = %d, want 404", w.Code)
	}
	if w := env.do(t, http.MethodDelete, "/queue/abc", nil, ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad id = %d, want 400", w.Code)
	}
}

func TestRefreshLists(t *testing.T) {
	env := newTestEnv(t, "")

	if w := env.do(t, http.MethodPost, "/lists/refresh", nil, ""); w.Code != http.StatusAccepted {
		t.Fatalf("refresh = %d, want 202", w.Code)
	}
	if env.tracker.refreshes != 1 {
		t.Errorf("refreshes = %d, want 1", env.tracker.refreshes)
	}
}

func TestHistory(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()
	for i, outcome := range []store.Outcome{store.OutcomeSent, store.OutcomeCancelled} {
		if _, err := env.db.RecordUpdate(ctx, store.UpdateRecord{
			MediaID: i + 1, Category: models.CategoryAnime, Title: "t", Outcome: outcome,
			CreatedAt: time.Date(2026, 10, 14, 12, i, 0, 0, time.UTC),
		}); err != nil {
			t.Fatal(err)
		}
	}

	w := env.do(t, http.MethodGet, "/history?limit=1", nil, "")
	var resp HistoryResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if w.Code != http.StatusOK || len(resp.Records) != 1 {
		t.Fatalf("history = %d %+v", w.Code, resp)
	}
	if resp.Records[0].Outcome != store.OutcomeCancelled {
		t.Errorf("newest outcome = %q, want cancelled", resp.Records[0].Outcome)
	}
}

func TestHistory_Empty(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(t, http.MethodGet, "/history", nil, "")
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte(`"records":[]`)) {
		t.Errorf("history = %d %s", w.Code, w.Body.String())
	}
}

func TestUpdateSettings(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(t, http.MethodPut, "/settings", map[string]any{"updateDelaySeconds": 12}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("settings = %d, body = %s", w.Code, w.Body.String())
	}
	if got := env.settings.UpdateDelay(); got != 12*time.Second {
		t.Errorf("delay = %v, want 12s", got)
	}
	if env.settings.Token() != "remote-token" {
		t.Error("omitted token should be left as is")
	}

	w = env.do(t, http.MethodPut, "/settings", map[string]any{"token": "fresh"}, "")
	if w.Code != http.StatusOK || env.settings.Token() != "fresh" {
		t.Errorf("token update = %d, token %q", w.Code, env.settings.Token())
	}
}

func TestUpdateSettings_Invalid(t *testing.T) {
	env := newTestEnv(t, "")

	cases := map[string]any{
		"negative delay": map[string]any{"updateDelaySeconds": -1},
		"empty body":     map[string]any{},
		"unknown field":  map[string]any{"delay": 3},
	}
	for name, body := range cases {
		if w := env.do(t, http.MethodPut, "/settings", body, ""); w.Code != http.StatusBadRequest {
			t.Errorf("%s = %d, want 400", name, w.Code)
		}
	}
	if got := env.settings.UpdateDelay(); got != 5*time.Second {
		t.Errorf("delay changed to %v", got)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	env := newTestEnv(t, "secret123")

	if w := env.do(t, http.MethodGet, "/status", nil, "secret123"); w.Code != http.StatusOK {
		t.Errorf("authed status = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	env := newTestEnv(t, "secret123")

	if w := env.do(t, http.MethodGet, "/status", nil, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	env := newTestEnv(t, "secret123")

	if w := env.do(t, http.MethodDelete, "/queue/1", nil, "wrong"); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
	if !env.tracker.queued[1] {
		t.Error("rejected request still cancelled the update")
	}
}

// SSE endpoint auth tests.

type streamStub struct{}

func (streamStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	<-r.Context().Done()
}

func TestSSEEvents_AuthProtected(t *testing.T) {
	env := newTestEnvWithSSE(t, "secret", streamStub{})

	if w := env.do(t, http.MethodGet, "/events", nil, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	env := newTestEnvWithSSE(t, "tok", streamStub{})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE with valid token = %d, want 200", w.Code)
	}
}
