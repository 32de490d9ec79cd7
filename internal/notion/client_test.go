package notion

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foospace/sprintsync/internal/tracker"
	"github.com/foospace/sprintsync/internal/types"
)

// mockNotion records requests and serves canned responses keyed by path.
type mockNotion struct {
	mu       sync.Mutex
	bodies   []map[string]any
	headers  []http.Header
	handlers map[string]http.HandlerFunc
}

func newMockNotion(t *testing.T) (*mockNotion, *Client) {
	t.Helper()
	m := &mockNotion{handlers: make(map[string]http.HandlerFunc)}
	srv := httptest.NewServer(http.HandlerFunc(m.serve))
	t.Cleanup(srv.Close)
	return m, NewClient("secret-token", "").WithBaseURL(srv.URL)
}

func (m *mockNotion) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	var decoded map[string]any
	if len(body) > 0 {
		_ = json.Unmarshal(body, &decoded)
	}
	m.mu.Lock()
	m.bodies = append(m.bodies, decoded)
	m.headers = append(m.headers, r.Header.Clone())
	h, ok := m.handlers[r.URL.Path]
	m.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"object":"error","status":404,"code":"object_not_found","message":"Could not find page"}`))
		return
	}
	h(w, r)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func pageWithTitle(id, prop, text string) map[string]any {
	return map[string]any{
		"object": "page",
		"id":     id,
		"properties": map[string]any{
			prop: map[string]any{
				"type":  "title",
				"title": []map[string]any{{"plain_text": text}},
			},
		},
	}
}

func TestQueryDatabaseFollowsCursor(t *testing.T) {
	m, c := newMockNotion(t)
	calls := 0
	m.handlers["/databases/db-1/query"] = func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			writeJSON(w, map[string]any{
				"object":      "list",
				"results":     []any{pageWithTitle("p1", "Task name", "one")},
				"has_more":    true,
				"next_cursor": "cursor-2",
			})
			return
		}
		writeJSON(w, map[string]any{
			"object":      "list",
			"results":     []any{pageWithTitle("p2", "Task name", "two")},
			"has_more":    false,
			"next_cursor": nil,
		})
	}

	filter := tracker.TaskFilter("Sprint", "sprint-9")
	recs, err := c.QueryDatabase(context.Background(), "db-1", filter)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "p1", recs[0].ID)
	assert.Equal(t, "two", recs[1].Prop("Task name").FirstText().Value)

	require.Len(t, m.bodies, 2)
	assert.NotContains(t, m.bodies[0], "start_cursor")
	assert.Equal(t, "cursor-2", m.bodies[1]["start_cursor"])
	assert.EqualValues(t, 100, m.bodies[1]["page_size"])
	f := m.bodies[1]["filter"].(map[string]any)
	assert.Equal(t, "Sprint", f["property"])
	assert.Equal(t, map[string]any{"contains": "sprint-9"}, f["relation"])

	h := m.headers[0]
	assert.Equal(t, "Bearer secret-token", h.Get("Authorization"))
	assert.Equal(t, DefaultAPIVersion, h.Get("Notion-Version"))
	assert.Equal(t, "application/json", h.Get("Content-Type"))
}

func TestQueryDatabaseErrors(t *testing.T) {
	m, c := newMockNotion(t)
	m.handlers["/databases/db-1/query"] = func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"object":"error","status":401,"code":"unauthorized","message":"API token is invalid."}`))
	}

	_, err := c.QueryDatabase(context.Background(), "db-1", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "API token is invalid.")
	assert.False(t, IsNotFound(err))

	_, err = c.QueryDatabase(context.Background(), "", nil)
	assert.Error(t, err)
}

func TestPageTitle(t *testing.T) {
	m, c := newMockNotion(t)
	m.handlers["/pages/proj-1"] = func(w http.ResponseWriter, _ *http.Request) {
		page := pageWithTitle("proj-1", "Name", "Check")
		page["properties"].(map[string]any)["Name"].(map[string]any)["title"] = []map[string]any{
			{"plain_text": "Check"}, {"plain_text": "out"},
		}
		writeJSON(w, page)
	}
	m.handlers["/pages/untitled"] = func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"object": "page", "id": "untitled", "properties": map[string]any{}})
	}
	m.handlers["/pages/broken"] = func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}
	ctx := context.Background()

	title, err := c.PageTitle(ctx, "proj-1")
	require.NoError(t, err)
	assert.Equal(t, "Checkout", title)

	title, err = c.PageTitle(ctx, "untitled")
	require.NoError(t, err)
	assert.Equal(t, "Unnamed Page (ID: untitled)", title)

	_, err = c.PageTitle(ctx, "missing")
	assert.True(t, IsNotFound(err))

	_, err = c.PageTitle(ctx, "broken")
	require.Error(t, err)
	assert.False(t, IsNotFound(err))
}

func TestPageTitleWithoutToken(t *testing.T) {
	c := NewClient("", "")
	_, err := c.PageTitle(context.Background(), "any")
	assert.ErrorIs(t, err, types.ErrPageNotFound)
}

func TestCustomAPIVersion(t *testing.T) {
	m, c := newMockNotion(t)
	c.APIVersion = "2025-09-03"
	m.handlers["/pages/p"] = func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, pageWithTitle("p", "Name", "x"))
	}
	_, err := c.PageTitle(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "2025-09-03", m.headers[0].Get("Notion-Version"))
}

func TestSourceRegistered(t *testing.T) {
	assert.Contains(t, tracker.List(), SourceName)

	_, err := tracker.NewSource(SourceName, tracker.SourceConfig{})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "token"))

	src, err := tracker.NewSource(SourceName, tracker.SourceConfig{Token: "t", BaseURL: "http://127.0.0.1:1/"})
	require.NoError(t, err)
	assert.Equal(t, SourceName, src.Name())
	assert.Equal(t, "http://127.0.0.1:1", src.(*Source).BaseURL)
}
