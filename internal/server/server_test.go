package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foospace/sprintsync/internal/config"
	"github.com/foospace/sprintsync/internal/logging"
	"github.com/foospace/sprintsync/internal/tracker"
	"github.com/foospace/sprintsync/internal/types"
	"github.com/foospace/sprintsync/internal/warehouse"
	"github.com/foospace/sprintsync/internal/warehouse/factory"
	"github.com/foospace/sprintsync/internal/warehouse/memory"
)

const configsJSON = `{
  "dti": {
    "SPRINT_DB_ID": "sprints", "TASK_DB_ID": "tasks", "PROJECT_DB_ID": "projects",
    "TOKEN_VARIABLE_NAME": "DTI_TOKEN",
    "COMPLETED_STATUSES": ["Done"]
  },
  "nosecret": {
    "SPRINT_DB_ID": "a", "TASK_DB_ID": "b", "PROJECT_DB_ID": "c",
    "TOKEN_VARIABLE_NAME": "MISSING_TOKEN"
  }
}`

// stubSource serves one current sprint with a single completed task.
type stubSource struct{}

func (stubSource) Name() string { return "stub" }

func (stubSource) QueryDatabase(_ context.Context, databaseID string, filter map[string]any) ([]types.Record, error) {
	switch {
	case filter != nil:
		n := 7
		name := "Ada"
		return []types.Record{{ID: "task-1", Properties: map[string]types.Property{
			"Task ID":   {Type: types.PropUniqueID, UniqueID: &types.UniqueID{Prefix: "T-", Number: &n}},
			"Task name": {Type: types.PropTitle, Title: []types.RichText{{PlainText: "Write docs"}}},
			"Estimates": {Type: types.PropSelect, Select: &types.Option{Name: "3"}},
			"Status":    {Type: types.PropStatus, Status: &types.Option{Name: "Done"}},
			"Assignee":  {Type: types.PropPeople, People: []types.Person{{Name: &name}}},
		}}}, nil
	case databaseID == "sprints":
		return []types.Record{{ID: "sprint-1", Properties: map[string]types.Property{
			"Sprint name":   {Type: types.PropTitle, Title: []types.RichText{{PlainText: "Sprint 5"}}},
			"Sprint status": {Type: types.PropStatus, Status: &types.Option{Name: "Current"}},
			"Dates":         {Type: types.PropDate, Date: &types.DateRange{Start: "2024-03-01", End: "2024-03-14"}},
		}}}, nil
	}
	return nil, nil
}

func (stubSource) PageTitle(context.Context, string) (string, error) {
	return "", types.ErrPageNotFound
}

func setupTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sprintsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o600))
	vars := map[string]string{config.ConfigsEnvVar: configsJSON, "DTI_TOKEN": "secret"}
	cfg, err := config.Load(config.Options{File: path, LookupEnv: func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}})
	require.NoError(t, err)

	store := memory.New()
	runner := NewRunner(cfg, logging.Discard())
	runner.OpenSource = func(string, tracker.SourceConfig) (tracker.RecordSource, error) {
		return stubSource{}, nil
	}
	runner.OpenWarehouse = func(context.Context, factory.Config) (warehouse.Warehouse, error) {
		return store, nil
	}
	return NewServer(runner, logging.Discard()), store
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func TestHandleSync_Success(t *testing.T) {
	server, store := setupTestServer(t)

	rr := get(t, server, "/?env=DTI&department=Platform")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), "1 succeeded, 0 failed")
	assert.Contains(t, rr.Body.String(), `"Platform"`)

	assert.Len(t, store.Rows("all_tasks"), 1)
	assert.Len(t, store.Rows("completed_tasks"), 1)

	// A second trigger replaces the partition instead of duplicating it.
	rr = get(t, server, "/?env=dti&department=Platform")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, store.Rows("all_tasks"), 1)
}

func TestHandleSync_ConfigErrors(t *testing.T) {
	server, _ := setupTestServer(t)

	tests := []struct {
		name   string
		target string
		status int
		body   string
	}{
		{"missing env", "/", http.StatusBadRequest, "'env' parameter is required."},
		{"bad mode", "/?env=dti&mode=weekly", http.StatusBadRequest, "Invalid mode 'weekly'"},
		{"unknown env", "/?env=nope", http.StatusBadRequest, "Config for env 'nope' not found."},
		{"unset secret", "/?env=nosecret", http.StatusInternalServerError, "'MISSING_TOKEN' is not set"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := get(t, server, tt.target)
			assert.Equal(t, tt.status, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.body)
		})
	}
}

func TestHandleSync_ClientInitFailure(t *testing.T) {
	server, _ := setupTestServer(t)
	server.runner.OpenWarehouse = func(context.Context, factory.Config) (warehouse.Warehouse, error) {
		return nil, errors.New("connection refused")
	}

	rr := get(t, server, "/?env=dti")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Body.String(), "Warehouse client initialization failed"))
}

func TestHandleSync_MethodNotAllowed(t *testing.T) {
	server, _ := setupTestServer(t)
	req := httptest.NewRequest(http.MethodDelete, "/?env=dti", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rr.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	server, _ := setupTestServer(t)
	rr := get(t, server, "/healthz")
	if rr.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rr.Code)
	}
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestRunner_DryRunWithoutWarehouse(t *testing.T) {
	server, _ := setupTestServer(t)
	r := server.runner
	r.OpenWarehouse = func(context.Context, factory.Config) (warehouse.Warehouse, error) {
		return nil, errors.New("down")
	}

	res, err := r.Run(context.Background(), Request{Env: "dti", DryRun: true})
	require.NoError(t, err)
	require.Len(t, res.Sprints, 1)
	assert.Equal(t, tracker.StateDone, res.Sprints[0].State)
	assert.Equal(t, 1, res.Sprints[0].CompletedRows)
}

func TestRunner_ListSprints(t *testing.T) {
	server, _ := setupTestServer(t)
	sprints, err := server.runner.ListSprints(context.Background(), Request{Env: "dti"})
	require.NoError(t, err)
	require.Len(t, sprints, 1)
	assert.Equal(t, "Sprint 5", sprints[0].Name)
}

// contextBoundStore fails statements once ctx is done, as database/sql does,
// and runs afterDelete after the first successful delete.
type contextBoundStore struct {
	*memory.Store
	afterDelete func()
}

func (c *contextBoundStore) EnsureTable(ctx context.Context, table string, schema warehouse.Schema) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.Store.EnsureTable(ctx, table, schema)
}

func (c *contextBoundStore) DeleteWhere(ctx context.Context, table string, pred warehouse.Predicate) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n, err := c.Store.DeleteWhere(ctx, table, pred)
	if c.afterDelete != nil {
		c.afterDelete()
		c.afterDelete = nil
	}
	return n, err
}

func (c *contextBoundStore) AppendRows(ctx context.Context, table string, schema warehouse.Schema, rows []warehouse.Row) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return c.Store.AppendRows(ctx, table, schema, rows)
}

func (c *contextBoundStore) DistinctValues(ctx context.Context, table, column string, pred warehouse.Predicate) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.Store.DistinctValues(ctx, table, column, pred)
}

func TestHandleSync_ClientDisconnectDoesNotStopRun(t *testing.T) {
	server, store := setupTestServer(t)

	rr := get(t, server, "/?env=dti")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, store.Rows("all_tasks"), 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bound := &contextBoundStore{Store: store, afterDelete: cancel}
	server.runner.OpenWarehouse = func(context.Context, factory.Config) (warehouse.Warehouse, error) {
		return bound, nil
	}

	req := httptest.NewRequest(http.MethodGet, "/?env=dti", nil).WithContext(ctx)
	rr = httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	require.Error(t, ctx.Err(), "request context should have been cancelled mid-run")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "1 succeeded, 0 failed")
	assert.Len(t, store.Rows("all_tasks"), 1)
	assert.Len(t, store.Rows("completed_tasks"), 1)
}
