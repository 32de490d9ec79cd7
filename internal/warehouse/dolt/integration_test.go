//go:build integration

package dolt

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcdolt "github.com/testcontainers/testcontainers-go/modules/dolt"

	"github.com/foospace/sprintsync/internal/warehouse"
)

func newContainerStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	ctr, err := tcdolt.Run(ctx, "dolthub/dolt-sql-server:1.32.4",
		tcdolt.WithDatabase("sprintsync"),
		tcdolt.WithUsername("sync"),
		tcdolt.WithPassword("sync"),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "parseTime=true")
	require.NoError(t, err)

	store, err := New(ctx, &Config{DSN: dsn, Database: "sprintsync", ConnectTimeout: time.Minute})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreReplacePartitionRoundTrip(t *testing.T) {
	store := newContainerStore(t)
	ctx := context.Background()
	tables := warehouse.Tables{AllTasks: "all_tasks", CompletedTasks: "completed_tasks"}
	require.NoError(t, warehouse.EnsureTables(ctx, store, tables))

	week := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	rows := []warehouse.Row{
		{"T-1", "rec-1", "Sprint 3", "Ana", "Fix login", 3, "DTI", week},
		{"T-2", "rec-2", "Sprint 2", "Ben", "Ship it", 5, "DTI", week},
	}
	for range 2 {
		_, err := warehouse.ReplacePartition(ctx, store, tables.CompletedTasks, warehouse.CompletedTasksSchema,
			warehouse.Predicate{warehouse.Eq(warehouse.ColDepartment, "DTI")}, rows)
		require.NoError(t, err)
	}

	elsewhere, err := warehouse.CompletedElsewhere(ctx, store, tables.CompletedTasks, "Sprint 3")
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"T-2": {}}, elsewhere)

	all, err := store.DistinctValues(ctx, tables.CompletedTasks, warehouse.ColTaskID, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"T-1", "T-2"}, all)
}
