package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foospace/sprintsync/internal/types"
	"github.com/foospace/sprintsync/internal/warehouse"
)

var week = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func completedRow(id, sprint, dept string) warehouse.Row {
	return types.CompletedTaskRow{
		TaskID: id, Taskid: "rec-" + id, CompletedSprint: sprint,
		AssigneeName: "Ana", TaskName: "Task " + id, Estimates: 3,
		Department: dept, SprintWeekStartDate: week,
	}.Values()
}

func TestReplacePartitionIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := New()
	const tbl = "completed"
	require.NoError(t, s.EnsureTable(ctx, tbl, warehouse.CompletedTasksSchema))

	// A row from another department must survive.
	_, err := s.AppendRows(ctx, tbl, warehouse.CompletedTasksSchema, []warehouse.Row{completedRow("X", "Sprint 3", "OPS")})
	require.NoError(t, err)

	rows := []warehouse.Row{completedRow("A", "Sprint 3", "DTI"), completedRow("B", "Sprint 3", "DTI")}
	part := warehouse.CompletedTasksPartition("Sprint 3", "DTI")

	first, err := warehouse.ReplacePartition(ctx, s, tbl, warehouse.CompletedTasksSchema, part, rows)
	require.NoError(t, err)
	assert.Equal(t, warehouse.UploadStats{Table: tbl, Deleted: 0, Appended: 2}, first)

	second, err := warehouse.ReplacePartition(ctx, s, tbl, warehouse.CompletedTasksSchema, part, rows)
	require.NoError(t, err)
	assert.Equal(t, warehouse.UploadStats{Table: tbl, Deleted: 2, Appended: 2}, second)

	assert.Len(t, s.Rows(tbl), 3)
}

func TestReplacePartitionEmptyStillDeletes(t *testing.T) {
	ctx := context.Background()
	s := New()
	const tbl = "completed"
	part := warehouse.CompletedTasksPartition("Sprint 3", "DTI")
	_, err := warehouse.ReplacePartition(ctx, s, tbl, warehouse.CompletedTasksSchema, part,
		[]warehouse.Row{completedRow("A", "Sprint 3", "DTI")})
	require.NoError(t, err)

	stats, err := warehouse.ReplacePartition(ctx, s, tbl, warehouse.CompletedTasksSchema, part, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.Deleted)
	assert.EqualValues(t, 0, stats.Appended)
	assert.Empty(t, s.Rows(tbl))
}

func TestReplacePartitionAppendFailureLeavesGap(t *testing.T) {
	ctx := context.Background()
	s := New()
	const tbl = "completed"
	part := warehouse.CompletedTasksPartition("Sprint 3", "DTI")
	_, err := warehouse.ReplacePartition(ctx, s, tbl, warehouse.CompletedTasksSchema, part,
		[]warehouse.Row{completedRow("A", "Sprint 3", "DTI")})
	require.NoError(t, err)

	s.FailOn = map[string]string{tbl: "append"}
	_, err = warehouse.ReplacePartition(ctx, s, tbl, warehouse.CompletedTasksSchema, part,
		[]warehouse.Row{completedRow("B", "Sprint 3", "DTI")})

	var upErr *types.UploadError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, "append", upErr.Stage)
	assert.Equal(t, tbl, upErr.Table)
	assert.Empty(t, s.Rows(tbl))
}

func TestCompletedElsewhere(t *testing.T) {
	ctx := context.Background()
	s := New()
	const tbl = "completed"
	_, err := s.AppendRows(ctx, tbl, warehouse.CompletedTasksSchema, []warehouse.Row{
		completedRow("A", "Sprint 1", "DTI"),
		completedRow("B", "Sprint 2", "OPS"),
		completedRow("C", "Sprint 3", "DTI"),
		completedRow("A", "Sprint 2", "DTI"),
	})
	require.NoError(t, err)

	got, err := warehouse.CompletedElsewhere(ctx, s, tbl, "Sprint 3")
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"A": {}, "B": {}}, got)

	_, err = warehouse.CompletedElsewhere(ctx, s, "missing", "Sprint 3")
	assert.Error(t, err)
}

func TestNullParentRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New()
	row := types.AllTaskRow{ID: "rec-1", TaskID: "T-1", Sprint: "Sprint 3", Department: "DTI", SprintWeekStartDate: week}
	_, err := s.AppendRows(ctx, "all", warehouse.AllTasksSchema, []warehouse.Row{row.Values()})
	require.NoError(t, err)

	parents := s.Column("all", warehouse.ColTaskID, "Parent_task")
	assert.Nil(t, parents["T-1"])

	vals, err := s.DistinctValues(ctx, "all", "Parent_task", nil)
	require.NoError(t, err)
	assert.Empty(t, vals)
}

func TestAppendRejectsMisshapenRows(t *testing.T) {
	s := New()
	_, err := s.AppendRows(context.Background(), "all", warehouse.AllTasksSchema, []warehouse.Row{{"too", "short"}})
	assert.Error(t, err)
}
