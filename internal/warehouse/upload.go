package warehouse

import (
	"context"

	"github.com/foospace/sprintsync/internal/types"
)

// Tables names the two destination tables.
type Tables struct {
	AllTasks       string `mapstructure:"all_tasks_table" yaml:"all_tasks_table"`
	CompletedTasks string `mapstructure:"completed_tasks_table" yaml:"completed_tasks_table"`
}

// UploadStats reports one partition replacement.
type UploadStats struct {
	Table    string `json:"table"`
	Deleted  int64  `json:"deleted"`
	Appended int64  `json:"appended"`
}

// ReplacePartition deletes every row matching partition and then appends
// rows. Running it twice with the same input leaves the same rows behind.
//
// An empty rows slice still clears the partition, so a sprint whose tasks all
// stopped qualifying loses its stale rows. Earlier versions of the sync
// returned before the delete when there was nothing to append, which left
// those rows in place.
//
// The two steps are not atomic: when the append fails the partition stays
// empty until the next successful run.
func ReplacePartition(ctx context.Context, wh Warehouse, table string, schema Schema, partition Predicate, rows []Row) (UploadStats, error) {
	stats := UploadStats{Table: table}

	deleted, err := wh.DeleteWhere(ctx, table, partition)
	if err != nil {
		return stats, &types.UploadError{Table: table, Stage: "delete", Err: err}
	}
	stats.Deleted = deleted

	if len(rows) == 0 {
		return stats, nil
	}
	appended, err := wh.AppendRows(ctx, table, schema, rows)
	if err != nil {
		return stats, &types.UploadError{Table: table, Stage: "append", Err: err}
	}
	stats.Appended = appended
	return stats, nil
}

// CompletedElsewhere returns the Task_IDs the completed-tasks table already
// credits to any sprint other than sprint.
func CompletedElsewhere(ctx context.Context, wh Warehouse, table, sprint string) (map[string]struct{}, error) {
	ids, err := wh.DistinctValues(ctx, table, ColTaskID, Predicate{NotEq(ColCompletedSprint, sprint)})
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// EnsureTables creates both destination tables when missing.
func EnsureTables(ctx context.Context, wh Warehouse, tables Tables) error {
	if err := wh.EnsureTable(ctx, tables.AllTasks, AllTasksSchema); err != nil {
		return err
	}
	return wh.EnsureTable(ctx, tables.CompletedTasks, CompletedTasksSchema)
}
