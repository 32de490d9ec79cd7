package reshape

import (
	"log/slog"
	"time"

	"github.com/foospace/sprintsync/internal/types"
)

// AllTasksResult is the reshaped "all tasks" table for one sprint.
type AllTasksResult struct {
	Rows          []types.AllTaskRow
	MultiAssignee int // tasks dropped for having more than one assignee
}

// AllTasks maps every task to an all-tasks row. Tasks with more than one
// assignee are dropped; nothing else is filtered.
func AllTasks(records []types.Record, x *Extractor, sprintName string, weekStart time.Time, log *slog.Logger) AllTasksResult {
	log = orDefault(log)
	var res AllTasksResult
	for i := range records {
		task := x.Extract(&records[i])
		if task.MultiAssignee() {
			log.Info("skipping task with multiple assignees",
				"rule", "multi_assignee", "task", task.Name, "task_id", task.DisplayID, "assignees", task.AssigneeCount)
			res.MultiAssignee++
			continue
		}
		res.Rows = append(res.Rows, types.AllTaskRow{
			ID:                  task.ID,
			TaskID:              task.DisplayID,
			TaskName:            task.Name,
			ParentTask:          task.ParentName,
			Sprint:              sprintName,
			AssigneeName:        task.AssigneeName,
			Estimates:           task.StoryPoints,
			Project:             task.ProjectName,
			Status:              task.StatusName,
			Department:          task.Department,
			SprintWeekStartDate: weekStart,
		})
	}
	return res
}
