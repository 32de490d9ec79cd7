package reshape

import (
	"log/slog"
	"time"

	"github.com/foospace/sprintsync/internal/types"
)

// CompletedResult is the reshaped "completed tasks" table for one sprint.
// Rows is never nil: an empty slice means the sprint ran and credited nothing.
type CompletedResult struct {
	Rows               []types.CompletedTaskRow
	MultiAssignee      int // otherwise eligible, but more than one assignee
	ParentRollup       int // parents whose children already carry points
	CompletedElsewhere int // already credited to another sprint
}

// CompletedTasks selects the tasks that count as delivered in this sprint.
//
// A task qualifies when it is completed, has non-zero points, and has exactly
// one named assignee. A qualifying parent counts only while the points of its
// direct children sum to zero. A task whose display id was already credited
// in another sprint (completedElsewhere) is left to that sprint.
func CompletedTasks(records []types.Record, x *Extractor, sprintName string, weekStart time.Time, completedElsewhere map[string]struct{}, log *slog.Logger) CompletedResult {
	log = orDefault(log)

	order := make([]string, 0, len(records))
	cache := make(map[string]types.NormalizedTask, len(records))
	for i := range records {
		id := records[i].ID
		if _, dup := cache[id]; !dup {
			order = append(order, id)
		}
		cache[id] = x.Extract(&records[i])
	}
	children := BuildParentIndex(records, x.Names)

	res := CompletedResult{Rows: []types.CompletedTaskRow{}}
	for _, id := range order {
		task := cache[id]

		eligible := task.IsCompleted &&
			task.StoryPoints != 0 &&
			task.AssigneeName != types.UnassignedName
		if !eligible {
			continue
		}
		if task.MultiAssignee() {
			log.Info("skipping completed task with multiple assignees",
				"rule", "multi_assignee", "task", task.Name, "task_id", task.DisplayID, "assignees", task.AssigneeCount)
			res.MultiAssignee++
			continue
		}

		if kids, ok := children[id]; ok {
			sum := 0
			for _, kid := range kids {
				sum += cache[kid].StoryPoints
			}
			if sum != 0 {
				res.ParentRollup++
				continue
			}
		}

		if _, done := completedElsewhere[task.DisplayID]; done {
			log.Info("skipping task completed in another sprint", "task_id", task.DisplayID, "sprint", sprintName)
			res.CompletedElsewhere++
			continue
		}

		res.Rows = append(res.Rows, types.CompletedTaskRow{
			TaskID:              task.DisplayID,
			Taskid:              task.ID,
			CompletedSprint:     sprintName,
			AssigneeName:        task.AssigneeName,
			TaskName:            task.Name,
			Estimates:           task.StoryPoints,
			Department:          task.Department,
			SprintWeekStartDate: weekStart,
		})
	}
	return res
}
