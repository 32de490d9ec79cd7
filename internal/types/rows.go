package types

import "time"

// AllTaskRow is one row of the "all tasks" warehouse table.
type AllTaskRow struct {
	ID                  string
	TaskID              string
	TaskName            string
	ParentTask          *string
	Sprint              string
	AssigneeName        string
	Estimates           int
	Project             string
	Status              string
	Department          string
	SprintWeekStartDate time.Time
}

// Values returns the row's cells in AllTasks schema column order.
func (r AllTaskRow) Values() []any {
	var parent any
	if r.ParentTask != nil {
		parent = *r.ParentTask
	}
	return []any{
		r.ID, r.TaskID, r.TaskName, parent, r.Sprint, r.AssigneeName,
		r.Estimates, r.Project, r.Status, r.Department, r.SprintWeekStartDate,
	}
}

// CompletedTaskRow is one row of the "completed tasks" warehouse table.
type CompletedTaskRow struct {
	TaskID              string
	Taskid              string // source record id
	CompletedSprint     string
	AssigneeName        string
	TaskName            string
	Estimates           int
	Department          string
	SprintWeekStartDate time.Time
}

// Values returns the row's cells in CompletedTasks schema column order.
func (r CompletedTaskRow) Values() []any {
	return []any{
		r.TaskID, r.Taskid, r.CompletedSprint, r.AssigneeName,
		r.TaskName, r.Estimates, r.Department, r.SprintWeekStartDate,
	}
}
