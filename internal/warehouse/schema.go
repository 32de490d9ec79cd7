package warehouse

import "github.com/foospace/sprintsync/internal/types"

// Column names shared by predicates and schemas.
const (
	ColSprint          = "sprint"
	ColCompletedSprint = "completed_sprint"
	ColDepartment      = "Department"
	ColTaskID          = "Task_ID"
)

// AllTasksSchema is the layout of the "all tasks" table.
var AllTasksSchema = Schema{Columns: []Column{
	{Name: "id", Type: TypeString},
	{Name: ColTaskID, Type: TypeString},
	{Name: "task_name", Type: TypeString},
	{Name: "Parent_task", Type: TypeString, Nullable: true},
	{Name: ColSprint, Type: TypeString},
	{Name: "assignee_name", Type: TypeString},
	{Name: "estimates", Type: TypeInt64},
	{Name: "Project", Type: TypeString},
	{Name: "Status", Type: TypeString},
	{Name: ColDepartment, Type: TypeString},
	{Name: "sprint_week_start_date", Type: TypeDate},
}}

// CompletedTasksSchema is the layout of the "completed tasks" table.
var CompletedTasksSchema = Schema{Columns: []Column{
	{Name: ColTaskID, Type: TypeString},
	{Name: "Taskid", Type: TypeString},
	{Name: ColCompletedSprint, Type: TypeString},
	{Name: "assignee_name", Type: TypeString},
	{Name: "task_name", Type: TypeString},
	{Name: "estimates", Type: TypeInt64},
	{Name: ColDepartment, Type: TypeString},
	{Name: "sprint_week_start_date", Type: TypeDate},
}}

// AllTasksPartition selects one sprint/department slice of the all-tasks table.
func AllTasksPartition(sprint, department string) Predicate {
	return Predicate{Eq(ColSprint, sprint), Eq(ColDepartment, department)}
}

// CompletedTasksPartition selects one sprint/department slice of the completed-tasks table.
func CompletedTasksPartition(sprint, department string) Predicate {
	return Predicate{Eq(ColCompletedSprint, sprint), Eq(ColDepartment, department)}
}

// AllTaskRows converts reshaped rows to positional warehouse rows.
func AllTaskRows(rows []types.AllTaskRow) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = r.Values()
	}
	return out
}

// CompletedTaskRows converts reshaped rows to positional warehouse rows.
func CompletedTaskRows(rows []types.CompletedTaskRow) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = r.Values()
	}
	return out
}
