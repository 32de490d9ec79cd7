// Package types defines the value objects shared by the sprint sync pipeline.
package types

// Sentinel values written into output rows when a source field is empty.
const (
	UnassignedName     = "Unassigned"
	NoProjectName      = "No Project"
	UnknownProjectName = "Unknown Project"
	UnknownStatusName  = "Unknown"
	UnnamedTaskName    = "Unnamed Task"
	UnnamedSprintName  = "Unnamed Sprint"
	MissingDisplayID   = "N/A"
	DefaultDepartment  = "N/A"
)

// NormalizedTask is a task record flattened out of its source property bag.
// It is built fresh for every run and never persisted.
type NormalizedTask struct {
	ID            string  `json:"id"`
	DisplayID     string  `json:"display_id"`
	Name          string  `json:"name"`
	ParentName    *string `json:"parent_name,omitempty"` // nil when the task has no parent relation
	AssigneeName  string  `json:"assignee_name"`
	AssigneeCount int     `json:"assignee_count"`
	StoryPoints   int     `json:"story_points"`
	ProjectName   string  `json:"project_name"`
	StatusName    string  `json:"status_name"`
	IsCompleted   bool    `json:"is_completed"`
	Department    string  `json:"department"`
}

// MultiAssignee reports whether the task violates the single-assignee data quality rule.
func (t *NormalizedTask) MultiAssignee() bool {
	return t.AssigneeCount > 1
}

// StatusSet is the configured set of status names that count as completed.
// Membership is an exact, case-sensitive match.
type StatusSet map[string]struct{}

// NewStatusSet builds a StatusSet from a list of names.
func NewStatusSet(names ...string) StatusSet {
	s := make(StatusSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Contains reports whether name is in the set.
func (s StatusSet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}
