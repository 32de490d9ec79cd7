package reshape

import (
	"fmt"

	"github.com/foospace/sprintsync/internal/types"
)

// Extractor flattens raw task records. It holds the per-sprint lookups so
// that extraction itself performs no I/O.
type Extractor struct {
	Names      types.PropertyNames
	Projects   ProjectMap
	Parents    map[string]string // parent page id -> resolved title
	Department string
	Completed  types.StatusSet
}

// Extract builds the normalized view of one task record. Every field
// degrades to its sentinel when the property is absent or malformed.
func (x *Extractor) Extract(rec *types.Record) types.NormalizedTask {
	n := x.Names
	task := types.NormalizedTask{
		ID:          rec.ID,
		DisplayID:   rec.Prop(n.TaskID).DisplayID().Or(types.MissingDisplayID),
		Name:        rec.Prop(n.TaskName).FirstText().Or(types.UnnamedTaskName),
		StoryPoints: rec.Prop(n.Estimates).SelectInt().Or(0),
		StatusName:  rec.Prop(n.Status).ChoiceName().Or(types.UnknownStatusName),
		Department:  x.Department,
	}

	if parentID := rec.Prop(n.ParentTask).FirstRelation(); parentID.OK {
		title, ok := x.Parents[parentID.Value]
		if !ok {
			title = fmt.Sprintf("Page Not Found (%s)", parentID.Value)
		}
		task.ParentName = &title
	}

	people := rec.Prop(n.Assignee).People
	task.AssigneeCount = len(people)
	task.AssigneeName = types.UnassignedName
	if len(people) > 0 && people[0].Name != nil {
		task.AssigneeName = *people[0].Name
	}

	task.ProjectName = types.NoProjectName
	if projectID := rec.Prop(n.Project).FirstRelation(); projectID.OK {
		if name, ok := x.Projects[projectID.Value]; ok {
			task.ProjectName = name
		} else {
			task.ProjectName = types.UnknownProjectName
		}
	}

	task.IsCompleted = x.Completed.Contains(task.StatusName)
	return task
}
