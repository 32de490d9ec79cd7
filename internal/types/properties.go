package types

// DefaultCurrentStatus marks the sprint currently in progress.
const DefaultCurrentStatus = "Current"

// PropertyNames maps each logical field to the property name a deployment
// uses for it. Names are fixed per deployment, never discovered.
type PropertyNames struct {
	TaskName     string `mapstructure:"task_name" yaml:"task_name"`
	TaskID       string `mapstructure:"task_id" yaml:"task_id"`
	ParentTask   string `mapstructure:"parent_task" yaml:"parent_task"`
	Assignee     string `mapstructure:"assignee" yaml:"assignee"`
	Estimates    string `mapstructure:"estimates" yaml:"estimates"`
	Project      string `mapstructure:"project" yaml:"project"`
	Status       string `mapstructure:"status" yaml:"status"`
	Sprint       string `mapstructure:"sprint" yaml:"sprint"`
	SprintName   string `mapstructure:"sprint_name" yaml:"sprint_name"`
	SprintStatus string `mapstructure:"sprint_status" yaml:"sprint_status"`
	SprintDates  string `mapstructure:"sprint_dates" yaml:"sprint_dates"`
}

// DefaultPropertyNames returns the stock workspace template's property names.
func DefaultPropertyNames() PropertyNames {
	return PropertyNames{
		TaskName:     "Task name",
		TaskID:       "Task ID",
		ParentTask:   "Parent-task",
		Assignee:     "Assignee",
		Estimates:    "Estimates",
		Project:      "Project",
		Status:       "Status",
		Sprint:       "Sprint",
		SprintName:   "Sprint name",
		SprintStatus: "Sprint status",
		SprintDates:  "Dates",
	}
}

// WithDefaults fills every empty name from DefaultPropertyNames.
func (p PropertyNames) WithDefaults() PropertyNames {
	d := DefaultPropertyNames()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&p.TaskName, d.TaskName)
	fill(&p.TaskID, d.TaskID)
	fill(&p.ParentTask, d.ParentTask)
	fill(&p.Assignee, d.Assignee)
	fill(&p.Estimates, d.Estimates)
	fill(&p.Project, d.Project)
	fill(&p.Status, d.Status)
	fill(&p.Sprint, d.Sprint)
	fill(&p.SprintName, d.SprintName)
	fill(&p.SprintStatus, d.SprintStatus)
	fill(&p.SprintDates, d.SprintDates)
	return p
}
