// Package tracker runs the sprint sync. It pulls sprint and task records
// from a record source, reshapes them and publishes the rows to the
// warehouse, one sprint at a time.
package tracker

import (
	"context"

	"github.com/foospace/sprintsync/internal/sprint"
	"github.com/foospace/sprintsync/internal/types"
)

// RecordSource is the record-database collaborator. Implementations
// register themselves with Register at init time.
type RecordSource interface {
	// Name returns the registry name (e.g. "notion").
	Name() string

	// QueryDatabase returns every record of databaseID matching filter,
	// following pagination until exhausted. A nil filter matches all.
	QueryDatabase(ctx context.Context, databaseID string, filter map[string]any) ([]types.Record, error)

	// PageTitle resolves the title text of one page.
	PageTitle(ctx context.Context, pageID string) (string, error)
}

// SourceConfig carries what a source needs to connect.
type SourceConfig struct {
	Token      string
	APIVersion string
	BaseURL    string
}

// Databases identifies the three databases a run reads.
type Databases struct {
	Sprints  string `mapstructure:"SPRINT_DB_ID" json:"SPRINT_DB_ID" yaml:"sprint_db_id"`
	Tasks    string `mapstructure:"TASK_DB_ID" json:"TASK_DB_ID" yaml:"task_db_id"`
	Projects string `mapstructure:"PROJECT_DB_ID" json:"PROJECT_DB_ID" yaml:"project_db_id"`
}

// RunOptions is the fully resolved input of one run. It is threaded through
// every fetch; nothing is kept in package state.
type RunOptions struct {
	Env               string
	Mode              sprint.Mode
	Department        string
	Databases         Databases
	CompletedStatuses types.StatusSet
	Properties        types.PropertyNames
	CurrentStatus     string

	// DryRun reshapes and reports without writing to the warehouse.
	DryRun bool
}

func (o *RunOptions) applyDefaults() {
	if o.Mode == "" {
		o.Mode = sprint.ModeCurrent
	}
	if o.Department == "" {
		o.Department = types.DefaultDepartment
	}
	if o.CurrentStatus == "" {
		o.CurrentStatus = types.DefaultCurrentStatus
	}
	if o.CompletedStatuses == nil {
		o.CompletedStatuses = types.NewStatusSet()
	}
	o.Properties = o.Properties.WithDefaults()
}

// TaskFilter is the query selecting the tasks linked to one sprint.
func TaskFilter(sprintProperty, sprintID string) map[string]any {
	return map[string]any{
		"filter": map[string]any{
			"property": sprintProperty,
			"relation": map[string]any{"contains": sprintID},
		},
	}
}
