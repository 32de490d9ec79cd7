package tracker

import (
	"fmt"
	"time"

	"github.com/foospace/sprintsync/internal/sprint"
	"github.com/foospace/sprintsync/internal/warehouse"
)

// SprintState is a step of the per-sprint pipeline.
type SprintState string

const (
	StateValidatingWindow SprintState = "validating_window"
	StateFetchingData     SprintState = "fetching_data"
	StateReshaping        SprintState = "reshaping"
	StateUploading        SprintState = "uploading"
	StateDone             SprintState = "done"
	StateFailed           SprintState = "failed"
)

// SprintResult records how one sprint went.
type SprintResult struct {
	Sprint string      `json:"sprint"`
	State  SprintState `json:"state"`
	// FailedIn is the state the sprint was in when it failed.
	FailedIn  SprintState `json:"failed_in,omitempty"`
	Error     string      `json:"error,omitempty"`
	WeekStart string      `json:"week_start,omitempty"`
	NoMonday  bool        `json:"no_monday,omitempty"`

	Tasks              int `json:"tasks"`
	AllTaskRows        int `json:"all_task_rows"`
	CompletedRows      int `json:"completed_rows"`
	MultiAssignee      int `json:"multi_assignee"`
	ParentRollup       int `json:"parent_rollup"`
	CompletedElsewhere int `json:"completed_elsewhere"`

	Uploads  []warehouse.UploadStats `json:"uploads,omitempty"`
	Duration time.Duration           `json:"duration"`
}

// RunResult summarizes a whole run.
type RunResult struct {
	Env          string         `json:"env"`
	Mode         sprint.Mode    `json:"mode"`
	Department   string         `json:"department"`
	DryRun       bool           `json:"dry_run,omitempty"`
	CurrentFound bool           `json:"current_found"`
	Sprints      []SprintResult `json:"sprints"`
}

// Succeeded counts sprints that reached StateDone.
func (r *RunResult) Succeeded() int {
	n := 0
	for _, s := range r.Sprints {
		if s.State == StateDone {
			n++
		}
	}
	return n
}

// Failed counts sprints that ended in StateFailed.
func (r *RunResult) Failed() int {
	return len(r.Sprints) - r.Succeeded()
}

// Message is the human-readable completion message returned to the trigger.
func (r *RunResult) Message() string {
	switch {
	case len(r.Sprints) == 0 && r.Mode == sprint.ModeCurrent:
		return "No current sprint found; nothing to process."
	case len(r.Sprints) == 0:
		return "No sprints found; nothing to process."
	}
	verb := "Processed"
	if r.DryRun {
		verb = "Dry run processed"
	}
	return fmt.Sprintf("%s %d sprint(s) in %s mode for department %q: %d succeeded, %d failed.",
		verb, len(r.Sprints), r.Mode, r.Department, r.Succeeded(), r.Failed())
}
