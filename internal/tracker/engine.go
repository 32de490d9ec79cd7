package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/foospace/sprintsync/internal/reshape"
	"github.com/foospace/sprintsync/internal/sprint"
	"github.com/foospace/sprintsync/internal/telemetry"
	"github.com/foospace/sprintsync/internal/types"
	"github.com/foospace/sprintsync/internal/warehouse"
)

const engineScopeName = "github.com/foospace/sprintsync/tracker"

// Engine orchestrates one sync run: select sprints, then take each through
// ValidatingWindow → FetchingData → Reshaping → Uploading → Done. Sprints run
// strictly one after another because the completed-tasks dedup reads what
// earlier sprints of the same run wrote. The project map is resolved once per
// run, on the first sprint that reaches FetchingData, and reused by the rest;
// projects do not change meaning between sprints of one run.
type Engine struct {
	Source    RecordSource
	Warehouse warehouse.Warehouse
	Tables    warehouse.Tables
	Logger    *slog.Logger

	// TitleConcurrency bounds parallel page-title lookups.
	TitleConcurrency int

	// Callbacks for UI feedback (optional).
	OnMessage func(msg string)
	OnWarning func(msg string)
	// OnSprint is called after every sprint finishes, successful or not.
	OnSprint func(res SprintResult)

	tracer  trace.Tracer
	sprints metric.Int64Counter
	rows    metric.Int64Counter
}

// NewEngine creates a sync engine for the given source and warehouse.
func NewEngine(src RecordSource, wh warehouse.Warehouse, tables warehouse.Tables, logger *slog.Logger) *Engine {
	e := &Engine{
		Source:    src,
		Warehouse: wh,
		Tables:    tables,
		Logger:    logger,
	}
	e.instrument()
	return e
}

// instrument fills defaults for engines built as struct literals.
func (e *Engine) instrument() {
	if e.Logger == nil {
		e.Logger = slog.Default()
	}
	if e.TitleConcurrency <= 0 {
		e.TitleConcurrency = reshape.DefaultTitleConcurrency
	}
	if e.tracer != nil {
		return
	}
	e.tracer = telemetry.Tracer(engineScopeName)
	m := telemetry.Meter(engineScopeName)
	e.sprints, _ = m.Int64Counter("sprintsync.sprints",
		metric.WithDescription("Sprints processed, by final state"),
	)
	e.rows, _ = m.Int64Counter("sprintsync.rows.reshaped",
		metric.WithDescription("Rows produced by the reshapers"),
	)
}

// runState is what survives between sprints of one run.
type runState struct {
	opts     RunOptions
	projects reshape.ProjectMap
}

// Run selects the sprints opts.Mode covers and processes each in order.
// Per-sprint failures are recorded in the result and never abort the run;
// the returned error is reserved for failures before any sprint starts.
func (e *Engine) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	opts.applyDefaults()
	e.instrument()
	if e.Source == nil {
		return nil, types.DeploymentError("record source is not configured")
	}
	if !opts.DryRun && e.Warehouse == nil {
		return nil, types.DeploymentError("warehouse is not configured")
	}

	ctx, span := e.tracer.Start(ctx, "sync.run", trace.WithAttributes(
		attribute.String("sync.env", opts.Env),
		attribute.String("sync.mode", string(opts.Mode)),
		attribute.String("sync.department", opts.Department),
		attribute.Bool("sync.dry_run", opts.DryRun),
	))
	defer span.End()

	result := &RunResult{Env: opts.Env, Mode: opts.Mode, Department: opts.Department, DryRun: opts.DryRun}

	if !opts.DryRun {
		if err := warehouse.EnsureTables(ctx, e.Warehouse, e.Tables); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("prepare warehouse tables: %w", err)
		}
	}

	sel := e.SelectSprints(ctx, opts)
	result.CurrentFound = sel.CurrentFound
	switch {
	case len(sel.Sprints) == 0:
		e.msg("No sprints to process in %s mode", opts.Mode)
		return result, nil
	case opts.Mode == sprint.ModeBackfill && !sel.CurrentFound:
		e.warn("No %q sprint found; backfilling all %d sprints", opts.CurrentStatus, len(sel.Sprints))
	}

	state := &runState{opts: opts}
	for _, sp := range sel.Sprints {
		res := e.processSprint(ctx, state, sp)
		result.Sprints = append(result.Sprints, res)
		if e.OnSprint != nil {
			e.OnSprint(res)
		}
	}
	span.SetAttributes(
		attribute.Int("sync.sprints.done", result.Succeeded()),
		attribute.Int("sync.sprints.failed", result.Failed()),
	)
	return result, nil
}

// SelectSprints lists the sprint database and picks the sprints to process.
// A failed listing is logged and treated as an empty sprint list.
func (e *Engine) SelectSprints(ctx context.Context, opts RunOptions) sprint.Selection {
	opts.applyDefaults()
	e.instrument()
	sprints, err := e.ListSprints(ctx, opts)
	if err != nil {
		e.Logger.Error("failed to list sprints", "database", opts.Databases.Sprints, "error", err)
		return sprint.Selection{}
	}
	return sprint.Select(sprints, opts.Mode, opts.CurrentStatus)
}

// ListSprints decodes every record of the sprint database.
func (e *Engine) ListSprints(ctx context.Context, opts RunOptions) ([]types.Sprint, error) {
	names := opts.Properties.WithDefaults()
	records, err := e.Source.QueryDatabase(ctx, opts.Databases.Sprints, nil)
	if err != nil {
		return nil, &types.FetchError{Op: "sprints", Err: err}
	}
	out := make([]types.Sprint, 0, len(records))
	for i := range records {
		out = append(out, sprint.FromRecord(&records[i], names))
	}
	return out, nil
}

// processSprint runs one sprint through the pipeline and reports where it
// ended. Failures are folded into the result rather than returned.
func (e *Engine) processSprint(ctx context.Context, state *runState, sp types.Sprint) (res SprintResult) {
	started := time.Now()
	res = SprintResult{Sprint: sp.Name, State: StateValidatingWindow}
	log := e.Logger.With("sprint", sp.Name, "department", state.opts.Department)

	ctx, span := e.tracer.Start(ctx, "sync.sprint", trace.WithAttributes(
		attribute.String("sprint.name", sp.Name),
		attribute.String("sprint.id", sp.ID),
	))
	defer func() {
		res.Duration = time.Since(started)
		span.SetAttributes(attribute.String("sprint.state", string(res.State)))
		span.End()
		e.sprints.Add(ctx, 1, metric.WithAttributes(attribute.String("state", string(res.State))))
	}()

	fail := func(err error) SprintResult {
		res.FailedIn = res.State
		res.State = StateFailed
		res.Error = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error("sprint failed", "state", res.FailedIn, "error", err)
		e.warn("Sprint %q failed while %s: %v", sp.Name, res.FailedIn, err)
		return res
	}
	defer func() {
		if p := recover(); p != nil {
			res = fail(fmt.Errorf("panic: %v", p))
		}
	}()

	// ValidatingWindow
	win, err := sprint.ComputeWindow(sp.Name, sp.StartDate, sp.EndDate)
	if err != nil {
		return fail(err)
	}
	res.WeekStart = win.WeekStart.Format(types.DateLayout)
	res.NoMonday = win.NoMonday
	if win.NoMonday {
		log.Warn("sprint window contains no Monday; using start date as week start", "week_start", res.WeekStart)
	}

	// FetchingData
	res.State = StateFetchingData
	projects, err := e.projectMap(ctx, state, log)
	if err != nil {
		return fail(err)
	}
	names := state.opts.Properties
	tasks, err := e.Source.QueryDatabase(ctx, state.opts.Databases.Tasks, TaskFilter(names.Sprint, sp.ID))
	if err != nil {
		return fail(&types.FetchError{Op: "tasks", Err: err})
	}
	res.Tasks = len(tasks)
	if len(tasks) == 0 {
		log.Info("no tasks found for sprint; nothing to upload")
		e.msg("Sprint %q has no tasks", sp.Name)
		res.State = StateDone
		return res
	}
	parents := reshape.ResolveTitles(ctx, e.Source, reshape.ParentIDs(tasks, names), e.TitleConcurrency, log)

	// Reshaping
	res.State = StateReshaping
	x := &reshape.Extractor{
		Names:      names,
		Projects:   projects,
		Parents:    parents,
		Department: state.opts.Department,
		Completed:  state.opts.CompletedStatuses,
	}
	all := reshape.AllTasks(tasks, x, sp.Name, win.WeekStart, log)
	elsewhere := e.completedElsewhere(ctx, sp.Name, log)
	done := reshape.CompletedTasks(tasks, x, sp.Name, win.WeekStart, elsewhere, log)

	res.AllTaskRows = len(all.Rows)
	res.CompletedRows = len(done.Rows)
	res.MultiAssignee = all.MultiAssignee
	res.ParentRollup = done.ParentRollup
	res.CompletedElsewhere = done.CompletedElsewhere
	e.rows.Add(ctx, int64(len(all.Rows)), metric.WithAttributes(attribute.String("table", "all_tasks")))
	e.rows.Add(ctx, int64(len(done.Rows)), metric.WithAttributes(attribute.String("table", "completed_tasks")))

	if state.opts.DryRun {
		log.Info("dry run; skipping upload", "all_tasks", res.AllTaskRows, "completed_tasks", res.CompletedRows)
		res.State = StateDone
		return res
	}

	// Uploading
	res.State = StateUploading
	dept := state.opts.Department
	up, err := warehouse.ReplacePartition(ctx, e.Warehouse, e.Tables.AllTasks, warehouse.AllTasksSchema,
		warehouse.AllTasksPartition(sp.Name, dept), warehouse.AllTaskRows(all.Rows))
	if err != nil {
		return fail(err)
	}
	res.Uploads = append(res.Uploads, up)

	up, err = warehouse.ReplacePartition(ctx, e.Warehouse, e.Tables.CompletedTasks, warehouse.CompletedTasksSchema,
		warehouse.CompletedTasksPartition(sp.Name, dept), warehouse.CompletedTaskRows(done.Rows))
	if err != nil {
		return fail(err)
	}
	res.Uploads = append(res.Uploads, up)

	res.State = StateDone
	log.Info("sprint synced", "week_start", res.WeekStart, "all_tasks", res.AllTaskRows, "completed_tasks", res.CompletedRows)
	e.msg("Sprint %q: %d task rows, %d completed rows", sp.Name, res.AllTaskRows, res.CompletedRows)
	return res
}

// projectMap resolves the project database once per run. A failed query
// fails the current sprint and is retried by the next one.
func (e *Engine) projectMap(ctx context.Context, state *runState, log *slog.Logger) (reshape.ProjectMap, error) {
	if state.projects != nil {
		return state.projects, nil
	}
	if state.opts.Databases.Projects == "" {
		state.projects = reshape.ProjectMap{}
		return state.projects, nil
	}
	projects, err := e.Source.QueryDatabase(ctx, state.opts.Databases.Projects, nil)
	if err != nil {
		return nil, &types.FetchError{Op: "projects", Err: err}
	}
	state.projects = reshape.BuildProjectMap(ctx, e.Source, projects, e.TitleConcurrency, log)
	return state.projects, nil
}

// completedElsewhere pre-fetches the Task_IDs already credited to other
// sprints. On failure it proceeds with an empty set.
func (e *Engine) completedElsewhere(ctx context.Context, sprintName string, log *slog.Logger) map[string]struct{} {
	if e.Warehouse == nil {
		return map[string]struct{}{}
	}
	ids, err := warehouse.CompletedElsewhere(ctx, e.Warehouse, e.Tables.CompletedTasks, sprintName)
	if err != nil {
		log.Warn("could not read completed task ids from other sprints; dedup disabled for this sprint", "error", err)
		return map[string]struct{}{}
	}
	return ids
}

func (e *Engine) msg(format string, args ...any) {
	if e.OnMessage != nil {
		e.OnMessage(fmt.Sprintf(format, args...))
	}
}

func (e *Engine) warn(format string, args ...any) {
	if e.OnWarning != nil {
		e.OnWarning(fmt.Sprintf(format, args...))
	}
}

// IsConfigError reports whether err aborted the run before any sprint started.
func IsConfigError(err error) (*types.ConfigError, bool) {
	var ce *types.ConfigError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
