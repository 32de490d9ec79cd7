package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/foospace/sprintsync/internal/config"
	"github.com/foospace/sprintsync/internal/sprint"
	"github.com/foospace/sprintsync/internal/telemetry"
	"github.com/foospace/sprintsync/internal/tracker"
	"github.com/foospace/sprintsync/internal/types"
	"github.com/foospace/sprintsync/internal/warehouse"
	"github.com/foospace/sprintsync/internal/warehouse/factory"
)

// SourceOpener builds the record source for one run.
type SourceOpener func(name string, cfg tracker.SourceConfig) (tracker.RecordSource, error)

// WarehouseOpener connects to the warehouse for one run.
type WarehouseOpener func(ctx context.Context, cfg factory.Config) (warehouse.Warehouse, error)

// Request is one trigger, as received from HTTP or the CLI.
type Request struct {
	Env        string
	Mode       string
	Department string
	DryRun     bool
}

// Runner resolves a Request against the configuration, opens the
// collaborators and runs the engine. Runs are serialized: two overlapping
// runs replacing the same partition would interleave their deletes and
// appends.
type Runner struct {
	Config *config.Config
	Logger *slog.Logger

	OpenSource    SourceOpener
	OpenWarehouse WarehouseOpener

	// Configure, when set, is applied to every engine before it runs.
	Configure func(e *tracker.Engine)

	mu sync.Mutex
}

// NewRunner creates a runner using the registered sources and the
// configured warehouse backend.
func NewRunner(cfg *config.Config, logger *slog.Logger) *Runner {
	return &Runner{
		Config:        cfg,
		Logger:        logger,
		OpenSource:    tracker.NewSource,
		OpenWarehouse: factory.Open,
	}
}

// Run executes one sync. A *types.ConfigError means the run never started.
func (r *Runner) Run(ctx context.Context, req Request) (*tracker.RunResult, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	resolved, err := r.Config.Resolve(req.Env, req.Mode, req.Department)
	if err != nil {
		return nil, err
	}
	resolved.Options.DryRun = req.DryRun

	openSource := r.OpenSource
	if openSource == nil {
		openSource = tracker.NewSource
	}
	src, err := openSource(r.Config.Source, resolved.Source)
	if err != nil {
		logger.Error("record source initialization failed", "source", r.Config.Source, "error", err)
		return nil, types.DeploymentError("Record source client initialization failed: %v", err)
	}

	wh, err := r.openWarehouse(ctx)
	switch {
	case err != nil && !req.DryRun:
		logger.Error("warehouse initialization failed", "driver", r.Config.Warehouse.Driver, "error", err)
		return nil, types.DeploymentError("Warehouse client initialization failed: %v", err)
	case err != nil:
		logger.Warn("warehouse unavailable; dry run proceeds without completed-task dedup", "error", err)
	default:
		defer func() {
			if cerr := wh.Close(); cerr != nil {
				logger.Warn("closing warehouse", "error", cerr)
			}
		}()
	}

	eng := tracker.NewEngine(src, wh, r.Config.QualifiedTables(), logger.With("env", resolved.Options.Env))
	eng.TitleConcurrency = r.Config.TitleConcurrency
	if r.Configure != nil {
		r.Configure(eng)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	res, err := eng.Run(ctx, resolved.Options)
	if err != nil {
		return nil, fmt.Errorf("sync %s: %w", resolved.Options.Env, err)
	}
	return res, nil
}

// ListSprints returns every sprint of an env in processing order.
func (r *Runner) ListSprints(ctx context.Context, req Request) ([]types.Sprint, error) {
	resolved, err := r.Config.Resolve(req.Env, req.Mode, req.Department)
	if err != nil {
		return nil, err
	}
	openSource := r.OpenSource
	if openSource == nil {
		openSource = tracker.NewSource
	}
	src, err := openSource(r.Config.Source, resolved.Source)
	if err != nil {
		return nil, types.DeploymentError("Record source client initialization failed: %v", err)
	}
	eng := tracker.NewEngine(src, nil, r.Config.QualifiedTables(), r.Logger)
	all, err := eng.ListSprints(ctx, resolved.Options)
	if err != nil {
		return nil, err
	}
	sprint.Order(all)
	return all, nil
}

func (r *Runner) openWarehouse(ctx context.Context) (warehouse.Warehouse, error) {
	open := r.OpenWarehouse
	if open == nil {
		open = factory.Open
	}
	wh, err := open(ctx, r.Config.Warehouse)
	if err != nil {
		return nil, err
	}
	return telemetry.WrapWarehouse(wh), nil
}
