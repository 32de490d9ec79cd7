package reshape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/foospace/sprintsync/internal/types"
)

// DefaultTitleConcurrency bounds parallel title lookups per batch.
const DefaultTitleConcurrency = 4

// TitleResolver looks up the title of a single page.
type TitleResolver interface {
	PageTitle(ctx context.Context, pageID string) (string, error)
}

// TitleOrSentinel converts a failed lookup into the placeholder text stored
// in place of a title.
func TitleOrSentinel(pageID, title string, err error) string {
	switch {
	case err == nil:
		return title
	case errors.Is(err, types.ErrPageNotFound):
		return fmt.Sprintf("Page Not Found (%s)", pageID)
	default:
		return fmt.Sprintf("Error Fetching Page (%s)", pageID)
	}
}

type titleResult struct {
	title string
	err   error
}

// resolveAll looks up every distinct id with at most limit calls in flight.
// Individual lookup failures are returned per id, never as a batch error.
func resolveAll(ctx context.Context, r TitleResolver, ids []string, limit int) map[string]titleResult {
	if limit <= 0 {
		limit = DefaultTitleConcurrency
	}
	var mu sync.Mutex
	out := make(map[string]titleResult, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		g.Go(func() error {
			title, err := r.PageTitle(gctx, id)
			mu.Lock()
			out[id] = titleResult{title: title, err: err}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// ResolveTitles batch-resolves page titles, substituting the sentinel text
// for any page whose lookup failed.
func ResolveTitles(ctx context.Context, r TitleResolver, ids []string, limit int, log *slog.Logger) map[string]string {
	log = orDefault(log)
	results := resolveAll(ctx, r, ids, limit)
	titles := make(map[string]string, len(results))
	for id, res := range results {
		if res.err != nil {
			log.Warn("title lookup failed", "page_id", id, "error", res.err)
		}
		titles[id] = TitleOrSentinel(id, res.title, res.err)
	}
	return titles
}

// ProjectMap maps a project page id to its title. Projects whose title could
// not be resolved are absent, so tasks pointing at them read as
// types.UnknownProjectName.
type ProjectMap map[string]string

// BuildProjectMap resolves the title of every project record.
func BuildProjectMap(ctx context.Context, r TitleResolver, projects []types.Record, limit int, log *slog.Logger) ProjectMap {
	log = orDefault(log)
	ids := make([]string, 0, len(projects))
	for i := range projects {
		ids = append(ids, projects[i].ID)
	}
	results := resolveAll(ctx, r, ids, limit)
	m := make(ProjectMap, len(results))
	for id, res := range results {
		if res.err != nil {
			log.Warn("dropping project with unresolved title", "project_id", id, "error", res.err)
			continue
		}
		m[id] = res.title
	}
	return m
}

// ParentIDs lists the distinct parent ids referenced by the records, in
// first-seen order.
func ParentIDs(records []types.Record, names types.PropertyNames) []string {
	var ids []string
	seen := make(map[string]bool)
	for i := range records {
		id := records[i].Prop(names.ParentTask).FirstRelation()
		if !id.OK || seen[id.Value] {
			continue
		}
		seen[id.Value] = true
		ids = append(ids, id.Value)
	}
	return ids
}

func orDefault(log *slog.Logger) *slog.Logger {
	if log == nil {
		return slog.Default()
	}
	return log
}
