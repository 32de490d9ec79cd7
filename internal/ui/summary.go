package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/foospace/sprintsync/internal/tracker"
)

// RenderSprint renders one finished sprint as a status line plus detail.
func RenderSprint(r tracker.SprintResult) string {
	var b strings.Builder
	switch r.State {
	case tracker.StateDone:
		b.WriteString(PassStyle.Render(IconPass))
	case tracker.StateFailed:
		b.WriteString(FailStyle.Render(IconFail))
	default:
		b.WriteString(MutedStyle.Render(IconSkip))
	}
	b.WriteString(" ")
	b.WriteString(r.Sprint)
	if r.WeekStart != "" {
		b.WriteString(RenderMuted(" (week of " + r.WeekStart + ")"))
	}
	b.WriteString("\n   ")
	b.WriteString(TreeLast)

	switch {
	case r.State == tracker.StateFailed:
		b.WriteString(RenderFail(fmt.Sprintf("failed while %s: %s", r.FailedIn, r.Error)))
	case r.Tasks == 0:
		b.WriteString(RenderMuted("no tasks"))
	default:
		fmt.Fprintf(&b, "%d tasks → %d rows, %d completed", r.Tasks, r.AllTaskRows, r.CompletedRows)
		var skips []string
		if r.MultiAssignee > 0 {
			skips = append(skips, fmt.Sprintf("%d multi-assignee", r.MultiAssignee))
		}
		if r.ParentRollup > 0 {
			skips = append(skips, fmt.Sprintf("%d parent rollup", r.ParentRollup))
		}
		if r.CompletedElsewhere > 0 {
			skips = append(skips, fmt.Sprintf("%d already credited", r.CompletedElsewhere))
		}
		if len(skips) > 0 {
			b.WriteString(RenderMuted(" (skipped " + strings.Join(skips, ", ") + ")"))
		}
	}
	if r.NoMonday {
		b.WriteString("\n   ")
		b.WriteString(RenderWarn(IconWarn + " window has no Monday; anchored on start date"))
	}
	return b.String()
}

// WriteSummary prints the run summary.
func WriteSummary(w io.Writer, res *tracker.RunResult) {
	fmt.Fprintln(w, RenderCategory("sync "+res.Env))
	fmt.Fprintln(w, RenderSeparator())
	for _, s := range res.Sprints {
		fmt.Fprintln(w, RenderSprint(s))
	}
	if len(res.Sprints) > 0 {
		fmt.Fprintln(w, RenderSeparator())
	}
	msg := res.Message()
	switch {
	case res.Failed() > 0:
		msg = RenderWarn(msg)
	case len(res.Sprints) > 0:
		msg = RenderPass(msg)
	}
	fmt.Fprintln(w, msg)
}
