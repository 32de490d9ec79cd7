package sprint

import "github.com/foospace/sprintsync/internal/types"

// Mode selects which sprints a run processes.
type Mode string

const (
	// ModeCurrent processes only the sprint whose status marks it current.
	ModeCurrent Mode = "current"
	// ModeBackfill processes every sprint up to and including the current one.
	ModeBackfill Mode = "backfill"
)

// ParseMode validates a mode string; empty means ModeCurrent.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case "", ModeCurrent:
		return ModeCurrent, true
	case ModeBackfill:
		return ModeBackfill, true
	}
	return "", false
}

// Selection is the outcome of choosing sprints for a run.
type Selection struct {
	Sprints []types.Sprint
	// CurrentFound is false when no sprint carried the current status.
	CurrentFound bool
}

// Select orders sprints and picks those the mode covers. In ModeCurrent the
// first current sprint (in sequence order) is returned. In ModeBackfill every
// sprint up to and including that one is returned, or all sprints when none
// is current.
func Select(sprints []types.Sprint, mode Mode, currentStatus string) Selection {
	ordered := append([]types.Sprint(nil), sprints...)
	Order(ordered)

	idx := -1
	for i := range ordered {
		if ordered[i].Status == currentStatus {
			idx = i
			break
		}
	}

	switch mode {
	case ModeBackfill:
		if idx < 0 {
			return Selection{Sprints: ordered}
		}
		return Selection{Sprints: ordered[:idx+1], CurrentFound: true}
	default:
		if idx < 0 {
			return Selection{}
		}
		return Selection{Sprints: []types.Sprint{ordered[idx]}, CurrentFound: true}
	}
}
