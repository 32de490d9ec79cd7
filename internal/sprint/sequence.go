package sprint

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/foospace/sprintsync/internal/types"
)

var sequencePattern = regexp.MustCompile(`\d+`)

// Number extracts the first run of decimal digits in a sprint name.
// Names without digits sort as 0, i.e. before every numbered sprint.
func Number(name string) int {
	m := sequencePattern.FindString(name)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// Order sorts sprints ascending by sequence number. Ties keep source order.
func Order(sprints []types.Sprint) {
	sort.SliceStable(sprints, func(i, j int) bool {
		return Number(sprints[i].Name) < Number(sprints[j].Name)
	})
}

// FromRecord reads a sprint out of a sprint-database record.
func FromRecord(rec *types.Record, names types.PropertyNames) types.Sprint {
	start, end := rec.Prop(names.SprintDates).Range()
	return types.Sprint{
		ID:        rec.ID,
		Name:      rec.Prop(names.SprintName).FirstText().Or(types.UnnamedSprintName),
		Status:    rec.Prop(names.SprintStatus).ChoiceName().Value,
		StartDate: start,
		EndDate:   end,
	}
}
