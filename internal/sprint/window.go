// Package sprint computes sprint ordering, selection and week-start anchors.
package sprint

import (
	"strings"
	"time"

	"github.com/foospace/sprintsync/internal/types"
)

// ComputeWindow validates a sprint's raw start and end dates and derives the
// week-start anchor: the first Monday on or after start. When the range holds
// no Monday the anchor falls back to start itself and Window.NoMonday is set.
//
// Dates may carry a time component ("2024-03-04T09:00:00Z"); only the
// calendar date is used.
func ComputeWindow(sprintName, start, end string) (types.Window, error) {
	invalid := func(reason string) error {
		return &types.InvalidSprintWindowError{Sprint: sprintName, Start: start, End: end, Reason: reason}
	}

	if start == "" {
		return types.Window{}, invalid("missing start date")
	}
	if end == "" {
		return types.Window{}, invalid("missing end date")
	}

	startDate, err := ParseDate(start)
	if err != nil {
		return types.Window{}, invalid("unparseable start date")
	}
	endDate, err := ParseDate(end)
	if err != nil {
		return types.Window{}, invalid("unparseable end date")
	}
	if endDate.Before(startDate) {
		return types.Window{}, invalid("end date is before start date")
	}

	w := types.Window{Start: startDate, End: endDate}
	monday := FirstMondayOnOrAfter(startDate)
	if monday.After(endDate) {
		w.WeekStart = startDate
		w.NoMonday = true
	} else {
		w.WeekStart = monday
	}
	return w, nil
}

// ParseDate parses the calendar-date part of an ISO date or datetime string.
func ParseDate(s string) (time.Time, error) {
	datePart, _, _ := strings.Cut(strings.TrimSpace(s), "T")
	return time.Parse(types.DateLayout, datePart)
}

// FirstMondayOnOrAfter returns d itself when d is a Monday, otherwise the next Monday.
func FirstMondayOnOrAfter(d time.Time) time.Time {
	offset := (int(time.Monday) - int(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, offset)
}
