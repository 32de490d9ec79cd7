package types

import "time"

// DateLayout is the ISO calendar date format used for sprint dates and week anchors.
const DateLayout = "2006-01-02"

// Sprint is a time-boxed work period read from the sprint database.
// StartDate and EndDate are kept as the raw strings the source returned;
// they are validated by the sprint window calculator.
type Sprint struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

// Window is a validated sprint date range plus its week-start anchor.
type Window struct {
	Start     time.Time
	End       time.Time
	WeekStart time.Time
	// NoMonday is set when the range spans no Monday and WeekStart fell back to Start.
	NoMonday bool
}
