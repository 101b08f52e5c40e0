package domain

import "time"

// Plan is the compiled form of a Query: concrete dates, the union of base
// measures to sum, and the flags the aggregation engine executes against.
// Derived once per Query and discarded after execution.
type Plan struct {
	Start time.Time
	End   time.Time

	// Metrics as requested; BaseMeasures is the union of their dependencies.
	Metrics      []string
	BaseMeasures []string

	// Derived is set only when exactly one metric was requested and it is a
	// formula; empty for base metrics and multi-metric queries.
	Derived string

	Breakdown   Breakdown
	Granularity Granularity

	NeedTimeseries bool
	NeedPrevious   bool

	Filters    QueryFilters
	Thresholds *Thresholds
	TopN       int
	SortOrder  SortOrder
}

// DateKey formats a day for fact-store keys and result buckets.
const DateKey = "2006-01-02"

// Days returns the inclusive length of the plan's window in days.
func (p Plan) Days() int {
	return int(p.End.Sub(p.Start).Hours()/24) + 1
}

// PreviousWindow returns the immediately preceding window of equal length:
// prev_end = start - 1 day, prev_start = prev_end - (days-1).
func (p Plan) PreviousWindow() (time.Time, time.Time) {
	prevEnd := p.Start.AddDate(0, 0, -1)
	prevStart := prevEnd.AddDate(0, 0, -(p.Days() - 1))
	return prevStart, prevEnd
}
