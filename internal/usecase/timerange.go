package usecase

import (
	"fmt"
	"time"

	"adlens/internal/domain"
)

const (
	defaultLastNDays = 7
	maxLastNDays     = 365
)

// TimeRangeResolver turns a relative or absolute time specification into a
// concrete inclusive date interval. Dates are UTC midnights.
type TimeRangeResolver struct {
	now func() time.Time
}

func NewTimeRangeResolver() *TimeRangeResolver {
	return &TimeRangeResolver{now: time.Now}
}

// NewTimeRangeResolverAt pins "today" for deterministic resolution.
func NewTimeRangeResolverAt(now func() time.Time) *TimeRangeResolver {
	return &TimeRangeResolver{now: now}
}

func (r *TimeRangeResolver) today() time.Time {
	t := r.now().UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Resolve produces the inclusive (start, end) interval for a time range.
// A nil range defaults to the last 7 days ending today. A present range must
// specify exactly one of last_n_days or start/end.
func (r *TimeRangeResolver) Resolve(tr *domain.TimeRange) (time.Time, time.Time, error) {
	today := r.today()

	if tr == nil {
		return today.AddDate(0, 0, -(defaultLastNDays - 1)), today, nil
	}

	switch tr.Preset {
	case "":
	case "today":
		return today, today, nil
	case "yesterday":
		y := today.AddDate(0, 0, -1)
		return y, y, nil
	default:
		return time.Time{}, time.Time{}, &domain.InvalidTimeRangeError{
			Reason: fmt.Sprintf("unknown preset %q", tr.Preset),
		}
	}

	relative := tr.LastNDays != nil
	absolute := tr.Start != "" || tr.End != ""

	switch {
	case relative && absolute:
		return time.Time{}, time.Time{}, &domain.InvalidTimeRangeError{
			Reason: "specify either last_n_days or start/end, not both",
		}
	case !relative && !absolute:
		return time.Time{}, time.Time{}, &domain.InvalidTimeRangeError{
			Reason: "specify either last_n_days or start/end",
		}
	case relative:
		n := *tr.LastNDays
		if n < 1 || n > maxLastNDays {
			return time.Time{}, time.Time{}, &domain.InvalidTimeRangeError{
				Reason: fmt.Sprintf("last_n_days must be between 1 and %d", maxLastNDays),
			}
		}
		return today.AddDate(0, 0, -(n - 1)), today, nil
	default:
		if tr.Start == "" || tr.End == "" {
			return time.Time{}, time.Time{}, &domain.InvalidTimeRangeError{
				Reason: "both start and end are required for an absolute range",
			}
		}
		start, err := time.ParseInLocation(domain.DateKey, tr.Start, time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, &domain.InvalidTimeRangeError{
				Reason: fmt.Sprintf("start must be YYYY-MM-DD, got %q", tr.Start),
			}
		}
		end, err := time.ParseInLocation(domain.DateKey, tr.End, time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, &domain.InvalidTimeRangeError{
				Reason: fmt.Sprintf("end must be YYYY-MM-DD, got %q", tr.End),
			}
		}
		if end.Before(start) {
			return time.Time{}, time.Time{}, &domain.InvalidTimeRangeError{
				Reason: "end must not be before start",
			}
		}
		return start, end, nil
	}
}
