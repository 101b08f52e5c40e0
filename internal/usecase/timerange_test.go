package usecase

import (
	"testing"
	"time"

	"adlens/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2026, 8, 15, 13, 42, 7, 0, time.UTC)
}

func intPtr(n int) *int { return &n }

func TestResolveDefaultsToLastSevenDays(t *testing.T) {
	r := NewTimeRangeResolverAt(fixedNow)

	start, end, err := r.Resolve(nil)
	require.NoError(t, err)

	assert.Equal(t, "2026-08-09", start.Format(domain.DateKey))
	assert.Equal(t, "2026-08-15", end.Format(domain.DateKey))
}

func TestResolveRelative(t *testing.T) {
	r := NewTimeRangeResolverAt(fixedNow)

	tests := []struct {
		name      string
		lastNDays int
		wantStart string
		wantEnd   string
	}{
		{"single day", 1, "2026-08-15", "2026-08-15"},
		{"week", 7, "2026-08-09", "2026-08-15"},
		{"thirty days", 30, "2026-07-17", "2026-08-15"},
		{"full year", 365, "2025-08-16", "2026-08-15"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := r.Resolve(&domain.TimeRange{LastNDays: intPtr(tt.lastNDays)})
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, start.Format(domain.DateKey))
			assert.Equal(t, tt.wantEnd, end.Format(domain.DateKey))
		})
	}
}

func TestResolveAbsolute(t *testing.T) {
	r := NewTimeRangeResolverAt(fixedNow)

	start, end, err := r.Resolve(&domain.TimeRange{Start: "2026-06-01", End: "2026-06-30"})
	require.NoError(t, err)

	assert.Equal(t, "2026-06-01", start.Format(domain.DateKey))
	assert.Equal(t, "2026-06-30", end.Format(domain.DateKey))
}

func TestResolveSingleDayAbsolute(t *testing.T) {
	r := NewTimeRangeResolverAt(fixedNow)

	start, end, err := r.Resolve(&domain.TimeRange{Start: "2026-06-15", End: "2026-06-15"})
	require.NoError(t, err)
	assert.True(t, start.Equal(end))
}

func TestResolvePresets(t *testing.T) {
	r := NewTimeRangeResolverAt(fixedNow)

	start, end, err := r.Resolve(&domain.TimeRange{Preset: "today"})
	require.NoError(t, err)
	assert.Equal(t, "2026-08-15", start.Format(domain.DateKey))
	assert.Equal(t, "2026-08-15", end.Format(domain.DateKey))

	start, end, err = r.Resolve(&domain.TimeRange{Preset: "yesterday"})
	require.NoError(t, err)
	assert.Equal(t, "2026-08-14", start.Format(domain.DateKey))
	assert.Equal(t, "2026-08-14", end.Format(domain.DateKey))
}

func TestResolveRejectsInvalidRanges(t *testing.T) {
	r := NewTimeRangeResolverAt(fixedNow)

	tests := []struct {
		name string
		tr   *domain.TimeRange
	}{
		{"both forms", &domain.TimeRange{LastNDays: intPtr(7), Start: "2026-08-01", End: "2026-08-02"}},
		{"neither form", &domain.TimeRange{}},
		{"zero days", &domain.TimeRange{LastNDays: intPtr(0)}},
		{"negative days", &domain.TimeRange{LastNDays: intPtr(-3)}},
		{"too many days", &domain.TimeRange{LastNDays: intPtr(366)}},
		{"start only", &domain.TimeRange{Start: "2026-08-01"}},
		{"end only", &domain.TimeRange{End: "2026-08-01"}},
		{"malformed start", &domain.TimeRange{Start: "01/08/2026", End: "2026-08-02"}},
		{"malformed end", &domain.TimeRange{Start: "2026-08-01", End: "next tuesday"}},
		{"inverted interval", &domain.TimeRange{Start: "2026-08-10", End: "2026-08-01"}},
		{"unknown preset", &domain.TimeRange{Preset: "last_quarter"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := r.Resolve(tt.tr)
			var rangeErr *domain.InvalidTimeRangeError
			require.ErrorAs(t, err, &rangeErr)
		})
	}
}
