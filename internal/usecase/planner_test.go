package usecase

import (
	"testing"

	"adlens/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPlanner() *QueryPlanner {
	return NewQueryPlanner(NewTimeRangeResolverAt(fixedNow), NewMetricRegistry())
}

func TestPlanDefaults(t *testing.T) {
	p := newTestPlanner()

	plan, err := p.Plan(domain.Query{Metric: domain.MetricList{"roas"}})
	require.NoError(t, err)

	assert.Equal(t, "2026-08-09", plan.Start.Format(domain.DateKey))
	assert.Equal(t, "2026-08-15", plan.End.Format(domain.DateKey))
	assert.Equal(t, []string{"revenue", "spend"}, plan.BaseMeasures)
	assert.Equal(t, "roas", plan.Derived)
	assert.Equal(t, 5, plan.TopN)
	assert.Equal(t, domain.SortDesc, plan.SortOrder)
	assert.Equal(t, domain.GranularityDay, plan.Granularity)
	assert.False(t, plan.NeedTimeseries)
	assert.False(t, plan.NeedPrevious)
}

func TestPlanTimeseriesFlags(t *testing.T) {
	p := newTestPlanner()

	tests := []struct {
		name           string
		query          domain.Query
		needTimeseries bool
		needPrevious   bool
	}{
		{
			"plain summary",
			domain.Query{Metric: domain.MetricList{"spend"}},
			false, false,
		},
		{
			"breakdown needs timeseries",
			domain.Query{Metric: domain.MetricList{"spend"}, Breakdown: domain.BreakdownCampaign},
			true, false,
		},
		{
			"comparison needs both",
			domain.Query{Metric: domain.MetricList{"spend"}, CompareToPrevious: true},
			true, true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := p.Plan(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.needTimeseries, plan.NeedTimeseries)
			assert.Equal(t, tt.needPrevious, plan.NeedPrevious)
		})
	}
}

func TestPlanGroupByFallback(t *testing.T) {
	p := newTestPlanner()

	plan, err := p.Plan(domain.Query{Metric: domain.MetricList{"spend"}, GroupBy: domain.BreakdownProvider})
	require.NoError(t, err)
	assert.Equal(t, domain.BreakdownProvider, plan.Breakdown)

	// Explicit breakdown wins over group_by.
	plan, err = p.Plan(domain.Query{
		Metric:    domain.MetricList{"spend"},
		Breakdown: domain.BreakdownCampaign,
		GroupBy:   domain.BreakdownProvider,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.BreakdownCampaign, plan.Breakdown)
}

func TestPlanDerivedOnlyForSingleFormulaMetric(t *testing.T) {
	p := newTestPlanner()

	plan, err := p.Plan(domain.Query{Metric: domain.MetricList{"spend"}})
	require.NoError(t, err)
	assert.Empty(t, plan.Derived)

	plan, err = p.Plan(domain.Query{Metric: domain.MetricList{"roas", "cpa"}})
	require.NoError(t, err)
	assert.Empty(t, plan.Derived)
	assert.Equal(t, []string{"conversions", "revenue", "spend"}, plan.BaseMeasures)
}

func TestPlanValidation(t *testing.T) {
	p := newTestPlanner()

	tests := []struct {
		name  string
		query domain.Query
	}{
		{"missing metric", domain.Query{}},
		{"unknown metric", domain.Query{Metric: domain.MetricList{"happiness"}}},
		{"unknown breakdown", domain.Query{Metric: domain.MetricList{"spend"}, Breakdown: "region"}},
		{"top_n too large", domain.Query{Metric: domain.MetricList{"spend"}, TopN: 51}},
		{"negative top_n", domain.Query{Metric: domain.MetricList{"spend"}, TopN: -1}},
		{"unknown sort order", domain.Query{Metric: domain.MetricList{"spend"}, SortOrder: "sideways"}},
		{"unknown operator", domain.Query{
			Metric:  domain.MetricList{"spend"},
			Filters: domain.QueryFilters{MetricFilters: []domain.MetricFilter{{Metric: "spend", Operator: "~", Value: 1}}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Plan(tt.query)
			var validationErr *domain.ValidationError
			require.ErrorAs(t, err, &validationErr)
		})
	}
}

func TestPlanPropagatesTimeRangeError(t *testing.T) {
	p := newTestPlanner()

	_, err := p.Plan(domain.Query{
		Metric:    domain.MetricList{"spend"},
		TimeRange: &domain.TimeRange{},
	})
	var rangeErr *domain.InvalidTimeRangeError
	require.ErrorAs(t, err, &rangeErr)
}
