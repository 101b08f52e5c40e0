package usecase

import (
	"adlens/internal/domain"
)

const defaultTopN = 5

// QueryPlanner compiles a Query into a Plan: concrete dates, the union of
// base measures, and the flags the aggregation engine executes against.
// Pure function of the query; no side effects, no store access.
type QueryPlanner struct {
	timeRange *TimeRangeResolver
	registry  *MetricRegistry
}

func NewQueryPlanner(timeRange *TimeRangeResolver, registry *MetricRegistry) *QueryPlanner {
	return &QueryPlanner{timeRange: timeRange, registry: registry}
}

// Plan validates the query and derives the execution plan. Missing required
// fields raise a validation error rather than silently defaulting.
func (p *QueryPlanner) Plan(q domain.Query) (*domain.Plan, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	start, end, err := p.timeRange.Resolve(q.TimeRange)
	if err != nil {
		return nil, err
	}

	bases, err := p.registry.Dependencies(q.Metric)
	if err != nil {
		return nil, err
	}

	derived := ""
	if len(q.Metric) == 1 && p.registry.IsDerived(q.Metric[0]) {
		derived = q.Metric[0]
	}

	breakdown := q.EffectiveBreakdown()

	topN := q.TopN
	if topN == 0 {
		topN = defaultTopN
	}
	sortOrder := q.SortOrder
	if sortOrder == "" {
		sortOrder = domain.SortDesc
	}
	granularity := q.Granularity
	if granularity == "" {
		granularity = domain.GranularityDay
	}

	return &domain.Plan{
		Start:        start,
		End:          end,
		Metrics:      []string(q.Metric),
		BaseMeasures: bases,
		Derived:      derived,
		Breakdown:    breakdown,
		Granularity:  granularity,

		// Timeseries is expensive and unnecessary for single-value answers;
		// it is computed only when a breakdown or comparison needs it.
		NeedTimeseries: breakdown != domain.BreakdownNone || q.CompareToPrevious,
		NeedPrevious:   q.CompareToPrevious,

		Filters:    q.Filters,
		Thresholds: q.Thresholds,
		TopN:       topN,
		SortOrder:  sortOrder,
	}, nil
}
