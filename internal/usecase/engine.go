package usecase

import (
	"context"
	"fmt"
	"time"

	"adlens/internal/domain"
	"adlens/pkg/logger"
	"adlens/pkg/metrics"
)

// AggregationEngine executes a Plan against the metric store: summary totals,
// optional daily timeseries, optional breakdown, optional previous-period
// totals, optional workspace baseline. Stateless and read-only; every call is
// scoped to the requesting workspace.
type AggregationEngine struct {
	facts    domain.FactRepository
	registry *MetricRegistry
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewAggregationEngine(facts domain.FactRepository, registry *MetricRegistry, logger *logger.Logger, metrics *metrics.Metrics) *AggregationEngine {
	return &AggregationEngine{facts: facts, registry: registry, logger: logger, metrics: metrics}
}

// Execute computes the MetricResult for a compiled plan.
func (e *AggregationEngine) Execute(ctx context.Context, workspaceID string, plan *domain.Plan) (*domain.MetricResult, error) {
	log := e.logger.WithContext(ctx)
	primary := plan.Metrics[0]

	ff := factFilter(plan.Filters, plan.Start, plan.End)

	totals, err := e.sumTotals(ctx, workspaceID, ff, plan.BaseMeasures)
	if err != nil {
		return nil, fmt.Errorf("failed to sum totals: %w", err)
	}

	result := &domain.MetricResult{
		Metric:  primary,
		Summary: e.registry.Compute(primary, totals),
		Start:   plan.Start.Format(domain.DateKey),
		End:     plan.End.Format(domain.DateKey),
	}

	if len(plan.Metrics) > 1 {
		result.Summaries = make(map[string]*float64, len(plan.Metrics))
		for _, m := range plan.Metrics {
			result.Summaries[m] = e.registry.Compute(m, totals)
		}
	}

	if plan.NeedPrevious {
		prevStart, prevEnd := plan.PreviousWindow()
		pff := factFilter(plan.Filters, prevStart, prevEnd)
		prevTotals, err := e.sumTotals(ctx, workspaceID, pff, plan.BaseMeasures)
		if err != nil {
			return nil, fmt.Errorf("failed to sum previous period: %w", err)
		}
		result.Previous = e.registry.Compute(primary, prevTotals)
		result.DeltaPct = deltaPct(result.Summary, result.Previous)
	}

	if plan.NeedTimeseries {
		series, err := e.timeseries(ctx, workspaceID, ff, plan, primary, plan.Start, plan.End)
		if err != nil {
			return nil, err
		}
		result.Timeseries = series

		if plan.NeedPrevious {
			prevStart, prevEnd := plan.PreviousWindow()
			pff := factFilter(plan.Filters, prevStart, prevEnd)
			prevSeries, err := e.timeseries(ctx, workspaceID, pff, plan, primary, prevStart, prevEnd)
			if err != nil {
				return nil, err
			}
			result.TimeseriesPrevious = prevSeries
		}
	}

	if plan.Breakdown != domain.BreakdownNone {
		rows, err := e.breakdown(ctx, workspaceID, ff, plan, primary)
		if err != nil {
			return nil, err
		}
		result.Breakdown = rows
		e.metrics.RecordBreakdownRows(string(plan.Breakdown), len(rows))
	}

	if scoped(plan.Filters) {
		// True baseline: the whole workspace, zero filters, same window.
		// Never blended into the primary result.
		wsTotals, err := e.sumTotals(ctx, workspaceID, domain.FactFilter{Start: plan.Start, End: plan.End}, plan.BaseMeasures)
		if err != nil {
			return nil, fmt.Errorf("failed to compute workspace baseline: %w", err)
		}
		result.WorkspaceAvg = e.registry.Compute(primary, wsTotals)
	}

	log.WithFields(map[string]any{
		"workspace_id": workspaceID,
		"metric":       primary,
		"start":        result.Start,
		"end":          result.End,
		"breakdown":    plan.Breakdown,
		"rows":         len(result.Breakdown),
	}).Debug("Plan executed")

	return result, nil
}

func (e *AggregationEngine) sumTotals(ctx context.Context, workspaceID string, ff domain.FactFilter, measures []string) (domain.BaseTotals, error) {
	start := time.Now()
	totals, err := e.facts.SumTotals(ctx, workspaceID, ff, measures)
	e.metrics.RecordStoreRead("sum_totals", time.Since(start))
	return totals, err
}

// timeseries computes the primary metric per calendar bucket. Daily series
// cover every day of the window so missing days surface as zero (or nil for
// guarded ratios); hourly series carry only the buckets present.
func (e *AggregationEngine) timeseries(ctx context.Context, workspaceID string, ff domain.FactFilter, plan *domain.Plan, metric string, start, end time.Time) ([]domain.TimePoint, error) {
	readStart := time.Now()
	buckets, err := e.facts.SumTotalsByBucket(ctx, workspaceID, ff, plan.BaseMeasures, plan.Granularity)
	e.metrics.RecordStoreRead("sum_by_bucket", time.Since(readStart))
	if err != nil {
		return nil, fmt.Errorf("failed to sum timeseries: %w", err)
	}

	if plan.Granularity == domain.GranularityHour {
		points := make([]domain.TimePoint, 0, len(buckets))
		for _, b := range buckets {
			points = append(points, domain.TimePoint{Date: b.Bucket, Value: e.registry.Compute(metric, b.Totals)})
		}
		return points, nil
	}

	byDay := make(map[string]domain.BaseTotals, len(buckets))
	for _, b := range buckets {
		byDay[b.Bucket] = b.Totals
	}

	var points []domain.TimePoint
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		key := day.Format(domain.DateKey)
		totals := byDay[key]
		if totals == nil {
			totals = domain.BaseTotals{}
		}
		points = append(points, domain.TimePoint{Date: key, Value: e.registry.Compute(metric, totals)})
	}
	return points, nil
}

// breakdown groups totals by the requested dimension and derives the metric
// for each group independently from its own totals, never from a
// pre-aggregated ratio. Thresholds and metric filters run before the top_n
// cap; the cap runs last.
func (e *AggregationEngine) breakdown(ctx context.Context, workspaceID string, ff domain.FactFilter, plan *domain.Plan, metric string) ([]domain.BreakdownRow, error) {
	var rows []domain.BreakdownRow

	switch {
	case plan.Breakdown == domain.BreakdownProvider:
		readStart := time.Now()
		groups, err := e.facts.SumTotalsByProvider(ctx, workspaceID, ff, plan.BaseMeasures)
		e.metrics.RecordStoreRead("sum_by_provider", time.Since(readStart))
		if err != nil {
			return nil, fmt.Errorf("failed to sum by provider: %w", err)
		}
		for _, g := range groups {
			rows = append(rows, e.row(g.Label, "", g.Totals, metric))
		}

	case plan.Breakdown.IsEntityLevel():
		readStart := time.Now()
		groups, err := e.facts.SumTotalsByEntity(ctx, workspaceID, ff, plan.BaseMeasures, domain.EntityLevel(plan.Breakdown))
		e.metrics.RecordStoreRead("sum_by_entity", time.Since(readStart))
		if err != nil {
			return nil, fmt.Errorf("failed to sum by %s: %w", plan.Breakdown, err)
		}
		for _, g := range groups {
			rows = append(rows, e.row(g.Label, g.EntityID, g.Totals, metric))
		}

	case plan.Breakdown.IsCalendar():
		readStart := time.Now()
		buckets, err := e.facts.SumTotalsByBucket(ctx, workspaceID, ff, plan.BaseMeasures, domain.GranularityDay)
		e.metrics.RecordStoreRead("sum_by_bucket", time.Since(readStart))
		if err != nil {
			return nil, fmt.Errorf("failed to sum by %s: %w", plan.Breakdown, err)
		}
		rows = e.calendarRows(buckets, plan.Breakdown, metric)
	}

	rows = ApplyThresholds(rows, plan.Thresholds)
	rows = ApplyMetricFilters(rows, plan.Filters.MetricFilters, plan.Metrics, e.registry)
	SortRows(rows, plan.SortOrder)
	return CapTopN(rows, plan.TopN), nil
}

// calendarRows folds daily buckets into day, ISO-week, or month groups.
func (e *AggregationEngine) calendarRows(buckets []domain.BucketTotals, b domain.Breakdown, metric string) []domain.BreakdownRow {
	grouped := make(map[string]domain.BaseTotals)
	var order []string
	for _, bucket := range buckets {
		day, err := time.ParseInLocation(domain.DateKey, bucket.Bucket, time.UTC)
		if err != nil {
			continue
		}
		var key string
		switch b {
		case domain.BreakdownDay:
			key = bucket.Bucket
		case domain.BreakdownWeek:
			year, week := day.ISOWeek()
			key = fmt.Sprintf("%d-W%02d", year, week)
		case domain.BreakdownMonth:
			key = day.Format("2006-01")
		}
		if _, seen := grouped[key]; !seen {
			order = append(order, key)
			grouped[key] = domain.BaseTotals{}
		}
		grouped[key].Merge(bucket.Totals)
	}

	rows := make([]domain.BreakdownRow, 0, len(order))
	for _, key := range order {
		rows = append(rows, e.row(key, "", grouped[key], metric))
	}
	return rows
}

func (e *AggregationEngine) row(label, entityID string, totals domain.BaseTotals, metric string) domain.BreakdownRow {
	return domain.BreakdownRow{
		Label:       label,
		EntityID:    entityID,
		Value:       e.registry.Compute(metric, totals),
		Spend:       totals.Get(domain.MeasureSpend),
		Clicks:      totals.Get(domain.MeasureClicks),
		Conversions: totals.Get(domain.MeasureConversions),
		Revenue:     totals.Get(domain.MeasureRevenue),
		Impressions: totals.Get(domain.MeasureImpressions),
		Totals:      totals,
	}
}

func factFilter(f domain.QueryFilters, start, end time.Time) domain.FactFilter {
	return domain.FactFilter{
		Start:        start,
		End:          end,
		Provider:     f.Provider,
		Level:        f.Level,
		Status:       f.Status,
		EntityIDs:    f.EntityIDs,
		NameContains: f.EntityName,
		MatchNone:    f.MatchNone,
	}
}

// scoped reports whether the query narrows below the whole workspace, which
// is when a baseline is worth computing.
func scoped(f domain.QueryFilters) bool {
	return f.Provider != "" || f.Level != "" || f.Status != "" ||
		len(f.EntityIDs) > 0 || f.EntityName != "" || f.MatchNone
}

func deltaPct(current, previous *float64) *float64 {
	if current == nil || previous == nil || *previous == 0 {
		return nil
	}
	v := (*current - *previous) / *previous * 100
	return &v
}
