package usecase

import (
	"math"
	"sort"

	"adlens/internal/domain"
)

// Post-aggregation filters for breakdown rows. Thresholds and metric-value
// filters scope breakdown display only and are never applied to the summary:
// a workspace's total must not change because a threshold was set for
// "top campaign" purposes.

// ApplyThresholds keeps rows meeting every minimum-significance threshold.
func ApplyThresholds(rows []domain.BreakdownRow, t *domain.Thresholds) []domain.BreakdownRow {
	if t.IsZero() {
		return rows
	}
	out := rows[:0]
	for _, row := range rows {
		if t.MinSpend != nil && row.Totals.Get(domain.MeasureSpend) < *t.MinSpend {
			continue
		}
		if t.MinClicks != nil && row.Totals.Get(domain.MeasureClicks) < *t.MinClicks {
			continue
		}
		if t.MinConversions != nil && row.Totals.Get(domain.MeasureConversions) < *t.MinConversions {
			continue
		}
		out = append(out, row)
	}
	return out
}

// ApplyMetricFilters evaluates metric-value filters against each row after
// derived-metric computation. Only filters whose metric is among the
// displayed metrics participate; a row with a nil (guarded) value fails any
// filter on that metric.
func ApplyMetricFilters(rows []domain.BreakdownRow, filters []domain.MetricFilter, displayed []string, registry *MetricRegistry) []domain.BreakdownRow {
	if len(filters) == 0 {
		return rows
	}

	shown := make(map[string]bool, len(displayed))
	for _, m := range displayed {
		shown[m] = true
	}

	out := rows[:0]
	for _, row := range rows {
		keep := true
		for _, f := range filters {
			if !shown[f.Metric] {
				continue
			}
			v := registry.Compute(f.Metric, row.Totals)
			if v == nil || !compareValue(*v, f.Operator, f.Value) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, row)
		}
	}
	return out
}

func compareValue(v float64, op string, target float64) bool {
	switch op {
	case ">":
		return v > target
	case ">=":
		return v >= target
	case "<":
		return v < target
	case "<=":
		return v <= target
	case "=":
		return math.Abs(v-target) < 1e-9
	case "!=":
		return math.Abs(v-target) >= 1e-9
	}
	return false
}

// SortRows orders rows by the literal numeric value of the metric per the
// requested order. "Highest CPC" and "lowest CPC" both sort by raw CPC; there
// is no inversion for cost metrics here. Nil values sort last either way,
// ties break by label for determinism.
func SortRows(rows []domain.BreakdownRow, order domain.SortOrder) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Value, rows[j].Value
		switch {
		case a == nil && b == nil:
			return rows[i].Label < rows[j].Label
		case a == nil:
			return false
		case b == nil:
			return true
		case *a == *b:
			return rows[i].Label < rows[j].Label
		case order == domain.SortAsc:
			return *a < *b
		default:
			return *a > *b
		}
	})
}

// CapTopN truncates an already-filtered, already-sorted list. Capping before
// filtering could return fewer than n rows while qualifying rows exist
// further down, so it always runs last.
func CapTopN(rows []domain.BreakdownRow, n int) []domain.BreakdownRow {
	if n > 0 && len(rows) > n {
		return rows[:n]
	}
	return rows
}
