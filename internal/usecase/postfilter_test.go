package usecase

import (
	"testing"

	"adlens/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(label string, value *float64, totals domain.BaseTotals) domain.BreakdownRow {
	return domain.BreakdownRow{Label: label, Value: value, Totals: totals}
}

func TestApplyThresholds(t *testing.T) {
	rows := []domain.BreakdownRow{
		row("a", f64(5), domain.BaseTotals{"spend": 100, "clicks": 40}),
		row("b", f64(9), domain.BaseTotals{"spend": 20, "clicks": 300}),
		row("c", f64(7), domain.BaseTotals{"spend": 80, "clicks": 10}),
	}

	out := ApplyThresholds(rows, &domain.Thresholds{MinSpend: f64(50), MinClicks: f64(20)})
	require.Len(t, out, 1)
	assert.Equal(t, "a", out[0].Label)
}

func TestApplyThresholdsNilPassesAll(t *testing.T) {
	rows := []domain.BreakdownRow{
		row("a", f64(1), domain.BaseTotals{}),
		row("b", f64(2), domain.BaseTotals{}),
	}
	assert.Len(t, ApplyThresholds(rows, nil), 2)
	assert.Len(t, ApplyThresholds(rows, &domain.Thresholds{}), 2)
}

func TestApplyMetricFilters(t *testing.T) {
	registry := NewMetricRegistry()
	rows := []domain.BreakdownRow{
		row("good", nil, domain.BaseTotals{"revenue": 500, "spend": 100}), // roas 5
		row("poor", nil, domain.BaseTotals{"revenue": 100, "spend": 100}), // roas 1
		row("dark", nil, domain.BaseTotals{"revenue": 100}),               // roas nil
	}

	filters := []domain.MetricFilter{{Metric: "roas", Operator: ">", Value: 2}}

	out := ApplyMetricFilters(rows, filters, []string{"roas"}, registry)
	require.Len(t, out, 1)
	assert.Equal(t, "good", out[0].Label)
}

func TestApplyMetricFiltersIgnoresUndisplayedMetric(t *testing.T) {
	registry := NewMetricRegistry()
	rows := []domain.BreakdownRow{
		row("a", nil, domain.BaseTotals{"revenue": 100, "spend": 100}),
	}

	filters := []domain.MetricFilter{{Metric: "roas", Operator: ">", Value: 50}}

	// The filter names a metric the query does not display; it must not run.
	out := ApplyMetricFilters(rows, filters, []string{"spend"}, registry)
	assert.Len(t, out, 1)
}

func TestApplyMetricFiltersEquality(t *testing.T) {
	registry := NewMetricRegistry()
	rows := []domain.BreakdownRow{
		row("zero", nil, domain.BaseTotals{"conversions": 0, "clicks": 100}), // cvr 0
		row("some", nil, domain.BaseTotals{"conversions": 5, "clicks": 100}), // cvr 0.05
	}

	out := ApplyMetricFilters(rows, []domain.MetricFilter{{Metric: "cvr", Operator: "=", Value: 0}}, []string{"cvr"}, registry)
	require.Len(t, out, 1)
	assert.Equal(t, "zero", out[0].Label)
}

func TestSortRows(t *testing.T) {
	build := func() []domain.BreakdownRow {
		return []domain.BreakdownRow{
			row("b", f64(2), nil),
			row("nil", nil, nil),
			row("a", f64(9), nil),
			row("c", f64(2), nil),
		}
	}

	desc := build()
	SortRows(desc, domain.SortDesc)
	assert.Equal(t, []string{"a", "b", "c", "nil"}, labels(desc))

	asc := build()
	SortRows(asc, domain.SortAsc)
	assert.Equal(t, []string{"b", "c", "a", "nil"}, labels(asc))
}

func labels(rows []domain.BreakdownRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Label
	}
	return out
}

func TestCapTopN(t *testing.T) {
	rows := []domain.BreakdownRow{
		row("a", f64(3), nil),
		row("b", f64(2), nil),
		row("c", f64(1), nil),
	}

	assert.Len(t, CapTopN(rows, 2), 2)
	assert.Len(t, CapTopN(rows, 0), 3)
	assert.Len(t, CapTopN(rows, 10), 3)
}
