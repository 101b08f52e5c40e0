package domain

// RenderIntent is the visualization strategy class for a compiled result.
type RenderIntent string

const (
	IntentSingleMetric RenderIntent = "single_metric"
	IntentComparison   RenderIntent = "comparison"
	IntentRanking      RenderIntent = "ranking"
	IntentAllEntities  RenderIntent = "all_entities"
	IntentFiltering    RenderIntent = "filtering"
	IntentTrend        RenderIntent = "trend"
	IntentBreakdown    RenderIntent = "breakdown"
	IntentMultiMetric  RenderIntent = "multi_metric"
)

// RenderStrategy is the fixed record a renderer applies mechanically.
// The renderer performs no additional judgment.
type RenderStrategy struct {
	Intent             RenderIntent `json:"intent"`
	ShowCard           bool         `json:"show_card"`
	ShowTimeseries     bool         `json:"show_timeseries"`
	ShowComparison     bool         `json:"show_comparison"`
	ShowBreakdownChart bool         `json:"show_breakdown_chart"`
	ShowTable          bool         `json:"show_table"`
	ChartKind          string       `json:"chart_kind,omitempty"` // bar, line, area
	MaxCharts          int          `json:"max_charts"`
}
