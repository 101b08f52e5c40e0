package domain

// Base measures: directly stored, summable quantities.
const (
	MeasureSpend       = "spend"
	MeasureRevenue     = "revenue"
	MeasureClicks      = "clicks"
	MeasureImpressions = "impressions"
	MeasureConversions = "conversions"
	MeasureLeads       = "leads"
	MeasureInstalls    = "installs"
	MeasurePurchases   = "purchases"
	MeasureVisitors    = "visitors"
	MeasureProfit      = "profit"
)

// BaseMeasures lists every summable measure the fact store carries.
var BaseMeasures = []string{
	MeasureSpend,
	MeasureRevenue,
	MeasureClicks,
	MeasureImpressions,
	MeasureConversions,
	MeasureLeads,
	MeasureInstalls,
	MeasurePurchases,
	MeasureVisitors,
	MeasureProfit,
}

// IsBaseMeasure reports whether name is a stored measure rather than a formula.
func IsBaseMeasure(name string) bool {
	for _, m := range BaseMeasures {
		if m == name {
			return true
		}
	}
	return false
}

// BaseTotals maps a base measure name to a summed value.
// Missing measures read as zero.
type BaseTotals map[string]float64

func (t BaseTotals) Get(measure string) float64 {
	return t[measure]
}

// Merge adds every measure of other into t.
func (t BaseTotals) Merge(other BaseTotals) {
	for m, v := range other {
		t[m] += v
	}
}

// Clone returns an independent copy of the totals.
func (t BaseTotals) Clone() BaseTotals {
	out := make(BaseTotals, len(t))
	for m, v := range t {
		out[m] = v
	}
	return out
}

// Fact is one time-bucketed row of the metric store, keyed by (entity, date)
// or (entity, date, hour) when hourly granularity is recorded.
type Fact struct {
	EntityID string     `json:"entity_id"`
	Date     string     `json:"date"` // YYYY-MM-DD
	Hour     *int       `json:"hour,omitempty"`
	Measures BaseTotals `json:"measures"`
}

// TimePoint is one bucket of a timeseries. Value is nil when the derived
// metric's denominator was zero for that bucket.
type TimePoint struct {
	Date  string   `json:"date"`
	Value *float64 `json:"value"`
}

// BreakdownRow is one group of a breakdown, with the derived metric computed
// independently from the group's own totals.
type BreakdownRow struct {
	Label       string   `json:"label"`
	Value       *float64 `json:"value"`
	Spend       float64  `json:"spend"`
	Clicks      float64  `json:"clicks"`
	Conversions float64  `json:"conversions"`
	Revenue     float64  `json:"revenue"`
	Impressions float64  `json:"impressions"`
	EntityID    string   `json:"entity_id,omitempty"`

	// Totals backs post-aggregation filtering; not serialized.
	Totals BaseTotals `json:"-"`
}

// MetricResult is the terminal artifact of a compiled query.
type MetricResult struct {
	Metric             string              `json:"metric"`
	Summary            *float64            `json:"summary"`
	Summaries          map[string]*float64 `json:"summaries,omitempty"`
	Previous           *float64            `json:"previous,omitempty"`
	DeltaPct           *float64            `json:"delta_pct,omitempty"`
	Timeseries         []TimePoint         `json:"timeseries,omitempty"`
	TimeseriesPrevious []TimePoint         `json:"timeseries_previous,omitempty"`
	Breakdown          []BreakdownRow      `json:"breakdown,omitempty"`
	WorkspaceAvg       *float64            `json:"workspace_avg,omitempty"`
	Start              string              `json:"start"`
	End                string              `json:"end"`
}
