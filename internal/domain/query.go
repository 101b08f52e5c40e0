package domain

import (
	"encoding/json"
	"fmt"
)

// Breakdown dimensions for grouping results.
type Breakdown string

const (
	BreakdownNone     Breakdown = ""
	BreakdownProvider Breakdown = "provider"
	BreakdownCampaign Breakdown = "campaign"
	BreakdownAdset    Breakdown = "adset"
	BreakdownAd       Breakdown = "ad"
	BreakdownDay      Breakdown = "day"
	BreakdownWeek     Breakdown = "week"
	BreakdownMonth    Breakdown = "month"
)

// IsEntityLevel reports whether the breakdown groups by a hierarchy level.
func (b Breakdown) IsEntityLevel() bool {
	return b == BreakdownCampaign || b == BreakdownAdset || b == BreakdownAd
}

// IsCalendar reports whether the breakdown groups by a calendar bucket.
func (b Breakdown) IsCalendar() bool {
	return b == BreakdownDay || b == BreakdownWeek || b == BreakdownMonth
}

func (b Breakdown) valid() bool {
	switch b {
	case BreakdownNone, BreakdownProvider, BreakdownCampaign, BreakdownAdset,
		BreakdownAd, BreakdownDay, BreakdownWeek, BreakdownMonth:
		return true
	}
	return false
}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

type Granularity string

const (
	GranularityDay  Granularity = "day"
	GranularityHour Granularity = "hour"
)

// TimeRange is the relative-XOR-absolute time specification of a query.
// Exactly one of LastNDays or Start/End must be set; Preset overrides both.
type TimeRange struct {
	LastNDays *int   `json:"last_n_days,omitempty"`
	Start     string `json:"start,omitempty"` // YYYY-MM-DD
	End       string `json:"end,omitempty"`   // YYYY-MM-DD
	Preset    string `json:"preset,omitempty"` // "today" or "yesterday"
}

// MetricFilter is a post-aggregation value constraint, e.g. roas > 4.
type MetricFilter struct {
	Metric   string  `json:"metric"`
	Operator string  `json:"operator"` // > >= < <= = !=
	Value    float64 `json:"value"`
}

// Thresholds are HAVING-style minimum-significance constraints.
// They apply to breakdown rows only, never to the summary.
type Thresholds struct {
	MinSpend       *float64 `json:"min_spend,omitempty"`
	MinClicks      *float64 `json:"min_clicks,omitempty"`
	MinConversions *float64 `json:"min_conversions,omitempty"`
}

// IsZero reports whether no threshold is set.
func (t *Thresholds) IsZero() bool {
	return t == nil || (t.MinSpend == nil && t.MinClicks == nil && t.MinConversions == nil)
}

// QueryFilters scope which entities a query reads.
type QueryFilters struct {
	Provider      string         `json:"provider,omitempty"`
	Level         EntityLevel    `json:"level,omitempty"`
	Status        EntityStatus   `json:"status,omitempty"`
	EntityIDs     []string       `json:"entity_ids,omitempty"`
	EntityName    string         `json:"entity_name,omitempty"`
	MetricFilters []MetricFilter `json:"metric_filters,omitempty"`

	// MatchNone forces an empty scope. Set during planning when narrowing
	// filters intersect to nothing; an empty EntityIDs alone means "no id
	// filter", so the distinction needs its own flag. Never set on the wire.
	MatchNone bool `json:"-"`
}

// MetricList accepts either a single string or a list of strings on the wire,
// since the upstream translator emits both forms for "metric".
type MetricList []string

func (m *MetricList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*m = nil
			return nil
		}
		*m = MetricList{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("metric must be a string or list of strings")
	}
	*m = MetricList(many)
	return nil
}

func (m MetricList) MarshalJSON() ([]byte, error) {
	if len(m) == 1 {
		return json.Marshal(m[0])
	}
	return json.Marshal([]string(m))
}

// Query is the declarative analytics question emitted by the upstream
// translator. It is constructed per request and never persisted.
type Query struct {
	Metric            MetricList   `json:"metric"`
	TimeRange         *TimeRange   `json:"time_range,omitempty"`
	CompareToPrevious bool         `json:"compare_to_previous,omitempty"`
	Breakdown         Breakdown    `json:"breakdown,omitempty"`
	GroupBy           Breakdown    `json:"group_by,omitempty"`
	Granularity       Granularity  `json:"granularity,omitempty"`
	TopN              int          `json:"top_n,omitempty"`
	SortOrder         SortOrder    `json:"sort_order,omitempty"`
	Filters           QueryFilters `json:"filters,omitempty"`
	Thresholds        *Thresholds  `json:"thresholds,omitempty"`

	// Question is the raw natural-language question, carried as metadata
	// for the visual-intent classifier. Never parsed for semantics here.
	Question string `json:"question,omitempty"`
}

// EffectiveBreakdown resolves the breakdown dimension: breakdown wins,
// group_by is the fallback.
func (q Query) EffectiveBreakdown() Breakdown {
	if q.Breakdown != BreakdownNone {
		return q.Breakdown
	}
	return q.GroupBy
}

// Validate checks structural constraints that do not need any resolver.
func (q Query) Validate() error {
	if len(q.Metric) == 0 {
		return &ValidationError{Field: "metric", Message: "at least one metric is required"}
	}
	if !q.Breakdown.valid() {
		return &ValidationError{Field: "breakdown", Message: fmt.Sprintf("unknown breakdown %q", q.Breakdown)}
	}
	if !q.GroupBy.valid() {
		return &ValidationError{Field: "group_by", Message: fmt.Sprintf("unknown group_by %q", q.GroupBy)}
	}
	if q.SortOrder != "" && q.SortOrder != SortAsc && q.SortOrder != SortDesc {
		return &ValidationError{Field: "sort_order", Message: fmt.Sprintf("unknown sort_order %q", q.SortOrder)}
	}
	if q.TopN < 0 || q.TopN > 50 {
		return &ValidationError{Field: "top_n", Message: "top_n must be between 1 and 50"}
	}
	if q.Granularity != "" && q.Granularity != GranularityDay && q.Granularity != GranularityHour {
		return &ValidationError{Field: "granularity", Message: fmt.Sprintf("unknown granularity %q", q.Granularity)}
	}
	for _, f := range q.Filters.MetricFilters {
		switch f.Operator {
		case ">", ">=", "<", "<=", "=", "!=":
		default:
			return &ValidationError{Field: "metric_filters", Message: fmt.Sprintf("unknown operator %q", f.Operator)}
		}
	}
	return nil
}
