package usecase

import (
	"fmt"
	"sort"

	"adlens/internal/domain"
)

// MetricSpec describes one metric: the base measures it needs, its formula,
// and whether a numerically lower value is the better outcome. The inverse
// flag is consumed at the presentation boundary only; aggregation always
// sorts by literal value.
type MetricSpec struct {
	Name        string
	Description string
	Bases       []string
	Derived     bool
	Inverse     bool
	Compute     func(domain.BaseTotals) *float64
}

// ratio builds a guarded division: a zero denominator yields nil,
// never infinity or a panic.
func ratio(num, den string, scale float64) func(domain.BaseTotals) *float64 {
	return func(t domain.BaseTotals) *float64 {
		d := t.Get(den)
		if d == 0 {
			return nil
		}
		v := t.Get(num) / d * scale
		return &v
	}
}

func baseValue(measure string) func(domain.BaseTotals) *float64 {
	return func(t domain.BaseTotals) *float64 {
		v := t.Get(measure)
		return &v
	}
}

// MetricRegistry is the static formula table: every derived metric mapped to
// its required base measures, compute function, and inverse flag. Base
// metrics depend only on themselves.
type MetricRegistry struct {
	specs map[string]MetricSpec
}

func NewMetricRegistry() *MetricRegistry {
	specs := make(map[string]MetricSpec)

	for _, m := range domain.BaseMeasures {
		specs[m] = MetricSpec{
			Name:        m,
			Description: "summed " + m,
			Bases:       []string{m},
			Compute:     baseValue(m),
		}
	}

	derived := []MetricSpec{
		{Name: "roas", Description: "return on ad spend (revenue / spend)",
			Bases: []string{domain.MeasureSpend, domain.MeasureRevenue},
			Compute: ratio(domain.MeasureRevenue, domain.MeasureSpend, 1)},
		{Name: "cpa", Description: "cost per acquisition (spend / conversions)", Inverse: true,
			Bases: []string{domain.MeasureSpend, domain.MeasureConversions},
			Compute: ratio(domain.MeasureSpend, domain.MeasureConversions, 1)},
		{Name: "cvr", Description: "conversion rate (conversions / clicks)",
			Bases: []string{domain.MeasureClicks, domain.MeasureConversions},
			Compute: ratio(domain.MeasureConversions, domain.MeasureClicks, 1)},
		{Name: "cpc", Description: "cost per click (spend / clicks)", Inverse: true,
			Bases: []string{domain.MeasureSpend, domain.MeasureClicks},
			Compute: ratio(domain.MeasureSpend, domain.MeasureClicks, 1)},
		{Name: "cpm", Description: "cost per mille (spend / impressions * 1000)", Inverse: true,
			Bases: []string{domain.MeasureSpend, domain.MeasureImpressions},
			Compute: ratio(domain.MeasureSpend, domain.MeasureImpressions, 1000)},
		{Name: "cpl", Description: "cost per lead (spend / leads)", Inverse: true,
			Bases: []string{domain.MeasureSpend, domain.MeasureLeads},
			Compute: ratio(domain.MeasureSpend, domain.MeasureLeads, 1)},
		{Name: "cpi", Description: "cost per install (spend / installs)", Inverse: true,
			Bases: []string{domain.MeasureSpend, domain.MeasureInstalls},
			Compute: ratio(domain.MeasureSpend, domain.MeasureInstalls, 1)},
		{Name: "cpp", Description: "cost per purchase (spend / purchases)", Inverse: true,
			Bases: []string{domain.MeasureSpend, domain.MeasurePurchases},
			Compute: ratio(domain.MeasureSpend, domain.MeasurePurchases, 1)},
		{Name: "poas", Description: "profit on ad spend (profit / spend)",
			Bases: []string{domain.MeasureProfit, domain.MeasureSpend},
			Compute: ratio(domain.MeasureProfit, domain.MeasureSpend, 1)},
		{Name: "arpv", Description: "average revenue per visitor (revenue / visitors)",
			Bases: []string{domain.MeasureRevenue, domain.MeasureVisitors},
			Compute: ratio(domain.MeasureRevenue, domain.MeasureVisitors, 1)},
		{Name: "aov", Description: "average order value (revenue / purchases)",
			Bases: []string{domain.MeasureRevenue, domain.MeasurePurchases},
			Compute: ratio(domain.MeasureRevenue, domain.MeasurePurchases, 1)},
		{Name: "ctr", Description: "click-through rate (clicks / impressions)",
			Bases: []string{domain.MeasureClicks, domain.MeasureImpressions},
			Compute: ratio(domain.MeasureClicks, domain.MeasureImpressions, 1)},
	}
	for _, s := range derived {
		s.Derived = true
		specs[s.Name] = s
	}

	return &MetricRegistry{specs: specs}
}

// Lookup returns the spec for a metric name.
func (r *MetricRegistry) Lookup(name string) (MetricSpec, bool) {
	s, ok := r.specs[name]
	return s, ok
}

// IsDerived reports whether the metric is a formula rather than a base measure.
func (r *MetricRegistry) IsDerived(name string) bool {
	s, ok := r.specs[name]
	return ok && s.Derived
}

// IsInverse reports whether a lower value is the better outcome.
func (r *MetricRegistry) IsInverse(name string) bool {
	s, ok := r.specs[name]
	return ok && s.Inverse
}

// Dependencies returns the sorted union of base measures required by the
// requested metrics. This union is what the aggregation engine sums;
// derivation is then performed per metric from the shared totals.
func (r *MetricRegistry) Dependencies(metrics []string) ([]string, error) {
	set := make(map[string]struct{})
	for _, m := range metrics {
		spec, ok := r.specs[m]
		if !ok {
			return nil, &domain.ValidationError{Field: "metric", Message: fmt.Sprintf("unknown metric %q", m)}
		}
		for _, b := range spec.Bases {
			set[b] = struct{}{}
		}
	}
	union := make([]string, 0, len(set))
	for b := range set {
		union = append(union, b)
	}
	sort.Strings(union)
	return union, nil
}

// Compute derives a metric value from summed totals. Returns nil for a
// guarded division or an unknown metric.
func (r *MetricRegistry) Compute(name string, totals domain.BaseTotals) *float64 {
	spec, ok := r.specs[name]
	if !ok {
		return nil
	}
	return spec.Compute(totals)
}

// Names returns every registered metric, base measures first, then derived,
// each alphabetical.
func (r *MetricRegistry) Names() []string {
	var bases, derived []string
	for name, s := range r.specs {
		if s.Derived {
			derived = append(derived, name)
		} else {
			bases = append(bases, name)
		}
	}
	sort.Strings(bases)
	sort.Strings(derived)
	return append(bases, derived...)
}
