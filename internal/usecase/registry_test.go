package usecase

import (
	"testing"

	"adlens/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }

func TestRegistryComputesDerivedMetrics(t *testing.T) {
	r := NewMetricRegistry()

	totals := domain.BaseTotals{
		"spend":       100,
		"revenue":     400,
		"clicks":      50,
		"impressions": 10000,
		"conversions": 10,
		"purchases":   8,
	}

	tests := []struct {
		metric string
		want   float64
	}{
		{"roas", 4},
		{"cpa", 10},
		{"cvr", 0.2},
		{"cpc", 2},
		{"cpm", 10}, // spend / impressions * 1000
		{"ctr", 0.005},
		{"cpp", 12.5},
		{"aov", 50},
	}
	for _, tt := range tests {
		t.Run(tt.metric, func(t *testing.T) {
			got := r.Compute(tt.metric, totals)
			require.NotNil(t, got)
			assert.InDelta(t, tt.want, *got, 1e-9)
		})
	}
}

func TestRegistryGuardsZeroDenominator(t *testing.T) {
	r := NewMetricRegistry()

	totals := domain.BaseTotals{"revenue": 500} // spend absent, reads as zero
	assert.Nil(t, r.Compute("roas", totals))
	assert.Nil(t, r.Compute("cpc", totals))
	assert.Nil(t, r.Compute("cpm", totals))
}

func TestRegistryComputesBaseMetric(t *testing.T) {
	r := NewMetricRegistry()

	got := r.Compute("spend", domain.BaseTotals{"spend": 123.45})
	require.NotNil(t, got)
	assert.Equal(t, 123.45, *got)

	// A base metric with no recorded facts is zero, not nil.
	got = r.Compute("clicks", domain.BaseTotals{})
	require.NotNil(t, got)
	assert.Equal(t, 0.0, *got)
}

func TestRegistryDependencies(t *testing.T) {
	r := NewMetricRegistry()

	deps, err := r.Dependencies([]string{"roas", "cpa", "spend"})
	require.NoError(t, err)
	assert.Equal(t, []string{"conversions", "revenue", "spend"}, deps)
}

func TestRegistryDependenciesUnknownMetric(t *testing.T) {
	r := NewMetricRegistry()

	_, err := r.Dependencies([]string{"roas", "happiness"})
	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestRegistryInverseFlags(t *testing.T) {
	r := NewMetricRegistry()

	for _, m := range []string{"cpc", "cpm", "cpa", "cpl", "cpi", "cpp"} {
		assert.True(t, r.IsInverse(m), m)
	}
	for _, m := range []string{"roas", "cvr", "ctr", "spend", "revenue"} {
		assert.False(t, r.IsInverse(m), m)
	}
}

func TestRegistryNamesListsBasesFirst(t *testing.T) {
	r := NewMetricRegistry()

	names := r.Names()
	require.NotEmpty(t, names)

	baseCount := len(domain.BaseMeasures)
	for _, name := range names[:baseCount] {
		assert.False(t, r.IsDerived(name), name)
	}
	for _, name := range names[baseCount:] {
		assert.True(t, r.IsDerived(name), name)
	}
}
