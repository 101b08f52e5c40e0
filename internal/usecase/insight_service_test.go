package usecase

import (
	"context"
	"encoding/json"
	"testing"

	"adlens/internal/domain"
	"adlens/internal/infrastructure"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *InsightService {
	t.Helper()

	entityRepo := infrastructure.NewEntityRepository(testLogger)
	seedCatalog(t, entityRepo, "ws1")

	factRepo := infrastructure.NewFactRepository(entityRepo, testLogger)
	require.NoError(t, factRepo.UpsertFacts(context.Background(), "ws1", []domain.Fact{
		{EntityID: "ad1", Date: "2026-08-01", Measures: domain.BaseTotals{"spend": 100, "revenue": 300}},
		{EntityID: "ad1", Date: "2026-08-02", Measures: domain.BaseTotals{"spend": 100, "revenue": 200}},
		{EntityID: "ad2", Date: "2026-08-01", Measures: domain.BaseTotals{"spend": 50}},
		{EntityID: "ad3", Date: "2026-08-02", Measures: domain.BaseTotals{"spend": 200, "revenue": 1000}},
	}))

	registry := NewMetricRegistry()
	planner := NewQueryPlanner(NewTimeRangeResolverAt(fixedNow), registry)
	hierarchy := NewEntityHierarchyResolver(entityRepo, NewCatalogCache(), testLogger)
	engine := NewAggregationEngine(factRepo, registry, testLogger, testMetrics)

	return NewInsightService(planner, hierarchy, engine, NewVisualIntentClassifier(), testLogger, testMetrics)
}

func augustWindow() *domain.TimeRange {
	return &domain.TimeRange{Start: "2026-08-01", End: "2026-08-02"}
}

func TestAnswerRequiresWorkspace(t *testing.T) {
	s := newTestService(t)

	_, err := s.Answer(context.Background(), "", domain.Query{Metric: domain.MetricList{"spend"}})
	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "workspace_id", validationErr.Field)
}

func TestAnswerTopCampaignsByRoas(t *testing.T) {
	s := newTestService(t)

	resp, err := s.Answer(context.Background(), "ws1", domain.Query{
		Metric:    domain.MetricList{"roas"},
		TimeRange: augustWindow(),
		Breakdown: domain.BreakdownCampaign,
		TopN:      5,
		Question:  "top campaigns by roas",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.IntentRanking, resp.Render.Intent)
	require.Len(t, resp.Result.Breakdown, 2)
	assert.Equal(t, "Brand", resp.Result.Breakdown[0].Label) // 1000/200 beats 500/250
}

func TestAnswerResolvesNamedEntityAndReRoutesBreakdown(t *testing.T) {
	s := newTestService(t)

	resp, err := s.Answer(context.Background(), "ws1", domain.Query{
		Metric:    domain.MetricList{"spend"},
		TimeRange: augustWindow(),
		Breakdown: domain.BreakdownCampaign,
		Filters:   domain.QueryFilters{EntityName: "Summer Sale"},
		Question:  "spend for summer sale by campaign",
	})
	require.NoError(t, err)

	// The campaign breakdown is re-routed one level down to adsets.
	require.Len(t, resp.Result.Breakdown, 1)
	assert.Equal(t, "Retargeting", resp.Result.Breakdown[0].Label)
	require.NotNil(t, resp.Result.Breakdown[0].Value)
	assert.Equal(t, 250.0, *resp.Result.Breakdown[0].Value)

	require.NotNil(t, resp.Result.Summary)
	assert.Equal(t, 250.0, *resp.Result.Summary)

	// Scoped query carries the whole-workspace baseline.
	require.NotNil(t, resp.Result.WorkspaceAvg)
	assert.Equal(t, 450.0, *resp.Result.WorkspaceAvg)
}

func TestAnswerUnresolvedNameDegradesToSubstring(t *testing.T) {
	s := newTestService(t)

	resp, err := s.Answer(context.Background(), "ws1", domain.Query{
		Metric:    domain.MetricList{"spend"},
		TimeRange: augustWindow(),
		Filters:   domain.QueryFilters{EntityName: "Winter Blowout"},
	})
	require.NoError(t, err)

	// Nothing matched; the answer is an honest zero, not an error.
	require.NotNil(t, resp.Result.Summary)
	assert.Equal(t, 0.0, *resp.Result.Summary)
	require.NotNil(t, resp.Result.WorkspaceAvg)
	assert.Equal(t, 450.0, *resp.Result.WorkspaceAvg)
}

func TestAnswerNamedEntityIntersectsExplicitIDs(t *testing.T) {
	s := newTestService(t)

	resp, err := s.Answer(context.Background(), "ws1", domain.Query{
		Metric:    domain.MetricList{"spend"},
		TimeRange: augustWindow(),
		Filters: domain.QueryFilters{
			EntityName: "Summer Sale",
			EntityIDs:  []string{"ad1"},
		},
	})
	require.NoError(t, err)

	// "Summer Sale" resolves to {ad1, ad2}; the explicit filter narrows to ad1.
	require.NotNil(t, resp.Result.Summary)
	assert.Equal(t, 200.0, *resp.Result.Summary)
}

func TestAnswerDisjointNarrowingFiltersReadNothing(t *testing.T) {
	s := newTestService(t)

	// "Brand" resolves to {ad3}; the explicit filter names ad1. Two narrowing
	// filters that agree on nothing must yield zero, never the workspace total.
	resp, err := s.Answer(context.Background(), "ws1", domain.Query{
		Metric:    domain.MetricList{"spend"},
		TimeRange: augustWindow(),
		Filters: domain.QueryFilters{
			EntityName: "Brand",
			EntityIDs:  []string{"ad1"},
		},
	})
	require.NoError(t, err)

	require.NotNil(t, resp.Result.Summary)
	assert.Equal(t, 0.0, *resp.Result.Summary)
	// Still a scoped query; the baseline shows what the workspace did.
	require.NotNil(t, resp.Result.WorkspaceAvg)
	assert.Equal(t, 450.0, *resp.Result.WorkspaceAvg)
}

func TestAnswerAncestorIDIntersectsWithNamedEntity(t *testing.T) {
	s := newTestService(t)

	// The explicit filter names the campaign; the resolved name is the same
	// campaign's leaf set. The ancestor id expands to leaves before
	// intersecting, so the scope stays the campaign's ads.
	resp, err := s.Answer(context.Background(), "ws1", domain.Query{
		Metric:    domain.MetricList{"spend"},
		TimeRange: augustWindow(),
		Filters: domain.QueryFilters{
			EntityName: "Summer Sale",
			EntityIDs:  []string{"c1"},
		},
	})
	require.NoError(t, err)

	require.NotNil(t, resp.Result.Summary)
	assert.Equal(t, 250.0, *resp.Result.Summary)

	// An ancestor id narrowed by a leaf-level name keeps only that leaf.
	resp, err = s.Answer(context.Background(), "ws1", domain.Query{
		Metric:    domain.MetricList{"spend"},
		TimeRange: augustWindow(),
		Filters: domain.QueryFilters{
			EntityName: "Video A",
			EntityIDs:  []string{"c1"},
		},
	})
	require.NoError(t, err)

	require.NotNil(t, resp.Result.Summary)
	assert.Equal(t, 200.0, *resp.Result.Summary)
}

func TestAnswerIsDeterministic(t *testing.T) {
	s := newTestService(t)

	query := domain.Query{
		Metric:            domain.MetricList{"roas", "spend"},
		TimeRange:         augustWindow(),
		CompareToPrevious: true,
		Breakdown:         domain.BreakdownCampaign,
		Question:          "top campaigns by roas",
	}

	first, err := s.Answer(context.Background(), "ws1", query)
	require.NoError(t, err)
	second, err := s.Answer(context.Background(), "ws1", query)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestAnswerComparison(t *testing.T) {
	s := newTestService(t)

	resp, err := s.Answer(context.Background(), "ws1", domain.Query{
		Metric:            domain.MetricList{"spend"},
		TimeRange:         augustWindow(),
		CompareToPrevious: true,
		Question:          "spend compared to the previous period",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.IntentComparison, resp.Render.Intent)
	require.NotNil(t, resp.Result.Summary)
	assert.Equal(t, 450.0, *resp.Result.Summary)
	require.NotNil(t, resp.Result.Previous)
	assert.Equal(t, 0.0, *resp.Result.Previous)
	assert.Nil(t, resp.Result.DeltaPct)
	assert.Len(t, resp.Result.Timeseries, 2)
}

func TestAnswerInvalidQuery(t *testing.T) {
	s := newTestService(t)

	_, err := s.Answer(context.Background(), "ws1", domain.Query{
		Metric:    domain.MetricList{"spend"},
		TimeRange: &domain.TimeRange{},
	})
	var rangeErr *domain.InvalidTimeRangeError
	require.ErrorAs(t, err, &rangeErr)
}
