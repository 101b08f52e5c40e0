package usecase

import (
	"strings"

	"adlens/internal/domain"
)

// VisualIntentClassifier maps a compiled result's shape plus query metadata
// to a rendering strategy. Deterministic rule cascade, first match wins; the
// renderer applies the returned record mechanically.
type VisualIntentClassifier struct{}

func NewVisualIntentClassifier() *VisualIntentClassifier {
	return &VisualIntentClassifier{}
}

// lowValueCutoff bounds the "looking for exceptions" heuristic: a filter like
// clicks <= 1 or roas = 0 means the user wants a table of outliers, where a
// chart would mislead.
const lowValueCutoff = 1.0

var (
	allWords     = []string{"all", "every", "each"}
	rankingWords = []string{"top", "best", "worst", "highest", "lowest", "most", "least"}
	compareWords = []string{"vs", "versus", "compare", "compared", "comparison", "than"}
)

// reasonableTopN is the largest top_n still treated as a ranking rather than
// a full distribution.
const reasonableTopN = 10

// Classify selects the rendering strategy for a query and its result.
func (c *VisualIntentClassifier) Classify(q domain.Query, result *domain.MetricResult) domain.RenderStrategy {
	question := strings.ToLower(q.Question)
	breakdown := q.EffectiveBreakdown() != domain.BreakdownNone
	hasSeries := result != nil && len(result.Timeseries) > 0

	if hasLowValueFilter(q.Filters.MetricFilters) {
		return strategy(domain.IntentFiltering, domain.RenderStrategy{ShowTable: true})
	}

	if breakdown && containsAnyWord(question, allWords) {
		return strategy(domain.IntentAllEntities, domain.RenderStrategy{ShowTable: true})
	}

	if breakdown && (containsAnyWord(question, rankingWords) || containsAnyWord(question, compareWords)) {
		return strategy(domain.IntentRanking, domain.RenderStrategy{
			ShowBreakdownChart: true, ShowTable: true, ChartKind: "bar", MaxCharts: 1,
		})
	}

	if q.CompareToPrevious || containsAnyWord(question, compareWords) {
		return strategy(domain.IntentComparison, domain.RenderStrategy{
			ShowCard: true, ShowComparison: true, ChartKind: "line", MaxCharts: 1,
		})
	}

	if len(q.Metric) > 1 {
		// One card per metric; no charts.
		return strategy(domain.IntentMultiMetric, domain.RenderStrategy{ShowCard: true})
	}

	if breakdown {
		topN := q.TopN
		if topN == 0 {
			topN = defaultTopN
		}
		if topN <= reasonableTopN {
			return strategy(domain.IntentRanking, domain.RenderStrategy{
				ShowBreakdownChart: true, ShowTable: true, ChartKind: "bar", MaxCharts: 1,
			})
		}
		return strategy(domain.IntentBreakdown, domain.RenderStrategy{
			ShowBreakdownChart: true, ShowTable: true, ChartKind: "pie", MaxCharts: 1,
		})
	}

	if strings.Contains(question, "trend") || strings.Contains(question, "over time") {
		return strategy(domain.IntentTrend, domain.RenderStrategy{
			ShowCard: true, ShowTimeseries: true, ChartKind: "area", MaxCharts: 1,
		})
	}

	s := domain.RenderStrategy{ShowCard: true}
	if hasSeries {
		// Sparkline only; no breakdown chart, no table.
		s.ShowTimeseries = true
		s.ChartKind = "line"
		s.MaxCharts = 1
	}
	return strategy(domain.IntentSingleMetric, s)
}

func strategy(intent domain.RenderIntent, s domain.RenderStrategy) domain.RenderStrategy {
	s.Intent = intent
	return s
}

// hasLowValueFilter detects filters hunting for exceptions: equality against
// zero or a low threshold, or an upper bound at or below the cutoff.
func hasLowValueFilter(filters []domain.MetricFilter) bool {
	for _, f := range filters {
		switch f.Operator {
		case "=", "<", "<=":
			if f.Value <= lowValueCutoff {
				return true
			}
		}
	}
	return false
}

func containsAnyWord(question string, words []string) bool {
	if question == "" {
		return false
	}
	fields := strings.FieldsFunc(question, func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
	for _, field := range fields {
		for _, w := range words {
			if field == w {
				return true
			}
		}
	}
	return false
}
