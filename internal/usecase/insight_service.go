package usecase

import (
	"context"
	"time"

	"adlens/internal/domain"
	"adlens/pkg/logger"
	"adlens/pkg/metrics"
)

// InsightService compiles and executes analytics queries end to end:
// plan, resolve named entities, aggregate, classify the rendering strategy.
// Request-scoped and stateless; safe for concurrent use.
type InsightService struct {
	planner    *QueryPlanner
	hierarchy  *EntityHierarchyResolver
	engine     *AggregationEngine
	classifier *VisualIntentClassifier
	logger     *logger.Logger
	metrics    *metrics.Metrics
}

func NewInsightService(
	planner *QueryPlanner,
	hierarchy *EntityHierarchyResolver,
	engine *AggregationEngine,
	classifier *VisualIntentClassifier,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *InsightService {
	return &InsightService{
		planner:    planner,
		hierarchy:  hierarchy,
		engine:     engine,
		classifier: classifier,
		logger:     logger,
		metrics:    metrics,
	}
}

// InsightResponse pairs the compiled numeric result with its rendering
// strategy for the downstream answer renderer.
type InsightResponse struct {
	Result *domain.MetricResult  `json:"result"`
	Render domain.RenderStrategy `json:"render"`
}

// Answer compiles a query into a result for one workspace. Workspace scoping
// is mandatory; there is no cross-workspace read path.
func (s *InsightService) Answer(ctx context.Context, workspaceID string, q domain.Query) (*InsightResponse, error) {
	started := time.Now()
	log := s.logger.WithContext(ctx)

	if workspaceID == "" {
		s.metrics.RecordQueryCompiled("validation_error", time.Since(started))
		return nil, &domain.ValidationError{Field: "workspace_id", Message: "workspace id is required"}
	}

	plan, err := s.planner.Plan(q)
	if err != nil {
		s.metrics.RecordQueryCompiled("validation_error", time.Since(started))
		return nil, err
	}

	if plan.Filters.EntityName != "" {
		res, err := s.hierarchy.Resolve(ctx, workspaceID, plan.Filters.EntityName, plan.Filters.Level, plan.Breakdown)
		if err != nil {
			s.metrics.RecordQueryCompiled("error", time.Since(started))
			return nil, err
		}
		if res.Matched {
			ids := res.EntityIDs
			if len(plan.Filters.EntityIDs) > 0 {
				// An explicit entity_ids filter may name ancestors; expand both
				// sides to leaves so the intersection compares like with like.
				existing, err := s.hierarchy.ExpandToLeaves(ctx, workspaceID, plan.Filters.EntityIDs)
				if err != nil {
					s.metrics.RecordQueryCompiled("error", time.Since(started))
					return nil, err
				}
				ids = intersectIDs(existing, ids)
			}
			if len(ids) == 0 {
				// Two narrowing filters that agree on nothing read nothing;
				// an empty id list alone would mean "no filter" and widen the
				// scope to the whole workspace.
				plan.Filters.MatchNone = true
			}
			plan.Filters.EntityIDs = ids
			plan.Filters.EntityName = ""
			plan.Breakdown = res.Breakdown
		} else {
			s.metrics.RecordResolutionFallback()
		}
	}

	result, err := s.engine.Execute(ctx, workspaceID, plan)
	if err != nil {
		s.metrics.RecordQueryCompiled("error", time.Since(started))
		return nil, err
	}

	render := s.classifier.Classify(q, result)
	s.metrics.RecordQueryCompiled("ok", time.Since(started))
	s.metrics.RecordRenderIntent(string(render.Intent))

	log.WithFields(map[string]any{
		"workspace_id": workspaceID,
		"metric":       result.Metric,
		"intent":       render.Intent,
		"rows":         len(result.Breakdown),
		"duration_ms":  time.Since(started).Milliseconds(),
	}).Info("Query answered")

	return &InsightResponse{Result: result, Render: render}, nil
}

// intersectIDs keeps the resolved leaf ids also present in the existing set,
// so a named entity never widens an explicit id scope.
func intersectIDs(existing, resolved []string) []string {
	keep := make(map[string]bool, len(existing))
	for _, id := range existing {
		keep[id] = true
	}
	var out []string
	for _, id := range resolved {
		if keep[id] {
			out = append(out, id)
		}
	}
	return out
}
