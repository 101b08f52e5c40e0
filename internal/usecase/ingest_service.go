package usecase

import (
	"context"
	"fmt"
	"time"

	"adlens/internal/domain"
	"adlens/pkg/logger"
	"adlens/pkg/metrics"
)

// IngestService loads facts and entity catalogs into the stores. Entity
// writes invalidate the hierarchy resolver's workspace cache.
type IngestService struct {
	facts    domain.FactRepository
	entities domain.EntityRepository
	cache    *CatalogCache
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewIngestService(facts domain.FactRepository, entities domain.EntityRepository, cache *CatalogCache, logger *logger.Logger, metrics *metrics.Metrics) *IngestService {
	return &IngestService{facts: facts, entities: entities, cache: cache, logger: logger, metrics: metrics}
}

// IngestFacts validates and upserts fact rows for one workspace.
// Base measures are never negative.
func (s *IngestService) IngestFacts(ctx context.Context, workspaceID string, facts []domain.Fact) error {
	log := s.logger.WithContext(ctx)

	if workspaceID == "" {
		return &domain.ValidationError{Field: "workspace_id", Message: "workspace id is required"}
	}
	for i, f := range facts {
		if f.EntityID == "" {
			return &domain.ValidationError{Field: "facts", Message: fmt.Sprintf("fact %d: entity_id is required", i)}
		}
		if _, err := time.ParseInLocation(domain.DateKey, f.Date, time.UTC); err != nil {
			return &domain.ValidationError{Field: "facts", Message: fmt.Sprintf("fact %d: date must be YYYY-MM-DD, got %q", i, f.Date)}
		}
		if f.Hour != nil && (*f.Hour < 0 || *f.Hour > 23) {
			return &domain.ValidationError{Field: "facts", Message: fmt.Sprintf("fact %d: hour must be between 0 and 23", i)}
		}
		for measure, v := range f.Measures {
			if !domain.IsBaseMeasure(measure) {
				return &domain.ValidationError{Field: "facts", Message: fmt.Sprintf("fact %d: unknown measure %q", i, measure)}
			}
			if v < 0 {
				return &domain.ValidationError{Field: "facts", Message: fmt.Sprintf("fact %d: %s must not be negative", i, measure)}
			}
		}
	}

	if err := s.facts.UpsertFacts(ctx, workspaceID, facts); err != nil {
		log.WithError(err).Error("Failed to upsert facts")
		return fmt.Errorf("failed to upsert facts: %w", err)
	}

	s.metrics.RecordIngest("facts", len(facts))
	log.WithFields(map[string]any{
		"workspace_id": workspaceID,
		"count":        len(facts),
	}).Info("Facts ingested")
	return nil
}

// IngestEntities validates and upserts catalog entities, then invalidates the
// workspace's cached catalog so resolvers see the write.
func (s *IngestService) IngestEntities(ctx context.Context, workspaceID string, entities []domain.Entity) error {
	log := s.logger.WithContext(ctx)

	if workspaceID == "" {
		return &domain.ValidationError{Field: "workspace_id", Message: "workspace id is required"}
	}
	for i, e := range entities {
		if e.ID == "" {
			return &domain.ValidationError{Field: "entities", Message: fmt.Sprintf("entity %d: id is required", i)}
		}
		switch e.Level {
		case domain.LevelCampaign, domain.LevelAdset, domain.LevelAd:
		default:
			return &domain.ValidationError{Field: "entities", Message: fmt.Sprintf("entity %d: unknown level %q", i, e.Level)}
		}
	}

	if err := s.entities.UpsertEntities(ctx, workspaceID, entities); err != nil {
		log.WithError(err).Error("Failed to upsert entities")
		return fmt.Errorf("failed to upsert entities: %w", err)
	}

	s.cache.Invalidate(workspaceID)
	s.metrics.RecordIngest("entities", len(entities))
	log.WithFields(map[string]any{
		"workspace_id": workspaceID,
		"count":        len(entities),
	}).Info("Entities ingested")
	return nil
}
