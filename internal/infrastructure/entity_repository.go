package infrastructure

import (
	"context"
	"sort"
	"sync"

	"adlens/internal/domain"
	"adlens/pkg/logger"
)

// EntityRepository is an in-memory implementation of the hierarchy store:
// entity metadata and parent/child links per workspace.
type EntityRepository struct {
	mu     sync.RWMutex
	data   map[string]map[string]domain.Entity // workspace -> id -> entity
	logger *logger.Logger
}

func NewEntityRepository(logger *logger.Logger) *EntityRepository {
	return &EntityRepository{
		data:   make(map[string]map[string]domain.Entity),
		logger: logger,
	}
}

func (r *EntityRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]domain.Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ws := r.data[workspaceID]
	entities := make([]domain.Entity, 0, len(ws))
	for _, e := range ws {
		entities = append(entities, e)
	}
	sort.Slice(entities, func(i, j int) bool { return entities[i].ID < entities[j].ID })
	return entities, nil
}

func (r *EntityRepository) UpsertEntities(ctx context.Context, workspaceID string, entities []domain.Entity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ws, ok := r.data[workspaceID]
	if !ok {
		ws = make(map[string]domain.Entity)
		r.data[workspaceID] = ws
	}
	for _, e := range entities {
		e.WorkspaceID = workspaceID
		ws[e.ID] = e
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"workspace_id": workspaceID,
		"count":        len(entities),
	}).Debug("Upserted entities")
	return nil
}

// snapshot returns the workspace's entity index for fact-store joins.
func (r *EntityRepository) snapshot(workspaceID string) map[string]domain.Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ws := r.data[workspaceID]
	out := make(map[string]domain.Entity, len(ws))
	for id, e := range ws {
		out[id] = e
	}
	return out
}
