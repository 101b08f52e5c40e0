package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"adlens/internal/domain"
	"adlens/pkg/logger"
)

// CatalogCache is the only shared mutable resource in the core: a read-mostly,
// workspace-scoped cache of entity catalogs. Safe to recompute on miss;
// writers to the entity store must call Invalidate for the workspace.
type CatalogCache struct {
	mu          sync.RWMutex
	byWorkspace map[string][]domain.Entity
}

func NewCatalogCache() *CatalogCache {
	return &CatalogCache{byWorkspace: make(map[string][]domain.Entity)}
}

func (c *CatalogCache) Get(workspaceID string) ([]domain.Entity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entities, ok := c.byWorkspace[workspaceID]
	return entities, ok
}

func (c *CatalogCache) Put(workspaceID string, entities []domain.Entity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byWorkspace[workspaceID] = entities
}

// Invalidate drops the cached catalog for a workspace.
func (c *CatalogCache) Invalidate(workspaceID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byWorkspace, workspaceID)
}

// Resolution is the outcome of resolving an entity-name filter.
type Resolution struct {
	// Matched is true when a named entity was found. EntityIDs then holds the
	// leaf ids to sum; the ancestor's own id is never included.
	Matched      bool
	MatchedID    string
	MatchedLevel domain.EntityLevel
	EntityIDs    []string

	// Breakdown is the effective breakdown, re-routed one level down when the
	// requested breakdown matched the named entity's own level.
	Breakdown domain.Breakdown

	// NameFallback carries the original name for a literal substring filter
	// when no entity matched. Degraded but non-fatal.
	NameFallback string
}

// EntityHierarchyResolver resolves a named entity reference to the full set
// of leaf entity ids that must be summed to avoid double counting.
type EntityHierarchyResolver struct {
	entities domain.EntityRepository
	cache    *CatalogCache
	logger   *logger.Logger
}

func NewEntityHierarchyResolver(entities domain.EntityRepository, cache *CatalogCache, logger *logger.Logger) *EntityHierarchyResolver {
	return &EntityHierarchyResolver{entities: entities, cache: cache, logger: logger}
}

func (r *EntityHierarchyResolver) catalog(ctx context.Context, workspaceID string) ([]domain.Entity, error) {
	if cached, ok := r.cache.Get(workspaceID); ok {
		return cached, nil
	}
	entities, err := r.entities.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load entity catalog: %w", err)
	}
	r.cache.Put(workspaceID, entities)
	return entities, nil
}

// Resolve finds the entity matching name (exact match preferred, else
// case-insensitive partial), expands it to leaf descendant ids, and re-routes
// a same-level breakdown one level down. levelHint narrows candidates when
// the query carries a level filter.
func (r *EntityHierarchyResolver) Resolve(ctx context.Context, workspaceID, name string, levelHint domain.EntityLevel, breakdown domain.Breakdown) (Resolution, error) {
	res := Resolution{Breakdown: breakdown}
	if name == "" {
		return res, nil
	}

	entities, err := r.catalog(ctx, workspaceID)
	if err != nil {
		return res, err
	}

	match, found := findByName(entities, name, levelHint)
	if !found {
		r.logger.WithContext(ctx).WithFields(map[string]any{
			"workspace_id": workspaceID,
			"entity_name":  name,
		}).Warn("No entity matched name, degrading to substring filter")
		res.NameFallback = name
		return res, nil
	}

	res.Matched = true
	res.MatchedID = match.ID
	res.MatchedLevel = match.Level

	if match.IsLeaf() {
		res.EntityIDs = []string{match.ID}
	} else {
		res.EntityIDs = leafDescendants(entities, match.ID)
	}

	// Breaking an already-selected singular entity down by its own level is
	// meaningless; route to the next level down instead.
	if breakdown.IsEntityLevel() && domain.EntityLevel(breakdown) == match.Level {
		switch match.Level {
		case domain.LevelCampaign:
			res.Breakdown = domain.BreakdownAdset
		case domain.LevelAdset:
			res.Breakdown = domain.BreakdownAd
		}
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"workspace_id": workspaceID,
		"entity_name":  name,
		"matched_id":   match.ID,
		"level":        match.Level,
		"leaf_count":   len(res.EntityIDs),
	}).Debug("Resolved named entity to leaf set")

	return res, nil
}

// ExpandToLeaves maps each id to its leaf descendants: leaves and uncataloged
// ids stand for themselves, ancestor ids expand to the leaves beneath them.
// Deduplicated and sorted, so two expanded sets intersect on equal footing.
func (r *EntityHierarchyResolver) ExpandToLeaves(ctx context.Context, workspaceID string, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	entities, err := r.catalog(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Entity, len(entities))
	for _, e := range entities {
		byID[e.ID] = e
	}

	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		e, ok := byID[id]
		if !ok || e.IsLeaf() {
			set[id] = struct{}{}
			continue
		}
		for _, leaf := range leafDescendants(entities, id) {
			set[leaf] = struct{}{}
		}
	}

	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// findByName prefers an exact name match, then falls back to a
// case-insensitive partial match. Among several partial matches the shortest
// name wins, ties broken alphabetically, so resolution is deterministic.
func findByName(entities []domain.Entity, name string, levelHint domain.EntityLevel) (domain.Entity, bool) {
	lower := strings.ToLower(name)

	candidates := entities
	if levelHint != "" {
		candidates = nil
		for _, e := range entities {
			if e.Level == levelHint {
				candidates = append(candidates, e)
			}
		}
	}

	for _, e := range candidates {
		if e.Name == name {
			return e, true
		}
	}
	for _, e := range candidates {
		if strings.EqualFold(e.Name, name) {
			return e, true
		}
	}

	var partial []domain.Entity
	for _, e := range candidates {
		if strings.Contains(strings.ToLower(e.Name), lower) {
			partial = append(partial, e)
		}
	}
	if len(partial) == 0 {
		return domain.Entity{}, false
	}
	sort.Slice(partial, func(i, j int) bool {
		if len(partial[i].Name) != len(partial[j].Name) {
			return len(partial[i].Name) < len(partial[j].Name)
		}
		return partial[i].Name < partial[j].Name
	})
	return partial[0], true
}

// leafDescendants walks the child mapping down to leaves. The ancestor's own
// id is excluded even if it has recorded facts; summing it alongside its
// leaves would double count.
func leafDescendants(entities []domain.Entity, ancestorID string) []string {
	children := make(map[string][]domain.Entity, len(entities))
	for _, e := range entities {
		if e.ParentID != "" {
			children[e.ParentID] = append(children[e.ParentID], e)
		}
	}

	var leaves []string
	stack := []string{ancestorID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, child := range children[id] {
			if child.IsLeaf() {
				leaves = append(leaves, child.ID)
			} else {
				stack = append(stack, child.ID)
			}
		}
	}
	sort.Strings(leaves)
	return leaves
}
