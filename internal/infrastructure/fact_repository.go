package infrastructure

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"adlens/internal/domain"
	"adlens/pkg/logger"
)

// FactRepository is an in-memory implementation of the metric store: a fact
// table keyed by (entity_id, bucket) per workspace, joined against the entity
// catalog for filtering and rollup.
//
// Rollup invariant: only facts recorded on leaf entities are summed. Fact
// rows on ancestors are stale aggregates and are excluded, so a period with
// both ancestor-level and leaf-level rows never double counts.
type FactRepository struct {
	mu       sync.RWMutex
	data     map[string]map[string]map[string]domain.BaseTotals // ws -> entity -> bucket -> totals
	entities *EntityRepository
	logger   *logger.Logger
}

func NewFactRepository(entities *EntityRepository, logger *logger.Logger) *FactRepository {
	return &FactRepository{
		data:     make(map[string]map[string]map[string]domain.BaseTotals),
		entities: entities,
		logger:   logger,
	}
}

func (r *FactRepository) UpsertFacts(ctx context.Context, workspaceID string, facts []domain.Fact) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ws, ok := r.data[workspaceID]
	if !ok {
		ws = make(map[string]map[string]domain.BaseTotals)
		r.data[workspaceID] = ws
	}
	for _, f := range facts {
		buckets, ok := ws[f.EntityID]
		if !ok {
			buckets = make(map[string]domain.BaseTotals)
			ws[f.EntityID] = buckets
		}
		buckets[bucketKey(f)] = f.Measures.Clone()
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"workspace_id": workspaceID,
		"count":        len(facts),
	}).Debug("Upserted facts")
	return nil
}

func bucketKey(f domain.Fact) string {
	if f.Hour != nil {
		return fmt.Sprintf("%sT%02d", f.Date, *f.Hour)
	}
	return f.Date
}

// dayOf strips the hour suffix from a bucket key.
func dayOf(bucket string) string {
	if len(bucket) > 10 {
		return bucket[:10]
	}
	return bucket
}

// matchRow is one qualifying (leaf entity, bucket) pair.
type matchRow struct {
	entity domain.Entity
	bucket string
	totals domain.BaseTotals
}

// match scans the workspace's facts and returns rows passing every predicate
// clause. Facts on non-leaf or uncataloged entities are skipped.
func (r *FactRepository) match(workspaceID string, f domain.FactFilter) []matchRow {
	if f.MatchNone {
		return nil
	}

	catalog := r.entities.snapshot(workspaceID)

	startKey := f.Start.Format(domain.DateKey)
	endKey := f.End.Format(domain.DateKey)

	idSet := map[string]bool{}
	for _, id := range f.EntityIDs {
		idSet[id] = true
	}
	nameNeedle := strings.ToLower(f.NameContains)

	r.mu.RLock()
	defer r.mu.RUnlock()

	var rows []matchRow
	for entityID, buckets := range r.data[workspaceID] {
		entity, ok := catalog[entityID]
		if !ok || !entity.IsLeaf() {
			continue
		}
		if f.Provider != "" && entity.Provider != f.Provider {
			continue
		}
		if f.Status != "" && entity.Status != f.Status {
			continue
		}
		chain := r.ancestorChain(catalog, entity)
		if f.Level != "" && f.Level != domain.LevelAd && ancestorAt(chain, f.Level) == nil {
			continue
		}
		if len(idSet) > 0 && !idMatches(idSet, entity, chain) {
			continue
		}
		if nameNeedle != "" && !nameMatches(nameNeedle, entity, chain) {
			continue
		}
		for bucket, totals := range buckets {
			day := dayOf(bucket)
			if day < startKey || day > endKey {
				continue
			}
			rows = append(rows, matchRow{entity: entity, bucket: bucket, totals: totals})
		}
	}
	return rows
}

// ancestorChain walks parent pointers from the leaf up to the root.
func (r *FactRepository) ancestorChain(catalog map[string]domain.Entity, leaf domain.Entity) []domain.Entity {
	var chain []domain.Entity
	cur := leaf
	for cur.ParentID != "" {
		parent, ok := catalog[cur.ParentID]
		if !ok {
			break
		}
		chain = append(chain, parent)
		cur = parent
	}
	return chain
}

func ancestorAt(chain []domain.Entity, level domain.EntityLevel) *domain.Entity {
	for i := range chain {
		if chain[i].Level == level {
			return &chain[i]
		}
	}
	return nil
}

// idMatches accepts the leaf's own id or any ancestor id, so an entity_ids
// filter naming a campaign scopes to that campaign's leaves.
func idMatches(idSet map[string]bool, leaf domain.Entity, chain []domain.Entity) bool {
	if idSet[leaf.ID] {
		return true
	}
	for _, a := range chain {
		if idSet[a.ID] {
			return true
		}
	}
	return false
}

// nameMatches applies the literal substring fallback against the leaf name
// and every ancestor name.
func nameMatches(needle string, leaf domain.Entity, chain []domain.Entity) bool {
	if strings.Contains(strings.ToLower(leaf.Name), needle) {
		return true
	}
	for _, a := range chain {
		if strings.Contains(strings.ToLower(a.Name), needle) {
			return true
		}
	}
	return false
}

func sumInto(dst domain.BaseTotals, src domain.BaseTotals, measures []string) {
	for _, m := range measures {
		dst[m] += src.Get(m)
	}
}

func (r *FactRepository) SumTotals(ctx context.Context, workspaceID string, f domain.FactFilter, measures []string) (domain.BaseTotals, error) {
	totals := domain.BaseTotals{}
	for _, row := range r.match(workspaceID, f) {
		sumInto(totals, row.totals, measures)
	}
	return totals, nil
}

func (r *FactRepository) SumTotalsByBucket(ctx context.Context, workspaceID string, f domain.FactFilter, measures []string, g domain.Granularity) ([]domain.BucketTotals, error) {
	grouped := make(map[string]domain.BaseTotals)
	for _, row := range r.match(workspaceID, f) {
		key := row.bucket
		if g == domain.GranularityDay {
			key = dayOf(row.bucket)
		}
		totals, ok := grouped[key]
		if !ok {
			totals = domain.BaseTotals{}
			grouped[key] = totals
		}
		sumInto(totals, row.totals, measures)
	}

	keys := make([]string, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buckets := make([]domain.BucketTotals, 0, len(keys))
	for _, k := range keys {
		buckets = append(buckets, domain.BucketTotals{Bucket: k, Totals: grouped[k]})
	}
	return buckets, nil
}

func (r *FactRepository) SumTotalsByEntity(ctx context.Context, workspaceID string, f domain.FactFilter, measures []string, level domain.EntityLevel) ([]domain.EntityTotals, error) {
	catalog := r.entities.snapshot(workspaceID)

	type group struct {
		label  string
		totals domain.BaseTotals
	}
	grouped := make(map[string]*group)

	for _, row := range r.match(workspaceID, f) {
		target := row.entity
		if level != domain.LevelAd {
			chain := r.ancestorChain(catalog, row.entity)
			ancestor := ancestorAt(chain, level)
			if ancestor == nil {
				continue
			}
			target = *ancestor
		}
		g, ok := grouped[target.ID]
		if !ok {
			g = &group{label: target.Name, totals: domain.BaseTotals{}}
			grouped[target.ID] = g
		}
		sumInto(g.totals, row.totals, measures)
	}

	out := make([]domain.EntityTotals, 0, len(grouped))
	for id, g := range grouped {
		out = append(out, domain.EntityTotals{EntityID: id, Label: g.label, Totals: g.totals})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Label != out[j].Label {
			return out[i].Label < out[j].Label
		}
		return out[i].EntityID < out[j].EntityID
	})
	return out, nil
}

func (r *FactRepository) SumTotalsByProvider(ctx context.Context, workspaceID string, f domain.FactFilter, measures []string) ([]domain.EntityTotals, error) {
	grouped := make(map[string]domain.BaseTotals)
	for _, row := range r.match(workspaceID, f) {
		provider := row.entity.Provider
		totals, ok := grouped[provider]
		if !ok {
			totals = domain.BaseTotals{}
			grouped[provider] = totals
		}
		sumInto(totals, row.totals, measures)
	}

	keys := make([]string, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]domain.EntityTotals, 0, len(keys))
	for _, k := range keys {
		out = append(out, domain.EntityTotals{Label: k, Totals: grouped[k]})
	}
	return out, nil
}
