package domain

import (
	"context"
	"time"
)

// FactFilter composes the independent predicate clauses a read aggregation
// is scoped by. WorkspaceID is passed separately and is mandatory on every
// call; there is no cross-workspace read path.
type FactFilter struct {
	Start time.Time
	End   time.Time

	Provider     string
	Level        EntityLevel
	Status       EntityStatus
	EntityIDs    []string
	NameContains string

	// MatchNone short-circuits to an empty result set. An empty EntityIDs
	// means no id predicate, so a scope known to cover nothing must say so
	// explicitly.
	MatchNone bool
}

// BucketTotals is summed measures for one calendar bucket, ordered by bucket.
type BucketTotals struct {
	Bucket string // YYYY-MM-DD, or YYYY-MM-DDTHH for hourly
	Totals BaseTotals
}

// EntityTotals is summed measures for one breakdown group.
type EntityTotals struct {
	EntityID string
	Label    string
	Totals   BaseTotals
}

// FactRepository is the metric store interface: a time-bucketed fact table
// keyed by (entity_id, date). The engine only ever issues read aggregations
// against it. Rollup invariant: sums cover leaf entities only; fact rows
// recorded on ancestors are excluded to avoid double counting.
type FactRepository interface {
	// SumTotals sums each measure across all matching entity-days.
	SumTotals(ctx context.Context, workspaceID string, f FactFilter, measures []string) (BaseTotals, error)

	// SumTotalsByBucket groups the same sums by calendar day or hour,
	// ordered chronologically.
	SumTotalsByBucket(ctx context.Context, workspaceID string, f FactFilter, measures []string, g Granularity) ([]BucketTotals, error)

	// SumTotalsByEntity groups sums by the ancestor of each leaf at the given
	// level (or by the leaf itself for the ad level).
	SumTotalsByEntity(ctx context.Context, workspaceID string, f FactFilter, measures []string, level EntityLevel) ([]EntityTotals, error)

	// SumTotalsByProvider groups sums by the leaf entity's provider.
	SumTotalsByProvider(ctx context.Context, workspaceID string, f FactFilter, measures []string) ([]EntityTotals, error)

	// UpsertFacts replaces measures for each (entity, date) key.
	UpsertFacts(ctx context.Context, workspaceID string, facts []Fact) error
}

// EntityRepository is the hierarchy store interface: parent/child links and
// entity metadata used for name resolution and rollup.
type EntityRepository interface {
	ListByWorkspace(ctx context.Context, workspaceID string) ([]Entity, error)
	UpsertEntities(ctx context.Context, workspaceID string, entities []Entity) error
}
