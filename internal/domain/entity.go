package domain

// EntityLevel is the position of an entity in the ad hierarchy.
type EntityLevel string

const (
	LevelCampaign EntityLevel = "campaign"
	LevelAdset    EntityLevel = "adset"
	LevelAd       EntityLevel = "ad"
)

type EntityStatus string

const (
	StatusActive   EntityStatus = "active"
	StatusPaused   EntityStatus = "paused"
	StatusArchived EntityStatus = "archived"
)

// Entity is one node of a workspace's ad hierarchy (campaign -> adset -> ad).
// ParentID is empty for campaigns.
type Entity struct {
	ID          string       `json:"id"`
	WorkspaceID string       `json:"workspace_id"`
	ParentID    string       `json:"parent_id,omitempty"`
	Level       EntityLevel  `json:"level"`
	Provider    string       `json:"provider"`
	Name        string       `json:"name"`
	Status      EntityStatus `json:"status"`
}

// IsLeaf reports whether the entity carries authoritative fact rows.
// Only ad-level entities do; facts recorded on ancestors are stale aggregates.
func (e Entity) IsLeaf() bool {
	return e.Level == LevelAd
}
