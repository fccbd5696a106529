package models

// ShareWith sentinel values. Any other value names a specific actor.
const (
	ShareWithAll     = "all"
	ShareWithFriends = "friends"
)

// Grant records a resource-level sharing entry in an owner's registry list.
//
// ResourceID is an opaque network identifier for a live resource instance; it
// is an index, not a pointer — resources may be destroyed without this
// subsystem being told, leaving the grant orphaned until pruned.
type Grant struct {
	BaseModel

	OwnerID      string `gorm:"type:varchar(64);not null;index:idx_grants_owner_resource,priority:1" json:"owner_id"`
	ResourceID   string `gorm:"type:varchar(64);not null;index:idx_grants_owner_resource,priority:2" json:"resource_id"`
	ResourceType string `gorm:"type:varchar(64);not null" json:"resource_type"`
	ShareWith    string `gorm:"type:varchar(64);not null" json:"share_with"`

	// Position preserves insertion order within the owner's list. Lookup does
	// not depend on it; removal-by-match and snapshot round-trips do.
	Position int `gorm:"not null" json:"position"`
}

// TableName overrides the default table name for GORM.
func (Grant) TableName() string {
	return "grants"
}

// ShareOwner marks that an owner's sharing list exists, even when empty.
// Lists are created lazily on first reference and on actor connect.
type ShareOwner struct {
	ActorID   string `gorm:"primaryKey;type:varchar(64)" json:"actor_id"`
	CreatedAt int64  `gorm:"autoCreateTime" json:"created_at"`
}

// TableName overrides the default table name for GORM.
func (ShareOwner) TableName() string {
	return "share_owners"
}
