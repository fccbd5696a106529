package models

// ActorPermission assigns a named engine permission to a game actor.
// These mirror the host environment's permission facts and are managed
// through the admin API.
type ActorPermission struct {
	BaseModel

	ActorID    string `gorm:"type:varchar(64);not null;uniqueIndex:idx_actor_permission" json:"actor_id"`
	Permission string `gorm:"type:varchar(64);not null;uniqueIndex:idx_actor_permission" json:"permission"`
}

// TableName overrides the default table name for GORM.
func (ActorPermission) TableName() string {
	return "actor_permissions"
}
