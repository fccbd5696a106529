package models

import "time"

// PresenceRecord tracks an actor's last disconnect for the offline-protection
// rule. Absence of a row means the actor has never been seen disconnecting.
type PresenceRecord struct {
	ActorID        string    `gorm:"primaryKey;type:varchar(64)" json:"actor_id"`
	Online         bool      `gorm:"not null" json:"online"`
	LastDisconnect int64     `gorm:"not null;default:0" json:"last_disconnect"` // epoch seconds, UTC
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName overrides the default table name for GORM.
func (PresenceRecord) TableName() string {
	return "presence_records"
}
