package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditLog records one evaluated interaction: who tried to access what, the
// outcome, and the rule that decided it.
type AuditLog struct {
	ID           string         `gorm:"primaryKey;type:uuid" json:"id"`
	ActorID      string         `gorm:"type:varchar(64);not null;index" json:"actor_id"`
	OwnerID      string         `gorm:"type:varchar(64);index" json:"owner_id"`
	ResourceType string         `gorm:"type:varchar(64);index" json:"resource_type"`
	ResourceID   string         `gorm:"type:varchar(64)" json:"resource_id"`
	Outcome      string         `gorm:"type:varchar(16);not null" json:"outcome"`
	Rule         string         `gorm:"type:varchar(64);not null" json:"rule"`
	Detail       datatypes.JSON `json:"detail"`
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`
}

// TableName overrides the default table name for GORM.
func (AuditLog) TableName() string {
	return "audit_logs"
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
