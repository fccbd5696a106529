package models

import "time"

// SystemSetting persists installation-wide values that survive restarts,
// such as the rule schema version and the runtime zone deny list.
type SystemSetting struct {
	Key       string    `gorm:"primaryKey"`
	Value     string    `gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
