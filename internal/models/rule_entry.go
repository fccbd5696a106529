package models

import "time"

// RuleEntry is one row of the rule table: a default verdict keyed by resource
// type. Block true means the type is protected by default once every bypass
// has failed; Block false means access is allowed by default.
//
// Rows are seeded by versioned migrations and may be edited by operators;
// migrations never overwrite an existing row.
type RuleEntry struct {
	Key       string    `gorm:"primaryKey;type:varchar(64)" json:"key"`
	Block     bool      `gorm:"not null" json:"block"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the default table name for GORM.
func (RuleEntry) TableName() string {
	return "rule_entries"
}
