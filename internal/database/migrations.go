package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/charlesng35/lootguard/internal/models"
	"github.com/charlesng35/lootguard/internal/rules"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.ShareOwner{},
		&models.Grant{},
		&models.PresenceRecord{},
		&models.RuleEntry{},
		&models.ActorPermission{},
		&models.AuditLog{},
		&models.SystemSetting{},
	)
}

// AutoMigrateAndSeed convenience helper used during application start-up.
// Seeding applies the versioned rule-table migrations; operator edits to
// existing rule entries are never overwritten.
func AutoMigrateAndSeed(db *gorm.DB) error {
	if db == nil {
		return errors.New("nil database handle")
	}

	if err := AutoMigrate(db); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	if err := rules.Sync(context.Background(), db); err != nil {
		return fmt.Errorf("seed rule table: %w", err)
	}

	return nil
}
