package rules

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"github.com/charlesng35/lootguard/internal/models"
)

// Sync brings the persisted rule table up to the current schema version.
//
// A fresh database receives the full default table. An existing database only
// receives the entries of migrations newer than its stored version; rows that
// already exist are left alone so operator edits survive upgrades. The stored
// version is rewritten to CurrentSchemaVersion afterwards.
func Sync(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return errors.New("rules: db is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	version, err := storedVersion(ctx, db)
	if err != nil {
		return err
	}

	tx := db.WithContext(ctx)

	if version == 0 {
		if err := seedEntries(tx, baseRules); err != nil {
			return err
		}
		version = 1
	}

	for _, step := range migrations {
		if step.version <= version {
			continue
		}
		if err := seedEntries(tx, step.entries); err != nil {
			return err
		}
	}

	return writeVersion(ctx, db, CurrentSchemaVersion)
}

func seedEntries(tx *gorm.DB, entries map[string]bool) error {
	for key, block := range entries {
		record := models.RuleEntry{Key: key, Block: block}
		if err := tx.Where(models.RuleEntry{Key: key}).
			Attrs(record).
			FirstOrCreate(&models.RuleEntry{}).Error; err != nil {
			return fmt.Errorf("rules: seed %q: %w", key, err)
		}
	}
	return nil
}

func storedVersion(ctx context.Context, db *gorm.DB) (int, error) {
	var setting models.SystemSetting
	err := db.WithContext(ctx).Take(&setting, "key = ?", SchemaVersionKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("rules: read schema version: %w", err)
	}

	version, err := strconv.Atoi(setting.Value)
	if err != nil {
		return 0, fmt.Errorf("rules: parse schema version %q: %w", setting.Value, err)
	}
	return version, nil
}

func writeVersion(ctx context.Context, db *gorm.DB, version int) error {
	record := models.SystemSetting{Key: SchemaVersionKey, Value: strconv.Itoa(version)}
	if err := db.WithContext(ctx).
		Where("key = ?", SchemaVersionKey).
		Assign(map[string]any{"value": record.Value}).
		FirstOrCreate(&record).Error; err != nil {
		return fmt.Errorf("rules: write schema version: %w", err)
	}
	return nil
}
