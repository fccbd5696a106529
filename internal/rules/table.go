package rules

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/lootguard/internal/models"
)

// Table reads and edits the persisted rule table.
type Table struct {
	db *gorm.DB
}

// NewTable constructs a rule table backed by the provided database.
func NewTable(db *gorm.DB) (*Table, error) {
	if db == nil {
		return nil, errors.New("rules: db is required")
	}
	return &Table{db: db}, nil
}

// Lookup returns the default verdict for a resource type tag. found is false
// when the type has no entry; the decision engine treats that as block.
func (t *Table) Lookup(ctx context.Context, key string) (block bool, found bool, err error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return false, false, nil
	}

	var entry models.RuleEntry
	err = t.db.WithContext(ctx).Take(&entry, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("rules: lookup %q: %w", key, err)
	}
	return entry.Block, true, nil
}

// Set creates or updates an operator-edited rule entry.
func (t *Table) Set(ctx context.Context, key string, block bool) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("rules: key is required")
	}

	record := models.RuleEntry{Key: key, Block: block}
	if err := t.db.WithContext(ctx).
		Where("key = ?", key).
		Assign(map[string]any{"block": block}).
		FirstOrCreate(&record).Error; err != nil {
		return fmt.Errorf("rules: set %q: %w", key, err)
	}
	return nil
}

// All returns every rule entry ordered by key, for the status dump.
func (t *Table) All(ctx context.Context) ([]models.RuleEntry, error) {
	var entries []models.RuleEntry
	if err := t.db.WithContext(ctx).Order("key asc").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("rules: list: %w", err)
	}
	return entries, nil
}
