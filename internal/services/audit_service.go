package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/charlesng35/lootguard/internal/models"
)

// AuditEntry captures one evaluated interaction for the decision trail.
type AuditEntry struct {
	ActorID      string
	OwnerID      string
	ResourceType string
	ResourceID   string
	Outcome      string
	Rule         string
	Detail       map[string]any
}

// AuditFilters narrows audit queries.
type AuditFilters struct {
	ActorID      string
	OwnerID      string
	ResourceType string
	Outcome      string
	Since        *time.Time
	Until        *time.Time
}

// AuditListOptions controls pagination and filtering for audit queries.
type AuditListOptions struct {
	Page     int
	PageSize int
	Filters  AuditFilters
}

// AuditService persists and retrieves the decision trail.
type AuditService struct {
	db *gorm.DB
}

// NewAuditService constructs an audit service.
func NewAuditService(db *gorm.DB) (*AuditService, error) {
	if db == nil {
		return nil, errors.New("audit service: db is required")
	}
	return &AuditService{db: db}, nil
}

// Record stores an audit entry.
func (s *AuditService) Record(ctx context.Context, entry AuditEntry) error {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(entry.ActorID) == "" {
		return errors.New("audit service: actor id is required")
	}
	if strings.TrimSpace(entry.Outcome) == "" {
		return errors.New("audit service: outcome is required")
	}
	if strings.TrimSpace(entry.Rule) == "" {
		return errors.New("audit service: rule is required")
	}

	var detail datatypes.JSON
	if entry.Detail != nil {
		encoded, err := json.Marshal(entry.Detail)
		if err != nil {
			return fmt.Errorf("audit service: marshal detail: %w", err)
		}
		detail = datatypes.JSON(encoded)
	}

	log := models.AuditLog{
		ActorID:      strings.TrimSpace(entry.ActorID),
		OwnerID:      strings.TrimSpace(entry.OwnerID),
		ResourceType: strings.TrimSpace(entry.ResourceType),
		ResourceID:   strings.TrimSpace(entry.ResourceID),
		Outcome:      strings.TrimSpace(entry.Outcome),
		Rule:         strings.TrimSpace(entry.Rule),
		Detail:       detail,
	}

	if err := s.db.WithContext(ctx).Create(&log).Error; err != nil {
		return fmt.Errorf("audit service: record: %w", err)
	}
	return nil
}

// List returns paginated audit logs ordered by creation time descending.
func (s *AuditService) List(ctx context.Context, opts AuditListOptions) ([]models.AuditLog, int64, error) {
	ctx = ensureContext(ctx)

	page := opts.Page
	if page <= 0 {
		page = 1
	}
	perPage := opts.PageSize
	if perPage <= 0 || perPage > 200 {
		perPage = 50
	}

	var (
		results []models.AuditLog
		total   int64
	)

	query := s.db.WithContext(ctx).Model(&models.AuditLog{})
	query = applyAuditFilters(query, opts.Filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("audit service: count logs: %w", err)
	}

	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&results).Error; err != nil {
		return nil, 0, fmt.Errorf("audit service: list logs: %w", err)
	}

	return results, total, nil
}

// CleanupOlderThan removes audit logs older than the retention window and
// returns how many were removed.
func (s *AuditService) CleanupOlderThan(ctx context.Context, days int) (int64, error) {
	ctx = ensureContext(ctx)

	if days <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	result := s.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.AuditLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("audit service: cleanup: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func applyAuditFilters(query *gorm.DB, filters AuditFilters) *gorm.DB {
	if actor := strings.TrimSpace(filters.ActorID); actor != "" {
		query = query.Where("actor_id = ?", actor)
	}
	if owner := strings.TrimSpace(filters.OwnerID); owner != "" {
		query = query.Where("owner_id = ?", owner)
	}
	if rt := strings.TrimSpace(filters.ResourceType); rt != "" {
		query = query.Where("resource_type = ?", rt)
	}
	if outcome := strings.TrimSpace(filters.Outcome); outcome != "" {
		query = query.Where("outcome = ?", outcome)
	}
	if filters.Since != nil {
		query = query.Where("created_at >= ?", *filters.Since)
	}
	if filters.Until != nil {
		query = query.Where("created_at <= ?", *filters.Until)
	}
	return query
}
