package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/lootguard/internal/models"
	apperrors "github.com/charlesng35/lootguard/pkg/errors"
)

// Permission names assignable to actors.
const (
	// PermAdmin grants the administrative command surface.
	PermAdmin = "lootguard.admin"
	// PermBypassAll lets an actor bypass every protection rule.
	PermBypassAll = "lootguard.all"
	// PermShare lets an actor manage sharing for their own resources.
	PermShare = "lootguard.share"
	// PermProtected marks an owner as protected when the engine runs in
	// require-permission mode.
	PermProtected = "lootguard.protected"
)

var knownPermissions = map[string]bool{
	PermAdmin:     true,
	PermBypassAll: true,
	PermShare:     true,
	PermProtected: true,
}

// PermissionService stores which actors hold which protection permissions.
type PermissionService struct {
	db *gorm.DB
}

// NewPermissionService constructs a permission service.
func NewPermissionService(db *gorm.DB) (*PermissionService, error) {
	if db == nil {
		return nil, errors.New("permission service: db is required")
	}
	return &PermissionService{db: db}, nil
}

// Grant assigns a permission to an actor. Granting an already-held
// permission is a no-op.
func (s *PermissionService) Grant(ctx context.Context, actorID, permission string) error {
	ctx = ensureContext(ctx)

	actorID, permission, err := normalisePermission(actorID, permission)
	if err != nil {
		return err
	}

	record := models.ActorPermission{ActorID: actorID, Permission: permission}
	if err := s.db.WithContext(ctx).
		Where("actor_id = ? AND permission = ?", actorID, permission).
		FirstOrCreate(&record).Error; err != nil {
		return fmt.Errorf("permission service: grant: %w", err)
	}
	return nil
}

// Revoke removes a permission from an actor.
func (s *PermissionService) Revoke(ctx context.Context, actorID, permission string) error {
	ctx = ensureContext(ctx)

	actorID, permission, err := normalisePermission(actorID, permission)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).
		Delete(&models.ActorPermission{}, "actor_id = ? AND permission = ?", actorID, permission).Error; err != nil {
		return fmt.Errorf("permission service: revoke: %w", err)
	}
	return nil
}

// Has reports whether the actor holds the permission.
func (s *PermissionService) Has(ctx context.Context, actorID, permission string) (bool, error) {
	ctx = ensureContext(ctx)

	actorID = strings.TrimSpace(actorID)
	permission = strings.TrimSpace(permission)
	if actorID == "" || permission == "" {
		return false, nil
	}

	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.ActorPermission{}).
		Where("actor_id = ? AND permission = ?", actorID, permission).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("permission service: check: %w", err)
	}
	return count > 0, nil
}

// List returns the permissions held by an actor.
func (s *PermissionService) List(ctx context.Context, actorID string) ([]string, error) {
	ctx = ensureContext(ctx)

	var records []models.ActorPermission
	if err := s.db.WithContext(ctx).
		Where("actor_id = ?", strings.TrimSpace(actorID)).
		Order("permission asc").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("permission service: list: %w", err)
	}

	perms := make([]string, 0, len(records))
	for _, record := range records {
		perms = append(perms, record.Permission)
	}
	return perms, nil
}

func normalisePermission(actorID, permission string) (string, string, error) {
	actorID = strings.TrimSpace(actorID)
	permission = strings.ToLower(strings.TrimSpace(permission))
	if actorID == "" {
		return "", "", apperrors.NewBadRequest("actor id is required")
	}
	if !knownPermissions[permission] {
		return "", "", apperrors.NewBadRequest(fmt.Sprintf("unknown permission %q", permission))
	}
	return actorID, permission, nil
}
