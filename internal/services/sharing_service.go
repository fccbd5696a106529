package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/lootguard/internal/models"
	apperrors "github.com/charlesng35/lootguard/pkg/errors"
	"github.com/charlesng35/lootguard/pkg/metrics"
)

// SharingService owns the per-owner grant lists. Every mutation is persisted
// before it returns, and removal reloads the owner's list so a query issued
// immediately afterwards observes the write.
type SharingService struct {
	db *gorm.DB
}

// NewSharingService constructs a sharing service.
func NewSharingService(db *gorm.DB) (*SharingService, error) {
	if db == nil {
		return nil, errors.New("sharing service: db is required")
	}
	return &SharingService{db: db}, nil
}

// AddGrantInput describes a new sharing entry.
type AddGrantInput struct {
	OwnerID      string
	ResourceID   string
	ResourceType string
	// ShareWith is models.ShareWithAll, models.ShareWithFriends, or a
	// specific actor identifier.
	ShareWith string
}

// AddGrant appends a grant to the owner's list, creating the list when the
// owner has none. Duplicate grants accumulate; callers decide whether to
// dedupe first.
func (s *SharingService) AddGrant(ctx context.Context, input AddGrantInput) (*models.Grant, error) {
	ctx = ensureContext(ctx)

	ownerID := strings.TrimSpace(input.OwnerID)
	resourceID := strings.TrimSpace(input.ResourceID)
	if ownerID == "" || resourceID == "" {
		return nil, apperrors.NewBadRequest("owner id and resource id are required")
	}
	shareWith := strings.TrimSpace(input.ShareWith)
	if shareWith == "" {
		shareWith = models.ShareWithAll
	}

	grant := models.Grant{
		OwnerID:      ownerID,
		ResourceID:   resourceID,
		ResourceType: strings.TrimSpace(input.ResourceType),
		ShareWith:    shareWith,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureOwnerList(tx, ownerID); err != nil {
			return err
		}

		var maxPos sql.NullInt64
		if err := tx.Model(&models.Grant{}).
			Where("owner_id = ?", ownerID).
			Select("MAX(position)").
			Scan(&maxPos).Error; err != nil {
			return fmt.Errorf("sharing service: next position: %w", err)
		}
		if maxPos.Valid {
			grant.Position = int(maxPos.Int64) + 1
		}

		if err := tx.Create(&grant).Error; err != nil {
			return fmt.Errorf("sharing service: create grant: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ShareMutations.WithLabelValues("grant").Inc()
	return &grant, nil
}

// RemoveGrants deletes every grant of the owner matched by the predicate and
// returns how many were removed. The owner's remaining list is re-read before
// returning so follow-up queries in the same logical operation see the final
// state.
func (s *SharingService) RemoveGrants(ctx context.Context, ownerID string, match func(models.Grant) bool) (int, error) {
	ctx = ensureContext(ctx)

	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return 0, apperrors.NewBadRequest("owner id is required")
	}
	if match == nil {
		return 0, apperrors.NewBadRequest("a removal predicate is required")
	}

	removed := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		grants, err := listGrants(tx, ownerID)
		if err != nil {
			return err
		}

		var ids []string
		for _, grant := range grants {
			if match(grant) {
				ids = append(ids, grant.ID)
			}
		}
		if len(ids) == 0 {
			return nil
		}

		if err := tx.Delete(&models.Grant{}, "id IN ?", ids).Error; err != nil {
			return fmt.Errorf("sharing service: remove grants: %w", err)
		}
		removed = len(ids)

		// Reload to verify read-after-write consistency inside the same
		// transaction boundary.
		if _, err := listGrants(tx, ownerID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if removed > 0 {
		metrics.ShareMutations.WithLabelValues("revoke").Inc()
	}
	return removed, nil
}

// RemoveGrantsForResource removes every grant of the owner that targets the
// given resource.
func (s *SharingService) RemoveGrantsForResource(ctx context.Context, ownerID, resourceID string) (int, error) {
	resourceID = strings.TrimSpace(resourceID)
	if resourceID == "" {
		return 0, apperrors.NewBadRequest("resource id is required")
	}
	return s.RemoveGrants(ctx, ownerID, func(g models.Grant) bool {
		return g.ResourceID == resourceID
	})
}

// FindGrants returns the owner's grants for a resource in insertion order.
// No match is an empty slice, not an error.
func (s *SharingService) FindGrants(ctx context.Context, ownerID, resourceID string) ([]models.Grant, error) {
	ctx = ensureContext(ctx)

	var grants []models.Grant
	if err := s.db.WithContext(ctx).
		Where("owner_id = ? AND resource_id = ?", strings.TrimSpace(ownerID), strings.TrimSpace(resourceID)).
		Order("position asc").
		Find(&grants).Error; err != nil {
		return nil, fmt.Errorf("sharing service: find grants: %w", err)
	}
	return grants, nil
}

// ListOwnerGrants returns the owner's full grant list in insertion order.
func (s *SharingService) ListOwnerGrants(ctx context.Context, ownerID string) ([]models.Grant, error) {
	ctx = ensureContext(ctx)
	return listGrants(s.db.WithContext(ctx), strings.TrimSpace(ownerID))
}

// IsSharedWith reports whether the owner has shared the resource with the
// actor, either directly or through an everyone grant. Friends grants are
// resolved by the decision engine, which owns relationship lookups.
func (s *SharingService) IsSharedWith(ctx context.Context, ownerID, resourceID, actorID string) (bool, error) {
	grants, err := s.FindGrants(ctx, ownerID, resourceID)
	if err != nil {
		return false, err
	}
	for _, grant := range grants {
		if grant.ShareWith == models.ShareWithAll || grant.ShareWith == actorID {
			return true, nil
		}
	}
	return false, nil
}

// HasFriendsGrant reports whether the owner shared the resource with their
// relationship group.
func (s *SharingService) HasFriendsGrant(ctx context.Context, ownerID, resourceID string) (bool, error) {
	grants, err := s.FindGrants(ctx, ownerID, resourceID)
	if err != nil {
		return false, err
	}
	for _, grant := range grants {
		if grant.ShareWith == models.ShareWithFriends {
			return true, nil
		}
	}
	return false, nil
}

// EnsureOwner creates the owner's sharing list when it does not exist yet.
// Called on actor connect so every known actor has a list.
func (s *SharingService) EnsureOwner(ctx context.Context, ownerID string) error {
	ctx = ensureContext(ctx)

	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return apperrors.NewBadRequest("owner id is required")
	}
	return ensureOwnerList(s.db.WithContext(ctx), ownerID)
}

func ensureOwnerList(tx *gorm.DB, ownerID string) error {
	record := models.ShareOwner{ActorID: ownerID}
	if err := tx.Where("actor_id = ?", ownerID).
		FirstOrCreate(&record).Error; err != nil {
		return fmt.Errorf("sharing service: ensure owner list: %w", err)
	}
	return nil
}

func listGrants(tx *gorm.DB, ownerID string) ([]models.Grant, error) {
	var grants []models.Grant
	if err := tx.Where("owner_id = ?", ownerID).
		Order("position asc").
		Find(&grants).Error; err != nil {
		return nil, fmt.Errorf("sharing service: list grants: %w", err)
	}
	return grants, nil
}
