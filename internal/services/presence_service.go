package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/lootguard/internal/models"
	apperrors "github.com/charlesng35/lootguard/pkg/errors"
)

// PresenceService tracks which actors are connected and when they last
// disconnected. The offline-protection rule reads it to decide whether an
// owner has been away long enough to lose protection.
type PresenceService struct {
	db      *gorm.DB
	sharing *SharingService
	now     func() time.Time
}

// PresenceOption customises the presence service.
type PresenceOption func(*PresenceService)

// WithPresenceNow overrides the clock, for tests.
func WithPresenceNow(now func() time.Time) PresenceOption {
	return func(s *PresenceService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewPresenceService constructs a presence service.
func NewPresenceService(db *gorm.DB, sharing *SharingService, opts ...PresenceOption) (*PresenceService, error) {
	if db == nil {
		return nil, errors.New("presence service: db is required")
	}
	if sharing == nil {
		return nil, errors.New("presence service: sharing service is required")
	}
	svc := &PresenceService{db: db, sharing: sharing, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// RecordConnect marks the actor online and makes sure their sharing list
// exists, so a freshly connected actor can receive grants immediately.
func (s *PresenceService) RecordConnect(ctx context.Context, actorID string) error {
	ctx = ensureContext(ctx)

	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return apperrors.NewBadRequest("actor id is required")
	}

	if err := s.sharing.EnsureOwner(ctx, actorID); err != nil {
		return err
	}

	record := models.PresenceRecord{ActorID: actorID, Online: true}
	if err := s.db.WithContext(ctx).
		Where("actor_id = ?", actorID).
		Assign(map[string]any{"online": true}).
		FirstOrCreate(&record).Error; err != nil {
		return fmt.Errorf("presence service: record connect: %w", err)
	}
	return nil
}

// RecordDisconnect marks the actor offline and overwrites their
// last-disconnect timestamp with the current UTC epoch seconds.
func (s *PresenceService) RecordDisconnect(ctx context.Context, actorID string) error {
	ctx = ensureContext(ctx)

	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return apperrors.NewBadRequest("actor id is required")
	}

	now := s.now().UTC().Unix()
	record := models.PresenceRecord{ActorID: actorID, Online: false, LastDisconnect: now}
	if err := s.db.WithContext(ctx).
		Where("actor_id = ?", actorID).
		Assign(map[string]any{"online": false, "last_disconnect": now}).
		FirstOrCreate(&record).Error; err != nil {
		return fmt.Errorf("presence service: record disconnect: %w", err)
	}
	return nil
}

// DaysSinceDisconnect returns how many days ago the actor last disconnected.
// ok is false when the actor has no disconnect on record.
func (s *PresenceService) DaysSinceDisconnect(ctx context.Context, actorID string) (days float64, ok bool, err error) {
	record, err := s.get(ctx, actorID)
	if err != nil {
		return 0, false, err
	}
	if record == nil || record.LastDisconnect == 0 {
		return 0, false, nil
	}
	elapsed := s.now().UTC().Unix() - record.LastDisconnect
	return math.Abs(float64(elapsed) / 86400), true, nil
}

// IsOnline reports whether the actor currently has a live session.
func (s *PresenceService) IsOnline(ctx context.Context, actorID string) (bool, error) {
	record, err := s.get(ctx, actorID)
	if err != nil {
		return false, err
	}
	return record != nil && record.Online, nil
}

// IsSleeping reports whether the actor is known but disconnected, the state
// where their in-world body remains lootable.
func (s *PresenceService) IsSleeping(ctx context.Context, actorID string) (bool, error) {
	record, err := s.get(ctx, actorID)
	if err != nil {
		return false, err
	}
	return record != nil && !record.Online, nil
}

// PruneDisconnectedBefore removes offline records whose last disconnect is
// older than the cutoff. Returns the number of rows removed.
func (s *PresenceService) PruneDisconnectedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Where("online = ? AND last_disconnect > 0 AND last_disconnect < ?", false, cutoff.UTC().Unix()).
		Delete(&models.PresenceRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("presence service: prune: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *PresenceService) get(ctx context.Context, actorID string) (*models.PresenceRecord, error) {
	ctx = ensureContext(ctx)

	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return nil, nil
	}

	var record models.PresenceRecord
	err := s.db.WithContext(ctx).Take(&record, "actor_id = ?", actorID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("presence service: get %q: %w", actorID, err)
	}
	return &record, nil
}
