package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/lootguard/internal/database/testutil"
	"github.com/charlesng35/lootguard/internal/models"
	"github.com/charlesng35/lootguard/internal/services"
)

func TestCleanerRunOnce(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	now := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)

	auditSvc, err := services.NewAuditService(db)
	require.NoError(t, err)
	sharing, err := services.NewSharingService(db)
	require.NoError(t, err)
	presence, err := services.NewPresenceService(db, sharing,
		services.WithPresenceNow(func() time.Time { return now }))
	require.NoError(t, err)

	ctx := context.Background()

	// One audit record inside retention, one stale.
	require.NoError(t, auditSvc.Record(ctx, services.AuditEntry{
		ActorID: "actor-fresh", Outcome: "deny", Rule: "rule_table",
	}))
	require.NoError(t, auditSvc.Record(ctx, services.AuditEntry{
		ActorID: "actor-stale", Outcome: "allow", Rule: "self",
	}))
	require.NoError(t, db.Model(&models.AuditLog{}).
		Where("actor_id = ?", "actor-stale").
		Update("created_at", now.AddDate(0, 0, -30)).Error)

	// One presence record recently offline, one long gone, one still online.
	require.NoError(t, presence.RecordDisconnect(ctx, "recent"))
	require.NoError(t, presence.RecordConnect(ctx, "online"))
	require.NoError(t, db.Create(&models.PresenceRecord{
		ActorID:        "long-gone",
		Online:         false,
		LastDisconnect: now.AddDate(0, 0, -60).Unix(),
	}).Error)

	c := NewCleaner(auditSvc, presence,
		WithNow(func() time.Time { return now }),
		WithAuditRetentionDays(7),
		WithPresenceRetentionDays(30),
		WithCron(cron.New(cron.WithLogger(cron.DiscardLogger))),
	)

	require.NoError(t, c.RunOnce(ctx))

	var auditCount int64
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&auditCount).Error)
	require.Equal(t, int64(1), auditCount)

	var remaining models.AuditLog
	require.NoError(t, db.Take(&remaining).Error)
	require.Equal(t, "actor-fresh", remaining.ActorID)

	var presenceCount int64
	require.NoError(t, db.Model(&models.PresenceRecord{}).Count(&presenceCount).Error)
	require.Equal(t, int64(2), presenceCount)

	var gone models.PresenceRecord
	err = db.Take(&gone, "actor_id = ?", "long-gone").Error
	require.Error(t, err)
}

func TestCleanerSkipsDisabledJobs(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	auditSvc, err := services.NewAuditService(db)
	require.NoError(t, err)
	sharing, err := services.NewSharingService(db)
	require.NoError(t, err)
	presence, err := services.NewPresenceService(db, sharing)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, auditSvc.Record(ctx, services.AuditEntry{
		ActorID: "actor", Outcome: "deny", Rule: "rule_table",
	}))
	require.NoError(t, db.Model(&models.AuditLog{}).
		Where("actor_id = ?", "actor").
		Update("created_at", time.Now().AddDate(0, 0, -365)).Error)

	c := NewCleaner(auditSvc, presence, WithAuditRetentionDays(0))
	require.NoError(t, c.RunOnce(ctx))

	var count int64
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestCleanerStartStop(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	auditSvc, err := services.NewAuditService(db)
	require.NoError(t, err)

	c := NewCleaner(auditSvc, nil, WithAuditRetentionDays(7))
	require.NoError(t, c.Start())
	<-c.Stop().Done()
}
