package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/lootguard/internal/services"
	"github.com/charlesng35/lootguard/pkg/logger"
)

const (
	defaultAuditRetentionDays = 90
	defaultAuditSpec          = "@daily"
	defaultPresenceSpec       = "@daily"
)

// Cleaner coordinates background maintenance tasks: pruning stale audit logs
// and dropping presence records for actors that have been gone long enough
// that no protection rule can reference them.
type Cleaner struct {
	audit    *services.AuditService
	presence *services.PresenceService
	cron     *cron.Cron
	now      func() time.Time
	log      *zap.Logger

	auditRetentionDays    int
	presenceRetentionDays int
	auditSchedule         string
	presenceSchedule      string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for retention comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithAuditRetentionDays adjusts how long audit logs are retained. Zero or
// negative disables audit cleanup.
func WithAuditRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		cleaner.auditRetentionDays = days
	}
}

// WithPresenceRetentionDays enables pruning of presence records whose last
// disconnect is older than the given number of days. Disabled by default.
func WithPresenceRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		cleaner.presenceRetentionDays = days
	}
}

// WithAuditSchedule overrides the cron specification for audit retention enforcement.
func WithAuditSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.auditSchedule = spec
		}
	}
}

// WithPresenceSchedule overrides the cron specification for presence pruning.
func WithPresenceSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.presenceSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults. A nil dependency
// results in the corresponding cleanup job being skipped.
func NewCleaner(audit *services.AuditService, presence *services.PresenceService, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		audit:              audit,
		presence:           presence,
		now:                time.Now,
		auditRetentionDays: defaultAuditRetentionDays,
		auditSchedule:      defaultAuditSpec,
		presenceSchedule:   defaultPresenceSpec,
		log:                logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

func (c *Cleaner) auditEnabled() bool {
	return c.audit != nil && c.auditRetentionDays > 0
}

func (c *Cleaner) presenceEnabled() bool {
	return c.presence != nil && c.presenceRetentionDays > 0
}

// Start registers cleanup jobs with the cron scheduler and launches it if at
// least one job is enabled.
func (c *Cleaner) Start() error {
	if !c.auditEnabled() && !c.presenceEnabled() {
		return nil
	}

	if c.auditEnabled() {
		if _, err := c.cron.AddFunc(c.auditSchedule, func() {
			if _, err := c.audit.CleanupOlderThan(context.Background(), c.auditRetentionDays); err != nil {
				c.log.Warn("audit cleanup failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	if c.presenceEnabled() {
		if _, err := c.cron.AddFunc(c.presenceSchedule, func() {
			cutoff := c.now().AddDate(0, 0, -c.presenceRetentionDays)
			if _, err := c.presence.PruneDisconnectedBefore(context.Background(), cutoff); err != nil {
				c.log.Warn("presence cleanup failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes all configured cleanup routines sequentially. Primarily
// used in tests and during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if c.auditEnabled() {
		if _, err := c.audit.CleanupOlderThan(ctx, c.auditRetentionDays); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	if c.presenceEnabled() {
		cutoff := c.now().AddDate(0, 0, -c.presenceRetentionDays)
		if _, err := c.presence.PruneDisconnectedBefore(ctx, cutoff); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}
