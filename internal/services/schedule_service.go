package services

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/charlesng35/lootguard/internal/providers"
	"github.com/charlesng35/lootguard/internal/schedule"
	"github.com/charlesng35/lootguard/pkg/logger"
	"github.com/charlesng35/lootguard/pkg/metrics"
)

const (
	// realTimeTickSpec polls the wall clock.
	realTimeTickSpec = "@every 30s"
	// gameTimeTickSpec polls the in-game clock, which can run many times
	// faster than real time and needs the finer cadence.
	gameTimeTickSpec = "@every 5s"
)

// ScheduleConfig configures the schedule evaluator.
type ScheduleConfig struct {
	// Spec is the weekly window string, e.g. "*;9:00;22:30".
	Spec string
	// UseRealTime evaluates against the wall clock instead of the in-game
	// clock.
	UseRealTime bool
}

// ScheduleService flips the engine's enabled flag as the configured weekly
// window opens and closes. It is the only writer of that flag while running;
// administrative enable/disable calls race with it by design, matching the
// manual-override-until-next-tick behaviour operators expect.
type ScheduleService struct {
	cfg       ScheduleConfig
	state     *EngineState
	gameClock providers.GameClock
	cron      *cron.Cron
	now       func() time.Time
	log       *zap.Logger
}

// ScheduleOption customises the schedule service.
type ScheduleOption func(*ScheduleService)

// WithScheduleCron injects a preconfigured cron instance, primarily for testing.
func WithScheduleCron(c *cron.Cron) ScheduleOption {
	return func(s *ScheduleService) {
		if c != nil {
			s.cron = c
		}
	}
}

// WithScheduleNow overrides the wall clock, for tests.
func WithScheduleNow(now func() time.Time) ScheduleOption {
	return func(s *ScheduleService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewScheduleService constructs a schedule service. The game clock may be nil
// when real time is configured.
func NewScheduleService(cfg ScheduleConfig, state *EngineState, gameClock providers.GameClock, opts ...ScheduleOption) (*ScheduleService, error) {
	if state == nil {
		return nil, errors.New("schedule service: engine state is required")
	}
	if !cfg.UseRealTime && gameClock == nil {
		return nil, errors.New("schedule service: a game clock is required when real time is disabled")
	}

	svc := &ScheduleService{
		cfg:       cfg,
		state:     state,
		gameClock: gameClock,
		now:       time.Now,
		log:       logger.WithModule("schedule"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.cron == nil {
		svc.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}
	return svc, nil
}

// Start registers the recurring evaluation tick and launches the scheduler.
func (s *ScheduleService) Start() error {
	spec := gameTimeTickSpec
	if s.cfg.UseRealTime {
		spec = realTimeTickSpec
	}
	if _, err := s.cron.AddFunc(spec, func() {
		s.Tick(context.Background())
	}); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the scheduler, waiting for a running tick to finish.
func (s *ScheduleService) Stop() context.Context {
	return s.cron.Stop()
}

// Tick evaluates the window once against the current clock and updates the
// enabled flag. A malformed window string or a failing game clock leaves the
// flag untouched; the next tick retries.
func (s *ScheduleService) Tick(ctx context.Context) {
	window, err := schedule.Parse(s.cfg.Spec)
	if err != nil {
		s.log.Warn("schedule not evaluated", zap.Error(err))
		return
	}

	var now time.Time
	if s.cfg.UseRealTime {
		now = s.now()
	} else {
		now, err = s.gameClock.Now(ensureContext(ctx))
		if err != nil {
			metrics.ProviderFailures.WithLabelValues("game_clock").Inc()
			s.log.Warn("game clock unavailable, keeping previous state", zap.Error(err))
			return
		}
	}

	active := window.ActiveAt(now)
	previous := s.state.Enabled()
	s.state.SetEnabled(active)

	if active {
		metrics.ScheduleEnabled.Set(1)
	} else {
		metrics.ScheduleEnabled.Set(0)
	}
	if previous != active {
		s.log.Info("protection window changed",
			zap.Bool("enabled", active),
			zap.String("window", s.cfg.Spec))
	}
}
