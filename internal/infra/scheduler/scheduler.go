package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"ai-assistant-backend/internal/infra/redis"
)

// Ticker is the unit of work the scheduler repeats. The slide job reconciler
// satisfies it.
type Ticker interface {
	Tick(ctx context.Context) error
}

type Options struct {
	Interval    time.Duration
	TickTimeout time.Duration
	// Locker and LockKey, when set, keep a tick from running on two replicas
	// at once. A held lock skips the tick.
	Locker  redis.Locker
	LockKey string
}

// Scheduler runs a Ticker every interval. Ticks never overlap: the next one
// is scheduled after the previous returns, and missed ticks are not replayed.
type Scheduler struct {
	name   string
	ticker Ticker
	opts   Options
	log    *zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler defaults the interval to 20s and the per-tick timeout to 30s.
func NewScheduler(name string, t Ticker, opts Options, logger *zerolog.Logger) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = 20 * time.Second
	}
	if opts.TickTimeout <= 0 {
		opts.TickTimeout = 30 * time.Second
	}
	l := logger.With().Str("component", "scheduler").Str("job", name).Logger()
	return &Scheduler{
		name:   name,
		ticker: t,
		opts:   opts,
		log:    &l,
		done:   make(chan struct{}),
	}
}

// Start begins the loop in a background goroutine. Calling it twice has no effect.
func (s *Scheduler) Start(parentCtx context.Context) {
	if s.ctx != nil {
		return
	}
	ctx, cancel := context.WithCancel(parentCtx)
	s.ctx = ctx
	s.cancel = cancel

	go s.loop()
}

func (s *Scheduler) loop() {
	timer := time.NewTimer(s.opts.Interval)
	defer func() {
		timer.Stop()
		close(s.done)
	}()

	s.log.Info().Dur("interval", s.opts.Interval).Msg("scheduler started")
	for {
		select {
		case <-s.ctx.Done():
			s.log.Info().Msg("scheduler context cancelled; stopping")
			return
		case <-timer.C:
			s.RunOnce(s.ctx)
			timer.Reset(s.opts.Interval)
		}
	}
}

// RunOnce performs a single bounded tick. Errors are logged, never returned:
// a failed tick must not stop the loop.
func (s *Scheduler) RunOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.opts.TickTimeout)
	defer cancel()

	if s.opts.Locker != nil && s.opts.LockKey != "" {
		token, err := s.opts.Locker.TryLock(runCtx, s.opts.LockKey, s.opts.TickTimeout)
		if errors.Is(err, redis.ErrLockHeld) {
			s.log.Debug().Msg("tick skipped; another replica holds the lock")
			return
		}
		if err != nil {
			// Run unlocked rather than stall; the job lease still prevents
			// duplicate polls of one job.
			s.log.Warn().Err(err).Msg("tick lock unavailable")
		} else {
			defer func() {
				unlockCtx, done := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
				defer done()
				if err := s.opts.Locker.Unlock(unlockCtx, s.opts.LockKey, token); err != nil {
					s.log.Warn().Err(err).Msg("tick unlock failed")
				}
			}()
		}
	}

	if err := s.ticker.Tick(runCtx); err != nil {
		s.log.Error().Err(err).Msg("tick failed")
	}
}

// Stop cancels the loop and waits for an in-flight tick to return. It is idempotent.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.ctx = nil
	s.cancel = nil
	s.done = make(chan struct{})
	s.log.Info().Msg("scheduler stopped")
}
