package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	schedulerSpec    = "@every 1m"
	schedulerLockKey = "scheduler_lock:maintenance"
	schedulerLockTTL = 50 * time.Second
)

type requestExpirer interface {
	ExpireStale(ctx context.Context, now time.Time, pendingTTL, acceptedTTL time.Duration) (int, error)
}

type sessionCloser interface {
	EndDue(ctx context.Context) (int, error)
}

type tickLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) bool
}

// Scheduler runs the periodic maintenance: expiring stale chat requests and
// ending sessions whose paid time is used up.
type Scheduler struct {
	cron        *cron.Cron
	requests    requestExpirer
	sessions    sessionCloser
	lock        tickLocker
	pendingTTL  time.Duration
	acceptedTTL time.Duration
	log         *zap.Logger
}

func NewScheduler(requests requestExpirer, sessions sessionCloser, lock tickLocker, pendingTTL, acceptedTTL time.Duration, log *zap.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.DefaultLogger),
			cron.SkipIfStillRunning(cron.DefaultLogger),
		)),
		requests:    requests,
		sessions:    sessions,
		lock:        lock,
		pendingTTL:  pendingTTL,
		acceptedTTL: acceptedTTL,
		log:         log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(schedulerSpec, func() { s.RunOnce(context.Background(), time.Now()) }); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("scheduler started", zap.String("schedule", schedulerSpec))
	return nil
}

// Stop waits for a running tick to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// RunOnce performs one maintenance pass. Only one instance runs a given tick.
func (s *Scheduler) RunOnce(ctx context.Context, now time.Time) {
	if s.lock != nil && !s.lock.TryLock(ctx, schedulerLockKey, schedulerLockTTL) {
		return
	}

	expired, err := s.requests.ExpireStale(ctx, now, s.pendingTTL, s.acceptedTTL)
	if err != nil {
		s.log.Error("expire chat requests", zap.Error(err))
	} else if expired > 0 {
		s.log.Info("expired chat requests", zap.Int("count", expired))
	}

	ended, err := s.sessions.EndDue(ctx)
	if err != nil {
		s.log.Error("end due sessions", zap.Error(err))
	} else if ended > 0 {
		s.log.Info("ended due sessions", zap.Int("count", ended))
	}
}
