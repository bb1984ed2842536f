// Package scheduler runs the periodic housekeeping jobs of the service.
// Nothing here takes part in deciding when an item is due; "due" is always evaluated at query time.
package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/pkg/errors"

	"github.com/example/reviewsched/internal/logger"
)

// SessionExpirer expires active review sessions older than ttl.
type SessionExpirer interface {
	ExpireStale(ctx context.Context, now time.Time, ttl time.Duration) (int64, error)
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	expirer   SessionExpirer
	ttl       time.Duration
	interval  time.Duration
	log       *logger.Logger
	clock     func() time.Time
}

// New creates a new scheduler instance
func New(expirer SessionExpirer, ttl, interval time.Duration, log *logger.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		expirer:   expirer,
		ttl:       ttl,
		interval:  interval,
		log:       log,
		clock:     time.Now,
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(s.interval).Do(s.expireSessions); err != nil {
		return errors.Wrap(err, "failed to schedule session sweeper")
	}

	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
	s.log.Infof("session sweeper started: every %s, ttl %s", s.interval, s.ttl)
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// RunOnce performs one sweep immediately and returns the number of expired sessions.
func (s *Scheduler) RunOnce(ctx context.Context) (int64, error) {
	return s.expirer.ExpireStale(ctx, s.clock(), s.ttl)
}

func (s *Scheduler) expireSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := s.RunOnce(ctx)
	if err != nil {
		s.log.Errorf("Error expiring review sessions: %v", err)
		return
	}
	if n > 0 {
		s.log.Infof("Expired %d stale review sessions", n)
	}
}
