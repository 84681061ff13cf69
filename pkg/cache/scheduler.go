package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Scheduler refreshes caches on cron schedules
type Scheduler struct {
	cron    *cron.Cron
	logger  *logrus.Logger
	timeout time.Duration

	mu     sync.Mutex
	caches []Refreshable
}

// NewScheduler creates a scheduler. Each scheduled refresh is bounded by timeout.
func NewScheduler(logger *logrus.Logger, timeout time.Duration) *Scheduler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Scheduler{
		cron:    cron.New(),
		logger:  logger,
		timeout: timeout,
	}
}

// Register schedules refreshes of c according to spec (for example "@every 5m")
func (s *Scheduler) Register(spec string, c Refreshable) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		// failures are logged by the cache and retried on the next tick
		_ = c.Refresh(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule %s refresh: %w", c.Name(), err)
	}

	s.mu.Lock()
	s.caches = append(s.caches, c)
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"cache":    c.Name(),
		"schedule": spec,
	}).Info("Scheduled cache refresh")
	return nil
}

// Caches returns the registered caches
func (s *Scheduler) Caches() []Refreshable {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Refreshable, len(s.caches))
	copy(out, s.caches)
	return out
}

// RefreshAll refreshes every registered cache in parallel and waits for all of them.
// It returns the first failure; the other caches are still refreshed.
func (s *Scheduler) RefreshAll(ctx context.Context) error {
	var g errgroup.Group
	for _, c := range s.Caches() {
		c := c
		g.Go(func() error {
			return c.Refresh(ctx)
		})
	}
	return g.Wait()
}

// Start begins running scheduled refreshes
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler. The returned context is done once running refreshes finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
