package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// RefreshObserver is notified after every refresh attempt
type RefreshObserver interface {
	ObserveCacheRefresh(cache string, duration time.Duration, err error)
}

// Refreshable is a cache the scheduler can refresh
type Refreshable interface {
	Name() string
	Refresh(ctx context.Context) error
	LoadedAt() time.Time
}

type snapshot[T any] struct {
	value    T
	loadedAt time.Time
}

// refresher owns the current snapshot of one cache. Refresh calls are coalesced so
// at most one load runs at a time.
type refresher[T any] struct {
	name     string
	load     func(ctx context.Context) (T, error)
	current  atomic.Pointer[snapshot[T]]
	group    singleflight.Group
	logger   *logrus.Logger
	observer RefreshObserver
	now      func() time.Time
}

func (r *refresher[T]) init(name string, cfg *Config, load func(ctx context.Context) (T, error)) {
	r.name = name
	r.load = load
	r.logger = cfg.Logger
	r.observer = cfg.Observer
	r.now = time.Now
}

// Name returns the cache name used in logs and metrics
func (r *refresher[T]) Name() string {
	return r.name
}

// Refresh loads a new snapshot and publishes it. On failure the previous snapshot stays
// in place and the error is returned.
func (r *refresher[T]) Refresh(ctx context.Context) error {
	_, err, shared := r.group.Do(r.name, func() (interface{}, error) {
		start := r.now()
		value, err := r.load(ctx)
		elapsed := r.now().Sub(start)
		if r.observer != nil {
			r.observer.ObserveCacheRefresh(r.name, elapsed, err)
		}
		if err != nil {
			r.logger.WithError(err).WithField("cache", r.name).Warn("Cache refresh failed, keeping previous snapshot")
			return nil, fmt.Errorf("%w: %s: %w", ErrRefreshFailed, r.name, err)
		}

		r.current.Store(&snapshot[T]{value: value, loadedAt: r.now()})
		r.logger.WithFields(logrus.Fields{
			"cache":    r.name,
			"duration": elapsed,
		}).Debug("Cache refreshed")
		return nil, nil
	})
	if shared {
		r.logger.WithField("cache", r.name).Debug("Joined in-flight cache refresh")
	}
	return err
}

// LoadedAt returns when the current snapshot was published, or the zero time
func (r *refresher[T]) LoadedAt() time.Time {
	if s := r.current.Load(); s != nil {
		return s.loadedAt
	}
	return time.Time{}
}

// loaded returns the current value and whether one was ever loaded
func (r *refresher[T]) loaded() (T, bool) {
	s := r.current.Load()
	if s == nil {
		var zero T
		return zero, false
	}
	return s.value, true
}
