package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const (
	servicesKey  = "selfservice:registry:services"
	providersKey = "selfservice:registry:providers"
)

// FallbackRegistry stores every successful upstream payload in redis and serves
// the stored copy when upstream fails. The in-process caches already keep their
// last snapshot on failure; this covers a restart while the registry is down.
type FallbackRegistry struct {
	upstream Registry
	redis    *redis.Client
	logger   *logrus.Logger
}

// NewFallbackRegistry wraps upstream
func NewFallbackRegistry(upstream Registry, client *redis.Client, logger *logrus.Logger) *FallbackRegistry {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &FallbackRegistry{
		upstream: upstream,
		redis:    client,
		logger:   logger,
	}
}

// Services fetches from upstream, falling back to the last stored payload
func (r *FallbackRegistry) Services(ctx context.Context) ([]ServiceRecord, error) {
	services, err := r.upstream.Services(ctx)
	if err == nil {
		r.store(ctx, servicesKey, services)
		return services, nil
	}

	var stored []ServiceRecord
	if ferr := r.restore(ctx, servicesKey, &stored); ferr != nil {
		return nil, fmt.Errorf("%w (fallback: %v)", err, ferr)
	}
	r.logger.WithError(err).Warn("Registry unavailable, serving last-known-good services")
	return stored, nil
}

// Providers fetches from upstream, falling back to the last stored payload
func (r *FallbackRegistry) Providers(ctx context.Context) (*ProviderData, error) {
	data, err := r.upstream.Providers(ctx)
	if err == nil {
		r.store(ctx, providersKey, data)
		return data, nil
	}

	stored := &ProviderData{}
	if ferr := r.restore(ctx, providersKey, stored); ferr != nil {
		return nil, fmt.Errorf("%w (fallback: %v)", err, ferr)
	}
	if stored.Connections == nil {
		stored.Connections = map[string][]string{}
	}
	r.logger.WithError(err).Warn("Registry unavailable, serving last-known-good providers")
	return stored, nil
}

func (r *FallbackRegistry) store(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		r.logger.WithError(err).WithField("key", key).Error("Failed to marshal registry payload")
		return
	}
	// no expiry: an old copy is still better than nothing during an outage
	if err := r.redis.Set(ctx, key, data, 0).Err(); err != nil {
		r.logger.WithError(err).WithField("key", key).Warn("Failed to store registry payload")
	}
}

func (r *FallbackRegistry) restore(ctx context.Context, key string, dest interface{}) error {
	data, err := r.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNoFallback
	}
	if err != nil {
		return fmt.Errorf("redis get failed: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		// corrupt payload, drop it
		r.redis.Del(ctx, key)
		return fmt.Errorf("failed to unmarshal fallback payload: %w", err)
	}
	return nil
}
