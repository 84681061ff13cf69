package cache

import (
	"context"
	"sync"
	"time"

	"github.com/platinummonkey/selfservice/pkg/crm"
	"github.com/platinummonkey/selfservice/pkg/registry"
	"github.com/sirupsen/logrus"
)

type stubRegistry struct {
	mu        sync.Mutex
	services  []registry.ServiceRecord
	providers *registry.ProviderData
	err       error
	calls     int
}

func (s *stubRegistry) Services(ctx context.Context) ([]registry.ServiceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.services, nil
}

func (s *stubRegistry) Providers(ctx context.Context) (*registry.ProviderData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.providers, nil
}

func (s *stubRegistry) set(fn func(*stubRegistry)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

type stubSource struct {
	licenses []crm.LicenseRecord
	articles []crm.Article
	err      error
}

func (s *stubSource) Licenses(ctx context.Context) ([]crm.LicenseRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.licenses, nil
}

func (s *stubSource) Articles(ctx context.Context) ([]crm.Article, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.articles, nil
}

type recordingObserver struct {
	mu     sync.Mutex
	caches []string
	errors []error
}

func (o *recordingObserver) ObserveCacheRefresh(cache string, duration time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.caches = append(o.caches, cache)
	o.errors = append(o.errors, err)
}

func testConfig() *Config {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	cfg := DefaultConfig()
	cfg.Logger = logger
	return cfg
}
