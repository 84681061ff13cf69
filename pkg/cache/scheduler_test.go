package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestScheduler_Register(t *testing.T) {
	s := NewScheduler(quietLogger(), time.Second)
	services := NewServicesCache(&stubRegistry{services: catalogRecords()}, testConfig())

	require.NoError(t, s.Register("@every 5m", services))
	assert.Len(t, s.Caches(), 1)

	err := s.Register("not a schedule", services)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "services")
	assert.Len(t, s.Caches(), 1)
}

func TestScheduler_RefreshAll(t *testing.T) {
	s := NewScheduler(quietLogger(), time.Second)
	services := NewServicesCache(&stubRegistry{services: catalogRecords()}, testConfig())
	providers := NewProviderCache(&stubRegistry{providers: providerData()}, testConfig())
	crmCache := NewCrmCache(&stubSource{err: errors.New("crm down")}, testConfig())

	require.NoError(t, s.Register("@every 5m", services))
	require.NoError(t, s.Register("@every 1m", providers))
	require.NoError(t, s.Register("@every 15m", crmCache))

	err := s.RefreshAll(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRefreshFailed))

	// the failing cache does not stop the others
	assert.Len(t, services.GetAllServices("en"), 2)
	assert.NotEmpty(t, providers.GetServiceProviderIdentifiers("idp1"))
	assert.True(t, crmCache.LoadedAt().IsZero())
}

func TestScheduler_RunsScheduledRefreshes(t *testing.T) {
	s := NewScheduler(quietLogger(), time.Second)
	reg := &stubRegistry{services: catalogRecords()}
	services := NewServicesCache(reg, testConfig())

	require.NoError(t, s.Register("@every 1s", services))
	s.Start()
	defer func() { <-s.Stop().Done() }()

	assert.Eventually(t, func() bool {
		return !services.LoadedAt().IsZero()
	}, 5*time.Second, 50*time.Millisecond)
}
