package api

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/selfservice/pkg/domain"
)

type staticIdps map[string]domain.IdentityProvider

func (s staticIdps) GetIdentityProvider(entityID string) (domain.IdentityProvider, bool) {
	idp, ok := s[entityID]
	return idp, ok
}

func TestHeaderUserResolver(t *testing.T) {
	resolver := NewHeaderUserResolver(staticIdps{
		testIdp: {ID: testIdp, Name: "Groningen", InstitutionID: "RUG"},
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RemoteUserHeader, "urn:collab:person:rug.nl:jdoe")
	req.Header.Set(RemoteNameHeader, "John Doe")
	req.Header.Set(RemoteEmailHeader, "jdoe@rug.nl")
	req.Header.Set(RemoteIdpHeader, testIdp)
	req.Header.Set(RemoteRolesHeader, "ROLE_DASHBOARD_ADMIN, ROLE_DASHBOARD_VIEWER,")

	user, err := resolver.CurrentUser(req)
	require.NoError(t, err)
	assert.Equal(t, "urn:collab:person:rug.nl:jdoe", user.UID)
	assert.Equal(t, "John Doe", user.DisplayName)
	assert.Equal(t, "jdoe@rug.nl", user.Email)
	assert.Equal(t, "RUG", user.InstitutionID)
	assert.Equal(t, []domain.Authority{domain.AuthorityDashboardAdmin, domain.AuthorityDashboardViewer}, user.Authorities)
}

func TestHeaderUserResolverUnknownIdp(t *testing.T) {
	resolver := NewHeaderUserResolver(staticIdps{})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RemoteUserHeader, "jdoe")
	req.Header.Set(RemoteIdpHeader, "https://unknown")

	user, err := resolver.CurrentUser(req)
	require.NoError(t, err)
	assert.Empty(t, user.InstitutionID)
	assert.Empty(t, user.Authorities)
}

func TestHeaderUserResolverUnauthenticated(t *testing.T) {
	resolver := NewHeaderUserResolver(nil)

	_, err := resolver.CurrentUser(httptest.NewRequest("GET", "/", nil))
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
