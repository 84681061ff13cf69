package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/platinummonkey/selfservice/pkg/domain"
	"github.com/platinummonkey/selfservice/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func providerData() *registry.ProviderData {
	return &registry.ProviderData{
		IdentityProviders: []registry.IdentityProviderRecord{
			{EntityID: "idp1", Name: "Groningen", InstitutionID: "RUG"},
			{EntityID: "idp2", Name: "Utrecht", InstitutionID: "UU"},
			{EntityID: "idp3", Name: "Groningen test", InstitutionID: "rug"},
		},
		ServiceProviders: []registry.ServiceProviderRecord{
			{EntityID: "sp1", Name: "SP One"},
			{EntityID: "sp2", Name: "SP Two"},
		},
		Connections: map[string][]string{
			"idp3": {"sp1"},
			"idp1": {"sp1", "sp2"},
			"idp2": {"sp2"},
		},
	}
}

func loadedProviderCache(t *testing.T) *ProviderCache {
	t.Helper()
	c := NewProviderCache(&stubRegistry{providers: providerData()}, testConfig())
	require.NoError(t, c.Refresh(context.Background()))
	return c
}

func TestProviderCache_GetServiceProviderIdentifiers(t *testing.T) {
	c := loadedProviderCache(t)

	assert.Equal(t, map[string]struct{}{"sp1": {}, "sp2": {}}, c.GetServiceProviderIdentifiers("idp1"))
	assert.Equal(t, map[string]struct{}{"sp2": {}}, c.GetServiceProviderIdentifiers("idp2"))

	unknown := c.GetServiceProviderIdentifiers("nope")
	assert.NotNil(t, unknown)
	assert.Empty(t, unknown)

	// mutating the result leaves the snapshot alone
	set := c.GetServiceProviderIdentifiers("idp2")
	set["sp9"] = struct{}{}
	assert.NotContains(t, c.GetServiceProviderIdentifiers("idp2"), "sp9")
}

func TestProviderCache_GetLinkedIdentityProviders(t *testing.T) {
	c := loadedProviderCache(t)

	linked := c.GetLinkedIdentityProviders("sp1")
	require.Len(t, linked, 2)
	// registry order, not connection map order
	assert.Equal(t, "idp1", linked[0].ID)
	assert.Equal(t, "idp3", linked[1].ID)

	linked = c.GetLinkedIdentityProviders("sp2")
	require.Len(t, linked, 2)
	assert.Equal(t, "idp1", linked[0].ID)
	assert.Equal(t, "idp2", linked[1].ID)

	assert.Empty(t, c.GetLinkedIdentityProviders("sp-unknown"))
}

func TestProviderCache_Lookups(t *testing.T) {
	c := loadedProviderCache(t)

	idp, ok := c.GetIdentityProvider("idp2")
	require.True(t, ok)
	assert.Equal(t, domain.IdentityProvider{ID: "idp2", Name: "Utrecht", InstitutionID: "UU"}, idp)

	_, ok = c.GetIdentityProvider("missing")
	assert.False(t, ok)

	sp, ok := c.GetServiceProvider("sp1")
	require.True(t, ok)
	assert.Equal(t, "SP One", sp.Name)

	_, ok = c.GetServiceProvider("missing")
	assert.False(t, ok)

	byInstitution := c.GetIdentityProvidersByInstitution("Rug")
	require.Len(t, byInstitution, 2)
	assert.Equal(t, "idp1", byInstitution[0].ID)
	assert.Equal(t, "idp3", byInstitution[1].ID)

	assert.Empty(t, c.GetIdentityProvidersByInstitution(""))
}

func TestProviderCache_BeforeFirstLoad(t *testing.T) {
	c := NewProviderCache(&stubRegistry{err: errors.New("registry down")}, testConfig())
	require.Error(t, c.Refresh(context.Background()))

	assert.Empty(t, c.GetServiceProviderIdentifiers("idp1"))
	assert.Empty(t, c.GetLinkedIdentityProviders("sp1"))
	assert.Empty(t, c.GetIdentityProvidersByInstitution("RUG"))
	_, ok := c.GetIdentityProvider("idp1")
	assert.False(t, ok)
	_, ok = c.GetServiceProvider("sp1")
	assert.False(t, ok)
}

func TestProviderCache_RefreshSwapsMatrix(t *testing.T) {
	reg := &stubRegistry{providers: providerData()}
	c := NewProviderCache(reg, testConfig())
	require.NoError(t, c.Refresh(context.Background()))
	assert.Contains(t, c.GetServiceProviderIdentifiers("idp2"), "sp2")

	reg.set(func(s *stubRegistry) {
		data := providerData()
		data.Connections = map[string][]string{"idp2": {"sp1"}}
		s.providers = data
	})
	require.NoError(t, c.Refresh(context.Background()))

	assert.Equal(t, map[string]struct{}{"sp1": {}}, c.GetServiceProviderIdentifiers("idp2"))
	assert.Empty(t, c.GetServiceProviderIdentifiers("idp1"))
}
