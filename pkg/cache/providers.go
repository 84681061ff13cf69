package cache

import (
	"context"

	"github.com/platinummonkey/selfservice/pkg/domain"
	"github.com/platinummonkey/selfservice/pkg/registry"
)

// ProvidersCacheName is the name the provider cache reports in logs and metrics
const ProvidersCacheName = "providers"

type providerSnapshot struct {
	identityProviders []domain.IdentityProvider
	idpByID           map[string]domain.IdentityProvider
	spByID            map[string]domain.ServiceProvider
	// connections maps an identity provider to the service providers it is linked to
	connections map[string]map[string]struct{}
	// linked is the inverse of connections, in registry order of the identity providers
	linked map[string][]domain.IdentityProvider
}

// ProviderCache holds identity providers, service providers and the connectivity matrix
type ProviderCache struct {
	refresher[*providerSnapshot]
	registry registry.Registry
}

// NewProviderCache creates an empty provider cache backed by reg
func NewProviderCache(reg registry.Registry, cfg *Config) *ProviderCache {
	cfg = cfg.withDefaults()
	c := &ProviderCache{registry: reg}
	c.init(ProvidersCacheName, cfg, c.fetch)
	return c
}

func (c *ProviderCache) fetch(ctx context.Context) (*providerSnapshot, error) {
	data, err := c.registry.Providers(ctx)
	if err != nil {
		return nil, err
	}
	return buildProviderSnapshot(data), nil
}

func buildProviderSnapshot(data *registry.ProviderData) *providerSnapshot {
	snap := &providerSnapshot{
		identityProviders: make([]domain.IdentityProvider, 0, len(data.IdentityProviders)),
		idpByID:           make(map[string]domain.IdentityProvider, len(data.IdentityProviders)),
		spByID:            make(map[string]domain.ServiceProvider, len(data.ServiceProviders)),
		connections:       make(map[string]map[string]struct{}, len(data.Connections)),
		linked:            make(map[string][]domain.IdentityProvider),
	}

	for _, rec := range data.IdentityProviders {
		idp := rec.IdentityProvider()
		if _, dup := snap.idpByID[idp.ID]; dup {
			continue
		}
		snap.identityProviders = append(snap.identityProviders, idp)
		snap.idpByID[idp.ID] = idp
	}
	for _, rec := range data.ServiceProviders {
		sp := rec.ServiceProvider()
		snap.spByID[sp.ID] = sp
	}

	for idpID, spIDs := range data.Connections {
		set := make(map[string]struct{}, len(spIDs))
		for _, spID := range spIDs {
			set[spID] = struct{}{}
		}
		snap.connections[idpID] = set
	}

	// walk identity providers in registry order so the inverse lists are stable
	for _, idp := range snap.identityProviders {
		for spID := range snap.connections[idp.ID] {
			snap.linked[spID] = append(snap.linked[spID], idp)
		}
	}
	return snap
}

// GetServiceProviderIdentifiers returns the service providers linked to the identity provider.
// An identity provider without connections, known or not, yields an empty set.
func (c *ProviderCache) GetServiceProviderIdentifiers(idpEntityID string) map[string]struct{} {
	snap, ok := c.loaded()
	if !ok {
		return map[string]struct{}{}
	}
	set := snap.connections[idpEntityID]
	out := make(map[string]struct{}, len(set))
	for id := range set {
		out[id] = struct{}{}
	}
	return out
}

// GetLinkedIdentityProviders returns the identity providers linked to the service provider
func (c *ProviderCache) GetLinkedIdentityProviders(spEntityID string) []domain.IdentityProvider {
	snap, ok := c.loaded()
	if !ok {
		return []domain.IdentityProvider{}
	}
	linked := snap.linked[spEntityID]
	out := make([]domain.IdentityProvider, len(linked))
	copy(out, linked)
	return out
}

// GetIdentityProvider looks up an identity provider by entity id
func (c *ProviderCache) GetIdentityProvider(entityID string) (domain.IdentityProvider, bool) {
	snap, ok := c.loaded()
	if !ok {
		return domain.IdentityProvider{}, false
	}
	idp, found := snap.idpByID[entityID]
	return idp, found
}

// GetServiceProvider looks up a service provider by entity id
func (c *ProviderCache) GetServiceProvider(entityID string) (domain.ServiceProvider, bool) {
	snap, ok := c.loaded()
	if !ok {
		return domain.ServiceProvider{}, false
	}
	sp, found := snap.spByID[entityID]
	return sp, found
}

// GetIdentityProvidersByInstitution returns the identity providers of an institution, in registry order
func (c *ProviderCache) GetIdentityProvidersByInstitution(institutionID string) []domain.IdentityProvider {
	snap, ok := c.loaded()
	if !ok {
		return []domain.IdentityProvider{}
	}
	out := []domain.IdentityProvider{}
	for _, idp := range snap.identityProviders {
		if idp.SameInstitution(institutionID) {
			out = append(out, idp)
		}
	}
	return out
}
